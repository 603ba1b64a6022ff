package logging

const (
	// FieldComponent is the standardized structured logging key for component names.
	FieldComponent = "component"
	// FieldEventType classifies a log line for filtering (e.g. "acquire_rate_limited").
	FieldEventType = "event_type"
	// FieldErrorHint carries the operator's next step for a warning or error.
	FieldErrorHint = "error_hint"
	// FieldImpact is the standardized key for user-facing consequence of a warning.
	FieldImpact = "impact"
	// FieldRunID identifies an acquisition run.
	FieldRunID = "run_id"
	// FieldClip is the catalog identifier a log line refers to.
	FieldClip = "clip"
	// FieldChatID is the Telegram chat a log line refers to.
	FieldChatID = "chat_id"
	// FieldUserID is the Telegram user a log line refers to.
	FieldUserID = "user_id"
	// FieldAlert flags warnings or anomalies that should stand out in structured logs.
	FieldAlert = "alert"
)
