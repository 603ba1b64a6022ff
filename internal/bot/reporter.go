package bot

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"voicebot/internal/acquire"
	"voicebot/internal/logging"
)

// chatReporter relays acquisition progress to the chat that started it.
type chatReporter struct {
	api    API
	chatID int64
	logger *slog.Logger
}

func (r *chatReporter) Started(context.Context, string, int, int) {}

func (r *chatReporter) RateLimited(ctx context.Context, _ acquire.Item, cooldown time.Duration) {
	r.send(ctx, fmt.Sprintf("⏸️ Rate limit reached. Pausing for %d seconds...", int(cooldown.Round(time.Second)/time.Second)))
}

func (r *chatReporter) Progress(ctx context.Context, p acquire.Progress) {
	r.send(ctx, fmt.Sprintf("✅ Progress: %d/%d\nUploaded: %d | Skipped: %d | Errors: %d",
		p.Processed, p.Total, p.Uploaded, p.Skipped, p.Errors))
}

func (r *chatReporter) Finished(ctx context.Context, s acquire.Summary) {
	var header string
	switch s.Status {
	case acquire.StatusCancelled:
		header = "⏹️ Upload stopped. Progress was saved; run /upload to resume."
	case acquire.StatusAborted:
		header = "❌ Upload aborted: the handle cache could not be saved."
	default:
		header = "✅ Upload completed!"
	}
	r.send(ctx, fmt.Sprintf("%s\nTotal: %d\nUploaded: %d\nSkipped: %d\nErrors: %d",
		header, s.Total, s.Uploaded, s.Skipped, s.Errors))
}

func (r *chatReporter) send(ctx context.Context, text string) {
	if _, err := r.api.SendMessage(ctx, r.chatID, text); err != nil {
		r.logger.Debug("progress message not delivered",
			logging.String(logging.FieldEventType, "bot_progress_failed"),
			logging.Int64(logging.FieldChatID, r.chatID),
			logging.Error(err))
	}
}
