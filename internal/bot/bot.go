package bot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"voicebot/internal/acquire"
	"voicebot/internal/library"
	"voicebot/internal/logging"
	"voicebot/internal/services"
	"voicebot/internal/services/telegram"
)

// API is the subset of the Bot API the bot uses.
type API interface {
	GetMe(ctx context.Context) (telegram.User, error)
	GetUpdates(ctx context.Context, offset int64) ([]telegram.Update, error)
	SendMessage(ctx context.Context, chatID int64, text string) (telegram.Message, error)
	AnswerInlineQuery(ctx context.Context, queryID string, results []telegram.CachedVoiceResult, cacheTime time.Duration, personal bool) error
}

// TransportFactory returns the acquisition transport for uploads started
// from chatID.
type TransportFactory func(chatID int64) acquire.Transport

// Bot dispatches updates.
type Bot struct {
	api       API
	lib       *library.Library
	transport TransportFactory
	logger    *slog.Logger

	maxRestarts  int
	restartDelay time.Duration
	sleep        func(ctx context.Context, d time.Duration) error

	usernameMu sync.Mutex
	username   string

	// offset is owned by the polling goroutine and survives restarts.
	offset int64

	uploads sync.WaitGroup
}

// New builds a bot over lib.
func New(api API, lib *library.Library, transport TransportFactory, logger *slog.Logger) *Bot {
	cfg := lib.Config()
	return &Bot{
		api:          api,
		lib:          lib,
		transport:    transport,
		logger:       logging.NewComponentLogger(logger, "bot"),
		maxRestarts:  cfg.Bot.MaxRestarts,
		restartDelay: cfg.RestartDelay(),
		sleep:        sleepWithContext,
	}
}

// Run polls for updates until ctx ends. A failed polling loop is restarted
// after the configured delay; the restart budget resets whenever a poll
// succeeds. Run returns nil on cancellation and waits for background uploads
// to persist their progress before returning.
func (b *Bot) Run(ctx context.Context) error {
	defer b.uploads.Wait()

	if me, err := b.api.GetMe(ctx); err != nil {
		if errors.Is(err, services.ErrUnauthorized) {
			return fmt.Errorf("telegram rejected the bot token: %w", err)
		}
		logging.WarnWithContext(b.logger, "getMe failed", "bot_getme_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check network access to the Bot API"),
			logging.String(logging.FieldImpact, "help text will not mention the bot username"))
	} else {
		b.setUsername(me.Username)
		b.logger.Info("bot connected",
			logging.String(logging.FieldEventType, "bot_connected"),
			logging.String("username", me.Username))
	}

	restarts := 0
	for {
		healthy := false
		err := b.poll(ctx, func() { healthy = true })
		if ctx.Err() != nil {
			return nil
		}
		if healthy {
			restarts = 0
		}
		if errors.Is(err, services.ErrUnauthorized) {
			return fmt.Errorf("polling stopped: %w", err)
		}
		if restarts >= b.maxRestarts {
			logging.ErrorWithContext(b.logger, "polling loop failed permanently", "bot_restart_exhausted",
				logging.Error(err),
				logging.Int("restarts", restarts),
				logging.String(logging.FieldErrorHint, "check connectivity and the bot token, then restart voicebot"))
			return fmt.Errorf("polling failed after %d restarts: %w", restarts, err)
		}
		restarts++
		hint := "transient Bot API failures are retried automatically"
		if !services.IsRetriable(err) {
			hint = "check telegram.api_base_url and the bot token"
		}
		logging.WarnWithContext(b.logger, "polling loop failed; restarting", "bot_restart",
			logging.Error(err),
			logging.Int("restart", restarts),
			logging.Int("max_restarts", b.maxRestarts),
			logging.Duration("delay", b.restartDelay),
			logging.String(logging.FieldErrorHint, hint),
			logging.String(logging.FieldImpact, "inline queries are not answered until polling resumes"))
		if err := b.sleep(ctx, b.restartDelay); err != nil {
			return nil
		}
	}
}

func (b *Bot) poll(ctx context.Context, onSuccess func()) error {
	for {
		updates, err := b.api.GetUpdates(ctx, b.offset)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if cooldown, ok := telegram.RetryAfter(err); ok {
				if err := b.sleep(ctx, cooldown); err != nil {
					return err
				}
				continue
			}
			return err
		}
		onSuccess()
		for _, update := range updates {
			if update.UpdateID >= b.offset {
				b.offset = update.UpdateID + 1
			}
			b.HandleUpdate(ctx, update)
		}
	}
}

// HandleUpdate routes a single update.
func (b *Bot) HandleUpdate(ctx context.Context, update telegram.Update) {
	ctx = services.WithUpdateID(ctx, update.UpdateID)
	switch {
	case update.InlineQuery != nil:
		b.handleInline(ctx, update.InlineQuery)
	case update.Message != nil:
		b.handleMessage(services.WithChatID(ctx, update.Message.Chat.ID), update.Message)
	}
}

// Wait blocks until background uploads have finished.
func (b *Bot) Wait() { b.uploads.Wait() }

func (b *Bot) handleInline(ctx context.Context, query *telegram.InlineQuery) {
	resp := b.lib.Respond(strings.TrimSpace(query.Query))
	results := make([]telegram.CachedVoiceResult, 0, len(resp.Results))
	for _, r := range resp.Results {
		results = append(results, telegram.NewCachedVoiceResult(r.ID, r.Handle, r.Label))
	}
	if err := b.api.AnswerInlineQuery(ctx, query.ID, results, resp.CacheTime, true); err != nil {
		logging.WarnWithContext(b.logger.With(updateAttrs(ctx)...), "answer inline query failed", "bot_inline_failed",
			logging.Int64(logging.FieldUserID, query.From.ID),
			logging.String("query", query.Query),
			logging.Error(err),
			logging.String(logging.FieldImpact, "user saw no results for this query"))
		return
	}
	attrs := []any{
		logging.Int64(logging.FieldUserID, query.From.ID),
		logging.String("query", query.Query),
		logging.Int("results", len(results)),
	}
	if !resp.Empty() {
		attrs = append(attrs, logging.Float64("top_score", resp.Results[0].Score))
	}
	b.logger.Debug("inline query answered", attrs...)
}

func (b *Bot) handleMessage(ctx context.Context, msg *telegram.Message) {
	command, ok := parseCommand(msg.Text, b.getUsername())
	if !ok {
		return
	}
	var userID int64
	if msg.From != nil {
		userID = msg.From.ID
	}
	b.logger.Debug("command received",
		logging.String("command", command),
		logging.Int64(logging.FieldChatID, msg.Chat.ID),
		logging.Int64(logging.FieldUserID, userID))

	switch command {
	case "start", "help":
		b.reply(ctx, msg.Chat.ID, helpText(b.getUsername()))
	case "stats":
		b.reply(ctx, msg.Chat.ID, statsText(b.lib.Stats()))
	case "upload":
		if !b.lib.Config().IsAdmin(userID) {
			b.reply(ctx, msg.Chat.ID, notAllowedText)
			return
		}
		b.startUpload(ctx, msg.Chat.ID)
	case "rescan":
		if !b.lib.Config().IsAdmin(userID) {
			b.reply(ctx, msg.Chat.ID, notAllowedText)
			return
		}
		if err := b.lib.Rescan(); err != nil {
			logging.ErrorWithContext(b.logger, "rescan failed", "bot_rescan_failed", logging.Error(err))
			b.reply(ctx, msg.Chat.ID, "❌ Rescan failed: "+err.Error())
			return
		}
		b.reply(ctx, msg.Chat.ID, rescanText(b.lib.Stats()))
	}
}

func (b *Bot) startUpload(ctx context.Context, chatID int64) {
	if b.lib.Acquiring() {
		b.reply(ctx, chatID, uploadRunningText)
		return
	}
	b.reply(ctx, chatID, uploadStartingText)

	reporter := &chatReporter{api: b.api, chatID: chatID, logger: b.logger}
	transport := b.transport(chatID)
	b.uploads.Add(1)
	go func() {
		defer b.uploads.Done()
		_, err := b.lib.Acquire(ctx, transport, reporter, "bot")
		switch {
		case errors.Is(err, library.ErrAcquisitionRunning):
			b.reply(context.WithoutCancel(ctx), chatID, uploadRunningText)
		case err != nil && !errors.Is(err, context.Canceled):
			logging.ErrorWithContext(b.logger, "upload run failed", "bot_upload_failed",
				logging.Int64(logging.FieldChatID, chatID),
				logging.Error(err))
		}
	}()
}

func (b *Bot) reply(ctx context.Context, chatID int64, text string) {
	if _, err := b.api.SendMessage(ctx, chatID, text); err != nil {
		logging.WarnWithContext(b.logger.With(updateAttrs(ctx)...), "send message failed", "bot_send_failed",
			logging.Int64(logging.FieldChatID, chatID),
			logging.Error(err),
			logging.String(logging.FieldImpact, "operator did not receive a reply"))
	}
}

// updateAttrs returns the update and chat identifiers carried by ctx.
func updateAttrs(ctx context.Context) []any {
	var attrs []any
	if id, ok := services.UpdateIDFromContext(ctx); ok {
		attrs = append(attrs, logging.Int64("update_id", id))
	}
	if id, ok := services.ChatIDFromContext(ctx); ok {
		attrs = append(attrs, logging.Int64(logging.FieldChatID, id))
	}
	return attrs
}

func (b *Bot) setUsername(name string) {
	b.usernameMu.Lock()
	b.username = name
	b.usernameMu.Unlock()
}

func (b *Bot) getUsername() string {
	b.usernameMu.Lock()
	defer b.usernameMu.Unlock()
	return b.username
}

// parseCommand extracts the command name from "/cmd@bot args". Commands
// addressed to another bot are ignored.
func parseCommand(text, username string) (string, bool) {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "/") {
		return "", false
	}
	head := strings.Fields(text)[0][1:]
	name, target, addressed := strings.Cut(head, "@")
	if addressed && username != "" && !strings.EqualFold(target, username) {
		return "", false
	}
	name = strings.ToLower(name)
	return name, name != ""
}

func sleepWithContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
