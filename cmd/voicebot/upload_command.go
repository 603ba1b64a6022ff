package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"voicebot/internal/acquire"
	"voicebot/internal/daemon"
	"voicebot/internal/logging"
	"voicebot/internal/services/telegram"
)

func newUploadCommand(ctx *commandContext) *cobra.Command {
	var chatID int64

	cmd := &cobra.Command{
		Use:   "upload",
		Short: "Upload clips without a cached handle",
		Long: "Upload every catalog clip that has no cached Telegram handle by sending it " +
			"as a voice message to --chat. Progress is saved periodically; an interrupted " +
			"run resumes where it stopped.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if err := cfg.RequireBotToken(); err != nil {
				return err
			}
			target := chatID
			if target == 0 && len(cfg.Telegram.AdminIDs) > 0 {
				target = cfg.Telegram.AdminIDs[0]
			}
			if target == 0 {
				return errors.New("--chat is required when telegram.admin_ids is empty")
			}

			lock, err := daemon.AcquireLock(cfg.LockPath())
			if errors.Is(err, daemon.ErrAlreadyRunning) {
				return fmt.Errorf("%w: stop 'voicebot serve' or send /upload to the bot instead", err)
			}
			if err != nil {
				return err
			}
			defer func() { _ = lock.Unlock() }()

			logger, err := logging.NewFromConfig(cfg)
			if err != nil {
				return fmt.Errorf("init logger: %w", err)
			}
			lib, err := ctx.openLibrary(logger)
			if err != nil {
				return err
			}
			defer lib.Close()

			client := telegram.NewClient(telegram.Config{
				Token:          cfg.Telegram.BotToken,
				BaseURL:        cfg.Telegram.APIBaseURL,
				RequestTimeout: cfg.RequestTimeout(),
			})
			out := cmd.OutOrStdout()
			reporter := &consoleReporter{out: out, colorize: shouldColorize(out)}

			signalCtx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()
			_, err = lib.Acquire(signalCtx, telegram.NewUploader(client, target), reporter, "cli")
			return err
		},
	}

	cmd.Flags().Int64Var(&chatID, "chat", 0, "Chat that receives the uploaded voice messages (defaults to the first admin)")
	return cmd
}

// consoleReporter prints acquisition progress to the terminal.
type consoleReporter struct {
	out      io.Writer
	colorize bool
}

func (r *consoleReporter) Started(_ context.Context, runID string, total, pending int) {
	fmt.Fprintf(r.out, "Run %s: %d clips, %d without a handle\n", shortID(runID), total, pending)
}

func (r *consoleReporter) RateLimited(_ context.Context, item acquire.Item, cooldown time.Duration) {
	fmt.Fprintln(r.out, renderStatusLine("Rate limit", statusWarn,
		fmt.Sprintf("pausing %s before retrying %s", formatDuration(cooldown), item.Identifier), r.colorize))
}

func (r *consoleReporter) Progress(_ context.Context, p acquire.Progress) {
	fmt.Fprintf(r.out, "Progress: %d/%d (uploaded %d, skipped %d, errors %d)\n",
		p.Processed, p.Total, p.Uploaded, p.Skipped, p.Errors)
}

func (r *consoleReporter) Finished(_ context.Context, s acquire.Summary) {
	for _, line := range renderSectionHeader("Upload summary", r.colorize) {
		fmt.Fprintln(r.out, line)
	}
	kind := statusOK
	switch {
	case s.Status == acquire.StatusAborted:
		kind = statusError
	case s.Status == acquire.StatusCancelled || s.Errors > 0:
		kind = statusWarn
	}
	fmt.Fprintln(r.out, renderStatusLine("Status", kind, string(s.Status), r.colorize))
	fmt.Fprintln(r.out, renderStatusLine("Uploaded", statusInfo, fmt.Sprintf("%d", s.Uploaded), r.colorize))
	fmt.Fprintln(r.out, renderStatusLine("Skipped", statusInfo, fmt.Sprintf("%d", s.Skipped), r.colorize))
	errKind := statusOK
	if s.Errors > 0 {
		errKind = statusWarn
	}
	fmt.Fprintln(r.out, renderStatusLine("Errors", errKind, fmt.Sprintf("%d", s.Errors), r.colorize))
	fmt.Fprintln(r.out, renderStatusLine("Duration", statusInfo, formatDuration(s.Duration()), r.colorize))
	for _, id := range s.Failed {
		fmt.Fprintf(r.out, "%s- %s\n", statusIndent, id)
	}
}
