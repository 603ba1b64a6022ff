package main

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"voicebot/internal/acquire"
	"voicebot/internal/bot"
	"voicebot/internal/daemon"
	"voicebot/internal/logging"
	"voicebot/internal/preflight"
	"voicebot/internal/services/telegram"
)

func newServeCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the bot in the foreground until interrupted",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if err := cfg.RequireBotToken(); err != nil {
				return err
			}

			logger, err := logging.NewFromConfig(cfg)
			if err != nil {
				return fmt.Errorf("init logger: %w", err)
			}
			logger.Info("voicebot starting",
				logging.String(logging.FieldEventType, "voicebot_starting"),
				logging.String("config_path", ctx.configPath),
				logging.Bool("config_file_present", ctx.configSeen),
				logging.String("audio_dir", cfg.Paths.AudioDir))

			client := telegram.NewClient(telegram.Config{
				Token:          cfg.Telegram.BotToken,
				BaseURL:        cfg.Telegram.APIBaseURL,
				RequestTimeout: cfg.RequestTimeout(),
				PollTimeout:    cfg.PollTimeout(),
			})
			for _, result := range preflight.Failed(preflight.RunAll(cmd.Context(), cfg, client)) {
				logging.WarnWithContext(logger, "preflight check failed", "preflight_failed",
					logging.String("check", result.Name),
					logging.String("detail", result.Detail),
					logging.String(logging.FieldErrorHint, "run 'voicebot check' for the full report"),
					logging.String(logging.FieldImpact, "the bot may fail to answer or upload"))
			}

			lib, err := ctx.openLibrary(logger)
			if err != nil {
				return err
			}
			defer lib.Close()

			uploaders := func(chatID int64) acquire.Transport {
				return telegram.NewUploader(client, chatID)
			}
			b := bot.New(client, lib, uploaders, logger)

			d, err := daemon.New(lib, b, logger)
			if err != nil {
				return fmt.Errorf("create daemon: %w", err)
			}

			signalCtx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()
			return d.Run(signalCtx)
		},
	}
}
