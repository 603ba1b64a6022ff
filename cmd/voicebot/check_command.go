package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"voicebot/internal/preflight"
	"voicebot/internal/services/telegram"
)

func newCheckCommand(ctx *commandContext) *cobra.Command {
	var offline bool

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Verify paths, the handle cache and the bot token",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			var api preflight.Identity
			if !offline && strings.TrimSpace(cfg.Telegram.BotToken) != "" {
				api = telegram.NewClient(telegram.Config{
					Token:          cfg.Telegram.BotToken,
					BaseURL:        cfg.Telegram.APIBaseURL,
					RequestTimeout: cfg.RequestTimeout(),
				})
			}
			results := preflight.RunAll(cmd.Context(), cfg, api)
			if api == nil && !offline {
				results = append(results, preflight.Result{Name: "Telegram", Detail: "bot token missing"})
			}

			out := cmd.OutOrStdout()
			colorize := shouldColorize(out)
			for _, line := range renderSectionHeader("Preflight", colorize) {
				fmt.Fprintln(out, line)
			}
			for _, result := range results {
				kind := statusOK
				if !result.Passed {
					kind = statusError
				}
				fmt.Fprintln(out, renderStatusLine(result.Name, kind, result.Detail, colorize))
			}
			if failed := preflight.Failed(results); len(failed) > 0 {
				return fmt.Errorf("%d preflight check(s) failed", len(failed))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&offline, "offline", false, "Skip the Bot API token check")
	return cmd
}
