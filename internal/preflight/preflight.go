package preflight

import (
	"context"

	"voicebot/internal/config"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// RunAll executes the filesystem checks for cfg and, when api is non-nil,
// the Bot API token check.
func RunAll(ctx context.Context, cfg *config.Config, api Identity) []Result {
	if cfg == nil {
		return nil
	}

	results := []Result{
		CheckReadableDirectory("Audio directory", cfg.Paths.AudioDir),
		CheckDirectoryAccess("State directory", cfg.Paths.StateDir),
		CheckHandleCache(cfg.Paths.HandleCache),
	}
	if cfg.Paths.LogDir != "" {
		results = append(results, CheckDirectoryAccess("Log directory", cfg.Paths.LogDir))
	}
	if api != nil {
		results = append(results, CheckTelegram(ctx, api))
	}
	return results
}

// Failed returns the results that did not pass.
func Failed(results []Result) []Result {
	var out []Result
	for _, r := range results {
		if !r.Passed {
			out = append(out, r)
		}
	}
	return out
}
