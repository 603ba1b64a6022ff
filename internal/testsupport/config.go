package testsupport

import (
	"path/filepath"
	"testing"

	"voicebot/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// Pacing and backoff delays are zeroed so pipelines run instantly.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Telegram.BotToken = "test-token"
	cfgVal.Paths.AudioDir = filepath.Join(base, "audio_files")
	cfgVal.Paths.HandleCache = filepath.Join(base, "file_id_cache.json")
	cfgVal.Paths.StateDir = filepath.Join(base, "state")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.Health.Bind = "127.0.0.1:0"
	cfgVal.Acquisition.InterItemDelayMillis = 0
	cfgVal.Acquisition.RateLimitMarginSecs = 0
	cfgVal.Acquisition.TransientDelayMillis = 0
	cfgVal.Bot.RestartDelaySeconds = 0

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	return builder.cfg
}

// WithAdmins restricts operator commands to the given user IDs.
func WithAdmins(ids ...int64) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Telegram.AdminIDs = append([]int64(nil), ids...)
	}
}

// WithAPIBaseURL points the Telegram client at a test server.
func WithAPIBaseURL(url string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Telegram.APIBaseURL = url
	}
}

// WithClips writes empty clip files under the audio root.
func WithClips(identifiers ...string) ConfigOption {
	return func(b *configBuilder) {
		WriteClips(b.t, b.cfg.Paths.AudioDir, identifiers...)
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.StateDir)
}
