package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains filesystem locations used by the bot.
type Paths struct {
	AudioDir    string `toml:"audio_dir"`
	HandleCache string `toml:"handle_cache"`
	StateDir    string `toml:"state_dir"`
	LogDir      string `toml:"log_dir"`
}

// Telegram contains Bot API connection settings.
type Telegram struct {
	BotToken       string  `toml:"bot_token"`
	APIBaseURL     string  `toml:"api_base_url"`
	AdminIDs       []int64 `toml:"admin_ids"`
	PollTimeout    int     `toml:"poll_timeout"`
	RequestTimeout int     `toml:"request_timeout"`
}

// Acquisition contains the upload pipeline retry and pacing policy.
type Acquisition struct {
	MaxAttempts          int `toml:"max_attempts"`
	CheckpointEvery      int `toml:"checkpoint_every"`
	InterItemDelayMillis int `toml:"inter_item_delay_ms"`
	RateLimitMarginSecs  int `toml:"rate_limit_margin_seconds"`
	TransientDelayMillis int `toml:"transient_delay_ms"`
}

// Search contains inline query ranking limits.
type Search struct {
	Limit              int     `toml:"limit"`
	MinScore           float64 `toml:"min_score"`
	MaxResults         int     `toml:"max_results"`
	EmptyCacheSeconds  int     `toml:"empty_cache_seconds"`
	ResultCacheSeconds int     `toml:"result_cache_seconds"`
}

// Health contains the HTTP health endpoint binding.
type Health struct {
	Bind string `toml:"bind"`
}

// Bot contains polling loop supervision settings.
type Bot struct {
	MaxRestarts         int `toml:"max_restarts"`
	RestartDelaySeconds int `toml:"restart_delay_seconds"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format     string `toml:"format"`
	Level      string `toml:"level"`
	MaxSizeMB  int    `toml:"max_size_mb"`
	MaxBackups int    `toml:"max_backups"`
	MaxAgeDays int    `toml:"max_age_days"`
}

// Config encapsulates all configuration values for voicebot.
//
// Configuration sections by subsystem:
//   - Paths: audio root, handle cache file, state and log directories
//   - Telegram: Bot API token, endpoint, admins and polling
//   - Acquisition: upload retry budget, checkpoints and pacing
//   - Search: fuzzy ranking window, score floor and result limits
//   - Health: HTTP health endpoint
//   - Bot: polling loop restart policy
//   - Logging: log format, level and rotation
type Config struct {
	Paths       Paths       `toml:"paths"`
	Telegram    Telegram    `toml:"telegram"`
	Acquisition Acquisition `toml:"acquisition"`
	Search      Search      `toml:"search"`
	Health      Health      `toml:"health"`
	Bot         Bot         `toml:"bot"`
	Logging     Logging     `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/voicebot/config.toml")
}

// Load locates, parses, and validates a configuration file. A .env file in
// the working directory is applied to the environment first so BOT_TOKEN can
// live there. The returned config has all path fields expanded.
func Load(path string) (*Config, string, bool, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, "", false, fmt.Errorf("load .env: %w", err)
	}

	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("voicebot.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the state and log directories. The audio root is
// left to the catalog, which creates it on first scan.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.StateDir, c.Paths.LogDir} {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// RequireBotToken reports an actionable error when no Bot API token is set.
// Only commands that talk to Telegram call it.
func (c *Config) RequireBotToken() error {
	if strings.TrimSpace(c.Telegram.BotToken) != "" {
		return nil
	}
	defaultPath, err := DefaultConfigPath()
	if err != nil {
		defaultPath = "~/.config/voicebot/config.toml"
	}
	return fmt.Errorf("telegram.bot_token is required. Set BOT_TOKEN env var, add it to .env, or edit %s (create with 'voicebot config init')", defaultPath)
}

// IsAdmin reports whether userID may run operator commands. With no admins
// configured every user is allowed.
func (c *Config) IsAdmin(userID int64) bool {
	if len(c.Telegram.AdminIDs) == 0 {
		return true
	}
	for _, id := range c.Telegram.AdminIDs {
		if id == userID {
			return true
		}
	}
	return false
}

// RunLogPath returns the SQLite database recording acquisition runs.
func (c *Config) RunLogPath() string {
	return filepath.Join(c.Paths.StateDir, "runs.db")
}

// LockPath returns the single-instance lock file used by the daemon.
func (c *Config) LockPath() string {
	return filepath.Join(c.Paths.StateDir, "voicebot.lock")
}

// PollTimeout returns the long-polling timeout.
func (c *Config) PollTimeout() time.Duration {
	return time.Duration(c.Telegram.PollTimeout) * time.Second
}

// RequestTimeout returns the HTTP timeout for non-polling Bot API calls.
func (c *Config) RequestTimeout() time.Duration {
	return time.Duration(c.Telegram.RequestTimeout) * time.Second
}

// InterItemDelay returns the fixed pause between acquired entries.
func (c *Config) InterItemDelay() time.Duration {
	return time.Duration(c.Acquisition.InterItemDelayMillis) * time.Millisecond
}

// RateLimitMargin returns the safety margin added to transport cooldowns.
func (c *Config) RateLimitMargin() time.Duration {
	return time.Duration(c.Acquisition.RateLimitMarginSecs) * time.Second
}

// TransientDelay returns the fixed backoff after a transient failure.
func (c *Config) TransientDelay() time.Duration {
	return time.Duration(c.Acquisition.TransientDelayMillis) * time.Millisecond
}

// EmptyCacheTime returns how long Telegram may cache an empty inline answer.
func (c *Config) EmptyCacheTime() time.Duration {
	return time.Duration(c.Search.EmptyCacheSeconds) * time.Second
}

// ResultCacheTime returns how long Telegram may cache a non-empty inline answer.
func (c *Config) ResultCacheTime() time.Duration {
	return time.Duration(c.Search.ResultCacheSeconds) * time.Second
}

// RestartDelay returns the pause before the polling loop is restarted.
func (c *Config) RestartDelay() time.Duration {
	return time.Duration(c.Bot.RestartDelaySeconds) * time.Second
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// SampleConfig returns the embedded sample configuration.
func SampleConfig() string {
	return sampleConfig
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
