package config

const (
	defaultAudioDir             = "audio_files"
	defaultHandleCache          = "file_id_cache.json"
	defaultStateDir             = "~/.local/share/voicebot"
	defaultLogDir               = "~/.local/share/voicebot/logs"
	defaultAPIBaseURL           = "https://api.telegram.org"
	defaultPollTimeout          = 30
	defaultRequestTimeout       = 60
	defaultMaxAttempts          = 3
	defaultCheckpointEvery      = 10
	defaultInterItemDelayMillis = 500
	defaultRateLimitMarginSecs  = 1
	defaultTransientDelayMillis = 1000
	defaultSearchLimit          = 50
	defaultMinScore             = 30
	defaultMaxResults           = 50
	defaultEmptyCacheSeconds    = 1
	defaultResultCacheSeconds   = 300
	defaultHealthBind           = "127.0.0.1:8080"
	defaultMaxRestarts          = 5
	defaultRestartDelaySeconds  = 5
	defaultLogFormat            = "console"
	defaultLogLevel             = "info"
	defaultLogMaxSizeMB         = 50
	defaultLogMaxBackups        = 3
	defaultLogMaxAgeDays        = 14
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			AudioDir:    defaultAudioDir,
			HandleCache: defaultHandleCache,
			StateDir:    defaultStateDir,
			LogDir:      defaultLogDir,
		},
		Telegram: Telegram{
			APIBaseURL:     defaultAPIBaseURL,
			PollTimeout:    defaultPollTimeout,
			RequestTimeout: defaultRequestTimeout,
		},
		Acquisition: Acquisition{
			MaxAttempts:          defaultMaxAttempts,
			CheckpointEvery:      defaultCheckpointEvery,
			InterItemDelayMillis: defaultInterItemDelayMillis,
			RateLimitMarginSecs:  defaultRateLimitMarginSecs,
			TransientDelayMillis: defaultTransientDelayMillis,
		},
		Search: Search{
			Limit:              defaultSearchLimit,
			MinScore:           defaultMinScore,
			MaxResults:         defaultMaxResults,
			EmptyCacheSeconds:  defaultEmptyCacheSeconds,
			ResultCacheSeconds: defaultResultCacheSeconds,
		},
		Health: Health{
			Bind: defaultHealthBind,
		},
		Bot: Bot{
			MaxRestarts:         defaultMaxRestarts,
			RestartDelaySeconds: defaultRestartDelaySeconds,
		},
		Logging: Logging{
			Format:     defaultLogFormat,
			Level:      defaultLogLevel,
			MaxSizeMB:  defaultLogMaxSizeMB,
			MaxBackups: defaultLogMaxBackups,
			MaxAgeDays: defaultLogMaxAgeDays,
		},
	}
}
