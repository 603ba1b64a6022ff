package config

import (
	"errors"
	"fmt"
)

// maxInlineResults is the Bot API ceiling for a single inline answer.
const maxInlineResults = 50

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateAcquisition(); err != nil {
		return err
	}
	if err := c.validateSearch(); err != nil {
		return err
	}
	if err := c.validateTelegram(); err != nil {
		return err
	}
	if err := c.validateBot(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validateAcquisition() error {
	if c.Acquisition.MaxAttempts <= 0 {
		return errors.New("acquisition.max_attempts must be positive")
	}
	if c.Acquisition.CheckpointEvery <= 0 {
		return errors.New("acquisition.checkpoint_every must be positive")
	}
	if c.Acquisition.InterItemDelayMillis < 0 {
		return errors.New("acquisition.inter_item_delay_ms must be non-negative")
	}
	if c.Acquisition.RateLimitMarginSecs < 0 {
		return errors.New("acquisition.rate_limit_margin_seconds must be non-negative")
	}
	if c.Acquisition.TransientDelayMillis < 0 {
		return errors.New("acquisition.transient_delay_ms must be non-negative")
	}
	return nil
}

func (c *Config) validateSearch() error {
	if c.Search.MinScore < defaultMinScore || c.Search.MinScore >= 100 {
		return fmt.Errorf("search.min_score must be in [%d, 100); it can only raise the match floor", defaultMinScore)
	}
	if c.Search.MaxResults > maxInlineResults {
		return fmt.Errorf("search.max_results must be at most %d", maxInlineResults)
	}
	if c.Search.EmptyCacheSeconds < 0 || c.Search.ResultCacheSeconds < 0 {
		return errors.New("search cache times must be non-negative")
	}
	return nil
}

func (c *Config) validateTelegram() error {
	if c.Telegram.PollTimeout < 0 {
		return errors.New("telegram.poll_timeout must be non-negative")
	}
	if c.Telegram.RequestTimeout <= 0 {
		return errors.New("telegram.request_timeout must be positive")
	}
	return nil
}

func (c *Config) validateBot() error {
	if c.Bot.MaxRestarts < 0 {
		return errors.New("bot.max_restarts must be non-negative")
	}
	if c.Bot.RestartDelaySeconds < 0 {
		return errors.New("bot.restart_delay_seconds must be non-negative")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format: unsupported value %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level: unsupported value %q", c.Logging.Level)
	}
	return nil
}
