package config

import (
	"errors"
	"fmt"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateWorker(); err != nil {
		return err
	}
	if err := c.validateExtraction(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateWorker() error {
	if c.Worker.Binary == "" {
		return errors.New("worker.binary must be set")
	}
	return nil
}

func (c *Config) validateExtraction() error {
	if c.Extraction.MaxWorkers < 1 {
		return errors.New("extraction.max_workers must be positive")
	}
	if c.Extraction.MaxWorkers > maxWorkerCeiling {
		return fmt.Errorf("extraction.max_workers must be at most %d", maxWorkerCeiling)
	}
	if c.Extraction.VideoOnly && (c.Extraction.AudioOnly || c.Extraction.SubtitleOnly) {
		return errors.New("extraction.video_only cannot be combined with audio_only or subtitle_only")
	}
	if c.Extraction.AudioOnly && c.Extraction.SubtitleOnly {
		return errors.New("extraction.audio_only and extraction.subtitle_only are mutually exclusive")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format must be console or json, got %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be one of debug, info, warn, error, got %q", c.Logging.Level)
	}
	if c.Logging.RetentionDays < 0 {
		return errors.New("logging.retention_days must be >= 0")
	}
	return nil
}
