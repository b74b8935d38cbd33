package config

import (
	"fmt"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	if err := c.normalizeWorker(); err != nil {
		return err
	}
	c.normalizeExtraction()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.OutputDir) == "" {
		c.Paths.OutputDir = defaultOutputDir
	}
	if c.Paths.OutputDir, err = expandPath(c.Paths.OutputDir); err != nil {
		return fmt.Errorf("paths.output_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.JournalDB) == "" {
		c.Paths.JournalDB = defaultJournalDB
	}
	if c.Paths.JournalDB, err = expandPath(c.Paths.JournalDB); err != nil {
		return fmt.Errorf("paths.journal_db: %w", err)
	}
	return nil
}

func (c *Config) normalizeWorker() error {
	c.Worker.Binary = strings.TrimSpace(c.Worker.Binary)
	if c.Worker.Binary == "" {
		c.Worker.Binary = defaultWorkerBinary
	}
	c.Worker.Script = strings.TrimSpace(c.Worker.Script)
	if c.Worker.Script != "" {
		expanded, err := expandPath(c.Worker.Script)
		if err != nil {
			return fmt.Errorf("worker.script: %w", err)
		}
		c.Worker.Script = expanded
	}
	args := make([]string, 0, len(c.Worker.Args))
	for _, arg := range c.Worker.Args {
		if trimmed := strings.TrimSpace(arg); trimmed != "" {
			args = append(args, trimmed)
		}
	}
	c.Worker.Args = args
	return nil
}

func (c *Config) normalizeExtraction() {
	languages := make([]string, 0, len(c.Extraction.Languages))
	for _, lang := range c.Extraction.Languages {
		if trimmed := strings.ToLower(strings.TrimSpace(lang)); trimmed != "" {
			languages = append(languages, trimmed)
		}
	}
	if len(languages) == 0 {
		languages = []string{defaultLanguage}
	}
	c.Extraction.Languages = languages
	if c.Extraction.MaxWorkers == 0 {
		c.Extraction.MaxWorkers = defaultMaxWorkers
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	if c.Logging.RetentionDays == 0 {
		c.Logging.RetentionDays = defaultLogRetentionDays
	}
}
