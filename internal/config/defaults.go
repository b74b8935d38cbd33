package config

const (
	defaultLogDir           = "~/.local/share/tracklift/logs"
	defaultOutputDir        = "~/tracklift/output"
	defaultJournalDB        = "~/.local/share/tracklift/journal.db"
	defaultWorkerBinary     = "tracklift-worker"
	defaultLanguage         = "eng"
	defaultMaxWorkers       = 1
	defaultLogFormat        = "console"
	defaultLogLevel         = "info"
	defaultLogRetentionDays = 30

	// maxWorkerCeiling matches the orchestrator's hard cap on batch
	// parallelism.
	maxWorkerCeiling = 16
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			LogDir:    defaultLogDir,
			OutputDir: defaultOutputDir,
			JournalDB: defaultJournalDB,
		},
		Worker: Worker{
			Binary: defaultWorkerBinary,
		},
		Extraction: Extraction{
			Languages:  []string{defaultLanguage},
			MaxWorkers: defaultMaxWorkers,
		},
		Logging: Logging{
			Format:        defaultLogFormat,
			Level:         defaultLogLevel,
			RetentionDays: defaultLogRetentionDays,
		},
	}
}
