package app

// Config holds the fully parsed application configuration.
type Config struct {
	// ModelPath is the manifest file or directory to load.
	ModelPath string
	// Targets are the model paths to realize and report.
	Targets []string
	// LogLevel is one of debug, info, warn, error.
	LogLevel string
	// LogFormat is either "text" or "json".
	LogFormat string
}
