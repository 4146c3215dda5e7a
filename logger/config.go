package logger

// Config controls how a logger is constructed.
type Config struct {
	// Level is the minimum level to emit (debug, info, warn, error).
	Level string

	// Format selects the entry encoding (text, json).
	Format string

	// Output is where entries are written: "stderr", "stdout", or a
	// file path. Empty means stderr.
	Output string

	// FilePath, when set, duplicates entries to the given file in
	// addition to Output.
	FilePath string
}

// DefaultConfig returns the default logger configuration.
func DefaultConfig() Config {
	return Config{
		Level:  "info",
		Format: "text",
		Output: "stderr",
	}
}
