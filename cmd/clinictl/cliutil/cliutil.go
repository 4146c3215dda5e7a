// Package cliutil holds the glue shared by clinictl commands: logger
// and client construction from the root flags via viper.
package cliutil

import (
	"time"

	"github.com/spf13/viper"

	"github.com/tochi12ob/clini/logger"
	"github.com/tochi12ob/clini/setupclient"
)

// LoggerFromViper builds the command logger from the root flags,
// falling back to a no-op logger if construction fails.
func LoggerFromViper() logger.Logger {
	cfg := logger.DefaultConfig()
	if level := viper.GetString("log-level"); level != "" {
		cfg.Level = level
	}
	if format := viper.GetString("log-format"); format != "" {
		cfg.Format = format
	}
	cfg.FilePath = viper.GetString("log-file")

	log, err := logger.New(cfg)
	if err != nil {
		return logger.NewNoop()
	}
	return log
}

// RequestTimeout returns the per-request timeout from the root flags.
func RequestTimeout() time.Duration {
	return viper.GetDuration("timeout")
}

// SetupClientFromViper builds the backend client from the root flags.
func SetupClientFromViper(log logger.Logger) *setupclient.Client {
	return setupclient.New(&setupclient.Config{
		ServerURL: viper.GetString("server-url"),
		Timeout:   RequestTimeout(),
	}, log)
}
