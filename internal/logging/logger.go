package logging

import (
	"io"
	"os"

	"github.com/rs/zerolog"

	"github.com/edvin/multiregion/internal/config"
)

// NewLogger creates a structured zerolog.Logger carrying the placement of
// this instance. Empty fields are left out.
func NewLogger(cfg *config.Config) zerolog.Logger {
	return newLogger(os.Stdout, cfg)
}

func newLogger(w io.Writer, cfg *config.Config) zerolog.Logger {
	ctx := zerolog.New(w).With().Timestamp()

	if cfg.ServiceName != "" {
		ctx = ctx.Str("service", cfg.ServiceName)
	}
	if cfg.Region != "" {
		ctx = ctx.Str("region", cfg.Region)
	}
	if cfg.PrimaryRegion != "" {
		ctx = ctx.Str("primary_region", cfg.PrimaryRegion)
	}
	if cfg.InstanceID != "" {
		ctx = ctx.Str("instance", cfg.InstanceID)
	}

	logger := ctx.Logger()

	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil || cfg.LogLevel == "" {
		level = zerolog.InfoLevel
	}

	return logger.Level(level)
}
