package logger

import (
	"log/slog"
	"os"

	slogzap "github.com/samber/slog-zap/v2"
	"go.uber.org/zap"
)

type Env string

const (
	EnvDev  Env = "dev"
	EnvProd Env = "prod"
)

type Backend string

const (
	BackendStd Backend = "std"
	BackendZap Backend = "zap"
)

type Config struct {
	Env       Env
	Service   string
	Version   string
	Backend   Backend
	AddSource bool
	Debug     bool
}

// Init installs the process-wide slog default. The std backend writes text to
// stderr; the zap backend routes slog records through a zap core (JSON in
// prod, console in dev).
func Init(cfg Config) {
	level := slog.LevelInfo
	if cfg.Debug {
		level = slog.LevelDebug
	}

	var h slog.Handler
	switch cfg.Backend {
	case BackendZap:
		var zl *zap.Logger
		if cfg.Env == EnvProd {
			zl, _ = zap.NewProduction()
		} else {
			zl, _ = zap.NewDevelopment()
		}
		h = slogzap.Option{
			Level:     level,
			Logger:    zl,
			AddSource: cfg.AddSource,
		}.NewZapHandler()
	default:
		h = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level:     level,
			AddSource: cfg.AddSource,
		})
	}

	l := slog.New(h).With(
		"service", cfg.Service,
		"version", cfg.Version,
		"env", string(cfg.Env),
	)
	slog.SetDefault(l)
}
