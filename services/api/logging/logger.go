package logging

import (
	"io"
	"log/slog"
	"time"

	"github.com/lmittmann/tint"

	"github.com/02loveslollipop/climate-observations-api/services/api/config"
)

const appName = "climate-api"

// New builds the process logger: colored tint output in dev, JSON otherwise.
func New(w io.Writer, cfg config.Config, version string) *slog.Logger {
	if cfg.IsDev() {
		h := tint.NewHandler(w, &tint.Options{
			Level:      cfg.Level(),
			AddSource:  true,
			TimeFormat: time.Kitchen,
		})
		return slog.New(h).With("app", appName)
	}

	h := slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: cfg.Level(),
	})
	return slog.New(h).With(
		"app", appName,
		"version", version,
		"env", cfg.AppEnv,
	)
}
