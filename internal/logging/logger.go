package logging

import (
	"log/slog"
	"os"

	"github.com/bosun-mobility/auth-backend/internal/config"
)

// Setup initializes the global slog logger: human-readable text in
// development, JSON everywhere else.
func Setup(env string) {
	var handler slog.Handler
	if env == config.EnvDevelopment {
		handler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
			Level: slog.LevelDebug,
		})
	} else {
		handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		})
	}
	slog.SetDefault(slog.New(handler))
}
