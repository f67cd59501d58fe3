// cmd/server/main.go
package main

import (
	"log/slog"
	"net/http"
	"os"

	"github.com/obrien-tchaleu/crosscircle-server/internal/config"
	"github.com/obrien-tchaleu/crosscircle-server/internal/dispatch"
	"github.com/obrien-tchaleu/crosscircle-server/internal/registry"
	"github.com/obrien-tchaleu/crosscircle-server/internal/transport"
	"github.com/obrien-tchaleu/crosscircle-server/internal/turn"
)

func main() {
	cfg, err := config.Load(os.Getenv("CONFIG_FILE"))
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := newLogger(cfg)
	slog.SetDefault(logger)

	reg := registry.NewWithJobQueueDepth(cfg.Game.JobQueueDepth)
	ctrl := turn.New()
	disp := dispatch.New(reg, ctrl, logger)

	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	mux.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		conn, err := transport.Upgrade(w, r)
		if err != nil {
			logger.Warn("websocket upgrade failed", "error", err, "remote", r.RemoteAddr)
			return
		}
		disp.HandleConnection(conn)
	})

	logger.Info("crosscircle server starting", "addr", cfg.Addr())
	if err := http.ListenAndServe(cfg.Addr(), mux); err != nil {
		logger.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func newLogger(cfg *config.Config) *slog.Logger {
	level := parseLevel(cfg.Logging.Level)
	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if cfg.Logging.Format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}
	return slog.New(handler)
}

func parseLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
