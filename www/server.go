package www

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/fuglede/slack-electricity-prices/config"
	"github.com/fuglede/slack-electricity-prices/database"
)

// Server exposes the notifier's state as a small JSON API: what was posted
// last, the archived prices behind it, the delivery journal and the log.
type Server struct {
	logger  *slog.Logger
	cnfg    *config.AppConfig
	db      *database.Database
	hub     *Hub
	version string
}

func StartServer(db *database.Database, cnfg *config.AppConfig, version string) *Server {
	logger := slog.Default().With("module", "www")

	s := &Server{
		logger:  logger,
		cnfg:    cnfg,
		db:      db,
		hub:     NewHub(logger),
		version: version,
	}

	logReqMW := func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			s.logger.Debug("http request",
				slog.String("method", r.Method),
				slog.String("url", r.URL.String()),
				slog.String("remoteAddr", r.RemoteAddr))
			next.ServeHTTP(w, r)
		})
	}

	http.Handle("/status", logReqMW(NewStatusHandler(
		logger.With(slog.String("handler", "status")),
		s.db,
		s.cnfg,
		s.version)))

	http.Handle("/log", logReqMW(NewLogHandler(
		logger.With(slog.String("handler", "log")),
		s.db)))

	http.Handle("/deliveries", logReqMW(NewDeliveriesHandler(
		logger.With(slog.String("handler", "deliveries")),
		s.db)))

	http.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		name := r.Header.Get("User-Agent")
		client, err := NewClient(s.hub, w, r, name)
		if err != nil {
			s.logger.Error("new websocket client failed", slog.Any("error", err))
			return
		}
		s.hub.Register <- client
		go client.WritePump()
	})

	return s
}

func (s *Server) Run(ctx context.Context) {
	s.logger.Info("starting server...", "port", s.cnfg.Api.Port)

	go s.hub.Run(ctx)

	srv := &http.Server{
		Addr: fmt.Sprintf("%s:%d", s.cnfg.Api.Address, s.cnfg.Api.Port),
	}

	srvErrors := make(chan error, 1)

	go func() {
		srvErrors <- srv.ListenAndServe()
	}()

	// Push a fresh status snapshot to connected clients now and then, so a
	// dashboard doesn't have to poll.
	ticker := time.NewTicker(time.Second * 30)
	defer ticker.Stop()

	snapshotErrorState := false

	for {
		select {
		case err := <-srvErrors:
			if err != nil {
				s.logger.Error("server error", slog.Any("error", err))
			}

		case <-ctx.Done():
			shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Second*5)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				s.logger.Error("server shutdown failed", slog.Any("error", err))
			}
			return

		case <-ticker.C:
			status, err := statusSnapshot(ctx, s.db, s.cnfg, s.version)
			if err != nil {
				// Keeping state to avoid spamming logs
				if !snapshotErrorState {
					snapshotErrorState = true
					s.logger.Warn("failed to build status snapshot", slog.Any("error", err))
				}
				continue
			}
			snapshotErrorState = false

			buf, err := json.Marshal(status)
			if err != nil {
				s.logger.Error("failed to encode status snapshot", slog.Any("error", err))
				continue
			}

			s.hub.Broadcast <- buf
		}
	}
}
