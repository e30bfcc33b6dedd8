// cmd/unibrowse/server.go
package main

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

type healthResponse struct {
	Status    string `json:"status"`
	Session   string `json:"session"`
	Backend   string `json:"backend"`
	Cache     bool   `json:"cache"`
	Timestamp string `json:"timestamp"`
}

func newMetricsRouter(a *app) *chi.Mux {
	router := chi.NewRouter()
	router.Use(middleware.Recoverer)

	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		backend := "api"
		if a.index != nil {
			backend = "elasticsearch"
		}
		render.JSON(w, r, healthResponse{
			Status:    "healthy",
			Session:   a.sessionID,
			Backend:   backend,
			Cache:     a.cache != nil,
			Timestamp: time.Now().UTC().Format(time.RFC3339),
		})
	})
	router.Method(http.MethodGet, "/metrics", promhttp.Handler())
	return router
}

func newMetricsServer(addr string, a *app) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           newMetricsRouter(a),
		ReadHeaderTimeout: 5 * time.Second,
	}
}

func shutdownServer(srv *http.Server, log *zap.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Warn("metrics server shutdown failed", zap.Error(err))
	}
}
