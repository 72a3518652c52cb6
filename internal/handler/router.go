package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/sessions"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"config-envelope-service/config"
	"config-envelope-service/internal/middleware"
)

// Handlers はルーターに登録するハンドラの集合。
type Handlers struct {
	Decrypt  *DecryptHandler
	Database *DatabaseHandler
	Auth     *AuthHandler
}

// NewRouter はルーターを生成する。
func NewRouter(h Handlers, store sessions.Store, cfg *config.Config) http.Handler {
	r := chi.NewRouter()

	// ミドルウェア
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Handle("/metrics", promhttp.Handler())

	// ルート定義
	r.Route("/api", func(r chi.Router) {
		r.Post("/decrypt", h.Decrypt.Decrypt)

		r.Route("/auth", func(r chi.Router) {
			r.Post("/login", h.Auth.Login)
			r.Post("/logout", h.Auth.Logout)
			r.Get("/session", h.Auth.Session)
		})

		r.Route("/database", func(r chi.Router) {
			r.Use(middleware.RequireAdmin(store))
			r.Get("/status", h.Database.Status)
			r.Post("/test", h.Database.Test)
		})
	})

	if cfg != nil && cfg.OtelEnabled {
		return otelhttp.NewHandler(r, cfg.OtelServiceName)
	}
	return r
}
