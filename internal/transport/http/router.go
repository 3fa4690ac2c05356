package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"postshare/internal/handler"
	"postshare/internal/httputil"
	"postshare/internal/model"
	authmw "postshare/internal/transport/http/middleware"
)

// RouterConfig holds the dependencies needed to create routes
type RouterConfig struct {
	Dispatcher   *handler.Dispatcher
	MediaHandler *handler.MediaHandler
	// ResolveIdentity decodes a bearer token, failing open to nil.
	ResolveIdentity func(token string) *model.Identity
}

// NewRouter creates and configures a new Chi router. The whole API is
// one operation-dispatch endpoint; only media upload gets its own route
// because multipart does not fit the JSON operation envelope.
func NewRouter(cfg RouterConfig) chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)

	// Health check endpoint (useful for deployment/monitoring)
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		httputil.WriteJSON(w, 200, map[string]string{"status": "ok"})
	})

	r.Route("/api", func(r chi.Router) {
		// Identity resolution fails open; per-operation auth is
		// enforced by the dispatcher's operation table.
		r.Use(authmw.Identity(cfg.ResolveIdentity))

		r.Post("/query", cfg.Dispatcher.ServeHTTP)
		r.Post("/media/posts", cfg.MediaHandler.UploadPostImage)
	})

	return r
}
