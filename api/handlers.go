package api

import (
	"context"
	"net/http"
	"os"
	"path"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/portfolio-site/backend/blog"
	"github.com/portfolio-site/backend/errs"
)

// routeHandlers contains all the handlers for different route types
type routeHandlers struct {
	blogPostHandler blogPostHandler
	healthHandler   healthHandler
	uploadHandler   uploadHandler
}

// initializeHandlers creates and returns all handlers organized in a routeHandlers struct
func initializeHandlers(service *blog.Service, maxImageBytes int64, startupTime time.Time, ping func(context.Context) error, uploads UploadSource) *routeHandlers {
	return &routeHandlers{
		blogPostHandler: newBlogPostHandler(service, maxImageBytes),
		healthHandler: healthHandler{
			responder:   NewResponder(log.With().Str("handlerName", "healthHandler").Logger()),
			startupTime: startupTime,
			ping:        ping,
		},
		uploadHandler: uploadHandler{
			responder: NewResponder(log.With().Str("handlerName", "uploadHandler").Logger()),
			uploads:   uploads,
		},
	}
}

type healthHandler struct {
	responder   Responder
	startupTime time.Time
	ping        func(context.Context) error
}

// health reports liveness and, when a ping is configured, database reachability
// @Summary Health check
// @Tags Health
// @Produce json
// @Success 200 {object} healthResponse
// @Failure 503 {object} healthResponse
// @Router /health [get]
func (h healthHandler) health() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		uptime := time.Since(h.startupTime).Round(time.Second).String()
		if h.ping != nil {
			if err := h.ping(r.Context()); err != nil {
				h.responder.logger.Error().Err(err).Msg("health check failed")
				h.responder.WriteJSONStatus(w, http.StatusServiceUnavailable, healthResponse{Status: "unavailable", Uptime: uptime})
				return
			}
		}
		h.responder.WriteJSON(w, healthResponse{Success: true, Status: "ok", Uptime: uptime})
	}
}

func root() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte("Server is running"))
	}
}

// UploadSource opens images written by the local asset store.
type UploadSource interface {
	Open(ctx context.Context, key string) (*os.File, error)
}

type uploadHandler struct {
	responder Responder
	uploads   UploadSource
}

// serve streams a stored image. Keys are content addressed, so responses never go stale.
// @Summary Get uploaded image
// @Tags Uploads
// @Produce image/png,image/jpeg,image/gif,image/webp
// @Param key path string true "Asset key"
// @Success 200 {file} binary
// @Failure 404 {object} ErrorResponse "Image not found"
// @Router /uploads/{key} [get]
func (h uploadHandler) serve() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		key := chi.URLParam(r, "*")
		f, err := h.uploads.Open(r.Context(), key)
		if err != nil {
			if r.Context().Err() == nil {
				err = errs.NewNotFound("Image")
			}
			h.responder.WriteError(w, err)
			return
		}
		defer f.Close()

		info, err := f.Stat()
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}
		w.Header().Set("Cache-Control", "public, max-age=31536000, immutable")
		http.ServeContent(w, r, path.Base(key), info.ModTime(), f)
	}
}
