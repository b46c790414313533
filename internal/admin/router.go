// Package admin serves the read-only HTTP surface of a running cowclash
// service: health, pool stats and the stored kits.
package admin

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/koustreak/cowclash/internal/database"
	"github.com/koustreak/cowclash/internal/errs"
	"github.com/koustreak/cowclash/internal/kit"
	"github.com/koustreak/cowclash/internal/logger"
)

// Gateway is what the health and stats routes read.
type Gateway interface {
	ID() string
	IsConnected() bool
	Stats() database.PoolStats
}

// KitStore is what the kit routes read.
type KitStore interface {
	List(ctx context.Context) ([]kit.Kit, error)
	Get(ctx context.Context, name string) (kit.Kit, error)
}

type handler struct {
	gw   Gateway
	kits KitStore
	log  *logger.Logger
}

// NewRouter builds the admin routes. timeout bounds every request.
func NewRouter(gw Gateway, kits KitStore, log *logger.Logger, timeout time.Duration) http.Handler {
	if log == nil {
		log = logger.Nop()
	}
	h := &handler{gw: gw, kits: kits, log: log}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(log))
	r.Use(middleware.Recoverer)
	if timeout > 0 {
		r.Use(middleware.Timeout(timeout))
	}

	r.Get("/healthz", h.health)
	r.Get("/stats", h.stats)
	r.Route("/kits", func(r chi.Router) {
		r.Get("/", h.listKits)
		r.Get("/{name}", h.getKit)
	})
	return r
}

func (h *handler) health(w http.ResponseWriter, r *http.Request) {
	body := map[string]string{"status": "ok", "gateway_id": h.gw.ID()}
	status := http.StatusOK
	if !h.gw.IsConnected() {
		body["status"] = "disconnected"
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, body)
}

func (h *handler) stats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.gw.Stats())
}

func (h *handler) listKits(w http.ResponseWriter, r *http.Request) {
	kits, err := h.kits.List(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, kits)
}

func (h *handler) getKit(w http.ResponseWriter, r *http.Request) {
	k, err := h.kits.Get(r.Context(), chi.URLParam(r, "name"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, k)
}

func (h *handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		h.log.ErrorWith("admin request failed", err, map[string]interface{}{
			"path":       r.URL.Path,
			"request_id": middleware.GetReqID(r.Context()),
		})
	}
	writeJSON(w, status, map[string]string{
		"error":   errs.KindOf(err).String(),
		"message": err.Error(),
	})
}

// statusFor maps an error kind to its HTTP status.
func statusFor(err error) int {
	switch errs.KindOf(err) {
	case errs.ErrKindNotFound:
		return http.StatusNotFound
	case errs.ErrKindInvalidInput:
		return http.StatusBadRequest
	case errs.ErrKindPermissionDenied:
		return http.StatusForbidden
	case errs.ErrKindConflict:
		return http.StatusConflict
	case errs.ErrKindTimeout:
		return http.StatusGatewayTimeout
	case errs.ErrKindConnectionFailed, errs.ErrKindClosed:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// requestLogger writes one info line per request.
func requestLogger(log *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)

			log.HTTPEvent().
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Int("status", ww.Status()).
				Int("bytes", ww.BytesWritten()).
				Dur("duration", time.Since(start)).
				Str("request_id", middleware.GetReqID(r.Context())).
				Msg("http request")
		})
	}
}
