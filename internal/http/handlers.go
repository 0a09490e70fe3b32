package http

import (
	"context"
	"net/http"
	"time"

	"supplychain/internal/auth"
	"supplychain/internal/service"

	"go.uber.org/zap"
)

// Pinger reports database reachability for /healthz.
type Pinger interface {
	Ping(ctx context.Context) error
}

type Options struct {
	Logger         *zap.Logger
	Development    bool
	RequestTimeout time.Duration
	DB             Pinger
}

type Handler struct {
	svc            *service.Service
	verifier       *auth.Verifier
	log            *zap.Logger
	development    bool
	requestTimeout time.Duration
	db             Pinger
}

func NewHandler(svc *service.Service, verifier *auth.Verifier, opts Options) *Handler {
	h := &Handler{
		svc:            svc,
		verifier:       verifier,
		log:            opts.Logger,
		development:    opts.Development,
		requestTimeout: opts.RequestTimeout,
		db:             opts.DB,
	}
	if h.log == nil {
		h.log = zap.NewNop()
	}
	return h
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	if h.db != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := h.db.Ping(ctx); err != nil {
			h.log.Warn("health check failed", zap.Error(err))
			writeError(w, http.StatusServiceUnavailable, "database unavailable")
			return
		}
	}
	writeOK(w, http.StatusOK, "ok", map[string]any{"status": "ok"})
}
