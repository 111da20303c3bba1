// Package httpapi exposes the payment core over HTTP: Payme's single
// JSON-RPC endpoint and Click's two-phase form-encoded callbacks, wrapped in
// the same trace/log/metrics middleware chain regardless of provider.
package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/shopmini/paycore/internal/application/click"
	"github.com/shopmini/paycore/internal/application/payme"
	"github.com/shopmini/paycore/internal/observability"
	"github.com/shopmini/paycore/internal/observability/logctx"
)

const (
	componentHTTPHandler = "http_server"
	headerRequestID      = "X-Request-ID"

	paymeBasicAuthUser = "PaymeBusiness"
)

// Config carries the provider-facing HTTP settings (§6).
type Config struct {
	PaymeKey string
}

type Handler struct {
	payme *payme.Service
	click *click.Service
	cfg   Config
	log   observability.Logger
	tel   observability.Observability
}

func NewHandler(paymeSvc *payme.Service, clickSvc *click.Service, cfg Config, tel observability.Observability) *Handler {
	if tel == nil {
		tel = observability.Nop()
	}
	return &Handler{
		payme: paymeSvc,
		click: clickSvc,
		cfg:   cfg,
		log:   tel.Logger().With(observability.F("component", componentHTTPHandler)),
		tel:   tel,
	}
}

func (h *Handler) Router() http.Handler {
	mux := http.NewServeMux()

	h.muxHandle(mux, http.MethodPost, "/api/payme", h.handlePayme)
	h.muxHandle(mux, http.MethodPost, "/api/click/prepare", h.handleClickPrepare)
	h.muxHandle(mux, http.MethodPost, "/api/click/complete", h.handleClickComplete)
	h.muxHandle(mux, http.MethodGet, "/health", h.handleHealth)

	return mux
}

// muxHandle wires one route through: Trace → request logger/metrics → access
// log → handler, identical to the chain every route goes through regardless
// of which provider it serves.
func (h *Handler) muxHandle(mux *http.ServeMux, method, route string, handler http.HandlerFunc) {
	mux.HandleFunc(route, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != method {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}

		ctx := contextWithRoute(r.Context(), route)
		r = r.WithContext(ctx)

		wrapped := h.withTrace(
			ObservabilityMiddleware(
				logctx.FromOr(ctx, h.log),
				func(r *http.Request) string { return r.Header.Get(headerRequestID) },
				h.tel,
			)(
				h.withAccessLog(http.HandlerFunc(handler)),
			),
		)
		wrapped.ServeHTTP(w, r)
	})
}

func (h *Handler) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (h *Handler) withAccessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		lrw := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(lrw, r)

		logctx.FromOr(r.Context(), h.log).Info("http_access",
			observability.F("method", r.Method),
			observability.F("route", routeFromContext(r.Context())),
			observability.F("path", r.URL.Path),
			observability.F("status", lrw.status),
			observability.F("latency_ms", time.Since(start).Milliseconds()),
		)
	})
}

// withTrace starts a span named after the route through the Tracer port. It
// does not read incoming trace headers; ObservabilityMiddleware, which runs
// inside this span, extracts the W3C trace context.
func (h *Handler) withTrace(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tracer := h.tel.Tracer()
		ctx, span := tracer.Start(r.Context(), routeFromContext(r.Context()))
		defer span.End()
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

type routeKey struct{}

func contextWithRoute(ctx context.Context, route string) context.Context {
	if route == "" {
		return ctx
	}
	return context.WithValue(ctx, routeKey{}, route)
}

func routeFromContext(ctx context.Context) string {
	if ctx == nil {
		return "unknown"
	}
	if route, ok := ctx.Value(routeKey{}).(string); ok && route != "" {
		return route
	}
	return "unknown"
}
