// Package api exposes the gateway over HTTP.
package api

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/go-chi/render"

	"github.com/mmstream/hlsgate/pkg/hlsgate"
)

// PongBody is the liveness response body.
const PongBody = "Pong!"

// GatewayHandler dispatches media requests: resolve, tenant lookup, then
// playlist rewrite or object response depending on the object key suffix.
type GatewayHandler struct {
	service   hlsgate.Service
	registry  *hlsgate.Registry
	configErr error
	logger    *slog.Logger
}

// NewGatewayHandler creates the handler. When the tenant table failed to
// load, registry is nil and configErr holds the load error; every media
// request then answers 500 with that message until the environment is fixed.
func NewGatewayHandler(service hlsgate.Service, registry *hlsgate.Registry, configErr error) *GatewayHandler {
	return &GatewayHandler{
		service:   service,
		registry:  registry,
		configErr: configErr,
		logger:    slog.Default(),
	}
}

// WithLogger sets the structured logger used for failures.
func (h *GatewayHandler) WithLogger(logger *slog.Logger) *GatewayHandler {
	h.logger = logger
	return h
}

// Routes returns the router for the gateway endpoints.
func (h *GatewayHandler) Routes() chi.Router {
	r := chi.NewRouter()

	// Media URLs end up in video players and download managers on other
	// origins; responses must be readable cross-origin.
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodHead, http.MethodOptions},
		AllowedHeaders: []string{"*"},
		ExposedHeaders: []string{"*"},
	}))

	r.Get("/health", h.handleHealth)
	r.Get("/*", h.serveMedia)
	r.Head("/*", h.serveMedia)

	return r
}

func (h *GatewayHandler) handleHealth(w http.ResponseWriter, r *http.Request) {
	status := "healthy"
	accounts := 0
	if h.configErr != nil {
		status = "degraded"
	} else {
		accounts = len(h.registry.Accounts())
	}
	render.JSON(w, r, map[string]any{
		"status":   status,
		"accounts": accounts,
	})
}

func (h *GatewayHandler) serveMedia(w http.ResponseWriter, r *http.Request) {
	resolved, err := hlsgate.Resolve(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	// Liveness probes bypass tenant lookup and signing entirely, even while
	// the tenant table is broken.
	if resolved.IsPing() {
		w.WriteHeader(http.StatusOK)
		io.WriteString(w, PongBody)
		return
	}

	if h.configErr != nil {
		h.writeError(w, r, h.configErr)
		return
	}

	tenant, ok := h.registry.Lookup(resolved.Account)
	if !ok {
		h.writeError(w, r, fmt.Errorf("%w: %q", hlsgate.ErrUnknownAccount, resolved.Account))
		return
	}

	switch {
	case resolved.IsPlaylist():
		h.serveManifest(w, r, tenant, resolved.ObjectKey)
	case resolved.Method == http.MethodHead:
		h.relayHead(w, r, tenant, resolved.ObjectKey)
	default:
		h.redirectDownload(w, r, tenant, resolved.ObjectKey)
	}
}

func (h *GatewayHandler) serveManifest(w http.ResponseWriter, r *http.Request, tenant *hlsgate.Tenant, objectKey string) {
	body, err := h.service.RewriteManifest(r.Context(), tenant, objectKey)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	// The body embeds time-limited signatures; intermediaries must not cache it.
	w.Header().Set("Content-Type", hlsgate.ManifestContentType)
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.WriteHeader(http.StatusOK)
	io.WriteString(w, body)
}

func (h *GatewayHandler) relayHead(w http.ResponseWriter, r *http.Request, tenant *hlsgate.Tenant, objectKey string) {
	headers, err := h.service.RelayHead(r.Context(), tenant, objectKey)
	if err != nil {
		// Documented fallback: degrade to a redirect. The response then
		// carries no size metadata, since no upstream headers were obtained.
		h.logger.Warn("head relay failed, degrading to redirect",
			"account", tenant.ID, "key", objectKey, "error", err)
		h.redirectDownload(w, r, tenant, objectKey)
		return
	}

	dst := w.Header()
	for name, values := range headers {
		for _, v := range values {
			dst.Add(name, v)
		}
	}
	dst.Set("Access-Control-Allow-Origin", "*")
	dst.Set("Access-Control-Expose-Headers", "*")
	// Forced 200: the caller only wants the metadata, whatever the upstream said.
	w.WriteHeader(http.StatusOK)
}

func (h *GatewayHandler) redirectDownload(w http.ResponseWriter, r *http.Request, tenant *hlsgate.Tenant, objectKey string) {
	signed, err := h.service.PresignDownload(r.Context(), tenant, objectKey)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	// 307 keeps the method, so the HEAD fallback stays a HEAD.
	http.Redirect(w, r, signed.URL, http.StatusTemporaryRedirect)
}

func (h *GatewayHandler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, hlsgate.ErrInvalidRequest), errors.Is(err, hlsgate.ErrUnknownAccount):
		status = http.StatusBadRequest
	case errors.Is(err, hlsgate.ErrManifestNotFound):
		status = http.StatusNotFound
	}
	if status == http.StatusInternalServerError {
		h.logger.Error("request failed", "path", r.URL.Path, "error", err)
	}
	render.Status(r, status)
	render.PlainText(w, r, err.Error())
}
