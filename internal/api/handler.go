// internal/api/handler.go
package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"os"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"repo-intel/internal/agent"
	custom_errors "repo-intel/internal/errors"
)

// maxInvokeBody bounds the size of an invoke request body.
const maxInvokeBody = 1 << 20

// Options are the HTTP-facing settings of the router.
type Options struct {
	BaseURL        string
	IconPath       string
	AllowedOrigins []string
	Identity       agent.Identity
}

// Handler is the container for API dependencies.
type Handler struct {
	registry *agent.Registry
	paywall  agent.Paywall
	opts     Options
	logger   *slog.Logger
}

// invokeRequest is the body of POST /entrypoints/{key}/invoke.
type invokeRequest struct {
	Input json.RawMessage `json:"input"`
}

// invokeResponse is the envelope every operation result is wrapped in.
type invokeResponse struct {
	Output any `json:"output"`
}

// NewRouter creates and configures a new chi router with all API routes.
func NewRouter(registry *agent.Registry, paywall agent.Paywall, opts Options, logger *slog.Logger) http.Handler {
	h := &Handler{
		registry: registry,
		paywall:  paywall,
		opts:     opts,
		logger:   logger,
	}

	origins := opts.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	r := chi.NewRouter()

	// Middleware stack
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger) // Chi's default logger
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", "Authorization", agent.PaymentHeader, "X-Request-ID"},
		MaxAge:         300,
	}))

	r.Get("/health", h.healthCheck)
	r.Get("/icon.png", h.icon)
	r.Get("/.well-known/agent.json", h.registration)
	r.Route("/entrypoints", func(r chi.Router) {
		r.Get("/", h.listEntrypoints)
		r.Post("/{key}/invoke", h.invoke)
	})

	return r
}

// healthCheck is a simple health endpoint.
func (h *Handler) healthCheck(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// listEntrypoints lists every operation with its price and input schema.
// GET /entrypoints
func (h *Handler) listEntrypoints(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, map[string]any{
		"entrypoints": h.registry.Entrypoints(h.opts.BaseURL),
	})
}

// registration serves the discovery document.
// GET /.well-known/agent.json
func (h *Handler) registration(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, agent.BuildRegistration(h.opts.Identity, h.opts.BaseURL, h.registry))
}

// icon streams the icon asset from disk.
// GET /icon.png
func (h *Handler) icon(w http.ResponseWriter, r *http.Request) {
	f, err := os.Open(h.opts.IconPath)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			h.logger.Error("Failed to open icon", "path", h.opts.IconPath, "error", err)
		}
		http.Error(w, "Icon not found", http.StatusNotFound)
		return
	}
	defer f.Close()

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "public, max-age=86400")
	if _, err := io.Copy(w, f); err != nil {
		h.logger.Warn("Failed to write icon", "error", err)
	}
}

// invoke runs one operation after the paywall admits the request.
// POST /entrypoints/{key}/invoke
func (h *Handler) invoke(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")

	op, ok := h.registry.Lookup(key)
	if !ok {
		h.respondWithOperationError(w, key, &custom_errors.ErrUnknownOperation{Key: key})
		return
	}

	if err := h.paywall.Authorize(r, op); err != nil {
		var payErr *custom_errors.ErrPaymentRequired
		if errors.As(err, &payErr) {
			respondWithJSON(w, http.StatusPaymentRequired, map[string]any{
				"error":   errorBody{Code: "payment_required", Message: payErr.Error()},
				"payment": agent.NewChallenge(op),
			})
			return
		}
		h.respondWithOperationError(w, key, err)
		return
	}

	var req invokeRequest
	body, err := io.ReadAll(io.LimitReader(r.Body, maxInvokeBody))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid_request", "Could not read request body")
		return
	}
	if len(body) > 0 {
		if err := json.Unmarshal(body, &req); err != nil {
			respondWithError(w, http.StatusBadRequest, "invalid_request", "Request body must be a JSON object with an 'input' field")
			return
		}
	}

	// upstream calls run to completion even if the caller goes away
	out, err := h.registry.Invoke(context.WithoutCancel(r.Context()), key, req.Input)
	if err != nil {
		h.respondWithOperationError(w, key, err)
		return
	}

	respondWithJSON(w, http.StatusOK, invokeResponse{Output: out})
}
