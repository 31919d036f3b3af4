package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/flowforge/auth-service/internal/application"
	"github.com/flowforge/auth-service/internal/domain"
	httperrors "github.com/flowforge/auth-service/internal/interfaces/http/errors"
)

// ClientRequest is the admin-API body for creating or updating a client.
type ClientRequest struct {
	ID             string   `json:"id"`
	Secret         string   `json:"secret,omitempty"`
	Name           string   `json:"name"`
	RedirectURIs   []string `json:"redirect_uris"`
	GrantTypes     []string `json:"grant_types,omitempty"`
	ResponseTypes  []string `json:"response_types,omitempty"`
	Scopes         []string `json:"scopes,omitempty"`
	AuthMethod     string   `json:"token_endpoint_auth_method,omitempty"`
	RequireConsent bool     `json:"require_consent,omitempty"`
	Trusted        bool     `json:"trusted,omitempty"`
}

// ClientHandler serves the client and scope administration API.
type ClientHandler struct {
	provider *application.Provider
	logger   *zap.Logger
}

// NewClientHandler creates a new ClientHandler.
func NewClientHandler(provider *application.Provider, logger *zap.Logger) *ClientHandler {
	return &ClientHandler{provider: provider, logger: logger}
}

func (req ClientRequest) toClient() *domain.OAuth2Client {
	return &domain.OAuth2Client{
		ID:             req.ID,
		Secret:         req.Secret,
		Name:           req.Name,
		RedirectURIs:   req.RedirectURIs,
		GrantTypes:     req.GrantTypes,
		ResponseTypes:  req.ResponseTypes,
		Scopes:         req.Scopes,
		AuthMethod:     req.AuthMethod,
		RequireConsent: req.RequireConsent,
		Trusted:        req.Trusted,
	}
}

// CreateClientHandler handles POST /admin/clients. The response is the only
// place the generated plaintext secret ever appears.
func (h *ClientHandler) CreateClientHandler(w http.ResponseWriter, r *http.Request) {
	var req ClientRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Error("Failed to decode request body", zap.Error(err))
		httperrors.RespondInvalidRequest(w, "Invalid request body")
		return
	}
	if req.ID == "" || len(req.RedirectURIs) == 0 {
		httperrors.RespondInvalidRequest(w, "id and redirect_uris are required")
		return
	}

	client, err := h.provider.Registry().RegisterClient(r.Context(), req.toClient())
	if err != nil {
		h.logger.Error("Failed to register client", zap.String("client_id", req.ID), zap.Error(err))
		httperrors.RespondWithError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, client)
}

// UpdateClientHandler handles PUT /admin/clients/{id}.
func (h *ClientHandler) UpdateClientHandler(w http.ResponseWriter, r *http.Request) {
	clientID := chi.URLParam(r, "id")

	var req ClientRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httperrors.RespondInvalidRequest(w, "Invalid request body")
		return
	}
	req.ID = clientID

	client, err := h.provider.Registry().UpdateClient(r.Context(), req.toClient())
	if err != nil {
		httperrors.RespondWithError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, client)
}

// DeleteClientHandler handles DELETE /admin/clients/{id}. Live tokens for
// the client are revoked along with the registration.
func (h *ClientHandler) DeleteClientHandler(w http.ResponseWriter, r *http.Request) {
	clientID := chi.URLParam(r, "id")

	if err := h.provider.Registry().DeleteClient(r.Context(), clientID); err != nil {
		httperrors.RespondWithError(w, err)
		return
	}
	h.provider.Tokens().RevokeClientTokens(r.Context(), clientID)
	w.WriteHeader(http.StatusNoContent)
}

// GetClientHandler handles GET /admin/clients/{id}.
func (h *ClientHandler) GetClientHandler(w http.ResponseWriter, r *http.Request) {
	client, err := h.provider.Registry().GetClient(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httperrors.RespondWithError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, client)
}

// ListClientsHandler handles GET /admin/clients with optional grant_type,
// scope and trusted filters.
func (h *ClientHandler) ListClientsHandler(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := domain.ClientFilter{
		GrantType: q.Get("grant_type"),
		Scope:     q.Get("scope"),
	}
	if raw := q.Get("trusted"); raw != "" {
		trusted := raw == "true"
		filter.Trusted = &trusted
	}
	respondJSON(w, http.StatusOK, h.provider.Registry().ListClients(r.Context(), filter))
}

// RegisterScopeHandler handles POST /admin/scopes.
func (h *ClientHandler) RegisterScopeHandler(w http.ResponseWriter, r *http.Request) {
	var scope domain.Scope
	if err := json.NewDecoder(r.Body).Decode(&scope); err != nil {
		httperrors.RespondInvalidRequest(w, "Invalid request body")
		return
	}
	if err := h.provider.Registry().RegisterScope(r.Context(), &scope); err != nil {
		httperrors.RespondWithError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, scope)
}

// ListScopesHandler handles GET /admin/scopes.
func (h *ClientHandler) ListScopesHandler(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.provider.Registry().ListScopes(r.Context()))
}

// MetricsSnapshotHandler handles GET /admin/metrics, the aggregate counters
// as JSON. Prometheus scraping lives at /metrics.
func (h *ClientHandler) MetricsSnapshotHandler(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.provider.Metrics())
}
