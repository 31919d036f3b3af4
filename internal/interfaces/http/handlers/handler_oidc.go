package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/flowforge/auth-service/internal/application"
	httperrors "github.com/flowforge/auth-service/internal/interfaces/http/errors"
)

// OIDCHandler serves discovery and the JWKS endpoint.
type OIDCHandler struct {
	provider *application.Provider
	logger   *zap.Logger
}

// NewOIDCHandler creates a new OIDCHandler.
func NewOIDCHandler(provider *application.Provider, logger *zap.Logger) *OIDCHandler {
	return &OIDCHandler{provider: provider, logger: logger}
}

// DiscoveryHandler serves GET /.well-known/openid-configuration.
func (h *OIDCHandler) DiscoveryHandler(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.provider.DiscoveryDocument(r.Context()))
}

// JWKSHandler serves GET /.well-known/jwks.json.
func (h *OIDCHandler) JWKSHandler(w http.ResponseWriter, r *http.Request) {
	jwks, err := h.provider.JWKS(r.Context())
	if err != nil {
		h.logger.Error("Failed to build JWKS", zap.Error(err))
		httperrors.RespondWithError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, jwks)
}
