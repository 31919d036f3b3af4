package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/flowforge/auth-service/internal/application"
	"github.com/flowforge/auth-service/internal/domain"
	httperrors "github.com/flowforge/auth-service/internal/interfaces/http/errors"
	"github.com/flowforge/auth-service/internal/metrics"
)

// OAuth2Handler serves the back-channel endpoints: token, introspection,
// revocation and device authorization.
type OAuth2Handler struct {
	provider *application.Provider
	logger   *zap.Logger
}

// NewOAuth2Handler creates a new OAuth2Handler.
func NewOAuth2Handler(provider *application.Provider, logger *zap.Logger) *OAuth2Handler {
	return &OAuth2Handler{provider: provider, logger: logger}
}

// TokenHandler serves POST /oauth2/token for every supported grant.
func (h *OAuth2Handler) TokenHandler(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		httperrors.RespondInvalidRequest(w, "Malformed form body")
		return
	}

	clientID, clientSecret := clientCredentials(r)
	req := domain.TokenRequest{
		GrantType:    r.PostFormValue("grant_type"),
		ClientID:     clientID,
		ClientSecret: clientSecret,
		Code:         r.PostFormValue("code"),
		RedirectURI:  r.PostFormValue("redirect_uri"),
		CodeVerifier: r.PostFormValue("code_verifier"),
		RefreshToken: r.PostFormValue("refresh_token"),
		Scope:        r.PostFormValue("scope"),
		Username:     r.PostFormValue("username"),
		Password:     r.PostFormValue("password"),
		DeviceCode:   r.PostFormValue("device_code"),
	}

	set, err := h.provider.Token(r.Context(), req)
	if err != nil {
		h.logger.Debug("Token request failed",
			zap.String("grant_type", req.GrantType),
			zap.String("client_id", req.ClientID),
			zap.Error(err))
		httperrors.RespondWithError(w, err)
		return
	}

	metrics.TokenIssued(req.GrantType)
	respondJSON(w, http.StatusOK, set)
}

// IntrospectHandler serves POST /oauth2/introspect. The response is always
// 200 with a well-formed body; unknown tokens are simply inactive.
func (h *OAuth2Handler) IntrospectHandler(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		httperrors.RespondInvalidRequest(w, "Malformed form body")
		return
	}

	result := h.provider.Introspect(r.Context(), r.PostFormValue("token"), r.PostFormValue("token_type_hint"))
	metrics.Introspection(result.Active)
	respondJSON(w, http.StatusOK, result)
}

// RevokeHandler serves POST /oauth2/revoke. Per RFC 7009 the response is
// 200 whether or not the token existed.
func (h *OAuth2Handler) RevokeHandler(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		httperrors.RespondInvalidRequest(w, "Malformed form body")
		return
	}

	h.provider.Revoke(r.Context(), domain.Revocation{
		Token:         r.PostFormValue("token"),
		TokenTypeHint: r.PostFormValue("token_type_hint"),
	})
	metrics.TokenRevoked()
	w.WriteHeader(http.StatusOK)
}

// DeviceAuthorizationHandler serves POST /oauth2/device_authorization.
func (h *OAuth2Handler) DeviceAuthorizationHandler(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		httperrors.RespondInvalidRequest(w, "Malformed form body")
		return
	}

	clientID, _ := clientCredentials(r)
	authorization, err := h.provider.DeviceAuthorization(r.Context(), clientID, r.PostFormValue("scope"))
	if err != nil {
		h.logger.Debug("Device authorization failed",
			zap.String("client_id", clientID),
			zap.Error(err))
		httperrors.RespondWithError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, authorization)
}
