package handlers

import (
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/flowforge/auth-service/internal/application"
	"github.com/flowforge/auth-service/internal/domain"
	httperrors "github.com/flowforge/auth-service/internal/interfaces/http/errors"
	"github.com/flowforge/auth-service/internal/metrics"
)

// AuthorizeHandler serves the front-channel endpoints: authorize, consent
// approval and device-code approval. User authentication is delegated to an
// upstream identity layer that sets the X-User-ID header after login.
type AuthorizeHandler struct {
	provider *application.Provider
	logger   *zap.Logger
}

// NewAuthorizeHandler creates a new AuthorizeHandler.
func NewAuthorizeHandler(provider *application.Provider, logger *zap.Logger) *AuthorizeHandler {
	return &AuthorizeHandler{provider: provider, logger: logger}
}

func authorizeRequestFromQuery(r *http.Request) domain.AuthorizeRequest {
	q := r.URL.Query()
	return domain.AuthorizeRequest{
		ClientID:            q.Get("client_id"),
		RedirectURI:         q.Get("redirect_uri"),
		ResponseType:        q.Get("response_type"),
		Scope:               q.Get("scope"),
		State:               q.Get("state"),
		Nonce:               q.Get("nonce"),
		CodeChallenge:       q.Get("code_challenge"),
		CodeChallengeMethod: q.Get("code_challenge_method"),
	}
}

// AuthorizeHandler serves GET /oauth2/authorize. A result that still needs
// consent comes back as a JSON prompt for the consent UI instead of a
// redirect.
func (h *AuthorizeHandler) AuthorizeHandler(w http.ResponseWriter, r *http.Request) {
	userID := r.Header.Get("X-User-ID")
	if userID == "" {
		httperrors.RespondInvalidRequest(w, "User authentication required")
		return
	}

	req := authorizeRequestFromQuery(r)
	metrics.AuthorizationRequest(req.ResponseType)

	result, err := h.provider.Authorize(r.Context(), req, userID)
	if err != nil {
		h.logger.Debug("Authorize request rejected",
			zap.String("client_id", req.ClientID),
			zap.Error(err))
		httperrors.RespondWithError(w, err)
		return
	}

	if result.RequireConsent {
		respondJSON(w, http.StatusOK, map[string]interface{}{
			"require_consent": true,
			"client_id":       result.Client.ID,
			"client_name":     result.Client.Name,
			"scopes":          result.Scopes,
		})
		return
	}

	metrics.SessionOpened()
	http.Redirect(w, r, result.RedirectURL, http.StatusFound)
}

// ApproveHandler serves POST /oauth2/authorize/approve after the user
// accepted the consent prompt.
func (h *AuthorizeHandler) ApproveHandler(w http.ResponseWriter, r *http.Request) {
	userID := r.Header.Get("X-User-ID")
	if userID == "" {
		httperrors.RespondInvalidRequest(w, "User authentication required")
		return
	}
	if err := r.ParseForm(); err != nil {
		httperrors.RespondInvalidRequest(w, "Malformed form body")
		return
	}

	req := domain.AuthorizeRequest{
		ClientID:            r.PostFormValue("client_id"),
		RedirectURI:         r.PostFormValue("redirect_uri"),
		ResponseType:        r.PostFormValue("response_type"),
		Scope:               r.PostFormValue("scope"),
		State:               r.PostFormValue("state"),
		Nonce:               r.PostFormValue("nonce"),
		CodeChallenge:       r.PostFormValue("code_challenge"),
		CodeChallengeMethod: r.PostFormValue("code_challenge_method"),
	}
	scopes := strings.Fields(r.PostFormValue("granted_scopes"))
	if len(scopes) == 0 {
		scopes = strings.Fields(req.Scope)
	}

	result, err := h.provider.Approve(r.Context(), req, userID, scopes)
	if err != nil {
		httperrors.RespondWithError(w, err)
		return
	}

	metrics.SessionOpened()
	http.Redirect(w, r, result.RedirectURL, http.StatusFound)
}

// DeviceApprovalHandler serves POST /device: the user entered the code shown
// on the device and approved the request.
func (h *AuthorizeHandler) DeviceApprovalHandler(w http.ResponseWriter, r *http.Request) {
	userID := r.Header.Get("X-User-ID")
	if userID == "" {
		httperrors.RespondInvalidRequest(w, "User authentication required")
		return
	}
	if err := r.ParseForm(); err != nil {
		httperrors.RespondInvalidRequest(w, "Malformed form body")
		return
	}

	userCode := r.PostFormValue("user_code")
	if userCode == "" {
		httperrors.RespondInvalidRequest(w, "Missing user_code")
		return
	}

	if err := h.provider.AuthorizeDevice(r.Context(), userCode, userID); err != nil {
		httperrors.RespondWithError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "authorized"})
}
