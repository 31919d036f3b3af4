// Package errors maps domain errors onto the OAuth2 wire format: a JSON
// body with "error" and "error_description" and the status RFC 6749
// prescribes for each code.
package errors

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/flowforge/auth-service/internal/domain"
)

// ErrorResponse is the OAuth2 error body.
type ErrorResponse struct {
	Error       string `json:"error"`
	Description string `json:"error_description,omitempty"`
}

// OAuth2 error codes from RFC 6749 §5.2 and RFC 8628 §3.5.
const (
	CodeInvalidRequest          = "invalid_request"
	CodeInvalidClient           = "invalid_client"
	CodeInvalidGrant            = "invalid_grant"
	CodeUnauthorizedClient      = "unauthorized_client"
	CodeUnsupportedGrantType    = "unsupported_grant_type"
	CodeUnsupportedResponseType = "unsupported_response_type"
	CodeInvalidScope            = "invalid_scope"
	CodeAccessDenied            = "access_denied"
	CodeAuthorizationPending    = "authorization_pending"
	CodeSlowDown                = "slow_down"
	CodeExpiredToken            = "expired_token"
	CodeServerError             = "server_error"
)

func classify(err error) (code string, status int) {
	switch {
	case errors.Is(err, domain.ErrInvalidClientCredentials):
		return CodeInvalidClient, http.StatusUnauthorized
	case errors.Is(err, domain.ErrInvalidClientID),
		errors.Is(err, domain.ErrClientNotFound):
		return CodeInvalidClient, http.StatusBadRequest
	case errors.Is(err, domain.ErrInvalidRedirectURI),
		errors.Is(err, domain.ErrMissingCode),
		errors.Is(err, domain.ErrMissingCodeVerifier),
		errors.Is(err, domain.ErrMissingRefreshToken),
		errors.Is(err, domain.ErrMissingCredentials),
		errors.Is(err, domain.ErrMissingDeviceCode):
		return CodeInvalidRequest, http.StatusBadRequest
	case errors.Is(err, domain.ErrInvalidAuthorizationCode),
		errors.Is(err, domain.ErrInvalidCodeVerifier),
		errors.Is(err, domain.ErrInvalidRefreshToken),
		errors.Is(err, domain.ErrInvalidCredentials),
		errors.Is(err, domain.ErrInvalidDeviceCode):
		return CodeInvalidGrant, http.StatusBadRequest
	case errors.Is(err, domain.ErrGrantNotAllowed):
		return CodeUnauthorizedClient, http.StatusBadRequest
	case errors.Is(err, domain.ErrUnsupportedGrantType):
		return CodeUnsupportedGrantType, http.StatusBadRequest
	case errors.Is(err, domain.ErrUnsupportedResponseType):
		return CodeUnsupportedResponseType, http.StatusBadRequest
	case errors.Is(err, domain.ErrInvalidScope):
		return CodeInvalidScope, http.StatusBadRequest
	case errors.Is(err, domain.ErrAuthorizationPending):
		return CodeAuthorizationPending, http.StatusBadRequest
	case errors.Is(err, domain.ErrSlowDown):
		return CodeSlowDown, http.StatusBadRequest
	case errors.Is(err, domain.ErrExpiredDeviceCode):
		return CodeExpiredToken, http.StatusBadRequest
	case errors.Is(err, domain.ErrClientExists):
		return CodeInvalidRequest, http.StatusConflict
	case errors.Is(err, domain.ErrScopeNotFound),
		errors.Is(err, domain.ErrSessionNotFound),
		errors.Is(err, domain.ErrConsentNotFound):
		return CodeInvalidRequest, http.StatusNotFound
	case errors.Is(err, domain.ErrInternal):
		return CodeServerError, http.StatusInternalServerError
	}
	return CodeServerError, http.StatusInternalServerError
}

// RespondWithError writes the OAuth2 error body for a domain error. The
// device-flow polling errors carry their code as the description too, since
// their error strings are already the RFC names.
func RespondWithError(w http.ResponseWriter, err error) {
	code, status := classify(err)
	writeError(w, status, code, err.Error())
}

// RespondInvalidRequest writes an invalid_request error with a custom
// description for malformed input the domain never sees.
func RespondInvalidRequest(w http.ResponseWriter, description string) {
	writeError(w, http.StatusBadRequest, CodeInvalidRequest, description)
}

func writeError(w http.ResponseWriter, status int, code, description string) {
	if description == code {
		// RFC 8628 errors stringify to their own code; repeating it as a
		// description adds nothing.
		description = ""
	}
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(ErrorResponse{Error: code, Description: description})
}
