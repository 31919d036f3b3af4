package domain

import "errors"

var (
	// ErrInvalidClientID is returned when the client_id is unknown
	ErrInvalidClientID = errors.New("Invalid client_id")

	// ErrInvalidClientCredentials is returned when client authentication fails
	ErrInvalidClientCredentials = errors.New("Invalid client credentials")

	// ErrInvalidRedirectURI is returned when the redirect URI is not registered
	ErrInvalidRedirectURI = errors.New("Invalid redirect_uri")

	// ErrUnsupportedResponseType is returned for response types outside the client's allow-list
	ErrUnsupportedResponseType = errors.New("Unsupported response_type")

	// ErrUnsupportedGrantType is returned for unknown grant types
	ErrUnsupportedGrantType = errors.New("Unsupported grant_type")

	// ErrGrantNotAllowed is returned when the client may not use the requested grant
	ErrGrantNotAllowed = errors.New("Grant type not allowed for client")

	// ErrInvalidAuthorizationCode covers absent, expired and already-consumed
	// codes alike so callers cannot distinguish "never existed" from "already used"
	ErrInvalidAuthorizationCode = errors.New("Invalid authorization code")

	// ErrMissingCode is returned when the authorization_code grant lacks a code
	ErrMissingCode = errors.New("Missing code")

	// ErrMissingCodeVerifier is returned when a PKCE-bound code is exchanged without a verifier
	ErrMissingCodeVerifier = errors.New("Missing code_verifier")

	// ErrInvalidCodeVerifier is returned when PKCE validation fails
	ErrInvalidCodeVerifier = errors.New("Invalid code_verifier")

	// ErrInvalidRefreshToken covers absent, expired and revoked refresh tokens alike
	ErrInvalidRefreshToken = errors.New("Invalid refresh_token")

	// ErrMissingRefreshToken is returned when the refresh_token grant lacks a token
	ErrMissingRefreshToken = errors.New("Missing refresh_token")

	// ErrMissingCredentials is returned when the password grant lacks username or password
	ErrMissingCredentials = errors.New("Missing username or password")

	// ErrInvalidCredentials is returned when resource-owner credentials are rejected
	ErrInvalidCredentials = errors.New("Invalid credentials")

	// ErrInvalidScope is returned when a requested scope cannot be granted
	ErrInvalidScope = errors.New("Invalid scope")

	// ErrInvalidDeviceCode covers absent and already-consumed device codes
	ErrInvalidDeviceCode = errors.New("Invalid device code")

	// ErrMissingDeviceCode is returned when the device_code grant lacks a device code
	ErrMissingDeviceCode = errors.New("Missing device_code")

	// ErrAuthorizationPending is the RFC 8628 poll outcome before out-of-band approval
	ErrAuthorizationPending = errors.New("authorization_pending")

	// ErrSlowDown is the RFC 8628 poll outcome when polling faster than the interval
	ErrSlowDown = errors.New("slow_down")

	// ErrExpiredDeviceCode is the RFC 8628 poll outcome for an expired device code
	ErrExpiredDeviceCode = errors.New("expired_token")

	// ErrClientExists is returned when registering a client with a taken ID
	ErrClientExists = errors.New("client already exists")

	// ErrClientNotFound is returned when a client lookup fails
	ErrClientNotFound = errors.New("client not found")

	// ErrScopeNotFound is returned when a scope lookup fails
	ErrScopeNotFound = errors.New("scope not found")

	// ErrSessionNotFound is returned when a session lookup fails or the session expired
	ErrSessionNotFound = errors.New("session not found")

	// ErrConsentNotFound is returned when no valid consent exists
	ErrConsentNotFound = errors.New("consent not found")

	// ErrInvalidSignature is returned when a signed token fails verification
	ErrInvalidSignature = errors.New("Invalid signature")

	// ErrInternal is returned when there is an internal server error
	ErrInternal = errors.New("internal server error")
)
