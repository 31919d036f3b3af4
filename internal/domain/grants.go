package domain

import "context"

// Grant types supported by the token endpoint.
const (
	GrantAuthorizationCode = "authorization_code"
	GrantRefreshToken      = "refresh_token"
	GrantClientCredentials = "client_credentials"
	GrantPassword          = "password"
	GrantDeviceCode        = "urn:ietf:params:oauth:grant-type:device_code"
)

// Response types supported by the authorization endpoint. Hybrid requests
// combine them space-separated ("code id_token", "code token id_token", ...).
const (
	ResponseTypeCode    = "code"
	ResponseTypeToken   = "token"
	ResponseTypeIDToken = "id_token"
)

// CredentialVerifier checks resource-owner credentials for the password
// grant. Verification is delegated to an external identity collaborator;
// on success it returns the resolved user ID, on failure any error. Every
// error is reported to the caller as invalid credentials.
type CredentialVerifier interface {
	Verify(ctx context.Context, username, password string) (userID string, err error)
}
