package application

import (
	"context"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/flowforge/auth-service/internal/domain"
	tokens "github.com/flowforge/auth-service/internal/infrastructure/token"
)

// SupportedResponseTypes lists every response type the authorize endpoint
// handles, including the hybrid combinations.
func SupportedResponseTypes() []string {
	return []string{
		"code",
		"token",
		"id_token",
		"code token",
		"code id_token",
		"token id_token",
		"code token id_token",
	}
}

func splitScope(scope string) []string {
	return strings.Fields(scope)
}

// AuthorizationFlow drives the front-channel: the authorize endpoint with
// its consent branch, device authorization, and provider discovery.
type AuthorizationFlow struct {
	registry *ProviderRegistry
	tokens   *TokenManager
	grants   *GrantHandlers
	events   domain.EventPublisher
	logger   *zap.Logger
}

// NewAuthorizationFlow wires the authorization flow.
func NewAuthorizationFlow(registry *ProviderRegistry, tokenManager *TokenManager, grants *GrantHandlers, events domain.EventPublisher, logger *zap.Logger) *AuthorizationFlow {
	return &AuthorizationFlow{
		registry: registry,
		tokens:   tokenManager,
		grants:   grants,
		events:   events,
		logger:   logger,
	}
}

// Authorize processes an authorize request for an authenticated user. When
// consent is still outstanding the result carries RequireConsent instead of
// a redirect; the caller renders the consent page and calls back through
// Approve after the user decides.
func (f *AuthorizationFlow) Authorize(ctx context.Context, req domain.AuthorizeRequest, userID string) (*domain.AuthorizeResult, error) {
	client, err := f.registry.GetClient(ctx, req.ClientID)
	if err != nil {
		return nil, domain.ErrInvalidClientID
	}

	if !client.AllowsRedirectURI(req.RedirectURI) {
		return nil, domain.ErrInvalidRedirectURI
	}

	responseTypes, err := f.validateResponseTypes(client, req.ResponseType)
	if err != nil {
		return nil, err
	}

	scopes := f.resolveScopes(client, req.Scope)

	if f.consentRequired(ctx, client, userID, scopes) {
		return &domain.AuthorizeResult{
			RequireConsent: true,
			Scopes:         scopes,
			Client:         client,
		}, nil
	}

	return f.finishAuthorize(ctx, client, req, userID, scopes, responseTypes)
}

// Approve completes an authorize request after the user granted consent on
// the consent page. The posted scopes are clamped to the client allow-list
// before anything is recorded or issued; the consent form is not trusted to
// name scopes the client was never registered for.
func (f *AuthorizationFlow) Approve(ctx context.Context, req domain.AuthorizeRequest, userID string, scopes []string) (*domain.AuthorizeResult, error) {
	client, err := f.registry.GetClient(ctx, req.ClientID)
	if err != nil {
		return nil, domain.ErrInvalidClientID
	}
	if !client.AllowsRedirectURI(req.RedirectURI) {
		return nil, domain.ErrInvalidRedirectURI
	}

	responseTypes, err := f.validateResponseTypes(client, req.ResponseType)
	if err != nil {
		return nil, err
	}

	granted := f.resolveScopes(client, strings.Join(scopes, " "))

	if _, err := f.tokens.Consents().Grant(ctx, userID, client.ID, granted, nil); err != nil {
		return nil, err
	}
	return f.finishAuthorize(ctx, client, req, userID, granted, responseTypes)
}

// validateResponseTypes splits a space-separated response_type value and
// rejects anything outside the known set or the client's registration.
func (f *AuthorizationFlow) validateResponseTypes(client *domain.OAuth2Client, responseType string) ([]string, error) {
	responseTypes := strings.Fields(responseType)
	if len(responseTypes) == 0 {
		return nil, domain.ErrUnsupportedResponseType
	}
	for _, rt := range responseTypes {
		switch rt {
		case domain.ResponseTypeCode, domain.ResponseTypeToken, domain.ResponseTypeIDToken:
		default:
			return nil, domain.ErrUnsupportedResponseType
		}
		if !client.AllowsResponseType(rt) {
			return nil, domain.ErrUnsupportedResponseType
		}
	}
	return responseTypes, nil
}

func (f *AuthorizationFlow) finishAuthorize(ctx context.Context, client *domain.OAuth2Client, req domain.AuthorizeRequest, userID string, scopes, responseTypes []string) (*domain.AuthorizeResult, error) {
	session, err := f.tokens.Sessions().Create(ctx, userID, client.ID)
	if err != nil {
		return nil, err
	}
	f.events.Publish(NewEvent(domain.EventSessionCreated, map[string]interface{}{
		"user_id":   userID,
		"client_id": client.ID,
	}))

	wantCode := containsString(responseTypes, domain.ResponseTypeCode)
	wantToken := containsString(responseTypes, domain.ResponseTypeToken)
	wantIDToken := containsString(responseTypes, domain.ResponseTypeIDToken)
	if !wantCode && !wantToken && !wantIDToken {
		return nil, domain.ErrUnsupportedResponseType
	}

	redirect, err := url.Parse(req.RedirectURI)
	if err != nil {
		return nil, domain.ErrInvalidRedirectURI
	}

	var code *domain.AuthorizationCode
	if wantCode {
		code, err = f.issueCode(ctx, client, req, userID, session.ID, scopes)
		if err != nil {
			return nil, err
		}
	}

	if !wantToken && !wantIDToken {
		// The plain code flow returns parameters in the query string.
		query := redirect.Query()
		query.Set("code", code.Code)
		if req.State != "" {
			query.Set("state", req.State)
		}
		redirect.RawQuery = query.Encode()
		return &domain.AuthorizeResult{RedirectURL: redirect.String(), Scopes: scopes, Client: client, SessionID: session.ID}, nil
	}

	// Implicit and hybrid responses go in the fragment.
	fragment := url.Values{}
	if code != nil {
		fragment.Set("code", code.Code)
	}
	if wantToken {
		access, err := f.tokens.GenerateAccessToken(ctx, client, userID, scopes, session.ID)
		if err != nil {
			return nil, err
		}
		fragment.Set("access_token", access.Token)
		fragment.Set("token_type", domain.TokenTypeBearer)
		fragment.Set("expires_in", strconv.Itoa(int(time.Until(access.ExpiresAt).Seconds())))
	}
	if wantIDToken {
		idToken, err := f.tokens.GenerateIDToken(ctx, client, userID, req.Nonce, session.ID, session.AuthTime)
		if err != nil {
			return nil, err
		}
		fragment.Set("id_token", idToken)
	}
	if req.State != "" {
		fragment.Set("state", req.State)
	}
	redirect.Fragment = fragment.Encode()
	return &domain.AuthorizeResult{
		RedirectURL: redirect.String(),
		Scopes:      scopes,
		Client:      client,
		SessionID:   session.ID,
	}, nil
}

func (f *AuthorizationFlow) issueCode(ctx context.Context, client *domain.OAuth2Client, req domain.AuthorizeRequest, userID, sessionID string, scopes []string) (*domain.AuthorizationCode, error) {
	value, err := tokens.GenerateOpaque(tokens.OpaqueTokenBytes)
	if err != nil {
		f.logger.Error("Failed to generate authorization code", zap.Error(err))
		return nil, domain.ErrInternal
	}

	lifetime := f.registry.SecurityConfig().CodeLifetime
	if client.CodeLifetime > 0 {
		lifetime = client.CodeLifetime
	}

	now := time.Now()
	code := &domain.AuthorizationCode{
		Code:                value,
		ClientID:            client.ID,
		UserID:              userID,
		RedirectURI:         req.RedirectURI,
		Scopes:              scopes,
		State:               req.State,
		Nonce:               req.Nonce,
		CodeChallenge:       req.CodeChallenge,
		CodeChallengeMethod: req.CodeChallengeMethod,
		SessionID:           sessionID,
		CreatedAt:           now,
		ExpiresAt:           now.Add(lifetime),
	}
	if err := f.registry.SaveAuthorizationCode(ctx, code); err != nil {
		return nil, err
	}
	return code, nil
}

// resolveScopes intersects the requested scope string with the client's
// allowed scopes, silently dropping unknown names. An empty request grants
// the client's full scope set.
func (f *AuthorizationFlow) resolveScopes(client *domain.OAuth2Client, scope string) []string {
	if scope == "" {
		return client.Scopes
	}
	granted := make([]string, 0)
	for _, name := range splitScope(scope) {
		if hasScope(client.Scopes, name) {
			granted = append(granted, name)
		}
	}
	if len(granted) == 0 {
		return client.Scopes
	}
	return granted
}

func (f *AuthorizationFlow) consentRequired(ctx context.Context, client *domain.OAuth2Client, userID string, scopes []string) bool {
	if client.Trusted {
		return false
	}
	if !client.RequireConsent && !f.anyConsentScope(ctx, scopes) {
		return false
	}
	return !f.tokens.Consents().Check(ctx, userID, client.ID, scopes)
}

func (f *AuthorizationFlow) anyConsentScope(ctx context.Context, scopes []string) bool {
	for _, name := range scopes {
		if scope, err := f.registry.GetScope(ctx, name); err == nil && scope.Consent {
			return true
		}
	}
	return false
}

// Token dispatches a token request to the matching grant handler.
func (f *AuthorizationFlow) Token(ctx context.Context, req domain.TokenRequest) (*domain.TokenSet, error) {
	return f.grants.Handle(ctx, req)
}

// DeviceAuthorization starts the device flow for a client: it mints the
// device and user codes and tells the device where to send the user.
func (f *AuthorizationFlow) DeviceAuthorization(ctx context.Context, clientID, scope string) (*domain.DeviceAuthorization, error) {
	client, err := f.registry.GetClient(ctx, clientID)
	if err != nil {
		return nil, domain.ErrInvalidClientID
	}
	if !client.AllowsGrantType(domain.GrantDeviceCode) {
		return nil, domain.ErrGrantNotAllowed
	}

	deviceCode, err := tokens.GenerateOpaque(tokens.OpaqueTokenBytes)
	if err != nil {
		return nil, domain.ErrInternal
	}
	userCode, err := tokens.GenerateUserCode()
	if err != nil {
		return nil, domain.ErrInternal
	}

	security := f.registry.SecurityConfig()
	now := time.Now()
	code := &domain.DeviceCode{
		DeviceCode: deviceCode,
		UserCode:   userCode,
		ClientID:   client.ID,
		Scopes:     f.resolveScopes(client, scope),
		Interval:   security.DeviceCodeInterval,
		CreatedAt:  now,
		ExpiresAt:  now.Add(security.DeviceCodeLifetime),
	}
	if err := f.registry.SaveDeviceCode(ctx, code); err != nil {
		return nil, err
	}

	verificationURI := f.registry.Issuer() + "/device"
	return &domain.DeviceAuthorization{
		DeviceCode:              deviceCode,
		UserCode:                userCode,
		VerificationURI:         verificationURI,
		VerificationURIComplete: verificationURI + "?user_code=" + url.QueryEscape(userCode),
		ExpiresIn:               int64(security.DeviceCodeLifetime.Seconds()),
		Interval:                security.DeviceCodeInterval,
	}, nil
}

// DiscoveryDocument builds the provider metadata. Capability lists come from
// the same slices that drive dispatch, so the document can never advertise a
// grant or response type without a handler behind it.
func (f *AuthorizationFlow) DiscoveryDocument(ctx context.Context) *domain.DiscoveryDocument {
	issuer := f.registry.Issuer()

	scopes := f.registry.ListScopes(ctx)
	scopeNames := make([]string, 0, len(scopes))
	for _, scope := range scopes {
		scopeNames = append(scopeNames, scope.Name)
	}

	return &domain.DiscoveryDocument{
		Issuer:                            issuer,
		AuthorizationEndpoint:             issuer + "/oauth2/authorize",
		TokenEndpoint:                     issuer + "/oauth2/token",
		IntrospectionEndpoint:             issuer + "/oauth2/introspect",
		RevocationEndpoint:                issuer + "/oauth2/revoke",
		DeviceAuthorizationEndpoint:       issuer + "/oauth2/device_authorization",
		JWKSURI:                           issuer + "/.well-known/jwks.json",
		ScopesSupported:                   scopeNames,
		ResponseTypesSupported:            SupportedResponseTypes(),
		GrantTypesSupported:               SupportedGrantTypes(),
		TokenEndpointAuthMethodsSupported: []string{domain.AuthMethodClientSecretBasic, domain.AuthMethodClientSecretPost, domain.AuthMethodNone},
		SubjectTypesSupported:             []string{"public"},
		IDTokenSigningAlgValuesSupported:  []string{"RS256"},
		CodeChallengeMethodsSupported:     []string{"plain", "S256"},
		ClaimsSupported:                   []string{"iss", "sub", "aud", "exp", "iat", "auth_time", "nonce", "acr", "amr", "azp"},
	}
}

func containsString(values []string, target string) bool {
	for _, v := range values {
		if v == target {
			return true
		}
	}
	return false
}
