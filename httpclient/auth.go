package httpclient

import (
	"net/http"
	"strings"
)

// AuthType identifies the authentication method.
type AuthType int

const (
	// AuthNone disables authentication.
	AuthNone AuthType = iota
	// AuthBearer uses Bearer token authentication.
	AuthBearer
	// AuthToken sends Token as the Authorization header verbatim.
	AuthToken
	// AuthCustom uses a custom authentication function.
	AuthCustom
)

// FlyV1Prefix marks macaroon tokens that are sent without a Bearer scheme.
const FlyV1Prefix = "FlyV1 "

// AuthConfig configures request authentication.
type AuthConfig struct {
	// Type is the authentication method.
	Type AuthType
	// Token is the credential (AuthBearer, AuthToken).
	Token string
	// Apply is a custom function to modify the request (AuthCustom).
	Apply func(*http.Request)
}

// NoAuth explicitly disables authentication, e.g. to override client auth
// for a single request.
func NoAuth() *AuthConfig {
	return &AuthConfig{Type: AuthNone}
}

// BearerAuth creates a bearer token auth config.
func BearerAuth(token string) *AuthConfig {
	return &AuthConfig{Type: AuthBearer, Token: token}
}

// TokenAuth sends value as the Authorization header unchanged.
func TokenAuth(value string) *AuthConfig {
	return &AuthConfig{Type: AuthToken, Token: value}
}

// FlyAuth picks the header form for a Fly API token. "FlyV1 " macaroons are
// sent as-is, anything else as a bearer token.
func FlyAuth(token string) *AuthConfig {
	if strings.HasPrefix(token, FlyV1Prefix) {
		return TokenAuth(token)
	}
	return BearerAuth(token)
}

// CustomAuth creates a custom auth config with a request modifier function.
func CustomAuth(fn func(*http.Request)) *AuthConfig {
	return &AuthConfig{Type: AuthCustom, Apply: fn}
}

// Header returns the Authorization header value, or "" for non-header auth.
func (a *AuthConfig) Header() string {
	if a == nil {
		return ""
	}
	switch a.Type {
	case AuthBearer:
		return "Bearer " + a.Token
	case AuthToken:
		return a.Token
	}
	return ""
}

// apply applies authentication to an HTTP request.
func (a *AuthConfig) apply(req *http.Request) {
	if a == nil {
		return
	}
	switch a.Type {
	case AuthBearer, AuthToken:
		req.Header.Set("Authorization", a.Header())
	case AuthCustom:
		if a.Apply != nil {
			a.Apply(req)
		}
	}
}
