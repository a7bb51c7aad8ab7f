// Package auth issues and verifies the HS256 bearer tokens accepted by the
// JSON API as an alternative to the session cookie.
package auth

import "time"

const (
	// AuthorizationHeader is the HTTP header carrying the bearer token.
	AuthorizationHeader = "Authorization"

	// BearerScheme is the authorization scheme for tokens.
	BearerScheme = "Bearer"

	// DefaultIssuer is used when no issuer is configured.
	DefaultIssuer = "marquee"

	// DefaultTokenTTL is used when no ttl is configured.
	DefaultTokenTTL = 12 * time.Hour

	// MinSecretLength is the shortest accepted signing secret.
	MinSecretLength = 32

	// ClockSkew is the leeway allowed when checking exp, nbf and iat.
	ClockSkew = 30 * time.Second
)
