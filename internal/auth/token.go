package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenInfo is a best-effort peek at a bearer token's claims, used by
// diagnostics output only. The token is treated as opaque everywhere else.
type TokenInfo struct {
	Subject   string
	IssuedAt  time.Time
	ExpiresAt time.Time
	HasClaims bool
}

// InspectToken decodes the token's claims without verifying the signature;
// the client has no signing key and authorization stays with the backend.
// A token that is not a JWT yields HasClaims == false, not an error.
func InspectToken(token string) TokenInfo {
	parser := jwt.NewParser()
	claims := jwt.MapClaims{}
	if _, _, err := parser.ParseUnverified(token, claims); err != nil {
		return TokenInfo{}
	}

	info := TokenInfo{HasClaims: true}
	if sub, err := claims.GetSubject(); err == nil {
		info.Subject = sub
	}
	if iat, err := claims.GetIssuedAt(); err == nil && iat != nil {
		info.IssuedAt = iat.Time
	}
	if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
		info.ExpiresAt = exp.Time
	}
	return info
}
