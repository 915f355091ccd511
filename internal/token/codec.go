// Package token decodes bearer credentials issued by the remote content API.
//
// Decoding never verifies the signature: the remote API issued the token and
// re-validates it on every call, so the console only needs the claims to make
// local decisions such as skipping an identity fetch for an expired session.
package token

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"go-admin-console/internal/model"
)

// Claims is the subset of the credential payload the console relies on.
type Claims struct {
	Subject   string
	Name      string
	Role      string
	ExpiresAt int64
	IssuedAt  int64
}

// Expired reports whether the expiry lies strictly before now.
func (c Claims) Expired(now time.Time) bool {
	return c.ExpiresAt < now.Unix()
}

func (c Claims) ExpiresIn(now time.Time) time.Duration {
	return time.Unix(c.ExpiresAt, 0).Sub(now)
}

var parser = jwt.NewParser()

// Decode parses raw without signature verification. Any structural problem
// or a missing expiry yields model.ErrMalformedCredential.
func Decode(raw string) (Claims, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Claims{}, fmt.Errorf("%w: empty token", model.ErrMalformedCredential)
	}

	mapClaims := jwt.MapClaims{}
	if _, _, err := parser.ParseUnverified(raw, mapClaims); err != nil {
		return Claims{}, fmt.Errorf("%w: %v", model.ErrMalformedCredential, err)
	}

	exp, err := mapClaims.GetExpirationTime()
	if err != nil || exp == nil {
		return Claims{}, fmt.Errorf("%w: missing exp claim", model.ErrMalformedCredential)
	}

	claims := Claims{ExpiresAt: exp.Unix()}
	if iat, err := mapClaims.GetIssuedAt(); err == nil && iat != nil {
		claims.IssuedAt = iat.Unix()
	}

	claims.Subject = stringClaim(mapClaims, "sub", "id", "userId")
	claims.Name = stringClaim(mapClaims, "name", "username")
	claims.Role, _ = mapClaims["role"].(string)

	return claims, nil
}

// stringClaim returns the first present claim among keys, rendering numeric
// ids without a fractional part.
func stringClaim(claims jwt.MapClaims, keys ...string) string {
	for _, key := range keys {
		switch v := claims[key].(type) {
		case string:
			if v != "" {
				return v
			}
		case float64:
			return fmt.Sprintf("%.0f", v)
		}
	}
	return ""
}

// Fingerprint identifies raw in logs and events without revealing it.
func Fingerprint(raw string) string {
	if raw == "" {
		return ""
	}
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:8])
}
