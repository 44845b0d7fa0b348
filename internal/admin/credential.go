package admin

import (
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Credential is an admin bearer token. It is attached to each outgoing
// request explicitly; nothing is installed on a shared client.
type Credential struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt,omitempty"`
}

// NewCredential wraps token. When the token is a JWT its exp claim is read
// without verifying the signature; the admin API remains the authority.
func NewCredential(token string) Credential {
	cred := Credential{Token: strings.TrimSpace(token)}
	if cred.Token == "" {
		return cred
	}
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(cred.Token, claims); err != nil {
		return cred
	}
	if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
		cred.ExpiresAt = exp.Time.UTC()
	}
	return cred
}

func (c Credential) Empty() bool {
	return c.Token == ""
}

// Expired reports whether the token carries an expiry that has passed.
// Opaque tokens never expire locally.
func (c Credential) Expired(now time.Time) bool {
	return !c.ExpiresAt.IsZero() && !now.Before(c.ExpiresAt)
}

// Apply sets the Authorization header on req.
func (c Credential) Apply(req *http.Request) {
	if c.Empty() {
		req.Header.Del("Authorization")
		return
	}
	req.Header.Set("Authorization", "Bearer "+c.Token)
}
