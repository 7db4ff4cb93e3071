package identity

import (
	"errors"
	"fmt"
	"time"

	"github.com/gofrs/uuid/v5"
	"github.com/golang-jwt/jwt/v5"

	"github.com/and161185/storefront/internal/errs"
	"github.com/and161185/storefront/internal/model"
)

// Claims is the bearer token payload issued by the external identity provider.
type Claims struct {
	jwt.RegisteredClaims
	Role string   `json:"role,omitempty"`
	Caps []string `json:"caps,omitempty"`
}

// Actor converts verified claims to an actor.
func (c Claims) Actor() (model.Actor, error) {
	id, err := uuid.FromString(c.Subject)
	if err != nil || id == uuid.Nil {
		return model.Actor{}, fmt.Errorf("%w: bad subject", errs.ErrUnauthorized)
	}
	a := model.Actor{ID: id, Role: model.Role(c.Role)}
	if a.Role == "" {
		a.Role = model.RoleShopper
	}
	for _, cp := range c.Caps {
		a.Capabilities = append(a.Capabilities, model.Capability(cp))
	}
	return a, nil
}

// Verifier checks HS256 bearer tokens.
type Verifier struct {
	key    []byte
	leeway time.Duration
}

// NewVerifier returns a verifier for tokens signed with key.
func NewVerifier(key []byte) *Verifier {
	return &Verifier{key: key, leeway: 30 * time.Second}
}

// Verify validates the signature and time claims and returns the actor.
func (v *Verifier) Verify(token string) (model.Actor, error) {
	if len(v.key) == 0 {
		return model.Actor{}, fmt.Errorf("%w: no signing key configured", errs.ErrUnauthorized)
	}
	var claims Claims
	parsed, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (any, error) {
		if t.Method != jwt.SigningMethodHS256 {
			return nil, errors.New("unexpected signing method")
		}
		return v.key, nil
	}, jwt.WithLeeway(v.leeway))
	if err != nil || !parsed.Valid {
		return model.Actor{}, fmt.Errorf("%w: invalid token", errs.ErrUnauthorized)
	}
	return claims.Actor()
}

// ParseUnverified reads the claims of a token without checking the signature.
// Devices use it to learn their own account id; the remote tier verifies.
func ParseUnverified(token string) (model.Actor, error) {
	var claims Claims
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		return model.Actor{}, fmt.Errorf("%w: malformed token", errs.ErrUnauthorized)
	}
	if claims.ExpiresAt != nil && claims.ExpiresAt.Before(time.Now()) {
		return model.Actor{}, fmt.Errorf("%w: token expired", errs.ErrUnauthorized)
	}
	return claims.Actor()
}

// Sign issues an HS256 token for a. Meant for development setups and tests;
// production tokens come from the identity provider.
func Sign(key []byte, a model.Actor, ttl time.Duration) (string, error) {
	now := time.Now()
	caps := make([]string, 0, len(a.Capabilities))
	for _, c := range a.Capabilities {
		caps = append(caps, string(c))
	}
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   a.ID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		Role: string(a.Role),
		Caps: caps,
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(key)
}
