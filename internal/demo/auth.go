package demo

import (
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/toyz/metaroute/pkg/metaroute"
)

// ErrNotValid is returned for an unusable signing key
var ErrNotValid = errors.New("not valid")

// Claims are the JWT claims issued and accepted by the demo
type Claims struct {
	Name  string   `json:"name,omitempty"`
	Roles []string `json:"roles"`
	jwt.RegisteredClaims
}

// User is the value injected for CurrentUser parameters
type User struct {
	ID    string   `json:"id"`
	Name  string   `json:"name,omitempty"`
	Roles []string `json:"roles"`
}

// HasAnyRole reports whether u holds one of roles
func (u *User) HasAnyRole(roles []string) bool {
	for _, role := range roles {
		if slices.Contains(u.Roles, role) {
			return true
		}
	}
	return false
}

// Authenticator issues and verifies HS256 bearer tokens
type Authenticator struct {
	key    []byte
	parser *jwt.Parser
	now    func() time.Time
}

// NewAuthenticator creates an authenticator signing with key
func NewAuthenticator(key string) (*Authenticator, error) {
	if key == "" {
		return nil, fmt.Errorf(`%w: jwt key cannot be ""`, ErrNotValid)
	}
	return &Authenticator{
		key:    []byte(key),
		parser: &jwt.Parser{ValidMethods: []string{jwt.SigningMethodHS256.Alg()}},
		now:    time.Now,
	}, nil
}

// Issue signs a token for subject valid for ttl
func (a *Authenticator) Issue(subject, name string, roles []string, ttl time.Duration) (string, error) {
	now := a.now()
	claims := Claims{
		Name:  name,
		Roles: roles,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.key)
}

// Verify parses and validates an encoded token
func (a *Authenticator) Verify(encoded string) (*User, error) {
	claims := &Claims{}
	_, err := a.parser.ParseWithClaims(encoded, claims, func(*jwt.Token) (interface{}, error) {
		return a.key, nil
	})
	if err != nil {
		return nil, metaroute.ErrUnauthorized("Invalid token").WithCause(err)
	}
	return &User{ID: claims.Subject, Name: claims.Name, Roles: claims.Roles}, nil
}

// Authorize implements metaroute.AuthorizationHandler. A missing or invalid
// token fails with 401; a valid token lacking every role is refused.
func (a *Authenticator) Authorize(c metaroute.RequestContext, roles []string) (bool, error) {
	user, err := a.userFrom(c)
	if err != nil {
		return false, err
	}
	return len(roles) == 0 || user.HasAnyRole(roles), nil
}

// CurrentUser implements metaroute.CurrentUserHandler
func (a *Authenticator) CurrentUser(c metaroute.RequestContext) (any, error) {
	return a.userFrom(c)
}

func (a *Authenticator) userFrom(c metaroute.RequestContext) (*User, error) {
	encoded, err := metaroute.ExtractJwtToken(c.Header("Authorization"))
	if err != nil {
		return nil, err
	}
	return a.Verify(encoded)
}
