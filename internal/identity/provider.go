package identity

import (
	"errors"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/sentra-labs/realtime/internal/ierr"
)

// Role is the sender role stamped on outbound messages so the receiving
// end can attribute them without a server round trip.
type Role string

const (
	RoleUser   Role = "USER"
	RoleExpert Role = "EXPERT"
	RoleAdmin  Role = "ADMIN"
	RoleSystem Role = "SYSTEM"
)

// ParseRole resolves a raw tag into a known Role. The second return value
// reports whether the tag matched; callers fall back to RoleUser otherwise.
func ParseRole(tag string) (Role, bool) {
	switch Role(strings.ToUpper(tag)) {
	case RoleUser:
		return RoleUser, true
	case RoleExpert:
		return RoleExpert, true
	case RoleAdmin:
		return RoleAdmin, true
	case RoleSystem:
		return RoleSystem, true
	}

	return RoleUser, false
}

// Provider supplies the caller identity via synchronous local accessors.
// An empty token is a hard precondition failure for connecting.
type Provider interface {
	Token() string
	UserId() string
	DisplayName() string
	Role() Role
}

// Static is a host-configured identity, used when the hosting application
// already knows who the user is.
type Static struct {
	AuthToken string
	User      string
	Name      string
	UserRole  Role
}

func (s *Static) Token() string       { return s.AuthToken }
func (s *Static) UserId() string      { return s.User }
func (s *Static) DisplayName() string { return s.Name }
func (s *Static) Role() Role          { return s.UserRole }

type Claims struct {
	jwt.RegisteredClaims
	Name string `json:"name,omitempty"`
	Role string `json:"role,omitempty"`
}

// TokenProvider derives the identity from the bearer token's claims.
// The token is parsed without signature verification: this is the client
// side, the server is the one that validates signatures.
type TokenProvider struct {
	token  string
	claims Claims
}

func NewTokenProvider(token string) (*TokenProvider, error) {
	if token == "" {
		return nil, ierr.New(ierr.ErrorCodeAuthMissing, errors.New("auth token is empty"))
	}

	claims := Claims{}

	parser := jwt.NewParser()
	_, _, err := parser.ParseUnverified(token, &claims)
	if err != nil {
		return nil, ierr.New(ierr.ErrorCodeInvalidArgument, err)
	}

	subject, err := claims.GetSubject()
	if err != nil || subject == "" {
		return nil, ierr.New(ierr.ErrorCodeInvalidArgument, errors.New("invalid subject claim"))
	}

	return &TokenProvider{
		token:  token,
		claims: claims,
	}, nil
}

func (p *TokenProvider) Token() string {
	return p.token
}

func (p *TokenProvider) UserId() string {
	return p.claims.Subject
}

func (p *TokenProvider) DisplayName() string {
	if p.claims.Name != "" {
		return p.claims.Name
	}

	return p.claims.Subject
}

func (p *TokenProvider) Role() Role {
	role, _ := ParseRole(p.claims.Role)

	return role
}
