package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

type Role string

const (
	RoleAdmin     Role = "admin"
	RoleProvider  Role = "provider"
	RoleRequester Role = "requester"
)

func (r Role) IsValid() bool {
	switch r {
	case RoleAdmin, RoleProvider, RoleRequester:
		return true
	}
	return false
}

var (
	ErrTokenExpired = errors.New("token has expired")
	ErrTokenInvalid = errors.New("token is invalid")
	ErrWrongRole    = errors.New("token does not carry the required role")
)

type Claims struct {
	SubjectID uuid.UUID
	Role      Role
}

type tokenClaims struct {
	jwt.RegisteredClaims
	Role Role `json:"role"`
}

type Config struct {
	Secret   string
	Issuer   string
	TokenTTL time.Duration
}

// Manager issues and validates HS256 tokens carrying a subject id and a
// role claim. Token minting for end users happens elsewhere; Generate
// exists for trusted internal callers and tests.
type Manager struct {
	cfg Config
}

func NewManager(cfg Config) *Manager {
	return &Manager{cfg: cfg}
}

func (m *Manager) Generate(subjectID uuid.UUID, role Role) (string, error) {
	if !role.IsValid() {
		return "", fmt.Errorf("unknown role %q", role)
	}

	now := time.Now()
	claims := tokenClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    m.cfg.Issuer,
			Subject:   subjectID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.cfg.TokenTTL)),
		},
		Role: role,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(m.cfg.Secret))
}

// Validate parses the token and checks that it carries requiredRole.
// Admin tokens pass every role check.
func (m *Manager) Validate(tokenString string, requiredRole Role) (Claims, error) {
	token, err := jwt.ParseWithClaims(
		tokenString,
		&tokenClaims{},
		func(token *jwt.Token) (any, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
			}
			return []byte(m.cfg.Secret), nil
		},
		jwt.WithIssuer(m.cfg.Issuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return Claims{}, ErrTokenExpired
		}
		return Claims{}, ErrTokenInvalid
	}

	claims, ok := token.Claims.(*tokenClaims)
	if !ok || !token.Valid {
		return Claims{}, ErrTokenInvalid
	}

	subjectID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return Claims{}, ErrTokenInvalid
	}

	if claims.Role != requiredRole && claims.Role != RoleAdmin {
		return Claims{}, ErrWrongRole
	}

	return Claims{SubjectID: subjectID, Role: claims.Role}, nil
}
