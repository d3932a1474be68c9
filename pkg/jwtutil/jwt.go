package jwtutil

import (
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"

	"taskhub-service/internal/authz"
	"taskhub-service/internal/model"
	"taskhub-service/pkg/config"
)

// UserClaims represents the JWT claims for user authentication.
// TenantID is absent for super_admin tokens.
type UserClaims struct {
	UserID   uuid.UUID  `json:"user_id"`
	TenantID *uuid.UUID `json:"tenant_id,omitempty"`
	Email    string     `json:"email"`
	Role     string     `json:"role"`
	jwt.RegisteredClaims
}

// Principal converts verified claims into an authorization principal.
// Unknown roles are rejected here, at the boundary.
func (c *UserClaims) Principal() (authz.Principal, error) {
	role, err := authz.ParseRole(c.Role)
	if err != nil {
		return authz.Principal{}, err
	}
	return authz.Principal{
		UserID:   c.UserID,
		TenantID: c.TenantID,
		Role:     role,
	}, nil
}

// JWT issues and verifies HS256 access tokens.
type JWT struct {
	secret []byte
	ttl    time.Duration
}

func New(cfg *config.JWTConfig) *JWT {
	return &JWT{
		secret: []byte(cfg.SigningKey),
		ttl:    time.Duration(cfg.ExpirationHours) * time.Hour,
	}
}

// Issue creates a signed token carrying the user's identity, tenant and
// role.
func (j *JWT) Issue(u *model.User) (string, error) {
	claims := UserClaims{
		UserID:   u.ID,
		TenantID: u.TenantID,
		Email:    u.Email,
		Role:     u.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(j.ttl)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(j.secret)
}

// Verify validates and parses the token. Expired and malformed tokens
// fail identically.
func (j *JWT) Verify(tokenString string) (*UserClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &UserClaims{}, func(token *jwt.Token) (interface{}, error) {
		return j.secret, nil
	})
	if err != nil {
		return nil, err
	}

	if claims, ok := token.Claims.(*UserClaims); ok && token.Valid {
		return claims, nil
	}
	return nil, jwt.ErrSignatureInvalid
}
