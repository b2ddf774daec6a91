package jwt

import (
	"context"
	"errors"
	"time"

	"github.com/go-chi/jwtauth/v5"
	"github.com/lestrrat-go/jwx/v2/jwt"
)

var ErrInvalidToken = errors.New("invalid or expired token")

// Service verifies access tokens issued by the identity provider. This
// backend never issues tokens itself.
type Service interface {
	JWTAuth() *jwtauth.JWTAuth
}

type JWTService struct {
	tokenAuth *jwtauth.JWTAuth
}

func NewJWTService(secretKey string) Service {
	return &JWTService{
		tokenAuth: jwtauth.New("HS256", []byte(secretKey), nil, jwt.WithAcceptableSkew(30*time.Second)),
	}
}

func (j *JWTService) JWTAuth() *jwtauth.JWTAuth {
	return j.tokenAuth
}

// Claims is the caller identity the handlers care about.
type Claims struct {
	UserID     string
	EmployeeID string
	Role       string
}

// ClaimsFromContext extracts verified claims placed in the request context by
// the jwtauth verifier.
func ClaimsFromContext(ctx context.Context) (Claims, error) {
	_, raw, err := jwtauth.FromContext(ctx)
	if err != nil {
		return Claims{}, ErrInvalidToken
	}

	claims := Claims{}
	if v, ok := raw["user_id"].(string); ok {
		claims.UserID = v
	}
	if v, ok := raw["employee_id"].(string); ok {
		claims.EmployeeID = v
	}
	if v, ok := raw["role"].(string); ok {
		claims.Role = v
	}

	if claims.UserID == "" {
		return Claims{}, ErrInvalidToken
	}
	return claims, nil
}

// IsReviewer reports whether the caller may decide approvals.
func (c Claims) IsReviewer() bool {
	switch c.Role {
	case "manager", "hr", "admin":
		return true
	}
	return false
}
