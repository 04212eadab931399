package auth

import (
	"strconv"

	"github.com/frahmantamala/leave-management/internal"
	"github.com/frahmantamala/leave-management/internal/core/actor"
	"github.com/golang-jwt/jwt/v5"
)

// TokenGenerator mints and verifies actor tokens.
type TokenGenerator interface {
	GenerateAccessToken(a actor.Actor) (string, error)
	ValidateToken(tokenString string) (*Claims, error)
}

// Claims represents JWT token claims
type Claims struct {
	UserID    int64      `json:"user_id"`
	CompanyID int64      `json:"company_id"`
	Role      actor.Role `json:"role"`
	jwt.RegisteredClaims
}

// Actor converts verified claims into the engine's caller identity.
func (c *Claims) Actor() actor.Actor {
	return actor.Actor{UserID: c.UserID, CompanyID: c.CompanyID, Role: c.Role}
}

func newClaims(a actor.Actor) *Claims {
	return &Claims{
		UserID:    a.UserID,
		CompanyID: a.CompanyID,
		Role:      a.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject: strconv.FormatInt(a.UserID, 10),
		},
	}
}

type TokenResponse struct {
	AccessToken string     `json:"access_token"`
	TokenType   string     `json:"token_type"`
	ExpiresIn   int64      `json:"expires_in"`
	UserID      int64      `json:"user_id"`
	CompanyID   int64      `json:"company_id"`
	Role        actor.Role `json:"role"`
}

var (
	ErrInvalidToken = internal.ErrInvalidToken
	ErrTokenExpired = internal.ErrTokenExpired
	ErrInvalidActor = internal.NewUnauthorizedError("token does not carry a valid actor", internal.ErrCodeInvalidToken)
)
