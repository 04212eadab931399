package auth

import (
	"crypto/rsa"
	"errors"
	"fmt"
	"time"

	"github.com/frahmantamala/leave-management/internal/core/actor"
	"github.com/golang-jwt/jwt/v5"
)

const issuer = "leave-management"

type JWTTokenGenerator struct {
	PrivateKey     *rsa.PrivateKey
	PublicKey      *rsa.PublicKey
	AccessTokenTTL time.Duration
	now            func() time.Time
}

// NewJWTTokenGenerator signs with RS256. A nil private key yields a
// verify-only generator.
func NewJWTTokenGenerator(privateKey *rsa.PrivateKey, publicKey *rsa.PublicKey, ttl time.Duration) *JWTTokenGenerator {
	if ttl <= 0 {
		ttl = 15 * time.Minute
	}
	return &JWTTokenGenerator{
		PrivateKey:     privateKey,
		PublicKey:      publicKey,
		AccessTokenTTL: ttl,
		now:            time.Now,
	}
}

// WithClock overrides the time source used for issuing and expiry checks.
func (j *JWTTokenGenerator) WithClock(now func() time.Time) *JWTTokenGenerator {
	j.now = now
	return j
}

// GenerateAccessToken creates a new access token
func (j *JWTTokenGenerator) GenerateAccessToken(a actor.Actor) (string, error) {
	if j.PrivateKey == nil {
		return "", errors.New("token generator has no signing key")
	}
	if !a.Role.Valid() || a.UserID <= 0 || a.CompanyID <= 0 {
		return "", ErrInvalidActor
	}

	now := j.now()
	claims := newClaims(a)
	claims.Issuer = issuer
	claims.IssuedAt = jwt.NewNumericDate(now)
	claims.ExpiresAt = jwt.NewNumericDate(now.Add(j.AccessTokenTTL))

	token := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	tokenString, err := token.SignedString(j.PrivateKey)
	if err != nil {
		return "", err
	}

	return tokenString, nil
}

// ValidateToken validates a JWT token and returns claims
func (j *JWTTokenGenerator) ValidateToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodRSA); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return j.PublicKey, nil
	}, jwt.WithIssuer(issuer), jwt.WithTimeFunc(j.now))

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}
	if !claims.Role.Valid() || claims.UserID <= 0 || claims.CompanyID <= 0 {
		return nil, ErrInvalidActor
	}
	return claims, nil
}

// Issue mints a token and describes it for API clients.
func (j *JWTTokenGenerator) Issue(a actor.Actor) (*TokenResponse, error) {
	token, err := j.GenerateAccessToken(a)
	if err != nil {
		return nil, err
	}
	return &TokenResponse{
		AccessToken: token,
		TokenType:   "Bearer",
		ExpiresIn:   int64(j.AccessTokenTTL.Seconds()),
		UserID:      a.UserID,
		CompanyID:   a.CompanyID,
		Role:        a.Role,
	}, nil
}
