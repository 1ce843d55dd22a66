package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/artpar/shopdesk/internal/core/domain"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = errors.New("token expired")
)

// Claims are the bearer token claims. The subject is the user ID.
type Claims struct {
	jwt.RegisteredClaims
	Name string      `json:"name,omitempty"`
	Role domain.Role `json:"role"`
}

// IssueToken signs an HS256 token for the actor, valid for ttl from now.
func IssueToken(actor Actor, secret []byte, ttl time.Duration, now time.Time) (string, error) {
	if actor.UserID == "" {
		return "", fmt.Errorf("%w: missing user id", ErrInvalidToken)
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   actor.UserID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		Name: actor.Name,
		Role: actor.Role,
	})
	return token.SignedString(secret)
}

// ParseToken verifies a token and returns the authenticated actor it names.
func ParseToken(tokenString string, secret []byte, now time.Time) (Actor, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(func() time.Time { return now }),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return Anonymous, ErrTokenExpired
		}
		return Anonymous, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !token.Valid || claims.Subject == "" || !claims.Role.IsValid() {
		return Anonymous, ErrInvalidToken
	}

	return Actor{
		UserID:        claims.Subject,
		Name:          claims.Name,
		Role:          claims.Role,
		Authenticated: true,
	}, nil
}
