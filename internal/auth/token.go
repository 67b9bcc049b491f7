package auth

import (
	"fmt"
	"time"

	"github.com/aapiden/storefront/internal/domain"
	"github.com/golang-jwt/jwt/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const issuer = "aapiden-storefront"

type Claims struct {
	Email        string      `json:"email"`
	Role         domain.Role `json:"role"`
	FreeShipping bool        `json:"freeShipping"`
	jwt.RegisteredClaims
}

// TokenManager issues and verifies HMAC signed session tokens.
type TokenManager struct {
	secret []byte
	ttl    time.Duration
}

func NewTokenManager(secret string, ttl time.Duration) *TokenManager {
	return &TokenManager{secret: []byte(secret), ttl: ttl}
}

func (m *TokenManager) Issue(user *domain.User) (string, error) {
	now := time.Now()
	claims := Claims{
		Email:        user.Email,
		Role:         user.Role,
		FreeShipping: user.FreeShipping,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID.Hex(),
			Issuer:    issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return token, nil
}

// Parse validates the token and returns the actor it was issued for.
func (m *TokenManager) Parse(raw string) (domain.Actor, error) {
	var claims Claims
	_, err := jwt.ParseWithClaims(raw, &claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return m.secret, nil
	}, jwt.WithIssuer(issuer), jwt.WithExpirationRequired())
	if err != nil {
		return domain.Actor{}, fmt.Errorf("%w: invalid token: %v", domain.ErrUnauthorized, err)
	}

	userID, err := primitive.ObjectIDFromHex(claims.Subject)
	if err != nil {
		return domain.Actor{}, fmt.Errorf("%w: invalid token subject", domain.ErrUnauthorized)
	}
	if !claims.Role.IsValid() {
		return domain.Actor{}, fmt.Errorf("%w: invalid token role", domain.ErrUnauthorized)
	}

	return domain.Actor{
		UserID:       userID,
		Email:        claims.Email,
		Role:         claims.Role,
		FreeShipping: claims.FreeShipping,
	}, nil
}
