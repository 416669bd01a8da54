package mockserver

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// DemoUser is a predefined account of the mock service.
type DemoUser struct {
	Password string
	Name     string
}

// DefaultUsers mirrors the accounts the real service ships with.
var DefaultUsers = map[string]DemoUser{
	"admin@company.com": {Password: "admin123", Name: "Admin User"},
	"user1@company.com": {Password: "user123", Name: "User One"},
	"user2@company.com": {Password: "user123", Name: "User Two"},
	"user3@company.com": {Password: "user123", Name: "User Three"},
	"user4@company.com": {Password: "user123", Name: "User Four"},
}

var errInvalidToken = errors.New("Invalid token")

// Claims carries the login email of the bearer.
type Claims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

func generateToken(secret, email string, now time.Time) (string, error) {
	claims := Claims{
		Email: email,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(24 * time.Hour)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

func validateToken(secret, tokenStr string, now time.Time) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (any, error) {
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(func() time.Time { return now }))
	if err != nil {
		return nil, errInvalidToken
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, errInvalidToken
	}
	return claims, nil
}
