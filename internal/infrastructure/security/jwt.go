// Package security provides JWT token utilities
package security

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v4"
)

// AdminTokenType is the "type" claim carried by admin tokens.
const AdminTokenType = "admin_auth"

// ErrInvalidToken is returned for tokens that fail signature, expiry or type checks.
var ErrInvalidToken = errors.New("invalid token")

// ValidateJWT validates a JWT token and returns the claims
func ValidateJWT(tokenString, jwtSecret string) (jwt.MapClaims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return []byte(jwtSecret), nil
	})
	if err != nil {
		return nil, err
	}
	if claims, ok := token.Claims.(jwt.MapClaims); ok && token.Valid {
		return claims, nil
	}
	return nil, ErrInvalidToken
}

// GenerateAdminToken signs an admin token valid for ttl.
func GenerateAdminToken(jwtSecret string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"role": "admin",
		"type": AdminTokenType,
		"exp":  now.Add(ttl).Unix(),
		"iat":  now.Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(jwtSecret))
}

// ValidateAdminToken checks signature, expiry and that the token was issued for admin use.
func ValidateAdminToken(tokenString, jwtSecret string) error {
	claims, err := ValidateJWT(tokenString, jwtSecret)
	if err != nil {
		return err
	}
	if claims["type"] != AdminTokenType || claims["role"] != "admin" {
		return ErrInvalidToken
	}
	return nil
}
