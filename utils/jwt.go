package utils

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt"
)

// ErrNoExpiry is returned when a token carries no usable "exp" claim.
var ErrNoExpiry = errors.New("token does not carry an exp claim")

// TokenExpiry reads the "exp" claim of a JWT without verifying its signature.
// The storefront never holds the signing key; the services verify tokens.
func TokenExpiry(tokenString string) (time.Time, error) {
	claims := jwt.MapClaims{}
	if _, _, err := new(jwt.Parser).ParseUnverified(tokenString, claims); err != nil {
		return time.Time{}, err
	}
	switch exp := claims["exp"].(type) {
	case float64:
		return time.Unix(int64(exp), 0), nil
	case int64:
		return time.Unix(exp, 0), nil
	default:
		return time.Time{}, ErrNoExpiry
	}
}

// TokenExpired reports whether tokenString is a JWT whose exp lies at or before now.
// Opaque or unparseable tokens are never considered expired; the server decides.
func TokenExpired(tokenString string, now time.Time) bool {
	exp, err := TokenExpiry(tokenString)
	if err != nil {
		return false
	}
	return !now.Before(exp)
}
