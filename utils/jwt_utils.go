package utils

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claims mirrors what the users service signs into the access token.
type Claims struct {
	Username string `json:"username"`
	Role     string `json:"role"`
	jwt.RegisteredClaims
}

var ErrNoExpiry = errors.New("token carries no expiry")

// InspectToken reads the claims without checking the signature. The client
// never holds the signing key; the backend stays the only validator.
func InspectToken(tokenString string) (*Claims, error) {
	claims := &Claims{}
	if _, _, err := jwt.NewParser().ParseUnverified(tokenString, claims); err != nil {
		return nil, err
	}
	return claims, nil
}

func TokenExpiry(tokenString string) (time.Time, error) {
	claims, err := InspectToken(tokenString)
	if err != nil {
		return time.Time{}, err
	}
	if claims.ExpiresAt == nil {
		return time.Time{}, ErrNoExpiry
	}
	return claims.ExpiresAt.Time, nil
}

// ExpiresWithin reports whether the token is already expired or will be
// within d. Unreadable tokens report false; the server decides on those.
func ExpiresWithin(tokenString string, d time.Duration, now time.Time) bool {
	exp, err := TokenExpiry(tokenString)
	if err != nil {
		return false
	}
	return !now.Add(d).Before(exp)
}
