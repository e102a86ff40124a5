// Package auth issues and inspects the bearer tokens exchanged with the
// account API. The dev server signs and verifies them; the client only reads
// the expiry of tokens it has cached.
package auth

import (
	"errors"
	"time"

	"github.com/dmitrijs2005/accountlink/internal/common"
	"github.com/golang-jwt/jwt/v5"
)

// Claims carries the registered claims plus the account the token was issued to.
type Claims struct {
	jwt.RegisteredClaims
	AccountID string `json:"accountId"`
}

func GenerateToken(accountID string, secretKey []byte, validityDuration time.Duration) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   accountID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(validityDuration)),
		},
		AccountID: accountID,
	})

	tokenString, err := token.SignedString(secretKey)
	if err != nil {
		return "", err
	}

	return tokenString, nil
}

// GetAccountIDFromToken verifies tokenString and returns its account id.
// Any verification failure is common.ErrTokenInvalid.
func GetAccountIDFromToken(tokenString string, secretKey []byte) (string, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return secretKey, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return "", errors.Join(common.ErrTokenInvalid, err)
	}

	if !token.Valid || claims.AccountID == "" {
		return "", common.ErrTokenInvalid
	}

	return claims.AccountID, nil
}

// ExpiresAt reads the exp claim without verifying the signature. ok is false
// when tokenString is not a JWT or carries no expiry.
func ExpiresAt(tokenString string) (time.Time, bool) {
	claims := &Claims{}
	if _, _, err := jwt.NewParser().ParseUnverified(tokenString, claims); err != nil {
		return time.Time{}, false
	}
	if claims.ExpiresAt == nil {
		return time.Time{}, false
	}
	return claims.ExpiresAt.Time, true
}

// Expired reports whether tokenString is a JWT whose expiry is not after now.
// Opaque tokens are never reported as expired.
func Expired(tokenString string, now time.Time) bool {
	exp, ok := ExpiresAt(tokenString)
	return ok && !exp.After(now)
}
