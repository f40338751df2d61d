package utils

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// SignSessionID wraps a server-side session id in an HS256 token so the cookie
// cannot be forged without the secret.
func SignSessionID(sid, secret string, ttl time.Duration) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sid": sid,
		"iat": time.Now().Unix(),
		"exp": time.Now().Add(ttl).Unix(),
	})
	return token.SignedString([]byte(secret))
}

// VerifySessionToken checks signature and expiry and returns the session id.
func VerifySessionToken(token, secret string) (string, error) {
	parsedToken, err := jwt.Parse(token, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(secret), nil
	})
	if err != nil {
		return "", errors.New("could not parse session token")
	}
	if !parsedToken.Valid {
		return "", errors.New("invalid session token")
	}

	claims, ok := parsedToken.Claims.(jwt.MapClaims)
	if !ok {
		return "", errors.New("invalid session token claims")
	}
	sid, ok := claims["sid"].(string)
	if !ok || sid == "" {
		return "", errors.New("session token has no sid")
	}
	return sid, nil
}
