package session

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrInvalidToken = errors.New("invalid session token")
	ErrEmptySecret  = errors.New("session secret is empty")
)

type claims struct {
	SessionID string `json:"sid"`
	jwt.RegisteredClaims
}

func (m *Manager) signToken(sid string, now time.Time) (string, error) {
	if len(m.secret) == 0 {
		return "", ErrEmptySecret
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		SessionID: sid,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
		},
	})

	signed, err := token.SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign session token: %w", err)
	}
	return signed, nil
}

// parseToken validates signature and expiry and returns the session id
func (m *Manager) parseToken(value string) (string, error) {
	if len(m.secret) == 0 {
		return "", ErrEmptySecret
	}
	parsed := &claims{}
	token, err := jwt.ParseWithClaims(value, parsed, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return m.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !token.Valid || parsed.SessionID == "" {
		return "", ErrInvalidToken
	}
	return parsed.SessionID, nil
}
