package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// stateClaims binds an OAuth state parameter to the chat that started the
// connect flow, so a callback can only complete auth for its own chat.
type stateClaims struct {
	ChatID string `json:"chat_id"`
	jwt.RegisteredClaims
}

type StateSigner struct {
	secret []byte
	ttl    time.Duration
}

func NewStateSigner(secret []byte) *StateSigner {
	return &StateSigner{secret: secret, ttl: 10 * time.Minute}
}

func (s *StateSigner) Sign(chatID string) (string, error) {
	claims := &stateClaims{
		ChatID: chatID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(s.ttl)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign state: %w", err)
	}
	return signed, nil
}

// Verify checks the signature and expiry and returns the embedded chat id.
func (s *StateSigner) Verify(state string) (string, error) {
	claims := &stateClaims{}
	token, err := jwt.ParseWithClaims(state, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method")
		}
		return s.secret, nil
	})
	if err != nil || !token.Valid {
		return "", fmt.Errorf("invalid state token")
	}
	return claims.ChatID, nil
}
