package util

import (
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var (
	ErrInvalidToken   = errors.New("invalid token")
	ErrExpiredToken   = errors.New("token has expired")
	ErrWrongTokenType = errors.New("unexpected token type")
)

const tokenTypeAccess = "access"

// TokenClaims - полезная нагрузка токена, выпускаемого auth-service.
// Субъект (sub) хранит UUID пользователя; ролей и разрешений в токене
// нет - они читаются из базы на каждый запрос.
type TokenClaims struct {
	TokenType string `json:"type"`
	jwt.RegisteredClaims
}

// UserID возвращает идентификатор пользователя из subject
func (c *TokenClaims) UserID() uuid.UUID {
	id, _ := uuid.Parse(c.Subject)
	return id
}

// TokenVerifier проверяет access токены auth-service. Сервис
// классификаций токены не выпускает, поэтому ему достаточно
// общего секрета и проверки подписи.
type TokenVerifier struct {
	secretKey string
}

func NewTokenVerifier(secretKey string) *TokenVerifier {
	return &TokenVerifier{secretKey: secretKey}
}

// VerifyAccessToken проверяет подпись, срок действия и тип токена.
// Refresh токен здесь не принимается.
func (v *TokenVerifier) VerifyAccessToken(tokenString string) (*TokenClaims, error) {
	token, err := jwt.ParseWithClaims(
		tokenString,
		&TokenClaims{},
		v.keyFunc,
	)

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*TokenClaims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}

	if _, err := uuid.Parse(claims.Subject); err != nil {
		return nil, ErrInvalidToken
	}

	if claims.TokenType != tokenTypeAccess {
		return nil, ErrWrongTokenType
	}

	return claims, nil
}

func (v *TokenVerifier) keyFunc(token *jwt.Token) (interface{}, error) {
	if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
		return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
	}
	return []byte(v.secretKey), nil
}
