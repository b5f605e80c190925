package util

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var (
	ErrInvalidToken   = errors.New("invalid token")
	ErrExpiredToken   = errors.New("token has expired")
	ErrWrongTokenType = errors.New("unexpected token type")
)

// Типы выпускаемых токенов. Тип зашивается в claims и проверяется
// при валидации, чтобы refresh токен нельзя было предъявить как access.
const (
	TokenTypeAccess  = "access"
	TokenTypeRefresh = "refresh"
)

// TokenClaims - полезная нагрузка токена. Субъект (sub) хранит UUID
// пользователя; роли и разрешения в токен намеренно не включаются.
type TokenClaims struct {
	TokenType string `json:"type"`
	jwt.RegisteredClaims
}

// UserID возвращает идентификатор пользователя из subject
func (c *TokenClaims) UserID() uuid.UUID {
	id, _ := uuid.Parse(c.Subject)
	return id
}

type JWTManager struct {
	secretKey            string
	accessTokenDuration  time.Duration
	refreshTokenDuration time.Duration
}

func NewJWTManager(secretKey string, accessDuration, refreshDuration time.Duration) *JWTManager {
	return &JWTManager{
		secretKey:            secretKey,
		accessTokenDuration:  accessDuration,
		refreshTokenDuration: refreshDuration,
	}
}

// GenerateAccessToken выпускает короткоживущий access токен.
// Дополнительные claims из extra попадают в payload, но не могут
// перекрыть зарезервированные поля (sub, type, iat, exp).
func (m *JWTManager) GenerateAccessToken(userID uuid.UUID, extra map[string]interface{}) (string, error) {
	return m.generateToken(userID, TokenTypeAccess, m.accessTokenDuration, extra)
}

// GenerateRefreshToken выпускает долгоживущий refresh токен
func (m *JWTManager) GenerateRefreshToken(userID uuid.UUID) (string, error) {
	return m.generateToken(userID, TokenTypeRefresh, m.refreshTokenDuration, nil)
}

func (m *JWTManager) generateToken(userID uuid.UUID, tokenType string, ttl time.Duration, extra map[string]interface{}) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub":  userID.String(),
		"type": tokenType,
		"iat":  jwt.NewNumericDate(now),
		"exp":  jwt.NewNumericDate(now.Add(ttl)),
	}

	for key, value := range extra {
		if _, reserved := claims[key]; !reserved {
			claims[key] = value
		}
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	signed, err := token.SignedString([]byte(m.secretKey))
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}

	return signed, nil
}

// ValidateToken проверяет подпись, срок действия и тип токена
func (m *JWTManager) ValidateToken(tokenString string, expectedType string) (*TokenClaims, error) {
	token, err := jwt.ParseWithClaims(
		tokenString,
		&TokenClaims{},
		m.keyFunc,
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

	if claims.TokenType != expectedType {
		return nil, ErrWrongTokenType
	}

	return claims, nil
}

// DecodeExpired разбирает токен с проверкой подписи, но без проверки
// срока действия. Используется, чтобы узнать остаток TTL уже
// предъявленного access токена при выходе.
func (m *JWTManager) DecodeExpired(tokenString string) (*TokenClaims, error) {
	token, err := jwt.ParseWithClaims(
		tokenString,
		&TokenClaims{},
		m.keyFunc,
		jwt.WithoutClaimsValidation(),
	)

	if err != nil {
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*TokenClaims)
	if !ok {
		return nil, ErrInvalidToken
	}

	return claims, nil
}

func (m *JWTManager) keyFunc(token *jwt.Token) (interface{}, error) {
	if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
		return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
	}
	return []byte(m.secretKey), nil
}

func (m *JWTManager) GetAccessTokenDuration() time.Duration {
	return m.accessTokenDuration
}

func (m *JWTManager) GetRefreshTokenDuration() time.Duration {
	return m.refreshTokenDuration
}
