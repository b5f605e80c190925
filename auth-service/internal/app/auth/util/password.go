package util

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"unicode"

	"golang.org/x/crypto/argon2"
)

// Параметры argon2id. При их изменении старые хэши остаются проверяемыми
// (параметры читаются из самого хэша), а NeedsRehash сигнализирует,
// что пароль стоит перехэшировать при следующем входе.
const (
	argonMemory      uint32 = 64 * 1024 // KiB
	argonIterations  uint32 = 2
	argonParallelism uint8  = 4
	argonSaltLength  uint32 = 16
	argonKeyLength   uint32 = 32
)

const specialCharacters = `!@#$%^&*(),.?":{}|<>`

var (
	ErrMalformedHash = errors.New("malformed password hash")
)

// PasswordPolicy описывает требования к сложности пароля
type PasswordPolicy struct {
	MinLength      int
	RequireUpper   bool
	RequireLower   bool
	RequireDigit   bool
	RequireSpecial bool
}

// DefaultPasswordPolicy возвращает политику по умолчанию
func DefaultPasswordPolicy() PasswordPolicy {
	return PasswordPolicy{
		MinLength:      8,
		RequireUpper:   true,
		RequireLower:   true,
		RequireDigit:   true,
		RequireSpecial: true,
	}
}

// HashPassword хэширует пароль argon2id и кодирует результат в PHC-формате:
// $argon2id$v=19$m=65536,t=2,p=4$<salt>$<hash>
func HashPassword(password string) (string, error) {
	salt := make([]byte, argonSaltLength)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("failed to generate salt: %w", err)
	}

	hash := argon2.IDKey([]byte(password), salt, argonIterations, argonMemory, argonParallelism, argonKeyLength)

	encoded := fmt.Sprintf(
		"$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version,
		argonMemory,
		argonIterations,
		argonParallelism,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(hash),
	)

	return encoded, nil
}

// CheckPassword проверяет, соответствует ли пароль хэшу.
// Сравнение выполняется за константное время; некорректный хэш
// трактуется как несовпадение.
func CheckPassword(password, encoded string) bool {
	memory, iterations, parallelism, salt, hash, err := decodeHash(encoded)
	if err != nil {
		return false
	}

	computed := argon2.IDKey([]byte(password), salt, iterations, memory, parallelism, uint32(len(hash)))

	return subtle.ConstantTimeCompare(hash, computed) == 1
}

// NeedsRehash сообщает, был ли хэш создан с параметрами, отличными от текущих
func NeedsRehash(encoded string) bool {
	memory, iterations, parallelism, _, hash, err := decodeHash(encoded)
	if err != nil {
		return true
	}

	return memory != argonMemory ||
		iterations != argonIterations ||
		parallelism != argonParallelism ||
		uint32(len(hash)) != argonKeyLength
}

// ValidatePasswordStrength проверяет пароль на соответствие политике.
// Правила проверяются по порядку: длина, заглавные, строчные, цифры,
// специальные символы; возвращается причина первого нарушения.
func ValidatePasswordStrength(password string, policy PasswordPolicy) (bool, string) {
	if len(password) < policy.MinLength {
		return false, fmt.Sprintf("password must be at least %d characters long", policy.MinLength)
	}

	var hasUpper, hasLower, hasDigit, hasSpecial bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsLower(r):
			hasLower = true
		case unicode.IsDigit(r):
			hasDigit = true
		}
		if strings.ContainsRune(specialCharacters, r) {
			hasSpecial = true
		}
	}

	if policy.RequireUpper && !hasUpper {
		return false, "password must contain at least one uppercase letter"
	}
	if policy.RequireLower && !hasLower {
		return false, "password must contain at least one lowercase letter"
	}
	if policy.RequireDigit && !hasDigit {
		return false, "password must contain at least one digit"
	}
	if policy.RequireSpecial && !hasSpecial {
		return false, "password must contain at least one special character"
	}

	return true, ""
}

// decodeHash разбирает PHC-строку и возвращает параметры, соль и хэш
func decodeHash(encoded string) (memory, iterations uint32, parallelism uint8, salt, hash []byte, err error) {
	parts := strings.Split(encoded, "$")
	if len(parts) != 6 || parts[1] != "argon2id" {
		return 0, 0, 0, nil, nil, ErrMalformedHash
	}

	var version int
	if _, err = fmt.Sscanf(parts[2], "v=%d", &version); err != nil {
		return 0, 0, 0, nil, nil, ErrMalformedHash
	}
	if version != argon2.Version {
		return 0, 0, 0, nil, nil, ErrMalformedHash
	}

	var p uint32
	if _, err = fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &memory, &iterations, &p); err != nil {
		return 0, 0, 0, nil, nil, ErrMalformedHash
	}
	parallelism = uint8(p)

	salt, err = base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return 0, 0, 0, nil, nil, ErrMalformedHash
	}

	hash, err = base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil {
		return 0, 0, 0, nil, nil, ErrMalformedHash
	}

	return memory, iterations, parallelism, salt, hash, nil
}
