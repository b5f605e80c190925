//go:build e2e

package e2e

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"testing"
	"time"

	"demeter/auth-service/internal/app/auth/entity"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	// BaseURL - адрес запущенного auth-service
	// Для E2E тестов сервис должен быть запущен через docker-compose
	BaseURL = "http://localhost:8080"
)

// TestFullAuthenticationFlow тестирует полный цикл аутентификации:
// 1. Регистрация нового пользователя
// 2. Логин
// 3. Получение информации о себе
// 4. Обновление access токена
// 5. Просмотр активных сессий
// 6. Logout
// 7. Проверка что access токен больше не работает
func TestFullAuthenticationFlow(t *testing.T) {
	client := &http.Client{Timeout: 10 * time.Second}

	// Уникальный email для теста
	email := fmt.Sprintf("e2e-test-%d@example.com", time.Now().UnixNano())
	password := "E2eSecret1!"
	name := "E2E Test User"

	// ==================== Step 1: Register ====================
	t.Log("Step 1: Registering new user")

	registerReq := entity.RegisterRequest{
		Email:           email,
		Password:        password,
		PasswordConfirm: password,
		Name:            name,
	}
	registerBody, _ := json.Marshal(registerReq)

	resp, err := client.Post(
		BaseURL+"/api/v1/auth/register",
		"application/json",
		bytes.NewBuffer(registerBody),
	)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusCreated, resp.StatusCode, "Registration should succeed")

	var registeredUser entity.UserResponse
	err = json.NewDecoder(resp.Body).Decode(&registeredUser)
	require.NoError(t, err)

	assert.Equal(t, email, registeredUser.Email)
	assert.Equal(t, name, registeredUser.Name)
	assert.Contains(t, registeredUser.Roles, entity.RoleClassificador)

	t.Logf("User registered with ID: %s", registeredUser.ID)

	// ==================== Step 2: Login ====================
	t.Log("Step 2: Logging in")

	loginReq := entity.LoginRequest{
		Email:    email,
		Password: password,
	}
	loginBody, _ := json.Marshal(loginReq)

	resp, err = client.Post(
		BaseURL+"/api/v1/auth/login",
		"application/json",
		bytes.NewBuffer(loginBody),
	)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode, "Login should succeed")

	var loginResponse entity.AuthResponse
	err = json.NewDecoder(resp.Body).Decode(&loginResponse)
	require.NoError(t, err)

	accessToken := loginResponse.Tokens.AccessToken
	refreshToken := loginResponse.Tokens.RefreshToken
	require.NotEmpty(t, accessToken)
	require.NotEmpty(t, refreshToken)

	t.Log("Login successful, tokens received")

	// ==================== Step 3: Get Me ====================
	t.Log("Step 3: Getting user info")

	req, _ := http.NewRequest(http.MethodGet, BaseURL+"/api/v1/users/me", nil)
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err = client.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode, "Get me should succeed")

	var userResponse entity.UserResponse
	err = json.NewDecoder(resp.Body).Decode(&userResponse)
	require.NoError(t, err)

	assert.Equal(t, email, userResponse.Email)
	assert.Equal(t, name, userResponse.Name)

	t.Log("User info retrieved successfully")

	// ==================== Step 4: Refresh Token ====================
	t.Log("Step 4: Refreshing access token")

	refreshReq := entity.RefreshRequest{
		RefreshToken: refreshToken,
	}
	refreshBody, _ := json.Marshal(refreshReq)

	resp, err = client.Post(
		BaseURL+"/api/v1/auth/refresh",
		"application/json",
		bytes.NewBuffer(refreshBody),
	)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode, "Token refresh should succeed")

	var tokenPair entity.TokenPair
	err = json.NewDecoder(resp.Body).Decode(&tokenPair)
	require.NoError(t, err)

	assert.NotEmpty(t, tokenPair.AccessToken)
	// Refresh токен не ротируется - возвращается тот же
	assert.Equal(t, refreshToken, tokenPair.RefreshToken)

	newAccessToken := tokenPair.AccessToken

	t.Log("Token refreshed successfully")

	// ==================== Step 5: List Sessions ====================
	t.Log("Step 5: Listing active sessions")

	req, _ = http.NewRequest(http.MethodGet, BaseURL+"/api/v1/auth/sessions", nil)
	req.Header.Set("Authorization", "Bearer "+newAccessToken)

	resp, err = client.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode, "List sessions should succeed")

	var sessions entity.SessionListResponse
	err = json.NewDecoder(resp.Body).Decode(&sessions)
	require.NoError(t, err)

	assert.GreaterOrEqual(t, sessions.Total, 1)

	t.Logf("Found %d active session(s)", sessions.Total)

	// ==================== Step 6: Logout ====================
	t.Log("Step 6: Logging out")

	logoutReq := entity.LogoutRequest{
		RefreshToken: refreshToken,
	}
	logoutBody, _ := json.Marshal(logoutReq)

	req, _ = http.NewRequest(http.MethodPost, BaseURL+"/api/v1/auth/logout", bytes.NewBuffer(logoutBody))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+newAccessToken)

	resp, err = client.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode, "Logout should succeed")

	t.Log("Logout successful")

	// ==================== Step 7: Verify Token Invalidated ====================
	t.Log("Step 7: Verifying token is invalidated")

	req, _ = http.NewRequest(http.MethodGet, BaseURL+"/api/v1/users/me", nil)
	req.Header.Set("Authorization", "Bearer "+newAccessToken)

	resp, err = client.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode, "Token should be invalidated after logout")

	// Отозванный refresh токен тоже не работает
	resp, err = client.Post(
		BaseURL+"/api/v1/auth/refresh",
		"application/json",
		bytes.NewBuffer(refreshBody),
	)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode, "Revoked refresh token should be rejected")

	t.Log("Full authentication flow completed successfully")
}

// TestRegistrationValidation тестирует валидацию при регистрации
func TestRegistrationValidation(t *testing.T) {
	client := &http.Client{Timeout: 10 * time.Second}

	testCases := []struct {
		name           string
		request        entity.RegisterRequest
		expectedStatus int
	}{
		{
			name: "Invalid email",
			request: entity.RegisterRequest{
				Email:           "not-an-email",
				Password:        "E2eSecret1!",
				PasswordConfirm: "E2eSecret1!",
				Name:            "Test User",
			},
			expectedStatus: http.StatusUnprocessableEntity,
		},
		{
			name: "Weak password",
			request: entity.RegisterRequest{
				Email:           fmt.Sprintf("weak-%d@example.com", time.Now().UnixNano()),
				Password:        "weakpassword",
				PasswordConfirm: "weakpassword",
				Name:            "Test User",
			},
			expectedStatus: http.StatusUnprocessableEntity,
		},
		{
			name: "Password confirmation mismatch",
			request: entity.RegisterRequest{
				Email:           fmt.Sprintf("mismatch-%d@example.com", time.Now().UnixNano()),
				Password:        "E2eSecret1!",
				PasswordConfirm: "Different1!",
				Name:            "Test User",
			},
			expectedStatus: http.StatusUnprocessableEntity,
		},
		{
			name: "Name too short",
			request: entity.RegisterRequest{
				Email:           fmt.Sprintf("short-%d@example.com", time.Now().UnixNano()),
				Password:        "E2eSecret1!",
				PasswordConfirm: "E2eSecret1!",
				Name:            "A",
			},
			expectedStatus: http.StatusUnprocessableEntity,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			body, _ := json.Marshal(tc.request)

			resp, err := client.Post(
				BaseURL+"/api/v1/auth/register",
				"application/json",
				bytes.NewBuffer(body),
			)
			require.NoError(t, err)
			defer resp.Body.Close()

			assert.Equal(t, tc.expectedStatus, resp.StatusCode)
		})
	}
}

// TestUnauthorizedAccess проверяет что защищённые endpoints требуют токен
func TestUnauthorizedAccess(t *testing.T) {
	client := &http.Client{Timeout: 10 * time.Second}

	endpoints := []struct {
		method string
		path   string
	}{
		{http.MethodGet, "/api/v1/users/me"},
		{http.MethodGet, "/api/v1/auth/sessions"},
		{http.MethodPost, "/api/v1/auth/logout"},
		{http.MethodGet, "/api/v1/admin/users"},
	}

	for _, ep := range endpoints {
		t.Run(fmt.Sprintf("%s %s", ep.method, ep.path), func(t *testing.T) {
			req, _ := http.NewRequest(ep.method, BaseURL+ep.path, nil)

			resp, err := client.Do(req)
			require.NoError(t, err)
			defer resp.Body.Close()

			assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
			assert.Equal(t, "Bearer", resp.Header.Get("WWW-Authenticate"))
		})
	}
}

// TestInvalidToken проверяет обработку недействительных токенов
func TestInvalidToken(t *testing.T) {
	client := &http.Client{Timeout: 10 * time.Second}

	testCases := []struct {
		name  string
		token string
	}{
		{"Malformed token", "not-a-valid-jwt"},
		{"Empty token", ""},
		{"Random string", "abcdef123456"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			req, _ := http.NewRequest(http.MethodGet, BaseURL+"/api/v1/users/me", nil)
			req.Header.Set("Authorization", "Bearer "+tc.token)

			resp, err := client.Do(req)
			require.NoError(t, err)
			defer resp.Body.Close()

			assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
		})
	}
}

// TestHealthCheck проверяет health endpoint
func TestHealthCheck(t *testing.T) {
	client := &http.Client{Timeout: 10 * time.Second}

	resp, err := client.Get(BaseURL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var health map[string]string
	err = json.NewDecoder(resp.Body).Decode(&health)
	require.NoError(t, err)

	assert.Equal(t, "ok", health["status"])
	assert.Equal(t, "auth-service", health["service"])
}
