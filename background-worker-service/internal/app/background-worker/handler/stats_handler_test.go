package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"demeter/background-worker-service/internal/app/background-worker/entity"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

// MockStatsService мок для StatsServiceInterface
type MockStatsService struct {
	mock.Mock
}

func (m *MockStatsService) ProcessEvent(ctx context.Context, event *entity.ClassificationEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

func (m *MockStatsService) DailyCount(ctx context.Context, grainType string, date time.Time) (int64, error) {
	args := m.Called(ctx, grainType, date)
	return args.Get(0).(int64), args.Error(1)
}

// ===================== DailyStats Tests =====================

func TestDailyStats_Success(t *testing.T) {
	// Arrange
	statsSvc := new(MockStatsService)
	handler := NewStatsHandler(statsSvc)

	date := time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC)
	statsSvc.On("DailyCount", mock.Anything, "Soja", date).Return(int64(17), nil)

	req := httptest.NewRequest(http.MethodGet, "/stats/daily?grain_type=Soja&date=2025-06-15", nil)
	rec := httptest.NewRecorder()

	// Act
	handler.DailyStats(rec, req)

	// Assert
	assert.Equal(t, http.StatusOK, rec.Code)

	var response entity.GrainDailyCount
	err := json.Unmarshal(rec.Body.Bytes(), &response)
	assert.NoError(t, err)
	assert.Equal(t, "Soja", response.GrainType)
	assert.Equal(t, "2025-06-15", response.Date)
	assert.Equal(t, int64(17), response.Count)
}

func TestDailyStats_MissingGrainType(t *testing.T) {
	// Arrange
	statsSvc := new(MockStatsService)
	handler := NewStatsHandler(statsSvc)

	req := httptest.NewRequest(http.MethodGet, "/stats/daily", nil)
	rec := httptest.NewRecorder()

	// Act
	handler.DailyStats(rec, req)

	// Assert
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	statsSvc.AssertNotCalled(t, "DailyCount")
}

func TestDailyStats_InvalidDate(t *testing.T) {
	// Arrange
	statsSvc := new(MockStatsService)
	handler := NewStatsHandler(statsSvc)

	req := httptest.NewRequest(http.MethodGet, "/stats/daily?grain_type=Soja&date=15.06.2025", nil)
	rec := httptest.NewRecorder()

	// Act
	handler.DailyStats(rec, req)

	// Assert
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	statsSvc.AssertNotCalled(t, "DailyCount")
}

func TestDailyStats_DefaultsToToday(t *testing.T) {
	// Без параметра date счётчик читается за текущие сутки
	// Arrange
	statsSvc := new(MockStatsService)
	handler := NewStatsHandler(statsSvc)

	statsSvc.On("DailyCount", mock.Anything, "Trigo", mock.MatchedBy(func(date time.Time) bool {
		return time.Since(date) < time.Minute
	})).Return(int64(0), nil)

	req := httptest.NewRequest(http.MethodGet, "/stats/daily?grain_type=Trigo", nil)
	rec := httptest.NewRecorder()

	// Act
	handler.DailyStats(rec, req)

	// Assert
	assert.Equal(t, http.StatusOK, rec.Code)
	statsSvc.AssertExpectations(t)
}

func TestDailyStats_ServiceError(t *testing.T) {
	// Arrange
	statsSvc := new(MockStatsService)
	handler := NewStatsHandler(statsSvc)

	statsSvc.On("DailyCount", mock.Anything, "Soja", mock.AnythingOfType("time.Time")).
		Return(int64(0), errors.New("redis unavailable"))

	req := httptest.NewRequest(http.MethodGet, "/stats/daily?grain_type=Soja", nil)
	rec := httptest.NewRecorder()

	// Act
	handler.DailyStats(rec, req)

	// Assert
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}
