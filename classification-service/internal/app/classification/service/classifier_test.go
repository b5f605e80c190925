package service

import (
	"context"
	"errors"
	"testing"

	"demeter/classification-service/internal/app/classification/entity"
	"demeter/classification-service/internal/app/classification/infrastructure"
	"demeter/classification-service/internal/app/classification/repository/mocks"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// ==================== MockClassifier Tests ====================

func TestMockClassifier_Classify_WithinRanges(t *testing.T) {
	ctx := context.Background()
	classifier := NewMockClassifier()

	// Результат случайный, поэтому проверяем диапазоны на серии вызовов
	for i := 0; i < 50; i++ {
		result, err := classifier.Classify(ctx, "/data/uploads/sample.jpg")

		require.NoError(t, err)
		require.NotNil(t, result)

		assert.Contains(t, mockGrainTypes, result.GrainType)
		assert.GreaterOrEqual(t, result.ConfidenceScore, 0.70)
		assert.LessOrEqual(t, result.ConfidenceScore, 0.95)
		assert.Equal(t, true, result.ExtraData["mock"])

		analysis, ok := result.ExtraData["analysis"].(map[string]interface{})
		require.True(t, ok)

		grainCount, ok := analysis["grain_count"].(int)
		require.True(t, ok)
		assert.GreaterOrEqual(t, grainCount, 50)
		assert.LessOrEqual(t, grainCount, 300)

		assert.Contains(t, mockAverageSizes, analysis["average_size"])
		assert.Contains(t, mockQualities, analysis["quality"])
		assert.Regexp(t, `^\d+\.\d%$`, analysis["moisture"])
		assert.Regexp(t, `^\d+\.\d%$`, analysis["defects"])
	}
}

// ==================== FallbackClassifier Tests ====================

func TestFallbackClassifier_PrimarySuccess(t *testing.T) {
	// Arrange
	ctx := context.Background()
	primary := new(mocks.MockClassifier)
	fallback := new(mocks.MockClassifier)

	expected := &entity.ClassificationResult{
		GrainType:       "Soja",
		ConfidenceScore: 0.9134,
		ExtraData:       entity.JSONMap{"mock": false},
	}
	primary.On("Classify", ctx, "/data/img.jpg").Return(expected, nil)

	classifier := NewFallbackClassifier(primary, fallback)

	// Act
	result, err := classifier.Classify(ctx, "/data/img.jpg")

	// Assert
	require.NoError(t, err)
	assert.Equal(t, expected, result)
	assert.NotContains(t, result.ExtraData, "fallback")
	fallback.AssertNotCalled(t, "Classify", mock.Anything, mock.Anything)
	primary.AssertExpectations(t)
}

func TestFallbackClassifier_PrimaryFails_UsesFallback(t *testing.T) {
	// Arrange
	ctx := context.Background()
	primary := new(mocks.MockClassifier)
	fallback := new(mocks.MockClassifier)

	primary.On("Classify", ctx, "/data/img.jpg").Return(nil, infrastructure.ErrClassifierUnavailable)
	fallback.On("Classify", ctx, "/data/img.jpg").Return(&entity.ClassificationResult{
		GrainType:       "Milho",
		ConfidenceScore: 0.82,
		ExtraData:       entity.JSONMap{"mock": true},
	}, nil)

	classifier := NewFallbackClassifier(primary, fallback)

	// Act
	result, err := classifier.Classify(ctx, "/data/img.jpg")

	// Assert
	require.NoError(t, err)
	assert.Equal(t, "Milho", result.GrainType)
	assert.Equal(t, true, result.ExtraData["fallback"])
	assert.Equal(t, infrastructure.ErrClassifierUnavailable.Error(), result.ExtraData["fallback_reason"])
	primary.AssertExpectations(t)
	fallback.AssertExpectations(t)
}

func TestFallbackClassifier_AnnotatesNilExtraData(t *testing.T) {
	// Arrange
	ctx := context.Background()
	primary := new(mocks.MockClassifier)
	fallback := new(mocks.MockClassifier)

	primary.On("Classify", ctx, "/data/img.jpg").Return(nil, infrastructure.ErrInvalidImage)
	fallback.On("Classify", ctx, "/data/img.jpg").Return(&entity.ClassificationResult{
		GrainType:       "Trigo",
		ConfidenceScore: 0.77,
	}, nil)

	classifier := NewFallbackClassifier(primary, fallback)

	// Act
	result, err := classifier.Classify(ctx, "/data/img.jpg")

	// Assert
	require.NoError(t, err)
	require.NotNil(t, result.ExtraData)
	assert.Equal(t, true, result.ExtraData["fallback"])
	assert.Equal(t, infrastructure.ErrInvalidImage.Error(), result.ExtraData["fallback_reason"])
}

func TestFallbackClassifier_BothFail_ReturnsPrimaryError(t *testing.T) {
	// Arrange
	ctx := context.Background()
	primary := new(mocks.MockClassifier)
	fallback := new(mocks.MockClassifier)

	fallbackErr := errors.New("mock classifier exploded")
	primary.On("Classify", ctx, "/data/img.jpg").Return(nil, infrastructure.ErrRateLimited)
	fallback.On("Classify", ctx, "/data/img.jpg").Return(nil, fallbackErr)

	classifier := NewFallbackClassifier(primary, fallback)

	// Act
	result, err := classifier.Classify(ctx, "/data/img.jpg")

	// Assert
	assert.Nil(t, result)
	assert.ErrorIs(t, err, infrastructure.ErrRateLimited)
	assert.NotErrorIs(t, err, fallbackErr)
}
