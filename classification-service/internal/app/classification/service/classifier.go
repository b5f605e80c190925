package service

import (
	"context"
	"fmt"
	"math"
	"math/rand"

	"demeter/classification-service/internal/app/classification/entity"
	"demeter/classification-service/internal/app/classification/infrastructure"
	"demeter/pkg/logger"
	"demeter/pkg/metrics"
)

var mockGrainTypes = []string{
	"Soja",
	"Milho",
	"Feijão Preto",
	"Feijão Carioca",
	"Trigo",
	"Arroz",
	"Café",
	"Sorgo",
}

var mockAverageSizes = []string{"pequeno", "médio", "grande"}

var mockQualities = []string{"excelente", "boa", "regular"}

// MockClassifier возвращает правдоподобный случайный результат. Держит
// сервис работоспособным в окружениях без ML-сервиса и служит запасным
// вариантом при его недоступности.
type MockClassifier struct{}

func NewMockClassifier() *MockClassifier {
	return &MockClassifier{}
}

// Classify генерирует случайный тип зерна с уверенностью 0.70-0.95
func (c *MockClassifier) Classify(ctx context.Context, imagePath string) (*entity.ClassificationResult, error) {
	confidence := roundTo(0.70+rand.Float64()*0.25, 4)

	result := &entity.ClassificationResult{
		GrainType:       mockGrainTypes[rand.Intn(len(mockGrainTypes))],
		ConfidenceScore: confidence,
		ExtraData: entity.JSONMap{
			"mock": true,
			"analysis": map[string]interface{}{
				"grain_count":  50 + rand.Intn(251),
				"average_size": mockAverageSizes[rand.Intn(len(mockAverageSizes))],
				"quality":      mockQualities[rand.Intn(len(mockQualities))],
				"moisture":     fmt.Sprintf("%.1f%%", 10.0+rand.Float64()*5.0),
				"defects":      fmt.Sprintf("%.1f%%", 0.5+rand.Float64()*7.5),
			},
		},
	}

	metrics.ClassifierRequests.WithLabelValues("mock", "success").Inc()
	return result, nil
}

// FallbackClassifier пробует основной классификатор и при любой его
// ошибке подменяет результат запасным. Подменённый результат помечается
// в extra_data, чтобы его можно было отличить от настоящего.
type FallbackClassifier struct {
	primary  infrastructure.Classifier
	fallback infrastructure.Classifier
}

func NewFallbackClassifier(primary, fallback infrastructure.Classifier) *FallbackClassifier {
	return &FallbackClassifier{primary: primary, fallback: fallback}
}

func (c *FallbackClassifier) Classify(ctx context.Context, imagePath string) (*entity.ClassificationResult, error) {
	result, err := c.primary.Classify(ctx, imagePath)
	if err == nil {
		return result, nil
	}

	logger.Warn().Err(err).Msg("primary classifier failed, falling back")
	metrics.ClassifierFallbacks.Inc()

	result, fallbackErr := c.fallback.Classify(ctx, imagePath)
	if fallbackErr != nil {
		// Запасной не справился - наружу уходит исходная ошибка
		return nil, err
	}

	if result.ExtraData == nil {
		result.ExtraData = entity.JSONMap{}
	}
	result.ExtraData["fallback"] = true
	result.ExtraData["fallback_reason"] = err.Error()

	return result, nil
}

func roundTo(value float64, places int) float64 {
	factor := math.Pow(10, float64(places))
	return math.Round(value*factor) / factor
}
