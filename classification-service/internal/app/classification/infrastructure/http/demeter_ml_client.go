package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"os"
	"strings"
	"time"

	"demeter/classification-service/internal/app/classification/entity"
	"demeter/classification-service/internal/app/classification/infrastructure"
	"demeter/pkg/metrics"
)

// mlResponse - ответ ML-сервиса анализа зерна
type mlResponse struct {
	JobID  string   `json:"job_id"`
	Report mlReport `json:"report"`
}

type mlReport struct {
	Error       string    `json:"error,omitempty"`
	TotalGrains int       `json:"total_grains"`
	Defects     mlDefects `json:"defects"`
	LLMSummary  string    `json:"llm_summary"`
}

type mlDefects struct {
	Broken    int `json:"broken"`
	Fermented int `json:"fermented"`
}

// MLClient - клиент ML-сервиса классификации зерна. Изображение
// отправляется сырыми байтами, ответ содержит отчёт о дефектах,
// из которого считается итоговая уверенность.
type MLClient struct {
	baseURL    string
	httpClient *http.Client
}

func NewMLClient(baseURL string, timeout time.Duration) *MLClient {
	return &MLClient{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// Classify отправляет изображение в ML-сервис и строит результат
// классификации по его отчёту
func (c *MLClient) Classify(ctx context.Context, imagePath string) (*entity.ClassificationResult, error) {
	data, err := os.ReadFile(imagePath)
	if err != nil {
		metrics.ClassifierRequests.WithLabelValues("ml", "failed").Inc()
		return nil, fmt.Errorf("%w: failed to read image: %v", infrastructure.ErrClassifierUnavailable, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, bytes.NewReader(data))
	if err != nil {
		metrics.ClassifierRequests.WithLabelValues("ml", "failed").Inc()
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "image/jpeg")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		metrics.ClassifierRequests.WithLabelValues("ml", "failed").Inc()
		return nil, fmt.Errorf("%w: %v", infrastructure.ErrClassifierUnavailable, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusBadRequest:
		metrics.ClassifierRequests.WithLabelValues("ml", "failed").Inc()
		return nil, infrastructure.ErrInvalidImage
	case resp.StatusCode == http.StatusTooManyRequests:
		metrics.ClassifierRequests.WithLabelValues("ml", "failed").Inc()
		return nil, infrastructure.ErrRateLimited
	case resp.StatusCode != http.StatusOK:
		metrics.ClassifierRequests.WithLabelValues("ml", "failed").Inc()
		return nil, fmt.Errorf("%w: unexpected status code %d", infrastructure.ErrClassifierUnavailable, resp.StatusCode)
	}

	var mlResp mlResponse
	if err := json.NewDecoder(resp.Body).Decode(&mlResp); err != nil {
		metrics.ClassifierRequests.WithLabelValues("ml", "failed").Inc()
		return nil, fmt.Errorf("%w: failed to decode response: %v", infrastructure.ErrClassifierUnavailable, err)
	}

	if mlResp.Report.Error != "" {
		metrics.ClassifierRequests.WithLabelValues("ml", "failed").Inc()
		return nil, fmt.Errorf("%w: %s", infrastructure.ErrInvalidImage, mlResp.Report.Error)
	}

	metrics.ClassifierRequests.WithLabelValues("ml", "success").Inc()
	return buildResult(&mlResp), nil
}

// buildResult считает уверенность из доли дефектных зёрен и собирает
// extra_data отчёта
func buildResult(mlResp *mlResponse) *entity.ClassificationResult {
	report := mlResp.Report

	totalDefects := report.Defects.Broken + report.Defects.Fermented

	var defectPercentage float64
	if report.TotalGrains > 0 {
		defectPercentage = float64(totalDefects) / float64(report.TotalGrains) * 100
	}

	confidence := 1 - defectPercentage/100
	if confidence < 0 {
		confidence = 0
	}

	return &entity.ClassificationResult{
		GrainType:       "Soja",
		ConfidenceScore: round(confidence, 4),
		ExtraData: entity.JSONMap{
			"mock":         false,
			"job_id":       mlResp.JobID,
			"total_grains": report.TotalGrains,
			"defects": map[string]interface{}{
				"broken":     report.Defects.Broken,
				"fermented":  report.Defects.Fermented,
				"total":      totalDefects,
				"percentage": round(defectPercentage, 2),
			},
			"llm_summary":               report.LLMSummary,
			"processed_image_available": true,
			"analysis": map[string]interface{}{
				"grain_count": report.TotalGrains,
				"quality":     qualityFromSummary(report.LLMSummary),
			},
		},
	}
}

// qualityFromSummary извлекает оценку качества из текстового резюме ML
func qualityFromSummary(summary string) string {
	lower := strings.ToLower(summary)

	switch {
	case strings.Contains(lower, "excelente"):
		return "excelente"
	case strings.Contains(lower, "boa"), strings.Contains(lower, "bom"):
		return "boa"
	case strings.Contains(lower, "regular"):
		return "regular"
	case strings.Contains(lower, "ruim"), strings.Contains(lower, "baixa"):
		return "ruim"
	default:
		return "não determinada"
	}
}

func round(value float64, places int) float64 {
	factor := math.Pow(10, float64(places))
	return math.Round(value*factor) / factor
}
