package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"demeter/background-worker-service/internal/app/background-worker/entity"
	"demeter/background-worker-service/internal/app/background-worker/service"
)

// StatsHandler отдаёт суточные счётчики классификаций
type StatsHandler struct {
	statsSvc service.StatsServiceInterface
}

func NewStatsHandler(statsSvc service.StatsServiceInterface) *StatsHandler {
	return &StatsHandler{
		statsSvc: statsSvc,
	}
}

// DailyStats возвращает суточный счётчик классификаций типа зерна.
// GET /stats/daily?grain_type=Soja&date=2025-06-15
// Дата по умолчанию - текущие сутки.
func (h *StatsHandler) DailyStats(w http.ResponseWriter, r *http.Request) {
	grainType := r.URL.Query().Get("grain_type")
	if grainType == "" {
		http.Error(w, "grain_type query parameter is required", http.StatusBadRequest)
		return
	}

	date := time.Now()
	if raw := r.URL.Query().Get("date"); raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			http.Error(w, "date must be in YYYY-MM-DD format", http.StatusBadRequest)
			return
		}
		date = parsed
	}

	count, err := h.statsSvc.DailyCount(r.Context(), grainType, date)
	if err != nil {
		http.Error(w, "failed to read daily counter", http.StatusInternalServerError)
		return
	}

	response := entity.GrainDailyCount{
		GrainType: grainType,
		Date:      date.Format("2006-01-02"),
		Count:     count,
		UpdatedAt: time.Now(),
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(response)
}

func (h *StatsHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/stats/daily", h.DailyStats)
}
