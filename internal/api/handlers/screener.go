package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/wonny/screener/internal/pipeline"
	"github.com/wonny/screener/internal/storage"
	"github.com/wonny/screener/internal/strategy"
	"github.com/wonny/screener/pkg/logger"
	"github.com/wonny/screener/pkg/redis"
)

// SignalLister reads stored signals
type SignalLister interface {
	ListSince(ctx context.Context, since time.Time, strategyKey string) ([]storage.Record, error)
}

// ScreenerHandler serves read-only screener endpoints
// ⭐ SSOT: 스크리너 API 핸들러는 이 구조체에서만
type ScreenerHandler struct {
	catalog *strategy.Catalog
	signals SignalLister // nil when DATABASE_URL is unset
	redis   *redis.Client
	logger  *logger.Logger
}

// NewScreenerHandler creates a new screener handler
func NewScreenerHandler(catalog *strategy.Catalog, signals SignalLister, rc *redis.Client, log *logger.Logger) *ScreenerHandler {
	return &ScreenerHandler{
		catalog: catalog,
		signals: signals,
		redis:   rc,
		logger:  log,
	}
}

// strategyView is the API shape of a definition
type strategyView struct {
	Key        string   `json:"key"`
	Name       string   `json:"name"`
	Predicates []string `json:"predicates"`
	Columns    []string `json:"columns"`
}

// GetStrategies returns the active catalog
// GET /api/strategies
func (h *ScreenerHandler) GetStrategies(w http.ResponseWriter, r *http.Request) {
	hash, err := h.catalog.Hash()
	if err != nil {
		h.logger.WithError(err).Error("Failed to hash catalog")
		respondError(w, http.StatusInternalServerError, "Failed to hash catalog")
		return
	}

	views := make([]strategyView, 0, h.catalog.Len())
	for _, def := range h.catalog.Definitions() {
		preds := make([]string, len(def.Predicates))
		for i, p := range def.Predicates {
			preds[i] = p.String()
		}
		views = append(views, strategyView{
			Key:        def.Key,
			Name:       def.Name,
			Predicates: preds,
			Columns:    def.Columns,
		})
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"hash":       hash,
		"strategies": views,
	})
}

// signalView is the API shape of a stored signal
type signalView struct {
	Symbol       string                 `json:"symbol"`
	StrategyKey  string                 `json:"strategy_key"`
	StrategyName string                 `json:"strategy_name"`
	Price        float64                `json:"price"`
	Indicators   map[string]interface{} `json:"indicators"`
	ScannedAt    time.Time              `json:"scanned_at"`
	Processed    bool                   `json:"processed"`
}

// maxSignalHours bounds the look-back window of GetSignals (30 days)
const maxSignalHours = 24 * 30

// GetSignals returns signals from the last N hours (default 24)
// GET /api/signals?hours=24&strategy=rsi_mean_reversion
func (h *ScreenerHandler) GetSignals(w http.ResponseWriter, r *http.Request) {
	if h.signals == nil {
		respondError(w, http.StatusServiceUnavailable, "Signal store not configured")
		return
	}

	hours := 24
	if v := r.URL.Query().Get("hours"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 || n > maxSignalHours {
			respondError(w, http.StatusBadRequest, fmt.Sprintf("hours must be between 1 and %d", maxSignalHours))
			return
		}
		hours = n
	}
	key := r.URL.Query().Get("strategy")
	if key != "" {
		if _, ok := h.catalog.Lookup(key); !ok {
			respondError(w, http.StatusNotFound, "Unknown strategy")
			return
		}
	}

	since := time.Now().UTC().Add(-time.Duration(hours) * time.Hour)
	recs, err := h.signals.ListSince(r.Context(), since, key)
	if err != nil {
		h.logger.WithError(err).Error("Failed to list signals")
		respondError(w, http.StatusInternalServerError, "Failed to retrieve signals")
		return
	}

	views := make([]signalView, len(recs))
	for i, rec := range recs {
		views[i] = signalView{
			Symbol:       rec.Signal.Symbol,
			StrategyKey:  rec.Signal.StrategyKey,
			StrategyName: rec.Signal.StrategyName,
			Price:        rec.Signal.Price,
			Indicators:   rec.Signal.Indicators,
			ScannedAt:    rec.ScannedAt,
			Processed:    rec.Processed,
		}
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"since":   since,
		"count":   len(views),
		"signals": views,
	})
}

// GetStatus returns the last cached run summary
// GET /api/status
func (h *ScreenerHandler) GetStatus(w http.ResponseWriter, r *http.Request) {
	if !h.redis.Enabled() {
		respondError(w, http.StatusServiceUnavailable, "Redis disabled, no run history")
		return
	}

	report, found, err := pipeline.LastRun(r.Context(), h.redis)
	if err != nil {
		h.logger.WithError(err).Error("Failed to read last run")
		respondError(w, http.StatusInternalServerError, "Failed to read last run")
		return
	}
	if !found {
		respondError(w, http.StatusNotFound, "No run recorded in the last 24h")
		return
	}

	respondJSON(w, http.StatusOK, report)
}

// Helper functions

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{
		"error": message,
	})
}
