package handlers

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"github.com/CAIO-SANTANA3127/Oportunidade-investimentos/internal/analysis"
	"github.com/CAIO-SANTANA3127/Oportunidade-investimentos/internal/contracts"
	"github.com/CAIO-SANTANA3127/Oportunidade-investimentos/pkg/config"
	"github.com/CAIO-SANTANA3127/Oportunidade-investimentos/pkg/logger"
	"github.com/CAIO-SANTANA3127/Oportunidade-investimentos/pkg/redis"
)

// Computed payloads are cached briefly; bars only change on refresh runs.
const (
	metricsCacheTTL = 5 * time.Minute
	chartCacheTTL   = 5 * time.Minute
)

// SegmentHandler serves the segment API endpoints.
type SegmentHandler struct {
	reader *analysis.SegmentReader
	engine *analysis.Engine
	cache  *redis.Cache
	config *config.Config
	logger *logger.Logger
}

// NewSegmentHandler creates a new segment handler.
func NewSegmentHandler(
	reader *analysis.SegmentReader,
	engine *analysis.Engine,
	cache *redis.Cache,
	cfg *config.Config,
	log *logger.Logger,
) *SegmentHandler {
	return &SegmentHandler{
		reader: reader,
		engine: engine,
		cache:  cache,
		config: cfg,
		logger: log,
	}
}

// List returns all active segments with instrument counts
// GET /api/segments
func (h *SegmentHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	segments, err := h.reader.ListActiveSegments(ctx)
	if err != nil {
		h.logger.WithError(err).Error("Failed to list segments")
		respondError(w, http.StatusInternalServerError, "Failed to retrieve segments")
		return
	}
	if segments == nil {
		segments = []analysis.SegmentSummary{}
	}

	respondJSON(w, http.StatusOK, segments)
}

// SegmentDetail is the segment detail payload: the segment, its
// instruments, its current metrics and the opportunities derived from
// them. Metrics is null when no bars exist in the window.
type SegmentDetail struct {
	Segment       *contracts.Segment        `json:"segment"`
	Instruments   []analysis.InstrumentInfo `json:"instruments"`
	Metrics       *contracts.SegmentMetrics `json:"metrics"`
	Opportunities []contracts.Opportunity   `json:"opportunities"`
}

// Get returns one segment with metrics and fresh opportunities
// GET /api/segments/{id}
func (h *SegmentHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	segmentID, ok := pathID(w, r)
	if !ok {
		return
	}

	segment, err := h.reader.GetSegment(ctx, segmentID)
	if err != nil {
		h.logger.WithError(err).Error("Failed to get segment")
		respondError(w, http.StatusInternalServerError, "Failed to retrieve segment")
		return
	}
	if segment == nil {
		respondError(w, http.StatusNotFound, "Segment not found")
		return
	}

	instruments, err := h.reader.SegmentInstruments(ctx, segmentID)
	if err != nil {
		h.logger.WithError(err).Error("Failed to get segment instruments")
		respondError(w, http.StatusInternalServerError, "Failed to retrieve segment")
		return
	}
	if instruments == nil {
		instruments = []analysis.InstrumentInfo{}
	}

	metrics, err := h.segmentMetrics(ctx, segmentID, h.config.MetricsWindowDays)
	if err != nil {
		h.logger.WithError(err).Error("Failed to compute segment metrics")
		respondError(w, http.StatusInternalServerError, "Failed to compute metrics")
		return
	}

	respondJSON(w, http.StatusOK, SegmentDetail{
		Segment:       segment,
		Instruments:   instruments,
		Metrics:       metrics,
		Opportunities: analysis.GenerateOpportunities(segmentID, metrics, time.Now()),
	})
}

// DashboardEntry is one segment's slice of the overview.
type DashboardEntry struct {
	Segment string                    `json:"segment"`
	Metrics *contracts.SegmentMetrics `json:"metrics"`
}

// Dashboard returns current metrics for every active segment. Segments
// without bars in the window are omitted.
// GET /api/dashboard
func (h *SegmentHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	segments, err := h.reader.ListActiveSegments(ctx)
	if err != nil {
		h.logger.WithError(err).Error("Failed to list segments")
		respondError(w, http.StatusInternalServerError, "Failed to build dashboard")
		return
	}

	entries := []DashboardEntry{}
	for _, segment := range segments {
		metrics, err := h.segmentMetrics(ctx, segment.ID, h.config.MetricsWindowDays)
		if err != nil {
			h.logger.WithError(err).Error("Failed to compute segment metrics")
			respondError(w, http.StatusInternalServerError, "Failed to build dashboard")
			return
		}
		if metrics == nil {
			continue
		}
		entries = append(entries, DashboardEntry{Segment: segment.Name, Metrics: metrics})
	}

	respondJSON(w, http.StatusOK, entries)
}

// Metrics returns the trailing-window metrics for one segment
// GET /api/segments/{id}/metrics?days=365
func (h *SegmentHandler) Metrics(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	segmentID, ok := pathID(w, r)
	if !ok {
		return
	}
	windowDays, ok := queryDays(w, r, h.config.MetricsWindowDays)
	if !ok {
		return
	}

	metrics, err := h.segmentMetrics(ctx, segmentID, windowDays)
	if err != nil {
		h.logger.WithError(err).Error("Failed to compute segment metrics")
		respondError(w, http.StatusInternalServerError, "Failed to compute metrics")
		return
	}
	if metrics == nil {
		respondError(w, http.StatusNotFound, "No bars in window for segment")
		return
	}

	respondJSON(w, http.StatusOK, metrics)
}

// Chart returns per-instrument close series for one segment
// GET /api/segments/{id}/chart?days=90
func (h *SegmentHandler) Chart(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	segmentID, ok := pathID(w, r)
	if !ok {
		return
	}
	windowDays, ok := queryDays(w, r, h.config.ChartWindowDays)
	if !ok {
		return
	}

	cacheKey := redis.SegmentChartKey(segmentID, windowDays)
	var series []analysis.InstrumentSeries
	if found, _ := h.cache.Get(ctx, cacheKey, &series); found {
		respondJSON(w, http.StatusOK, series)
		return
	}

	series, err := h.reader.ChartSeries(ctx, segmentID, windowDays)
	if err != nil {
		h.logger.WithError(err).Error("Failed to load chart series")
		respondError(w, http.StatusInternalServerError, "Failed to load chart data")
		return
	}
	if series == nil {
		series = []analysis.InstrumentSeries{}
	}

	if err := h.cache.Set(ctx, cacheKey, series, chartCacheTTL); err != nil {
		h.logger.WithError(err).Warn("Failed to cache chart series")
	}

	respondJSON(w, http.StatusOK, series)
}

// segmentMetrics computes metrics through the cache.
func (h *SegmentHandler) segmentMetrics(ctx context.Context, segmentID int64, windowDays int) (*contracts.SegmentMetrics, error) {
	cacheKey := redis.SegmentMetricsKey(segmentID, windowDays)

	var cached contracts.SegmentMetrics
	if found, _ := h.cache.Get(ctx, cacheKey, &cached); found {
		return &cached, nil
	}

	metrics, err := h.engine.SegmentMetrics(ctx, segmentID, windowDays)
	if err != nil || metrics == nil {
		return metrics, err
	}

	if err := h.cache.Set(ctx, cacheKey, metrics, metricsCacheTTL); err != nil {
		h.logger.WithError(err).Warn("Failed to cache segment metrics")
	}
	return metrics, nil
}

// pathID extracts the {id} path variable.
func pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid segment id")
		return 0, false
	}
	return id, true
}

// queryDays parses the optional ?days query parameter.
func queryDays(w http.ResponseWriter, r *http.Request, fallback int) (int, bool) {
	raw := r.URL.Query().Get("days")
	if raw == "" {
		return fallback, true
	}
	days, err := strconv.Atoi(raw)
	if err != nil || days <= 0 {
		respondError(w, http.StatusBadRequest, "Invalid 'days' parameter")
		return 0, false
	}
	return days, true
}
