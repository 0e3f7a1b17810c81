package api

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"parking-guide-backend/internal/model"
	"parking-guide-backend/internal/quicksearch"
)

type candidateView struct {
	LotNumber         int                     `json:"lot_number"`
	DisplayLocation   string                  `json:"display_location"`
	AvailableSpaces   int                     `json:"available_spaces"`
	AvailabilityLevel model.AvailabilityLevel `json:"availability_level"`
	RiskPercentage    *float64                `json:"risk_percentage,omitempty"`
	RiskLevel         model.RiskLevel         `json:"risk_level,omitempty"`
	Lot               model.LotRecord         `json:"lot"`
	Prediction        model.PredictionResult  `json:"prediction"`
}

func newCandidateView(cand quicksearch.Candidate) candidateView {
	v := candidateView{
		LotNumber:       cand.Lot.LotNumber,
		DisplayLocation: cand.Label(),
		Lot:             cand.Lot,
		Prediction:      cand.Prediction,
	}
	if occ := cand.Prediction.Occupancy; occ != nil {
		v.AvailableSpaces = occ.AvailableSpaces
		v.AvailabilityLevel = occ.AvailabilityLevel
	}
	if enf := cand.Prediction.Enforcement; enf != nil {
		risk := enf.Percentage
		v.RiskPercentage = &risk
		v.RiskLevel = enf.Level
	}
	return v
}

type outcomeView struct {
	Status         string          `json:"status"`
	Message        string          `json:"message"`
	Recommendation *candidateView  `json:"recommendation,omitempty"`
	Alternatives   []candidateView `json:"alternatives,omitempty"`
	Reason         string          `json:"reason,omitempty"`
	Retryable      bool            `json:"retryable,omitempty"`
	Generation     uint64          `json:"generation"`
	Applied        bool            `json:"applied"`
	Instant        time.Time       `json:"instant"`
	Eligible       int             `json:"eligible_lots"`
	Failures       int             `json:"failed_predictions"`
	DurationMillis int64           `json:"duration_ms"`
}

func newOutcomeView(o quicksearch.Outcome) outcomeView {
	v := outcomeView{
		Status:         o.Kind.String(),
		Message:        o.Message(),
		Reason:         o.Reason,
		Retryable:      o.Kind == quicksearch.OutcomeFailed,
		Generation:     o.Generation,
		Applied:        o.Applied,
		Instant:        o.Instant,
		Eligible:       o.Eligible,
		Failures:       o.Failures,
		DurationMillis: o.Elapsed.Milliseconds(),
	}
	if o.Best != nil {
		best := newCandidateView(*o.Best)
		v.Recommendation = &best
	}
	for _, alt := range o.Alternatives {
		v.Alternatives = append(v.Alternatives, newCandidateView(alt))
	}
	return v
}

type quickSearchRequest struct {
	// Datetime is RFC3339 or naive local time. Empty means now.
	Datetime string `json:"datetime"`
}

// PostQuickSearch handles POST /api/quick-search.
func (h *Handler) PostQuickSearch(c *gin.Context) {
	var req quickSearchRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var at time.Time
	if req.Datetime != "" {
		parsed, err := h.backend.Formatter().Parse(req.Datetime)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		at = parsed
	}

	out := h.searcher.Search(c.Request.Context(), h.session(c), at)

	status := http.StatusOK
	if out.Kind == quicksearch.OutcomeFailed {
		status = http.StatusServiceUnavailable
	}
	c.JSON(status, newOutcomeView(out))
}

// GetLatestQuickSearch handles GET /api/quick-search/latest.
func (h *Handler) GetLatestQuickSearch(c *gin.Context) {
	out, ok := h.session(c).Latest()
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "no quick search yet"})
		return
	}
	c.JSON(http.StatusOK, newOutcomeView(out))
}

// GetQuickSearchHistory handles GET /api/quick-search/history.
func (h *Handler) GetQuickSearchHistory(c *gin.Context) {
	limit := h.cfg.Search.HistoryLimit
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a positive integer"})
			return
		}
		limit = min(n, limit)
	}

	records, err := h.store.RecentSearches(c.Request.Context(), limit)
	if err != nil {
		h.log.Error().Err(err).Msg("failed to load quick-search history")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "history unavailable"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"searches": records})
}
