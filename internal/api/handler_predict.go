package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"parking-guide-backend/internal/model"
	"parking-guide-backend/internal/quicksearch"
)

type predictRequest struct {
	LotNumber     *int   `json:"lot_number"`
	Zone          string `json:"zone"`
	Datetime      string `json:"datetime"`
	DurationHours *int   `json:"duration_hours" binding:"omitempty,gte=1,lte=24"`
}

type predictResponse struct {
	Key             string                 `json:"prediction_key"`
	DisplayLocation string                 `json:"display_location,omitempty"`
	Prediction      model.PredictionResult `json:"prediction"`
}

// PostPredict handles POST /api/predict for a single lot or zone.
func (h *Handler) PostPredict(c *gin.Context) {
	var req predictRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.LotNumber == nil && req.Zone == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "lot_number or zone is required"})
		return
	}

	at := time.Now()
	if req.Datetime != "" {
		parsed, err := h.backend.Formatter().Parse(req.Datetime)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		at = parsed
	}
	hours := h.cfg.Backend.DurationHours
	if req.DurationHours != nil {
		hours = *req.DurationHours
	}

	ctx := c.Request.Context()
	key := model.ZoneKey(req.Zone)
	resp := predictResponse{}
	if req.LotNumber != nil {
		lot, found, err := h.catalog.Lookup(ctx, *req.LotNumber)
		if err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": quicksearch.ReasonCatalogUnavailable, "retryable": true})
			return
		}
		if !found {
			c.JSON(http.StatusNotFound, gin.H{"error": "unknown lot"})
			return
		}
		key = model.ResolveKey(lot, h.scheme)
		resp.DisplayLocation = lot.DisplayLocation()
	}

	var (
		res *model.PredictionResult
		err error
	)
	if key.Kind == model.ByZoneName {
		res, err = h.backend.Recommend(ctx, key.Zone, at, hours)
	} else {
		res, err = h.backend.PredictLot(ctx, key.LotNumber, at, hours)
	}
	if err != nil {
		h.backendError(c, err)
		return
	}
	if req.LotNumber != nil {
		res.LotNumber = *req.LotNumber
	}

	resp.Key = key.String()
	resp.Prediction = *res
	c.JSON(http.StatusOK, resp)
}

// GetStatus handles GET /api/status.
func (h *Handler) GetStatus(c *gin.Context) {
	status, err := h.backend.Status(c.Request.Context())
	if err != nil {
		h.backendError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"backend":             status,
		"key_scheme":          h.scheme.String(),
		"datetime_convention": h.backend.Formatter().Convention,
	})
}

// PostFeedback handles POST /api/feedback. Feedback is forwarded, never stored.
func (h *Handler) PostFeedback(c *gin.Context) {
	var fb model.Feedback
	if err := c.ShouldBindJSON(&fb); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	ack, err := h.backend.SubmitFeedback(c.Request.Context(), fb)
	if err != nil {
		h.backendError(c, err)
		return
	}
	c.JSON(http.StatusCreated, ack)
}

// GetFeedbackStats handles GET /api/feedback/stats.
func (h *Handler) GetFeedbackStats(c *gin.Context) {
	stats, err := h.backend.FeedbackStats(c.Request.Context())
	if err != nil {
		h.backendError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}
