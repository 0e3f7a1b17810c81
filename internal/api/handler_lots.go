package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"parking-guide-backend/internal/model"
	"parking-guide-backend/internal/quicksearch"
)

type lotView struct {
	model.LotRecord
	DisplayLocation string `json:"display_location"`
	Eligible        bool   `json:"eligible"`
	PredictionKey   string `json:"prediction_key"`
}

// GetLots handles GET /api/lots.
func GetLots(cat Catalog, scheme model.KeyKind) gin.HandlerFunc {
	return func(c *gin.Context) {
		lots, err := cat.Lots(c.Request.Context())
		if err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": quicksearch.ReasonCatalogUnavailable, "retryable": true})
			return
		}

		views := make([]lotView, 0, len(lots))
		for _, l := range lots {
			views = append(views, lotView{
				LotRecord:       l,
				DisplayLocation: l.DisplayLocation(),
				Eligible:        quicksearch.Eligible(l),
				PredictionKey:   model.ResolveKey(l, scheme).String(),
			})
		}
		c.JSON(http.StatusOK, gin.H{"total_lots": len(views), "lots": views})
	}
}

// GetZones handles GET /api/zones.
func GetZones(cat Catalog) gin.HandlerFunc {
	return func(c *gin.Context) {
		zones, err := cat.Zones(c.Request.Context())
		if err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "zone listing unavailable", "retryable": true})
			return
		}
		c.JSON(http.StatusOK, gin.H{"total_zones": len(zones), "zones": zones})
	}
}

// GetZoneInfo handles GET /api/zones/:name.
func (h *Handler) GetZoneInfo(c *gin.Context) {
	info, err := h.backend.ZoneInfo(c.Request.Context(), c.Param("name"))
	if err != nil {
		h.backendError(c, err)
		return
	}
	c.JSON(http.StatusOK, info)
}
