package api

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"

	"parking-guide-backend/internal/model"
	"parking-guide-backend/internal/store"
)

type putSubscriptionRequest struct {
	Endpoint    string `json:"endpoint" binding:"required,url"`
	P256DH      string `json:"p256dh" binding:"required"`
	Auth        string `json:"auth" binding:"required"`
	WatchedLots []int  `json:"watched_lots" binding:"dive,gt=0"`
}

type subscriptionResponse struct {
	Endpoint    string `json:"endpoint"`
	WatchedLots []int  `json:"watched_lots"`
}

// PutSubscription creates or replaces a subscription and its watched lots.
func (h *Handler) PutSubscription(c *gin.Context) {
	var req putSubscriptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if unknown, err := h.unknownLots(c, req.WatchedLots); err == nil && len(unknown) > 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("unknown lots: %v", unknown)})
		return
	}

	sub := model.PushSubscription{
		Endpoint: req.Endpoint,
		P256DH:   req.P256DH,
		Auth:     req.Auth,
	}
	if err := h.store.PutSubscription(c.Request.Context(), sub, req.WatchedLots); err != nil {
		h.log.Error().Err(err).Msg("failed to save subscription")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to save subscription"})
		return
	}

	c.Status(http.StatusCreated)
}

// unknownLots returns the requested lots missing from the catalog. When the
// catalog cannot be loaded nothing is rejected.
func (h *Handler) unknownLots(c *gin.Context, lots []int) ([]int, error) {
	if len(lots) == 0 {
		return nil, nil
	}
	all, err := h.catalog.Lots(c.Request.Context())
	if err != nil {
		return nil, err
	}
	known := make(map[int]struct{}, len(all))
	for _, l := range all {
		known[l.LotNumber] = struct{}{}
	}
	var unknown []int
	for _, n := range lots {
		if _, ok := known[n]; !ok {
			unknown = append(unknown, n)
		}
	}
	return unknown, nil
}

type deleteSubscriptionRequest struct {
	Endpoint string `json:"endpoint" binding:"required"`
}

// DeleteSubscription handles the deletion of a subscription.
func (h *Handler) DeleteSubscription(c *gin.Context) {
	var req deleteSubscriptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.store.DeleteSubscription(c.Request.Context(), req.Endpoint); err != nil {
		h.log.Error().Err(err).Msg("failed to delete subscription")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to delete subscription"})
		return
	}

	c.Status(http.StatusNoContent)
}

// endpointParam reads the endpoint query parameter. Push endpoints often
// contain characters that some clients leave unescaped, so the raw value is
// tried before the decoded one.
func endpointParam(c *gin.Context) []string {
	var candidates []string
	for _, kv := range strings.Split(c.Request.URL.RawQuery, "&") {
		if raw, ok := strings.CutPrefix(kv, "endpoint="); ok && raw != "" {
			candidates = append(candidates, raw)
			if decoded, err := url.QueryUnescape(raw); err == nil && decoded != raw {
				candidates = append(candidates, decoded)
			}
			break
		}
	}
	return candidates
}

// GetSubscription handles the retrieval of a subscription.
func (h *Handler) GetSubscription(c *gin.Context) {
	candidates := endpointParam(c)
	if len(candidates) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "endpoint is required"})
		return
	}

	for _, endpoint := range candidates {
		sub, err := h.store.GetSubscription(c.Request.Context(), endpoint)
		if errors.Is(err, store.ErrNotFound) {
			continue
		}
		if err != nil {
			h.log.Error().Err(err).Msg("failed to load subscription")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load subscription"})
			return
		}

		lots := make([]int, len(sub.Watches))
		for i, w := range sub.Watches {
			lots[i] = w.LotNumber
		}
		c.JSON(http.StatusOK, subscriptionResponse{Endpoint: sub.Endpoint, WatchedLots: lots})
		return
	}

	c.JSON(http.StatusNotFound, gin.H{"error": "subscription not found"})
}

// GetVAPIDPublicKey returns the VAPID public key to the client.
func (h *Handler) GetVAPIDPublicKey(c *gin.Context) {
	if h.webpush == nil || h.webpush.VAPIDPublicKey == "" {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "vapid keys are not configured"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"public_key": h.webpush.VAPIDPublicKey})
}
