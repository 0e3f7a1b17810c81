package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"parking-guide-backend/internal/live"
)

// GetLive upgrades to a websocket carrying quick-search outcomes for the
// caller's session and lot alerts for everyone.
func (h *Handler) GetLive(c *gin.Context) {
	if h.hub == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "live feed disabled"})
		return
	}

	session := c.Query("session")
	if session == "" {
		session = h.session(c).ID
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Warn().Err(err).Msg("failed to upgrade websocket")
		return
	}

	client := live.NewClient(h.hub, conn, session)
	if !client.Register() {
		conn.Close()
		return
	}
	go client.ReadPump()
	go client.WritePump()
}

// Healthz reports liveness.
func (h *Handler) Healthz(c *gin.Context) {
	clients := 0
	if h.hub != nil {
		clients = h.hub.ClientCount()
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok", "live_clients": clients})
}
