package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/SherClockHolmes/webpush-go"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/patrickmn/go-cache"
	"github.com/rs/zerolog"

	"parking-guide-backend/config"
	"parking-guide-backend/internal/backend"
	"parking-guide-backend/internal/live"
	"parking-guide-backend/internal/model"
	"parking-guide-backend/internal/mw"
	"parking-guide-backend/internal/parse"
	"parking-guide-backend/internal/quicksearch"
	"parking-guide-backend/internal/store"
)

// SessionHeader lets a client keep its quick-search session across
// addresses. Without it the caller's IP is used.
const SessionHeader = "X-Session-ID"

const sessionIdleTTL = 30 * time.Minute

// Backend is the part of the prediction service the handlers proxy to.
type Backend interface {
	ZoneInfo(ctx context.Context, zone string) (*model.ZoneInfo, error)
	PredictLot(ctx context.Context, lotNumber int, at time.Time, durationHours int) (*model.PredictionResult, error)
	Recommend(ctx context.Context, zone string, at time.Time, durationHours int) (*model.PredictionResult, error)
	Status(ctx context.Context) (*model.BackendStatus, error)
	SubmitFeedback(ctx context.Context, fb model.Feedback) (*model.FeedbackAck, error)
	FeedbackStats(ctx context.Context) (*model.FeedbackStats, error)
	Formatter() parse.DatetimeFormatter
}

// Catalog serves the cached lot and zone listings.
type Catalog interface {
	Lots(ctx context.Context) ([]model.LotRecord, error)
	Lookup(ctx context.Context, lotNumber int) (model.LotRecord, bool, error)
	Zones(ctx context.Context) ([]model.Zone, error)
}

// Deps bundles everything the handlers need. Hub and WebPush may be nil.
type Deps struct {
	Config   *config.Config
	Backend  Backend
	Catalog  Catalog
	Searcher *quicksearch.Searcher
	Store    store.Store
	Hub      *live.Hub
	WebPush  *webpush.Options
	Log      zerolog.Logger
}

// Handler holds shared dependencies for API handlers.
type Handler struct {
	cfg      *config.Config
	backend  Backend
	catalog  Catalog
	searcher *quicksearch.Searcher
	store    store.Store
	hub      *live.Hub
	webpush  *webpush.Options
	scheme   model.KeyKind
	sessions *cache.Cache
	upgrader websocket.Upgrader
	log      zerolog.Logger
}

// NewHandler creates a new API handler.
func NewHandler(d Deps) (*Handler, error) {
	scheme, err := model.ParseKeyScheme(d.Config.Backend.KeyScheme)
	if err != nil {
		return nil, err
	}

	h := &Handler{
		cfg:      d.Config,
		backend:  d.Backend,
		catalog:  d.Catalog,
		searcher: d.Searcher,
		store:    d.Store,
		hub:      d.Hub,
		webpush:  d.WebPush,
		scheme:   scheme,
		sessions: cache.New(sessionIdleTTL, 2*sessionIdleTTL),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		log: d.Log,
	}

	if h.hub != nil && h.searcher != nil {
		h.searcher.OnApply(func(s *quicksearch.Session, o quicksearch.Outcome) {
			h.hub.PublishTo(s.ID, live.MsgTypeQuickSearch, newOutcomeView(o))
		})
	}
	return h, nil
}

// session returns the caller's quick-search session, creating it on first use.
func (h *Handler) session(c *gin.Context) *quicksearch.Session {
	key := c.GetHeader(SessionHeader)
	if key == "" {
		key = mw.ClientIP(c, h.cfg.Server.RequestIPHeader)
	}

	if v, ok := h.sessions.Get(key); ok {
		h.sessions.SetDefault(key, v)
		return v.(*quicksearch.Session)
	}
	s := quicksearch.NewSession(key)
	if err := h.sessions.Add(key, s, cache.DefaultExpiration); err != nil {
		// Lost a race with a concurrent first request.
		if v, ok := h.sessions.Get(key); ok {
			return v.(*quicksearch.Session)
		}
	}
	return s
}

// backendError maps a failed backend call onto a response. Restricted lots
// and disabled models keep their status, everything else is a bad gateway.
func (h *Handler) backendError(c *gin.Context, err error) {
	var se *backend.StatusError
	if errors.As(err, &se) {
		switch {
		case se.Restricted():
			c.JSON(http.StatusForbidden, gin.H{"error": messageOr(se.Message, "lot is restricted")})
			return
		case se.ModelUnavailable():
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": messageOr(se.Message, "prediction model unavailable"), "retryable": true})
			return
		case se.StatusCode == http.StatusNotFound:
			c.JSON(http.StatusNotFound, gin.H{"error": messageOr(se.Message, "not found")})
			return
		}
	}
	h.log.Warn().Err(err).Str("request_id", mw.RequestID(c)).Msg("backend call failed")
	c.JSON(http.StatusBadGateway, gin.H{"error": "prediction service unavailable", "retryable": true})
}

func messageOr(msg, fallback string) string {
	if msg != "" {
		return msg
	}
	return fallback
}
