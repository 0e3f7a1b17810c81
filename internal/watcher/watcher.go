package watcher

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"parking-guide-backend/config"
	"parking-guide-backend/internal/live"
	"parking-guide-backend/internal/model"
	"parking-guide-backend/internal/notification"
	"parking-guide-backend/internal/quicksearch"
)

// WatchStore lists the lots that have at least one subscriber.
type WatchStore interface {
	WatchedLots(ctx context.Context) ([]int, error)
}

type LotSource interface {
	Lots(ctx context.Context) ([]model.LotRecord, error)
}

// Dispatcher queues alerts for delivery.
type Dispatcher interface {
	Dispatch(ctx context.Context, alert notification.Alert) error
}

// Publisher pushes live updates to connected clients.
type Publisher interface {
	Publish(msgType string, data any)
}

// Service polls watched lots and raises an alert whenever a lot goes from
// fewer than the configured minimum of free spaces to at least that many.
type Service struct {
	cfg        config.WatcherConfig
	store      WatchStore
	lots       LotSource
	fetcher    *quicksearch.Fetcher
	dispatcher Dispatcher
	publisher  Publisher
	now        func() time.Time
	log        zerolog.Logger

	mu        sync.Mutex
	available map[int]bool
}

// NewService creates a watcher. dispatcher and publisher may be nil.
func NewService(cfg config.WatcherConfig, store WatchStore, lots LotSource, fetcher *quicksearch.Fetcher,
	dispatcher Dispatcher, publisher Publisher, log zerolog.Logger) *Service {
	return &Service{
		cfg:        cfg,
		store:      store,
		lots:       lots,
		fetcher:    fetcher,
		dispatcher: dispatcher,
		publisher:  publisher,
		now:        time.Now,
		log:        log,
		available:  make(map[int]bool),
	}
}

// Run checks watched lots on every interval until ctx is done.
func (s *Service) Run(ctx context.Context) {
	if !s.cfg.Enabled {
		s.log.Info().Msg("lot watcher is disabled, not starting")
		return
	}
	s.log.Info().Dur("interval", s.cfg.Interval).Msg("starting lot watcher")

	s.CheckOnce(ctx)

	timer := time.NewTimer(s.cfg.Interval)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			s.log.Info().Msg("lot watcher shutting down")
			return
		case <-timer.C:
			s.CheckOnce(ctx)
			timer.Reset(s.cfg.Interval)
		}
	}
}

// CheckOnce runs one polling cycle and returns the alerts it raised.
func (s *Service) CheckOnce(ctx context.Context) []notification.Alert {
	watched, err := s.store.WatchedLots(ctx)
	if err != nil {
		s.log.Error().Err(err).Msg("failed to list watched lots")
		return nil
	}
	if len(watched) == 0 {
		s.forgetAllExcept(nil)
		return nil
	}

	all, err := s.lots.Lots(ctx)
	if err != nil {
		s.log.Error().Err(err).Msg("watch cycle skipped, catalog unavailable")
		return nil
	}

	wanted := make(map[int]struct{}, len(watched))
	for _, n := range watched {
		wanted[n] = struct{}{}
	}
	var targets []model.LotRecord
	for _, lot := range all {
		if _, ok := wanted[lot.LotNumber]; ok {
			targets = append(targets, lot)
		}
	}
	if len(targets) < len(watched) {
		s.log.Warn().Int("watched", len(watched)).Int("known", len(targets)).Msg("some watched lots are not in the catalog")
	}
	s.forgetAllExcept(wanted)

	now := s.now()
	results := s.fetcher.FetchAll(ctx, targets, now)

	var alerts []notification.Alert
	for _, r := range results {
		if r.Failed() {
			continue
		}
		spaces, ok := r.Prediction.AvailableSpaces()
		if !ok {
			continue
		}
		if s.transition(r.Lot.LotNumber, spaces >= s.cfg.MinAvailableSpaces) {
			alerts = append(alerts, notification.Alert{
				LotNumber:       r.Lot.LotNumber,
				Location:        r.Lot.DisplayLocation(),
				AvailableSpaces: spaces,
				Instant:         now,
			})
		}
	}

	for _, alert := range alerts {
		s.log.Info().Int("lot", alert.LotNumber).Int("spaces", alert.AvailableSpaces).Msg("watched lot has space again")
		if s.publisher != nil {
			s.publisher.Publish(live.MsgTypeLotAlert, alert)
		}
		if s.dispatcher != nil {
			if err := s.dispatcher.Dispatch(ctx, alert); err != nil {
				s.log.Warn().Err(err).Int("lot", alert.LotNumber).Msg("failed to queue lot alert")
			}
		}
	}
	return alerts
}

// transition records the new state and reports whether the lot just became
// available. The first observation of a lot only sets its baseline.
func (s *Service) transition(lot int, available bool) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	prev, seen := s.available[lot]
	s.available[lot] = available
	return seen && !prev && available
}

func (s *Service) forgetAllExcept(keep map[int]struct{}) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for lot := range s.available {
		if _, ok := keep[lot]; !ok {
			delete(s.available, lot)
		}
	}
}
