package quicksearch

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"parking-guide-backend/internal/model"
)

// OutcomeKind is the terminal state of one quick search.
type OutcomeKind int

const (
	OutcomeRecommendation OutcomeKind = iota + 1
	OutcomeNoneAvailable
	OutcomeFailed
)

func (k OutcomeKind) String() string {
	switch k {
	case OutcomeRecommendation:
		return "recommendation"
	case OutcomeNoneAvailable:
		return "none_available"
	case OutcomeFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Outcome is the result of one quick search.
type Outcome struct {
	Kind OutcomeKind
	// Best is set only for OutcomeRecommendation.
	Best *Candidate
	// Alternatives holds the next best usable lots, best first.
	Alternatives []Candidate
	// Reason and Err are set only for OutcomeFailed.
	Reason string
	Err    error

	Generation uint64
	Instant    time.Time
	Applied    bool
	Eligible   int
	Failures   int
	Elapsed    time.Duration
}

// Message is the user-facing summary. "No parking available" and "could not
// find parking" stay distinct.
func (o Outcome) Message() string {
	switch o.Kind {
	case OutcomeRecommendation:
		spaces, _ := o.Best.Prediction.AvailableSpaces()
		return fmt.Sprintf("Park at %s: %d spaces available", o.Best.Label(), spaces)
	case OutcomeNoneAvailable:
		return "No parking available right now"
	default:
		return "Could not find parking, please try again"
	}
}

// LotSource provides the current lot snapshot.
type LotSource interface {
	Lots(ctx context.Context) ([]model.LotRecord, error)
}

// ApplyFunc is called with every outcome applied to a session.
type ApplyFunc func(session *Session, o Outcome)

// Searcher runs the Find Parking Now flow.
type Searcher struct {
	lots         LotSource
	fetcher      *Fetcher
	alternatives int
	history      HistoryStore
	recorder     Recorder
	listeners    []ApplyFunc
	session      *Session
	now          func() time.Time
	log          zerolog.Logger
}

// NewSearcher creates a searcher over the given lot source and fetcher.
func NewSearcher(lots LotSource, fetcher *Fetcher, log zerolog.Logger) *Searcher {
	return &Searcher{
		lots:         lots,
		fetcher:      fetcher,
		alternatives: 3,
		recorder:     nopRecorder{},
		session:      NewSession("default"),
		now:          time.Now,
		log:          log,
	}
}

func (s *Searcher) SetHistory(h HistoryStore) { s.history = h }

func (s *Searcher) SetRecorder(r Recorder) {
	if r != nil {
		s.recorder = r
	}
}

// SetAlternatives sets how many runner-up lots are reported with a recommendation.
func (s *Searcher) SetAlternatives(n int) {
	if n >= 0 {
		s.alternatives = n
	}
}

// OnApply registers a callback for applied outcomes. It may run on the
// goroutine of an earlier search of the same session.
func (s *Searcher) OnApply(fn ApplyFunc) {
	s.listeners = append(s.listeners, fn)
}

// FindBestNow runs a quick search in the searcher's own session. A zero
// instant means the current time.
func (s *Searcher) FindBestNow(ctx context.Context, instant time.Time) Outcome {
	return s.Search(ctx, s.session, instant)
}

// Search runs a quick search on behalf of session. The returned outcome has
// Applied set when it was still the session's current search on completion.
// Listeners see a session's applied outcomes in generation order; a late
// older outcome is never passed to them after a newer one.
func (s *Searcher) Search(ctx context.Context, session *Session, instant time.Time) Outcome {
	gen := session.Begin()
	start := s.now()
	if instant.IsZero() {
		instant = start
	}

	out := s.run(ctx, instant)
	out.Generation = gen
	out.Instant = instant
	out.Elapsed = s.now().Sub(start)

	if session.Apply(out) {
		out.Applied = true
		session.Deliver(out, func(o Outcome) {
			for _, fn := range s.listeners {
				fn(session, o)
			}
		})
	} else {
		s.log.Debug().Str("session", session.ID).Uint64("generation", gen).Msg("discarding superseded quick search")
	}

	s.recorder.SearchCompleted(out.Kind.String(), out.Elapsed)
	s.record(ctx, out)
	return out
}

func (s *Searcher) run(ctx context.Context, instant time.Time) Outcome {
	lots, err := s.lots.Lots(ctx)
	if err != nil {
		return Outcome{
			Kind:   OutcomeFailed,
			Reason: ReasonCatalogUnavailable,
			Err:    fmt.Errorf("%w: %v", ErrCatalogUnavailable, err),
		}
	}

	eligible := FilterEligible(lots)
	if len(eligible) == 0 {
		return Outcome{Kind: OutcomeNoneAvailable}
	}

	results := s.fetcher.FetchAll(ctx, eligible, instant)
	candidates := make([]Candidate, 0, len(results))
	failures := 0
	for _, r := range results {
		if r.Failed() {
			failures++
			continue
		}
		candidates = append(candidates, Candidate{Lot: r.Lot, Prediction: *r.Prediction})
	}

	out := Outcome{Kind: OutcomeNoneAvailable, Eligible: len(eligible), Failures: failures}
	ranked := Rank(candidates)
	if len(ranked) == 0 {
		return out
	}

	best := ranked[0]
	out.Kind = OutcomeRecommendation
	out.Best = &best
	if rest := ranked[1:]; len(rest) > 0 && s.alternatives > 0 {
		out.Alternatives = rest[:min(len(rest), s.alternatives)]
	}
	return out
}

func (s *Searcher) record(ctx context.Context, out Outcome) {
	if s.history == nil {
		return
	}
	rec := &model.SearchRecord{
		ID:             uuid.NewString(),
		Generation:     out.Generation,
		Instant:        out.Instant,
		Outcome:        out.Kind.String(),
		Applied:        out.Applied,
		Reason:         out.Reason,
		Eligible:       out.Eligible,
		Failures:       out.Failures,
		DurationMillis: out.Elapsed.Milliseconds(),
	}
	if out.Best != nil {
		lot := out.Best.Lot.LotNumber
		rec.LotNumber = &lot
		if spaces, ok := out.Best.Prediction.AvailableSpaces(); ok {
			rec.AvailableSpaces = &spaces
		}
		if risk, ok := out.Best.Prediction.RiskPercentage(); ok {
			rec.RiskPercentage = &risk
		}
	}
	if err := s.history.RecordSearch(context.WithoutCancel(ctx), rec); err != nil {
		s.log.Error().Err(err).Msg("failed to record quick search")
	}
}
