package quicksearch

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"parking-guide-backend/internal/model"
)

type staticLots struct {
	lots []model.LotRecord
	err  error
}

func (s staticLots) Lots(context.Context) ([]model.LotRecord, error) { return s.lots, s.err }

type memoryHistory struct {
	mu      sync.Mutex
	records []*model.SearchRecord
}

func (m *memoryHistory) RecordSearch(_ context.Context, rec *model.SearchRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records = append(m.records, rec)
	return nil
}

func newSearcher(lots LotSource, p Predictor) *Searcher {
	return NewSearcher(lots, NewFetcher(p, model.ByLotNumber, 0, zerolog.Nop()), zerolog.Nop())
}

func tableResponder(table map[int]*model.PredictionResult) func(model.PredictionKey) (*model.PredictionResult, error) {
	return func(key model.PredictionKey) (*model.PredictionResult, error) {
		if res, ok := table[key.LotNumber]; ok {
			return res, nil
		}
		return nil, errors.New("no prediction")
	}
}

func TestFindBestNow_Recommendation(t *testing.T) {
	lots := staticLots{lots: []model.LotRecord{
		{LotNumber: 1, ZoneName: "Green 1"},
		{LotNumber: 2, ZoneName: "Red 2", ZoneType: "ADA"},
		{LotNumber: 3, AlternativeLocation: "Lot A|Lot B"},
		{LotNumber: 4, ZoneName: "Blue 4"},
	}}
	p := &fakePredictor{respond: tableResponder(map[int]*model.PredictionResult{
		1: {Occupancy: &model.Occupancy{AvailableSpaces: 12}, Enforcement: &model.Enforcement{Percentage: 40}},
		2: {Occupancy: &model.Occupancy{AvailableSpaces: 500}},
		3: {Occupancy: &model.Occupancy{AvailableSpaces: 12}, Enforcement: &model.Enforcement{Percentage: 10}},
		4: {Occupancy: &model.Occupancy{AvailableSpaces: 2}},
	})}
	rec := &countingRecorder{}
	hist := &memoryHistory{}
	s := newSearcher(lots, p)
	s.SetRecorder(rec)
	s.SetHistory(hist)

	out := s.FindBestNow(context.Background(), time.Time{})

	require.Equal(t, OutcomeRecommendation, out.Kind)
	require.NotNil(t, out.Best)
	assert.Equal(t, 3, out.Best.Lot.LotNumber)
	assert.Equal(t, "Lot A & Lot B", out.Best.Lot.DisplayLocation())
	assert.True(t, out.Applied)
	assert.False(t, out.Instant.IsZero())
	assert.Equal(t, 3, out.Eligible)

	require.Len(t, out.Alternatives, 2)
	assert.Equal(t, 1, out.Alternatives[0].Lot.LotNumber)
	assert.Equal(t, 4, out.Alternatives[1].Lot.LotNumber)

	for _, k := range p.calls() {
		assert.NotEqual(t, 2, k.LotNumber, "ineligible lots are never requested")
	}

	assert.Equal(t, []string{"recommendation"}, rec.outcomes)
	require.Len(t, hist.records, 1)
	require.NotNil(t, hist.records[0].LotNumber)
	assert.Equal(t, 3, *hist.records[0].LotNumber)
	assert.Equal(t, 12, *hist.records[0].AvailableSpaces)
	assert.Equal(t, 10.0, *hist.records[0].RiskPercentage)
	assert.True(t, hist.records[0].Applied)
}

func TestFindBestNow_UsesRequestedInstant(t *testing.T) {
	var seen []time.Time
	var mu sync.Mutex
	p := predictorFunc(func(_ context.Context, _ model.PredictionKey, at time.Time) (*model.PredictionResult, error) {
		mu.Lock()
		seen = append(seen, at)
		mu.Unlock()
		return spacesResponse(5), nil
	})
	s := newSearcher(staticLots{lots: []model.LotRecord{{LotNumber: 1}, {LotNumber: 2}}}, p)

	at := time.Date(2024, 11, 15, 10, 30, 0, 0, time.UTC)
	out := s.FindBestNow(context.Background(), at)

	assert.Equal(t, at, out.Instant)
	require.Len(t, seen, 2)
	for _, got := range seen {
		assert.Equal(t, at, got)
	}
}

func TestFindBestNow_CatalogUnavailable(t *testing.T) {
	p := &fakePredictor{respond: tableResponder(nil)}
	s := newSearcher(staticLots{err: errors.New("connection refused")}, p)

	out := s.FindBestNow(context.Background(), time.Time{})

	assert.Equal(t, OutcomeFailed, out.Kind)
	assert.Equal(t, "catalog unavailable", out.Reason)
	assert.ErrorIs(t, out.Err, ErrCatalogUnavailable)
	assert.Nil(t, out.Best)
	assert.Empty(t, p.calls(), "no predictions without a catalog")
}

func TestFindBestNow_NoneAvailable(t *testing.T) {
	testCases := []struct {
		name  string
		lots  []model.LotRecord
		table map[int]*model.PredictionResult
	}{
		{name: "Empty catalog"},
		{
			name: "Everything restricted",
			lots: []model.LotRecord{{LotNumber: 1, ZoneType: "ADA"}, {LotNumber: 2, ZoneName: "Apartments"}},
		},
		{
			name: "Every prediction fails",
			lots: []model.LotRecord{{LotNumber: 1}, {LotNumber: 2}},
		},
		{
			name: "No free spaces",
			lots: []model.LotRecord{{LotNumber: 1}, {LotNumber: 2}},
			table: map[int]*model.PredictionResult{
				1: {Occupancy: &model.Occupancy{AvailableSpaces: 0}},
				2: {Enforcement: &model.Enforcement{Percentage: 5}},
			},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			s := newSearcher(staticLots{lots: tc.lots}, &fakePredictor{respond: tableResponder(tc.table)})
			out := s.FindBestNow(context.Background(), time.Time{})
			assert.Equal(t, OutcomeNoneAvailable, out.Kind)
			assert.Nil(t, out.Best)
		})
	}
}

func TestFindBestNow_PartialFailure(t *testing.T) {
	lots := staticLots{lots: []model.LotRecord{{LotNumber: 1}, {LotNumber: 2}, {LotNumber: 3}}}
	p := &fakePredictor{respond: tableResponder(map[int]*model.PredictionResult{
		2: {Occupancy: &model.Occupancy{AvailableSpaces: 7}},
	})}
	s := newSearcher(lots, p)

	out := s.FindBestNow(context.Background(), time.Time{})

	require.Equal(t, OutcomeRecommendation, out.Kind)
	assert.Equal(t, 2, out.Best.Lot.LotNumber)
	assert.Equal(t, 2, out.Failures)
}

func TestSearch_SupersededSearchNotApplied(t *testing.T) {
	release := make(chan struct{})
	slowStarted := make(chan struct{})
	var once sync.Once

	lots := staticLots{lots: []model.LotRecord{{LotNumber: 1}}}
	p := predictorFunc(func(ctx context.Context, _ model.PredictionKey, at time.Time) (*model.PredictionResult, error) {
		if at.Year() == 2000 {
			once.Do(func() { close(slowStarted) })
			<-release
			return spacesResponse(99), nil
		}
		return spacesResponse(1), nil
	})

	var applied []uint64
	var mu sync.Mutex
	s := newSearcher(lots, p)
	s.OnApply(func(_ *Session, o Outcome) {
		mu.Lock()
		applied = append(applied, o.Generation)
		mu.Unlock()
	})
	session := NewSession("u1")

	slowDone := make(chan Outcome)
	go func() {
		slowDone <- s.Search(context.Background(), session, time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC))
	}()
	<-slowStarted

	fast := s.Search(context.Background(), session, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	close(release)
	slow := <-slowDone

	assert.True(t, fast.Applied)
	assert.False(t, slow.Applied)
	assert.Equal(t, OutcomeRecommendation, slow.Kind, "stale outcome is still computed")

	latest, ok := session.Latest()
	require.True(t, ok)
	assert.Equal(t, fast.Generation, latest.Generation)
	spaces, _ := latest.Best.Prediction.AvailableSpaces()
	assert.Equal(t, 1, spaces)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []uint64{fast.Generation}, applied)
}

func TestSearch_ListenersNeverSeeOlderOutcomeLast(t *testing.T) {
	lots := staticLots{lots: []model.LotRecord{{LotNumber: 1}}}
	s := newSearcher(lots, predictorFunc(func(context.Context, model.PredictionKey, time.Time) (*model.PredictionResult, error) {
		return spacesResponse(3), nil
	}))

	firstSeen := make(chan struct{})
	release := make(chan struct{})
	var mu sync.Mutex
	var published []uint64
	s.OnApply(func(_ *Session, o Outcome) {
		if o.Generation == 1 {
			close(firstSeen)
			<-release
		}
		mu.Lock()
		published = append(published, o.Generation)
		mu.Unlock()
	})
	session := NewSession("u1")

	firstDone := make(chan Outcome)
	go func() { firstDone <- s.Search(context.Background(), session, time.Time{}) }()
	<-firstSeen

	// The newer search completes while the older one is still publishing.
	second := s.Search(context.Background(), session, time.Time{})
	assert.True(t, second.Applied)
	close(release)
	first := <-firstDone
	assert.True(t, first.Applied)

	mu.Lock()
	defer mu.Unlock()
	require.NotEmpty(t, published)
	assert.Equal(t, second.Generation, published[len(published)-1], "newest outcome is published last")
	assert.Equal(t, []uint64{1, 2}, published)

	latest, ok := session.Latest()
	require.True(t, ok)
	assert.Equal(t, second.Generation, latest.Generation)
}

type predictorFunc func(ctx context.Context, key model.PredictionKey, at time.Time) (*model.PredictionResult, error)

func (f predictorFunc) Predict(ctx context.Context, key model.PredictionKey, at time.Time) (*model.PredictionResult, error) {
	return f(ctx, key, at)
}

func TestOutcome_Message(t *testing.T) {
	best := candidate(4, intp(9), nil)
	best.Lot.AlternativeLocation = "Lot A|Lot B"

	assert.Equal(t, "Park at Lot A & Lot B: 9 spaces available", Outcome{Kind: OutcomeRecommendation, Best: &best}.Message())
	assert.Equal(t, "No parking available right now", Outcome{Kind: OutcomeNoneAvailable}.Message())
	assert.Equal(t, "Could not find parking, please try again", Outcome{Kind: OutcomeFailed}.Message())

	unnamed := candidate(12, intp(3), nil)
	assert.Equal(t, "Park at Lot 12: 3 spaces available", Outcome{Kind: OutcomeRecommendation, Best: &unnamed}.Message())
}
