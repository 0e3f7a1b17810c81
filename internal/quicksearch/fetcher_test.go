package quicksearch

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"parking-guide-backend/internal/model"
)

type fakePredictor struct {
	mu       sync.Mutex
	keys     []model.PredictionKey
	respond  func(key model.PredictionKey) (*model.PredictionResult, error)
	delay    func(key model.PredictionKey) time.Duration
	inFlight atomic.Int32
	peak     atomic.Int32
}

func (f *fakePredictor) Predict(ctx context.Context, key model.PredictionKey, at time.Time) (*model.PredictionResult, error) {
	n := f.inFlight.Add(1)
	defer f.inFlight.Add(-1)
	for {
		p := f.peak.Load()
		if n <= p || f.peak.CompareAndSwap(p, n) {
			break
		}
	}

	f.mu.Lock()
	f.keys = append(f.keys, key)
	f.mu.Unlock()

	if f.delay != nil {
		select {
		case <-time.After(f.delay(key)):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return f.respond(key)
}

func (f *fakePredictor) calls() []model.PredictionKey {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]model.PredictionKey(nil), f.keys...)
}

func spacesResponse(spaces int) *model.PredictionResult {
	return &model.PredictionResult{Occupancy: &model.Occupancy{AvailableSpaces: spaces}}
}

type countingRecorder struct {
	ok, failed atomic.Int32
	mu         sync.Mutex
	outcomes   []string
}

func (r *countingRecorder) PredictionFetched(ok bool) {
	if ok {
		r.ok.Add(1)
	} else {
		r.failed.Add(1)
	}
}

func (r *countingRecorder) SearchCompleted(outcome string, _ time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.outcomes = append(r.outcomes, outcome)
}

func TestFetchAll_AlignedWithInput(t *testing.T) {
	p := &fakePredictor{
		respond: func(key model.PredictionKey) (*model.PredictionResult, error) {
			if key.LotNumber == 2 {
				return nil, errors.New("boom")
			}
			return spacesResponse(key.LotNumber * 10), nil
		},
		// Later lots answer first.
		delay: func(key model.PredictionKey) time.Duration {
			return time.Duration(5-key.LotNumber) * 5 * time.Millisecond
		},
	}
	rec := &countingRecorder{}
	f := NewFetcher(p, model.ByLotNumber, 0, zerolog.Nop())
	f.SetRecorder(rec)

	lots := []model.LotRecord{{LotNumber: 1}, {LotNumber: 2}, {LotNumber: 3}, {LotNumber: 4}}
	results := f.FetchAll(context.Background(), lots, time.Now())

	require.Len(t, results, 4)
	for i, r := range results {
		assert.Equal(t, lots[i].LotNumber, r.Lot.LotNumber)
	}
	assert.True(t, results[1].Failed())

	var failed *PredictionFailedError
	require.True(t, errors.As(results[1].Err, &failed))
	assert.Equal(t, 2, failed.LotNumber)

	require.NotNil(t, results[3].Prediction)
	assert.Equal(t, 4, results[3].Prediction.LotNumber, "lot number taken from the requested lot")
	spaces, _ := results[3].Prediction.AvailableSpaces()
	assert.Equal(t, 40, spaces)

	assert.EqualValues(t, 3, rec.ok.Load())
	assert.EqualValues(t, 1, rec.failed.Load())
}

func TestFetchAll_OneRequestPerLot(t *testing.T) {
	p := &fakePredictor{respond: func(model.PredictionKey) (*model.PredictionResult, error) {
		return spacesResponse(1), nil
	}}
	f := NewFetcher(p, model.ByLotNumber, 0, zerolog.Nop())

	var lots []model.LotRecord
	for i := 1; i <= 25; i++ {
		lots = append(lots, model.LotRecord{LotNumber: i})
	}
	f.FetchAll(context.Background(), lots, time.Now())

	seen := map[int]int{}
	for _, k := range p.calls() {
		seen[k.LotNumber]++
	}
	assert.Len(t, seen, 25)
	for lot, n := range seen {
		assert.Equal(t, 1, n, "lot %d", lot)
	}
}

func TestFetchAll_RequestsAreConcurrent(t *testing.T) {
	p := &fakePredictor{
		respond: func(model.PredictionKey) (*model.PredictionResult, error) { return spacesResponse(1), nil },
		delay:   func(model.PredictionKey) time.Duration { return 20 * time.Millisecond },
	}
	f := NewFetcher(p, model.ByLotNumber, 0, zerolog.Nop())

	lots := make([]model.LotRecord, 6)
	for i := range lots {
		lots[i].LotNumber = i + 1
	}
	f.FetchAll(context.Background(), lots, time.Now())

	assert.Greater(t, p.peak.Load(), int32(1))
}

func TestFetchAll_RespectsLimit(t *testing.T) {
	p := &fakePredictor{
		respond: func(model.PredictionKey) (*model.PredictionResult, error) { return spacesResponse(1), nil },
		delay:   func(model.PredictionKey) time.Duration { return 5 * time.Millisecond },
	}
	f := NewFetcher(p, model.ByLotNumber, 2, zerolog.Nop())

	lots := make([]model.LotRecord, 8)
	for i := range lots {
		lots[i].LotNumber = i + 1
	}
	results := f.FetchAll(context.Background(), lots, time.Now())

	assert.Len(t, results, 8)
	assert.LessOrEqual(t, p.peak.Load(), int32(2))
}

func TestFetchAll_ZoneScheme(t *testing.T) {
	p := &fakePredictor{respond: func(model.PredictionKey) (*model.PredictionResult, error) {
		return spacesResponse(3), nil
	}}
	f := NewFetcher(p, model.ByZoneName, 0, zerolog.Nop())

	lots := []model.LotRecord{{LotNumber: 1, ZoneName: "Green 1", AlternativeLocation: "Lot A|Lot B"}}
	results := f.FetchAll(context.Background(), lots, time.Now())

	require.Len(t, p.calls(), 1)
	assert.Equal(t, model.ZoneKey("Lot A|Lot B"), p.calls()[0])
	assert.Equal(t, 1, results[0].Prediction.LotNumber)
}

func TestFetchAll_NilPredictionIsFailure(t *testing.T) {
	p := &fakePredictor{respond: func(model.PredictionKey) (*model.PredictionResult, error) { return nil, nil }}
	f := NewFetcher(p, model.ByLotNumber, 0, zerolog.Nop())

	results := f.FetchAll(context.Background(), []model.LotRecord{{LotNumber: 1}}, time.Now())
	assert.True(t, results[0].Failed())
}

func TestFetchAll_Empty(t *testing.T) {
	f := NewFetcher(&fakePredictor{}, model.ByLotNumber, 0, zerolog.Nop())
	assert.Empty(t, f.FetchAll(context.Background(), nil, time.Now()))
}
