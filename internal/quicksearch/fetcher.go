package quicksearch

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"parking-guide-backend/internal/model"
)

// Predictor is the backend prediction surface.
type Predictor interface {
	Predict(ctx context.Context, key model.PredictionKey, at time.Time) (*model.PredictionResult, error)
}

// FetchResult is the outcome of one lot's prediction request. Exactly one of
// Prediction and Err is set.
type FetchResult struct {
	Lot        model.LotRecord
	Prediction *model.PredictionResult
	Err        error
}

func (r FetchResult) Failed() bool { return r.Err != nil }

// Fetcher issues one prediction request per lot concurrently.
type Fetcher struct {
	predictor Predictor
	scheme    model.KeyKind
	limit     int
	recorder  Recorder
	log       zerolog.Logger
}

// NewFetcher creates a fetcher. limit bounds in-flight requests, 0 means
// every lot is requested at once.
func NewFetcher(p Predictor, scheme model.KeyKind, limit int, log zerolog.Logger) *Fetcher {
	return &Fetcher{predictor: p, scheme: scheme, limit: limit, recorder: nopRecorder{}, log: log}
}

// SetRecorder installs a metrics recorder.
func (f *Fetcher) SetRecorder(r Recorder) {
	if r != nil {
		f.recorder = r
	}
}

// FetchAll returns one result per input lot, aligned by position. A failed
// request never aborts the others.
func (f *Fetcher) FetchAll(ctx context.Context, lots []model.LotRecord, at time.Time) []FetchResult {
	results := make([]FetchResult, len(lots))

	var g errgroup.Group
	if f.limit > 0 {
		g.SetLimit(f.limit)
	}
	for i, lot := range lots {
		i, lot := i, lot
		g.Go(func() error {
			results[i] = f.fetchOne(ctx, lot, at)
			return nil
		})
	}
	_ = g.Wait()

	return results
}

func (f *Fetcher) fetchOne(ctx context.Context, lot model.LotRecord, at time.Time) FetchResult {
	key := model.ResolveKey(lot, f.scheme)

	pred, err := f.predictor.Predict(ctx, key, at)
	if err == nil && pred == nil {
		err = errors.New("empty prediction")
	}
	if err != nil {
		f.recorder.PredictionFetched(false)
		f.log.Warn().Err(err).Int("lot", lot.LotNumber).Str("key", key.String()).Msg("prediction failed")
		return FetchResult{Lot: lot, Err: &PredictionFailedError{LotNumber: lot.LotNumber, Key: key, Err: err}}
	}

	f.recorder.PredictionFetched(true)
	res := *pred
	res.LotNumber = lot.LotNumber
	return FetchResult{Lot: lot, Prediction: &res}
}
