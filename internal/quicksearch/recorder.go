package quicksearch

import (
	"context"
	"time"

	"parking-guide-backend/internal/model"
)

// Recorder receives quick-search measurements.
type Recorder interface {
	PredictionFetched(ok bool)
	SearchCompleted(outcome string, elapsed time.Duration)
}

// HistoryStore persists finished searches.
type HistoryStore interface {
	RecordSearch(ctx context.Context, rec *model.SearchRecord) error
}

type nopRecorder struct{}

func (nopRecorder) PredictionFetched(bool)                {}
func (nopRecorder) SearchCompleted(string, time.Duration) {}
