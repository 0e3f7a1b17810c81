package quicksearch

import (
	"errors"
	"fmt"

	"parking-guide-backend/internal/model"
)

// ReasonCatalogUnavailable is the Failed reason when the lot listing cannot be fetched.
const ReasonCatalogUnavailable = "catalog unavailable"

var ErrCatalogUnavailable = errors.New(ReasonCatalogUnavailable)

// PredictionFailedError records one lot whose prediction could not be used.
type PredictionFailedError struct {
	LotNumber int
	Key       model.PredictionKey
	Err       error
}

func (e *PredictionFailedError) Error() string {
	return fmt.Sprintf("prediction failed for lot %d (%s): %v", e.LotNumber, e.Key, e.Err)
}

func (e *PredictionFailedError) Unwrap() error { return e.Err }
