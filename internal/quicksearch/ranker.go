package quicksearch

import (
	"cmp"
	"fmt"
	"slices"

	"parking-guide-backend/internal/model"
)

// Candidate pairs a lot with its prediction.
type Candidate struct {
	Lot        model.LotRecord        `json:"lot"`
	Prediction model.PredictionResult `json:"prediction"`
}

// Usable reports whether the candidate has an occupancy prediction with at
// least one free space.
func (c Candidate) Usable() bool {
	spaces, ok := c.Prediction.AvailableSpaces()
	return ok && spaces > 0
}

// Label names the lot for display.
func (c Candidate) Label() string {
	if loc := c.Lot.DisplayLocation(); loc != "" {
		return loc
	}
	return fmt.Sprintf("Lot %d", c.Lot.LotNumber)
}

// risk treats a missing enforcement prediction as zero, for ordering only.
func (c Candidate) risk() float64 {
	r, _ := c.Prediction.RiskPercentage()
	return r
}

func (c Candidate) spaces() int {
	s, _ := c.Prediction.AvailableSpaces()
	return s
}

// compareCandidates orders by available spaces descending, then risk
// ascending. Full ties go to the lower lot number rather than the earlier
// input position, so the ranking does not depend on catalog order.
func compareCandidates(a, b Candidate) int {
	if c := cmp.Compare(b.spaces(), a.spaces()); c != 0 {
		return c
	}
	if c := cmp.Compare(a.risk(), b.risk()); c != 0 {
		return c
	}
	return cmp.Compare(a.Lot.LotNumber, b.Lot.LotNumber)
}

// Rank drops unusable candidates and returns the rest best first.
func Rank(candidates []Candidate) []Candidate {
	valid := make([]Candidate, 0, len(candidates))
	for _, c := range candidates {
		if c.Usable() {
			valid = append(valid, c)
		}
	}
	slices.SortStableFunc(valid, compareCandidates)
	return valid
}

// PickBest returns the best candidate, or false when none is usable.
func PickBest(candidates []Candidate) (Candidate, bool) {
	ranked := Rank(candidates)
	if len(ranked) == 0 {
		return Candidate{}, false
	}
	return ranked[0], true
}
