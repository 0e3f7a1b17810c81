package quicksearch

import (
	"strings"

	"parking-guide-backend/internal/model"
)

// restrictedTokens disqualify a lot when found in its zone name or type.
var restrictedTokens = []string{"apartment", "authorized", "disability"}

// Eligible reports whether a lot may be offered by a quick search. Lots
// without any classification are eligible.
func Eligible(lot model.LotRecord) bool {
	name := strings.ToLower(lot.ZoneName)
	zoneType := strings.ToLower(lot.ZoneType)

	for _, tok := range restrictedTokens {
		if strings.Contains(name, tok) || strings.Contains(zoneType, tok) {
			return false
		}
	}
	return !strings.Contains(zoneType, "ada")
}

// FilterEligible returns the eligible lots in input order.
func FilterEligible(lots []model.LotRecord) []model.LotRecord {
	out := make([]model.LotRecord, 0, len(lots))
	for _, lot := range lots {
		if Eligible(lot) {
			out = append(out, lot)
		}
	}
	return out
}
