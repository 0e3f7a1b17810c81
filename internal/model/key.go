package model

import (
	"fmt"
	"strings"
)

// KeyKind selects how a predictable unit of parking is identified.
type KeyKind int

const (
	ByLotNumber KeyKind = iota
	ByZoneName
)

func (k KeyKind) String() string {
	switch k {
	case ByLotNumber:
		return "lot"
	case ByZoneName:
		return "zone"
	default:
		return "unknown"
	}
}

// ParseKeyScheme maps the configured scheme name onto a KeyKind.
func ParseKeyScheme(s string) (KeyKind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "lot":
		return ByLotNumber, nil
	case "zone":
		return ByZoneName, nil
	default:
		return 0, fmt.Errorf("unknown key scheme %q", s)
	}
}

// PredictionKey identifies what the backend is asked to predict.
type PredictionKey struct {
	Kind      KeyKind
	LotNumber int
	Zone      string
}

func LotKey(n int) PredictionKey { return PredictionKey{Kind: ByLotNumber, LotNumber: n} }

func ZoneKey(zone string) PredictionKey { return PredictionKey{Kind: ByZoneName, Zone: zone} }

func (k PredictionKey) String() string {
	if k.Kind == ByZoneName {
		return "zone:" + k.Zone
	}
	return fmt.Sprintf("lot:%d", k.LotNumber)
}

// ResolveKey applies the prediction zone rule for the deployment's scheme.
// Under the zone scheme the raw alternative location wins over the zone name,
// it is never rewritten for display.
func ResolveKey(lot LotRecord, scheme KeyKind) PredictionKey {
	if scheme == ByZoneName {
		if lot.AlternativeLocation != "" {
			return ZoneKey(lot.AlternativeLocation)
		}
		if lot.ZoneName != "" {
			return ZoneKey(lot.ZoneName)
		}
	}
	return LotKey(lot.LotNumber)
}
