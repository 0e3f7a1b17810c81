package backend

import (
	"parking-guide-backend/internal/model"
	"parking-guide-backend/internal/parse"
)

// Wire types mirror the backend's JSON. Pointers mark fields whose absence
// must be told apart from zero.

type lotWire struct {
	LotNumber           *int     `json:"lot_number" validate:"required"`
	ZoneName            string   `json:"zone_name"`
	ZoneType            string   `json:"zone_type"`
	Location            string   `json:"location"`
	AlternativeLocation string   `json:"alternative_location"`
	Capacity            *int     `json:"capacity"`
	Latitude            *float64 `json:"latitude"`
	Longitude           *float64 `json:"longitude"`
	AdditionalCoords    string   `json:"additional_coords"`
}

type lotsResponse struct {
	TotalLots int       `json:"total_lots"`
	Lots      []lotWire `json:"lots" validate:"dive"`
}

type zonesResponse struct {
	TotalZones int          `json:"total_zones"`
	Zones      []model.Zone `json:"zones" validate:"dive"`
}

type occupancyWire struct {
	Capacity          *float64 `json:"capacity"`
	OccupancyCount    *float64 `json:"occupancy_count"`
	AvailableSpaces   *float64 `json:"available_spaces" validate:"required"`
	PercentFull       *float64 `json:"percent_full"`
	AvailabilityLevel string   `json:"availability_level"`
	Source            string   `json:"source"`
}

type enforcementWire struct {
	Percentage           *float64 `json:"percentage" validate:"required,gte=0,lte=100"`
	Level                string   `json:"level"`
	Message              string   `json:"message"`
	PeakRiskTime         string   `json:"peak_risk_time"`
	DurationHours        int      `json:"duration_hours"`
	ParkingDurationHours int      `json:"parking_duration_hours"`
}

type recommendationWire struct {
	Score      int    `json:"score"`
	Text       string `json:"text"`
	ShouldPark bool   `json:"should_park"`
}

type predictionWire struct {
	LotNumber      *int                `json:"lot_number"`
	Zone           string              `json:"zone"`
	Datetime       string              `json:"datetime"`
	Occupancy      *occupancyWire      `json:"occupancy"`
	Enforcement    *enforcementWire    `json:"enforcement"`
	Recommendation *recommendationWire `json:"recommendation"`
}

type predictLotRequest struct {
	LotNumber            int    `json:"lot_number"`
	Datetime             string `json:"datetime"`
	ParkingDurationHours int    `json:"parking_duration_hours,omitempty"`
}

type recommendRequest struct {
	Zone          string `json:"zone"`
	Datetime      string `json:"datetime"`
	DurationHours int    `json:"duration_hours,omitempty"`
}

type errorBody struct {
	Error string `json:"error"`
}

func (w lotWire) toModel() model.LotRecord {
	lot := model.LotRecord{
		LotNumber:           *w.LotNumber,
		ZoneName:            w.ZoneName,
		ZoneType:            w.ZoneType,
		Location:            w.Location,
		AlternativeLocation: w.AlternativeLocation,
		Latitude:            w.Latitude,
		Longitude:           w.Longitude,
	}
	// The backend reports unknown capacity as 0.
	if w.Capacity != nil && *w.Capacity > 0 {
		c := *w.Capacity
		lot.Capacity = &c
	}
	if w.AdditionalCoords != "" {
		lot.AdditionalCoords = parse.ParseCoords(w.AdditionalCoords)
	}
	return lot
}

func (w predictionWire) toModel(lotNumber int) model.PredictionResult {
	res := model.PredictionResult{
		LotNumber: lotNumber,
		Zone:      w.Zone,
		Datetime:  w.Datetime,
	}
	if w.LotNumber != nil {
		res.LotNumber = *w.LotNumber
	}
	if o := w.Occupancy; o != nil {
		res.Occupancy = &model.Occupancy{
			Capacity:          int(deref(o.Capacity)),
			OccupancyCount:    deref(o.OccupancyCount),
			AvailableSpaces:   int(*o.AvailableSpaces),
			PercentFull:       deref(o.PercentFull),
			AvailabilityLevel: model.NormalizeAvailability(o.AvailabilityLevel),
			Source:            o.Source,
		}
	}
	if e := w.Enforcement; e != nil {
		hours := e.DurationHours
		if hours == 0 {
			hours = e.ParkingDurationHours
		}
		res.Enforcement = &model.Enforcement{
			Percentage:    *e.Percentage,
			Level:         model.NormalizeRisk(e.Level),
			Message:       e.Message,
			PeakRiskTime:  e.PeakRiskTime,
			DurationHours: hours,
		}
	}
	if r := w.Recommendation; r != nil {
		res.Recommendation = &model.Recommendation{Score: r.Score, Text: r.Text, ShouldPark: r.ShouldPark}
	}
	return res
}

func deref(f *float64) float64 {
	if f == nil {
		return 0
	}
	return *f
}
