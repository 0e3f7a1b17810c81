package model

import "parking-guide-backend/internal/parse"

// LotRecord is an immutable snapshot of one parking lot as listed by the backend.
type LotRecord struct {
	LotNumber           int                `json:"lot_number"`
	ZoneName            string             `json:"zone_name,omitempty"`
	ZoneType            string             `json:"zone_type,omitempty"`
	Location            string             `json:"location,omitempty"`
	AlternativeLocation string             `json:"alternative_location,omitempty"`
	Capacity            *int               `json:"capacity,omitempty"`
	Latitude            *float64           `json:"latitude,omitempty"`
	Longitude           *float64           `json:"longitude,omitempty"`
	AdditionalCoords    []parse.Coordinate `json:"additional_coords,omitempty"`
}

// HasCoordinates reports whether the lot can be placed on a map.
func (l LotRecord) HasCoordinates() bool {
	return l.Latitude != nil && l.Longitude != nil
}

// DisplayLocation is the human-readable name of the lot. Aliased locations
// are joined with " & ".
func (l LotRecord) DisplayLocation() string {
	if l.AlternativeLocation != "" {
		return parse.DisplayLocation(l.AlternativeLocation)
	}
	if l.ZoneName != "" {
		return l.ZoneName
	}
	return l.Location
}
