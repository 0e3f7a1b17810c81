package parse

import (
	"strconv"
	"strings"
)

// LocationSeparator joins physical locations merged into one alternative location.
const LocationSeparator = "|"

const displaySeparator = " & "

// Coordinate is one latitude/longitude pair.
type Coordinate struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// SplitLocations returns the physical locations encoded in an alternative
// location, trimmed and without empty parts.
func SplitLocations(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, LocationSeparator) {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// DisplayLocation renders an alternative location for humans: "Lot A|Lot B"
// becomes "Lot A & Lot B".
func DisplayLocation(raw string) string {
	return strings.ReplaceAll(raw, LocationSeparator, displaySeparator)
}

// ParseCoords parses the "lat,lon;lat,lon" form used for split lots.
// Malformed pairs are skipped.
func ParseCoords(raw string) []Coordinate {
	var coords []Coordinate
	for _, pair := range strings.Split(raw, ";") {
		parts := strings.Split(strings.TrimSpace(pair), ",")
		if len(parts) != 2 {
			continue
		}
		lat, errLat := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
		lon, errLon := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
		if errLat != nil || errLon != nil {
			continue
		}
		if lat < -90 || lat > 90 || lon < -180 || lon > 180 {
			continue
		}
		coords = append(coords, Coordinate{Latitude: lat, Longitude: lon})
	}
	return coords
}
