package model

type Zone struct {
	Name      string `json:"name"`
	Capacity  int    `json:"capacity"`
	LotsCount int    `json:"lots_count"`
}

type ZoneLot struct {
	LotNumber int    `json:"lot_number"`
	Location  string `json:"location"`
	LotName   string `json:"lot_name,omitempty"`
}

type ZoneInfo struct {
	Zone      string    `json:"zone"`
	Capacity  int       `json:"capacity"`
	LotsCount int       `json:"lots_count"`
	Lots      []ZoneLot `json:"lots"`
}

// ActiveModels reports which backend models are enabled.
type ActiveModels struct {
	Occupancy   bool `json:"occupancy"`
	Enforcement bool `json:"enforcement"`
}

type BackendStatus struct {
	Status       string       `json:"status"`
	ActiveModels ActiveModels `json:"active_models"`
}
