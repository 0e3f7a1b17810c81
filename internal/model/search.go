package model

import "time"

// SearchRecord is one persisted quick-search run.
type SearchRecord struct {
	ID              string    `gorm:"primaryKey;size:36" json:"id"`
	Generation      uint64    `gorm:"not null" json:"generation"`
	Instant         time.Time `gorm:"not null;index" json:"instant"`
	Outcome         string    `gorm:"size:32;not null" json:"outcome"`
	Applied         bool      `gorm:"not null" json:"applied"`
	LotNumber       *int      `json:"lot_number,omitempty"`
	AvailableSpaces *int      `json:"available_spaces,omitempty"`
	RiskPercentage  *float64  `json:"risk_percentage,omitempty"`
	Reason          string    `gorm:"size:256" json:"reason,omitempty"`
	Eligible        int       `gorm:"not null" json:"eligible"`
	Failures        int       `gorm:"not null" json:"failures"`
	DurationMillis  int64     `gorm:"not null" json:"duration_ms"`
	CreatedAt       time.Time `gorm:"not null;index" json:"created_at"`
}
