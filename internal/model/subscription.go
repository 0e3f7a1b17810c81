package model

import "time"

// PushSubscription holds the information for a browser push subscription.
type PushSubscription struct {
	Endpoint  string    `gorm:"primaryKey"`
	P256DH    string    `gorm:"column:p256dh;not null"`
	Auth      string    `gorm:"not null"`
	CreatedAt time.Time `gorm:"not null"`

	Watches []LotWatch `gorm:"foreignKey:Endpoint;references:Endpoint;constraint:OnDelete:CASCADE"`
}

// LotWatch links a subscription to a lot it wants availability alerts for.
type LotWatch struct {
	ID        int64  `gorm:"primaryKey"`
	Endpoint  string `gorm:"size:512;not null;uniqueIndex:idx_watch_endpoint_lot"`
	LotNumber int    `gorm:"not null;index;uniqueIndex:idx_watch_endpoint_lot"`
	CreatedAt time.Time
}
