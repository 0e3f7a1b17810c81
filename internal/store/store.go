package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"parking-guide-backend/internal/model"
)

// ErrNotFound is returned when a subscription does not exist.
var ErrNotFound = errors.New("not found")

// Store defines the interface for all database operations.
type Store interface {
	RecordSearch(ctx context.Context, rec *model.SearchRecord) error
	RecentSearches(ctx context.Context, limit int) ([]model.SearchRecord, error)

	PutSubscription(ctx context.Context, sub model.PushSubscription, lots []int) error
	GetSubscription(ctx context.Context, endpoint string) (*model.PushSubscription, error)
	DeleteSubscription(ctx context.Context, endpoint string) error
	DeleteSubscriptions(ctx context.Context, endpoints []string) error

	SubscriptionsForLot(ctx context.Context, lotNumber int) ([]model.PushSubscription, error)
	WatchedLots(ctx context.Context) ([]int, error)
}

// gormStore implements the Store interface using GORM.
type gormStore struct {
	db *gorm.DB
}

// NewGormStore creates a new GORM-backed store.
func NewGormStore(db *gorm.DB) Store {
	return &gormStore{db: db}
}

func (s *gormStore) RecordSearch(ctx context.Context, rec *model.SearchRecord) error {
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}
	if err := s.db.WithContext(ctx).Create(rec).Error; err != nil {
		return fmt.Errorf("failed to record search %s: %w", rec.ID, err)
	}
	return nil
}

// RecentSearches returns the newest records first.
func (s *gormStore) RecentSearches(ctx context.Context, limit int) ([]model.SearchRecord, error) {
	var records []model.SearchRecord
	err := s.db.WithContext(ctx).
		Order("created_at DESC").
		Limit(limit).
		Find(&records).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list searches: %w", err)
	}
	return records, nil
}

// PutSubscription creates or replaces a subscription together with its
// complete set of watched lots.
func (s *gormStore) PutSubscription(ctx context.Context, sub model.PushSubscription, lots []int) error {
	sub.Watches = nil
	if sub.CreatedAt.IsZero() {
		sub.CreatedAt = time.Now().UTC()
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "endpoint"}},
			DoUpdates: clause.AssignmentColumns([]string{"p256dh", "auth"}),
		}).Create(&sub).Error; err != nil {
			return fmt.Errorf("failed to upsert subscription: %w", err)
		}

		if err := tx.Where("endpoint = ?", sub.Endpoint).Delete(&model.LotWatch{}).Error; err != nil {
			return fmt.Errorf("failed to clear watches: %w", err)
		}

		watches := make([]model.LotWatch, 0, len(lots))
		seen := make(map[int]struct{}, len(lots))
		for _, n := range lots {
			if _, dup := seen[n]; dup {
				continue
			}
			seen[n] = struct{}{}
			watches = append(watches, model.LotWatch{Endpoint: sub.Endpoint, LotNumber: n})
		}
		if len(watches) == 0 {
			return nil
		}
		if err := tx.Create(&watches).Error; err != nil {
			return fmt.Errorf("failed to create watches: %w", err)
		}
		return nil
	})
}

func (s *gormStore) GetSubscription(ctx context.Context, endpoint string) (*model.PushSubscription, error) {
	var sub model.PushSubscription
	err := s.db.WithContext(ctx).
		Preload("Watches", func(db *gorm.DB) *gorm.DB { return db.Order("lot_number") }).
		First(&sub, "endpoint = ?", endpoint).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get subscription: %w", err)
	}
	return &sub, nil
}

func (s *gormStore) DeleteSubscription(ctx context.Context, endpoint string) error {
	return s.DeleteSubscriptions(ctx, []string{endpoint})
}

// DeleteSubscriptions removes subscriptions and their watches.
func (s *gormStore) DeleteSubscriptions(ctx context.Context, endpoints []string) error {
	if len(endpoints) == 0 {
		return nil
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("endpoint IN ?", endpoints).Delete(&model.LotWatch{}).Error; err != nil {
			return fmt.Errorf("failed to delete watches: %w", err)
		}
		if err := tx.Where("endpoint IN ?", endpoints).Delete(&model.PushSubscription{}).Error; err != nil {
			return fmt.Errorf("failed to delete subscriptions: %w", err)
		}
		return nil
	})
}

// SubscriptionsForLot returns every subscription watching the lot.
func (s *gormStore) SubscriptionsForLot(ctx context.Context, lotNumber int) ([]model.PushSubscription, error) {
	var subs []model.PushSubscription
	err := s.db.WithContext(ctx).
		Joins("JOIN lot_watches lw ON lw.endpoint = push_subscriptions.endpoint").
		Where("lw.lot_number = ?", lotNumber).
		Find(&subs).Error
	if err != nil {
		return nil, fmt.Errorf("failed to fetch subscriptions for lot %d: %w", lotNumber, err)
	}
	return subs, nil
}

// WatchedLots returns the distinct lot numbers with at least one watch.
func (s *gormStore) WatchedLots(ctx context.Context) ([]int, error) {
	var lots []int
	err := s.db.WithContext(ctx).
		Model(&model.LotWatch{}).
		Distinct("lot_number").
		Order("lot_number").
		Pluck("lot_number", &lots).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list watched lots: %w", err)
	}
	return lots, nil
}
