package catalog

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/rs/zerolog"

	"parking-guide-backend/internal/model"
)

const (
	keyLots  = "lots"
	keyZones = "zones"
)

// Lister is the backend listing surface the catalog depends on.
type Lister interface {
	ListLots(ctx context.Context) ([]model.LotRecord, error)
	ListZones(ctx context.Context) ([]model.Zone, error)
}

// Observer is notified with the size of every freshly fetched lot snapshot.
type Observer interface {
	CatalogSize(n int)
}

// Catalog holds the lot and zone snapshots. A snapshot is replaced wholesale
// on refresh and is never mutated; callers receive copies.
type Catalog struct {
	lister   Lister
	cache    *cache.Cache
	ttl      time.Duration
	observer Observer
	log      zerolog.Logger
}

// New creates a catalog whose snapshots expire after ttl.
func New(lister Lister, ttl time.Duration, observer Observer, log zerolog.Logger) *Catalog {
	return &Catalog{
		lister:   lister,
		cache:    cache.New(ttl, 2*ttl),
		ttl:      ttl,
		observer: observer,
		log:      log,
	}
}

// Lots returns the current lot snapshot, fetching it when none is held.
func (c *Catalog) Lots(ctx context.Context) ([]model.LotRecord, error) {
	if v, ok := c.cache.Get(keyLots); ok {
		return slices.Clone(v.([]model.LotRecord)), nil
	}
	return c.Refresh(ctx)
}

// Refresh fetches a new lot snapshot and replaces the held one. On failure
// the held snapshot, if it has not expired yet, is left untouched; an expired
// snapshot is never served in its place.
func (c *Catalog) Refresh(ctx context.Context) ([]model.LotRecord, error) {
	lots, err := c.lister.ListLots(ctx)
	if err != nil {
		c.log.Error().Err(err).Msg("failed to fetch lot catalog")
		return nil, fmt.Errorf("fetch lots: %w", err)
	}

	snapshot := dedupe(lots, c.log)
	c.cache.Set(keyLots, snapshot, c.ttl)
	if c.observer != nil {
		c.observer.CatalogSize(len(snapshot))
	}
	c.log.Info().Int("lots", len(snapshot)).Msg("lot catalog refreshed")
	return slices.Clone(snapshot), nil
}

// Lookup returns the lot with the given number from the current snapshot.
func (c *Catalog) Lookup(ctx context.Context, lotNumber int) (model.LotRecord, bool, error) {
	lots, err := c.Lots(ctx)
	if err != nil {
		return model.LotRecord{}, false, err
	}
	for _, l := range lots {
		if l.LotNumber == lotNumber {
			return l, true, nil
		}
	}
	return model.LotRecord{}, false, nil
}

// Zones returns the zone listing, cached like the lot snapshot.
func (c *Catalog) Zones(ctx context.Context) ([]model.Zone, error) {
	if v, ok := c.cache.Get(keyZones); ok {
		return slices.Clone(v.([]model.Zone)), nil
	}
	zones, err := c.lister.ListZones(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch zones: %w", err)
	}
	c.cache.Set(keyZones, zones, c.ttl)
	return slices.Clone(zones), nil
}

// Invalidate drops every held snapshot.
func (c *Catalog) Invalidate() {
	c.cache.Flush()
}

// dedupe enforces lot number uniqueness, keeping the first occurrence.
func dedupe(lots []model.LotRecord, log zerolog.Logger) []model.LotRecord {
	seen := make(map[int]struct{}, len(lots))
	out := make([]model.LotRecord, 0, len(lots))
	for _, l := range lots {
		if _, dup := seen[l.LotNumber]; dup {
			log.Warn().Int("lot", l.LotNumber).Msg("duplicate lot number in catalog, keeping first")
			continue
		}
		seen[l.LotNumber] = struct{}{}
		out = append(out, l)
	}
	return out
}
