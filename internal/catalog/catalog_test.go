package catalog

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"parking-guide-backend/internal/model"
)

type mockLister struct {
	lots      []model.LotRecord
	zones     []model.Zone
	err       error
	lotCalls  int
	zoneCalls int
}

func (m *mockLister) ListLots(ctx context.Context) ([]model.LotRecord, error) {
	m.lotCalls++
	if m.err != nil {
		return nil, m.err
	}
	return m.lots, nil
}

func (m *mockLister) ListZones(ctx context.Context) ([]model.Zone, error) {
	m.zoneCalls++
	if m.err != nil {
		return nil, m.err
	}
	return m.zones, nil
}

type sizeRecorder struct{ sizes []int }

func (s *sizeRecorder) CatalogSize(n int) { s.sizes = append(s.sizes, n) }

func TestCatalog_LotsFetchedOnce(t *testing.T) {
	lister := &mockLister{lots: []model.LotRecord{{LotNumber: 1}, {LotNumber: 2}}}
	obs := &sizeRecorder{}
	c := New(lister, time.Minute, obs, zerolog.Nop())

	for i := 0; i < 3; i++ {
		lots, err := c.Lots(context.Background())
		require.NoError(t, err)
		assert.Len(t, lots, 2)
	}
	assert.Equal(t, 1, lister.lotCalls)
	assert.Equal(t, []int{2}, obs.sizes)
}

func TestCatalog_SnapshotIsCopied(t *testing.T) {
	lister := &mockLister{lots: []model.LotRecord{{LotNumber: 1, ZoneName: "Green 1"}}}
	c := New(lister, time.Minute, nil, zerolog.Nop())

	lots, err := c.Lots(context.Background())
	require.NoError(t, err)
	lots[0].ZoneName = "tampered"

	again, err := c.Lots(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Green 1", again[0].ZoneName)
}

func TestCatalog_RefreshReplacesWholesale(t *testing.T) {
	lister := &mockLister{lots: []model.LotRecord{{LotNumber: 1}, {LotNumber: 2}}}
	c := New(lister, time.Minute, nil, zerolog.Nop())
	_, err := c.Lots(context.Background())
	require.NoError(t, err)

	lister.lots = []model.LotRecord{{LotNumber: 3}}
	lots, err := c.Refresh(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []model.LotRecord{{LotNumber: 3}}, lots)

	lots, err = c.Lots(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []model.LotRecord{{LotNumber: 3}}, lots)
}

func TestCatalog_FailedRefreshKeepsSnapshot(t *testing.T) {
	lister := &mockLister{lots: []model.LotRecord{{LotNumber: 1}}}
	c := New(lister, time.Minute, nil, zerolog.Nop())
	_, err := c.Lots(context.Background())
	require.NoError(t, err)

	lister.err = errors.New("boom")
	_, err = c.Refresh(context.Background())
	assert.Error(t, err)

	lots, err := c.Lots(context.Background())
	require.NoError(t, err)
	assert.Len(t, lots, 1)
}

func TestCatalog_FetchError(t *testing.T) {
	c := New(&mockLister{err: errors.New("connection refused")}, time.Minute, nil, zerolog.Nop())
	_, err := c.Lots(context.Background())
	assert.Error(t, err)
}

func TestCatalog_DuplicateLotNumbers(t *testing.T) {
	lister := &mockLister{lots: []model.LotRecord{
		{LotNumber: 1, ZoneName: "first"},
		{LotNumber: 2},
		{LotNumber: 1, ZoneName: "second"},
	}}
	c := New(lister, time.Minute, nil, zerolog.Nop())

	lots, err := c.Lots(context.Background())
	require.NoError(t, err)
	require.Len(t, lots, 2)
	assert.Equal(t, "first", lots[0].ZoneName)

	lot, ok, err := c.Lookup(context.Background(), 2)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 2, lot.LotNumber)

	_, ok, err = c.Lookup(context.Background(), 99)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCatalog_ZonesCached(t *testing.T) {
	lister := &mockLister{zones: []model.Zone{{Name: "Green 1", Capacity: 100}}}
	c := New(lister, time.Minute, nil, zerolog.Nop())

	for i := 0; i < 2; i++ {
		zones, err := c.Zones(context.Background())
		require.NoError(t, err)
		assert.Len(t, zones, 1)
	}
	assert.Equal(t, 1, lister.zoneCalls)

	c.Invalidate()
	_, err := c.Zones(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, lister.zoneCalls)
}

func TestCatalog_ExpiredSnapshotNotServedOnFailure(t *testing.T) {
	lister := &mockLister{lots: []model.LotRecord{{LotNumber: 1}}}
	c := New(lister, 20*time.Millisecond, nil, zerolog.Nop())
	_, err := c.Lots(context.Background())
	require.NoError(t, err)

	lister.err = errors.New("boom")
	time.Sleep(50 * time.Millisecond)

	_, err = c.Lots(context.Background())
	assert.Error(t, err, "an expired snapshot is not a fallback")
	assert.Equal(t, 2, lister.lotCalls)
}
