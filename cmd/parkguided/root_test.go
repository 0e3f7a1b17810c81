package main

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"parking-guide-backend/config"
	"parking-guide-backend/internal/metrics"
	"parking-guide-backend/internal/model"
)

func newTestEngine(t *testing.T, alternatives *int) *engine {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/lots/list":
			io.WriteString(w, `{"lots": [{"lot_number": 1}, {"lot_number": 2}, {"lot_number": 3}]}`)
		default:
			io.WriteString(w, `{"occupancy": {"available_spaces": 7}}`)
		}
	}))
	t.Cleanup(server.Close)

	cfg := &config.Config{}
	cfg.Backend.BaseURL = server.URL
	cfg.Search.Alternatives = alternatives
	cfg.SetDefaults()

	eng, err := newEngine(cfg, nil, zerolog.Nop())
	require.NoError(t, err)
	return eng
}

func TestEngine_WatcherFetchesNotCounted(t *testing.T) {
	eng := newTestEngine(t, nil)
	reg := prometheus.NewRegistry()
	m, err := metrics.New(reg)
	require.NoError(t, err)
	eng.instrument(m)

	lots := []model.LotRecord{{LotNumber: 1}}
	eng.watchFetcher.FetchAll(context.Background(), lots, time.Now())

	n, err := testutil.GatherAndCount(reg, "prediction_fetches_total")
	require.NoError(t, err)
	assert.Zero(t, n, "watcher polls stay out of the quick-search metrics")

	eng.fetcher.FetchAll(context.Background(), lots, time.Now())
	n, err = testutil.GatherAndCount(reg, "prediction_fetches_total")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestEngine_AlternativesFromConfig(t *testing.T) {
	testCases := []struct {
		name string
		n    *int
		want int
	}{
		{name: "Default", n: nil, want: 2},
		{name: "None", n: new(int), want: 0},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			eng := newTestEngine(t, tc.n)
			out := eng.searcher.FindBestNow(context.Background(), time.Time{})
			require.NotNil(t, out.Best)
			assert.Len(t, out.Alternatives, tc.want)
		})
	}
}
