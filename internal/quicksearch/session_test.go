package quicksearch

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSession_StaleResultDiscarded(t *testing.T) {
	s := NewSession("u1")

	first := s.Begin()
	second := s.Begin()

	assert.True(t, s.Apply(Outcome{Kind: OutcomeNoneAvailable, Generation: second}))
	assert.False(t, s.Apply(Outcome{Kind: OutcomeRecommendation, Generation: first}))

	latest, ok := s.Latest()
	require.True(t, ok)
	assert.Equal(t, OutcomeNoneAvailable, latest.Kind)
	assert.True(t, latest.Applied)
}

func TestSession_EarlierResultDiscardedOnceSuperseded(t *testing.T) {
	s := NewSession("u1")

	first := s.Begin()
	s.Begin()

	assert.False(t, s.Apply(Outcome{Generation: first}), "a newer search is pending")
	_, ok := s.Latest()
	assert.False(t, ok)
}

func TestSession_ConcurrentBegin(t *testing.T) {
	s := NewSession("u1")

	var wg sync.WaitGroup
	for _i := 0; _i < 50; _i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.Begin()
		}()
	}
	wg.Wait()

	assert.EqualValues(t, 50, s.Current())
}

func TestSession_DeliverKeepsGenerationOrder(t *testing.T) {
	s := NewSession("u1")
	var got []uint64

	first := s.Begin()
	require.True(t, s.Apply(Outcome{Generation: first}))
	s.Deliver(Outcome{Generation: first}, func(o Outcome) {
		got = append(got, o.Generation)
		if o.Generation != first {
			return
		}
		// A newer search applies while the first is still being delivered.
		second := s.Begin()
		require.True(t, s.Apply(Outcome{Generation: second}))
		s.Deliver(Outcome{Generation: second}, func(o Outcome) {
			t.Fatalf("nested delivery of generation %d", o.Generation)
		})
	})

	assert.Equal(t, []uint64{1, 2}, got)

	// Redelivering an old generation is a no-op.
	s.Deliver(Outcome{Generation: first}, func(o Outcome) {
		t.Fatalf("stale generation %d delivered", o.Generation)
	})
}

func TestSession_DeliverDropsSupersededOutcome(t *testing.T) {
	s := NewSession("u1")
	first := s.Begin()
	require.True(t, s.Apply(Outcome{Generation: first}))
	s.Begin()

	called := false
	s.Deliver(Outcome{Generation: first}, func(Outcome) { called = true })
	assert.False(t, called)
}
