package faults

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRateBounds(t *testing.T) {
	inj := NewRate(1, map[string]float64{
		OpAddDocument:   0,
		OpUpdateProject: 1,
	})
	for i := 0; i < 100; i++ {
		require.False(t, inj.Fail(OpAddDocument))
		require.True(t, inj.Fail(OpUpdateProject))
		require.False(t, inj.Fail("other"))
	}
}

func TestRateIsDeterministicForSeed(t *testing.T) {
	rates := map[string]float64{OpAddDocument: 0.5}
	a := NewRate(42, rates)
	b := NewRate(42, rates)

	failures := 0
	for i := 0; i < 200; i++ {
		got := a.Fail(OpAddDocument)
		require.Equal(t, got, b.Fail(OpAddDocument))
		if got {
			failures++
		}
	}
	require.Greater(t, failures, 0)
	require.Less(t, failures, 200)
}

func TestScriptReplaysThenStops(t *testing.T) {
	s := NewScript().On(OpUpdateProject, true, false, true)

	require.True(t, s.Fail(OpUpdateProject))
	require.False(t, s.Fail(OpUpdateProject))
	require.True(t, s.Fail(OpUpdateProject))
	require.False(t, s.Fail(OpUpdateProject))
	require.False(t, s.Fail(OpAddDocument))
	require.Equal(t, 4, s.Calls(OpUpdateProject))
	require.Equal(t, 1, s.Calls(OpAddDocument))
}

func TestNeverAndAlways(t *testing.T) {
	require.False(t, Never.Fail(OpAddDocument))
	require.True(t, Always.Fail(OpAddDocument))
}
