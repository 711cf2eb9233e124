package planner_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/graphpaper-lab/roadsim/entity/graph"
	"github.com/graphpaper-lab/roadsim/planner"
)

// signalGraph has a short direct road from 1 to 2 whose arrival is
// gated by a mostly-red light, plus a longer unsignalled detour via 3.
func signalGraph(t *testing.T) *graph.Graph {
	t.Helper()
	g, err := graph.New(&graph.Snapshot{
		Junctions: []graph.JunctionDef{
			{ID: 1, Kind: "crossroads", Position: []float64{0, 0}, Radius: 5},
			{ID: 2, Kind: "crossroads", Position: []float64{100, 0}, Radius: 5},
			{ID: 3, Kind: "crossroads", Position: []float64{0, 80}, Radius: 5},
		},
		Segments: []graph.SegmentDef{
			{ID: 30, Points: [][]float64{{0, 0}, {100, 0}}, From: 1, To: 2, OneWay: true},
			{ID: 21, Points: [][]float64{{0, 0}, {0, 80}}, From: 1, To: 3, OneWay: true},
			{ID: 22, Points: [][]float64{{0, 80}, {100, 80}, {100, 0}}, From: 3, To: 2, OneWay: true},
		},
		Lights: []graph.LightDef{
			// green only 5 s out of every 100
			{ID: 130, Junction: 2, Segment: 30, Cycle: 100, Green: 5},
		},
	})
	require.NoError(t, err)
	return g
}

func TestSignalWaitFlipsTheRanking(t *testing.T) {
	g := signalGraph(t)
	opts := planner.Options{HopLimit: 4, BaseSpeed: 10}

	// departing at t=0 the direct road arrives at t=10, deep into the
	// red: 90 s of wait make the 260 m detour the better plan
	cs, err := planner.Plan(g, 1, 2, 0, opts)
	require.NoError(t, err)
	require.Len(t, cs, 2)
	assert.Equal(t, []int32{21, 22}, cs[0].Segments)
	assert.InDelta(t, 26, cs[0].ETA, 1e-9)
	assert.Equal(t, []int32{30}, cs[1].Segments)
	assert.InDelta(t, 100, cs[1].ETA, 1e-9)
	assert.InDelta(t, 260, cs[0].Distance, 1e-9)
	assert.InDelta(t, 100, cs[1].Distance, 1e-9)

	// departing at t=92 the arrival falls inside the green window and
	// the direct road wins at free-flow time
	cs, err = planner.Plan(g, 1, 2, 92, opts)
	require.NoError(t, err)
	require.Len(t, cs, 2)
	assert.Equal(t, []int32{30}, cs[0].Segments)
	assert.InDelta(t, 10, cs[0].ETA, 1e-9)
	assert.InDelta(t, 26, cs[1].ETA, 1e-9)
}

func TestEtaNeverBelowFreeFlow(t *testing.T) {
	g := signalGraph(t)
	for _, departT := range []float64{0, 7, 42, 92, 365} {
		cs, err := planner.Plan(g, 1, 2, departT, planner.Options{HopLimit: 4, BaseSpeed: 10})
		require.NoError(t, err)
		for _, c := range cs {
			assert.GreaterOrEqual(t, c.ETA, c.Distance/10)
		}
	}
}

func chainGraph(t *testing.T, n int32) *graph.Graph {
	t.Helper()
	snap := &graph.Snapshot{}
	for i := int32(1); i <= n; i++ {
		snap.Junctions = append(snap.Junctions, graph.JunctionDef{
			ID: i, Kind: "crossroads", Position: []float64{float64(i) * 100, 0}, Radius: 5,
		})
	}
	for i := int32(1); i < n; i++ {
		snap.Segments = append(snap.Segments, graph.SegmentDef{
			ID:     i,
			Points: [][]float64{{float64(i) * 100, 0}, {float64(i+1) * 100, 0}},
			From:   i, To: i + 1,
		})
	}
	g, err := graph.New(snap)
	require.NoError(t, err)
	return g
}

func TestHopLimitBoundsTheSearch(t *testing.T) {
	g := chainGraph(t, 6)
	opts := planner.Options{HopLimit: 2, BaseSpeed: 10}

	// 1 to 4 crosses two intermediate junctions: within the limit
	cs, err := planner.Plan(g, 1, 4, 0, opts)
	require.NoError(t, err)
	require.Len(t, cs, 1)
	assert.Equal(t, []int32{1, 2, 3, 4}, cs[0].Junctions)

	// 1 to 6 would need four: cut off
	cs, err = planner.Plan(g, 1, 6, 0, opts)
	require.NoError(t, err)
	assert.Empty(t, cs)
}

func TestCyclicGraphTerminates(t *testing.T) {
	// two-way triangle: every junction reaches every other both ways
	g, err := graph.New(&graph.Snapshot{
		Junctions: []graph.JunctionDef{
			{ID: 1, Kind: "y", Position: []float64{0, 0}, Radius: 5},
			{ID: 2, Kind: "y", Position: []float64{100, 0}, Radius: 5},
			{ID: 3, Kind: "y", Position: []float64{50, 80}, Radius: 5},
		},
		Segments: []graph.SegmentDef{
			{ID: 1, Points: [][]float64{{0, 0}, {100, 0}}, From: 1, To: 2},
			{ID: 2, Points: [][]float64{{100, 0}, {50, 80}}, From: 2, To: 3},
			{ID: 3, Points: [][]float64{{50, 80}, {0, 0}}, From: 3, To: 1},
		},
	})
	require.NoError(t, err)

	cs, err := planner.Plan(g, 1, 2, 0, planner.Options{HopLimit: 4, BaseSpeed: 10})
	require.NoError(t, err)
	require.Len(t, cs, 2)
	for _, c := range cs {
		seen := map[int32]bool{}
		for _, j := range c.Junctions {
			assert.False(t, seen[j], "junction repeated in %v", c.Junctions)
			seen[j] = true
		}
	}
}

func TestDisconnectedPairYieldsNoCandidates(t *testing.T) {
	g, err := graph.New(&graph.Snapshot{
		Junctions: []graph.JunctionDef{
			{ID: 1, Kind: "y", Position: []float64{0, 0}, Radius: 5},
			{ID: 2, Kind: "y", Position: []float64{500, 0}, Radius: 5},
			{ID: 3, Kind: "y", Position: []float64{0, 100}, Radius: 5},
		},
		Segments: []graph.SegmentDef{
			{ID: 1, Points: [][]float64{{0, 0}, {0, 100}}, From: 1, To: 3},
		},
	})
	require.NoError(t, err)

	cs, err := planner.Plan(g, 1, 2, 0, planner.Options{HopLimit: 4, BaseSpeed: 10})
	require.NoError(t, err)
	assert.Empty(t, cs)
}

func TestSameJunctionYieldsEmptyPlan(t *testing.T) {
	cs, err := planner.Plan(signalGraph(t), 1, 1, 0, planner.Options{HopLimit: 4, BaseSpeed: 10})
	require.NoError(t, err)
	assert.Empty(t, cs)
}

func TestUnknownJunctionIsAnError(t *testing.T) {
	g := signalGraph(t)
	_, err := planner.Plan(g, 99, 1, 0, planner.Options{})
	assert.Error(t, err)
	_, err = planner.Plan(g, 1, 99, 0, planner.Options{})
	assert.Error(t, err)
}

func TestNeverGreenApproachIsSkipped(t *testing.T) {
	g, err := graph.New(&graph.Snapshot{
		Junctions: []graph.JunctionDef{
			{ID: 1, Kind: "y", Position: []float64{0, 0}, Radius: 5},
			{ID: 2, Kind: "y", Position: []float64{100, 0}, Radius: 5},
		},
		Segments: []graph.SegmentDef{
			{ID: 1, Points: [][]float64{{0, 0}, {100, 0}}, From: 1, To: 2, OneWay: true},
		},
		Lights: []graph.LightDef{
			{ID: 10, Junction: 2, Segment: 1, Cycle: 60, Green: 0},
		},
	})
	require.NoError(t, err)

	cs, err := planner.Plan(g, 1, 2, 0, planner.Options{HopLimit: 4, BaseSpeed: 10})
	require.NoError(t, err)
	assert.Empty(t, cs)
}
