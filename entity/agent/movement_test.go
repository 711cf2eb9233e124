package agent

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/graphpaper-lab/roadsim/entity/graph"
	"github.com/graphpaper-lab/roadsim/entity/route"
	"github.com/graphpaper-lab/roadsim/entity/trafficlight"
)

// crossGraph is a crossroads at (0,100) fed from the south by a lit
// 100 m approach, with exits north, east and west.
func crossGraph(t *testing.T) *graph.Graph {
	t.Helper()
	g, err := graph.New(&graph.Snapshot{
		Junctions: []graph.JunctionDef{
			{ID: 1, Kind: "crossroads", Position: []float64{0, 100}, Radius: 6},
		},
		Segments: []graph.SegmentDef{
			{ID: 10, Points: [][]float64{{0, 0}, {0, 100}}, To: 1},
			{ID: 11, Points: [][]float64{{0, 100}, {0, 200}}, From: 1},
			{ID: 12, Points: [][]float64{{0, 100}, {100, 100}}, From: 1},
			{ID: 13, Points: [][]float64{{0, 100}, {-100, 100}}, From: 1},
		},
		Lights: []graph.LightDef{
			{ID: 100, Junction: 1, Segment: 10, Cycle: 30, Green: 20},
		},
	})
	require.NoError(t, err)
	return g
}

func testAgent(t *testing.T, g *graph.Graph, segmentID int32, progress float64, r *route.Route) *Agent {
	t.Helper()
	s, err := g.Segment(segmentID)
	require.NoError(t, err)
	return New(Options{
		ID:            1,
		Segment:       s,
		Forward:       true,
		Progress:      progress,
		Route:         r,
		Graph:         g,
		Phase:         trafficlight.PhaseClock{YellowFraction: 0.1, MinYellow: 2},
		BaseSpeed:     10,
		StopLineRatio: 0.8,
	})
}

func TestRedLightHoldsAtStopLine(t *testing.T) {
	a := testAgent(t, crossGraph(t), 10, 0.75, nil)

	// t=25 is deep into the red half of the 30 s cycle
	u, emit := a.step(1, 25)
	require.True(t, emit)
	assert.Equal(t, 0.8, u.Progress)
	assert.Equal(t, "waiting", u.Status)
	assert.False(t, u.Committed)

	// held in place tick after tick while the light stays red
	u, _ = a.step(1, 26)
	assert.Equal(t, 0.8, u.Progress)
	assert.Equal(t, "waiting", u.Status)
}

func TestGreenCommitsThroughLaterRed(t *testing.T) {
	a := testAgent(t, crossGraph(t), 10, 0.75, nil)

	// green (t=5): the vehicle commits as it passes the stop line
	u, _ := a.step(1, 5)
	assert.InDelta(t, 0.85, u.Progress, 1e-9)
	assert.Equal(t, "driving", u.Status)
	assert.True(t, u.Committed)

	// the light turning red no longer applies to a committed vehicle
	u, _ = a.step(1, 25)
	assert.InDelta(t, 0.95, u.Progress, 1e-9)
	assert.Equal(t, "driving", u.Status)
}

func TestAutoFollowTakesStraightestExit(t *testing.T) {
	a := testAgent(t, crossGraph(t), 10, 0.95, nil)

	// green, crossing the junction with no route: continue north
	u, _ := a.step(1, 5)
	assert.Equal(t, int32(11), u.SegmentID)
	assert.Equal(t, 0.0, u.Progress)
	assert.Equal(t, 0.0, u.Heading)
	assert.False(t, u.Committed) // commitment resets with the new segment
}

func TestTurnDirectiveChoosesExit(t *testing.T) {
	ds, err := route.Parse("RIGHT")
	require.NoError(t, err)
	a := testAgent(t, crossGraph(t), 10, 0.95, route.New(ds))

	u, _ := a.step(1, 5)
	assert.Equal(t, int32(12), u.SegmentID)
	assert.Equal(t, 90.0, u.Heading)
}

func TestCompassAtHeldUntilItsJunction(t *testing.T) {
	g, err := graph.New(&graph.Snapshot{
		Junctions: []graph.JunctionDef{
			{ID: 1, Kind: "crossroads", Position: []float64{0, 100}, Radius: 6},
			{ID: 2, Kind: "crossroads", Position: []float64{0, 200}, Radius: 6},
		},
		Segments: []graph.SegmentDef{
			{ID: 10, Points: [][]float64{{0, 0}, {0, 100}}, To: 1},
			{ID: 11, Points: [][]float64{{0, 100}, {0, 200}}, From: 1, To: 2},
			{ID: 12, Points: [][]float64{{0, 200}, {100, 200}}, From: 2},
			{ID: 13, Points: [][]float64{{0, 100}, {100, 100}}, From: 1},
		},
	})
	require.NoError(t, err)

	ds, err := route.Parse("E_2")
	require.NoError(t, err)
	a := testAgent(t, g, 10, 0.95, route.New(ds))

	// at junction 1 the directive is held and the vehicle auto-follows
	// straight north rather than taking the eastern exit
	u, _ := a.step(1, 0)
	assert.Equal(t, int32(11), u.SegmentID)
	assert.False(t, u.Exhausted)

	// drive the 100 m of segment 11 and cross junction 2 eastward
	for i := 0; u.SegmentID == 11 && i < 20; i++ {
		u, _ = a.step(1, float64(i))
	}
	assert.Equal(t, int32(12), u.SegmentID)
	assert.Equal(t, 90.0, u.Heading)
}

func TestJunctionTargetedRoundTrip(t *testing.T) {
	g, err := graph.New(&graph.Snapshot{
		Junctions: []graph.JunctionDef{
			{ID: 1, Kind: "crossroads", Position: []float64{0, 100}, Radius: 6},
			{ID: 2, Kind: "crossroads", Position: []float64{0, 200}, Radius: 6},
		},
		Segments: []graph.SegmentDef{
			{ID: 10, Points: [][]float64{{0, 0}, {0, 100}}, To: 1},
			{ID: 11, Points: [][]float64{{0, 100}, {0, 200}}, From: 1, To: 2},
			{ID: 12, Points: [][]float64{{0, 200}, {100, 200}}, From: 2},
			{ID: 13, Points: [][]float64{{0, 100}, {100, 100}}, From: 1},
		},
	})
	require.NoError(t, err)

	ds, err := route.Parse("N_1 E_2")
	require.NoError(t, err)
	a := testAgent(t, g, 10, 0.95, route.New(ds))

	// drive until both targeted junctions have been crossed
	u, _ := a.step(1, 0)
	for i := 1; u.SegmentID != 12 && i < 30; i++ {
		u, _ = a.step(1, float64(i))
	}
	assert.Equal(t, int32(12), u.SegmentID)
	assert.Equal(t, 90.0, u.Heading) // entered bearing E at junction 2
	assert.False(t, u.Exhausted)
}

func TestUnresolvableDirectiveExhaustsRoute(t *testing.T) {
	ds, err := route.Parse("S")
	require.NoError(t, err)
	a := testAgent(t, crossGraph(t), 10, 0.95, route.New(ds))

	// no southern exit at the crossroads: exhaust and auto-follow north
	u, _ := a.step(1, 5)
	assert.Equal(t, int32(11), u.SegmentID)
	assert.True(t, u.Exhausted)
}

func TestStrandedReportsOnce(t *testing.T) {
	g, err := graph.New(&graph.Snapshot{
		Segments: []graph.SegmentDef{
			{ID: 10, Points: [][]float64{{0, 0}, {0, 100}}},
		},
	})
	require.NoError(t, err)
	a := testAgent(t, g, 10, 0.95, nil)

	u, emit := a.step(1, 0)
	require.True(t, emit)
	assert.Equal(t, "stranded", u.Status)

	// terminal: no further updates
	_, emit = a.step(1, 1)
	assert.False(t, emit)
	_, emit = a.step(1, 2)
	assert.False(t, emit)
}

func TestSegmentSpeedLimitApplies(t *testing.T) {
	g, err := graph.New(&graph.Snapshot{
		Junctions: []graph.JunctionDef{
			{ID: 1, Kind: "crossroads", Position: []float64{0, 100}, Radius: 6},
		},
		Segments: []graph.SegmentDef{
			{ID: 10, Points: [][]float64{{0, 0}, {0, 100}}, To: 1, MaxSpeed: 5},
			{ID: 11, Points: [][]float64{{0, 100}, {0, 200}}, From: 1},
		},
	})
	require.NoError(t, err)
	a := testAgent(t, g, 10, 0, nil)

	// base speed 10 clamped to the 5 m/s limit: 5 m over 100 m
	u, _ := a.step(1, 0)
	assert.InDelta(t, 0.05, u.Progress, 1e-9)
}

func TestRoundaboutArcTraversal(t *testing.T) {
	g, err := graph.New(&graph.Snapshot{
		Junctions: []graph.JunctionDef{
			{ID: 1, Kind: "roundabout", Position: []float64{0, 100}, Radius: 10, Rotation: "cw"},
		},
		Segments: []graph.SegmentDef{
			{ID: 10, Points: [][]float64{{0, 0}, {0, 100}}, To: 1},
			{ID: 12, Points: [][]float64{{0, 100}, {100, 100}}, From: 1},
		},
	})
	require.NoError(t, err)
	a := testAgent(t, g, 10, 0.95, nil)

	// cross onto the arc. Arriving northbound the entry bearing from
	// the center is 180; the eastern exit sits at 90, so the clockwise
	// sweep is the long way round: 270 degrees.
	u, _ := a.step(1, 0)
	require.Equal(t, int32(1), u.ArcAt)
	assert.Zero(t, u.SegmentID)
	assert.True(t, u.Committed) // inside the junction zone

	r := &a.runtime
	assert.InDelta(t, 180.0, r.arcEntry, 1e-9)
	assert.InDelta(t, 270.0, r.arcSweep, 1e-9)

	// halfway round the sweep the vehicle sits at bearing 315 from the
	// center, heading tangentially clockwise
	r.progress = 0.5
	u = a.update(0)
	assert.InDelta(t, 315.0, r.arcAngle(), 1e-9)
	assert.InDelta(t, 45.0, u.Heading, 1e-9)

	// push past the end of the arc and leave onto the eastern segment
	r.progress = 0.99
	arcLen := 10 * 270 * 3.14159265358979 / 180
	steps := 0
	for u.ArcAt != 0 && steps < 10 {
		u, _ = a.step(arcLen/10, 0)
		steps++
	}
	assert.Equal(t, int32(12), u.SegmentID)
	assert.Equal(t, 90.0, u.Heading)
	assert.False(t, u.Committed)
}

func TestCounterClockwiseSweepIsShort(t *testing.T) {
	g, err := graph.New(&graph.Snapshot{
		Junctions: []graph.JunctionDef{
			{ID: 1, Kind: "roundabout", Position: []float64{0, 100}, Radius: 10, Rotation: "ccw"},
		},
		Segments: []graph.SegmentDef{
			{ID: 10, Points: [][]float64{{0, 0}, {0, 100}}, To: 1},
			{ID: 12, Points: [][]float64{{0, 100}, {100, 100}}, From: 1},
		},
	})
	require.NoError(t, err)
	a := testAgent(t, g, 10, 0.95, nil)

	a.step(1, 0)
	r := &a.runtime
	assert.InDelta(t, 90.0, r.arcSweep, 1e-9) // 180 down to 90 against the compass
}
