package sim

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/graphpaper-lab/roadsim/entity/graph"
	"github.com/graphpaper-lab/roadsim/utils/config"
)

func TestStopForcesUnresponsiveAgent(t *testing.T) {
	g, err := graph.New(&graph.Snapshot{
		Segments: []graph.SegmentDef{
			{ID: 10, Points: [][]float64{{0, 0}, {0, 1000}}},
		},
	})
	require.NoError(t, err)
	c := NewCoordinator(g, config.NewRuntimeConfig(config.Config{
		Control: config.Control{
			Step:    config.ControlStep{TickInterval: 0.01, FrameInterval: 0.05},
			Vehicle: config.Vehicle{StopLineRatio: 0.8, DefaultSpeed: 10},
		},
	}))

	id, err := c.Spawn(SpawnOptions{})
	require.NoError(t, err)

	// a worker that never acknowledges its stop channel
	c.mtx.Lock()
	c.agents[99] = &handle{stop: make(chan struct{}), done: make(chan int32, 1)}
	c.mtx.Unlock()

	report := c.Stop(200 * time.Millisecond)
	assert.Equal(t, []int32{id}, report.Acked)
	assert.Equal(t, []int32{99}, report.Forced)
	assert.True(t, c.Stopped())
}
