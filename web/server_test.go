package web

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/graphpaper-lab/roadsim/entity/graph"
	"github.com/graphpaper-lab/roadsim/sim"
	"github.com/graphpaper-lab/roadsim/utils/config"
)

func testServer(t *testing.T) (*Server, *sim.Coordinator) {
	t.Helper()
	g, err := graph.New(&graph.Snapshot{
		Segments: []graph.SegmentDef{
			{ID: 10, Points: [][]float64{{0, 0}, {0, 1000}}},
		},
	})
	require.NoError(t, err)
	rc := config.NewRuntimeConfig(config.Config{
		Control: config.Control{
			Step:    config.ControlStep{TickInterval: 0.01, FrameInterval: 0.05},
			Vehicle: config.Vehicle{StopLineRatio: 0.8, DefaultSpeed: 10},
		},
	})
	coord := sim.NewCoordinator(g, rc)
	return NewServer(coord, rc), coord
}

func TestVehiclesEndpointServesLastFrame(t *testing.T) {
	s, coord := testServer(t)
	defer coord.Stop(time.Second)

	s.storeFrame(coord.Drain())

	rec := httptest.NewRecorder()
	s.handleVehicles(rec, httptest.NewRequest(http.MethodGet, "/api/vehicles", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var f sim.Frame
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&f))
	assert.Equal(t, coord.RunID(), f.Run)
}

func TestVehiclesEndpointRejectsWrites(t *testing.T) {
	s, coord := testServer(t)
	defer coord.Stop(time.Second)

	rec := httptest.NewRecorder()
	s.handleVehicles(rec, httptest.NewRequest(http.MethodPost, "/api/vehicles", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}
