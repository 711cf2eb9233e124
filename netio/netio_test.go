package netio_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/graphpaper-lab/roadsim/netio"
	"github.com/graphpaper-lab/roadsim/utils/config"
)

const snapshotJSON = `{
	"junctions": [
		{"id": 1, "kind": "crossroads", "position": [0, 100], "radius": 6}
	],
	"segments": [
		{"id": 10, "points": [[0, 0], [0, 100]], "to": 1},
		{"id": 11, "points": [[0, 100], [0, 200]], "from": 1, "one_way": true}
	],
	"lights": [
		{"id": 100, "junction": 1, "segment": 10, "cycle_time": 30, "green_time": 20}
	]
}`

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "network.json")
	require.NoError(t, os.WriteFile(path, []byte(snapshotJSON), 0o644))

	snap, err := netio.Load(config.Input{Network: config.InputPath{File: path}}, "")
	require.NoError(t, err)

	require.Len(t, snap.Junctions, 1)
	assert.Equal(t, "crossroads", snap.Junctions[0].Kind)
	require.Len(t, snap.Segments, 2)
	assert.Equal(t, int32(1), snap.Segments[0].To)
	assert.True(t, snap.Segments[1].OneWay)
	require.Len(t, snap.Lights, 1)
	assert.Equal(t, 30.0, snap.Lights[0].Cycle)
	assert.Equal(t, 20.0, snap.Lights[0].Green)
}

func TestLoadFromFileErrors(t *testing.T) {
	_, err := netio.Load(config.Input{Network: config.InputPath{File: "/no/such/file.json"}}, "")
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))
	_, err = netio.Load(config.Input{Network: config.InputPath{File: path}}, "")
	assert.Error(t, err)
}

func TestCacheHitSkipsDatabase(t *testing.T) {
	dir := t.TempDir()
	in := config.Input{
		URI:     "mongodb://unreachable.invalid:27017",
		Network: config.InputPath{DB: "roads", Col: "main"},
	}
	require.NoError(t, os.WriteFile(filepath.Join(dir, in.Network.GetCachePath()), []byte(snapshotJSON), 0o644))

	// a cache hit must not touch the (unreachable) database
	snap, err := netio.Load(in, dir)
	require.NoError(t, err)
	assert.Len(t, snap.Segments, 2)
}

func TestGetCachePath(t *testing.T) {
	assert.Equal(t, "roads.main.json", config.InputPath{DB: "roads", Col: "main"}.GetCachePath())
	assert.Equal(t, "override.json", config.InputPath{DB: "roads", Col: "main", Cache: "override.json"}.GetCachePath())
}
