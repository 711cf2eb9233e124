// Package netio loads the editor's network snapshot into memory. The
// snapshot can come from a JSON file or from a MongoDB collection;
// database loads are cached as JSON on the local filesystem and the
// cache is always tried first.
package netio

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/graphpaper-lab/roadsim/entity/graph"
	"github.com/graphpaper-lab/roadsim/utils/config"
)

var log = logrus.WithField("module", "netio")

// Load fetches the network snapshot described by the input config.
// cacheDir may be empty to disable caching of database loads.
func Load(in config.Input, cacheDir string) (*graph.Snapshot, error) {
	if in.Network.File != "" {
		return loadFile(in.Network.File)
	}
	if !preCheckCache(cacheDir) {
		cacheDir = ""
	}
	if cacheDir != "" {
		cachePath := filepath.Join(cacheDir, in.Network.GetCachePath())
		if _, err := os.Stat(cachePath); err == nil {
			log.Infof("loading network from cache %s", cachePath)
			return loadFile(cachePath)
		}
	}
	snap, err := loadMongo(in)
	if err != nil {
		return nil, err
	}
	if cacheDir != "" {
		cachePath := filepath.Join(cacheDir, in.Network.GetCachePath())
		if err := writeCache(cachePath, snap); err != nil {
			log.Errorf("failed to write network cache: %v", err)
		}
	}
	return snap, nil
}

func loadFile(path string) (*graph.Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("netio: read %s: %w", path, err)
	}
	var snap graph.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("netio: decode %s: %w", path, err)
	}
	return &snap, nil
}

func loadMongo(in config.Input) (*graph.Snapshot, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	log.Infof("start fetching network from %s.%s", in.Network.DB, in.Network.Col)
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(in.URI))
	if err != nil {
		return nil, fmt.Errorf("netio: connect: %w", err)
	}
	defer client.Disconnect(context.Background())

	var snap graph.Snapshot
	coll := client.Database(in.Network.DB).Collection(in.Network.Col)
	if err := coll.FindOne(ctx, bson.D{}).Decode(&snap); err != nil {
		return nil, fmt.Errorf("netio: fetch %s.%s: %w", in.Network.DB, in.Network.Col, err)
	}
	log.Infof("finish fetching network from %s.%s", in.Network.DB, in.Network.Col)
	return &snap, nil
}

func writeCache(path string, snap *graph.Snapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// preCheckCache decides whether the cache directory is usable.
func preCheckCache(cacheDir string) bool {
	if cacheDir == "" {
		log.Info("disable network cache")
		return false
	}
	if stat, err := os.Stat(cacheDir); err == nil && stat.IsDir() {
		log.Infof("enable network cache at %s", cacheDir)
		return true
	}
	log.Errorf("disable network cache because invalid dir %s (not exist or file)", cacheDir)
	return false
}
