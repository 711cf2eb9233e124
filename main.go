package main

import (
	"context"
	"encoding/base64"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	easy "git.fiblab.net/utils/logrus-easy-formatter"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v2"

	"github.com/graphpaper-lab/roadsim/entity/graph"
	"github.com/graphpaper-lab/roadsim/netio"
	"github.com/graphpaper-lab/roadsim/sim"
	"github.com/graphpaper-lab/roadsim/utils/config"
	"github.com/graphpaper-lab/roadsim/web"
)

var (
	// configuration file path
	configPath = flag.String("config", "", "config file path")
	// configuration file passed inline, base64 encoded
	configData = flag.String("config-data", "", "config file base64 encoded data")
	// network cache dir for database loads, empty disables caching
	cacheDir = flag.String("cache", "data/", "network cache dir path (empty means disable cache)")

	// log
	logLevels = map[string]logrus.Level{
		"trace":    logrus.TraceLevel,
		"debug":    logrus.DebugLevel,
		"info":     logrus.InfoLevel,
		"warn":     logrus.WarnLevel,
		"error":    logrus.ErrorLevel,
		"critical": logrus.FatalLevel,
		"off":      logrus.PanicLevel,
	}
	logLevel = flag.String("log.level", "info", "log level (one of: trace debug info warn error critical off)")

	heartbeatInterval = flag.Duration("log.heartbeat_interval", 30*time.Second, "heartbeat log interval")

	log = logrus.WithField("module", "roadsim")
)

func main() {
	flag.Parse()
	logrus.SetFormatter(&easy.Formatter{
		TimestampFormat: "2006-01-02 15:04:05.0000",
		LogFormat:       "[%module%] [%time%] [%lvl%] %msg%\n",
	})
	if level, ok := logLevels[*logLevel]; ok {
		logrus.SetLevel(level)
	} else {
		log.Panicf("log.level must be one of %v", logLevels)
	}

	// configuration
	var c config.Config
	var file []byte
	var err error
	if *configPath != "" {
		file, err = os.ReadFile(*configPath)
		if err != nil {
			log.Panicf("config file load err: %v", err)
		}
	} else if *configData != "" {
		file, err = base64.StdEncoding.DecodeString(*configData)
		if err != nil {
			log.Panicf("config data load err: %v", err)
		}
	} else {
		log.Panic("config file or config data must be specified")
	}
	if err := yaml.UnmarshalStrict(file, &c); err != nil {
		log.Panicf("config file load err: %v", err)
	}
	if err := c.Validate(); err != nil {
		log.Panicf("invalid config: %v", err)
	}
	rc := config.NewRuntimeConfig(c)
	log.Infof("%+v", c)

	// network snapshot, validated before anything is spawned
	snap, err := netio.Load(c.Input, *cacheDir)
	if err != nil {
		log.Panicf("network load err: %v", err)
	}
	g, err := graph.New(snap)
	if err != nil {
		log.Panicf("network build err: %v", err)
	}
	log.Infof("network ready: %d segments, %d junctions, %d lights",
		len(g.Segments()), len(g.Junctions()), len(g.Lights()))

	coord := sim.NewCoordinator(g, rc)
	for i := 0; i < rc.C.SpawnCount; i++ {
		if _, err := coord.Spawn(sim.SpawnOptions{}); err != nil {
			log.Panicf("initial spawn err: %v", err)
		}
	}

	var server *web.Server
	if c.Web.Addr != "" {
		server = web.NewServer(coord, rc)
		go func() {
			if err := server.Start(c.Web.Addr); err != nil {
				log.Panicf("web server err: %v", err)
			}
		}()
	}

	signals := make(chan os.Signal, 1)
	signal.Notify(signals, syscall.SIGINT, syscall.SIGTERM)
	heartbeat := time.NewTicker(*heartbeatInterval)
	defer heartbeat.Stop()
	for {
		select {
		case <-heartbeat.C:
			log.Infof("T=%s vehicles=%d", coord.Clock(), coord.VehicleCount())
		case <-signals:
			log.Info("shutdown signal received")
			report := coord.Stop(time.Duration(rc.C.StopTimeout * float64(time.Second)))
			if len(report.Forced) > 0 {
				log.Errorf("%d agents reclaimed after timeout", len(report.Forced))
			}
			if server != nil {
				ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
				_ = server.Shutdown(ctx)
				cancel()
			}
			log.Info("engine complete")
			return
		}
	}
}
