// Package web exposes the renderer-facing surface of a run: a
// websocket feed of frames plus a small JSON control API. It is the
// only outward interface of the core; drawing stays on the client.
package web

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/graphpaper-lab/roadsim/entity/route"
	"github.com/graphpaper-lab/roadsim/planner"
	"github.com/graphpaper-lab/roadsim/sim"
	"github.com/graphpaper-lab/roadsim/utils/config"
)

var log = logrus.WithField("module", "web")

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Server pushes frames to websocket clients and accepts control
// requests. Frames are produced by draining the coordinator once per
// frame interval, independent of the agent tick rate.
type Server struct {
	coord *sim.Coordinator
	rc    *config.RuntimeConfig

	clients      map[string]*websocket.Conn
	clientsMutex sync.Mutex

	// most recent frame produced by the broadcast loop; /api/vehicles
	// serves this instead of draining the coordinator a second time
	lastFrame  sim.Frame
	frameMutex sync.RWMutex

	srv    *http.Server
	cancel context.CancelFunc
}

// NewServer wires a server to a running coordinator.
func NewServer(coord *sim.Coordinator, rc *config.RuntimeConfig) *Server {
	return &Server{
		coord:   coord,
		rc:      rc,
		clients: make(map[string]*websocket.Conn),
	}
}

// Start serves on addr until Shutdown. It blocks.
func (s *Server) Start(addr string) error {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleWs)
	mux.HandleFunc("/api/spawn", s.handleSpawn)
	mux.HandleFunc("/api/route", s.handleRoute)
	mux.HandleFunc("/api/reroute", s.handleReroute)
	mux.HandleFunc("/api/vehicles", s.handleVehicles)
	mux.HandleFunc("/api/stop", s.handleStop)
	s.srv = &http.Server{Addr: addr, Handler: mux}

	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.storeFrame(s.coord.Drain())
	go s.broadcastFrames(ctx)

	log.Infof("renderer feed listening on %s", addr)
	if err := s.srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown stops the broadcast loop and the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.cancel != nil {
		s.cancel()
	}
	if s.srv != nil {
		return s.srv.Shutdown(ctx)
	}
	return nil
}

func (s *Server) handleWs(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Errorf("upgrade failed: %v", err)
		return
	}
	id := uuid.NewString()
	s.clientsMutex.Lock()
	s.clients[id] = conn
	n := len(s.clients)
	s.clientsMutex.Unlock()
	log.Infof("renderer client %s connected (%d total)", id, n)

	// reader loop only to observe disconnects; the feed is one-way
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				s.dropClient(id)
				return
			}
		}
	}()
}

func (s *Server) dropClient(id string) {
	s.clientsMutex.Lock()
	if conn, ok := s.clients[id]; ok {
		conn.Close()
		delete(s.clients, id)
	}
	n := len(s.clients)
	s.clientsMutex.Unlock()
	log.Infof("renderer client %s disconnected (%d left)", id, n)
}

// broadcastFrames drains the coordinator at the frame interval and
// fans the frame out to every connected client.
func (s *Server) broadcastFrames(ctx context.Context) {
	interval := time.Duration(s.rc.C.Step.FrameInterval * float64(time.Second))
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			frame := s.coord.Drain()
			s.storeFrame(frame)
			data, err := json.Marshal(frame)
			if err != nil {
				log.Errorf("frame marshal failed: %v", err)
				continue
			}
			s.clientsMutex.Lock()
			for id, conn := range s.clients {
				if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
					conn.Close()
					delete(s.clients, id)
				}
			}
			s.clientsMutex.Unlock()
		}
	}
}

type spawnRequest struct {
	SegmentID       int32   `json:"segment_id,omitempty"`
	Progress        float64 `json:"progress,omitempty"`
	SpeedMultiplier float64 `json:"speed_multiplier,omitempty"`
	Color           string  `json:"color,omitempty"`
	Route           string  `json:"route,omitempty"`
}

func (s *Server) handleSpawn(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req spawnRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	directives, err := route.Parse(req.Route)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	id, err := s.coord.Spawn(sim.SpawnOptions{
		SegmentID:       req.SegmentID,
		Progress:        req.Progress,
		SpeedMultiplier: req.SpeedMultiplier,
		Color:           req.Color,
		Route:           directives,
	})
	if err != nil {
		http.Error(w, err.Error(), http.StatusConflict)
		return
	}
	writeJSON(w, map[string]any{"vehicle_id": id})
}

type rerouteRequest struct {
	VehicleID int32  `json:"vehicle_id"`
	Route     string `json:"route"`
}

func (s *Server) handleReroute(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req rerouteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	directives, err := route.Parse(req.Route)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err := s.coord.SetRoute(req.VehicleID, directives); err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	writeJSON(w, map[string]any{"vehicle_id": req.VehicleID})
}

type routeRequest struct {
	From int32 `json:"from"`
	To   int32 `json:"to"`
}

func (s *Server) handleRoute(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req routeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	candidates, err := planner.Plan(s.coord.Graph(), req.From, req.To, s.coord.Clock().T(), planner.Options{
		HopLimit:  s.rc.C.Planner.HopLimit,
		BaseSpeed: s.rc.C.Vehicle.DefaultSpeed,
	})
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	writeJSON(w, map[string]any{"candidates": candidates})
}

func (s *Server) storeFrame(f sim.Frame) {
	s.frameMutex.Lock()
	s.lastFrame = f
	s.frameMutex.Unlock()
}

func (s *Server) currentFrame() sim.Frame {
	s.frameMutex.RLock()
	defer s.frameMutex.RUnlock()
	return s.lastFrame
}

func (s *Server) handleVehicles(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, s.currentFrame())
}

func (s *Server) handleStop(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	timeout := time.Duration(s.rc.C.StopTimeout * float64(time.Second))
	report := s.coord.Stop(timeout)
	writeJSON(w, map[string]any{
		"acked":  report.Acked,
		"forced": report.Forced,
	})
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Errorf("response encode failed: %v", err)
	}
}
