// Package graph holds the immutable road network of a simulation run:
// segments, junctions and traffic-light configuration. It is built
// once from the editor's snapshot, validated eagerly, and then only
// read, so agents never need to lock it.
package graph

import (
	"fmt"

	"github.com/paulmach/orb"
	"github.com/samber/lo"
)

// Graph is the validated, read-only road network.
type Graph struct {
	segments  map[int32]*RoadSegment
	junctions map[int32]*Junction
	lights    map[int32]*TrafficLight
}

// New builds and validates a runtime graph from the editor snapshot.
// All configuration errors surface here, before any agent is spawned.
func New(snap *Snapshot) (*Graph, error) {
	g := &Graph{
		segments:  make(map[int32]*RoadSegment, len(snap.Segments)),
		junctions: make(map[int32]*Junction, len(snap.Junctions)),
		lights:    make(map[int32]*TrafficLight, len(snap.Lights)),
	}

	for _, def := range snap.Junctions {
		if _, ok := g.junctions[def.ID]; ok {
			return nil, fmt.Errorf("graph: duplicated junction id %d", def.ID)
		}
		kind, ok := kindNames[def.Kind]
		if !ok {
			return nil, fmt.Errorf("graph: junction %d: unknown kind %q", def.ID, def.Kind)
		}
		if len(def.Position) != 2 {
			return nil, fmt.Errorf("graph: junction %d: position must be [x, y]", def.ID)
		}
		j := &Junction{
			ID:       def.ID,
			Kind:     kind,
			Position: orb.Point{def.Position[0], def.Position[1]},
			Radius:   def.Radius,
			lights:   make(map[approachKey]*TrafficLight),
		}
		if kind != KindLandmark && j.Radius <= 0 {
			return nil, fmt.Errorf("graph: junction %d: kind %s needs a positive radius", def.ID, kind)
		}
		switch def.Rotation {
		case "", "cw":
			j.Rotation = RotationCW
		case "ccw":
			j.Rotation = RotationCCW
		default:
			return nil, fmt.Errorf("graph: junction %d: unknown rotation %q", def.ID, def.Rotation)
		}
		g.junctions[def.ID] = j
	}

	for _, def := range snap.Segments {
		if _, ok := g.segments[def.ID]; ok {
			return nil, fmt.Errorf("graph: duplicated segment id %d", def.ID)
		}
		if len(def.Points) < 2 {
			return nil, fmt.Errorf("graph: segment %d: needs at least 2 points", def.ID)
		}
		for i, p := range def.Points {
			if len(p) != 2 {
				return nil, fmt.Errorf("graph: segment %d: point %d must be [x, y]", def.ID, i)
			}
		}
		s := &RoadSegment{
			ID:           def.ID,
			Points:       orb.LineString(lo.Map(def.Points, func(p []float64, _ int) orb.Point { return orb.Point{p[0], p[1]} })),
			OneWay:       def.OneWay,
			MaxSpeed:     def.MaxSpeed,
			FromJunction: def.From,
			ToJunction:   def.To,
		}
		s.computeLength()
		if s.length <= 0 {
			return nil, fmt.Errorf("graph: segment %d: zero length", def.ID)
		}
		for _, jid := range []int32{def.From, def.To} {
			if jid != 0 {
				if _, ok := g.junctions[jid]; !ok {
					return nil, fmt.Errorf("graph: segment %d: unknown junction %d", def.ID, jid)
				}
			}
		}
		g.segments[def.ID] = s
	}

	// wire departures into the junctions
	for _, s := range g.segments {
		if j := g.junctions[s.FromJunction]; j != nil {
			j.exits = append(j.exits, Exit{Segment: s, Forward: true, Bearing: s.departureHeading(true)})
		}
		if j := g.junctions[s.ToJunction]; j != nil && !s.OneWay {
			j.exits = append(j.exits, Exit{Segment: s, Forward: false, Bearing: s.departureHeading(false)})
		}
	}

	for _, def := range snap.Lights {
		if _, ok := g.lights[def.ID]; ok {
			return nil, fmt.Errorf("graph: duplicated light id %d", def.ID)
		}
		l := &TrafficLight{
			ID:         def.ID,
			JunctionID: def.Junction,
			SegmentID:  def.Segment,
			AtStart:    def.AtStart,
			Cycle:      def.Cycle,
			Offset:     def.Offset,
			Green:      def.Green,
		}
		if err := l.validate(); err != nil {
			return nil, fmt.Errorf("graph: %w", err)
		}
		j, ok := g.junctions[l.JunctionID]
		if !ok {
			return nil, fmt.Errorf("graph: light %d: unknown junction %d", l.ID, l.JunctionID)
		}
		if j.Kind == KindLandmark {
			return nil, fmt.Errorf("graph: light %d: landmark junction %d cannot host a light", l.ID, l.JunctionID)
		}
		s, ok := g.segments[l.SegmentID]
		if !ok {
			return nil, fmt.Errorf("graph: light %d: unknown segment %d", l.ID, l.SegmentID)
		}
		end := s.ToJunction
		if l.AtStart {
			end = s.FromJunction
		}
		if end != l.JunctionID {
			return nil, fmt.Errorf("graph: light %d: segment %d does not end at junction %d", l.ID, l.SegmentID, l.JunctionID)
		}
		key := approachKey{segmentID: l.SegmentID, atStart: l.AtStart}
		if _, ok := j.lights[key]; ok {
			return nil, fmt.Errorf("graph: light %d: approach already has a light", l.ID)
		}
		j.lights[key] = l
		g.lights[l.ID] = l
	}

	return g, nil
}

// Segment looks up a segment by id.
func (g *Graph) Segment(id int32) (*RoadSegment, error) {
	if s, ok := g.segments[id]; ok {
		return s, nil
	}
	return nil, fmt.Errorf("graph: no segment %d", id)
}

// Junction looks up a junction by id.
func (g *Graph) Junction(id int32) (*Junction, error) {
	if j, ok := g.junctions[id]; ok {
		return j, nil
	}
	return nil, fmt.Errorf("graph: no junction %d", id)
}

// Segments returns all segments in unspecified order.
func (g *Graph) Segments() []*RoadSegment {
	return lo.Values(g.segments)
}

// Junctions returns all junctions in unspecified order.
func (g *Graph) Junctions() []*Junction {
	return lo.Values(g.junctions)
}

// Lights returns all traffic lights in unspecified order.
func (g *Graph) Lights() []*TrafficLight {
	return lo.Values(g.lights)
}

// LightFor returns the light governing arrival at the travel end of a
// segment, or nil when that approach is unsignalled.
func (g *Graph) LightFor(segmentID int32, forward bool) *TrafficLight {
	s, ok := g.segments[segmentID]
	if !ok {
		return nil
	}
	j, ok := g.junctions[s.EndJunction(forward)]
	if !ok {
		return nil
	}
	return j.Light(segmentID, !forward)
}
