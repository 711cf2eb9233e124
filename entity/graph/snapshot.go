package graph

// The snapshot types mirror the JSON document the road-network editor
// persists. The loader decodes straight into them (from file or
// MongoDB) and New turns them into the immutable runtime graph.

// SegmentDef is the serialized form of one road segment.
type SegmentDef struct {
	ID       int32       `json:"id" bson:"id"`
	Points   [][]float64 `json:"points" bson:"points"`
	OneWay   bool        `json:"one_way,omitempty" bson:"one_way,omitempty"`
	MaxSpeed float64     `json:"max_speed,omitempty" bson:"max_speed,omitempty"`
	From     int32       `json:"from,omitempty" bson:"from,omitempty"`
	To       int32       `json:"to,omitempty" bson:"to,omitempty"`
}

// JunctionDef is the serialized form of one junction.
type JunctionDef struct {
	ID       int32     `json:"id" bson:"id"`
	Kind     string    `json:"kind" bson:"kind"`
	Position []float64 `json:"position" bson:"position"`
	Radius   float64   `json:"radius,omitempty" bson:"radius,omitempty"`
	Rotation string    `json:"rotation,omitempty" bson:"rotation,omitempty"` // cw or ccw, roundabouts only
}

// LightDef is the serialized form of one traffic light.
type LightDef struct {
	ID       int32   `json:"id" bson:"id"`
	Junction int32   `json:"junction" bson:"junction"`
	Segment  int32   `json:"segment" bson:"segment"`
	AtStart  bool    `json:"at_start,omitempty" bson:"at_start,omitempty"`
	Cycle    float64 `json:"cycle_time" bson:"cycle_time"`
	Offset   float64 `json:"phase_offset,omitempty" bson:"phase_offset,omitempty"`
	Green    float64 `json:"green_time" bson:"green_time"`
}

// Snapshot is the finalized network description handed over by the
// editor immediately before a run starts.
type Snapshot struct {
	Segments  []SegmentDef  `json:"segments" bson:"segments"`
	Junctions []JunctionDef `json:"junctions,omitempty" bson:"junctions,omitempty"`
	Lights    []LightDef    `json:"lights,omitempty" bson:"lights,omitempty"`
}
