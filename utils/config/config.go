package config

// RuntimeConfig carries the validated configuration plus the control
// section that most components care about, so they do not have to walk
// the whole tree.
type RuntimeConfig struct {
	All Config  // full configuration
	C   Control // control section shortcut
}

// NewRuntimeConfig builds the runtime view of a configuration, filling
// in defaults for optional fields.
func NewRuntimeConfig(config Config) *RuntimeConfig {
	rc := &RuntimeConfig{}

	rc.All = config
	rc.C = config.Control
	if rc.C.StopTimeout <= 0 {
		rc.C.StopTimeout = 2
	}
	if rc.C.Planner.HopLimit == 0 {
		rc.C.Planner.HopLimit = 4
	}

	return rc
}
