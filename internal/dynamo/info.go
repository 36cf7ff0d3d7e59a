package dynamo

import "time"

// Info collects solver diagnostics. It is updated incrementally while a
// run is in progress and is read-only afterwards.
type Info struct {
	Solver      string
	Scheme      string
	Backend     string
	Adaptive    bool
	Stochastic  bool
	Steps       int
	Accepted    int
	Rejected    int
	Evaluations int
	Dt          float64
	DtNext      float64
	TFinal      float64
	Duration    time.Duration
	StopReason  string

	// Modifications accumulates the corrections reported by a Modifier.
	Modifications float64
}

// Map returns the diagnostics as a loosely typed mapping.
func (i Info) Map() map[string]any {
	return map[string]any{
		"solver":         i.Solver,
		"scheme":         i.Scheme,
		"backend":        i.Backend,
		"adaptive":       i.Adaptive,
		"stochastic":     i.Stochastic,
		"steps":          i.Steps,
		"steps_accepted": i.Accepted,
		"steps_rejected": i.Rejected,
		"evaluations":    i.Evaluations,
		"modifications":  i.Modifications,
		"dt":             i.Dt,
		"dt_next":        i.DtNext,
		"t_final":        i.TFinal,
		"duration":       i.Duration.Seconds(),
		"stop_reason":    i.StopReason,
	}
}
