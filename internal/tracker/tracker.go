// Package tracker provides the consumers a controller offers sampled
// states to.
package tracker

import (
	"errors"
	"math"
	"sync"

	"github.com/san-kum/gridpde/internal/dynamo"
)

// Interval schedules samples every fixed span of simulation time.
type Interval struct {
	every float64
	next  float64
}

// NewInterval starts a schedule at t0. A non-positive span makes every
// time due.
func NewInterval(t0, every float64) *Interval {
	return &Interval{every: every, next: t0}
}

// Due reports whether t has reached the next sample time and, if so,
// advances the schedule past t.
func (iv *Interval) Due(t float64) bool {
	if iv.every <= 0 {
		return true
	}
	if t < iv.next-timeEpsilon(iv.next) {
		return false
	}
	skip := math.Max(1, math.Floor((t-iv.next)/iv.every+timeEpsilon(1))+1)
	iv.next += skip * iv.every
	return true
}

func (iv *Interval) Next() float64 { return iv.next }

func timeEpsilon(t float64) float64 {
	return 1e-9 * math.Max(1, math.Abs(t))
}

// Memory keeps every offered state.
type Memory struct {
	mu     sync.Mutex
	times  []float64
	states []dynamo.State
}

func NewMemory() *Memory { return &Memory{} }

func (m *Memory) Handle(x dynamo.State, t float64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.times = append(m.times, t)
	m.states = append(m.states, x.Clone())
	return nil
}

func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.times)
}

// Times returns a copy of the sample times.
func (m *Memory) Times() []float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]float64(nil), m.times...)
}

// States returns the recorded states. They are owned by the tracker and
// must not be modified.
func (m *Memory) States() []dynamo.State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]dynamo.State(nil), m.states...)
}

func (m *Memory) Last() (dynamo.State, float64, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.times) == 0 {
		return nil, 0, false
	}
	return m.states[len(m.states)-1], m.times[len(m.times)-1], true
}

func (m *Memory) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.times = m.times[:0]
	m.states = m.states[:0]
}

// Metrics feeds every offered state to a set of metrics.
type Metrics struct {
	metrics []dynamo.Metric
}

func NewMetrics(ms ...dynamo.Metric) *Metrics {
	return &Metrics{metrics: ms}
}

func (m *Metrics) Handle(x dynamo.State, t float64) error {
	for _, mt := range m.metrics {
		mt.Observe(x, t)
	}
	return nil
}

// Values returns the current value of every metric by name.
func (m *Metrics) Values() map[string]float64 {
	out := make(map[string]float64, len(m.metrics))
	for _, mt := range m.metrics {
		out[mt.Name()] = mt.Value()
	}
	return out
}

func (m *Metrics) Reset() {
	for _, mt := range m.metrics {
		mt.Reset()
	}
}

// Multi offers every state to all trackers. A stop request from one
// tracker does not keep the others from seeing the state.
type Multi []dynamo.Tracker

func (m Multi) Handle(x dynamo.State, t float64) error {
	stop := false
	for _, tr := range m {
		if err := tr.Handle(x, t); err != nil {
			if !errors.Is(err, dynamo.ErrStopIteration) {
				return err
			}
			stop = true
		}
	}
	if stop {
		return dynamo.ErrStopIteration
	}
	return nil
}

// SteadyState stops a run once no entry changes faster than the given
// rate between two samples.
type SteadyState struct {
	atol, rtol float64
	prev       dynamo.State
	prevT      float64
}

func NewSteadyState(atol, rtol float64) *SteadyState {
	return &SteadyState{atol: atol, rtol: rtol}
}

func (s *SteadyState) Handle(x dynamo.State, t float64) error {
	if s.prev == nil || t <= s.prevT {
		s.prev, s.prevT = x.Clone(), t
		return nil
	}
	dt := t - s.prevT
	steady := true
	for i, v := range x {
		rate := math.Abs(v-s.prev[i]) / dt
		if rate > s.atol+s.rtol*math.Abs(v) {
			steady = false
			break
		}
	}
	copy(s.prev, x)
	s.prevT = t
	if steady {
		return dynamo.ErrStopIteration
	}
	return nil
}

// Sample is one progress update.
type Sample struct {
	T   float64
	Max float64
	Min float64
	// Profile is the state averaged down to a fixed number of points, or
	// nil.
	Profile []float64
}

// Progress forwards a summary of every offered state to a channel without
// blocking; updates are dropped while the receiver is busy.
type Progress struct {
	ch     chan<- Sample
	points int
}

func NewProgress(ch chan<- Sample) *Progress {
	return &Progress{ch: ch}
}

// WithProfile attaches a profile of n points to every sample.
func (p *Progress) WithProfile(n int) *Progress {
	p.points = n
	return p
}

func (p *Progress) Handle(x dynamo.State, t float64) error {
	s := Sample{T: t, Max: math.Inf(-1), Min: math.Inf(1)}
	for _, v := range x {
		s.Max = math.Max(s.Max, v)
		s.Min = math.Min(s.Min, v)
	}
	if p.points > 0 && len(x) > 0 {
		s.Profile = downsample(x, p.points)
	}
	select {
	case p.ch <- s:
	default:
	}
	return nil
}

// downsample averages x into n consecutive bins.
func downsample(x dynamo.State, n int) []float64 {
	n = min(n, len(x))
	out := make([]float64, n)
	for i := range out {
		lo, hi := i*len(x)/n, (i+1)*len(x)/n
		sum := 0.0
		for _, v := range x[lo:hi] {
			sum += v
		}
		out[i] = sum / float64(hi-lo)
	}
	return out
}
