// Package monitor simulates a live threat monitor. Nothing here observes
// real traffic: counters and alerts are perturbed at random on every tick.
package monitor

import (
	"context"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"cyberguard/internal/metrics"
	"cyberguard/internal/scheduler"
)

type State struct {
	Variant        string    `json:"variant"`
	BlockedCount   int       `json:"blocked_count"`
	FilesMonitored int       `json:"files_monitored"`
	ActiveThreats  int       `json:"active_threats"`
	ThreatCap      int       `json:"threat_cap"`
	ThreatLevel    string    `json:"threat_level"`
	Alerts         []string  `json:"alerts"`
	UpdatedAt      time.Time `json:"updated_at"`
}

const (
	LevelLow      = "LOW"
	LevelElevated = "ELEVATED"
	LevelHigh     = "HIGH"
)

// Level grades active threats against the cap.
func Level(active, limit int) string {
	switch {
	case active <= 0 || limit <= 0:
		return LevelLow
	case active*2 <= limit:
		return LevelElevated
	default:
		return LevelHigh
	}
}

func (s State) clone() State {
	s.Alerts = append([]string(nil), s.Alerts...)
	s.ThreatLevel = Level(s.ActiveThreats, s.ThreatCap)
	return s
}

type Simulator struct {
	variant  Variant
	interval time.Duration
	logger   zerolog.Logger
	now      func() time.Time

	mu        sync.Mutex
	rnd       *rand.Rand
	state     State
	observers map[chan State]struct{}
	handle    *Handle
}

type Option func(*Simulator)

// WithRand sets the random source. Tests pass a seeded source.
func WithRand(r *rand.Rand) Option {
	return func(s *Simulator) { s.rnd = r }
}

// WithInterval overrides the variant's tick period.
func WithInterval(d time.Duration) Option {
	return func(s *Simulator) {
		if d > 0 {
			s.interval = d
		}
	}
}

func WithLogger(l zerolog.Logger) Option {
	return func(s *Simulator) { s.logger = l }
}

func WithClock(now func() time.Time) Option {
	return func(s *Simulator) { s.now = now }
}

func New(v Variant, opts ...Option) (*Simulator, error) {
	if err := v.validate(); err != nil {
		return nil, err
	}
	s := &Simulator{
		variant:   v,
		interval:  v.Interval,
		logger:    zerolog.Nop(),
		now:       time.Now,
		rnd:       rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())),
		observers: make(map[chan State]struct{}),
	}
	for _, o := range opts {
		o(s)
	}
	s.state = v.initialState()
	s.state.UpdatedAt = s.now()
	return s, nil
}

func (s *Simulator) Variant() Variant { return s.variant }

func (s *Simulator) Interval() time.Duration { return s.interval }

// Snapshot returns a copy of the current state.
func (s *Simulator) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.clone()
}

// Tick applies one simulated update and notifies observers.
func (s *Simulator) Tick() State {
	s.mu.Lock()
	v := s.variant
	st := &s.state

	if v.BlockedStep > 0 {
		st.BlockedCount += s.rnd.IntN(v.BlockedStep)
	}
	if v.FilesStep > 0 {
		st.FilesMonitored += s.rnd.IntN(v.FilesStep)
	}
	if s.rnd.Float64() < v.ThreatAdjustProbability {
		delta := -1
		if s.rnd.Float64() < 0.5 {
			delta = 1
		}
		st.ActiveThreats = clamp(st.ActiveThreats+delta, 0, v.ThreatCap)
	}
	if s.rnd.Float64() < v.AlertProbability {
		alert := v.Alerts[s.rnd.IntN(len(v.Alerts))]
		st.Alerts = pushAlert(st.Alerts, alert)
	}
	st.UpdatedAt = s.now()

	snap := st.clone()
	for ch := range s.observers {
		deliver(ch, snap)
	}
	s.mu.Unlock()

	metrics.MonitorTicks.WithLabelValues(v.Name).Inc()
	return snap
}

// pushAlert prepends alert and evicts the oldest entries past AlertLogSize.
func pushAlert(log []string, alert string) []string {
	n := len(log) + 1
	if n > AlertLogSize {
		n = AlertLogSize
	}
	out := make([]string, n)
	out[0] = alert
	copy(out[1:], log)
	return out
}

func clamp(v, lo, hi int) int {
	return max(lo, min(hi, v))
}

// deliver replaces any undelivered state so observers always get the latest.
func deliver(ch chan State, st State) {
	select {
	case ch <- st:
		return
	default:
	}
	select {
	case <-ch:
	default:
	}
	select {
	case ch <- st:
	default:
	}
}

// Subscribe registers an observer that receives the state after each tick.
// The returned func unregisters it and closes the channel.
func (s *Simulator) Subscribe() (<-chan State, func()) {
	ch := make(chan State, 1)
	s.mu.Lock()
	s.observers[ch] = struct{}{}
	s.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.observers, ch)
			s.mu.Unlock()
			close(ch)
		})
	}
}

// Handle is the running monitor's scoped lifetime. Stop is idempotent.
type Handle struct {
	sched *scheduler.Scheduler
	done  chan struct{}
	once  sync.Once
}

func (h *Handle) Stop() {
	h.once.Do(func() {
		h.sched.Stop()
		close(h.done)
	})
}

// Done is closed once the handle has stopped.
func (h *Handle) Done() <-chan struct{} { return h.done }

// Start resets the state to the variant defaults and begins ticking. The
// returned handle stops on Stop or when ctx is cancelled, whichever is first.
// Starting again stops the previous run.
func (s *Simulator) Start(ctx context.Context) (*Handle, error) {
	sched := scheduler.New(s.logger)
	h := &Handle{sched: sched, done: make(chan struct{})}

	if err := sched.Every(s.interval, "monitor-"+s.variant.Name, func(context.Context) { s.Tick() }); err != nil {
		return nil, err
	}

	s.mu.Lock()
	prev := s.handle
	s.handle = h
	s.mu.Unlock()
	if prev != nil {
		prev.Stop()
	}

	s.mu.Lock()
	s.state = s.variant.initialState()
	s.state.UpdatedAt = s.now()
	s.mu.Unlock()

	sched.Start()
	go func() {
		select {
		case <-ctx.Done():
			h.Stop()
		case <-h.done:
		}
	}()

	s.logger.Info().Str("variant", s.variant.Name).Dur("interval", s.interval).Msg("threat monitor started")
	return h, nil
}

// Run starts the monitor and blocks until ctx is cancelled.
func (s *Simulator) Run(ctx context.Context) error {
	h, err := s.Start(ctx)
	if err != nil {
		return err
	}
	defer h.Stop()
	<-ctx.Done()
	s.logger.Info().Str("variant", s.variant.Name).Msg("threat monitor stopped")
	return nil
}
