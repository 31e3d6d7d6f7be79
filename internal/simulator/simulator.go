// Package simulator owns the synthetic motor state: scalar motor readings,
// four rolling sensor windows, the fault-probability vector and the
// recommendations derived from it.
//
// Only the goroutine running Run advances simulated time. Everything else
// reads copies through Snapshot or changes the motor status through
// SetMotorStatus and the control helpers.
package simulator

import (
	"context"
	"errors"
	"math/rand"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/ANIKETSHETTY47/motor-condition-monitor/internal/diagnosis"
	"github.com/ANIKETSHETTY47/motor-condition-monitor/internal/domain"
)

const (
	DefaultTickInterval       = 2 * time.Second
	DefaultWindowSize         = 10
	DefaultFaultInjectionRate = 0.01

	// injectedBearingProbability is what a forced fault event sets the
	// bearing probability to.
	injectedBearingProbability = 85
)

var (
	ErrMotorFaulted = errors.New("motor is in fault state; reset it first")
	ErrNotFaulted   = errors.New("motor is not in fault state")
)

// Publisher receives every snapshot the simulator produces, in sequence
// order. Publish must not block or call back into the simulator.
type Publisher interface {
	Publish(domain.Snapshot)
}

type Config struct {
	MotorID            string
	TickInterval       time.Duration
	WindowSize         int
	FaultInjectionRate float64
	Source             Source
	Now                func() time.Time
	Publisher          Publisher
}

// DefaultConfig returns the stock two-second simulation with a time-seeded
// random source.
func DefaultConfig() Config {
	return Config{
		MotorID:            "motor-001",
		TickInterval:       DefaultTickInterval,
		WindowSize:         DefaultWindowSize,
		FaultInjectionRate: DefaultFaultInjectionRate,
	}
}

type Simulator struct {
	cfg  Config
	wake chan struct{}

	// pubMu is taken before mu is released so publications leave in
	// sequence order. Publishers must not call back into the simulator.
	pubMu sync.Mutex

	mu           sync.RWMutex
	status       domain.MotorStatus
	motor        domain.MotorData
	sensors      domain.SensorData
	faults       domain.FaultData
	recs         []domain.Recommendation
	seq          uint64
	runningHours float64
}

// New builds a simulator in the idle state with the stock initial readings.
func New(cfg Config) *Simulator {
	if cfg.MotorID == "" {
		cfg.MotorID = "motor-001"
	}
	if cfg.TickInterval <= 0 {
		cfg.TickInterval = DefaultTickInterval
	}
	if cfg.WindowSize <= 0 {
		cfg.WindowSize = DefaultWindowSize
	}
	if cfg.Source == nil {
		cfg.Source = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	s := &Simulator{
		cfg:    cfg,
		wake:   make(chan struct{}, 1),
		status: domain.MotorIdle,
		motor: domain.MotorData{
			Load:        65,
			Speed:       1500,
			Temperature: 42,
			Efficiency:  87,
		},
	}

	now := cfg.Now()
	src := cfg.Source
	s.sensors = domain.SensorData{
		Current:     initialWindow(src, currentChannel, cfg.WindowSize, now, cfg.TickInterval),
		Voltage:     initialWindow(src, voltageChannel, cfg.WindowSize, now, cfg.TickInterval),
		Temperature: initialWindow(src, temperatureChannel, cfg.WindowSize, now, cfg.TickInterval),
		Vibration:   initialWindow(src, vibrationChannel, cfg.WindowSize, now, cfg.TickInterval),
	}
	s.faults, s.recs = diagnosis.Evaluate(initialFaults())
	return s
}

func initialFaults() []domain.Fault {
	return []domain.Fault{
		{Type: domain.BearingFault, Probability: 15, Description: "Potential early signs of bearing wear detected."},
		{Type: domain.StatorWinding, Probability: 8, Description: "Stator winding condition is normal."},
		{Type: domain.RotorImbalance, Probability: 32, Description: "Minor rotor imbalance detected. Monitor for changes."},
		{Type: domain.VoltageImbalance, Probability: 5, Description: "Voltage supply is balanced and within normal parameters."},
	}
}

func (s *Simulator) MotorID() string { return s.cfg.MotorID }

func (s *Simulator) TickInterval() time.Duration { return s.cfg.TickInterval }

// Run drives the tick timer until ctx is done. A ticker exists only while
// the motor is running; it is stopped on every status change away from
// running and on return.
func (s *Simulator) Run(ctx context.Context) {
	var (
		ticker *time.Ticker
		tick   <-chan time.Time
	)
	stop := func() {
		if ticker != nil {
			ticker.Stop()
			ticker, tick = nil, nil
		}
	}
	defer stop()

	reschedule := func() {
		stop()
		if s.Status() == domain.MotorRunning {
			ticker = time.NewTicker(s.cfg.TickInterval)
			tick = ticker.C
		}
	}
	reschedule()

	log.Info().Str("motor", s.cfg.MotorID).Dur("interval", s.cfg.TickInterval).Msg("simulator started")
	for {
		select {
		case <-ctx.Done():
			log.Info().Str("motor", s.cfg.MotorID).Msg("simulator stopped")
			return
		case <-s.wake:
			reschedule()
		case <-tick:
			if s.Status() != domain.MotorRunning {
				reschedule()
				continue
			}
			s.Tick()
		}
	}
}

// Tick advances the simulation by one step and returns the resulting
// snapshot. Run calls it on every timer fire; it must not be called
// concurrently with a running Run loop.
func (s *Simulator) Tick() domain.Snapshot {
	src := s.cfg.Source

	s.mu.Lock()
	now := s.cfg.Now()

	s.motor = domain.MotorData{
		Load:        loadWalk.Step(src, s.motor.Load),
		Speed:       speedWalk.Step(src, s.motor.Speed),
		Temperature: temperatureWalk.Step(src, s.motor.Temperature),
		Efficiency:  efficiencyWalk.Step(src, s.motor.Efficiency),
	}

	s.sensors = domain.SensorData{
		Current:     slide(src, currentChannel, s.sensors.Current, now),
		Voltage:     slide(src, voltageChannel, s.sensors.Voltage, now),
		Temperature: slide(src, temperatureChannel, s.sensors.Temperature, now),
		Vibration:   slide(src, vibrationChannel, s.sensors.Vibration, now),
	}

	faults := make([]domain.Fault, len(s.faults.Faults))
	for i, f := range s.faults.Faults {
		f.Probability = probabilityWalk.Step(src, f.Probability)
		faults[i] = f
	}

	injected := src.Float64() < s.cfg.FaultInjectionRate
	if injected {
		s.status = domain.MotorFault
		for i := range faults {
			if faults[i].Type == domain.BearingFault {
				faults[i].Probability = injectedBearingProbability
			}
		}
	}

	s.faults, s.recs = diagnosis.Evaluate(faults)
	s.runningHours += s.cfg.TickInterval.Hours()
	s.seq++
	snap := s.snapshotLocked(now)
	s.pubMu.Lock()
	s.mu.Unlock()

	if injected {
		log.Warn().Str("motor", s.cfg.MotorID).Uint64("sequence", snap.Sequence).Msg("fault injected: bearing failure")
		s.signal()
	}
	s.publish(snap)
	return snap
}

// Status returns the current motor status.
func (s *Simulator) Status() domain.MotorStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.status
}

// SetMotorStatus is the sole unconditional mutation entry point. Setting
// the current status again is a no-op.
func (s *Simulator) SetMotorStatus(status domain.MotorStatus) {
	_ = s.transition(func(domain.MotorStatus) (domain.MotorStatus, error) {
		return status, nil
	})
}

// Start moves the motor to running. A faulted motor must be reset first.
func (s *Simulator) Start() error {
	return s.transition(func(cur domain.MotorStatus) (domain.MotorStatus, error) {
		if cur == domain.MotorFault {
			return cur, ErrMotorFaulted
		}
		return domain.MotorRunning, nil
	})
}

// Stop pauses the motor.
func (s *Simulator) Stop() error {
	return s.transition(func(cur domain.MotorStatus) (domain.MotorStatus, error) {
		if cur == domain.MotorFault {
			return cur, ErrMotorFaulted
		}
		return domain.MotorIdle, nil
	})
}

// EmergencyStop forces the fault state from any status.
func (s *Simulator) EmergencyStop() {
	s.SetMotorStatus(domain.MotorFault)
}

// Reset clears a fault back to idle.
func (s *Simulator) Reset() error {
	return s.transition(func(cur domain.MotorStatus) (domain.MotorStatus, error) {
		if cur != domain.MotorFault {
			return cur, ErrNotFaulted
		}
		return domain.MotorIdle, nil
	})
}

func (s *Simulator) transition(next func(domain.MotorStatus) (domain.MotorStatus, error)) error {
	s.mu.Lock()
	prev := s.status
	status, err := next(prev)
	if err != nil || status == prev {
		s.mu.Unlock()
		return err
	}
	s.status = status
	s.seq++
	snap := s.snapshotLocked(s.cfg.Now())
	s.pubMu.Lock()
	s.mu.Unlock()

	log.Info().Str("motor", s.cfg.MotorID).Str("from", string(prev)).Str("to", string(status)).Msg("motor status changed")
	s.signal()
	s.publish(snap)
	return nil
}

func (s *Simulator) signal() {
	select {
	case s.wake <- struct{}{}:
	default:
	}
}

// publish hands snap to the publisher and releases pubMu.
func (s *Simulator) publish(snap domain.Snapshot) {
	defer s.pubMu.Unlock()
	if s.cfg.Publisher != nil {
		s.cfg.Publisher.Publish(snap)
	}
}

// Snapshot returns a deep copy of the current state.
func (s *Simulator) Snapshot() domain.Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshotLocked(s.cfg.Now())
}

func (s *Simulator) snapshotLocked(now time.Time) domain.Snapshot {
	return domain.Snapshot{
		MotorID:     s.cfg.MotorID,
		Sequence:    s.seq,
		Timestamp:   now,
		MotorStatus: s.status,
		MotorData:   s.motor,
		SensorData: domain.SensorData{
			Current:     append([]domain.SensorPoint(nil), s.sensors.Current...),
			Voltage:     append([]domain.SensorPoint(nil), s.sensors.Voltage...),
			Temperature: append([]domain.SensorPoint(nil), s.sensors.Temperature...),
			Vibration:   append([]domain.SensorPoint(nil), s.sensors.Vibration...),
		},
		FaultData: domain.FaultData{
			Status: s.faults.Status,
			Faults: append([]domain.Fault(nil), s.faults.Faults...),
		},
		Recommendations: append([]domain.Recommendation(nil), s.recs...),
		RunningHours:    s.runningHours,
	}
}
