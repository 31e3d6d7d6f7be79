package simulator

import (
	"context"
	"math/rand"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ANIKETSHETTY47/motor-condition-monitor/internal/diagnosis"
	"github.com/ANIKETSHETTY47/motor-condition-monitor/internal/domain"
)

// constSource returns the same draw every time. 0.5 means "no change".
type constSource float64

func (c constSource) Float64() float64 { return float64(c) }

type recorder struct {
	mu    sync.Mutex
	snaps []domain.Snapshot
}

func (r *recorder) Publish(s domain.Snapshot) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.snaps = append(r.snaps, s)
}

func (r *recorder) all() []domain.Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]domain.Snapshot(nil), r.snaps...)
}

var fixedNow = time.Date(2026, 5, 4, 12, 0, 0, 0, time.UTC)

func newTestSim(src Source, rate float64, pub Publisher) *Simulator {
	return New(Config{
		MotorID:            "motor-test",
		TickInterval:       2 * time.Second,
		WindowSize:         10,
		FaultInjectionRate: rate,
		Source:             src,
		Now:                func() time.Time { return fixedNow },
		Publisher:          pub,
	})
}

func probabilities(fd domain.FaultData) map[string]float64 {
	out := make(map[string]float64, len(fd.Faults))
	for _, f := range fd.Faults {
		out[f.Type] = f.Probability
	}
	return out
}

func TestBoundsStep(t *testing.T) {
	b := Bounds{Delta: 2, Min: 35, Max: 65}

	assert.Equal(t, 42.0, b.Step(constSource(0.5), 42))
	assert.Equal(t, 44.0, b.Step(constSource(1), 42))
	assert.Equal(t, 40.0, b.Step(constSource(0), 42))
	assert.Equal(t, 65.0, b.Step(constSource(1), 64.5))
	assert.Equal(t, 35.0, b.Step(constSource(0), 35.2))
}

func TestNewInitialState(t *testing.T) {
	sim := newTestSim(constSource(0.5), 0, nil)
	snap := sim.Snapshot()

	assert.Equal(t, "motor-test", snap.MotorID)
	assert.Equal(t, domain.MotorIdle, snap.MotorStatus)
	assert.Equal(t, domain.MotorData{Load: 65, Speed: 1500, Temperature: 42, Efficiency: 87}, snap.MotorData)

	for name, window := range snap.SensorData.Channels() {
		require.Len(t, window, 10, name)
		assert.Equal(t, "11:59:40", window[0].Time, name)
		assert.Equal(t, "11:59:58", window[9].Time, name)
	}
	// Midpoint of the initial bands.
	assert.Equal(t, 10.0, snap.SensorData.Current[0].Value)
	assert.Equal(t, 230.0, snap.SensorData.Voltage[0].Value)
	assert.Equal(t, 42.5, snap.SensorData.Temperature[0].Value)
	assert.Equal(t, 1.5, snap.SensorData.Vibration[0].Value)

	assert.Equal(t, map[string]float64{
		domain.BearingFault:     15,
		domain.StatorWinding:    8,
		domain.RotorImbalance:   32,
		domain.VoltageImbalance: 5,
	}, probabilities(snap.FaultData))
	assert.Equal(t, domain.FaultWarning, snap.FaultData.Status)
	assert.Equal(t, diagnosis.Recommend(snap.FaultData.Faults), snap.Recommendations)
}

func TestTickNeutralDrawSlidesWindows(t *testing.T) {
	sim := newTestSim(constSource(0.5), 0.01, nil)
	before := sim.Snapshot()

	snap := sim.Tick()

	assert.Equal(t, before.MotorData, snap.MotorData)
	assert.Equal(t, uint64(1), snap.Sequence)
	assert.InDelta(t, 2.0/3600, snap.RunningHours, 1e-12)

	for name, window := range snap.SensorData.Channels() {
		prev := before.SensorData.Channels()[name]
		require.Len(t, window, len(prev), name)
		assert.Equal(t, prev[1:], window[:len(window)-1], name)
		assert.Equal(t, "12:00:00", window[len(window)-1].Time, name)
		assert.Equal(t, prev[len(prev)-1].Value, window[len(window)-1].Value, name)
	}
	assert.Equal(t, domain.MotorIdle, snap.MotorStatus)
}

func TestTickKeepsReadingsInBounds(t *testing.T) {
	src := rand.New(rand.NewSource(42))
	sim := newTestSim(src, 0, nil)

	for i := 0; i < 2000; i++ {
		snap := sim.Tick()

		md := snap.MotorData
		require.True(t, md.Load >= 40 && md.Load <= 90, "load %v", md.Load)
		require.True(t, md.Speed >= 1400 && md.Speed <= 1600, "speed %v", md.Speed)
		require.True(t, md.Temperature >= 35 && md.Temperature <= 65, "temperature %v", md.Temperature)
		require.True(t, md.Efficiency >= 82 && md.Efficiency <= 92, "efficiency %v", md.Efficiency)

		bounds := map[string][2]float64{
			"current":     {5, 15},
			"voltage":     {220, 240},
			"temperature": {35, 65},
			"vibration":   {0.5, 3},
		}
		for name, window := range snap.SensorData.Channels() {
			require.Len(t, window, 10, name)
			last := window[len(window)-1].Value
			require.True(t, last >= bounds[name][0] && last <= bounds[name][1], "%s %v", name, last)
		}

		highest := 0.0
		for _, f := range snap.FaultData.Faults {
			require.True(t, f.Probability >= 0 && f.Probability <= 100)
			if f.Probability > highest {
				highest = f.Probability
			}
		}
		switch {
		case highest > 70:
			require.Equal(t, domain.FaultCritical, snap.FaultData.Status)
		case highest > 30:
			require.Equal(t, domain.FaultWarning, snap.FaultData.Status)
		default:
			require.Equal(t, domain.FaultHealthy, snap.FaultData.Status)
		}
		require.Equal(t, diagnosis.Recommend(snap.FaultData.Faults), snap.Recommendations)
	}
}

func TestTickForcedFaultInjection(t *testing.T) {
	pub := &recorder{}
	// 0.75 walks every probability up by 2.5 and is below an injection
	// rate of 1, so every tick injects.
	sim := newTestSim(constSource(0.75), 1, pub)
	sim.SetMotorStatus(domain.MotorRunning)

	snap := sim.Tick()

	assert.Equal(t, domain.MotorFault, snap.MotorStatus)
	assert.Equal(t, domain.MotorFault, sim.Status())
	assert.Equal(t, map[string]float64{
		domain.BearingFault:     85,
		domain.StatorWinding:    10.5,
		domain.RotorImbalance:   34.5,
		domain.VoltageImbalance: 7.5,
	}, probabilities(snap.FaultData))
	assert.Equal(t, domain.FaultCritical, snap.FaultData.Status)
	require.NotEmpty(t, snap.Recommendations)
	assert.Equal(t, "rec-bearing-critical", snap.Recommendations[0].ID)
	assert.Equal(t, domain.PriorityHigh, snap.Recommendations[0].Priority)

	published := pub.all()
	require.Len(t, published, 2)
	assert.Equal(t, domain.MotorRunning, published[0].MotorStatus)
	assert.Equal(t, domain.MotorFault, published[1].MotorStatus)
}

func TestTickNoInjectionAtZeroRate(t *testing.T) {
	sim := newTestSim(constSource(0), 0, nil)
	sim.SetMotorStatus(domain.MotorRunning)

	for i := 0; i < 50; i++ {
		sim.Tick()
	}
	assert.Equal(t, domain.MotorRunning, sim.Status())
}

func TestSetMotorStatus(t *testing.T) {
	pub := &recorder{}
	sim := newTestSim(constSource(0.5), 0, pub)

	sim.SetMotorStatus(domain.MotorRunning)
	sim.SetMotorStatus(domain.MotorRunning)
	sim.SetMotorStatus(domain.MotorFault)
	sim.SetMotorStatus(domain.MotorRunning)

	published := pub.all()
	require.Len(t, published, 3)
	assert.Equal(t, []domain.MotorStatus{domain.MotorRunning, domain.MotorFault, domain.MotorRunning},
		[]domain.MotorStatus{published[0].MotorStatus, published[1].MotorStatus, published[2].MotorStatus})
	assert.Equal(t, uint64(3), published[2].Sequence)
}

func TestControls(t *testing.T) {
	sim := newTestSim(constSource(0.5), 0, nil)

	require.ErrorIs(t, sim.Reset(), ErrNotFaulted)

	require.NoError(t, sim.Start())
	assert.Equal(t, domain.MotorRunning, sim.Status())

	require.NoError(t, sim.Stop())
	assert.Equal(t, domain.MotorIdle, sim.Status())

	sim.EmergencyStop()
	assert.Equal(t, domain.MotorFault, sim.Status())

	require.ErrorIs(t, sim.Start(), ErrMotorFaulted)
	require.ErrorIs(t, sim.Stop(), ErrMotorFaulted)
	assert.Equal(t, domain.MotorFault, sim.Status())

	require.NoError(t, sim.Reset())
	assert.Equal(t, domain.MotorIdle, sim.Status())
}

func TestSnapshotIsACopy(t *testing.T) {
	sim := newTestSim(constSource(0.5), 0, nil)

	snap := sim.Snapshot()
	snap.SensorData.Current[0].Value = -1
	snap.FaultData.Faults[0].Probability = 99
	snap.Recommendations[0].ID = "mutated"

	fresh := sim.Snapshot()
	assert.Equal(t, 10.0, fresh.SensorData.Current[0].Value)
	assert.Equal(t, 15.0, fresh.FaultData.Faults[0].Probability)
	assert.NotEqual(t, "mutated", fresh.Recommendations[0].ID)
}

func TestRunTicksOnlyWhileRunning(t *testing.T) {
	pub := &recorder{}
	sim := New(Config{
		MotorID:            "motor-run",
		TickInterval:       5 * time.Millisecond,
		WindowSize:         4,
		FaultInjectionRate: 0,
		Source:             rand.New(rand.NewSource(7)),
		Publisher:          pub,
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		sim.Run(ctx)
		close(done)
	}()

	time.Sleep(30 * time.Millisecond)
	assert.Empty(t, pub.all(), "idle motor must not tick")

	sim.SetMotorStatus(domain.MotorRunning)
	require.Eventually(t, func() bool {
		return len(pub.all()) >= 4
	}, time.Second, 5*time.Millisecond)

	sim.SetMotorStatus(domain.MotorIdle)
	time.Sleep(20 * time.Millisecond)
	settled := len(pub.all())
	time.Sleep(40 * time.Millisecond)
	assert.Equal(t, settled, len(pub.all()), "ticks continued after the motor went idle")

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestRunStopsTickingAfterInjection(t *testing.T) {
	pub := &recorder{}
	sim := New(Config{
		TickInterval:       5 * time.Millisecond,
		FaultInjectionRate: 1,
		Source:             rand.New(rand.NewSource(3)),
		Publisher:          pub,
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go sim.Run(ctx)

	sim.SetMotorStatus(domain.MotorRunning)
	require.Eventually(t, func() bool {
		return sim.Status() == domain.MotorFault
	}, time.Second, 5*time.Millisecond)

	time.Sleep(20 * time.Millisecond)
	settled := len(pub.all())
	time.Sleep(40 * time.Millisecond)
	assert.Equal(t, settled, len(pub.all()))
}

func TestContextGuard(t *testing.T) {
	_, err := FromContext(context.Background())
	require.ErrorIs(t, err, ErrNoProvider)

	assert.PanicsWithError(t, ErrNoProvider.Error(), func() {
		MustFromContext(context.Background())
	})

	var nilSim *Simulator
	_, err = FromContext(NewContext(context.Background(), nilSim))
	require.ErrorIs(t, err, ErrNoProvider)

	sim := newTestSim(constSource(0.5), 0, nil)
	got, err := FromContext(NewContext(context.Background(), sim))
	require.NoError(t, err)
	assert.Same(t, sim, got)
	assert.Same(t, sim, MustFromContext(NewContext(context.Background(), sim)))
}

func TestPublicationsArriveInSequenceOrder(t *testing.T) {
	pub := &recorder{}
	sim := newTestSim(constSource(0.5), 0, pub)

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 0; i < 200; i++ {
			sim.Tick()
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < 200; i++ {
			if i%2 == 0 {
				sim.SetMotorStatus(domain.MotorRunning)
			} else {
				sim.SetMotorStatus(domain.MotorIdle)
			}
		}
	}()
	wg.Wait()

	snaps := pub.all()
	require.Len(t, snaps, 400)
	for i := 1; i < len(snaps); i++ {
		require.Greater(t, snaps[i].Sequence, snaps[i-1].Sequence, "publication %d out of order", i)
	}
}
