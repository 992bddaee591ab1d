package monitor

import (
	"context"
	"math/rand/v2"
	"slices"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seeded(seed uint64) Option {
	return WithRand(rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)))
}

func TestNew_InitialState(t *testing.T) {
	s, err := New(VariantNetwork, seeded(1))
	require.NoError(t, err)

	st := s.Snapshot()
	assert.Equal(t, 14582, st.BlockedCount)
	assert.Equal(t, 3, st.ActiveThreats)
	assert.Equal(t, 10, st.ThreatCap)
	assert.Equal(t, networkAlerts[:3], st.Alerts)
	assert.Equal(t, LevelElevated, st.ThreatLevel)
}

func TestTick_InvariantsHoldOverLongRuns(t *testing.T) {
	for _, v := range []Variant{VariantNetwork, VariantRansomware} {
		for seed := uint64(1); seed <= 20; seed++ {
			s, err := New(v, seeded(seed))
			require.NoError(t, err)

			prev := s.Snapshot()
			for i := 0; i < 2000; i++ {
				st := s.Tick()

				require.GreaterOrEqual(t, st.ActiveThreats, 0)
				require.LessOrEqual(t, st.ActiveThreats, v.ThreatCap)
				require.LessOrEqual(t, len(st.Alerts), AlertLogSize)
				require.GreaterOrEqual(t, st.BlockedCount, prev.BlockedCount)
				require.Less(t, st.BlockedCount-prev.BlockedCount, v.BlockedStep)
				require.GreaterOrEqual(t, st.FilesMonitored, prev.FilesMonitored)
				require.LessOrEqual(t, abs(st.ActiveThreats-prev.ActiveThreats), 1)
				for _, a := range st.Alerts {
					require.Contains(t, v.Alerts, a)
				}

				// a new alert is prepended, the rest shift right
				if !slices.Equal(st.Alerts, prev.Alerts) {
					n := min(len(prev.Alerts), AlertLogSize-1)
					require.Equal(t, prev.Alerts[:n], st.Alerts[1:])
				}
				prev = st
			}
		}
	}
}

func TestTick_FilesOnlyGrowForRansomware(t *testing.T) {
	net, err := New(VariantNetwork, seeded(7))
	require.NoError(t, err)
	ran, err := New(VariantRansomware, seeded(7))
	require.NoError(t, err)

	for i := 0; i < 200; i++ {
		net.Tick()
		ran.Tick()
	}
	assert.Zero(t, net.Snapshot().FilesMonitored)
	assert.Greater(t, ran.Snapshot().FilesMonitored, VariantRansomware.InitialFiles)
}

func TestTick_ThreatsReachBothBounds(t *testing.T) {
	v := VariantRansomware
	v.ThreatAdjustProbability = 1
	s, err := New(v, seeded(3))
	require.NoError(t, err)

	var sawZero, sawCap bool
	for i := 0; i < 5000 && !(sawZero && sawCap); i++ {
		st := s.Tick()
		sawZero = sawZero || st.ActiveThreats == 0
		sawCap = sawCap || st.ActiveThreats == v.ThreatCap
	}
	assert.True(t, sawZero)
	assert.True(t, sawCap)
}

func TestPushAlert(t *testing.T) {
	log := []string{"c", "b", "a"}
	log = pushAlert(log, "d")
	assert.Equal(t, []string{"d", "c", "b", "a"}, log)
	log = pushAlert(log, "e")
	log = pushAlert(log, "f")
	assert.Equal(t, []string{"f", "e", "d", "c", "b"}, log)
}

func TestLevel(t *testing.T) {
	assert.Equal(t, LevelLow, Level(0, 10))
	assert.Equal(t, LevelElevated, Level(5, 10))
	assert.Equal(t, LevelHigh, Level(6, 10))
	assert.Equal(t, LevelHigh, Level(5, 5))
}

func TestLookupVariant(t *testing.T) {
	v, err := LookupVariant("Ransomware")
	require.NoError(t, err)
	assert.Equal(t, 5, v.ThreatCap)

	v, err = LookupVariant("")
	require.NoError(t, err)
	assert.Equal(t, VariantNetwork.Name, v.Name)

	_, err = LookupVariant("quantum")
	assert.Error(t, err)
}

func TestNew_RejectsInvalidVariant(t *testing.T) {
	v := VariantNetwork
	v.Alerts = nil
	_, err := New(v)
	assert.Error(t, err)

	v = VariantNetwork
	v.InitialThreats = 11
	_, err = New(v)
	assert.Error(t, err)
}

func TestStart_TicksAndStopsOnCancel(t *testing.T) {
	s, err := New(VariantNetwork, seeded(11), WithInterval(10*time.Millisecond))
	require.NoError(t, err)

	// drift away from defaults, then check Start resets them
	for i := 0; i < 50; i++ {
		s.Tick()
	}
	require.NotEqual(t, VariantNetwork.InitialBlocked, s.Snapshot().BlockedCount)

	updates, unsubscribe := s.Subscribe()
	defer unsubscribe()

	ctx, cancel := context.WithCancel(context.Background())
	h, err := s.Start(ctx)
	require.NoError(t, err)

	select {
	case st := <-updates:
		assert.LessOrEqual(t, st.ActiveThreats, VariantNetwork.ThreatCap)
	case <-time.After(2 * time.Second):
		t.Fatal("no tick delivered")
	}

	cancel()
	select {
	case <-h.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("handle did not stop after cancel")
	}
	h.Stop()

	frozen := s.Snapshot()
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, frozen.UpdatedAt, s.Snapshot().UpdatedAt)
}

func TestStart_ResetsState(t *testing.T) {
	s, err := New(VariantNetwork, seeded(5), WithInterval(time.Hour))
	require.NoError(t, err)
	for i := 0; i < 30; i++ {
		s.Tick()
	}

	h, err := s.Start(context.Background())
	require.NoError(t, err)
	defer h.Stop()

	st := s.Snapshot()
	assert.Equal(t, VariantNetwork.InitialBlocked, st.BlockedCount)
	assert.Equal(t, VariantNetwork.InitialThreats, st.ActiveThreats)
	assert.Len(t, st.Alerts, VariantNetwork.InitialAlerts)
}

func TestSubscribe_KeepsLatestAndUnsubscribes(t *testing.T) {
	s, err := New(VariantNetwork, seeded(9))
	require.NoError(t, err)

	ch, unsubscribe := s.Subscribe()
	s.Tick()
	last := s.Tick()

	got := <-ch
	assert.Equal(t, last.BlockedCount, got.BlockedCount)

	unsubscribe()
	unsubscribe()
	_, open := <-ch
	assert.False(t, open)
	s.Tick()
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
