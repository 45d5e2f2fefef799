package alert

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/roadwatch/internal/config"
	"github.com/banshee-data/roadwatch/internal/hazard"
)

func ptrFloat(v float64) *float64 { return &v }

func newTestArbitrator() *Arbitrator {
	return NewArbitrator(config.EmptyTuningConfig())
}

func cameraMatch(id string, distance float64) *hazard.Match {
	return &hazard.Match{
		Entity:   hazard.Entity{ID: id, Category: hazard.SpeedCamera},
		Distance: distance,
	}
}

func checkpointMatch(id string, distance float64) *hazard.Match {
	return &hazard.Match{
		Entity:   hazard.Entity{ID: id, Category: hazard.Checkpoint},
		Distance: distance,
	}
}

func TestIdleToAlerting(t *testing.T) {
	a := newTestArbitrator()
	now := time.Unix(1700000000, 0)

	assert.Equal(t, StateIdle, a.State(now))

	fired := a.Tick(Input{Now: now, NearestCamera: cameraMatch("cam-1", 240)})
	require.NotNil(t, fired)
	assert.Equal(t, "cam-1", fired.ID)
	assert.Equal(t, CategoryCamera, fired.Category)
	assert.Equal(t, 240.0, fired.Distance)
	assert.Equal(t, StateAlerting, a.State(now))
}

func TestPriorityOrdering(t *testing.T) {
	a := newTestArbitrator()
	now := time.Unix(1700000000, 0)

	// Speeding outranks a camera, which outranks a checkpoint.
	fired := a.Tick(Input{
		Now:               now,
		Speed:             30,
		SpeedLimit:        ptrFloat(22),
		NearestCamera:     cameraMatch("cam-1", 100),
		NearestCheckpoint: checkpointMatch("cp-1", 100),
	})
	require.NotNil(t, fired)
	assert.Equal(t, CategorySpeeding, fired.Category)

	a.Reset()
	fired = a.Tick(Input{
		Now:               now,
		Speed:             10,
		SpeedLimit:        ptrFloat(22),
		NearestCamera:     cameraMatch("cam-1", 100),
		NearestCheckpoint: checkpointMatch("cp-1", 100),
	})
	require.NotNil(t, fired)
	assert.Equal(t, CategoryCamera, fired.Category)

	a.Reset()
	fired = a.Tick(Input{
		Now:               now,
		NearestCheckpoint: checkpointMatch("cp-1", 100),
	})
	require.NotNil(t, fired)
	assert.Equal(t, CategoryCheckpoint, fired.Category)
}

func TestCooldownSuppressesSecondAlert(t *testing.T) {
	a := newTestArbitrator()
	now := time.Unix(1700000000, 0)

	fired := a.Tick(Input{Now: now, NearestCamera: cameraMatch("cam-1", 300)})
	require.NotNil(t, fired)

	// A different qualifying hazard 2 seconds later: inside the 5s cooldown,
	// exactly one activation total.
	fired = a.Tick(Input{Now: now.Add(2 * time.Second), NearestCamera: cameraMatch("cam-2", 250)})
	assert.Nil(t, fired, "second trigger within cooldown must be suppressed")

	// After the cooldown the new id becomes eligible.
	fired = a.Tick(Input{Now: now.Add(6 * time.Second), NearestCamera: cameraMatch("cam-2", 120)})
	require.NotNil(t, fired)
	assert.Equal(t, "cam-2", fired.ID)
}

func TestSameIDRetriggerIsIdempotent(t *testing.T) {
	a := newTestArbitrator()
	now := time.Unix(1700000000, 0)

	fired := a.Tick(Input{Now: now, NearestCamera: cameraMatch("cam-1", 300)})
	require.NotNil(t, fired)

	// The same hazard stays in range across many ticks: never re-announced,
	// even long after the cooldown has expired.
	for i := 1; i <= 20; i++ {
		fired = a.Tick(Input{Now: now.Add(time.Duration(i) * time.Second), NearestCamera: cameraMatch("cam-1", 300)})
		assert.Nil(t, fired, "re-trigger of the active id must be a no-op")
	}
	id, _, ok := a.Active()
	assert.True(t, ok)
	assert.Equal(t, "cam-1", id)
}

func TestClearAfterTimeout(t *testing.T) {
	a := newTestArbitrator()
	now := time.Unix(1700000000, 0)

	a.Tick(Input{Now: now, NearestCamera: cameraMatch("cam-1", 300)})
	_, _, ok := a.Active()
	require.True(t, ok)

	// Condition gone, but within the 10s clear timeout: alert stays active.
	a.Tick(Input{Now: now.Add(8 * time.Second)})
	_, _, ok = a.Active()
	assert.True(t, ok, "alert must persist inside the clear window")

	// Past the clear timeout: alert clears on the periodic tick.
	a.Tick(Input{Now: now.Add(11 * time.Second)})
	_, _, ok = a.Active()
	assert.False(t, ok, "alert must clear once the condition has been gone past the timeout")
	assert.Equal(t, StateIdle, a.State(now.Add(11*time.Second)))
}

func TestTriggerKeepsAlertAlive(t *testing.T) {
	a := newTestArbitrator()
	now := time.Unix(1700000000, 0)

	a.Tick(Input{Now: now, NearestCamera: cameraMatch("cam-1", 300)})

	// The hazard remains in range; the clear timer keeps being pushed back.
	for i := 1; i <= 30; i++ {
		a.Tick(Input{Now: now.Add(time.Duration(i) * time.Second), NearestCamera: cameraMatch("cam-1", 300)})
	}
	_, _, ok := a.Active()
	assert.True(t, ok)
}

func TestCooldownStateWithoutActiveAlert(t *testing.T) {
	a := newTestArbitrator()
	now := time.Unix(1700000000, 0)

	a.Tick(Input{Now: now, Speed: 30, SpeedLimit: ptrFloat(22)})

	// Condition gone and alert cleared, but cooldown still pending.
	a.Tick(Input{Now: now.Add(11 * time.Second)})
	assert.Equal(t, StateIdle, a.State(now.Add(11*time.Second)))

	// Re-fire then clear quickly to observe the cooldown state.
	a.Reset()
	a.Tick(Input{Now: now, Speed: 30, SpeedLimit: ptrFloat(22)})
	a.activeID = "" // simulate external clear
	assert.Equal(t, StateCooldown, a.State(now.Add(2*time.Second)))
}

func TestNoTriggerStaysIdle(t *testing.T) {
	a := newTestArbitrator()
	now := time.Unix(1700000000, 0)

	assert.Nil(t, a.Tick(Input{Now: now, Speed: 10, SpeedLimit: ptrFloat(22)}))
	assert.Nil(t, a.Tick(Input{Now: now.Add(time.Second)}))
	assert.Equal(t, StateIdle, a.State(now.Add(time.Second)))
}

func TestSpeedingRequiresKnownLimit(t *testing.T) {
	a := newTestArbitrator()
	now := time.Unix(1700000000, 0)

	// No accepted limit: speeding can never trigger.
	assert.Nil(t, a.Tick(Input{Now: now, Speed: 60}))
}
