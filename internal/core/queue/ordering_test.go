package queue

import (
	"testing"
	"time"

	"citycare-queue/internal/adapters/persistence/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func waitingPatient(id, urgency string, arrival time.Time) *models.Patient {
	return &models.Patient{
		ID:          id,
		Urgency:     urgency,
		Status:      models.StatusWaiting,
		ArrivalTime: arrival,
	}
}

func TestRecomputeContiguousPositions(t *testing.T) {
	now := time.Now()
	waiting := []*models.Patient{
		waitingPatient("a", UrgencyLow, now.Add(-10*time.Minute)),
		waitingPatient("b", UrgencyMedium, now.Add(-5*time.Minute)),
		waitingPatient("c", UrgencyHigh, now.Add(-1*time.Minute)),
		waitingPatient("d", UrgencyLow, now),
	}

	ordered := Recompute(waiting, now, 15)
	require.Len(t, ordered, 4)

	for i, p := range ordered {
		assert.Equal(t, i+1, p.Position)
	}
}

func TestRecomputeEmergencyFirst(t *testing.T) {
	now := time.Now()
	waiting := []*models.Patient{
		waitingPatient("old-low", UrgencyLow, now.Add(-6*time.Hour)),
		waitingPatient("old-high", UrgencyHigh, now.Add(-3*time.Hour)),
		waitingPatient("fresh-emergency", UrgencyEmergency, now),
	}

	ordered := Recompute(waiting, now, 15)

	assert.Equal(t, "fresh-emergency", ordered[0].ID)
	assert.Equal(t, "old-high", ordered[1].ID)
	assert.Equal(t, "old-low", ordered[2].ID)
}

func TestRecomputeFIFOWithinClass(t *testing.T) {
	now := time.Now()
	// Same class, same whole-minute wait: earlier arrival wins
	waiting := []*models.Patient{
		waitingPatient("second", UrgencyMedium, now.Add(-20*time.Minute-10*time.Second)),
		waitingPatient("first", UrgencyMedium, now.Add(-20*time.Minute-30*time.Second)),
	}

	ordered := Recompute(waiting, now, 15)

	assert.Equal(t, "first", ordered[0].ID)
	assert.Equal(t, "second", ordered[1].ID)
}

func TestRecomputeEstimatesAreLinear(t *testing.T) {
	now := time.Now()
	waiting := []*models.Patient{
		waitingPatient("a", UrgencyHigh, now.Add(-2*time.Minute)),
		waitingPatient("b", UrgencyMedium, now.Add(-9*time.Minute)),
		waitingPatient("c", UrgencyLow, now.Add(-4*time.Minute)),
	}

	ordered := Recompute(waiting, now, 15)

	assert.Equal(t, 15, ordered[0].EstimatedWaitMin)
	assert.Equal(t, 30, ordered[1].EstimatedWaitMin)
	assert.Equal(t, 45, ordered[2].EstimatedWaitMin)
}

func TestRecomputeIdempotent(t *testing.T) {
	now := time.Now()
	waiting := []*models.Patient{
		waitingPatient("a", UrgencyLow, now.Add(-40*time.Minute)),
		waitingPatient("b", UrgencyEmergency, now.Add(-2*time.Minute)),
		waitingPatient("c", UrgencyMedium, now.Add(-15*time.Minute)),
	}

	first := Recompute(waiting, now, 15)
	second := Recompute(waiting, now, 15)

	require.Equal(t, len(first), len(second))
	for i := range first {
		assert.Equal(t, first[i].ID, second[i].ID)
		assert.Equal(t, first[i].Position, second[i].Position)
		assert.Equal(t, first[i].EstimatedWaitMin, second[i].EstimatedWaitMin)
	}
}

func TestRecomputeDefaultAvgServiceMinutes(t *testing.T) {
	now := time.Now()
	waiting := []*models.Patient{waitingPatient("a", UrgencyLow, now)}

	ordered := Recompute(waiting, now, 0)

	assert.Equal(t, DefaultAvgServiceMinutes, ordered[0].EstimatedWaitMin)
}

func TestNextEmpty(t *testing.T) {
	assert.Nil(t, Next(nil, time.Now()))
	assert.Nil(t, Next([]*models.Patient{}, time.Now()))
}

func TestNextPicksHighestRank(t *testing.T) {
	now := time.Now()
	waiting := []*models.Patient{
		waitingPatient("low", UrgencyLow, now.Add(-90*time.Minute)),
		waitingPatient("emergency", UrgencyEmergency, now),
		waitingPatient("high", UrgencyHigh, now.Add(-30*time.Minute)),
	}

	next := Next(waiting, now)
	require.NotNil(t, next)
	assert.Equal(t, "emergency", next.ID)
}

func TestNextTieBreaksOnArrival(t *testing.T) {
	now := time.Now()
	waiting := []*models.Patient{
		waitingPatient("later", UrgencyHigh, now.Add(-10*time.Minute-5*time.Second)),
		waitingPatient("earlier", UrgencyHigh, now.Add(-10*time.Minute-20*time.Second)),
	}

	next := Next(waiting, now)
	require.NotNil(t, next)
	assert.Equal(t, "earlier", next.ID)
}
