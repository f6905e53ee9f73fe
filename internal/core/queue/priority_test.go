package queue

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestValidUrgency(t *testing.T) {
	tests := []struct {
		urgency string
		want    bool
	}{
		{UrgencyEmergency, true},
		{UrgencyHigh, true},
		{UrgencyMedium, true},
		{UrgencyLow, true},
		{"", false},
		{"critical", false},
		{"EMERGENCY", false},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, ValidUrgency(tt.urgency), "urgency %q", tt.urgency)
	}
}

func TestOrderingKeyEmergencyDominates(t *testing.T) {
	now := time.Now()
	longWait := now.Add(-8 * time.Hour)

	emergency := OrderingKey(UrgencyEmergency, now, now)
	highAllDay := OrderingKey(UrgencyHigh, longWait, now)
	lowAllDay := OrderingKey(UrgencyLow, longWait, now)

	assert.Greater(t, emergency, highAllDay)
	assert.Greater(t, emergency, lowAllDay)
}

func TestOrderingKeyAgesWithinClass(t *testing.T) {
	now := time.Now()

	fresh := OrderingKey(UrgencyLow, now, now)
	waited := OrderingKey(UrgencyLow, now.Add(-30*time.Minute), now)

	assert.Greater(t, waited, fresh)
	assert.Equal(t, int64(30), waited-fresh)
}

func TestOrderingKeyClassBoundaries(t *testing.T) {
	now := time.Now()
	longWait := now.Add(-4 * time.Hour)

	// 4 hours of aging must not push a class past the one above it
	assert.Greater(t, OrderingKey(UrgencyHigh, now, now), OrderingKey(UrgencyMedium, longWait, now))
	assert.Greater(t, OrderingKey(UrgencyMedium, now, now), OrderingKey(UrgencyLow, longWait, now))
}

func TestOrderingKeyUnknownUrgencyFallsBackToLow(t *testing.T) {
	now := time.Now()
	arrival := now.Add(-5 * time.Minute)

	assert.Equal(t, OrderingKey(UrgencyLow, arrival, now), OrderingKey("unknown", arrival, now))
}

func TestOrderingKeyClampsFutureArrival(t *testing.T) {
	now := time.Now()

	// Clock skew: arrival after now must not go negative
	key := OrderingKey(UrgencyLow, now.Add(2*time.Minute), now)
	assert.Equal(t, OrderingKey(UrgencyLow, now, now), key)
}
