package queue

import "time"

// Urgency classes, highest first
const (
	UrgencyEmergency = "emergency"
	UrgencyHigh      = "high"
	UrgencyMedium    = "medium"
	UrgencyLow       = "low"
)

// classWeights keeps strict class ordering: emergency ≫ high ≫ medium ≫ low
var classWeights = map[string]int64{
	UrgencyEmergency: 1000,
	UrgencyHigh:      100,
	UrgencyMedium:    10,
	UrgencyLow:       1,
}

// ValidUrgency reports whether s is a known urgency class
func ValidUrgency(s string) bool {
	_, ok := classWeights[s]
	return ok
}

// OrderingKey maps an urgency class and arrival time to a comparable rank value.
// Emergency always outranks every other class regardless of wait time. For the
// other classes the key grows with whole minutes waited, so long waiters move up
// within their tier. Deterministic for a fixed now.
func OrderingKey(urgency string, arrivalTime, now time.Time) int64 {
	weight, ok := classWeights[urgency]
	if !ok {
		weight = classWeights[UrgencyLow]
	}

	if urgency == UrgencyEmergency {
		return weight * 10000
	}

	minutesWaiting := int64(now.Sub(arrivalTime) / time.Minute)
	if minutesWaiting < 0 {
		minutesWaiting = 0
	}
	return weight*100 + minutesWaiting
}
