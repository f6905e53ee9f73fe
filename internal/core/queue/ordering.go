package queue

import (
	"sort"
	"time"

	"citycare-queue/internal/adapters/persistence/models"
)

// DefaultAvgServiceMinutes is used when no configured value is available
const DefaultAvgServiceMinutes = 15

// Recompute produces the total order over a department's waiting set: descending
// ordering key, earlier arrival first on exact ties. Position (1-based) and the
// linear wait estimate are written back onto each patient; the caller owns
// persisting them. The input slice is not reordered. Calling Recompute twice on
// an unchanged set yields identical positions and estimates.
func Recompute(waiting []*models.Patient, now time.Time, avgServiceMinutes int) []*models.Patient {
	if avgServiceMinutes <= 0 {
		avgServiceMinutes = DefaultAvgServiceMinutes
	}

	ordered := make([]*models.Patient, len(waiting))
	copy(ordered, waiting)

	sort.SliceStable(ordered, func(i, j int) bool {
		ki := OrderingKey(ordered[i].Urgency, ordered[i].ArrivalTime, now)
		kj := OrderingKey(ordered[j].Urgency, ordered[j].ArrivalTime, now)
		if ki != kj {
			return ki > kj
		}
		// Same key: strict FIFO
		return ordered[i].ArrivalTime.Before(ordered[j].ArrivalTime)
	})

	for i, p := range ordered {
		p.Position = i + 1
		p.EstimatedWaitMin = (i + 1) * avgServiceMinutes
	}
	return ordered
}

// Next returns the highest-ranked waiting patient, or nil when the set is empty.
func Next(waiting []*models.Patient, now time.Time) *models.Patient {
	var best *models.Patient
	var bestKey int64
	for _, p := range waiting {
		k := OrderingKey(p.Urgency, p.ArrivalTime, now)
		switch {
		case best == nil:
			best, bestKey = p, k
		case k > bestKey:
			best, bestKey = p, k
		case k == bestKey && p.ArrivalTime.Before(best.ArrivalTime):
			best, bestKey = p, k
		}
	}
	return best
}
