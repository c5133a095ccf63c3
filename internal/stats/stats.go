// Package stats derives dashboard figures from the current collections.
// Everything here is a pure function; nothing is cached, the collections
// are small enough to recompute on every render.
package stats

import (
	"math"

	"emmark/internal/domain"
)

// Stats is the dashboard summary.
type Stats struct {
	TotalClients     int     `json:"total_clients"`
	ConfirmedClients int     `json:"confirmed_clients"`
	ConfirmationRate int     `json:"confirmation_rate"`
	TotalCost        float64 `json:"total_cost"`
	TotalActivities  int     `json:"total_activities"`
	CompletedCount   int     `json:"completed_activities"`
	Progress         int     `json:"progress"`
}

// StatusCount is one bucket of the status breakdown.
type StatusCount struct {
	Status domain.ActivityStatus `json:"status"`
	Count  int                   `json:"count"`
}

// TypeCost is the summed cost of one activity category.
type TypeCost struct {
	Type domain.ActivityType `json:"type"`
	Cost float64             `json:"cost"`
}

// Compute returns the summary figures. Rates are rounded percentages and
// zero when their denominator is zero.
func Compute(clients []domain.Client, activities []domain.Activity) Stats {
	s := Stats{
		TotalClients:    len(clients),
		TotalActivities: len(activities),
	}
	for _, c := range clients {
		if c.IsConfirmed {
			s.ConfirmedClients++
		}
	}
	for _, a := range activities {
		s.TotalCost += a.Cost
		if a.Status == domain.StatusFinalizada {
			s.CompletedCount++
		}
	}
	s.ConfirmationRate = percentage(s.ConfirmedClients, s.TotalClients)
	s.Progress = percentage(s.CompletedCount, s.TotalActivities)
	return s
}

// StatusBreakdown counts activities per lifecycle state. All three
// buckets always appear, in display order, even when empty.
func StatusBreakdown(activities []domain.Activity) []StatusCount {
	counts := make(map[domain.ActivityStatus]int, 3)
	for _, a := range activities {
		counts[a.Status]++
	}
	breakdown := make([]StatusCount, 0, 3)
	for _, st := range domain.ActivityStatuses() {
		breakdown = append(breakdown, StatusCount{Status: st, Count: counts[st]})
	}
	return breakdown
}

// CostByType groups activity costs by category. Only categories present
// in the data appear, ordered by first encounter.
func CostByType(activities []domain.Activity) []TypeCost {
	index := make(map[domain.ActivityType]int)
	var groups []TypeCost
	for _, a := range activities {
		i, ok := index[a.Type]
		if !ok {
			i = len(groups)
			index[a.Type] = i
			groups = append(groups, TypeCost{Type: a.Type})
		}
		groups[i].Cost += a.Cost
	}
	return groups
}

func percentage(part, total int) int {
	if total == 0 {
		return 0
	}
	return int(math.Round(float64(part) / float64(total) * 100))
}
