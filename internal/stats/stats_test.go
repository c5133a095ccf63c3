package stats_test

import (
	"testing"

	"emmark/internal/domain"
	"emmark/internal/stats"
)

func TestComputeEmptyCollections(t *testing.T) {
	s := stats.Compute(nil, nil)
	if s.ConfirmationRate != 0 {
		t.Fatalf("confirmation rate with no clients: got %d, want 0", s.ConfirmationRate)
	}
	if s.Progress != 0 {
		t.Fatalf("progress with no activities: got %d, want 0", s.Progress)
	}
	if s.TotalCost != 0 {
		t.Fatalf("total cost: got %v, want 0", s.TotalCost)
	}
}

func TestComputeFigures(t *testing.T) {
	clients := []domain.Client{
		{ID: "c1", Name: "Ana", IsConfirmed: true},
		{ID: "c2", Name: "Luis"},
		{ID: "c3", Name: "Marta", IsConfirmed: true},
	}
	activities := []domain.Activity{
		{ID: "a1", Name: "Carpa", Cost: 100, Type: domain.TypeLogistica, Status: domain.StatusFinalizada},
		{ID: "a2", Name: "Banda", Cost: 250, Type: domain.TypeEntretenimiento, Status: domain.StatusPendiente},
		{ID: "a3", Name: "Buffet", Cost: 50, Type: domain.TypeCatering, Status: domain.StatusEnProceso},
	}
	s := stats.Compute(clients, activities)
	if s.TotalClients != 3 || s.ConfirmedClients != 2 {
		t.Fatalf("client counts: got %d/%d, want 2/3 confirmed", s.ConfirmedClients, s.TotalClients)
	}
	if s.ConfirmationRate != 67 {
		t.Fatalf("confirmation rate: got %d, want 67", s.ConfirmationRate)
	}
	if s.TotalCost != 400 {
		t.Fatalf("total cost: got %v, want 400", s.TotalCost)
	}
	if s.CompletedCount != 1 || s.Progress != 33 {
		t.Fatalf("progress: got %d completed, %d%%, want 1 completed, 33%%", s.CompletedCount, s.Progress)
	}
}

func TestStatusBreakdownAlwaysThreeBuckets(t *testing.T) {
	breakdown := stats.StatusBreakdown(nil)
	if len(breakdown) != 3 {
		t.Fatalf("bucket count: got %d, want 3", len(breakdown))
	}
	want := []domain.ActivityStatus{domain.StatusPendiente, domain.StatusEnProceso, domain.StatusFinalizada}
	for i, b := range breakdown {
		if b.Status != want[i] {
			t.Fatalf("bucket %d: got %s, want %s", i, b.Status, want[i])
		}
		if b.Count != 0 {
			t.Fatalf("bucket %s: got %d, want 0", b.Status, b.Count)
		}
	}
}

func TestStatusBreakdownCounts(t *testing.T) {
	activities := []domain.Activity{
		{Status: domain.StatusFinalizada},
		{Status: domain.StatusFinalizada},
		{Status: domain.StatusPendiente},
	}
	breakdown := stats.StatusBreakdown(activities)
	if breakdown[0].Count != 1 || breakdown[1].Count != 0 || breakdown[2].Count != 2 {
		t.Fatalf("counts: got %v", breakdown)
	}
}

func TestCostByTypeFirstEncounterOrder(t *testing.T) {
	activities := []domain.Activity{
		{Type: domain.TypeCatering, Cost: 100},
		{Type: domain.TypeCatering, Cost: 50},
		{Type: domain.TypeMarketing, Cost: 25},
	}
	groups := stats.CostByType(activities)
	if len(groups) != 2 {
		t.Fatalf("group count: got %d, want 2", len(groups))
	}
	if groups[0].Type != domain.TypeCatering || groups[0].Cost != 150 {
		t.Fatalf("first group: got %s=%v, want Catering=150", groups[0].Type, groups[0].Cost)
	}
	if groups[1].Type != domain.TypeMarketing || groups[1].Cost != 25 {
		t.Fatalf("second group: got %s=%v, want Marketing=25", groups[1].Type, groups[1].Cost)
	}
}

func TestCostByTypeEmpty(t *testing.T) {
	if groups := stats.CostByType(nil); len(groups) != 0 {
		t.Fatalf("expected no groups, got %v", groups)
	}
}
