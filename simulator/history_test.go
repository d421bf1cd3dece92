package simulator

import (
	"reflect"
	"testing"
	"time"

	"github.com/kilianp07/chargeplan/core/model"
)

func TestGenerateDeterministic(t *testing.T) {
	end := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	first := Generate(Config{}, end)
	second := Generate(Config{}, end)
	if !reflect.DeepEqual(first, second) {
		t.Fatal("same config must generate identical history")
	}
	if len(first) == 0 {
		t.Fatal("default config generated no sessions")
	}
}

func TestGenerateAllCompletedWithEnergy(t *testing.T) {
	end := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	recs := Generate(Config{Days: 3}, end)
	seen := map[string]bool{}
	for _, r := range recs {
		if r.Status != model.StatusCompleted {
			t.Fatalf("session %s: status %s", r.ID, r.Status)
		}
		if r.EnergyDeliveredKWh <= 0 {
			t.Fatalf("session %s: energy %.2f", r.ID, r.EnergyDeliveredKWh)
		}
		if seen[r.ID] {
			t.Fatalf("duplicate session id %s", r.ID)
		}
		seen[r.ID] = true
		if r.StartTime.Before(end.AddDate(0, 0, -3)) || !r.StartTime.Before(end.Add(time.Hour)) {
			t.Fatalf("session %s outside window: %v", r.ID, r.StartTime)
		}
	}
}

func TestGeneratePeaksDominateNight(t *testing.T) {
	end := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	recs := Generate(Config{Days: 14}, end)

	hourly := map[int]float64{}
	for _, r := range recs {
		if r.SiteID == "site-a" {
			hourly[r.StartTime.Hour()] += r.EnergyDeliveredKWh
		}
	}
	if hourly[18] <= hourly[3] {
		t.Fatalf("evening peak %.1f should exceed night load %.1f", hourly[18], hourly[3])
	}
}
