package forecast

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/kilianp07/chargeplan/core/model"
	"github.com/kilianp07/chargeplan/infra/logger"
)

func testConfig() Config {
	return Config{Trees: 10, MaxDepth: 6, Seed: 42}
}

// syntheticHistory produces a deterministic demand pattern: a morning and an
// evening peak, weekends quieter, two sites of different size.
func syntheticHistory(days int) []model.SessionRecord {
	start := time.Date(2025, 4, 7, 0, 0, 0, 0, time.UTC) // a Monday
	var out []model.SessionRecord
	for d := 0; d < days; d++ {
		for h := 0; h < 24; h++ {
			ts := start.AddDate(0, 0, d).Add(time.Duration(h) * time.Hour)
			load := 20 + 30*math.Exp(-sq(float64(h)-8)/8) + 40*math.Exp(-sq(float64(h)-18)/8)
			if wd := ts.Weekday(); wd == time.Saturday || wd == time.Sunday {
				load *= 0.6
			}
			for _, site := range []struct {
				id    string
				scale float64
			}{{"site-a", 1}, {"site-b", 0.5}} {
				out = append(out, model.SessionRecord{
					SiteID:             site.id,
					StartTime:          ts,
					EnergyDeliveredKWh: load * site.scale,
					Status:             model.StatusCompleted,
				})
			}
		}
	}
	return out
}

func sq(v float64) float64 { return v * v }

func TestTrainInsufficientData(t *testing.T) {
	h := NewHandle(testConfig(), logger.NopLogger{})
	_, err := h.Train(context.Background(), syntheticHistory(2)[:50])
	var insufficient *InsufficientDataError
	if !errors.As(err, &insufficient) {
		t.Fatalf("expected InsufficientDataError, got %v", err)
	}
	if insufficient.Min != 100 {
		t.Fatalf("documented minimum is 100, got %d", insufficient.Min)
	}
	if _, err := h.Model(); !errors.Is(err, ErrModelNotTrained) {
		t.Fatal("failed training must leave the handle untrained")
	}
}

func TestForecastBeforeTraining(t *testing.T) {
	h := NewHandle(testConfig(), logger.NopLogger{})
	if _, err := h.Forecast("site-a", time.Now(), 24); !errors.Is(err, ErrModelNotTrained) {
		t.Fatalf("expected ErrModelNotTrained, got %v", err)
	}
}

func TestTrainAndForecastHorizon(t *testing.T) {
	h := NewHandle(testConfig(), logger.NopLogger{})
	m, err := h.Train(context.Background(), syntheticHistory(14))
	if err != nil {
		t.Fatalf("train: %v", err)
	}
	if m.Rows != 14*24*2 {
		t.Fatalf("metrics rows: want %d got %d", 14*24*2, m.Rows)
	}
	if m.Sites != 2 {
		t.Fatalf("metrics sites: want 2 got %d", m.Sites)
	}
	if math.IsNaN(m.TrainR2) || math.IsNaN(m.TestR2) || m.MAE < 0 || m.RMSE < 0 {
		t.Fatalf("degenerate metrics: %+v", m)
	}

	start := time.Date(2025, 4, 21, 6, 30, 0, 0, time.UTC)
	hz, err := h.Forecast("site-a", start, 24)
	if err != nil {
		t.Fatalf("forecast: %v", err)
	}
	points := hz.Collect()
	if len(points) != 24 {
		t.Fatalf("horizon length: want 24 got %d", len(points))
	}
	for i, p := range points {
		if p.SiteID != "site-a" {
			t.Fatalf("point %d: wrong site %s", i, p.SiteID)
		}
		want := start.Truncate(time.Hour).Add(time.Duration(i) * time.Hour)
		if !p.Hour.Equal(want) {
			t.Fatalf("point %d: hour %v, want %v", i, p.Hour, want)
		}
		if p.LowerKWh > p.PredictedKWh || p.PredictedKWh > p.UpperKWh {
			t.Fatalf("point %d: band violated: %+v", i, p)
		}
		if p.LowerKWh < 0 {
			t.Fatalf("point %d: negative lower bound %.2f", i, p.LowerKWh)
		}
		if p.PredictedSessions < 1 {
			t.Fatalf("point %d: sessions %d", i, p.PredictedSessions)
		}
	}
}

func TestHorizonIsNotRestartable(t *testing.T) {
	h := NewHandle(testConfig(), logger.NopLogger{})
	if _, err := h.Train(context.Background(), syntheticHistory(10)); err != nil {
		t.Fatalf("train: %v", err)
	}
	hz, err := h.Forecast("site-a", time.Date(2025, 4, 20, 0, 0, 0, 0, time.UTC), 3)
	if err != nil {
		t.Fatalf("forecast: %v", err)
	}
	if got := len(hz.Collect()); got != 3 {
		t.Fatalf("first drain: want 3 got %d", got)
	}
	if got := len(hz.Collect()); got != 0 {
		t.Fatalf("exhausted horizon yielded %d more points", got)
	}
	if _, ok := hz.Next(); ok {
		t.Fatal("Next after exhaustion must report ok=false")
	}
}

func TestForecastDeterministic(t *testing.T) {
	history := syntheticHistory(10)
	start := time.Date(2025, 4, 18, 0, 0, 0, 0, time.UTC)

	run := func() []model.DemandForecastPoint {
		h := NewHandle(testConfig(), logger.NopLogger{})
		if _, err := h.Train(context.Background(), history); err != nil {
			t.Fatalf("train: %v", err)
		}
		hz, err := h.Forecast("site-b", start, 12)
		if err != nil {
			t.Fatalf("forecast: %v", err)
		}
		return hz.Collect()
	}
	first, second := run(), run()
	for i := range first {
		if first[i] != second[i] {
			t.Fatalf("point %d differs: %+v vs %+v", i, first[i], second[i])
		}
	}
}

// Readers that grabbed a model before a retrain keep using it; the handle
// serves the replacement to new readers only after the swap.
func TestTrainSwapsModelAtomically(t *testing.T) {
	h := NewHandle(testConfig(), logger.NopLogger{})
	if _, err := h.Train(context.Background(), syntheticHistory(10)); err != nil {
		t.Fatalf("train: %v", err)
	}
	old, err := h.Model()
	if err != nil {
		t.Fatalf("model: %v", err)
	}
	if _, err := h.Train(context.Background(), syntheticHistory(14)); err != nil {
		t.Fatalf("retrain: %v", err)
	}
	cur, err := h.Model()
	if err != nil {
		t.Fatalf("model: %v", err)
	}
	if old == cur {
		t.Fatal("retrain must produce a new snapshot")
	}
	// The old snapshot still serves a full horizon.
	hz, err := old.Forecast("site-a", time.Date(2025, 4, 20, 0, 0, 0, 0, time.UTC), 6)
	if err != nil {
		t.Fatalf("old model forecast: %v", err)
	}
	if got := len(hz.Collect()); got != 6 {
		t.Fatalf("old model horizon: want 6 got %d", got)
	}
}

func TestTrainAbandonedLeavesModelIntact(t *testing.T) {
	h := NewHandle(testConfig(), logger.NopLogger{})
	if _, err := h.Train(context.Background(), syntheticHistory(10)); err != nil {
		t.Fatalf("train: %v", err)
	}
	before, _ := h.Model()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := h.Train(ctx, syntheticHistory(14)); err == nil {
		t.Fatal("expected canceled training to fail")
	}
	after, _ := h.Model()
	if before != after {
		t.Fatal("abandoned training must not replace the served model")
	}
}

func TestForecastInvalidHours(t *testing.T) {
	h := NewHandle(testConfig(), logger.NopLogger{})
	if _, err := h.Train(context.Background(), syntheticHistory(10)); err != nil {
		t.Fatalf("train: %v", err)
	}
	if _, err := h.Forecast("site-a", time.Now(), 0); err == nil {
		t.Fatal("expected error for zero hours")
	}
}
