// Package simulator generates synthetic charging session history, used to
// seed the store and exercise the forecaster before real data exists.
package simulator

import (
	"fmt"
	"math"
	"math/rand"
	"time"

	"github.com/google/uuid"

	"github.com/kilianp07/chargeplan/core/model"
)

// SiteProfile shapes the demand of one simulated site.
type SiteProfile struct {
	SiteID string `json:"site_id"`
	// BaseKWh is the off-peak hourly demand.
	BaseKWh float64 `json:"base_kwh"`
	// MorningPeakKWh and EveningPeakKWh are added around 08:00 and 18:00.
	MorningPeakKWh float64 `json:"morning_peak_kwh"`
	EveningPeakKWh float64 `json:"evening_peak_kwh"`
	// WeekendFactor scales Saturday and Sunday demand.
	WeekendFactor float64 `json:"weekend_factor"`
}

// Config controls the generated history.
type Config struct {
	Sites []SiteProfile `json:"sites"`
	Days  int           `json:"days"`
	Seed  int64         `json:"seed"`
	// SessionKWh is the average energy of one session; hourly demand is split
	// into sessions of roughly this size.
	SessionKWh float64 `json:"session_kwh"`
}

// SetDefaults fills a workable two-site default scenario.
func (c *Config) SetDefaults() {
	if len(c.Sites) == 0 {
		c.Sites = []SiteProfile{
			{SiteID: "site-a", BaseKWh: 20, MorningPeakKWh: 40, EveningPeakKWh: 60, WeekendFactor: 0.6},
			{SiteID: "site-b", BaseKWh: 10, MorningPeakKWh: 20, EveningPeakKWh: 30, WeekendFactor: 0.7},
		}
	}
	if c.Days == 0 {
		c.Days = 28
	}
	if c.Seed == 0 {
		c.Seed = 42
	}
	if c.SessionKWh == 0 {
		c.SessionKWh = 25
	}
}

// Generate produces completed sessions for the configured sites over Days
// days ending at end. Output is deterministic for a given config.
func Generate(cfg Config, end time.Time) []model.SessionRecord {
	cfg.SetDefaults()
	rng := rand.New(rand.NewSource(cfg.Seed))
	start := end.UTC().Truncate(time.Hour).AddDate(0, 0, -cfg.Days)

	var out []model.SessionRecord
	for d := 0; d < cfg.Days; d++ {
		for h := 0; h < 24; h++ {
			ts := start.AddDate(0, 0, d).Add(time.Duration(h) * time.Hour)
			for _, site := range cfg.Sites {
				demand := hourlyDemand(site, ts)
				// Split the hour's energy into sessions with some jitter.
				remaining := demand * (0.85 + 0.3*rng.Float64())
				for remaining > 1 {
					kwh := math.Min(remaining, cfg.SessionKWh*(0.5+rng.Float64()))
					out = append(out, model.SessionRecord{
						ID:                 sessionID(rng),
						SiteID:             site.SiteID,
						StartTime:          ts.Add(time.Duration(rng.Intn(60)) * time.Minute),
						EnergyDeliveredKWh: math.Round(kwh*100) / 100,
						Status:             model.StatusCompleted,
					})
					remaining -= kwh
				}
			}
		}
	}
	return out
}

// hourlyDemand evaluates the site profile at one hour: Gaussian bumps around
// the commute peaks on top of the base load.
func hourlyDemand(site SiteProfile, ts time.Time) float64 {
	h := float64(ts.Hour())
	demand := site.BaseKWh +
		site.MorningPeakKWh*math.Exp(-sq(h-8)/8) +
		site.EveningPeakKWh*math.Exp(-sq(h-18)/8)
	if wd := ts.Weekday(); wd == time.Saturday || wd == time.Sunday {
		demand *= site.WeekendFactor
	}
	return demand
}

// sessionID derives ids from the seeded rng so runs stay reproducible.
func sessionID(rng *rand.Rand) string {
	var b [16]byte
	_, _ = rng.Read(b[:])
	id, err := uuid.FromBytes(b[:])
	if err != nil {
		return fmt.Sprintf("sess-%d", rng.Int63())
	}
	return id.String()
}

func sq(v float64) float64 { return v * v }
