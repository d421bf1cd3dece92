package forecast

import (
	"math"
	"sort"
	"time"

	"github.com/kilianp07/chargeplan/core/model"
)

// Feature vector layout. Trees address features by position, so the order is
// part of the model format.
const (
	fHourOfDay = iota
	fDayOfWeek
	fIsWeekend
	fTemperature
	fSite
	fRollingAvgKWh
	fRollingSessions
	numFeatures
)

// rollingWindow is the trailing span of hourly rows feeding the rolling
// demand features: seven days.
const rollingWindow = 7 * 24

// hourlyDemand is one aggregated row: total energy delivered at a site
// during one clock hour.
type hourlyDemand struct {
	siteID   string
	hour     time.Time
	totalKWh float64
	sessions int
}

// sample pairs a feature vector with its regression target.
type sample struct {
	x [numFeatures]float64
	y float64
}

// aggregateHourly groups sessions by site and hour, sorted by site then time
// so trailing windows can be computed with a single pass.
func aggregateHourly(history []model.SessionRecord) []hourlyDemand {
	type key struct {
		site string
		hour int64
	}
	agg := make(map[key]*hourlyDemand)
	for _, s := range history {
		h := s.StartTime.UTC().Truncate(time.Hour)
		k := key{s.SiteID, h.Unix()}
		row, ok := agg[k]
		if !ok {
			row = &hourlyDemand{siteID: s.SiteID, hour: h}
			agg[k] = row
		}
		row.totalKWh += s.EnergyDeliveredKWh
		row.sessions++
	}
	rows := make([]hourlyDemand, 0, len(agg))
	for _, r := range agg {
		rows = append(rows, *r)
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].siteID != rows[j].siteID {
			return rows[i].siteID < rows[j].siteID
		}
		return rows[i].hour.Before(rows[j].hour)
	})
	return rows
}

// siteIndex assigns a stable categorical index to every site seen in the
// aggregated rows.
func siteIndex(rows []hourlyDemand) map[string]int {
	sites := make(map[string]int)
	for _, r := range rows {
		if _, ok := sites[r.siteID]; !ok {
			sites[r.siteID] = len(sites)
		}
	}
	return sites
}

// buildSamples derives one training sample per hourly row. Rolling averages
// are trailing means over the preceding seven days of rows of the same site,
// including the current row.
func buildSamples(rows []hourlyDemand, sites map[string]int) []sample {
	samples := make([]sample, 0, len(rows))
	start := 0
	for i := range rows {
		if rows[i].siteID != rows[start].siteID {
			start = i
		}
		lo := i - rollingWindow + 1
		if lo < start {
			lo = start
		}
		var sumKWh, sumSess float64
		for j := lo; j <= i; j++ {
			sumKWh += rows[j].totalKWh
			sumSess += float64(rows[j].sessions)
		}
		n := float64(i - lo + 1)
		samples = append(samples, sample{
			x: featureVector(sites[rows[i].siteID], rows[i].hour, sumKWh/n, sumSess/n),
			y: rows[i].totalKWh,
		})
	}
	return samples
}

// featureVector assembles the model input for one site-hour.
func featureVector(site int, hour time.Time, rollingKWh, rollingSessions float64) [numFeatures]float64 {
	var x [numFeatures]float64
	x[fHourOfDay] = float64(hour.Hour())
	wd := float64((int(hour.Weekday()) + 6) % 7) // Monday=0 .. Sunday=6
	x[fDayOfWeek] = wd
	if wd >= 5 {
		x[fIsWeekend] = 1
	}
	x[fTemperature] = simulateTemperature(hour)
	x[fSite] = float64(site)
	x[fRollingAvgKWh] = rollingKWh
	x[fRollingSessions] = rollingSessions
	return x
}

// monthBaseTemp approximates a temperate-climate monthly mean in degrees
// Celsius, indexed by time.Month.
var monthBaseTemp = [13]float64{0, 0, -2, 3, 8, 14, 18, 20, 19, 14, 8, 3, 1}

// simulateTemperature is a stand-in for a weather feed: the monthly baseline
// plus a sinusoidal day cycle peaking mid-afternoon.
func simulateTemperature(t time.Time) float64 {
	return monthBaseTemp[int(t.Month())] + 5*math.Sin(float64(t.Hour()-6)*math.Pi/12)
}
