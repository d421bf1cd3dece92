// Package forecast predicts per-hour charging demand for a site from
// historical session aggregates, using a bagged ensemble of regression trees.
// The trained model is process-wide read-heavy state held behind a Handle and
// replaced atomically by training runs.
package forecast

import (
	"context"
	"fmt"
	"math"
	"sync"
	"sync/atomic"
	"time"

	"gonum.org/v1/gonum/stat"

	"github.com/kilianp07/chargeplan/core/logger"
	"github.com/kilianp07/chargeplan/core/model"
)

// confidenceZ is the z-score of the ~95% band derived from tree dispersion.
const confidenceZ = 1.96

// Config defines training and inference parameters.
type Config struct {
	// MinTrainingRows is the minimum number of completed sessions required
	// before a model is fitted.
	MinTrainingRows int `json:"min_training_rows"`
	// Trees is the ensemble size.
	Trees int `json:"trees"`
	// MaxDepth, MinSamplesSplit and MinSamplesLeaf bound each tree.
	MaxDepth        int `json:"max_depth"`
	MinSamplesSplit int `json:"min_samples_split"`
	MinSamplesLeaf  int `json:"min_samples_leaf"`
	// TestFraction is the held-out share used for the reported metrics.
	TestFraction float64 `json:"test_fraction"`
	// Seed makes bootstrap sampling and the train/test split reproducible.
	Seed int64 `json:"seed"`
	// AvgSessionKWh is the heuristic used to estimate active sessions from
	// predicted energy.
	AvgSessionKWh float64 `json:"avg_session_kwh"`
}

// SetDefaults applies the documented defaults.
func (c *Config) SetDefaults() {
	if c.MinTrainingRows == 0 {
		c.MinTrainingRows = 100
	}
	if c.Trees == 0 {
		c.Trees = 100
	}
	if c.MaxDepth == 0 {
		c.MaxDepth = 15
	}
	if c.MinSamplesSplit == 0 {
		c.MinSamplesSplit = 5
	}
	if c.MinSamplesLeaf == 0 {
		c.MinSamplesLeaf = 2
	}
	if c.TestFraction == 0 {
		c.TestFraction = 0.2
	}
	if c.Seed == 0 {
		c.Seed = 42
	}
	if c.AvgSessionKWh == 0 {
		c.AvgSessionKWh = 30
	}
}

// Validate checks the parameter bounds.
func (c Config) Validate() error {
	if c.Trees < 2 {
		return fmt.Errorf("ensemble needs at least 2 trees, got %d", c.Trees)
	}
	if c.MaxDepth < 1 {
		return fmt.Errorf("max depth must be positive, got %d", c.MaxDepth)
	}
	if c.TestFraction <= 0 || c.TestFraction >= 1 {
		return fmt.Errorf("test fraction must be in (0,1), got %.2f", c.TestFraction)
	}
	if c.MinTrainingRows < 1 {
		return fmt.Errorf("min training rows must be positive, got %d", c.MinTrainingRows)
	}
	return nil
}

// TrainingMetrics reports the fit of one training run.
type TrainingMetrics struct {
	TrainR2   float64   `json:"train_r2"`
	TestR2    float64   `json:"test_r2"`
	MAE       float64   `json:"mae"`
	RMSE      float64   `json:"rmse"`
	Rows      int       `json:"rows"`
	Sites     int       `json:"sites"`
	TrainedAt time.Time `json:"trained_at"`
}

// Model is one immutable trained snapshot: the ensemble plus the site index
// and per-site hourly history needed to recompute the rolling features at
// inference time. Safe for concurrent use.
type Model struct {
	cfg     Config
	forest  *forest
	sites   map[string]int
	history map[string][]hourlyDemand
	metrics TrainingMetrics
}

// Metrics returns the training metrics of this snapshot.
func (m *Model) Metrics() TrainingMetrics { return m.metrics }

// Forecast returns a lazy horizon of hourly predictions starting at the hour
// containing start. Unknown sites fall back to the first site index rather
// than failing, matching the conservative behaviour of the rest of the
// planner.
func (m *Model) Forecast(siteID string, start time.Time, hours int) (*Horizon, error) {
	if hours <= 0 {
		return nil, fmt.Errorf("hours ahead must be positive, got %d", hours)
	}
	site := m.sites[siteID]
	return &Horizon{
		m:      m,
		siteID: siteID,
		site:   site,
		start:  start.UTC().Truncate(time.Hour),
		hours:  hours,
	}, nil
}

// point computes the prediction for a single hour.
func (m *Model) point(siteID string, site int, hour time.Time) model.DemandForecastPoint {
	avgKWh, avgSess := m.trailingAverages(siteID, hour)
	pred, std := m.forest.predict(featureVector(site, hour, avgKWh, avgSess))
	lower := pred - confidenceZ*std
	upper := pred + confidenceZ*std
	if pred < 0 {
		pred = 0
	}
	if lower < 0 {
		lower = 0
	}
	if lower > pred {
		lower = pred
	}
	if upper < pred {
		upper = pred
	}
	sessions := int(pred / m.cfg.AvgSessionKWh)
	if sessions < 1 {
		sessions = 1
	}
	return model.DemandForecastPoint{
		SiteID:            siteID,
		Hour:              hour,
		PredictedKWh:      round2(pred),
		LowerKWh:          round2(lower),
		UpperKWh:          round2(upper),
		PredictedSessions: sessions,
	}
}

// trailingAverages computes the rolling demand features from the stored
// hourly history: mean energy and mean session count per hourly row over the
// seven days preceding hour.
func (m *Model) trailingAverages(siteID string, hour time.Time) (float64, float64) {
	rows := m.history[siteID]
	from := hour.Add(-rollingWindow * time.Hour)
	var sumKWh, sumSess float64
	n := 0
	for _, r := range rows {
		if r.hour.Before(from) || !r.hour.Before(hour) {
			continue
		}
		sumKWh += r.totalKWh
		sumSess += float64(r.sessions)
		n++
	}
	if n == 0 {
		return 0, 0
	}
	return sumKWh / float64(n), sumSess / float64(n)
}

// Horizon is a lazy, finite cursor over the hourly forecast of one site.
// Points are computed on demand and the cursor cannot be rewound; request a
// new horizon to iterate again.
type Horizon struct {
	m      *Model
	siteID string
	site   int
	start  time.Time
	hours  int
	next   int
}

// Hours returns the total length of the horizon.
func (h *Horizon) Hours() int { return h.hours }

// Next returns the next point, or ok=false once the horizon is exhausted.
func (h *Horizon) Next() (model.DemandForecastPoint, bool) {
	if h.next >= h.hours {
		return model.DemandForecastPoint{}, false
	}
	p := h.m.point(h.siteID, h.site, h.start.Add(time.Duration(h.next)*time.Hour))
	h.next++
	return p, true
}

// Collect drains the remaining points into a slice.
func (h *Horizon) Collect() []model.DemandForecastPoint {
	out := make([]model.DemandForecastPoint, 0, h.hours-h.next)
	for {
		p, ok := h.Next()
		if !ok {
			return out
		}
		out = append(out, p)
	}
}

// Handle is the process-wide reference to the served model. Readers load the
// current snapshot; Train builds a complete replacement off to the side and
// swaps it in atomically, so forecasts in flight finish on the old model and
// an abandoned training run leaves it untouched.
type Handle struct {
	cfg Config
	log logger.Logger
	cur atomic.Pointer[Model]
	mu  sync.Mutex // serialises training runs
}

// NewHandle returns an untrained handle.
func NewHandle(cfg Config, log logger.Logger) *Handle {
	cfg.SetDefaults()
	return &Handle{cfg: cfg, log: log}
}

// Model returns the current snapshot or ErrModelNotTrained.
func (h *Handle) Model() (*Model, error) {
	m := h.cur.Load()
	if m == nil {
		return nil, ErrModelNotTrained
	}
	return m, nil
}

// Forecast runs inference against the current snapshot.
func (h *Handle) Forecast(siteID string, start time.Time, hours int) (*Horizon, error) {
	m, err := h.Model()
	if err != nil {
		return nil, err
	}
	return m.Forecast(siteID, start, hours)
}

// Train fits a new model on the completed sessions in history and swaps it
// in. The previous model keeps serving until the swap.
func (h *Handle) Train(ctx context.Context, history []model.SessionRecord) (TrainingMetrics, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	completed := make([]model.SessionRecord, 0, len(history))
	for _, s := range history {
		if s.Status == model.StatusCompleted && s.EnergyDeliveredKWh > 0 {
			completed = append(completed, s)
		}
	}
	if len(completed) < h.cfg.MinTrainingRows {
		return TrainingMetrics{}, &InsufficientDataError{Rows: len(completed), Min: h.cfg.MinTrainingRows}
	}

	rows := aggregateHourly(completed)
	sites := siteIndex(rows)
	samples := buildSamples(rows, sites)

	trainSet, testSet := splitSamples(samples, h.cfg.TestFraction, h.cfg.Seed)
	f, err := trainForest(ctx, trainSet, forestParams{
		trees: h.cfg.Trees,
		seed:  h.cfg.Seed,
		tree: treeParams{
			maxDepth:        h.cfg.MaxDepth,
			minSamplesSplit: h.cfg.MinSamplesSplit,
			minSamplesLeaf:  h.cfg.MinSamplesLeaf,
		},
	})
	if err != nil {
		return TrainingMetrics{}, fmt.Errorf("train forest: %w", err)
	}

	metrics := evaluate(f, trainSet, testSet)
	metrics.Rows = len(completed)
	metrics.Sites = len(sites)
	metrics.TrainedAt = time.Now().UTC()

	bySite := make(map[string][]hourlyDemand, len(sites))
	for _, r := range rows {
		bySite[r.siteID] = append(bySite[r.siteID], r)
	}
	h.cur.Store(&Model{
		cfg:     h.cfg,
		forest:  f,
		sites:   sites,
		history: bySite,
		metrics: metrics,
	})
	if h.log != nil {
		h.log.Infof("demand model trained: %d sessions, %d sites, test R2 %.3f, RMSE %.2f",
			metrics.Rows, metrics.Sites, metrics.TestR2, metrics.RMSE)
	}
	return metrics, nil
}

// splitSamples shuffles deterministically and holds out the test fraction.
func splitSamples(samples []sample, frac float64, seed int64) (train, test []sample) {
	perm := newPerm(len(samples), seed)
	nTest := int(float64(len(samples)) * frac)
	if nTest < 1 {
		nTest = 1
	}
	if nTest >= len(samples) {
		nTest = len(samples) - 1
	}
	test = make([]sample, 0, nTest)
	train = make([]sample, 0, len(samples)-nTest)
	for i, p := range perm {
		if i < nTest {
			test = append(test, samples[p])
		} else {
			train = append(train, samples[p])
		}
	}
	return train, test
}

// evaluate computes R2 on both sets and MAE/RMSE on the held-out set.
func evaluate(f *forest, train, test []sample) TrainingMetrics {
	trainEst, trainVal := predictAll(f, train)
	testEst, testVal := predictAll(f, test)

	var mae, mse float64
	for i := range testEst {
		d := testVal[i] - testEst[i]
		mae += math.Abs(d)
		mse += d * d
	}
	n := float64(len(testEst))
	return TrainingMetrics{
		TrainR2: stat.RSquaredFrom(trainEst, trainVal, nil),
		TestR2:  stat.RSquaredFrom(testEst, testVal, nil),
		MAE:     mae / n,
		RMSE:    math.Sqrt(mse / n),
	}
}

func predictAll(f *forest, set []sample) (est, val []float64) {
	est = make([]float64, len(set))
	val = make([]float64, len(set))
	for i, s := range set {
		est[i], _ = f.predict(s.x)
		val[i] = s.y
	}
	return est, val
}

func round2(v float64) float64 { return math.Round(v*100) / 100 }
