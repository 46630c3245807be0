// Package detector runs the periodic refit/score/threshold cycle against
// the rolling history window.
package detector

import (
	"errors"
	"log/slog"
	"math"
	"math/rand"

	"github.com/ironreach/reactor-twin/internal/domain"
	"github.com/ironreach/reactor-twin/internal/history"
	"github.com/ironreach/reactor-twin/internal/iforest"
	"github.com/ironreach/reactor-twin/internal/monitor"
	"github.com/ironreach/reactor-twin/internal/twin"
)

// Config holds the detector hyperparameters.
type Config struct {
	Zone           string
	WarmupFloor    int
	ScoreThreshold float64
	Trees          int
	Contamination  float64
}

// Detector owns the outlier-scoring model. It starts in a warming-up state
// and becomes active after its first successful fit. Each cycle refits the
// model from scratch on the current window; there is no incremental update.
type Detector struct {
	cfg     Config
	history *history.Buffer
	twin    *twin.State
	rng     *rand.Rand
	log     *slog.Logger
	active  bool
}

// New creates a detector in the warming-up state. The random source feeds
// tree construction and must not be shared with the simulator.
func New(cfg Config, hist *history.Buffer, state *twin.State, rng *rand.Rand, log *slog.Logger) *Detector {
	return &Detector{cfg: cfg, history: hist, twin: state, rng: rng, log: log}
}

// Active reports whether the model has been fitted at least once.
func (d *Detector) Active() bool {
	return d.active
}

// RunCycle executes one detection cycle and reports whether a refit+score
// actually ran. Below the warm-up floor the cycle is a silent no-op. A fit
// or score failure aborts the cycle, leaves the previous zone health
// untouched, and is surfaced only as a diagnostic.
func (d *Detector) RunCycle() bool {
	matrix, err := d.history.Snapshot(d.cfg.WarmupFloor)
	if err != nil {
		if errors.Is(err, domain.ErrInsufficientHistory) {
			d.log.Debug("detector warming up",
				"samples", d.history.Rows(),
				"floor", d.cfg.WarmupFloor)
			return false
		}
		d.log.Warn("history snapshot failed", "error", err)
		return false
	}

	forest := iforest.New(d.cfg.Trees, d.cfg.Contamination, d.rng)
	if err := forest.Fit(matrix); err != nil {
		monitor.RefitFailuresTotal.Inc()
		d.log.Warn("model refit failed, keeping previous zone health", "error", err)
		return false
	}

	score, err := forest.Score(matrix[len(matrix)-1])
	if err != nil {
		monitor.RefitFailuresTotal.Inc()
		d.log.Warn("model scoring failed, keeping previous zone health", "error", err)
		return false
	}

	d.active = true
	monitor.DetectionCyclesTotal.Inc()

	if score < d.cfg.ScoreThreshold {
		d.twin.SetZoneHealth(d.cfg.Zone, domain.StatusCritical)
		event := domain.AnomalyEvent{
			Zone:      d.cfg.Zone,
			Severity:  math.Abs(score),
			Timestamp: d.twin.SampleCount(),
		}
		d.twin.RecordAnomaly(event)
		monitor.AnomaliesTotal.Inc()
		d.log.Info("anomaly detected",
			"zone", d.cfg.Zone,
			"score", score,
			"severity", event.Severity,
			"sample", event.Timestamp)
	} else {
		d.twin.SetZoneHealth(d.cfg.Zone, domain.StatusNormal)
	}
	return true
}
