// Package engine wires the simulator, history window, detector, twin state
// and broadcaster together and drives the two periodic activities.
package engine

import (
	"context"
	"log/slog"
	"math/rand"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ironreach/reactor-twin/internal/broadcast"
	"github.com/ironreach/reactor-twin/internal/config"
	"github.com/ironreach/reactor-twin/internal/detector"
	"github.com/ironreach/reactor-twin/internal/history"
	"github.com/ironreach/reactor-twin/internal/monitor"
	"github.com/ironreach/reactor-twin/internal/simulator"
	"github.com/ironreach/reactor-twin/internal/twin"
)

// Engine is the telemetry core: one instance owns all shared state, so
// tests can run multiple independent engines. The simulation tick and the
// detection cycle run on independent schedules and only exclude each other
// at the moments they touch shared state.
type Engine struct {
	cfg      config.Config
	sim      *simulator.Simulator
	history  *history.Buffer
	twin     *twin.State
	detector *detector.Detector
	hub      *broadcast.Hub
	log      *slog.Logger
	running  atomic.Bool

	mu sync.Mutex // serializes Step with itself and with history reads in DetectOnce
}

// New builds an engine from validated configuration. The two random
// sources feed the simulator and the detector respectively; they must be
// independent so each loop stays reproducible under test.
func New(cfg config.Config, log *slog.Logger, simRng, detRng *rand.Rand) *Engine {
	ids := cfg.ChannelIDs()
	hist := history.New(ids, cfg.HistoryCapacity)
	state := twin.New(ids, []string{cfg.Zone}, cfg.AnomalyLogCapacity)
	det := detector.New(detector.Config{
		Zone:           cfg.Zone,
		WarmupFloor:    cfg.WarmupFloor,
		ScoreThreshold: cfg.ScoreThreshold,
		Trees:          cfg.Trees,
		Contamination:  cfg.Contamination,
	}, hist, state, detRng, log)

	return &Engine{
		cfg:      cfg,
		sim:      simulator.New(cfg.Channels, cfg.SpikeProbability, simRng),
		history:  hist,
		twin:     state,
		detector: det,
		hub:      broadcast.NewHub(log),
		log:      log,
	}
}

// Twin returns the engine's shared state.
func (e *Engine) Twin() *twin.State {
	return e.twin
}

// Hub returns the engine's broadcaster.
func (e *Engine) Hub() *broadcast.Hub {
	return e.hub
}

// History returns the engine's rolling window.
func (e *Engine) History() *history.Buffer {
	return e.history
}

// Detector returns the engine's anomaly detector.
func (e *Engine) Detector() *detector.Detector {
	return e.detector
}

// Running reports whether Run is currently active.
func (e *Engine) Running() bool {
	return e.running.Load()
}

// Attach registers a subscriber and sends it the current full state.
func (e *Engine) Attach(c broadcast.Conn) error {
	return e.hub.Attach(c, e.twin.Snapshot())
}

// Step executes one simulation tick: advance all channels atomically,
// update the twin, append to history, then snapshot and publish. Mutation
// always completes before the publish snapshot is taken.
func (e *Engine) Step() {
	e.mu.Lock()
	readings := e.sim.Tick()
	e.twin.ApplyReadings(readings)
	if err := e.history.Append(e.sim.Values()); err != nil {
		e.mu.Unlock()
		e.log.Error("history append failed, skipping publish", "error", err)
		return
	}
	snap := e.twin.Snapshot()
	e.mu.Unlock()

	monitor.TicksTotal.Inc()
	e.hub.Publish(snap)
}

// DetectOnce executes one detection cycle and reports whether the model
// actually refit and scored.
func (e *Engine) DetectOnce() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.detector.RunCycle()
}

// Run drives the tick and detection loops until the context is cancelled,
// then closes all subscriber connections. In-flight publishes complete
// before shutdown since both loops stop between iterations.
func (e *Engine) Run(ctx context.Context) {
	e.running.Store(true)
	defer e.running.Store(false)

	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		t := time.NewTicker(e.cfg.TickInterval)
		defer t.Stop()
		e.log.Info("simulation loop started", "interval", e.cfg.TickInterval)
		for {
			select {
			case <-t.C:
				e.Step()
			case <-ctx.Done():
				e.log.Info("simulation loop stopped")
				return
			}
		}
	}()

	go func() {
		defer wg.Done()
		t := time.NewTicker(e.cfg.DetectInterval)
		defer t.Stop()
		e.log.Info("detection loop started", "interval", e.cfg.DetectInterval)
		for {
			select {
			case <-t.C:
				e.DetectOnce()
			case <-ctx.Done():
				e.log.Info("detection loop stopped")
				return
			}
		}
	}()

	wg.Wait()
	e.hub.Shutdown()
}
