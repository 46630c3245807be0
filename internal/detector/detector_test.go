package detector

import (
	"io"
	"log/slog"
	"math"
	"math/rand"
	"testing"

	"github.com/ironreach/reactor-twin/internal/domain"
	"github.com/ironreach/reactor-twin/internal/history"
	"github.com/ironreach/reactor-twin/internal/twin"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testConfig() Config {
	return Config{
		Zone:           "core",
		WarmupFloor:    50,
		ScoreThreshold: -0.05,
		Trees:          100,
		Contamination:  0.05,
	}
}

func newFixture(cfg Config) (*Detector, *history.Buffer, *twin.State) {
	hist := history.New([]string{"a", "b"}, 50)
	state := twin.New([]string{"a", "b"}, []string{cfg.Zone}, 10)
	det := New(cfg, hist, state, rand.New(rand.NewSource(11)), discardLogger())
	return det, hist, state
}

func fillConstant(hist *history.Buffer, state *twin.State, rows int) {
	for i := 0; i < rows; i++ {
		hist.Append([]float64{1, 2})
		state.ApplyReadings(nil) // advance the sample count in step with history
	}
}

func TestRunCycle_WarmupGate(t *testing.T) {
	det, hist, state := newFixture(testConfig())
	fillConstant(hist, state, 49)

	if det.RunCycle() {
		t.Error("cycle below the warm-up floor should be a no-op")
	}
	if det.Active() {
		t.Error("detector should still be warming up")
	}
	snap := state.Snapshot()
	if snap.ZoneHealth["core"] != domain.StatusNormal {
		t.Errorf("warm-up cycle changed zone health to %s", snap.ZoneHealth["core"])
	}
	if len(snap.Anomalies) != 0 {
		t.Errorf("warm-up cycle appended %d anomaly events", len(snap.Anomalies))
	}
}

func TestRunCycle_BenignDataStaysNormal(t *testing.T) {
	det, hist, state := newFixture(testConfig())
	fillConstant(hist, state, 50)

	if !det.RunCycle() {
		t.Fatal("cycle at the warm-up floor should refit and score")
	}
	if !det.Active() {
		t.Error("detector should be active after first fit")
	}
	snap := state.Snapshot()
	if snap.ZoneHealth["core"] != domain.StatusNormal {
		t.Errorf("expected normal health on constant data, got %s", snap.ZoneHealth["core"])
	}
	if len(snap.Anomalies) != 0 {
		t.Errorf("expected no anomaly events, got %d", len(snap.Anomalies))
	}
}

func TestRunCycle_DetectsOutlierInLatestRow(t *testing.T) {
	det, hist, state := newFixture(testConfig())
	fillConstant(hist, state, 49)
	hist.Append([]float64{1000, 2000})
	state.ApplyReadings(nil)

	if !det.RunCycle() {
		t.Fatal("cycle should refit and score")
	}
	snap := state.Snapshot()
	if snap.ZoneHealth["core"] != domain.StatusCritical {
		t.Fatalf("expected critical health, got %s", snap.ZoneHealth["core"])
	}
	if len(snap.Anomalies) != 1 {
		t.Fatalf("expected exactly one anomaly event, got %d", len(snap.Anomalies))
	}
	e := snap.Anomalies[0]
	if e.Zone != "core" {
		t.Errorf("expected zone core, got %s", e.Zone)
	}
	if e.Severity <= 0 {
		t.Errorf("expected positive severity, got %g", e.Severity)
	}
	if e.Timestamp != 50 {
		t.Errorf("expected timestamp 50 (sample count), got %d", e.Timestamp)
	}
}

func TestRunCycle_HealthFlipsBackPerCycle(t *testing.T) {
	det, hist, state := newFixture(testConfig())
	fillConstant(hist, state, 49)
	hist.Append([]float64{1000, 2000})
	state.ApplyReadings(nil)

	if !det.RunCycle() {
		t.Fatal("first cycle should run")
	}
	if state.Snapshot().ZoneHealth["core"] != domain.StatusCritical {
		t.Fatal("expected critical after outlier")
	}

	// Push the outlier out of the window with benign rows; no hysteresis
	// means the next cycle flips health straight back to normal.
	fillConstant(hist, state, 50)
	if !det.RunCycle() {
		t.Fatal("second cycle should run")
	}
	if got := state.Snapshot().ZoneHealth["core"]; got != domain.StatusNormal {
		t.Errorf("expected normal after benign window, got %s", got)
	}
}

func TestRunCycle_FitFailureKeepsPreviousHealth(t *testing.T) {
	det, hist, state := newFixture(testConfig())
	for i := 0; i < 50; i++ {
		hist.Append([]float64{math.NaN(), 2})
		state.ApplyReadings(nil)
	}
	state.SetZoneHealth("core", domain.StatusCritical)

	if det.RunCycle() {
		t.Error("cycle with non-finite data should abort")
	}
	if got := state.Snapshot().ZoneHealth["core"]; got != domain.StatusCritical {
		t.Errorf("aborted cycle should retain previous health, got %s", got)
	}
	if det.Active() {
		t.Error("failed fit should not activate the detector")
	}
}
