package simulator

import (
	"math"
	"math/rand"

	"github.com/ironreach/reactor-twin/internal/config"
	"github.com/ironreach/reactor-twin/internal/domain"
)

// Walk advances a sensor value by one bounded random-walk step: a uniform
// perturbation in [-noise, +noise] added to prev, clamped to [min, max].
func Walk(prev, min, max, noise float64, rng *rand.Rand) float64 {
	return clamp(prev+perturbation(noise, rng), min, max)
}

func perturbation(noise float64, rng *rand.Rand) float64 {
	return (rng.Float64()*2 - 1) * noise
}

func clamp(v, min, max float64) float64 {
	return math.Min(max, math.Max(min, v))
}

// Simulator advances all configured channels together once per tick and
// occasionally injects a transient spike into one spike-capable channel.
// It is not safe for concurrent use; the engine drives it from a single
// goroutine with its own random source.
type Simulator struct {
	channels  []config.ChannelConfig
	values    []float64
	spikeProb float64
	spikeable []int
	rng       *rand.Rand
}

// New creates a simulator seeded with each channel's initial value.
func New(channels []config.ChannelConfig, spikeProb float64, rng *rand.Rand) *Simulator {
	s := &Simulator{
		channels:  channels,
		values:    make([]float64, len(channels)),
		spikeProb: spikeProb,
		rng:       rng,
	}
	for i, ch := range channels {
		s.values[i] = ch.Initial
		if ch.SpikeOffset > 0 {
			s.spikeable = append(s.spikeable, i)
		}
	}
	return s
}

// Tick advances every channel by one random-walk step, applies at most one
// spike, clamps, classifies, and returns the new readings in channel order.
// Published values are rounded to two decimals; Values keeps full precision.
func (s *Simulator) Tick() []domain.SensorReading {
	raw := make([]float64, len(s.channels))
	for i, ch := range s.channels {
		raw[i] = s.values[i] + perturbation(ch.Noise, s.rng)
	}

	// Spike injection happens after the walk and before clamping, so a
	// spike is a transient excursion rather than a shift of the walk center.
	if len(s.spikeable) > 0 && s.rng.Float64() < s.spikeProb {
		i := s.spikeable[s.rng.Intn(len(s.spikeable))]
		raw[i] += s.channels[i].SpikeOffset
	}

	readings := make([]domain.SensorReading, len(s.channels))
	for i, ch := range s.channels {
		s.values[i] = clamp(raw[i], ch.Min, ch.Max)
		readings[i] = domain.SensorReading{
			ID:     ch.ID,
			Value:  round2(s.values[i]),
			Unit:   ch.Unit,
			Status: Classify(s.values[i], ch.LowThresh, ch.HighThresh),
		}
	}
	return readings
}

// Values returns a copy of the current unrounded channel values in channel order.
func (s *Simulator) Values() []float64 {
	out := make([]float64, len(s.values))
	copy(out, s.values)
	return out
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
