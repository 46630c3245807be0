// Package twin holds the process-wide mutable snapshot of the monitored
// process: latest readings, zone health, and the bounded anomaly log.
package twin

import (
	"sync"

	"github.com/ironreach/reactor-twin/internal/domain"
)

// State is the digital twin's shared state. All writers go through its
// mutex; readers take a deep-copy Snapshot so publishing never observes a
// torn update and never holds the lock during fan-out.
type State struct {
	mu          sync.RWMutex
	order       []string
	readings    map[string]domain.SensorReading
	zoneHealth  map[string]domain.Status
	anomalies   []domain.AnomalyEvent
	logCapacity int
	sampleCount int64
}

// Snapshot is a point-in-time deep copy of the twin state.
type Snapshot struct {
	Readings    []domain.SensorReading   `json:"readings"`
	ZoneHealth  map[string]domain.Status `json:"twin_state"`
	Anomalies   []domain.AnomalyEvent    `json:"anomalies"`
	SampleCount int64                    `json:"sample_count"`
}

// New creates a twin with every zone healthy and no readings yet.
// channelOrder fixes the ordering of readings in snapshots and payloads.
func New(channelOrder []string, zones []string, logCapacity int) *State {
	health := make(map[string]domain.Status, len(zones))
	for _, z := range zones {
		health[z] = domain.StatusNormal
	}
	order := make([]string, len(channelOrder))
	copy(order, channelOrder)
	return &State{
		order:       order,
		readings:    make(map[string]domain.SensorReading, len(channelOrder)),
		zoneHealth:  health,
		logCapacity: logCapacity,
	}
}

// ApplyReadings overwrites the per-channel readings with one tick's values
// and advances the sample count. All readings become visible atomically.
func (s *State) ApplyReadings(readings []domain.SensorReading) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range readings {
		s.readings[r.ID] = r
	}
	s.sampleCount++
}

// SampleCount returns the number of ticks applied so far.
func (s *State) SampleCount() int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sampleCount
}

// SetZoneHealth sets the anomaly-derived status of one zone.
func (s *State) SetZoneHealth(zone string, status domain.Status) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.zoneHealth[zone] = status
}

// RecordAnomaly appends an event, dropping the oldest once the log exceeds
// its capacity. Events are never mutated after creation.
func (s *State) RecordAnomaly(e domain.AnomalyEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.anomalies = append(s.anomalies, e)
	if len(s.anomalies) > s.logCapacity {
		s.anomalies = s.anomalies[len(s.anomalies)-s.logCapacity:]
	}
}

// Snapshot returns a deep copy of the current state. Readings appear in
// channel order; channels that have not ticked yet are omitted.
func (s *State) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	readings := make([]domain.SensorReading, 0, len(s.order))
	for _, id := range s.order {
		if r, ok := s.readings[id]; ok {
			readings = append(readings, r)
		}
	}
	health := make(map[string]domain.Status, len(s.zoneHealth))
	for z, st := range s.zoneHealth {
		health[z] = st
	}
	anomalies := make([]domain.AnomalyEvent, len(s.anomalies))
	copy(anomalies, s.anomalies)

	return Snapshot{
		Readings:    readings,
		ZoneHealth:  health,
		Anomalies:   anomalies,
		SampleCount: s.sampleCount,
	}
}
