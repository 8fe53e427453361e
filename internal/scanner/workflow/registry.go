package workflow

import (
	"sync"

	"github.com/tair/inventory-scanner/internal/scanner/capture"
	"github.com/tair/inventory-scanner/internal/scanner/domain"
	"github.com/tair/inventory-scanner/pkg/metrics"
)

// Dependencies are shared by every workflow of a registry
type Dependencies struct {
	Opener      SessionOpener
	Recorder    ScanRecorder
	Counter     ScanCounter
	Sink        domain.NotificationSink
	Metrics     *metrics.ScannerMetrics
	NewEngine   func() capture.Engine
	FrameBuffer int
}

// Station is one user's workflow together with the video source it reads
type Station struct {
	Workflow *Workflow
	Source   *capture.ChannelSource
}

// Registry holds one station per authenticated user, created on first use
type Registry struct {
	deps Dependencies

	mu       sync.Mutex
	stations map[string]*Station
}

// NewRegistry creates an empty registry
func NewRegistry(deps Dependencies) *Registry {
	if deps.NewEngine == nil {
		deps.NewEngine = func() capture.Engine { return capture.NewZXingEngine() }
	}
	return &Registry{deps: deps, stations: make(map[string]*Station)}
}

// Station returns the user's station, creating it if needed
func (r *Registry) Station(userID string) *Station {
	r.mu.Lock()
	defer r.mu.Unlock()

	if s, ok := r.stations[userID]; ok {
		return s
	}

	controller := capture.NewController(r.deps.NewEngine(), r.deps.Metrics)
	s := &Station{
		Workflow: New(r.deps.Opener, r.deps.Recorder, r.deps.Counter, controller, r.deps.Sink, r.deps.Metrics),
		Source:   capture.NewChannelSource(r.deps.FrameBuffer),
	}
	r.stations[userID] = s
	return s
}

// Len returns the number of stations
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.stations)
}

// Remove stops the user's capture and forgets the station
func (r *Registry) Remove(userID string) {
	r.mu.Lock()
	s, ok := r.stations[userID]
	delete(r.stations, userID)
	r.mu.Unlock()

	if ok {
		s.Workflow.CancelCapture()
	}
}

// Close stops every capture in flight
func (r *Registry) Close() {
	r.mu.Lock()
	stations := make([]*Station, 0, len(r.stations))
	for _, s := range r.stations {
		stations = append(stations, s)
	}
	r.mu.Unlock()

	for _, s := range stations {
		s.Workflow.CancelCapture()
	}
}
