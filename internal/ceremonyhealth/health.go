// Package ceremonyhealth tracks the liveness of the coordinator daemon's
// components (transcript writer, transport listener, constraint-system
// loader) and renders an overall status for a health endpoint. Direct
// adaptation of teacher's cmd/auctiond/health.go: same
// Healthy/Degraded/Unhealthy tri-state, same register-a-checker-function
// shape, renamed from auction components to ceremony ones. No library in
// the corpus offers a health-check registry; this concern stays on the
// standard library the way the teacher built it.
package ceremonyhealth

import (
	"sync"
	"time"
)

// Status is the health of one component or of the process as a whole.
type Status string

const (
	Healthy   Status = "healthy"
	Degraded  Status = "degraded"
	Unhealthy Status = "unhealthy"
)

// ComponentHealth is the last-known health of one registered component.
type ComponentHealth struct {
	Name      string        `json:"name"`
	Status    Status        `json:"status"`
	Message   string        `json:"message"`
	LastCheck time.Time     `json:"last_check"`
	Latency   time.Duration `json:"latency,omitempty"`
}

// Report is the aggregate health of every registered component.
type Report struct {
	OverallStatus Status            `json:"overall_status"`
	Timestamp     time.Time         `json:"timestamp"`
	Components    []ComponentHealth `json:"components"`
	Uptime        time.Duration     `json:"uptime"`
	Version       string            `json:"version"`
}

// Checker runs the health checks registered for the coordinator daemon.
type Checker struct {
	mu         sync.RWMutex
	components map[string]*ComponentHealth
	checkers   map[string]func() error
	startTime  time.Time
	version    string
}

// NewChecker builds a Checker reporting version in every Report.
func NewChecker(version string) *Checker {
	return &Checker{
		components: make(map[string]*ComponentHealth),
		checkers:   make(map[string]func() error),
		startTime:  time.Now(),
		version:    version,
	}
}

// Register adds a named component whose health is determined by calling
// check; check returning a non-nil error marks the component Unhealthy.
func (hc *Checker) Register(name string, check func() error) {
	hc.mu.Lock()
	defer hc.mu.Unlock()
	hc.components[name] = &ComponentHealth{Name: name, Status: Healthy, Message: "registered", LastCheck: time.Now()}
	hc.checkers[name] = check
}

// Check runs every registered component's checker and returns the
// aggregate report.
func (hc *Checker) Check() *Report {
	hc.mu.Lock()
	defer hc.mu.Unlock()

	overall := Healthy
	components := make([]ComponentHealth, 0, len(hc.components))

	for name, component := range hc.components {
		check, ok := hc.checkers[name]
		if ok {
			start := time.Now()
			err := check()
			component.Latency = time.Since(start)
			component.LastCheck = time.Now()
			if err != nil {
				component.Status = Unhealthy
				component.Message = err.Error()
			} else {
				component.Status = Healthy
				component.Message = "ok"
			}
		}

		switch {
		case component.Status == Unhealthy:
			overall = Unhealthy
		case component.Status == Degraded && overall == Healthy:
			overall = Degraded
		}
		components = append(components, *component)
	}

	return &Report{
		OverallStatus: overall,
		Timestamp:     time.Now(),
		Components:    components,
		Uptime:        time.Since(hc.startTime),
		Version:       hc.version,
	}
}
