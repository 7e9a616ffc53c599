package scenic

import (
	"fmt"
	"time"
)

// HealthStatus represents the overall health state of a component.
type HealthStatus string

const (
	// HealthOK indicates the component is functioning normally.
	HealthOK HealthStatus = "ok"
	// HealthDegraded indicates partial functionality or non-critical issues.
	HealthDegraded HealthStatus = "degraded"
	// HealthUnhealthy indicates the component is not functioning.
	HealthUnhealthy HealthStatus = "unhealthy"
)

// recentErrorWindow is how far back Health looks for errors.
const recentErrorWindow = time.Minute

// HealthCheck contains the health status of a Driver and its components.
type HealthCheck struct {
	Status    HealthStatus
	Timestamp time.Time
	// Uptime is the duration since Run started (zero if not running).
	Uptime     time.Duration
	Components map[string]ComponentHealth
	Message    string
}

// ComponentHealth represents the health status of an individual component.
type ComponentHealth struct {
	Status      HealthStatus
	Message     string
	LastUpdated time.Time
}

// IsHealthy returns true if the overall status is HealthOK.
func (h HealthCheck) IsHealthy() bool {
	return h.Status == HealthOK
}

// IsDegraded returns true if the overall status is HealthDegraded.
func (h HealthCheck) IsDegraded() bool {
	return h.Status == HealthDegraded
}

// IsUnhealthy returns true if the overall status is HealthUnhealthy.
func (h HealthCheck) IsUnhealthy() bool {
	return h.Status == HealthUnhealthy
}

// Health reports on the driver loop, the renderer and recent errors.
func (d *Driver) Health() HealthCheck {
	now := time.Now()
	st := d.Status()
	components := make(map[string]ComponentHealth, 3)

	var uptime time.Duration
	if st.Running {
		uptime = now.Sub(st.StartTime)
		components["driver"] = ComponentHealth{
			Status:      HealthOK,
			Message:     fmt.Sprintf("serving host via %s/%s", st.Backend, st.Present),
			LastUpdated: now,
		}
	} else {
		components["driver"] = ComponentHealth{
			Status:      HealthUnhealthy,
			Message:     "driver is not running",
			LastUpdated: now,
		}
	}

	snap := d.metrics.Snapshot()
	switch {
	case snap.Frames > 0:
		components["renderer"] = ComponentHealth{
			Status: HealthOK,
			Message: fmt.Sprintf("%d frames, %.1f fps, avg %s", snap.Frames, snap.FPS,
				snap.FrameTimeAvg.Round(time.Microsecond)),
			LastUpdated: now,
		}
	case st.Running:
		components["renderer"] = ComponentHealth{
			Status:      HealthOK,
			Message:     "waiting for the first render",
			LastUpdated: now,
		}
	default:
		components["renderer"] = ComponentHealth{
			Status:      HealthUnhealthy,
			Message:     "no frames rendered",
			LastUpdated: now,
		}
	}

	var recent []CategorizedError
	for _, e := range d.tracker.RecentErrors(16) {
		if now.Sub(e.Timestamp) <= recentErrorWindow {
			recent = append(recent, e)
		}
	}
	if len(recent) > 0 {
		last := recent[len(recent)-1]
		components["errors"] = ComponentHealth{
			Status:      HealthDegraded,
			Message:     fmt.Sprintf("%d in the last %s, latest: %s", len(recent), recentErrorWindow, last.Error()),
			LastUpdated: last.Timestamp,
		}
	} else {
		components["errors"] = ComponentHealth{
			Status:      HealthOK,
			Message:     "no recent errors",
			LastUpdated: now,
		}
	}

	status, message := HealthOK, "all components healthy"
	switch {
	case !st.Running:
		status, message = HealthUnhealthy, "driver is not running"
	case len(recent) > 0:
		status, message = HealthDegraded, "running with recent errors"
	}

	return HealthCheck{
		Status:     status,
		Timestamp:  now,
		Uptime:     uptime,
		Components: components,
		Message:    message,
	}
}
