package models

// RunStatus is the lifecycle state of the analysis run coordinator.
type RunStatus string

const (
	RunIdle      RunStatus = "idle"
	RunRunning   RunStatus = "running"
	RunCompleted RunStatus = "completed"
	RunError     RunStatus = "error"
)

// Progress is a point-in-time snapshot of the active (or last) run.
type Progress struct {
	Current int       `json:"current"`
	Total   int       `json:"total"`
	Status  RunStatus `json:"status"`
	Message string    `json:"message"`
}
