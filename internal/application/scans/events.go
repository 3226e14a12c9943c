package scans

// EventKey enum for caller-visible progress events
type EventKey string

const (
	EventRunning   EventKey = "running"
	EventCompleted EventKey = "completed"
	EventError     EventKey = "error"
)

// Event is one progress message on a run's event stream. The stream closes
// after a completed or error event.
type Event struct {
	Key  EventKey `json:"key"`
	Data string   `json:"data"`
}
