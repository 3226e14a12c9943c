package alerts

// Level enum
type Level string

const (
	LevelInfo    Level = "info"
	LevelWarning Level = "warning"
	LevelError   Level = "error"
)

// Notifier delivers operational alerts (run started, run failed). Delivery
// is best-effort and must never block or fail a scan.
type Notifier interface {
	Send(level Level, message string)
}
