// Package alert delivers operational alerts. The log-backed notifier is
// the default; real transports implement the same port.
package alert

import (
	"github.com/sirupsen/logrus"

	"github.com/pagelint/pagelint/internal/domain/alerts"
)

// LogNotifier writes alerts to the application log.
type LogNotifier struct {
	Log *logrus.Logger
}

func NewLogNotifier(log *logrus.Logger) *LogNotifier {
	return &LogNotifier{Log: log}
}

func (n *LogNotifier) Send(level alerts.Level, message string) {
	entry := n.Log.WithField("alert", string(level))
	switch level {
	case alerts.LevelError:
		entry.Error(message)
	case alerts.LevelWarning:
		entry.Warn(message)
	default:
		entry.Info(message)
	}
}
