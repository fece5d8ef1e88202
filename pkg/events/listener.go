package events

import (
	"github.com/dd0wney/hivegraph/pkg/logging"
	"github.com/dd0wney/hivegraph/pkg/metrics"
)

// LoggingListener forwards events to a Notifier. A failed notification is logged at
// WARN and counted; it never reaches the publisher.
type LoggingListener struct {
	name    string
	notify  Notifier
	logger  logging.Logger
	metrics *metrics.Registry
}

// NewLoggingListener wraps notify. reg may be nil.
func NewLoggingListener(name string, notify Notifier, logger logging.Logger, reg *metrics.Registry) *LoggingListener {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &LoggingListener{
		name:    name,
		notify:  notify,
		logger:  logger.With(logging.Component("listener"), logging.String("listener", name)),
		metrics: reg,
	}
}

func (l *LoggingListener) OnEvent(ev Event) {
	if err := l.notify(ev); err != nil {
		l.logger.Warn("event notification failed",
			logging.Entity(string(ev.Entity)),
			logging.String("op", string(ev.Op)),
			logging.String("event_id", ev.ID.String()),
			logging.Error(err))
		if l.metrics != nil {
			l.metrics.RecordEventFailed(l.name)
		}
	}
}
