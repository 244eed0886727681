package mongodb

import (
	"fmt"

	"setdb-init/internal/shared/logger"
)

// LogSink routes driver log messages into the application logger
type LogSink struct {
	logger logger.Logger
}

// NewLogSink creates a driver log sink backed by log
func NewLogSink(log logger.Logger) *LogSink {
	return &LogSink{logger: log.WithComponent("mongo-driver")}
}

// Info logs a driver message. Level 0 is info, anything higher is debug.
func (s *LogSink) Info(level int, message string, keysAndValues ...interface{}) {
	l := s.logger.WithFields(fieldsFromKV(keysAndValues))
	if level <= 0 {
		l.Info(message)
		return
	}
	l.Debug(message)
}

// Error logs a driver failure
func (s *LogSink) Error(err error, message string, keysAndValues ...interface{}) {
	fields := fieldsFromKV(keysAndValues)
	if err != nil {
		fields["error"] = err.Error()
	}
	s.logger.WithFields(fields).Error(message)
}

// fieldsFromKV pairs up alternating keys and values. A trailing key without a
// value is kept with a nil value.
func fieldsFromKV(kv []interface{}) map[string]interface{} {
	fields := make(map[string]interface{}, len(kv)/2+1)
	for i := 0; i < len(kv); i += 2 {
		key := fmt.Sprint(kv[i])
		if i+1 < len(kv) {
			fields[key] = kv[i+1]
		} else {
			fields[key] = nil
		}
	}
	return fields
}
