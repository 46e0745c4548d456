package client

import (
	"fmt"

	"github.com/robinjoseph08/golib/logger"
)

// leveledLogger adapts a golib logger to retryablehttp.LeveledLogger.
type leveledLogger struct {
	log logger.Logger
}

func (l *leveledLogger) Error(msg string, keysAndValues ...interface{}) {
	l.log.Error(msg, toData(keysAndValues))
}

func (l *leveledLogger) Warn(msg string, keysAndValues ...interface{}) {
	l.log.Warn(msg, toData(keysAndValues))
}

func (l *leveledLogger) Info(msg string, keysAndValues ...interface{}) {
	l.log.Info(msg, toData(keysAndValues))
}

func (l *leveledLogger) Debug(msg string, keysAndValues ...interface{}) {
	l.log.Debug(msg, toData(keysAndValues))
}

func toData(keysAndValues []interface{}) logger.Data {
	data := logger.Data{}
	for i := 0; i+1 < len(keysAndValues); i += 2 {
		key := fmt.Sprint(keysAndValues[i])
		switch v := keysAndValues[i+1].(type) {
		case error:
			data[key] = v.Error()
		case fmt.Stringer:
			data[key] = v.String()
		default:
			data[key] = v
		}
	}
	return data
}
