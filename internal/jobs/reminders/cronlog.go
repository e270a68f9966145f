package reminders

import (
	"fmt"

	"alterations-manager/internal/platform/logger"

	"github.com/robfig/cron/v3"
)

// cronLogger manda los avisos de cron (panics, corridas salteadas) al logger de la app.
type cronLogger struct {
	log logger.Logger
}

var _ cron.Logger = cronLogger{}

// cron loguea mucho en Info (wake, run, schedule); queda en debug.
func (c cronLogger) Info(msg string, keysAndValues ...interface{}) {
	c.log.Debug("cron: "+msg, kvFields(keysAndValues))
}

func (c cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	fields := kvFields(keysAndValues)
	fields["error"] = fmt.Sprint(err)
	c.log.Error("cron: "+msg, fields)
}

func kvFields(kv []interface{}) map[string]any {
	fields := make(map[string]any, len(kv)/2+1)
	for i := 0; i+1 < len(kv); i += 2 {
		k, ok := kv[i].(string)
		if !ok {
			k = fmt.Sprint(kv[i])
		}
		fields[k] = kv[i+1]
	}
	if len(kv)%2 == 1 {
		fields["extra"] = kv[len(kv)-1]
	}
	return fields
}
