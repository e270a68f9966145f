package lognotify

import (
	"bytes"
	"context"
	"testing"
	"time"

	"alterations-manager/internal/platform/logger"
	"alterations-manager/internal/ports/notify"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPublisher_LogsEvent(t *testing.T) {
	var buf bytes.Buffer
	p := New(logger.New(logger.Options{Level: logger.Debug, Format: logger.FormatJSON, Output: &buf}))

	err := p.Publish(context.Background(), notify.NewEvent(notify.EventAppointmentReminder, "shop-1", time.Now(), map[string]any{"appointment_id": "a-1"}))
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, `"event_type":"appointment.reminder"`)
	assert.Contains(t, out, `"shop_id":"shop-1"`)
}
