package reminders

import (
	"context"
	"errors"
	"testing"
	"time"

	"alterations-manager/internal/platform/logger"

	"github.com/robfig/cron/v3"
)

type stubSender struct {
	n     int
	err   error
	calls int
	lead  time.Duration
}

func (s *stubSender) SendReminders(_ context.Context, lead time.Duration) (int, error) {
	s.calls++
	s.lead = lead
	return s.n, s.err
}

func TestJob_RunOnce_PassesLead(t *testing.T) {
	s := &stubSender{n: 3}
	j, err := New(s, Options{Lead: 2 * time.Hour}, logger.Nop())
	if err != nil {
		t.Fatalf("New error: %v", err)
	}

	if got := j.RunOnce(context.Background()); got != 3 {
		t.Fatalf("expected 3 sent, got %d", got)
	}
	if s.lead != 2*time.Hour {
		t.Fatalf("expected lead 2h, got %s", s.lead)
	}
}

func TestJob_RunOnce_PartialFailure(t *testing.T) {
	s := &stubSender{n: 1, err: errors.New("broker down")}
	j, err := New(s, Options{}, nil)
	if err != nil {
		t.Fatalf("New error: %v", err)
	}
	if got := j.RunOnce(context.Background()); got != 1 {
		t.Fatalf("expected partial count 1, got %d", got)
	}
	if j.opts.Lead != 24*time.Hour || j.opts.Schedule != "@every 15m" {
		t.Fatalf("unexpected defaults %+v", j.opts)
	}
}

func TestNew_RejectsBadSchedule(t *testing.T) {
	if _, err := New(&stubSender{}, Options{Schedule: "every now and then"}, nil); err == nil {
		t.Fatalf("expected error for invalid schedule")
	}
}

func TestJob_StartStop(t *testing.T) {
	j, err := New(&stubSender{}, Options{Schedule: "@every 1h"}, nil)
	if err != nil {
		t.Fatalf("New error: %v", err)
	}
	j.Start()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	j.Stop(ctx)
}

type logEntry struct {
	level  string
	msg    string
	fields map[string]any
}

type recordingLogger struct {
	entries *[]logEntry
}

func (l recordingLogger) With(map[string]any) logger.Logger { return l }
func (l recordingLogger) Debug(msg string, f map[string]any) { l.add("debug", msg, f) }
func (l recordingLogger) Info(msg string, f map[string]any)  { l.add("info", msg, f) }
func (l recordingLogger) Warn(msg string, f map[string]any)  { l.add("warn", msg, f) }
func (l recordingLogger) Error(msg string, f map[string]any) { l.add("error", msg, f) }

func (l recordingLogger) add(level, msg string, f map[string]any) {
	*l.entries = append(*l.entries, logEntry{level: level, msg: msg, fields: f})
}

func TestCronLogger_RecoveredPanicGoesToAppLogger(t *testing.T) {
	var entries []logEntry
	cl := cronLogger{log: recordingLogger{entries: &entries}}

	cron.NewChain(cron.Recover(cl)).Then(cron.FuncJob(func() { panic("boom") })).Run()

	if len(entries) != 1 || entries[0].level != "error" || entries[0].msg != "cron: panic" {
		t.Fatalf("expected one error entry, got %+v", entries)
	}
	if entries[0].fields["error"] != "boom" || entries[0].fields["stack"] == nil {
		t.Fatalf("unexpected fields %+v", entries[0].fields)
	}
}

func TestCronLogger_InfoIsDebug(t *testing.T) {
	var entries []logEntry
	cl := cronLogger{log: recordingLogger{entries: &entries}}

	cl.Info("skip", "job", 3, "dangling")

	if len(entries) != 1 || entries[0].level != "debug" {
		t.Fatalf("expected a debug entry, got %+v", entries)
	}
	if entries[0].fields["job"] != 3 || entries[0].fields["extra"] != "dangling" {
		t.Fatalf("unexpected fields %+v", entries[0].fields)
	}
}
