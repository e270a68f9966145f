package reminders

import (
	"context"
	"time"

	"alterations-manager/internal/platform/logger"
	"alterations-manager/internal/platform/metrics"

	"github.com/robfig/cron/v3"
)

// Sender lo implementa appointments.Service.
type Sender interface {
	SendReminders(ctx context.Context, lead time.Duration) (int, error)
}

type Options struct {
	Schedule string        // sintaxis cron o "@every 15m"
	Lead     time.Duration // ventana hacia adelante
	Timeout  time.Duration // por corrida
}

// Job corre el envío de recordatorios con cron; una corrida no se solapa con la siguiente.
type Job struct {
	sender Sender
	opts   Options
	log    logger.Logger
	cron   *cron.Cron
}

func New(sender Sender, opts Options, log logger.Logger) (*Job, error) {
	if opts.Schedule == "" {
		opts.Schedule = "@every 15m"
	}
	if opts.Lead <= 0 {
		opts.Lead = 24 * time.Hour
	}
	if opts.Timeout <= 0 {
		opts.Timeout = time.Minute
	}
	if log == nil {
		log = logger.Nop()
	}

	log = log.With(map[string]any{"job": "reminders"})
	cl := cronLogger{log: log}
	j := &Job{
		sender: sender,
		opts:   opts,
		log:    log,
		cron: cron.New(
			cron.WithLogger(cl),
			cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
		),
	}
	if _, err := j.cron.AddFunc(opts.Schedule, func() { j.RunOnce(context.Background()) }); err != nil {
		return nil, err
	}
	return j, nil
}

func (j *Job) Start() {
	j.cron.Start()
	j.log.Info("reminders scheduled", map[string]any{"schedule": j.opts.Schedule, "lead": j.opts.Lead.String()})
}

// Stop espera a que termine la corrida en curso o a que venza ctx.
func (j *Job) Stop(ctx context.Context) {
	done := j.cron.Stop()
	select {
	case <-done.Done():
	case <-ctx.Done():
	}
}

// RunOnce ejecuta una corrida y devuelve cuántos recordatorios salieron.
func (j *Job) RunOnce(ctx context.Context) int {
	ctx, cancel := context.WithTimeout(ctx, j.opts.Timeout)
	defer cancel()

	start := time.Now()
	n, err := j.sender.SendReminders(ctx, j.opts.Lead)
	metrics.RemindersSent(n)

	fields := map[string]any{"sent": n, "duration_ms": time.Since(start).Milliseconds()}
	if err != nil {
		fields["error"] = err.Error()
		j.log.Warn("reminders run finished with errors", fields)
		return n
	}
	if n > 0 {
		j.log.Info("reminders sent", fields)
	} else {
		j.log.Debug("no reminders due", fields)
	}
	return n
}
