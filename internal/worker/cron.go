// Package worker drives the in-process dispatch cadence. Deployments
// with an external cron service can disable it and use the HTTP trigger
// instead; both paths run the same dispatch code.
package worker

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/subwatch/reminder-dispatch/internal/domain"
)

// Runner matches dispatch.Service.
type Runner interface {
	RunAll(ctx context.Context) (domain.DispatchResult, error)
}

// Cron wraps a robfig cron scheduled in UTC. The dispatch entry should
// be wall-clock aligned (e.g. "*/15 * * * *") and its interval must not
// exceed the dispatch window, or eligible instants can expire between
// runs.
type Cron struct {
	c      *cron.Cron
	logger *zap.Logger
}

// New builds the cron with a single dispatch entry. Each firing gets a
// fresh context bounded by timeout so a hung provider cannot wedge the
// schedule.
func New(spec string, runner Runner, timeout time.Duration, logger *zap.Logger) (*Cron, error) {
	c := cron.New(cron.WithLocation(time.UTC))

	_, err := c.AddFunc(spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		result, err := runner.RunAll(ctx)
		if err != nil {
			logger.Error("scheduled dispatch failed", zap.Error(err))
			return
		}
		logger.Info("scheduled dispatch finished",
			zap.Int("reminders", result.ReminderDispatches),
			zap.Int("digests", result.GeneralNotifications),
			zap.Int("errors", len(result.Errors)),
		)
	})
	if err != nil {
		return nil, err
	}

	return &Cron{c: c, logger: logger}, nil
}

// Start launches the schedule in its own goroutine.
func (w *Cron) Start() {
	w.logger.Info("cron runner started")
	w.c.Start()
}

// Stop halts the schedule and waits for a running job to finish.
func (w *Cron) Stop() {
	ctx := w.c.Stop()
	<-ctx.Done()
	w.logger.Info("cron runner stopped")
}
