package utils

import (
	"context"
	"time"

	"mse-observer/src/helpers"
	"mse-observer/src/logger"
	"mse-observer/src/models"
)

// SmartRefresher re-runs a refresh job on a cadence that follows the MSE
// session: fastest at the session peak, slowest over weekends.
type SmartRefresher struct {
	Calendar  *TradingCalendar
	Intervals models.MRefreshConfig
	Job       func(ctx context.Context) error
	Errors    *helpers.ErrorHandler
	Logger    *logger.Logger
	Now       func() time.Time
}

// -----------------------------------------------------------------------------

func NewSmartRefresher(cal *TradingCalendar, intervals models.MRefreshConfig, job func(ctx context.Context) error, log *logger.Logger) *SmartRefresher {
	return &SmartRefresher{
		Calendar:  cal,
		Intervals: intervals,
		Job:       job,
		Errors:    helpers.NewErrorHandler(log),
		Logger:    log,
		Now:       time.Now,
	}
}

// -----------------------------------------------------------------------------

// Interval returns the wait before the next run at t.
func (r *SmartRefresher) Interval(t time.Time) time.Duration {
	secs := r.Intervals.OffHoursIntervalSeconds
	switch {
	case !r.Calendar.IsTradingDay(t):
		secs = r.Intervals.WeekendIntervalSeconds
	case r.Calendar.IsPeak(t):
		secs = r.Intervals.PeakIntervalSeconds
	case r.Calendar.IsOpenOnMinute(t):
		secs = r.Intervals.MarketIntervalSeconds
	}
	return time.Duration(secs) * time.Second
}

// -----------------------------------------------------------------------------

// Run blocks until ctx is cancelled. After repeated failures the wait is
// doubled until a run succeeds again.
func (r *SmartRefresher) Run(ctx context.Context) {
	r.Logger.Info("Smart refresher started")
	for {
		err := r.Job(ctx)
		if ctx.Err() != nil {
			break
		}
		backoff := r.Errors.Handle(err, "scheduled refresh")

		wait := r.Interval(r.Now())
		if backoff {
			wait *= 2
		}
		r.Logger.Debug("Next refresh in %v", wait)

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			r.Logger.Info("Smart refresher stopped")
			return
		case <-timer.C:
		}
	}
	r.Logger.Info("Smart refresher stopped")
}
