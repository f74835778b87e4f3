package utils

import (
	"time"
	_ "time/tzdata"

	"mse-observer/src/models"

	"github.com/scmhub/calendar"
)

// TradingCalendar answers session questions for the MSE. Holidays come from
// scmhub/calendar when it knows the exchange; otherwise every weekday is a
// business day.
type TradingCalendar struct {
	Calendar *calendar.Calendar
	Fallback bool
	Timezone *time.Location
}

// -----------------------------------------------------------------------------

// MSELocation returns the exchange time zone, or UTC+1 if tzdata is missing.
func MSELocation() *time.Location {
	loc, err := time.LoadLocation(MSETimezone)
	if err != nil {
		return time.FixedZone("CET", 3600)
	}
	return loc
}

// -----------------------------------------------------------------------------

func NewMSECalendar() *TradingCalendar {
	loc := MSELocation()
	cal := calendar.GetCalendar(MSEMic)
	if cal == nil {
		return &TradingCalendar{Fallback: true, Timezone: loc}
	}
	return &TradingCalendar{Calendar: cal, Timezone: loc}
}

// -----------------------------------------------------------------------------

func (tc *TradingCalendar) IsTradingDay(date time.Time) bool {
	date = date.In(tc.Timezone)

	weekday := date.Weekday()
	if weekday == time.Saturday || weekday == time.Sunday {
		return false
	}
	if tc.Fallback {
		return true
	}
	return tc.Calendar.IsBusinessDay(date)
}

// -----------------------------------------------------------------------------

// IsOpenOnMinute checks if the market is open at t.
func (tc *TradingCalendar) IsOpenOnMinute(t time.Time) bool {
	t = t.In(tc.Timezone)
	if !tc.IsTradingDay(t) {
		return false
	}
	return t.Hour() >= MSEOpenHour && t.Hour() < MSECloseHour
}

// -----------------------------------------------------------------------------

// IsPeak reports whether t falls in the busiest part of the session.
func (tc *TradingCalendar) IsPeak(t time.Time) bool {
	t = t.In(tc.Timezone)
	return tc.IsOpenOnMinute(t) && t.Hour() >= PeakStartHour && t.Hour() < PeakEndHour
}

// -----------------------------------------------------------------------------

// NextOpen returns the next session open strictly after t.
func (tc *TradingCalendar) NextOpen(t time.Time) time.Time {
	t = t.In(tc.Timezone)
	day := time.Date(t.Year(), t.Month(), t.Day(), MSEOpenHour, 0, 0, 0, tc.Timezone)
	if !day.After(t) || !tc.IsTradingDay(day) {
		day = day.AddDate(0, 0, 1)
		// a year of consecutive holidays would mean a broken calendar
		for i := 0; i < 366 && !tc.IsTradingDay(day); i++ {
			day = day.AddDate(0, 0, 1)
		}
	}
	return day
}

// -----------------------------------------------------------------------------

// MarketStatus describes the session at now.
func (tc *TradingCalendar) MarketStatus(now time.Time) models.MMarketStatus {
	local := now.In(tc.Timezone)
	closeAt := time.Date(local.Year(), local.Month(), local.Day(), MSECloseHour, 0, 0, 0, tc.Timezone)

	status := models.MMarketStatus{Timezone: tc.Timezone.String()}
	switch {
	case !tc.IsTradingDay(local):
		status.Status = models.MarketClosed
	case local.Hour() < MSEOpenHour:
		status.Status = models.MarketPreMarket
	case local.Hour() >= MSECloseHour:
		status.Status = models.MarketAfterHours
	default:
		status.Status = models.MarketOpen
		status.IsOpen = true
		status.NextClose = closeAt.Format(time.RFC3339)
	}

	if !status.IsOpen {
		status.NextOpen = tc.NextOpen(local).Format(time.RFC3339)
	}
	return status
}
