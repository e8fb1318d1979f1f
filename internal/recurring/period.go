package recurring

import (
	"strings"
	"time"
)

// Period is the cadence of a recurring donation
type Period string

const (
	PeriodDaily   Period = "daily"
	PeriodWeekly  Period = "weekly"
	PeriodMonthly Period = "monthly"
)

// ParsePeriod normalizes a stored recurring_period value. An empty
// string means the donation is not recurring. Unrecognized non-empty
// values fall back to monthly so a typo in stored data degrades to the
// least aggressive cadence instead of disabling the subscription.
func ParsePeriod(s string) (Period, bool) {
	switch Period(strings.ToLower(strings.TrimSpace(s))) {
	case "":
		return "", false
	case PeriodDaily:
		return PeriodDaily, true
	case PeriodWeekly:
		return PeriodWeekly, true
	case PeriodMonthly:
		return PeriodMonthly, true
	default:
		return PeriodMonthly, true
	}
}

// Next advances t by one period unit. Monthly addition clamps to the
// target month's length: Jan 31 + 1 month = Feb 29 on a leap year,
// Feb 28 otherwise.
func (p Period) Next(t time.Time) time.Time {
	switch p {
	case PeriodDaily:
		return t.AddDate(0, 0, 1)
	case PeriodWeekly:
		return t.AddDate(0, 0, 7)
	default:
		return addMonthClamped(t)
	}
}

func addMonthClamped(t time.Time) time.Time {
	year, month, day := t.Date()
	firstOfNext := time.Date(year, month+1, 1, 0, 0, 0, 0, t.Location())
	lastDay := firstOfNext.AddDate(0, 1, -1).Day()
	if day > lastDay {
		day = lastDay
	}
	return time.Date(firstOfNext.Year(), firstOfNext.Month(), day,
		t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
}

// DayOf truncates a timestamp to its UTC calendar day, the granularity
// at which the duplicate guard and the charge_day column operate
func DayOf(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}
