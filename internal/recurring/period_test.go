package recurring

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestParsePeriod(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		want   Period
		wantOK bool
	}{
		{name: "daily", input: "daily", want: PeriodDaily, wantOK: true},
		{name: "weekly", input: "weekly", want: PeriodWeekly, wantOK: true},
		{name: "monthly", input: "monthly", want: PeriodMonthly, wantOK: true},
		{name: "mixed case with spaces", input: "  Monthly ", want: PeriodMonthly, wantOK: true},
		{name: "empty means not recurring", input: "", wantOK: false},
		{name: "unknown falls back to monthly", input: "quarterly", want: PeriodMonthly, wantOK: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParsePeriod(tt.input)
			assert.Equal(t, tt.wantOK, ok)
			if tt.wantOK {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

func TestPeriodNext(t *testing.T) {
	tests := []struct {
		name   string
		period Period
		from   time.Time
		want   time.Time
	}{
		{name: "daily", period: PeriodDaily, from: date(2024, time.January, 15), want: date(2024, time.January, 16)},
		{name: "daily across month end", period: PeriodDaily, from: date(2024, time.January, 31), want: date(2024, time.February, 1)},
		{name: "weekly", period: PeriodWeekly, from: date(2024, time.January, 15), want: date(2024, time.January, 22)},
		{name: "monthly", period: PeriodMonthly, from: date(2024, time.January, 15), want: date(2024, time.February, 15)},
		{name: "monthly clamps to leap february", period: PeriodMonthly, from: date(2024, time.January, 31), want: date(2024, time.February, 29)},
		{name: "monthly clamps to short february", period: PeriodMonthly, from: date(2023, time.January, 31), want: date(2023, time.February, 28)},
		{name: "monthly clamps 31st to 30 day month", period: PeriodMonthly, from: date(2024, time.August, 31), want: date(2024, time.September, 30)},
		{name: "monthly across year end", period: PeriodMonthly, from: date(2023, time.December, 15), want: date(2024, time.January, 15)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.period.Next(tt.from))
		})
	}
}

func TestPeriodNextKeepsTimeOfDay(t *testing.T) {
	from := time.Date(2024, time.January, 15, 9, 30, 45, 0, time.UTC)
	got := PeriodMonthly.Next(from)
	assert.Equal(t, time.Date(2024, time.February, 15, 9, 30, 45, 0, time.UTC), got)
}

func TestDayOf(t *testing.T) {
	ts := time.Date(2024, time.February, 15, 23, 59, 59, 0, time.UTC)
	assert.Equal(t, date(2024, time.February, 15), DayOf(ts))

	// non-UTC timestamps are normalized to their UTC day
	loc := time.FixedZone("UTC+5", 5*3600)
	early := time.Date(2024, time.February, 15, 2, 0, 0, 0, loc)
	assert.Equal(t, date(2024, time.February, 14), DayOf(early))
}
