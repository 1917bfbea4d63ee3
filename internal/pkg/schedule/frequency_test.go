package schedule

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestNext(t *testing.T) {
	t.Parallel()

	start := date(2025, time.March, 10)

	tests := []struct {
		name string
		freq Frequency
		want time.Time
	}{
		{"weekly", FrequencyEveryWeek, date(2025, time.March, 17)},
		{"biweekly", FrequencyEveryTwoWeeks, date(2025, time.March, 24)},
		{"monthly", FrequencyEveryMonth, date(2025, time.April, 10)},
		{"quarterly", FrequencyEvery3Months, date(2025, time.June, 10)},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got := Next(start, tc.freq)
			assert.Equal(t, tc.want, got)
			assert.True(t, got.After(start))
		})
	}
}

func TestNextMonthEndRollsOver(t *testing.T) {
	t.Parallel()

	// Jan 31 + 1 month normalizes past the end of February
	got := Next(date(2025, time.January, 31), FrequencyEveryMonth)
	assert.Equal(t, date(2025, time.March, 3), got)
}

func TestResumeDateASAP(t *testing.T) {
	t.Parallel()

	today := date(2025, time.May, 1)

	// asap ignores how stale the old due date is
	for _, stale := range []time.Time{
		date(2024, time.January, 1),
		date(2025, time.April, 30),
		date(2025, time.June, 15),
	} {
		got := ResumeDate(stale, FrequencyEveryTwoWeeks, ResumeASAP, today)
		assert.Equal(t, date(2025, time.May, 15), got)
	}
}

func TestResumeDateOriginalSchedule(t *testing.T) {
	t.Parallel()

	today := date(2025, time.May, 1)

	tests := []struct {
		name    string
		nextDue time.Time
		freq    Frequency
		want    time.Time
	}{
		{
			name:    "two months stale monthly plan lands one month out",
			nextDue: date(2025, time.March, 1),
			freq:    FrequencyEveryMonth,
			want:    date(2025, time.June, 1),
		},
		{
			name:    "weekly catches up to first future occurrence",
			nextDue: date(2025, time.April, 3),
			freq:    FrequencyEveryWeek,
			want:    date(2025, time.May, 8),
		},
		{
			name:    "future due date still advances one interval",
			nextDue: date(2025, time.May, 20),
			freq:    FrequencyEveryMonth,
			want:    date(2025, time.June, 20),
		},
		{
			name:    "due date equal to today advances",
			nextDue: date(2025, time.May, 1),
			freq:    FrequencyEveryWeek,
			want:    date(2025, time.May, 8),
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got := ResumeDate(tc.nextDue, tc.freq, ResumeOriginalSchedule, today)
			assert.Equal(t, tc.want, got)
			assert.True(t, got.After(today))
		})
	}
}

func TestParseResumeMode(t *testing.T) {
	t.Parallel()

	assert.Equal(t, ResumeOriginalSchedule, ParseResumeMode("original_schedule"))
	assert.Equal(t, ResumeASAP, ParseResumeMode("asap"))
	assert.Equal(t, ResumeASAP, ParseResumeMode(""))
	assert.Equal(t, ResumeASAP, ParseResumeMode("whenever"))
}

func TestFrequencyValid(t *testing.T) {
	t.Parallel()

	assert.True(t, FrequencyEveryMonth.Valid())
	assert.False(t, Frequency("every_day").Valid())
}
