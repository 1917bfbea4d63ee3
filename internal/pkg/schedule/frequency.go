package schedule

import "time"

// Frequency is the delivery rhythm of a recurring plan.
type Frequency string

const (
	FrequencyEveryWeek     Frequency = "every_week"
	FrequencyEveryTwoWeeks Frequency = "every_two_weeks"
	FrequencyEveryMonth    Frequency = "every_month"
	FrequencyEvery3Months  Frequency = "every_3_months"
)

// ResumeMode controls how the due date is recomputed when a paused plan
// becomes active again.
type ResumeMode string

const (
	// ResumeASAP schedules the next delivery one interval from today.
	ResumeASAP ResumeMode = "asap"
	// ResumeOriginalSchedule keeps the old rhythm and advances the stale
	// due date until it lies in the future.
	ResumeOriginalSchedule ResumeMode = "original_schedule"
)

// Valid reports whether f is a known frequency.
func (f Frequency) Valid() bool {
	switch f {
	case FrequencyEveryWeek, FrequencyEveryTwoWeeks, FrequencyEveryMonth, FrequencyEvery3Months:
		return true
	}
	return false
}

// ParseResumeMode maps a request parameter to a ResumeMode, defaulting to asap.
func ParseResumeMode(s string) ResumeMode {
	if ResumeMode(s) == ResumeOriginalSchedule {
		return ResumeOriginalSchedule
	}
	return ResumeASAP
}

// Next returns the occurrence following date under the given frequency.
// Month arithmetic uses Go's calendar-normalizing AddDate semantics.
func Next(date time.Time, f Frequency) time.Time {
	switch f {
	case FrequencyEveryWeek:
		return date.AddDate(0, 0, 7)
	case FrequencyEveryTwoWeeks:
		return date.AddDate(0, 0, 14)
	case FrequencyEveryMonth:
		return date.AddDate(0, 1, 0)
	case FrequencyEvery3Months:
		return date.AddDate(0, 3, 0)
	}
	// Unknown frequencies never advance silently; callers validate first.
	return date
}

// ResumeDate computes the new due date for a plan resumed today.
//
// asap ignores the stale due date entirely. original_schedule advances the
// old due date by whole intervals until it passes today; a due date that is
// already in the future still advances by one interval, so resuming always
// moves the schedule forward.
func ResumeDate(nextDue time.Time, f Frequency, mode ResumeMode, today time.Time) time.Time {
	if mode != ResumeOriginalSchedule {
		return Next(today, f)
	}

	d := Next(nextDue, f)
	for !d.After(today) {
		d = Next(d, f)
	}
	return d
}
