package models

import "time"

const (
	// TermDays is the length of a full-term pregnancy counted from the
	// last menstrual period.
	TermDays = 280

	// PretermThresholdDays is the gestational age below which a birth is
	// classified as preterm (37 completed weeks).
	PretermThresholdDays = 259
)

// Timeline holds a child's reproductive and developmental anchor dates.
// All day counts are 1-indexed following clinical convention: the LMP
// date itself is day 1.
type Timeline struct {
	ID                  int64
	Nickname            string
	LastMenstrualPeriod time.Time // calendar date
	EstimatedDueDate    *time.Time
	Birthday            *time.Time // presence signals the child has been born
	Preterm             *bool      // classified once, when the birth is recorded
	UltrasoundFixedDays int        // positive = ultrasound dating later than LMP
	CreatedBy           int64
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

// DateOf truncates a timestamp to its calendar date, normalized to UTC
// midnight so that date arithmetic is exact across DST boundaries.
func DateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// daysBetween returns the number of whole days from one calendar date to
// another. Negative when to precedes from.
func daysBetween(from, to time.Time) int {
	return int(DateOf(to).Sub(DateOf(from)) / (24 * time.Hour))
}

// DaysSinceLMP returns the 1-indexed day count since the last menstrual
// period: the LMP date itself counts as day 1.
func (t *Timeline) DaysSinceLMP(date time.Time) (int, error) {
	if DateOf(date).Before(DateOf(t.LastMenstrualPeriod)) {
		return 0, ErrEarlierThanLMP
	}
	return daysBetween(t.LastMenstrualPeriod, date) + 1, nil
}

// GestationalAgeDays returns the gestational age in days, optionally
// corrected by the ultrasound dating offset.
func (t *Timeline) GestationalAgeDays(date time.Time, ultrasoundFixed bool) (int, error) {
	days, err := t.DaysSinceLMP(date)
	if err != nil {
		return 0, err
	}
	if ultrasoundFixed {
		days -= t.UltrasoundFixedDays
	}
	return days, nil
}

// HasDueDateOverride reports whether an estimated due date was recorded
// rather than derived from the LMP.
func (t *Timeline) HasDueDateOverride() bool {
	return t.EstimatedDueDate != nil
}

// DueDate returns the estimated due date, deriving it from the LMP when
// no override was recorded.
func (t *Timeline) DueDate() time.Time {
	if t.EstimatedDueDate != nil {
		return DateOf(*t.EstimatedDueDate)
	}
	return DateOf(t.LastMenstrualPeriod).AddDate(0, 0, TermDays)
}

// DaysToDue returns the number of days from the given date to the due
// date. Negative results past term are valid.
func (t *Timeline) DaysToDue(date time.Time) (int, error) {
	if DateOf(date).Before(DateOf(t.LastMenstrualPeriod)) {
		return 0, ErrEarlierThanLMP
	}
	return daysBetween(date, t.DueDate()), nil
}

// BirthDate returns the child's birth date as a calendar date in the
// given location, and whether a birth has been recorded at all.
func (t *Timeline) BirthDate(loc *time.Location) (time.Time, bool) {
	if t.Birthday == nil {
		return time.Time{}, false
	}
	return DateOf(t.Birthday.In(loc)), true
}

// IsBorn reports whether the child has been born as of the given date.
// The birth day itself does not count: the local birth date must be
// strictly earlier than the query date.
func (t *Timeline) IsBorn(date time.Time, loc *time.Location) bool {
	birth, ok := t.BirthDate(loc)
	if !ok {
		return false
	}
	return birth.Before(DateOf(date))
}

// EvaluatePreterm classifies the birth from the anchors alone: born, and
// uncorrected gestational age at the local birth date below the preterm
// threshold. False when no birth is recorded.
func (t *Timeline) EvaluatePreterm(loc *time.Location) bool {
	birth, ok := t.BirthDate(loc)
	if !ok {
		return false
	}
	ga, err := t.GestationalAgeDays(birth, false)
	if err != nil {
		return false
	}
	return ga < PretermThresholdDays
}

// IsPreterm reports the prematurity classification. The value stored when
// the birth was recorded wins; evaluating from the anchors is only a
// fallback for timelines whose birth predates the stored flag.
func (t *Timeline) IsPreterm(loc *time.Location) bool {
	if t.Preterm != nil {
		return *t.Preterm
	}
	return t.EvaluatePreterm(loc)
}

// PostmenstrualAgeDays returns the LMP-based age extended past birth.
// Fails with ErrNotBorn until the child is born as of the given date.
func (t *Timeline) PostmenstrualAgeDays(date time.Time, loc *time.Location) (int, error) {
	if !t.IsBorn(date, loc) {
		return 0, ErrNotBorn
	}
	return t.DaysSinceLMP(date)
}

// ChronologicalAgeDays returns the 1-indexed day count since the local
// birth date. Fails with ErrNotBorn until the child is born.
func (t *Timeline) ChronologicalAgeDays(date time.Time, loc *time.Location) (int, error) {
	if !t.IsBorn(date, loc) {
		return 0, ErrNotBorn
	}
	birth, _ := t.BirthDate(loc)
	return daysBetween(birth, date) + 1, nil
}

// CorrectedAgeDays returns the developmental age measured from the due
// date for preterm children, so that reaching term yields age 1. Term
// children get their chronological age.
func (t *Timeline) CorrectedAgeDays(date time.Time, loc *time.Location) (int, error) {
	if !t.IsBorn(date, loc) {
		return 0, ErrNotBorn
	}
	if t.IsPreterm(loc) {
		toDue, err := t.DaysToDue(date)
		if err != nil {
			return 0, err
		}
		return -toDue + 1, nil
	}
	return t.ChronologicalAgeDays(date, loc)
}
