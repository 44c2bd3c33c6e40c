package models

import (
	"errors"
	"testing"
	"time"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func ptrTime(t time.Time) *time.Time { return &t }

func ptrBool(b bool) *bool { return &b }

// Anchors used across the calculus tests: LMP 2023-01-01, derived due
// date 2023-10-08.
func testTimeline() *Timeline {
	return &Timeline{
		ID:                  1,
		Nickname:            "bean",
		LastMenstrualPeriod: date(2023, 1, 1),
	}
}

func TestDaysSinceLMP(t *testing.T) {
	tests := []struct {
		name    string
		date    time.Time
		want    int
		wantErr error
	}{
		{
			name: "LMP day is day one",
			date: date(2023, 1, 1),
			want: 1,
		},
		{
			name: "thirty days in",
			date: date(2023, 1, 30),
			want: 30,
		},
		{
			name: "time of day is ignored",
			date: time.Date(2023, 1, 30, 23, 59, 0, 0, time.UTC),
			want: 30,
		},
		{
			name:    "before the LMP",
			date:    date(2022, 12, 31),
			wantErr: ErrEarlierThanLMP,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			timeline := testTimeline()
			got, err := timeline.DaysSinceLMP(tt.date)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("DaysSinceLMP() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("DaysSinceLMP() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("DaysSinceLMP() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestGestationalAgeDays(t *testing.T) {
	timeline := testTimeline()
	timeline.UltrasoundFixedDays = 7

	got, err := timeline.GestationalAgeDays(date(2023, 1, 30), false)
	if err != nil {
		t.Fatalf("GestationalAgeDays() error = %v", err)
	}
	if got != 30 {
		t.Errorf("GestationalAgeDays(uncorrected) = %d, want 30", got)
	}

	got, err = timeline.GestationalAgeDays(date(2023, 1, 30), true)
	if err != nil {
		t.Fatalf("GestationalAgeDays() error = %v", err)
	}
	if got != 23 {
		t.Errorf("GestationalAgeDays(ultrasound-fixed) = %d, want 23", got)
	}
}

func TestDueDate(t *testing.T) {
	timeline := testTimeline()

	if timeline.HasDueDateOverride() {
		t.Error("HasDueDateOverride() = true, want false")
	}
	if got := timeline.DueDate(); !got.Equal(date(2023, 10, 8)) {
		t.Errorf("DueDate() = %v, want 2023-10-08", got)
	}

	timeline.EstimatedDueDate = ptrTime(date(2023, 10, 1))
	if !timeline.HasDueDateOverride() {
		t.Error("HasDueDateOverride() = false, want true")
	}
	if got := timeline.DueDate(); !got.Equal(date(2023, 10, 1)) {
		t.Errorf("DueDate() = %v, want 2023-10-01", got)
	}
}

func TestDaysToDue(t *testing.T) {
	tests := []struct {
		name    string
		date    time.Time
		want    int
		wantErr error
	}{
		{
			name: "from the LMP",
			date: date(2023, 1, 1),
			want: 280,
		},
		{
			name: "on the due date",
			date: date(2023, 10, 8),
			want: 0,
		},
		{
			name: "past term goes negative",
			date: date(2023, 10, 18),
			want: -10,
		},
		{
			name:    "before the LMP",
			date:    date(2022, 12, 1),
			wantErr: ErrEarlierThanLMP,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			timeline := testTimeline()
			got, err := timeline.DaysToDue(tt.date)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("DaysToDue() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("DaysToDue() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("DaysToDue() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestIsBorn(t *testing.T) {
	tests := []struct {
		name     string
		birthday *time.Time
		date     time.Time
		loc      *time.Location
		want     bool
	}{
		{
			name: "no birth recorded",
			date: date(2023, 12, 1),
			loc:  time.UTC,
			want: false,
		},
		{
			name:     "birth day itself does not count",
			birthday: ptrTime(time.Date(2023, 9, 20, 8, 0, 0, 0, time.UTC)),
			date:     date(2023, 9, 20),
			loc:      time.UTC,
			want:     false,
		},
		{
			name:     "day after birth",
			birthday: ptrTime(time.Date(2023, 9, 20, 8, 0, 0, 0, time.UTC)),
			date:     date(2023, 9, 21),
			loc:      time.UTC,
			want:     true,
		},
		{
			name:     "local date shifts across time zones",
			birthday: ptrTime(time.Date(2023, 9, 20, 23, 30, 0, 0, time.UTC)),
			date:     date(2023, 9, 21),
			loc:      mustLoadLocation(t, "Asia/Shanghai"),
			// 23:30 UTC is already 2023-09-21 in Shanghai.
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			timeline := testTimeline()
			timeline.Birthday = tt.birthday
			if got := timeline.IsBorn(tt.date, tt.loc); got != tt.want {
				t.Errorf("IsBorn() = %v, want %v", got, tt.want)
			}
		})
	}
}

func mustLoadLocation(t *testing.T, name string) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation(name)
	if err != nil {
		t.Fatalf("LoadLocation(%q) failed: %v", name, err)
	}
	return loc
}

func TestEvaluatePreterm(t *testing.T) {
	tests := []struct {
		name     string
		birthday *time.Time
		want     bool
	}{
		{
			name: "not born",
			want: false,
		},
		{
			name:     "one day under the threshold",
			birthday: ptrTime(date(2023, 9, 15)), // gestational day 258
			want:     true,
		},
		{
			name:     "exactly at the threshold",
			birthday: ptrTime(date(2023, 9, 16)), // gestational day 259
			want:     false,
		},
		{
			name:     "full term",
			birthday: ptrTime(date(2023, 10, 8)),
			want:     false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			timeline := testTimeline()
			timeline.Birthday = tt.birthday
			if got := timeline.EvaluatePreterm(time.UTC); got != tt.want {
				t.Errorf("EvaluatePreterm() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestIsPretermStoredClassificationWins(t *testing.T) {
	timeline := testTimeline()
	timeline.Birthday = ptrTime(date(2023, 9, 15)) // would evaluate preterm
	timeline.Preterm = ptrBool(false)

	if timeline.IsPreterm(time.UTC) {
		t.Error("IsPreterm() = true, want stored false to win")
	}

	timeline.Preterm = nil
	if !timeline.IsPreterm(time.UTC) {
		t.Error("IsPreterm() = false, want fallback evaluation true")
	}
}

func TestAgesRequireBirth(t *testing.T) {
	timeline := testTimeline()
	timeline.Birthday = ptrTime(date(2023, 9, 20))
	asOf := date(2023, 9, 20) // birth day itself: not yet born

	if _, err := timeline.PostmenstrualAgeDays(asOf, time.UTC); !errors.Is(err, ErrNotBorn) {
		t.Errorf("PostmenstrualAgeDays() error = %v, want ErrNotBorn", err)
	}
	if _, err := timeline.ChronologicalAgeDays(asOf, time.UTC); !errors.Is(err, ErrNotBorn) {
		t.Errorf("ChronologicalAgeDays() error = %v, want ErrNotBorn", err)
	}
	if _, err := timeline.CorrectedAgeDays(asOf, time.UTC); !errors.Is(err, ErrNotBorn) {
		t.Errorf("CorrectedAgeDays() error = %v, want ErrNotBorn", err)
	}
}

func TestPostmenstrualAgeDays(t *testing.T) {
	timeline := testTimeline()
	timeline.Birthday = ptrTime(date(2023, 9, 15))

	got, err := timeline.PostmenstrualAgeDays(date(2023, 9, 20), time.UTC)
	if err != nil {
		t.Fatalf("PostmenstrualAgeDays() error = %v", err)
	}
	if got != 263 {
		t.Errorf("PostmenstrualAgeDays() = %d, want 263", got)
	}
}

func TestChronologicalAgeDays(t *testing.T) {
	timeline := testTimeline()
	timeline.Birthday = ptrTime(date(2023, 9, 15))

	tests := []struct {
		name string
		date time.Time
		want int
	}{
		{name: "day after birth", date: date(2023, 9, 16), want: 2},
		{name: "five days later", date: date(2023, 9, 20), want: 6},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := timeline.ChronologicalAgeDays(tt.date, time.UTC)
			if err != nil {
				t.Fatalf("ChronologicalAgeDays() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("ChronologicalAgeDays() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestCorrectedAgeDays(t *testing.T) {
	tests := []struct {
		name     string
		birthday time.Time
		date     time.Time
		want     int
	}{
		{
			name:     "preterm before the due date",
			birthday: date(2023, 9, 15),
			date:     date(2023, 9, 20),
			want:     -17,
		},
		{
			name:     "preterm reaching term",
			birthday: date(2023, 9, 15),
			date:     date(2023, 10, 8),
			want:     1,
		},
		{
			name:     "preterm past term",
			birthday: date(2023, 9, 15),
			date:     date(2023, 10, 18),
			want:     11,
		},
		{
			name:     "term child uses chronological age",
			birthday: date(2023, 10, 5),
			date:     date(2023, 10, 10),
			want:     6,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			timeline := testTimeline()
			timeline.Birthday = ptrTime(tt.birthday)
			got, err := timeline.CorrectedAgeDays(tt.date, time.UTC)
			if err != nil {
				t.Fatalf("CorrectedAgeDays() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("CorrectedAgeDays() = %d, want %d", got, tt.want)
			}
		})
	}
}
