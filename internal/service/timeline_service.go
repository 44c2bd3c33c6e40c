package service

import (
	"errors"
	"fmt"
	"time"

	"nestcare/internal/clock"
	"nestcare/internal/models"
	"nestcare/internal/repository"
)

var (
	ErrNicknameTaken = errors.New("nickname is already in use")

	// ErrAlreadyBorn means a birth was already recorded; the preterm
	// classification made at that point is immutable.
	ErrAlreadyBorn = errors.New("a birth has already been recorded")

	// ErrBirthdayInFuture rejects birth recordings dated after today,
	// which would persist a preterm classification for an unborn child.
	ErrBirthdayInFuture = errors.New("birthday cannot be in the future")
)

// TimelineService handles timeline lifecycle and the date-calculus
// queries gated by the relation ledger.
type TimelineService struct {
	timelineRepo *repository.TimelineRepository
	relations    *RelationService
	clk          *clock.Clock
}

// NewTimelineService creates a new timeline service
func NewTimelineService(timelineRepo *repository.TimelineRepository, relations *RelationService, clk *clock.Clock) *TimelineService {
	return &TimelineService{
		timelineRepo: timelineRepo,
		relations:    relations,
		clk:          clk,
	}
}

// CreateTimeline creates a timeline and auto-grants the creator a
// guardian relation in the same transaction.
func (s *TimelineService) CreateTimeline(nickname string, lmp time.Time, edd *time.Time, ultrasoundFixedDays int, creatorID int64) (*models.Timeline, error) {
	if nickname == "" {
		return nil, errors.New("nickname is required")
	}
	if lmp.IsZero() {
		return nil, errors.New("last menstrual period is required")
	}
	if edd != nil && models.DateOf(*edd).Before(models.DateOf(lmp)) {
		return nil, errors.New("estimated due date cannot precede the last menstrual period")
	}

	existing, err := s.timelineRepo.GetTimelineByNickname(nickname)
	if err != nil {
		return nil, fmt.Errorf("failed to check nickname: %w", err)
	}
	if existing != nil {
		return nil, ErrNicknameTaken
	}

	timeline := &models.Timeline{
		Nickname:            nickname,
		LastMenstrualPeriod: models.DateOf(lmp),
		EstimatedDueDate:    edd,
		UltrasoundFixedDays: ultrasoundFixedDays,
	}
	created, err := s.timelineRepo.CreateTimeline(timeline, creatorID)
	if err != nil {
		return nil, fmt.Errorf("failed to create timeline: %w", err)
	}
	return created, nil
}

// GetTimeline retrieves a timeline by ID
func (s *TimelineService) GetTimeline(timelineID int64) (*models.Timeline, error) {
	timeline, err := s.timelineRepo.GetTimelineByID(timelineID)
	if err != nil {
		return nil, fmt.Errorf("failed to get timeline: %w", err)
	}
	if timeline == nil {
		return nil, ErrTimelineNotFound
	}
	return timeline, nil
}

// ViewTimeline retrieves a timeline on behalf of a party, enforcing the
// accessible predicate.
func (s *TimelineService) ViewTimeline(timelineID, partyID int64) (*models.Timeline, error) {
	allowed, err := s.relations.CanView(timelineID, partyID)
	if err != nil {
		return nil, err
	}
	if !allowed {
		return nil, ErrForbidden
	}
	return s.GetTimeline(timelineID)
}

// RecordBirth sets the birthday and classifies prematurity once, from
// the uncorrected gestational age at the local birth date. The stored
// classification survives later anchor edits.
func (s *TimelineService) RecordBirth(timelineID, partyID int64, birthday time.Time) (*models.Timeline, error) {
	allowed, err := s.relations.CanEdit(timelineID, partyID)
	if err != nil {
		return nil, err
	}
	if !allowed {
		return nil, ErrForbidden
	}

	timeline, err := s.GetTimeline(timelineID)
	if err != nil {
		return nil, err
	}

	birthCopy := birthday
	provisional := *timeline
	provisional.Birthday = &birthCopy

	birthDate, _ := provisional.BirthDate(s.clk.Location())
	if birthDate.Before(models.DateOf(timeline.LastMenstrualPeriod)) {
		return nil, models.ErrEarlierThanLMP
	}
	if birthDate.After(s.clk.Today()) {
		return nil, ErrBirthdayInFuture
	}
	preterm := provisional.EvaluatePreterm(s.clk.Location())

	recorded, err := s.timelineRepo.RecordBirth(timelineID, birthday, preterm)
	if err != nil {
		return nil, err
	}
	if !recorded {
		return nil, ErrAlreadyBorn
	}

	return s.GetTimeline(timelineID)
}

// UpdateAnchors rewrites the anchor dates. Derived values already
// rendered by callers become stale; the preterm classification does not
// change.
func (s *TimelineService) UpdateAnchors(timelineID, partyID int64, lmp time.Time, edd *time.Time, ultrasoundFixedDays int) (*models.Timeline, error) {
	allowed, err := s.relations.CanEdit(timelineID, partyID)
	if err != nil {
		return nil, err
	}
	if !allowed {
		return nil, ErrForbidden
	}
	if _, err := s.GetTimeline(timelineID); err != nil {
		return nil, err
	}
	if err := s.timelineRepo.UpdateAnchors(timelineID, lmp, edd, ultrasoundFixedDays); err != nil {
		return nil, err
	}
	return s.GetTimeline(timelineID)
}

// AgeReport collects every date-calculus answer for one timeline as of
// one date. Life-stage queries that fail with ErrNotBorn come back as
// nil fields rather than errors, so callers render placeholders.
type AgeReport struct {
	Nickname                string
	AsOf                    time.Time
	DueDate                 time.Time
	DaysSinceLMP            int
	GestationalAgeDays      int
	GestationalAgeFixedDays int
	DaysToDue               int
	Born                    bool
	Preterm                 bool
	PostmenstrualAgeDays    *int
	ChronologicalAgeDays    *int
	CorrectedAgeDays        *int
}

// Ages builds an age report on behalf of a party. A nil asOf defaults to
// today in the configured zone.
func (s *TimelineService) Ages(timelineID, partyID int64, asOf *time.Time) (*AgeReport, error) {
	allowed, err := s.relations.CanView(timelineID, partyID)
	if err != nil {
		return nil, err
	}
	if !allowed {
		return nil, ErrForbidden
	}

	timeline, err := s.GetTimeline(timelineID)
	if err != nil {
		return nil, err
	}

	date := s.clk.Today()
	if asOf != nil {
		date = models.DateOf(*asOf)
	}
	loc := s.clk.Location()

	report := &AgeReport{
		Nickname: timeline.Nickname,
		AsOf:     date,
		DueDate:  timeline.DueDate(),
		Born:     timeline.IsBorn(date, loc),
		Preterm:  timeline.IsPreterm(loc),
	}

	if report.DaysSinceLMP, err = timeline.DaysSinceLMP(date); err != nil {
		return nil, err
	}
	if report.GestationalAgeDays, err = timeline.GestationalAgeDays(date, false); err != nil {
		return nil, err
	}
	if report.GestationalAgeFixedDays, err = timeline.GestationalAgeDays(date, true); err != nil {
		return nil, err
	}
	if report.DaysToDue, err = timeline.DaysToDue(date); err != nil {
		return nil, err
	}

	if pma, err := timeline.PostmenstrualAgeDays(date, loc); err == nil {
		report.PostmenstrualAgeDays = &pma
	} else if !errors.Is(err, models.ErrNotBorn) {
		return nil, err
	}
	if chrono, err := timeline.ChronologicalAgeDays(date, loc); err == nil {
		report.ChronologicalAgeDays = &chrono
	} else if !errors.Is(err, models.ErrNotBorn) {
		return nil, err
	}
	if corrected, err := timeline.CorrectedAgeDays(date, loc); err == nil {
		report.CorrectedAgeDays = &corrected
	} else if !errors.Is(err, models.ErrNotBorn) {
		return nil, err
	}

	return report, nil
}
