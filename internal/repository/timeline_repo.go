package repository

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"nestcare/internal/database"
	"nestcare/internal/models"
)

// TimelineRepository handles database operations for timelines
type TimelineRepository struct {
	db *database.DB
}

// NewTimelineRepository creates a new timeline repository
func NewTimelineRepository(db *database.DB) *TimelineRepository {
	return &TimelineRepository{db: db}
}

// CreateTimeline creates a new timeline and grants the creator a guardian
// relation in the same transaction, so there is no window in which the
// timeline has no guardian.
func (r *TimelineRepository) CreateTimeline(t *models.Timeline, creatorID int64) (*models.Timeline, error) {
	tx, err := r.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var edd interface{}
	if t.EstimatedDueDate != nil {
		edd = models.DateOf(*t.EstimatedDueDate)
	}

	query := `INSERT INTO timelines
		(nickname, last_menstrual_period, estimated_due_date, ultrasound_fixed_days, created_by)
		VALUES (?, ?, ?, ?, ?)`
	timelineID, err := tx.ExecReturningID(query,
		t.Nickname, models.DateOf(t.LastMenstrualPeriod), edd, t.UltrasoundFixedDays, creatorID)
	if err != nil {
		return nil, fmt.Errorf("failed to create timeline: %w", err)
	}

	now := time.Now()
	query = `INSERT INTO relations
		(timeline_id, party_id, status, reference, requested_at, approver_id, decided_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`
	_, err = tx.Exec(query,
		timelineID, creatorID, int(models.StatusGuardian), uuid.New().String(), now, creatorID, now)
	if err != nil {
		return nil, fmt.Errorf("failed to grant creator guardianship: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	created := *t
	created.ID = timelineID
	created.CreatedBy = creatorID
	created.CreatedAt = now
	created.UpdatedAt = now
	return &created, nil
}

const timelineColumns = `id, nickname, last_menstrual_period, estimated_due_date,
	birthday, preterm, ultrasound_fixed_days, created_by, created_at, updated_at`

func scanTimeline(row *sql.Row) (*models.Timeline, error) {
	t := &models.Timeline{}
	var edd, birthday sql.NullTime
	var preterm sql.NullBool
	err := row.Scan(
		&t.ID, &t.Nickname, &t.LastMenstrualPeriod, &edd,
		&birthday, &preterm, &t.UltrasoundFixedDays, &t.CreatedBy, &t.CreatedAt, &t.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan timeline: %w", err)
	}
	if edd.Valid {
		d := edd.Time
		t.EstimatedDueDate = &d
	}
	if birthday.Valid {
		b := birthday.Time
		t.Birthday = &b
	}
	if preterm.Valid {
		p := preterm.Bool
		t.Preterm = &p
	}
	return t, nil
}

// GetTimelineByID retrieves a timeline by ID, or nil when none exists
func (r *TimelineRepository) GetTimelineByID(timelineID int64) (*models.Timeline, error) {
	query := "SELECT " + timelineColumns + " FROM timelines WHERE id = ?"
	return scanTimeline(r.db.QueryRow(query, timelineID))
}

// GetTimelineByNickname retrieves a timeline by its unique nickname, or
// nil when none exists
func (r *TimelineRepository) GetTimelineByNickname(nickname string) (*models.Timeline, error) {
	query := "SELECT " + timelineColumns + " FROM timelines WHERE nickname = ?"
	return scanTimeline(r.db.QueryRow(query, nickname))
}

// RecordBirth sets the birthday and the preterm classification in a
// single conditional update. Returns false when a birth was already
// recorded; the classification is written once and never recomputed.
func (r *TimelineRepository) RecordBirth(timelineID int64, birthday time.Time, preterm bool) (bool, error) {
	query := `UPDATE timelines SET birthday = ?, preterm = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ? AND birthday IS NULL`
	result, err := r.db.Exec(query, birthday, preterm, timelineID)
	if err != nil {
		return false, fmt.Errorf("failed to record birth: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read rows affected: %w", err)
	}
	return affected > 0, nil
}

// UpdateAnchors rewrites the anchor dates. Derived values computed before
// the update are invalidated; the stored preterm classification is not
// touched.
func (r *TimelineRepository) UpdateAnchors(timelineID int64, lmp time.Time, edd *time.Time, ultrasoundFixedDays int) error {
	var eddValue interface{}
	if edd != nil {
		eddValue = models.DateOf(*edd)
	}
	query := `UPDATE timelines SET last_menstrual_period = ?, estimated_due_date = ?,
		ultrasound_fixed_days = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`
	_, err := r.db.Exec(query, models.DateOf(lmp), eddValue, ultrasoundFixedDays, timelineID)
	if err != nil {
		return fmt.Errorf("failed to update anchors: %w", err)
	}
	return nil
}

// ListTimelines retrieves all timelines
func (r *TimelineRepository) ListTimelines() ([]models.Timeline, error) {
	query := "SELECT " + timelineColumns + " FROM timelines ORDER BY id ASC"
	rows, err := r.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query timelines: %w", err)
	}
	defer rows.Close()

	var timelines []models.Timeline
	for rows.Next() {
		t := models.Timeline{}
		var edd, birthday sql.NullTime
		var preterm sql.NullBool
		if err := rows.Scan(
			&t.ID, &t.Nickname, &t.LastMenstrualPeriod, &edd,
			&birthday, &preterm, &t.UltrasoundFixedDays, &t.CreatedBy, &t.CreatedAt, &t.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan timeline: %w", err)
		}
		if edd.Valid {
			d := edd.Time
			t.EstimatedDueDate = &d
		}
		if birthday.Valid {
			b := birthday.Time
			t.Birthday = &b
		}
		if preterm.Valid {
			p := preterm.Bool
			t.Preterm = &p
		}
		timelines = append(timelines, t)
	}

	return timelines, rows.Err()
}
