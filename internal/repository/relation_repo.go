package repository

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"nestcare/internal/database"
	"nestcare/internal/models"
)

// RelationRepository handles database operations for relation records
type RelationRepository struct {
	db *database.DB
}

// NewRelationRepository creates a new relation repository
func NewRelationRepository(db *database.DB) *RelationRepository {
	return &RelationRepository{db: db}
}

const relationColumns = "id, timeline_id, party_id, status, reference, requested_at, approver_id, decided_at"

func scanRelation(row *sql.Row) (*models.Relation, error) {
	rel := &models.Relation{}
	var status int
	var approver sql.NullInt64
	var decidedAt sql.NullTime
	err := row.Scan(
		&rel.ID, &rel.TimelineID, &rel.PartyID, &status,
		&rel.Reference, &rel.RequestedAt, &approver, &decidedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan relation: %w", err)
	}
	rel.Status = models.RelationStatus(status)
	if approver.Valid {
		id := approver.Int64
		rel.ApproverID = &id
	}
	if decidedAt.Valid {
		t := decidedAt.Time
		rel.DecidedAt = &t
	}
	return rel, nil
}

// CreatePending inserts a pending relation for (timeline, party). The
// UNIQUE(timeline_id, party_id) constraint rejects duplicates; callers
// handle the race by re-fetching the existing record.
func (r *RelationRepository) CreatePending(timelineID, partyID int64) (*models.Relation, error) {
	reference := uuid.New().String()
	now := time.Now()
	query := `INSERT INTO relations (timeline_id, party_id, status, reference, requested_at)
		VALUES (?, ?, ?, ?, ?)`
	id, err := r.db.ExecReturningID(query, timelineID, partyID, int(models.StatusPending), reference, now)
	if err != nil {
		return nil, fmt.Errorf("failed to create relation: %w", err)
	}

	return &models.Relation{
		ID:          id,
		TimelineID:  timelineID,
		PartyID:     partyID,
		Status:      models.StatusPending,
		Reference:   reference,
		RequestedAt: now,
	}, nil
}

// GetRelation retrieves the relation for (timeline, party), or nil when
// none exists
func (r *RelationRepository) GetRelation(timelineID, partyID int64) (*models.Relation, error) {
	query := "SELECT " + relationColumns + " FROM relations WHERE timeline_id = ? AND party_id = ?"
	return scanRelation(r.db.QueryRow(query, timelineID, partyID))
}

// GetRelationByID retrieves a relation by ID, or nil when none exists
func (r *RelationRepository) GetRelationByID(relationID int64) (*models.Relation, error) {
	query := "SELECT " + relationColumns + " FROM relations WHERE id = ?"
	return scanRelation(r.db.QueryRow(query, relationID))
}

// HasStatusIn checks whether (timeline, party) holds a relation whose
// status is in the given set
func (r *RelationRepository) HasStatusIn(timelineID, partyID int64, set []models.RelationStatus) (bool, error) {
	if len(set) == 0 {
		return false, nil
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(set)), ", ")
	query := "SELECT COUNT(*) FROM relations WHERE timeline_id = ? AND party_id = ? AND status IN (" + placeholders + ")"

	args := []interface{}{timelineID, partyID}
	for _, s := range set {
		args = append(args, int(s))
	}

	var count int
	if err := r.db.QueryRow(query, args...).Scan(&count); err != nil {
		return false, fmt.Errorf("failed to check relation status: %w", err)
	}
	return count > 0, nil
}

// Grant moves a pending relation to a granted status. The update is
// conditional on the record still being pending, so concurrent deciders
// cannot both win; returns false when someone else decided first.
func (r *RelationRepository) Grant(relationID int64, newStatus models.RelationStatus, approverID int64) (bool, error) {
	query := `UPDATE relations SET status = ?, approver_id = ?, decided_at = ?
		WHERE id = ? AND status = ?`
	result, err := r.db.Exec(query, int(newStatus), approverID, time.Now(), relationID, int(models.StatusPending))
	if err != nil {
		return false, fmt.Errorf("failed to grant relation: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read rows affected: %w", err)
	}
	return affected > 0, nil
}

// DeleteIfPending removes a pending relation, conditionally on it still
// being pending. Returns false when someone else decided first.
func (r *RelationRepository) DeleteIfPending(relationID int64) (bool, error) {
	query := "DELETE FROM relations WHERE id = ? AND status = ?"
	result, err := r.db.Exec(query, relationID, int(models.StatusPending))
	if err != nil {
		return false, fmt.Errorf("failed to delete relation: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read rows affected: %w", err)
	}
	return affected > 0, nil
}

// ListForTimeline retrieves all relations on a timeline
func (r *RelationRepository) ListForTimeline(timelineID int64) ([]models.Relation, error) {
	query := "SELECT " + relationColumns + " FROM relations WHERE timeline_id = ? ORDER BY requested_at ASC"
	return r.list(query, timelineID)
}

// ListForParty retrieves all relations a party holds
func (r *RelationRepository) ListForParty(partyID int64) ([]models.Relation, error) {
	query := "SELECT " + relationColumns + " FROM relations WHERE party_id = ? ORDER BY requested_at ASC"
	return r.list(query, partyID)
}

func (r *RelationRepository) list(query string, args ...interface{}) ([]models.Relation, error) {
	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query relations: %w", err)
	}
	defer rows.Close()

	var relations []models.Relation
	for rows.Next() {
		var rel models.Relation
		var status int
		var approver sql.NullInt64
		var decidedAt sql.NullTime
		if err := rows.Scan(
			&rel.ID, &rel.TimelineID, &rel.PartyID, &status,
			&rel.Reference, &rel.RequestedAt, &approver, &decidedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan relation: %w", err)
		}
		rel.Status = models.RelationStatus(status)
		if approver.Valid {
			id := approver.Int64
			rel.ApproverID = &id
		}
		if decidedAt.Valid {
			t := decidedAt.Time
			rel.DecidedAt = &t
		}
		relations = append(relations, rel)
	}

	return relations, rows.Err()
}

// ListGuardians retrieves the parties holding a guardian relation on a
// timeline, for notification fan-out
func (r *RelationRepository) ListGuardians(timelineID int64) ([]models.Party, error) {
	query := `
		SELECT p.id, p.name, p.email, p.created_at
		FROM relations rel
		INNER JOIN parties p ON rel.party_id = p.id
		WHERE rel.timeline_id = ? AND rel.status = ?
		ORDER BY p.id ASC
	`
	rows, err := r.db.Query(query, timelineID, int(models.StatusGuardian))
	if err != nil {
		return nil, fmt.Errorf("failed to query guardians: %w", err)
	}
	defer rows.Close()

	var guardians []models.Party
	for rows.Next() {
		var party models.Party
		if err := rows.Scan(&party.ID, &party.Name, &party.Email, &party.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan guardian: %w", err)
		}
		guardians = append(guardians, party)
	}

	return guardians, rows.Err()
}
