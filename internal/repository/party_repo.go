package repository

import (
	"database/sql"
	"fmt"
	"time"

	"nestcare/internal/database"
	"nestcare/internal/models"
)

// PartyRepository handles database operations for parties
type PartyRepository struct {
	db *database.DB
}

// NewPartyRepository creates a new party repository
func NewPartyRepository(db *database.DB) *PartyRepository {
	return &PartyRepository{db: db}
}

// CreateParty creates a new party
func (r *PartyRepository) CreateParty(name, email string) (*models.Party, error) {
	query := "INSERT INTO parties (name, email) VALUES (?, ?)"
	id, err := r.db.ExecReturningID(query, name, email)
	if err != nil {
		return nil, fmt.Errorf("failed to create party: %w", err)
	}

	return &models.Party{
		ID:        id,
		Name:      name,
		Email:     email,
		CreatedAt: time.Now(),
	}, nil
}

// GetPartyByID retrieves a party by ID, or nil when none exists
func (r *PartyRepository) GetPartyByID(partyID int64) (*models.Party, error) {
	query := "SELECT id, name, email, created_at FROM parties WHERE id = ?"
	party := &models.Party{}
	err := r.db.QueryRow(query, partyID).Scan(
		&party.ID,
		&party.Name,
		&party.Email,
		&party.CreatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get party: %w", err)
	}

	return party, nil
}

// ListParties retrieves all parties
func (r *PartyRepository) ListParties() ([]models.Party, error) {
	query := "SELECT id, name, email, created_at FROM parties ORDER BY id ASC"
	rows, err := r.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query parties: %w", err)
	}
	defer rows.Close()

	var parties []models.Party
	for rows.Next() {
		var party models.Party
		if err := rows.Scan(&party.ID, &party.Name, &party.Email, &party.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan party: %w", err)
		}
		parties = append(parties, party)
	}

	return parties, rows.Err()
}
