package repository

import (
	"fmt"

	"nestcare/internal/database"
	"nestcare/internal/models"
)

// CareLogRepository handles database operations for dependent care records
type CareLogRepository struct {
	db *database.DB
}

// NewCareLogRepository creates a new care log repository
func NewCareLogRepository(db *database.DB) *CareLogRepository {
	return &CareLogRepository{db: db}
}

// AddFeeding appends a feeding record
func (r *CareLogRepository) AddFeeding(f *models.Feeding) (int64, error) {
	query := `INSERT INTO feedings (timeline_id, fed_at, amount_ml, note, recorded_by)
		VALUES (?, ?, ?, ?, ?)`
	id, err := r.db.ExecReturningID(query, f.TimelineID, f.FedAt, f.AmountML, f.Note, f.RecordedBy)
	if err != nil {
		return 0, fmt.Errorf("failed to add feeding: %w", err)
	}
	return id, nil
}

// ListFeedings retrieves the most recent feedings for a timeline
func (r *CareLogRepository) ListFeedings(timelineID int64, limit int) ([]models.Feeding, error) {
	query := `SELECT id, timeline_id, fed_at, amount_ml, note, recorded_by
		FROM feedings WHERE timeline_id = ? ORDER BY fed_at DESC LIMIT ?`
	rows, err := r.db.Query(query, timelineID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query feedings: %w", err)
	}
	defer rows.Close()

	var feedings []models.Feeding
	for rows.Next() {
		var f models.Feeding
		if err := rows.Scan(&f.ID, &f.TimelineID, &f.FedAt, &f.AmountML, &f.Note, &f.RecordedBy); err != nil {
			return nil, fmt.Errorf("failed to scan feeding: %w", err)
		}
		feedings = append(feedings, f)
	}
	return feedings, rows.Err()
}

// AddBreastPumping appends a milk-collection record
func (r *CareLogRepository) AddBreastPumping(b *models.BreastPumping) (int64, error) {
	query := `INSERT INTO breast_pumpings (timeline_id, pumped_at, amount_ml, note, recorded_by)
		VALUES (?, ?, ?, ?, ?)`
	id, err := r.db.ExecReturningID(query, b.TimelineID, b.PumpedAt, b.AmountML, b.Note, b.RecordedBy)
	if err != nil {
		return 0, fmt.Errorf("failed to add breast pumping: %w", err)
	}
	return id, nil
}

// ListBreastPumpings retrieves the most recent pumping records for a timeline
func (r *CareLogRepository) ListBreastPumpings(timelineID int64, limit int) ([]models.BreastPumping, error) {
	query := `SELECT id, timeline_id, pumped_at, amount_ml, note, recorded_by
		FROM breast_pumpings WHERE timeline_id = ? ORDER BY pumped_at DESC LIMIT ?`
	rows, err := r.db.Query(query, timelineID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query breast pumpings: %w", err)
	}
	defer rows.Close()

	var pumpings []models.BreastPumping
	for rows.Next() {
		var b models.BreastPumping
		if err := rows.Scan(&b.ID, &b.TimelineID, &b.PumpedAt, &b.AmountML, &b.Note, &b.RecordedBy); err != nil {
			return nil, fmt.Errorf("failed to scan breast pumping: %w", err)
		}
		pumpings = append(pumpings, b)
	}
	return pumpings, rows.Err()
}

// AddBodyTemperature appends a temperature reading
func (r *CareLogRepository) AddBodyTemperature(t *models.BodyTemperature) (int64, error) {
	query := `INSERT INTO body_temperatures (timeline_id, measured_at, temperature, measurement, note, recorded_by)
		VALUES (?, ?, ?, ?, ?, ?)`
	id, err := r.db.ExecReturningID(query, t.TimelineID, t.MeasuredAt, t.Temperature, t.Measurement, t.Note, t.RecordedBy)
	if err != nil {
		return 0, fmt.Errorf("failed to add body temperature: %w", err)
	}
	return id, nil
}

// ListBodyTemperatures retrieves the most recent temperature readings for a timeline
func (r *CareLogRepository) ListBodyTemperatures(timelineID int64, limit int) ([]models.BodyTemperature, error) {
	query := `SELECT id, timeline_id, measured_at, temperature, measurement, note, recorded_by
		FROM body_temperatures WHERE timeline_id = ? ORDER BY measured_at DESC LIMIT ?`
	rows, err := r.db.Query(query, timelineID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query body temperatures: %w", err)
	}
	defer rows.Close()

	var temps []models.BodyTemperature
	for rows.Next() {
		var t models.BodyTemperature
		if err := rows.Scan(&t.ID, &t.TimelineID, &t.MeasuredAt, &t.Temperature, &t.Measurement, &t.Note, &t.RecordedBy); err != nil {
			return nil, fmt.Errorf("failed to scan body temperature: %w", err)
		}
		temps = append(temps, t)
	}
	return temps, rows.Err()
}

// AddGrowthEntry appends a growth checkup
func (r *CareLogRepository) AddGrowthEntry(g *models.GrowthEntry) (int64, error) {
	query := `INSERT INTO growth_entries (timeline_id, measured_at, weight_kg, height_cm, head_circ_cm, note, recorded_by)
		VALUES (?, ?, ?, ?, ?, ?, ?)`
	id, err := r.db.ExecReturningID(query, g.TimelineID, g.MeasuredAt, g.WeightKG, g.HeightCM, g.HeadCircCM, g.Note, g.RecordedBy)
	if err != nil {
		return 0, fmt.Errorf("failed to add growth entry: %w", err)
	}
	return id, nil
}

// ListGrowthEntries retrieves the most recent growth checkups for a timeline
func (r *CareLogRepository) ListGrowthEntries(timelineID int64, limit int) ([]models.GrowthEntry, error) {
	query := `SELECT id, timeline_id, measured_at, weight_kg, height_cm, head_circ_cm, note, recorded_by
		FROM growth_entries WHERE timeline_id = ? ORDER BY measured_at DESC LIMIT ?`
	rows, err := r.db.Query(query, timelineID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query growth entries: %w", err)
	}
	defer rows.Close()

	var entries []models.GrowthEntry
	for rows.Next() {
		var g models.GrowthEntry
		if err := rows.Scan(&g.ID, &g.TimelineID, &g.MeasuredAt, &g.WeightKG, &g.HeightCM, &g.HeadCircCM, &g.Note, &g.RecordedBy); err != nil {
			return nil, fmt.Errorf("failed to scan growth entry: %w", err)
		}
		entries = append(entries, g)
	}
	return entries, rows.Err()
}

// AddDiaperChange appends a diaper change record
func (r *CareLogRepository) AddDiaperChange(d *models.DiaperChange) (int64, error) {
	query := `INSERT INTO diaper_changes (timeline_id, changed_at, kind, note, recorded_by)
		VALUES (?, ?, ?, ?, ?)`
	id, err := r.db.ExecReturningID(query, d.TimelineID, d.ChangedAt, d.Kind, d.Note, d.RecordedBy)
	if err != nil {
		return 0, fmt.Errorf("failed to add diaper change: %w", err)
	}
	return id, nil
}

// ListDiaperChanges retrieves the most recent diaper changes for a timeline
func (r *CareLogRepository) ListDiaperChanges(timelineID int64, limit int) ([]models.DiaperChange, error) {
	query := `SELECT id, timeline_id, changed_at, kind, note, recorded_by
		FROM diaper_changes WHERE timeline_id = ? ORDER BY changed_at DESC LIMIT ?`
	rows, err := r.db.Query(query, timelineID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query diaper changes: %w", err)
	}
	defer rows.Close()

	var changes []models.DiaperChange
	for rows.Next() {
		var d models.DiaperChange
		if err := rows.Scan(&d.ID, &d.TimelineID, &d.ChangedAt, &d.Kind, &d.Note, &d.RecordedBy); err != nil {
			return nil, fmt.Errorf("failed to scan diaper change: %w", err)
		}
		changes = append(changes, d)
	}
	return changes, rows.Err()
}
