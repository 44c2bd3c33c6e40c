package service

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/google/uuid"

	"nestcare/internal/database"
	"nestcare/internal/models"
	"nestcare/internal/repository"
)

// BackupData is the complete dataset as a portable JSON snapshot
type BackupData struct {
	SnapshotID       string                   `json:"snapshot_id"`
	Version          string                   `json:"version"`
	ExportedAt       time.Time                `json:"exported_at"`
	Parties          []models.Party           `json:"parties"`
	Timelines        []models.Timeline        `json:"timelines"`
	Relations        []models.Relation        `json:"relations"`
	Feedings         []models.Feeding         `json:"feedings"`
	BreastPumpings   []models.BreastPumping   `json:"breast_pumpings"`
	BodyTemperatures []models.BodyTemperature `json:"body_temperatures"`
	GrowthEntries    []models.GrowthEntry     `json:"growth_entries"`
	DiaperChanges    []models.DiaperChange    `json:"diaper_changes"`
}

// BackupService exports and imports the full dataset as JSON
type BackupService struct {
	db *database.DB
}

// NewBackupService creates a new backup service
func NewBackupService(db *database.DB) *BackupService {
	return &BackupService{db: db}
}

// Export writes the complete dataset to a JSON file
func (s *BackupService) Export(outputPath string) (*BackupData, error) {
	data := &BackupData{
		SnapshotID: uuid.New().String(),
		Version:    "1",
		ExportedAt: time.Now(),
	}

	partyRepo := repository.NewPartyRepository(s.db)
	timelineRepo := repository.NewTimelineRepository(s.db)

	var err error
	if data.Parties, err = partyRepo.ListParties(); err != nil {
		return nil, fmt.Errorf("failed to export parties: %w", err)
	}
	if data.Timelines, err = timelineRepo.ListTimelines(); err != nil {
		return nil, fmt.Errorf("failed to export timelines: %w", err)
	}
	if err = s.exportRelations(data); err != nil {
		return nil, err
	}
	if err = s.exportCareLogs(data); err != nil {
		return nil, err
	}

	f, err := os.Create(outputPath)
	if err != nil {
		return nil, fmt.Errorf("failed to create backup file: %w", err)
	}
	defer f.Close()

	encoder := json.NewEncoder(f)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(data); err != nil {
		return nil, fmt.Errorf("failed to write backup: %w", err)
	}

	log.Printf("Exported snapshot %s to %s", data.SnapshotID, outputPath)
	return data, nil
}

func (s *BackupService) exportRelations(data *BackupData) error {
	rows, err := s.db.Query(`SELECT id, timeline_id, party_id, status, reference, requested_at, approver_id, decided_at
		FROM relations ORDER BY id ASC`)
	if err != nil {
		return fmt.Errorf("failed to export relations: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var rel models.Relation
		var status int
		var approver *int64
		var decidedAt *time.Time
		if err := rows.Scan(&rel.ID, &rel.TimelineID, &rel.PartyID, &status,
			&rel.Reference, &rel.RequestedAt, &approver, &decidedAt); err != nil {
			return fmt.Errorf("failed to scan relation: %w", err)
		}
		rel.Status = models.RelationStatus(status)
		rel.ApproverID = approver
		rel.DecidedAt = decidedAt
		data.Relations = append(data.Relations, rel)
	}
	return rows.Err()
}

func (s *BackupService) exportCareLogs(data *BackupData) error {
	careLogRepo := repository.NewCareLogRepository(s.db)

	// High limit: backups want everything.
	const all = 1 << 30

	var timelineIDs []int64
	rows, err := s.db.Query("SELECT id FROM timelines ORDER BY id ASC")
	if err != nil {
		return fmt.Errorf("failed to list timeline ids: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return fmt.Errorf("failed to scan timeline id: %w", err)
		}
		timelineIDs = append(timelineIDs, id)
	}
	if err := rows.Err(); err != nil {
		return err
	}

	for _, id := range timelineIDs {
		feedings, err := careLogRepo.ListFeedings(id, all)
		if err != nil {
			return err
		}
		data.Feedings = append(data.Feedings, feedings...)

		pumpings, err := careLogRepo.ListBreastPumpings(id, all)
		if err != nil {
			return err
		}
		data.BreastPumpings = append(data.BreastPumpings, pumpings...)

		temps, err := careLogRepo.ListBodyTemperatures(id, all)
		if err != nil {
			return err
		}
		data.BodyTemperatures = append(data.BodyTemperatures, temps...)

		growth, err := careLogRepo.ListGrowthEntries(id, all)
		if err != nil {
			return err
		}
		data.GrowthEntries = append(data.GrowthEntries, growth...)

		changes, err := careLogRepo.ListDiaperChanges(id, all)
		if err != nil {
			return err
		}
		data.DiaperChanges = append(data.DiaperChanges, changes...)
	}
	return nil
}

// Import loads a JSON snapshot into the database. With clear set, all
// existing rows are removed first; otherwise rows are inserted on top of
// what is there and conflicts fail the import.
func (s *BackupService) Import(inputPath string, clear bool) error {
	f, err := os.Open(inputPath)
	if err != nil {
		return fmt.Errorf("failed to open backup file: %w", err)
	}
	defer f.Close()

	var data BackupData
	if err := json.NewDecoder(f).Decode(&data); err != nil {
		return fmt.Errorf("failed to parse backup: %w", err)
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if clear {
		// Children first, then parents, to satisfy foreign keys.
		tables := []string{
			"feedings", "breast_pumpings", "body_temperatures",
			"growth_entries", "diaper_changes", "relations", "timelines", "parties",
		}
		for _, table := range tables {
			if _, err := tx.Exec("DELETE FROM " + table); err != nil {
				return fmt.Errorf("failed to clear %s: %w", table, err)
			}
		}
	}

	for _, p := range data.Parties {
		_, err := tx.Exec("INSERT INTO parties (id, name, email, created_at) VALUES (?, ?, ?, ?)",
			p.ID, p.Name, p.Email, p.CreatedAt)
		if err != nil {
			return fmt.Errorf("failed to import party %d: %w", p.ID, err)
		}
	}

	for _, t := range data.Timelines {
		var edd, birthday interface{}
		if t.EstimatedDueDate != nil {
			edd = *t.EstimatedDueDate
		}
		if t.Birthday != nil {
			birthday = *t.Birthday
		}
		var preterm interface{}
		if t.Preterm != nil {
			preterm = *t.Preterm
		}
		_, err := tx.Exec(`INSERT INTO timelines
			(id, nickname, last_menstrual_period, estimated_due_date, birthday, preterm,
			 ultrasound_fixed_days, created_by, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			t.ID, t.Nickname, t.LastMenstrualPeriod, edd, birthday, preterm,
			t.UltrasoundFixedDays, t.CreatedBy, t.CreatedAt, t.UpdatedAt)
		if err != nil {
			return fmt.Errorf("failed to import timeline %d: %w", t.ID, err)
		}
	}

	for _, rel := range data.Relations {
		var approver, decidedAt interface{}
		if rel.ApproverID != nil {
			approver = *rel.ApproverID
		}
		if rel.DecidedAt != nil {
			decidedAt = *rel.DecidedAt
		}
		_, err := tx.Exec(`INSERT INTO relations
			(id, timeline_id, party_id, status, reference, requested_at, approver_id, decided_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			rel.ID, rel.TimelineID, rel.PartyID, int(rel.Status), rel.Reference,
			rel.RequestedAt, approver, decidedAt)
		if err != nil {
			return fmt.Errorf("failed to import relation %d: %w", rel.ID, err)
		}
	}

	for _, fd := range data.Feedings {
		_, err := tx.Exec(`INSERT INTO feedings (id, timeline_id, fed_at, amount_ml, note, recorded_by)
			VALUES (?, ?, ?, ?, ?, ?)`,
			fd.ID, fd.TimelineID, fd.FedAt, fd.AmountML, fd.Note, fd.RecordedBy)
		if err != nil {
			return fmt.Errorf("failed to import feeding %d: %w", fd.ID, err)
		}
	}

	for _, b := range data.BreastPumpings {
		_, err := tx.Exec(`INSERT INTO breast_pumpings (id, timeline_id, pumped_at, amount_ml, note, recorded_by)
			VALUES (?, ?, ?, ?, ?, ?)`,
			b.ID, b.TimelineID, b.PumpedAt, b.AmountML, b.Note, b.RecordedBy)
		if err != nil {
			return fmt.Errorf("failed to import breast pumping %d: %w", b.ID, err)
		}
	}

	for _, t := range data.BodyTemperatures {
		_, err := tx.Exec(`INSERT INTO body_temperatures
			(id, timeline_id, measured_at, temperature, measurement, note, recorded_by)
			VALUES (?, ?, ?, ?, ?, ?, ?)`,
			t.ID, t.TimelineID, t.MeasuredAt, t.Temperature, t.Measurement, t.Note, t.RecordedBy)
		if err != nil {
			return fmt.Errorf("failed to import body temperature %d: %w", t.ID, err)
		}
	}

	for _, g := range data.GrowthEntries {
		_, err := tx.Exec(`INSERT INTO growth_entries
			(id, timeline_id, measured_at, weight_kg, height_cm, head_circ_cm, note, recorded_by)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			g.ID, g.TimelineID, g.MeasuredAt, g.WeightKG, g.HeightCM, g.HeadCircCM, g.Note, g.RecordedBy)
		if err != nil {
			return fmt.Errorf("failed to import growth entry %d: %w", g.ID, err)
		}
	}

	for _, d := range data.DiaperChanges {
		_, err := tx.Exec(`INSERT INTO diaper_changes (id, timeline_id, changed_at, kind, note, recorded_by)
			VALUES (?, ?, ?, ?, ?, ?)`,
			d.ID, d.TimelineID, d.ChangedAt, d.Kind, d.Note, d.RecordedBy)
		if err != nil {
			return fmt.Errorf("failed to import diaper change %d: %w", d.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit import: %w", err)
	}

	log.Printf("Imported snapshot %s (%d parties, %d timelines, %d relations)",
		data.SnapshotID, len(data.Parties), len(data.Timelines), len(data.Relations))
	return nil
}
