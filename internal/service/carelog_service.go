package service

import (
	"errors"
	"fmt"

	"nestcare/internal/models"
	"nestcare/internal/repository"
)

// DefaultLogLimit bounds list queries when the caller does not say.
const DefaultLogLimit = 50

// CareLogService handles dependent care records, gated by the relation
// ledger's editable and accessible predicates.
type CareLogService struct {
	careLogRepo *repository.CareLogRepository
	relations   *RelationService
}

// NewCareLogService creates a new care log service
func NewCareLogService(careLogRepo *repository.CareLogRepository, relations *RelationService) *CareLogService {
	return &CareLogService{
		careLogRepo: careLogRepo,
		relations:   relations,
	}
}

func (s *CareLogService) requireEdit(timelineID, partyID int64) error {
	allowed, err := s.relations.CanEdit(timelineID, partyID)
	if err != nil {
		return err
	}
	if !allowed {
		return ErrForbidden
	}
	return nil
}

func (s *CareLogService) requireView(timelineID, partyID int64) error {
	allowed, err := s.relations.CanView(timelineID, partyID)
	if err != nil {
		return err
	}
	if !allowed {
		return ErrForbidden
	}
	return nil
}

func normalizeLimit(limit int) int {
	if limit <= 0 {
		return DefaultLogLimit
	}
	return limit
}

// AddFeeding appends a feeding record on behalf of a party
func (s *CareLogService) AddFeeding(partyID int64, feeding *models.Feeding) (*models.Feeding, error) {
	if err := s.requireEdit(feeding.TimelineID, partyID); err != nil {
		return nil, err
	}
	if feeding.AmountML < 0 {
		return nil, errors.New("feeding amount cannot be negative")
	}

	feeding.RecordedBy = partyID
	id, err := s.careLogRepo.AddFeeding(feeding)
	if err != nil {
		return nil, fmt.Errorf("failed to add feeding: %w", err)
	}
	feeding.ID = id
	return feeding, nil
}

// ListFeedings retrieves recent feedings on behalf of a party
func (s *CareLogService) ListFeedings(timelineID, partyID int64, limit int) ([]models.Feeding, error) {
	if err := s.requireView(timelineID, partyID); err != nil {
		return nil, err
	}
	return s.careLogRepo.ListFeedings(timelineID, normalizeLimit(limit))
}

// AddBreastPumping appends a milk-collection record on behalf of a party
func (s *CareLogService) AddBreastPumping(partyID int64, pumping *models.BreastPumping) (*models.BreastPumping, error) {
	if err := s.requireEdit(pumping.TimelineID, partyID); err != nil {
		return nil, err
	}
	if pumping.AmountML < 0 {
		return nil, errors.New("pumping amount cannot be negative")
	}

	pumping.RecordedBy = partyID
	id, err := s.careLogRepo.AddBreastPumping(pumping)
	if err != nil {
		return nil, fmt.Errorf("failed to add breast pumping: %w", err)
	}
	pumping.ID = id
	return pumping, nil
}

// ListBreastPumpings retrieves recent pumping records on behalf of a party
func (s *CareLogService) ListBreastPumpings(timelineID, partyID int64, limit int) ([]models.BreastPumping, error) {
	if err := s.requireView(timelineID, partyID); err != nil {
		return nil, err
	}
	return s.careLogRepo.ListBreastPumpings(timelineID, normalizeLimit(limit))
}

// AddBodyTemperature appends a temperature reading on behalf of a party
func (s *CareLogService) AddBodyTemperature(partyID int64, temp *models.BodyTemperature) (*models.BodyTemperature, error) {
	if err := s.requireEdit(temp.TimelineID, partyID); err != nil {
		return nil, err
	}
	if err := models.ValidateMeasurement(temp.Measurement); err != nil {
		return nil, err
	}

	temp.RecordedBy = partyID
	id, err := s.careLogRepo.AddBodyTemperature(temp)
	if err != nil {
		return nil, fmt.Errorf("failed to add body temperature: %w", err)
	}
	temp.ID = id
	return temp, nil
}

// ListBodyTemperatures retrieves recent temperature readings on behalf of a party
func (s *CareLogService) ListBodyTemperatures(timelineID, partyID int64, limit int) ([]models.BodyTemperature, error) {
	if err := s.requireView(timelineID, partyID); err != nil {
		return nil, err
	}
	return s.careLogRepo.ListBodyTemperatures(timelineID, normalizeLimit(limit))
}

// AddGrowthEntry appends a growth checkup on behalf of a party
func (s *CareLogService) AddGrowthEntry(partyID int64, entry *models.GrowthEntry) (*models.GrowthEntry, error) {
	if err := s.requireEdit(entry.TimelineID, partyID); err != nil {
		return nil, err
	}
	if entry.WeightKG < 0 || entry.HeightCM < 0 || entry.HeadCircCM < 0 {
		return nil, errors.New("growth measurements cannot be negative")
	}

	entry.RecordedBy = partyID
	id, err := s.careLogRepo.AddGrowthEntry(entry)
	if err != nil {
		return nil, fmt.Errorf("failed to add growth entry: %w", err)
	}
	entry.ID = id
	return entry, nil
}

// ListGrowthEntries retrieves recent growth checkups on behalf of a party
func (s *CareLogService) ListGrowthEntries(timelineID, partyID int64, limit int) ([]models.GrowthEntry, error) {
	if err := s.requireView(timelineID, partyID); err != nil {
		return nil, err
	}
	return s.careLogRepo.ListGrowthEntries(timelineID, normalizeLimit(limit))
}

// AddDiaperChange appends a diaper change on behalf of a party
func (s *CareLogService) AddDiaperChange(partyID int64, change *models.DiaperChange) (*models.DiaperChange, error) {
	if err := s.requireEdit(change.TimelineID, partyID); err != nil {
		return nil, err
	}
	if err := models.ValidateDiaperKind(change.Kind); err != nil {
		return nil, err
	}

	change.RecordedBy = partyID
	id, err := s.careLogRepo.AddDiaperChange(change)
	if err != nil {
		return nil, fmt.Errorf("failed to add diaper change: %w", err)
	}
	change.ID = id
	return change, nil
}

// ListDiaperChanges retrieves recent diaper changes on behalf of a party
func (s *CareLogService) ListDiaperChanges(timelineID, partyID int64, limit int) ([]models.DiaperChange, error) {
	if err := s.requireView(timelineID, partyID); err != nil {
		return nil, err
	}
	return s.careLogRepo.ListDiaperChanges(timelineID, normalizeLimit(limit))
}
