package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"nestcare/internal/models"
	"nestcare/internal/repository"
)

var (
	ErrTimelineNotFound = errors.New("timeline not found")
	ErrPartyNotFound    = errors.New("party not found")
	ErrRelationNotFound = errors.New("relation record not found")

	// ErrForbidden means the acting party holds no relation permitting
	// the operation. Surfaced as access denied, never retried.
	ErrForbidden = errors.New("party is not allowed to perform this action")

	// ErrAlreadyDecided means another guardian decided the request
	// first. A benign race outcome, not an error to the requester.
	ErrAlreadyDecided = errors.New("relation request was already decided")

	// ErrInvalidDecision means the requested new status is not a
	// decision (e.g. pending).
	ErrInvalidDecision = errors.New("decision must grant a status or reject")
)

// RelationService owns the guardianship approval workflow: who may read
// or mutate a timeline, and who may grant that access to others.
type RelationService struct {
	relationRepo *repository.RelationRepository
	timelineRepo *repository.TimelineRepository
	partyRepo    *repository.PartyRepository
	email        *EmailService

	// retainRejected keeps rejected rows instead of deleting them,
	// trading re-request ability for an audit trail.
	retainRejected bool
}

// NewRelationService creates a new relation service
func NewRelationService(
	relationRepo *repository.RelationRepository,
	timelineRepo *repository.TimelineRepository,
	partyRepo *repository.PartyRepository,
	email *EmailService,
	retainRejected bool,
) *RelationService {
	return &RelationService{
		relationRepo:   relationRepo,
		timelineRepo:   timelineRepo,
		partyRepo:      partyRepo,
		email:          email,
		retainRejected: retainRejected,
	}
}

// Request asks to associate the requester with the timeline named by
// nickname. Idempotent: an existing record for the pair is returned
// unchanged with created=false so callers can tell "already requested"
// apart from "newly created". Guardians are notified on creation.
func (s *RelationService) Request(nickname string, requesterID int64) (*models.Relation, bool, error) {
	timeline, err := s.timelineRepo.GetTimelineByNickname(nickname)
	if err != nil {
		return nil, false, fmt.Errorf("failed to find timeline: %w", err)
	}
	if timeline == nil {
		return nil, false, ErrTimelineNotFound
	}

	requester, err := s.partyRepo.GetPartyByID(requesterID)
	if err != nil {
		return nil, false, fmt.Errorf("failed to find requester: %w", err)
	}
	if requester == nil {
		return nil, false, ErrPartyNotFound
	}

	existing, err := s.relationRepo.GetRelation(timeline.ID, requesterID)
	if err != nil {
		return nil, false, fmt.Errorf("failed to check existing relation: %w", err)
	}
	if existing != nil {
		return existing, false, nil
	}

	relation, err := s.relationRepo.CreatePending(timeline.ID, requesterID)
	if err != nil {
		// A concurrent request may have hit the uniqueness constraint
		// first; the surviving row is the answer either way.
		existing, getErr := s.relationRepo.GetRelation(timeline.ID, requesterID)
		if getErr == nil && existing != nil {
			return existing, false, nil
		}
		return nil, false, fmt.Errorf("failed to create relation request: %w", err)
	}

	s.notifyRequested(timeline, requester, relation)
	return relation, true, nil
}

// Decide approves or rejects a pending relation request. The decider
// must hold a grantable relation on the same timeline. Losing a race to
// another decider yields ErrAlreadyDecided. Rejection deletes the record
// unless retention is configured.
func (s *RelationService) Decide(relationID, deciderID int64, newStatus models.RelationStatus) (*models.Relation, error) {
	if !newStatus.Decided() {
		return nil, ErrInvalidDecision
	}

	relation, err := s.relationRepo.GetRelationByID(relationID)
	if err != nil {
		return nil, fmt.Errorf("failed to load relation: %w", err)
	}
	if relation == nil {
		return nil, ErrRelationNotFound
	}

	allowed, err := s.CanApprove(relation, deciderID)
	if err != nil {
		return nil, err
	}
	if !allowed {
		return nil, ErrForbidden
	}

	if relation.Status != models.StatusPending {
		return nil, ErrAlreadyDecided
	}

	if newStatus == models.StatusRejected && !s.retainRejected {
		won, err := s.relationRepo.DeleteIfPending(relationID)
		if err != nil {
			return nil, err
		}
		if !won {
			return nil, ErrAlreadyDecided
		}
	} else {
		won, err := s.relationRepo.Grant(relationID, newStatus, deciderID)
		if err != nil {
			return nil, err
		}
		if !won {
			return nil, ErrAlreadyDecided
		}
	}

	now := time.Now()
	relation.Status = newStatus
	relation.ApproverID = &deciderID
	relation.DecidedAt = &now

	s.notifyDecided(relation)
	return relation, nil
}

// CanView reports whether the party may read the timeline and its logs
func (s *RelationService) CanView(timelineID, partyID int64) (bool, error) {
	ok, err := s.relationRepo.HasStatusIn(timelineID, partyID, models.AccessibleStatuses)
	if err != nil {
		return false, fmt.Errorf("failed to check view access: %w", err)
	}
	return ok, nil
}

// CanEdit reports whether the party may append dependent records
func (s *RelationService) CanEdit(timelineID, partyID int64) (bool, error) {
	ok, err := s.relationRepo.HasStatusIn(timelineID, partyID, models.EditableStatuses)
	if err != nil {
		return false, fmt.Errorf("failed to check edit access: %w", err)
	}
	return ok, nil
}

// CanApprove reports whether the party may decide the given request
func (s *RelationService) CanApprove(relation *models.Relation, partyID int64) (bool, error) {
	ok, err := s.relationRepo.HasStatusIn(relation.TimelineID, partyID, models.GrantableStatuses)
	if err != nil {
		return false, fmt.Errorf("failed to check approval access: %w", err)
	}
	return ok, nil
}

// ListForTimeline retrieves all relations on a timeline; grantable access required
func (s *RelationService) ListForTimeline(timelineID, partyID int64) ([]models.Relation, error) {
	allowed, err := s.relationRepo.HasStatusIn(timelineID, partyID, models.GrantableStatuses)
	if err != nil {
		return nil, fmt.Errorf("failed to check access: %w", err)
	}
	if !allowed {
		return nil, ErrForbidden
	}
	return s.relationRepo.ListForTimeline(timelineID)
}

// ListForParty retrieves the relations a party holds on any timeline
func (s *RelationService) ListForParty(partyID int64) ([]models.Relation, error) {
	return s.relationRepo.ListForParty(partyID)
}

// Notifications are best effort; a failed email never fails the workflow.

func (s *RelationService) notifyRequested(timeline *models.Timeline, requester *models.Party, relation *models.Relation) {
	if s.email == nil || !s.email.IsEnabled() {
		return
	}
	guardians, err := s.relationRepo.ListGuardians(timeline.ID)
	if err != nil {
		log.Printf("Failed to list guardians for notification: %v", err)
		return
	}
	for _, guardian := range guardians {
		if guardian.Email == "" {
			continue
		}
		err := s.email.SendAccessRequestedEmail(context.Background(),
			guardian.Email, guardian.Name, requester.Name, timeline.Nickname, relation.Reference)
		if err != nil {
			log.Printf("Failed to notify guardian %d: %v", guardian.ID, err)
		}
	}
}

func (s *RelationService) notifyDecided(relation *models.Relation) {
	if s.email == nil || !s.email.IsEnabled() {
		return
	}
	requester, err := s.partyRepo.GetPartyByID(relation.PartyID)
	if err != nil || requester == nil || requester.Email == "" {
		return
	}
	timeline, err := s.timelineRepo.GetTimelineByID(relation.TimelineID)
	if err != nil || timeline == nil {
		return
	}
	err = s.email.SendAccessDecidedEmail(context.Background(),
		requester.Email, requester.Name, timeline.Nickname, relation.Status)
	if err != nil {
		log.Printf("Failed to notify requester %d: %v", requester.ID, err)
	}
}
