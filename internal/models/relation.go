package models

import (
	"fmt"
	"time"
)

// RelationStatus is the access tier a party holds on a timeline.
type RelationStatus int

const (
	StatusPending RelationStatus = iota
	StatusRejected
	StatusGuardian
	StatusRelative
	StatusCaregiver
)

var statusNames = map[RelationStatus]string{
	StatusPending:   "pending",
	StatusRejected:  "rejected",
	StatusGuardian:  "guardian",
	StatusRelative:  "relative",
	StatusCaregiver: "caregiver",
}

func (s RelationStatus) String() string {
	if name, ok := statusNames[s]; ok {
		return name
	}
	return fmt.Sprintf("status(%d)", int(s))
}

// ParseRelationStatus converts a status name back to its enum value.
func ParseRelationStatus(name string) (RelationStatus, error) {
	for status, n := range statusNames {
		if n == name {
			return status, nil
		}
	}
	return 0, fmt.Errorf("unknown relation status: %q", name)
}

// AccessibleStatuses may read the timeline and its dependent logs.
// EditableStatuses may append dependent records. The two sets answer
// different questions and are kept separate even though their values
// currently coincide.
var (
	AccessibleStatuses = []RelationStatus{StatusGuardian, StatusRelative, StatusCaregiver}
	EditableStatuses   = []RelationStatus{StatusGuardian, StatusRelative, StatusCaregiver}
	GrantableStatuses  = []RelationStatus{StatusGuardian}
	GrantedStatuses    = []RelationStatus{StatusRejected, StatusGuardian, StatusRelative, StatusCaregiver}
)

// In reports whether the status is a member of the given set.
func (s RelationStatus) In(set []RelationStatus) bool {
	for _, member := range set {
		if s == member {
			return true
		}
	}
	return false
}

// Accessible reports whether the status permits reading the timeline.
func (s RelationStatus) Accessible() bool { return s.In(AccessibleStatuses) }

// Editable reports whether the status permits appending dependent records.
func (s RelationStatus) Editable() bool { return s.In(EditableStatuses) }

// Grantable reports whether the status permits approving or rejecting
// pending requests on the same timeline.
func (s RelationStatus) Grantable() bool { return s.In(GrantableStatuses) }

// Decided reports whether the record has been handled by a guardian.
func (s RelationStatus) Decided() bool { return s.In(GrantedStatuses) }

// Relation is one party's association with one timeline. At most one
// record exists per (timeline, party) pair.
type Relation struct {
	ID          int64
	TimelineID  int64
	PartyID     int64
	Status      RelationStatus
	Reference   string // opaque code used in notification links
	RequestedAt time.Time
	ApproverID  *int64
	DecidedAt   *time.Time
}
