package model

import (
	"strings"
	"time"
)

// IssueStatus is the lifecycle state of an issue.  Any state may move to
// any other; there is no terminal state.
type IssueStatus string

const (
	StatusPending  IssueStatus = "Pending"
	StatusResolved IssueStatus = "Resolved"
)

// ParseStatus maps a wire value to a status.  Matching ignores case and
// surrounding space, so "resolved" is accepted; anything else is rejected.
func ParseStatus(s string) (IssueStatus, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "pending":
		return StatusPending, true
	case "resolved":
		return StatusResolved, true
	}
	return "", false
}

// Issue represents a citizen report as stored in the `issues` table.
// OwnerID and CreatedAt never change after insert; Status changes only
// through an explicit transition.
//
// Fields:
//
//	ID          – ULID primary key.
//	Title       – short summary.
//	Description – free text, may be empty.
//	Location    – free-text location.
//	Photo       – blob reference, nil when no photo was uploaded.
//	Status      – Pending or Resolved.
//	OwnerID     – users.id of the reporter.
//	CreatedAt   – creation timestamp (UTC).
type Issue struct {
	ID          string      `json:"_id"`
	Title       string      `json:"title"`
	Description string      `json:"description"`
	Location    string      `json:"location"`
	Photo       *string     `json:"photo"`
	Status      IssueStatus `json:"status"`
	OwnerID     string      `json:"createdBy"`
	CreatedAt   time.Time   `json:"createdAt"`
}
