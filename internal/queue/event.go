// Package queue defines issue lifecycle events and moves them over the
// message broker.
package queue

import (
	"context"
	"errors"
	"time"

	"github.com/iliyamo/civic-issue-reporter/internal/model"
)

// Event types.
const (
	IssueCreated       = "issue.created"
	IssueStatusChanged = "issue.status_changed"
	IssueDeleted       = "issue.deleted"
)

// IssueEvent is emitted after an issue mutation has been stored.  It carries
// enough for consumers to notify or update views without querying the
// primary database.  Issue is the state after the change; for deletions it
// is the state just before removal.
type IssueEvent struct {
	Type           string       `json:"type"`
	IssueID        string       `json:"issue_id"`
	OwnerID        string       `json:"owner_id"`
	ActorID        string       `json:"actor_id"`
	Status         string       `json:"status"`
	PreviousStatus string       `json:"previous_status,omitempty"`
	Issue          *model.Issue `json:"issue,omitempty"`
	OccurredAt     time.Time    `json:"occurred_at"`
}

// NewIssueEvent builds an event of type typ for is, performed by actorID.
func NewIssueEvent(typ string, is *model.Issue, actorID string) IssueEvent {
	return IssueEvent{
		Type:       typ,
		IssueID:    is.ID,
		OwnerID:    is.OwnerID,
		ActorID:    actorID,
		Status:     string(is.Status),
		Issue:      is,
		OccurredAt: time.Now().UTC(),
	}
}

// Publisher delivers events somewhere.  Implementations must be safe for
// concurrent use.
type Publisher interface {
	Publish(ctx context.Context, ev IssueEvent) error
}

// Discard drops every event.
type Discard struct{}

func (Discard) Publish(context.Context, IssueEvent) error { return nil }

// Fanout publishes each event to every member and joins their errors.
type Fanout []Publisher

func (f Fanout) Publish(ctx context.Context, ev IssueEvent) error {
	var errs []error
	for _, p := range f {
		if p == nil {
			continue
		}
		if err := p.Publish(ctx, ev); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
