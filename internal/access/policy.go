// Package access holds the authorization rules for issue operations.  The
// functions here are pure: they look only at the caller and, when the action
// needs one, the target issue as already loaded from the registry.  Every
// rule lives in this file so the complete policy can be read in one place.
package access

import (
	"github.com/iliyamo/civic-issue-reporter/internal/apperror"
	"github.com/iliyamo/civic-issue-reporter/internal/model"
)

// Action names an issue operation subject to authorization.
type Action int

const (
	CreateIssue Action = iota
	ListIssues
	UpdateStatus
	DeleteIssue
	WatchIssues
)

func (a Action) String() string {
	switch a {
	case CreateIssue:
		return "create"
	case ListIssues:
		return "list"
	case UpdateStatus:
		return "update_status"
	case DeleteIssue:
		return "delete"
	case WatchIssues:
		return "watch"
	}
	return "unknown"
}

// Decision is the outcome of Decide.  Reason is nil when Allowed and an
// *apperror.Error of kind Forbidden or NotFound otherwise.
type Decision struct {
	Allowed bool
	Reason  error
}

func allow() Decision { return Decision{Allowed: true} }

func deny(k apperror.Kind, msg string) Decision {
	return Decision{Reason: apperror.E(k, msg)}
}

// Err returns nil for an allowed decision and the denial reason otherwise.
func (d Decision) Err() error {
	if d.Allowed {
		return nil
	}
	return d.Reason
}

// Decide evaluates caller's right to perform action on target.  target is
// the registry's view of the issue (nil when the id did not resolve) and is
// ignored by actions that do not address a single issue.
//
// For DeleteIssue a nil target is NotFound before ownership is considered,
// so a missing id answers the same way for every caller.  UpdateStatus is
// decided on role alone: a citizen is Forbidden whether or not the id
// exists, so the answer reveals nothing about other owners' issues.
func Decide(caller model.Caller, action Action, target *model.Issue) Decision {
	if caller.ID == "" || !caller.Role.Valid() {
		return deny(apperror.Forbidden, "Forbidden")
	}
	switch action {
	case CreateIssue, ListIssues, WatchIssues:
		return allow()
	case UpdateStatus:
		if caller.Role == model.RoleAdmin {
			return allow()
		}
		return deny(apperror.Forbidden, "Forbidden")
	case DeleteIssue:
		if target == nil {
			return deny(apperror.NotFound, "Issue not found")
		}
		if caller.Role == model.RoleAdmin || target.OwnerID == caller.ID {
			return allow()
		}
		return deny(apperror.Forbidden, "Forbidden")
	}
	return deny(apperror.Forbidden, "Forbidden")
}

// Scope describes which issues a caller may read.  All is true for admins;
// otherwise only issues whose owner is OwnerID are visible.
type Scope struct {
	All     bool
	OwnerID string
}

// ListScope returns the read scope of caller.
func ListScope(caller model.Caller) Scope {
	if caller.Role == model.RoleAdmin {
		return Scope{All: true}
	}
	return Scope{OwnerID: caller.ID}
}

// Visible reports whether an issue owned by ownerID falls inside s.
func (s Scope) Visible(ownerID string) bool {
	return s.All || (s.OwnerID != "" && s.OwnerID == ownerID)
}

// NewOwner returns the owner recorded for an issue created by caller.  Any
// owner value supplied with the request is irrelevant by construction.
func NewOwner(caller model.Caller) string { return caller.ID }
