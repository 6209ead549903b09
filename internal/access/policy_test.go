package access

import (
	"testing"

	"github.com/iliyamo/civic-issue-reporter/internal/apperror"
	"github.com/iliyamo/civic-issue-reporter/internal/model"
)

var (
	alice = model.Caller{ID: "U-ALICE", Username: "alice", Role: model.RoleCitizen}
	bob   = model.Caller{ID: "U-BOB", Username: "bob", Role: model.RoleCitizen}
	carol = model.Caller{ID: "U-CAROL", Username: "carol", Role: model.RoleAdmin}
)

func aliceIssue() *model.Issue {
	return &model.Issue{ID: "I1", OwnerID: alice.ID, Status: model.StatusPending}
}

func TestDecide(t *testing.T) {
	cases := []struct {
		name   string
		caller model.Caller
		action Action
		target *model.Issue
		want   apperror.Kind // empty means allowed
	}{
		{"citizen creates", bob, CreateIssue, nil, ""},
		{"admin creates", carol, CreateIssue, nil, ""},
		{"citizen lists", alice, ListIssues, nil, ""},
		{"citizen watches", alice, WatchIssues, nil, ""},

		{"owner updates status", alice, UpdateStatus, aliceIssue(), apperror.Forbidden},
		{"other citizen updates status", bob, UpdateStatus, aliceIssue(), apperror.Forbidden},
		{"citizen updates missing issue", bob, UpdateStatus, nil, apperror.Forbidden},
		{"admin updates status", carol, UpdateStatus, aliceIssue(), ""},

		{"owner deletes", alice, DeleteIssue, aliceIssue(), ""},
		{"admin deletes", carol, DeleteIssue, aliceIssue(), ""},
		{"other citizen deletes", bob, DeleteIssue, aliceIssue(), apperror.Forbidden},
		{"citizen deletes missing", bob, DeleteIssue, nil, apperror.NotFound},
		{"owner deletes missing", alice, DeleteIssue, nil, apperror.NotFound},
		{"admin deletes missing", carol, DeleteIssue, nil, apperror.NotFound},

		{"anonymous caller", model.Caller{}, CreateIssue, nil, apperror.Forbidden},
		{"unknown role", model.Caller{ID: "U-X", Role: "owner"}, DeleteIssue, aliceIssue(), apperror.Forbidden},
		{"unknown action", carol, Action(99), aliceIssue(), apperror.Forbidden},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			d := Decide(tc.caller, tc.action, tc.target)
			if tc.want == "" {
				if !d.Allowed || d.Err() != nil {
					t.Fatalf("expected allow, got %+v", d)
				}
				return
			}
			if d.Allowed {
				t.Fatalf("expected %s, got allow", tc.want)
			}
			if got := apperror.KindOf(d.Err()); got != tc.want {
				t.Fatalf("expected %s, got %s", tc.want, got)
			}
		})
	}
}

func TestNonOwnerCitizenIsAlwaysForbidden(t *testing.T) {
	issues := []*model.Issue{
		{ID: "I1", OwnerID: alice.ID, Status: model.StatusPending},
		{ID: "I2", OwnerID: carol.ID, Status: model.StatusResolved},
		{ID: "I3", OwnerID: "U-SOMEONE", Status: model.StatusPending},
	}
	for _, is := range issues {
		for _, a := range []Action{UpdateStatus, DeleteIssue} {
			if d := Decide(bob, a, is); apperror.KindOf(d.Err()) != apperror.Forbidden {
				t.Fatalf("bob %s %s: expected forbidden, got %+v", a, is.ID, d)
			}
		}
	}
}

func TestListScope(t *testing.T) {
	if s := ListScope(carol); !s.All {
		t.Fatalf("admin scope should cover all issues: %+v", s)
	}
	s := ListScope(alice)
	if s.All || s.OwnerID != alice.ID {
		t.Fatalf("citizen scope should be own issues: %+v", s)
	}
	if !s.Visible(alice.ID) || s.Visible(bob.ID) || s.Visible("") {
		t.Fatalf("unexpected visibility for %+v", s)
	}
	if !ListScope(carol).Visible(bob.ID) {
		t.Fatalf("admin should see every owner")
	}
}

func TestNewOwnerIsCaller(t *testing.T) {
	if NewOwner(bob) != bob.ID {
		t.Fatalf("owner must be the caller")
	}
}
