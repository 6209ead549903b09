package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/iliyamo/civic-issue-reporter/internal/apperror"
	"github.com/iliyamo/civic-issue-reporter/internal/model"
	"github.com/iliyamo/civic-issue-reporter/internal/utils"
)

const testSecret = "service-test-secret-0123456789"

func newAuth(t *testing.T) (*AuthService, *memUsers, *utils.TokenService) {
	t.Helper()
	users := newMemUsers()
	tokens := utils.NewTokenService(testSecret)
	return NewAuthService(users, tokens, bcrypt.MinCost), users, tokens
}

func TestRegisterIssuesCitizenToken(t *testing.T) {
	svc, users, tokens := newAuth(t)
	ctx := context.Background()

	sess, err := svc.Register(ctx, RegisterInput{Username: " alice ", Email: "Alice@Example.com", Password: "wonderland"})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if sess.Role != model.RoleCitizen {
		t.Fatalf("expected citizen role, got %q", sess.Role)
	}
	sub, err := tokens.Verify(sess.Token)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	u, err := users.GetByID(ctx, sub)
	if err != nil {
		t.Fatalf("token subject not stored: %v", err)
	}
	if u.Username != "alice" || u.Email != "alice@example.com" {
		t.Fatalf("input not normalized: %+v", u)
	}
	if u.PasswordHash == "wonderland" || !utils.VerifyPassword(u.PasswordHash, "wonderland") {
		t.Fatal("password must be stored as a bcrypt hash")
	}
}

func TestRegisterDuplicateLeavesStoreUnchanged(t *testing.T) {
	svc, users, _ := newAuth(t)
	ctx := context.Background()
	if _, err := svc.Register(ctx, RegisterInput{Username: "alice", Email: "a@example.com", Password: "secret1"}); err != nil {
		t.Fatalf("Register: %v", err)
	}
	before := users.writes

	_, err := svc.Register(ctx, RegisterInput{Username: "alice", Email: "other@example.com", Password: "secret2"})
	if !apperror.Is(err, apperror.DuplicateUsername) {
		t.Fatalf("expected DuplicateUsername, got %v", err)
	}
	if users.writes != before {
		t.Fatalf("store mutated on duplicate: %d writes, want %d", users.writes, before)
	}
}

func TestRegisterValidation(t *testing.T) {
	svc, users, _ := newAuth(t)
	cases := []RegisterInput{
		{Email: "a@example.com", Password: "secret1"},
		{Username: "al", Email: "a@example.com", Password: "secret1"},
		{Username: "alice smith", Email: "a@example.com", Password: "secret1"},
		{Username: "alice", Email: "not-an-email", Password: "secret1"},
		{Username: "alice", Email: "a@example.com", Password: "short"},
		{Username: "alice", Email: "a@example.com", Password: string(make([]byte, 73))},
	}
	for i, in := range cases {
		if _, err := svc.Register(context.Background(), in); !apperror.Is(err, apperror.Validation) {
			t.Fatalf("case %d: expected ValidationError, got %v", i, err)
		}
	}
	if users.writes != 0 {
		t.Fatalf("invalid input reached the store")
	}
}

func TestLoginFailuresAreIndistinguishable(t *testing.T) {
	svc, _, _ := newAuth(t)
	ctx := context.Background()
	if _, err := svc.Register(ctx, RegisterInput{Username: "bob", Email: "b@example.com", Password: "builder1"}); err != nil {
		t.Fatalf("Register: %v", err)
	}

	sess, err := svc.Login(ctx, LoginInput{Username: "bob", Password: "builder1"})
	if err != nil || sess.Token == "" || sess.Role != model.RoleCitizen {
		t.Fatalf("Login: %+v %v", sess, err)
	}

	_, wrongPass := svc.Login(ctx, LoginInput{Username: "bob", Password: "nope-nope"})
	_, noUser := svc.Login(ctx, LoginInput{Username: "nobody", Password: "builder1"})
	for _, err := range []error{wrongPass, noUser} {
		if !apperror.Is(err, apperror.InvalidCredentials) {
			t.Fatalf("expected InvalidCredentials, got %v", err)
		}
	}
	if apperror.MessageOf(wrongPass) != apperror.MessageOf(noUser) {
		t.Fatalf("messages differ: %q vs %q", apperror.MessageOf(wrongPass), apperror.MessageOf(noUser))
	}

	if _, err := svc.Login(ctx, LoginInput{Username: "bob"}); !apperror.Is(err, apperror.Validation) {
		t.Fatalf("expected ValidationError for empty password, got %v", err)
	}
}

func TestUnknownUserPaysStoredPasswordCost(t *testing.T) {
	const cost = 5
	users := newMemUsers()
	svc := NewAuthService(users, utils.NewTokenService(testSecret), cost)
	ctx := context.Background()
	if _, err := svc.Register(ctx, RegisterInput{Username: "bob", Email: "b@example.com", Password: "builder1"}); err != nil {
		t.Fatalf("Register: %v", err)
	}
	if _, err := svc.Login(ctx, LoginInput{Username: "nobody", Password: "builder1"}); !apperror.Is(err, apperror.InvalidCredentials) {
		t.Fatalf("expected InvalidCredentials, got %v", err)
	}

	u, err := users.GetByUsername(ctx, "bob")
	if err != nil {
		t.Fatalf("GetByUsername: %v", err)
	}
	stored, err := bcrypt.Cost([]byte(u.PasswordHash))
	if err != nil {
		t.Fatalf("stored hash: %v", err)
	}
	if got := svc.decoy.Cost(); got != stored || got != cost {
		t.Fatalf("decoy cost %d, stored cost %d, configured %d", got, stored, cost)
	}
}

func TestLoginStoreFailureIsInternal(t *testing.T) {
	svc, users, _ := newAuth(t)
	users.err = errors.New("db down")
	if _, err := svc.Login(context.Background(), LoginInput{Username: "bob", Password: "x"}); apperror.KindOf(err) != apperror.Internal {
		t.Fatalf("expected internal error, got %v", err)
	}
}

func TestResolve(t *testing.T) {
	svc, users, tokens := newAuth(t)
	ctx := context.Background()
	u, err := users.Create(ctx, "carol", "c@example.com", "admin-pass", model.RoleAdmin, bcrypt.MinCost)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	tok, _ := tokens.Issue(u.ID)

	caller, err := svc.Resolve(ctx, tok.Token)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if caller.ID != u.ID || caller.Role != model.RoleAdmin || caller.Username != "carol" {
		t.Fatalf("unexpected caller %+v", caller)
	}

	if _, err := svc.Resolve(ctx, ""); !apperror.Is(err, apperror.MissingToken) {
		t.Fatalf("expected MissingToken, got %v", err)
	}
	if _, err := svc.Resolve(ctx, "not.a.token"); !apperror.Is(err, apperror.InvalidToken) {
		t.Fatalf("expected InvalidToken, got %v", err)
	}

	old := tokens.WithClock(func() time.Time { return time.Now().Add(-25 * time.Hour) })
	expired, _ := old.Issue(u.ID)
	if _, err := svc.Resolve(ctx, expired.Token); !apperror.Is(err, apperror.InvalidToken) {
		t.Fatalf("expected expired token to resolve as InvalidToken, got %v", err)
	}

	users.remove(u.ID)
	if _, err := svc.Resolve(ctx, tok.Token); !apperror.Is(err, apperror.InvalidUser) {
		t.Fatalf("expected InvalidUser after deletion, got %v", err)
	}

	users.err = errors.New("db down")
	_, err = svc.Resolve(ctx, tok.Token)
	if apperror.KindOf(err) != apperror.Internal || apperror.KindOf(err).Unauthenticated() {
		t.Fatalf("store failure must be internal, got %v", err)
	}
}

func TestCreateAdmin(t *testing.T) {
	svc, _, _ := newAuth(t)
	ctx := context.Background()
	u, err := svc.CreateAdmin(ctx, RegisterInput{Username: "carol", Email: "c@example.com", Password: "admin-pass"})
	if err != nil {
		t.Fatalf("CreateAdmin: %v", err)
	}
	if u.Role != model.RoleAdmin {
		t.Fatalf("expected admin, got %q", u.Role)
	}
	sess, err := svc.Login(ctx, LoginInput{Username: "carol", Password: "admin-pass"})
	if err != nil || sess.Role != model.RoleAdmin {
		t.Fatalf("admin login: %+v %v", sess, err)
	}
	if _, err := svc.CreateAdmin(ctx, RegisterInput{Username: "carol", Email: "c@example.com", Password: "admin-pass"}); !apperror.Is(err, apperror.DuplicateUsername) {
		t.Fatalf("expected DuplicateUsername, got %v", err)
	}
}
