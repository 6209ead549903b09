// Package service implements the account and issue operations on top of
// the repositories.  Every failure leaving this package is an
// *apperror.Error, so transports only map kinds to their own status codes.
package service

import (
	"context"
	"errors"
	"regexp"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"github.com/rs/zerolog/log"

	"github.com/iliyamo/civic-issue-reporter/internal/apperror"
	"github.com/iliyamo/civic-issue-reporter/internal/model"
	"github.com/iliyamo/civic-issue-reporter/internal/repository"
	"github.com/iliyamo/civic-issue-reporter/internal/utils"
)

// UserStore is the credential store used by AuthService.
type UserStore interface {
	Create(ctx context.Context, username, email, password string, role model.Role, cost int) (model.User, error)
	GetByUsername(ctx context.Context, username string) (model.User, error)
	GetByID(ctx context.Context, id string) (model.User, error)
	UsernameTaken(ctx context.Context, username string) (bool, error)
}

// Tokens issues and verifies access tokens.
type Tokens interface {
	Issue(userID string) (utils.AccessToken, error)
	Verify(raw string) (string, error)
}

// AuthService registers accounts, logs them in and resolves bearer tokens
// back to live identities.
type AuthService struct {
	users  UserStore
	tokens Tokens
	cost   int
	decoy  *utils.Decoy
}

func NewAuthService(users UserStore, tokens Tokens, bcryptCost int) *AuthService {
	return &AuthService{users: users, tokens: tokens, cost: bcryptCost, decoy: utils.NewDecoy(bcryptCost)}
}

// RegisterInput is the registration payload.
type RegisterInput struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

var usernamePattern = regexp.MustCompile(`^[A-Za-z0-9_.-]+$`)

// bcrypt only looks at the first 72 bytes.
const maxPasswordBytes = 72

func maxBytes(n int) validation.RuleFunc {
	return func(value interface{}) error {
		if s, _ := value.(string); len(s) > n {
			return errors.New("is too long")
		}
		return nil
	}
}

// Validate checks the payload after normalize.
func (in RegisterInput) Validate() error {
	return validation.ValidateStruct(&in,
		validation.Field(&in.Username, validation.Required, validation.Length(3, 32), validation.Match(usernamePattern)),
		validation.Field(&in.Email, validation.Required, validation.Length(3, 254), is.Email),
		validation.Field(&in.Password, validation.Required, validation.Length(6, 0), validation.By(maxBytes(maxPasswordBytes))),
	)
}

func (in *RegisterInput) normalize() {
	in.Username = strings.TrimSpace(in.Username)
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
}

// LoginInput is the login payload.
type LoginInput struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (in LoginInput) Validate() error {
	return validation.ValidateStruct(&in,
		validation.Field(&in.Username, validation.Required),
		validation.Field(&in.Password, validation.Required),
	)
}

// Session is returned by Register and Login.
type Session struct {
	Token string     `json:"token"`
	Role  model.Role `json:"role"`
}

func invalid(err error) error {
	return apperror.Wrap(apperror.Validation, err.Error(), err)
}

// Register creates a citizen account and returns a token for it.  A taken
// username fails with DuplicateUsername before anything is written.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (Session, error) {
	in.normalize()
	if err := in.Validate(); err != nil {
		return Session{}, invalid(err)
	}

	taken, err := s.users.UsernameTaken(ctx, in.Username)
	if err != nil {
		return Session{}, apperror.Wrap(apperror.Internal, "lookup user failed", err)
	}
	if taken {
		return Session{}, apperror.E(apperror.DuplicateUsername, "username already exists")
	}

	u, err := s.users.Create(ctx, in.Username, in.Email, in.Password, model.RoleCitizen, s.cost)
	if err != nil {
		// lost a race with a concurrent registration
		if errors.Is(err, repository.ErrDuplicateUsername) {
			return Session{}, apperror.E(apperror.DuplicateUsername, "username already exists")
		}
		return Session{}, apperror.Wrap(apperror.Internal, "create user failed", err)
	}
	log.Info().Str("user_id", u.ID).Str("username", u.Username).Msg("user registered")
	return s.session(u)
}

// Login checks the password of username.  An unknown username and a wrong
// password give the same InvalidCredentials error.
func (s *AuthService) Login(ctx context.Context, in LoginInput) (Session, error) {
	in.Username = strings.TrimSpace(in.Username)
	if err := in.Validate(); err != nil {
		return Session{}, invalid(err)
	}

	u, err := s.users.GetByUsername(ctx, in.Username)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		s.decoy.Check(in.Password)
		return Session{}, apperror.E(apperror.InvalidCredentials, "Invalid credentials")
	case err != nil:
		return Session{}, apperror.Wrap(apperror.Internal, "lookup user failed", err)
	}
	if !utils.VerifyPassword(u.PasswordHash, in.Password) {
		return Session{}, apperror.E(apperror.InvalidCredentials, "Invalid credentials")
	}
	return s.session(u)
}

func (s *AuthService) session(u model.User) (Session, error) {
	tok, err := s.tokens.Issue(u.ID)
	if err != nil {
		return Session{}, apperror.Wrap(apperror.Internal, "issue token failed", err)
	}
	return Session{Token: tok.Token, Role: u.Role}, nil
}

// Resolve turns a raw bearer token into the caller it names.  An empty
// token is MissingToken; a token that fails verification, expired or not,
// is InvalidToken; a subject that no longer exists is InvalidUser.  Store
// failures are Internal and never reported as an auth outcome.
func (s *AuthService) Resolve(ctx context.Context, raw string) (model.Caller, error) {
	if raw == "" {
		return model.Caller{}, apperror.E(apperror.MissingToken, "missing bearer token")
	}
	sub, err := s.tokens.Verify(raw)
	switch {
	case errors.Is(err, utils.ErrExpiredToken):
		return model.Caller{}, apperror.Wrap(apperror.InvalidToken, "token has expired", err)
	case err != nil:
		return model.Caller{}, apperror.Wrap(apperror.InvalidToken, "invalid token", err)
	}

	u, err := s.users.GetByID(ctx, sub)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return model.Caller{}, apperror.E(apperror.InvalidUser, "user no longer exists")
	case err != nil:
		return model.Caller{}, apperror.Wrap(apperror.Internal, "lookup user failed", err)
	}
	return model.CallerOf(u), nil
}

// CreateAdmin provisions an admin account out of band; there is no HTTP
// route to it.
func (s *AuthService) CreateAdmin(ctx context.Context, in RegisterInput) (model.User, error) {
	in.normalize()
	if err := in.Validate(); err != nil {
		return model.User{}, invalid(err)
	}
	u, err := s.users.Create(ctx, in.Username, in.Email, in.Password, model.RoleAdmin, s.cost)
	if err != nil {
		if errors.Is(err, repository.ErrDuplicateUsername) {
			return model.User{}, apperror.E(apperror.DuplicateUsername, "username already exists")
		}
		return model.User{}, apperror.Wrap(apperror.Internal, "create user failed", err)
	}
	return u, nil
}
