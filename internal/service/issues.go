package service

import (
	"context"
	"errors"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/rs/zerolog/log"

	"github.com/iliyamo/civic-issue-reporter/internal/access"
	"github.com/iliyamo/civic-issue-reporter/internal/apperror"
	"github.com/iliyamo/civic-issue-reporter/internal/blob"
	"github.com/iliyamo/civic-issue-reporter/internal/ids"
	"github.com/iliyamo/civic-issue-reporter/internal/model"
	"github.com/iliyamo/civic-issue-reporter/internal/queue"
	"github.com/iliyamo/civic-issue-reporter/internal/repository"
)

// IssueStore is the issue registry used by IssueService.
type IssueStore interface {
	Create(ctx context.Context, is *model.Issue) error
	GetByID(ctx context.Context, id string) (*model.Issue, error)
	ListAll(ctx context.Context) ([]*model.Issue, error)
	ListByOwner(ctx context.Context, ownerID string) ([]*model.Issue, error)
	UpdateStatus(ctx context.Context, id string, status model.IssueStatus) (*model.Issue, error)
	DeleteByID(ctx context.Context, id string) error
}

// eventTimeout bounds event delivery after a mutation has been stored.
const eventTimeout = 2 * time.Second

// IssueService runs issue operations for an authenticated caller.  Each
// operation asks the access policy before it touches the registry and
// emits a lifecycle event once the change is stored.
type IssueService struct {
	issues IssueStore
	photos blob.Store
	events queue.Publisher
	now    func() time.Time
}

// NewIssueService wires the registry, the photo store and the event sink.
// photos may be nil when uploads are disabled; events may be nil to drop
// events.
func NewIssueService(issues IssueStore, photos blob.Store, events queue.Publisher) *IssueService {
	if events == nil {
		events = queue.Discard{}
	}
	return &IssueService{issues: issues, photos: photos, events: events, now: time.Now}
}

// CreateInput is a new report.  Photo holds the already sniffed upload and
// is empty when none was sent.
type CreateInput struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Location    string `json:"location"`

	Photo     []byte `json:"-"`
	PhotoType string `json:"-"`
}

// Field limits follow the column widths of the issues table.
const (
	maxTitleLen       = 200
	maxDescriptionLen = 5000
	maxLocationLen    = 255
)

func (in *CreateInput) normalize() {
	in.Title = strings.TrimSpace(in.Title)
	in.Location = strings.TrimSpace(in.Location)
}

func (in CreateInput) Validate() error {
	return validation.ValidateStruct(&in,
		validation.Field(&in.Title, validation.Required, validation.Length(1, maxTitleLen)),
		validation.Field(&in.Description, validation.Length(0, maxDescriptionLen)),
		validation.Field(&in.Location, validation.Required, validation.Length(1, maxLocationLen)),
	)
}

// Create stores a Pending issue owned by caller.  Ownership comes from the
// caller alone.
func (s *IssueService) Create(ctx context.Context, caller model.Caller, in CreateInput) (*model.Issue, error) {
	if err := access.Decide(caller, access.CreateIssue, nil).Err(); err != nil {
		return nil, err
	}
	in.normalize()
	if err := in.Validate(); err != nil {
		return nil, invalid(err)
	}

	is := &model.Issue{
		ID:          ids.New(),
		Title:       in.Title,
		Description: in.Description,
		Location:    in.Location,
		Status:      model.StatusPending,
		OwnerID:     access.NewOwner(caller),
		CreatedAt:   s.now().UTC().Truncate(time.Microsecond),
	}

	if len(in.Photo) > 0 {
		if s.photos == nil {
			return nil, apperror.E(apperror.Validation, "photo uploads are disabled")
		}
		ref, err := s.photos.Put(ctx, in.Photo, in.PhotoType)
		switch {
		case errors.Is(err, blob.ErrUnsupportedType):
			return nil, apperror.Wrap(apperror.Validation, "photo must be a jpeg, png, gif or webp image", err)
		case err != nil:
			return nil, apperror.Wrap(apperror.Internal, "store photo failed", err)
		}
		is.Photo = &ref
	}

	if err := s.issues.Create(ctx, is); err != nil {
		s.dropPhoto(ctx, is.Photo)
		return nil, apperror.Wrap(apperror.Internal, "create issue failed", err)
	}
	log.Info().Str("issue_id", is.ID).Str("owner_id", is.OwnerID).Msg("issue created")
	s.emit(ctx, queue.NewIssueEvent(queue.IssueCreated, is, caller.ID))
	return is, nil
}

// List returns the issues visible to caller, newest first.  Admins see
// every issue; citizens see exactly their own.
func (s *IssueService) List(ctx context.Context, caller model.Caller) ([]*model.Issue, error) {
	if err := access.Decide(caller, access.ListIssues, nil).Err(); err != nil {
		return nil, err
	}
	scope := access.ListScope(caller)

	var (
		out []*model.Issue
		err error
	)
	if scope.All {
		out, err = s.issues.ListAll(ctx)
	} else {
		out, err = s.issues.ListByOwner(ctx, scope.OwnerID)
	}
	if err != nil {
		return nil, apperror.Wrap(apperror.Internal, "list issues failed", err)
	}
	return out, nil
}

// UpdateStatus moves issue id to the status named by raw.  The role is
// checked first, then the status value, then existence.  Setting the
// current status again succeeds and emits nothing.
func (s *IssueService) UpdateStatus(ctx context.Context, caller model.Caller, id, raw string) (*model.Issue, error) {
	if err := access.Decide(caller, access.UpdateStatus, nil).Err(); err != nil {
		return nil, err
	}
	status, ok := model.ParseStatus(raw)
	if !ok {
		return nil, apperror.E(apperror.Validation, "status must be Pending or Resolved")
	}

	prev, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if prev == nil {
		return nil, apperror.E(apperror.NotFound, "Issue not found")
	}

	updated, err := s.issues.UpdateStatus(ctx, id, status)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return nil, apperror.E(apperror.NotFound, "Issue not found")
	case err != nil:
		return nil, apperror.Wrap(apperror.Internal, "update issue failed", err)
	}

	if prev.Status != updated.Status {
		log.Info().Str("issue_id", id).Str("from", string(prev.Status)).Str("to", string(updated.Status)).Msg("issue status changed")
		ev := queue.NewIssueEvent(queue.IssueStatusChanged, updated, caller.ID)
		ev.PreviousStatus = string(prev.Status)
		s.emit(ctx, ev)
	}
	return updated, nil
}

// Delete removes issue id.  A missing issue is NotFound for every caller;
// an existing one may only be removed by its owner or an admin.  The photo
// is removed afterwards on a best-effort basis.
func (s *IssueService) Delete(ctx context.Context, caller model.Caller, id string) error {
	target, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	if err := access.Decide(caller, access.DeleteIssue, target).Err(); err != nil {
		return err
	}

	err = s.issues.DeleteByID(ctx, id)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return apperror.E(apperror.NotFound, "Issue not found")
	case err != nil:
		return apperror.Wrap(apperror.Internal, "delete issue failed", err)
	}
	s.dropPhoto(ctx, target.Photo)
	log.Info().Str("issue_id", id).Str("actor_id", caller.ID).Msg("issue deleted")
	s.emit(ctx, queue.NewIssueEvent(queue.IssueDeleted, target, caller.ID))
	return nil
}

// Watch authorizes a live feed subscription and returns its scope.
func (s *IssueService) Watch(caller model.Caller) (access.Scope, error) {
	if err := access.Decide(caller, access.WatchIssues, nil).Err(); err != nil {
		return access.Scope{}, err
	}
	return access.ListScope(caller), nil
}

// load returns the issue or nil when id does not name one.
func (s *IssueService) load(ctx context.Context, id string) (*model.Issue, error) {
	if !ids.Valid(id) {
		return nil, nil
	}
	is, err := s.issues.GetByID(ctx, id)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return nil, nil
	case err != nil:
		return nil, apperror.Wrap(apperror.Internal, "load issue failed", err)
	}
	return is, nil
}

func (s *IssueService) dropPhoto(ctx context.Context, ref *string) {
	if ref == nil || s.photos == nil {
		return
	}
	name, ok := blob.NameFromRef(*ref)
	if !ok {
		return
	}
	if err := s.photos.Delete(context.WithoutCancel(ctx), name); err != nil {
		log.Warn().Err(err).Str("photo", name).Msg("photo cleanup failed")
	}
}

// emit delivers ev without failing the operation that produced it.  The
// request may already be finishing, so delivery gets its own deadline.
func (s *IssueService) emit(ctx context.Context, ev queue.IssueEvent) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), eventTimeout)
	defer cancel()
	if err := s.events.Publish(ctx, ev); err != nil {
		log.Warn().Err(err).Str("type", ev.Type).Str("issue_id", ev.IssueID).Msg("event delivery failed")
	}
}
