package service

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/iliyamo/civic-issue-reporter/internal/blob"
	"github.com/iliyamo/civic-issue-reporter/internal/ids"
	"github.com/iliyamo/civic-issue-reporter/internal/model"
	"github.com/iliyamo/civic-issue-reporter/internal/queue"
	"github.com/iliyamo/civic-issue-reporter/internal/repository"
	"github.com/iliyamo/civic-issue-reporter/internal/utils"
)

type memUsers struct {
	mu     sync.Mutex
	byID   map[string]model.User
	err    error // returned by every call when set
	writes int
}

func newMemUsers() *memUsers { return &memUsers{byID: map[string]model.User{}} }

func (m *memUsers) Create(_ context.Context, username, email, password string, role model.Role, cost int) (model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return model.User{}, m.err
	}
	for _, u := range m.byID {
		if u.Username == username {
			return model.User{}, repository.ErrDuplicateUsername
		}
	}
	hash, err := utils.HashPassword(password, cost)
	if err != nil {
		return model.User{}, err
	}
	u := model.User{ID: ids.New(), Username: username, Email: email, PasswordHash: hash, Role: role}
	m.byID[u.ID] = u
	m.writes++
	return u, nil
}

func (m *memUsers) GetByUsername(_ context.Context, username string) (model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return model.User{}, m.err
	}
	for _, u := range m.byID {
		if u.Username == username {
			return u, nil
		}
	}
	return model.User{}, repository.ErrNotFound
}

func (m *memUsers) GetByID(_ context.Context, id string) (model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return model.User{}, m.err
	}
	u, ok := m.byID[id]
	if !ok {
		return model.User{}, repository.ErrNotFound
	}
	return u, nil
}

func (m *memUsers) UsernameTaken(ctx context.Context, username string) (bool, error) {
	_, err := m.GetByUsername(ctx, username)
	if err == repository.ErrNotFound {
		return false, nil
	}
	return err == nil, err
}

func (m *memUsers) remove(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.byID, id)
}

type memIssues struct {
	mu   sync.Mutex
	rows map[string]model.Issue
	err  error
}

func newMemIssues() *memIssues { return &memIssues{rows: map[string]model.Issue{}} }

func (m *memIssues) Create(_ context.Context, is *model.Issue) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.rows[is.ID] = *is
	return nil
}

func (m *memIssues) GetByID(_ context.Context, id string) (*model.Issue, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	is, ok := m.rows[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &is, nil
}

func (m *memIssues) list(keep func(model.Issue) bool) ([]*model.Issue, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	out := []*model.Issue{}
	for _, is := range m.rows {
		if keep(is) {
			is := is
			out = append(out, &is)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}

func (m *memIssues) ListAll(context.Context) ([]*model.Issue, error) {
	return m.list(func(model.Issue) bool { return true })
}

func (m *memIssues) ListByOwner(_ context.Context, owner string) ([]*model.Issue, error) {
	return m.list(func(is model.Issue) bool { return is.OwnerID == owner })
}

func (m *memIssues) UpdateStatus(ctx context.Context, id string, status model.IssueStatus) (*model.Issue, error) {
	m.mu.Lock()
	if m.err != nil {
		m.mu.Unlock()
		return nil, m.err
	}
	is, ok := m.rows[id]
	if ok {
		is.Status = status
		m.rows[id] = is
	}
	m.mu.Unlock()
	if !ok {
		return nil, repository.ErrNotFound
	}
	return m.GetByID(ctx, id)
}

func (m *memIssues) DeleteByID(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	if _, ok := m.rows[id]; !ok {
		return repository.ErrNotFound
	}
	delete(m.rows, id)
	return nil
}

type memPhotos struct {
	mu      sync.Mutex
	objects map[string][]byte
}

func newMemPhotos() *memPhotos { return &memPhotos{objects: map[string][]byte{}} }

func (m *memPhotos) Put(ctx context.Context, data []byte, ct string) (string, error) {
	if ct != "image/png" && ct != "image/jpeg" {
		return "", blob.ErrUnsupportedType
	}
	ref := blob.Ref(uuid.NewString() + ".png")
	m.mu.Lock()
	m.objects[ref] = data
	m.mu.Unlock()
	return ref, nil
}

func (m *memPhotos) Open(_ context.Context, name string) ([]byte, string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.objects[blob.Ref(name)]
	if !ok {
		return nil, "", blob.ErrNotFound
	}
	return d, "image/png", nil
}

func (m *memPhotos) Delete(_ context.Context, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.objects, blob.Ref(name))
	return nil
}

type events struct {
	mu  sync.Mutex
	got []queue.IssueEvent
}

func (e *events) Publish(_ context.Context, ev queue.IssueEvent) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.got = append(e.got, ev)
	return nil
}

func (e *events) types() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]string, len(e.got))
	for i, ev := range e.got {
		out[i] = ev.Type
	}
	return out
}
