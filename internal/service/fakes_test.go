package service

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/iliyamo/eventos-api/internal/model"
	"github.com/iliyamo/eventos-api/internal/queue"
	"github.com/iliyamo/eventos-api/internal/repository"
	"github.com/iliyamo/eventos-api/internal/utils"
)

// memUsers is an in-memory UserStore enforcing the same unique keys as
// the users table.
type memUsers struct {
	mu     sync.Mutex
	nextID uint64
	rows   map[uint64]*model.User

	// skipPrecheck makes ExistsUsernameOrEmail always answer false so the
	// unique-key path in Create is exercised.
	skipPrecheck bool
}

func newMemUsers() *memUsers { return &memUsers{rows: map[uint64]*model.User{}} }

func (m *memUsers) ExistsUsernameOrEmail(_ context.Context, username, email string) (bool, bool, error) {
	if m.skipPrecheck {
		return false, false, nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	var u, e bool
	for _, row := range m.rows {
		u = u || row.Username == username
		e = e || row.Email == email
	}
	return u, e, nil
}

func (m *memUsers) Create(_ context.Context, u *model.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, row := range m.rows {
		if row.Username == u.Username {
			return repository.ErrDuplicateUsername
		}
		if row.Email == u.Email {
			return repository.ErrDuplicateEmail
		}
	}
	m.nextID++
	u.ID = m.nextID
	cp := *u
	m.rows[u.ID] = &cp
	return nil
}

func (m *memUsers) GetByUsername(_ context.Context, username string) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, row := range m.rows {
		if row.Username == username {
			cp := *row
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m *memUsers) ExistsByID(_ context.Context, id uint64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.rows[id]
	return ok, nil
}

func (m *memUsers) List(context.Context) ([]model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []model.User{}
	for _, row := range m.rows {
		out = append(out, *row)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *memUsers) mutate(username string, fn func(u *model.User)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, row := range m.rows {
		if row.Username == username {
			fn(row)
		}
	}
}

func (m *memUsers) remove(username string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, row := range m.rows {
		if row.Username == username {
			delete(m.rows, id)
		}
	}
}

func (m *memUsers) add(username string) uint64 {
	u := &model.User{Name: username, Username: username, Email: username + "@x.io", Role: model.RoleUser, IsActive: true}
	_ = m.Create(context.Background(), u)
	return u.ID
}

// memEvents is an in-memory EventStore.  It shares a memComments so
// Delete can cascade.
type memEvents struct {
	nextID   uint64
	rows     map[uint64]*model.Event
	comments *memComments
	lastList repository.EventFilter
}

func newMemEvents(comments *memComments) *memEvents {
	return &memEvents{rows: map[uint64]*model.Event{}, comments: comments}
}

func (m *memEvents) List(_ context.Context, f repository.EventFilter) ([]model.Event, error) {
	m.lastList = f
	var all []model.Event
	for _, e := range m.rows {
		all = append(all, *e)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID < all[j].ID })
	if f.Offset >= len(all) {
		return []model.Event{}, nil
	}
	end := f.Offset + f.Limit
	if end > len(all) {
		end = len(all)
	}
	return all[f.Offset:end], nil
}

func (m *memEvents) ListByCreator(_ context.Context, userID uint64) ([]model.Event, error) {
	out := []model.Event{}
	for _, e := range m.rows {
		if e.CreatedBy == userID {
			out = append(out, *e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *memEvents) GetByID(_ context.Context, id uint64) (*model.Event, error) {
	e, ok := m.rows[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *e
	return &cp, nil
}

func (m *memEvents) ExistsByID(_ context.Context, id uint64) (bool, error) {
	_, ok := m.rows[id]
	return ok, nil
}

func (m *memEvents) Create(_ context.Context, e *model.Event) error {
	m.nextID++
	e.ID = m.nextID
	cp := *e
	m.rows[e.ID] = &cp
	return nil
}

func (m *memEvents) Update(_ context.Context, e *model.Event) error {
	if _, ok := m.rows[e.ID]; !ok {
		return repository.ErrNotFound
	}
	cp := *e
	m.rows[e.ID] = &cp
	return nil
}

func (m *memEvents) Delete(_ context.Context, id uint64) error {
	if _, ok := m.rows[id]; !ok {
		return repository.ErrNotFound
	}
	delete(m.rows, id)
	if m.comments != nil {
		for cid, c := range m.comments.rows {
			if c.EventID == id {
				delete(m.comments.rows, cid)
			}
		}
	}
	return nil
}

type memComments struct {
	nextID uint64
	rows   map[uint64]*model.Comment
}

func newMemComments() *memComments { return &memComments{rows: map[uint64]*model.Comment{}} }

func (m *memComments) ListByEvent(_ context.Context, eventID uint64) ([]model.Comment, error) {
	out := []model.Comment{}
	for _, c := range m.rows {
		if c.EventID == eventID && !c.Deleted {
			out = append(out, *c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *memComments) GetByID(_ context.Context, id uint64) (*model.Comment, error) {
	c, ok := m.rows[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (m *memComments) Create(_ context.Context, c *model.Comment) error {
	m.nextID++
	c.ID = m.nextID
	cp := *c
	m.rows[c.ID] = &cp
	return nil
}

func (m *memComments) UpdateContent(_ context.Context, id uint64, content string, at time.Time) error {
	c, ok := m.rows[id]
	if !ok || c.Deleted {
		return repository.ErrNotFound
	}
	c.Content = content
	c.UpdatedAt = at
	return nil
}

func (m *memComments) SoftDeleteThread(_ context.Context, id uint64, at time.Time) ([]uint64, error) {
	if _, ok := m.rows[id]; !ok {
		return nil, repository.ErrNotFound
	}
	var touched []uint64
	pending := []uint64{id}
	for len(pending) > 0 {
		cur := pending[0]
		pending = pending[1:]
		m.rows[cur].Deleted = true
		m.rows[cur].UpdatedAt = at
		touched = append(touched, cur)
		for _, c := range m.rows {
			if c.ParentID != nil && *c.ParentID == cur && !c.Deleted {
				pending = append(pending, c.ID)
			}
		}
	}
	return touched, nil
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []queue.ActivityEvent
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, ev queue.ActivityEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
	return p.err
}

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, ev := range p.events {
		out = append(out, ev.Type)
	}
	return out
}

const testSecret = "test-secret-0123456789abcdef"

func newTestTokens() *utils.TokenService {
	return utils.NewTokenService(testSecret, "eventos", 15*time.Minute, 7*24*time.Hour)
}

func fixedClock(t time.Time) func() time.Time { return func() time.Time { return t } }
