// Package memory implements the repository interfaces without a database.
// It backs local development when POSTGRES_DSN is empty and the service tests.
package memory

import (
	"context"
	"strings"
	"sync"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/helpdesk/it-helpdesk/internal/domain"
	"github.com/helpdesk/it-helpdesk/internal/repository"
)

type state struct {
	users          map[string]domain.User
	departments    map[int64]domain.Department
	subDepartments map[int64]domain.SubDepartment
	positions      map[int64]domain.Position
	tickets        map[int64]domain.Ticket
	comments       []domain.TicketComment
	views          []domain.TicketView
	seq            int64
}

func newState() *state {
	return &state{
		users:          make(map[string]domain.User),
		departments:    make(map[int64]domain.Department),
		subDepartments: make(map[int64]domain.SubDepartment),
		positions:      make(map[int64]domain.Position),
		tickets:        make(map[int64]domain.Ticket),
	}
}

func (s *state) nextID() int64 {
	s.seq++
	return s.seq
}

func (s *state) clone() *state {
	c := newState()
	for k, v := range s.users {
		c.users[k] = cloneUser(v)
	}
	for k, v := range s.departments {
		c.departments[k] = cloneDepartment(v)
	}
	for k, v := range s.subDepartments {
		c.subDepartments[k] = cloneSubDepartment(v)
	}
	for k, v := range s.positions {
		c.positions[k] = v
	}
	for k, v := range s.tickets {
		c.tickets[k] = cloneTicket(v)
	}
	c.comments = append([]domain.TicketComment(nil), s.comments...)
	c.views = append([]domain.TicketView(nil), s.views...)
	c.seq = s.seq
	return c
}

type locker interface {
	Lock()
	Unlock()
}

type noopLocker struct{}

func (noopLocker) Lock()   {}
func (noopLocker) Unlock() {}

// backend is what every repository in this package operates on.
type backend struct {
	mu  locker
	st  *state
	now func() time.Time
}

// Store holds all records in process memory. The zero value is not usable; call New.
type Store struct {
	mu  sync.Mutex
	st  *state
	now func() time.Time
}

// New returns an empty store.
func New() *Store {
	return &Store{st: newState(), now: func() time.Time { return time.Now().UTC() }}
}

// Repositories returns repositories that see committed state.
func (s *Store) Repositories() repository.Repositories {
	return bind(&backend{mu: &s.mu, st: s.st, now: s.now})
}

// TxManager returns a TxManager whose transactions are serialized and roll back by snapshot.
func (s *Store) TxManager() repository.TxManager {
	return s
}

// RunInTransaction holds the store lock for the duration of fn and restores
// the pre-transaction snapshot when fn fails or panics.
func (s *Store) RunInTransaction(ctx context.Context, fn func(ctx context.Context, repos repository.Repositories) error) (err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := s.st.clone()
	defer func() {
		if p := recover(); p != nil {
			*s.st = *snapshot
			panic(p)
		}
		if err != nil {
			*s.st = *snapshot
		}
	}()

	return fn(ctx, bind(&backend{mu: noopLocker{}, st: s.st, now: s.now}))
}

func bind(b *backend) repository.Repositories {
	return repository.Repositories{
		Users:          &userRepository{b},
		Departments:    &departmentRepository{b},
		SubDepartments: &subDepartmentRepository{b},
		Positions:      &positionRepository{b},
		Tickets:        &ticketRepository{b},
		Comments:       &commentRepository{b},
		Views:          &viewRepository{b},
		Reports:        &reportRepository{b},
	}
}

// foldKey is the case-insensitive identity used by the unique indexes. It lowercases
// like Postgres lower(), so "Straße" and "Strasse" stay distinct.
// Casers keep state, so each call gets its own.
func foldKey(value string) string {
	return cases.Lower(language.Und).String(value)
}

func contains(haystack, needle string) bool {
	return strings.Contains(foldKey(haystack), foldKey(needle))
}

func cloneInt64(v *int64) *int64 {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}

func cloneString(v *string) *string {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}

func cloneTime(v *time.Time) *time.Time {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}

func cloneUser(u domain.User) domain.User {
	u.DepartmentID = cloneInt64(u.DepartmentID)
	u.SubDepartmentID = cloneInt64(u.SubDepartmentID)
	u.PositionID = cloneInt64(u.PositionID)
	return u
}

func cloneDepartment(d domain.Department) domain.Department {
	d.ManagerID = cloneString(d.ManagerID)
	return d
}

func cloneSubDepartment(d domain.SubDepartment) domain.SubDepartment {
	d.ManagerID = cloneString(d.ManagerID)
	return d
}

func cloneTicket(t domain.Ticket) domain.Ticket {
	t.AssignedToID = cloneString(t.AssignedToID)
	t.UpdatedAt = cloneTime(t.UpdatedAt)
	t.ClosedAt = cloneTime(t.ClosedAt)
	t.ResolutionNotes = cloneString(t.ResolutionNotes)
	return t
}
