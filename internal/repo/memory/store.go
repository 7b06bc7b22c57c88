package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"taskhub/internal/domain/task"
	"taskhub/internal/domain/user"
)

// Store keeps users and tasks behind one lock so owner deletion can cascade
// the way the SQL schema does. Used by tests in place of a real pool.
type Store struct {
	mu     sync.RWMutex
	users  map[string]user.User
	emails map[string]string // email -> user id
	tasks  map[string]taskEntry
	seq    int64
}

// seq breaks ordering ties between tasks created within the clock's resolution.
type taskEntry struct {
	task.Task
	seq int64
}

func NewStore() *Store {
	return &Store{
		users:  make(map[string]user.User),
		emails: make(map[string]string),
		tasks:  make(map[string]taskEntry),
	}
}

func (s *Store) Users() *UsersRepo {
	return &UsersRepo{s: s}
}

func (s *Store) Tasks() *TasksRepo {
	return &TasksRepo{s: s}
}

// DeleteUser removes the user and every task it owns.
func (s *Store) DeleteUser(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[id]
	if !ok {
		return false
	}

	delete(s.users, id)
	delete(s.emails, u.Email)

	for taskID, entry := range s.tasks {
		if entry.OwnerID == id {
			delete(s.tasks, taskID)
		}
	}

	return true
}

type UsersRepo struct {
	s *Store
}

func (r *UsersRepo) Create(ctx context.Context, email, passwordHash, name string) (user.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, exists := r.s.emails[email]; exists {
		return user.User{}, user.ErrEmailTaken
	}

	u := user.User{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: passwordHash,
		Name:         name,
		CreatedAt:    time.Now().UTC(),
	}

	r.s.users[u.ID] = u
	r.s.emails[u.Email] = u.ID

	return u, nil
}

func (r *UsersRepo) GetByEmail(ctx context.Context, email string) (user.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	id, ok := r.s.emails[email]
	if !ok {
		return user.User{}, user.ErrNotFound
	}

	return r.s.users[id], nil
}

type TasksRepo struct {
	s *Store
}

func (r *TasksRepo) Create(ctx context.Context, t task.Task) (task.Task, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	r.s.seq++
	r.s.tasks[t.ID] = taskEntry{Task: t, seq: r.s.seq}

	return t, nil
}

func (r *TasksRepo) GetByID(ctx context.Context, id, ownerID string) (task.Task, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	entry, ok := r.s.tasks[id]
	if !ok || entry.OwnerID != ownerID {
		return task.Task{}, task.ErrNotFound
	}

	return entry.Task, nil
}

func (r *TasksRepo) ListByOwner(ctx context.Context, ownerID string, filter task.ListFilter) ([]task.Task, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	entries := make([]taskEntry, 0)

	for _, entry := range r.s.tasks {
		if entry.OwnerID != ownerID {
			continue
		}
		if filter.Status != nil && entry.Status != *filter.Status {
			continue
		}
		if filter.Priority != nil && entry.Priority != *filter.Priority {
			continue
		}
		entries = append(entries, entry)
	}

	// newest first
	sort.Slice(entries, func(i, j int) bool {
		if !entries[i].CreatedAt.Equal(entries[j].CreatedAt) {
			return entries[i].CreatedAt.After(entries[j].CreatedAt)
		}
		return entries[i].seq > entries[j].seq
	})

	output := make([]task.Task, 0, len(entries))
	for _, entry := range entries {
		output = append(output, entry.Task)
	}

	return output, nil
}

func (r *TasksRepo) Update(ctx context.Context, id, ownerID string, patch task.Patch) (task.Task, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	entry, ok := r.s.tasks[id]
	if !ok || entry.OwnerID != ownerID {
		return task.Task{}, task.ErrNotFound
	}

	t := entry.Task

	if patch.Title != nil {
		t.Title = *patch.Title
	}
	if patch.SetDescription {
		t.Description = patch.Description
	}
	if patch.Status != nil {
		t.Status = *patch.Status
	}
	if patch.Priority != nil {
		t.Priority = *patch.Priority
	}
	if patch.SetDueDate {
		t.DueDate = patch.DueDate
	}

	t.UpdatedAt = time.Now().UTC()

	entry.Task = t
	r.s.tasks[id] = entry

	return t, nil
}

func (r *TasksRepo) Delete(ctx context.Context, id, ownerID string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	entry, ok := r.s.tasks[id]
	if !ok || entry.OwnerID != ownerID {
		return task.ErrNotFound
	}

	delete(r.s.tasks, id)
	return nil
}
