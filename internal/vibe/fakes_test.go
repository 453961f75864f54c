package vibe

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/sandeepkv93/vibe/internal/auth"
	"github.com/sandeepkv93/vibe/internal/storage"
)

type fakeProvider struct {
	mu        sync.Mutex
	session   *auth.Session
	listeners map[int]auth.Listener
	next      int
}

func newFakeProvider(userID string) *fakeProvider {
	p := &fakeProvider{listeners: make(map[int]auth.Listener)}
	if userID != "" {
		p.session = &auth.Session{User: auth.User{ID: userID, Email: userID + "@example.com"}}
	}
	return p
}

func (p *fakeProvider) CurrentSession(context.Context) (*auth.Session, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.session == nil {
		return nil, nil
	}
	out := *p.session
	return &out, nil
}

func (p *fakeProvider) OnSessionChange(l auth.Listener) func() {
	p.mu.Lock()
	id := p.next
	p.next++
	p.listeners[id] = l
	p.mu.Unlock()
	return func() {
		p.mu.Lock()
		delete(p.listeners, id)
		p.mu.Unlock()
	}
}

func (p *fakeProvider) SignOut(context.Context) error {
	p.emit(nil, auth.EventSignedOut)
	return nil
}

func (p *fakeProvider) signIn(userID string) {
	p.emit(&auth.Session{User: auth.User{ID: userID}}, auth.EventSignedIn)
}

func (p *fakeProvider) emit(s *auth.Session, e auth.Event) {
	p.mu.Lock()
	p.session = s
	ls := make([]auth.Listener, 0, len(p.listeners))
	for _, l := range p.listeners {
		ls = append(ls, l)
	}
	p.mu.Unlock()
	for _, l := range ls {
		l(e, s)
	}
}

func (p *fakeProvider) listenerCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.listeners)
}

// fakeRepo keeps rows per user, newest first. Hooks run before the
// operation and can block or fail it.
type fakeRepo struct {
	mu    sync.Mutex
	tasks map[string][]storage.Task
	logs  map[string][]storage.EnergyLog
	clock time.Time
	seq   int

	createHook func(titles []string) error
	updateHook func(id string, patch storage.TaskPatch) error
	listHook   func() error
	logHook    func(level int) error
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		tasks: make(map[string][]storage.Task),
		logs:  make(map[string][]storage.EnergyLog),
		clock: time.Date(2026, 2, 9, 8, 0, 0, 0, time.UTC),
	}
}

func (r *fakeRepo) tick() time.Time {
	r.clock = r.clock.Add(time.Second)
	return r.clock
}

func (r *fakeRepo) seed(userID string, titles ...string) []storage.Task {
	out, err := r.CreateTasks(context.Background(), userID, titles)
	if err != nil {
		panic(err)
	}
	return out
}

func (r *fakeRepo) CreateTasks(_ context.Context, userID string, titles []string) ([]storage.Task, error) {
	if r.createHook != nil {
		if err := r.createHook(titles); err != nil {
			return nil, err
		}
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	created := r.tick()
	batch := make([]storage.Task, len(titles))
	for i, title := range titles {
		r.seq++
		batch[i] = storage.Task{
			ID:         fmt.Sprintf("task-%d", r.seq),
			UserID:     userID,
			Title:      title,
			Status:     "pending",
			BatchIndex: i,
			CreatedAt:  created,
		}
	}
	r.tasks[userID] = append(append([]storage.Task(nil), batch...), r.tasks[userID]...)
	return batch, nil
}

func (r *fakeRepo) ListTasks(_ context.Context, userID string, _ storage.TaskListFilter) ([]storage.Task, error) {
	if r.listHook != nil {
		if err := r.listHook(); err != nil {
			return nil, err
		}
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]storage.Task(nil), r.tasks[userID]...), nil
}

func (r *fakeRepo) UpdateTask(_ context.Context, userID, id string, patch storage.TaskPatch) (storage.Task, error) {
	if r.updateHook != nil {
		if err := r.updateHook(id, patch); err != nil {
			return storage.Task{}, err
		}
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	rows := r.tasks[userID]
	for i := range rows {
		if rows[i].ID != id {
			continue
		}
		if patch.Title != nil {
			rows[i].Title = *patch.Title
		}
		if patch.Status != nil {
			rows[i].Status = *patch.Status
		}
		if patch.Energy != nil {
			rows[i].Energy = *patch.Energy
		}
		return rows[i], nil
	}
	return storage.Task{}, storage.ErrNotFound
}

func (r *fakeRepo) CreateEnergyLog(_ context.Context, userID string, level int) (storage.EnergyLog, error) {
	if r.logHook != nil {
		if err := r.logHook(level); err != nil {
			return storage.EnergyLog{}, err
		}
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	entry := storage.EnergyLog{ID: fmt.Sprintf("log-%d", r.seq), UserID: userID, Level: level, CreatedAt: r.tick()}
	r.logs[userID] = append(r.logs[userID], entry)
	return entry, nil
}

func (r *fakeRepo) ListEnergyLogs(_ context.Context, userID string, limit int) ([]storage.EnergyLog, error) {
	if r.listHook != nil {
		if err := r.listHook(); err != nil {
			return nil, err
		}
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	all := r.logs[userID]
	if len(all) > limit {
		all = all[len(all)-limit:]
	}
	return append([]storage.EnergyLog(nil), all...), nil
}

func (r *fakeRepo) row(userID, id string) (storage.Task, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, t := range r.tasks[userID] {
		if t.ID == id {
			return t, true
		}
	}
	return storage.Task{}, false
}

func (r *fakeRepo) energyLevels(userID string) []int {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]int, 0, len(r.logs[userID]))
	for _, l := range r.logs[userID] {
		out = append(out, l.Level)
	}
	return out
}

func (r *fakeRepo) count(userID string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.tasks[userID])
}

type countingNavigator struct {
	mu    sync.Mutex
	calls int
}

func (n *countingNavigator) RequireSignIn() {
	n.mu.Lock()
	n.calls++
	n.mu.Unlock()
}

func (n *countingNavigator) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.calls
}
