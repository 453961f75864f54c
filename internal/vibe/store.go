package vibe

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/sandeepkv93/vibe/internal/auth"
	"github.com/sandeepkv93/vibe/internal/model"
	"github.com/sandeepkv93/vibe/internal/storage"
)

var ErrClosed = errors.New("vibe: store closed")

const provisionalPrefix = "tmp-"

// Repository is the part of the relational store the container uses.
type Repository interface {
	CreateTasks(ctx context.Context, userID string, titles []string) ([]storage.Task, error)
	ListTasks(ctx context.Context, userID string, filter storage.TaskListFilter) ([]storage.Task, error)
	UpdateTask(ctx context.Context, userID, id string, patch storage.TaskPatch) (storage.Task, error)
	CreateEnergyLog(ctx context.Context, userID string, level int) (storage.EnergyLog, error)
	ListEnergyLogs(ctx context.Context, userID string, limit int) ([]storage.EnergyLog, error)
}

type Option func(*Store)

func WithLogger(l *log.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.logger = l
		}
	}
}

func WithNavigator(n Navigator) Option {
	return func(s *Store) { s.nav = n }
}

// WithSerializedWrites allows at most one remote write per task id at a time.
func WithSerializedWrites() Option {
	return func(s *Store) { s.writes = newKeyedMutex() }
}

// WithChangeHook registers fn to run after the list changes outside a
// direct call, such as a reload or a resolved commit. fn must not block.
func WithChangeHook(fn func()) Option {
	return func(s *Store) { s.onChange = fn }
}

func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// Store owns the signed-in user's task list, the focus pointer and the
// session streak. Mutations apply locally first and return a Commit that
// performs the remote write and reverts on failure.
type Store struct {
	repo     Repository
	auth     auth.Provider
	nav      Navigator
	logger   *log.Logger
	onChange func()
	now      func() time.Time
	writes   *keyedMutex

	ctx    context.Context
	cancel context.CancelFunc

	mu          sync.RWMutex
	user        *auth.User
	tasks       []model.Task
	provisional map[string]bool
	activeID    string
	streak      int
	epoch       uint64
	started     bool
	closed      bool
	unsubscribe func()
}

func New(repo Repository, provider auth.Provider, opts ...Option) *Store {
	s := &Store{
		repo:        repo,
		auth:        provider,
		logger:      log.New(io.Discard, "", 0),
		now:         time.Now,
		provisional: make(map[string]bool),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start resolves the current session, loads its tasks and subscribes to
// session changes until Close.
func (s *Store) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrClosed
	}
	if s.started {
		s.mu.Unlock()
		return nil
	}
	s.started = true
	s.ctx, s.cancel = context.WithCancel(context.WithoutCancel(ctx))
	s.mu.Unlock()

	unsubscribe := s.auth.OnSessionChange(func(event auth.Event, session *auth.Session) {
		s.logger.Printf("vibe: session event %s", event)
		s.bind(s.ctx, session)
	})
	s.mu.Lock()
	s.unsubscribe = unsubscribe
	s.mu.Unlock()

	session, err := s.auth.CurrentSession(ctx)
	if err != nil {
		s.logger.Printf("vibe: resolve session: %v", err)
		session = nil
	}
	s.bind(ctx, session)
	return nil
}

// Close releases the session subscription. Safe to call more than once.
func (s *Store) Close() {
	s.mu.Lock()
	unsubscribe := s.unsubscribe
	s.unsubscribe = nil
	s.closed = true
	if s.cancel != nil {
		s.cancel()
	}
	s.mu.Unlock()
	if unsubscribe != nil {
		unsubscribe()
	}
}

// Reload replaces the list with the store's current rows for the user.
func (s *Store) Reload(ctx context.Context) Result {
	s.mu.Lock()
	if s.user == nil {
		s.mu.Unlock()
		return Result{Op: OpReload, Err: ErrUnauthenticated, Skipped: true}
	}
	s.epoch++
	epoch, userID := s.epoch, s.user.ID
	s.mu.Unlock()
	return s.fetch(ctx, epoch, userID)
}

func (s *Store) bind(ctx context.Context, session *auth.Session) Result {
	s.mu.Lock()
	s.epoch++
	epoch := s.epoch
	if session == nil {
		s.user = nil
		s.resetLocked()
		s.mu.Unlock()
		s.changed()
		return Result{Op: OpReload}
	}
	u := session.User
	if s.user == nil || s.user.ID != u.ID {
		s.resetLocked()
	}
	s.user = &u
	s.mu.Unlock()

	res := s.fetch(ctx, epoch, u.ID)
	if res.Err != nil || res.Stale {
		s.changed()
	}
	return res
}

func (s *Store) resetLocked() {
	s.tasks = nil
	s.provisional = make(map[string]bool)
	s.activeID = ""
}

// fetch applies the store's rows only if no newer reload or session change
// happened while the query ran. The rows replace every saved task as they
// are; only unsaved tasks are carried over. Edits still in flight are not
// laid back on top, their commits report Stale instead.
func (s *Store) fetch(ctx context.Context, epoch uint64, userID string) Result {
	rows, err := s.repo.ListTasks(ctx, userID, storage.TaskListFilter{})

	s.mu.Lock()
	if s.epoch != epoch || s.user == nil || s.user.ID != userID {
		s.mu.Unlock()
		return Result{Op: OpReload, Stale: true}
	}
	if err != nil {
		s.mu.Unlock()
		s.logger.Printf("vibe: fetch tasks: %v", err)
		return Result{Op: OpReload, Err: err}
	}
	fresh := make([]model.Task, 0, len(rows)+len(s.provisional))
	for _, t := range s.tasks {
		if s.provisional[t.ID] {
			fresh = append(fresh, t)
		}
	}
	for _, row := range rows {
		fresh = append(fresh, row.ToModel())
	}
	s.tasks = fresh
	s.mu.Unlock()

	s.changed()
	return Result{Op: OpReload}
}

func (s *Store) AddTask(title string) Commit {
	return s.add(OpAdd, []string{title})
}

// AddTasks prepends every non-blank title as one batch, in input order.
func (s *Store) AddTasks(titles []string) Commit {
	return s.add(OpAddBulk, titles)
}

func (s *Store) add(op Op, raw []string) Commit {
	titles := make([]string, 0, len(raw))
	for _, title := range raw {
		if trimmed := strings.TrimSpace(title); trimmed != "" {
			titles = append(titles, trimmed)
		}
	}

	s.mu.Lock()
	if s.user == nil {
		s.mu.Unlock()
		s.requireSignIn()
		return skipped(op, ErrUnauthenticated)
	}
	if len(titles) == 0 {
		s.mu.Unlock()
		return skipped(op, ErrEmptyTitle)
	}
	userID := s.user.ID
	created := s.now()
	batch := make([]model.Task, len(titles))
	ids := make([]string, len(titles))
	for i, title := range titles {
		ids[i] = provisionalPrefix + uuid.NewString()
		batch[i] = model.Task{
			ID:        ids[i],
			UserID:    userID,
			Title:     title,
			Status:    model.StatusPending,
			CreatedAt: created,
		}
		s.provisional[ids[i]] = true
	}
	s.tasks = append(batch, s.tasks...)
	s.mu.Unlock()

	return func(ctx context.Context) Result {
		rows, err := s.repo.CreateTasks(ctx, userID, titles)
		if err == nil && len(rows) != len(ids) {
			err = fmt.Errorf("vibe: store returned %d rows for %d titles", len(rows), len(ids))
		}

		s.mu.Lock()
		for _, id := range ids {
			delete(s.provisional, id)
		}
		if err != nil {
			removed := s.removeLocked(ids)
			s.mu.Unlock()
			s.logger.Printf("vibe: %s %d task(s): %v", op, len(ids), err)
			s.changed()
			return Result{Op: op, TaskIDs: ids, Err: err, Reverted: removed > 0, Stale: removed == 0}
		}
		confirmed := make([]string, len(rows))
		for i, row := range rows {
			task := row.ToModel()
			confirmed[i] = task.ID
			idx := s.indexLocked(ids[i])
			if idx < 0 {
				continue
			}
			if s.indexLocked(task.ID) >= 0 {
				s.tasks = append(s.tasks[:idx], s.tasks[idx+1:]...)
			} else {
				s.tasks[idx] = task
			}
			if s.activeID == ids[i] {
				s.activeID = task.ID
			}
		}
		s.mu.Unlock()
		s.changed()
		return Result{Op: op, TaskIDs: confirmed}
	}
}

// CompleteTask moves a pending task to completed.
func (s *Store) CompleteTask(id string) Commit {
	userID, idx, skip := s.prepare(OpComplete, id)
	if skip != nil {
		return skip
	}
	defer s.mu.Unlock()

	prior := s.tasks[idx].Status
	if !prior.CanAdvanceTo(model.StatusCompleted) {
		return skipped(OpComplete, fmt.Errorf("%w: %s -> %s", model.ErrInvalidTransition, prior, model.StatusCompleted), id)
	}
	s.tasks[idx].Status = model.StatusCompleted

	status := string(model.StatusCompleted)
	return s.commit(OpComplete, s.epoch, userID, id, storage.TaskPatch{Status: &status}, func(t *model.Task) bool {
		if t.Status != model.StatusCompleted {
			return false
		}
		t.Status = prior
		return true
	}, nil)
}

// RenameTask sets a trimmed title. Blank or unchanged titles are no-ops.
func (s *Store) RenameTask(id, title string) Commit {
	userID, idx, skip := s.prepare(OpRename, id)
	if skip != nil {
		return skip
	}
	defer s.mu.Unlock()

	next := strings.TrimSpace(title)
	if next == "" {
		return skipped(OpRename, ErrEmptyTitle, id)
	}
	prior := s.tasks[idx].Title
	if next == prior {
		return skipped(OpRename, ErrNoChange, id)
	}
	s.tasks[idx].Title = next

	return s.commit(OpRename, s.epoch, userID, id, storage.TaskPatch{Title: &next}, func(t *model.Task) bool {
		if t.Title != next {
			return false
		}
		t.Title = prior
		return true
	}, nil)
}

// AuditTask tags a completed task with energy, bumps the streak and logs
// the energy level. The log is written before the task update and is kept
// even when the update fails; only the task change is reverted.
func (s *Store) AuditTask(id string, energy model.Energy) Commit {
	if !energy.IsValid() {
		return skipped(OpAudit, fmt.Errorf("%w: %q", model.ErrInvalidEnergy, energy), id)
	}
	userID, idx, skip := s.prepare(OpAudit, id)
	if skip != nil {
		return skip
	}
	defer s.mu.Unlock()

	prior := s.tasks[idx]
	if !prior.Status.CanAdvanceTo(model.StatusAudited) {
		return skipped(OpAudit, fmt.Errorf("%w: %s -> %s", model.ErrInvalidTransition, prior.Status, model.StatusAudited), id)
	}
	s.tasks[idx].Status = model.StatusAudited
	s.tasks[idx].Energy = energy
	s.streak++

	status, tag := string(model.StatusAudited), string(energy)
	return s.commit(OpAudit, s.epoch, userID, id, storage.TaskPatch{Status: &status, Energy: &tag}, func(t *model.Task) bool {
		if t.Status != model.StatusAudited || t.Energy != energy {
			return false
		}
		t.Status = prior.Status
		t.Energy = prior.Energy
		return true
	}, func(ctx context.Context) error {
		_, err := s.repo.CreateEnergyLog(ctx, userID, energy.Level())
		return err
	})
}

// prepare checks the session and locates id. On success the store lock is
// held and the caller must release it.
func (s *Store) prepare(op Op, id string) (string, int, Commit) {
	s.mu.Lock()
	if s.user == nil {
		s.mu.Unlock()
		s.requireSignIn()
		return "", -1, skipped(op, ErrUnauthenticated, id)
	}
	idx := s.indexLocked(id)
	if idx < 0 {
		s.mu.Unlock()
		return "", -1, skipped(op, ErrTaskNotFound, id)
	}
	if s.provisional[id] {
		s.mu.Unlock()
		return "", -1, skipped(op, ErrProvisional, id)
	}
	return s.user.ID, idx, nil
}

// commit runs before, if any, then the task update. epoch is the load
// generation the local change was made against: once a reload or session
// change has replaced the list, a successful write is reported Stale
// because the list no longer shows it.
func (s *Store) commit(op Op, epoch uint64, userID, id string, patch storage.TaskPatch, revert func(*model.Task) bool, before func(context.Context) error) Commit {
	return func(ctx context.Context) Result {
		res := Result{Op: op, TaskIDs: []string{id}}
		if before != nil {
			if logErr := before(ctx); logErr != nil {
				s.logger.Printf("vibe: %s %s energy log: %v", op, id, logErr)
				res.LogErr = logErr
			}
		}

		unlock := s.lockWrite(id)
		_, err := s.repo.UpdateTask(ctx, userID, id, patch)
		unlock()

		if err == nil {
			s.mu.RLock()
			res.Stale = s.epoch != epoch
			s.mu.RUnlock()
			s.changed()
			return res
		}

		s.logger.Printf("vibe: %s %s: %v", op, id, err)
		res.Err = err
		s.mu.Lock()
		idx := -1
		if s.user != nil && s.user.ID == userID {
			idx = s.indexLocked(id)
		}
		if idx >= 0 && revert(&s.tasks[idx]) {
			res.Reverted = true
		} else {
			res.Stale = true
		}
		s.mu.Unlock()
		s.changed()
		return res
	}
}

func (s *Store) lockWrite(id string) func() {
	if s.writes == nil {
		return func() {}
	}
	return s.writes.Lock(id)
}

func (s *Store) removeLocked(ids []string) int {
	drop := make(map[string]bool, len(ids))
	for _, id := range ids {
		drop[id] = true
	}
	kept := s.tasks[:0]
	removed := 0
	for _, t := range s.tasks {
		if drop[t.ID] {
			removed++
			continue
		}
		kept = append(kept, t)
	}
	s.tasks = kept
	if drop[s.activeID] {
		s.activeID = ""
	}
	return removed
}

func (s *Store) indexLocked(id string) int {
	for i := range s.tasks {
		if s.tasks[i].ID == id {
			return i
		}
	}
	return -1
}

func (s *Store) requireSignIn() {
	s.logger.Printf("vibe: sign-in required")
	if s.nav != nil {
		s.nav.RequireSignIn()
	}
}

func (s *Store) changed() {
	if s.onChange != nil {
		s.onChange()
	}
}

// SetActiveTask points focus mode at id. An empty id clears it.
func (s *Store) SetActiveTask(id string) {
	s.mu.Lock()
	s.activeID = id
	s.mu.Unlock()
}

func (s *Store) ActiveTaskID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.activeID
}

func (s *Store) ActiveTask() (model.Task, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.activeID == "" {
		return model.Task{}, false
	}
	if idx := s.indexLocked(s.activeID); idx >= 0 {
		return s.tasks[idx], true
	}
	return model.Task{}, false
}

func (s *Store) Task(id string) (model.Task, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if idx := s.indexLocked(id); idx >= 0 {
		return s.tasks[idx], true
	}
	return model.Task{}, false
}

// IsProvisional reports whether id is still waiting for its insert.
func (s *Store) IsProvisional(id string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.provisional[id]
}

// Tasks returns a copy of the list in store order, newest first.
func (s *Store) Tasks() []model.Task {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.Task, len(s.tasks))
	copy(out, s.tasks)
	return out
}

func (s *Store) Feed() []model.Task {
	return model.FeedOrder(s.Tasks())
}

func (s *Store) AuditQueue() []model.Task {
	return model.AuditQueue(s.Tasks())
}

func (s *Store) AuditHead() (model.Task, bool) {
	return model.AuditHead(s.Tasks())
}

func (s *Store) User() *auth.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.user == nil {
		return nil
	}
	u := *s.user
	return &u
}

// Streak counts audits in this process. It is never persisted.
func (s *Store) Streak() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.streak
}

func (s *Store) Now() time.Time {
	return s.now()
}

// EnergyHistory returns up to the 100 most recent energy logs, oldest
// first. Read failures yield an empty history.
func (s *Store) EnergyHistory(ctx context.Context) []model.EnergyLog {
	u := s.User()
	if u == nil {
		return []model.EnergyLog{}
	}
	rows, err := s.repo.ListEnergyLogs(ctx, u.ID, storage.MaxEnergyLogs)
	if err != nil {
		s.logger.Printf("vibe: fetch energy history: %v", err)
		return []model.EnergyLog{}
	}
	out := make([]model.EnergyLog, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.ToModel())
	}
	model.SortOldestFirst(out)
	return out
}
