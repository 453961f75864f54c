package auth

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

	"github.com/sandeepkv93/vibe/internal/storage"
)

const DefaultCodeTTL = 10 * time.Minute

// Accounts is the slice of the store the local provider needs.
type Accounts interface {
	CreateUser(ctx context.Context, in storage.User) error
	GetUser(ctx context.Context, id string) (storage.User, error)
	GetUserByEmail(ctx context.Context, email string) (storage.User, error)
	CreateAuthCode(ctx context.Context, in storage.AuthCode) error
	ConsumeAuthCode(ctx context.Context, code string, now time.Time) (storage.AuthCode, error)
}

type Option func(*LocalProvider)

func WithSessionStore(s SessionStore) Option {
	return func(p *LocalProvider) { p.sessions = s }
}

func WithPasswordManager(pm *PasswordManager) Option {
	return func(p *LocalProvider) { p.passwords = pm }
}

func WithCodeTTL(ttl time.Duration) Option {
	return func(p *LocalProvider) {
		if ttl > 0 {
			p.codeTTL = ttl
		}
	}
}

func WithLogger(l *log.Logger) Option {
	return func(p *LocalProvider) {
		if l != nil {
			p.logger = l
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(p *LocalProvider) {
		if now != nil {
			p.now = now
		}
	}
}

type subscriber struct {
	id int
	fn Listener
}

// LocalProvider authenticates against the users table and keeps one
// current session per process, optionally persisted to disk.
type LocalProvider struct {
	accounts  Accounts
	tokens    *TokenManager
	passwords *PasswordManager
	sessions  SessionStore
	codeTTL   time.Duration
	now       func() time.Time
	logger    *log.Logger

	mu        sync.RWMutex
	current   *Session
	listeners []subscriber
	nextID    int
}

func NewLocalProvider(accounts Accounts, tokens *TokenManager, opts ...Option) *LocalProvider {
	p := &LocalProvider{
		accounts:  accounts,
		tokens:    tokens,
		passwords: NewPasswordManager(),
		codeTTL:   DefaultCodeTTL,
		now:       time.Now,
		logger:    log.New(io.Discard, "", 0),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

var _ Provider = (*LocalProvider)(nil)

// Restore loads a persisted session, if any, without notifying listeners.
// A stale or unreadable token is cleared.
func (p *LocalProvider) Restore(ctx context.Context) (*Session, error) {
	if p.sessions == nil {
		return nil, nil
	}
	token, err := p.sessions.Load()
	if err != nil || token == "" {
		return nil, err
	}
	claims, err := p.tokens.Validate(token)
	if err != nil {
		p.logger.Printf("auth: discarding stored session: %v", err)
		return nil, p.sessions.Clear()
	}
	u, err := p.accounts.GetUser(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, p.sessions.Clear()
		}
		return nil, err
	}
	s := &Session{
		User:        User{ID: u.ID, Email: u.Email},
		AccessToken: token,
		ExpiresAt:   claims.ExpiresAt.Time,
	}
	p.mu.Lock()
	p.current = s
	p.mu.Unlock()
	return copySession(s), nil
}

func (p *LocalProvider) CurrentSession(_ context.Context) (*Session, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.current.Expired(p.now()) {
		return nil, nil
	}
	return copySession(p.current), nil
}

func (p *LocalProvider) OnSessionChange(l Listener) func() {
	p.mu.Lock()
	id := p.nextID
	p.nextID++
	p.listeners = append(p.listeners, subscriber{id: id, fn: l})
	p.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			p.mu.Lock()
			defer p.mu.Unlock()
			for i, sub := range p.listeners {
				if sub.id == id {
					p.listeners = append(p.listeners[:i], p.listeners[i+1:]...)
					return
				}
			}
		})
	}
}

func (p *LocalProvider) SignUp(ctx context.Context, email, password string) (*Session, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if !validEmail(email) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidEmail, email)
	}
	hash, err := p.passwords.HashPassword(password)
	if err != nil {
		return nil, err
	}
	u := storage.User{ID: uuid.NewString(), Email: email, PasswordHash: hash, CreatedAt: p.now()}
	if err := p.accounts.CreateUser(ctx, u); err != nil {
		if errors.Is(err, storage.ErrConflict) {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("create user: %w", err)
	}
	p.logger.Printf("auth: registered %s", email)
	return p.establish(User{ID: u.ID, Email: u.Email}, EventSignedIn)
}

func (p *LocalProvider) SignInWithPassword(ctx context.Context, email, password string) (*Session, error) {
	u, err := p.accounts.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if err := p.passwords.ComparePassword(u.PasswordHash, password); err != nil {
		return nil, err
	}
	return p.establish(User{ID: u.ID, Email: u.Email}, EventSignedIn)
}

// RequestCode issues a one-time sign-in code for an existing account.
func (p *LocalProvider) RequestCode(ctx context.Context, email string) (string, error) {
	u, err := p.accounts.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return "", ErrInvalidCredentials
		}
		return "", err
	}
	now := p.now()
	code := strings.ReplaceAll(uuid.NewString(), "-", "")
	if err := p.accounts.CreateAuthCode(ctx, storage.AuthCode{
		Code:      code,
		UserID:    u.ID,
		ExpiresAt: now.Add(p.codeTTL),
		CreatedAt: now,
	}); err != nil {
		return "", fmt.Errorf("create auth code: %w", err)
	}
	return code, nil
}

// ExchangeCode trades a one-time code for a session.
func (p *LocalProvider) ExchangeCode(ctx context.Context, code string) (*Session, error) {
	if strings.TrimSpace(code) == "" {
		return nil, ErrInvalidCode
	}
	ac, err := p.accounts.ConsumeAuthCode(ctx, code, p.now())
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) || errors.Is(err, storage.ErrExpired) {
			return nil, ErrInvalidCode
		}
		return nil, err
	}
	u, err := p.accounts.GetUser(ctx, ac.UserID)
	if err != nil {
		return nil, fmt.Errorf("load code owner: %w", err)
	}
	return p.establish(User{ID: u.ID, Email: u.Email}, EventSignedIn)
}

// Refresh reissues the current session's token.
func (p *LocalProvider) Refresh(ctx context.Context) (*Session, error) {
	current, _ := p.CurrentSession(ctx)
	if current == nil {
		return nil, ErrNoSession
	}
	return p.establish(current.User, EventTokenRefreshed)
}

func (p *LocalProvider) SignOut(_ context.Context) error {
	p.mu.Lock()
	had := p.current != nil
	p.current = nil
	p.mu.Unlock()

	if p.sessions != nil {
		if err := p.sessions.Clear(); err != nil {
			p.logger.Printf("auth: clear stored session: %v", err)
		}
	}
	if had {
		p.emit(EventSignedOut, nil)
	}
	return nil
}

func (p *LocalProvider) establish(u User, event Event) (*Session, error) {
	token, expires, err := p.tokens.Issue(u)
	if err != nil {
		return nil, err
	}
	s := &Session{User: u, AccessToken: token, ExpiresAt: expires}
	if p.sessions != nil {
		if err := p.sessions.Save(token); err != nil {
			p.logger.Printf("auth: persist session: %v", err)
		}
	}
	p.mu.Lock()
	p.current = s
	p.mu.Unlock()
	p.emit(event, s)
	return copySession(s), nil
}

// emit calls listeners in registration order on the caller's goroutine.
func (p *LocalProvider) emit(event Event, s *Session) {
	p.mu.RLock()
	subs := make([]subscriber, len(p.listeners))
	copy(subs, p.listeners)
	p.mu.RUnlock()
	for _, sub := range subs {
		sub.fn(event, copySession(s))
	}
}

func copySession(s *Session) *Session {
	if s == nil {
		return nil
	}
	out := *s
	return &out
}

func validEmail(email string) bool {
	at := strings.Index(email, "@")
	return at > 0 && at < len(email)-1 && !strings.ContainsAny(email, " \t")
}
