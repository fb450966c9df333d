package users

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

var (
	// ErrDuplicateUser is returned when an email is already registered.
	ErrDuplicateUser = errors.New("user already exists")
	// ErrNotFound is returned when no user has the given email.
	ErrNotFound = errors.New("user not found")
)

// User is a registered account.
type User struct {
	ID           string
	Email        string
	PasswordHash string
	CreatedAt    time.Time
}

// Repository stores users keyed by email.
type Repository interface {
	FindByEmail(ctx context.Context, email string) (User, error)
	Insert(ctx context.Context, email, passwordHash string) (User, error)
	Count(ctx context.Context) (int, error)
}

// NormalizeEmail trims and lowercases an address for lookups.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// MemoryRepository is a Repository backed by a map.
type MemoryRepository struct {
	mu    sync.RWMutex
	items map[string]User
}

// NewMemoryRepository returns an empty repository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		items: make(map[string]User),
	}
}

func (r *MemoryRepository) FindByEmail(ctx context.Context, email string) (User, error) {
	if err := ctx.Err(); err != nil {
		return User{}, err
	}

	r.mu.RLock()
	u, ok := r.items[NormalizeEmail(email)]
	r.mu.RUnlock()

	if !ok {
		return User{}, ErrNotFound
	}
	return u, nil
}

// Insert adds a user. The check and the write happen under one lock so two
// concurrent registrations of the same email cannot both succeed.
func (r *MemoryRepository) Insert(ctx context.Context, email, passwordHash string) (User, error) {
	if err := ctx.Err(); err != nil {
		return User{}, err
	}

	key := NormalizeEmail(email)
	u := User{
		ID:           uuid.NewString(),
		Email:        key,
		PasswordHash: passwordHash,
		CreatedAt:    time.Now().UTC(),
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.items[key]; exists {
		return User{}, ErrDuplicateUser
	}
	r.items[key] = u
	return u, nil
}

func (r *MemoryRepository) Count(ctx context.Context) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.items), nil
}
