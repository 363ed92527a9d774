package memory

import (
	"context"
	"strings"
	"sync"

	"github.com/sngm3741/storefinder/internal/public/domain"
)

// UserRepository keeps the favorites ledger in memory.
type UserRepository struct {
	mu    sync.RWMutex
	users map[string]domain.User
}

// NewUserRepository creates an empty ledger.
func NewUserRepository() *UserRepository {
	return &UserRepository{users: make(map[string]domain.User)}
}

func (r *UserRepository) FindByID(_ context.Context, id string) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	user, ok := r.users[strings.TrimSpace(id)]
	if !ok {
		return nil, domain.ErrNotFound
	}
	user.Hearts = append([]string{}, user.Hearts...)
	return &user, nil
}

// SaveHearts replaces the hearts set, creating the user on first write.
func (r *UserRepository) SaveHearts(_ context.Context, id string, hearts []string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	id = strings.TrimSpace(id)
	user := domain.User{ID: id, Hearts: append([]string{}, hearts...)}
	r.users[id] = user

	out := user
	out.Hearts = append([]string{}, hearts...)
	return &out, nil
}
