package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/vladislavdragonenkov/rms/internal/domain"
)

type userRepositoryInMemory struct {
	mu      sync.RWMutex
	items   map[string]domain.User
	byEmail map[string]string
}

// NewUserRepository создаёт in-memory реализацию UserRepository.
func NewUserRepository() domain.UserRepository {
	return &userRepositoryInMemory{
		items:   make(map[string]domain.User),
		byEmail: make(map[string]string),
	}
}

func (r *userRepositoryInMemory) Create(_ context.Context, user domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	email := domain.NormalizeEmail(user.Email)
	if _, taken := r.byEmail[email]; taken {
		return domain.ErrEmailTaken
	}
	if _, exists := r.items[user.ID]; exists {
		return domain.ErrConflict
	}
	r.items[user.ID] = cloneUser(user)
	r.byEmail[email] = user.ID
	return nil
}

func (r *userRepositoryInMemory) Get(_ context.Context, id string) (domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	user, ok := r.items[id]
	if !ok {
		return domain.User{}, domain.ErrUserNotFound
	}
	return cloneUser(user), nil
}

func (r *userRepositoryInMemory) GetByEmail(_ context.Context, email string) (domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byEmail[domain.NormalizeEmail(email)]
	if !ok {
		return domain.User{}, domain.ErrUserNotFound
	}
	return cloneUser(r.items[id]), nil
}

func (r *userRepositoryInMemory) List(_ context.Context) ([]domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]domain.User, 0, len(r.items))
	for _, user := range r.items {
		result = append(result, cloneUser(user))
	}
	sort.Slice(result, func(i, j int) bool { return result[i].CreatedAt.Before(result[j].CreatedAt) })
	return result, nil
}

func (r *userRepositoryInMemory) Update(_ context.Context, user domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	current, ok := r.items[user.ID]
	if !ok {
		return domain.ErrUserNotFound
	}
	oldEmail := domain.NormalizeEmail(current.Email)
	newEmail := domain.NormalizeEmail(user.Email)
	if oldEmail != newEmail {
		if _, taken := r.byEmail[newEmail]; taken {
			return domain.ErrEmailTaken
		}
		delete(r.byEmail, oldEmail)
		r.byEmail[newEmail] = user.ID
	}
	r.items[user.ID] = cloneUser(user)
	return nil
}

func cloneUser(src domain.User) domain.User {
	dst := src
	if src.DeletedAt != nil {
		at := *src.DeletedAt
		dst.DeletedAt = &at
	}
	return dst
}

var _ domain.UserRepository = (*userRepositoryInMemory)(nil)
