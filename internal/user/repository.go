package user

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"
)

var (
	ErrNotFound           = errors.New("user not found")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrEmailExists        = errors.New("email already exists")
)

type Repository interface {
	GetByID(ctx context.Context, id int) (User, error)
	GetByEmail(ctx context.Context, email string) (User, error)
	// Create stores the user together with a profile carrying role.
	Create(ctx context.Context, user User, role string) (User, error)
	Update(ctx context.Context, id int, user User) (User, error)
	// RoleOf reads the role from the profile record.
	RoleOf(ctx context.Context, id int) (string, error)
}

type InMemoryRepository struct {
	mu     sync.RWMutex
	users  []User
	roles  map[int]string
	nextID int
}

var _ Repository = (*InMemoryRepository)(nil)

func NewInMemoryRepository(seed []User) *InMemoryRepository {
	repo := &InMemoryRepository{
		users:  make([]User, 0, len(seed)),
		roles:  make(map[int]string),
		nextID: 1,
	}

	maxID := 0
	for _, user := range seed {
		repo.users = append(repo.users, user)
		repo.roles[user.ID] = RoleUser
		if user.ID > maxID {
			maxID = user.ID
		}
	}

	repo.nextID = maxID + 1
	return repo
}

// SetRole changes a profile role, e.g. to promote a seeded admin.
func (r *InMemoryRepository) SetRole(id int, role string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.roles[id] = role
}

func (r *InMemoryRepository) GetByID(_ context.Context, id int) (User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, user := range r.users {
		if user.ID == id {
			return user, nil
		}
	}

	return User{}, ErrNotFound
}

func (r *InMemoryRepository) GetByEmail(_ context.Context, email string) (User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, user := range r.users {
		if strings.EqualFold(user.Email, email) {
			return user, nil
		}
	}

	return User{}, ErrNotFound
}

func (r *InMemoryRepository) Create(_ context.Context, user User, role string) (User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, u := range r.users {
		if strings.EqualFold(u.Email, user.Email) {
			return User{}, ErrEmailExists
		}
	}
	if user.ID == 0 {
		user.ID = r.nextID
		r.nextID++
	}
	now := time.Now().UTC()
	user.CreatedAt, user.UpdatedAt = now, now

	r.users = append(r.users, user)
	r.roles[user.ID] = role
	return user, nil
}

func (r *InMemoryRepository) Update(_ context.Context, id int, userUpdate User) (User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i, user := range r.users {
		if user.ID == id {
			user.FullName = userUpdate.FullName
			user.Phone = userUpdate.Phone
			if userUpdate.Password != "" {
				user.Password = userUpdate.Password
			}
			user.UpdatedAt = time.Now().UTC()
			r.users[i] = user
			return user, nil
		}
	}

	return User{}, ErrNotFound
}

func (r *InMemoryRepository) RoleOf(_ context.Context, id int) (string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	role, ok := r.roles[id]
	if !ok {
		return "", ErrNotFound
	}
	return role, nil
}
