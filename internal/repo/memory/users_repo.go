package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/geocoder89/bankly/internal/domain/user"
	"github.com/geocoder89/bankly/internal/utils"
)

// UsersRepo is the in-process store used for local runs and HTTP tests.
type UsersRepo struct {
	mu    sync.RWMutex
	items map[string]user.User // keyed by username
	now   func() time.Time
}

func NewUsersRepo() *UsersRepo {
	return &UsersRepo{
		items: make(map[string]user.User),
		now:   func() time.Time { return time.Now().UTC() },
	}
}

func (r *UsersRepo) Ping(context.Context) error { return nil }

func (r *UsersRepo) FindByUsername(_ context.Context, username string) (user.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.items[username]
	if !ok {
		return user.User{}, user.ErrNotFound
	}
	return u, nil
}

func (r *UsersRepo) List(context.Context) ([]user.User, error) {
	r.mu.RLock()
	out := make([]user.User, 0, len(r.items))
	for _, u := range r.items {
		out = append(out, u)
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].Username < out[j].Username })
	return out, nil
}

func (r *UsersRepo) Insert(_ context.Context, u user.User) (user.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.items[u.Username]; exists {
		return user.User{}, user.ErrUsernameTaken
	}

	if u.CreatedAt.IsZero() {
		u.CreatedAt = r.now()
	}
	if u.UpdatedAt.IsZero() {
		u.UpdatedAt = u.CreatedAt
	}

	r.items[u.Username] = u
	return u, nil
}

func (r *UsersRepo) UpdateFields(_ context.Context, username string, upd utils.PartialUpdate) (user.User, error) {
	if len(upd.Columns) == 0 {
		return user.User{}, utils.ErrEmptyUpdate
	}
	if len(upd.Columns) != len(upd.Args) {
		return user.User{}, fmt.Errorf("partial update: %d columns, %d args", len(upd.Columns), len(upd.Args))
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.items[username]
	if !ok {
		return user.User{}, user.ErrNotFound
	}

	// apply to a copy so a bad column leaves the stored row alone
	next := u
	for i, col := range upd.Columns {
		if err := setColumn(&next, col, upd.Args[i]); err != nil {
			return user.User{}, err
		}
	}
	next.UpdatedAt = r.now()

	r.items[username] = next
	return next, nil
}

func (r *UsersRepo) Delete(_ context.Context, username string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.items[username]; !ok {
		return false, nil
	}
	delete(r.items, username)
	return true, nil
}

func setColumn(u *user.User, column string, value any) error {
	s, ok := value.(string)
	if !ok {
		return fmt.Errorf("column %s: expected string, got %T", column, value)
	}

	switch column {
	case "first_name":
		u.FirstName = s
	case "last_name":
		u.LastName = s
	case "email":
		u.Email = s
	case "phone":
		u.Phone = s
	default:
		return &utils.UnknownFieldError{Field: column}
	}
	return nil
}
