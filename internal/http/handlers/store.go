package handlers

import (
	"context"

	"github.com/geocoder89/bankly/internal/domain/user"
	"github.com/geocoder89/bankly/internal/utils"
)

// UserStore is the credential store the handlers consume. Implemented by the
// postgres and memory repos.
type UserStore interface {
	FindByUsername(ctx context.Context, username string) (user.User, error)
	List(ctx context.Context) ([]user.User, error)
	Insert(ctx context.Context, u user.User) (user.User, error)
	UpdateFields(ctx context.Context, username string, upd utils.PartialUpdate) (user.User, error)
	Delete(ctx context.Context, username string) (bool, error)
}

type TokenIssuer interface {
	IssueFor(u user.User) (string, error)
}

type PasswordHasher interface {
	Hash(plain string) (string, error)
	Check(hash, plain string) error
}

type AuthMetrics interface {
	ObserveTokenIssued(flow string)
	ObserveLoginFailure()
}

// ListCache holds the rendered users listing between writes.
type ListCache interface {
	Get(key string) (any, bool)
	Set(key string, val any)
	Delete(key string)
}

const usersListCacheKey = "users:list"

func invalidateUsersList(c ListCache) {
	if c != nil {
		c.Delete(usersListCacheKey)
	}
}
