package store

import (
	"context"
	"fmt"
	"time"

	"github.com/abhisek/tutorchat/ent"
	"github.com/abhisek/tutorchat/ent/user"
)

type userRepo struct {
	client *ent.Client
}

func (r *userRepo) CreateUser(ctx context.Context, username, passwordHash string) (*User, error) {
	u, err := r.client.User.Create().
		SetUsername(username).
		SetPasswordHash(passwordHash).
		SetCreatedAt(time.Now().UTC()).
		Save(ctx)
	if ent.IsConstraintError(err) {
		return nil, ErrUserExists
	}
	if err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}
	return toUser(u), nil
}

func (r *userRepo) UserByName(ctx context.Context, username string) (*User, error) {
	u, err := r.client.User.Query().
		Where(user.Username(username)).
		Only(ctx)
	if ent.IsNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query user: %w", err)
	}
	return toUser(u), nil
}

func toUser(u *ent.User) *User {
	return &User{
		ID:           int64(u.ID),
		Username:     u.Username,
		PasswordHash: u.PasswordHash,
		CreatedAt:    u.CreatedAt,
	}
}
