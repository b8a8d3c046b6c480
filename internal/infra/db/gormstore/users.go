package gormstore

import (
	"context"
	"errors"

	"gorm.io/gorm"

	domainuser "travelstay/internal/domain/user"
)

type userRepo struct{ u *Unit }

func (r userRepo) ByID(ctx context.Context, id domainuser.ID) (*domainuser.User, error) {
	return r.take(r.u.conn(ctx).Where("id = ?", string(id)), "user by id")
}

func (r userRepo) ByEmail(ctx context.Context, email string) (*domainuser.User, error) {
	return r.take(r.u.conn(ctx).Where("email = ?", domainuser.NormalizeEmail(email)), "user by email")
}

func (r userRepo) take(q *gorm.DB, op string) (*domainuser.User, error) {
	var row User
	if err := q.Take(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domainuser.ErrNotFound
		}
		return nil, wrap(op, err)
	}
	return &domainuser.User{
		ID:           domainuser.ID(row.ID),
		Email:        row.Email,
		FirstName:    row.FirstName,
		LastName:     row.LastName,
		PasswordHash: row.PasswordHash,
		CreatedAt:    row.CreatedAt.UTC(),
		UpdatedAt:    row.UpdatedAt.UTC(),
	}, nil
}

func (r userRepo) Create(ctx context.Context, user *domainuser.User) error {
	if err := r.u.writable(); err != nil {
		return err
	}
	row := User{
		ID:           string(user.ID),
		Email:        user.Email,
		FirstName:    user.FirstName,
		LastName:     user.LastName,
		PasswordHash: user.PasswordHash,
		CreatedAt:    user.CreatedAt,
		UpdatedAt:    user.UpdatedAt,
	}
	if err := r.u.conn(ctx).Create(&row).Error; err != nil {
		if isUniqueViolation(err) {
			return domainuser.ErrEmailAlreadyUsed
		}
		return wrap("create user", err)
	}
	return nil
}
