package memory

import (
	"context"

	domainuser "travelstay/internal/domain/user"
)

type userRepo struct{ u *Unit }

func (r userRepo) ByID(_ context.Context, id domainuser.ID) (*domainuser.User, error) {
	user, ok := r.u.st.users[id]
	if !ok {
		return nil, domainuser.ErrNotFound
	}
	c := *user
	return &c, nil
}

func (r userRepo) ByEmail(_ context.Context, email string) (*domainuser.User, error) {
	email = domainuser.NormalizeEmail(email)
	for _, user := range r.u.st.users {
		if user.Email == email {
			c := *user
			return &c, nil
		}
	}
	return nil, domainuser.ErrNotFound
}

func (r userRepo) Create(ctx context.Context, user *domainuser.User) error {
	if err := r.u.writable(); err != nil {
		return err
	}
	if _, err := r.ByEmail(ctx, user.Email); err == nil {
		return domainuser.ErrEmailAlreadyUsed
	}
	c := *user
	r.u.st.users[user.ID] = &c
	return nil
}
