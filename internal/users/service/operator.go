package service

import (
	"context"
	"strings"

	"lifeline/internal/users/models"
	"lifeline/pkg/domain"
	"lifeline/pkg/requestcontext"
)

// Operator applies privileged directory changes without consulting the
// policy gate. It backs the admin CLI and first-admin bootstrap, which run
// before any admin exists to authorize them.
type Operator struct {
	store Store
}

func NewOperator(store Store) *Operator {
	return &Operator{store: store}
}

// Promote sets email's role, registering the identity first when it does not
// exist yet.
func (o *Operator) Promote(ctx context.Context, email domain.Email, role models.Role) (*models.User, error) {
	user, err := o.ensure(ctx, email)
	if err != nil {
		return nil, err
	}
	if user.Role == role {
		return user, nil
	}
	user, err = o.store.SetRole(ctx, email, role, requestcontext.Now(ctx))
	if err != nil {
		return nil, translate(err, "failed to update role")
	}
	return user, nil
}

// SetStatus blocks or reactivates an existing identity.
func (o *Operator) SetStatus(ctx context.Context, email domain.Email, status models.Status) (*models.User, error) {
	user, err := o.store.FindByEmail(ctx, email)
	if err != nil {
		return nil, translate(err, "failed to look up user")
	}
	if user.Status == status {
		return user, nil
	}
	user, err = o.store.SetStatus(ctx, email, status, requestcontext.Now(ctx))
	if err != nil {
		return nil, translate(err, "failed to update status")
	}
	return user, nil
}

func (o *Operator) ensure(ctx context.Context, email domain.Email) (*models.User, error) {
	name, _, _ := strings.Cut(email.String(), "@")
	fresh, err := models.NewUser(email, models.Profile{Name: &name}, requestcontext.Now(ctx))
	if err != nil {
		return nil, err
	}
	user, _, err := o.store.CreateIfAbsent(ctx, fresh)
	if err != nil {
		return nil, translate(err, "failed to register user")
	}
	return user, nil
}
