package stashbook

import (
	"context"

	"github.com/stashbook-finance/stashbook/model"
)

// CreateUser registers a new user. An id is generated when none is supplied.
func (s *Stashbook) CreateUser(_ context.Context, user model.User) (model.User, error) {
	return s.datasource.CreateUser(user)
}

// GetUser retrieves a user by id.
func (s *Stashbook) GetUser(_ context.Context, id string) (*model.User, error) {
	return s.datasource.GetUserByID(id)
}
