package repository

import (
	"context"

	"joblink/internal/domain/entity"
)

// UserRepository is the read-only view the chat core has over users owned by
// the user-management subsystem.
type UserRepository interface {
	GetByID(ctx context.Context, id string) (*entity.User, error)
}
