package identity

import (
	"context"

	"github.com/google/uuid"
)

// Repository provides doctor account persistence.
type Repository interface {
	Create(ctx context.Context, d *Doctor) error
	GetByID(ctx context.Context, id uuid.UUID) (*Doctor, error)
	GetByEmail(ctx context.Context, email string) (*Doctor, error)
	Update(ctx context.Context, d *Doctor) error
	UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) error
	UpdatePreferences(ctx context.Context, id uuid.UUID, prefs Preferences) error
	Delete(ctx context.Context, id uuid.UUID) error
}
