package ports

import (
	"context"

	"github.com/medrecords/records-api/internal/core/domain"
)

// AccountRepository persists accounts. Implementations must enforce username and
// email uniqueness and report violations as domain.ErrAccountExists.
type AccountRepository interface {
	Create(ctx context.Context, account *domain.Account) error
	FindByID(ctx context.Context, id string) (*domain.Account, error)
	FindByUsername(ctx context.Context, username string) (*domain.Account, error)
	Delete(ctx context.Context, id string) error
}
