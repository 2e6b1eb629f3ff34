package ports

import (
	"context"

	"github.com/medrecords/records-api/internal/core/domain"
)

// RegisterInput carries the fields needed to open an account.
type RegisterInput struct {
	Username string
	Email    string
	Password string
	Role     string
}

type AccountService interface {
	Register(ctx context.Context, in RegisterInput) (*domain.Account, error)
	Login(ctx context.Context, username, password string) (string, *domain.Account, error)
	Get(ctx context.Context, id string) (*domain.Account, error)
	// Delete removes the account and every prescription that references it.
	Delete(ctx context.Context, id string) error
}
