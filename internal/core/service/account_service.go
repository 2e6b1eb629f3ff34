package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/medrecords/records-api/internal/core/domain"
	"github.com/medrecords/records-api/internal/core/ports"
	"github.com/medrecords/records-api/internal/pkg/metrics"
)

// AccountService implements registration, login and cascade deletion.
type AccountService struct {
	repo          ports.AccountRepository
	prescriptions ports.PrescriptionRepository
	blobs         ports.BlobStore
	jwtSecret     string
	tokenTTL      time.Duration
	log           zerolog.Logger
}

func NewAccountService(
	repo ports.AccountRepository,
	prescriptions ports.PrescriptionRepository,
	blobs ports.BlobStore,
	jwtSecret string,
	tokenTTL time.Duration,
	log zerolog.Logger,
) *AccountService {
	if tokenTTL <= 0 {
		tokenTTL = 24 * time.Hour
	}
	return &AccountService{
		repo:          repo,
		prescriptions: prescriptions,
		blobs:         blobs,
		jwtSecret:     jwtSecret,
		tokenTTL:      tokenTTL,
		log:           log,
	}
}

func (s *AccountService) Register(ctx context.Context, in ports.RegisterInput) (*domain.Account, error) {
	if in.Password == "" {
		return nil, &domain.ValidationError{Field: "password", Reason: "is required"}
	}
	// Role is checked before hashing.
	if _, err := domain.ParseRole(in.Role); err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	account, err := domain.NewAccount(uuid.NewString(), in.Username, in.Email, string(hash), in.Role, time.Now().UTC())
	if err != nil {
		return nil, err
	}

	if err := s.repo.Create(ctx, account); err != nil {
		return nil, err
	}

	metrics.AccountsRegisteredTotal.WithLabelValues(string(account.Role)).Inc()
	s.log.Info().Str("account_id", account.ID).Str("role", string(account.Role)).Msg("account registered")
	return account, nil
}

func (s *AccountService) Login(ctx context.Context, username, password string) (string, *domain.Account, error) {
	if username == "" || password == "" {
		return "", nil, domain.ErrInvalidCredentials
	}

	account, err := s.repo.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, domain.ErrAccountNotFound) {
			return "", nil, domain.ErrInvalidCredentials
		}
		return "", nil, err
	}

	if bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(password)) != nil {
		return "", nil, domain.ErrInvalidCredentials
	}

	token, err := s.generateToken(account)
	if err != nil {
		return "", nil, err
	}

	return token, account, nil
}

func (s *AccountService) Get(ctx context.Context, id string) (*domain.Account, error) {
	return s.repo.FindByID(ctx, id)
}

// Delete removes dependents first: prescriptions naming the account on either
// side, then their image blobs, then the account row. Dependents are swept
// again once the row is gone to catch prescriptions inserted concurrently.
func (s *AccountService) Delete(ctx context.Context, id string) error {
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		return err
	}

	removed, err := s.removeDependents(ctx, id)
	if err != nil {
		return fmt.Errorf("delete account: %w", err)
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete account: %w", err)
	}

	late, err := s.removeDependents(ctx, id)
	if err != nil {
		s.log.Warn().Err(err).Str("account_id", id).Msg("failed to sweep prescriptions after account delete")
	}

	metrics.AccountsDeletedTotal.Inc()
	s.log.Info().Str("account_id", id).Int64("prescriptions_removed", removed+late).Msg("account deleted")
	return nil
}

func (s *AccountService) removeDependents(ctx context.Context, id string) (int64, error) {
	dependents, err := s.prescriptions.ListByParticipant(ctx, id)
	if err != nil {
		return 0, fmt.Errorf("list prescriptions: %w", err)
	}

	removed, err := s.prescriptions.DeleteByParticipant(ctx, id)
	if err != nil {
		return 0, fmt.Errorf("delete prescriptions: %w", err)
	}

	for _, p := range dependents {
		if err := s.blobs.Delete(ctx, p.Image); err != nil {
			s.log.Warn().Err(err).Str("prescription_id", p.ID).Msg("failed to delete prescription image")
		}
	}
	return removed, nil
}

func (s *AccountService) generateToken(account *domain.Account) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub":      account.ID,
		"username": account.Username,
		"role":     string(account.Role),
		"iat":      now.Unix(),
		"exp":      now.Add(s.tokenTTL).Unix(),
	}

	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString([]byte(s.jwtSecret))
}
