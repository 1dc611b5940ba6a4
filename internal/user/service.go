package user

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/ulyban/contactbook/internal/user/entity"
	userrepo "github.com/ulyban/contactbook/internal/user/repo"
	"github.com/ulyban/contactbook/pkg/utilities"
)

// PasswordHasher defines minimal hashing interface (abstract so we can swap to argon2 later).
type PasswordHasher interface {
	Hash(pw string) (string, error)
	Verify(hash, pw string) bool
}

// BcryptHasher implementation.
type BcryptHasher struct{ Cost int }

func (b BcryptHasher) Hash(pw string) (string, error) {
	cost := b.Cost
	if cost == 0 {
		cost = 10
	}
	h, err := bcrypt.GenerateFromPassword([]byte(pw), cost)
	if err != nil {
		return "", err
	}
	return string(h), nil
}

func (b BcryptHasher) Verify(hash, pw string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(pw)) == nil
}

// Repository is the data-access contract the service depends on.
// *userrepo.UserRepo is the Postgres implementation.
type Repository interface {
	Create(ctx context.Context, u *entity.User) error
	GetByEmail(ctx context.Context, email string) (*entity.User, error)
	GetByID(ctx context.Context, id string) (*entity.User, error)
	UpdatePassword(ctx context.Context, id string, hash string) (int64, error)
}

var (
	ErrEmailInUse = errors.New("email in use")
	// ErrBadCredentials is shared between "unknown email" and "wrong password"
	// so callers cannot probe which accounts exist.
	ErrBadCredentials = errors.New("invalid email or password")
	ErrNotFound       = errors.New("user not found")
)

// Service owns account creation and credential verification.
type Service struct {
	repo   Repository
	hasher PasswordHasher
}

func NewService(r Repository, hasher PasswordHasher) *Service {
	if hasher == nil {
		hasher = BcryptHasher{Cost: 10}
	}
	return &Service{repo: r, hasher: hasher}
}

// Register creates a user with a hashed password. Returns ErrEmailInUse when
// the email already has an account; the existing record is untouched.
func (s *Service) Register(ctx context.Context, name, email, password string) (*entity.User, error) {
	now := time.Now().UTC()
	u := &entity.User{
		ID:        utilities.NewKSUID(),
		Name:      strings.TrimSpace(name),
		Email:     normalizeEmail(email),
		CreatedAt: now,
		UpdatedAt: now,
	}
	hash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, err
	}
	u.PasswordHash = hash
	if err := s.repo.Create(ctx, u); err != nil {
		if errors.Is(err, userrepo.ErrDuplicateEmail) {
			return nil, ErrEmailInUse
		}
		return nil, err
	}
	return u, nil
}

// Authenticate verifies email+password and returns the account on success.
func (s *Service) Authenticate(ctx context.Context, email, password string) (*entity.User, error) {
	u, err := s.repo.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrBadCredentials
		}
		return nil, err
	}
	if !s.hasher.Verify(u.PasswordHash, password) {
		return nil, ErrBadCredentials
	}
	return u, nil
}

// GetByID resolves a user by id, mapping absence to ErrNotFound.
func (s *Service) GetByID(ctx context.Context, id string) (*entity.User, error) {
	u, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return u, nil
}

// GetByEmail resolves a user by email, mapping absence to ErrNotFound.
func (s *Service) GetByEmail(ctx context.Context, email string) (*entity.User, error) {
	u, err := s.repo.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return u, nil
}

// ReplacePassword hashes the new password and stores it.
func (s *Service) ReplacePassword(ctx context.Context, id, newPassword string) error {
	hash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return err
	}
	rows, err := s.repo.UpdatePassword(ctx, id, hash)
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
