package contact

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/ulyban/contactbook/internal/contact/entity"
	"github.com/ulyban/contactbook/pkg/utilities"
)

// Repository is the data-access contract the service depends on.
// *repo.ContactRepo is the Postgres implementation.
type Repository interface {
	Create(ctx context.Context, c *entity.Contact) error
	GetByID(ctx context.Context, id, userID string) (*entity.Contact, error)
	ListByUser(ctx context.Context, userID string) ([]*entity.Contact, error)
	Update(ctx context.Context, c *entity.Contact) (int64, error)
	Delete(ctx context.Context, id, userID string) (int64, error)
}

var ErrNotFound = errors.New("contact not found")

// Service encapsulates contact CRUD, always scoped to the owning user.
type Service struct {
	repo Repository
}

func NewService(r Repository) *Service {
	return &Service{repo: r}
}

func (s *Service) Create(ctx context.Context, userID, name, email, phone string) (*entity.Contact, error) {
	now := time.Now().UTC()
	c := &entity.Contact{
		ID:        utilities.NewKSUID(),
		UserID:    userID,
		Name:      strings.TrimSpace(name),
		Email:     strings.TrimSpace(email),
		Phone:     strings.TrimSpace(phone),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.repo.Create(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *Service) Get(ctx context.Context, userID, id string) (*entity.Contact, error) {
	c, err := s.repo.GetByID(ctx, id, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return c, nil
}

func (s *Service) List(ctx context.Context, userID string) ([]*entity.Contact, error) {
	return s.repo.ListByUser(ctx, userID)
}

// UpdateInput carries the optional fields of a partial update; nil leaves the
// stored value unchanged.
type UpdateInput struct {
	Name  *string `json:"name"`
	Email *string `json:"email"`
	Phone *string `json:"phone"`
}

func (s *Service) Update(ctx context.Context, userID, id string, in UpdateInput) (*entity.Contact, error) {
	c, err := s.Get(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if in.Name != nil {
		c.Name = strings.TrimSpace(*in.Name)
	}
	if in.Email != nil {
		c.Email = strings.TrimSpace(*in.Email)
	}
	if in.Phone != nil {
		c.Phone = strings.TrimSpace(*in.Phone)
	}
	c.UpdatedAt = time.Now().UTC()
	rows, err := s.repo.Update(ctx, c)
	if err != nil {
		return nil, err
	}
	if rows == 0 {
		return nil, ErrNotFound
	}
	return c, nil
}

func (s *Service) Delete(ctx context.Context, userID, id string) error {
	rows, err := s.repo.Delete(ctx, id, userID)
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}
