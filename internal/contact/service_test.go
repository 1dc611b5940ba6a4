package contact

import (
	"context"
	"database/sql"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ulyban/contactbook/internal/contact/entity"
)

type memRepo struct {
	mu       sync.Mutex
	contacts map[string]*entity.Contact
}

func newMemRepo() *memRepo { return &memRepo{contacts: map[string]*entity.Contact{}} }

func (r *memRepo) Create(ctx context.Context, c *entity.Contact) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *c
	r.contacts[c.ID] = &cp
	return nil
}

func (r *memRepo) GetByID(ctx context.Context, id, userID string) (*entity.Contact, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.contacts[id]
	if !ok || c.UserID != userID {
		return nil, sql.ErrNoRows
	}
	cp := *c
	return &cp, nil
}

func (r *memRepo) ListByUser(ctx context.Context, userID string) ([]*entity.Contact, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*entity.Contact
	for _, c := range r.contacts {
		if c.UserID == userID {
			cp := *c
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *memRepo) Update(ctx context.Context, c *entity.Contact) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	existing, ok := r.contacts[c.ID]
	if !ok || existing.UserID != c.UserID {
		return 0, nil
	}
	cp := *c
	r.contacts[c.ID] = &cp
	return 1, nil
}

func (r *memRepo) Delete(ctx context.Context, id, userID string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.contacts[id]
	if !ok || c.UserID != userID {
		return 0, nil
	}
	delete(r.contacts, id)
	return 1, nil
}

func strptr(s string) *string { return &s }

func TestCRUD_ScopedToOwner(t *testing.T) {
	t.Parallel()
	svc := NewService(newMemRepo())
	ctx := context.Background()

	mine, err := svc.Create(ctx, "owner-1", "Bob", "bob@x.com", "123-456")
	require.NoError(t, err)
	assert.NotEmpty(t, mine.ID)
	assert.Equal(t, "owner-1", mine.UserID)

	// the owner sees it, another user does not
	got, err := svc.Get(ctx, "owner-1", mine.ID)
	require.NoError(t, err)
	assert.Equal(t, "Bob", got.Name)
	_, err = svc.Get(ctx, "owner-2", mine.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	list, err := svc.List(ctx, "owner-1")
	require.NoError(t, err)
	assert.Len(t, list, 1)
	list, err = svc.List(ctx, "owner-2")
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestUpdate_PartialFields(t *testing.T) {
	t.Parallel()
	svc := NewService(newMemRepo())
	ctx := context.Background()

	c, err := svc.Create(ctx, "owner-1", "Bob", "bob@x.com", "123-456")
	require.NoError(t, err)

	updated, err := svc.Update(ctx, "owner-1", c.ID, UpdateInput{Phone: strptr("999-000")})
	require.NoError(t, err)
	assert.Equal(t, "Bob", updated.Name)
	assert.Equal(t, "bob@x.com", updated.Email)
	assert.Equal(t, "999-000", updated.Phone)

	_, err = svc.Update(ctx, "owner-2", c.ID, UpdateInput{Name: strptr("Hijack")})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDelete(t *testing.T) {
	t.Parallel()
	svc := NewService(newMemRepo())
	ctx := context.Background()

	c, err := svc.Create(ctx, "owner-1", "Bob", "", "")
	require.NoError(t, err)

	assert.ErrorIs(t, svc.Delete(ctx, "owner-2", c.ID), ErrNotFound)
	require.NoError(t, svc.Delete(ctx, "owner-1", c.ID))
	assert.ErrorIs(t, svc.Delete(ctx, "owner-1", c.ID), ErrNotFound)
}
