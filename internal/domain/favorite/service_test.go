package favorite

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Mohamed-Elfar/piano/internal/domain/catalog"
)

// --- Mock implementations ---

type mockFavoriteRepo struct {
	favorited map[int64]bool
	nextID    int64
	deleted   int64
	err       error
}

func (m *mockFavoriteRepo) ListByUser(_ context.Context, _ int64) ([]Favorite, error) {
	return nil, m.err
}

func (m *mockFavoriteRepo) Toggle(_ context.Context, userID, productID int64) (*Favorite, bool, error) {
	if m.err != nil {
		return nil, false, m.err
	}
	if m.favorited[productID] {
		delete(m.favorited, productID)
		return nil, false, nil
	}
	if m.favorited == nil {
		m.favorited = make(map[int64]bool)
	}
	m.favorited[productID] = true
	m.nextID++
	return &Favorite{ID: m.nextID, UserID: userID, ProductID: productID}, true, nil
}

func (m *mockFavoriteRepo) Delete(_ context.Context, _, favoriteID int64) error {
	if m.err != nil {
		return m.err
	}
	m.deleted = favoriteID
	return nil
}

func (m *mockFavoriteRepo) IsFavorited(_ context.Context, _, productID int64) (bool, error) {
	return m.favorited[productID], m.err
}

type mockProductRepo struct {
	byID map[int64]*catalog.Product
}

func (m *mockProductRepo) List(_ context.Context, _ catalog.ListParams) ([]catalog.Product, error) {
	return nil, nil
}

func (m *mockProductRepo) GetByID(_ context.Context, id int64) (*catalog.Product, error) {
	p, ok := m.byID[id]
	if !ok {
		return nil, catalog.ErrNotFound
	}
	return p, nil
}

func (m *mockProductRepo) GetActiveByIDs(_ context.Context, _ []int64) ([]catalog.Product, error) {
	return nil, nil
}

func (m *mockProductRepo) Suggest(_ context.Context, _ string, _ int) ([]string, error) {
	return nil, nil
}

// --- Tests ---

func TestToggle_UnknownProduct(t *testing.T) {
	svc := NewService(&mockFavoriteRepo{}, &mockProductRepo{})

	_, err := svc.Toggle(context.Background(), 42, 99)
	require.ErrorIs(t, err, catalog.ErrNotFound)
}

func TestToggle_AddsThenRemoves(t *testing.T) {
	products := &mockProductRepo{byID: map[int64]*catalog.Product{
		7: {ID: 7, Name: "Oak Table", OriginalPrice: decimal.RequireFromString("100.00")},
	}}
	svc := NewService(&mockFavoriteRepo{}, products)

	added, err := svc.Toggle(context.Background(), 42, 7)
	require.NoError(t, err)
	assert.True(t, added.Favorited)
	require.NotNil(t, added.Favorite)
	assert.Equal(t, int64(7), added.Favorite.ProductID)
	require.NotNil(t, added.Favorite.Product, "fresh favorite carries the product")
	assert.Equal(t, "Oak Table", added.Favorite.Product.Name)

	removed, err := svc.Toggle(context.Background(), 42, 7)
	require.NoError(t, err)
	assert.False(t, removed.Favorited)
	assert.Nil(t, removed.Favorite)
}

func TestToggle_InactiveProductStillToggles(t *testing.T) {
	products := &mockProductRepo{byID: map[int64]*catalog.Product{
		7: {ID: 7, Name: "Retired Lamp", IsActive: false},
	}}
	svc := NewService(&mockFavoriteRepo{}, products)

	res, err := svc.Toggle(context.Background(), 42, 7)
	require.NoError(t, err)
	assert.True(t, res.Favorited)
}

func TestRemove_Delegates(t *testing.T) {
	repo := &mockFavoriteRepo{}
	svc := NewService(repo, &mockProductRepo{})

	require.NoError(t, svc.Remove(context.Background(), 42, 5))
	assert.Equal(t, int64(5), repo.deleted)
}

func TestRemove_UnknownFavorite(t *testing.T) {
	repo := &mockFavoriteRepo{err: ErrNotFound}
	svc := NewService(repo, &mockProductRepo{})

	err := svc.Remove(context.Background(), 42, 5)
	require.ErrorIs(t, err, ErrNotFound)
}
