package category

import (
	"Prazo-Certo/domain"
	"Prazo-Certo/entities"
	"Prazo-Certo/pkg/storage"
	"Prazo-Certo/pkg/storage/tree"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) storage.Store {
	t.Helper()
	now := time.Date(2026, time.March, 10, 12, 0, 0, 0, time.UTC)
	store := storage.NewHierarchicalStore(tree.NewMemory(), storage.WithClock(func() time.Time { return now }))
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestCategoryService(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	svc := NewCategoryService(store)

	ana, err := store.CreateUser(ctx, &entities.User{Username: "ana", Password: "x"})
	require.NoError(t, err)
	bia, err := store.CreateUser(ctx, &entities.User{Username: "bia", Password: "x"})
	require.NoError(t, err)

	created, err := svc.AddCategory(ctx, ana.ID, domain.AddCategoryRequest{Name: " Congelados ", Icon: "ac_unit", Color: "#00BCD4"})
	require.NoError(t, err)
	assert.Equal(t, "Congelados", created.Name)
	id := entities.CategoryID(created.ID)

	list, err := svc.GetCategories(ctx, ana.ID)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	list, err = svc.GetCategories(ctx, bia.ID)
	require.NoError(t, err)
	assert.Empty(t, list)

	t.Run("update keeps unset fields", func(t *testing.T) {
		color := "#000000"
		updated, err := svc.UpdateCategory(ctx, ana.ID, id, domain.UpdateCategoryRequest{Color: &color})
		require.NoError(t, err)
		assert.Equal(t, "Congelados", updated.Name)
		assert.Equal(t, "ac_unit", updated.Icon)
		assert.Equal(t, color, updated.Color)
	})

	t.Run("other users cannot touch it", func(t *testing.T) {
		name := "Meu"
		_, err := svc.UpdateCategory(ctx, bia.ID, id, domain.UpdateCategoryRequest{Name: &name})
		assert.ErrorIs(t, err, domain.ErrUnauthorizedAccess)
		assert.ErrorIs(t, svc.DeleteCategory(ctx, bia.ID, id), domain.ErrUnauthorizedAccess)
	})

	t.Run("in use", func(t *testing.T) {
		p, err := store.CreateProduct(ctx, &entities.Product{
			Name:           "Ervilha",
			ExpirationDate: time.Date(2026, time.June, 1, 0, 0, 0, 0, time.UTC),
			CategoryID:     id,
			UserID:         ana.ID,
		})
		require.NoError(t, err)
		assert.ErrorIs(t, svc.DeleteCategory(ctx, ana.ID, id), domain.ErrCategoryInUse)
		require.NoError(t, store.DeleteProduct(ctx, p.ID))
	})

	require.NoError(t, svc.DeleteCategory(ctx, ana.ID, id))
	_, err = svc.GetOwnedCategory(ctx, ana.ID, id)
	assert.ErrorIs(t, err, domain.ErrCategoryNotFound)
}
