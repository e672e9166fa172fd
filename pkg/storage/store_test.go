package storage

import (
	"Prazo-Certo/entities"
	"context"
	"fmt"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type storeFactory func(t *testing.T, clock Clock) Store

var adapters = map[string]storeFactory{
	"relational": func(t *testing.T, clock Clock) Store {
		return newTestRelational(t, clock)
	},
	"hierarchical": func(t *testing.T, clock Clock) Store {
		return newTestHierarchical(t, clock)
	},
}

func forEachAdapter(t *testing.T, test func(t *testing.T, s Store)) {
	for name, factory := range adapters {
		factory := factory
		t.Run(name, func(t *testing.T) {
			test(t, factory(t, fixedClock(testNow)))
		})
	}
}

func TestStore_ReadAfterWrite(t *testing.T) {
	forEachAdapter(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		f := seedUser(t, s, "ana")

		image := "https://cdn.example.com/milk.jpg"
		created, err := s.CreateProduct(ctx, &entities.Product{
			Name:           "Leite",
			Image:          &image,
			ExpirationDate: testNow.Add(36 * time.Hour),
			CategoryID:     f.category.ID,
			UserID:         f.user.ID,
			AutoReplenish:  true,
		})
		require.NoError(t, err)

		got, err := s.GetProductByID(ctx, created.ID)
		require.NoError(t, err)
		require.NotNil(t, got)

		assert.Equal(t, created.ID, got.ID)
		assert.Equal(t, "Leite", got.Name)
		require.NotNil(t, got.Image)
		assert.Equal(t, image, *got.Image)
		assert.True(t, created.ExpirationDate.Equal(got.ExpirationDate))
		assert.Equal(t, f.category.ID, got.CategoryID)
		assert.Equal(t, f.user.ID, got.UserID)
		assert.True(t, got.AutoReplenish)
		assert.False(t, got.Consumed)
		assert.False(t, got.Discarded)
		assert.False(t, got.Notified)
		require.NotNil(t, got.Category)
		assert.Equal(t, "Frutas", got.Category.Name)
		require.NotNil(t, created.Category)
		assert.Equal(t, got.Category, created.Category)

		item, err := s.CreateShoppingItem(ctx, &entities.ShoppingItem{
			Name:       "Maçã",
			UserID:     f.user.ID,
			CategoryID: &f.category.ID,
		})
		require.NoError(t, err)
		gotItem, err := s.GetShoppingItemByID(ctx, item.ID)
		require.NoError(t, err)
		require.NotNil(t, gotItem)
		require.NotNil(t, item.Category)
		require.NotNil(t, gotItem.Category)
		assert.Equal(t, gotItem.Category, item.Category)
		assert.Equal(t, "Frutas", item.Category.Name)

		bare, err := s.CreateShoppingItem(ctx, &entities.ShoppingItem{Name: "Sabão", UserID: f.user.ID})
		require.NoError(t, err)
		assert.Nil(t, bare.Category)
	})
}

func TestStore_MissingRecords(t *testing.T) {
	forEachAdapter(t, func(t *testing.T, s Store) {
		ctx := context.Background()

		product, err := s.GetProductByID(ctx, 424242)
		require.NoError(t, err)
		assert.Nil(t, product)

		user, err := s.GetUserByUsername(ctx, "nobody")
		require.NoError(t, err)
		assert.Nil(t, user)

		_, err = s.UpdateProduct(ctx, 424242, ProductPatch{Name: ptr("x")})
		assert.ErrorIs(t, err, ErrNotFound)
		assert.ErrorIs(t, s.DeleteProduct(ctx, 424242), ErrNotFound)
		assert.ErrorIs(t, s.DeleteShoppingItem(ctx, 424242), ErrNotFound)
		assert.ErrorIs(t, s.DeleteCategory(ctx, 424242), ErrNotFound)
		_, err = s.AddProductToShoppingList(ctx, 424242, 1)
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestStore_Users(t *testing.T) {
	forEachAdapter(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		f := seedUser(t, s, "ana")

		assert.Equal(t, entities.DefaultNotificationDays, f.user.Settings.Data().NotificationDays)

		_, err := s.CreateUser(ctx, &entities.User{Username: "ana", Password: "other"})
		assert.ErrorIs(t, err, ErrDuplicate)

		updated, err := s.UpdateUserSettings(ctx, f.user.ID, entities.UserSettings{
			NotificationDays: []int{2, 5},
			DefaultCategory:  &f.category.ID,
			Email:            "ana@example.com",
		})
		require.NoError(t, err)
		settings := updated.Settings.Data()
		assert.Equal(t, []int{2, 5}, settings.NotificationDays)
		require.NotNil(t, settings.DefaultCategory)
		assert.Equal(t, f.category.ID, *settings.DefaultCategory)
		assert.Equal(t, "ana@example.com", settings.Email)

		byName, err := s.GetUserByUsername(ctx, "ana")
		require.NoError(t, err)
		require.NotNil(t, byName)
		assert.Equal(t, f.user.ID, byName.ID)

		seedUser(t, s, "bruno")
		users, err := s.ListUsers(ctx)
		require.NoError(t, err)
		require.Len(t, users, 2)
		assert.Less(t, users[0].ID, users[1].ID)
	})
}

func TestStore_ExpirationSummaryScenario(t *testing.T) {
	forEachAdapter(t, func(t *testing.T, s Store) {
		f := seedUser(t, s, "ana")
		seedProduct(t, s, f, "today", 0)
		seedProduct(t, s, f, "in two days", day(2))
		seedProduct(t, s, f, "in ten days", day(10))

		summary, err := s.GetExpirationSummary(context.Background(), f.user.ID)
		require.NoError(t, err)
		assert.Equal(t, ExpirationSummary{
			ExpiringToday:       1,
			ExpiringInThreeDays: 1,
			ExpiringInSevenDays: 0,
			NonExpiring:         1,
			Expired:             0,
			Total:               3,
		}, summary)
	})
}

func TestStore_ExpirationSummaryPartition(t *testing.T) {
	forEachAdapter(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		f := seedUser(t, s, "ana")
		rng := rand.New(rand.NewSource(7))

		active := 0
		for i := 0; i < 40; i++ {
			offset := time.Duration(rng.Intn(24*24)-10*24) * time.Hour
			p := seedProduct(t, s, f, fmt.Sprintf("p%d", i), offset)
			switch i % 5 {
			case 0:
				_, err := s.MarkProductConsumed(ctx, p.ID)
				require.NoError(t, err)
			case 1:
				_, err := s.MarkProductDiscarded(ctx, p.ID)
				require.NoError(t, err)
			default:
				active++
			}
		}

		summary, err := s.GetExpirationSummary(ctx, f.user.ID)
		require.NoError(t, err)
		assert.Equal(t, active, summary.Total)
		assert.Equal(t, summary.Total,
			summary.Expired+summary.ExpiringToday+summary.ExpiringInThreeDays+summary.ExpiringInSevenDays+summary.NonExpiring)

		all, err := s.GetProductsByUserID(ctx, f.user.ID, ProductFilter{Status: StatusAll})
		require.NoError(t, err)
		assert.Equal(t, SummarizeExpirations(all, testNow), summary)
	})
}

func TestStore_DeleteExpiredProducts(t *testing.T) {
	forEachAdapter(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		ana := seedUser(t, s, "ana")
		bruno := seedUser(t, s, "bruno")

		seedProduct(t, s, ana, "old", -day(2))
		seedProduct(t, s, ana, "just expired", -time.Hour)
		consumed := seedProduct(t, s, ana, "eaten and expired", -day(1))
		_, err := s.MarkProductConsumed(ctx, consumed.ID)
		require.NoError(t, err)
		fresh := seedProduct(t, s, ana, "fresh", time.Hour)
		later := seedProduct(t, s, ana, "later", day(3))
		other := seedProduct(t, s, bruno, "someone else's", -day(2))

		removed, err := s.DeleteExpiredProducts(ctx, ana.user.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(3), removed)

		left, err := s.GetProductsByUserID(ctx, ana.user.ID, ProductFilter{Status: StatusAll})
		require.NoError(t, err)
		require.Len(t, left, 2)
		assert.Equal(t, fresh.ID, left[0].ID)
		assert.Equal(t, later.ID, left[1].ID)

		kept, err := s.GetProductByID(ctx, other.ID)
		require.NoError(t, err)
		assert.NotNil(t, kept)

		removed, err = s.DeleteAllProducts(ctx, ana.user.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(2), removed)
	})
}

func TestStore_ProductFilters(t *testing.T) {
	forEachAdapter(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		f := seedUser(t, s, "ana")
		dairy, err := s.CreateCategory(ctx, &entities.Category{Name: "Laticínios", Icon: "egg", Color: "#FFC107", UserID: f.user.ID})
		require.NoError(t, err)

		banana := seedProduct(t, s, f, "Banana", day(4))
		apple := seedProduct(t, s, f, "apple", day(1))
		expired := seedProduct(t, s, f, "Abacate", -day(1))
		cheese, err := s.CreateProduct(ctx, &entities.Product{
			Name: "Queijo 100%", ExpirationDate: testNow.Add(day(6)), CategoryID: dairy.ID, UserID: f.user.ID,
		})
		require.NoError(t, err)
		eaten := seedProduct(t, s, f, "Bolo", day(2))
		_, err = s.MarkProductConsumed(ctx, eaten.ID)
		require.NoError(t, err)

		ids := func(products []*entities.Product) []entities.ProductID {
			out := make([]entities.ProductID, 0, len(products))
			for _, p := range products {
				out = append(out, p.ID)
			}
			return out
		}

		list, err := s.GetProductsByUserID(ctx, f.user.ID, ProductFilter{})
		require.NoError(t, err)
		assert.Equal(t, []entities.ProductID{expired.ID, apple.ID, banana.ID, cheese.ID}, ids(list))

		list, err = s.GetProductsByUserID(ctx, f.user.ID, ProductFilter{ExpiringOnly: true})
		require.NoError(t, err)
		assert.Equal(t, []entities.ProductID{apple.ID, banana.ID, cheese.ID}, ids(list))

		list, err = s.GetProductsByUserID(ctx, f.user.ID, ProductFilter{ExpiredOnly: true, Status: StatusAll})
		require.NoError(t, err)
		assert.Equal(t, []entities.ProductID{expired.ID}, ids(list))

		list, err = s.GetProductsByUserID(ctx, f.user.ID, ProductFilter{Status: StatusConsumed})
		require.NoError(t, err)
		assert.Equal(t, []entities.ProductID{eaten.ID}, ids(list))

		list, err = s.GetProductsByUserID(ctx, f.user.ID, ProductFilter{CategoryID: &dairy.ID})
		require.NoError(t, err)
		assert.Equal(t, []entities.ProductID{cheese.ID}, ids(list))

		list, err = s.GetProductsByUserID(ctx, f.user.ID, ProductFilter{Search: "A"})
		require.NoError(t, err)
		assert.Equal(t, []entities.ProductID{expired.ID, apple.ID, banana.ID}, ids(list))

		list, err = s.GetProductsByUserID(ctx, f.user.ID, ProductFilter{Search: "0%"})
		require.NoError(t, err)
		assert.Equal(t, []entities.ProductID{cheese.ID}, ids(list))

		list, err = s.GetProductsByUserID(ctx, f.user.ID, ProductFilter{SortBy: SortByName, SortOrder: SortDesc})
		require.NoError(t, err)
		assert.Equal(t, []entities.ProductID{cheese.ID, banana.ID, apple.ID, expired.ID}, ids(list))

		list, err = s.GetProductsByUserID(ctx, f.user.ID, ProductFilter{Limit: 2, Offset: 1})
		require.NoError(t, err)
		assert.Equal(t, []entities.ProductID{apple.ID, banana.ID}, ids(list))

		expiring, err := s.GetExpiringProducts(ctx, f.user.ID, 5)
		require.NoError(t, err)
		assert.Equal(t, []entities.ProductID{apple.ID, banana.ID}, ids(expiring))
	})
}

func TestStore_ProductUpdates(t *testing.T) {
	forEachAdapter(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		f := seedUser(t, s, "ana")
		p := seedProduct(t, s, f, "Iogurte", day(3))

		newDate := testNow.Add(day(9))
		updated, err := s.UpdateProduct(ctx, p.ID, ProductPatch{
			Name:           ptr("Iogurte grego"),
			ExpirationDate: &newDate,
			AutoReplenish:  ptr(true),
		})
		require.NoError(t, err)
		assert.Equal(t, "Iogurte grego", updated.Name)
		assert.True(t, newDate.Equal(updated.ExpirationDate))
		assert.True(t, updated.AutoReplenish)

		consumed, err := s.MarkProductConsumed(ctx, p.ID)
		require.NoError(t, err)
		assert.True(t, consumed.Consumed)
		require.NotNil(t, consumed.ConsumedAt)
		assert.True(t, testNow.Equal(*consumed.ConsumedAt))

		discarded, err := s.MarkProductDiscarded(ctx, p.ID)
		require.NoError(t, err)
		assert.True(t, discarded.Consumed, "flags are independent")
		assert.True(t, discarded.Discarded)

		notified, err := s.MarkProductNotified(ctx, p.ID)
		require.NoError(t, err)
		assert.True(t, notified.Notified)

		stats, err := s.GetConsumptionStats(ctx, f.user.ID)
		require.NoError(t, err)
		assert.Equal(t, 1, stats.Consumed)
		assert.Equal(t, 1, stats.Discarded)
		assert.Equal(t, 1, stats.Total)
		assert.InDelta(t, 100.0, stats.WastePercentage, 0.001)
	})
}

func TestStore_Categories(t *testing.T) {
	forEachAdapter(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		f := seedUser(t, s, "ana")
		drinks, err := s.CreateCategory(ctx, &entities.Category{Name: "Bebidas", Icon: "local_bar", Color: "#03A9F4", UserID: f.user.ID})
		require.NoError(t, err)

		categories, err := s.GetCategoriesByUserID(ctx, f.user.ID)
		require.NoError(t, err)
		require.Len(t, categories, 2)
		assert.Equal(t, "Bebidas", categories[0].Name)
		assert.Equal(t, "Frutas", categories[1].Name)

		renamed, err := s.UpdateCategory(ctx, drinks.ID, CategoryPatch{Color: ptr("#000000")})
		require.NoError(t, err)
		assert.Equal(t, "Bebidas", renamed.Name)
		assert.Equal(t, "#000000", renamed.Color)

		juice, err := s.CreateProduct(ctx, &entities.Product{
			Name: "Suco", ExpirationDate: testNow.Add(day(5)), CategoryID: drinks.ID, UserID: f.user.ID,
		})
		require.NoError(t, err)
		item, err := s.CreateShoppingItem(ctx, &entities.ShoppingItem{Name: "Água", UserID: f.user.ID, CategoryID: &drinks.ID})
		require.NoError(t, err)

		assert.ErrorIs(t, s.DeleteCategory(ctx, drinks.ID), ErrCategoryInUse)

		require.NoError(t, s.DeleteProduct(ctx, juice.ID))
		require.NoError(t, s.DeleteCategory(ctx, drinks.ID))

		gone, err := s.GetCategoryByID(ctx, drinks.ID)
		require.NoError(t, err)
		assert.Nil(t, gone)

		orphan, err := s.GetShoppingItemByID(ctx, item.ID)
		require.NoError(t, err)
		require.NotNil(t, orphan)
		assert.Nil(t, orphan.CategoryID)
	})
}

func TestStore_ShoppingList(t *testing.T) {
	forEachAdapter(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		f := seedUser(t, s, "ana")
		milk := seedProduct(t, s, f, "Leite", day(1))

		bread, err := s.CreateShoppingItem(ctx, &entities.ShoppingItem{Name: "Pão", UserID: f.user.ID})
		require.NoError(t, err)

		first, err := s.AddProductToShoppingList(ctx, milk.ID, f.user.ID)
		require.NoError(t, err)
		require.NotNil(t, first.ProductID)
		assert.Equal(t, milk.ID, *first.ProductID)
		assert.Equal(t, "Leite", first.Name)
		require.NotNil(t, first.CategoryID)
		assert.Equal(t, f.category.ID, *first.CategoryID)

		again, err := s.AddProductToShoppingList(ctx, milk.ID, f.user.ID)
		require.NoError(t, err)
		assert.Equal(t, first.ID, again.ID)

		purchased, err := s.MarkShoppingItemPurchased(ctx, bread.ID, true)
		require.NoError(t, err)
		assert.True(t, purchased.Purchased)
		require.NotNil(t, purchased.PurchasedAt)

		items, err := s.GetShoppingItemsByUserID(ctx, f.user.ID)
		require.NoError(t, err)
		require.Len(t, items, 2)
		assert.Equal(t, first.ID, items[0].ID)
		assert.Equal(t, bread.ID, items[1].ID)

		reopened, err := s.MarkShoppingItemPurchased(ctx, bread.ID, false)
		require.NoError(t, err)
		assert.False(t, reopened.Purchased)
		assert.Nil(t, reopened.PurchasedAt)

		require.NoError(t, s.DeleteShoppingItem(ctx, bread.ID))
		items, err = s.GetShoppingItemsByUserID(ctx, f.user.ID)
		require.NoError(t, err)
		assert.Len(t, items, 1)
	})
}

func TestStore_ProcessAutoReplenish(t *testing.T) {
	forEachAdapter(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		f := seedUser(t, s, "ana")

		coffee, err := s.CreateProduct(ctx, &entities.Product{
			Name: "Café", ExpirationDate: testNow.Add(day(30)), CategoryID: f.category.ID, UserID: f.user.ID, AutoReplenish: true,
		})
		require.NoError(t, err)
		seedProduct(t, s, f, "Arroz", day(30))
		_, err = s.MarkProductConsumed(ctx, coffee.ID)
		require.NoError(t, err)

		n, err := s.ProcessAutoReplenish(ctx, f.user.ID)
		require.NoError(t, err)
		assert.Equal(t, 1, n)

		n, err = s.ProcessAutoReplenish(ctx, f.user.ID)
		require.NoError(t, err)
		assert.Equal(t, 0, n)

		items, err := s.GetShoppingItemsByUserID(ctx, f.user.ID)
		require.NoError(t, err)
		require.Len(t, items, 1)
		assert.Equal(t, "Café", items[0].Name)

		got, err := s.GetProductByID(ctx, coffee.ID)
		require.NoError(t, err)
		assert.True(t, got.Notified)
	})
}
