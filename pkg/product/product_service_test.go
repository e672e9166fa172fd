package product

import (
	"Prazo-Certo/domain"
	"Prazo-Certo/entities"
	filestorage "Prazo-Certo/internal/utils/storage"
	"Prazo-Certo/pkg/category"
	"Prazo-Certo/pkg/storage"
	"Prazo-Certo/pkg/storage/tree"
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"mime/multipart"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2026, time.March, 10, 12, 0, 0, 0, time.UTC)

type fixture struct {
	svc      ProductService
	store    storage.Store
	user     *entities.User
	other    *entities.User
	category *entities.Category
	images   *filestorage.LocalStorage
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	ctx := context.Background()
	clock := func() time.Time { return testNow }
	store := storage.NewHierarchicalStore(tree.NewMemory(), storage.WithClock(clock))
	t.Cleanup(func() { _ = store.Close() })

	images, err := filestorage.NewLocalStorage(t.TempDir(), "http://localhost:8080")
	require.NoError(t, err)

	user, err := store.CreateUser(ctx, &entities.User{Username: "ana", Password: "hash"})
	require.NoError(t, err)
	other, err := store.CreateUser(ctx, &entities.User{Username: "bia", Password: "hash"})
	require.NoError(t, err)
	c, err := store.CreateCategory(ctx, &entities.Category{Name: "Laticínios", Icon: "egg", Color: "#FFC107", UserID: user.ID})
	require.NoError(t, err)

	svc := NewProductService(store, category.NewCategoryService(store), images, Config{
		Location:      time.UTC,
		MaxImageWidth: 32,
		Clock:         clock,
	})
	return fixture{svc: svc, store: store, user: user, other: other, category: c, images: images}
}

func (f fixture) add(t *testing.T, name, date string, autoReplenish bool) domain.ProductResponse {
	t.Helper()
	categoryID := int64(f.category.ID)
	res, err := f.svc.AddProduct(context.Background(), f.user.ID, domain.AddProductRequest{
		Name:           name,
		ExpirationDate: date,
		CategoryID:     &categoryID,
		AutoReplenish:  autoReplenish,
	})
	require.NoError(t, err)
	return res
}

func TestParseExpirationDate(t *testing.T) {
	brt := time.FixedZone("BRT", -3*60*60)

	d, err := ParseExpirationDate("2026-03-12", brt)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, time.March, 12, 0, 0, 0, 0, brt), d)

	d, err = ParseExpirationDate("2026-03-12T15:04:05Z", brt)
	require.NoError(t, err)
	assert.True(t, d.Equal(time.Date(2026, time.March, 12, 15, 4, 5, 0, time.UTC)))

	_, err = ParseExpirationDate("12/03/2026", brt)
	assert.ErrorIs(t, err, domain.ErrInvalidExpiryDate)
}

func TestDaysLeft(t *testing.T) {
	now := time.Date(2026, time.March, 10, 23, 30, 0, 0, time.UTC)
	assert.Equal(t, 0, DaysLeft(time.Date(2026, time.March, 10, 0, 0, 0, 0, time.UTC), now))
	assert.Equal(t, 1, DaysLeft(time.Date(2026, time.March, 11, 0, 10, 0, 0, time.UTC), now))
	assert.Equal(t, -2, DaysLeft(time.Date(2026, time.March, 8, 18, 0, 0, 0, time.UTC), now))

	brt := time.FixedZone("BRT", -3*60*60)
	assert.Equal(t, 0, DaysLeft(time.Date(2026, time.March, 11, 1, 0, 0, 0, time.UTC), now.In(brt)),
		"01:00 UTC on the 11th is still the 10th in BRT")
}

func TestProductService_AddProduct(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	res := f.add(t, " Iogurte ", "2026-03-12", false)
	assert.Equal(t, "Iogurte", res.Name)
	assert.Equal(t, 2, res.DaysLeft)
	require.NotNil(t, res.Category)
	assert.Equal(t, "Laticínios", res.Category.Name)

	_, err := f.svc.AddProduct(ctx, f.user.ID, domain.AddProductRequest{Name: "Leite", ExpirationDate: "amanhã"})
	assert.ErrorIs(t, err, domain.ErrInvalidExpiryDate)

	_, err = f.svc.AddProduct(ctx, f.user.ID, domain.AddProductRequest{Name: "Leite", ExpirationDate: "2026-03-12"})
	assert.ErrorIs(t, err, domain.ErrCategoryNotFound, "no category and no default")

	settings := entities.DefaultUserSettings()
	settings.DefaultCategory = &f.category.ID
	_, err = f.store.UpdateUserSettings(ctx, f.user.ID, settings)
	require.NoError(t, err)
	res, err = f.svc.AddProduct(ctx, f.user.ID, domain.AddProductRequest{Name: "Leite", ExpirationDate: "2026-03-12"})
	require.NoError(t, err)
	assert.Equal(t, int64(f.category.ID), res.CategoryID)

	foreign := int64(f.category.ID)
	_, err = f.svc.AddProduct(ctx, f.other.ID, domain.AddProductRequest{Name: "Queijo", ExpirationDate: "2026-03-12", CategoryID: &foreign})
	assert.ErrorIs(t, err, domain.ErrCategoryNotFound)
}

func TestProductService_Ownership(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	p := f.add(t, "Iogurte", "2026-03-12", false)
	id := entities.ProductID(p.ID)

	_, err := f.svc.GetProductByID(ctx, f.other.ID, id)
	assert.ErrorIs(t, err, domain.ErrUnauthorizedAccess)
	_, err = f.svc.ConsumeProduct(ctx, f.other.ID, id)
	assert.ErrorIs(t, err, domain.ErrUnauthorizedAccess)
	assert.ErrorIs(t, f.svc.DeleteProduct(ctx, f.other.ID, id), domain.ErrUnauthorizedAccess)

	_, err = f.svc.GetProductByID(ctx, f.user.ID, 404)
	assert.ErrorIs(t, err, domain.ErrProductNotFound)
}

func TestProductService_ConsumeWithAutoReplenish(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	p := f.add(t, "Leite", "2026-03-12", true)

	res, err := f.svc.ConsumeProduct(ctx, f.user.ID, entities.ProductID(p.ID))
	require.NoError(t, err)
	assert.True(t, res.Product.Consumed)
	assert.True(t, res.Product.Notified)
	require.NotNil(t, res.ShoppingItem)
	assert.Equal(t, "Leite", res.ShoppingItem.Name)
	require.NotNil(t, res.ShoppingItem.ProductID)
	assert.Equal(t, p.ID, *res.ShoppingItem.ProductID)

	processed, err := f.svc.ProcessAutoReplenish(ctx, f.user.ID)
	require.NoError(t, err)
	assert.Zero(t, processed, "already handled by the consume call")

	items, err := f.store.GetShoppingItemsByUserID(ctx, f.user.ID)
	require.NoError(t, err)
	assert.Len(t, items, 1)

	plain := f.add(t, "Pão", "2026-03-11", false)
	res, err = f.svc.DiscardProduct(ctx, f.user.ID, entities.ProductID(plain.ID))
	require.NoError(t, err)
	assert.True(t, res.Product.Discarded)
	assert.Nil(t, res.ShoppingItem)
}

func TestProductService_GetProducts(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	for _, name := range []string{"A", "B", "C", "D", "E"} {
		f.add(t, name, "2026-03-15", false)
	}

	all, pagination, err := f.svc.GetProducts(ctx, f.user.ID, domain.ProductQuery{})
	require.NoError(t, err)
	assert.Nil(t, pagination)
	assert.Len(t, all, 5)

	page, pagination, err := f.svc.GetProducts(ctx, f.user.ID, domain.ProductQuery{Page: 2, Limit: 2, SortBy: storage.SortByName})
	require.NoError(t, err)
	require.NotNil(t, pagination)
	assert.Equal(t, int64(5), pagination.Total)
	assert.Equal(t, int64(3), pagination.TotalPages)
	require.Len(t, page, 2)
	assert.Equal(t, "C", page[0].Name)
	assert.Equal(t, "D", page[1].Name)

	page, _, err = f.svc.GetProducts(ctx, f.user.ID, domain.ProductQuery{Page: 9, Limit: 2})
	require.NoError(t, err)
	assert.Empty(t, page)
}

func TestProductService_UpdateResetsReminder(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	p := f.add(t, "Leite", "2026-03-11", false)
	id := entities.ProductID(p.ID)

	_, err := f.store.MarkProductNotified(ctx, id)
	require.NoError(t, err)

	date := "2026-03-20"
	res, err := f.svc.UpdateProduct(ctx, f.user.ID, id, domain.UpdateProductRequest{ExpirationDate: &date})
	require.NoError(t, err)
	assert.False(t, res.Notified)
	assert.Equal(t, 10, res.DaysLeft)
}

func newImageUpload(t *testing.T, width, height int) *multipart.FileHeader {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for x := 0; x < width; x++ {
		img.Set(x, 0, color.RGBA{R: 200, A: 255})
	}
	var data bytes.Buffer
	require.NoError(t, png.Encode(&data, img))

	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	part, err := w.CreateFormFile("image", "leite.png")
	require.NoError(t, err)
	_, err = part.Write(data.Bytes())
	require.NoError(t, err)
	require.NoError(t, w.Close())

	req := httptest.NewRequest("POST", "/", &body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	require.NoError(t, req.ParseMultipartForm(1<<20))
	return req.MultipartForm.File["image"][0]
}

func TestProductService_UploadProductImage(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	p := f.add(t, "Leite", "2026-03-12", false)
	id := entities.ProductID(p.ID)

	res, err := f.svc.UploadProductImage(ctx, f.user.ID, id, domain.UploadProductImageRequest{Image: newImageUpload(t, 64, 16)})
	require.NoError(t, err)
	require.NotNil(t, res.Image)
	assert.Contains(t, *res.Image, "http://localhost:8080/api/images/products-")

	first := f.images.GetObjectKeyFromLink(*res.Image)
	path, err := f.images.Path(first)
	require.NoError(t, err)
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	img, format, err := image.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, "jpeg", format)
	assert.Equal(t, 32, img.Bounds().Dx())

	res, err = f.svc.UploadProductImage(ctx, f.user.ID, id, domain.UploadProductImageRequest{Image: newImageUpload(t, 8, 8)})
	require.NoError(t, err)
	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err), "the replaced image is removed")

	require.NoError(t, f.svc.DeleteProduct(ctx, f.user.ID, id))
	path, err = f.images.Path(f.images.GetObjectKeyFromLink(*res.Image))
	require.NoError(t, err)
	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err))
}

func TestProductService_Aggregates(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.add(t, "Hoje", "2026-03-10", false)
	f.add(t, "Vencido", "2026-03-01", false)
	later := f.add(t, "Depois", "2026-04-30", false)

	summary, err := f.svc.GetExpirationSummary(ctx, f.user.ID)
	require.NoError(t, err)
	assert.Equal(t, storage.ExpirationSummary{ExpiringToday: 1, Expired: 1, NonExpiring: 1, Total: 3}, summary)

	_, err = f.svc.DiscardProduct(ctx, f.user.ID, entities.ProductID(later.ID))
	require.NoError(t, err)
	stats, err := f.svc.GetConsumptionStats(ctx, f.user.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Discarded)
	assert.Equal(t, 3, stats.Total)

	// midnight today is already past
	deleted, err := f.svc.DeleteExpiredProducts(ctx, f.user.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), deleted)

	deleted, err = f.svc.DeleteAllProducts(ctx, f.user.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)
}
