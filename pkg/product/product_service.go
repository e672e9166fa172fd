package product

import (
	"Prazo-Certo/domain"
	"Prazo-Certo/entities"
	filestorage "Prazo-Certo/internal/utils/storage"
	"Prazo-Certo/pkg/category"
	"Prazo-Certo/pkg/shopping"
	"Prazo-Certo/pkg/storage"
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

const (
	imageFolder      = "products"
	defaultPageLimit = 20
)

type (
	ProductService interface {
		AddProduct(ctx context.Context, userID entities.UserID, req domain.AddProductRequest) (domain.ProductResponse, error)
		GetProducts(ctx context.Context, userID entities.UserID, query domain.ProductQuery) ([]domain.ProductResponse, *domain.Pagination, error)
		GetProductByID(ctx context.Context, userID entities.UserID, id entities.ProductID) (domain.ProductResponse, error)
		GetExpiringProducts(ctx context.Context, userID entities.UserID, days int) ([]domain.ProductResponse, error)
		UpdateProduct(ctx context.Context, userID entities.UserID, id entities.ProductID, req domain.UpdateProductRequest) (domain.ProductResponse, error)
		ConsumeProduct(ctx context.Context, userID entities.UserID, id entities.ProductID) (domain.ProductStatusResponse, error)
		DiscardProduct(ctx context.Context, userID entities.UserID, id entities.ProductID) (domain.ProductStatusResponse, error)
		DeleteProduct(ctx context.Context, userID entities.UserID, id entities.ProductID) error
		DeleteExpiredProducts(ctx context.Context, userID entities.UserID) (int64, error)
		DeleteAllProducts(ctx context.Context, userID entities.UserID) (int64, error)
		AddToShoppingList(ctx context.Context, userID entities.UserID, id entities.ProductID) (domain.ShoppingItemResponse, error)
		UploadProductImage(ctx context.Context, userID entities.UserID, id entities.ProductID, req domain.UploadProductImageRequest) (domain.ProductResponse, error)
		GetExpirationSummary(ctx context.Context, userID entities.UserID) (storage.ExpirationSummary, error)
		GetConsumptionStats(ctx context.Context, userID entities.UserID) (storage.ConsumptionStats, error)
		ProcessAutoReplenish(ctx context.Context, userID entities.UserID) (int, error)
	}

	Config struct {
		Location      *time.Location
		MaxImageWidth uint
		Clock         func() time.Time
		Logger        zerolog.Logger
	}

	productService struct {
		store           storage.Store
		categoryService category.CategoryService
		files           filestorage.FileStorage
		config          Config
	}
)

func NewProductService(store storage.Store, categoryService category.CategoryService, files filestorage.FileStorage, config Config) ProductService {
	if config.Location == nil {
		config.Location = time.UTC
	}
	if config.Clock == nil {
		config.Clock = time.Now
	}
	return &productService{
		store:           store,
		categoryService: categoryService,
		files:           files,
		config:          config,
	}
}

func (s *productService) now() time.Time {
	return s.config.Clock().In(s.config.Location)
}

// ParseExpirationDate accepts RFC 3339 or a bare date, which is read as
// midnight in loc.
func ParseExpirationDate(value string, loc *time.Location) (time.Time, error) {
	value = strings.TrimSpace(value)
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t, nil
	}
	t, err := time.ParseInLocation(domain.ExpiryDateLayout, value, loc)
	if err != nil {
		return time.Time{}, domain.ErrInvalidExpiryDate
	}
	return t, nil
}

// DaysLeft counts calendar days from now to the expiration date in now's
// location. Negative means expired.
func DaysLeft(expiration, now time.Time) int {
	y, m, d := now.Date()
	today := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	y, m, d = expiration.In(now.Location()).Date()
	day := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return int(day.Sub(today).Hours() / 24)
}

func (s *productService) toResponse(p *entities.Product) domain.ProductResponse {
	return domain.ProductResponse{
		ID:             int64(p.ID),
		Name:           p.Name,
		Image:          p.Image,
		ExpirationDate: p.ExpirationDate,
		DaysLeft:       DaysLeft(p.ExpirationDate, s.now()),
		CategoryID:     int64(p.CategoryID),
		Category:       category.ToResponsePtr(p.Category),
		Consumed:       p.Consumed,
		Discarded:      p.Discarded,
		Notified:       p.Notified,
		AutoReplenish:  p.AutoReplenish,
		ConsumedAt:     p.ConsumedAt,
		DiscardedAt:    p.DiscardedAt,
		CreatedAt:      p.CreatedAt,
	}
}

func (s *productService) toResponses(products []*entities.Product) []domain.ProductResponse {
	res := make([]domain.ProductResponse, 0, len(products))
	for _, p := range products {
		res = append(res, s.toResponse(p))
	}
	return res
}

func (s *productService) getOwnedProduct(ctx context.Context, userID entities.UserID, id entities.ProductID) (*entities.Product, error) {
	p, err := s.store.GetProductByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, domain.ErrProductNotFound
	}
	if p.UserID != userID {
		return nil, domain.ErrUnauthorizedAccess
	}
	return p, nil
}

// resolveCategory falls back to the default category from the user's
// settings when the request does not name one.
func (s *productService) resolveCategory(ctx context.Context, userID entities.UserID, requested *int64) (entities.CategoryID, error) {
	var id entities.CategoryID
	if requested != nil {
		id = entities.CategoryID(*requested)
	} else {
		u, err := s.store.GetUserByID(ctx, userID)
		if err != nil {
			return 0, err
		}
		if u == nil {
			return 0, domain.ErrUserNotFound
		}
		fallback := u.Settings.Data().DefaultCategory
		if fallback == nil {
			return 0, domain.ErrCategoryNotFound
		}
		id = *fallback
	}

	if _, err := s.categoryService.GetOwnedCategory(ctx, userID, id); err != nil {
		if errors.Is(err, domain.ErrUnauthorizedAccess) {
			return 0, domain.ErrCategoryNotFound
		}
		return 0, err
	}
	return id, nil
}

func (s *productService) AddProduct(ctx context.Context, userID entities.UserID, req domain.AddProductRequest) (domain.ProductResponse, error) {
	expiration, err := ParseExpirationDate(req.ExpirationDate, s.config.Location)
	if err != nil {
		return domain.ProductResponse{}, err
	}
	categoryID, err := s.resolveCategory(ctx, userID, req.CategoryID)
	if err != nil {
		return domain.ProductResponse{}, err
	}

	created, err := s.store.CreateProduct(ctx, &entities.Product{
		Name:           strings.TrimSpace(req.Name),
		Image:          req.Image,
		ExpirationDate: expiration,
		CategoryID:     categoryID,
		UserID:         userID,
		AutoReplenish:  req.AutoReplenish,
	})
	if err != nil {
		return domain.ProductResponse{}, err
	}
	return s.toResponse(created), nil
}

func (s *productService) GetProducts(ctx context.Context, userID entities.UserID, query domain.ProductQuery) ([]domain.ProductResponse, *domain.Pagination, error) {
	filter := storage.ProductFilter{
		Status:       storage.ProductStatus(query.Status),
		ExpiringOnly: query.ExpiringOnly,
		ExpiredOnly:  query.ExpiredOnly,
		Search:       query.Search,
		SortBy:       query.SortBy,
		SortOrder:    query.SortOrder,
	}
	if query.CategoryID != 0 {
		id := entities.CategoryID(query.CategoryID)
		filter.CategoryID = &id
	}

	products, err := s.store.GetProductsByUserID(ctx, userID, filter)
	if err != nil {
		return nil, nil, err
	}
	if query.Page == 0 && query.Limit == 0 {
		return s.toResponses(products), nil, nil
	}

	page, limit := query.Page, query.Limit
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = defaultPageLimit
	}
	pagination := domain.NewPagination(page, limit, int64(len(products)))

	start := min((page-1)*limit, len(products))
	end := min(start+limit, len(products))
	return s.toResponses(products[start:end]), &pagination, nil
}

func (s *productService) GetProductByID(ctx context.Context, userID entities.UserID, id entities.ProductID) (domain.ProductResponse, error) {
	p, err := s.getOwnedProduct(ctx, userID, id)
	if err != nil {
		return domain.ProductResponse{}, err
	}
	return s.toResponse(p), nil
}

func (s *productService) GetExpiringProducts(ctx context.Context, userID entities.UserID, days int) ([]domain.ProductResponse, error) {
	products, err := s.store.GetExpiringProducts(ctx, userID, days)
	if err != nil {
		return nil, err
	}
	return s.toResponses(products), nil
}

func (s *productService) UpdateProduct(ctx context.Context, userID entities.UserID, id entities.ProductID, req domain.UpdateProductRequest) (domain.ProductResponse, error) {
	if _, err := s.getOwnedProduct(ctx, userID, id); err != nil {
		return domain.ProductResponse{}, err
	}

	patch := storage.ProductPatch{AutoReplenish: req.AutoReplenish}
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		patch.Name = &name
	}
	if req.ExpirationDate != nil {
		expiration, err := ParseExpirationDate(*req.ExpirationDate, s.config.Location)
		if err != nil {
			return domain.ProductResponse{}, err
		}
		patch.ExpirationDate = &expiration
		// a new date gets a new reminder
		notified := false
		patch.Notified = &notified
	}
	if req.CategoryID != nil {
		categoryID, err := s.resolveCategory(ctx, userID, req.CategoryID)
		if err != nil {
			return domain.ProductResponse{}, err
		}
		patch.CategoryID = &categoryID
	}

	updated, err := s.store.UpdateProduct(ctx, id, patch)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return domain.ProductResponse{}, domain.ErrProductNotFound
		}
		return domain.ProductResponse{}, err
	}
	return s.toResponse(updated), nil
}

func (s *productService) ConsumeProduct(ctx context.Context, userID entities.UserID, id entities.ProductID) (domain.ProductStatusResponse, error) {
	return s.closeProduct(ctx, userID, id, s.store.MarkProductConsumed)
}

func (s *productService) DiscardProduct(ctx context.Context, userID entities.UserID, id entities.ProductID) (domain.ProductStatusResponse, error) {
	return s.closeProduct(ctx, userID, id, s.store.MarkProductDiscarded)
}

// closeProduct applies mark and, for auto-replenish products, puts the product
// back on the shopping list. The product is then flagged as notified so the
// background sweep does not add it a second time.
func (s *productService) closeProduct(ctx context.Context, userID entities.UserID, id entities.ProductID, mark func(context.Context, entities.ProductID) (*entities.Product, error)) (domain.ProductStatusResponse, error) {
	if _, err := s.getOwnedProduct(ctx, userID, id); err != nil {
		return domain.ProductStatusResponse{}, err
	}

	updated, err := mark(ctx, id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return domain.ProductStatusResponse{}, domain.ErrProductNotFound
		}
		return domain.ProductStatusResponse{}, err
	}

	res := domain.ProductStatusResponse{Product: s.toResponse(updated)}
	if !updated.AutoReplenish {
		return res, nil
	}

	item, err := s.store.AddProductToShoppingList(ctx, id, userID)
	if err != nil {
		return res, err
	}
	if updated, err = s.store.MarkProductNotified(ctx, id); err != nil {
		return res, err
	}
	itemRes := shopping.ToResponse(item)
	res.Product = s.toResponse(updated)
	res.ShoppingItem = &itemRes
	return res, nil
}

func (s *productService) DeleteProduct(ctx context.Context, userID entities.UserID, id entities.ProductID) error {
	p, err := s.getOwnedProduct(ctx, userID, id)
	if err != nil {
		return err
	}
	if err := s.store.DeleteProduct(ctx, id); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return domain.ErrProductNotFound
		}
		return err
	}
	s.deleteImage(ctx, p.Image)
	return nil
}

func (s *productService) DeleteExpiredProducts(ctx context.Context, userID entities.UserID) (int64, error) {
	return s.store.DeleteExpiredProducts(ctx, userID)
}

func (s *productService) DeleteAllProducts(ctx context.Context, userID entities.UserID) (int64, error) {
	return s.store.DeleteAllProducts(ctx, userID)
}

func (s *productService) AddToShoppingList(ctx context.Context, userID entities.UserID, id entities.ProductID) (domain.ShoppingItemResponse, error) {
	if _, err := s.getOwnedProduct(ctx, userID, id); err != nil {
		return domain.ShoppingItemResponse{}, err
	}
	item, err := s.store.AddProductToShoppingList(ctx, id, userID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return domain.ShoppingItemResponse{}, domain.ErrProductNotFound
		}
		return domain.ShoppingItemResponse{}, err
	}
	return shopping.ToResponse(item), nil
}

func (s *productService) UploadProductImage(ctx context.Context, userID entities.UserID, id entities.ProductID, req domain.UploadProductImageRequest) (domain.ProductResponse, error) {
	p, err := s.getOwnedProduct(ctx, userID, id)
	if err != nil {
		return domain.ProductResponse{}, err
	}
	if s.files == nil {
		return domain.ProductResponse{}, filestorage.ErrS3NotConfigured
	}

	data, err := filestorage.PrepareImage(req.Image, s.config.MaxImageWidth)
	if err != nil {
		if errors.Is(err, filestorage.ErrFileTypeNotAllowed) {
			return domain.ProductResponse{}, domain.ErrInvalidImageFormat
		}
		return domain.ProductResponse{}, err
	}

	objectKey, err := s.files.UploadFile(ctx, imageFolder, data, "image/jpeg")
	if err != nil {
		return domain.ProductResponse{}, err
	}
	link := s.files.GetPublicLinkKey(objectKey)

	updated, err := s.store.UpdateProduct(ctx, id, storage.ProductPatch{Image: &link})
	if err != nil {
		_ = s.files.DeleteFile(ctx, objectKey)
		return domain.ProductResponse{}, err
	}
	s.deleteImage(ctx, p.Image)
	return s.toResponse(updated), nil
}

func (s *productService) deleteImage(ctx context.Context, link *string) {
	if link == nil || s.files == nil {
		return
	}
	objectKey := s.files.GetObjectKeyFromLink(*link)
	if objectKey == "" {
		return
	}
	if err := s.files.DeleteFile(ctx, objectKey); err != nil {
		s.config.Logger.Warn().Err(err).Str("object_key", objectKey).Msg("failed to delete product image")
	}
}

func (s *productService) GetExpirationSummary(ctx context.Context, userID entities.UserID) (storage.ExpirationSummary, error) {
	return s.store.GetExpirationSummary(ctx, userID)
}

func (s *productService) GetConsumptionStats(ctx context.Context, userID entities.UserID) (storage.ConsumptionStats, error) {
	return s.store.GetConsumptionStats(ctx, userID)
}

func (s *productService) ProcessAutoReplenish(ctx context.Context, userID entities.UserID) (int, error) {
	return s.store.ProcessAutoReplenish(ctx, userID)
}
