package shopping

import (
	"Prazo-Certo/domain"
	"Prazo-Certo/entities"
	"Prazo-Certo/pkg/category"
	"Prazo-Certo/pkg/storage"
	"context"
	"errors"
	"strings"
)

type (
	ShoppingService interface {
		GetShoppingList(ctx context.Context, userID entities.UserID) ([]domain.ShoppingItemResponse, error)
		AddShoppingItem(ctx context.Context, userID entities.UserID, req domain.AddShoppingItemRequest) (domain.ShoppingItemResponse, error)
		SetPurchased(ctx context.Context, userID entities.UserID, id entities.ShoppingItemID, purchased bool) (domain.ShoppingItemResponse, error)
		DeleteShoppingItem(ctx context.Context, userID entities.UserID, id entities.ShoppingItemID) error
	}

	shoppingService struct {
		store           storage.Store
		categoryService category.CategoryService
	}
)

func NewShoppingService(store storage.Store, categoryService category.CategoryService) ShoppingService {
	return &shoppingService{
		store:           store,
		categoryService: categoryService,
	}
}

func ToResponse(item *entities.ShoppingItem) domain.ShoppingItemResponse {
	res := domain.ShoppingItemResponse{
		ID:          int64(item.ID),
		Name:        item.Name,
		Purchased:   item.Purchased,
		Category:    category.ToResponsePtr(item.Category),
		PurchasedAt: item.PurchasedAt,
		CreatedAt:   item.CreatedAt,
	}
	if item.CategoryID != nil {
		id := int64(*item.CategoryID)
		res.CategoryID = &id
	}
	if item.ProductID != nil {
		id := int64(*item.ProductID)
		res.ProductID = &id
	}
	return res
}

func (s *shoppingService) GetShoppingList(ctx context.Context, userID entities.UserID) ([]domain.ShoppingItemResponse, error) {
	items, err := s.store.GetShoppingItemsByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}

	res := make([]domain.ShoppingItemResponse, 0, len(items))
	for _, item := range items {
		res = append(res, ToResponse(item))
	}
	return res, nil
}

func (s *shoppingService) AddShoppingItem(ctx context.Context, userID entities.UserID, req domain.AddShoppingItemRequest) (domain.ShoppingItemResponse, error) {
	item := &entities.ShoppingItem{
		Name:   strings.TrimSpace(req.Name),
		UserID: userID,
	}
	if req.CategoryID != nil {
		c, err := s.categoryService.GetOwnedCategory(ctx, userID, entities.CategoryID(*req.CategoryID))
		if err != nil {
			if errors.Is(err, domain.ErrUnauthorizedAccess) {
				return domain.ShoppingItemResponse{}, domain.ErrCategoryNotFound
			}
			return domain.ShoppingItemResponse{}, err
		}
		item.CategoryID = &c.ID
	}

	created, err := s.store.CreateShoppingItem(ctx, item)
	if err != nil {
		return domain.ShoppingItemResponse{}, err
	}
	return ToResponse(created), nil
}

func (s *shoppingService) getOwnedItem(ctx context.Context, userID entities.UserID, id entities.ShoppingItemID) (*entities.ShoppingItem, error) {
	item, err := s.store.GetShoppingItemByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, domain.ErrShoppingItemNotFound
	}
	if item.UserID != userID {
		return nil, domain.ErrUnauthorizedAccess
	}
	return item, nil
}

func (s *shoppingService) SetPurchased(ctx context.Context, userID entities.UserID, id entities.ShoppingItemID, purchased bool) (domain.ShoppingItemResponse, error) {
	if _, err := s.getOwnedItem(ctx, userID, id); err != nil {
		return domain.ShoppingItemResponse{}, err
	}
	updated, err := s.store.MarkShoppingItemPurchased(ctx, id, purchased)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return domain.ShoppingItemResponse{}, domain.ErrShoppingItemNotFound
		}
		return domain.ShoppingItemResponse{}, err
	}
	return ToResponse(updated), nil
}

func (s *shoppingService) DeleteShoppingItem(ctx context.Context, userID entities.UserID, id entities.ShoppingItemID) error {
	if _, err := s.getOwnedItem(ctx, userID, id); err != nil {
		return err
	}
	if err := s.store.DeleteShoppingItem(ctx, id); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return domain.ErrShoppingItemNotFound
		}
		return err
	}
	return nil
}
