package category

import (
	"Prazo-Certo/domain"
	"Prazo-Certo/entities"
	"Prazo-Certo/pkg/storage"
	"context"
	"errors"
	"strings"
)

type (
	CategoryService interface {
		GetCategories(ctx context.Context, userID entities.UserID) ([]domain.CategoryResponse, error)
		GetOwnedCategory(ctx context.Context, userID entities.UserID, id entities.CategoryID) (*entities.Category, error)
		AddCategory(ctx context.Context, userID entities.UserID, req domain.AddCategoryRequest) (domain.CategoryResponse, error)
		UpdateCategory(ctx context.Context, userID entities.UserID, id entities.CategoryID, req domain.UpdateCategoryRequest) (domain.CategoryResponse, error)
		DeleteCategory(ctx context.Context, userID entities.UserID, id entities.CategoryID) error
	}

	categoryService struct {
		store storage.Store
	}
)

func NewCategoryService(store storage.Store) CategoryService {
	return &categoryService{
		store: store,
	}
}

func ToResponse(c *entities.Category) domain.CategoryResponse {
	return domain.CategoryResponse{
		ID:        int64(c.ID),
		Name:      c.Name,
		Icon:      c.Icon,
		Color:     c.Color,
		CreatedAt: c.CreatedAt,
	}
}

// ToResponsePtr maps an optional eager-loaded category.
func ToResponsePtr(c *entities.Category) *domain.CategoryResponse {
	if c == nil {
		return nil
	}
	res := ToResponse(c)
	return &res
}

func (s *categoryService) GetCategories(ctx context.Context, userID entities.UserID) ([]domain.CategoryResponse, error) {
	categories, err := s.store.GetCategoriesByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}

	res := make([]domain.CategoryResponse, 0, len(categories))
	for _, c := range categories {
		res = append(res, ToResponse(c))
	}
	return res, nil
}

// GetOwnedCategory returns ErrCategoryNotFound for missing categories and
// ErrUnauthorizedAccess for categories of another user.
func (s *categoryService) GetOwnedCategory(ctx context.Context, userID entities.UserID, id entities.CategoryID) (*entities.Category, error) {
	c, err := s.store.GetCategoryByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, domain.ErrCategoryNotFound
	}
	if c.UserID != userID {
		return nil, domain.ErrUnauthorizedAccess
	}
	return c, nil
}

func (s *categoryService) AddCategory(ctx context.Context, userID entities.UserID, req domain.AddCategoryRequest) (domain.CategoryResponse, error) {
	created, err := s.store.CreateCategory(ctx, &entities.Category{
		Name:   strings.TrimSpace(req.Name),
		Icon:   req.Icon,
		Color:  req.Color,
		UserID: userID,
	})
	if err != nil {
		return domain.CategoryResponse{}, err
	}
	return ToResponse(created), nil
}

func (s *categoryService) UpdateCategory(ctx context.Context, userID entities.UserID, id entities.CategoryID, req domain.UpdateCategoryRequest) (domain.CategoryResponse, error) {
	if _, err := s.GetOwnedCategory(ctx, userID, id); err != nil {
		return domain.CategoryResponse{}, err
	}

	patch := storage.CategoryPatch{
		Icon:  req.Icon,
		Color: req.Color,
	}
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		patch.Name = &name
	}

	updated, err := s.store.UpdateCategory(ctx, id, patch)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return domain.CategoryResponse{}, domain.ErrCategoryNotFound
		}
		return domain.CategoryResponse{}, err
	}
	return ToResponse(updated), nil
}

func (s *categoryService) DeleteCategory(ctx context.Context, userID entities.UserID, id entities.CategoryID) error {
	if _, err := s.GetOwnedCategory(ctx, userID, id); err != nil {
		return err
	}

	err := s.store.DeleteCategory(ctx, id)
	switch {
	case errors.Is(err, storage.ErrCategoryInUse):
		return domain.ErrCategoryInUse
	case errors.Is(err, storage.ErrNotFound):
		return domain.ErrCategoryNotFound
	}
	return err
}
