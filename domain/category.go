package domain

import (
	"errors"
	"time"
)

var (
	MessageSuccessGetCategories  = "categories retrieved successfully"
	MessageSuccessAddCategory    = "category added successfully"
	MessageSuccessUpdateCategory = "category updated successfully"
	MessageSuccessDeleteCategory = "category deleted successfully"

	MessageFailedGetCategories  = "failed to retrieve categories"
	MessageFailedAddCategory    = "failed to add category"
	MessageFailedUpdateCategory = "failed to update category"
	MessageFailedDeleteCategory = "failed to delete category"

	ErrCategoryNotFound = errors.New("category not found")
	ErrCategoryInUse    = errors.New("category still has products")
)

type (
	AddCategoryRequest struct {
		Name  string `json:"name" validate:"required,max=100"`
		Icon  string `json:"icon" validate:"required,max=100"`
		Color string `json:"color" validate:"required,hexcolor"`
	}

	UpdateCategoryRequest struct {
		Name  *string `json:"name" validate:"omitempty,max=100"`
		Icon  *string `json:"icon" validate:"omitempty,max=100"`
		Color *string `json:"color" validate:"omitempty,hexcolor"`
	}

	CategoryResponse struct {
		ID        int64     `json:"id"`
		Name      string    `json:"name"`
		Icon      string    `json:"icon"`
		Color     string    `json:"color"`
		CreatedAt time.Time `json:"created_at"`
	}
)
