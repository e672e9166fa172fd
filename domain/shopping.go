package domain

import (
	"errors"
	"time"
)

var (
	MessageSuccessGetShoppingList    = "shopping list retrieved successfully"
	MessageSuccessAddShoppingItem    = "shopping item added successfully"
	MessageSuccessUpdateShoppingItem = "shopping item updated successfully"
	MessageSuccessDeleteShoppingItem = "shopping item deleted successfully"

	MessageFailedGetShoppingList    = "failed to retrieve shopping list"
	MessageFailedAddShoppingItem    = "failed to add shopping item"
	MessageFailedUpdateShoppingItem = "failed to update shopping item"
	MessageFailedDeleteShoppingItem = "failed to delete shopping item"

	ErrShoppingItemNotFound = errors.New("shopping item not found")
)

type (
	AddShoppingItemRequest struct {
		Name       string `json:"name" validate:"required,max=200"`
		CategoryID *int64 `json:"category_id" validate:"omitempty"`
	}

	PurchaseShoppingItemRequest struct {
		Purchased *bool `json:"purchased" validate:"required"`
	}

	ShoppingItemResponse struct {
		ID          int64             `json:"id"`
		Name        string            `json:"name"`
		Purchased   bool              `json:"purchased"`
		CategoryID  *int64            `json:"category_id,omitempty"`
		Category    *CategoryResponse `json:"category,omitempty"`
		ProductID   *int64            `json:"product_id,omitempty"`
		PurchasedAt *time.Time        `json:"purchased_at,omitempty"`
		CreatedAt   time.Time         `json:"created_at"`
	}
)
