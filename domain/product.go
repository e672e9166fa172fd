package domain

import (
	"errors"
	"mime/multipart"
	"time"
)

var (
	MessageSuccessAddProduct         = "product added successfully"
	MessageSuccessUpdateProduct      = "product updated successfully"
	MessageSuccessDeleteProduct      = "product deleted successfully"
	MessageSuccessDeleteProducts     = "products deleted successfully"
	MessageSuccessGetProducts        = "products retrieved successfully"
	MessageSuccessConsumeProduct     = "product marked as consumed"
	MessageSuccessDiscardProduct     = "product marked as discarded"
	MessageSuccessUploadProductImage = "product image uploaded successfully"
	MessageSuccessGetSummary         = "expiration summary retrieved successfully"
	MessageSuccessGetStats           = "consumption statistics retrieved successfully"
	MessageSuccessReplenish          = "auto replenish processed"

	MessageFailedAddProduct         = "failed to add product"
	MessageFailedUpdateProduct      = "failed to update product"
	MessageFailedDeleteProduct      = "failed to delete product"
	MessageFailedDeleteProducts     = "failed to delete products"
	MessageFailedGetProducts        = "failed to retrieve products"
	MessageFailedConsumeProduct     = "failed to mark product as consumed"
	MessageFailedDiscardProduct     = "failed to mark product as discarded"
	MessageFailedUploadProductImage = "failed to upload product image"
	MessageFailedGetSummary         = "failed to retrieve expiration summary"
	MessageFailedGetStats           = "failed to retrieve consumption statistics"
	MessageFailedReplenish          = "failed to process auto replenish"

	ErrProductNotFound    = errors.New("product not found")
	ErrInvalidExpiryDate  = errors.New("invalid expiration date")
	ErrInvalidImageFormat = errors.New("invalid image format")
	ErrInvalidDays        = errors.New("days must be between 0 and 3650")
)

const (
	// ExpiryDateLayout is the date-only form accepted next to RFC 3339.
	ExpiryDateLayout = "2006-01-02"

	// MaxExpiringDays bounds the look-ahead window of expiring queries.
	MaxExpiringDays = 3650
)

type (
	AddProductRequest struct {
		Name           string  `json:"name" validate:"required,max=200"`
		ExpirationDate string  `json:"expiration_date" validate:"required"`
		CategoryID     *int64  `json:"category_id" validate:"omitempty"`
		AutoReplenish  bool    `json:"auto_replenish"`
		Image          *string `json:"image" validate:"omitempty,url"`
	}

	UpdateProductRequest struct {
		Name           *string `json:"name" validate:"omitempty,max=200"`
		ExpirationDate *string `json:"expiration_date" validate:"omitempty"`
		CategoryID     *int64  `json:"category_id" validate:"omitempty"`
		AutoReplenish  *bool   `json:"auto_replenish" validate:"omitempty"`
	}

	UploadProductImageRequest struct {
		Image *multipart.FileHeader `form:"image" validate:"required"`
	}

	ProductQuery struct {
		Status       string `query:"status" validate:"omitempty,oneof=active consumed discarded all"`
		CategoryID   int64  `query:"category_id" validate:"omitempty,min=1"`
		ExpiringOnly bool   `query:"expiring"`
		ExpiredOnly  bool   `query:"expired"`
		Search       string `query:"search" validate:"omitempty,max=100"`
		SortBy       string `query:"sort_by" validate:"omitempty,oneof=expirationDate name createdAt"`
		SortOrder    string `query:"sort_order" validate:"omitempty,oneof=asc desc"`
		Page         int    `query:"page" validate:"omitempty,min=1"`
		Limit        int    `query:"limit" validate:"omitempty,min=1,max=100"`
	}

	ProductResponse struct {
		ID             int64             `json:"id"`
		Name           string            `json:"name"`
		Image          *string           `json:"image,omitempty"`
		ExpirationDate time.Time         `json:"expiration_date"`
		DaysLeft       int               `json:"days_left"`
		CategoryID     int64             `json:"category_id"`
		Category       *CategoryResponse `json:"category,omitempty"`
		Consumed       bool              `json:"consumed"`
		Discarded      bool              `json:"discarded"`
		Notified       bool              `json:"notified"`
		AutoReplenish  bool              `json:"auto_replenish"`
		ConsumedAt     *time.Time        `json:"consumed_at,omitempty"`
		DiscardedAt    *time.Time        `json:"discarded_at,omitempty"`
		CreatedAt      time.Time         `json:"created_at"`
	}

	ProductStatusResponse struct {
		Product      ProductResponse       `json:"product"`
		ShoppingItem *ShoppingItemResponse `json:"shopping_item,omitempty"`
	}

	DeleteProductsResponse struct {
		Deleted int64 `json:"deleted"`
	}

	ReplenishResponse struct {
		Processed int `json:"processed"`
	}
)
