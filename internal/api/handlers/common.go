package handlers

import (
	"Prazo-Certo/domain"
	"Prazo-Certo/entities"
	"Prazo-Certo/internal/api/presenters"
	filestorage "Prazo-Certo/internal/utils/storage"
	"Prazo-Certo/pkg/storage"
	"errors"

	"github.com/gofiber/fiber/v2"
)

func currentUserID(c *fiber.Ctx) entities.UserID {
	id, _ := c.Locals("user_id").(entities.UserID)
	return id
}

func paramID[T interface{ ~int64 }](c *fiber.Ctx) (T, error) {
	id, err := entities.ParseID[T](c.Params("id"))
	if err != nil || id <= 0 {
		return 0, domain.ErrParseID
	}
	return id, nil
}

// statusFor maps service errors to HTTP status codes. Anything unknown is a
// server error.
func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrProductNotFound),
		errors.Is(err, domain.ErrCategoryNotFound),
		errors.Is(err, domain.ErrShoppingItemNotFound),
		errors.Is(err, domain.ErrUserNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, domain.ErrUnauthorizedAccess),
		errors.Is(err, domain.ErrUserNotAllowed):
		return fiber.StatusForbidden
	case errors.Is(err, domain.ErrCredentialsNotMatch):
		return fiber.StatusUnauthorized
	case errors.Is(err, domain.ErrUsernameAlreadyExists),
		errors.Is(err, domain.ErrCategoryInUse),
		errors.Is(err, storage.ErrDuplicate):
		return fiber.StatusConflict
	case errors.Is(err, domain.ErrInvalidExpiryDate),
		errors.Is(err, domain.ErrInvalidImageFormat),
		errors.Is(err, domain.ErrNoIngredients),
		errors.Is(err, domain.ErrParseID),
		errors.Is(err, filestorage.ErrFileTypeNotAllowed):
		return fiber.StatusBadRequest
	case errors.Is(err, filestorage.ErrFileTooLarge):
		return fiber.StatusRequestEntityTooLarge
	case errors.Is(err, storage.ErrBackendUnavailable),
		errors.Is(err, filestorage.ErrS3NotConfigured):
		return fiber.StatusServiceUnavailable
	default:
		return fiber.StatusInternalServerError
	}
}

func failed(c *fiber.Ctx, message string, err error) error {
	return presenters.ErrorResponse(c, statusFor(err), message, err)
}
