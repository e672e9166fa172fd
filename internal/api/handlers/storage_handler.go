package handlers

import (
	"Prazo-Certo/domain"
	"Prazo-Certo/internal/api/presenters"
	filestorage "Prazo-Certo/internal/utils/storage"
	"Prazo-Certo/pkg/storage"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

type (
	StorageHandler interface {
		GetStatus(c *fiber.Ctx) error
		SetProvider(c *fiber.Ctx) error
		MigrateToHierarchical(c *fiber.Ctx) error
		ServeImage(c *fiber.Ctx) error
	}

	storageHandler struct {
		proxy     *storage.Proxy
		images    *filestorage.LocalStorage
		validator *validator.Validate
	}
)

// NewStorageHandler serves the storage admin endpoints. images may be nil
// when photos are kept on S3.
func NewStorageHandler(proxy *storage.Proxy, images *filestorage.LocalStorage, validator *validator.Validate) StorageHandler {
	return &storageHandler{
		proxy:     proxy,
		images:    images,
		validator: validator,
	}
}

func (h *storageHandler) GetStatus(c *fiber.Ctx) error {
	return presenters.SuccessResponse(c, h.proxy.Status(), fiber.StatusOK, domain.MessageSuccessGetStorageStatus)
}

func (h *storageHandler) SetProvider(c *fiber.Ctx) error {
	req := new(domain.SetProviderRequest)
	if err := c.BodyParser(req); err != nil {
		return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedBodyRequest, err)
	}
	if err := h.validator.Struct(req); err != nil {
		return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedSetProvider, err)
	}
	backend, err := storage.ParseBackend(req.Provider)
	if err != nil {
		return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedSetProvider, err)
	}

	status, err := h.proxy.SetProvider(c.Context(), backend)
	if err != nil {
		return failed(c, domain.MessageFailedSetProvider, err)
	}
	return presenters.SuccessResponse(c, status, fiber.StatusOK, domain.MessageSuccessSetProvider)
}

func (h *storageHandler) MigrateToHierarchical(c *fiber.Ctx) error {
	report, err := h.proxy.MigrateToHierarchical(c.Context())
	if err != nil {
		return failed(c, domain.MessageFailedMigrateStorage, err)
	}
	return presenters.SuccessResponse(c, report, fiber.StatusOK, domain.MessageSuccessMigrateStorage)
}

func (h *storageHandler) ServeImage(c *fiber.Ctx) error {
	if h.images == nil {
		return fiber.ErrNotFound
	}
	path, err := h.images.Path(c.Params("filename"))
	if err != nil {
		return fiber.ErrNotFound
	}
	return c.SendFile(path)
}
