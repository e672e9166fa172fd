package handlers

import (
	"Prazo-Certo/domain"
	"Prazo-Certo/entities"
	"Prazo-Certo/internal/api/presenters"
	"Prazo-Certo/pkg/product"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

const defaultExpiringDays = 7

type (
	ProductHandler interface {
		GetProducts(c *fiber.Ctx) error
		GetExpiringProducts(c *fiber.Ctx) error
		GetExpirationSummary(c *fiber.Ctx) error
		GetConsumptionStats(c *fiber.Ctx) error
		GetProductDetails(c *fiber.Ctx) error
		AddProduct(c *fiber.Ctx) error
		UploadProductImage(c *fiber.Ctx) error
		UpdateProduct(c *fiber.Ctx) error
		ConsumeProduct(c *fiber.Ctx) error
		DiscardProduct(c *fiber.Ctx) error
		DeleteProduct(c *fiber.Ctx) error
		DeleteExpiredProducts(c *fiber.Ctx) error
		DeleteAllProducts(c *fiber.Ctx) error
		AddToShoppingList(c *fiber.Ctx) error
		ProcessAutoReplenish(c *fiber.Ctx) error
	}

	productHandler struct {
		productService product.ProductService
		validator      *validator.Validate
	}
)

func NewProductHandler(productService product.ProductService, validator *validator.Validate) ProductHandler {
	return &productHandler{
		productService: productService,
		validator:      validator,
	}
}

func (h *productHandler) GetProducts(c *fiber.Ctx) error {
	query := new(domain.ProductQuery)
	if err := c.QueryParser(query); err != nil {
		return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedGetProducts, err)
	}
	if err := h.validator.Struct(query); err != nil {
		return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedGetProducts, err)
	}

	items, pagination, err := h.productService.GetProducts(c.Context(), currentUserID(c), *query)
	if err != nil {
		return failed(c, domain.MessageFailedGetProducts, err)
	}
	if pagination == nil {
		return presenters.SuccessResponse(c, items, fiber.StatusOK, domain.MessageSuccessGetProducts)
	}
	return presenters.SuccessResponse(c, fiber.Map{
		"items":      items,
		"pagination": pagination,
	}, fiber.StatusOK, domain.MessageSuccessGetProducts)
}

func (h *productHandler) GetExpiringProducts(c *fiber.Ctx) error {
	days := c.QueryInt("days", defaultExpiringDays)
	if days < 0 {
		days = defaultExpiringDays
	}
	if days > domain.MaxExpiringDays {
		return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedGetProducts, domain.ErrInvalidDays)
	}

	res, err := h.productService.GetExpiringProducts(c.Context(), currentUserID(c), days)
	if err != nil {
		return failed(c, domain.MessageFailedGetProducts, err)
	}
	return presenters.SuccessResponse(c, res, fiber.StatusOK, domain.MessageSuccessGetProducts)
}

func (h *productHandler) GetExpirationSummary(c *fiber.Ctx) error {
	res, err := h.productService.GetExpirationSummary(c.Context(), currentUserID(c))
	if err != nil {
		return failed(c, domain.MessageFailedGetSummary, err)
	}
	return presenters.SuccessResponse(c, res, fiber.StatusOK, domain.MessageSuccessGetSummary)
}

func (h *productHandler) GetConsumptionStats(c *fiber.Ctx) error {
	res, err := h.productService.GetConsumptionStats(c.Context(), currentUserID(c))
	if err != nil {
		return failed(c, domain.MessageFailedGetStats, err)
	}
	return presenters.SuccessResponse(c, res, fiber.StatusOK, domain.MessageSuccessGetStats)
}

func (h *productHandler) GetProductDetails(c *fiber.Ctx) error {
	id, err := paramID[entities.ProductID](c)
	if err != nil {
		return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageInvalidID, err)
	}

	res, err := h.productService.GetProductByID(c.Context(), currentUserID(c), id)
	if err != nil {
		return failed(c, domain.MessageFailedGetProducts, err)
	}
	return presenters.SuccessResponse(c, res, fiber.StatusOK, domain.MessageSuccessGetProducts)
}

func (h *productHandler) AddProduct(c *fiber.Ctx) error {
	req := new(domain.AddProductRequest)
	if err := c.BodyParser(req); err != nil {
		return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedBodyRequest, err)
	}
	if err := h.validator.Struct(req); err != nil {
		return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedAddProduct, err)
	}

	res, err := h.productService.AddProduct(c.Context(), currentUserID(c), *req)
	if err != nil {
		return failed(c, domain.MessageFailedAddProduct, err)
	}
	return presenters.SuccessResponse(c, res, fiber.StatusCreated, domain.MessageSuccessAddProduct)
}

func (h *productHandler) UploadProductImage(c *fiber.Ctx) error {
	id, err := paramID[entities.ProductID](c)
	if err != nil {
		return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageInvalidID, err)
	}
	image, err := c.FormFile("image")
	if err != nil {
		return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedBodyRequest, err)
	}
	req := domain.UploadProductImageRequest{Image: image}

	res, err := h.productService.UploadProductImage(c.Context(), currentUserID(c), id, req)
	if err != nil {
		return failed(c, domain.MessageFailedUploadProductImage, err)
	}
	return presenters.SuccessResponse(c, res, fiber.StatusOK, domain.MessageSuccessUploadProductImage)
}

func (h *productHandler) UpdateProduct(c *fiber.Ctx) error {
	id, err := paramID[entities.ProductID](c)
	if err != nil {
		return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageInvalidID, err)
	}
	req := new(domain.UpdateProductRequest)
	if err := c.BodyParser(req); err != nil {
		return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedBodyRequest, err)
	}
	if err := h.validator.Struct(req); err != nil {
		return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedUpdateProduct, err)
	}

	res, err := h.productService.UpdateProduct(c.Context(), currentUserID(c), id, *req)
	if err != nil {
		return failed(c, domain.MessageFailedUpdateProduct, err)
	}
	return presenters.SuccessResponse(c, res, fiber.StatusOK, domain.MessageSuccessUpdateProduct)
}

func (h *productHandler) ConsumeProduct(c *fiber.Ctx) error {
	id, err := paramID[entities.ProductID](c)
	if err != nil {
		return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageInvalidID, err)
	}

	res, err := h.productService.ConsumeProduct(c.Context(), currentUserID(c), id)
	if err != nil {
		return failed(c, domain.MessageFailedConsumeProduct, err)
	}
	return presenters.SuccessResponse(c, res, fiber.StatusOK, domain.MessageSuccessConsumeProduct)
}

func (h *productHandler) DiscardProduct(c *fiber.Ctx) error {
	id, err := paramID[entities.ProductID](c)
	if err != nil {
		return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageInvalidID, err)
	}

	res, err := h.productService.DiscardProduct(c.Context(), currentUserID(c), id)
	if err != nil {
		return failed(c, domain.MessageFailedDiscardProduct, err)
	}
	return presenters.SuccessResponse(c, res, fiber.StatusOK, domain.MessageSuccessDiscardProduct)
}

func (h *productHandler) DeleteProduct(c *fiber.Ctx) error {
	id, err := paramID[entities.ProductID](c)
	if err != nil {
		return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageInvalidID, err)
	}

	if err := h.productService.DeleteProduct(c.Context(), currentUserID(c), id); err != nil {
		return failed(c, domain.MessageFailedDeleteProduct, err)
	}
	return presenters.SuccessResponse(c, nil, fiber.StatusOK, domain.MessageSuccessDeleteProduct)
}

func (h *productHandler) DeleteExpiredProducts(c *fiber.Ctx) error {
	deleted, err := h.productService.DeleteExpiredProducts(c.Context(), currentUserID(c))
	if err != nil {
		return failed(c, domain.MessageFailedDeleteProducts, err)
	}
	return presenters.SuccessResponse(c, domain.DeleteProductsResponse{Deleted: deleted}, fiber.StatusOK, domain.MessageSuccessDeleteProducts)
}

func (h *productHandler) DeleteAllProducts(c *fiber.Ctx) error {
	deleted, err := h.productService.DeleteAllProducts(c.Context(), currentUserID(c))
	if err != nil {
		return failed(c, domain.MessageFailedDeleteProducts, err)
	}
	return presenters.SuccessResponse(c, domain.DeleteProductsResponse{Deleted: deleted}, fiber.StatusOK, domain.MessageSuccessDeleteProducts)
}

func (h *productHandler) AddToShoppingList(c *fiber.Ctx) error {
	id, err := paramID[entities.ProductID](c)
	if err != nil {
		return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageInvalidID, err)
	}

	res, err := h.productService.AddToShoppingList(c.Context(), currentUserID(c), id)
	if err != nil {
		return failed(c, domain.MessageFailedAddShoppingItem, err)
	}
	return presenters.SuccessResponse(c, res, fiber.StatusCreated, domain.MessageSuccessAddShoppingItem)
}

func (h *productHandler) ProcessAutoReplenish(c *fiber.Ctx) error {
	processed, err := h.productService.ProcessAutoReplenish(c.Context(), currentUserID(c))
	if err != nil {
		return failed(c, domain.MessageFailedReplenish, err)
	}
	return presenters.SuccessResponse(c, domain.ReplenishResponse{Processed: processed}, fiber.StatusOK, domain.MessageSuccessReplenish)
}
