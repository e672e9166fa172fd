package handlers

import (
	"Prazo-Certo/domain"
	"Prazo-Certo/entities"
	"Prazo-Certo/internal/api/presenters"
	"Prazo-Certo/pkg/shopping"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

type (
	ShoppingHandler interface {
		GetShoppingList(c *fiber.Ctx) error
		AddShoppingItem(c *fiber.Ctx) error
		PurchaseShoppingItem(c *fiber.Ctx) error
		DeleteShoppingItem(c *fiber.Ctx) error
	}

	shoppingHandler struct {
		shoppingService shopping.ShoppingService
		validator       *validator.Validate
	}
)

func NewShoppingHandler(shoppingService shopping.ShoppingService, validator *validator.Validate) ShoppingHandler {
	return &shoppingHandler{
		shoppingService: shoppingService,
		validator:       validator,
	}
}

func (h *shoppingHandler) GetShoppingList(c *fiber.Ctx) error {
	res, err := h.shoppingService.GetShoppingList(c.Context(), currentUserID(c))
	if err != nil {
		return failed(c, domain.MessageFailedGetShoppingList, err)
	}
	return presenters.SuccessResponse(c, res, fiber.StatusOK, domain.MessageSuccessGetShoppingList)
}

func (h *shoppingHandler) AddShoppingItem(c *fiber.Ctx) error {
	req := new(domain.AddShoppingItemRequest)
	if err := c.BodyParser(req); err != nil {
		return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedBodyRequest, err)
	}
	if err := h.validator.Struct(req); err != nil {
		return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedAddShoppingItem, err)
	}

	res, err := h.shoppingService.AddShoppingItem(c.Context(), currentUserID(c), *req)
	if err != nil {
		return failed(c, domain.MessageFailedAddShoppingItem, err)
	}
	return presenters.SuccessResponse(c, res, fiber.StatusCreated, domain.MessageSuccessAddShoppingItem)
}

// PurchaseShoppingItem toggles the purchased flag. An empty body marks the
// item as purchased.
func (h *shoppingHandler) PurchaseShoppingItem(c *fiber.Ctx) error {
	id, err := paramID[entities.ShoppingItemID](c)
	if err != nil {
		return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageInvalidID, err)
	}

	purchased := true
	if len(c.Body()) > 0 {
		req := new(domain.PurchaseShoppingItemRequest)
		if err := c.BodyParser(req); err != nil {
			return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedBodyRequest, err)
		}
		if err := h.validator.Struct(req); err != nil {
			return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedUpdateShoppingItem, err)
		}
		purchased = *req.Purchased
	}

	res, err := h.shoppingService.SetPurchased(c.Context(), currentUserID(c), id, purchased)
	if err != nil {
		return failed(c, domain.MessageFailedUpdateShoppingItem, err)
	}
	return presenters.SuccessResponse(c, res, fiber.StatusOK, domain.MessageSuccessUpdateShoppingItem)
}

func (h *shoppingHandler) DeleteShoppingItem(c *fiber.Ctx) error {
	id, err := paramID[entities.ShoppingItemID](c)
	if err != nil {
		return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageInvalidID, err)
	}

	if err := h.shoppingService.DeleteShoppingItem(c.Context(), currentUserID(c), id); err != nil {
		return failed(c, domain.MessageFailedDeleteShoppingItem, err)
	}
	return presenters.SuccessResponse(c, nil, fiber.StatusOK, domain.MessageSuccessDeleteShoppingItem)
}
