package handlers

import (
	"Prazo-Certo/domain"
	"Prazo-Certo/internal/api/presenters"
	filestorage "Prazo-Certo/internal/utils/storage"
	"Prazo-Certo/pkg/ai"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

// Photos sent to the model are scaled down first.
const aiImageWidth = 768

type (
	AIHandler interface {
		AnalyzeImage(c *fiber.Ctx) error
		GenerateRecipe(c *fiber.Ctx) error
		FindSubstitutes(c *fiber.Ctx) error
		RecognizeDate(c *fiber.Ctx) error
	}

	aiHandler struct {
		aiService ai.AIService
		validator *validator.Validate
	}
)

func NewAIHandler(aiService ai.AIService, validator *validator.Validate) AIHandler {
	return &aiHandler{
		aiService: aiService,
		validator: validator,
	}
}

func (h *aiHandler) readImage(c *fiber.Ctx) ([]byte, error) {
	image, err := c.FormFile("image")
	if err != nil {
		return nil, err
	}
	return filestorage.PrepareImage(image, aiImageWidth)
}

func (h *aiHandler) AnalyzeImage(c *fiber.Ctx) error {
	image, err := h.readImage(c)
	if err != nil {
		return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedAnalyzeImage, err)
	}
	res := h.aiService.AnalyzeImage(c.Context(), image)
	return presenters.SuccessResponse(c, res, fiber.StatusOK, domain.MessageSuccessAnalyzeImage)
}

func (h *aiHandler) GenerateRecipe(c *fiber.Ctx) error {
	req := new(domain.GenerateRecipeRequest)
	if err := c.BodyParser(req); err != nil {
		return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedBodyRequest, err)
	}
	if err := h.validator.Struct(req); err != nil {
		return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedGenerateRecipe, err)
	}

	res, err := h.aiService.GenerateRecipe(c.Context(), currentUserID(c), *req)
	if err != nil {
		return failed(c, domain.MessageFailedGenerateRecipe, err)
	}
	if res == nil {
		return presenters.SuccessResponse(c, nil, fiber.StatusOK, domain.MessageFailedGenerateRecipe)
	}
	return presenters.SuccessResponse(c, res, fiber.StatusOK, domain.MessageSuccessGenerateRecipe)
}

func (h *aiHandler) FindSubstitutes(c *fiber.Ctx) error {
	req := new(domain.FindSubstitutesRequest)
	if err := c.BodyParser(req); err != nil {
		return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedBodyRequest, err)
	}
	if err := h.validator.Struct(req); err != nil {
		return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedFindSubstitutes, err)
	}

	res := h.aiService.FindSubstitutes(c.Context(), *req)
	return presenters.SuccessResponse(c, res, fiber.StatusOK, domain.MessageSuccessFindSubstitutes)
}

func (h *aiHandler) RecognizeDate(c *fiber.Ctx) error {
	image, err := h.readImage(c)
	if err != nil {
		return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedRecognizeDate, err)
	}
	res := h.aiService.RecognizeExpirationDate(c.Context(), image)
	return presenters.SuccessResponse(c, res, fiber.StatusOK, domain.MessageSuccessRecognizeDate)
}
