package ai

import (
	"Prazo-Certo/domain"
	"Prazo-Certo/entities"
	"Prazo-Certo/pkg/storage"
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

const (
	promptAnalyzeImage = "Identifique os alimentos nesta imagem e responda apenas com um objeto JSON no formato " +
		`{"ingredients": ["tomate", "alface"]}.`
	promptRecognizeDate = "Identifique a data de validade nesta imagem. Responda apenas com um objeto JSON no formato " +
		`{"expirationDate": "YYYY-MM-DD"} ou {"expirationDate": null} se não encontrar.`
)

type (
	// AIService never fails on model errors. They are logged and collapse to
	// empty results.
	AIService interface {
		AnalyzeImage(ctx context.Context, image []byte) domain.IngredientsResponse
		GenerateRecipe(ctx context.Context, userID entities.UserID, req domain.GenerateRecipeRequest) (*domain.RecipeResponse, error)
		FindSubstitutes(ctx context.Context, req domain.FindSubstitutesRequest) domain.SubstitutesResponse
		RecognizeExpirationDate(ctx context.Context, image []byte) domain.RecognizeDateResponse
	}

	aiService struct {
		gemini *Gemini
		store  storage.Store
		logger zerolog.Logger
	}
)

func NewAIService(gemini *Gemini, store storage.Store, logger zerolog.Logger) AIService {
	return &aiService{
		gemini: gemini,
		store:  store,
		logger: logger,
	}
}

func (s *aiService) ask(ctx context.Context, op string, out any, parts ...geminiPart) bool {
	text, err := s.gemini.generateContent(ctx, parts...)
	if err != nil {
		s.logger.Warn().Err(err).Str("op", op).Msg("gemini request failed")
		return false
	}
	if err := json.Unmarshal([]byte(extractJSON(text)), out); err != nil {
		s.logger.Warn().Err(err).Str("op", op).Str("raw", text).Msg("gemini response is not valid JSON")
		return false
	}
	return true
}

func (s *aiService) AnalyzeImage(ctx context.Context, image []byte) domain.IngredientsResponse {
	res := domain.IngredientsResponse{Ingredients: []string{}}

	var result struct {
		Ingredients []string `json:"ingredients"`
	}
	if s.ask(ctx, "analyze-image", &result, textPart(promptAnalyzeImage), imagePart(image, "image/jpeg")) {
		res.Ingredients = cleanList(result.Ingredients)
	}
	return res
}

// GenerateRecipe combines the names of the given products with the free-form
// ingredients. Only the product lookup can fail.
func (s *aiService) GenerateRecipe(ctx context.Context, userID entities.UserID, req domain.GenerateRecipeRequest) (*domain.RecipeResponse, error) {
	ingredients := make([]string, 0, len(req.ProductIDs)+len(req.Ingredients))
	for _, rawID := range req.ProductIDs {
		p, err := s.store.GetProductByID(ctx, entities.ProductID(rawID))
		if err != nil {
			return nil, err
		}
		if p == nil {
			return nil, domain.ErrProductNotFound
		}
		if p.UserID != userID {
			return nil, domain.ErrUnauthorizedAccess
		}
		ingredients = append(ingredients, p.Name)
	}
	ingredients = cleanList(append(ingredients, req.Ingredients...))
	if len(ingredients) == 0 {
		return nil, domain.ErrNoIngredients
	}

	prompt := fmt.Sprintf("Você é um chef especializado em criar receitas com ingredientes disponíveis. "+
		"Crie uma receita utilizando preferencialmente os seguintes ingredientes: %s. ", strings.Join(ingredients, ", "))
	if req.Preferences != "" {
		prompt += fmt.Sprintf("Considere as seguintes preferências: %s. ", req.Preferences)
	}
	prompt += "Responda apenas com um objeto JSON com as propriedades: title, ingredients (array de strings com quantidades), " +
		"instructions (array de strings, um passo cada), difficulty (Fácil, Médio ou Difícil), time e tips (array de strings)."

	var recipe domain.RecipeResponse
	if !s.ask(ctx, "generate-recipe", &recipe, textPart(prompt)) || recipe.Title == "" {
		return nil, nil
	}
	return &recipe, nil
}

func (s *aiService) FindSubstitutes(ctx context.Context, req domain.FindSubstitutesRequest) domain.SubstitutesResponse {
	res := domain.SubstitutesResponse{Ingredient: req.Ingredient, Substitutes: []string{}}

	prompt := fmt.Sprintf("Preciso substituir %q em uma receita. ", req.Ingredient)
	if available := cleanList(req.Available); len(available) > 0 {
		prompt += fmt.Sprintf("Tenho disponível: %s. ", strings.Join(available, ", "))
	}
	prompt += `Quais são as 3 melhores alternativas? Responda apenas com um objeto JSON no formato {"substitutes": ["..."]}.`

	var result struct {
		Substitutes []string `json:"substitutes"`
	}
	if s.ask(ctx, "find-substitutes", &result, textPart(prompt)) {
		res.Substitutes = cleanList(result.Substitutes)
	}
	return res
}

func (s *aiService) RecognizeExpirationDate(ctx context.Context, image []byte) domain.RecognizeDateResponse {
	var result struct {
		ExpirationDate *string `json:"expirationDate"`
	}
	if !s.ask(ctx, "recognize-date", &result, textPart(promptRecognizeDate), imagePart(image, "image/jpeg")) || result.ExpirationDate == nil {
		return domain.RecognizeDateResponse{}
	}

	date := strings.TrimSpace(*result.ExpirationDate)
	if _, err := time.Parse(domain.ExpiryDateLayout, date); err != nil {
		s.logger.Warn().Str("op", "recognize-date").Str("date", date).Msg("gemini returned a malformed date")
		return domain.RecognizeDateResponse{}
	}
	return domain.RecognizeDateResponse{ExpirationDate: &date}
}

// cleanList trims entries and drops blanks and case-insensitive duplicates.
func cleanList(values []string) []string {
	out := make([]string, 0, len(values))
	seen := make(map[string]bool, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		key := strings.ToLower(v)
		if v == "" || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, v)
	}
	return out
}
