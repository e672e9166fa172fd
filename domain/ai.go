package domain

import (
	"errors"
	"mime/multipart"
)

var (
	MessageSuccessAnalyzeImage    = "image analyzed successfully"
	MessageSuccessGenerateRecipe  = "recipe generated successfully"
	MessageSuccessFindSubstitutes = "substitutes retrieved successfully"
	MessageSuccessRecognizeDate   = "expiration date recognized"
	MessageFailedAnalyzeImage     = "failed to analyze image"
	MessageFailedGenerateRecipe   = "failed to generate recipe"
	MessageFailedFindSubstitutes  = "failed to find substitutes"
	MessageFailedRecognizeDate    = "failed to recognize expiration date"

	ErrGeminiProcessingFailed = errors.New("gemini processing failed")
	ErrGeminiNotConfigured    = errors.New("gemini api key not configured")
	ErrNoIngredients          = errors.New("no ingredients provided")
)

type (
	ImageRequest struct {
		Image *multipart.FileHeader `form:"image" validate:"required"`
	}

	GenerateRecipeRequest struct {
		ProductIDs  []int64  `json:"product_ids" validate:"omitempty,max=30"`
		Ingredients []string `json:"ingredients" validate:"omitempty,max=30,dive,required,max=100"`
		Preferences string   `json:"preferences" validate:"omitempty,max=500"`
	}

	FindSubstitutesRequest struct {
		Ingredient string   `json:"ingredient" validate:"required,max=100"`
		Available  []string `json:"available" validate:"omitempty,max=30,dive,required,max=100"`
	}

	IngredientsResponse struct {
		Ingredients []string `json:"ingredients"`
	}

	RecipeResponse struct {
		Title        string   `json:"title"`
		Ingredients  []string `json:"ingredients"`
		Instructions []string `json:"instructions"`
		Difficulty   string   `json:"difficulty"`
		Time         string   `json:"time"`
		Tips         []string `json:"tips"`
	}

	SubstitutesResponse struct {
		Ingredient  string   `json:"ingredient"`
		Substitutes []string `json:"substitutes"`
	}

	RecognizeDateResponse struct {
		ExpirationDate *string `json:"expiration_date"`
	}
)
