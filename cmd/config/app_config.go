package config

import (
	"Prazo-Certo/internal/api/handlers"
	"Prazo-Certo/internal/api/routes"
	"Prazo-Certo/internal/middleware"
	"Prazo-Certo/internal/utils"
	filestorage "Prazo-Certo/internal/utils/storage"
	"Prazo-Certo/pkg/ai"
	"Prazo-Certo/pkg/category"
	"Prazo-Certo/pkg/jwt"
	"Prazo-Certo/pkg/product"
	"Prazo-Certo/pkg/shopping"
	"Prazo-Certo/pkg/storage"
	"Prazo-Certo/pkg/user"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/rs/zerolog"
)

// NewFileStorage prefers S3 and falls back to a local directory. The local
// store is returned separately so the image route can serve it.
func NewFileStorage(ctx context.Context, log zerolog.Logger) (filestorage.FileStorage, *filestorage.LocalStorage, error) {
	if filestorage.S3Configured() {
		s3, err := filestorage.NewAwsS3(ctx)
		if err == nil {
			return s3, nil, nil
		}
		log.Warn().Err(err).Msg("aws s3 unavailable, storing images locally")
	}
	local, err := filestorage.NewLocalStorage(utils.GetConfig("IMAGE_DIR"), utils.GetConfig("APP_URL"))
	if err != nil {
		return nil, nil, err
	}
	return local, local, nil
}

func NewApp(ctx context.Context, proxy *storage.Proxy, log zerolog.Logger) (*fiber.App, error) {
	utils.InitValidator()
	app := fiber.New(fiber.Config{
		BodyLimit: filestorage.MaxUploadSize + 1<<20,
	})
	middlewares := middleware.NewMiddleware(utils.GetConfig("CORS_ORIGINS"))
	validator := utils.Validate

	// setting up logging and limiter
	accessLog := filepath.Join(filepath.Dir(utils.GetConfig("LOG_FILE")), "access.log")
	if err := os.MkdirAll(filepath.Dir(accessLog), os.ModePerm); err != nil {
		return nil, fmt.Errorf("error creating logs directory: %w", err)
	}
	file, err := os.OpenFile(accessLog, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0666)
	if err != nil {
		return nil, fmt.Errorf("error opening file: %w", err)
	}
	app.Use(logger.New(logger.Config{
		TimeFormat: "2006-01-02 15:04:05",
		TimeZone:   utils.GetConfig("TIMEZONE"),
		Output:     file,
	}))

	app.Use(limiter.New(limiter.Config{
		Max:        20,
		Expiration: 1 * time.Second,
	}))

	// utils
	files, localImages, err := NewFileStorage(ctx, log)
	if err != nil {
		return nil, err
	}
	gemini := ai.NewGemini(ai.GeminiConfig{
		APIKey:  utils.GetConfig("GEMINI_API_KEY"),
		Model:   utils.GetConfig("GEMINI_MODEL"),
		BaseURL: utils.GetConfig("GEMINI_BASE_URL"),
	})

	// Service
	jwtService := jwt.NewJWTService()
	categoryService := category.NewCategoryService(proxy)
	userService := user.NewUserService(proxy, jwtService, utils.GetConfigList("ADMIN_USERNAMES"))
	shoppingService := shopping.NewShoppingService(proxy, categoryService)
	productService := product.NewProductService(proxy, categoryService, files, product.Config{
		Location:      Location(),
		MaxImageWidth: uint(utils.GetConfigInt("IMAGE_MAX_WIDTH")),
		Clock:         Clock(),
		Logger:        log,
	})
	aiService := ai.NewAIService(gemini, proxy, log.With().Str("component", "ai").Logger())

	// Handler
	routesConfig := routes.Config{
		App:             app,
		UserHandler:     handlers.NewUserHandler(userService, validator),
		CategoryHandler: handlers.NewCategoryHandler(categoryService, validator),
		ProductHandler:  handlers.NewProductHandler(productService, validator),
		ShoppingHandler: handlers.NewShoppingHandler(shoppingService, validator),
		AIHandler:       handlers.NewAIHandler(aiService, validator),
		StorageHandler:  handlers.NewStorageHandler(proxy, localImages, validator),
		Middleware:      middlewares,
		JWTService:      jwtService,
	}
	routesConfig.Setup()
	return app, nil
}
