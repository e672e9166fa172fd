package routes

import (
	"Prazo-Certo/internal/api/handlers"
	"Prazo-Certo/internal/middleware"
	"Prazo-Certo/pkg/jwt"

	"github.com/gofiber/fiber/v2"
)

type Config struct {
	App             *fiber.App
	UserHandler     handlers.UserHandler
	CategoryHandler handlers.CategoryHandler
	ProductHandler  handlers.ProductHandler
	ShoppingHandler handlers.ShoppingHandler
	AIHandler       handlers.AIHandler
	StorageHandler  handlers.StorageHandler
	Middleware      middleware.Middleware
	JWTService      jwt.JWTService
}

func (c *Config) Setup() {
	c.App.Use(c.Middleware.CORSMiddleware())
	c.User()
	c.Categories()
	c.Products()
	c.ShoppingList()
	c.AI()
	c.Storage()
	c.GuestRoute()
}

func (c *Config) auth() fiber.Handler {
	return c.Middleware.AuthMiddleware(c.JWTService)
}

func (c *Config) User() {
	user := c.App.Group("/api/v1/users")
	{
		user.Post("/register", c.UserHandler.Register)
		user.Post("/login", c.UserHandler.Login)
		user.Post("/guest", c.UserHandler.GuestLogin)
		user.Get("/me", c.auth(), c.UserHandler.Me)
		user.Put("/settings", c.auth(), c.UserHandler.UpdateSettings)
	}
}

func (c *Config) GuestRoute() {
	c.App.Get("/api/ping", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"message": "pong"})
	})
	c.App.Get("/api/images/:filename", c.StorageHandler.ServeImage)
}

func (c *Config) Categories() {
	categories := c.App.Group("/api/v1/categories", c.auth())
	categories.Get("", c.CategoryHandler.GetCategories)
	categories.Post("", c.CategoryHandler.AddCategory)
	categories.Put("/:id", c.CategoryHandler.UpdateCategory)
	categories.Delete("/:id", c.CategoryHandler.DeleteCategory)
}

func (c *Config) Products() {
	products := c.App.Group("/api/v1/products", c.auth())

	// Aggregates and bulk operations, registered before /:id
	products.Get("/expiring", c.ProductHandler.GetExpiringProducts)
	products.Get("/summary", c.ProductHandler.GetExpirationSummary)
	products.Get("/stats", c.ProductHandler.GetConsumptionStats)
	products.Delete("/expired", c.ProductHandler.DeleteExpiredProducts)
	products.Delete("/all", c.ProductHandler.DeleteAllProducts)
	products.Post("/replenish", c.ProductHandler.ProcessAutoReplenish)

	// Basic CRUD operations
	products.Get("", c.ProductHandler.GetProducts)
	products.Post("", c.ProductHandler.AddProduct)
	products.Get("/:id", c.ProductHandler.GetProductDetails)
	products.Put("/:id", c.ProductHandler.UpdateProduct)
	products.Delete("/:id", c.ProductHandler.DeleteProduct)

	// Special operations
	products.Post("/:id/image", c.ProductHandler.UploadProductImage)
	products.Put("/:id/consume", c.ProductHandler.ConsumeProduct)
	products.Put("/:id/discard", c.ProductHandler.DiscardProduct)
	products.Post("/:id/shopping-list", c.ProductHandler.AddToShoppingList)
}

func (c *Config) ShoppingList() {
	shopping := c.App.Group("/api/v1/shopping-list", c.auth())
	shopping.Get("", c.ShoppingHandler.GetShoppingList)
	shopping.Post("", c.ShoppingHandler.AddShoppingItem)
	shopping.Put("/:id/purchase", c.ShoppingHandler.PurchaseShoppingItem)
	shopping.Delete("/:id", c.ShoppingHandler.DeleteShoppingItem)
}

func (c *Config) AI() {
	ai := c.App.Group("/api/v1/ai", c.auth())
	ai.Post("/analyze-image", c.AIHandler.AnalyzeImage)
	ai.Post("/generate-recipe", c.AIHandler.GenerateRecipe)
	ai.Post("/find-substitutes", c.AIHandler.FindSubstitutes)
	ai.Post("/recognize-date", c.AIHandler.RecognizeDate)
}

func (c *Config) Storage() {
	storage := c.App.Group("/api/v1/storage", c.auth(), c.Middleware.AdminMiddleware())
	storage.Get("/status", c.StorageHandler.GetStatus)
	storage.Post("/provider", c.StorageHandler.SetProvider)
	storage.Post("/migrate", c.StorageHandler.MigrateToHierarchical)
}
