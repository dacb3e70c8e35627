package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/spf13/viper"
	"github.com/streadway/amqp"

	"lemonade/internal/api"
	"lemonade/internal/dispatcher"
	"lemonade/internal/handlers"
	"lemonade/internal/models"
	"lemonade/internal/services"
	"lemonade/internal/storage"
	"lemonade/internal/stub"
	"lemonade/pkg/rabbitmq"
)

func main() {
	// --- Configuration ---
	viper.SetDefault("APP_PORT", ":8080")
	viper.SetDefault("API_BASE_URL", "http://localhost:5000")
	viper.SetDefault("STORE_DRIVER", "sqlite")
	viper.SetDefault("STORE_DSN", "lemonade.db")
	viper.SetDefault("REDIS_URL", "redis://localhost:6379/0")
	viper.SetDefault("RABBITMQ_URL", "")
	viper.SetDefault("EMBED_STUB", false)
	viper.SetDefault("STUB_PORT", ":5000")
	viper.SetDefault("JWT_SECRET", "lemonade-dev-secret")
	viper.AutomaticEnv()

	appPort := viper.GetString("APP_PORT")

	// --- Optional RabbitMQ client for the embedded stub backend ---
	var mqClient *rabbitmq.Client
	if url := viper.GetString("RABBITMQ_URL"); url != "" {
		var err error
		mqClient, err = rabbitmq.NewClient(rabbitmq.Config{URL: url})
		if err != nil {
			log.Printf("RabbitMQ unavailable, order events disabled: %v", err)
		} else {
			defer mqClient.Close()
		}
	}

	// --- Embedded stub backend (development mode) ---
	if viper.GetBool("EMBED_STUB") {
		stubServer := stub.NewServer(stub.Config{JWTSecret: viper.GetString("JWT_SECRET")}, mqClient)
		stubServer.SeedProducts(seedProducts())

		go func() {
			if err := stubServer.Listen(viper.GetString("STUB_PORT")); err != nil {
				log.Fatalf("Stub backend failed to start: %v", err)
			}
		}()
		defer func() {
			if err := stubServer.Shutdown(); err != nil {
				log.Printf("Error during stub shutdown: %v", err)
			}
		}()

		if mqClient != nil {
			log.Println("Starting order event consumer...")
			err := mqClient.ConsumeOrderEvents(func(msg amqp.Delivery) error {
				log.Printf("Received order event (tag %d): %s", msg.DeliveryTag, string(msg.Body))
				return nil
			})
			if err != nil {
				log.Printf("Failed to start order event consumer: %v", err)
			}
		}
	}

	// --- Durable store ---
	store := openStore()

	// --- Storefront app ---
	client := api.NewClient(viper.GetString("API_BASE_URL"))
	app := NewApp(store, client)

	log.Printf("Starting storefront on port %s", appPort)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		if err := app.Listen(appPort); err != nil {
			log.Fatalf("Storefront failed to start: %v", err)
		}
	}()

	<-quit
	log.Println("Shutting down...")
	if err := app.Shutdown(); err != nil {
		log.Printf("Error during shutdown: %v", err)
	}
	log.Println("Storefront gracefully stopped")
}

// NewApp assembles the storefront: managers over the durable store and
// remote client, the action dispatcher and the HTTP projection of the
// view controller.
func NewApp(store storage.Store, client *api.Client) *fiber.App {
	cart := services.NewCartService(store)
	session := services.NewSessionService(store, client, client)
	catalog := services.NewCatalogService(client)
	notifications := services.NewNotificationService(store)
	prefs := services.NewPreferenceService(store)
	checkout := services.NewCheckoutService(cart, session, notifications, client)

	// Initial catalog load, best effort; the catalog stays empty on
	// failure and can be refreshed later.
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := catalog.Load(ctx); err != nil {
		log.Printf("Initial catalog load failed: %v", err)
	}

	d := dispatcher.New(catalog, cart, session, checkout, notifications, prefs, client)

	app := fiber.New()
	app.Use(logger.New())

	apiV1 := app.Group("/api/v1")
	handlers.NewStorefrontHandler(d).RegisterRoutes(apiV1)

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusOK).JSON(fiber.Map{
			"status": "healthy",
			"time":   time.Now().Format(time.RFC3339),
		})
	})

	return app
}

// openStore opens the configured durable store, falling back to the
// in-memory store so a broken backend never prevents startup.
func openStore() storage.Store {
	driver := viper.GetString("STORE_DRIVER")
	switch driver {
	case "memory":
		return storage.NewMemoryStore()
	case "redis":
		store, err := storage.OpenRedisStore(viper.GetString("REDIS_URL"))
		if err != nil {
			log.Printf("Redis store unavailable, using in-memory store: %v", err)
			return storage.NewMemoryStore()
		}
		return store
	default:
		store, err := storage.OpenGormStore(driver, viper.GetString("STORE_DSN"))
		if err != nil {
			log.Printf("%s store unavailable, using in-memory store: %v", driver, err)
			return storage.NewMemoryStore()
		}
		return store
	}
}

// seedProducts is the embedded stub backend's initial catalog.
func seedProducts() []models.Product {
	return []models.Product{
		{Name: "Classic Lemonade", Description: "Fresh squeezed, lightly sweetened", Price: 3.50, Category: "classic", Stock: 40, Status: models.ProductStatusActive, Tags: "lemon classic fresh"},
		{Name: "Minty Lemonade", Description: "Classic lemonade with crushed mint", Price: 4.00, Category: "special", Stock: 25, Status: models.ProductStatusActive, Tags: "lemon mint special"},
		{Name: "Lemon Tart", Description: "Buttery tart with lemon curd", Price: 5.50, Category: "treat", Stock: 12, Status: models.ProductStatusActive, Tags: "lemon dessert tart"},
		{Name: "Ginger Lemonade", Description: "A spicy twist on the classic", Price: 4.25, Category: "special", Stock: 0, Status: models.ProductStatusActive, Tags: "lemon ginger special"},
	}
}
