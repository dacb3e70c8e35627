package handlers_test

import (
	"bytes"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/stretchr/testify/assert"

	"lemonade/internal/api"
	"lemonade/internal/dispatcher"
	"lemonade/internal/handlers"
	"lemonade/internal/models"
	"lemonade/internal/services"
	"lemonade/internal/storage"
	"lemonade/internal/stub"
)

func TestMain(m *testing.M) {
	log.SetOutput(io.Discard)
	os.Exit(m.Run())
}

// setupApp runs the stub backend behind a real HTTP listener and builds
// the storefront app against it, so requests exercise the full path:
// handler, dispatcher, managers, HTTP client, backend.
func setupApp(t *testing.T) (*fiber.App, func()) {
	t.Helper()

	backend := stub.NewServer(stub.Config{JWTSecret: "test-secret"}, nil)
	backend.SeedProducts([]models.Product{
		{ID: "p1", Name: "Classic Lemonade", Price: 3.50, Category: "classic", Stock: 40, Status: models.ProductStatusActive, Tags: "lemon classic"},
		{ID: "p2", Name: "Minty Lemonade", Price: 4.00, Category: "special", Stock: 25, Status: models.ProductStatusActive, Tags: "lemon mint"},
		{ID: "p3", Name: "Ginger Lemonade", Price: 4.25, Category: "special", Stock: 0, Status: models.ProductStatusActive, Tags: "lemon ginger"},
	})
	backendServer := httptest.NewServer(adaptor.FiberApp(backend.App()))

	store := storage.NewMemoryStore()
	client := api.NewClient(backendServer.URL)

	cart := services.NewCartService(store)
	session := services.NewSessionService(store, client, client)
	catalog := services.NewCatalogService(client)
	notifications := services.NewNotificationService(store)
	prefs := services.NewPreferenceService(store)
	checkout := services.NewCheckoutService(cart, session, notifications, client)

	d := dispatcher.New(catalog, cart, session, checkout, notifications, prefs, client)

	app := fiber.New()
	handlers.NewStorefrontHandler(d).RegisterRoutes(app.Group("/api/v1"))

	return app, backendServer.Close
}

func request(t *testing.T, app *fiber.App, method, path string, body interface{}) (int, map[string]interface{}) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		assert.NoError(t, err)
		reader = bytes.NewReader(payload)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req, -1)
	assert.NoError(t, err)
	defer resp.Body.Close()

	var decoded map[string]interface{}
	assert.NoError(t, json.NewDecoder(resp.Body).Decode(&decoded))
	return resp.StatusCode, decoded
}

func TestStorefront_FullPurchaseFlow(t *testing.T) {
	app, teardown := setupApp(t)
	defer teardown()

	// Load the catalog from the backend.
	status, _ := request(t, app, http.MethodPost, "/api/v1/catalog/refresh", nil)
	assert.Equal(t, http.StatusOK, status)

	status, body := request(t, app, http.MethodGet, "/api/v1/products", nil)
	assert.Equal(t, http.StatusOK, status)
	assert.Len(t, body["data"], 3)

	// Sign up.
	status, body = request(t, app, http.MethodPost, "/api/v1/auth/signup", map[string]interface{}{
		"name":  "Alice",
		"phone": "0712345678",
	})
	assert.Equal(t, http.StatusOK, status)
	assert.Contains(t, body["message"], "Welcome to Lily's Lemonade, Alice!")

	// Add to cart; price comes from the catalog.
	status, body = request(t, app, http.MethodPost, "/api/v1/cart/items", map[string]interface{}{
		"product_id": "p1",
		"quantity":   2,
	})
	assert.Equal(t, http.StatusOK, status)
	assert.Contains(t, body["message"], "Classic Lemonade")

	status, body = request(t, app, http.MethodGet, "/api/v1/cart/", nil)
	assert.Equal(t, http.StatusOK, status)
	snapshot := body["data"].(map[string]interface{})
	assert.InDelta(t, 7.00, snapshot["total"].(float64), 0.001)

	// Walk the checkout.
	status, _ = request(t, app, http.MethodPost, "/api/v1/checkout/", nil)
	assert.Equal(t, http.StatusOK, status)

	status, _ = request(t, app, http.MethodPost, "/api/v1/checkout/address", map[string]interface{}{
		"street":   "Moi Ave",
		"landmark": "City Market",
		"city":     "Nairobi",
	})
	assert.Equal(t, http.StatusOK, status)

	status, _ = request(t, app, http.MethodPost, "/api/v1/checkout/payment", map[string]interface{}{
		"method": "mpesa",
		"phone":  "0712345678",
	})
	assert.Equal(t, http.StatusOK, status)

	status, _ = request(t, app, http.MethodPost, "/api/v1/checkout/terms", map[string]interface{}{
		"agreed": true,
	})
	assert.Equal(t, http.StatusOK, status)

	status, body = request(t, app, http.MethodPost, "/api/v1/checkout/submit", nil)
	assert.Equal(t, http.StatusOK, status)
	assert.Contains(t, body["message"], "M-Pesa Order Confirmed")

	// The cart is empty and a notification was appended.
	_, body = request(t, app, http.MethodGet, "/api/v1/cart/", nil)
	assert.Equal(t, float64(0), body["data"].(map[string]interface{})["count"])

	_, body = request(t, app, http.MethodGet, "/api/v1/notifications", nil)
	assert.Len(t, body["data"], 1)

	// Order history lists the confirmed order.
	status, body = request(t, app, http.MethodGet, "/api/v1/orders", nil)
	assert.Equal(t, http.StatusOK, status)
	assert.Len(t, body["data"], 1)
}

func TestStorefront_CheckoutRequiresSignIn(t *testing.T) {
	app, teardown := setupApp(t)
	defer teardown()

	request(t, app, http.MethodPost, "/api/v1/catalog/refresh", nil)
	request(t, app, http.MethodPost, "/api/v1/cart/items", map[string]interface{}{
		"product_id": "p1",
	})

	status, body := request(t, app, http.MethodPost, "/api/v1/checkout/", nil)
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Contains(t, body["message"], "please sign in")
}

func TestStorefront_LoginUnknownIdentifierPromptsSignup(t *testing.T) {
	app, teardown := setupApp(t)
	defer teardown()

	status, body := request(t, app, http.MethodPost, "/api/v1/auth/login", map[string]interface{}{
		"identifier": "nobody@example.com",
	})
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Contains(t, body["message"], "signing up")
}

func TestStorefront_OutOfStockRejected(t *testing.T) {
	app, teardown := setupApp(t)
	defer teardown()

	request(t, app, http.MethodPost, "/api/v1/catalog/refresh", nil)

	status, body := request(t, app, http.MethodPost, "/api/v1/cart/items", map[string]interface{}{
		"product_id": "p3",
	})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Contains(t, body["message"], "out of stock")
}

func TestStorefront_ValidationErrors(t *testing.T) {
	app, teardown := setupApp(t)
	defer teardown()

	// Missing product id.
	status, body := request(t, app, http.MethodPost, "/api/v1/cart/items", map[string]interface{}{
		"quantity": 1,
	})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "Validation failed", body["message"])

	// Unsupported payment method never reaches the dispatcher.
	status, body = request(t, app, http.MethodPost, "/api/v1/checkout/payment", map[string]interface{}{
		"method": "barter",
	})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "Validation failed", body["message"])
}

func TestStorefront_CatalogSearchAndCategory(t *testing.T) {
	app, teardown := setupApp(t)
	defer teardown()

	request(t, app, http.MethodPost, "/api/v1/catalog/refresh", nil)

	_, body := request(t, app, http.MethodGet, "/api/v1/products?category=special", nil)
	assert.Len(t, body["data"], 2)

	_, body = request(t, app, http.MethodGet, "/api/v1/products?search=mint", nil)
	products := body["data"].([]interface{})
	assert.Len(t, products, 1)
	assert.Equal(t, "Minty Lemonade", products[0].(map[string]interface{})["name"])
}

func TestStorefront_SaveAddressAndReuseInCheckout(t *testing.T) {
	app, teardown := setupApp(t)
	defer teardown()

	request(t, app, http.MethodPost, "/api/v1/catalog/refresh", nil)
	request(t, app, http.MethodPost, "/api/v1/auth/signup", map[string]interface{}{
		"name":  "Alice",
		"phone": "0712345678",
	})

	status, body := request(t, app, http.MethodPut, "/api/v1/address", map[string]interface{}{
		"street":   "Moi Ave",
		"landmark": "City Market",
		"city":     "Nairobi",
	})
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "Address saved successfully!", body["message"])

	request(t, app, http.MethodPost, "/api/v1/cart/items", map[string]interface{}{
		"product_id": "p1",
	})

	status, body = request(t, app, http.MethodPost, "/api/v1/checkout/", nil)
	assert.Equal(t, http.StatusOK, status)
	checkout := body["data"].(map[string]interface{})
	assert.Equal(t, true, checkout["UsingSavedAddress"])
}

func TestStorefront_ThemeToggle(t *testing.T) {
	app, teardown := setupApp(t)
	defer teardown()

	_, body := request(t, app, http.MethodPost, "/api/v1/theme/toggle", nil)
	assert.Equal(t, "dark", body["data"])

	_, body = request(t, app, http.MethodPost, "/api/v1/theme/toggle", nil)
	assert.Equal(t, "light", body["data"])
}
