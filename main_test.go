package main

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/stretchr/testify/assert"

	"lemonade/internal/api"
	"lemonade/internal/storage"
	"lemonade/internal/stub"
)

func TestHealthCheck(t *testing.T) {
	backend := stub.NewServer(stub.Config{JWTSecret: "test-secret"}, nil)
	backendServer := httptest.NewServer(adaptor.FiberApp(backend.App()))
	defer backendServer.Close()

	app := NewApp(storage.NewMemoryStore(), api.NewClient(backendServer.URL))

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	resp, err := app.Test(req, -1)
	assert.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var body map[string]interface{}
	assert.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "healthy", body["status"])
}

func TestAppServesSeededCatalog(t *testing.T) {
	backend := stub.NewServer(stub.Config{JWTSecret: "test-secret"}, nil)
	backend.SeedProducts(seedProducts())
	backendServer := httptest.NewServer(adaptor.FiberApp(backend.App()))
	defer backendServer.Close()

	app := NewApp(storage.NewMemoryStore(), api.NewClient(backendServer.URL))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/products", nil)
	resp, err := app.Test(req, -1)
	assert.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var body map[string]interface{}
	assert.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Len(t, body["data"], 4)
}
