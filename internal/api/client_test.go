package api_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"lemonade/internal/api"
	"lemonade/internal/models"
)

func TestClient_FetchProducts(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/api/products", r.URL.Path)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"success": true,
			"products": []models.Product{
				{ID: "p1", Name: "Classic Lemonade", Price: 3.50, Status: models.ProductStatusActive, Stock: 10},
			},
		})
	}))
	defer server.Close()

	client := api.NewClient(server.URL)
	products, err := client.FetchProducts(context.Background())
	assert.NoError(t, err)
	assert.Len(t, products, 1)
	assert.Equal(t, "Classic Lemonade", products[0].Name)
}

func TestClient_CreateOrder(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/orders", r.URL.Path)

		var req models.OrderRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "Alice", req.CustomerName)
		assert.Equal(t, models.PaymentMpesa, req.PaymentMethod)

		json.NewEncoder(w).Encode(map[string]interface{}{
			"success": true,
			"order":   models.Order{ID: "o1", OrderNumber: "LMN-00001", Total: req.Total},
		})
	}))
	defer server.Close()

	client := api.NewClient(server.URL)
	order, err := client.CreateOrder(context.Background(), models.OrderRequest{
		CustomerName:  "Alice",
		PaymentMethod: models.PaymentMpesa,
		Total:         7.00,
	})
	assert.NoError(t, err)
	assert.Equal(t, "LMN-00001", order.OrderNumber)
	assert.InDelta(t, 7.00, order.Total, 0.001)
}

func TestClient_CreateOrder_ServerMessageSurfacesAsError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"success": false,
			"message": "insufficient stock for Classic Lemonade",
		})
	}))
	defer server.Close()

	client := api.NewClient(server.URL)
	_, err := client.CreateOrder(context.Background(), models.OrderRequest{})
	assert.ErrorContains(t, err, "insufficient stock")
}

func TestClient_Login_SendsNullForAbsentIdentifier(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]interface{}
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))

		// Email login: phone must be null, not "".
		assert.Equal(t, "alice@example.com", body["email"])
		assert.Nil(t, body["phone"])
		assert.Equal(t, "default-password", body["password"])

		json.NewEncoder(w).Encode(map[string]interface{}{
			"success": true,
			"user":    models.User{ID: "u1", Name: "Alice", Email: "alice@example.com"},
		})
	}))
	defer server.Close()

	client := api.NewClient(server.URL)
	user, err := client.Login(context.Background(), "alice@example.com", "", "default-password")
	assert.NoError(t, err)
	assert.Equal(t, "u1", user.ID)
}

func TestClient_Signup(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/auth/signup", r.URL.Path)
		var body map[string]interface{}
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "Alice", body["name"])
		assert.Nil(t, body["email"])
		assert.Equal(t, "0712345678", body["phone"])

		json.NewEncoder(w).Encode(map[string]interface{}{
			"success": true,
			"user":    models.User{ID: "u1", Name: "Alice", Phone: "0712345678"},
		})
	}))
	defer server.Close()

	client := api.NewClient(server.URL)
	user, err := client.Signup(context.Background(), "Alice", "", "0712345678", "default-password")
	assert.NoError(t, err)
	assert.Equal(t, "0712345678", user.Phone)
}

func TestClient_SaveAddress(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		assert.Equal(t, "/api/user/address/u1", r.URL.Path)

		var body map[string]models.Address
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "Moi Ave, Nairobi", body["address"].FullAddress)

		json.NewEncoder(w).Encode(map[string]interface{}{"success": true})
	}))
	defer server.Close()

	client := api.NewClient(server.URL)
	err := client.SaveAddress(context.Background(), "u1", models.Address{
		Street: "Moi Ave", City: "Nairobi", FullAddress: "Moi Ave, Nairobi",
	})
	assert.NoError(t, err)
}

func TestClient_OrderHistory(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/user/orders/u1", r.URL.Path)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"success": true,
			"orders": []models.Order{
				{ID: "o2", OrderNumber: "LMN-00002"},
				{ID: "o1", OrderNumber: "LMN-00001"},
			},
		})
	}))
	defer server.Close()

	client := api.NewClient(server.URL)
	orders, err := client.OrderHistory(context.Background(), "u1")
	assert.NoError(t, err)
	assert.Len(t, orders, 2)
	assert.Equal(t, "LMN-00002", orders[0].OrderNumber)
}

func TestClient_MalformedResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html>gateway error</html>"))
	}))
	defer server.Close()

	client := api.NewClient(server.URL)
	_, err := client.FetchProducts(context.Background())
	assert.ErrorContains(t, err, "malformed response")
}
