package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"lemonade/internal/models"
)

// ProductAPI is the catalog side of the remote service.
type ProductAPI interface {
	FetchProducts(ctx context.Context) ([]models.Product, error)
}

// OrderAPI submits orders and lists a user's order history.
type OrderAPI interface {
	CreateOrder(ctx context.Context, req models.OrderRequest) (*models.Order, error)
	OrderHistory(ctx context.Context, userID string) ([]models.Order, error)
}

// AuthAPI handles login and signup against the remote auth service.
type AuthAPI interface {
	Login(ctx context.Context, email, phone, password string) (*models.User, error)
	Signup(ctx context.Context, name, email, phone, password string) (*models.User, error)
}

// UserAPI persists per-user data on the remote side.
type UserAPI interface {
	SaveAddress(ctx context.Context, userID string, address models.Address) error
}

// Client talks to the remote storefront backend. It implements
// ProductAPI, OrderAPI, AuthAPI and UserAPI.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient creates a new Client for the given base URL.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: 15 * time.Second},
	}
}

// envelope is the common response wrapper every endpoint uses.
type envelope struct {
	Success  bool             `json:"success"`
	Message  string           `json:"message"`
	Products []models.Product `json:"products"`
	Order    *models.Order    `json:"order"`
	Orders   []models.Order   `json:"orders"`
	User     *models.User     `json:"user"`
}

// doJSON performs one request and decodes the response envelope. A
// non-2xx status or success=false is returned as an error carrying the
// server's message when it sent one.
func (c *Client) doJSON(ctx context.Context, method, path string, body interface{}) (*envelope, error) {
	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request to %s failed: %w", path, err)
	}
	defer resp.Body.Close()

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return nil, fmt.Errorf("malformed response from %s: %w", path, err)
	}
	if !env.Success {
		if env.Message != "" {
			return nil, fmt.Errorf("%s", env.Message)
		}
		return nil, fmt.Errorf("unsuccessful response from %s (status %d)", path, resp.StatusCode)
	}
	return &env, nil
}

// FetchProducts retrieves the full product list.
func (c *Client) FetchProducts(ctx context.Context) ([]models.Product, error) {
	env, err := c.doJSON(ctx, http.MethodGet, "/api/products", nil)
	if err != nil {
		return nil, err
	}
	return env.Products, nil
}

// CreateOrder submits an order request and returns the confirmed order.
func (c *Client) CreateOrder(ctx context.Context, req models.OrderRequest) (*models.Order, error) {
	env, err := c.doJSON(ctx, http.MethodPost, "/api/orders", req)
	if err != nil {
		return nil, err
	}
	if env.Order == nil {
		return nil, fmt.Errorf("order service confirmed without an order payload")
	}
	return env.Order, nil
}

// OrderHistory lists the orders placed by userID.
func (c *Client) OrderHistory(ctx context.Context, userID string) ([]models.Order, error) {
	env, err := c.doJSON(ctx, http.MethodGet, "/api/user/orders/"+userID, nil)
	if err != nil {
		return nil, err
	}
	return env.Orders, nil
}

// loginRequest mirrors the auth service's login body; exactly one of
// email/phone is set.
type loginRequest struct {
	Email    *string `json:"email"`
	Phone    *string `json:"phone"`
	Password string  `json:"password"`
}

// Login authenticates by email or phone.
func (c *Client) Login(ctx context.Context, email, phone, password string) (*models.User, error) {
	body := loginRequest{Password: password}
	if email != "" {
		body.Email = &email
	}
	if phone != "" {
		body.Phone = &phone
	}
	env, err := c.doJSON(ctx, http.MethodPost, "/api/auth/login", body)
	if err != nil {
		return nil, err
	}
	if env.User == nil {
		return nil, fmt.Errorf("auth service returned no user")
	}
	return env.User, nil
}

type signupRequest struct {
	Name     string  `json:"name"`
	Email    *string `json:"email"`
	Phone    *string `json:"phone"`
	Password string  `json:"password"`
}

// Signup registers a new account and returns its profile.
func (c *Client) Signup(ctx context.Context, name, email, phone, password string) (*models.User, error) {
	body := signupRequest{Name: name, Password: password}
	if email != "" {
		body.Email = &email
	}
	if phone != "" {
		body.Phone = &phone
	}
	env, err := c.doJSON(ctx, http.MethodPost, "/api/auth/signup", body)
	if err != nil {
		return nil, err
	}
	if env.User == nil {
		return nil, fmt.Errorf("auth service returned no user")
	}
	return env.User, nil
}

// SaveAddress stores the user's delivery address on the remote side.
func (c *Client) SaveAddress(ctx context.Context, userID string, address models.Address) error {
	body := map[string]models.Address{"address": address}
	_, err := c.doJSON(ctx, http.MethodPut, "/api/user/address/"+userID, body)
	return err
}
