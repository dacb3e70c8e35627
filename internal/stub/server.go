package stub

import (
	"log"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"

	"lemonade/internal/middleware"
	"lemonade/internal/models"
	"lemonade/pkg/rabbitmq"
)

// Config holds stub backend settings.
type Config struct {
	JWTSecret string
}

// Server implements the remote storefront contract the client depends
// on: catalog listing, order submission, auth, per-user address and
// order history. It stands in for the real backend in development and
// in tests.
type Server struct {
	app      *fiber.App
	products *productRepo
	users    *userRepo
	orders   *orderRepo
	auth     *AuthService
	mq       *rabbitmq.Client
	validate *validator.Validate
}

// NewServer creates a stub backend. mq may be nil, in which case order
// events are not published.
func NewServer(cfg Config, mq *rabbitmq.Client) *Server {
	s := &Server{
		app:      fiber.New(),
		products: newProductRepo(),
		users:    newUserRepo(),
		orders:   newOrderRepo(),
		mq:       mq,
		validate: validator.New(),
	}
	s.auth = NewAuthService(s.users, cfg.JWTSecret)

	s.app.Use(logger.New())

	api := s.app.Group("/api")
	api.Get("/products", s.handleProducts)
	api.Post("/orders", s.handleCreateOrder)
	api.Post("/auth/login", s.handleLogin)
	api.Post("/auth/signup", s.handleSignup)
	api.Put("/user/address/:userId", s.handleSaveAddress)
	api.Get("/user/orders/:userId", s.handleUserOrders)

	// Catalog management is not part of the client contract; it is
	// behind token auth like the real backend's admin surface.
	admin := api.Group("/admin", middleware.AuthRequired(s.auth))
	admin.Post("/products", s.handleCreateProduct)
	admin.Put("/products/:id", s.handleUpdateProduct)
	admin.Delete("/products/:id", s.handleDeleteProduct)

	return s
}

// App exposes the underlying Fiber app for embedding and tests.
func (s *Server) App() *fiber.App {
	return s.app
}

// Listen serves the stub backend on the given address.
func (s *Server) Listen(addr string) error {
	return s.app.Listen(addr)
}

// Shutdown stops the stub backend.
func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}

// SeedProducts loads an initial catalog.
func (s *Server) SeedProducts(products []models.Product) {
	for i := range products {
		s.products.Create(&products[i])
	}
}

func (s *Server) handleProducts(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"success":  true,
		"products": s.products.GetAll(),
	})
}

func (s *Server) handleCreateOrder(c *fiber.Ctx) error {
	var req models.OrderRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "Invalid request body",
		})
	}
	if req.CustomerID == "" || len(req.Items) == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "Customer and at least one item are required",
		})
	}
	if req.PaymentMethod != models.PaymentMpesa && req.PaymentMethod != models.PaymentCash {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "Unsupported payment method",
		})
	}

	// Recompute the total from the submitted lines and decrement stock
	// for products we know about.
	var total float64
	for _, item := range req.Items {
		total += item.Subtotal()
		if product, ok := s.products.GetByID(item.ProductID); ok {
			if product.Stock < item.Quantity {
				return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
					"success": false,
					"message": "Insufficient stock for " + product.Name,
				})
			}
			product.Stock -= item.Quantity
			if err := s.products.Update(product); err != nil {
				log.Printf("Failed to update stock for %s: %v", product.ID, err)
			}
		}
	}

	order := models.Order{
		Date:            time.Now().Format(time.RFC3339),
		Items:           req.Items,
		Total:           total,
		DeliveryAddress: req.DeliveryAddress,
		PaymentMethod:   req.PaymentMethod,
		PaymentStatus:   req.PaymentStatus,
		Status:          "pending",
	}
	s.orders.Create(&order, req.CustomerID)

	if s.mq != nil {
		event := map[string]interface{}{
			"orderID":    order.ID,
			"customerID": req.CustomerID,
			"status":     order.Status,
			"total":      order.Total,
		}
		if err := s.mq.PublishOrderCreated(event); err != nil {
			log.Printf("Warning: failed to publish order created event for %s: %v", order.ID, err)
		}
	}

	return c.JSON(fiber.Map{
		"success": true,
		"order":   order,
	})
}

// loginRequest mirrors the client's login body.
type loginRequest struct {
	Email    *string `json:"email"`
	Phone    *string `json:"phone"`
	Password string  `json:"password" validate:"required"`
}

func (s *Server) handleLogin(c *fiber.Ctx) error {
	var req loginRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "Invalid request body",
		})
	}
	if err := s.validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "Validation failed",
		})
	}

	var email, phone string
	if req.Email != nil {
		email = *req.Email
	}
	if req.Phone != nil {
		phone = *req.Phone
	}
	user, token, err := s.auth.Login(email, phone, req.Password)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"success": false,
			"message": err.Error(),
		})
	}
	return c.JSON(fiber.Map{
		"success": true,
		"user":    user,
		"token":   token,
	})
}

// signupRequest mirrors the client's signup body.
type signupRequest struct {
	Name     string  `json:"name" validate:"required"`
	Email    *string `json:"email" validate:"omitempty,email"`
	Phone    *string `json:"phone"`
	Password string  `json:"password" validate:"required"`
}

func (s *Server) handleSignup(c *fiber.Ctx) error {
	var req signupRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "Invalid request body",
		})
	}
	if err := s.validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "Validation failed",
		})
	}

	var email, phone string
	if req.Email != nil {
		email = *req.Email
	}
	if req.Phone != nil {
		phone = *req.Phone
	}
	if email == "" && phone == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "Email or phone is required",
		})
	}

	user, token, err := s.auth.Signup(req.Name, email, phone, req.Password)
	if err != nil {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"success": false,
			"message": err.Error(),
		})
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"user":    user,
		"token":   token,
	})
}

func (s *Server) handleSaveAddress(c *fiber.Ctx) error {
	var req struct {
		Address models.Address `json:"address"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "Invalid request body",
		})
	}
	if err := s.validate.Struct(req.Address); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "Street and city are required",
		})
	}

	if err := s.users.SetAddress(c.Params("userId"), req.Address); err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"success": false,
			"message": err.Error(),
		})
	}
	return c.JSON(fiber.Map{"success": true})
}

func (s *Server) handleUserOrders(c *fiber.Ctx) error {
	orders := s.orders.ByCustomer(c.Params("userId"))
	if orders == nil {
		orders = []models.Order{}
	}
	return c.JSON(fiber.Map{
		"success": true,
		"orders":  orders,
	})
}

func (s *Server) handleCreateProduct(c *fiber.Ctx) error {
	var product models.Product
	if err := c.BodyParser(&product); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "Invalid request body",
		})
	}
	if err := s.validate.Struct(product); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "Validation failed",
		})
	}
	if product.Status == "" {
		product.Status = models.ProductStatusActive
	}
	s.products.Create(&product)
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"product": product,
	})
}

func (s *Server) handleUpdateProduct(c *fiber.Ctx) error {
	var product models.Product
	if err := c.BodyParser(&product); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "Invalid request body",
		})
	}
	product.ID = c.Params("id")
	if err := s.products.Update(product); err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"success": false,
			"message": err.Error(),
		})
	}
	return c.JSON(fiber.Map{
		"success": true,
		"product": product,
	})
}

func (s *Server) handleDeleteProduct(c *fiber.Ctx) error {
	if err := s.products.Delete(c.Params("id")); err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"success": false,
			"message": err.Error(),
		})
	}
	return c.JSON(fiber.Map{"success": true})
}
