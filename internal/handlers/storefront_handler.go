package handlers

import (
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"lemonade/internal/dispatcher"
	"lemonade/internal/services"
)

// StorefrontHandler translates HTTP requests into dispatcher actions.
// It owns no business state; every response is rendered from the
// managers' authoritative state via the dispatch result.
type StorefrontHandler struct {
	dispatcher *dispatcher.Dispatcher
	validate   *validator.Validate
}

// NewStorefrontHandler creates a new StorefrontHandler.
func NewStorefrontHandler(d *dispatcher.Dispatcher) *StorefrontHandler {
	return &StorefrontHandler{
		dispatcher: d,
		validate:   validator.New(),
	}
}

// RegisterRoutes registers the storefront routes with the Fiber app.
func (h *StorefrontHandler) RegisterRoutes(router fiber.Router) {
	router.Get("/products", h.HandleProducts)
	router.Post("/catalog/refresh", h.HandleCatalogRefresh)

	cart := router.Group("/cart")
	cart.Get("/", h.HandleGetCart)
	cart.Post("/items", h.HandleAddToCart)
	cart.Delete("/items/:id", h.HandleRemoveFromCart)
	cart.Delete("/", h.HandleClearCart)

	auth := router.Group("/auth")
	auth.Post("/login", h.HandleLogin)
	auth.Post("/signup", h.HandleSignup)
	auth.Post("/logout", h.HandleLogout)
	router.Get("/session", h.HandleSession)

	router.Put("/profile", h.HandleUpdateProfile)
	router.Put("/address", h.HandleSaveAddress)

	checkout := router.Group("/checkout")
	checkout.Post("/", h.HandleBeginCheckout)
	checkout.Post("/address", h.HandleCheckoutAddress)
	checkout.Post("/address/use-saved", h.HandleUseSavedAddress)
	checkout.Post("/address/change", h.HandleChangeAddress)
	checkout.Post("/payment", h.HandleSelectPayment)
	checkout.Post("/terms", h.HandleAgreeTerms)
	checkout.Post("/submit", h.HandleSubmitOrder)
	checkout.Post("/buy-now", h.HandleBuyNow)
	checkout.Delete("/", h.HandleDismissCheckout)

	router.Get("/notifications", h.HandleNotifications)
	router.Get("/orders", h.HandleOrderHistory)
	router.Post("/theme/toggle", h.HandleToggleTheme)
}

// dispatch runs an action and renders the result, mapping errors onto
// the inline-message error surface: validation problems come back as
// 400, missing authentication as 401, remote-call failures as 502.
func (h *StorefrontHandler) dispatch(c *fiber.Ctx, a dispatcher.Action) error {
	result, err := h.dispatcher.Dispatch(c.UserContext(), a)
	if err != nil {
		log.Printf("Action %s failed: %v", a.Kind, err)
		status := fiber.StatusBadRequest
		switch {
		case errors.Is(err, services.ErrSignInRequired), errors.Is(err, services.ErrSignupRequired):
			status = fiber.StatusUnauthorized
		case errors.Is(err, services.ErrSubmitInFlight):
			status = fiber.StatusConflict
		case isRemoteFailure(err):
			status = fiber.StatusBadGateway
		}
		return c.Status(status).JSON(fiber.Map{
			"message": err.Error(),
		})
	}

	response := fiber.Map{}
	if result.Message != "" {
		response["message"] = result.Message
	}
	if result.Data != nil {
		response["data"] = result.Data
	}
	return c.JSON(response)
}

// isRemoteFailure picks out errors produced by a remote round-trip
// rather than by local validation.
func isRemoteFailure(err error) bool {
	for _, prefix := range []string{"failed to load catalog", "order failed", "failed to load order history", "signup failed"} {
		if strings.HasPrefix(err.Error(), prefix) {
			return true
		}
	}
	return false
}

// HandleProducts lists the cached catalog filtered by search and
// category query parameters.
func (h *StorefrontHandler) HandleProducts(c *fiber.Ctx) error {
	return h.dispatch(c, dispatcher.Action{
		Kind:       dispatcher.CatalogFilter,
		SearchTerm: c.Query("search"),
		Category:   c.Query("category"),
	})
}

// HandleCatalogRefresh re-fetches the catalog from the remote service.
func (h *StorefrontHandler) HandleCatalogRefresh(c *fiber.Ctx) error {
	return h.dispatch(c, dispatcher.Action{Kind: dispatcher.CatalogRefresh})
}

// AddToCartRequest is the body for cart additions.
type AddToCartRequest struct {
	ProductID string `json:"product_id" validate:"required"`
	Quantity  int    `json:"quantity"`
}

// HandleAddToCart adds a product to the cart.
func (h *StorefrontHandler) HandleAddToCart(c *fiber.Ctx) error {
	var req AddToCartRequest
	if err := h.parse(c, &req); err != nil {
		return err
	}
	return h.dispatch(c, dispatcher.Action{
		Kind:      dispatcher.CartAdd,
		ProductID: req.ProductID,
		Quantity:  req.Quantity,
	})
}

// HandleRemoveFromCart removes a cart line by product id.
func (h *StorefrontHandler) HandleRemoveFromCart(c *fiber.Ctx) error {
	return h.dispatch(c, dispatcher.Action{
		Kind:      dispatcher.CartRemove,
		ProductID: c.Params("id"),
	})
}

// HandleClearCart empties the cart.
func (h *StorefrontHandler) HandleClearCart(c *fiber.Ctx) error {
	return h.dispatch(c, dispatcher.Action{Kind: dispatcher.CartClear})
}

// HandleGetCart renders the current cart.
func (h *StorefrontHandler) HandleGetCart(c *fiber.Ctx) error {
	return h.dispatch(c, dispatcher.Action{Kind: dispatcher.CartView})
}

// LoginRequest is the body for login: one identifier, email or phone.
type LoginRequest struct {
	Identifier string `json:"identifier" validate:"required"`
}

// HandleLogin signs the user in.
func (h *StorefrontHandler) HandleLogin(c *fiber.Ctx) error {
	var req LoginRequest
	if err := h.parse(c, &req); err != nil {
		return err
	}
	return h.dispatch(c, dispatcher.Action{
		Kind:       dispatcher.AuthLogin,
		Identifier: req.Identifier,
	})
}

// SignupRequest is the body for signup.
type SignupRequest struct {
	Name  string `json:"name" validate:"required"`
	Email string `json:"email" validate:"omitempty,email"`
	Phone string `json:"phone"`
}

// HandleSignup registers a new account.
func (h *StorefrontHandler) HandleSignup(c *fiber.Ctx) error {
	var req SignupRequest
	if err := h.parse(c, &req); err != nil {
		return err
	}
	return h.dispatch(c, dispatcher.Action{
		Kind:  dispatcher.AuthSignup,
		Name:  req.Name,
		Email: req.Email,
		Phone: req.Phone,
	})
}

// HandleLogout signs the user out.
func (h *StorefrontHandler) HandleLogout(c *fiber.Ctx) error {
	return h.dispatch(c, dispatcher.Action{Kind: dispatcher.AuthLogout})
}

// HandleSession renders the current session state.
func (h *StorefrontHandler) HandleSession(c *fiber.Ctx) error {
	return h.dispatch(c, dispatcher.Action{Kind: dispatcher.SessionView})
}

// ProfileRequest is the body for profile updates.
type ProfileRequest struct {
	Name  string `json:"name" validate:"required"`
	Email string `json:"email" validate:"omitempty,email"`
	Phone string `json:"phone"`
}

// HandleUpdateProfile edits the signed-in user's profile.
func (h *StorefrontHandler) HandleUpdateProfile(c *fiber.Ctx) error {
	var req ProfileRequest
	if err := h.parse(c, &req); err != nil {
		return err
	}
	return h.dispatch(c, dispatcher.Action{
		Kind:  dispatcher.ProfileUpdate,
		Name:  req.Name,
		Email: req.Email,
		Phone: req.Phone,
	})
}

// AddressRequest is the body for address entry, both the standalone
// save and the checkout address step.
type AddressRequest struct {
	Street   string `json:"street" validate:"required"`
	Landmark string `json:"landmark"`
	City     string `json:"city" validate:"required"`
	Notes    string `json:"notes"`
}

// HandleSaveAddress stores the user's delivery address.
func (h *StorefrontHandler) HandleSaveAddress(c *fiber.Ctx) error {
	var req AddressRequest
	if err := h.parse(c, &req); err != nil {
		return err
	}
	return h.dispatch(c, dispatcher.Action{
		Kind:     dispatcher.AddressSave,
		Street:   req.Street,
		Landmark: req.Landmark,
		City:     req.City,
	})
}

// HandleBeginCheckout opens a checkout session.
func (h *StorefrontHandler) HandleBeginCheckout(c *fiber.Ctx) error {
	return h.dispatch(c, dispatcher.Action{Kind: dispatcher.CheckoutBegin})
}

// HandleCheckoutAddress records a manually entered delivery address.
func (h *StorefrontHandler) HandleCheckoutAddress(c *fiber.Ctx) error {
	var req AddressRequest
	if err := h.parse(c, &req); err != nil {
		return err
	}
	return h.dispatch(c, dispatcher.Action{
		Kind:     dispatcher.CheckoutSetAddress,
		Street:   req.Street,
		Landmark: req.Landmark,
		City:     req.City,
		Notes:    req.Notes,
	})
}

// HandleUseSavedAddress accepts the saved address for this checkout.
func (h *StorefrontHandler) HandleUseSavedAddress(c *fiber.Ctx) error {
	return h.dispatch(c, dispatcher.Action{Kind: dispatcher.CheckoutUseSaved})
}

// HandleChangeAddress switches the checkout back to manual entry.
func (h *StorefrontHandler) HandleChangeAddress(c *fiber.Ctx) error {
	return h.dispatch(c, dispatcher.Action{Kind: dispatcher.CheckoutChangeAddress})
}

// PaymentRequest is the body for payment selection.
type PaymentRequest struct {
	Method string `json:"method" validate:"required,oneof=mpesa cash"`
	Phone  string `json:"phone"`
}

// HandleSelectPayment chooses the payment method.
func (h *StorefrontHandler) HandleSelectPayment(c *fiber.Ctx) error {
	var req PaymentRequest
	if err := h.parse(c, &req); err != nil {
		return err
	}
	return h.dispatch(c, dispatcher.Action{
		Kind:   dispatcher.CheckoutSelectPayment,
		Method: req.Method,
		Phone:  req.Phone,
	})
}

// TermsRequest is the body for the terms acknowledgment.
type TermsRequest struct {
	Agreed bool `json:"agreed"`
}

// HandleAgreeTerms records the terms-of-service acknowledgment.
func (h *StorefrontHandler) HandleAgreeTerms(c *fiber.Ctx) error {
	var req TermsRequest
	if err := h.parse(c, &req); err != nil {
		return err
	}
	return h.dispatch(c, dispatcher.Action{
		Kind:   dispatcher.CheckoutAgreeTerms,
		Agreed: req.Agreed,
	})
}

// HandleSubmitOrder submits the checkout.
func (h *StorefrontHandler) HandleSubmitOrder(c *fiber.Ctx) error {
	return h.dispatch(c, dispatcher.Action{Kind: dispatcher.CheckoutSubmit})
}

// HandleBuyNow adds a product to the cart and opens checkout in one
// gesture.
func (h *StorefrontHandler) HandleBuyNow(c *fiber.Ctx) error {
	var req AddToCartRequest
	if err := h.parse(c, &req); err != nil {
		return err
	}
	return h.dispatch(c, dispatcher.Action{
		Kind:      dispatcher.BuyNow,
		ProductID: req.ProductID,
		Quantity:  req.Quantity,
	})
}

// HandleDismissCheckout closes the checkout surface.
func (h *StorefrontHandler) HandleDismissCheckout(c *fiber.Ctx) error {
	return h.dispatch(c, dispatcher.Action{Kind: dispatcher.CheckoutDismiss})
}

// HandleNotifications renders the notification log.
func (h *StorefrontHandler) HandleNotifications(c *fiber.Ctx) error {
	return h.dispatch(c, dispatcher.Action{Kind: dispatcher.NotificationsList})
}

// HandleOrderHistory lists the signed-in user's orders.
func (h *StorefrontHandler) HandleOrderHistory(c *fiber.Ctx) error {
	return h.dispatch(c, dispatcher.Action{Kind: dispatcher.OrderHistory})
}

// HandleToggleTheme flips the theme preference.
func (h *StorefrontHandler) HandleToggleTheme(c *fiber.Ctx) error {
	return h.dispatch(c, dispatcher.Action{Kind: dispatcher.ThemeToggle})
}

// parse binds and validates a request body, replying with an inline
// validation message on failure.
func (h *StorefrontHandler) parse(c *fiber.Ctx, out interface{}) error {
	if err := c.BodyParser(out); err != nil {
		log.Printf("Error parsing request body: %v", err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
			"error":   err.Error(),
		})
	}
	if err := h.validate.Struct(out); err != nil {
		validationErrors := err.(validator.ValidationErrors)
		errorMessages := make(map[string]string)
		for _, e := range validationErrors {
			errorMessages[e.Field()] = fmt.Sprintf("Field '%s' failed on the '%s' tag", e.Field(), e.Tag())
		}
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Validation failed",
			"errors":  errorMessages,
		})
	}
	return nil
}
