package dispatcher

import (
	"context"
	"fmt"
	"log"
	"sync"

	"lemonade/internal/api"
	"lemonade/internal/models"
	"lemonade/internal/services"
)

// Kind identifies a user gesture.
type Kind string

// Every gesture the storefront understands.
const (
	CartAdd    Kind = "cart/add"
	CartRemove Kind = "cart/remove"
	CartClear  Kind = "cart/clear"
	CartView   Kind = "cart/view"

	CatalogRefresh Kind = "catalog/refresh"
	CatalogFilter  Kind = "catalog/filter"

	AuthLogin   Kind = "auth/login"
	AuthSignup  Kind = "auth/signup"
	AuthLogout  Kind = "auth/logout"
	SessionView Kind = "auth/session"

	ProfileUpdate Kind = "profile/update"
	AddressSave   Kind = "address/save"

	CheckoutBegin         Kind = "checkout/begin"
	CheckoutUseSaved      Kind = "checkout/use-saved-address"
	CheckoutSetAddress    Kind = "checkout/set-address"
	CheckoutChangeAddress Kind = "checkout/change-address"
	CheckoutSelectPayment Kind = "checkout/select-payment"
	CheckoutAgreeTerms    Kind = "checkout/agree-terms"
	CheckoutSubmit        Kind = "checkout/submit"
	CheckoutDismiss       Kind = "checkout/dismiss"
	BuyNow                Kind = "checkout/buy-now"

	NotificationsList Kind = "notifications/list"
	OrderHistory      Kind = "orders/history"
	ThemeToggle       Kind = "theme/toggle"
)

// Action is a typed user gesture. Kind selects the handler; the
// remaining fields carry the gesture's payload and are only read by the
// handler that needs them.
type Action struct {
	Kind Kind

	ProductID string
	Quantity  int

	SearchTerm string
	Category   string

	Identifier string
	Name       string
	Email      string
	Phone      string

	Street   string
	Landmark string
	City     string
	Notes    string

	Method string
	Agreed bool
}

// Result is what a handled gesture reports back to the view: an inline
// user-facing message and optional data to render.
type Result struct {
	Message string
	Data    interface{}
}

// Dispatcher routes typed actions to handlers over the business
// managers. It owns no business state itself, and it serialises
// dispatches so mutations from distinct gestures are totally ordered.
type Dispatcher struct {
	mu sync.Mutex

	catalog       *services.CatalogService
	cart          *services.CartService
	session       *services.SessionService
	checkout      *services.CheckoutService
	notifications *services.NotificationService
	prefs         *services.PreferenceService
	orders        api.OrderAPI

	handlers map[Kind]func(context.Context, Action) (Result, error)
}

// New creates a Dispatcher and wires its handler table.
func New(
	catalog *services.CatalogService,
	cart *services.CartService,
	session *services.SessionService,
	checkout *services.CheckoutService,
	notifications *services.NotificationService,
	prefs *services.PreferenceService,
	orders api.OrderAPI,
) *Dispatcher {
	d := &Dispatcher{
		catalog:       catalog,
		cart:          cart,
		session:       session,
		checkout:      checkout,
		notifications: notifications,
		prefs:         prefs,
		orders:        orders,
	}
	d.handlers = map[Kind]func(context.Context, Action) (Result, error){
		CartAdd:    d.handleCartAdd,
		CartRemove: d.handleCartRemove,
		CartClear:  d.handleCartClear,
		CartView:   d.handleCartView,

		CatalogRefresh: d.handleCatalogRefresh,
		CatalogFilter:  d.handleCatalogFilter,

		AuthLogin:   d.handleLogin,
		AuthSignup:  d.handleSignup,
		AuthLogout:  d.handleLogout,
		SessionView: d.handleSessionView,

		ProfileUpdate: d.handleProfileUpdate,
		AddressSave:   d.handleAddressSave,

		CheckoutBegin:         d.handleCheckoutBegin,
		CheckoutUseSaved:      d.handleCheckoutUseSaved,
		CheckoutSetAddress:    d.handleCheckoutSetAddress,
		CheckoutChangeAddress: d.handleCheckoutChangeAddress,
		CheckoutSelectPayment: d.handleCheckoutSelectPayment,
		CheckoutAgreeTerms:    d.handleCheckoutAgreeTerms,
		CheckoutSubmit:        d.handleCheckoutSubmit,
		CheckoutDismiss:       d.handleCheckoutDismiss,
		BuyNow:                d.handleBuyNow,

		NotificationsList: d.handleNotificationsList,
		OrderHistory:      d.handleOrderHistory,
		ThemeToggle:       d.handleThemeToggle,
	}
	return d
}

// Dispatch runs the handler for the action. Each dispatch completes,
// including its persistence writes, before the next one begins.
func (d *Dispatcher) Dispatch(ctx context.Context, a Action) (Result, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	h, ok := d.handlers[a.Kind]
	if !ok {
		return Result{}, fmt.Errorf("unknown action kind: %s", a.Kind)
	}
	return h(ctx, a)
}

func (d *Dispatcher) handleCartAdd(_ context.Context, a Action) (Result, error) {
	// The catalog is authoritative for name, price and purchasability;
	// the gesture only carries the product id and quantity.
	product, ok := d.catalog.Get(a.ProductID)
	if !ok {
		return Result{}, fmt.Errorf("product not found")
	}
	if !product.Purchasable() {
		return Result{}, fmt.Errorf("%s is out of stock", product.Name)
	}

	qty := a.Quantity
	if qty < 1 {
		qty = 1
	}
	d.cart.Add(product.ID, product.Name, product.Price, qty)
	return Result{
		Message: fmt.Sprintf("%d %s(s) added to cart!", qty, product.Name),
		Data:    d.cart.Lines(),
	}, nil
}

func (d *Dispatcher) handleCartRemove(_ context.Context, a Action) (Result, error) {
	line, removed := d.cart.Remove(a.ProductID)
	if !removed {
		return Result{Data: d.cart.Lines()}, nil
	}
	return Result{
		Message: fmt.Sprintf("%s removed from cart!", line.Product),
		Data:    d.cart.Lines(),
	}, nil
}

func (d *Dispatcher) handleCartClear(_ context.Context, _ Action) (Result, error) {
	d.cart.Clear()
	return Result{Message: "Cart cleared!"}, nil
}

// CartSnapshot is the rendered projection of the cart state.
type CartSnapshot struct {
	Lines []models.CartLine `json:"lines"`
	Count int               `json:"count"`
	Total float64           `json:"total"`
}

func (d *Dispatcher) handleCartView(_ context.Context, _ Action) (Result, error) {
	return Result{Data: CartSnapshot{
		Lines: d.cart.Lines(),
		Count: d.cart.Count(),
		Total: d.cart.Total(),
	}}, nil
}

func (d *Dispatcher) handleSessionView(_ context.Context, _ Action) (Result, error) {
	return Result{Data: d.session.Current()}, nil
}

func (d *Dispatcher) handleCatalogRefresh(ctx context.Context, _ Action) (Result, error) {
	if err := d.catalog.Load(ctx); err != nil {
		return Result{}, err
	}
	return Result{Data: d.catalog.Filter("", services.CategoryAll)}, nil
}

func (d *Dispatcher) handleCatalogFilter(_ context.Context, a Action) (Result, error) {
	category := a.Category
	if category == "" {
		category = services.CategoryAll
	}
	return Result{Data: d.catalog.Filter(a.SearchTerm, category)}, nil
}

func (d *Dispatcher) handleLogin(ctx context.Context, a Action) (Result, error) {
	user, err := d.session.Login(ctx, a.Identifier)
	if err != nil {
		return Result{}, err
	}
	return Result{
		Message: fmt.Sprintf("Welcome back, %s!", user.Name),
		Data:    user,
	}, nil
}

func (d *Dispatcher) handleSignup(ctx context.Context, a Action) (Result, error) {
	user, err := d.session.Signup(ctx, a.Name, a.Email, a.Phone)
	if err != nil {
		return Result{}, err
	}
	return Result{
		Message: fmt.Sprintf("Welcome to Lily's Lemonade, %s!", user.Name),
		Data:    user,
	}, nil
}

func (d *Dispatcher) handleLogout(_ context.Context, _ Action) (Result, error) {
	d.session.Logout()
	return Result{Message: "Logged out successfully"}, nil
}

func (d *Dispatcher) handleProfileUpdate(_ context.Context, a Action) (Result, error) {
	if err := d.session.UpdateProfile(a.Name, a.Email, a.Phone); err != nil {
		return Result{}, err
	}
	return Result{
		Message: "Profile updated successfully!",
		Data:    d.session.Current(),
	}, nil
}

func (d *Dispatcher) handleAddressSave(ctx context.Context, a Action) (Result, error) {
	address := models.Address{Street: a.Street, Landmark: a.Landmark, City: a.City}
	remote, err := d.session.SaveAddress(ctx, address)
	if err != nil {
		return Result{}, err
	}
	message := "Address saved successfully!"
	if !remote {
		message = "Address saved locally!"
	}
	return Result{Message: message, Data: d.session.Current()}, nil
}

func (d *Dispatcher) handleCheckoutBegin(_ context.Context, _ Action) (Result, error) {
	c, err := d.checkout.Begin()
	if err != nil {
		return Result{}, err
	}
	return Result{Data: c}, nil
}

func (d *Dispatcher) handleCheckoutUseSaved(_ context.Context, _ Action) (Result, error) {
	if err := d.checkout.UseSavedAddress(); err != nil {
		return Result{}, err
	}
	return Result{Data: d.checkout.Active()}, nil
}

func (d *Dispatcher) handleCheckoutSetAddress(_ context.Context, a Action) (Result, error) {
	if err := d.checkout.SetAddress(a.Street, a.Landmark, a.City, a.Notes); err != nil {
		return Result{}, err
	}
	return Result{Data: d.checkout.Active()}, nil
}

func (d *Dispatcher) handleCheckoutChangeAddress(_ context.Context, _ Action) (Result, error) {
	if err := d.checkout.ChangeAddress(); err != nil {
		return Result{}, err
	}
	return Result{Data: d.checkout.Active()}, nil
}

func (d *Dispatcher) handleCheckoutSelectPayment(_ context.Context, a Action) (Result, error) {
	if err := d.checkout.SelectPayment(a.Method, a.Phone); err != nil {
		return Result{}, err
	}
	return Result{Data: d.checkout.Active()}, nil
}

func (d *Dispatcher) handleCheckoutAgreeTerms(_ context.Context, a Action) (Result, error) {
	if err := d.checkout.AgreeTerms(a.Agreed); err != nil {
		return Result{}, err
	}
	return Result{Data: d.checkout.Active()}, nil
}

func (d *Dispatcher) handleCheckoutSubmit(ctx context.Context, _ Action) (Result, error) {
	confirmation, err := d.checkout.Submit(ctx)
	if err != nil {
		return Result{}, err
	}

	// Refresh the order history after a confirmed order, best effort.
	if user := d.session.Current(); user != nil {
		if _, err := d.orders.OrderHistory(ctx, user.ID); err != nil {
			log.Printf("Order history refresh failed: %v", err)
		}
	}
	return Result{Message: confirmation.Message, Data: confirmation}, nil
}

func (d *Dispatcher) handleCheckoutDismiss(_ context.Context, _ Action) (Result, error) {
	d.checkout.Dismiss()
	return Result{}, nil
}

func (d *Dispatcher) handleBuyNow(ctx context.Context, a Action) (Result, error) {
	addResult, err := d.handleCartAdd(ctx, a)
	if err != nil {
		return Result{}, err
	}
	c, err := d.checkout.Begin()
	if err != nil {
		return addResult, err
	}
	return Result{Message: addResult.Message, Data: c}, nil
}

func (d *Dispatcher) handleNotificationsList(_ context.Context, _ Action) (Result, error) {
	return Result{Data: d.notifications.List()}, nil
}

func (d *Dispatcher) handleOrderHistory(ctx context.Context, _ Action) (Result, error) {
	user := d.session.Current()
	if user == nil {
		return Result{}, services.ErrSignInRequired
	}
	orders, err := d.orders.OrderHistory(ctx, user.ID)
	if err != nil {
		return Result{}, fmt.Errorf("failed to load order history: %w", err)
	}
	return Result{Data: orders}, nil
}

func (d *Dispatcher) handleThemeToggle(_ context.Context, _ Action) (Result, error) {
	return Result{Data: d.prefs.ToggleTheme()}, nil
}
