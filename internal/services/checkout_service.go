package services

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"lemonade/internal/api"
	"lemonade/internal/models"
)

// CheckoutState is the stage a checkout session is in.
type CheckoutState string

// Checkout progresses Address -> Payment -> Submitting -> Confirmed. A
// failed submission drops back to Payment so the user can retry without
// re-entering everything.
const (
	CheckoutAddress    CheckoutState = "address"
	CheckoutPayment    CheckoutState = "payment"
	CheckoutSubmitting CheckoutState = "submitting"
	CheckoutConfirmed  CheckoutState = "confirmed"
)

// Guard errors surfaced as inline user-facing messages.
var (
	ErrCartEmpty         = errors.New("your cart is empty")
	ErrSignInRequired    = errors.New("please sign in to complete your order")
	ErrNoActiveCheckout  = errors.New("no checkout in progress")
	ErrSubmitInFlight    = errors.New("an order submission is already in progress")
	ErrCheckoutDismissed = errors.New("checkout was dismissed")
)

// mpesaPhonePattern matches Kenyan mobile numbers: "07" followed by 8
// digits, after whitespace is stripped.
var mpesaPhonePattern = regexp.MustCompile(`^07[0-9]{8}$`)

// ValidMpesaPhone reports whether phone is a valid Kenyan mobile number
// for an M-Pesa payment.
func ValidMpesaPhone(phone string) bool {
	stripped := strings.Join(strings.Fields(phone), "")
	return mpesaPhonePattern.MatchString(stripped)
}

// Checkout is one checkout session. Its ID ties in-flight submissions
// to the session they belong to, so a response arriving after the
// session was dismissed applies no side effects.
type Checkout struct {
	ID                string
	State             CheckoutState
	UsingSavedAddress bool
	Address           *models.Address
	DeliveryNotes     string
	PaymentMethod     string
	MpesaPhone        string
	TermsAgreed       bool
}

// Confirmation is the outcome of a successful submission.
type Confirmation struct {
	Order            *models.Order
	Message          string
	OfferAddressSave bool
	Address          *models.Address
}

// CheckoutService coordinates address collection, payment selection and
// order submission on top of the cart, session and notification
// managers.
type CheckoutService struct {
	cart          *CartService
	session       *SessionService
	notifications *NotificationService
	orders        api.OrderAPI
	active        *Checkout
}

// NewCheckoutService creates a new CheckoutService.
func NewCheckoutService(cart *CartService, session *SessionService, notifications *NotificationService, orders api.OrderAPI) *CheckoutService {
	return &CheckoutService{
		cart:          cart,
		session:       session,
		notifications: notifications,
		orders:        orders,
	}
}

// Active returns the checkout in progress, or nil.
func (s *CheckoutService) Active() *Checkout {
	return s.active
}

// Begin opens a checkout session. The cart must be non-empty and a user
// must be signed in; the saved address, when present, is offered as-is.
func (s *CheckoutService) Begin() (*Checkout, error) {
	if s.active != nil && s.active.State == CheckoutSubmitting {
		return nil, ErrSubmitInFlight
	}
	if s.cart.Empty() {
		return nil, ErrCartEmpty
	}
	user := s.session.Current()
	if user == nil {
		return nil, ErrSignInRequired
	}

	c := &Checkout{
		ID:    uuid.New().String(),
		State: CheckoutAddress,
	}
	if user.Address != nil {
		c.UsingSavedAddress = true
	}
	s.active = c
	return c, nil
}

// UseSavedAddress accepts the user's saved address and moves on to
// payment selection.
func (s *CheckoutService) UseSavedAddress() error {
	c := s.active
	if c == nil {
		return ErrNoActiveCheckout
	}
	if c.State != CheckoutAddress {
		return fmt.Errorf("checkout is not collecting an address")
	}
	user := s.session.Current()
	if user == nil || user.Address == nil {
		return fmt.Errorf("no saved address to use")
	}
	c.UsingSavedAddress = true
	c.State = CheckoutPayment
	return nil
}

// SetAddress records a manually entered delivery address and moves on
// to payment selection. Street and city are required; landmark and
// delivery notes are optional.
func (s *CheckoutService) SetAddress(street, landmark, city, notes string) error {
	c := s.active
	if c == nil {
		return ErrNoActiveCheckout
	}
	if c.State != CheckoutAddress {
		return fmt.Errorf("checkout is not collecting an address")
	}
	street = strings.TrimSpace(street)
	city = strings.TrimSpace(city)
	if street == "" || city == "" {
		return fmt.Errorf("please enter delivery address and city")
	}

	address := models.Address{
		Street:   street,
		Landmark: strings.TrimSpace(landmark),
		City:     city,
	}
	address.Derive()

	c.UsingSavedAddress = false
	c.Address = &address
	c.DeliveryNotes = strings.TrimSpace(notes)
	c.State = CheckoutPayment
	return nil
}

// ChangeAddress drops back to manual address entry.
func (s *CheckoutService) ChangeAddress() error {
	c := s.active
	if c == nil {
		return ErrNoActiveCheckout
	}
	if c.State == CheckoutSubmitting {
		return ErrSubmitInFlight
	}
	c.UsingSavedAddress = false
	c.State = CheckoutAddress
	return nil
}

// SelectPayment chooses the payment method. For M-Pesa the contact
// phone is recorded as well; it is validated at submission.
func (s *CheckoutService) SelectPayment(method, phone string) error {
	c := s.active
	if c == nil {
		return ErrNoActiveCheckout
	}
	if c.State != CheckoutPayment {
		return fmt.Errorf("checkout is not selecting a payment method")
	}
	if method != models.PaymentMpesa && method != models.PaymentCash {
		return fmt.Errorf("please select a payment method")
	}
	c.PaymentMethod = method
	c.MpesaPhone = strings.TrimSpace(phone)
	return nil
}

// AgreeTerms records the terms-of-service acknowledgment.
func (s *CheckoutService) AgreeTerms(agreed bool) error {
	if s.active == nil {
		return ErrNoActiveCheckout
	}
	s.active.TermsAgreed = agreed
	return nil
}

// Dismiss closes the checkout surface. A submission already in flight
// is not cancelled, but its response will find the session gone and
// apply nothing.
func (s *CheckoutService) Dismiss() {
	s.active = nil
}

// Submit validates every precondition, submits the order exactly once
// and interprets the response. On success the cart is emptied, a
// notification is appended and the user's order stats are updated; on
// failure everything is left untouched and the state returns to
// payment selection.
func (s *CheckoutService) Submit(ctx context.Context) (*Confirmation, error) {
	c := s.active
	if c == nil {
		return nil, ErrNoActiveCheckout
	}
	if c.State == CheckoutSubmitting {
		return nil, ErrSubmitInFlight
	}

	if !c.TermsAgreed {
		return nil, fmt.Errorf("please agree to the terms and conditions")
	}
	if c.PaymentMethod == "" {
		return nil, fmt.Errorf("please select a payment method")
	}
	if s.cart.Empty() {
		return nil, ErrCartEmpty
	}
	user := s.session.Current()
	if user == nil {
		return nil, ErrSignInRequired
	}

	hadSavedAddress := user.Address != nil

	var deliveryAddress string
	var freshAddress *models.Address
	if c.UsingSavedAddress && hadSavedAddress {
		deliveryAddress = user.Address.FullAddress
	} else {
		if c.Address == nil {
			return nil, fmt.Errorf("please enter delivery address and city")
		}
		deliveryAddress = c.Address.FullAddress
		if c.DeliveryNotes != "" {
			deliveryAddress += " - " + c.DeliveryNotes
		}
		freshAddress = c.Address
	}

	customerPhone := user.Phone
	if c.PaymentMethod == models.PaymentMpesa {
		if !ValidMpesaPhone(c.MpesaPhone) {
			return nil, fmt.Errorf("please enter a valid Kenyan phone number (07XXXXXXXX)")
		}
		customerPhone = c.MpesaPhone
	}

	req := models.OrderRequest{
		CustomerName:    user.Name,
		CustomerPhone:   customerPhone,
		CustomerEmail:   user.Email,
		CustomerID:      user.ID,
		Items:           s.cart.Lines(),
		Total:           s.cart.Total(),
		DeliveryAddress: deliveryAddress,
		PaymentMethod:   c.PaymentMethod,
		PaymentStatus:   models.PaymentStatusFor(c.PaymentMethod),
		Status:          "pending",
	}

	c.State = CheckoutSubmitting
	checkoutID := c.ID

	order, err := s.orders.CreateOrder(ctx, req)

	// The user may have closed the checkout while the request was in
	// flight; a response for a dismissed session applies nothing.
	if s.active == nil || s.active.ID != checkoutID {
		return nil, ErrCheckoutDismissed
	}
	if err != nil {
		c.State = CheckoutPayment
		return nil, fmt.Errorf("order failed: %w", err)
	}

	s.notifications.Append(models.Notification{
		ID:            "notif_" + uuid.New().String(),
		Type:          "order",
		Title:         fmt.Sprintf("Order #%s Confirmed", order.OrderNumber),
		Message:       fmt.Sprintf("Your %s order is being prepared", strings.ToUpper(c.PaymentMethod)),
		DeliveryInfo:  "Delivery to: " + deliveryAddress,
		PaymentMethod: c.PaymentMethod,
		PaymentIcon:   models.PaymentIconFor(c.PaymentMethod),
		Timestamp:     time.Now(),
		OrderID:       order.ID,
	})
	s.session.RecordOrder(order.Total)

	var message string
	if c.PaymentMethod == models.PaymentMpesa {
		message = fmt.Sprintf("M-Pesa Order Confirmed! Order #%s. Check your phone for payment prompt.", order.OrderNumber)
	} else {
		message = fmt.Sprintf("Cash Order Confirmed! Order #%s. Please have cash ready for delivery.", order.OrderNumber)
	}

	s.cart.Clear()
	c.State = CheckoutConfirmed
	s.active = nil

	return &Confirmation{
		Order:            order,
		Message:          message,
		OfferAddressSave: freshAddress != nil && !hadSavedAddress,
		Address:          freshAddress,
	}, nil
}
