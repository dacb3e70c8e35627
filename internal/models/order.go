package models

// Payment methods accepted at checkout.
const (
	PaymentMpesa = "mpesa"
	PaymentCash  = "cash"
)

// Payment statuses derived from the chosen method at submission time.
const (
	PaymentStatusPending    = "pending"
	PaymentStatusPendingCOD = "pending_cod"
)

// OrderRequest is the body posted to the remote order service. The
// client constructs it from the authenticated user, the cart and the
// checkout selections; it does not own order lifecycle state.
type OrderRequest struct {
	CustomerName    string     `json:"customerName"`
	CustomerPhone   string     `json:"customerPhone"`
	CustomerEmail   string     `json:"customerEmail"`
	CustomerID      string     `json:"customerId"`
	Items           []CartLine `json:"items"`
	Total           float64    `json:"total"`
	DeliveryAddress string     `json:"deliveryAddress"`
	PaymentMethod   string     `json:"paymentMethod"`
	PaymentStatus   string     `json:"paymentStatus"`
	Status          string     `json:"status"`
}

// PaymentStatusFor maps a payment method to the initial payment status
// the order service expects.
func PaymentStatusFor(method string) string {
	if method == PaymentCash {
		return PaymentStatusPendingCOD
	}
	return PaymentStatusPending
}

// Order is the server's view of a submitted order, as returned on
// confirmation and in the order history listing.
type Order struct {
	ID              string     `json:"id"`
	OrderNumber     string     `json:"orderNumber"`
	Date            string     `json:"date,omitempty"`
	Items           []CartLine `json:"items,omitempty"`
	Total           float64    `json:"total"`
	DeliveryAddress string     `json:"deliveryAddress,omitempty"`
	PaymentMethod   string     `json:"paymentMethod,omitempty"`
	PaymentStatus   string     `json:"paymentStatus,omitempty"`
	Status          string     `json:"status,omitempty"`
}
