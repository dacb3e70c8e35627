package models

import "time"

// NotificationCap is the maximum number of entries kept in the local
// notification log; older entries are silently dropped.
const NotificationCap = 20

// Notification is a locally stored order notification, newest first.
type Notification struct {
	ID            string    `json:"id"`
	Type          string    `json:"type"`
	Title         string    `json:"title"`
	Message       string    `json:"message"`
	DeliveryInfo  string    `json:"deliveryInfo"`
	PaymentMethod string    `json:"paymentMethod"`
	PaymentIcon   string    `json:"paymentIcon"`
	Timestamp     time.Time `json:"timestamp"`
	OrderID       string    `json:"orderId"`
}

// PaymentIconFor returns the icon reference shown next to a
// notification for the given payment method.
func PaymentIconFor(method string) string {
	switch method {
	case PaymentMpesa:
		return "fas fa-mobile-alt"
	case PaymentCash:
		return "fas fa-money-bill-wave"
	default:
		return "fas fa-shopping-bag"
	}
}
