package models

// Product statuses as reported by the catalog service.
const (
	ProductStatusActive   = "active"
	ProductStatusInactive = "inactive"
)

// Product represents a catalog entry as served by the remote catalog
// service. The client never mutates products, it only caches them.
type Product struct {
	ID          string  `json:"id"`
	Name        string  `json:"name" validate:"required"`
	Description string  `json:"description"`
	Price       float64 `json:"price" validate:"gte=0"`
	Category    string  `json:"category"`
	Stock       int     `json:"stock" validate:"gte=0"`
	Status      string  `json:"status"`
	Image       string  `json:"image"`
	Tags        string  `json:"tags"`
}

// Purchasable reports whether the product may be added to a cart:
// it must be active and have stock left.
func (p Product) Purchasable() bool {
	return p.Status == ProductStatusActive && p.Stock > 0
}
