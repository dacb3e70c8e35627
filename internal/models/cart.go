package models

// CartLine is one aggregated product entry in the shopping cart.
// Name and Price are snapshots taken the first time the product was
// added; re-adding the same product only bumps Quantity.
type CartLine struct {
	ProductID string  `json:"id"`
	Product   string  `json:"product"`
	Price     float64 `json:"price"`
	Quantity  int     `json:"quantity"`
}

// Subtotal is the line's contribution to the cart total.
func (l CartLine) Subtotal() float64 {
	return l.Price * float64(l.Quantity)
}
