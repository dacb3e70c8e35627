package services

import (
	"encoding/json"
	"log"

	"lemonade/internal/models"
	"lemonade/internal/storage"
)

// CartService owns the authoritative in-memory cart and mirrors every
// mutation to the durable store. At most one line exists per product;
// re-adding a product bumps its quantity while keeping the name and
// price captured on first add.
type CartService struct {
	store storage.Store
	lines []models.CartLine
	count int
}

// NewCartService creates a CartService, restoring any persisted cart.
// Absent or corrupt stored data leaves the cart empty.
func NewCartService(store storage.Store) *CartService {
	s := &CartService{store: store}
	if raw, ok := store.Get(storage.KeyCart); ok {
		var lines []models.CartLine
		if err := json.Unmarshal([]byte(raw), &lines); err != nil {
			log.Printf("Discarding corrupt stored cart: %v", err)
		} else {
			s.lines = lines
			for _, l := range lines {
				s.count += l.Quantity
			}
		}
	}
	return s
}

// Add puts quantity units of a product into the cart. Non-positive
// quantities are corrected to 1. If a line for the product exists its
// quantity is incremented; the snapshot name and price are not
// refreshed.
func (s *CartService) Add(productID, name string, price float64, quantity int) {
	if quantity < 1 {
		quantity = 1
	}

	found := false
	for i := range s.lines {
		if s.lines[i].ProductID == productID {
			s.lines[i].Quantity += quantity
			found = true
			break
		}
	}
	if !found {
		s.lines = append(s.lines, models.CartLine{
			ProductID: productID,
			Product:   name,
			Price:     price,
			Quantity:  quantity,
		})
	}

	s.count += quantity
	s.persist()
}

// Remove deletes the line for productID. Removing an absent product is
// a no-op and does not touch the store.
func (s *CartService) Remove(productID string) (models.CartLine, bool) {
	for i, l := range s.lines {
		if l.ProductID == productID {
			s.lines = append(s.lines[:i], s.lines[i+1:]...)
			s.count -= l.Quantity
			s.persist()
			return l, true
		}
	}
	return models.CartLine{}, false
}

// Clear empties the cart.
func (s *CartService) Clear() {
	s.lines = nil
	s.count = 0
	s.persist()
}

// Total is the cart total, recomputed on demand.
func (s *CartService) Total() float64 {
	var total float64
	for _, l := range s.lines {
		total += l.Subtotal()
	}
	return total
}

// Count is the sum of all line quantities.
func (s *CartService) Count() int {
	return s.count
}

// Lines returns a copy of the cart lines in insertion order.
func (s *CartService) Lines() []models.CartLine {
	out := make([]models.CartLine, len(s.lines))
	copy(out, s.lines)
	return out
}

// Empty reports whether the cart has no lines.
func (s *CartService) Empty() bool {
	return len(s.lines) == 0
}

func (s *CartService) persist() {
	payload, err := json.Marshal(s.lines)
	if err != nil {
		log.Printf("Failed to marshal cart for persistence: %v", err)
		return
	}
	s.store.Set(storage.KeyCart, string(payload))
}
