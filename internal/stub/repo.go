package stub

import (
	"fmt"
	"sync"

	"github.com/google/uuid"

	"lemonade/internal/models"
)

// userRecord is an account as the backend stores it: the public
// profile plus the password hash the client never sees.
type userRecord struct {
	models.User
	PasswordHash string
}

// userRepo is an in-memory user store.
type userRepo struct {
	users map[string]*userRecord
	mu    sync.RWMutex
}

func newUserRepo() *userRepo {
	return &userRepo{users: make(map[string]*userRecord)}
}

func (r *userRepo) Create(user *userRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if user.ID == "" {
		user.ID = uuid.New().String()
	}
	r.users[user.ID] = user
	return nil
}

func (r *userRepo) GetByID(id string) (*userRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	user, ok := r.users[id]
	if !ok {
		return nil, fmt.Errorf("user with ID %s not found", id)
	}
	return user, nil
}

func (r *userRepo) GetByEmail(email string) (*userRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, user := range r.users {
		if user.Email != "" && user.Email == email {
			return user, nil
		}
	}
	return nil, fmt.Errorf("user with email %s not found", email)
}

func (r *userRepo) GetByPhone(phone string) (*userRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, user := range r.users {
		if user.Phone != "" && user.Phone == phone {
			return user, nil
		}
	}
	return nil, fmt.Errorf("user with phone %s not found", phone)
}

func (r *userRepo) SetAddress(id string, address models.Address) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	user, ok := r.users[id]
	if !ok {
		return fmt.Errorf("user with ID %s not found", id)
	}
	user.Address = &address
	return nil
}

// productRepo is an in-memory product store preserving insertion
// order.
type productRepo struct {
	products map[string]models.Product
	ids      []string
	mu       sync.RWMutex
}

func newProductRepo() *productRepo {
	return &productRepo{products: make(map[string]models.Product)}
}

func (r *productRepo) GetAll() []models.Product {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]models.Product, 0, len(r.ids))
	for _, id := range r.ids {
		out = append(out, r.products[id])
	}
	return out
}

func (r *productRepo) GetByID(id string) (models.Product, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	product, ok := r.products[id]
	return product, ok
}

func (r *productRepo) Create(product *models.Product) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if product.ID == "" {
		product.ID = uuid.New().String()
	}
	if _, exists := r.products[product.ID]; !exists {
		r.ids = append(r.ids, product.ID)
	}
	r.products[product.ID] = *product
}

func (r *productRepo) Update(product models.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.products[product.ID]; !ok {
		return fmt.Errorf("product with ID %s not found for update", product.ID)
	}
	r.products[product.ID] = product
	return nil
}

func (r *productRepo) Delete(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.products[id]; !ok {
		return fmt.Errorf("product with ID %s not found for deletion", id)
	}
	delete(r.products, id)
	for i, existing := range r.ids {
		if existing == id {
			r.ids = append(r.ids[:i], r.ids[i+1:]...)
			break
		}
	}
	return nil
}

// orderRecord couples a stored order with the customer who placed it.
type orderRecord struct {
	models.Order
	CustomerID string
}

// orderRepo is an in-memory order store.
type orderRepo struct {
	orders []orderRecord
	seq    int
	mu     sync.RWMutex
}

func newOrderRepo() *orderRepo {
	return &orderRepo{}
}

// Create stores the order, assigning an id and a sequential order
// number.
func (r *orderRepo) Create(order *models.Order, customerID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.seq++
	order.ID = uuid.New().String()
	order.OrderNumber = fmt.Sprintf("LMN-%05d", r.seq)
	r.orders = append(r.orders, orderRecord{Order: *order, CustomerID: customerID})
}

// ByCustomer returns the customer's orders, newest first.
func (r *orderRepo) ByCustomer(customerID string) []models.Order {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []models.Order
	for i := len(r.orders) - 1; i >= 0; i-- {
		if r.orders[i].CustomerID == customerID {
			out = append(out, r.orders[i].Order)
		}
	}
	return out
}
