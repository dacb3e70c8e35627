package services

import (
	"context"
	"fmt"
	"strings"

	"lemonade/internal/api"
	"lemonade/internal/models"
)

// CategoryAll matches every category in a filter.
const CategoryAll = "all"

// CatalogService caches the last fetched product list and answers
// filter queries over it. The cache is replaced wholesale on a
// successful load and emptied on any failure, so stale data is never
// silently presented as fresh.
type CatalogService struct {
	client   api.ProductAPI
	products []models.Product
}

// NewCatalogService creates a new CatalogService.
func NewCatalogService(client api.ProductAPI) *CatalogService {
	return &CatalogService{client: client}
}

// Load fetches the product list from the remote catalog service.
func (s *CatalogService) Load(ctx context.Context) error {
	products, err := s.client.FetchProducts(ctx)
	if err != nil {
		s.products = nil
		return fmt.Errorf("failed to load catalog: %w", err)
	}
	s.products = products
	return nil
}

// Filter returns the active products matching the search term and
// category. Category "all" matches everything; an empty search term
// matches everything; otherwise the term is matched case-insensitively
// against name and tags.
func (s *CatalogService) Filter(searchTerm, category string) []models.Product {
	term := strings.ToLower(strings.TrimSpace(searchTerm))

	matched := make([]models.Product, 0, len(s.products))
	for _, p := range s.products {
		if p.Status != models.ProductStatusActive {
			continue
		}
		if category != CategoryAll && category != "" && p.Category != category {
			continue
		}
		if term != "" {
			haystack := strings.ToLower(p.Name + " " + p.Tags)
			if !strings.Contains(haystack, term) {
				continue
			}
		}
		matched = append(matched, p)
	}
	return matched
}

// Get looks up a cached product by id.
func (s *CatalogService) Get(productID string) (*models.Product, bool) {
	for i := range s.products {
		if s.products[i].ID == productID {
			return &s.products[i], true
		}
	}
	return nil, false
}
