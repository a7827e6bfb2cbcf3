package services

import (
	"context"
	"fmt"

	"github.com/relaxflow/core/internal/domain/entities"
	"github.com/relaxflow/core/internal/ports"
)

// ProductService handles product records. Status always follows stock.
type ProductService struct {
	products ports.Collection[entities.Product]
	deps     Dependencies
}

// NewProductService creates a new product service
func NewProductService(products ports.Collection[entities.Product], deps Dependencies) *ProductService {
	return &ProductService{
		products: products,
		deps:     deps.withDefaults(),
	}
}

// List returns every product in stored order
func (s *ProductService) List(ctx context.Context) ([]entities.Product, error) {
	products, err := s.products.ReadAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	return products, nil
}

// Create adds a product at the front of the collection
func (s *ProductService) Create(ctx context.Context, req ports.CreateProductRequest) (*entities.Product, error) {
	if err := s.deps.Validator.Struct(req); err != nil {
		return nil, err
	}

	var created entities.Product
	err := s.products.Update(ctx, func(products []entities.Product) ([]entities.Product, error) {
		now := entities.NewTimestamp(s.deps.Now())
		created = entities.Product{
			ID:        s.deps.IDs.NextID(existingIDs(products)),
			CreatedAt: now,
			UpdatedAt: now,
		}
		applyProduct(&created, req)
		return prepend(products, created), nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create product: %w", err)
	}

	s.deps.Logger.Debugw("Product details",
		"product_id", created.ID,
		"device_id", created.DeviceID,
		"status", created.Status,
	)
	s.deps.recordChange(entities.CollectionProducts, ports.ChangeCreated, created.ID)

	return &created, nil
}

// Update replaces the product with the same id and re-derives its status
func (s *ProductService) Update(ctx context.Context, req ports.UpdateProductRequest) (*entities.Product, error) {
	if err := s.deps.Validator.Struct(req); err != nil {
		return nil, err
	}

	var updated entities.Product
	err := s.products.Update(ctx, func(products []entities.Product) ([]entities.Product, error) {
		i := indexByID(products, req.ID)
		if i < 0 {
			return nil, entities.ErrProductNotFound
		}

		updated = entities.Product{
			ID:        products[i].ID,
			CreatedAt: products[i].CreatedAt,
			UpdatedAt: entities.NewTimestamp(s.deps.Now()),
		}
		applyProduct(&updated, req.CreateProductRequest)
		products[i] = updated
		return products, nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to update product %s: %w", req.ID, err)
	}

	s.deps.recordChange(entities.CollectionProducts, ports.ChangeUpdated, updated.ID)

	return &updated, nil
}

// Delete removes exactly one product
func (s *ProductService) Delete(ctx context.Context, id string) (*ports.MessageResponse, error) {
	if err := requireID(id); err != nil {
		return nil, err
	}

	err := s.products.Update(ctx, func(products []entities.Product) ([]entities.Product, error) {
		i := indexByID(products, id)
		if i < 0 {
			return nil, entities.ErrProductNotFound
		}
		return removeAt(products, i), nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to delete product %s: %w", id, err)
	}

	s.deps.recordChange(entities.CollectionProducts, ports.ChangeDeleted, id)

	return &ports.MessageResponse{Message: "Product deleted successfully"}, nil
}

func applyProduct(p *entities.Product, req ports.CreateProductRequest) {
	p.Name = req.Name
	p.DeviceID = req.DeviceID
	p.Description = req.Description
	p.Price = req.Price
	p.StockQuantity = req.StockQuantity
	p.Category = req.Category
	p.Image = orDefault(req.Image, entities.DefaultImage)
	p.IsActive = req.IsActive
	p.RefreshStatus()
}
