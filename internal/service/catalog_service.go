package service

import (
	"context"
	"errors"
	"fmt"

	"supplychain-service/internal/models"
	"supplychain-service/internal/port"
	"supplychain-service/internal/util"

	"go.uber.org/zap"
)

// ErrProductNotFound is returned when a product or variant lookup misses.
var ErrProductNotFound = errors.New("product not found")

// CatalogService manages products and their variants. Variants double as
// the inventory records the reservation engine works against, so creating a
// variant is what registers stock, and restocking goes through here too.
type CatalogService struct {
	store  port.CatalogStore
	cache  port.InventoryCache
	access AccessFilter
	logger *zap.Logger
}

// NewCatalogService creates a new catalog service
func NewCatalogService(store port.CatalogStore, cache port.InventoryCache) *CatalogService {
	return &CatalogService{
		store:  store,
		cache:  cache,
		logger: util.GetLogger(),
	}
}

// VariantInput describes one variant supplied at product creation
type VariantInput struct {
	Size      string `json:"size"`
	Color     string `json:"color"`
	UnitPrice int64  `json:"unit_price" binding:"min=0"`
	Stock     int    `json:"stock" binding:"min=0"`
	MinStock  int    `json:"min_stock" binding:"min=0"`
}

// CreateProductRequest represents a request to register a product with its
// variants
type CreateProductRequest struct {
	Name     string         `json:"name" binding:"required"`
	Category string         `json:"category"`
	Variants []VariantInput `json:"variants" binding:"required,min=1"`
}

// RestockRequest is an explicit stock adjustment on one variant
type RestockRequest struct {
	Delta int `json:"delta" binding:"required"`
}

// CreateProduct registers a product and its variants under the principal's
// organization
func (s *CatalogService) CreateProduct(ctx context.Context, principal models.Principal, req *CreateProductRequest) (*models.Product, error) {
	ctx, span := util.StartSpan(ctx, "CatalogService.CreateProduct")
	defer span.End()

	product := models.Product{
		Name:        req.Name,
		Category:    req.Category,
		CompanyName: principal.CompanyName,
	}
	if err := s.store.CreateProduct(ctx, &product); err != nil {
		return nil, fmt.Errorf("failed to create product: %w", err)
	}

	for _, in := range req.Variants {
		variant := models.ProductVariant{
			ProductID: product.ID,
			Size:      in.Size,
			Color:     in.Color,
			UnitPrice: in.UnitPrice,
			Stock:     in.Stock,
			MinStock:  in.MinStock,
		}
		if err := s.store.CreateVariant(ctx, &variant); err != nil {
			return nil, fmt.Errorf("failed to create variant: %w", err)
		}
		product.Variants = append(product.Variants, variant)
	}

	s.logger.Info("Product created",
		zap.Int64("product_id", product.ID),
		zap.String("company", product.CompanyName),
		zap.Int("variants", len(product.Variants)))
	return &product, nil
}

// GetProduct retrieves a product with its variants, subject to the access
// filter
func (s *CatalogService) GetProduct(ctx context.Context, principal models.Principal, productID int64) (*models.Product, error) {
	product, err := s.loadProduct(ctx, productID)
	if err != nil {
		return nil, err
	}
	if !s.access.CanReadProduct(principal, product) {
		return nil, ErrUnauthorized
	}

	variants, err := s.store.VariantsByProductID(ctx, productID)
	if err != nil {
		return nil, err
	}
	product.Variants = variants
	return product, nil
}

// ListProducts retrieves the products visible to the principal
func (s *CatalogService) ListProducts(ctx context.Context, principal models.Principal) ([]models.Product, error) {
	if principal.IsSuperAdmin() {
		return s.store.Products(ctx)
	}
	return s.store.ProductsByCompany(ctx, principal.CompanyName)
}

// GetInventory reads one variant's inventory snapshot, serving from the
// cache when possible
func (s *CatalogService) GetInventory(ctx context.Context, principal models.Principal, variantID int64) (*models.ProductVariant, error) {
	cached, err := s.cache.CachedVariant(ctx, variantID)
	if err == nil {
		if err := s.authorizeVariant(ctx, principal, cached); err != nil {
			return nil, err
		}
		return cached, nil
	}
	if !errors.Is(err, port.ErrNotFound) {
		s.logger.Warn("Inventory cache read failed", zap.Error(err))
	}

	variant, err := s.store.VariantByID(ctx, variantID)
	if errors.Is(err, port.ErrNotFound) {
		return nil, &UnknownVariantError{VariantID: variantID}
	}
	if err != nil {
		return nil, err
	}
	if err := s.authorizeVariant(ctx, principal, variant); err != nil {
		return nil, err
	}

	if err := s.cache.CacheVariant(ctx, variant); err != nil {
		s.logger.Warn("Failed to cache inventory snapshot", zap.Error(err))
	}
	return variant, nil
}

// Restock applies an explicit stock delta to a variant
func (s *CatalogService) Restock(ctx context.Context, principal models.Principal, variantID int64, delta int) (*models.ProductVariant, error) {
	ctx, span := util.StartSpan(ctx, "CatalogService.Restock")
	defer span.End()

	variant, err := s.store.VariantByID(ctx, variantID)
	if errors.Is(err, port.ErrNotFound) {
		return nil, &UnknownVariantError{VariantID: variantID}
	}
	if err != nil {
		return nil, err
	}
	if err := s.authorizeVariant(ctx, principal, variant); err != nil {
		return nil, err
	}

	updated, err := s.store.AddStock(ctx, variantID, delta)
	if err != nil {
		return nil, err
	}

	util.RestocksTotal.Inc()
	if err := s.cache.InvalidateVariants(ctx, variantID); err != nil {
		s.logger.Warn("Failed to invalidate inventory cache", zap.Error(err))
	}

	s.logger.Info("Variant restocked",
		zap.Int64("variant_id", variantID),
		zap.Int("delta", delta),
		zap.Int("stock", updated.Stock))
	return updated, nil
}

func (s *CatalogService) loadProduct(ctx context.Context, productID int64) (*models.Product, error) {
	product, err := s.store.ProductByID(ctx, productID)
	if errors.Is(err, port.ErrNotFound) {
		return nil, ErrProductNotFound
	}
	if err != nil {
		return nil, err
	}
	return product, nil
}

func (s *CatalogService) authorizeVariant(ctx context.Context, principal models.Principal, variant *models.ProductVariant) error {
	if principal.IsSuperAdmin() {
		return nil
	}
	product, err := s.loadProduct(ctx, variant.ProductID)
	if err != nil {
		return err
	}
	if !s.access.CanReadProduct(principal, product) {
		return ErrUnauthorized
	}
	return nil
}
