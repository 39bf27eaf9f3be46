package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"supplychain-service/internal/models"
	"supplychain-service/internal/port"

	"github.com/jmoiron/sqlx"
)

// CreateProduct creates a new catalog product
func (s *Store) CreateProduct(ctx context.Context, product *models.Product) error {
	query := `
		INSERT INTO products (name, category, company_name)
		VALUES ($1, $2, $3)
		RETURNING id, created_at, updated_at`

	return s.db.GetContext(ctx, product, query,
		product.Name, product.Category, product.CompanyName)
}

// CreateVariant creates a new variant, which is also its inventory record
func (s *Store) CreateVariant(ctx context.Context, variant *models.ProductVariant) error {
	query := `
		INSERT INTO product_variants (product_id, size, color, unit_price, stock, min_stock)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at, updated_at`

	return s.db.GetContext(ctx, variant, query,
		variant.ProductID, variant.Size, variant.Color,
		variant.UnitPrice, variant.Stock, variant.MinStock)
}

// ProductByID retrieves a product by ID
func (s *Store) ProductByID(ctx context.Context, id int64) (*models.Product, error) {
	var product models.Product
	err := s.db.GetContext(ctx, &product, "SELECT * FROM products WHERE id = $1", id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, port.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &product, nil
}

// Products retrieves all products
func (s *Store) Products(ctx context.Context) ([]models.Product, error) {
	var products []models.Product
	err := s.db.SelectContext(ctx, &products, "SELECT * FROM products ORDER BY name")
	return products, err
}

// ProductsByCompany retrieves one organization's products
func (s *Store) ProductsByCompany(ctx context.Context, companyName string) ([]models.Product, error) {
	var products []models.Product
	err := s.db.SelectContext(ctx, &products,
		"SELECT * FROM products WHERE company_name = $1 ORDER BY name", companyName)
	return products, err
}

// VariantsByProductID retrieves the variants of a product
func (s *Store) VariantsByProductID(ctx context.Context, productID int64) ([]models.ProductVariant, error) {
	var variants []models.ProductVariant
	err := s.db.SelectContext(ctx, &variants,
		"SELECT * FROM product_variants WHERE product_id = $1 ORDER BY id", productID)
	return variants, err
}

// VariantByID retrieves a variant by ID
func (s *Store) VariantByID(ctx context.Context, id int64) (*models.ProductVariant, error) {
	var v models.ProductVariant
	err := s.db.GetContext(ctx, &v, "SELECT * FROM product_variants WHERE id = $1", id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, port.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &v, nil
}

// VariantsByIDs retrieves multiple variants by IDs
func (s *Store) VariantsByIDs(ctx context.Context, ids []int64) ([]models.ProductVariant, error) {
	if len(ids) == 0 {
		return []models.ProductVariant{}, nil
	}

	query, args, err := sqlx.In("SELECT * FROM product_variants WHERE id IN (?)", ids)
	if err != nil {
		return nil, err
	}
	query = s.db.Rebind(query)

	var variants []models.ProductVariant
	err = s.db.SelectContext(ctx, &variants, query, args...)
	return variants, err
}

// AddStock applies an explicit restock delta to a variant under a row lock
// and returns the updated row. Negative deltas that would take stock below
// zero are rejected by the non-negative check.
func (s *Store) AddStock(ctx context.Context, variantID int64, delta int) (*models.ProductVariant, error) {
	var updated *models.ProductVariant
	err := s.RunInTx(ctx, func(tx port.OrderTx) error {
		v, err := tx.VariantForUpdate(ctx, variantID)
		if err != nil {
			return err
		}
		next := v.Stock + delta
		if next < 0 {
			return fmt.Errorf("restock delta %d would take variant %d stock below zero", delta, variantID)
		}
		if err := tx.UpdateVariantStock(ctx, variantID, next); err != nil {
			return err
		}
		v.Stock = next
		updated = v
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}
