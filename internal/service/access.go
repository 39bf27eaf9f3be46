package service

import (
	"supplychain-service/internal/models"
)

// AccessFilter decides which orders and catalog rows a principal may see or
// touch. Two rules apply everywhere: a super admin bypasses every ownership
// check, and everyone else is confined to their own organization. Writes on
// orders are additionally restricted to the order's creator. The
// reservation engine performs no authorization of its own, so every caller
// goes through this filter first.
type AccessFilter struct{}

// CanReadOrder reports whether p may read order o.
func (AccessFilter) CanReadOrder(p models.Principal, o *models.Order) bool {
	if p.IsSuperAdmin() {
		return true
	}
	return o.CompanyName == p.CompanyName
}

// CanWriteOrder reports whether p may mutate or delete order o.
func (AccessFilter) CanWriteOrder(p models.Principal, o *models.Order) bool {
	if p.IsSuperAdmin() {
		return true
	}
	return o.UserID == p.ID
}

// CanReadProduct reports whether p may read product prod and its variants.
func (AccessFilter) CanReadProduct(p models.Principal, prod *models.Product) bool {
	if p.IsSuperAdmin() {
		return true
	}
	return prod.CompanyName == p.CompanyName
}

// CanWriteProduct reports whether p may mutate product prod, including
// restocking its variants.
func (AccessFilter) CanWriteProduct(p models.Principal, prod *models.Product) bool {
	if p.IsSuperAdmin() {
		return true
	}
	return prod.CompanyName == p.CompanyName
}
