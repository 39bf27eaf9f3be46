package service

import (
	"testing"

	"supplychain-service/internal/models"

	"github.com/stretchr/testify/assert"
)

func TestAccessFilterOrders(t *testing.T) {
	order := &models.Order{ID: 1, UserID: "user-1", CompanyName: "Acme Distribution"}

	owner := models.Principal{ID: "user-1", Role: models.RoleRetailer, CompanyName: "Acme Distribution"}
	colleague := models.Principal{ID: "user-2", Role: models.RoleWholesaler, CompanyName: "Acme Distribution"}
	outsider := models.Principal{ID: "user-9", Role: models.RoleWholesaler, CompanyName: "Other Corp"}
	admin := models.Principal{ID: "admin-1", Role: models.RoleSuperAdmin}

	var filter AccessFilter

	tests := []struct {
		name      string
		principal models.Principal
		canRead   bool
		canWrite  bool
	}{
		{"owner", owner, true, true},
		{"same company", colleague, true, false},
		{"other company", outsider, false, false},
		{"super admin", admin, true, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.canRead, filter.CanReadOrder(tt.principal, order))
			assert.Equal(t, tt.canWrite, filter.CanWriteOrder(tt.principal, order))
		})
	}
}

func TestAccessFilterProducts(t *testing.T) {
	product := &models.Product{ID: 1, CompanyName: "Acme Distribution"}

	insider := models.Principal{ID: "user-1", Role: models.RoleRetailer, CompanyName: "Acme Distribution"}
	outsider := models.Principal{ID: "user-9", Role: models.RoleWholesaler, CompanyName: "Other Corp"}
	admin := models.Principal{ID: "admin-1", Role: models.RoleSuperAdmin}

	var filter AccessFilter

	assert.True(t, filter.CanReadProduct(insider, product))
	assert.True(t, filter.CanWriteProduct(insider, product))
	assert.False(t, filter.CanReadProduct(outsider, product))
	assert.False(t, filter.CanWriteProduct(outsider, product))
	assert.True(t, filter.CanReadProduct(admin, product))
	assert.True(t, filter.CanWriteProduct(admin, product))
}
