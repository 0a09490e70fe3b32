package testutil

import (
	"context"
	"testing"

	"supplychain/internal/domain"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

// Fixtures is the reference data most workflow tests start from.
type Fixtures struct {
	Material  domain.Material
	Supplier  domain.Supplier
	Warehouse domain.Warehouse
	Customer  domain.Customer
	Product   domain.Product
	Product2  domain.Product
}

var (
	Admin     = domain.Principal{UserID: 1, Username: "admin", Role: domain.RoleAdmin}
	Purchaser = domain.Principal{UserID: 2, Username: "buyer", Role: domain.RolePurchaser}
	Sales     = domain.Principal{UserID: 3, Username: "seller", Role: domain.RoleSales}
)

func Seed(t *testing.T, store *MemStore) Fixtures {
	t.Helper()
	ctx := context.Background()
	buyer := "Li"

	f := Fixtures{
		Material:  domain.Material{Code: "M-001", Name: "Steel plate", Unit: "PCS", Price: decimal.NewFromInt(5), SafetyStock: 10, Buyer: &buyer, Status: domain.StatusActive},
		Supplier:  domain.Supplier{Code: "S-001", Name: "Acme Metals", Status: domain.StatusActive},
		Warehouse: domain.Warehouse{Code: "WH-MAIN", Name: "Main Warehouse", Status: domain.StatusActive},
		Customer:  domain.Customer{Code: "C-001", Name: "Globex", Status: domain.StatusActive},
		Product:   domain.Product{Code: "P-001", Name: "Bracket", Unit: "PCS", Status: domain.StatusActive},
		Product2:  domain.Product{Code: "P-002", Name: "Hinge", Unit: "PCS", Status: domain.StatusActive},
	}
	require.NoError(t, store.InsertMaterial(ctx, &f.Material))
	require.NoError(t, store.InsertSupplier(ctx, &f.Supplier))
	require.NoError(t, store.InsertWarehouse(ctx, &f.Warehouse))
	require.NoError(t, store.InsertCustomer(ctx, &f.Customer))
	require.NoError(t, store.InsertProduct(ctx, &f.Product))
	require.NoError(t, store.InsertProduct(ctx, &f.Product2))
	return f
}
