package service

import (
	"context"
	"errors"
	"testing"

	"supplychain/internal/domain"
	"supplychain/internal/repository"
	"supplychain/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedStock(t *testing.T, svc *Service, fx testutil.Fixtures, qty int) domain.InventoryRecord {
	t.Helper()
	rec, err := svc.CreateInventory(context.Background(), testutil.Admin, InventoryInput{
		ItemType:    domain.ItemTypeMaterial,
		ItemID:      fx.Material.ID,
		WarehouseID: fx.Warehouse.ID,
		Quantity:    qty,
		SafetyStock: 5,
	})
	require.NoError(t, err)
	return rec
}

func TestAdjustOutBeyondStockIsRejected(t *testing.T) {
	svc, store, fx := newTestService(t)
	ctx := context.Background()
	rec := seedStock(t, svc, fx, 10)

	_, err := svc.AdjustInventory(ctx, testutil.Admin, rec.ID, AdjustInput{Type: domain.AdjustOut, Quantity: 11})
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrInsufficientStock))

	after, err := svc.GetInventory(ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, 10, after.Quantity)
	assert.Len(t, store.Movements(), 1)
}

func TestAdjustInventory(t *testing.T) {
	svc, _, fx := newTestService(t)
	ctx := context.Background()
	rec := seedStock(t, svc, fx, 10)
	reason := "cycle count"

	result, err := svc.AdjustInventory(ctx, testutil.Admin, rec.ID, AdjustInput{Type: domain.AdjustIn, Quantity: 4, Reason: &reason})
	require.NoError(t, err)
	assert.Equal(t, AdjustResult{PreviousQuantity: 10, AdjustQuantity: 4, NewQuantity: 14}, result)

	result, err = svc.AdjustInventory(ctx, testutil.Admin, rec.ID, AdjustInput{Type: domain.AdjustOut, Quantity: 14})
	require.NoError(t, err)
	assert.Equal(t, 0, result.NewQuantity)

	movements, err := svc.ListMovements(ctx, rec.ID, 1, 20)
	require.NoError(t, err)
	require.Equal(t, 3, movements.Total)
	assert.Equal(t, domain.MovementAdjustOut, movements.Items[0].MovementType)
	assert.Equal(t, -14, movements.Items[0].Delta)
	assert.Equal(t, domain.MovementAdjustIn, movements.Items[1].MovementType)
	require.NotNil(t, movements.Items[1].Reason)
	assert.Equal(t, "cycle count", *movements.Items[1].Reason)
	assert.Equal(t, domain.MovementSet, movements.Items[2].MovementType)
}

func TestAdjustInventoryRejectsBadQuantity(t *testing.T) {
	svc, _, fx := newTestService(t)
	ctx := context.Background()
	rec := seedStock(t, svc, fx, 10)

	_, err := svc.AdjustInventory(ctx, testutil.Admin, rec.ID, AdjustInput{Type: domain.AdjustIn, Quantity: 0})
	assert.True(t, errors.Is(err, domain.ErrInvalidQuantity))

	_, err = svc.AdjustInventory(ctx, testutil.Admin, rec.ID, AdjustInput{Type: "sideways", Quantity: 1})
	assert.True(t, errors.Is(err, domain.ErrValidation))

	_, err = svc.AdjustInventory(ctx, testutil.Admin, 999, AdjustInput{Type: domain.AdjustIn, Quantity: 1})
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

func TestUpdateInventorySetsAbsoluteQuantity(t *testing.T) {
	svc, _, fx := newTestService(t)
	ctx := context.Background()
	rec := seedStock(t, svc, fx, 10)

	updated, err := svc.UpdateInventory(ctx, testutil.Admin, rec.ID, InventoryPatch{
		Quantity:    domain.Some(3),
		SafetyStock: domain.Some(8),
	})
	require.NoError(t, err)
	assert.Equal(t, 3, updated.Quantity)
	assert.Equal(t, 8, updated.SafetyStock)
	assert.Equal(t, "Steel plate", updated.ItemName)

	movements, err := svc.ListMovements(ctx, rec.ID, 1, 20)
	require.NoError(t, err)
	require.Equal(t, 2, movements.Total)
	assert.Equal(t, domain.MovementSet, movements.Items[0].MovementType)
	assert.Equal(t, -7, movements.Items[0].Delta)
	assert.Equal(t, 3, movements.Items[0].QuantityAfter)

	_, err = svc.UpdateInventory(ctx, testutil.Admin, rec.ID, InventoryPatch{Quantity: domain.Some(-1)})
	assert.True(t, errors.Is(err, domain.ErrInvalidQuantity))

	unchanged, err := svc.UpdateInventory(ctx, testutil.Admin, rec.ID, InventoryPatch{SafetyStock: domain.Some(2)})
	require.NoError(t, err)
	assert.Equal(t, 3, unchanged.Quantity)
	movements, err = svc.ListMovements(ctx, rec.ID, 1, 20)
	require.NoError(t, err)
	assert.Equal(t, 2, movements.Total)
}

func TestCreateInventoryRejectsDuplicateKey(t *testing.T) {
	svc, _, fx := newTestService(t)
	seedStock(t, svc, fx, 1)

	_, err := svc.CreateInventory(context.Background(), testutil.Admin, InventoryInput{
		ItemType:    domain.ItemTypeMaterial,
		ItemID:      fx.Material.ID,
		WarehouseID: fx.Warehouse.ID,
	})
	assert.True(t, errors.Is(err, domain.ErrConflict))
}

func TestCreateInventoryChecksReferences(t *testing.T) {
	svc, _, fx := newTestService(t)
	ctx := context.Background()

	_, err := svc.CreateInventory(ctx, testutil.Admin, InventoryInput{
		ItemType:    domain.ItemTypeProduct,
		ItemID:      fx.Material.ID + 1000,
		WarehouseID: fx.Warehouse.ID,
	})
	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, []string{"itemId"}, verr.Fields)

	_, err = svc.CreateInventory(ctx, testutil.Admin, InventoryInput{
		ItemType:    domain.ItemTypeProduct,
		ItemID:      fx.Product.ID,
		WarehouseID: fx.Warehouse.ID,
		Quantity:    -2,
	})
	assert.True(t, errors.Is(err, domain.ErrInvalidQuantity))

	rec, err := svc.CreateInventory(ctx, testutil.Admin, InventoryInput{
		ItemType:    domain.ItemTypeProduct,
		ItemID:      fx.Product.ID,
		WarehouseID: fx.Warehouse.ID,
	})
	require.NoError(t, err)
	assert.Equal(t, "Bracket", rec.ItemName)

	page, err := svc.ListInventory(ctx, repository.InventoryFilter{ItemType: domain.ItemTypeProduct})
	require.NoError(t, err)
	assert.Equal(t, 1, page.Total)
}

func TestDeleteInventory(t *testing.T) {
	svc, _, fx := newTestService(t)
	ctx := context.Background()
	rec := seedStock(t, svc, fx, 2)

	err := svc.DeleteInventory(ctx, rec.ID)
	assert.True(t, errors.Is(err, domain.ErrReferentialConflict))

	_, err = svc.AdjustInventory(ctx, testutil.Admin, rec.ID, AdjustInput{Type: domain.AdjustOut, Quantity: 2})
	require.NoError(t, err)
	require.NoError(t, svc.DeleteInventory(ctx, rec.ID))

	_, err = svc.GetInventory(ctx, rec.ID)
	assert.True(t, errors.Is(err, domain.ErrNotFound))
	_, err = svc.ListMovements(ctx, rec.ID, 1, 20)
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}
