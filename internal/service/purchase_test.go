package service

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"supplychain/internal/domain"
	"supplychain/internal/repository"
	"supplychain/internal/testutil"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2025, time.March, 9, 12, 0, 0, 0, time.UTC)

func newTestService(t *testing.T) (*Service, *testutil.MemStore, testutil.Fixtures) {
	t.Helper()
	store := testutil.NewMemStore()
	fx := testutil.Seed(t, store)
	svc := New(store, Options{
		DefaultWarehouseID: fx.Warehouse.ID,
		Now:                func() time.Time { return fixedNow },
	})
	return svc, store, fx
}

func purchaseInput(fx testutil.Fixtures, qty int, price *decimal.Decimal) domain.PurchaseOrderInput {
	return domain.PurchaseOrderInput{
		MaterialID:   fx.Material.ID,
		SupplierID:   fx.Supplier.ID,
		Quantity:     qty,
		UnitPrice:    price,
		OrderDate:    domain.NewDate(fixedNow),
		ExpectedDate: domain.NewDate(fixedNow.AddDate(0, 0, 14)),
	}
}

func materialKey(fx testutil.Fixtures) domain.InventoryKey {
	return domain.InventoryKey{ItemType: domain.ItemTypeMaterial, ItemID: fx.Material.ID, WarehouseID: fx.Warehouse.ID}
}

func TestPurchaseOrderArrivalMovesInTransitIntoInventory(t *testing.T) {
	svc, store, fx := newTestService(t)
	ctx := context.Background()
	price := decimal.NewFromInt(5)

	po, err := svc.CreatePurchaseOrder(ctx, testutil.Purchaser, purchaseInput(fx, 100, &price))
	require.NoError(t, err)
	assert.Equal(t, "PO2025030001", po.PONo)
	assert.Equal(t, domain.POStatusDraft, po.Status)
	require.NotNil(t, po.TotalAmount)
	assert.True(t, decimal.NewFromInt(500).Equal(*po.TotalAmount))
	assert.Equal(t, testutil.Purchaser.UserID, po.CreatedBy)

	transit, ok := store.InTransit(po.ID)
	require.True(t, ok)
	assert.Equal(t, 100, transit.Quantity)

	for _, step := range []domain.POStatus{domain.POStatusConfirmed, domain.POStatusProducing, domain.POStatusShipped} {
		po, err = svc.ConfirmPurchaseOrder(ctx, testutil.Purchaser, po.ID, "")
		require.NoError(t, err)
		assert.Equal(t, step, po.Status)
		_, ok = store.InTransit(po.ID)
		assert.True(t, ok, "in-transit row kept while %s", step)
	}
	_, ok = store.InventoryAt(materialKey(fx))
	assert.False(t, ok)

	po, err = svc.UpdatePurchaseOrder(ctx, testutil.Purchaser, po.ID, domain.PurchaseOrderPatch{Status: domain.Some("arrived")})
	require.NoError(t, err)
	assert.Equal(t, domain.POStatusArrived, po.Status)
	require.NotNil(t, po.ActualDate)
	assert.Equal(t, "2025-03-09", po.ActualDate.String())

	_, ok = store.InTransit(po.ID)
	assert.False(t, ok)
	rec, ok := store.InventoryAt(materialKey(fx))
	require.True(t, ok)
	assert.Equal(t, 100, rec.Quantity)

	movements := store.Movements()
	require.Len(t, movements, 1)
	assert.Equal(t, domain.MovementPurchaseIn, movements[0].MovementType)
	assert.Equal(t, 100, movements[0].Delta)
	require.NotNil(t, movements[0].ReferenceID)
	assert.Equal(t, po.ID, *movements[0].ReferenceID)
}

func TestPurchaseOrderArrivalAddsToExistingStock(t *testing.T) {
	svc, store, fx := newTestService(t)
	ctx := context.Background()

	for _, qty := range []int{30, 12} {
		po, err := svc.CreatePurchaseOrder(ctx, testutil.Admin, purchaseInput(fx, qty, nil))
		require.NoError(t, err)
		assert.Nil(t, po.TotalAmount)
		for _, step := range []string{"confirmed", "producing", "shipped", "arrived"} {
			_, err = svc.ConfirmPurchaseOrder(ctx, testutil.Admin, po.ID, step)
			require.NoError(t, err)
		}
	}
	rec, ok := store.InventoryAt(materialKey(fx))
	require.True(t, ok)
	assert.Equal(t, 42, rec.Quantity)
}

func TestPurchaseOrderRejectsSkippedTransition(t *testing.T) {
	svc, store, fx := newTestService(t)
	ctx := context.Background()

	po, err := svc.CreatePurchaseOrder(ctx, testutil.Purchaser, purchaseInput(fx, 10, nil))
	require.NoError(t, err)

	_, err = svc.UpdatePurchaseOrder(ctx, testutil.Purchaser, po.ID, domain.PurchaseOrderPatch{
		Status:   domain.Some("shipped"),
		Quantity: domain.Some(99),
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrInvalidTransition))
	assert.Contains(t, err.Error(), "draft")
	assert.Contains(t, err.Error(), "shipped")

	stored, err := svc.GetPurchaseOrder(ctx, po.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.POStatusDraft, stored.Status)
	assert.Equal(t, 10, stored.Quantity)

	_, err = svc.ConfirmPurchaseOrder(ctx, testutil.Purchaser, po.ID, "arrived")
	assert.True(t, errors.Is(err, domain.ErrInvalidTransition))
	_, ok := store.InTransit(po.ID)
	assert.True(t, ok)
}

func TestCancelProducingPurchaseOrder(t *testing.T) {
	svc, store, fx := newTestService(t)
	ctx := context.Background()

	po, err := svc.CreatePurchaseOrder(ctx, testutil.Purchaser, purchaseInput(fx, 25, nil))
	require.NoError(t, err)
	_, err = svc.ConfirmPurchaseOrder(ctx, testutil.Purchaser, po.ID, "")
	require.NoError(t, err)
	_, err = svc.ConfirmPurchaseOrder(ctx, testutil.Purchaser, po.ID, "")
	require.NoError(t, err)

	deleted, err := svc.DeletePurchaseOrder(ctx, testutil.Purchaser, po.ID)
	require.NoError(t, err)
	assert.False(t, deleted)

	stored, err := svc.GetPurchaseOrder(ctx, po.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.POStatusCancelled, stored.Status)
	_, ok := store.InTransit(po.ID)
	assert.False(t, ok)
	_, ok = store.InventoryAt(materialKey(fx))
	assert.False(t, ok)
	assert.Empty(t, store.Movements())

	_, err = svc.DeletePurchaseOrder(ctx, testutil.Purchaser, po.ID)
	assert.True(t, errors.Is(err, domain.ErrInvalidTransition))
}

func TestDeleteDraftPurchaseOrder(t *testing.T) {
	svc, store, fx := newTestService(t)
	ctx := context.Background()

	po, err := svc.CreatePurchaseOrder(ctx, testutil.Purchaser, purchaseInput(fx, 5, nil))
	require.NoError(t, err)

	deleted, err := svc.DeletePurchaseOrder(ctx, testutil.Purchaser, po.ID)
	require.NoError(t, err)
	assert.True(t, deleted)
	assert.Equal(t, 0, store.PurchaseOrderCount())
	_, ok := store.InTransit(po.ID)
	assert.False(t, ok)

	_, err = svc.GetPurchaseOrder(ctx, po.ID)
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

func TestUpdateTerminalPurchaseOrderIsRejected(t *testing.T) {
	svc, _, fx := newTestService(t)
	ctx := context.Background()

	po, err := svc.CreatePurchaseOrder(ctx, testutil.Purchaser, purchaseInput(fx, 5, nil))
	require.NoError(t, err)
	_, err = svc.ConfirmPurchaseOrder(ctx, testutil.Purchaser, po.ID, "cancelled")
	require.NoError(t, err)

	_, err = svc.UpdatePurchaseOrder(ctx, testutil.Purchaser, po.ID, domain.PurchaseOrderPatch{Remark: domain.Some("late")})
	assert.True(t, errors.Is(err, domain.ErrTerminalOrderImmutable))

	_, err = svc.ConfirmPurchaseOrder(ctx, testutil.Purchaser, po.ID, "")
	assert.True(t, errors.Is(err, domain.ErrInvalidTransition))
}

func TestUpdatePurchaseOrderMirrorsInTransit(t *testing.T) {
	svc, store, fx := newTestService(t)
	ctx := context.Background()
	price := decimal.NewFromInt(2)

	po, err := svc.CreatePurchaseOrder(ctx, testutil.Purchaser, purchaseInput(fx, 10, &price))
	require.NoError(t, err)

	expected := domain.NewDate(fixedNow.AddDate(0, 1, 0))
	po, err = svc.UpdatePurchaseOrder(ctx, testutil.Purchaser, po.ID, domain.PurchaseOrderPatch{
		Quantity:     domain.Some(40),
		ExpectedDate: domain.Some(expected),
	})
	require.NoError(t, err)
	require.NotNil(t, po.TotalAmount)
	assert.True(t, decimal.NewFromInt(80).Equal(*po.TotalAmount))

	transit, ok := store.InTransit(po.ID)
	require.True(t, ok)
	assert.Equal(t, 40, transit.Quantity)
	assert.Equal(t, expected.String(), transit.ExpectedDate.String())
}

func TestArrivalKeepsGivenActualDate(t *testing.T) {
	svc, _, fx := newTestService(t)
	ctx := context.Background()

	po, err := svc.CreatePurchaseOrder(ctx, testutil.Purchaser, purchaseInput(fx, 1, nil))
	require.NoError(t, err)
	for _, step := range []string{"confirmed", "producing", "shipped"} {
		_, err = svc.ConfirmPurchaseOrder(ctx, testutil.Purchaser, po.ID, step)
		require.NoError(t, err)
	}
	actual := domain.NewDate(fixedNow.AddDate(0, 0, -2))
	po, err = svc.UpdatePurchaseOrder(ctx, testutil.Purchaser, po.ID, domain.PurchaseOrderPatch{
		Status:     domain.Some("arrived"),
		ActualDate: domain.Some(actual),
	})
	require.NoError(t, err)
	require.NotNil(t, po.ActualDate)
	assert.Equal(t, "2025-03-07", po.ActualDate.String())
}

func TestArrivalRollsBackWhenLedgerWriteFails(t *testing.T) {
	svc, store, fx := newTestService(t)
	ctx := context.Background()

	po, err := svc.CreatePurchaseOrder(ctx, testutil.Purchaser, purchaseInput(fx, 7, nil))
	require.NoError(t, err)
	for _, step := range []string{"confirmed", "producing", "shipped"} {
		_, err = svc.ConfirmPurchaseOrder(ctx, testutil.Purchaser, po.ID, step)
		require.NoError(t, err)
	}

	store.FailOn("InsertMovement", errors.New("disk full"))
	_, err = svc.ConfirmPurchaseOrder(ctx, testutil.Purchaser, po.ID, "")
	require.Error(t, err)
	store.FailOn("InsertMovement", nil)

	stored, err := svc.GetPurchaseOrder(ctx, po.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.POStatusShipped, stored.Status)
	_, ok := store.InTransit(po.ID)
	assert.True(t, ok)
	_, ok = store.InventoryAt(materialKey(fx))
	assert.False(t, ok)
}

func TestArrivalBeyondIntegerRangeIsRejected(t *testing.T) {
	svc, store, fx := newTestService(t)
	ctx := context.Background()
	seedStock(t, svc, fx, math.MaxInt32-5)

	po, err := svc.CreatePurchaseOrder(ctx, testutil.Purchaser, purchaseInput(fx, 10, nil))
	require.NoError(t, err)
	for _, step := range []string{"confirmed", "producing", "shipped"} {
		_, err = svc.ConfirmPurchaseOrder(ctx, testutil.Purchaser, po.ID, step)
		require.NoError(t, err)
	}

	_, err = svc.ConfirmPurchaseOrder(ctx, testutil.Purchaser, po.ID, "")
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrInvalidQuantity))

	stored, err := svc.GetPurchaseOrder(ctx, po.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.POStatusShipped, stored.Status)
	_, ok := store.InTransit(po.ID)
	assert.True(t, ok)
	rec, ok := store.InventoryAt(materialKey(fx))
	require.True(t, ok)
	assert.Equal(t, math.MaxInt32-5, rec.Quantity)
}

func TestCreatePurchaseOrderValidation(t *testing.T) {
	svc, _, fx := newTestService(t)
	ctx := context.Background()

	_, err := svc.CreatePurchaseOrder(ctx, testutil.Purchaser, domain.PurchaseOrderInput{Quantity: 0})
	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "quantity")

	in := purchaseInput(fx, 1, nil)
	in.MaterialID = 9999
	_, err = svc.CreatePurchaseOrder(ctx, testutil.Purchaser, in)
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, []string{"materialId"}, verr.Fields)
}

func TestDuplicatePurchaseOrderNumber(t *testing.T) {
	svc, _, fx := newTestService(t)
	ctx := context.Background()

	in := purchaseInput(fx, 1, nil)
	in.PONo = "PO2025030007"
	_, err := svc.CreatePurchaseOrder(ctx, testutil.Purchaser, in)
	require.NoError(t, err)

	_, err = svc.CreatePurchaseOrder(ctx, testutil.Purchaser, in)
	assert.True(t, errors.Is(err, domain.ErrDuplicateOrderNumber))

	next, err := svc.GeneratePurchaseOrderNo(ctx)
	require.NoError(t, err)
	assert.Equal(t, "PO2025030008", next)
}

func TestGeneratePurchaseOrderNoIsAPreview(t *testing.T) {
	svc, _, fx := newTestService(t)
	ctx := context.Background()

	first, err := svc.GeneratePurchaseOrderNo(ctx)
	require.NoError(t, err)
	second, err := svc.GeneratePurchaseOrderNo(ctx)
	require.NoError(t, err)
	assert.Equal(t, first, second)

	a, err := svc.CreatePurchaseOrder(ctx, testutil.Purchaser, purchaseInput(fx, 1, nil))
	require.NoError(t, err)
	b, err := svc.CreatePurchaseOrder(ctx, testutil.Purchaser, purchaseInput(fx, 1, nil))
	require.NoError(t, err)
	assert.Equal(t, first, a.PONo)
	assert.Less(t, a.PONo, b.PONo)
}

func TestListPurchaseOrdersFilters(t *testing.T) {
	svc, _, fx := newTestService(t)
	ctx := context.Background()

	first, err := svc.CreatePurchaseOrder(ctx, testutil.Purchaser, purchaseInput(fx, 1, nil))
	require.NoError(t, err)
	_, err = svc.CreatePurchaseOrder(ctx, testutil.Purchaser, purchaseInput(fx, 2, nil))
	require.NoError(t, err)
	_, err = svc.ConfirmPurchaseOrder(ctx, testutil.Purchaser, first.ID, "")
	require.NoError(t, err)

	page, err := svc.ListPurchaseOrders(ctx, repository.PurchaseOrderFilter{Status: domain.POStatusConfirmed})
	require.NoError(t, err)
	require.Equal(t, 1, page.Total)
	assert.Equal(t, first.ID, page.Items[0].ID)
	assert.Equal(t, "Steel plate", page.Items[0].MaterialName)

	page, err = svc.ListPurchaseOrders(ctx, repository.PurchaseOrderFilter{Keyword: "acme"})
	require.NoError(t, err)
	assert.Equal(t, 2, page.Total)
}

func TestEnsureDefaultWarehouse(t *testing.T) {
	store := testutil.NewMemStore()
	svc := New(store, Options{})
	ctx := context.Background()

	created, err := svc.EnsureDefaultWarehouse(ctx, "WH-01", "Dock")
	require.NoError(t, err)
	assert.Equal(t, created.ID, svc.DefaultWarehouseID())

	again, err := svc.EnsureDefaultWarehouse(ctx, "WH-01", "ignored")
	require.NoError(t, err)
	assert.Equal(t, created.ID, again.ID)
	assert.Equal(t, "Dock", again.Name)
}
