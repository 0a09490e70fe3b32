package service

import (
	"context"
	"errors"
	"testing"

	"supplychain/internal/domain"
	"supplychain/internal/repository"
	"supplychain/internal/testutil"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func salesInput(fx testutil.Fixtures, lines ...domain.SalesLineInput) domain.SalesOrderInput {
	seller := "Wang"
	return domain.SalesOrderInput{
		CustomerID:   fx.Customer.ID,
		OrderDate:    domain.NewDate(fixedNow),
		DeliveryDate: domain.NewDate(fixedNow.AddDate(0, 0, 10)),
		SalesPerson:  &seller,
		Lines:        lines,
	}
}

func line(productID int64, qty int, price int64) domain.SalesLineInput {
	return domain.SalesLineInput{ProductID: productID, Quantity: qty, UnitPrice: decimal.NewFromInt(price)}
}

func TestSalesOrderTotalsFollowLines(t *testing.T) {
	svc, store, fx := newTestService(t)
	ctx := context.Background()

	so, err := svc.CreateSalesOrder(ctx, testutil.Sales, salesInput(fx,
		line(fx.Product.ID, 10, 2),
		line(fx.Product2.ID, 5, 3),
	))
	require.NoError(t, err)
	assert.Equal(t, "SO2025030001", so.OrderNo)
	assert.Equal(t, domain.SOStatusPending, so.Status)
	assert.True(t, decimal.NewFromInt(35).Equal(so.TotalAmount), so.TotalAmount.String())
	require.Len(t, store.OrderLines(so.ID), 2)

	replaced, err := svc.UpdateSalesOrder(ctx, testutil.Sales, so.ID, salesInput(fx, line(fx.Product2.ID, 4, 3)))
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(12).Equal(replaced.TotalAmount))

	stored, err := svc.GetSalesOrder(ctx, so.ID)
	require.NoError(t, err)
	require.Len(t, stored.Lines, 1)
	assert.Equal(t, fx.Product2.ID, stored.Lines[0].ProductID)
	assert.True(t, decimal.NewFromInt(12).Equal(stored.Lines[0].Amount))
	assert.True(t, decimal.NewFromInt(12).Equal(stored.TotalAmount))
	assert.Equal(t, so.OrderNo, stored.OrderNo)
}

func TestSalesOrderLinesAreRequired(t *testing.T) {
	svc, _, fx := newTestService(t)

	_, err := svc.CreateSalesOrder(context.Background(), testutil.Sales, salesInput(fx))
	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, []string{"lines"}, verr.Fields)
}

func TestSalesOrderUnknownProduct(t *testing.T) {
	svc, _, fx := newTestService(t)

	_, err := svc.CreateSalesOrder(context.Background(), testutil.Sales, salesInput(fx,
		line(fx.Product.ID, 1, 1),
		line(4242, 1, 1),
	))
	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, []string{"lines[1].productId"}, verr.Fields)
}

func TestSalesOrderLineReplaceRollsBack(t *testing.T) {
	svc, store, fx := newTestService(t)
	ctx := context.Background()

	so, err := svc.CreateSalesOrder(ctx, testutil.Sales, salesInput(fx, line(fx.Product.ID, 10, 2)))
	require.NoError(t, err)

	store.FailOn("InsertOrderLines", errors.New("connection reset"))
	_, err = svc.UpdateSalesOrder(ctx, testutil.Sales, so.ID, salesInput(fx, line(fx.Product2.ID, 1, 1)))
	require.Error(t, err)
	store.FailOn("InsertOrderLines", nil)

	stored, err := svc.GetSalesOrder(ctx, so.ID)
	require.NoError(t, err)
	require.Len(t, stored.Lines, 1)
	assert.Equal(t, fx.Product.ID, stored.Lines[0].ProductID)
	assert.True(t, decimal.NewFromInt(20).Equal(stored.TotalAmount))
}

func TestTerminalSalesOrderIsImmutable(t *testing.T) {
	for _, status := range []string{"completed", "cancelled"} {
		t.Run(status, func(t *testing.T) {
			svc, _, fx := newTestService(t)
			ctx := context.Background()

			in := salesInput(fx, line(fx.Product.ID, 1, 9))
			in.Status = status
			so, err := svc.CreateSalesOrder(ctx, testutil.Admin, in)
			require.NoError(t, err)

			_, err = svc.UpdateSalesOrder(ctx, testutil.Admin, so.ID, salesInput(fx, line(fx.Product.ID, 2, 9)))
			assert.True(t, errors.Is(err, domain.ErrTerminalOrderImmutable))

			_, err = svc.DeleteSalesOrder(ctx, testutil.Admin, so.ID)
			assert.True(t, errors.Is(err, domain.ErrTerminalOrderImmutable))

			stored, err := svc.GetSalesOrder(ctx, so.ID)
			require.NoError(t, err)
			assert.Equal(t, domain.SOStatus(status), stored.Status)
			assert.True(t, decimal.NewFromInt(9).Equal(stored.TotalAmount))
		})
	}
}

func TestDeleteSalesOrder(t *testing.T) {
	svc, _, fx := newTestService(t)
	ctx := context.Background()

	pending, err := svc.CreateSalesOrder(ctx, testutil.Sales, salesInput(fx, line(fx.Product.ID, 1, 1)))
	require.NoError(t, err)
	deleted, err := svc.DeleteSalesOrder(ctx, testutil.Sales, pending.ID)
	require.NoError(t, err)
	assert.True(t, deleted)
	_, err = svc.GetSalesOrder(ctx, pending.ID)
	assert.True(t, errors.Is(err, domain.ErrNotFound))

	in := salesInput(fx, line(fx.Product.ID, 1, 1))
	in.Status = "confirmed"
	confirmed, err := svc.CreateSalesOrder(ctx, testutil.Sales, in)
	require.NoError(t, err)

	_, err = svc.DeleteSalesOrder(ctx, testutil.Sales, confirmed.ID)
	assert.True(t, errors.Is(err, domain.ErrForbidden))

	deleted, err = svc.DeleteSalesOrder(ctx, testutil.Admin, confirmed.ID)
	require.NoError(t, err)
	assert.False(t, deleted)
	stored, err := svc.GetSalesOrder(ctx, confirmed.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.SOStatusCancelled, stored.Status)
}

func TestSalesOrderDisplayStatus(t *testing.T) {
	svc, _, fx := newTestService(t)
	ctx := context.Background()

	late := salesInput(fx, line(fx.Product.ID, 1, 1))
	late.OrderDate = domain.NewDate(fixedNow.AddDate(0, 0, -20))
	late.DeliveryDate = domain.NewDate(fixedNow.AddDate(0, 0, -1))
	overdue, err := svc.CreateSalesOrder(ctx, testutil.Sales, late)
	require.NoError(t, err)
	assert.Equal(t, domain.SOStatusOverdue, overdue.DisplayStatus)
	assert.Equal(t, domain.SOStatusPending, overdue.Status)

	dueToday := salesInput(fx, line(fx.Product.ID, 1, 1))
	dueToday.DeliveryDate = domain.NewDate(fixedNow)
	onTime, err := svc.CreateSalesOrder(ctx, testutil.Sales, dueToday)
	require.NoError(t, err)
	assert.Equal(t, domain.SOStatusPending, onTime.DisplayStatus)

	page, err := svc.ListSalesOrders(ctx, repository.SalesOrderFilter{})
	require.NoError(t, err)
	require.Equal(t, 2, page.Total)
	byID := map[int64]domain.SOStatus{}
	for _, so := range page.Items {
		byID[so.ID] = so.DisplayStatus
	}
	assert.Equal(t, domain.SOStatusOverdue, byID[overdue.ID])
	assert.Equal(t, domain.SOStatusPending, byID[onTime.ID])
}

func TestSalesOrderNumbering(t *testing.T) {
	svc, _, fx := newTestService(t)
	ctx := context.Background()

	preview, err := svc.GenerateSalesOrderNo(ctx)
	require.NoError(t, err)
	assert.Equal(t, "SO2025030001", preview)

	in := salesInput(fx, line(fx.Product.ID, 1, 1))
	in.OrderNo = "SO2025030041"
	_, err = svc.CreateSalesOrder(ctx, testutil.Sales, in)
	require.NoError(t, err)

	_, err = svc.CreateSalesOrder(ctx, testutil.Sales, in)
	assert.True(t, errors.Is(err, domain.ErrDuplicateOrderNumber))

	next, err := svc.CreateSalesOrder(ctx, testutil.Sales, salesInput(fx, line(fx.Product.ID, 1, 1)))
	require.NoError(t, err)
	assert.Equal(t, "SO2025030042", next.OrderNo)

	in.OrderNo = "SO-1"
	_, err = svc.CreateSalesOrder(ctx, testutil.Sales, in)
	assert.True(t, errors.Is(err, domain.ErrValidation))
}

func TestListSalesPersons(t *testing.T) {
	svc, _, fx := newTestService(t)
	ctx := context.Background()

	_, err := svc.CreateSalesOrder(ctx, testutil.Sales, salesInput(fx, line(fx.Product.ID, 1, 1)))
	require.NoError(t, err)
	_, err = svc.CreateSalesOrder(ctx, testutil.Sales, salesInput(fx, line(fx.Product.ID, 1, 1)))
	require.NoError(t, err)

	people, err := svc.ListSalesPersons(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"Wang"}, people)
}
