package service

import (
	"context"
	"fmt"
	"strings"

	"supplychain/internal/domain"
	"supplychain/internal/repository"

	"go.uber.org/zap"
)

func (s *Service) ListSalesOrders(ctx context.Context, filter repository.SalesOrderFilter) (domain.Page[domain.SalesOrder], error) {
	page, err := s.store.ListSalesOrders(ctx, filter)
	if err != nil {
		return domain.Page[domain.SalesOrder]{}, err
	}
	now := s.now()
	for i := range page.Items {
		page.Items[i].DisplayStatus = domain.DisplayStatus(page.Items[i].Status, page.Items[i].DeliveryDate, now)
	}
	return page, nil
}

// GetSalesOrder returns the order with its lines and derived display status.
func (s *Service) GetSalesOrder(ctx context.Context, id int64) (domain.SalesOrder, error) {
	so, err := s.store.GetSalesOrder(ctx, id)
	if err != nil {
		return domain.SalesOrder{}, err
	}
	lines, err := s.store.ListOrderLines(ctx, id)
	if err != nil {
		return domain.SalesOrder{}, err
	}
	so.Lines = lines
	so.DisplayStatus = domain.DisplayStatus(so.Status, so.DeliveryDate, s.now())
	return so, nil
}

func (s *Service) ListSalesPersons(ctx context.Context) ([]string, error) {
	return s.store.ListSalesPersons(ctx)
}

func (s *Service) GenerateSalesOrderNo(ctx context.Context) (string, error) {
	return s.nextOrderNumber(ctx, s.store, domain.OrderKindSales)
}

// CreateSalesOrder inserts the header and its lines. The total is computed
// from the lines; nothing the caller sends overrides it.
func (s *Service) CreateSalesOrder(ctx context.Context, actor domain.Principal, in domain.SalesOrderInput) (domain.SalesOrder, error) {
	in.OrderNo = strings.TrimSpace(in.OrderNo)
	if err := in.Validate(); err != nil {
		return domain.SalesOrder{}, err
	}
	lines, total, err := domain.BuildOrderLines(in.Lines)
	if err != nil {
		return domain.SalesOrder{}, err
	}
	status := domain.SOStatusPending
	if in.Status != "" {
		status, _ = domain.ParseSOStatus(in.Status)
	}

	so := domain.SalesOrder{
		OrderNo:      in.OrderNo,
		CustomerID:   in.CustomerID,
		OrderDate:    in.OrderDate,
		DeliveryDate: in.DeliveryDate,
		SalesPerson:  normalizeNullable(in.SalesPerson),
		Status:       status,
		TotalAmount:  total,
		Remark:       normalizeNullable(in.Remark),
		CreatedBy:    actor.UserID,
	}
	err = s.store.WithTx(ctx, func(q repository.Querier) error {
		if _, err := q.GetCustomer(ctx, in.CustomerID); err != nil {
			return requireRef(err, "customerId")
		}
		if err := checkProducts(ctx, q, lines); err != nil {
			return err
		}
		if so.OrderNo == "" {
			next, err := s.nextOrderNumber(ctx, q, domain.OrderKindSales)
			if err != nil {
				return err
			}
			so.OrderNo = next
		}
		if err := q.InsertSalesOrder(ctx, &so); err != nil {
			return err
		}
		return q.InsertOrderLines(ctx, so.ID, lines)
	})
	if err != nil {
		return domain.SalesOrder{}, err
	}
	so.Lines = lines
	so.DisplayStatus = domain.DisplayStatus(so.Status, so.DeliveryDate, s.now())
	s.log.Info("sales order created",
		zap.Int64("id", so.ID),
		zap.String("order_no", so.OrderNo),
		zap.String("total", so.TotalAmount.String()),
		zap.Int64("user_id", actor.UserID),
	)
	return so, nil
}

// UpdateSalesOrder replaces the header and the complete line set. Completed
// and cancelled orders are immutable.
func (s *Service) UpdateSalesOrder(ctx context.Context, actor domain.Principal, id int64, in domain.SalesOrderInput) (domain.SalesOrder, error) {
	in.OrderNo = strings.TrimSpace(in.OrderNo)
	if err := in.Validate(); err != nil {
		return domain.SalesOrder{}, err
	}
	lines, total, err := domain.BuildOrderLines(in.Lines)
	if err != nil {
		return domain.SalesOrder{}, err
	}

	var so domain.SalesOrder
	err = s.store.WithTx(ctx, func(q repository.Querier) error {
		current, err := q.LockSalesOrder(ctx, id)
		if err != nil {
			return err
		}
		if current.Status.IsTerminal() {
			return fmt.Errorf("%w: sales order %s is %s", domain.ErrTerminalOrderImmutable, current.OrderNo, current.Status)
		}
		if in.CustomerID != current.CustomerID {
			if _, err := q.GetCustomer(ctx, in.CustomerID); err != nil {
				return requireRef(err, "customerId")
			}
		}
		if err := checkProducts(ctx, q, lines); err != nil {
			return err
		}

		so = current
		if in.OrderNo != "" {
			so.OrderNo = in.OrderNo
		}
		if in.Status != "" {
			so.Status, _ = domain.ParseSOStatus(in.Status)
		}
		so.CustomerID = in.CustomerID
		so.OrderDate = in.OrderDate
		so.DeliveryDate = in.DeliveryDate
		so.SalesPerson = normalizeNullable(in.SalesPerson)
		so.Remark = normalizeNullable(in.Remark)
		so.TotalAmount = total

		if err := q.UpdateSalesOrder(ctx, so); err != nil {
			return err
		}
		if err := q.DeleteOrderLines(ctx, so.ID); err != nil {
			return err
		}
		return q.InsertOrderLines(ctx, so.ID, lines)
	})
	if err != nil {
		return domain.SalesOrder{}, err
	}
	so.Lines = lines
	so.DisplayStatus = domain.DisplayStatus(so.Status, so.DeliveryDate, s.now())
	s.log.Info("sales order updated",
		zap.Int64("id", so.ID),
		zap.String("status", string(so.Status)),
		zap.Int("lines", len(lines)),
		zap.Int64("user_id", actor.UserID),
	)
	return so, nil
}

// DeleteSalesOrder hard-deletes pending orders. Other open orders are
// cancelled, which only an admin may do. The returned bool reports whether
// the row was removed.
func (s *Service) DeleteSalesOrder(ctx context.Context, actor domain.Principal, id int64) (bool, error) {
	deleted := false
	err := s.store.WithTx(ctx, func(q repository.Querier) error {
		so, err := q.LockSalesOrder(ctx, id)
		if err != nil {
			return err
		}
		if so.Status.IsTerminal() {
			return fmt.Errorf("%w: sales order %s is %s", domain.ErrTerminalOrderImmutable, so.OrderNo, so.Status)
		}
		if so.Status == domain.SOStatusPending {
			deleted = true
			return q.DeleteSalesOrder(ctx, so.ID)
		}
		if !actor.IsAdmin() {
			return fmt.Errorf("%w: only admin can cancel a %s sales order", domain.ErrForbidden, so.Status)
		}
		so.Status = domain.SOStatusCancelled
		return q.UpdateSalesOrder(ctx, so)
	})
	if err != nil {
		return false, err
	}
	s.log.Info("sales order removed",
		zap.Int64("id", id),
		zap.Bool("deleted", deleted),
		zap.Int64("user_id", actor.UserID),
	)
	return deleted, nil
}

func checkProducts(ctx context.Context, q repository.Querier, lines []domain.OrderLine) error {
	seen := make(map[int64]bool, len(lines))
	for i, line := range lines {
		if seen[line.ProductID] {
			continue
		}
		seen[line.ProductID] = true
		if _, err := q.GetProduct(ctx, line.ProductID); err != nil {
			return requireRef(err, fmt.Sprintf("lines[%d].productId", i))
		}
	}
	return nil
}
