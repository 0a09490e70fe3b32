package service

import (
	"context"
	"fmt"
	"strings"

	"supplychain/internal/domain"
	"supplychain/internal/repository"

	"go.uber.org/zap"
)

const referencePurchaseOrder = "purchase_order"

func (s *Service) ListPurchaseOrders(ctx context.Context, filter repository.PurchaseOrderFilter) (domain.Page[domain.PurchaseOrder], error) {
	return s.store.ListPurchaseOrders(ctx, filter)
}

func (s *Service) GetPurchaseOrder(ctx context.Context, id int64) (domain.PurchaseOrder, error) {
	return s.store.GetPurchaseOrder(ctx, id)
}

// GeneratePurchaseOrderNo previews the number the next create would take.
func (s *Service) GeneratePurchaseOrderNo(ctx context.Context) (string, error) {
	return s.nextOrderNumber(ctx, s.store, domain.OrderKindPurchase)
}

// CreatePurchaseOrder inserts a draft order together with its in-transit row.
func (s *Service) CreatePurchaseOrder(ctx context.Context, actor domain.Principal, in domain.PurchaseOrderInput) (domain.PurchaseOrder, error) {
	in.PONo = strings.TrimSpace(in.PONo)
	if err := in.Validate(); err != nil {
		return domain.PurchaseOrder{}, err
	}

	var po domain.PurchaseOrder
	err := s.store.WithTx(ctx, func(q repository.Querier) error {
		created, err := s.createPurchaseOrder(ctx, q, actor, in)
		if err != nil {
			return err
		}
		po = created
		return nil
	})
	if err != nil {
		return domain.PurchaseOrder{}, err
	}
	s.log.Info("purchase order created",
		zap.Int64("id", po.ID),
		zap.String("po_no", po.PONo),
		zap.Int64("user_id", actor.UserID),
	)
	return po, nil
}

func (s *Service) createPurchaseOrder(ctx context.Context, q repository.Querier, actor domain.Principal, in domain.PurchaseOrderInput) (domain.PurchaseOrder, error) {
	if _, err := q.GetMaterial(ctx, in.MaterialID); err != nil {
		return domain.PurchaseOrder{}, requireRef(err, "materialId")
	}
	if _, err := q.GetSupplier(ctx, in.SupplierID); err != nil {
		return domain.PurchaseOrder{}, requireRef(err, "supplierId")
	}

	poNo := in.PONo
	if poNo == "" {
		next, err := s.nextOrderNumber(ctx, q, domain.OrderKindPurchase)
		if err != nil {
			return domain.PurchaseOrder{}, err
		}
		poNo = next
	}

	po := domain.PurchaseOrder{
		PONo:         poNo,
		MaterialID:   in.MaterialID,
		SupplierID:   in.SupplierID,
		Quantity:     in.Quantity,
		UnitPrice:    in.UnitPrice,
		TotalAmount:  domain.PurchaseTotal(in.Quantity, in.UnitPrice),
		OrderDate:    in.OrderDate,
		ExpectedDate: in.ExpectedDate,
		Status:       domain.POStatusDraft,
		Remark:       normalizeNullable(in.Remark),
		CreatedBy:    actor.UserID,
	}
	if err := q.InsertPurchaseOrder(ctx, &po); err != nil {
		return domain.PurchaseOrder{}, err
	}
	if err := q.UpsertInTransit(ctx, po.InTransit()); err != nil {
		return domain.PurchaseOrder{}, err
	}
	return po, nil
}

// UpdatePurchaseOrder applies a partial update and, when the patch carries a
// status, moves the order through the state machine with its ledger effects.
func (s *Service) UpdatePurchaseOrder(ctx context.Context, actor domain.Principal, id int64, patch domain.PurchaseOrderPatch) (domain.PurchaseOrder, error) {
	var po domain.PurchaseOrder
	err := s.store.WithTx(ctx, func(q repository.Querier) error {
		current, err := q.LockPurchaseOrder(ctx, id)
		if err != nil {
			return err
		}
		if current.Status.IsTerminal() {
			return fmt.Errorf("%w: purchase order %s is %s", domain.ErrTerminalOrderImmutable, current.PONo, current.Status)
		}

		target := current.Status
		if patch.Status.HasValue() {
			target, err = domain.ParsePOStatus(patch.Status.Value)
			if err != nil {
				return err
			}
			if target != current.Status {
				if err := domain.CheckTransition(current.Status, target); err != nil {
					return err
				}
			}
		}

		next := current
		if err := patch.ApplyTo(&next); err != nil {
			return err
		}
		if next.MaterialID != current.MaterialID {
			if _, err := q.GetMaterial(ctx, next.MaterialID); err != nil {
				return requireRef(err, "materialId")
			}
		}
		if next.SupplierID != current.SupplierID {
			if _, err := q.GetSupplier(ctx, next.SupplierID); err != nil {
				return requireRef(err, "supplierId")
			}
		}
		next.Status = target

		if err := s.savePurchaseOrder(ctx, q, actor, current.Status, &next); err != nil {
			return err
		}
		po = next
		return nil
	})
	if err != nil {
		return domain.PurchaseOrder{}, err
	}
	s.log.Info("purchase order updated",
		zap.Int64("id", po.ID),
		zap.String("status", string(po.Status)),
		zap.Int64("user_id", actor.UserID),
	)
	return po, nil
}

// ConfirmPurchaseOrder advances the order to requested, or to its forward
// successor when requested is empty.
func (s *Service) ConfirmPurchaseOrder(ctx context.Context, actor domain.Principal, id int64, requested string) (domain.PurchaseOrder, error) {
	var po domain.PurchaseOrder
	err := s.store.WithTx(ctx, func(q repository.Querier) error {
		advanced, err := s.advancePurchaseOrder(ctx, q, actor, id, requested)
		if err != nil {
			return err
		}
		po = advanced
		return nil
	})
	if err != nil {
		return domain.PurchaseOrder{}, err
	}
	s.log.Info("purchase order status changed",
		zap.Int64("id", po.ID),
		zap.String("status", string(po.Status)),
		zap.Int64("user_id", actor.UserID),
	)
	return po, nil
}

func (s *Service) advancePurchaseOrder(ctx context.Context, q repository.Querier, actor domain.Principal, id int64, requested string) (domain.PurchaseOrder, error) {
	po, err := q.LockPurchaseOrder(ctx, id)
	if err != nil {
		return domain.PurchaseOrder{}, err
	}
	next, err := domain.NextStatus(po.Status, requested)
	if err != nil {
		return domain.PurchaseOrder{}, err
	}
	from := po.Status
	po.Status = next
	if err := s.savePurchaseOrder(ctx, q, actor, from, &po); err != nil {
		return domain.PurchaseOrder{}, err
	}
	return po, nil
}

// DeletePurchaseOrder hard-deletes a draft and cancels anything else. The
// returned bool reports whether the row was removed.
func (s *Service) DeletePurchaseOrder(ctx context.Context, actor domain.Principal, id int64) (bool, error) {
	deleted := false
	err := s.store.WithTx(ctx, func(q repository.Querier) error {
		po, err := q.LockPurchaseOrder(ctx, id)
		if err != nil {
			return err
		}
		if po.Status == domain.POStatusDraft {
			if err := q.DeleteInTransit(ctx, po.ID); err != nil {
				return err
			}
			if err := q.DeletePurchaseOrder(ctx, po.ID); err != nil {
				return err
			}
			deleted = true
			return nil
		}
		if err := domain.CheckTransition(po.Status, domain.POStatusCancelled); err != nil {
			return err
		}
		from := po.Status
		po.Status = domain.POStatusCancelled
		return s.savePurchaseOrder(ctx, q, actor, from, &po)
	})
	if err != nil {
		return false, err
	}
	s.log.Info("purchase order removed",
		zap.Int64("id", id),
		zap.Bool("deleted", deleted),
		zap.Int64("user_id", actor.UserID),
	)
	return deleted, nil
}

// savePurchaseOrder persists po and reconciles the in-transit and inventory
// ledgers with its new status. from is the status before this change.
func (s *Service) savePurchaseOrder(ctx context.Context, q repository.Querier, actor domain.Principal, from domain.POStatus, po *domain.PurchaseOrder) error {
	arriving := po.Status == domain.POStatusArrived && from != domain.POStatusArrived
	if arriving {
		if s.defaultWarehouseID <= 0 {
			return fmt.Errorf("receive purchase order %s: default warehouse is not configured", po.PONo)
		}
		if po.ActualDate == nil {
			today := s.today()
			po.ActualDate = &today
		}
	}
	po.TotalAmount = domain.PurchaseTotal(po.Quantity, po.UnitPrice)

	if err := q.UpdatePurchaseOrder(ctx, *po); err != nil {
		return err
	}

	if po.Status.HasInTransit() {
		return q.UpsertInTransit(ctx, po.InTransit())
	}
	if err := q.DeleteInTransit(ctx, po.ID); err != nil {
		return err
	}
	if !arriving {
		return nil
	}

	key := domain.InventoryKey{
		ItemType:    domain.ItemTypeMaterial,
		ItemID:      po.MaterialID,
		WarehouseID: s.defaultWarehouseID,
	}
	_, err := s.increment(ctx, q, actor, key, po.Quantity, movementRef{
		kind: referencePurchaseOrder,
		id:   po.ID,
	})
	return err
}
