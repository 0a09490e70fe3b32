package service

import (
	"context"
	"fmt"

	"supplychain/internal/domain"
	"supplychain/internal/repository"

	"go.uber.org/zap"
)

type InventoryInput struct {
	ItemType    domain.ItemType
	ItemID      int64
	WarehouseID int64
	Quantity    int
	SafetyStock int
}

type InventoryPatch struct {
	Quantity    domain.Field[int]
	SafetyStock domain.Field[int]
	Reason      *string
}

type AdjustInput struct {
	Type     domain.AdjustType
	Quantity int
	Reason   *string
}

type AdjustResult struct {
	PreviousQuantity int `json:"previousQuantity"`
	AdjustQuantity   int `json:"adjustQuantity"`
	NewQuantity      int `json:"newQuantity"`
}

type movementRef struct {
	kind   string
	id     int64
	reason *string
}

func (s *Service) ListInventory(ctx context.Context, filter repository.InventoryFilter) (domain.Page[domain.InventoryRecord], error) {
	return s.store.ListInventory(ctx, filter)
}

func (s *Service) GetInventory(ctx context.Context, id int64) (domain.InventoryRecord, error) {
	return s.store.GetInventory(ctx, id)
}

func (s *Service) ListMovements(ctx context.Context, inventoryID int64, page, pageSize int) (domain.Page[domain.InventoryMovement], error) {
	if _, err := s.store.GetInventory(ctx, inventoryID); err != nil {
		return domain.Page[domain.InventoryMovement]{}, err
	}
	return s.store.ListMovements(ctx, inventoryID, page, pageSize)
}

// CreateInventory opens a ledger row explicitly. A second row for the same
// item and warehouse is rejected with ErrConflict.
func (s *Service) CreateInventory(ctx context.Context, actor domain.Principal, in InventoryInput) (domain.InventoryRecord, error) {
	var fields domain.RequiredFields
	fields.Check(in.ItemType == domain.ItemTypeMaterial || in.ItemType == domain.ItemTypeProduct, "type")
	fields.Check(in.ItemID > 0, "itemId")
	fields.Check(in.WarehouseID > 0, "warehouseId")
	fields.Check(in.SafetyStock >= 0 && in.SafetyStock <= domain.MaxQuantity, "safetyStock")
	if err := fields.Err(); err != nil {
		return domain.InventoryRecord{}, err
	}
	qty, err := domain.SetAbsolute(in.Quantity)
	if err != nil {
		return domain.InventoryRecord{}, err
	}

	rec := domain.InventoryRecord{
		ItemType:    in.ItemType,
		ItemID:      in.ItemID,
		WarehouseID: in.WarehouseID,
		Quantity:    qty,
		SafetyStock: in.SafetyStock,
	}
	err = s.store.WithTx(ctx, func(q repository.Querier) error {
		if _, err := q.GetWarehouse(ctx, in.WarehouseID); err != nil {
			return requireRef(err, "warehouseId")
		}
		if err := checkItem(ctx, q, in.ItemType, in.ItemID); err != nil {
			return err
		}
		if err := q.InsertInventory(ctx, &rec); err != nil {
			return err
		}
		if qty == 0 {
			return nil
		}
		return q.InsertMovement(ctx, &domain.InventoryMovement{
			InventoryID:   rec.ID,
			MovementType:  domain.MovementSet,
			Delta:         qty,
			QuantityAfter: qty,
			CreatedBy:     actor.UserID,
		})
	})
	if err != nil {
		return domain.InventoryRecord{}, err
	}
	return s.store.GetInventory(ctx, rec.ID)
}

// UpdateInventory overwrites quantity and safety stock. Quantity goes through
// setAbsolute and is audited as a SET movement when it changes.
func (s *Service) UpdateInventory(ctx context.Context, actor domain.Principal, id int64, patch InventoryPatch) (domain.InventoryRecord, error) {
	var fields domain.RequiredFields
	fields.Check(!patch.Quantity.Set || !patch.Quantity.Null, "quantity")
	fields.Check(!patch.SafetyStock.Set || (!patch.SafetyStock.Null && patch.SafetyStock.Value >= 0 && patch.SafetyStock.Value <= domain.MaxQuantity), "safetyStock")
	if err := fields.Err(); err != nil {
		return domain.InventoryRecord{}, err
	}

	err := s.store.WithTx(ctx, func(q repository.Querier) error {
		rec, err := q.LockInventory(ctx, id)
		if err != nil {
			return err
		}
		previous := rec.Quantity
		if patch.Quantity.HasValue() {
			qty, err := domain.SetAbsolute(patch.Quantity.Value)
			if err != nil {
				return err
			}
			rec.Quantity = qty
		}
		patch.SafetyStock.Apply(&rec.SafetyStock)
		if err := q.UpdateInventory(ctx, rec); err != nil {
			return err
		}
		if rec.Quantity == previous {
			return nil
		}
		return q.InsertMovement(ctx, &domain.InventoryMovement{
			InventoryID:   rec.ID,
			MovementType:  domain.MovementSet,
			Delta:         rec.Quantity - previous,
			QuantityAfter: rec.Quantity,
			Reason:        normalizeNullable(patch.Reason),
			CreatedBy:     actor.UserID,
		})
	})
	if err != nil {
		return domain.InventoryRecord{}, err
	}
	return s.store.GetInventory(ctx, id)
}

// AdjustInventory applies an in/out movement to one ledger row.
func (s *Service) AdjustInventory(ctx context.Context, actor domain.Principal, id int64, in AdjustInput) (AdjustResult, error) {
	var result AdjustResult
	err := s.store.WithTx(ctx, func(q repository.Querier) error {
		rec, err := q.LockInventory(ctx, id)
		if err != nil {
			return err
		}
		next, movementType, err := domain.Adjust(rec.Quantity, in.Type, in.Quantity)
		if err != nil {
			return err
		}
		result = AdjustResult{PreviousQuantity: rec.Quantity, AdjustQuantity: in.Quantity, NewQuantity: next}

		rec.Quantity = next
		if err := q.UpdateInventory(ctx, rec); err != nil {
			return err
		}
		return q.InsertMovement(ctx, &domain.InventoryMovement{
			InventoryID:   rec.ID,
			MovementType:  movementType,
			Delta:         next - result.PreviousQuantity,
			QuantityAfter: next,
			Reason:        normalizeNullable(in.Reason),
			CreatedBy:     actor.UserID,
		})
	})
	if err != nil {
		return AdjustResult{}, err
	}
	s.log.Info("inventory adjusted",
		zap.Int64("inventory_id", id),
		zap.String("type", string(in.Type)),
		zap.Int("previous", result.PreviousQuantity),
		zap.Int("new", result.NewQuantity),
		zap.Int64("user_id", actor.UserID),
	)
	return result, nil
}

// DeleteInventory removes an empty ledger row. Rows still holding stock are
// kept and reported as ErrReferentialConflict.
func (s *Service) DeleteInventory(ctx context.Context, id int64) error {
	return s.store.WithTx(ctx, func(q repository.Querier) error {
		rec, err := q.LockInventory(ctx, id)
		if err != nil {
			return err
		}
		if rec.Quantity > 0 {
			return fmt.Errorf("%w: inventory %d still holds %d units", domain.ErrReferentialConflict, id, rec.Quantity)
		}
		return q.DeleteInventory(ctx, id)
	})
}

// increment adds qty to the row for key through the atomic upsert and audits
// the receipt.
func (s *Service) increment(ctx context.Context, q repository.Querier, actor domain.Principal, key domain.InventoryKey, qty int, ref movementRef) (domain.InventoryRecord, error) {
	if _, err := domain.Increment(0, qty); err != nil {
		return domain.InventoryRecord{}, err
	}
	rec, err := q.IncrementInventory(ctx, key, qty)
	if err != nil {
		return domain.InventoryRecord{}, err
	}
	movement := domain.InventoryMovement{
		InventoryID:   rec.ID,
		MovementType:  domain.MovementPurchaseIn,
		Delta:         qty,
		QuantityAfter: rec.Quantity,
		Reason:        ref.reason,
		CreatedBy:     actor.UserID,
	}
	if ref.kind != "" {
		kind, id := ref.kind, ref.id
		movement.ReferenceType = &kind
		movement.ReferenceID = &id
	}
	if err := q.InsertMovement(ctx, &movement); err != nil {
		return domain.InventoryRecord{}, err
	}
	return rec, nil
}

func checkItem(ctx context.Context, q repository.Querier, itemType domain.ItemType, itemID int64) error {
	var err error
	switch itemType {
	case domain.ItemTypeMaterial:
		_, err = q.GetMaterial(ctx, itemID)
	case domain.ItemTypeProduct:
		_, err = q.GetProduct(ctx, itemID)
	default:
		return domain.NewValidationError("invalid item type", "type")
	}
	return requireRef(err, "itemId")
}
