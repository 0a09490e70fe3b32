package repository

import (
	"context"
	"fmt"

	"supplychain/internal/domain"

	"github.com/jackc/pgx/v5"
)

const inventorySelect = `
	SELECT
		i.id,
		i.item_type,
		i.item_id,
		i.warehouse_id,
		i.quantity,
		i.safety_stock,
		i.updated_at,
		COALESCE(m.material_code, p.product_code, ''),
		COALESCE(m.name, p.name, ''),
		COALESCE(m.unit, p.unit, ''),
		w.warehouse_code,
		w.name
	FROM inventory i
	JOIN warehouses w ON w.id = i.warehouse_id
	LEFT JOIN materials m ON i.item_type = 'material' AND m.id = i.item_id
	LEFT JOIN products p ON i.item_type = 'product' AND p.id = i.item_id
`

// IncrementInventory adds qty to the row for key, creating it on first receipt.
// The upsert is atomic, so concurrent increments of one row never lose updates.
func (q *Queries) IncrementInventory(ctx context.Context, key domain.InventoryKey, qty int) (domain.InventoryRecord, error) {
	var rec domain.InventoryRecord
	var itemType string
	err := q.db.QueryRow(ctx, `
		INSERT INTO inventory (item_type, item_id, warehouse_id, quantity)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (item_type, item_id, warehouse_id)
		DO UPDATE SET
			quantity = inventory.quantity + EXCLUDED.quantity,
			updated_at = NOW()
		RETURNING id, item_type, item_id, warehouse_id, quantity, safety_stock, updated_at
	`, string(key.ItemType), key.ItemID, key.WarehouseID, qty).Scan(
		&rec.ID,
		&itemType,
		&rec.ItemID,
		&rec.WarehouseID,
		&rec.Quantity,
		&rec.SafetyStock,
		&rec.UpdatedAt,
	)
	if err != nil {
		return domain.InventoryRecord{}, fmt.Errorf("increment inventory %s %d: %w", key.ItemType, key.ItemID, mapWriteError(err, domain.ErrConflict))
	}
	rec.ItemType = domain.ItemType(itemType)
	return rec, nil
}

func (q *Queries) LockInventory(ctx context.Context, id int64) (domain.InventoryRecord, error) {
	rec, err := scanInventory(q.db.QueryRow(ctx, inventorySelect+" WHERE i.id = $1 FOR UPDATE OF i", id))
	if err != nil {
		if notFound(err) {
			return domain.InventoryRecord{}, fmt.Errorf("inventory %d: %w", id, domain.ErrNotFound)
		}
		return domain.InventoryRecord{}, fmt.Errorf("lock inventory %d: %w", id, err)
	}
	return rec, nil
}

func (q *Queries) GetInventory(ctx context.Context, id int64) (domain.InventoryRecord, error) {
	rec, err := scanInventory(q.db.QueryRow(ctx, inventorySelect+" WHERE i.id = $1", id))
	if err != nil {
		if notFound(err) {
			return domain.InventoryRecord{}, fmt.Errorf("inventory %d: %w", id, domain.ErrNotFound)
		}
		return domain.InventoryRecord{}, fmt.Errorf("get inventory %d: %w", id, err)
	}
	return rec, nil
}

func (q *Queries) ListInventory(ctx context.Context, filter InventoryFilter) (domain.Page[domain.InventoryRecord], error) {
	var c conditions
	if filter.ItemType != "" {
		c.add("i.item_type = $%d", string(filter.ItemType))
	}
	if filter.WarehouseID > 0 {
		c.add("i.warehouse_id = $%d", filter.WarehouseID)
	}
	if filter.ItemID > 0 {
		c.add("i.item_id = $%d", filter.ItemID)
	}

	var total int
	if err := q.db.QueryRow(ctx, "SELECT COUNT(*) FROM inventory i"+c.where(), c.args...).Scan(&total); err != nil {
		return domain.Page[domain.InventoryRecord]{}, fmt.Errorf("count inventory: %w", err)
	}

	limit, args := c.paginate(filter.Page, filter.PageSize)
	rows, err := q.db.Query(ctx, inventorySelect+c.where()+" ORDER BY i.id ASC"+limit, args...)
	if err != nil {
		return domain.Page[domain.InventoryRecord]{}, fmt.Errorf("list inventory: %w", err)
	}
	defer rows.Close()

	items := make([]domain.InventoryRecord, 0)
	for rows.Next() {
		rec, err := scanInventory(rows)
		if err != nil {
			return domain.Page[domain.InventoryRecord]{}, fmt.Errorf("scan inventory: %w", err)
		}
		items = append(items, rec)
	}
	if err := rows.Err(); err != nil {
		return domain.Page[domain.InventoryRecord]{}, fmt.Errorf("iterate inventory: %w", err)
	}
	return domain.Page[domain.InventoryRecord]{Items: items, Total: total}, nil
}

func (q *Queries) InsertInventory(ctx context.Context, rec *domain.InventoryRecord) error {
	err := q.db.QueryRow(ctx, `
		INSERT INTO inventory (item_type, item_id, warehouse_id, quantity, safety_stock)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, updated_at
	`, string(rec.ItemType), rec.ItemID, rec.WarehouseID, rec.Quantity, rec.SafetyStock).Scan(&rec.ID, &rec.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert inventory: %w", mapWriteError(err, domain.ErrConflict))
	}
	return nil
}

func (q *Queries) UpdateInventory(ctx context.Context, rec domain.InventoryRecord) error {
	cmd, err := q.db.Exec(ctx, `
		UPDATE inventory
		SET quantity = $2, safety_stock = $3, updated_at = NOW()
		WHERE id = $1
	`, rec.ID, rec.Quantity, rec.SafetyStock)
	if err != nil {
		return fmt.Errorf("update inventory %d: %w", rec.ID, err)
	}
	if cmd.RowsAffected() == 0 {
		return fmt.Errorf("inventory %d: %w", rec.ID, domain.ErrNotFound)
	}
	return nil
}

func (q *Queries) DeleteInventory(ctx context.Context, id int64) error {
	cmd, err := q.db.Exec(ctx, "DELETE FROM inventory WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("delete inventory %d: %w", id, mapWriteError(err, domain.ErrConflict))
	}
	if cmd.RowsAffected() == 0 {
		return fmt.Errorf("inventory %d: %w", id, domain.ErrNotFound)
	}
	return nil
}

func (q *Queries) InsertMovement(ctx context.Context, m *domain.InventoryMovement) error {
	err := q.db.QueryRow(ctx, `
		INSERT INTO inventory_movements (
			inventory_id,
			movement_type,
			delta,
			quantity_after,
			reference_type,
			reference_id,
			reason,
			created_by
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at
	`,
		m.InventoryID,
		string(m.MovementType),
		m.Delta,
		m.QuantityAfter,
		m.ReferenceType,
		m.ReferenceID,
		m.Reason,
		m.CreatedBy,
	).Scan(&m.ID, &m.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert inventory movement: %w", err)
	}
	return nil
}

func (q *Queries) ListMovements(ctx context.Context, inventoryID int64, page, pageSize int) (domain.Page[domain.InventoryMovement], error) {
	var c conditions
	c.add("inventory_id = $%d", inventoryID)

	var total int
	if err := q.db.QueryRow(ctx, "SELECT COUNT(*) FROM inventory_movements"+c.where(), c.args...).Scan(&total); err != nil {
		return domain.Page[domain.InventoryMovement]{}, fmt.Errorf("count inventory movements: %w", err)
	}

	limit, args := c.paginate(page, pageSize)
	rows, err := q.db.Query(ctx, `
		SELECT
			id,
			inventory_id,
			movement_type,
			delta,
			quantity_after,
			reference_type,
			reference_id,
			reason,
			created_by,
			created_at
		FROM inventory_movements
	`+c.where()+" ORDER BY created_at DESC, id DESC"+limit, args...)
	if err != nil {
		return domain.Page[domain.InventoryMovement]{}, fmt.Errorf("list inventory movements: %w", err)
	}
	defer rows.Close()

	items := make([]domain.InventoryMovement, 0)
	for rows.Next() {
		var (
			m            domain.InventoryMovement
			movementType string
		)
		if err := rows.Scan(
			&m.ID,
			&m.InventoryID,
			&movementType,
			&m.Delta,
			&m.QuantityAfter,
			&m.ReferenceType,
			&m.ReferenceID,
			&m.Reason,
			&m.CreatedBy,
			&m.CreatedAt,
		); err != nil {
			return domain.Page[domain.InventoryMovement]{}, fmt.Errorf("scan inventory movement: %w", err)
		}
		m.MovementType = domain.MovementType(movementType)
		items = append(items, m)
	}
	if err := rows.Err(); err != nil {
		return domain.Page[domain.InventoryMovement]{}, fmt.Errorf("iterate inventory movements: %w", err)
	}
	return domain.Page[domain.InventoryMovement]{Items: items, Total: total}, nil
}

func scanInventory(row pgx.Row) (domain.InventoryRecord, error) {
	var (
		rec      domain.InventoryRecord
		itemType string
	)
	if err := row.Scan(
		&rec.ID,
		&itemType,
		&rec.ItemID,
		&rec.WarehouseID,
		&rec.Quantity,
		&rec.SafetyStock,
		&rec.UpdatedAt,
		&rec.ItemCode,
		&rec.ItemName,
		&rec.Unit,
		&rec.WarehouseCode,
		&rec.WarehouseName,
	); err != nil {
		return domain.InventoryRecord{}, err
	}
	rec.ItemType = domain.ItemType(itemType)
	return rec, nil
}
