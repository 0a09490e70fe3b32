package repository

import (
	"context"
	"fmt"

	"supplychain/internal/domain"
)

var dependentQueries = map[ReferenceKind]string{
	RefMaterial: `
		SELECT
			(SELECT COUNT(*) FROM inventory WHERE item_type = 'material' AND item_id = $1 AND quantity > 0)
			+ (SELECT COUNT(*) FROM purchase_orders WHERE material_id = $1)
			+ (SELECT COUNT(*) FROM bom WHERE material_id = $1)
	`,
	RefSupplier: `SELECT COUNT(*) FROM purchase_orders WHERE supplier_id = $1`,
	RefWarehouse: `SELECT COUNT(*) FROM inventory WHERE warehouse_id = $1`,
	RefProduct: `
		SELECT
			(SELECT COUNT(*) FROM order_lines WHERE product_id = $1)
			+ (SELECT COUNT(*) FROM inventory WHERE item_type = 'product' AND item_id = $1 AND quantity > 0)
	`,
}

func (q *Queries) CountDependents(ctx context.Context, kind ReferenceKind, id int64) (int, error) {
	query, ok := dependentQueries[kind]
	if !ok {
		return 0, fmt.Errorf("unknown reference kind %q", kind)
	}
	var count int
	if err := q.db.QueryRow(ctx, query, id).Scan(&count); err != nil {
		return 0, fmt.Errorf("count dependents of %s %d: %w", kind, id, err)
	}
	return count, nil
}

func (q *Queries) SetReferenceStatus(ctx context.Context, kind ReferenceKind, id int64, status string) error {
	if _, ok := dependentQueries[kind]; !ok {
		return fmt.Errorf("unknown reference kind %q", kind)
	}
	cmd, err := q.db.Exec(ctx, "UPDATE "+string(kind)+" SET status = $2 WHERE id = $1", id, status)
	if err != nil {
		return fmt.Errorf("set %s %d status: %w", kind, id, err)
	}
	if cmd.RowsAffected() == 0 {
		return fmt.Errorf("%s %d: %w", kind, id, domain.ErrNotFound)
	}
	return nil
}

// DeleteReference hard-deletes a reference row. A foreign key that still points
// at it surfaces as ErrReferentialConflict.
func (q *Queries) DeleteReference(ctx context.Context, kind ReferenceKind, id int64) error {
	if _, ok := dependentQueries[kind]; !ok {
		return fmt.Errorf("unknown reference kind %q", kind)
	}
	cmd, err := q.db.Exec(ctx, "DELETE FROM "+string(kind)+" WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("delete %s %d: %w", kind, id, mapWriteError(err, domain.ErrConflict))
	}
	if cmd.RowsAffected() == 0 {
		return fmt.Errorf("%s %d: %w", kind, id, domain.ErrNotFound)
	}
	return nil
}
