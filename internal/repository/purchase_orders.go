package repository

import (
	"context"
	"fmt"
	"time"

	"supplychain/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

const purchaseOrderSelect = `
	SELECT
		po.id,
		po.po_no,
		po.material_id,
		po.supplier_id,
		po.quantity,
		po.unit_price,
		po.total_amount,
		po.order_date,
		po.expected_date,
		po.actual_date,
		po.status,
		po.remark,
		po.created_by,
		po.created_at,
		m.material_code,
		m.name,
		m.unit,
		s.supplier_code,
		s.name
	FROM purchase_orders po
	JOIN materials m ON m.id = po.material_id
	JOIN suppliers s ON s.id = po.supplier_id
`

var orderNumberColumns = map[domain.OrderKind]string{
	domain.OrderKindPurchase: "SELECT COALESCE(MAX(po_no), '') FROM purchase_orders WHERE po_no ~ ('^' || $1 || '[0-9]{4}$')",
	domain.OrderKindSales:    "SELECT COALESCE(MAX(order_no), '') FROM sales_orders WHERE order_no ~ ('^' || $1 || '[0-9]{4}$')",
}

// MaxOrderNumber returns the highest well-formed number under prefix, or "".
func (q *Queries) MaxOrderNumber(ctx context.Context, kind domain.OrderKind, prefix string) (string, error) {
	query, ok := orderNumberColumns[kind]
	if !ok {
		return "", fmt.Errorf("unknown order kind %q", kind)
	}
	var max string
	if err := q.db.QueryRow(ctx, query, prefix).Scan(&max); err != nil {
		return "", fmt.Errorf("max order number %s: %w", prefix, err)
	}
	return max, nil
}

func (q *Queries) InsertPurchaseOrder(ctx context.Context, po *domain.PurchaseOrder) error {
	err := q.db.QueryRow(ctx, `
		INSERT INTO purchase_orders (
			po_no,
			material_id,
			supplier_id,
			quantity,
			unit_price,
			total_amount,
			order_date,
			expected_date,
			actual_date,
			status,
			remark,
			created_by
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING id, created_at
	`,
		po.PONo,
		po.MaterialID,
		po.SupplierID,
		po.Quantity,
		po.UnitPrice,
		po.TotalAmount,
		dateArg(po.OrderDate),
		dateArg(po.ExpectedDate),
		nullableDateArg(po.ActualDate),
		string(po.Status),
		po.Remark,
		po.CreatedBy,
	).Scan(&po.ID, &po.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert purchase order: %w", mapWriteError(err, domain.ErrDuplicateOrderNumber))
	}
	return nil
}

func (q *Queries) GetPurchaseOrder(ctx context.Context, id int64) (domain.PurchaseOrder, error) {
	po, err := scanPurchaseOrder(q.db.QueryRow(ctx, purchaseOrderSelect+" WHERE po.id = $1", id))
	if err != nil {
		if notFound(err) {
			return domain.PurchaseOrder{}, fmt.Errorf("purchase order %d: %w", id, domain.ErrNotFound)
		}
		return domain.PurchaseOrder{}, fmt.Errorf("get purchase order %d: %w", id, err)
	}
	return po, nil
}

// LockPurchaseOrder reads the order with a row lock held until the enclosing
// transaction ends.
func (q *Queries) LockPurchaseOrder(ctx context.Context, id int64) (domain.PurchaseOrder, error) {
	po, err := scanPurchaseOrder(q.db.QueryRow(ctx, purchaseOrderSelect+" WHERE po.id = $1 FOR UPDATE OF po", id))
	if err != nil {
		if notFound(err) {
			return domain.PurchaseOrder{}, fmt.Errorf("purchase order %d: %w", id, domain.ErrNotFound)
		}
		return domain.PurchaseOrder{}, fmt.Errorf("lock purchase order %d: %w", id, err)
	}
	return po, nil
}

func (q *Queries) UpdatePurchaseOrder(ctx context.Context, po domain.PurchaseOrder) error {
	cmd, err := q.db.Exec(ctx, `
		UPDATE purchase_orders
		SET
			po_no = $2,
			material_id = $3,
			supplier_id = $4,
			quantity = $5,
			unit_price = $6,
			total_amount = $7,
			order_date = $8,
			expected_date = $9,
			actual_date = $10,
			status = $11,
			remark = $12
		WHERE id = $1
	`,
		po.ID,
		po.PONo,
		po.MaterialID,
		po.SupplierID,
		po.Quantity,
		po.UnitPrice,
		po.TotalAmount,
		dateArg(po.OrderDate),
		dateArg(po.ExpectedDate),
		nullableDateArg(po.ActualDate),
		string(po.Status),
		po.Remark,
	)
	if err != nil {
		return fmt.Errorf("update purchase order %d: %w", po.ID, mapWriteError(err, domain.ErrDuplicateOrderNumber))
	}
	if cmd.RowsAffected() == 0 {
		return fmt.Errorf("purchase order %d: %w", po.ID, domain.ErrNotFound)
	}
	return nil
}

func (q *Queries) DeletePurchaseOrder(ctx context.Context, id int64) error {
	cmd, err := q.db.Exec(ctx, "DELETE FROM purchase_orders WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("delete purchase order %d: %w", id, mapWriteError(err, domain.ErrConflict))
	}
	if cmd.RowsAffected() == 0 {
		return fmt.Errorf("purchase order %d: %w", id, domain.ErrNotFound)
	}
	return nil
}

func (q *Queries) ListPurchaseOrders(ctx context.Context, filter PurchaseOrderFilter) (domain.Page[domain.PurchaseOrder], error) {
	var c conditions
	c.addKeyword(filter.Keyword, "po.po_no", "m.material_code", "m.name", "s.name")
	if filter.Status != "" {
		c.add("po.status = $%d", string(filter.Status))
	}
	if filter.SupplierID > 0 {
		c.add("po.supplier_id = $%d", filter.SupplierID)
	}
	if filter.MaterialID > 0 {
		c.add("po.material_id = $%d", filter.MaterialID)
	}
	if filter.StartDate != nil {
		c.add("po.order_date >= $%d", dateArg(*filter.StartDate))
	}
	if filter.EndDate != nil {
		c.add("po.order_date <= $%d", dateArg(*filter.EndDate))
	}

	var total int
	err := q.db.QueryRow(ctx, `
		SELECT COUNT(*)
		FROM purchase_orders po
		JOIN materials m ON m.id = po.material_id
		JOIN suppliers s ON s.id = po.supplier_id
	`+c.where(), c.args...).Scan(&total)
	if err != nil {
		return domain.Page[domain.PurchaseOrder]{}, fmt.Errorf("count purchase orders: %w", err)
	}

	limit, args := c.paginate(filter.Page, filter.PageSize)
	rows, err := q.db.Query(ctx, purchaseOrderSelect+c.where()+" ORDER BY po.expected_date ASC, po.id DESC"+limit, args...)
	if err != nil {
		return domain.Page[domain.PurchaseOrder]{}, fmt.Errorf("list purchase orders: %w", err)
	}
	defer rows.Close()

	items := make([]domain.PurchaseOrder, 0)
	for rows.Next() {
		po, err := scanPurchaseOrder(rows)
		if err != nil {
			return domain.Page[domain.PurchaseOrder]{}, fmt.Errorf("scan purchase order: %w", err)
		}
		items = append(items, po)
	}
	if err := rows.Err(); err != nil {
		return domain.Page[domain.PurchaseOrder]{}, fmt.Errorf("iterate purchase orders: %w", err)
	}
	return domain.Page[domain.PurchaseOrder]{Items: items, Total: total}, nil
}

// UpsertInTransit creates or refreshes the in-transit row owned by an order.
func (q *Queries) UpsertInTransit(ctx context.Context, rec domain.InTransitRecord) error {
	_, err := q.db.Exec(ctx, `
		INSERT INTO in_transit (purchase_order_id, material_id, quantity, expected_date)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (purchase_order_id)
		DO UPDATE SET
			material_id = EXCLUDED.material_id,
			quantity = EXCLUDED.quantity,
			expected_date = EXCLUDED.expected_date
	`, rec.PurchaseOrderID, rec.MaterialID, rec.Quantity, dateArg(rec.ExpectedDate))
	if err != nil {
		return fmt.Errorf("upsert in-transit for purchase order %d: %w", rec.PurchaseOrderID, err)
	}
	return nil
}

func (q *Queries) DeleteInTransit(ctx context.Context, purchaseOrderID int64) error {
	if _, err := q.db.Exec(ctx, "DELETE FROM in_transit WHERE purchase_order_id = $1", purchaseOrderID); err != nil {
		return fmt.Errorf("delete in-transit for purchase order %d: %w", purchaseOrderID, err)
	}
	return nil
}

func scanPurchaseOrder(row pgx.Row) (domain.PurchaseOrder, error) {
	var (
		po           domain.PurchaseOrder
		unitPrice    decimal.NullDecimal
		totalAmount  decimal.NullDecimal
		orderDate    time.Time
		expectedDate time.Time
		actualDate   *time.Time
		status       string
	)
	if err := row.Scan(
		&po.ID,
		&po.PONo,
		&po.MaterialID,
		&po.SupplierID,
		&po.Quantity,
		&unitPrice,
		&totalAmount,
		&orderDate,
		&expectedDate,
		&actualDate,
		&status,
		&po.Remark,
		&po.CreatedBy,
		&po.CreatedAt,
		&po.MaterialCode,
		&po.MaterialName,
		&po.Unit,
		&po.SupplierCode,
		&po.SupplierName,
	); err != nil {
		return domain.PurchaseOrder{}, err
	}
	if unitPrice.Valid {
		value := unitPrice.Decimal
		po.UnitPrice = &value
	}
	if totalAmount.Valid {
		value := totalAmount.Decimal
		po.TotalAmount = &value
	}
	po.OrderDate = domain.NewDate(orderDate)
	po.ExpectedDate = domain.NewDate(expectedDate)
	po.ActualDate = domain.DatePtr(actualDate)
	po.Status = domain.POStatus(status)
	return po, nil
}
