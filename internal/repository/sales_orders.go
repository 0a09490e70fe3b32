package repository

import (
	"context"
	"fmt"
	"time"

	"supplychain/internal/domain"

	"github.com/jackc/pgx/v5"
)

const salesOrderSelect = `
	SELECT
		so.id,
		so.order_no,
		so.customer_id,
		so.order_date,
		so.delivery_date,
		so.sales_person,
		so.status,
		so.total_amount,
		so.remark,
		so.created_by,
		so.created_at,
		c.customer_code,
		c.name
	FROM sales_orders so
	JOIN customers c ON c.id = so.customer_id
`

func (q *Queries) InsertSalesOrder(ctx context.Context, so *domain.SalesOrder) error {
	err := q.db.QueryRow(ctx, `
		INSERT INTO sales_orders (
			order_no,
			customer_id,
			order_date,
			delivery_date,
			sales_person,
			status,
			total_amount,
			remark,
			created_by
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, created_at
	`,
		so.OrderNo,
		so.CustomerID,
		dateArg(so.OrderDate),
		dateArg(so.DeliveryDate),
		so.SalesPerson,
		string(so.Status),
		so.TotalAmount,
		so.Remark,
		so.CreatedBy,
	).Scan(&so.ID, &so.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert sales order: %w", mapWriteError(err, domain.ErrDuplicateOrderNumber))
	}
	return nil
}

func (q *Queries) GetSalesOrder(ctx context.Context, id int64) (domain.SalesOrder, error) {
	so, err := scanSalesOrder(q.db.QueryRow(ctx, salesOrderSelect+" WHERE so.id = $1", id))
	if err != nil {
		if notFound(err) {
			return domain.SalesOrder{}, fmt.Errorf("sales order %d: %w", id, domain.ErrNotFound)
		}
		return domain.SalesOrder{}, fmt.Errorf("get sales order %d: %w", id, err)
	}
	return so, nil
}

func (q *Queries) LockSalesOrder(ctx context.Context, id int64) (domain.SalesOrder, error) {
	so, err := scanSalesOrder(q.db.QueryRow(ctx, salesOrderSelect+" WHERE so.id = $1 FOR UPDATE OF so", id))
	if err != nil {
		if notFound(err) {
			return domain.SalesOrder{}, fmt.Errorf("sales order %d: %w", id, domain.ErrNotFound)
		}
		return domain.SalesOrder{}, fmt.Errorf("lock sales order %d: %w", id, err)
	}
	return so, nil
}

func (q *Queries) UpdateSalesOrder(ctx context.Context, so domain.SalesOrder) error {
	cmd, err := q.db.Exec(ctx, `
		UPDATE sales_orders
		SET
			order_no = $2,
			customer_id = $3,
			order_date = $4,
			delivery_date = $5,
			sales_person = $6,
			status = $7,
			total_amount = $8,
			remark = $9
		WHERE id = $1
	`,
		so.ID,
		so.OrderNo,
		so.CustomerID,
		dateArg(so.OrderDate),
		dateArg(so.DeliveryDate),
		so.SalesPerson,
		string(so.Status),
		so.TotalAmount,
		so.Remark,
	)
	if err != nil {
		return fmt.Errorf("update sales order %d: %w", so.ID, mapWriteError(err, domain.ErrDuplicateOrderNumber))
	}
	if cmd.RowsAffected() == 0 {
		return fmt.Errorf("sales order %d: %w", so.ID, domain.ErrNotFound)
	}
	return nil
}

// DeleteSalesOrder removes the order; its lines go with it through the cascade.
func (q *Queries) DeleteSalesOrder(ctx context.Context, id int64) error {
	cmd, err := q.db.Exec(ctx, "DELETE FROM sales_orders WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("delete sales order %d: %w", id, mapWriteError(err, domain.ErrConflict))
	}
	if cmd.RowsAffected() == 0 {
		return fmt.Errorf("sales order %d: %w", id, domain.ErrNotFound)
	}
	return nil
}

func (q *Queries) ListSalesOrders(ctx context.Context, filter SalesOrderFilter) (domain.Page[domain.SalesOrder], error) {
	var c conditions
	c.addKeyword(filter.Keyword, "so.order_no", "c.name", "c.customer_code")
	if filter.Status != "" {
		c.add("so.status = $%d", string(filter.Status))
	}
	if filter.SalesPerson != "" {
		c.add("so.sales_person = $%d", filter.SalesPerson)
	}
	if filter.StartDate != nil {
		c.add("so.order_date >= $%d", dateArg(*filter.StartDate))
	}
	if filter.EndDate != nil {
		c.add("so.order_date <= $%d", dateArg(*filter.EndDate))
	}

	var total int
	err := q.db.QueryRow(ctx, `
		SELECT COUNT(*)
		FROM sales_orders so
		JOIN customers c ON c.id = so.customer_id
	`+c.where(), c.args...).Scan(&total)
	if err != nil {
		return domain.Page[domain.SalesOrder]{}, fmt.Errorf("count sales orders: %w", err)
	}

	limit, args := c.paginate(filter.Page, filter.PageSize)
	rows, err := q.db.Query(ctx, `
		SELECT
			so.id,
			so.order_no,
			so.customer_id,
			so.order_date,
			so.delivery_date,
			so.sales_person,
			so.status,
			so.total_amount,
			so.remark,
			so.created_by,
			so.created_at,
			c.customer_code,
			c.name,
			agg.product_names,
			agg.total_qty
		FROM sales_orders so
		JOIN customers c ON c.id = so.customer_id
		LEFT JOIN LATERAL (
			SELECT
				STRING_AGG(p.name, ', ' ORDER BY ol.id) AS product_names,
				SUM(ol.quantity)::int AS total_qty
			FROM order_lines ol
			JOIN products p ON p.id = ol.product_id
			WHERE ol.order_id = so.id
		) agg ON TRUE
	`+c.where()+" ORDER BY so.created_at DESC, so.id DESC"+limit, args...)
	if err != nil {
		return domain.Page[domain.SalesOrder]{}, fmt.Errorf("list sales orders: %w", err)
	}
	defer rows.Close()

	items := make([]domain.SalesOrder, 0)
	for rows.Next() {
		var (
			so           domain.SalesOrder
			orderDate    time.Time
			deliveryDate time.Time
			status       string
		)
		if err := rows.Scan(
			&so.ID,
			&so.OrderNo,
			&so.CustomerID,
			&orderDate,
			&deliveryDate,
			&so.SalesPerson,
			&status,
			&so.TotalAmount,
			&so.Remark,
			&so.CreatedBy,
			&so.CreatedAt,
			&so.CustomerCode,
			&so.CustomerName,
			&so.ProductNames,
			&so.TotalQty,
		); err != nil {
			return domain.Page[domain.SalesOrder]{}, fmt.Errorf("scan sales order: %w", err)
		}
		so.OrderDate = domain.NewDate(orderDate)
		so.DeliveryDate = domain.NewDate(deliveryDate)
		so.Status = domain.SOStatus(status)
		items = append(items, so)
	}
	if err := rows.Err(); err != nil {
		return domain.Page[domain.SalesOrder]{}, fmt.Errorf("iterate sales orders: %w", err)
	}
	return domain.Page[domain.SalesOrder]{Items: items, Total: total}, nil
}

func (q *Queries) ListOrderLines(ctx context.Context, orderID int64) ([]domain.OrderLine, error) {
	rows, err := q.db.Query(ctx, `
		SELECT
			ol.id,
			ol.order_id,
			ol.product_id,
			ol.quantity,
			ol.unit_price,
			ol.amount,
			ol.remark,
			p.product_code,
			p.name
		FROM order_lines ol
		JOIN products p ON p.id = ol.product_id
		WHERE ol.order_id = $1
		ORDER BY ol.id ASC
	`, orderID)
	if err != nil {
		return nil, fmt.Errorf("list order lines for %d: %w", orderID, err)
	}
	defer rows.Close()

	lines := make([]domain.OrderLine, 0)
	for rows.Next() {
		var line domain.OrderLine
		if err := rows.Scan(
			&line.ID,
			&line.OrderID,
			&line.ProductID,
			&line.Quantity,
			&line.UnitPrice,
			&line.Amount,
			&line.Remark,
			&line.ProductCode,
			&line.ProductName,
		); err != nil {
			return nil, fmt.Errorf("scan order line: %w", err)
		}
		lines = append(lines, line)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate order lines: %w", err)
	}
	return lines, nil
}

func (q *Queries) DeleteOrderLines(ctx context.Context, orderID int64) error {
	if _, err := q.db.Exec(ctx, "DELETE FROM order_lines WHERE order_id = $1", orderID); err != nil {
		return fmt.Errorf("delete order lines for %d: %w", orderID, err)
	}
	return nil
}

func (q *Queries) InsertOrderLines(ctx context.Context, orderID int64, lines []domain.OrderLine) error {
	for i, line := range lines {
		_, err := q.db.Exec(ctx, `
			INSERT INTO order_lines (order_id, product_id, quantity, unit_price, amount, remark)
			VALUES ($1, $2, $3, $4, $5, $6)
		`, orderID, line.ProductID, line.Quantity, line.UnitPrice, line.Amount, line.Remark)
		if err != nil {
			return fmt.Errorf("insert order line %d for %d: %w", i, orderID, mapWriteError(err, domain.ErrConflict))
		}
	}
	return nil
}

func (q *Queries) ListSalesPersons(ctx context.Context) ([]string, error) {
	rows, err := q.db.Query(ctx, `
		SELECT DISTINCT sales_person
		FROM sales_orders
		WHERE sales_person IS NOT NULL AND sales_person <> ''
		ORDER BY sales_person ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("list sales persons: %w", err)
	}
	names, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("collect sales persons: %w", err)
	}
	return names, nil
}

func scanSalesOrder(row pgx.Row) (domain.SalesOrder, error) {
	var (
		so           domain.SalesOrder
		orderDate    time.Time
		deliveryDate time.Time
		status       string
	)
	if err := row.Scan(
		&so.ID,
		&so.OrderNo,
		&so.CustomerID,
		&orderDate,
		&deliveryDate,
		&so.SalesPerson,
		&status,
		&so.TotalAmount,
		&so.Remark,
		&so.CreatedBy,
		&so.CreatedAt,
		&so.CustomerCode,
		&so.CustomerName,
	); err != nil {
		return domain.SalesOrder{}, err
	}
	so.OrderDate = domain.NewDate(orderDate)
	so.DeliveryDate = domain.NewDate(deliveryDate)
	so.Status = domain.SOStatus(status)
	return so, nil
}
