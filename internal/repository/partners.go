package repository

import (
	"context"
	"fmt"

	"supplychain/internal/domain"

	"github.com/jackc/pgx/v5"
)

const (
	supplierSelect = `
	SELECT id, supplier_code, name, contact_person, phone, on_time_rate, quality_rate, status, created_at
	FROM suppliers
`
	warehouseSelect = `
	SELECT id, warehouse_code, name, address, status, created_at
	FROM warehouses
`
	customerSelect = `
	SELECT id, customer_code, name, contact_person, phone, email, address, status, created_at
	FROM customers
`
)

func (q *Queries) ListSuppliers(ctx context.Context, filter ReferenceFilter) (domain.Page[domain.Supplier], error) {
	return listReference(ctx, q, "suppliers", supplierSelect, []string{"supplier_code", "name"}, filter, scanSupplier)
}

func (q *Queries) GetSupplier(ctx context.Context, id int64) (domain.Supplier, error) {
	return getReference(ctx, q, "supplier", supplierSelect+" WHERE id = $1", id, scanSupplier)
}

func (q *Queries) GetSupplierByCode(ctx context.Context, code string) (domain.Supplier, error) {
	return getReference(ctx, q, "supplier", supplierSelect+" WHERE supplier_code = $1", code, scanSupplier)
}

func (q *Queries) InsertSupplier(ctx context.Context, s *domain.Supplier) error {
	err := q.db.QueryRow(ctx, `
		INSERT INTO suppliers (supplier_code, name, contact_person, phone, on_time_rate, quality_rate, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at
	`, s.Code, s.Name, s.ContactPerson, s.Phone, s.OnTimeRate, s.QualityRate, s.Status).Scan(&s.ID, &s.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert supplier: %w", mapWriteError(err, domain.ErrConflict))
	}
	return nil
}

func (q *Queries) UpdateSupplier(ctx context.Context, s domain.Supplier) error {
	cmd, err := q.db.Exec(ctx, `
		UPDATE suppliers
		SET supplier_code = $2, name = $3, contact_person = $4, phone = $5,
			on_time_rate = $6, quality_rate = $7, status = $8
		WHERE id = $1
	`, s.ID, s.Code, s.Name, s.ContactPerson, s.Phone, s.OnTimeRate, s.QualityRate, s.Status)
	if err != nil {
		return fmt.Errorf("update supplier %d: %w", s.ID, mapWriteError(err, domain.ErrConflict))
	}
	if cmd.RowsAffected() == 0 {
		return fmt.Errorf("supplier %d: %w", s.ID, domain.ErrNotFound)
	}
	return nil
}

func (q *Queries) ListWarehouses(ctx context.Context, filter ReferenceFilter) (domain.Page[domain.Warehouse], error) {
	return listReference(ctx, q, "warehouses", warehouseSelect, []string{"warehouse_code", "name"}, filter, scanWarehouse)
}

func (q *Queries) GetWarehouse(ctx context.Context, id int64) (domain.Warehouse, error) {
	return getReference(ctx, q, "warehouse", warehouseSelect+" WHERE id = $1", id, scanWarehouse)
}

func (q *Queries) GetWarehouseByCode(ctx context.Context, code string) (domain.Warehouse, error) {
	return getReference(ctx, q, "warehouse", warehouseSelect+" WHERE warehouse_code = $1", code, scanWarehouse)
}

func (q *Queries) InsertWarehouse(ctx context.Context, w *domain.Warehouse) error {
	err := q.db.QueryRow(ctx, `
		INSERT INTO warehouses (warehouse_code, name, address, status)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at
	`, w.Code, w.Name, w.Address, w.Status).Scan(&w.ID, &w.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert warehouse: %w", mapWriteError(err, domain.ErrConflict))
	}
	return nil
}

func (q *Queries) UpdateWarehouse(ctx context.Context, w domain.Warehouse) error {
	cmd, err := q.db.Exec(ctx, `
		UPDATE warehouses
		SET warehouse_code = $2, name = $3, address = $4, status = $5
		WHERE id = $1
	`, w.ID, w.Code, w.Name, w.Address, w.Status)
	if err != nil {
		return fmt.Errorf("update warehouse %d: %w", w.ID, mapWriteError(err, domain.ErrConflict))
	}
	if cmd.RowsAffected() == 0 {
		return fmt.Errorf("warehouse %d: %w", w.ID, domain.ErrNotFound)
	}
	return nil
}

func (q *Queries) ListCustomers(ctx context.Context, filter ReferenceFilter) (domain.Page[domain.Customer], error) {
	return listReference(ctx, q, "customers", customerSelect, []string{"customer_code", "name"}, filter, scanCustomer)
}

func (q *Queries) GetCustomer(ctx context.Context, id int64) (domain.Customer, error) {
	return getReference(ctx, q, "customer", customerSelect+" WHERE id = $1", id, scanCustomer)
}

func (q *Queries) InsertCustomer(ctx context.Context, c *domain.Customer) error {
	err := q.db.QueryRow(ctx, `
		INSERT INTO customers (customer_code, name, contact_person, phone, email, address, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at
	`, c.Code, c.Name, c.ContactPerson, c.Phone, c.Email, c.Address, c.Status).Scan(&c.ID, &c.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert customer: %w", mapWriteError(err, domain.ErrConflict))
	}
	return nil
}

// listReference pages through a flat reference table ordered by id.
func listReference[T any](
	ctx context.Context,
	q *Queries,
	table string,
	selectSQL string,
	keywordColumns []string,
	filter ReferenceFilter,
	scan func(pgx.Row) (T, error),
) (domain.Page[T], error) {
	var c conditions
	c.addKeyword(filter.Keyword, keywordColumns...)
	if filter.Status != "" {
		c.add("status = $%d", filter.Status)
	}

	var total int
	if err := q.db.QueryRow(ctx, "SELECT COUNT(*) FROM "+table+c.where(), c.args...).Scan(&total); err != nil {
		return domain.Page[T]{}, fmt.Errorf("count %s: %w", table, err)
	}

	limit, args := c.paginate(filter.Page, filter.PageSize)
	rows, err := q.db.Query(ctx, selectSQL+c.where()+" ORDER BY id ASC"+limit, args...)
	if err != nil {
		return domain.Page[T]{}, fmt.Errorf("list %s: %w", table, err)
	}
	defer rows.Close()

	items := make([]T, 0)
	for rows.Next() {
		item, err := scan(rows)
		if err != nil {
			return domain.Page[T]{}, fmt.Errorf("scan %s: %w", table, err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return domain.Page[T]{}, fmt.Errorf("iterate %s: %w", table, err)
	}
	return domain.Page[T]{Items: items, Total: total}, nil
}

func getReference[T any](ctx context.Context, q *Queries, name, query string, key any, scan func(pgx.Row) (T, error)) (T, error) {
	item, err := scan(q.db.QueryRow(ctx, query, key))
	if err != nil {
		var zero T
		if notFound(err) {
			return zero, fmt.Errorf("%s %v: %w", name, key, domain.ErrNotFound)
		}
		return zero, fmt.Errorf("get %s %v: %w", name, key, err)
	}
	return item, nil
}

func scanSupplier(row pgx.Row) (domain.Supplier, error) {
	var s domain.Supplier
	err := row.Scan(&s.ID, &s.Code, &s.Name, &s.ContactPerson, &s.Phone, &s.OnTimeRate, &s.QualityRate, &s.Status, &s.CreatedAt)
	return s, err
}

func scanWarehouse(row pgx.Row) (domain.Warehouse, error) {
	var w domain.Warehouse
	err := row.Scan(&w.ID, &w.Code, &w.Name, &w.Address, &w.Status, &w.CreatedAt)
	return w, err
}

func scanCustomer(row pgx.Row) (domain.Customer, error) {
	var c domain.Customer
	err := row.Scan(&c.ID, &c.Code, &c.Name, &c.ContactPerson, &c.Phone, &c.Email, &c.Address, &c.Status, &c.CreatedAt)
	return c, err
}
