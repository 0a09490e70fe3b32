package repository

import (
	"context"
	"fmt"

	"supplychain/internal/domain"

	"github.com/jackc/pgx/v5"
)

const productSelect = `
	SELECT id, product_code, name, spec, unit, status, created_at
	FROM products
`

func (q *Queries) ListProducts(ctx context.Context, filter ReferenceFilter) (domain.Page[domain.Product], error) {
	return listReference(ctx, q, "products", productSelect, []string{"product_code", "name"}, filter, scanProduct)
}

// GetProduct loads the product together with its bill of materials.
func (q *Queries) GetProduct(ctx context.Context, id int64) (domain.Product, error) {
	p, err := getReference(ctx, q, "product", productSelect+" WHERE id = $1", id, scanProduct)
	if err != nil {
		return domain.Product{}, err
	}
	bom, err := q.ListBOM(ctx, id)
	if err != nil {
		return domain.Product{}, err
	}
	p.BOM = bom
	return p, nil
}

func (q *Queries) InsertProduct(ctx context.Context, p *domain.Product) error {
	err := q.db.QueryRow(ctx, `
		INSERT INTO products (product_code, name, spec, unit, status)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at
	`, p.Code, p.Name, p.Spec, p.Unit, p.Status).Scan(&p.ID, &p.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert product: %w", mapWriteError(err, domain.ErrConflict))
	}
	return nil
}

func (q *Queries) UpdateProduct(ctx context.Context, p domain.Product) error {
	cmd, err := q.db.Exec(ctx, `
		UPDATE products
		SET product_code = $2, name = $3, spec = $4, unit = $5, status = $6
		WHERE id = $1
	`, p.ID, p.Code, p.Name, p.Spec, p.Unit, p.Status)
	if err != nil {
		return fmt.Errorf("update product %d: %w", p.ID, mapWriteError(err, domain.ErrConflict))
	}
	if cmd.RowsAffected() == 0 {
		return fmt.Errorf("product %d: %w", p.ID, domain.ErrNotFound)
	}
	return nil
}

func (q *Queries) ListBOM(ctx context.Context, productID int64) ([]domain.BOMLine, error) {
	rows, err := q.db.Query(ctx, `
		SELECT b.material_id, m.material_code, m.name, b.quantity
		FROM bom b
		JOIN materials m ON m.id = b.material_id
		WHERE b.product_id = $1
		ORDER BY m.material_code ASC
	`, productID)
	if err != nil {
		return nil, fmt.Errorf("list bom for product %d: %w", productID, err)
	}
	defer rows.Close()

	lines := make([]domain.BOMLine, 0)
	for rows.Next() {
		var line domain.BOMLine
		if err := rows.Scan(&line.MaterialID, &line.MaterialCode, &line.MaterialName, &line.Quantity); err != nil {
			return nil, fmt.Errorf("scan bom line: %w", err)
		}
		lines = append(lines, line)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate bom: %w", err)
	}
	return lines, nil
}

// ReplaceBOM drops the current bill of materials and writes lines in its place.
func (q *Queries) ReplaceBOM(ctx context.Context, productID int64, lines []domain.BOMLine) error {
	if _, err := q.db.Exec(ctx, "DELETE FROM bom WHERE product_id = $1", productID); err != nil {
		return fmt.Errorf("clear bom for product %d: %w", productID, err)
	}
	for _, line := range lines {
		_, err := q.db.Exec(ctx, `
			INSERT INTO bom (product_id, material_id, quantity)
			VALUES ($1, $2, $3)
		`, productID, line.MaterialID, line.Quantity)
		if err != nil {
			return fmt.Errorf("insert bom line %d for product %d: %w", line.MaterialID, productID, mapWriteError(err, domain.ErrConflict))
		}
	}
	return nil
}

func scanProduct(row pgx.Row) (domain.Product, error) {
	var p domain.Product
	err := row.Scan(&p.ID, &p.Code, &p.Name, &p.Spec, &p.Unit, &p.Status, &p.CreatedAt)
	return p, err
}
