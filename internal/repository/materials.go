package repository

import (
	"context"
	"fmt"

	"supplychain/internal/domain"

	"github.com/jackc/pgx/v5"
)

const materialSelect = `
	SELECT
		m.id,
		m.material_code,
		m.name,
		m.spec,
		m.unit,
		m.price,
		m.safe_stock,
		m.lead_time,
		m.buyer,
		m.status,
		m.created_at,
		COALESCE((
			SELECT SUM(i.quantity) FROM inventory i
			WHERE i.item_type = 'material' AND i.item_id = m.id
		), 0)::int,
		COALESCE((SELECT SUM(t.quantity) FROM in_transit t WHERE t.material_id = m.id), 0)::int,
		(SELECT COUNT(*) FROM material_suppliers ms WHERE ms.material_id = m.id)::int
	FROM materials m
`

func (q *Queries) ListMaterials(ctx context.Context, filter ReferenceFilter) (domain.Page[domain.Material], error) {
	var c conditions
	c.addKeyword(filter.Keyword, "m.material_code", "m.name")
	if filter.Status != "" {
		c.add("m.status = $%d", filter.Status)
	}

	var total int
	if err := q.db.QueryRow(ctx, "SELECT COUNT(*) FROM materials m"+c.where(), c.args...).Scan(&total); err != nil {
		return domain.Page[domain.Material]{}, fmt.Errorf("count materials: %w", err)
	}

	limit, args := c.paginate(filter.Page, filter.PageSize)
	rows, err := q.db.Query(ctx, materialSelect+c.where()+" ORDER BY m.id ASC"+limit, args...)
	if err != nil {
		return domain.Page[domain.Material]{}, fmt.Errorf("list materials: %w", err)
	}
	defer rows.Close()

	items := make([]domain.Material, 0)
	for rows.Next() {
		m, err := scanMaterial(rows)
		if err != nil {
			return domain.Page[domain.Material]{}, fmt.Errorf("scan material: %w", err)
		}
		items = append(items, m)
	}
	if err := rows.Err(); err != nil {
		return domain.Page[domain.Material]{}, fmt.Errorf("iterate materials: %w", err)
	}
	return domain.Page[domain.Material]{Items: items, Total: total}, nil
}

func (q *Queries) GetMaterial(ctx context.Context, id int64) (domain.Material, error) {
	m, err := scanMaterial(q.db.QueryRow(ctx, materialSelect+" WHERE m.id = $1", id))
	if err != nil {
		if notFound(err) {
			return domain.Material{}, fmt.Errorf("material %d: %w", id, domain.ErrNotFound)
		}
		return domain.Material{}, fmt.Errorf("get material %d: %w", id, err)
	}
	return m, nil
}

func (q *Queries) GetMaterialByCode(ctx context.Context, code string) (domain.Material, error) {
	m, err := scanMaterial(q.db.QueryRow(ctx, materialSelect+" WHERE m.material_code = $1", code))
	if err != nil {
		if notFound(err) {
			return domain.Material{}, fmt.Errorf("material %s: %w", code, domain.ErrNotFound)
		}
		return domain.Material{}, fmt.Errorf("get material %s: %w", code, err)
	}
	return m, nil
}

func (q *Queries) InsertMaterial(ctx context.Context, m *domain.Material) error {
	err := q.db.QueryRow(ctx, `
		INSERT INTO materials (material_code, name, spec, unit, price, safe_stock, lead_time, buyer, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, created_at
	`, m.Code, m.Name, m.Spec, m.Unit, m.Price, m.SafetyStock, m.LeadTimeDays, m.Buyer, m.Status).Scan(&m.ID, &m.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert material: %w", mapWriteError(err, domain.ErrConflict))
	}
	return nil
}

func (q *Queries) UpdateMaterial(ctx context.Context, m domain.Material) error {
	cmd, err := q.db.Exec(ctx, `
		UPDATE materials
		SET
			material_code = $2,
			name = $3,
			spec = $4,
			unit = $5,
			price = $6,
			safe_stock = $7,
			lead_time = $8,
			buyer = $9,
			status = $10
		WHERE id = $1
	`, m.ID, m.Code, m.Name, m.Spec, m.Unit, m.Price, m.SafetyStock, m.LeadTimeDays, m.Buyer, m.Status)
	if err != nil {
		return fmt.Errorf("update material %d: %w", m.ID, mapWriteError(err, domain.ErrConflict))
	}
	if cmd.RowsAffected() == 0 {
		return fmt.Errorf("material %d: %w", m.ID, domain.ErrNotFound)
	}
	return nil
}

func (q *Queries) ListBuyers(ctx context.Context) ([]string, error) {
	rows, err := q.db.Query(ctx, `
		SELECT DISTINCT buyer
		FROM materials
		WHERE buyer IS NOT NULL AND buyer <> ''
		ORDER BY buyer ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("list buyers: %w", err)
	}
	buyers, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("collect buyers: %w", err)
	}
	return buyers, nil
}

func scanMaterial(row pgx.Row) (domain.Material, error) {
	var m domain.Material
	if err := row.Scan(
		&m.ID,
		&m.Code,
		&m.Name,
		&m.Spec,
		&m.Unit,
		&m.Price,
		&m.SafetyStock,
		&m.LeadTimeDays,
		&m.Buyer,
		&m.Status,
		&m.CreatedAt,
		&m.OnHand,
		&m.InTransit,
		&m.SupplierCount,
	); err != nil {
		return domain.Material{}, err
	}
	return m, nil
}
