package repository

import (
	"context"
	"fmt"
	"strings"

	"supplychain/internal/domain"
)

func (q *Queries) ListWarnings(ctx context.Context, filter WarningFilter) (domain.Page[domain.Warning], error) {
	var c conditions
	c.clauses = append(c.clauses, "w.is_resolved = FALSE")
	switch filter.Scope {
	case WarningScopeMaterial:
		c.clauses = append(c.clauses, "w.material_id IS NOT NULL")
	case WarningScopeOrder:
		c.clauses = append(c.clauses, "(w.order_id IS NOT NULL OR w.product_id IS NOT NULL)")
	}
	if level := strings.ToUpper(strings.TrimSpace(filter.Level)); level != "" {
		c.add("w.level = $%d", level)
	}

	var total int
	if err := q.db.QueryRow(ctx, "SELECT COUNT(*) FROM warnings w"+c.where(), c.args...).Scan(&total); err != nil {
		return domain.Page[domain.Warning]{}, fmt.Errorf("count warnings: %w", err)
	}

	limit, args := c.paginate(filter.Page, filter.PageSize)
	rows, err := q.db.Query(ctx, `
		SELECT
			w.id,
			w.level,
			w.material_id,
			m.material_code,
			m.name,
			m.buyer,
			w.product_id,
			p.product_code,
			p.name,
			w.order_id,
			so.order_no,
			w.warning_type,
			w.message,
			w.created_at
		FROM warnings w
		LEFT JOIN materials m ON m.id = w.material_id
		LEFT JOIN products p ON p.id = w.product_id
		LEFT JOIN sales_orders so ON so.id = w.order_id
	`+c.where()+`
		ORDER BY
			CASE w.level WHEN 'RED' THEN 1 WHEN 'ORANGE' THEN 2 WHEN 'YELLOW' THEN 3 ELSE 4 END,
			w.created_at DESC,
			w.id DESC
	`+limit, args...)
	if err != nil {
		return domain.Page[domain.Warning]{}, fmt.Errorf("list warnings: %w", err)
	}
	defer rows.Close()

	items := make([]domain.Warning, 0)
	for rows.Next() {
		var w domain.Warning
		if err := rows.Scan(
			&w.ID,
			&w.Level,
			&w.MaterialID,
			&w.MaterialCode,
			&w.MaterialName,
			&w.Buyer,
			&w.ProductID,
			&w.ProductCode,
			&w.ProductName,
			&w.OrderID,
			&w.OrderNo,
			&w.WarningType,
			&w.Message,
			&w.CreatedAt,
		); err != nil {
			return domain.Page[domain.Warning]{}, fmt.Errorf("scan warning: %w", err)
		}
		items = append(items, w)
	}
	if err := rows.Err(); err != nil {
		return domain.Page[domain.Warning]{}, fmt.Errorf("iterate warnings: %w", err)
	}
	return domain.Page[domain.Warning]{Items: items, Total: total}, nil
}
