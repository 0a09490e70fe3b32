package repository

import (
	"fmt"
	"strings"
	"time"

	"supplychain/internal/domain"
)

// conditions accumulates WHERE clauses with positional arguments. Each clause
// carries one %d verb for its placeholder index.
type conditions struct {
	clauses []string
	args    []any
}

func (c *conditions) add(clause string, arg any) {
	c.args = append(c.args, arg)
	c.clauses = append(c.clauses, fmt.Sprintf(clause, len(c.args)))
}

// addKeyword matches one argument against every listed column with ILIKE.
func (c *conditions) addKeyword(keyword string, columns ...string) {
	keyword = strings.TrimSpace(keyword)
	if keyword == "" {
		return
	}
	c.args = append(c.args, keyword)
	idx := len(c.args)
	parts := make([]string, 0, len(columns))
	for _, column := range columns {
		parts = append(parts, fmt.Sprintf("%s ILIKE '%%' || $%d || '%%'", column, idx))
	}
	c.clauses = append(c.clauses, "("+strings.Join(parts, " OR ")+")")
}

func (c *conditions) where() string {
	if len(c.clauses) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(c.clauses, " AND ")
}

// paginate appends LIMIT/OFFSET for the normalized page and returns the args to
// pass with the full statement.
func (c *conditions) paginate(page, pageSize int) (string, []any) {
	page, pageSize = NormalizePage(page, pageSize)
	n := len(c.args)
	args := append(append([]any(nil), c.args...), pageSize, (page-1)*pageSize)
	return fmt.Sprintf(" LIMIT $%d OFFSET $%d", n+1, n+2), args
}

func dateArg(d domain.Date) time.Time {
	return d.Time
}

func nullableDateArg(d *domain.Date) *time.Time {
	if d == nil {
		return nil
	}
	t := d.Time
	return &t
}
