package repository

import (
	"errors"
	"fmt"
	"testing"

	"supplychain/internal/domain"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConditionsNumbersPlaceholders(t *testing.T) {
	var c conditions
	c.addKeyword("  bolt ", "m.material_code", "m.name")
	c.add("po.status = $%d", "draft")
	c.add("po.supplier_id = $%d", int64(7))

	assert.Equal(t,
		" WHERE (m.material_code ILIKE '%' || $1 || '%' OR m.name ILIKE '%' || $1 || '%') AND po.status = $2 AND po.supplier_id = $3",
		c.where(),
	)
	assert.Equal(t, []any{"bolt", "draft", int64(7)}, c.args)

	limit, args := c.paginate(3, 10)
	assert.Equal(t, " LIMIT $4 OFFSET $5", limit)
	assert.Equal(t, []any{"bolt", "draft", int64(7), 10, 20}, args)
	assert.Len(t, c.args, 3)
}

func TestConditionsEmpty(t *testing.T) {
	var c conditions
	c.addKeyword("   ", "name")
	assert.Equal(t, "", c.where())

	limit, args := c.paginate(0, 0)
	assert.Equal(t, " LIMIT $1 OFFSET $2", limit)
	assert.Equal(t, []any{20, 0}, args)
}

func TestNormalizePage(t *testing.T) {
	page, size := NormalizePage(-1, 500)
	assert.Equal(t, 1, page)
	assert.Equal(t, 100, size)

	page, size = NormalizePage(4, 25)
	assert.Equal(t, 4, page)
	assert.Equal(t, 25, size)
}

func TestMapWriteError(t *testing.T) {
	unique := fmt.Errorf("exec: %w", &pgconn.PgError{Code: pgUniqueViolation, ConstraintName: "uq_purchase_orders_po_no"})
	err := mapWriteError(unique, domain.ErrDuplicateOrderNumber)
	require.True(t, errors.Is(err, domain.ErrDuplicateOrderNumber))
	assert.Contains(t, err.Error(), "uq_purchase_orders_po_no")

	fk := &pgconn.PgError{Code: pgForeignKeyViolation, ConstraintName: "purchase_orders_material_id_fkey"}
	assert.True(t, errors.Is(mapWriteError(fk, domain.ErrConflict), domain.ErrReferentialConflict))

	overflow := &pgconn.PgError{Code: pgNumericOutOfRange, Message: "integer out of range"}
	err = mapWriteError(overflow, domain.ErrConflict)
	assert.True(t, errors.Is(err, domain.ErrInvalidQuantity))
	assert.False(t, errors.Is(err, domain.ErrConflict))

	other := errors.New("connection reset")
	assert.Equal(t, other, mapWriteError(other, domain.ErrConflict))
}
