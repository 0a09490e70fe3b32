package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"supplychain/internal/domain"
	"supplychain/internal/repository"

	"go.uber.org/zap"
)

// ImportPurchaseOrders creates one order per row and walks it forward to the
// row's status. Each row commits or rolls back on its own; failures are
// reported per row and do not stop the import.
func (s *Service) ImportPurchaseOrders(ctx context.Context, actor domain.Principal, rows []domain.PurchaseImportRow) ([]domain.PurchaseImportResult, error) {
	if len(rows) == 0 {
		return nil, fmt.Errorf("import file has no data rows")
	}

	results := make([]domain.PurchaseImportResult, 0, len(rows))
	created := 0
	for _, row := range rows {
		if err := ctx.Err(); err != nil {
			return results, err
		}
		result := domain.PurchaseImportResult{Row: row.Row}
		if row.ParseError != "" {
			result.PONo = row.PONo
			result.Error = row.ParseError
			results = append(results, result)
			continue
		}
		po, err := s.importPurchaseRow(ctx, actor, row)
		if err != nil {
			result.PONo = row.PONo
			result.Error = s.importRowError(row, actor, err)
		} else {
			result.ID = po.ID
			result.PONo = po.PONo
			result.Status = po.Status
			created++
		}
		results = append(results, result)
	}

	s.log.Info("purchase orders imported",
		zap.Int("rows", len(rows)),
		zap.Int("created", created),
		zap.Int("failed", len(rows)-created),
		zap.Int64("user_id", actor.UserID),
	)
	return results, nil
}

func (s *Service) importPurchaseRow(ctx context.Context, actor domain.Principal, row domain.PurchaseImportRow) (domain.PurchaseOrder, error) {
	target := domain.POStatusDraft
	if strings.TrimSpace(row.Status) != "" {
		parsed, err := domain.ParsePOStatus(row.Status)
		if err != nil {
			return domain.PurchaseOrder{}, err
		}
		target = parsed
	}
	path, err := domain.PathTo(target)
	if err != nil {
		return domain.PurchaseOrder{}, err
	}

	var po domain.PurchaseOrder
	err = s.store.WithTx(ctx, func(q repository.Querier) error {
		material, err := q.GetMaterialByCode(ctx, strings.TrimSpace(row.MaterialCode))
		if err != nil {
			return importRef(err, "material", row.MaterialCode)
		}
		supplier, err := q.GetSupplierByCode(ctx, strings.TrimSpace(row.SupplierCode))
		if err != nil {
			return importRef(err, "supplier", row.SupplierCode)
		}

		in := domain.PurchaseOrderInput{
			PONo:         strings.TrimSpace(row.PONo),
			MaterialID:   material.ID,
			SupplierID:   supplier.ID,
			Quantity:     row.Quantity,
			UnitPrice:    row.UnitPrice,
			OrderDate:    row.OrderDate,
			ExpectedDate: row.ExpectedDate,
			Remark:       row.Remark,
		}
		if err := in.Validate(); err != nil {
			return err
		}
		po, err = s.createPurchaseOrder(ctx, q, actor, in)
		if err != nil {
			return err
		}
		for _, step := range path {
			po, err = s.advancePurchaseOrder(ctx, q, actor, po.ID, string(step))
			if err != nil {
				return err
			}
		}
		return nil
	})
	return po, err
}

// importRowError returns the message reported for a failed row. Domain errors
// are shown as is; anything else is logged and reported generically.
func (s *Service) importRowError(row domain.PurchaseImportRow, actor domain.Principal, err error) string {
	if domain.IsClientError(err) {
		return err.Error()
	}
	s.log.Error("purchase import row failed",
		zap.Int("row", row.Row),
		zap.Int64("user_id", actor.UserID),
		zap.Error(err),
	)
	return "internal error"
}

func importRef(err error, kind, code string) error {
	if errors.Is(err, domain.ErrNotFound) {
		return fmt.Errorf("%w: unknown %s code %q", domain.ErrValidation, kind, code)
	}
	return err
}
