package service

import (
	"context"
	"fmt"
	"strings"

	"supplychain/internal/domain"
	"supplychain/internal/repository"

	"go.uber.org/zap"
)

// RemoveResult reports how a reference delete was settled.
type RemoveResult struct {
	Deleted     bool `json:"deleted"`
	Deactivated bool `json:"deactivated"`
}

func (s *Service) ListMaterials(ctx context.Context, filter repository.ReferenceFilter) (domain.Page[domain.Material], error) {
	return s.store.ListMaterials(ctx, filter)
}

func (s *Service) GetMaterial(ctx context.Context, id int64) (domain.Material, error) {
	return s.store.GetMaterial(ctx, id)
}

func (s *Service) ListBuyers(ctx context.Context) ([]string, error) {
	return s.store.ListBuyers(ctx)
}

func (s *Service) CreateMaterial(ctx context.Context, m domain.Material) (domain.Material, error) {
	if err := normalizeMaterial(&m); err != nil {
		return domain.Material{}, err
	}
	if err := s.store.InsertMaterial(ctx, &m); err != nil {
		return domain.Material{}, err
	}
	return m, nil
}

func (s *Service) UpdateMaterial(ctx context.Context, id int64, m domain.Material) (domain.Material, error) {
	if err := normalizeMaterial(&m); err != nil {
		return domain.Material{}, err
	}
	m.ID = id
	if err := s.store.UpdateMaterial(ctx, m); err != nil {
		return domain.Material{}, err
	}
	return s.store.GetMaterial(ctx, id)
}

func (s *Service) DeleteMaterial(ctx context.Context, id int64) (RemoveResult, error) {
	return s.removeReference(ctx, repository.RefMaterial, id)
}

func (s *Service) ListSuppliers(ctx context.Context, filter repository.ReferenceFilter) (domain.Page[domain.Supplier], error) {
	return s.store.ListSuppliers(ctx, filter)
}

func (s *Service) GetSupplier(ctx context.Context, id int64) (domain.Supplier, error) {
	return s.store.GetSupplier(ctx, id)
}

func (s *Service) CreateSupplier(ctx context.Context, sup domain.Supplier) (domain.Supplier, error) {
	if err := normalizeSupplier(&sup); err != nil {
		return domain.Supplier{}, err
	}
	if err := s.store.InsertSupplier(ctx, &sup); err != nil {
		return domain.Supplier{}, err
	}
	return sup, nil
}

func (s *Service) UpdateSupplier(ctx context.Context, id int64, sup domain.Supplier) (domain.Supplier, error) {
	if err := normalizeSupplier(&sup); err != nil {
		return domain.Supplier{}, err
	}
	sup.ID = id
	if err := s.store.UpdateSupplier(ctx, sup); err != nil {
		return domain.Supplier{}, err
	}
	return s.store.GetSupplier(ctx, id)
}

func (s *Service) DeleteSupplier(ctx context.Context, id int64) (RemoveResult, error) {
	return s.removeReference(ctx, repository.RefSupplier, id)
}

func (s *Service) ListWarehouses(ctx context.Context, filter repository.ReferenceFilter) (domain.Page[domain.Warehouse], error) {
	return s.store.ListWarehouses(ctx, filter)
}

func (s *Service) GetWarehouse(ctx context.Context, id int64) (domain.Warehouse, error) {
	return s.store.GetWarehouse(ctx, id)
}

func (s *Service) CreateWarehouse(ctx context.Context, w domain.Warehouse) (domain.Warehouse, error) {
	if err := normalizeWarehouse(&w); err != nil {
		return domain.Warehouse{}, err
	}
	if err := s.store.InsertWarehouse(ctx, &w); err != nil {
		return domain.Warehouse{}, err
	}
	return w, nil
}

func (s *Service) UpdateWarehouse(ctx context.Context, id int64, w domain.Warehouse) (domain.Warehouse, error) {
	if err := normalizeWarehouse(&w); err != nil {
		return domain.Warehouse{}, err
	}
	w.ID = id
	if err := s.store.UpdateWarehouse(ctx, w); err != nil {
		return domain.Warehouse{}, err
	}
	return s.store.GetWarehouse(ctx, id)
}

// DeleteWarehouse refuses to touch the receiving warehouse.
func (s *Service) DeleteWarehouse(ctx context.Context, id int64) (RemoveResult, error) {
	if id == s.defaultWarehouseID {
		return RemoveResult{}, fmt.Errorf("%w: warehouse %d receives purchase orders", domain.ErrReferentialConflict, id)
	}
	return s.removeReference(ctx, repository.RefWarehouse, id)
}

func (s *Service) ListProducts(ctx context.Context, filter repository.ReferenceFilter) (domain.Page[domain.Product], error) {
	return s.store.ListProducts(ctx, filter)
}

func (s *Service) GetProduct(ctx context.Context, id int64) (domain.Product, error) {
	return s.store.GetProduct(ctx, id)
}

// CreateProduct inserts the product and, when given, its bill of materials.
func (s *Service) CreateProduct(ctx context.Context, p domain.Product) (domain.Product, error) {
	if err := normalizeProduct(&p); err != nil {
		return domain.Product{}, err
	}
	if err := validateBOM(p.BOM); err != nil {
		return domain.Product{}, err
	}
	var id int64
	err := s.store.WithTx(ctx, func(q repository.Querier) error {
		if err := q.InsertProduct(ctx, &p); err != nil {
			return err
		}
		id = p.ID
		if len(p.BOM) == 0 {
			return nil
		}
		if err := checkBOMMaterials(ctx, q, p.BOM); err != nil {
			return err
		}
		return q.ReplaceBOM(ctx, p.ID, p.BOM)
	})
	if err != nil {
		return domain.Product{}, err
	}
	return s.store.GetProduct(ctx, id)
}

func (s *Service) UpdateProduct(ctx context.Context, id int64, p domain.Product) (domain.Product, error) {
	if err := normalizeProduct(&p); err != nil {
		return domain.Product{}, err
	}
	p.ID = id
	if err := s.store.UpdateProduct(ctx, p); err != nil {
		return domain.Product{}, err
	}
	return s.store.GetProduct(ctx, id)
}

// ReplaceBOM swaps the full bill of materials of a product.
func (s *Service) ReplaceBOM(ctx context.Context, productID int64, lines []domain.BOMLine) (domain.Product, error) {
	if err := validateBOM(lines); err != nil {
		return domain.Product{}, err
	}
	err := s.store.WithTx(ctx, func(q repository.Querier) error {
		if _, err := q.GetProduct(ctx, productID); err != nil {
			return err
		}
		if err := checkBOMMaterials(ctx, q, lines); err != nil {
			return err
		}
		return q.ReplaceBOM(ctx, productID, lines)
	})
	if err != nil {
		return domain.Product{}, err
	}
	return s.store.GetProduct(ctx, productID)
}

func (s *Service) DeleteProduct(ctx context.Context, id int64) (RemoveResult, error) {
	return s.removeReference(ctx, repository.RefProduct, id)
}

func (s *Service) ListCustomers(ctx context.Context, filter repository.ReferenceFilter) (domain.Page[domain.Customer], error) {
	return s.store.ListCustomers(ctx, filter)
}

func (s *Service) CreateCustomer(ctx context.Context, c domain.Customer) (domain.Customer, error) {
	c.Code = strings.TrimSpace(c.Code)
	c.Name = strings.TrimSpace(c.Name)
	var fields domain.RequiredFields
	fields.Check(c.Code != "", "customerCode")
	fields.Check(c.Name != "", "name")
	fields.Check(validStatus(&c.Status), "status")
	if err := fields.Err(); err != nil {
		return domain.Customer{}, err
	}
	c.ContactPerson = normalizeNullable(c.ContactPerson)
	c.Phone = normalizeNullable(c.Phone)
	c.Email = normalizeNullable(c.Email)
	c.Address = normalizeNullable(c.Address)
	if err := s.store.InsertCustomer(ctx, &c); err != nil {
		return domain.Customer{}, err
	}
	return c, nil
}

// removeReference hard-deletes rows nothing depends on and deactivates the rest.
func (s *Service) removeReference(ctx context.Context, kind repository.ReferenceKind, id int64) (RemoveResult, error) {
	var result RemoveResult
	err := s.store.WithTx(ctx, func(q repository.Querier) error {
		count, err := q.CountDependents(ctx, kind, id)
		if err != nil {
			return err
		}
		if count > 0 {
			result.Deactivated = true
			return q.SetReferenceStatus(ctx, kind, id, domain.StatusInactive)
		}
		result.Deleted = true
		return q.DeleteReference(ctx, kind, id)
	})
	if err != nil {
		return RemoveResult{}, err
	}
	s.log.Info("reference removed",
		zap.String("kind", string(kind)),
		zap.Int64("id", id),
		zap.Bool("deleted", result.Deleted),
		zap.Bool("deactivated", result.Deactivated),
	)
	return result, nil
}

func normalizeMaterial(m *domain.Material) error {
	m.Code = strings.TrimSpace(m.Code)
	m.Name = strings.TrimSpace(m.Name)
	m.Unit = strings.TrimSpace(m.Unit)
	if m.Unit == "" {
		m.Unit = "PCS"
	}
	var fields domain.RequiredFields
	fields.Check(m.Code != "", "materialCode")
	fields.Check(m.Name != "", "name")
	fields.Check(domain.ValidPrice(m.Price), "price")
	fields.Check(m.SafetyStock >= 0 && m.SafetyStock <= domain.MaxQuantity, "safetyStock")
	fields.Check(m.LeadTimeDays >= 0 && m.LeadTimeDays <= domain.MaxQuantity, "leadTime")
	fields.Check(validStatus(&m.Status), "status")
	m.Spec = normalizeNullable(m.Spec)
	m.Buyer = normalizeNullable(m.Buyer)
	return fields.Err()
}

func normalizeSupplier(s *domain.Supplier) error {
	s.Code = strings.TrimSpace(s.Code)
	s.Name = strings.TrimSpace(s.Name)
	var fields domain.RequiredFields
	fields.Check(s.Code != "", "supplierCode")
	fields.Check(s.Name != "", "name")
	fields.Check(!s.OnTimeRate.IsNegative(), "onTimeRate")
	fields.Check(!s.QualityRate.IsNegative(), "qualityRate")
	fields.Check(validStatus(&s.Status), "status")
	s.ContactPerson = normalizeNullable(s.ContactPerson)
	s.Phone = normalizeNullable(s.Phone)
	return fields.Err()
}

func normalizeWarehouse(w *domain.Warehouse) error {
	w.Code = strings.TrimSpace(w.Code)
	w.Name = strings.TrimSpace(w.Name)
	var fields domain.RequiredFields
	fields.Check(w.Code != "", "warehouseCode")
	fields.Check(w.Name != "", "name")
	fields.Check(validStatus(&w.Status), "status")
	w.Address = normalizeNullable(w.Address)
	return fields.Err()
}

func normalizeProduct(p *domain.Product) error {
	p.Code = strings.TrimSpace(p.Code)
	p.Name = strings.TrimSpace(p.Name)
	p.Unit = strings.TrimSpace(p.Unit)
	if p.Unit == "" {
		p.Unit = "PCS"
	}
	var fields domain.RequiredFields
	fields.Check(p.Code != "", "productCode")
	fields.Check(p.Name != "", "name")
	fields.Check(validStatus(&p.Status), "status")
	p.Spec = normalizeNullable(p.Spec)
	return fields.Err()
}

func validateBOM(lines []domain.BOMLine) error {
	var fields domain.RequiredFields
	seen := make(map[int64]bool, len(lines))
	for i, line := range lines {
		fields.Check(line.MaterialID > 0 && !seen[line.MaterialID], fmt.Sprintf("bom[%d].materialId", i))
		fields.Check(line.Quantity.IsPositive(), fmt.Sprintf("bom[%d].quantity", i))
		seen[line.MaterialID] = true
	}
	return fields.Err()
}

func checkBOMMaterials(ctx context.Context, q repository.Querier, lines []domain.BOMLine) error {
	for i, line := range lines {
		if _, err := q.GetMaterial(ctx, line.MaterialID); err != nil {
			return requireRef(err, fmt.Sprintf("bom[%d].materialId", i))
		}
	}
	return nil
}

// validStatus defaults an empty status to active and rejects unknown values.
func validStatus(status *string) bool {
	*status = strings.ToLower(strings.TrimSpace(*status))
	if *status == "" {
		*status = domain.StatusActive
	}
	return *status == domain.StatusActive || *status == domain.StatusInactive
}
