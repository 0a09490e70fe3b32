// Package testutil provides an in-memory repository.Store for service and
// handler tests.
package testutil

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"supplychain/internal/domain"
	"supplychain/internal/repository"
)

type memState struct {
	seq            int64
	materials      map[int64]domain.Material
	suppliers      map[int64]domain.Supplier
	warehouses     map[int64]domain.Warehouse
	products       map[int64]domain.Product
	bom            map[int64][]domain.BOMLine
	customers      map[int64]domain.Customer
	inventory      map[int64]domain.InventoryRecord
	movements      []domain.InventoryMovement
	purchaseOrders map[int64]domain.PurchaseOrder
	inTransit      map[int64]domain.InTransitRecord
	salesOrders    map[int64]domain.SalesOrder
	orderLines     map[int64][]domain.OrderLine
	warnings       []domain.Warning
}

func newMemState() *memState {
	return &memState{
		materials:      map[int64]domain.Material{},
		suppliers:      map[int64]domain.Supplier{},
		warehouses:     map[int64]domain.Warehouse{},
		products:       map[int64]domain.Product{},
		bom:            map[int64][]domain.BOMLine{},
		customers:      map[int64]domain.Customer{},
		inventory:      map[int64]domain.InventoryRecord{},
		purchaseOrders: map[int64]domain.PurchaseOrder{},
		inTransit:      map[int64]domain.InTransitRecord{},
		salesOrders:    map[int64]domain.SalesOrder{},
		orderLines:     map[int64][]domain.OrderLine{},
	}
}

func (s *memState) clone() *memState {
	c := &memState{
		seq:            s.seq,
		materials:      cloneMap(s.materials),
		suppliers:      cloneMap(s.suppliers),
		warehouses:     cloneMap(s.warehouses),
		products:       cloneMap(s.products),
		bom:            map[int64][]domain.BOMLine{},
		customers:      cloneMap(s.customers),
		inventory:      cloneMap(s.inventory),
		movements:      append([]domain.InventoryMovement(nil), s.movements...),
		purchaseOrders: cloneMap(s.purchaseOrders),
		inTransit:      cloneMap(s.inTransit),
		salesOrders:    cloneMap(s.salesOrders),
		orderLines:     map[int64][]domain.OrderLine{},
		warnings:       append([]domain.Warning(nil), s.warnings...),
	}
	for k, v := range s.bom {
		c.bom[k] = append([]domain.BOMLine(nil), v...)
	}
	for k, v := range s.orderLines {
		c.orderLines[k] = append([]domain.OrderLine(nil), v...)
	}
	return c
}

func cloneMap[K comparable, V any](src map[K]V) map[K]V {
	dst := make(map[K]V, len(src))
	for k, v := range src {
		dst[k] = v
	}
	return dst
}

// MemStore keeps every table in maps. WithTx snapshots the state and restores
// it when fn fails, so rollback behaves like the database.
type MemStore struct {
	txMu  sync.Mutex
	mu    sync.Mutex
	state *memState
	fail  map[string]error
	now   func() time.Time
}

var _ repository.Store = (*MemStore)(nil)

func NewMemStore() *MemStore {
	return &MemStore{
		state: newMemState(),
		fail:  map[string]error{},
		now:   time.Now,
	}
}

func (m *MemStore) WithTx(ctx context.Context, fn func(q repository.Querier) error) error {
	m.txMu.Lock()
	defer m.txMu.Unlock()

	m.mu.Lock()
	snapshot := m.state.clone()
	m.mu.Unlock()

	if err := fn(m); err != nil {
		m.mu.Lock()
		m.state = snapshot
		m.mu.Unlock()
		return err
	}
	return nil
}

// FailOn makes the named Querier method return err until cleared with a nil err.
func (m *MemStore) FailOn(method string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err == nil {
		delete(m.fail, method)
		return
	}
	m.fail[method] = err
}

func (m *MemStore) injected(method string) error {
	if err, ok := m.fail[method]; ok {
		return fmt.Errorf("%s: %w", method, err)
	}
	return nil
}

func (m *MemStore) nextID() int64 {
	m.state.seq++
	return m.state.seq
}

// InTransit returns the in-transit row owned by a purchase order.
func (m *MemStore) InTransit(purchaseOrderID int64) (domain.InTransitRecord, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.state.inTransit[purchaseOrderID]
	return rec, ok
}

// InventoryAt returns the ledger row for key.
func (m *MemStore) InventoryAt(key domain.InventoryKey) (domain.InventoryRecord, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, rec := range m.state.inventory {
		if rec.Key() == key {
			return rec, true
		}
	}
	return domain.InventoryRecord{}, false
}

func (m *MemStore) Movements() []domain.InventoryMovement {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]domain.InventoryMovement(nil), m.state.movements...)
}

func (m *MemStore) PurchaseOrderCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.state.purchaseOrders)
}

func (m *MemStore) OrderLines(orderID int64) []domain.OrderLine {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]domain.OrderLine(nil), m.state.orderLines[orderID]...)
}

// AddWarning seeds an unresolved warning.
func (m *MemStore) AddWarning(w domain.Warning) domain.Warning {
	m.mu.Lock()
	defer m.mu.Unlock()
	w.ID = m.nextID()
	if w.CreatedAt.IsZero() {
		w.CreatedAt = m.now()
	}
	m.state.warnings = append(m.state.warnings, w)
	return w
}

func (m *MemStore) MaxOrderNumber(ctx context.Context, kind domain.OrderKind, prefix string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var numbers []string
	switch kind {
	case domain.OrderKindPurchase:
		for _, po := range m.state.purchaseOrders {
			numbers = append(numbers, po.PONo)
		}
	case domain.OrderKindSales:
		for _, so := range m.state.salesOrders {
			numbers = append(numbers, so.OrderNo)
		}
	default:
		return "", fmt.Errorf("unknown order kind %q", kind)
	}
	max := ""
	for _, n := range numbers {
		if !strings.HasPrefix(n, prefix) || len(n) != len(prefix)+4 || !allDigits(n[len(prefix):]) {
			continue
		}
		if n > max {
			max = n
		}
	}
	return max, nil
}

func allDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return s != ""
}

func (m *MemStore) InsertPurchaseOrder(ctx context.Context, po *domain.PurchaseOrder) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.injected("InsertPurchaseOrder"); err != nil {
		return err
	}
	if err := m.checkPONo(po.PONo, 0); err != nil {
		return err
	}
	po.ID = m.nextID()
	po.CreatedAt = m.now()
	m.state.purchaseOrders[po.ID] = stripPurchaseJoins(*po)
	return nil
}

func (m *MemStore) checkPONo(poNo string, selfID int64) error {
	for id, existing := range m.state.purchaseOrders {
		if id != selfID && existing.PONo == poNo {
			return fmt.Errorf("insert purchase order: %w: uq_purchase_orders_po_no", domain.ErrDuplicateOrderNumber)
		}
	}
	return nil
}

func stripPurchaseJoins(po domain.PurchaseOrder) domain.PurchaseOrder {
	po.MaterialCode, po.MaterialName, po.Unit, po.SupplierCode, po.SupplierName = "", "", "", "", ""
	return po
}

func (m *MemStore) GetPurchaseOrder(ctx context.Context, id int64) (domain.PurchaseOrder, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	po, ok := m.state.purchaseOrders[id]
	if !ok {
		return domain.PurchaseOrder{}, fmt.Errorf("purchase order %d: %w", id, domain.ErrNotFound)
	}
	return m.joinPurchaseOrder(po), nil
}

func (m *MemStore) joinPurchaseOrder(po domain.PurchaseOrder) domain.PurchaseOrder {
	if mat, ok := m.state.materials[po.MaterialID]; ok {
		po.MaterialCode, po.MaterialName, po.Unit = mat.Code, mat.Name, mat.Unit
	}
	if sup, ok := m.state.suppliers[po.SupplierID]; ok {
		po.SupplierCode, po.SupplierName = sup.Code, sup.Name
	}
	return po
}

func (m *MemStore) LockPurchaseOrder(ctx context.Context, id int64) (domain.PurchaseOrder, error) {
	return m.GetPurchaseOrder(ctx, id)
}

func (m *MemStore) UpdatePurchaseOrder(ctx context.Context, po domain.PurchaseOrder) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.injected("UpdatePurchaseOrder"); err != nil {
		return err
	}
	if _, ok := m.state.purchaseOrders[po.ID]; !ok {
		return fmt.Errorf("purchase order %d: %w", po.ID, domain.ErrNotFound)
	}
	if err := m.checkPONo(po.PONo, po.ID); err != nil {
		return err
	}
	m.state.purchaseOrders[po.ID] = stripPurchaseJoins(po)
	return nil
}

func (m *MemStore) DeletePurchaseOrder(ctx context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.state.purchaseOrders[id]; !ok {
		return fmt.Errorf("purchase order %d: %w", id, domain.ErrNotFound)
	}
	delete(m.state.purchaseOrders, id)
	delete(m.state.inTransit, id)
	return nil
}

func (m *MemStore) ListPurchaseOrders(ctx context.Context, filter repository.PurchaseOrderFilter) (domain.Page[domain.PurchaseOrder], error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	items := make([]domain.PurchaseOrder, 0)
	for _, po := range m.state.purchaseOrders {
		po = m.joinPurchaseOrder(po)
		if filter.Status != "" && po.Status != filter.Status {
			continue
		}
		if filter.SupplierID > 0 && po.SupplierID != filter.SupplierID {
			continue
		}
		if filter.MaterialID > 0 && po.MaterialID != filter.MaterialID {
			continue
		}
		if filter.StartDate != nil && po.OrderDate.Before(*filter.StartDate) {
			continue
		}
		if filter.EndDate != nil && filter.EndDate.Before(po.OrderDate) {
			continue
		}
		if !matchKeyword(filter.Keyword, po.PONo, po.MaterialCode, po.MaterialName, po.SupplierName) {
			continue
		}
		items = append(items, po)
	}
	sort.Slice(items, func(i, j int) bool {
		if !items[i].ExpectedDate.Equal(items[j].ExpectedDate.Time) {
			return items[i].ExpectedDate.Before(items[j].ExpectedDate)
		}
		return items[i].ID > items[j].ID
	})
	return paginate(items, filter.Page, filter.PageSize), nil
}

func (m *MemStore) UpsertInTransit(ctx context.Context, rec domain.InTransitRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.injected("UpsertInTransit"); err != nil {
		return err
	}
	m.state.inTransit[rec.PurchaseOrderID] = rec
	return nil
}

func (m *MemStore) DeleteInTransit(ctx context.Context, purchaseOrderID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.injected("DeleteInTransit"); err != nil {
		return err
	}
	delete(m.state.inTransit, purchaseOrderID)
	return nil
}

func (m *MemStore) IncrementInventory(ctx context.Context, key domain.InventoryKey, qty int) (domain.InventoryRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.injected("IncrementInventory"); err != nil {
		return domain.InventoryRecord{}, err
	}
	for id, rec := range m.state.inventory {
		if rec.Key() == key {
			if qty > domain.MaxQuantity-rec.Quantity {
				return domain.InventoryRecord{}, fmt.Errorf("increment inventory: %w: value out of range", domain.ErrInvalidQuantity)
			}
			rec.Quantity += qty
			rec.UpdatedAt = m.now()
			m.state.inventory[id] = rec
			return rec, nil
		}
	}
	rec := domain.InventoryRecord{
		ID:          m.nextID(),
		ItemType:    key.ItemType,
		ItemID:      key.ItemID,
		WarehouseID: key.WarehouseID,
		Quantity:    qty,
		UpdatedAt:   m.now(),
	}
	m.state.inventory[rec.ID] = rec
	return rec, nil
}

func (m *MemStore) LockInventory(ctx context.Context, id int64) (domain.InventoryRecord, error) {
	return m.GetInventory(ctx, id)
}

func (m *MemStore) GetInventory(ctx context.Context, id int64) (domain.InventoryRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.state.inventory[id]
	if !ok {
		return domain.InventoryRecord{}, fmt.Errorf("inventory %d: %w", id, domain.ErrNotFound)
	}
	return m.joinInventory(rec), nil
}

func (m *MemStore) joinInventory(rec domain.InventoryRecord) domain.InventoryRecord {
	switch rec.ItemType {
	case domain.ItemTypeMaterial:
		if mat, ok := m.state.materials[rec.ItemID]; ok {
			rec.ItemCode, rec.ItemName, rec.Unit = mat.Code, mat.Name, mat.Unit
		}
	case domain.ItemTypeProduct:
		if p, ok := m.state.products[rec.ItemID]; ok {
			rec.ItemCode, rec.ItemName, rec.Unit = p.Code, p.Name, p.Unit
		}
	}
	if w, ok := m.state.warehouses[rec.WarehouseID]; ok {
		rec.WarehouseCode, rec.WarehouseName = w.Code, w.Name
	}
	return rec
}

func (m *MemStore) ListInventory(ctx context.Context, filter repository.InventoryFilter) (domain.Page[domain.InventoryRecord], error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	items := make([]domain.InventoryRecord, 0)
	for _, rec := range m.state.inventory {
		if filter.ItemType != "" && rec.ItemType != filter.ItemType {
			continue
		}
		if filter.WarehouseID > 0 && rec.WarehouseID != filter.WarehouseID {
			continue
		}
		if filter.ItemID > 0 && rec.ItemID != filter.ItemID {
			continue
		}
		items = append(items, m.joinInventory(rec))
	}
	sort.Slice(items, func(i, j int) bool { return items[i].ID < items[j].ID })
	return paginate(items, filter.Page, filter.PageSize), nil
}

func (m *MemStore) InsertInventory(ctx context.Context, rec *domain.InventoryRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.state.inventory {
		if existing.Key() == rec.Key() {
			return fmt.Errorf("insert inventory: %w: uq_inventory_item_warehouse", domain.ErrConflict)
		}
	}
	rec.ID = m.nextID()
	rec.UpdatedAt = m.now()
	m.state.inventory[rec.ID] = *rec
	return nil
}

func (m *MemStore) UpdateInventory(ctx context.Context, rec domain.InventoryRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.injected("UpdateInventory"); err != nil {
		return err
	}
	current, ok := m.state.inventory[rec.ID]
	if !ok {
		return fmt.Errorf("inventory %d: %w", rec.ID, domain.ErrNotFound)
	}
	if rec.Quantity < 0 {
		return fmt.Errorf("update inventory %d: quantity violates check constraint", rec.ID)
	}
	current.Quantity = rec.Quantity
	current.SafetyStock = rec.SafetyStock
	current.UpdatedAt = m.now()
	m.state.inventory[rec.ID] = current
	return nil
}

func (m *MemStore) DeleteInventory(ctx context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.state.inventory[id]; !ok {
		return fmt.Errorf("inventory %d: %w", id, domain.ErrNotFound)
	}
	delete(m.state.inventory, id)
	kept := m.state.movements[:0]
	for _, mv := range m.state.movements {
		if mv.InventoryID != id {
			kept = append(kept, mv)
		}
	}
	m.state.movements = kept
	return nil
}

func (m *MemStore) InsertMovement(ctx context.Context, mv *domain.InventoryMovement) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.injected("InsertMovement"); err != nil {
		return err
	}
	mv.ID = m.nextID()
	mv.CreatedAt = m.now()
	m.state.movements = append(m.state.movements, *mv)
	return nil
}

func (m *MemStore) ListMovements(ctx context.Context, inventoryID int64, page, pageSize int) (domain.Page[domain.InventoryMovement], error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	items := make([]domain.InventoryMovement, 0)
	for i := len(m.state.movements) - 1; i >= 0; i-- {
		if m.state.movements[i].InventoryID == inventoryID {
			items = append(items, m.state.movements[i])
		}
	}
	return paginate(items, page, pageSize), nil
}

func (m *MemStore) InsertSalesOrder(ctx context.Context, so *domain.SalesOrder) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.injected("InsertSalesOrder"); err != nil {
		return err
	}
	if err := m.checkOrderNo(so.OrderNo, 0); err != nil {
		return err
	}
	so.ID = m.nextID()
	so.CreatedAt = m.now()
	stored := *so
	stored.Lines = nil
	m.state.salesOrders[so.ID] = stored
	return nil
}

func (m *MemStore) checkOrderNo(orderNo string, selfID int64) error {
	for id, existing := range m.state.salesOrders {
		if id != selfID && existing.OrderNo == orderNo {
			return fmt.Errorf("insert sales order: %w: uq_sales_orders_order_no", domain.ErrDuplicateOrderNumber)
		}
	}
	return nil
}

func (m *MemStore) GetSalesOrder(ctx context.Context, id int64) (domain.SalesOrder, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	so, ok := m.state.salesOrders[id]
	if !ok {
		return domain.SalesOrder{}, fmt.Errorf("sales order %d: %w", id, domain.ErrNotFound)
	}
	return m.joinSalesOrder(so), nil
}

func (m *MemStore) joinSalesOrder(so domain.SalesOrder) domain.SalesOrder {
	if c, ok := m.state.customers[so.CustomerID]; ok {
		so.CustomerCode, so.CustomerName = c.Code, c.Name
	}
	return so
}

func (m *MemStore) LockSalesOrder(ctx context.Context, id int64) (domain.SalesOrder, error) {
	return m.GetSalesOrder(ctx, id)
}

func (m *MemStore) UpdateSalesOrder(ctx context.Context, so domain.SalesOrder) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.injected("UpdateSalesOrder"); err != nil {
		return err
	}
	if _, ok := m.state.salesOrders[so.ID]; !ok {
		return fmt.Errorf("sales order %d: %w", so.ID, domain.ErrNotFound)
	}
	if err := m.checkOrderNo(so.OrderNo, so.ID); err != nil {
		return err
	}
	so.Lines = nil
	so.CustomerCode, so.CustomerName = "", ""
	m.state.salesOrders[so.ID] = so
	return nil
}

func (m *MemStore) DeleteSalesOrder(ctx context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.state.salesOrders[id]; !ok {
		return fmt.Errorf("sales order %d: %w", id, domain.ErrNotFound)
	}
	delete(m.state.salesOrders, id)
	delete(m.state.orderLines, id)
	return nil
}

func (m *MemStore) ListSalesOrders(ctx context.Context, filter repository.SalesOrderFilter) (domain.Page[domain.SalesOrder], error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	items := make([]domain.SalesOrder, 0)
	for _, so := range m.state.salesOrders {
		so = m.joinSalesOrder(so)
		if filter.Status != "" && so.Status != filter.Status {
			continue
		}
		if filter.SalesPerson != "" && (so.SalesPerson == nil || *so.SalesPerson != filter.SalesPerson) {
			continue
		}
		if filter.StartDate != nil && so.OrderDate.Before(*filter.StartDate) {
			continue
		}
		if filter.EndDate != nil && filter.EndDate.Before(so.OrderDate) {
			continue
		}
		if !matchKeyword(filter.Keyword, so.OrderNo, so.CustomerName, so.CustomerCode) {
			continue
		}
		lines := m.state.orderLines[so.ID]
		if len(lines) > 0 {
			names := make([]string, 0, len(lines))
			qty := 0
			for _, line := range lines {
				names = append(names, m.state.products[line.ProductID].Name)
				qty += line.Quantity
			}
			joined := strings.Join(names, ", ")
			so.ProductNames = &joined
			so.TotalQty = &qty
		}
		items = append(items, so)
	}
	sort.Slice(items, func(i, j int) bool { return items[i].ID > items[j].ID })
	return paginate(items, filter.Page, filter.PageSize), nil
}

func (m *MemStore) ListOrderLines(ctx context.Context, orderID int64) ([]domain.OrderLine, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	lines := make([]domain.OrderLine, 0, len(m.state.orderLines[orderID]))
	for _, line := range m.state.orderLines[orderID] {
		if p, ok := m.state.products[line.ProductID]; ok {
			line.ProductCode, line.ProductName = p.Code, p.Name
		}
		lines = append(lines, line)
	}
	return lines, nil
}

func (m *MemStore) DeleteOrderLines(ctx context.Context, orderID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.injected("DeleteOrderLines"); err != nil {
		return err
	}
	delete(m.state.orderLines, orderID)
	return nil
}

func (m *MemStore) InsertOrderLines(ctx context.Context, orderID int64, lines []domain.OrderLine) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.injected("InsertOrderLines"); err != nil {
		return err
	}
	for i := range lines {
		line := lines[i]
		line.ID = m.nextID()
		line.OrderID = orderID
		lines[i].ID, lines[i].OrderID = line.ID, orderID
		m.state.orderLines[orderID] = append(m.state.orderLines[orderID], line)
	}
	return nil
}

func (m *MemStore) ListSalesPersons(ctx context.Context) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	seen := map[string]bool{}
	names := make([]string, 0)
	for _, so := range m.state.salesOrders {
		if so.SalesPerson == nil || *so.SalesPerson == "" || seen[*so.SalesPerson] {
			continue
		}
		seen[*so.SalesPerson] = true
		names = append(names, *so.SalesPerson)
	}
	sort.Strings(names)
	return names, nil
}

func (m *MemStore) ListMaterials(ctx context.Context, filter repository.ReferenceFilter) (domain.Page[domain.Material], error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	items := make([]domain.Material, 0)
	for _, mat := range m.state.materials {
		if filter.Status != "" && mat.Status != filter.Status {
			continue
		}
		if !matchKeyword(filter.Keyword, mat.Code, mat.Name) {
			continue
		}
		items = append(items, m.joinMaterial(mat))
	}
	sort.Slice(items, func(i, j int) bool { return items[i].ID < items[j].ID })
	return paginate(items, filter.Page, filter.PageSize), nil
}

func (m *MemStore) joinMaterial(mat domain.Material) domain.Material {
	mat.OnHand, mat.InTransit = 0, 0
	for _, rec := range m.state.inventory {
		if rec.ItemType == domain.ItemTypeMaterial && rec.ItemID == mat.ID {
			mat.OnHand += rec.Quantity
		}
	}
	for _, rec := range m.state.inTransit {
		if rec.MaterialID == mat.ID {
			mat.InTransit += rec.Quantity
		}
	}
	return mat
}

func (m *MemStore) GetMaterial(ctx context.Context, id int64) (domain.Material, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	mat, ok := m.state.materials[id]
	if !ok {
		return domain.Material{}, fmt.Errorf("material %d: %w", id, domain.ErrNotFound)
	}
	return m.joinMaterial(mat), nil
}

func (m *MemStore) GetMaterialByCode(ctx context.Context, code string) (domain.Material, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, mat := range m.state.materials {
		if mat.Code == code {
			return m.joinMaterial(mat), nil
		}
	}
	return domain.Material{}, fmt.Errorf("material %s: %w", code, domain.ErrNotFound)
}

func (m *MemStore) InsertMaterial(ctx context.Context, mat *domain.Material) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.state.materials {
		if existing.Code == mat.Code {
			return fmt.Errorf("insert material: %w: materials_material_code_key", domain.ErrConflict)
		}
	}
	mat.ID = m.nextID()
	mat.CreatedAt = m.now()
	m.state.materials[mat.ID] = *mat
	return nil
}

func (m *MemStore) UpdateMaterial(ctx context.Context, mat domain.Material) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	current, ok := m.state.materials[mat.ID]
	if !ok {
		return fmt.Errorf("material %d: %w", mat.ID, domain.ErrNotFound)
	}
	for id, existing := range m.state.materials {
		if id != mat.ID && existing.Code == mat.Code {
			return fmt.Errorf("update material %d: %w: materials_material_code_key", mat.ID, domain.ErrConflict)
		}
	}
	mat.CreatedAt = current.CreatedAt
	m.state.materials[mat.ID] = mat
	return nil
}

func (m *MemStore) ListBuyers(ctx context.Context) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	seen := map[string]bool{}
	buyers := make([]string, 0)
	for _, mat := range m.state.materials {
		if mat.Buyer == nil || *mat.Buyer == "" || seen[*mat.Buyer] {
			continue
		}
		seen[*mat.Buyer] = true
		buyers = append(buyers, *mat.Buyer)
	}
	sort.Strings(buyers)
	return buyers, nil
}

func (m *MemStore) ListSuppliers(ctx context.Context, filter repository.ReferenceFilter) (domain.Page[domain.Supplier], error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	items := filterRefs(m.state.suppliers, filter, func(s domain.Supplier) (int64, string, []string) {
		return s.ID, s.Status, []string{s.Code, s.Name}
	})
	return paginate(items, filter.Page, filter.PageSize), nil
}

func (m *MemStore) GetSupplier(ctx context.Context, id int64) (domain.Supplier, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.state.suppliers[id]
	if !ok {
		return domain.Supplier{}, fmt.Errorf("supplier %d: %w", id, domain.ErrNotFound)
	}
	return s, nil
}

func (m *MemStore) GetSupplierByCode(ctx context.Context, code string) (domain.Supplier, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range m.state.suppliers {
		if s.Code == code {
			return s, nil
		}
	}
	return domain.Supplier{}, fmt.Errorf("supplier %s: %w", code, domain.ErrNotFound)
}

func (m *MemStore) InsertSupplier(ctx context.Context, s *domain.Supplier) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.state.suppliers {
		if existing.Code == s.Code {
			return fmt.Errorf("insert supplier: %w: suppliers_supplier_code_key", domain.ErrConflict)
		}
	}
	s.ID = m.nextID()
	s.CreatedAt = m.now()
	m.state.suppliers[s.ID] = *s
	return nil
}

func (m *MemStore) UpdateSupplier(ctx context.Context, s domain.Supplier) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	current, ok := m.state.suppliers[s.ID]
	if !ok {
		return fmt.Errorf("supplier %d: %w", s.ID, domain.ErrNotFound)
	}
	s.CreatedAt = current.CreatedAt
	m.state.suppliers[s.ID] = s
	return nil
}

func (m *MemStore) ListWarehouses(ctx context.Context, filter repository.ReferenceFilter) (domain.Page[domain.Warehouse], error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	items := filterRefs(m.state.warehouses, filter, func(w domain.Warehouse) (int64, string, []string) {
		return w.ID, w.Status, []string{w.Code, w.Name}
	})
	return paginate(items, filter.Page, filter.PageSize), nil
}

func (m *MemStore) GetWarehouse(ctx context.Context, id int64) (domain.Warehouse, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	w, ok := m.state.warehouses[id]
	if !ok {
		return domain.Warehouse{}, fmt.Errorf("warehouse %d: %w", id, domain.ErrNotFound)
	}
	return w, nil
}

func (m *MemStore) GetWarehouseByCode(ctx context.Context, code string) (domain.Warehouse, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, w := range m.state.warehouses {
		if w.Code == code {
			return w, nil
		}
	}
	return domain.Warehouse{}, fmt.Errorf("warehouse %s: %w", code, domain.ErrNotFound)
}

func (m *MemStore) InsertWarehouse(ctx context.Context, w *domain.Warehouse) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.state.warehouses {
		if existing.Code == w.Code {
			return fmt.Errorf("insert warehouse: %w: warehouses_warehouse_code_key", domain.ErrConflict)
		}
	}
	w.ID = m.nextID()
	w.CreatedAt = m.now()
	m.state.warehouses[w.ID] = *w
	return nil
}

func (m *MemStore) UpdateWarehouse(ctx context.Context, w domain.Warehouse) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	current, ok := m.state.warehouses[w.ID]
	if !ok {
		return fmt.Errorf("warehouse %d: %w", w.ID, domain.ErrNotFound)
	}
	w.CreatedAt = current.CreatedAt
	m.state.warehouses[w.ID] = w
	return nil
}

func (m *MemStore) ListProducts(ctx context.Context, filter repository.ReferenceFilter) (domain.Page[domain.Product], error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	items := filterRefs(m.state.products, filter, func(p domain.Product) (int64, string, []string) {
		return p.ID, p.Status, []string{p.Code, p.Name}
	})
	return paginate(items, filter.Page, filter.PageSize), nil
}

func (m *MemStore) GetProduct(ctx context.Context, id int64) (domain.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.state.products[id]
	if !ok {
		return domain.Product{}, fmt.Errorf("product %d: %w", id, domain.ErrNotFound)
	}
	p.BOM = m.listBOM(id)
	return p, nil
}

func (m *MemStore) InsertProduct(ctx context.Context, p *domain.Product) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.state.products {
		if existing.Code == p.Code {
			return fmt.Errorf("insert product: %w: products_product_code_key", domain.ErrConflict)
		}
	}
	p.ID = m.nextID()
	p.CreatedAt = m.now()
	stored := *p
	stored.BOM = nil
	m.state.products[p.ID] = stored
	return nil
}

func (m *MemStore) UpdateProduct(ctx context.Context, p domain.Product) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	current, ok := m.state.products[p.ID]
	if !ok {
		return fmt.Errorf("product %d: %w", p.ID, domain.ErrNotFound)
	}
	p.CreatedAt = current.CreatedAt
	p.BOM = nil
	m.state.products[p.ID] = p
	return nil
}

func (m *MemStore) ListBOM(ctx context.Context, productID int64) ([]domain.BOMLine, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.listBOM(productID), nil
}

func (m *MemStore) listBOM(productID int64) []domain.BOMLine {
	lines := make([]domain.BOMLine, 0, len(m.state.bom[productID]))
	for _, line := range m.state.bom[productID] {
		if mat, ok := m.state.materials[line.MaterialID]; ok {
			line.MaterialCode, line.MaterialName = mat.Code, mat.Name
		}
		lines = append(lines, line)
	}
	sort.Slice(lines, func(i, j int) bool { return lines[i].MaterialCode < lines[j].MaterialCode })
	return lines
}

func (m *MemStore) ReplaceBOM(ctx context.Context, productID int64, lines []domain.BOMLine) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state.bom[productID] = append([]domain.BOMLine(nil), lines...)
	return nil
}

func (m *MemStore) ListCustomers(ctx context.Context, filter repository.ReferenceFilter) (domain.Page[domain.Customer], error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	items := filterRefs(m.state.customers, filter, func(c domain.Customer) (int64, string, []string) {
		return c.ID, c.Status, []string{c.Code, c.Name}
	})
	return paginate(items, filter.Page, filter.PageSize), nil
}

func (m *MemStore) GetCustomer(ctx context.Context, id int64) (domain.Customer, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.state.customers[id]
	if !ok {
		return domain.Customer{}, fmt.Errorf("customer %d: %w", id, domain.ErrNotFound)
	}
	return c, nil
}

func (m *MemStore) InsertCustomer(ctx context.Context, c *domain.Customer) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.state.customers {
		if existing.Code == c.Code {
			return fmt.Errorf("insert customer: %w: customers_customer_code_key", domain.ErrConflict)
		}
	}
	c.ID = m.nextID()
	c.CreatedAt = m.now()
	m.state.customers[c.ID] = *c
	return nil
}

func (m *MemStore) CountDependents(ctx context.Context, kind repository.ReferenceKind, id int64) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.countDependents(kind, id)
}

func (m *MemStore) countDependents(kind repository.ReferenceKind, id int64) (int, error) {
	count := 0
	switch kind {
	case repository.RefMaterial:
		for _, rec := range m.state.inventory {
			if rec.ItemType == domain.ItemTypeMaterial && rec.ItemID == id && rec.Quantity > 0 {
				count++
			}
		}
		for _, po := range m.state.purchaseOrders {
			if po.MaterialID == id {
				count++
			}
		}
		for _, lines := range m.state.bom {
			for _, line := range lines {
				if line.MaterialID == id {
					count++
				}
			}
		}
	case repository.RefSupplier:
		for _, po := range m.state.purchaseOrders {
			if po.SupplierID == id {
				count++
			}
		}
	case repository.RefWarehouse:
		for _, rec := range m.state.inventory {
			if rec.WarehouseID == id {
				count++
			}
		}
	case repository.RefProduct:
		for _, lines := range m.state.orderLines {
			for _, line := range lines {
				if line.ProductID == id {
					count++
				}
			}
		}
		for _, rec := range m.state.inventory {
			if rec.ItemType == domain.ItemTypeProduct && rec.ItemID == id && rec.Quantity > 0 {
				count++
			}
		}
	default:
		return 0, fmt.Errorf("unknown reference kind %q", kind)
	}
	return count, nil
}

func (m *MemStore) SetReferenceStatus(ctx context.Context, kind repository.ReferenceKind, id int64, status string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	found := false
	switch kind {
	case repository.RefMaterial:
		found = setStatus(m.state.materials, id, func(v *domain.Material) { v.Status = status })
	case repository.RefSupplier:
		found = setStatus(m.state.suppliers, id, func(v *domain.Supplier) { v.Status = status })
	case repository.RefWarehouse:
		found = setStatus(m.state.warehouses, id, func(v *domain.Warehouse) { v.Status = status })
	case repository.RefProduct:
		found = setStatus(m.state.products, id, func(v *domain.Product) { v.Status = status })
	default:
		return fmt.Errorf("unknown reference kind %q", kind)
	}
	if !found {
		return fmt.Errorf("%s %d: %w", kind, id, domain.ErrNotFound)
	}
	return nil
}

func (m *MemStore) DeleteReference(ctx context.Context, kind repository.ReferenceKind, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	count, err := m.countDependents(kind, id)
	if err != nil {
		return err
	}
	if count > 0 {
		return fmt.Errorf("delete %s %d: %w", kind, id, domain.ErrReferentialConflict)
	}
	found := false
	switch kind {
	case repository.RefMaterial:
		found = deleteKey(m.state.materials, id)
	case repository.RefSupplier:
		found = deleteKey(m.state.suppliers, id)
	case repository.RefWarehouse:
		found = deleteKey(m.state.warehouses, id)
	case repository.RefProduct:
		found = deleteKey(m.state.products, id)
		delete(m.state.bom, id)
	}
	if !found {
		return fmt.Errorf("%s %d: %w", kind, id, domain.ErrNotFound)
	}
	return nil
}

func (m *MemStore) ListWarnings(ctx context.Context, filter repository.WarningFilter) (domain.Page[domain.Warning], error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	items := make([]domain.Warning, 0)
	for _, w := range m.state.warnings {
		switch filter.Scope {
		case repository.WarningScopeMaterial:
			if w.MaterialID == nil {
				continue
			}
		case repository.WarningScopeOrder:
			if w.OrderID == nil && w.ProductID == nil {
				continue
			}
		}
		if filter.Level != "" && w.Level != filter.Level {
			continue
		}
		items = append(items, w)
	}
	rank := map[string]int{"RED": 1, "ORANGE": 2, "YELLOW": 3, "BLUE": 4}
	sort.SliceStable(items, func(i, j int) bool {
		if rank[items[i].Level] != rank[items[j].Level] {
			return rank[items[i].Level] < rank[items[j].Level]
		}
		if !items[i].CreatedAt.Equal(items[j].CreatedAt) {
			return items[i].CreatedAt.After(items[j].CreatedAt)
		}
		return items[i].ID > items[j].ID
	})
	return paginate(items, filter.Page, filter.PageSize), nil
}

func setStatus[V any](table map[int64]V, id int64, set func(*V)) bool {
	v, ok := table[id]
	if !ok {
		return false
	}
	set(&v)
	table[id] = v
	return true
}

func deleteKey[V any](table map[int64]V, id int64) bool {
	if _, ok := table[id]; !ok {
		return false
	}
	delete(table, id)
	return true
}

func filterRefs[V any](table map[int64]V, filter repository.ReferenceFilter, fields func(V) (int64, string, []string)) []V {
	type entry struct {
		id    int64
		value V
	}
	entries := make([]entry, 0, len(table))
	for _, v := range table {
		id, status, text := fields(v)
		if filter.Status != "" && status != filter.Status {
			continue
		}
		if !matchKeyword(filter.Keyword, text...) {
			continue
		}
		entries = append(entries, entry{id: id, value: v})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].id < entries[j].id })
	items := make([]V, 0, len(entries))
	for _, e := range entries {
		items = append(items, e.value)
	}
	return items
}

func matchKeyword(keyword string, fields ...string) bool {
	keyword = strings.ToLower(strings.TrimSpace(keyword))
	if keyword == "" {
		return true
	}
	for _, f := range fields {
		if strings.Contains(strings.ToLower(f), keyword) {
			return true
		}
	}
	return false
}

func paginate[T any](items []T, page, pageSize int) domain.Page[T] {
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 20
	}
	if pageSize > 100 {
		pageSize = 100
	}
	total := len(items)
	start := (page - 1) * pageSize
	if start > total {
		start = total
	}
	end := start + pageSize
	if end > total {
		end = total
	}
	return domain.Page[T]{Items: append(make([]T, 0, end-start), items[start:end]...), Total: total}
}
