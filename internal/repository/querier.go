package repository

import (
	"context"

	"supplychain/internal/domain"
)

type PurchaseOrderFilter struct {
	Keyword    string
	Status     domain.POStatus
	SupplierID int64
	MaterialID int64
	StartDate  *domain.Date
	EndDate    *domain.Date
	Page       int
	PageSize   int
}

type SalesOrderFilter struct {
	Keyword     string
	Status      domain.SOStatus
	SalesPerson string
	StartDate   *domain.Date
	EndDate     *domain.Date
	Page        int
	PageSize    int
}

type InventoryFilter struct {
	ItemType    domain.ItemType
	WarehouseID int64
	ItemID      int64
	Page        int
	PageSize    int
}

type ReferenceFilter struct {
	Keyword  string
	Status   string
	Page     int
	PageSize int
}

// WarningScope restricts the feed to the warnings a role may see.
type WarningScope string

const (
	WarningScopeAll      WarningScope = "all"
	WarningScopeMaterial WarningScope = "material"
	WarningScopeOrder    WarningScope = "order"
)

type WarningFilter struct {
	Scope    WarningScope
	Level    string
	Page     int
	PageSize int
}

// ReferenceKind names a reference table that supports deactivation.
type ReferenceKind string

const (
	RefMaterial  ReferenceKind = "materials"
	RefSupplier  ReferenceKind = "suppliers"
	RefWarehouse ReferenceKind = "warehouses"
	RefProduct   ReferenceKind = "products"
)

// Querier is every statement the services issue. It is implemented by Queries
// for both the pool and an open transaction.
type Querier interface {
	MaxOrderNumber(ctx context.Context, kind domain.OrderKind, prefix string) (string, error)

	InsertPurchaseOrder(ctx context.Context, po *domain.PurchaseOrder) error
	GetPurchaseOrder(ctx context.Context, id int64) (domain.PurchaseOrder, error)
	LockPurchaseOrder(ctx context.Context, id int64) (domain.PurchaseOrder, error)
	UpdatePurchaseOrder(ctx context.Context, po domain.PurchaseOrder) error
	DeletePurchaseOrder(ctx context.Context, id int64) error
	ListPurchaseOrders(ctx context.Context, filter PurchaseOrderFilter) (domain.Page[domain.PurchaseOrder], error)
	UpsertInTransit(ctx context.Context, rec domain.InTransitRecord) error
	DeleteInTransit(ctx context.Context, purchaseOrderID int64) error

	IncrementInventory(ctx context.Context, key domain.InventoryKey, qty int) (domain.InventoryRecord, error)
	LockInventory(ctx context.Context, id int64) (domain.InventoryRecord, error)
	GetInventory(ctx context.Context, id int64) (domain.InventoryRecord, error)
	ListInventory(ctx context.Context, filter InventoryFilter) (domain.Page[domain.InventoryRecord], error)
	InsertInventory(ctx context.Context, rec *domain.InventoryRecord) error
	UpdateInventory(ctx context.Context, rec domain.InventoryRecord) error
	DeleteInventory(ctx context.Context, id int64) error
	InsertMovement(ctx context.Context, m *domain.InventoryMovement) error
	ListMovements(ctx context.Context, inventoryID int64, page, pageSize int) (domain.Page[domain.InventoryMovement], error)

	InsertSalesOrder(ctx context.Context, so *domain.SalesOrder) error
	GetSalesOrder(ctx context.Context, id int64) (domain.SalesOrder, error)
	LockSalesOrder(ctx context.Context, id int64) (domain.SalesOrder, error)
	UpdateSalesOrder(ctx context.Context, so domain.SalesOrder) error
	DeleteSalesOrder(ctx context.Context, id int64) error
	ListSalesOrders(ctx context.Context, filter SalesOrderFilter) (domain.Page[domain.SalesOrder], error)
	ListOrderLines(ctx context.Context, orderID int64) ([]domain.OrderLine, error)
	DeleteOrderLines(ctx context.Context, orderID int64) error
	InsertOrderLines(ctx context.Context, orderID int64, lines []domain.OrderLine) error
	ListSalesPersons(ctx context.Context) ([]string, error)

	ListMaterials(ctx context.Context, filter ReferenceFilter) (domain.Page[domain.Material], error)
	GetMaterial(ctx context.Context, id int64) (domain.Material, error)
	GetMaterialByCode(ctx context.Context, code string) (domain.Material, error)
	InsertMaterial(ctx context.Context, m *domain.Material) error
	UpdateMaterial(ctx context.Context, m domain.Material) error
	ListBuyers(ctx context.Context) ([]string, error)

	ListSuppliers(ctx context.Context, filter ReferenceFilter) (domain.Page[domain.Supplier], error)
	GetSupplier(ctx context.Context, id int64) (domain.Supplier, error)
	GetSupplierByCode(ctx context.Context, code string) (domain.Supplier, error)
	InsertSupplier(ctx context.Context, s *domain.Supplier) error
	UpdateSupplier(ctx context.Context, s domain.Supplier) error

	ListWarehouses(ctx context.Context, filter ReferenceFilter) (domain.Page[domain.Warehouse], error)
	GetWarehouse(ctx context.Context, id int64) (domain.Warehouse, error)
	GetWarehouseByCode(ctx context.Context, code string) (domain.Warehouse, error)
	InsertWarehouse(ctx context.Context, w *domain.Warehouse) error
	UpdateWarehouse(ctx context.Context, w domain.Warehouse) error

	ListProducts(ctx context.Context, filter ReferenceFilter) (domain.Page[domain.Product], error)
	GetProduct(ctx context.Context, id int64) (domain.Product, error)
	InsertProduct(ctx context.Context, p *domain.Product) error
	UpdateProduct(ctx context.Context, p domain.Product) error
	ListBOM(ctx context.Context, productID int64) ([]domain.BOMLine, error)
	ReplaceBOM(ctx context.Context, productID int64, lines []domain.BOMLine) error

	ListCustomers(ctx context.Context, filter ReferenceFilter) (domain.Page[domain.Customer], error)
	GetCustomer(ctx context.Context, id int64) (domain.Customer, error)
	InsertCustomer(ctx context.Context, c *domain.Customer) error

	// CountDependents returns how many rows keep a reference row alive.
	CountDependents(ctx context.Context, kind ReferenceKind, id int64) (int, error)
	SetReferenceStatus(ctx context.Context, kind ReferenceKind, id int64, status string) error
	DeleteReference(ctx context.Context, kind ReferenceKind, id int64) error

	ListWarnings(ctx context.Context, filter WarningFilter) (domain.Page[domain.Warning], error)
}

var _ Querier = (*Queries)(nil)
