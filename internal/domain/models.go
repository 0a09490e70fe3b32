package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	StatusActive   = "active"
	StatusInactive = "inactive"
)

type Material struct {
	ID            int64           `json:"id"`
	Code          string          `json:"materialCode"`
	Name          string          `json:"name"`
	Spec          *string         `json:"spec,omitempty"`
	Unit          string          `json:"unit"`
	Price         decimal.Decimal `json:"price"`
	SafetyStock   int             `json:"safetyStock"`
	LeadTimeDays  int             `json:"leadTime"`
	Buyer         *string         `json:"buyer,omitempty"`
	Status        string          `json:"status"`
	OnHand        int             `json:"inventory"`
	InTransit     int             `json:"inTransit"`
	SupplierCount int             `json:"supplierCount"`
	CreatedAt     time.Time       `json:"createdAt"`
}

type Supplier struct {
	ID            int64           `json:"id"`
	Code          string          `json:"supplierCode"`
	Name          string          `json:"name"`
	ContactPerson *string         `json:"contactPerson,omitempty"`
	Phone         *string         `json:"phone,omitempty"`
	OnTimeRate    decimal.Decimal `json:"onTimeRate"`
	QualityRate   decimal.Decimal `json:"qualityRate"`
	Status        string          `json:"status"`
	CreatedAt     time.Time       `json:"createdAt"`
}

type Warehouse struct {
	ID        int64     `json:"id"`
	Code      string    `json:"warehouseCode"`
	Name      string    `json:"name"`
	Address   *string   `json:"address,omitempty"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"createdAt"`
}

type Customer struct {
	ID            int64     `json:"id"`
	Code          string    `json:"customerCode"`
	Name          string    `json:"name"`
	ContactPerson *string   `json:"contactPerson,omitempty"`
	Phone         *string   `json:"phone,omitempty"`
	Email         *string   `json:"email,omitempty"`
	Address       *string   `json:"address,omitempty"`
	Status        string    `json:"status"`
	CreatedAt     time.Time `json:"createdAt"`
}

type Product struct {
	ID        int64     `json:"id"`
	Code      string    `json:"productCode"`
	Name      string    `json:"name"`
	Spec      *string   `json:"spec,omitempty"`
	Unit      string    `json:"unit"`
	Status    string    `json:"status"`
	BOM       []BOMLine `json:"bom,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

type BOMLine struct {
	MaterialID   int64           `json:"materialId"`
	MaterialCode string          `json:"materialCode,omitempty"`
	MaterialName string          `json:"materialName,omitempty"`
	Quantity     decimal.Decimal `json:"quantity"`
}

// InventoryKey identifies one ledger row.
type InventoryKey struct {
	ItemType    ItemType
	ItemID      int64
	WarehouseID int64
}

type InventoryRecord struct {
	ID            int64     `json:"id"`
	ItemType      ItemType  `json:"type"`
	ItemID        int64     `json:"itemId"`
	WarehouseID   int64     `json:"warehouseId"`
	Quantity      int       `json:"quantity"`
	SafetyStock   int       `json:"safetyStock"`
	ItemCode      string    `json:"itemCode,omitempty"`
	ItemName      string    `json:"itemName,omitempty"`
	Unit          string    `json:"unit,omitempty"`
	WarehouseCode string    `json:"warehouseCode,omitempty"`
	WarehouseName string    `json:"warehouseName,omitempty"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

func (r InventoryRecord) Key() InventoryKey {
	return InventoryKey{ItemType: r.ItemType, ItemID: r.ItemID, WarehouseID: r.WarehouseID}
}

type InventoryMovement struct {
	ID            int64        `json:"id"`
	InventoryID   int64        `json:"inventoryId"`
	MovementType  MovementType `json:"movementType"`
	Delta         int          `json:"delta"`
	QuantityAfter int          `json:"quantityAfter"`
	ReferenceType *string      `json:"referenceType,omitempty"`
	ReferenceID   *int64       `json:"referenceId,omitempty"`
	Reason        *string      `json:"reason,omitempty"`
	CreatedBy     int64        `json:"createdBy"`
	CreatedAt     time.Time    `json:"createdAt"`
}

type InTransitRecord struct {
	PurchaseOrderID int64 `json:"purchaseOrderId"`
	MaterialID      int64 `json:"materialId"`
	Quantity        int   `json:"quantity"`
	ExpectedDate    Date  `json:"expectedDate"`
}

type PurchaseOrder struct {
	ID           int64            `json:"id"`
	PONo         string           `json:"poNo"`
	MaterialID   int64            `json:"materialId"`
	SupplierID   int64            `json:"supplierId"`
	Quantity     int              `json:"quantity"`
	UnitPrice    *decimal.Decimal `json:"unitPrice"`
	TotalAmount  *decimal.Decimal `json:"totalAmount"`
	OrderDate    Date             `json:"orderDate"`
	ExpectedDate Date             `json:"expectedDate"`
	ActualDate   *Date            `json:"actualDate"`
	Status       POStatus         `json:"status"`
	Remark       *string          `json:"remark"`
	CreatedBy    int64            `json:"createdBy"`
	CreatedAt    time.Time        `json:"createdAt"`

	MaterialCode string `json:"materialCode,omitempty"`
	MaterialName string `json:"materialName,omitempty"`
	Unit         string `json:"unit,omitempty"`
	SupplierCode string `json:"supplierCode,omitempty"`
	SupplierName string `json:"supplierName,omitempty"`
}

// InTransit mirrors the order into its in-transit row.
func (po PurchaseOrder) InTransit() InTransitRecord {
	return InTransitRecord{
		PurchaseOrderID: po.ID,
		MaterialID:      po.MaterialID,
		Quantity:        po.Quantity,
		ExpectedDate:    po.ExpectedDate,
	}
}

type SalesOrder struct {
	ID            int64           `json:"id"`
	OrderNo       string          `json:"orderNo"`
	CustomerID    int64           `json:"customerId"`
	OrderDate     Date            `json:"orderDate"`
	DeliveryDate  Date            `json:"deliveryDate"`
	SalesPerson   *string         `json:"salesPerson"`
	Status        SOStatus        `json:"status"`
	DisplayStatus SOStatus        `json:"displayStatus"`
	TotalAmount   decimal.Decimal `json:"totalAmount"`
	Remark        *string         `json:"remark"`
	CreatedBy     int64           `json:"createdBy"`
	CreatedAt     time.Time       `json:"createdAt"`
	Lines         []OrderLine     `json:"lines,omitempty"`

	CustomerCode string  `json:"customerCode,omitempty"`
	CustomerName string  `json:"customerName,omitempty"`
	ProductNames *string `json:"productNames,omitempty"`
	TotalQty     *int    `json:"totalQty,omitempty"`
}

type OrderLine struct {
	ID          int64           `json:"id"`
	OrderID     int64           `json:"orderId"`
	ProductID   int64           `json:"productId"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unitPrice"`
	Amount      decimal.Decimal `json:"amount"`
	Remark      *string         `json:"remark,omitempty"`
	ProductCode string          `json:"productCode,omitempty"`
	ProductName string          `json:"productName,omitempty"`
}

type Warning struct {
	ID           int64     `json:"id"`
	Level        string    `json:"level"`
	MaterialID   *int64    `json:"materialId,omitempty"`
	MaterialCode *string   `json:"materialCode,omitempty"`
	MaterialName *string   `json:"materialName,omitempty"`
	Buyer        *string   `json:"buyer,omitempty"`
	ProductID    *int64    `json:"productId,omitempty"`
	ProductCode  *string   `json:"productCode,omitempty"`
	ProductName  *string   `json:"productName,omitempty"`
	OrderID      *int64    `json:"orderId,omitempty"`
	OrderNo      *string   `json:"orderNo,omitempty"`
	WarningType  string    `json:"warningType"`
	Message      string    `json:"message"`
	CreatedAt    time.Time `json:"createdAt"`
}

// Page carries a list page plus the total row count.
type Page[T any] struct {
	Items []T
	Total int
}
