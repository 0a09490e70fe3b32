package domain

import (
	"strings"

	"github.com/shopspring/decimal"
)

type PurchaseOrderInput struct {
	PONo         string
	MaterialID   int64
	SupplierID   int64
	Quantity     int
	UnitPrice    *decimal.Decimal
	OrderDate    Date
	ExpectedDate Date
	Remark       *string
}

func (in PurchaseOrderInput) Validate() error {
	var fields RequiredFields
	fields.Check(in.MaterialID > 0, "materialId")
	fields.Check(in.SupplierID > 0, "supplierId")
	fields.Check(ValidQuantity(in.Quantity), "quantity")
	fields.Check(!in.OrderDate.IsZero(), "orderDate")
	fields.Check(!in.ExpectedDate.IsZero(), "expectedDate")
	fields.Check(in.UnitPrice == nil || ValidPrice(*in.UnitPrice), "unitPrice")
	fields.Check(in.PONo == "" || IsOrderNumber(in.PONo), "poNo")
	return fields.Err()
}

// PurchaseOrderPatch carries a partial update. Status is handled by the state
// machine, the rest is applied field by field.
type PurchaseOrderPatch struct {
	PONo         Field[string]
	MaterialID   Field[int64]
	SupplierID   Field[int64]
	Quantity     Field[int]
	UnitPrice    Field[decimal.Decimal]
	OrderDate    Field[Date]
	ExpectedDate Field[Date]
	ActualDate   Field[Date]
	Status       Field[string]
	Remark       Field[string]
}

// ApplyTo mutates po with every non-status field and recomputes the total.
func (p PurchaseOrderPatch) ApplyTo(po *PurchaseOrder) error {
	var fields RequiredFields
	if p.PONo.HasValue() {
		p.PONo.Value = strings.TrimSpace(p.PONo.Value)
	}
	fields.Check(p.PONo.Apply(&po.PONo) && IsOrderNumber(po.PONo), "poNo")
	fields.Check(p.MaterialID.Apply(&po.MaterialID) && po.MaterialID > 0, "materialId")
	fields.Check(p.SupplierID.Apply(&po.SupplierID) && po.SupplierID > 0, "supplierId")
	fields.Check(p.Quantity.Apply(&po.Quantity) && ValidQuantity(po.Quantity), "quantity")
	fields.Check(p.OrderDate.Apply(&po.OrderDate) && !po.OrderDate.IsZero(), "orderDate")
	fields.Check(p.ExpectedDate.Apply(&po.ExpectedDate) && !po.ExpectedDate.IsZero(), "expectedDate")
	fields.Check(!p.UnitPrice.HasValue() || ValidPrice(p.UnitPrice.Value), "unitPrice")
	fields.Check(!p.Status.Set || !p.Status.Null, "status")
	if err := fields.Err(); err != nil {
		return err
	}
	p.UnitPrice.ApplyNullable(&po.UnitPrice)
	p.ActualDate.ApplyNullable(&po.ActualDate)
	p.Remark.ApplyNullable(&po.Remark)
	po.TotalAmount = PurchaseTotal(po.Quantity, po.UnitPrice)
	return nil
}

// PurchaseImportRow is one spreadsheet row resolved by codes rather than ids.
type PurchaseImportRow struct {
	Row          int
	PONo         string
	MaterialCode string
	SupplierCode string
	Quantity     int
	UnitPrice    *decimal.Decimal
	OrderDate    Date
	ExpectedDate Date
	Status       string
	Remark       *string
	// ParseError is set when a cell could not be read. Such rows are
	// reported as failed without touching the database.
	ParseError string
}

type PurchaseImportResult struct {
	Row    int      `json:"row"`
	PONo   string   `json:"poNo,omitempty"`
	ID     int64    `json:"id,omitempty"`
	Status POStatus `json:"status,omitempty"`
	Error  string   `json:"error,omitempty"`
}
