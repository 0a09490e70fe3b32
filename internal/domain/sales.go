package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type SOStatus string

const (
	SOStatusPending    SOStatus = "pending"
	SOStatusConfirmed  SOStatus = "confirmed"
	SOStatusProcessing SOStatus = "processing"
	SOStatusCompleted  SOStatus = "completed"
	SOStatusCancelled  SOStatus = "cancelled"

	// Display-only values. Neither is ever stored.
	SOStatusShipped SOStatus = "shipped"
	SOStatusOverdue SOStatus = "overdue"
)

var soStored = map[SOStatus]bool{
	SOStatusPending:    true,
	SOStatusConfirmed:  true,
	SOStatusProcessing: true,
	SOStatusCompleted:  true,
	SOStatusCancelled:  true,
}

func ParseSOStatus(raw string) (SOStatus, error) {
	status := SOStatus(strings.ToLower(strings.TrimSpace(raw)))
	if !soStored[status] {
		return "", NewValidationError("invalid sales order status", raw)
	}
	return status, nil
}

func (s SOStatus) IsTerminal() bool {
	return s == SOStatusCompleted || s == SOStatusCancelled
}

// DisplayStatus overrides the stored status with overdue once the delivery date
// has passed, unless the order already shipped or completed.
func DisplayStatus(stored SOStatus, deliveryDate Date, now time.Time) SOStatus {
	if stored == SOStatusShipped || stored == SOStatusCompleted {
		return stored
	}
	if deliveryDate.IsZero() {
		return stored
	}
	if deliveryDate.Before(Today(now)) {
		return SOStatusOverdue
	}
	return stored
}

type SalesLineInput struct {
	ProductID int64
	Quantity  int
	UnitPrice decimal.Decimal
	Remark    *string
}

// BuildOrderLines validates the submitted lines and returns them with amounts
// and the order total.
func BuildOrderLines(inputs []SalesLineInput) ([]OrderLine, decimal.Decimal, error) {
	if len(inputs) == 0 {
		return nil, decimal.Zero, NewValidationError("order lines cannot be empty", "lines")
	}
	var fields RequiredFields
	lines := make([]OrderLine, 0, len(inputs))
	total := decimal.Zero
	for i, in := range inputs {
		fields.Check(in.ProductID > 0, fmt.Sprintf("lines[%d].productId", i))
		fields.Check(ValidQuantity(in.Quantity), fmt.Sprintf("lines[%d].quantity", i))
		fields.Check(ValidPrice(in.UnitPrice), fmt.Sprintf("lines[%d].unitPrice", i))
		amount := LineAmount(in.Quantity, in.UnitPrice)
		total = total.Add(amount)
		lines = append(lines, OrderLine{
			ProductID: in.ProductID,
			Quantity:  in.Quantity,
			UnitPrice: in.UnitPrice,
			Amount:    amount,
			Remark:    in.Remark,
		})
	}
	if err := fields.Err(); err != nil {
		return nil, decimal.Zero, err
	}
	return lines, total, nil
}

// SumLines recomputes an order total from stored lines.
func SumLines(lines []OrderLine) decimal.Decimal {
	total := decimal.Zero
	for _, line := range lines {
		total = total.Add(line.Amount)
	}
	return total
}

// SalesOrderInput is the full header and line set of a create or replace.
type SalesOrderInput struct {
	OrderNo      string
	CustomerID   int64
	OrderDate    Date
	DeliveryDate Date
	SalesPerson  *string
	Status       string
	Remark       *string
	Lines        []SalesLineInput
}

func (in SalesOrderInput) Validate() error {
	var fields RequiredFields
	fields.Check(in.CustomerID > 0, "customerId")
	fields.Check(!in.OrderDate.IsZero(), "orderDate")
	fields.Check(!in.DeliveryDate.IsZero(), "deliveryDate")
	fields.Check(in.OrderNo == "" || IsOrderNumber(in.OrderNo), "orderNo")
	if in.Status != "" {
		_, err := ParseSOStatus(in.Status)
		fields.Check(err == nil, "status")
	}
	return fields.Err()
}
