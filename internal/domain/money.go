package domain

import (
	"math"

	"github.com/shopspring/decimal"
)

func init() {
	decimal.MarshalJSONWithoutQuotes = true
}

// PriceScale is the number of fractional digits the NUMERIC(14,4) money
// columns keep.
const PriceScale = 4

// MaxQuantity is the largest value an INTEGER quantity column holds.
const MaxQuantity = math.MaxInt32

// ValidPrice reports whether price is non-negative and stores without
// rounding, so a stored total always equals the sum of its stored lines.
func ValidPrice(price decimal.Decimal) bool {
	return !price.IsNegative() && price.Equal(price.Round(PriceScale))
}

// ValidQuantity reports whether qty is positive and fits an INTEGER column.
func ValidQuantity(qty int) bool {
	return qty > 0 && qty <= MaxQuantity
}

// LineAmount is quantity × unit price.
func LineAmount(quantity int, unitPrice decimal.Decimal) decimal.Decimal {
	return unitPrice.Mul(decimal.NewFromInt(int64(quantity)))
}

// PurchaseTotal is nil when no unit price was recorded.
func PurchaseTotal(quantity int, unitPrice *decimal.Decimal) *decimal.Decimal {
	if unitPrice == nil {
		return nil
	}
	total := LineAmount(quantity, *unitPrice)
	return &total
}
