package excel

import (
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"time"

	"supplychain/internal/domain"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

var headerAliases = map[string]string{
	"po no":           "po_no",
	"po number":       "po_no",
	"purchase order":  "po_no",
	"采购单号":            "po_no",
	"material code":   "material_code",
	"material":        "material_code",
	"物料编码":            "material_code",
	"supplier code":   "supplier_code",
	"supplier":        "supplier_code",
	"供应商编码":           "supplier_code",
	"quantity":        "quantity",
	"qty":             "quantity",
	"数量":              "quantity",
	"采购数量":            "quantity",
	"unit price":      "unit_price",
	"price":           "unit_price",
	"单价":              "unit_price",
	"order date":      "order_date",
	"下单日期":            "order_date",
	"expected date":   "expected_date",
	"expected":        "expected_date",
	"delivery date":   "expected_date",
	"预计到货日期":          "expected_date",
	"status":          "status",
	"状态":              "status",
	"remark":          "remark",
	"remarks":         "remark",
	"note":            "remark",
	"备注":              "remark",
}

var requiredColumns = []string{"material_code", "supplier_code", "quantity", "order_date", "expected_date"}

var dateLayouts = []string{"2006-01-02", "2006/01/02", "2006/1/2", "2006.01.02", "01-02-06", "1/2/06", "1/2/2006"}

// ParsePurchaseRows reads the first sheet of an import workbook. Blank rows
// are skipped; Row carries the 1-based sheet row for error reporting. A bad
// cell marks only its own row through ParseError. Errors returned here concern
// the workbook as a whole.
func ParsePurchaseRows(reader io.Reader) ([]domain.PurchaseImportRow, error) {
	file, err := excelize.OpenReader(reader)
	if err != nil {
		return nil, fmt.Errorf("open excel file: %w", err)
	}
	defer file.Close()

	sheets := file.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("excel file has no sheets")
	}

	rows, err := file.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read sheet rows: %w", err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("excel file is empty")
	}

	colMap := mapColumns(rows[0])
	for _, col := range requiredColumns {
		if _, ok := colMap[col]; !ok {
			return nil, fmt.Errorf("missing required column: %s", col)
		}
	}

	result := make([]domain.PurchaseImportRow, 0, len(rows)-1)
	for index := 1; index < len(rows); index++ {
		cells := rows[index]
		rowNo := index + 1
		materialCode := strings.TrimSpace(readCell(cells, colMap["material_code"]))
		supplierCode := strings.TrimSpace(readCell(cells, colMap["supplier_code"]))
		if materialCode == "" && supplierCode == "" {
			continue
		}

		var problems []string
		qty, err := parseInt(readCell(cells, colMap["quantity"]))
		if err != nil {
			problems = append(problems, "invalid quantity: "+err.Error())
		}
		orderDate, err := parseDate(readCell(cells, colMap["order_date"]))
		if err != nil {
			problems = append(problems, "invalid order_date: "+err.Error())
		}
		expectedDate, err := parseDate(readCell(cells, colMap["expected_date"]))
		if err != nil {
			problems = append(problems, "invalid expected_date: "+err.Error())
		}

		row := domain.PurchaseImportRow{
			Row:          rowNo,
			PONo:         optionalCell(cells, colMap, "po_no"),
			MaterialCode: materialCode,
			SupplierCode: supplierCode,
			Quantity:     qty,
			OrderDate:    orderDate,
			ExpectedDate: expectedDate,
			Status:       strings.ToLower(optionalCell(cells, colMap, "status")),
		}
		if raw := optionalCell(cells, colMap, "unit_price"); raw != "" {
			price, err := parseDecimal(raw)
			if err != nil {
				problems = append(problems, "invalid unit_price: "+err.Error())
			} else {
				row.UnitPrice = &price
			}
		}
		row.ParseError = strings.Join(problems, "; ")
		if remark := optionalCell(cells, colMap, "remark"); remark != "" {
			row.Remark = &remark
		}
		result = append(result, row)
	}

	if len(result) == 0 {
		return nil, fmt.Errorf("excel file has no valid data rows")
	}
	return result, nil
}

func mapColumns(header []string) map[string]int {
	mapped := make(map[string]int)
	for idx, col := range header {
		normalized := normalizeHeader(col)
		if normalized == "" {
			continue
		}
		canonical, ok := headerAliases[normalized]
		if !ok {
			continue
		}
		if _, exists := mapped[canonical]; !exists {
			mapped[canonical] = idx
		}
	}
	return mapped
}

func normalizeHeader(raw string) string {
	value := strings.TrimSpace(raw)
	value = strings.TrimPrefix(value, "\ufeff")
	value = strings.ToLower(value)
	value = strings.ReplaceAll(value, "_", " ")
	value = strings.Join(strings.Fields(value), " ")
	return value
}

func readCell(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return row[idx]
}

func optionalCell(row []string, colMap map[string]int, column string) string {
	idx, ok := colMap[column]
	if !ok {
		return ""
	}
	return strings.TrimSpace(readCell(row, idx))
}

func parseInt(raw string) (int, error) {
	value := strings.TrimSpace(raw)
	if value == "" {
		return 0, fmt.Errorf("value is empty")
	}

	asFloat, err := strconv.ParseFloat(strings.ReplaceAll(value, ",", ""), 64)
	if err != nil {
		return 0, fmt.Errorf("not a number")
	}
	if math.Mod(asFloat, 1) != 0 {
		return 0, fmt.Errorf("must be an integer")
	}
	if math.Abs(asFloat) > domain.MaxQuantity {
		return 0, fmt.Errorf("out of range")
	}
	return int(asFloat), nil
}

func parseDecimal(raw string) (decimal.Decimal, error) {
	value, err := decimal.NewFromString(strings.ReplaceAll(strings.TrimSpace(raw), ",", ""))
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("not a number")
	}
	return value, nil
}

// parseDate accepts ISO and common sheet renderings, plus raw Excel serials.
func parseDate(raw string) (domain.Date, error) {
	value := strings.TrimSpace(raw)
	if value == "" {
		return domain.Date{}, fmt.Errorf("value is empty")
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return domain.NewDate(t), nil
		}
	}
	if serial, err := strconv.ParseFloat(value, 64); err == nil && serial > 0 {
		t, err := excelize.ExcelDateToTime(serial, false)
		if err == nil {
			return domain.NewDate(t), nil
		}
	}
	return domain.Date{}, fmt.Errorf("unrecognized date %q", value)
}
