package http

import (
	"bytes"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"supplychain/internal/auth"
	"supplychain/internal/domain"
	"supplychain/internal/service"
	"supplychain/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

const testSecret = "router-test-secret"

var testNow = time.Date(2025, time.March, 9, 12, 0, 0, 0, time.UTC)

type testServer struct {
	router   http.Handler
	store    *testutil.MemStore
	fx       testutil.Fixtures
	verifier *auth.Verifier
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	store := testutil.NewMemStore()
	fx := testutil.Seed(t, store)
	svc := service.New(store, service.Options{
		DefaultWarehouseID: fx.Warehouse.ID,
		Now:                func() time.Time { return testNow },
	})
	verifier := auth.NewVerifier(testSecret)
	handler := NewHandler(svc, verifier, Options{RequestTimeout: 5 * time.Second})
	return &testServer{router: NewRouter(handler), store: store, fx: fx, verifier: verifier}
}

type response struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func (s *testServer) do(t *testing.T, as *domain.Principal, method, path string, body any) (int, response) {
	t.Helper()
	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(b))
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if as != nil {
		token, err := s.verifier.Issue(*as, time.Hour)
		require.NoError(t, err)
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)

	var resp response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp), rec.Body.String())
	return rec.Code, resp
}

func decodeData[T any](t *testing.T, resp response) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(resp.Data, &out), string(resp.Data))
	return out
}

func (s *testServer) createPO(t *testing.T, qty int) int64 {
	t.Helper()
	status, resp := s.do(t, &testutil.Purchaser, http.MethodPost, "/api/v1/purchase-orders", map[string]any{
		"materialId":   s.fx.Material.ID,
		"supplierId":   s.fx.Supplier.ID,
		"quantity":     qty,
		"unitPrice":    "5",
		"orderDate":    "2025-03-09",
		"expectedDate": "2025-03-23",
	})
	require.Equal(t, http.StatusCreated, status, resp.Message)
	created := decodeData[struct {
		ID   int64  `json:"id"`
		PONo string `json:"poNo"`
	}](t, resp)
	require.NotZero(t, created.ID)
	return created.ID
}

func TestHealthDoesNotRequireAuth(t *testing.T) {
	s := newTestServer(t)

	status, resp := s.do(t, nil, http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusOK, status)
	assert.True(t, resp.Success)
}

func TestAuthentication(t *testing.T) {
	s := newTestServer(t)

	status, resp := s.do(t, nil, http.MethodGet, "/api/v1/warnings", nil)
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.False(t, resp.Success)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/warnings", nil)
	req.Header.Set("Authorization", "Bearer not-a-token")
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}

func TestRoleGroups(t *testing.T) {
	s := newTestServer(t)

	tests := []struct {
		name   string
		as     domain.Principal
		method string
		path   string
		want   int
	}{
		{"sales cannot list purchase orders", testutil.Sales, http.MethodGet, "/api/v1/purchase-orders", http.StatusForbidden},
		{"purchaser lists purchase orders", testutil.Purchaser, http.MethodGet, "/api/v1/purchase-orders", http.StatusOK},
		{"purchaser cannot list sales orders", testutil.Purchaser, http.MethodGet, "/api/v1/sales-orders", http.StatusForbidden},
		{"sales lists customers", testutil.Sales, http.MethodGet, "/api/v1/customers", http.StatusOK},
		{"sales reads products", testutil.Sales, http.MethodGet, "/api/v1/products", http.StatusOK},
		{"purchaser cannot delete products", testutil.Purchaser, http.MethodDelete, "/api/v1/products/1", http.StatusForbidden},
		{"admin reads inventory", testutil.Admin, http.MethodGet, "/api/v1/inventory", http.StatusOK},
		{"sales cannot read inventory", testutil.Sales, http.MethodGet, "/api/v1/inventory", http.StatusForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, resp := s.do(t, &tt.as, tt.method, tt.path, nil)
			assert.Equal(t, tt.want, status, resp.Message)
			assert.Equal(t, tt.want == http.StatusOK, resp.Success)
		})
	}
}

func TestPurchaseOrderLifecycleOverHTTP(t *testing.T) {
	s := newTestServer(t)
	id := s.createPO(t, 40)
	path := "/api/v1/purchase-orders/" + itoa(id)

	status, resp := s.do(t, &testutil.Purchaser, http.MethodPost, path+"/confirm", nil)
	require.Equal(t, http.StatusOK, status, resp.Message)
	assert.Equal(t, "purchase order status changed to confirmed", resp.Message)

	status, resp = s.do(t, &testutil.Purchaser, http.MethodPost, path+"/confirm", map[string]string{"status": "arrived"})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Contains(t, resp.Message, "invalid status transition")

	for _, next := range []string{"producing", "shipped", "arrived"} {
		status, resp = s.do(t, &testutil.Purchaser, http.MethodPut, path, map[string]string{"status": next})
		require.Equal(t, http.StatusOK, status, resp.Message)
	}
	po := decodeData[domain.PurchaseOrder](t, resp)
	assert.Equal(t, domain.POStatusArrived, po.Status)
	require.NotNil(t, po.ActualDate)
	assert.Equal(t, "2025-03-09", po.ActualDate.String())

	status, resp = s.do(t, &testutil.Purchaser, http.MethodPut, path, map[string]string{"remark": "late"})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Contains(t, resp.Message, "cannot be modified")

	status, resp = s.do(t, &testutil.Purchaser, http.MethodGet, "/api/v1/inventory?type=material", nil)
	require.Equal(t, http.StatusOK, status)
	list := decodeData[listData[domain.InventoryRecord]](t, resp)
	require.Len(t, list.List, 1)
	assert.Equal(t, 40, list.List[0].Quantity)
}

func TestPurchaseOrderDeleteMessages(t *testing.T) {
	s := newTestServer(t)
	draft := s.createPO(t, 5)
	confirmed := s.createPO(t, 5)

	status, resp := s.do(t, &testutil.Purchaser, http.MethodPost, "/api/v1/purchase-orders/"+itoa(confirmed)+"/confirm", "")
	require.Equal(t, http.StatusOK, status, resp.Message)

	status, resp = s.do(t, &testutil.Purchaser, http.MethodDelete, "/api/v1/purchase-orders/"+itoa(draft), nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "purchase order deleted", resp.Message)

	status, resp = s.do(t, &testutil.Purchaser, http.MethodDelete, "/api/v1/purchase-orders/"+itoa(confirmed), nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "purchase order cancelled", resp.Message)

	status, _ = s.do(t, &testutil.Purchaser, http.MethodGet, "/api/v1/purchase-orders/"+itoa(draft), nil)
	assert.Equal(t, http.StatusNotFound, status)
}

func TestRequestValidation(t *testing.T) {
	s := newTestServer(t)

	tests := []struct {
		name string
		body any
		want string
	}{
		{"missing fields", map[string]any{"quantity": 1}, "materialId, supplierId, orderDate, expectedDate"},
		{"unknown field", map[string]any{"materialId": 1, "colour": "red"}, "unknown field: colour"},
		{"wrong type", map[string]any{"quantity": "ten"}, "invalid value: quantity"},
		{"broken json", "{", "invalid JSON body"},
		{"quantity beyond integer range", s.poBody(3000000000, "1"), "quantity"},
		{"price beyond four decimals", s.poBody(10, "0.00005"), "unitPrice"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, resp := s.do(t, &testutil.Purchaser, http.MethodPost, "/api/v1/purchase-orders", tt.body)
			assert.Equal(t, http.StatusBadRequest, status)
			assert.False(t, resp.Success)
			assert.Contains(t, resp.Message, tt.want)
		})
	}

	status, resp := s.do(t, &testutil.Purchaser, http.MethodGet, "/api/v1/purchase-orders/abc", nil)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "invalid id: id", resp.Message)

	status, _ = s.do(t, &testutil.Purchaser, http.MethodGet, "/api/v1/purchase-orders?status=lost", nil)
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestInternalErrorsAreMasked(t *testing.T) {
	s := newTestServer(t)
	id := s.createPO(t, 5)
	s.store.FailOn("UpdatePurchaseOrder", errors.New("connection reset by peer"))

	status, resp := s.do(t, &testutil.Purchaser, http.MethodPost, "/api/v1/purchase-orders/"+itoa(id)+"/confirm", nil)
	assert.Equal(t, http.StatusInternalServerError, status)
	assert.Equal(t, "internal server error", resp.Message)
}

func TestPagination(t *testing.T) {
	s := newTestServer(t)
	for i := 0; i < 3; i++ {
		s.createPO(t, i+1)
	}

	status, resp := s.do(t, &testutil.Purchaser, http.MethodGet, "/api/v1/purchase-orders?page=2&pageSize=2", nil)
	require.Equal(t, http.StatusOK, status)
	list := decodeData[listData[domain.PurchaseOrder]](t, resp)
	assert.Len(t, list.List, 1)
	assert.Equal(t, pagination{Page: 2, PageSize: 2, Total: 3, TotalPages: 2}, list.Pagination)

	status, resp = s.do(t, &testutil.Purchaser, http.MethodGet, "/api/v1/purchase-orders?pageSize=500", nil)
	require.Equal(t, http.StatusOK, status)
	list = decodeData[listData[domain.PurchaseOrder]](t, resp)
	assert.Equal(t, 100, list.Pagination.PageSize)

	status, _ = s.do(t, &testutil.Purchaser, http.MethodGet, "/api/v1/purchase-orders?page=x", nil)
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestSalesOrderOverHTTP(t *testing.T) {
	s := newTestServer(t)

	status, resp := s.do(t, &testutil.Sales, http.MethodPost, "/api/v1/sales-orders", map[string]any{
		"customerId":   s.fx.Customer.ID,
		"orderDate":    "2025-03-09",
		"deliveryDate": "2025-03-30",
		"salesPerson":  "Wang",
		"lines":        []map[string]any{},
	})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Contains(t, resp.Message, "lines")

	status, resp = s.do(t, &testutil.Sales, http.MethodPost, "/api/v1/sales-orders", map[string]any{
		"customerId":   s.fx.Customer.ID,
		"orderDate":    "2025-03-09",
		"deliveryDate": "2025-03-30",
		"lines": []map[string]any{
			{"productId": s.fx.Product.ID, "quantity": 2, "unitPrice": "7.5"},
			{"productId": s.fx.Product2.ID, "quantity": 4, "unitPrice": "5"},
		},
	})
	require.Equal(t, http.StatusCreated, status, resp.Message)
	created := decodeData[struct {
		ID      int64  `json:"id"`
		OrderNo string `json:"orderNo"`
	}](t, resp)
	assert.Equal(t, "SO2025030001", created.OrderNo)

	status, resp = s.do(t, &testutil.Sales, http.MethodGet, "/api/v1/sales-orders/"+itoa(created.ID), nil)
	require.Equal(t, http.StatusOK, status)
	order := decodeData[domain.SalesOrder](t, resp)
	assert.Equal(t, "35", order.TotalAmount.String())
	assert.Len(t, order.Lines, 2)

	status, resp = s.do(t, &testutil.Sales, http.MethodPost, "/api/v1/sales-orders", map[string]any{
		"customerId":   s.fx.Customer.ID,
		"orderDate":    "2025-03-09",
		"deliveryDate": "2025-03-30",
		"lines":        []map[string]any{{"productId": 0, "quantity": 1}},
	})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Contains(t, resp.Message, "lines[0].productId")

	status, resp = s.do(t, &testutil.Sales, http.MethodDelete, "/api/v1/sales-orders/"+itoa(created.ID), nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "sales order deleted", resp.Message)
}

func TestInventoryAdjustOverHTTP(t *testing.T) {
	s := newTestServer(t)

	status, resp := s.do(t, &testutil.Admin, http.MethodPost, "/api/v1/inventory", map[string]any{
		"type":     "material",
		"itemId":   s.fx.Material.ID,
		"quantity": 10,
	})
	require.Equal(t, http.StatusCreated, status, resp.Message)
	rec := decodeData[domain.InventoryRecord](t, resp)
	assert.Equal(t, s.fx.Warehouse.ID, rec.WarehouseID)
	path := "/api/v1/inventory/" + itoa(rec.ID)

	status, resp = s.do(t, &testutil.Purchaser, http.MethodPost, path+"/adjust", map[string]any{"type": "out", "quantity": 4})
	require.Equal(t, http.StatusOK, status, resp.Message)
	assert.Equal(t, service.AdjustResult{PreviousQuantity: 10, AdjustQuantity: 4, NewQuantity: 6}, decodeData[service.AdjustResult](t, resp))

	status, resp = s.do(t, &testutil.Purchaser, http.MethodPost, path+"/adjust", map[string]any{"type": "out", "quantity": 7})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Contains(t, resp.Message, "insufficient stock")

	status, resp = s.do(t, &testutil.Purchaser, http.MethodPost, path+"/adjust", map[string]any{"type": "sideways", "quantity": 1})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Contains(t, resp.Message, "type")

	status, resp = s.do(t, &testutil.Purchaser, http.MethodGet, path+"/movements", nil)
	require.Equal(t, http.StatusOK, status)
	movements := decodeData[listData[domain.InventoryMovement]](t, resp)
	assert.Equal(t, 2, movements.Pagination.Total)

	status, resp = s.do(t, &testutil.Purchaser, http.MethodDelete, path, nil)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Contains(t, resp.Message, "referenced")
}

func TestReferenceDeleteReportsDeactivation(t *testing.T) {
	s := newTestServer(t)
	s.createPO(t, 1)

	status, resp := s.do(t, &testutil.Purchaser, http.MethodDelete, "/api/v1/suppliers/"+itoa(s.fx.Supplier.ID), nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "supplier is in use and was deactivated", resp.Message)

	status, resp = s.do(t, &testutil.Admin, http.MethodPost, "/api/v1/customers", map[string]any{
		"customerCode": "C-002",
		"name":         "Initech",
		"email":        "not-an-email",
	})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Contains(t, resp.Message, "email")
}

func TestWarningsAreScopedByRole(t *testing.T) {
	s := newTestServer(t)
	materialID := s.fx.Material.ID
	orderID := int64(99)
	s.store.AddWarning(domain.Warning{Level: "RED", MaterialID: &materialID, WarningType: "stock", Message: "low stock"})
	s.store.AddWarning(domain.Warning{Level: "ORANGE", OrderID: &orderID, WarningType: "delivery", Message: "late order"})

	status, resp := s.do(t, &testutil.Sales, http.MethodGet, "/api/v1/warnings", nil)
	require.Equal(t, http.StatusOK, status)
	list := decodeData[listData[domain.Warning]](t, resp)
	require.Len(t, list.List, 1)
	assert.Equal(t, "late order", list.List[0].Message)

	status, resp = s.do(t, &testutil.Admin, http.MethodGet, "/api/v1/warnings?level=red", nil)
	require.Equal(t, http.StatusOK, status)
	list = decodeData[listData[domain.Warning]](t, resp)
	require.Len(t, list.List, 1)
	assert.Equal(t, "low stock", list.List[0].Message)
}

func TestImportPurchaseOrdersExcel(t *testing.T) {
	s := newTestServer(t)

	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	rows := [][]interface{}{
		{"material code", "supplier code", "quantity", "unit price", "order date", "expected date", "status"},
		{"M-001", "S-001", 12, 3, "2025-03-01", "2025-03-20", "shipped"},
		{"M-001", "S-404", 5, 3, "2025-03-01", "2025-03-20", ""},
		{"M-001", "S-001", "2.5", 3, "2025-03-01", "2025-03-20", ""},
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow(sheet, cell, &row))
	}
	workbook, err := f.WriteToBuffer()
	require.NoError(t, err)
	require.NoError(t, f.Close())

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", "orders.xlsx")
	require.NoError(t, err)
	_, err = part.Write(workbook.Bytes())
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	token, err := s.verifier.Issue(testutil.Purchaser, time.Hour)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/purchase-orders/import-excel", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var resp response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	summary := decodeData[struct {
		FileName  string `json:"fileName"`
		TotalRows int    `json:"totalRows"`
		Created   int    `json:"created"`
		Failed    int    `json:"failed"`
		Results   []struct {
			Row   int    `json:"row"`
			Error string `json:"error"`
		} `json:"results"`
	}](t, resp)
	assert.Equal(t, "orders.xlsx", summary.FileName)
	assert.Equal(t, 3, summary.TotalRows)
	assert.Equal(t, 1, summary.Created)
	assert.Equal(t, 2, summary.Failed)
	require.Len(t, summary.Results, 3)
	assert.Equal(t, 4, summary.Results[2].Row)
	assert.Contains(t, summary.Results[2].Error, "invalid quantity")
	assert.Equal(t, 1, s.store.PurchaseOrderCount())
}

func (s *testServer) poBody(qty int, unitPrice string) map[string]any {
	return map[string]any{
		"materialId":   s.fx.Material.ID,
		"supplierId":   s.fx.Supplier.ID,
		"quantity":     qty,
		"unitPrice":    json.Number(unitPrice),
		"orderDate":    "2025-03-01",
		"expectedDate": "2025-03-20",
	}
}

func itoa(id int64) string {
	return strconv.FormatInt(id, 10)
}
