package http

import (
	"net/http"
	"strings"

	"supplychain/internal/domain"
	"supplychain/internal/repository"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
)

type salesLineRequest struct {
	ProductID int64           `json:"productId" validate:"required,gt=0"`
	Quantity  int             `json:"quantity" validate:"required,gt=0,lte=2147483647"`
	UnitPrice decimal.Decimal `json:"unitPrice"`
	Remark    *string         `json:"remark"`
}

type salesOrderRequest struct {
	OrderNo      string             `json:"orderNo"`
	CustomerID   int64              `json:"customerId" validate:"required,gt=0"`
	OrderDate    *domain.Date       `json:"orderDate" validate:"required"`
	DeliveryDate *domain.Date       `json:"deliveryDate" validate:"required"`
	SalesPerson  *string            `json:"salesPerson"`
	Status       string             `json:"status"`
	Remark       *string            `json:"remark"`
	Lines        []salesLineRequest `json:"lines" validate:"required,min=1,dive"`
}

func (req salesOrderRequest) input() domain.SalesOrderInput {
	lines := make([]domain.SalesLineInput, 0, len(req.Lines))
	for _, line := range req.Lines {
		lines = append(lines, domain.SalesLineInput{
			ProductID: line.ProductID,
			Quantity:  line.Quantity,
			UnitPrice: line.UnitPrice,
			Remark:    line.Remark,
		})
	}
	return domain.SalesOrderInput{
		OrderNo:      req.OrderNo,
		CustomerID:   req.CustomerID,
		OrderDate:    *req.OrderDate,
		DeliveryDate: *req.DeliveryDate,
		SalesPerson:  req.SalesPerson,
		Status:       req.Status,
		Remark:       req.Remark,
		Lines:        lines,
	}
}

func (h *Handler) ListSalesOrders(w http.ResponseWriter, r *http.Request) {
	p, err := parsePage(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	query := r.URL.Query()
	filter := repository.SalesOrderFilter{
		Keyword:     strings.TrimSpace(query.Get("keyword")),
		SalesPerson: strings.TrimSpace(query.Get("salesPerson")),
		Page:        p.page,
		PageSize:    p.size,
	}
	if raw := strings.TrimSpace(query.Get("status")); raw != "" {
		if filter.Status, err = domain.ParseSOStatus(raw); err != nil {
			h.fail(w, r, err)
			return
		}
	}
	if filter.StartDate, err = parseOptionalDate(query.Get("startDate"), "startDate"); err != nil {
		h.fail(w, r, err)
		return
	}
	if filter.EndDate, err = parseOptionalDate(query.Get("endDate"), "endDate"); err != nil {
		h.fail(w, r, err)
		return
	}
	page, err := h.svc.ListSalesOrders(r.Context(), filter)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writePage(w, page, p)
}

func (h *Handler) GetSalesOrder(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	order, err := h.svc.GetSalesOrder(r.Context(), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeOK(w, http.StatusOK, "ok", order)
}

func (h *Handler) ListSalesPersons(w http.ResponseWriter, r *http.Request) {
	names, err := h.svc.ListSalesPersons(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if names == nil {
		names = []string{}
	}
	writeOK(w, http.StatusOK, "ok", names)
}

func (h *Handler) GenerateSalesOrderNo(w http.ResponseWriter, r *http.Request) {
	orderNo, err := h.svc.GenerateSalesOrderNo(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeOK(w, http.StatusOK, "ok", map[string]string{"orderNo": orderNo})
}

func (h *Handler) CreateSalesOrder(w http.ResponseWriter, r *http.Request) {
	var req salesOrderRequest
	if err := decodeJSON(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	order, err := h.svc.CreateSalesOrder(r.Context(), caller(r), req.input())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeOK(w, http.StatusCreated, "sales order created", map[string]any{"id": order.ID, "orderNo": order.OrderNo})
}

func (h *Handler) UpdateSalesOrder(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	var req salesOrderRequest
	if err := decodeJSON(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	order, err := h.svc.UpdateSalesOrder(r.Context(), caller(r), id, req.input())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeOK(w, http.StatusOK, "sales order updated", order)
}

func (h *Handler) DeleteSalesOrder(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	deleted, err := h.svc.DeleteSalesOrder(r.Context(), caller(r), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	message := "sales order cancelled"
	if deleted {
		message = "sales order deleted"
	}
	writeOK(w, http.StatusOK, message, nil)
}
