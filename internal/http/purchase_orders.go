package http

import (
	"fmt"
	"net/http"
	"strings"

	"supplychain/internal/domain"
	"supplychain/internal/excel"
	"supplychain/internal/repository"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
)

type createPurchaseOrderRequest struct {
	PONo         string           `json:"poNo"`
	MaterialID   int64            `json:"materialId" validate:"required,gt=0"`
	SupplierID   int64            `json:"supplierId" validate:"required,gt=0"`
	Quantity     int              `json:"quantity" validate:"required,gt=0,lte=2147483647"`
	UnitPrice    *decimal.Decimal `json:"unitPrice"`
	OrderDate    *domain.Date     `json:"orderDate" validate:"required"`
	ExpectedDate *domain.Date     `json:"expectedDate" validate:"required"`
	Remark       *string          `json:"remark"`
}

type updatePurchaseOrderRequest struct {
	PONo         domain.Field[string]          `json:"poNo"`
	MaterialID   domain.Field[int64]           `json:"materialId"`
	SupplierID   domain.Field[int64]           `json:"supplierId"`
	Quantity     domain.Field[int]             `json:"quantity"`
	UnitPrice    domain.Field[decimal.Decimal] `json:"unitPrice"`
	OrderDate    domain.Field[domain.Date]     `json:"orderDate"`
	ExpectedDate domain.Field[domain.Date]     `json:"expectedDate"`
	ActualDate   domain.Field[domain.Date]     `json:"actualDate"`
	Status       domain.Field[string]          `json:"status"`
	Remark       domain.Field[string]          `json:"remark"`
}

type confirmPurchaseOrderRequest struct {
	Status string `json:"status"`
}

func (h *Handler) ListPurchaseOrders(w http.ResponseWriter, r *http.Request) {
	p, err := parsePage(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	filter, err := purchaseOrderFilter(r, p)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	page, err := h.svc.ListPurchaseOrders(r.Context(), filter)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writePage(w, page, p)
}

func purchaseOrderFilter(r *http.Request, p pageParams) (repository.PurchaseOrderFilter, error) {
	query := r.URL.Query()
	filter := repository.PurchaseOrderFilter{
		Keyword:  strings.TrimSpace(query.Get("keyword")),
		Page:     p.page,
		PageSize: p.size,
	}
	if raw := strings.TrimSpace(query.Get("status")); raw != "" {
		status, err := domain.ParsePOStatus(raw)
		if err != nil {
			return filter, err
		}
		filter.Status = status
	}
	var err error
	if filter.SupplierID, err = parseOptionalID(query.Get("supplierId"), "supplierId"); err != nil {
		return filter, err
	}
	if filter.MaterialID, err = parseOptionalID(query.Get("materialId"), "materialId"); err != nil {
		return filter, err
	}
	if filter.StartDate, err = parseOptionalDate(query.Get("startDate"), "startDate"); err != nil {
		return filter, err
	}
	if filter.EndDate, err = parseOptionalDate(query.Get("endDate"), "endDate"); err != nil {
		return filter, err
	}
	return filter, nil
}

func (h *Handler) GetPurchaseOrder(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	po, err := h.svc.GetPurchaseOrder(r.Context(), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeOK(w, http.StatusOK, "ok", po)
}

func (h *Handler) GeneratePurchaseOrderNo(w http.ResponseWriter, r *http.Request) {
	poNo, err := h.svc.GeneratePurchaseOrderNo(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeOK(w, http.StatusOK, "ok", map[string]string{"poNo": poNo})
}

func (h *Handler) CreatePurchaseOrder(w http.ResponseWriter, r *http.Request) {
	var req createPurchaseOrderRequest
	if err := decodeJSON(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	po, err := h.svc.CreatePurchaseOrder(r.Context(), caller(r), domain.PurchaseOrderInput{
		PONo:         req.PONo,
		MaterialID:   req.MaterialID,
		SupplierID:   req.SupplierID,
		Quantity:     req.Quantity,
		UnitPrice:    req.UnitPrice,
		OrderDate:    *req.OrderDate,
		ExpectedDate: *req.ExpectedDate,
		Remark:       req.Remark,
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeOK(w, http.StatusCreated, "purchase order created", map[string]any{"id": po.ID, "poNo": po.PONo})
}

func (h *Handler) UpdatePurchaseOrder(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	var req updatePurchaseOrderRequest
	if err := decodeJSON(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	po, err := h.svc.UpdatePurchaseOrder(r.Context(), caller(r), id, domain.PurchaseOrderPatch{
		PONo:         req.PONo,
		MaterialID:   req.MaterialID,
		SupplierID:   req.SupplierID,
		Quantity:     req.Quantity,
		UnitPrice:    req.UnitPrice,
		OrderDate:    req.OrderDate,
		ExpectedDate: req.ExpectedDate,
		ActualDate:   req.ActualDate,
		Status:       req.Status,
		Remark:       req.Remark,
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeOK(w, http.StatusOK, "purchase order updated", po)
}

func (h *Handler) ConfirmPurchaseOrder(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	var req confirmPurchaseOrderRequest
	if r.ContentLength != 0 {
		if err := decodeJSON(r, &req); err != nil {
			h.fail(w, r, err)
			return
		}
	}
	po, err := h.svc.ConfirmPurchaseOrder(r.Context(), caller(r), id, req.Status)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeOK(w, http.StatusOK, fmt.Sprintf("purchase order status changed to %s", po.Status),
		map[string]any{"id": po.ID, "status": po.Status})
}

func (h *Handler) DeletePurchaseOrder(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	deleted, err := h.svc.DeletePurchaseOrder(r.Context(), caller(r), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	message := "purchase order cancelled"
	if deleted {
		message = "purchase order deleted"
	}
	writeOK(w, http.StatusOK, message, nil)
}

func (h *Handler) ImportPurchaseOrdersExcel(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		writeError(w, http.StatusBadRequest, "failed to parse multipart form")
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "file field is required")
		return
	}
	defer file.Close()

	rows, err := excel.ParsePurchaseRows(file)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	results, err := h.svc.ImportPurchaseOrders(r.Context(), caller(r), rows)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	failed := 0
	for _, result := range results {
		if result.Error != "" {
			failed++
		}
	}
	writeOK(w, http.StatusOK, fmt.Sprintf("imported %d of %d rows", len(results)-failed, len(rows)), map[string]any{
		"fileName":  header.Filename,
		"totalRows": len(rows),
		"created":   len(results) - failed,
		"failed":    failed,
		"results":   results,
	})
}
