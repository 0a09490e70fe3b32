package http

import (
	"context"
	"net/http"
	"strings"

	"supplychain/internal/domain"
	"supplychain/internal/repository"
	"supplychain/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
)

type materialRequest struct {
	Code         string          `json:"materialCode" validate:"required"`
	Name         string          `json:"name" validate:"required"`
	Spec         *string         `json:"spec"`
	Unit         string          `json:"unit"`
	Price        decimal.Decimal `json:"price"`
	SafetyStock  int             `json:"safetyStock" validate:"gte=0,lte=2147483647"`
	LeadTimeDays int             `json:"leadTime" validate:"gte=0,lte=2147483647"`
	Buyer        *string         `json:"buyer"`
	Status       string          `json:"status"`
}

func (req materialRequest) material() domain.Material {
	return domain.Material{
		Code:         req.Code,
		Name:         req.Name,
		Spec:         req.Spec,
		Unit:         req.Unit,
		Price:        req.Price,
		SafetyStock:  req.SafetyStock,
		LeadTimeDays: req.LeadTimeDays,
		Buyer:        req.Buyer,
		Status:       req.Status,
	}
}

type supplierRequest struct {
	Code          string          `json:"supplierCode" validate:"required"`
	Name          string          `json:"name" validate:"required"`
	ContactPerson *string         `json:"contactPerson"`
	Phone         *string         `json:"phone"`
	OnTimeRate    decimal.Decimal `json:"onTimeRate"`
	QualityRate   decimal.Decimal `json:"qualityRate"`
	Status        string          `json:"status"`
}

func (req supplierRequest) supplier() domain.Supplier {
	return domain.Supplier{
		Code:          req.Code,
		Name:          req.Name,
		ContactPerson: req.ContactPerson,
		Phone:         req.Phone,
		OnTimeRate:    req.OnTimeRate,
		QualityRate:   req.QualityRate,
		Status:        req.Status,
	}
}

type warehouseRequest struct {
	Code    string  `json:"warehouseCode" validate:"required"`
	Name    string  `json:"name" validate:"required"`
	Address *string `json:"address"`
	Status  string  `json:"status"`
}

func (req warehouseRequest) warehouse() domain.Warehouse {
	return domain.Warehouse{Code: req.Code, Name: req.Name, Address: req.Address, Status: req.Status}
}

type bomLineRequest struct {
	MaterialID int64           `json:"materialId" validate:"required,gt=0"`
	Quantity   decimal.Decimal `json:"quantity"`
}

type productRequest struct {
	Code   string           `json:"productCode" validate:"required"`
	Name   string           `json:"name" validate:"required"`
	Spec   *string          `json:"spec"`
	Unit   string           `json:"unit"`
	Status string           `json:"status"`
	BOM    []bomLineRequest `json:"bom" validate:"dive"`
}

func (req productRequest) product() domain.Product {
	return domain.Product{
		Code:   req.Code,
		Name:   req.Name,
		Spec:   req.Spec,
		Unit:   req.Unit,
		Status: req.Status,
		BOM:    bomLines(req.BOM),
	}
}

type bomRequest struct {
	BOM []bomLineRequest `json:"bom" validate:"dive"`
}

func bomLines(in []bomLineRequest) []domain.BOMLine {
	lines := make([]domain.BOMLine, 0, len(in))
	for _, line := range in {
		lines = append(lines, domain.BOMLine{MaterialID: line.MaterialID, Quantity: line.Quantity})
	}
	return lines
}

type customerRequest struct {
	Code          string  `json:"customerCode" validate:"required"`
	Name          string  `json:"name" validate:"required"`
	ContactPerson *string `json:"contactPerson"`
	Phone         *string `json:"phone"`
	Email         *string `json:"email" validate:"omitempty,email"`
	Address       *string `json:"address"`
	Status        string  `json:"status"`
}

func referenceFilter(r *http.Request, p pageParams) repository.ReferenceFilter {
	query := r.URL.Query()
	return repository.ReferenceFilter{
		Keyword:  strings.TrimSpace(query.Get("keyword")),
		Status:   strings.ToLower(strings.TrimSpace(query.Get("status"))),
		Page:     p.page,
		PageSize: p.size,
	}
}

// listReference serves the paginated keyword/status listing shared by every
// reference table.
func listReference[T any](h *Handler, list func(context.Context, repository.ReferenceFilter) (domain.Page[T], error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, err := parsePage(r)
		if err != nil {
			h.fail(w, r, err)
			return
		}
		page, err := list(r.Context(), referenceFilter(r, p))
		if err != nil {
			h.fail(w, r, err)
			return
		}
		writePage(w, page, p)
	}
}

func getReference[T any](h *Handler, get func(context.Context, int64) (T, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := parseID(chi.URLParam(r, "id"))
		if err != nil {
			h.fail(w, r, err)
			return
		}
		item, err := get(r.Context(), id)
		if err != nil {
			h.fail(w, r, err)
			return
		}
		writeOK(w, http.StatusOK, "ok", item)
	}
}

func deleteReference(h *Handler, kind string, remove func(context.Context, int64) (service.RemoveResult, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := parseID(chi.URLParam(r, "id"))
		if err != nil {
			h.fail(w, r, err)
			return
		}
		result, err := remove(r.Context(), id)
		if err != nil {
			h.fail(w, r, err)
			return
		}
		message := kind + " deleted"
		if result.Deactivated {
			message = kind + " is in use and was deactivated"
		}
		writeOK(w, http.StatusOK, message, result)
	}
}

func (h *Handler) ListMaterials(w http.ResponseWriter, r *http.Request) {
	listReference(h, h.svc.ListMaterials)(w, r)
}

func (h *Handler) GetMaterial(w http.ResponseWriter, r *http.Request) {
	getReference(h, h.svc.GetMaterial)(w, r)
}

func (h *Handler) ListBuyers(w http.ResponseWriter, r *http.Request) {
	buyers, err := h.svc.ListBuyers(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if buyers == nil {
		buyers = []string{}
	}
	writeOK(w, http.StatusOK, "ok", buyers)
}

func (h *Handler) CreateMaterial(w http.ResponseWriter, r *http.Request) {
	var req materialRequest
	if err := decodeJSON(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	m, err := h.svc.CreateMaterial(r.Context(), req.material())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeOK(w, http.StatusCreated, "material created", m)
}

func (h *Handler) UpdateMaterial(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	var req materialRequest
	if err := decodeJSON(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	m, err := h.svc.UpdateMaterial(r.Context(), id, req.material())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeOK(w, http.StatusOK, "material updated", m)
}

func (h *Handler) DeleteMaterial(w http.ResponseWriter, r *http.Request) {
	deleteReference(h, "material", h.svc.DeleteMaterial)(w, r)
}

func (h *Handler) ListSuppliers(w http.ResponseWriter, r *http.Request) {
	listReference(h, h.svc.ListSuppliers)(w, r)
}

func (h *Handler) GetSupplier(w http.ResponseWriter, r *http.Request) {
	getReference(h, h.svc.GetSupplier)(w, r)
}

func (h *Handler) CreateSupplier(w http.ResponseWriter, r *http.Request) {
	var req supplierRequest
	if err := decodeJSON(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	sup, err := h.svc.CreateSupplier(r.Context(), req.supplier())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeOK(w, http.StatusCreated, "supplier created", sup)
}

func (h *Handler) UpdateSupplier(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	var req supplierRequest
	if err := decodeJSON(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	sup, err := h.svc.UpdateSupplier(r.Context(), id, req.supplier())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeOK(w, http.StatusOK, "supplier updated", sup)
}

func (h *Handler) DeleteSupplier(w http.ResponseWriter, r *http.Request) {
	deleteReference(h, "supplier", h.svc.DeleteSupplier)(w, r)
}

func (h *Handler) ListWarehouses(w http.ResponseWriter, r *http.Request) {
	listReference(h, h.svc.ListWarehouses)(w, r)
}

func (h *Handler) GetWarehouse(w http.ResponseWriter, r *http.Request) {
	getReference(h, h.svc.GetWarehouse)(w, r)
}

func (h *Handler) CreateWarehouse(w http.ResponseWriter, r *http.Request) {
	var req warehouseRequest
	if err := decodeJSON(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	wh, err := h.svc.CreateWarehouse(r.Context(), req.warehouse())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeOK(w, http.StatusCreated, "warehouse created", wh)
}

func (h *Handler) UpdateWarehouse(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	var req warehouseRequest
	if err := decodeJSON(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	wh, err := h.svc.UpdateWarehouse(r.Context(), id, req.warehouse())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeOK(w, http.StatusOK, "warehouse updated", wh)
}

func (h *Handler) DeleteWarehouse(w http.ResponseWriter, r *http.Request) {
	deleteReference(h, "warehouse", h.svc.DeleteWarehouse)(w, r)
}

func (h *Handler) ListProducts(w http.ResponseWriter, r *http.Request) {
	listReference(h, h.svc.ListProducts)(w, r)
}

func (h *Handler) GetProduct(w http.ResponseWriter, r *http.Request) {
	getReference(h, h.svc.GetProduct)(w, r)
}

func (h *Handler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	var req productRequest
	if err := decodeJSON(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	p, err := h.svc.CreateProduct(r.Context(), req.product())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeOK(w, http.StatusCreated, "product created", p)
}

// UpdateProduct edits the product header. The bill of materials has its own
// endpoint.
func (h *Handler) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	var req productRequest
	if err := decodeJSON(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	p, err := h.svc.UpdateProduct(r.Context(), id, req.product())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeOK(w, http.StatusOK, "product updated", p)
}

func (h *Handler) ReplaceBOM(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	var req bomRequest
	if err := decodeJSON(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	p, err := h.svc.ReplaceBOM(r.Context(), id, bomLines(req.BOM))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeOK(w, http.StatusOK, "bill of materials updated", p)
}

func (h *Handler) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	deleteReference(h, "product", h.svc.DeleteProduct)(w, r)
}

func (h *Handler) ListCustomers(w http.ResponseWriter, r *http.Request) {
	listReference(h, h.svc.ListCustomers)(w, r)
}

func (h *Handler) CreateCustomer(w http.ResponseWriter, r *http.Request) {
	var req customerRequest
	if err := decodeJSON(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	c, err := h.svc.CreateCustomer(r.Context(), domain.Customer{
		Code:          req.Code,
		Name:          req.Name,
		ContactPerson: req.ContactPerson,
		Phone:         req.Phone,
		Email:         req.Email,
		Address:       req.Address,
		Status:        req.Status,
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeOK(w, http.StatusCreated, "customer created", c)
}
