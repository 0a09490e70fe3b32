package http

import (
	"net/http"

	"supplychain/internal/domain"
	"supplychain/internal/repository"
	"supplychain/internal/service"

	"github.com/go-chi/chi/v5"
)

type createInventoryRequest struct {
	Type        string `json:"type" validate:"omitempty,oneof=material product"`
	ItemID      int64  `json:"itemId" validate:"required,gt=0"`
	WarehouseID int64  `json:"warehouseId"`
	Quantity    int    `json:"quantity" validate:"gte=0,lte=2147483647"`
	SafetyStock int    `json:"safetyStock" validate:"gte=0,lte=2147483647"`
}

type updateInventoryRequest struct {
	Quantity    domain.Field[int] `json:"quantity"`
	SafetyStock domain.Field[int] `json:"safetyStock"`
	Reason      *string           `json:"reason"`
}

type adjustInventoryRequest struct {
	Type     string  `json:"type" validate:"required,oneof=in out"`
	Quantity int     `json:"quantity" validate:"required,gt=0,lte=2147483647"`
	Reason   *string `json:"reason"`
}

func (h *Handler) ListInventory(w http.ResponseWriter, r *http.Request) {
	p, err := parsePage(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	query := r.URL.Query()
	filter := repository.InventoryFilter{Page: p.page, PageSize: p.size}
	if raw := query.Get("type"); raw != "" {
		if filter.ItemType, err = domain.ParseItemType(raw); err != nil {
			h.fail(w, r, err)
			return
		}
	}
	if filter.WarehouseID, err = parseOptionalID(query.Get("warehouseId"), "warehouseId"); err != nil {
		h.fail(w, r, err)
		return
	}
	if filter.ItemID, err = parseOptionalID(query.Get("itemId"), "itemId"); err != nil {
		h.fail(w, r, err)
		return
	}
	page, err := h.svc.ListInventory(r.Context(), filter)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writePage(w, page, p)
}

func (h *Handler) GetInventory(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	rec, err := h.svc.GetInventory(r.Context(), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeOK(w, http.StatusOK, "ok", rec)
}

func (h *Handler) CreateInventory(w http.ResponseWriter, r *http.Request) {
	var req createInventoryRequest
	if err := decodeJSON(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	itemType, err := domain.ParseItemType(req.Type)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	warehouseID := req.WarehouseID
	if warehouseID == 0 {
		warehouseID = h.svc.DefaultWarehouseID()
	}
	rec, err := h.svc.CreateInventory(r.Context(), caller(r), service.InventoryInput{
		ItemType:    itemType,
		ItemID:      req.ItemID,
		WarehouseID: warehouseID,
		Quantity:    req.Quantity,
		SafetyStock: req.SafetyStock,
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeOK(w, http.StatusCreated, "inventory created", rec)
}

func (h *Handler) UpdateInventory(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	var req updateInventoryRequest
	if err := decodeJSON(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	rec, err := h.svc.UpdateInventory(r.Context(), caller(r), id, service.InventoryPatch{
		Quantity:    req.Quantity,
		SafetyStock: req.SafetyStock,
		Reason:      req.Reason,
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeOK(w, http.StatusOK, "inventory updated", rec)
}

func (h *Handler) AdjustInventory(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	var req adjustInventoryRequest
	if err := decodeJSON(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	result, err := h.svc.AdjustInventory(r.Context(), caller(r), id, service.AdjustInput{
		Type:     domain.AdjustType(req.Type),
		Quantity: req.Quantity,
		Reason:   req.Reason,
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeOK(w, http.StatusOK, "inventory adjusted", result)
}

func (h *Handler) ListInventoryMovements(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	p, err := parsePage(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	page, err := h.svc.ListMovements(r.Context(), id, p.page, p.size)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writePage(w, page, p)
}

func (h *Handler) DeleteInventory(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if err := h.svc.DeleteInventory(r.Context(), id); err != nil {
		h.fail(w, r, err)
		return
	}
	writeOK(w, http.StatusOK, "inventory deleted", nil)
}
