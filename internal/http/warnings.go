package http

import "net/http"

// ListWarnings returns the unresolved warnings visible to the caller's role.
func (h *Handler) ListWarnings(w http.ResponseWriter, r *http.Request) {
	p, err := parsePage(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	page, err := h.svc.ListWarnings(r.Context(), caller(r), r.URL.Query().Get("level"), p.page, p.size)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writePage(w, page, p)
}
