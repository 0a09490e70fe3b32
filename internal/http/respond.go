package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strconv"
	"strings"

	"supplychain/internal/domain"

	"github.com/go-playground/validator"
	"go.uber.org/zap"
)

type envelope struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

type pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"pageSize"`
	Total      int `json:"total"`
	TotalPages int `json:"totalPages"`
}

type listData[T any] struct {
	List       []T        `json:"list"`
	Pagination pagination `json:"pagination"`
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeOK(w http.ResponseWriter, status int, message string, data any) {
	writeJSON(w, status, envelope{Success: true, Message: message, Data: data})
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, envelope{Success: false, Message: message})
}

func writePage[T any](w http.ResponseWriter, page domain.Page[T], p pageParams) {
	items := page.Items
	if items == nil {
		items = []T{}
	}
	totalPages := 0
	if page.Total > 0 {
		totalPages = (page.Total + p.size - 1) / p.size
	}
	writeOK(w, http.StatusOK, "ok", listData[T]{
		List: items,
		Pagination: pagination{
			Page:       p.page,
			PageSize:   p.size,
			Total:      page.Total,
			TotalPages: totalPages,
		},
	})
}

// statusFor maps a domain error onto its HTTP status.
func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrForbidden):
		return http.StatusForbidden
	case domain.IsClientError(err):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// fail writes err with its mapped status. Internal errors are logged and, out
// of development mode, replaced by a generic message.
func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	message := err.Error()
	if status == http.StatusInternalServerError {
		h.log.Error("request failed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.String("request_id", requestIDFrom(r.Context())),
			zap.Error(err),
		)
		if !h.development {
			message = "internal server error"
		}
	}
	writeError(w, status, message)
}

// decodeJSON reads a single JSON object into out and runs struct validation.
func decodeJSON(r *http.Request, out any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(out); err != nil {
		if msg := err.Error(); strings.HasPrefix(msg, "json: unknown field ") {
			return domain.NewValidationError("unknown field", strings.Trim(strings.TrimPrefix(msg, "json: unknown field "), `"`))
		}
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) && typeErr.Field != "" {
			return domain.NewValidationError("invalid value", typeErr.Field)
		}
		return fmt.Errorf("%w: invalid JSON body", domain.ErrValidation)
	}
	return validateStruct(out)
}

func validateStruct(out any) error {
	err := validate.Struct(out)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}
	fields := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, fieldPath(fe.Namespace()))
	}
	return domain.NewValidationError("missing or invalid fields", fields...)
}

// fieldPath drops the struct name from a validator namespace.
func fieldPath(namespace string) string {
	if idx := strings.Index(namespace, "."); idx >= 0 {
		return namespace[idx+1:]
	}
	return namespace
}

type pageParams struct {
	page int
	size int
}

func parsePage(r *http.Request) (pageParams, error) {
	query := r.URL.Query()
	page, err := parseOptionalInt(query.Get("page"), 1)
	if err != nil {
		return pageParams{}, domain.NewValidationError(err.Error(), "page")
	}
	size, err := parseOptionalInt(query.Get("pageSize"), 20)
	if err != nil {
		return pageParams{}, domain.NewValidationError(err.Error(), "pageSize")
	}
	if page < 1 {
		page = 1
	}
	if size < 1 {
		size = 20
	}
	if size > 100 {
		size = 100
	}
	return pageParams{page: page, size: size}, nil
}

func parseOptionalInt(raw string, defaultValue int) (int, error) {
	value := strings.TrimSpace(raw)
	if value == "" {
		return defaultValue, nil
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid integer: %s", raw)
	}
	if parsed < 0 {
		return 0, fmt.Errorf("value cannot be negative")
	}
	return parsed, nil
}

func parseOptionalID(raw, field string) (int64, error) {
	value := strings.TrimSpace(raw)
	if value == "" {
		return 0, nil
	}
	parsed, err := strconv.ParseInt(value, 10, 64)
	if err != nil || parsed <= 0 {
		return 0, domain.NewValidationError("invalid id value", field)
	}
	return parsed, nil
}

func parseOptionalDate(raw, field string) (*domain.Date, error) {
	value := strings.TrimSpace(raw)
	if value == "" {
		return nil, nil
	}
	d, err := domain.ParseDate(value)
	if err != nil {
		return nil, domain.NewValidationError("invalid date", field)
	}
	return &d, nil
}

func parseID(raw string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil || id <= 0 {
		return 0, domain.NewValidationError("invalid id", "id")
	}
	return id, nil
}
