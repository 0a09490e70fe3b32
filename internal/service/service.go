package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"supplychain/internal/domain"
	"supplychain/internal/repository"

	"go.uber.org/zap"
)

// WarningCache stores rendered warning pages per role and filter.
type WarningCache interface {
	GetWarnings(ctx context.Context, key string) (domain.Page[domain.Warning], bool, error)
	SetWarnings(ctx context.Context, key string, page domain.Page[domain.Warning]) error
}

type Options struct {
	Logger             *zap.Logger
	Cache              WarningCache
	DefaultWarehouseID int64
	Now                func() time.Time
}

type Service struct {
	store              repository.Store
	cache              WarningCache
	log                *zap.Logger
	defaultWarehouseID int64
	now                func() time.Time
}

func New(store repository.Store, opts Options) *Service {
	s := &Service{
		store:              store,
		cache:              opts.Cache,
		log:                opts.Logger,
		defaultWarehouseID: opts.DefaultWarehouseID,
		now:                opts.Now,
	}
	if s.log == nil {
		s.log = zap.NewNop()
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

// EnsureDefaultWarehouse looks up the receiving warehouse by code, creating it
// when missing, and makes it the target of purchase arrivals.
func (s *Service) EnsureDefaultWarehouse(ctx context.Context, code, name string) (domain.Warehouse, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return domain.Warehouse{}, fmt.Errorf("default warehouse code is required")
	}
	warehouse, err := s.store.GetWarehouseByCode(ctx, code)
	if err == nil {
		s.defaultWarehouseID = warehouse.ID
		return warehouse, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return domain.Warehouse{}, err
	}

	warehouse = domain.Warehouse{Code: code, Name: strings.TrimSpace(name), Status: domain.StatusActive}
	if warehouse.Name == "" {
		warehouse.Name = code
	}
	if err := s.store.InsertWarehouse(ctx, &warehouse); err != nil {
		return domain.Warehouse{}, fmt.Errorf("create default warehouse: %w", err)
	}
	s.log.Info("default warehouse created", zap.String("code", code), zap.Int64("id", warehouse.ID))
	s.defaultWarehouseID = warehouse.ID
	return warehouse, nil
}

func (s *Service) DefaultWarehouseID() int64 {
	return s.defaultWarehouseID
}

func (s *Service) today() domain.Date {
	return domain.Today(s.now())
}

// nextOrderNumber previews the next free number for the current month. It
// reserves nothing; the unique constraint settles concurrent creators.
func (s *Service) nextOrderNumber(ctx context.Context, q repository.Querier, kind domain.OrderKind) (string, error) {
	prefix := domain.OrderNumberPrefix(kind, s.now())
	max, err := q.MaxOrderNumber(ctx, kind, prefix)
	if err != nil {
		return "", err
	}
	return domain.NextOrderNumber(prefix, max)
}

// requireRef turns a missing referenced row into a validation error on field.
func requireRef(err error, field string) error {
	if errors.Is(err, domain.ErrNotFound) {
		return domain.NewValidationError("referenced record does not exist", field)
	}
	return err
}

func normalizeNullable(value *string) *string {
	if value == nil {
		return nil
	}
	v := strings.TrimSpace(*value)
	if v == "" {
		return nil
	}
	return &v
}
