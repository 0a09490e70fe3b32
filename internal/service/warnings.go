package service

import (
	"context"
	"fmt"
	"strings"

	"supplychain/internal/domain"
	"supplychain/internal/repository"

	"go.uber.org/zap"
)

var warningLevels = map[string]bool{"RED": true, "ORANGE": true, "YELLOW": true, "BLUE": true}

// ListWarnings returns the unresolved warnings visible to the caller's role.
// Pages are served from the cache when one is configured; cache failures fall
// through to the database.
func (s *Service) ListWarnings(ctx context.Context, actor domain.Principal, level string, page, pageSize int) (domain.Page[domain.Warning], error) {
	level = strings.ToUpper(strings.TrimSpace(level))
	if level != "" && !warningLevels[level] {
		return domain.Page[domain.Warning]{}, domain.NewValidationError("invalid warning level", "level")
	}
	page, pageSize = repository.NormalizePage(page, pageSize)
	filter := repository.WarningFilter{
		Scope:    warningScope(actor.Role),
		Level:    level,
		Page:     page,
		PageSize: pageSize,
	}

	key := fmt.Sprintf("warnings:%s:%s:%d:%d", filter.Scope, level, page, pageSize)
	if s.cache != nil {
		cached, ok, err := s.cache.GetWarnings(ctx, key)
		if err != nil {
			s.log.Warn("warning cache read failed", zap.String("key", key), zap.Error(err))
		} else if ok {
			return cached, nil
		}
	}

	result, err := s.store.ListWarnings(ctx, filter)
	if err != nil {
		return domain.Page[domain.Warning]{}, err
	}
	if s.cache != nil {
		if err := s.cache.SetWarnings(ctx, key, result); err != nil {
			s.log.Warn("warning cache write failed", zap.String("key", key), zap.Error(err))
		}
	}
	return result, nil
}

func warningScope(role domain.Role) repository.WarningScope {
	switch role {
	case domain.RolePurchaser:
		return repository.WarningScopeMaterial
	case domain.RoleSales:
		return repository.WarningScopeOrder
	default:
		return repository.WarningScopeAll
	}
}
