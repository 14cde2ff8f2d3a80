package shipping

import (
	"context"
	"errors"
	"strings"
	"time"

	"storefront-svc/cache"
	"storefront-svc/middleware"
	"storefront-svc/models"

	"go.uber.org/zap"
)

const (
	minQueryLength  = 2
	maxQueryLength  = 100
	settlementLimit = 10

	opSettlements = "search_settlements"
	opWarehouses  = "get_warehouses"
)

// Cache is the subset of cache.JSONCache the lookup needs.
type Cache interface {
	Get(ctx context.Context, key string, dest any) error
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
}

// LookupCache puts a short lived cache in front of the carrier for address
// autocomplete. It never returns an error: any failure yields an empty
// result and is not cached.
type LookupCache struct {
	carrier Carrier
	cache   Cache
	ttl     time.Duration
	logger  *zap.Logger
}

func NewLookupCache(carrier Carrier, c Cache, ttl time.Duration, logger *zap.Logger) *LookupCache {
	return &LookupCache{carrier: carrier, cache: c, ttl: ttl, logger: logger}
}

// NormalizeQuery trims and truncates a settlement query. It reports false
// when the query is too short to search.
func NormalizeQuery(q string) (string, bool) {
	q = strings.TrimSpace(q)
	if r := []rune(q); len(r) > maxQueryLength {
		q = string(r[:maxQueryLength])
	}
	if len([]rune(q)) < minQueryLength {
		return "", false
	}
	return q, true
}

func (l *LookupCache) SearchSettlements(ctx context.Context, query string) []models.Settlement {
	q, ok := NormalizeQuery(query)
	if !ok {
		middleware.RecordCarrierLookup(opSettlements, "rejected")
		return []models.Settlement{}
	}
	key := "settlements:" + strings.ToLower(q)

	var cached []models.Settlement
	if l.fromCache(ctx, key, &cached) {
		middleware.RecordCarrierLookup(opSettlements, "cache_hit")
		return cached
	}

	settlements, err := l.carrier.SearchSettlements(ctx, q, settlementLimit)
	if err != nil {
		middleware.RecordCarrierLookup(opSettlements, "error")
		l.logger.Warn("Settlement search failed",
			zap.String("query", q),
			zap.String("trace_id", middleware.GetTraceID(ctx)),
			zap.Error(err),
		)
		return []models.Settlement{}
	}
	if len(settlements) > settlementLimit {
		settlements = settlements[:settlementLimit]
	}

	middleware.RecordCarrierLookup(opSettlements, "ok")
	l.toCache(ctx, key, settlements)
	return settlements
}

func (l *LookupCache) Warehouses(ctx context.Context, settlementRef string) models.WarehousesResponse {
	ref := strings.TrimSpace(settlementRef)
	if ref == "" {
		middleware.RecordCarrierLookup(opWarehouses, "rejected")
		return models.WarehousesResponse{Success: false, Warehouses: []string{}}
	}
	key := "warehouses:" + ref

	var cached []string
	if l.fromCache(ctx, key, &cached) {
		middleware.RecordCarrierLookup(opWarehouses, "cache_hit")
		return models.WarehousesResponse{Success: true, Warehouses: cached}
	}

	warehouses, err := l.carrier.ListWarehouses(ctx, ref)
	if err != nil {
		middleware.RecordCarrierLookup(opWarehouses, "error")
		l.logger.Warn("Warehouse lookup failed",
			zap.String("settlement_ref", ref),
			zap.String("trace_id", middleware.GetTraceID(ctx)),
			zap.Error(err),
		)
		return models.WarehousesResponse{Success: false, Warehouses: []string{}}
	}

	middleware.RecordCarrierLookup(opWarehouses, "ok")
	l.toCache(ctx, key, warehouses)
	return models.WarehousesResponse{Success: true, Warehouses: warehouses}
}

func (l *LookupCache) fromCache(ctx context.Context, key string, dest any) bool {
	err := l.cache.Get(ctx, key, dest)
	if err == nil {
		return true
	}
	if !errors.Is(err, cache.ErrMiss) {
		l.logger.Warn("Lookup cache read failed", zap.String("key", key), zap.Error(err))
	}
	return false
}

func (l *LookupCache) toCache(ctx context.Context, key string, value any) {
	if err := l.cache.Set(ctx, key, value, l.ttl); err != nil {
		l.logger.Warn("Lookup cache write failed", zap.String("key", key), zap.Error(err))
	}
}
