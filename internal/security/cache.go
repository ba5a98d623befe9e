package security

import (
	"context"

	"go.uber.org/zap"

	"github.com/ShayCichocki/skillflow/internal/registry"
	"github.com/ShayCichocki/skillflow/pkg/models"
)

// ScanCache stores scan outcomes keyed by component path and content hash.
type ScanCache interface {
	LookupScan(ctx context.Context, path, hash string) (risk models.RiskLevel, detail string, ok bool, err error)
	StoreScan(ctx context.Context, path, hash string, risk models.RiskLevel, detail string) error
}

// CachedGate skips scanning components whose content has not changed since
// their last successful scan. Failed scans are never cached.
type CachedGate struct {
	inner  Gate
	cache  ScanCache
	logger *zap.Logger
}

// NewCachedGate wraps inner with cache.
func NewCachedGate(inner Gate, cache ScanCache, logger *zap.Logger) *CachedGate {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CachedGate{
		inner:  inner,
		cache:  cache,
		logger: logger.With(zap.String("component", "scan-cache")),
	}
}

// Scan returns the cached result for unchanged content, otherwise scans and stores.
func (c *CachedGate) Scan(ctx context.Context, path string) (ScanResult, error) {
	hash, err := registry.ContentHash(path)
	if err != nil || hash == "" {
		return c.inner.Scan(ctx, path)
	}

	risk, detail, ok, err := c.cache.LookupScan(ctx, path, hash)
	if err != nil {
		c.logger.Warn("scan cache lookup failed", zap.String("path", path), zap.Error(err))
	} else if ok {
		c.logger.Debug("scan cache hit", zap.String("path", path), zap.String("risk", string(risk)))
		return ScanResult{Risk: risk, Detail: detail}, nil
	}

	res, err := c.inner.Scan(ctx, path)
	if err != nil {
		return res, err
	}
	if err := c.cache.StoreScan(ctx, path, hash, res.Risk, res.Summary()); err != nil {
		c.logger.Warn("scan cache store failed", zap.String("path", path), zap.Error(err))
	}
	return res, nil
}
