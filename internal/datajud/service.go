package datajud

import (
	"context"

	"go.uber.org/zap"
)

// Searcher is the upstream fetch surface, extracted so tests can
// substitute the real client.
type Searcher interface {
	Search(ctx context.Context, tribunal, caseType string, limit int) ([]ProviderRecord, error)
}

// Service answers provider queries cache-first. A fresh entry is
// served as-is; a miss triggers an upstream fetch and a full overwrite
// of that key. When the provider is down the last stale entry is kept
// and served rather than cleared; only a key that was never cached
// falls back to an empty set.
type Service struct {
	client Searcher
	cache  *Cache
	limit  int
	logger *zap.Logger
}

func NewService(client Searcher, cache *Cache, limit int, logger *zap.Logger) *Service {
	if limit <= 0 {
		limit = 500
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{client: client, cache: cache, limit: limit, logger: logger}
}

// Records returns the provider records for one key, plus whether they
// came from cache. The error is non-nil only when the fetch failed and
// nothing was ever cached for the key.
func (s *Service) Records(ctx context.Context, tribunal, caseType string) ([]ProviderRecord, bool, error) {
	entry, fresh := s.cache.Read(tribunal, caseType)
	if entry != nil && fresh {
		return entry.Records, true, nil
	}

	records, err := s.client.Search(ctx, tribunal, caseType, s.limit)
	if err != nil {
		if entry != nil {
			s.logger.Warn("provider fetch failed, serving stale cache",
				zap.String("tribunal", tribunal), zap.String("case_type", caseType), zap.Error(err))
			return entry.Records, true, nil
		}
		return nil, false, err
	}

	if err := s.cache.Write(tribunal, caseType, records); err != nil {
		// The fetch succeeded; a cache write failure only costs the
		// next request a re-fetch.
		s.logger.Warn("cache write failed", zap.String("tribunal", tribunal), zap.String("case_type", caseType), zap.Error(err))
	}
	return records, false, nil
}
