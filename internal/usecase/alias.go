package usecase

import (
	"context"
	"time"

	"github.com/mailfold/mailroom/internal/domain"
)

// SyncCap bounds a single syncAll response. Callers page by passing the
// newest updated_at they hold as since.
const SyncCap = 5000

// SearchLimitMax caps search result sizes regardless of the requested limit.
const SearchLimitMax = 50

const searchLimitDefault = 20

type AliasUsecase struct {
	aliases AliasRepository
}

func NewAliasUsecase(aliases AliasRepository) *AliasUsecase {
	return &AliasUsecase{aliases: aliases}
}

// Sync returns the tenant's active aliases for bulk device-side caching,
// optionally restricted to those updated at or after since.
func (uc *AliasUsecase) Sync(ctx context.Context, tenantID string, since *time.Time) ([]domain.AliasRecord, error) {
	ctx, span := tracer.Start(ctx, "Alias.Usecase.Sync")
	defer span.End()

	records, err := uc.aliases.SyncAll(ctx, tenantID, since, SyncCap)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	return records, nil
}

// Search matches the normalized query as a substring of normalized alias
// text. promptRefresh tells the device an empty result may mean its local
// cache is stale and a fresh Sync is worthwhile.
func (uc *AliasUsecase) Search(ctx context.Context, tenantID string, query string, limit int) (results []domain.AliasRecord, promptRefresh bool, err error) {
	ctx, span := tracer.Start(ctx, "Alias.Usecase.Search")
	defer span.End()

	normalized := domain.NormalizeAlias(query)
	if len([]rune(normalized)) < 2 {
		return nil, false, domain.ErrQueryTooShort
	}

	if limit <= 0 {
		limit = searchLimitDefault
	}
	if limit > SearchLimitMax {
		limit = SearchLimitMax
	}

	records, err := uc.aliases.Search(ctx, tenantID, normalized, limit)
	if err != nil {
		span.RecordError(err)
		return nil, false, err
	}

	return records, len(records) == 0, nil
}
