package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/bradfitz/gomemcache/memcache"
	pkgerrors "github.com/pkg/errors"
	"gorm.io/gorm"

	"github.com/mailfold/mailroom/internal/domain"
	"github.com/mailfold/mailroom/internal/infra/database/models"
)

const siteCacheTTL = 60 // seconds

type SiteRepository struct {
	db *gorm.DB
	mc *memcache.Client
}

// NewSiteRepository builds the site store. mc may be nil, in which case every
// read goes to postgres.
func NewSiteRepository(db *gorm.DB, mc *memcache.Client) *SiteRepository {
	return &SiteRepository{db: db, mc: mc}
}

// ListActive returns the tenant's active sites, cache-aside through
// memcached. The geofence consults this on every detect call, and site lists
// change rarely, so a short TTL is enough.
func (r *SiteRepository) ListActive(ctx context.Context, tenantID string) ([]domain.Site, error) {

	cacheKey := fmt.Sprintf("sites:%s", tenantID)

	if r.mc != nil {
		if item, err := r.mc.Get(cacheKey); err == nil {
			var sites []domain.Site
			if err := json.Unmarshal(item.Value, &sites); err == nil {
				return sites, nil
			}
		}
	}

	var rows []models.Site
	err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND active = ?", tenantID, true).
		Order("id").
		Find(&rows).Error
	if err != nil {
		return nil, pkgerrors.Wrap(err, "site listing failed")
	}

	sites := make([]domain.Site, 0, len(rows))
	for _, row := range rows {
		sites = append(sites, domain.Site{
			ID:        row.ID,
			TenantID:  row.TenantID,
			Name:      row.Name,
			Latitude:  row.Latitude,
			Longitude: row.Longitude,
			Active:    row.Active,
		})
	}

	if r.mc != nil {
		if serialized, err := json.Marshal(sites); err == nil {
			if err := r.mc.Set(&memcache.Item{
				Key:        cacheKey,
				Value:      serialized,
				Expiration: siteCacheTTL,
			}); err != nil {
				slog.DebugContext(
					ctx, "site cache set failed",
					slog.String("error", err.Error()),
					slog.String("module", "repository"),
				)
			}
		}
	}

	return sites, nil
}
