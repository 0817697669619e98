package usecase

import (
	"context"
	"time"

	"github.com/mailfold/mailroom/internal/domain"
)

// SiteRepository defines read access to a tenant's sites.
type SiteRepository interface {
	ListActive(ctx context.Context, tenantID string) ([]domain.Site, error)
}

// AliasRepository defines read access to a tenant's alias index. Search
// expects an already-normalized query.
type AliasRepository interface {
	SyncAll(ctx context.Context, tenantID string, since *time.Time, limit int) ([]domain.AliasRecord, error)
	Search(ctx context.Context, tenantID string, query string, limit int) ([]domain.AliasRecord, error)
}

// StagingRepository durably records pending scan events. Stage reports
// whether a new row was created or an existing dedupe winner was returned.
type StagingRepository interface {
	Stage(ctx context.Context, ev domain.StagedScanEvent) (stagingID string, created bool, err error)
	Get(ctx context.Context, tenantID, stagingID string) (domain.StagedScanEvent, error)
}

// UploadSlotIssuer hands out single-use write locations for image bytes and
// lets the storage front redeem them exactly once.
type UploadSlotIssuer interface {
	Issue(ctx context.Context, tenantID, contentType string, ttl time.Duration) (domain.UploadSlot, error)
	Redeem(ctx context.Context, token string) (storageRef, contentType string, err error)
}

// IntakePublisher announces durably staged events to realtime subscribers.
type IntakePublisher interface {
	Publish(ctx context.Context, event domain.IntakeEvent) error
}
