package repository

import (
	"context"
	"errors"
	"fmt"

	pkgerrors "github.com/pkg/errors"
	"github.com/zeebo/xxh3"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/mailfold/mailroom/internal/domain"
	"github.com/mailfold/mailroom/internal/infra/database/models"
)

type StagingRepository struct {
	db *gorm.DB
}

func NewStagingRepository(db *gorm.DB) *StagingRepository {
	return &StagingRepository{db: db}
}

// Stage durably records a pending scan event. When the event carries a
// dedupe key and a row with the same (tenant, key) already exists, the
// existing staging id is returned with created=false. The unique index makes
// the check-and-insert race-safe: of two concurrent submissions one insert
// wins and the other observes it.
func (r *StagingRepository) Stage(ctx context.Context, ev domain.StagedScanEvent) (string, bool, error) {

	row := models.StagedScanEvent{
		StagingID:             ev.StagingID,
		TenantID:              ev.TenantID,
		SiteID:                ev.SiteID,
		SubmittedBy:           ev.SubmittedBy,
		CapturedImageRef:      ev.CapturedImageRef,
		RecognizedText:        ev.RecognizedText,
		RecognitionConfidence: ev.RecognitionConfidence,
		ResolvedMailboxID:     ev.ResolvedMailboxID,
		ResolutionConfidence:  ev.ResolutionConfidence,
		ResolutionMethod:      ev.ResolutionMethod,
		PackageKind:           ev.PackageKind,
		Carrier:               ev.Carrier,
		TrackingNumber:        ev.TrackingNumber,
		ClientDedupeKey:       ev.ClientDedupeKey,
		CapturedAt:            ev.CapturedAt,
		ValidationStatus:      domain.ValidationPending,
		RawPayload:            ev.RawPayload,
	}
	if len(ev.RawPayload) > 0 {
		row.PayloadHash = fmt.Sprintf("%016x", xxh3.Hash(ev.RawPayload))
	}

	result := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "tenant_id"}, {Name: "client_dedupe_key"}},
		DoNothing: true,
	}).Create(&row)
	if result.Error != nil {
		return "", false, pkgerrors.Wrap(result.Error, "staged event insert failed")
	}

	if result.RowsAffected > 0 {
		return row.StagingID, true, nil
	}

	// Insert was skipped: a row with this dedupe key won the race earlier.
	if ev.ClientDedupeKey == nil {
		return "", false, pkgerrors.New("staged event insert affected no rows without a dedupe key")
	}

	var existing models.StagedScanEvent
	err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND client_dedupe_key = ?", ev.TenantID, *ev.ClientDedupeKey).
		Take(&existing).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", false, domain.ErrNotFound
		}
		return "", false, pkgerrors.Wrap(err, "staged event dedupe lookup failed")
	}

	return existing.StagingID, false, nil
}

// Get fetches a staged event within the tenant boundary.
func (r *StagingRepository) Get(ctx context.Context, tenantID, stagingID string) (domain.StagedScanEvent, error) {

	var row models.StagedScanEvent
	err := r.db.WithContext(ctx).
		Where("staging_id = ? AND tenant_id = ?", stagingID, tenantID).
		Take(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.StagedScanEvent{}, domain.ErrNotFound
		}
		return domain.StagedScanEvent{}, pkgerrors.Wrap(err, "staged event lookup failed")
	}

	return domain.StagedScanEvent{
		StagingID:             row.StagingID,
		TenantID:              row.TenantID,
		SiteID:                row.SiteID,
		SubmittedBy:           row.SubmittedBy,
		CapturedImageRef:      row.CapturedImageRef,
		RecognizedText:        row.RecognizedText,
		RecognitionConfidence: row.RecognitionConfidence,
		ResolvedMailboxID:     row.ResolvedMailboxID,
		ResolutionConfidence:  row.ResolutionConfidence,
		ResolutionMethod:      row.ResolutionMethod,
		PackageKind:           row.PackageKind,
		Carrier:               row.Carrier,
		TrackingNumber:        row.TrackingNumber,
		ClientDedupeKey:       row.ClientDedupeKey,
		CapturedAt:            row.CapturedAt,
		ValidationStatus:      row.ValidationStatus,
		RawPayload:            row.RawPayload,
		PayloadHash:           row.PayloadHash,
	}, nil
}
