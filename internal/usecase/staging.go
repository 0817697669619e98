package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/mailfold/mailroom/internal/domain"
	"github.com/mailfold/mailroom/internal/service"
)

// BatchLimit is the maximum number of items a single batch call may carry.
const BatchLimit = 50

type StagingUsecase struct {
	events StagingRepository
	signal IntakePublisher
}

// NewStagingUsecase builds the intake pipeline. signal may be nil; intake
// then runs without realtime acknowledgments.
func NewStagingUsecase(events StagingRepository, signal IntakePublisher) *StagingUsecase {
	return &StagingUsecase{
		events: events,
		signal: signal,
	}
}

// StageOne validates and durably records a single scan event, returning the
// server-assigned staging id as soon as the row is queued. No matching or
// reconciliation happens before the call returns; the reconciliation worker
// drains the staged rows later.
//
// When the payload carries a dedupe key the call is idempotent: a retry with
// the same key returns the first submission's staging id.
func (uc *StagingUsecase) StageOne(ctx context.Context, cred domain.Credential, input domain.ScanEventInput) (string, error) {
	ctx, span := tracer.Start(ctx, "Staging.Usecase.StageOne")
	defer span.End()

	// Items may re-assert a tenant; it must agree with the credential.
	tenantID, err := service.AuthoritativeTenant(ctx, cred, input.TenantID)
	if err != nil {
		return "", err
	}

	if input.SiteID == "" {
		return "", domain.MissingField("site_id")
	}
	if input.CapturedImageRef == "" {
		return "", domain.MissingField("captured_image_ref")
	}

	if err := service.AuthorizeSite(ctx, cred, input.SiteID); err != nil {
		return "", err
	}

	method := input.ResolutionMethod
	if method == "" {
		method = domain.ResolutionUnresolved
	}

	capturedAt := time.Now().UTC()
	if input.CapturedAt != nil {
		capturedAt = time.Unix(*input.CapturedAt, 0).UTC()
	}

	raw, err := json.Marshal(input)
	if err != nil {
		span.RecordError(err)
		return "", err
	}

	siteID := input.SiteID
	event := domain.StagedScanEvent{
		StagingID:             uuid.NewString(),
		TenantID:              tenantID,
		SiteID:                &siteID,
		SubmittedBy:           cred.Subject,
		CapturedImageRef:      input.CapturedImageRef,
		RecognizedText:        input.RecognizedText,
		RecognitionConfidence: input.RecognitionConfidence,
		ResolvedMailboxID:     input.ResolvedMailboxID,
		ResolutionConfidence:  input.ResolutionConfidence,
		ResolutionMethod:      method,
		PackageKind:           input.PackageKind,
		Carrier:               input.Carrier,
		TrackingNumber:        input.TrackingNumber,
		ClientDedupeKey:       input.ClientDedupeKey,
		CapturedAt:            capturedAt,
		ValidationStatus:      domain.ValidationPending,
		RawPayload:            raw,
	}

	stagingID, created, err := uc.events.Stage(ctx, event)
	if err != nil {
		span.RecordError(err)
		return "", err
	}

	if created && uc.signal != nil {
		ack := domain.IntakeEvent{
			StagingID: stagingID,
			TenantID:  tenantID,
			SiteID:    &siteID,
			StagedAt:  time.Now().UTC(),
		}
		// The acknowledgment feed is best-effort; a publish failure must
		// never fail an intake that is already durable.
		if err := uc.signal.Publish(ctx, ack); err != nil {
			slog.ErrorContext(
				ctx, "intake acknowledgment publish failed",
				slog.String("error", err.Error()),
				slog.String("stagingID", stagingID),
				slog.String("module", "staging"),
			)
		}
	}

	return stagingID, nil
}

// GetStaged fetches one staged event within the credential's tenant
// boundary, so a device can re-check an acknowledgment after a retry.
func (uc *StagingUsecase) GetStaged(ctx context.Context, cred domain.Credential, stagingID string) (domain.StagedScanEvent, error) {
	ctx, span := tracer.Start(ctx, "Staging.Usecase.GetStaged")
	defer span.End()

	event, err := uc.events.Get(ctx, cred.TenantID, stagingID)
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			span.RecordError(err)
		}
		return domain.StagedScanEvent{}, err
	}
	return event, nil
}

// StageBatch attempts every item in order, isolating failures: one item's
// rejection never aborts the rest. The ledger is keyed by the caller's
// client ids and always has one entry per submitted item.
func (uc *StagingUsecase) StageBatch(ctx context.Context, cred domain.Credential, items []domain.BatchItem) (domain.BatchSummary, []domain.BatchItemResult, error) {
	ctx, span := tracer.Start(ctx, "Staging.Usecase.StageBatch")
	defer span.End()

	if len(items) == 0 {
		return domain.BatchSummary{}, nil, domain.ErrEmptyBatch
	}
	if len(items) > BatchLimit {
		return domain.BatchSummary{}, nil, domain.ErrBatchTooLarge
	}

	summary := domain.BatchSummary{Total: len(items)}
	results := make([]domain.BatchItemResult, 0, len(items))

	for _, item := range items {
		stagingID, err := uc.StageOne(ctx, cred, item.Event)
		if err != nil {
			summary.Rejected++
			results = append(results, domain.BatchItemResult{
				ClientID:  item.ClientID,
				Outcome:   domain.OutcomeRejected,
				ErrorCode: errorCode(err),
				Message:   err.Error(),
			})
			continue
		}
		summary.Accepted++
		results = append(results, domain.BatchItemResult{
			ClientID:  item.ClientID,
			Outcome:   domain.OutcomeAccepted,
			StagingID: stagingID,
		})
	}

	return summary, results, nil
}

func errorCode(err error) string {
	var coded domain.Error
	if errors.As(err, &coded) {
		return coded.Code
	}
	return "internal_error"
}
