package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/mailfold/mailroom/internal/domain"
)

type mockStagingRepo struct {
	rows     map[string]domain.StagedScanEvent // keyed by staging id
	byDedupe map[string]string                 // tenant|key -> staging id
	failNext error
}

func newMockStagingRepo() *mockStagingRepo {
	return &mockStagingRepo{
		rows:     map[string]domain.StagedScanEvent{},
		byDedupe: map[string]string{},
	}
}

func (m *mockStagingRepo) Stage(ctx context.Context, ev domain.StagedScanEvent) (string, bool, error) {
	if m.failNext != nil {
		err := m.failNext
		m.failNext = nil
		return "", false, err
	}
	if ev.ClientDedupeKey != nil {
		key := ev.TenantID + "|" + *ev.ClientDedupeKey
		if existing, ok := m.byDedupe[key]; ok {
			return existing, false, nil
		}
		m.byDedupe[key] = ev.StagingID
	}
	m.rows[ev.StagingID] = ev
	return ev.StagingID, true, nil
}

func (m *mockStagingRepo) Get(ctx context.Context, tenantID, stagingID string) (domain.StagedScanEvent, error) {
	row, ok := m.rows[stagingID]
	if !ok || row.TenantID != tenantID {
		return domain.StagedScanEvent{}, domain.ErrNotFound
	}
	return row, nil
}

type mockPublisher struct {
	events []domain.IntakeEvent
}

func (m *mockPublisher) Publish(ctx context.Context, event domain.IntakeEvent) error {
	m.events = append(m.events, event)
	return nil
}

func validEvent() domain.ScanEventInput {
	return domain.ScanEventInput{
		SiteID:           "site-1",
		CapturedImageRef: "scan/tenant-a/img-1",
		PackageKind:      "parcel",
	}
}

func deviceCred() domain.Credential {
	return domain.Credential{Subject: "acc-7", TenantID: "tenant-a"}
}

func TestStageOnePersistsPending(t *testing.T) {
	repo := newMockStagingRepo()
	pub := &mockPublisher{}
	uc := NewStagingUsecase(repo, pub)

	stagingID, err := uc.StageOne(context.Background(), deviceCred(), validEvent())
	if err != nil {
		t.Fatalf("stage failed: %v", err)
	}
	if stagingID == "" {
		t.Fatalf("expected a staging id")
	}

	row, ok := repo.rows[stagingID]
	if !ok {
		t.Fatalf("expected a persisted row")
	}
	if row.ValidationStatus != domain.ValidationPending {
		t.Fatalf("expected pending, got %s", row.ValidationStatus)
	}
	if row.TenantID != "tenant-a" {
		t.Fatalf("expected credential tenant, got %s", row.TenantID)
	}
	if row.SubmittedBy != "acc-7" {
		t.Fatalf("expected submitter from credential, got %s", row.SubmittedBy)
	}
	if row.ResolutionMethod != domain.ResolutionUnresolved {
		t.Fatalf("expected unresolved default, got %s", row.ResolutionMethod)
	}
	if len(pub.events) != 1 || pub.events[0].StagingID != stagingID {
		t.Fatalf("expected one acknowledgment for %s, got %+v", stagingID, pub.events)
	}
}

func TestStageOneIgnoresClientTenant(t *testing.T) {
	uc := NewStagingUsecase(newMockStagingRepo(), nil)

	event := validEvent()
	event.TenantID = "tenant-b"

	if _, err := uc.StageOne(context.Background(), deviceCred(), event); !errors.Is(err, domain.ErrTenantMismatch) {
		t.Fatalf("expected TenantMismatch, got %v", err)
	}
}

func TestStageOneMissingFields(t *testing.T) {
	uc := NewStagingUsecase(newMockStagingRepo(), nil)

	noSite := validEvent()
	noSite.SiteID = ""
	_, err := uc.StageOne(context.Background(), deviceCred(), noSite)
	if !errors.Is(err, domain.ErrMissingRequiredField) {
		t.Fatalf("expected MissingRequiredField, got %v", err)
	}
	if !strings.Contains(err.Error(), "site_id") {
		t.Fatalf("expected the error to name site_id, got %q", err.Error())
	}

	noImage := validEvent()
	noImage.CapturedImageRef = ""
	_, err = uc.StageOne(context.Background(), deviceCred(), noImage)
	if !errors.Is(err, domain.ErrMissingRequiredField) {
		t.Fatalf("expected MissingRequiredField, got %v", err)
	}
	if !strings.Contains(err.Error(), "captured_image_ref") {
		t.Fatalf("expected the error to name captured_image_ref, got %q", err.Error())
	}
}

func TestStageOneEnforcesSiteGrants(t *testing.T) {
	uc := NewStagingUsecase(newMockStagingRepo(), nil)

	cred := deviceCred()
	cred.SiteIDs = []string{"site-9"}

	if _, err := uc.StageOne(context.Background(), cred, validEvent()); !errors.Is(err, domain.ErrForbiddenSite) {
		t.Fatalf("expected ForbiddenSite, got %v", err)
	}
}

func TestStageOneIdempotentOnDedupeKey(t *testing.T) {
	repo := newMockStagingRepo()
	pub := &mockPublisher{}
	uc := NewStagingUsecase(repo, pub)

	key := "device-7:capture-42"
	event := validEvent()
	event.ClientDedupeKey = &key

	first, err := uc.StageOne(context.Background(), deviceCred(), event)
	if err != nil {
		t.Fatalf("first stage failed: %v", err)
	}
	second, err := uc.StageOne(context.Background(), deviceCred(), event)
	if err != nil {
		t.Fatalf("second stage failed: %v", err)
	}

	if first != second {
		t.Fatalf("expected the same staging id, got %s and %s", first, second)
	}
	if len(repo.rows) != 1 {
		t.Fatalf("expected exactly one row, got %d", len(repo.rows))
	}
	if len(pub.events) != 1 {
		t.Fatalf("expected one acknowledgment for the deduped pair, got %d", len(pub.events))
	}
}

func TestGetStagedHonorsTenantBoundary(t *testing.T) {
	repo := newMockStagingRepo()
	uc := NewStagingUsecase(repo, nil)

	stagingID, err := uc.StageOne(context.Background(), deviceCred(), validEvent())
	if err != nil {
		t.Fatalf("stage failed: %v", err)
	}

	event, err := uc.GetStaged(context.Background(), deviceCred(), stagingID)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if event.StagingID != stagingID {
		t.Fatalf("expected %s, got %s", stagingID, event.StagingID)
	}

	foreign := domain.Credential{Subject: "acc-9", TenantID: "tenant-b"}
	if _, err := uc.GetStaged(context.Background(), foreign, stagingID); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected NotFound across the tenant boundary, got %v", err)
	}
}

func TestStageBatchPartialFailure(t *testing.T) {
	uc := NewStagingUsecase(newMockStagingRepo(), nil)

	bad := validEvent()
	bad.CapturedImageRef = ""

	items := []domain.BatchItem{
		{ClientID: "c-1", Event: validEvent()},
		{ClientID: "c-2", Event: bad},
		{ClientID: "c-3", Event: validEvent()},
	}

	summary, results, err := uc.StageBatch(context.Background(), deviceCred(), items)
	if err != nil {
		t.Fatalf("batch failed: %v", err)
	}

	if summary.Total != 3 || summary.Accepted != 2 || summary.Rejected != 1 {
		t.Fatalf("expected {3 2 1}, got %+v", summary)
	}
	if len(results) != 3 {
		t.Fatalf("expected one ledger entry per item, got %d", len(results))
	}
	for i, clientID := range []string{"c-1", "c-2", "c-3"} {
		if results[i].ClientID != clientID {
			t.Fatalf("expected ledger order to follow submission order, got %+v", results)
		}
	}
	if results[1].Outcome != domain.OutcomeRejected {
		t.Fatalf("expected c-2 rejected, got %+v", results[1])
	}
	if results[1].ErrorCode != domain.ErrMissingRequiredField.Code {
		t.Fatalf("expected missing_required_field, got %s", results[1].ErrorCode)
	}
	if results[0].StagingID == "" || results[2].StagingID == "" {
		t.Fatalf("expected staging ids on accepted items, got %+v", results)
	}
}

func TestStageBatchStoreFailureDoesNotAbort(t *testing.T) {
	repo := newMockStagingRepo()
	uc := NewStagingUsecase(repo, nil)

	repo.failNext = fmt.Errorf("store unavailable")

	items := []domain.BatchItem{
		{ClientID: "c-1", Event: validEvent()},
		{ClientID: "c-2", Event: validEvent()},
	}

	summary, results, err := uc.StageBatch(context.Background(), deviceCred(), items)
	if err != nil {
		t.Fatalf("batch failed: %v", err)
	}
	if summary.Accepted != 1 || summary.Rejected != 1 {
		t.Fatalf("expected the second item to survive the first's store failure, got %+v", summary)
	}
	if results[0].ErrorCode != "internal_error" {
		t.Fatalf("expected internal_error for the store failure, got %s", results[0].ErrorCode)
	}
}

func TestStageBatchSizeLimits(t *testing.T) {
	uc := NewStagingUsecase(newMockStagingRepo(), nil)

	if _, _, err := uc.StageBatch(context.Background(), deviceCred(), nil); !errors.Is(err, domain.ErrEmptyBatch) {
		t.Fatalf("expected EmptyBatch, got %v", err)
	}

	oversized := make([]domain.BatchItem, BatchLimit+1)
	for i := range oversized {
		oversized[i] = domain.BatchItem{ClientID: fmt.Sprintf("c-%d", i), Event: validEvent()}
	}
	if _, _, err := uc.StageBatch(context.Background(), deviceCred(), oversized); !errors.Is(err, domain.ErrBatchTooLarge) {
		t.Fatalf("expected BatchTooLarge, got %v", err)
	}
}
