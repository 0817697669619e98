package usecase

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/mailfold/mailroom/internal/domain"
)

type mockAliasRepo struct {
	records    []domain.AliasRecord
	lastQuery  string
	lastLimit  int
	lastSince  *time.Time
	lastTenant string
}

func (m *mockAliasRepo) SyncAll(ctx context.Context, tenantID string, since *time.Time, limit int) ([]domain.AliasRecord, error) {
	m.lastTenant = tenantID
	m.lastSince = since
	m.lastLimit = limit
	out := []domain.AliasRecord{}
	for _, r := range m.records {
		if r.TenantID != tenantID || !r.Active {
			continue
		}
		if since != nil && r.UpdatedAt.Before(*since) {
			continue
		}
		out = append(out, r)
	}
	return out, nil
}

func (m *mockAliasRepo) Search(ctx context.Context, tenantID string, query string, limit int) ([]domain.AliasRecord, error) {
	m.lastTenant = tenantID
	m.lastQuery = query
	m.lastLimit = limit
	out := []domain.AliasRecord{}
	for _, r := range m.records {
		if r.TenantID != tenantID || !r.Active {
			continue
		}
		if strings.Contains(r.NormalizedText, query) {
			out = append(out, r)
		}
	}
	return out, nil
}

func aliasFixture() *mockAliasRepo {
	return &mockAliasRepo{records: []domain.AliasRecord{
		{
			ID:             "alias-1",
			TenantID:       "tenant-a",
			CompanyID:      "co-1",
			CompanyName:    "Acme Corp",
			AliasText:      "Acme Corp",
			NormalizedText: "acme corp",
			AliasKind:      domain.AliasKindPrimary,
			MailboxID:      "mb-1",
			MailboxLabel:   "101",
			Active:         true,
			UpdatedAt:      time.Now(),
		},
	}}
}

func TestSearchNormalizesQuery(t *testing.T) {
	repo := aliasFixture()
	uc := NewAliasUsecase(repo)

	results, promptRefresh, err := uc.Search(context.Background(), "tenant-a", "ACME  corp", 10)
	if err != nil {
		t.Fatalf("search failed: %v", err)
	}
	if repo.lastQuery != "acme corp" {
		t.Fatalf("expected normalized query %q, got %q", "acme corp", repo.lastQuery)
	}
	if len(results) != 1 || results[0].ID != "alias-1" {
		t.Fatalf("expected alias-1, got %+v", results)
	}
	if promptRefresh {
		t.Fatalf("did not expect promptRefresh with results present")
	}
}

func TestSearchQueryTooShort(t *testing.T) {
	uc := NewAliasUsecase(aliasFixture())

	for _, q := range []string{"", "a", "  a  ", "\tA\n"} {
		if _, _, err := uc.Search(context.Background(), "tenant-a", q, 10); !errors.Is(err, domain.ErrQueryTooShort) {
			t.Fatalf("expected QueryTooShort for %q, got %v", q, err)
		}
	}
}

func TestSearchLimitClamp(t *testing.T) {
	repo := aliasFixture()
	uc := NewAliasUsecase(repo)

	if _, _, err := uc.Search(context.Background(), "tenant-a", "acme", 500); err != nil {
		t.Fatalf("search failed: %v", err)
	}
	if repo.lastLimit != SearchLimitMax {
		t.Fatalf("expected limit clamped to %d, got %d", SearchLimitMax, repo.lastLimit)
	}

	if _, _, err := uc.Search(context.Background(), "tenant-a", "acme", 0); err != nil {
		t.Fatalf("search failed: %v", err)
	}
	if repo.lastLimit != searchLimitDefault {
		t.Fatalf("expected default limit %d, got %d", searchLimitDefault, repo.lastLimit)
	}
}

func TestSearchPromptsRefreshOnEmpty(t *testing.T) {
	uc := NewAliasUsecase(aliasFixture())

	results, promptRefresh, err := uc.Search(context.Background(), "tenant-a", "unknown co", 10)
	if err != nil {
		t.Fatalf("search failed: %v", err)
	}
	if len(results) != 0 {
		t.Fatalf("expected no results, got %+v", results)
	}
	if !promptRefresh {
		t.Fatalf("expected promptRefresh on empty result")
	}
}

func TestSyncAppliesCapAndSince(t *testing.T) {
	repo := aliasFixture()
	uc := NewAliasUsecase(repo)

	since := time.Now().Add(-time.Hour)
	records, err := uc.Sync(context.Background(), "tenant-a", &since)
	if err != nil {
		t.Fatalf("sync failed: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("expected the fresh alias, got %d records", len(records))
	}
	if repo.lastLimit != SyncCap {
		t.Fatalf("expected sync cap %d, got %d", SyncCap, repo.lastLimit)
	}
	if repo.lastSince == nil || !repo.lastSince.Equal(since) {
		t.Fatalf("expected since to be passed through")
	}
}

func TestSyncThenSearchRoundTrip(t *testing.T) {
	repo := aliasFixture()
	uc := NewAliasUsecase(repo)

	synced, err := uc.Sync(context.Background(), "tenant-a", nil)
	if err != nil {
		t.Fatalf("sync failed: %v", err)
	}

	results, _, err := uc.Search(context.Background(), "tenant-a", "Acme Corp", 10)
	if err != nil {
		t.Fatalf("search failed: %v", err)
	}

	if len(synced) != 1 || len(results) != 1 || synced[0].ID != results[0].ID {
		t.Fatalf("expected the same alias from sync and search, got %+v vs %+v", synced, results)
	}
}
