package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/mailfold/mailroom/internal/domain"
)

type mockSlotIssuer struct {
	lastTenant      string
	lastContentType string
	lastTTL         time.Duration
	redeemed        map[string]bool
}

func (m *mockSlotIssuer) Issue(ctx context.Context, tenantID, contentType string, ttl time.Duration) (domain.UploadSlot, error) {
	m.lastTenant = tenantID
	m.lastContentType = contentType
	m.lastTTL = ttl
	return domain.UploadSlot{
		UploadURL:  "https://upload.example.com/slot/abc",
		StorageRef: "scan/" + tenantID + "/abc",
		ExpiresIn:  int(ttl / time.Second),
		MaxSize:    16 << 20,
	}, nil
}

func (m *mockSlotIssuer) Redeem(ctx context.Context, token string) (string, string, error) {
	if m.redeemed == nil {
		m.redeemed = map[string]bool{}
	}
	if token != "abc" || m.redeemed[token] {
		return "", "", domain.ErrNotFound
	}
	m.redeemed[token] = true
	return "scan/" + m.lastTenant + "/abc", m.lastContentType, nil
}

func TestIssueSlotExpiryClamp(t *testing.T) {
	cases := []struct {
		name      string
		requested int
		want      time.Duration
	}{
		{"default", 0, 120 * time.Second},
		{"below minimum", 5, SlotExpiryMin * time.Second},
		{"above maximum", 1000, SlotExpiryMax * time.Second},
		{"in range", 90, 90 * time.Second},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			issuer := &mockSlotIssuer{}
			uc := NewUploadUsecase(issuer)

			slot, err := uc.IssueSlot(context.Background(), "tenant-a", "image/jpeg", tc.requested)
			if err != nil {
				t.Fatalf("issue failed: %v", err)
			}
			if issuer.lastTTL != tc.want {
				t.Errorf("expected ttl %v, got %v", tc.want, issuer.lastTTL)
			}
			if slot.ExpiresIn != int(tc.want/time.Second) {
				t.Errorf("expected expires_in %d, got %d", int(tc.want/time.Second), slot.ExpiresIn)
			}
		})
	}
}

func TestIssueSlotRejectsUnsupportedType(t *testing.T) {
	uc := NewUploadUsecase(&mockSlotIssuer{})

	for _, contentType := range []string{"application/pdf", "text/html", ""} {
		if _, err := uc.IssueSlot(context.Background(), "tenant-a", contentType, 0); !errors.Is(err, domain.ErrUnsupportedContentType) {
			t.Errorf("expected UnsupportedContentType for %q, got %v", contentType, err)
		}
	}
}

func TestRedeemSlotIsSingleUse(t *testing.T) {
	issuer := &mockSlotIssuer{}
	uc := NewUploadUsecase(issuer)

	if _, err := uc.IssueSlot(context.Background(), "tenant-a", "image/jpeg", 0); err != nil {
		t.Fatalf("issue failed: %v", err)
	}

	ref, contentType, err := uc.RedeemSlot(context.Background(), "abc")
	if err != nil {
		t.Fatalf("redeem failed: %v", err)
	}
	if ref != "scan/tenant-a/abc" || contentType != "image/jpeg" {
		t.Fatalf("unexpected redemption %s %s", ref, contentType)
	}

	if _, _, err := uc.RedeemSlot(context.Background(), "abc"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected NotFound on second redemption, got %v", err)
	}
	if _, _, err := uc.RedeemSlot(context.Background(), "never-issued"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected NotFound for an unknown token, got %v", err)
	}
}

func TestIssueSlotScopesStorageRefToTenant(t *testing.T) {
	issuer := &mockSlotIssuer{}
	uc := NewUploadUsecase(issuer)

	slot, err := uc.IssueSlot(context.Background(), "tenant-b", "image/png", 0)
	if err != nil {
		t.Fatalf("issue failed: %v", err)
	}
	if issuer.lastTenant != "tenant-b" {
		t.Fatalf("expected issuer to receive the tenant, got %s", issuer.lastTenant)
	}
	if slot.StorageRef != "scan/tenant-b/abc" {
		t.Fatalf("unexpected storage ref %s", slot.StorageRef)
	}
}
