package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/mailfold/mailroom/internal/domain"
)

type mockDirectory struct {
	accounts map[string]domain.Account
}

func (m *mockDirectory) GetByIdentifier(ctx context.Context, identifier string) (domain.Account, error) {
	account, ok := m.accounts[identifier]
	if !ok {
		return domain.Account{}, domain.ErrNotFound
	}
	return account, nil
}

func newDirectory(t *testing.T) *mockDirectory {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("hunter2"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("bcrypt failed: %v", err)
	}
	return &mockDirectory{
		accounts: map[string]domain.Account{
			"device-7": {
				ID:         "acc-7",
				TenantID:   "tenant-a",
				TenantName: "Acme Operators",
				Identifier: "device-7",
				SecretHash: string(hash),
				SiteIDs:    []string{"site-1"},
				Active:     true,
			},
		},
	}
}

func TestIssueVerifyRoundTrip(t *testing.T) {
	svc := NewTokenService("test-secret", "mailroom", 30*24*time.Hour, newDirectory(t))

	result, err := svc.Issue(context.Background(), "device-7", "hunter2")
	if err != nil {
		t.Fatalf("issue failed: %v", err)
	}
	if result.Credential.TenantID != "tenant-a" {
		t.Fatalf("expected tenant-a, got %s", result.Credential.TenantID)
	}

	cred, err := svc.Verify(context.Background(), result.Token)
	if err != nil {
		t.Fatalf("verify failed: %v", err)
	}
	if cred.Subject != "acc-7" {
		t.Fatalf("expected subject acc-7, got %s", cred.Subject)
	}
	if cred.TenantID != "tenant-a" {
		t.Fatalf("expected tenant-a, got %s", cred.TenantID)
	}
	if len(cred.SiteIDs) != 1 || cred.SiteIDs[0] != "site-1" {
		t.Fatalf("expected site grant to survive the round trip, got %v", cred.SiteIDs)
	}
}

func TestIssueRejectsBadSecret(t *testing.T) {
	svc := NewTokenService("test-secret", "mailroom", time.Hour, newDirectory(t))

	if _, err := svc.Issue(context.Background(), "device-7", "wrong"); !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("expected InvalidCredentials, got %v", err)
	}
	if _, err := svc.Issue(context.Background(), "nobody", "hunter2"); !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("expected InvalidCredentials for unknown identifier, got %v", err)
	}
}

func TestVerifyExpiredToken(t *testing.T) {
	svc := NewTokenService("test-secret", "mailroom", -time.Hour, newDirectory(t))

	result, err := svc.Issue(context.Background(), "device-7", "hunter2")
	if err != nil {
		t.Fatalf("issue failed: %v", err)
	}

	if _, err := svc.Verify(context.Background(), result.Token); !errors.Is(err, domain.ErrExpiredToken) {
		t.Fatalf("expected ExpiredToken, got %v", err)
	}
}

func TestVerifyMalformedToken(t *testing.T) {
	svc := NewTokenService("test-secret", "mailroom", time.Hour, newDirectory(t))

	for _, token := range []string{"", "garbage", "a.b.c"} {
		if _, err := svc.Verify(context.Background(), token); !errors.Is(err, domain.ErrMalformedToken) {
			t.Fatalf("expected MalformedToken for %q, got %v", token, err)
		}
	}
}

func TestVerifyRejectsForeignSignature(t *testing.T) {
	issuer := NewTokenService("secret-one", "mailroom", time.Hour, newDirectory(t))
	verifier := NewTokenService("secret-two", "mailroom", time.Hour, newDirectory(t))

	result, err := issuer.Issue(context.Background(), "device-7", "hunter2")
	if err != nil {
		t.Fatalf("issue failed: %v", err)
	}

	if _, err := verifier.Verify(context.Background(), result.Token); !errors.Is(err, domain.ErrMalformedToken) {
		t.Fatalf("expected MalformedToken for foreign signature, got %v", err)
	}
}
