package service

import (
	"context"
	"log/slog"

	"github.com/mailfold/mailroom/internal/domain"
)

// AuthoritativeTenant resolves the tenant id every downstream component must
// use. When the request asserts a tenant that differs from the credential's,
// the call fails; when it asserts none, the credential's tenant is injected.
// Client input is never authoritative.
func AuthoritativeTenant(ctx context.Context, cred domain.Credential, claimed string) (string, error) {
	if claimed != "" && claimed != cred.TenantID {
		slog.WarnContext(
			ctx, "tenant mismatch rejected",
			slog.String("subject", cred.Subject),
			slog.String("credentialTenant", cred.TenantID),
			slog.String("claimedTenant", claimed),
			slog.String("module", "guard"),
		)
		return "", domain.ErrTenantMismatch
	}
	return cred.TenantID, nil
}

// AuthorizeCapability requires the credential to carry the given role tag.
func AuthorizeCapability(ctx context.Context, cred domain.Credential, tag string) error {
	if cred.HasCapability(tag) {
		return nil
	}
	slog.WarnContext(
		ctx, "capability check rejected",
		slog.String("subject", cred.Subject),
		slog.String("tenant", cred.TenantID),
		slog.String("capability", tag),
		slog.String("module", "guard"),
	)
	return domain.ErrMissingCapability
}

// AuthorizeSite enforces the credential's site grant list, when it has one.
func AuthorizeSite(ctx context.Context, cred domain.Credential, siteID string) error {
	if cred.GrantsSite(siteID) {
		return nil
	}
	slog.WarnContext(
		ctx, "site access rejected",
		slog.String("subject", cred.Subject),
		slog.String("tenant", cred.TenantID),
		slog.String("site", siteID),
		slog.String("module", "guard"),
	)
	return domain.ErrForbiddenSite
}
