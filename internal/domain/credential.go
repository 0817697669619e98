package domain

import (
	"slices"
	"time"
)

// Credential binds a subject to exactly one tenant for the lifetime of a
// token. It is immutable once issued; every request re-derives it from the
// bearer token, never from the request body.
type Credential struct {
	Subject      string    `json:"sub"`
	TenantID     string    `json:"tenant_id"`
	Capabilities []string  `json:"capabilities,omitempty"`
	SiteIDs      []string  `json:"site_ids,omitempty"`
	IssuedAt     time.Time `json:"issued_at"`
	ExpiresAt    time.Time `json:"expires_at"`
}

// HasCapability reports whether the credential carries the given role tag.
func (c Credential) HasCapability(tag string) bool {
	return slices.Contains(c.Capabilities, tag)
}

// GrantsSite reports whether the credential may touch the given site. An
// empty grant list means all of the tenant's sites.
func (c Credential) GrantsSite(siteID string) bool {
	if len(c.SiteIDs) == 0 {
		return true
	}
	return slices.Contains(c.SiteIDs, siteID)
}
