package domain

// Tenant is the isolation root. Every other entity carries a TenantID that
// must match the credential's tenant.
type Tenant struct {
	ID     string `json:"tenant_id"`
	Name   string `json:"name"`
	Active bool   `json:"active"`
}

// Account is a subject directory entry the token service consults: a device
// or user login bound to one tenant.
type Account struct {
	ID           string
	TenantID     string
	TenantName   string
	Identifier   string
	SecretHash   string
	Capabilities []string
	SiteIDs      []string
	Active       bool
}

// Site is a physical facility belonging to a tenant. Coordinates are
// optional; sites without them are invisible to the geofence.
type Site struct {
	ID        string   `json:"site_id"`
	TenantID  string   `json:"tenant_id"`
	Name      string   `json:"name"`
	Latitude  *float64 `json:"latitude,omitempty"`
	Longitude *float64 `json:"longitude,omitempty"`
	Active    bool     `json:"active"`
}

// SiteCandidate is a geofence result: a site plus its distance from the
// query point, in statute miles.
type SiteCandidate struct {
	Site          Site    `json:"site"`
	DistanceMiles float64 `json:"distance_miles"`
}
