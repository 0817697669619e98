package domain

import "time"

// AliasRecord is a known text variant of a company name mapped to a
// destination mailbox. Written by the administrative review workflow (out of
// scope); this service reads them for sync and search only.
//
// CompanyName and MailboxLabel are denormalized for the device cache so a
// disconnected client can render matches without further lookups.
type AliasRecord struct {
	ID             string    `json:"alias_id"`
	TenantID       string    `json:"tenant_id"`
	CompanyID      string    `json:"company_id"`
	CompanyName    string    `json:"company_name"`
	AliasText      string    `json:"alias_text"`
	NormalizedText string    `json:"normalized_text"`
	AliasKind      string    `json:"alias_kind"`
	MailboxID      string    `json:"mailbox_id"`
	MailboxLabel   string    `json:"mailbox_label"`
	Active         bool      `json:"active"`
	UpdatedAt      time.Time `json:"updated_at"`
}
