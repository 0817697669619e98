package domain

import "time"

// ScanEventInput is the client-supplied payload for one photographed mail
// piece. TenantID and SubmittedBy are never taken from here; the guard and
// the credential supply them.
type ScanEventInput struct {
	TenantID              string   `json:"tenant_id,omitempty"`
	SiteID                string   `json:"site_id"`
	CapturedImageRef      string   `json:"captured_image_ref"`
	RecognizedText        *string  `json:"recognized_text,omitempty"`
	RecognitionConfidence *float64 `json:"recognition_confidence,omitempty"`
	ResolvedMailboxID     *string  `json:"resolved_mailbox_id,omitempty"`
	ResolutionConfidence  *float64 `json:"resolution_confidence,omitempty"`
	ResolutionMethod      string   `json:"resolution_method,omitempty"`
	PackageKind           string   `json:"package_kind,omitempty"`
	Carrier               *string  `json:"carrier,omitempty"`
	TrackingNumber        *string  `json:"tracking_number,omitempty"`
	ClientDedupeKey       *string  `json:"client_dedupe_key,omitempty"`
	CapturedAt            *int64   `json:"captured_at,omitempty"`
}

// StagedScanEvent is the durable pending unit of work the intake pipeline
// creates. It is never mutated here after creation; the reconciliation
// worker owns validation_status transitions and eventual archival.
type StagedScanEvent struct {
	StagingID             string    `json:"staging_id"`
	TenantID              string    `json:"tenant_id"`
	SiteID                *string   `json:"site_id,omitempty"`
	SubmittedBy           string    `json:"submitted_by"`
	CapturedImageRef      string    `json:"captured_image_ref"`
	RecognizedText        *string   `json:"recognized_text,omitempty"`
	RecognitionConfidence *float64  `json:"recognition_confidence,omitempty"`
	ResolvedMailboxID     *string   `json:"resolved_mailbox_id,omitempty"`
	ResolutionConfidence  *float64  `json:"resolution_confidence,omitempty"`
	ResolutionMethod      string    `json:"resolution_method"`
	PackageKind           string    `json:"package_kind"`
	Carrier               *string   `json:"carrier,omitempty"`
	TrackingNumber        *string   `json:"tracking_number,omitempty"`
	ClientDedupeKey       *string   `json:"client_dedupe_key,omitempty"`
	CapturedAt            time.Time `json:"captured_at"`
	ValidationStatus      string    `json:"validation_status"`
	RawPayload            []byte    `json:"-"`
	PayloadHash           string    `json:"-"`
}

// BatchItem is one entry of a batch intake call, correlated by the
// caller-supplied client id.
type BatchItem struct {
	ClientID string         `json:"client_id"`
	Event    ScanEventInput `json:"event"`
}

// BatchItemResult is the per-item ledger entry. Ephemeral; never persisted.
type BatchItemResult struct {
	ClientID  string `json:"client_id"`
	Outcome   string `json:"outcome"`
	StagingID string `json:"staging_id,omitempty"`
	ErrorCode string `json:"error_code,omitempty"`
	Message   string `json:"message,omitempty"`
}

// BatchSummary totals a batch call.
type BatchSummary struct {
	Total    int `json:"total"`
	Accepted int `json:"accepted"`
	Rejected int `json:"rejected"`
}

// UploadSlot is a short-lived, single-use write location for raw image
// bytes. Image bytes never pass through this service's request body.
type UploadSlot struct {
	UploadURL  string `json:"upload_url"`
	StorageRef string `json:"storage_ref"`
	ExpiresIn  int    `json:"expires_in"`
	MaxSize    int64  `json:"max_size"`
}

// IntakeEvent is the acknowledgment published on the tenant's realtime
// channel after a staged event is durably recorded.
type IntakeEvent struct {
	StagingID string    `json:"staging_id"`
	TenantID  string    `json:"tenant_id"`
	SiteID    *string   `json:"site_id,omitempty"`
	StagedAt  time.Time `json:"staged_at"`
}
