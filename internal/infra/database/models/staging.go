package models

import (
	"time"
)

// StagedScanEvent rows are insert-only from this service's point of view.
// The (tenant_id, client_dedupe_key) unique index is what makes intake
// idempotent under client retry; NULL dedupe keys are exempt.
type StagedScanEvent struct {
	StagingID             string    `json:"stagingID" gorm:"primaryKey;type:text"`
	TenantID              string    `json:"tenantID" gorm:"type:text;index;uniqueIndex:uniq_tenant_dedupe;not null"`
	Tenant                Tenant    `json:"-" gorm:"constraint:OnDelete:CASCADE;"`
	SiteID                *string   `json:"siteID" gorm:"type:text;index"`
	SubmittedBy           string    `json:"submittedBy" gorm:"type:text;not null"`
	CapturedImageRef      string    `json:"capturedImageRef" gorm:"type:text;not null"`
	RecognizedText        *string   `json:"recognizedText" gorm:"type:text"`
	RecognitionConfidence *float64  `json:"recognitionConfidence" gorm:"type:double precision"`
	ResolvedMailboxID     *string   `json:"resolvedMailboxID" gorm:"type:text"`
	ResolutionConfidence  *float64  `json:"resolutionConfidence" gorm:"type:double precision"`
	ResolutionMethod      string    `json:"resolutionMethod" gorm:"type:text;not null"`
	PackageKind           string    `json:"packageKind" gorm:"type:text"`
	Carrier               *string   `json:"carrier" gorm:"type:text"`
	TrackingNumber        *string   `json:"trackingNumber" gorm:"type:text"`
	ClientDedupeKey       *string   `json:"clientDedupeKey" gorm:"type:text;uniqueIndex:uniq_tenant_dedupe"`
	CapturedAt            time.Time `json:"capturedAt" gorm:"type:timestamp with time zone;not null"`
	ValidationStatus      string    `json:"validationStatus" gorm:"type:text;not null;default:'pending';index"`
	RawPayload            []byte    `json:"rawPayload" gorm:"type:bytea"`
	PayloadHash           string    `json:"payloadHash" gorm:"type:text"`
	CDate                 time.Time `json:"cdate" gorm:"->;<-:create;type:timestamp with time zone;not null;default:clock_timestamp()"`
}
