package domain

// CredentialCtxKey carries the verified credential from the auth middleware
// to the handlers.
const CredentialCtxKey = "mr-credential"

// ResolutionMethod describes how a staged event got its mailbox, if any.
const (
	ResolutionAutomaticTextMatch = "automatic-text-match"
	ResolutionManualSearch       = "manual-search"
	ResolutionUnresolved         = "unresolved"
)

// ValidationStatus values for staged scan events. This service only ever
// writes "pending"; the reconciliation worker owns the transitions.
const (
	ValidationPending  = "pending"
	ValidationAccepted = "accepted"
	ValidationRejected = "rejected"
)

// Batch item outcomes.
const (
	OutcomeAccepted = "accepted"
	OutcomeRejected = "rejected"
)

// CapabilityStorage marks the storage front's credential; only it may
// redeem upload slots.
const CapabilityStorage = "storage"

// Alias kinds, mirrored from the administrative workflow that writes them.
const (
	AliasKindPrimary      = "primary"
	AliasKindAbbreviation = "abbreviation"
	AliasKindMisread      = "misread"
	AliasKindManual       = "manual"
)
