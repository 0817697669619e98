package models

import (
	"time"
)

type Company struct {
	ID       string `json:"id" gorm:"primaryKey;type:text"`
	TenantID string `json:"tenantID" gorm:"type:text;index;not null"`
	Tenant   Tenant `json:"-" gorm:"constraint:OnDelete:CASCADE;"`
	Name     string `json:"name" gorm:"type:text;not null"`
	Active   bool   `json:"active" gorm:"type:boolean;not null;default:true"`
}

type Mailbox struct {
	ID        string  `json:"id" gorm:"primaryKey;type:text"`
	TenantID  string  `json:"tenantID" gorm:"type:text;index;not null"`
	CompanyID string  `json:"companyID" gorm:"type:text;index"`
	Company   Company `json:"-" gorm:"constraint:OnDelete:CASCADE;"`
	Label     string  `json:"label" gorm:"type:text;not null"`
	Active    bool    `json:"active" gorm:"type:boolean;not null;default:true"`
}

type CompanyAlias struct {
	ID        string  `json:"id" gorm:"primaryKey;type:text"`
	TenantID  string  `json:"tenantID" gorm:"type:text;index:alias_tenant_norm;not null"`
	CompanyID string  `json:"companyID" gorm:"type:text;index;not null"`
	Company   Company `json:"-" gorm:"constraint:OnDelete:CASCADE;"`
	AliasText string  `json:"aliasText" gorm:"type:text;not null"`
	// NormalizedText is always recomputed from AliasText on write; the two
	// never drift.
	NormalizedText string    `json:"normalizedText" gorm:"type:text;index:alias_tenant_norm;not null"`
	AliasKind      string    `json:"aliasKind" gorm:"type:text;not null"`
	MailboxID      string    `json:"mailboxID" gorm:"type:text;not null"`
	Mailbox        Mailbox   `json:"-" gorm:"constraint:OnDelete:CASCADE;"`
	Active         bool      `json:"active" gorm:"type:boolean;not null;default:true"`
	UDate          time.Time `json:"udate" gorm:"type:timestamp with time zone;not null;default:clock_timestamp();index"`
}
