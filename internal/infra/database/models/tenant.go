package models

import (
	"time"
)

type Tenant struct {
	ID     string    `json:"id" gorm:"primaryKey;type:text"`
	Name   string    `json:"name" gorm:"type:text;not null"`
	Active bool      `json:"active" gorm:"type:boolean;not null;default:true"`
	CDate  time.Time `json:"cdate" gorm:"->;<-:create;type:timestamp with time zone;not null;default:clock_timestamp()"`
}

type Account struct {
	ID         string `json:"id" gorm:"primaryKey;type:text"`
	TenantID   string `json:"tenantID" gorm:"type:text;index;not null"`
	Tenant     Tenant `json:"-" gorm:"constraint:OnDelete:CASCADE;"`
	Identifier string `json:"identifier" gorm:"type:text;index:account_identifier,unique;not null"`
	SecretHash string `json:"-" gorm:"type:text;not null"`
	// Capabilities and SiteIDs are comma-separated role tags / site grants.
	Capabilities string    `json:"capabilities" gorm:"type:text"`
	SiteIDs      string    `json:"siteIDs" gorm:"type:text"`
	Active       bool      `json:"active" gorm:"type:boolean;not null;default:true"`
	CDate        time.Time `json:"cdate" gorm:"->;<-:create;type:timestamp with time zone;not null;default:clock_timestamp()"`
}

type Site struct {
	ID        string    `json:"id" gorm:"primaryKey;type:text"`
	TenantID  string    `json:"tenantID" gorm:"type:text;index;not null"`
	Tenant    Tenant    `json:"-" gorm:"constraint:OnDelete:CASCADE;"`
	Name      string    `json:"name" gorm:"type:text;not null"`
	Latitude  *float64  `json:"latitude" gorm:"type:double precision"`
	Longitude *float64  `json:"longitude" gorm:"type:double precision"`
	Active    bool      `json:"active" gorm:"type:boolean;not null;default:true"`
	CDate     time.Time `json:"cdate" gorm:"->;<-:create;type:timestamp with time zone;not null;default:clock_timestamp()"`
}
