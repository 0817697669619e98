package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/patrickmn/go-cache"
	pkgerrors "github.com/pkg/errors"
	"gorm.io/gorm"

	"github.com/mailfold/mailroom/internal/domain"
	"github.com/mailfold/mailroom/internal/infra/database/models"
)

type AliasRepository struct {
	db    *gorm.DB
	names *cache.Cache
}

func NewAliasRepository(db *gorm.DB) *AliasRepository {
	return &AliasRepository{
		db:    db,
		names: cache.New(10*time.Minute, 15*time.Minute),
	}
}

// SyncAll returns the tenant's active aliases, optionally only those updated
// at or after since, capped at limit rows ordered by update time so callers
// can page with since.
func (r *AliasRepository) SyncAll(ctx context.Context, tenantID string, since *time.Time, limit int) ([]domain.AliasRecord, error) {

	query := r.db.WithContext(ctx).
		Where("tenant_id = ? AND active = ?", tenantID, true)
	if since != nil {
		query = query.Where("u_date >= ?", *since)
	}

	var rows []models.CompanyAlias
	err := query.Order("u_date, id").Limit(limit).Find(&rows).Error
	if err != nil {
		return nil, pkgerrors.Wrap(err, "alias sync query failed")
	}

	return r.denormalize(ctx, tenantID, rows)
}

// Search performs a case-insensitive substring match against the stored
// normalized text. query must already be normalized by the caller.
func (r *AliasRepository) Search(ctx context.Context, tenantID string, query string, limit int) ([]domain.AliasRecord, error) {

	var rows []models.CompanyAlias
	err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND active = ? AND normalized_text LIKE ?", tenantID, true, "%"+query+"%").
		Order("normalized_text, id").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, pkgerrors.Wrap(err, "alias search query failed")
	}

	return r.denormalize(ctx, tenantID, rows)
}

// denormalize attaches company and mailbox display names. Names are read
// through an in-process cache; they change only through the administrative
// workflow, so brief staleness is acceptable.
func (r *AliasRepository) denormalize(ctx context.Context, tenantID string, rows []models.CompanyAlias) ([]domain.AliasRecord, error) {

	records := make([]domain.AliasRecord, 0, len(rows))
	for _, row := range rows {
		companyName, err := r.companyName(ctx, tenantID, row.CompanyID)
		if err != nil {
			return nil, err
		}
		mailboxLabel, err := r.mailboxLabel(ctx, tenantID, row.MailboxID)
		if err != nil {
			return nil, err
		}
		records = append(records, domain.AliasRecord{
			ID:             row.ID,
			TenantID:       row.TenantID,
			CompanyID:      row.CompanyID,
			CompanyName:    companyName,
			AliasText:      row.AliasText,
			NormalizedText: row.NormalizedText,
			AliasKind:      row.AliasKind,
			MailboxID:      row.MailboxID,
			MailboxLabel:   mailboxLabel,
			Active:         row.Active,
			UpdatedAt:      row.UDate,
		})
	}
	return records, nil
}

func (r *AliasRepository) companyName(ctx context.Context, tenantID, companyID string) (string, error) {
	key := fmt.Sprintf("company:%s:%s", tenantID, companyID)
	if cached, found := r.names.Get(key); found {
		return cached.(string), nil
	}

	var company models.Company
	err := r.db.WithContext(ctx).
		Where("id = ? AND tenant_id = ?", companyID, tenantID).
		Take(&company).Error
	if err != nil {
		return "", pkgerrors.Wrapf(err, "company %s lookup failed", companyID)
	}

	r.names.Set(key, company.Name, cache.DefaultExpiration)
	return company.Name, nil
}

func (r *AliasRepository) mailboxLabel(ctx context.Context, tenantID, mailboxID string) (string, error) {
	key := fmt.Sprintf("mailbox:%s:%s", tenantID, mailboxID)
	if cached, found := r.names.Get(key); found {
		return cached.(string), nil
	}

	var mailbox models.Mailbox
	err := r.db.WithContext(ctx).
		Where("id = ? AND tenant_id = ?", mailboxID, tenantID).
		Take(&mailbox).Error
	if err != nil {
		return "", pkgerrors.Wrapf(err, "mailbox %s lookup failed", mailboxID)
	}

	r.names.Set(key, mailbox.Label, cache.DefaultExpiration)
	return mailbox.Label, nil
}
