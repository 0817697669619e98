package repository

import (
	"context"
	"errors"
	"strings"

	pkgerrors "github.com/pkg/errors"
	"gorm.io/gorm"

	"github.com/mailfold/mailroom/internal/domain"
	"github.com/mailfold/mailroom/internal/infra/database/models"
)

type AccountRepository struct {
	db *gorm.DB
}

func NewAccountRepository(db *gorm.DB) *AccountRepository {
	return &AccountRepository{db: db}
}

// GetByIdentifier loads an active account joined with its tenant. Inactive
// accounts and accounts of inactive tenants are reported as not found so the
// token service can surface a uniform InvalidCredentials.
func (r *AccountRepository) GetByIdentifier(ctx context.Context, identifier string) (domain.Account, error) {

	var account models.Account
	err := r.db.WithContext(ctx).
		Where("identifier = ?", identifier).
		Take(&account).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.Account{}, domain.ErrNotFound
		}
		return domain.Account{}, pkgerrors.Wrap(err, "account lookup failed")
	}

	var tenant models.Tenant
	err = r.db.WithContext(ctx).
		Where("id = ?", account.TenantID).
		Take(&tenant).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.Account{}, domain.ErrNotFound
		}
		return domain.Account{}, pkgerrors.Wrap(err, "tenant lookup failed")
	}

	if !account.Active || !tenant.Active {
		return domain.Account{}, domain.ErrNotFound
	}

	return domain.Account{
		ID:           account.ID,
		TenantID:     account.TenantID,
		TenantName:   tenant.Name,
		Identifier:   account.Identifier,
		SecretHash:   account.SecretHash,
		Capabilities: splitList(account.Capabilities),
		SiteIDs:      splitList(account.SiteIDs),
		Active:       account.Active,
	}, nil
}

func splitList(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
