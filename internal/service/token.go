package service

import (
	"context"
	"errors"
	"time"

	jwtv5 "github.com/golang-jwt/jwt/v5"
	pkgerrors "github.com/pkg/errors"
	"go.opentelemetry.io/otel"
	"golang.org/x/crypto/bcrypt"

	"github.com/mailfold/mailroom/internal/domain"
)

var tracer = otel.Tracer("token")

// AccountDirectory is the subject directory the token service consults.
type AccountDirectory interface {
	GetByIdentifier(ctx context.Context, identifier string) (domain.Account, error)
}

// TokenService issues and verifies MAC-signed bearer credentials. A
// credential binds a subject to exactly one tenant for its whole lifetime.
type TokenService struct {
	secret   []byte
	issuer   string
	ttl      time.Duration
	accounts AccountDirectory
}

func NewTokenService(secret string, issuer string, ttl time.Duration, accounts AccountDirectory) *TokenService {
	return &TokenService{
		secret:   []byte(secret),
		issuer:   issuer,
		ttl:      ttl,
		accounts: accounts,
	}
}

type credentialClaims struct {
	TenantID     string   `json:"tenant_id"`
	Capabilities []string `json:"capabilities,omitempty"`
	SiteIDs      []string `json:"site_ids,omitempty"`
	jwtv5.RegisteredClaims
}

// IssueResult carries the encoded token together with the resolved identity
// so the transport layer can echo tenant/site grants to the device.
type IssueResult struct {
	Token      string
	Credential domain.Credential
	TenantName string
}

// Issue authenticates the subject against the directory and returns a signed
// credential. Unknown identifiers, bad secrets and inactive accounts all
// surface as the same InvalidCredentials.
func (s *TokenService) Issue(ctx context.Context, identifier, secret string) (*IssueResult, error) {
	ctx, span := tracer.Start(ctx, "Token.Service.Issue")
	defer span.End()

	account, err := s.accounts.GetByIdentifier(ctx, identifier)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrInvalidCredentials
		}
		span.RecordError(err)
		return nil, pkgerrors.Wrap(err, "directory lookup failed")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(account.SecretHash), []byte(secret)); err != nil {
		return nil, domain.ErrInvalidCredentials
	}

	now := time.Now().UTC()
	expiry := now.Add(s.ttl)

	claims := credentialClaims{
		TenantID:     account.TenantID,
		Capabilities: account.Capabilities,
		SiteIDs:      account.SiteIDs,
		RegisteredClaims: jwtv5.RegisteredClaims{
			Issuer:    s.issuer,
			Subject:   account.ID,
			IssuedAt:  jwtv5.NewNumericDate(now),
			NotBefore: jwtv5.NewNumericDate(now),
			ExpiresAt: jwtv5.NewNumericDate(expiry),
		},
	}

	token, err := jwtv5.NewWithClaims(jwtv5.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		span.RecordError(err)
		return nil, pkgerrors.Wrap(err, "token signing failed")
	}

	return &IssueResult{
		Token: token,
		Credential: domain.Credential{
			Subject:      account.ID,
			TenantID:     account.TenantID,
			Capabilities: account.Capabilities,
			SiteIDs:      account.SiteIDs,
			IssuedAt:     now,
			ExpiresAt:    expiry,
		},
		TenantName: account.TenantName,
	}, nil
}

// Verify decodes and authenticates a token. Expired tokens and tokens that
// fail to parse or verify are distinguished for the caller.
func (s *TokenService) Verify(ctx context.Context, token string) (domain.Credential, error) {
	_, span := tracer.Start(ctx, "Token.Service.Verify")
	defer span.End()

	var claims credentialClaims
	parsed, err := jwtv5.ParseWithClaims(token, &claims, func(t *jwtv5.Token) (any, error) {
		return s.secret, nil
	}, jwtv5.WithValidMethods([]string{jwtv5.SigningMethodHS256.Alg()}))
	if err != nil {
		if errors.Is(err, jwtv5.ErrTokenExpired) {
			return domain.Credential{}, domain.ErrExpiredToken
		}
		span.RecordError(err)
		return domain.Credential{}, domain.ErrMalformedToken
	}
	if !parsed.Valid {
		return domain.Credential{}, domain.ErrMalformedToken
	}

	cred := domain.Credential{
		Subject:      claims.Subject,
		TenantID:     claims.TenantID,
		Capabilities: claims.Capabilities,
		SiteIDs:      claims.SiteIDs,
	}
	if claims.IssuedAt != nil {
		cred.IssuedAt = claims.IssuedAt.Time
	}
	if claims.ExpiresAt != nil {
		cred.ExpiresAt = claims.ExpiresAt.Time
	}
	if cred.TenantID == "" {
		return domain.Credential{}, domain.ErrMalformedToken
	}

	return cred, nil
}
