package middleware

import (
	"context"
	"strings"

	"github.com/labstack/echo/v4"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/mailfold/mailroom/internal/domain"
	"github.com/mailfold/mailroom/internal/present/rest/presenter"
	"github.com/mailfold/mailroom/internal/service"
)

var tracer = otel.Tracer("auth")

type AuthMiddleware struct {
	tokens *service.TokenService
}

func NewAuthMiddleware(tokens *service.TokenService) *AuthMiddleware {
	return &AuthMiddleware{
		tokens: tokens,
	}
}

// RequireCredential verifies the bearer token and stows the Credential in
// the request context. Every protected route goes through here; there is no
// permissive fallthrough. Websocket clients cannot set headers, so the token
// may alternatively arrive as a query parameter.
func (m *AuthMiddleware) RequireCredential(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx, span := tracer.Start(c.Request().Context(), "Auth.Middleware.RequireCredential")
		defer span.End()

		token := bearerToken(c)
		if token == "" {
			return presenter.Fail(c, domain.ErrMalformedToken)
		}

		cred, err := m.tokens.Verify(ctx, token)
		if err != nil {
			span.RecordError(err)
			return presenter.Fail(c, err)
		}

		ctx = context.WithValue(ctx, domain.CredentialCtxKey, cred)
		span.SetAttributes(
			attribute.String("Subject", cred.Subject),
			attribute.String("TenantID", cred.TenantID),
		)

		c.SetRequest(c.Request().WithContext(ctx))
		return next(c)
	}
}

func bearerToken(c echo.Context) string {
	authHeader := c.Request().Header.Get("authorization")
	if authHeader != "" {
		split := strings.Split(authHeader, " ")
		if len(split) == 2 && split[0] == "Bearer" {
			return split[1]
		}
		return ""
	}
	return c.QueryParam("token")
}

// CredentialFrom pulls the verified credential out of the request context.
func CredentialFrom(ctx context.Context) (domain.Credential, bool) {
	cred, ok := ctx.Value(domain.CredentialCtxKey).(domain.Credential)
	return cred, ok
}
