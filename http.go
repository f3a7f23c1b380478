package clinic

import (
	"context"

	"github.com/goliatone/go-clinic/middleware/jwtware"
	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-print"
	"github.com/goliatone/go-router"
)

// RouteAuthenticator wires the request pipeline: bearer token
// validation, live identity resolution, and role authorization. Each
// stage is its own middleware so routes compose only what they need.
type RouteAuthenticator struct {
	auth         Authenticator
	cfg          Config
	Logger       Logger
	ErrorHandler func(c router.Context, err error) error
}

func NewHTTPAuthenticator(auther Authenticator, cfg Config) (*RouteAuthenticator, error) {
	a := &RouteAuthenticator{
		cfg:    cfg,
		auth:   auther,
		Logger: defLogger{},
	}

	a.ErrorHandler = a.defaultErrHandler

	return a, nil
}

// ProtectedRoute validates the bearer token and stores its claims in
// the router locals and the request context. It never touches the
// database; stale role claims are reconciled by RequireIdentity.
func (a *RouteAuthenticator) ProtectedRoute() router.MiddlewareFunc {
	return jwtware.New(jwtware.Config{
		ErrorHandler:   a.MakeAuthErrorHandler(false),
		AuthScheme:     a.cfg.GetAuthScheme(),
		ContextKey:     a.cfg.GetContextKey(),
		TokenLookup:    a.cfg.GetTokenLookup(),
		TokenValidator: validatorAdapter{a.auth.TokenService()},
		ContextEnricher: func(c context.Context, claims jwtware.AuthClaims) context.Context {
			if ac, ok := claims.(AuthClaims); ok {
				return WithClaimsContext(c, ac)
			}
			return c
		},
	})
}

// RequireIdentity resolves the live account behind the validated
// claims. The stored role, not the token's snapshot, is what later
// authorization decisions see.
func (a *RouteAuthenticator) RequireIdentity() router.MiddlewareFunc {
	return func(hf router.HandlerFunc) router.HandlerFunc {
		return func(ctx router.Context) error {
			claims, ok := GetRouterClaims(ctx, a.cfg.GetContextKey())
			if !ok {
				return a.ErrorHandler(ctx, ErrUnauthenticated)
			}

			identity, err := a.auth.IdentityFromClaims(ctx.Context(), claims)
			if err != nil {
				a.Logger.Info("identity resolution failed", "error", err)
				return a.ErrorHandler(ctx, err)
			}

			ctx.Locals(IdentityLocalsKey, identity)
			ctx.SetContext(WithIdentityContext(ctx.Context(), identity))

			return ctx.Next()
		}
	}
}

// RequireRoles rejects any resolved identity whose role is not in the
// allowed set. Must run after RequireIdentity.
func (a *RouteAuthenticator) RequireRoles(allowed RoleSet) router.MiddlewareFunc {
	return func(hf router.HandlerFunc) router.HandlerFunc {
		return func(ctx router.Context) error {
			identity, _ := GetRouterIdentity(ctx)
			if err := Authorize(identity, allowed); err != nil {
				return a.ErrorHandler(ctx, err)
			}
			return ctx.Next()
		}
	}
}

// MakeAuthErrorHandler normalizes token failures into rich auth errors.
// With optional set the request proceeds unauthenticated instead.
func (a *RouteAuthenticator) MakeAuthErrorHandler(optional bool) func(router.Context, error) error {
	return func(ctx router.Context, err error) error {
		var richErr *errors.Error

		if IsTokenExpiredError(err) {
			richErr = ErrTokenExpired
		} else if IsMalformedError(err) {
			richErr = ErrTokenMalformed
		} else {
			richErr = errors.Wrap(err, errors.CategoryAuth, "Invalid authentication token").
				WithCode(errors.CodeUnauthorized)
		}

		if optional {
			a.Logger.Info("Optional auth failed, proceeding", "error", richErr.Message)
			return ctx.Next()
		}

		return a.ErrorHandler(ctx, richErr)
	}
}

func (a *RouteAuthenticator) defaultErrHandler(c router.Context, err error) error {
	var richErr *errors.Error
	if !errors.As(err, &richErr) {
		richErr = errors.Wrap(err, errors.CategoryInternal, "An unexpected server error occurred").
			WithCode(errors.CodeInternal)
	}

	a.Logger.Info(
		"request error",
		"error", richErr.Message,
		"category", richErr.Category,
		"details", print.MaybePrettyJSON(richErr.Metadata),
	)

	body := map[string]any{
		"success": false,
		"message": richErr.Message,
	}

	if richErr.TextCode != "" {
		body["text_code"] = richErr.TextCode
	}

	if fields := richErr.ValidationMap(); len(fields) > 0 {
		body["errors"] = fields
	}

	return c.JSON(HTTPStatus(richErr), body)
}

// validatorAdapter lets the middleware validate tokens through the
// TokenService without importing this package.
type validatorAdapter struct {
	ts TokenService
}

func (v validatorAdapter) Validate(tokenString string) (jwtware.AuthClaims, error) {
	claims, err := v.ts.Validate(tokenString)
	if err != nil {
		return nil, err
	}
	return claims, nil
}
