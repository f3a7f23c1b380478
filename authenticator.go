package clinic

import (
	"context"
	"reflect"
)

// Auther orchestrates credential verification, token issuance, and the
// per-request identity resolution step. All collaborators are injected
// at construction; there is no ambient registry.
type Auther struct {
	provider     IdentityProvider
	signingKey   []byte
	logger       Logger
	tokenService TokenService
}

// NewAuthenticator returns a new Authenticator
func NewAuthenticator(provider IdentityProvider, opts Config) *Auther {
	tokenService := NewTokenService(
		[]byte(opts.GetSigningKey()),
		opts.GetTokenExpiration(),
		opts.GetIssuer(),
		opts.GetAudience(),
		defLogger{},
	)

	return &Auther{
		provider:     provider,
		signingKey:   []byte(opts.GetSigningKey()),
		logger:       defLogger{},
		tokenService: tokenService,
	}
}

func (s *Auther) WithLogger(logger Logger) *Auther {
	if logger != nil {
		s.logger = logger
	}
	return s
}

// TokenService returns the TokenService instance used by this Authenticator
func (s *Auther) TokenService() TokenService {
	return s.tokenService
}

// Login verifies the credentials and returns a freshly issued token
func (s *Auther) Login(ctx context.Context, email, password string) (string, error) {
	identity, err := s.provider.VerifyIdentity(ctx, email, password)
	if err != nil {
		s.logger.Info("Login verify identity failed", "email", email)
		return "", err
	}

	if identity == nil || reflect.ValueOf(identity).IsZero() {
		s.logger.Error("Login identity is nil or zero value")
		return "", ErrInvalidCredentials
	}

	return s.IssueToken(identity)
}

// IssueToken mints a token for an already-verified identity. Used by
// login and by registration's auto-login.
func (s *Auther) IssueToken(identity Identity) (string, error) {
	token, err := s.tokenService.Generate(identity)
	if err != nil {
		s.logger.Error("IssueToken generate failed", "error", err)
		return "", err
	}
	return token, nil
}

// IdentityFromClaims resolves validated claims to the live user record.
// The resolved identity's current role, not the token's embedded role,
// is what downstream authorization trusts.
func (s *Auther) IdentityFromClaims(ctx context.Context, claims AuthClaims) (Identity, error) {
	if claims == nil {
		return nil, ErrUnauthenticated
	}

	identity, err := s.provider.FindIdentityByID(ctx, claims.UserID())
	if err != nil {
		s.logger.Info("IdentityFromClaims resolve failed", "subject", claims.UserID(), "error", err)
		return nil, err
	}

	return identity, nil
}

var _ Authenticator = (*Auther)(nil)
