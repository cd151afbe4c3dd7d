package identity

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-jose/go-jose/v4"
	"github.com/go-jose/go-jose/v4/jwt"

	"github.com/brightform/userhub/internal/domain"
)

// ErrInvalidToken is returned for tokens that are malformed, unsigned by a
// known provider key, expired, or missing a usable subject.
var ErrInvalidToken = errors.New("identity: invalid session token")

// KeysetSource yields the provider's current JSON Web Key Set.
type KeysetSource interface {
	Keyset(ctx context.Context) (jose.JSONWebKeySet, error)
}

// StaticKeyset serves a fixed symmetric verification key. Used alongside
// StaticProvider for local development.
type StaticKeyset struct {
	keyset jose.JSONWebKeySet
}

// NewStaticKeyset builds a single-key HS256 keyset from the secret.
func NewStaticKeyset(secret []byte) *StaticKeyset {
	return &StaticKeyset{keyset: jose.JSONWebKeySet{Keys: []jose.JSONWebKey{{
		KeyID:     "dev",
		Use:       "sig",
		Algorithm: string(jose.HS256),
		Key:       secret,
	}}}}
}

func (s *StaticKeyset) Keyset(context.Context) (jose.JSONWebKeySet, error) {
	return s.keyset, nil
}

// Verifier validates provider-issued session tokens. The provider owns
// session issuance; this side only checks signatures against its JWKS and
// reads the caller identity out of the claims.
type Verifier struct {
	keys KeysetSource
}

// NewVerifier constructs a Verifier over the given keyset source.
func NewVerifier(keys KeysetSource) *Verifier {
	return &Verifier{keys: keys}
}

type sessionClaims struct {
	Email string `json:"email"`
	Role  string `json:"role"`
}

var allowedAlgorithms = []jose.SignatureAlgorithm{jose.HS256, jose.RS256, jose.ES256}

// Verify parses and validates a bearer token and resolves the caller.
func (v *Verifier) Verify(ctx context.Context, token string) (*Caller, error) {
	parsed, err := jwt.ParseSigned(token, allowedAlgorithms)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	keyset, err := v.keys.Keyset(ctx)
	if err != nil {
		return nil, fmt.Errorf("load provider keyset: %w", err)
	}

	std, custom, err := claimsFromKeyset(parsed, keyset)
	if err != nil {
		return nil, err
	}

	if err := std.Validate(jwt.Expected{Time: time.Now()}); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if std.Subject == "" {
		return nil, fmt.Errorf("%w: missing subject", ErrInvalidToken)
	}

	role, ok := domain.ParseRole(custom.Role)
	if !ok {
		role = domain.RoleUser
	}

	return &Caller{ID: std.Subject, Email: custom.Email, Role: role}, nil
}

func claimsFromKeyset(parsed *jwt.JSONWebToken, keyset jose.JSONWebKeySet) (*jwt.Claims, *sessionClaims, error) {
	var lastErr error
	for _, header := range parsed.Headers {
		candidates := keyset.Keys
		if header.KeyID != "" {
			candidates = keyset.Key(header.KeyID)
		}
		for _, key := range candidates {
			var std jwt.Claims
			var custom sessionClaims
			if err := parsed.Claims(key.Key, &std, &custom); err != nil {
				lastErr = err
				continue
			}
			return &std, &custom, nil
		}
	}
	if lastErr != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrInvalidToken, lastErr)
	}
	return nil, nil, fmt.Errorf("%w: no matching signing key", ErrInvalidToken)
}
