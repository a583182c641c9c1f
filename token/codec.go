package token

import (
	"crypto/subtle"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// ErrExpired is returned by Verify when the credential's signature checks
// out but its lifetime has elapsed.
var ErrExpired = errors.New("credential expired")

// ErrInvalid is returned by Verify when the credential is cryptographically
// or structurally invalid.
var ErrInvalid = errors.New("credential invalid")

// Kind selects which signing method, secret, and lifetime a codec operation
// applies.
type Kind string

const (
	// KindAccess is the short-lived credential presented on every
	// protected request.
	KindAccess Kind = "ACCESS"
	// KindRefresh is the long-lived credential presented only to the
	// refresh and logout endpoints. It doubles as the session's cache key.
	KindRefresh Kind = "REFRESH"
)

// SigningMethod names a supported JWT signing algorithm.
type SigningMethod string

const (
	MethodHS256 SigningMethod = "hs256"
	MethodHS384 SigningMethod = "hs384"
	MethodHS512 SigningMethod = "hs512"
)

// Identity is the principal payload embedded in every signed credential.
type Identity struct {
	SubjectID   string
	Email       string
	DisplayName string
	Role        string
}

// Claims is the decoded credential payload. Nonce makes every signed
// credential unique, including two issued for the same subject at the same
// instant.
type Claims struct {
	Email       string `json:"email,omitempty"`
	DisplayName string `json:"name,omitempty"`
	Role        string `json:"role,omitempty"`
	Nonce       string `json:"nonce"`
	jwt.RegisteredClaims
}

// Identity re-assembles the principal payload carried by the claims.
func (c *Claims) Identity() Identity {
	return Identity{
		SubjectID:   c.Subject,
		Email:       c.Email,
		DisplayName: c.DisplayName,
		Role:        c.Role,
	}
}

// KindConfig configures one credential kind.
type KindConfig struct {
	Method SigningMethod
	Secret []byte
	TTL    time.Duration
}

// Config configures a [Codec]. Access and Refresh must not share a signing
// method or a secret.
type Config struct {
	Access  KindConfig
	Refresh KindConfig
	Issuer  string
	Leeway  time.Duration
}

// Codec signs and verifies access and refresh credentials. A Codec is
// immutable after construction and safe for concurrent use.
type Codec struct {
	config Config
}

// NewCodec validates cfg and builds a [Codec]. Construction fails on
// missing secrets, non-positive lifetimes, or a shared method+secret pair
// across kinds; such misconfiguration is fatal for the host.
func NewCodec(cfg Config) (*Codec, error) {
	for _, kc := range []struct {
		name string
		cfg  KindConfig
	}{{"access", cfg.Access}, {"refresh", cfg.Refresh}} {
		if kc.cfg.TTL <= 0 {
			return nil, fmt.Errorf("%s credential requires a positive TTL", kc.name)
		}
		if len(kc.cfg.Secret) == 0 {
			return nil, fmt.Errorf("%s credential requires a secret", kc.name)
		}
		switch kc.cfg.Method {
		case MethodHS256, MethodHS384, MethodHS512:
		default:
			return nil, fmt.Errorf("unsupported signing method for %s credential", kc.name)
		}
	}

	if cfg.Access.Method == cfg.Refresh.Method {
		return nil, errors.New("access and refresh credentials must use different signing methods")
	}
	if len(cfg.Access.Secret) == len(cfg.Refresh.Secret) &&
		subtle.ConstantTimeCompare(cfg.Access.Secret, cfg.Refresh.Secret) == 1 {
		return nil, errors.New("access and refresh credentials must use different secrets")
	}
	if cfg.Leeway < 0 || cfg.Leeway > 2*time.Minute {
		return nil, errors.New("invalid leeway configuration")
	}

	return &Codec{config: cfg}, nil
}

// Lifetime returns the configured TTL for a credential kind.
func (c *Codec) Lifetime(kind Kind) time.Duration {
	return c.kindConfig(kind).TTL
}

// Sign issues a credential of the given kind for identity. A fresh random
// nonce is injected before signing, so two calls with an identical identity
// never produce the same token.
func (c *Codec) Sign(kind Kind, id Identity) (string, error) {
	kc := c.kindConfig(kind)

	now := time.Now()
	claims := Claims{
		Email:       id.Email,
		DisplayName: id.DisplayName,
		Role:        id.Role,
		Nonce:       uuid.NewString(),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   id.SubjectID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(kc.TTL)),
		},
	}
	if c.config.Issuer != "" {
		claims.Issuer = c.config.Issuer
	}

	tok := jwt.NewWithClaims(method(kc.Method), claims)
	return tok.SignedString(kc.Secret)
}

// Verify parses and validates a credential of the given kind. Expiry and
// malformed/forged credentials surface as distinct sentinel errors.
func (c *Codec) Verify(kind Kind, tokenStr string) (*Claims, error) {
	kc := c.kindConfig(kind)

	options := []jwt.ParserOption{
		jwt.WithValidMethods([]string{method(kc.Method).Alg()}),
	}
	if c.config.Leeway > 0 {
		options = append(options, jwt.WithLeeway(c.config.Leeway))
	}
	if c.config.Issuer != "" {
		options = append(options, jwt.WithIssuer(c.config.Issuer))
	}

	parser := jwt.NewParser(options...)
	tok, err := parser.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if t.Method.Alg() != method(kc.Method).Alg() {
			return nil, fmt.Errorf("unexpected signing algorithm: %s", t.Method.Alg())
		}
		return kc.Secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, fmt.Errorf("%w: %v", ErrExpired, err)
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalid, err)
	}

	claims, ok := tok.Claims.(*Claims)
	if !ok || !tok.Valid {
		return nil, fmt.Errorf("%w: %v", ErrInvalid, jwt.ErrTokenInvalidClaims)
	}
	if claims.Nonce == "" {
		return nil, fmt.Errorf("%w: missing nonce", ErrInvalid)
	}

	return claims, nil
}

// Decode parses the claims without verifying the signature or lifetime.
// Only call it after a prior Verify or a cache liveness check has already
// vouched for the token.
func (c *Codec) Decode(tokenStr string) (*Claims, error) {
	claims := &Claims{}
	if _, _, err := jwt.NewParser().ParseUnverified(tokenStr, claims); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	if claims.Subject == "" {
		return nil, fmt.Errorf("%w: missing subject", ErrInvalid)
	}
	return claims, nil
}

func (c *Codec) kindConfig(kind Kind) KindConfig {
	if kind == KindRefresh {
		return c.config.Refresh
	}
	return c.config.Access
}

func method(m SigningMethod) jwt.SigningMethod {
	switch m {
	case MethodHS384:
		return jwt.SigningMethodHS384
	case MethodHS512:
		return jwt.SigningMethodHS512
	default:
		return jwt.SigningMethodHS256
	}
}
