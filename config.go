package credgate

import (
	"errors"
	"time"

	"github.com/Veldhaus/credgate/token"
)

// Config defines every tunable of the engine. Zero values are filled from
// defaultConfig at Build; secrets have no default and must be provided.
type Config struct {
	Token     TokenConfig
	Session   SessionConfig
	CSRF      CSRFConfig
	Cache     CacheConfig
	RateLimit RateLimitConfig
}

// TokenConfig configures the credential codec. Access and refresh
// credentials must use distinct signing methods and distinct secrets.
type TokenConfig struct {
	AccessSecret  []byte
	RefreshSecret []byte
	AccessMethod  token.SigningMethod
	RefreshMethod token.SigningMethod
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
	Issuer        string
	Leeway        time.Duration
}

// SessionConfig configures session bookkeeping.
type SessionConfig struct {
	// MaxConcurrentSessions caps live sessions per principal. Login fails
	// with ErrTooManySessions once the cap is reached.
	MaxConcurrentSessions int
	// GroupPrefix namespaces the per-subject registry group,
	// "<prefix>:<subjectID>".
	GroupPrefix string
	// RegistryTTL bounds how long a session group key survives without a
	// write. Defaults to the refresh lifetime.
	RegistryTTL time.Duration
}

// CSRFConfig configures the anti-forgery handshake.
type CSRFConfig struct {
	// AnonymousTTL bounds how long an unredeemed anonymous grant stays
	// valid. Promoted grants live as long as the refresh credential.
	AnonymousTTL time.Duration
}

// CacheConfig configures the key-value cache client.
type CacheConfig struct {
	// KeyPrefix namespaces every key the engine writes.
	KeyPrefix string
}

// RateLimitConfig configures the per-identifier login throttle.
type RateLimitConfig struct {
	Enabled       bool
	LoginAttempts int
	LoginWindow   time.Duration
}

func defaultConfig() Config {
	return Config{
		Token: TokenConfig{
			AccessMethod:  token.MethodHS256,
			RefreshMethod: token.MethodHS512,
			AccessTTL:     30 * time.Minute,
			RefreshTTL:    7 * 24 * time.Hour,
		},
		Session: SessionConfig{
			MaxConcurrentSessions: 5,
			GroupPrefix:           "session",
		},
		CSRF: CSRFConfig{
			AnonymousTTL: 10 * time.Minute,
		},
		Cache: CacheConfig{
			KeyPrefix: "cg",
		},
		RateLimit: RateLimitConfig{
			Enabled:       true,
			LoginAttempts: 5,
			LoginWindow:   time.Minute,
		},
	}
}

func (c *Config) applyDefaults() {
	def := defaultConfig()
	if c.Token.AccessMethod == "" {
		c.Token.AccessMethod = def.Token.AccessMethod
	}
	if c.Token.RefreshMethod == "" {
		c.Token.RefreshMethod = def.Token.RefreshMethod
	}
	if c.Token.AccessTTL == 0 {
		c.Token.AccessTTL = def.Token.AccessTTL
	}
	if c.Token.RefreshTTL == 0 {
		c.Token.RefreshTTL = def.Token.RefreshTTL
	}
	if c.Session.MaxConcurrentSessions == 0 {
		c.Session.MaxConcurrentSessions = def.Session.MaxConcurrentSessions
	}
	if c.Session.GroupPrefix == "" {
		c.Session.GroupPrefix = def.Session.GroupPrefix
	}
	if c.Session.RegistryTTL == 0 {
		c.Session.RegistryTTL = c.Token.RefreshTTL
	}
	if c.CSRF.AnonymousTTL == 0 {
		c.CSRF.AnonymousTTL = def.CSRF.AnonymousTTL
	}
	if c.Cache.KeyPrefix == "" {
		c.Cache.KeyPrefix = def.Cache.KeyPrefix
	}
	if c.RateLimit.LoginAttempts == 0 {
		c.RateLimit.LoginAttempts = def.RateLimit.LoginAttempts
	}
	if c.RateLimit.LoginWindow == 0 {
		c.RateLimit.LoginWindow = def.RateLimit.LoginWindow
	}
}

func validateConfig(c Config) error {
	if len(c.Token.AccessSecret) == 0 || len(c.Token.RefreshSecret) == 0 {
		return errors.New("access and refresh secrets are required")
	}
	if c.Session.MaxConcurrentSessions < 1 {
		return errors.New("MaxConcurrentSessions must be at least 1")
	}
	if c.Token.AccessTTL >= c.Token.RefreshTTL {
		return errors.New("access lifetime must be shorter than refresh lifetime")
	}
	if c.CSRF.AnonymousTTL <= 0 {
		return errors.New("csrf anonymous TTL must be positive")
	}
	return nil
}

func (c Config) codecConfig() token.Config {
	return token.Config{
		Access: token.KindConfig{
			Method: c.Token.AccessMethod,
			Secret: c.Token.AccessSecret,
			TTL:    c.Token.AccessTTL,
		},
		Refresh: token.KindConfig{
			Method: c.Token.RefreshMethod,
			Secret: c.Token.RefreshSecret,
			TTL:    c.Token.RefreshTTL,
		},
		Issuer: c.Token.Issuer,
		Leeway: c.Token.Leeway,
	}
}
