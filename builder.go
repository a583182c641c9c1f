package credgate

import (
	"errors"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/Veldhaus/credgate/csrf"
	"github.com/Veldhaus/credgate/internal/rate"
	"github.com/Veldhaus/credgate/kvcache"
	"github.com/Veldhaus/credgate/registry"
	"github.com/Veldhaus/credgate/token"
)

// Builder assembles an [Engine]. Construction is allocation-only; no I/O
// happens until the first Engine method call.
type Builder struct {
	config Config
	logger zerolog.Logger

	redis redis.UniversalClient
	cache kvcache.Client

	users     UserProvider
	passwords PasswordVerifier

	built bool
}

// New returns a [Builder] preloaded with the library defaults.
func New() *Builder {
	return &Builder{
		config: defaultConfig(),
		logger: zerolog.Nop(),
	}
}

// WithConfig replaces the whole configuration. Unset fields are filled
// with defaults at Build.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cfg
	return b
}

// WithRedis supplies the Redis client backing the cache. The engine wraps
// it in its namespaced [kvcache.RedisClient].
func (b *Builder) WithRedis(client redis.UniversalClient) *Builder {
	b.redis = client
	return b
}

// WithCache supplies a pre-built cache client, replacing WithRedis. Used
// to swap the backing store or substitute a fake in tests.
func (b *Builder) WithCache(cache kvcache.Client) *Builder {
	b.cache = cache
	return b
}

// WithUserProvider supplies the relational-store lookup used by Login and
// the session diagnostics.
func (b *Builder) WithUserProvider(users UserProvider) *Builder {
	b.users = users
	return b
}

// WithPasswordVerifier supplies the opaque password check used by Login.
func (b *Builder) WithPasswordVerifier(pv PasswordVerifier) *Builder {
	b.passwords = pv
	return b
}

// WithLogger supplies the structured logger. Defaults to a no-op logger.
func (b *Builder) WithLogger(logger zerolog.Logger) *Builder {
	b.logger = logger
	return b
}

// Build validates the configuration and wires the engine. A Builder must
// not be reused after a successful Build.
func (b *Builder) Build() (*Engine, error) {
	if b.built {
		return nil, errors.New("builder already consumed")
	}

	cfg := b.config
	cfg.applyDefaults()
	if err := validateConfig(cfg); err != nil {
		return nil, err
	}

	cache := b.cache
	if cache == nil {
		if b.redis == nil {
			return nil, errors.New("a redis client or cache client is required")
		}
		cache = kvcache.NewRedisClient(b.redis, cfg.Cache.KeyPrefix)
	}

	codec, err := token.NewCodec(cfg.codecConfig())
	if err != nil {
		return nil, err
	}

	engine := &Engine{
		config:    cfg,
		log:       b.logger,
		codec:     codec,
		cache:     cache,
		registry:  registry.NewStore(cache, cfg.Session.RegistryTTL, b.logger),
		users:     b.users,
		passwords: b.passwords,
		ready:     true,
	}
	engine.csrf = csrf.NewHandshake(cache, codec, cfg.CSRF.AnonymousTTL)
	if cfg.RateLimit.Enabled {
		engine.loginLimiter = rate.New(cfg.RateLimit.LoginAttempts, cfg.RateLimit.LoginWindow)
	}

	b.built = true
	return engine, nil
}
