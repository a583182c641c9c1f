package credgate

import (
	"github.com/spf13/viper"

	"github.com/Veldhaus/credgate/token"
)

// LoadConfig builds a [Config] from the environment. Every key is read from
// a CREDGATE_-prefixed variable, e.g. CREDGATE_ACCESS_SECRET or
// CREDGATE_MAX_SESSIONS. Unset keys fall back to the library defaults;
// validation of the result happens at [Builder.Build].
func LoadConfig() Config {
	v := viper.New()
	v.SetEnvPrefix("credgate")
	v.AutomaticEnv()

	def := defaultConfig()
	v.SetDefault("access_method", string(def.Token.AccessMethod))
	v.SetDefault("refresh_method", string(def.Token.RefreshMethod))
	v.SetDefault("access_ttl", def.Token.AccessTTL)
	v.SetDefault("refresh_ttl", def.Token.RefreshTTL)
	v.SetDefault("issuer", "")
	v.SetDefault("max_sessions", def.Session.MaxConcurrentSessions)
	v.SetDefault("session_group_prefix", def.Session.GroupPrefix)
	v.SetDefault("csrf_anonymous_ttl", def.CSRF.AnonymousTTL)
	v.SetDefault("cache_key_prefix", def.Cache.KeyPrefix)
	v.SetDefault("login_rate_limit", def.RateLimit.Enabled)
	v.SetDefault("login_attempts", def.RateLimit.LoginAttempts)
	v.SetDefault("login_window", def.RateLimit.LoginWindow)

	cfg := Config{
		Token: TokenConfig{
			AccessSecret:  []byte(v.GetString("access_secret")),
			RefreshSecret: []byte(v.GetString("refresh_secret")),
			AccessMethod:  token.SigningMethod(v.GetString("access_method")),
			RefreshMethod: token.SigningMethod(v.GetString("refresh_method")),
			AccessTTL:     v.GetDuration("access_ttl"),
			RefreshTTL:    v.GetDuration("refresh_ttl"),
			Issuer:        v.GetString("issuer"),
		},
		Session: SessionConfig{
			MaxConcurrentSessions: v.GetInt("max_sessions"),
			GroupPrefix:           v.GetString("session_group_prefix"),
		},
		CSRF: CSRFConfig{
			AnonymousTTL: v.GetDuration("csrf_anonymous_ttl"),
		},
		Cache: CacheConfig{
			KeyPrefix: v.GetString("cache_key_prefix"),
		},
		RateLimit: RateLimitConfig{
			Enabled:       v.GetBool("login_rate_limit"),
			LoginAttempts: v.GetInt("login_attempts"),
			LoginWindow:   v.GetDuration("login_window"),
		},
	}
	cfg.applyDefaults()
	return cfg
}
