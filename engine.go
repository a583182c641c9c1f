package credgate

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/Veldhaus/credgate/csrf"
	"github.com/Veldhaus/credgate/internal/rate"
	"github.com/Veldhaus/credgate/kvcache"
	"github.com/Veldhaus/credgate/registry"
	"github.com/Veldhaus/credgate/token"
)

// Engine is the credential and session coordinator. All methods are safe
// to call from multiple goroutines after [Builder.Build].
//
// A session is live iff its token's cache entry is present. Cryptographic
// validity is necessary but not sufficient; cache presence is the actual
// revocation signal.
type Engine struct {
	config Config
	log    zerolog.Logger

	codec    *token.Codec
	cache    kvcache.Client
	registry *registry.Store
	csrf     *csrf.Handshake

	users     UserProvider
	passwords PasswordVerifier

	loginLimiter *rate.Limiter

	ready bool
}

// CSRF exposes the anti-forgery handshake for the host's routing layer.
func (e *Engine) CSRF() *csrf.Handshake {
	return e.csrf
}

// IssueTokens mints an access/refresh pair for an already-authenticated
// identity, enforcing the concurrent-session cap first. When the cap is
// reached it fails with [ErrTooManySessions] before any cache write.
func (e *Engine) IssueTokens(ctx context.Context, id Identity) (*TokenPair, error) {
	if e == nil || !e.ready {
		return nil, ErrEngineNotReady
	}

	group := e.sessionGroup(id.SubjectID)

	// Cap check fails closed: an unreachable cache must not mint sessions
	// it cannot track.
	members, err := e.registry.List(ctx, group)
	if err != nil {
		e.log.Error().Err(err).Str("subject", id.SubjectID).Msg("session cap check unavailable")
		return nil, fmt.Errorf("session cap check: %w", err)
	}
	if len(members) >= e.config.Session.MaxConcurrentSessions {
		return nil, ErrTooManySessions
	}

	refresh, err := e.codec.Sign(token.KindRefresh, id)
	if err != nil {
		return nil, err
	}
	if err := e.cache.Set(ctx, refresh, id.SubjectID, e.codec.Lifetime(token.KindRefresh)); err != nil {
		return nil, err
	}
	if err := e.registry.Register(ctx, group, refresh); err != nil {
		return nil, err
	}

	access, err := e.codec.Sign(token.KindAccess, id)
	if err != nil {
		return nil, err
	}
	if err := e.cache.Set(ctx, access, id.SubjectID, e.codec.Lifetime(token.KindAccess)); err != nil {
		return nil, err
	}

	e.log.Debug().Str("subject", id.SubjectID).Int("sessions", len(members)+1).Msg("session issued")

	return &TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

// Refresh mints a new access token against an existing refresh credential.
// The refresh token is not rotated. The old access token's cache entry is
// deleted best-effort; it may already have expired.
func (e *Engine) Refresh(ctx context.Context, oldAccessToken, refreshToken string) (*TokenPair, error) {
	if e == nil || !e.ready {
		return nil, ErrEngineNotReady
	}

	if oldAccessToken != "" {
		if err := e.cache.Del(ctx, oldAccessToken); err != nil {
			e.log.Warn().Err(err).Msg("best-effort old access token delete failed")
		}
	}

	// The refresh guard already verified signature and liveness; decode is
	// enough to recover the identity.
	claims, err := e.codec.Decode(refreshToken)
	if err != nil {
		return nil, err
	}

	access, err := e.codec.Sign(token.KindAccess, claims.Identity())
	if err != nil {
		return nil, err
	}
	if err := e.cache.Set(ctx, access, claims.Subject, e.codec.Lifetime(token.KindAccess)); err != nil {
		return nil, err
	}

	return &TokenPair{AccessToken: access, RefreshToken: refreshToken}, nil
}

// LogoutOne revokes a single session: both token cache entries are deleted
// and the refresh credential leaves the subject's session group.
func (e *Engine) LogoutOne(ctx context.Context, refreshToken, accessToken string) error {
	if e == nil || !e.ready {
		return ErrEngineNotReady
	}

	claims, decodeErr := e.codec.Decode(refreshToken)

	keys := []string{refreshToken}
	if accessToken != "" {
		keys = append(keys, accessToken)
	}
	if err := e.cache.Del(ctx, keys...); err != nil {
		return err
	}

	if decodeErr != nil {
		// Entries are gone but membership cannot be erased without a
		// subject; the stale member ages out with the registry TTL.
		return decodeErr
	}

	return e.registry.Erase(ctx, e.sessionGroup(claims.Subject), refreshToken)
}

// LogoutAll force-revokes every session of a principal by invalidating its
// session group. Access tokens issued earlier are not individually tracked
// and stay live until their own short TTL elapses; that window is bounded
// by the access lifetime.
func (e *Engine) LogoutAll(ctx context.Context, subjectID string) error {
	if e == nil || !e.ready {
		return ErrEngineNotReady
	}

	return e.registry.Invalidate(ctx, e.sessionGroup(subjectID))
}

// CheckLive applies the liveness rule: the token is usable iff its cache
// entry is present. A miss reads as [ErrCredentialExpired]; backend
// failure propagates so authorization paths deny.
func (e *Engine) CheckLive(ctx context.Context, tokenStr string) error {
	if e == nil || !e.ready {
		return ErrEngineNotReady
	}

	if _, err := e.cache.Get(ctx, tokenStr); err != nil {
		if kvcache.IsMiss(err) {
			return fmt.Errorf("%w: session revoked or expired", ErrCredentialExpired)
		}
		e.log.Error().Err(err).Msg("liveness check unavailable, denying")
		return err
	}
	return nil
}

// VerifyAccess runs the full access-credential gate: signature and
// lifetime under the codec, then cache liveness.
func (e *Engine) VerifyAccess(ctx context.Context, tokenStr string) (*AuthResult, error) {
	return e.verify(ctx, token.KindAccess, tokenStr)
}

// VerifyRefresh runs the full refresh-credential gate. A refresh token
// that verifies cryptographically but whose cache entry was revoked fails
// here with [ErrCredentialExpired].
func (e *Engine) VerifyRefresh(ctx context.Context, tokenStr string) (*AuthResult, error) {
	return e.verify(ctx, token.KindRefresh, tokenStr)
}

func (e *Engine) verify(ctx context.Context, kind token.Kind, tokenStr string) (*AuthResult, error) {
	if e == nil || !e.ready {
		return nil, ErrEngineNotReady
	}

	claims, err := e.codec.Verify(kind, tokenStr)
	if err != nil {
		return nil, err
	}
	if err := e.CheckLive(ctx, tokenStr); err != nil {
		return nil, err
	}

	return &AuthResult{Identity: claims.Identity(), Claims: claims}, nil
}

// Sessions is the session-check diagnostic: how many sessions a principal
// holds and the masked refresh keys tracking them.
func (e *Engine) Sessions(ctx context.Context, subjectID string) (*SessionInfo, error) {
	if e == nil || !e.ready {
		return nil, ErrEngineNotReady
	}

	members, err := e.registry.List(ctx, e.sessionGroup(subjectID))
	if err != nil {
		return nil, err
	}

	masked := make([]string, len(members))
	for i, m := range members {
		masked[i] = maskToken(m)
	}

	return &SessionInfo{
		SubjectID:      subjectID,
		ActiveSessions: len(members),
		RefreshKeys:    masked,
	}, nil
}

func (e *Engine) sessionGroup(subjectID string) string {
	return e.config.Session.GroupPrefix + ":" + subjectID
}

func maskToken(tok string) string {
	const visible = 12
	if len(tok) <= visible {
		return tok
	}
	return tok[:visible] + "..."
}
