package csrf

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/Veldhaus/credgate/kvcache"
	"github.com/Veldhaus/credgate/token"
)

// ErrInvalid is returned when the token/cookie pair is structurally broken
// or the hashes disagree.
var ErrInvalid = errors.New("csrf token invalid")

// ErrExpired is returned when the pair is structurally fine but the cached
// secret is gone, either never issued or aged out.
var ErrExpired = errors.New("csrf token expired")

const secretBytes = 32

// Grant is the issued anti-forgery pair: Token travels in the
// x-csrf-token header, CookieValue in the signed cookie.
type Grant struct {
	Token       string
	CookieValue string
}

// Handshake issues, promotes, and verifies anti-forgery grants against the
// cache. Immutable after construction and safe for concurrent use.
type Handshake struct {
	cache   kvcache.Client
	codec   *token.Codec
	anonTTL time.Duration
}

// NewHandshake creates a [Handshake]. anonTTL bounds how long an anonymous
// grant stays redeemable; authorized grants live as long as the refresh
// credential they are bound to.
func NewHandshake(cache kvcache.Client, codec *token.Codec, anonTTL time.Duration) *Handshake {
	return &Handshake{cache: cache, codec: codec, anonTTL: anonTTL}
}

// Issue mints an anonymous grant: a random token, a random secret cached
// under it, and the cookie hash derived from both.
func (h *Handshake) Issue(ctx context.Context) (*Grant, error) {
	tok, err := randomHex()
	if err != nil {
		return nil, err
	}
	secret, err := randomHex()
	if err != nil {
		return nil, err
	}

	if err := h.cache.Set(ctx, tok, secret, h.anonTTL); err != nil {
		return nil, err
	}

	return &Grant{Token: tok, CookieValue: cookieHash(secret, tok)}, nil
}

// CheckAnonymous verifies a header token against its cookie hash and, on
// success, renews the anonymous TTL. Structural failures and hash
// mismatches surface as [ErrInvalid]; a vanished cache entry as
// [ErrExpired]; cache unavailability propagates for the caller to deny.
func (h *Handshake) CheckAnonymous(ctx context.Context, headerToken, cookie string) error {
	if err := h.check(ctx, headerToken, headerToken, cookie); err != nil {
		return err
	}
	if err := h.cache.Touch(ctx, headerToken, h.anonTTL); err != nil && !kvcache.IsMiss(err) {
		return err
	}
	return nil
}

// CheckAuthorized verifies a promoted grant. The secret is cached under the
// refresh credential, which must independently verify under the codec, but
// the hash still binds the original x-csrf-token header the client has held
// since Issue. Success extends the grant to the full refresh lifetime.
func (h *Handshake) CheckAuthorized(ctx context.Context, refreshToken, headerToken, cookie string) error {
	if refreshToken == "" {
		return ErrInvalid
	}
	if _, err := h.codec.Verify(token.KindRefresh, refreshToken); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}

	if err := h.check(ctx, refreshToken, headerToken, cookie); err != nil {
		return err
	}
	if err := h.cache.Touch(ctx, refreshToken, h.codec.Lifetime(token.KindRefresh)); err != nil && !kvcache.IsMiss(err) {
		return err
	}
	return nil
}

// Promote rebinds an anonymous grant to a freshly issued refresh
// credential: the entry under the anonymous token is deleted and the same
// secret is re-cached under the refresh token with the refresh lifetime.
// The secret is moved, never re-derived, so the client's existing cookie
// keeps validating.
func (h *Handshake) Promote(ctx context.Context, anonToken, refreshToken string) error {
	secret, err := h.cache.Get(ctx, anonToken)
	if err != nil {
		if kvcache.IsMiss(err) {
			return ErrExpired
		}
		return err
	}

	if err := h.cache.Del(ctx, anonToken); err != nil {
		return err
	}

	return h.cache.Set(ctx, refreshToken, secret, h.codec.Lifetime(token.KindRefresh))
}

// check fetches the secret under cacheKey and compares the double-submit
// hash derived from the header token in constant time.
func (h *Handshake) check(ctx context.Context, cacheKey, headerToken, cookie string) error {
	if headerToken == "" || cookie == "" {
		return ErrInvalid
	}

	secret, err := h.cache.Get(ctx, cacheKey)
	if err != nil {
		if kvcache.IsMiss(err) {
			return ErrExpired
		}
		return err
	}

	want := cookieHash(secret, headerToken)
	if subtle.ConstantTimeCompare([]byte(want), []byte(cookie)) != 1 {
		return ErrInvalid
	}
	return nil
}

func cookieHash(secret, tok string) string {
	sum := sha256.Sum256([]byte(secret + tok))
	return hex.EncodeToString(sum[:])
}

func randomHex() (string, error) {
	buf := make([]byte, secretBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
