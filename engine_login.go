package credgate

import (
	"context"
	"errors"
	"fmt"
)

// LoginOptions carries optional per-login inputs.
type LoginOptions struct {
	// CSRFToken is the client's anonymous anti-forgery token. When set,
	// a successful login promotes the grant onto the issued refresh
	// credential so the client's cookie survives the transition.
	CSRFToken string
}

// Login authenticates a principal by email and password and issues a
// session. Unknown identifiers and failed password checks both surface as
// [ErrInvalidCredentials]; the distinction is logged server-side only.
func (e *Engine) Login(ctx context.Context, email, passwd string, opts LoginOptions) (*LoginResult, error) {
	if e == nil || !e.ready {
		return nil, ErrEngineNotReady
	}
	if e.users == nil || e.passwords == nil {
		return nil, fmt.Errorf("%w: login requires a user provider and password verifier", ErrEngineNotReady)
	}

	if e.loginLimiter != nil && !e.loginLimiter.Allow(email) {
		return nil, ErrLoginRateLimited
	}

	user, err := e.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			e.log.Debug().Str("email", email).Msg("login for unknown identifier")
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	ok, err := e.passwords.Verify(user.PasswordHash, passwd)
	if err != nil {
		return nil, err
	}
	if !ok {
		e.log.Debug().Str("subject", user.ID).Msg("login password mismatch")
		return nil, ErrInvalidCredentials
	}

	pair, err := e.IssueTokens(ctx, user.identity())
	if err != nil {
		return nil, err
	}

	if opts.CSRFToken != "" {
		// Promotion failing after issuance leaves an orphaned valid pair,
		// bounded by its TTL; the login itself still reports the failure.
		if err := e.csrf.Promote(ctx, opts.CSRFToken, pair.RefreshToken); err != nil {
			return nil, err
		}
	}

	e.log.Info().Str("subject", user.ID).Msg("login succeeded")

	return &LoginResult{TokenPair: *pair, Identity: user.identity()}, nil
}
