package credgate

import (
	"context"

	"github.com/Veldhaus/credgate/token"
)

// Identity is the principal payload signed into every credential.
type Identity = token.Identity

// TokenPair is the result of a successful login or refresh.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

// LoginResult carries the issued credentials plus the authenticated
// identity for the host to shape its response from.
type LoginResult struct {
	TokenPair
	Identity Identity
}

// AuthResult is produced by the request guards after a credential passes
// verification and the liveness check.
type AuthResult struct {
	Identity Identity
	Claims   *token.Claims
}

// SessionInfo is the session-check diagnostic view of a principal.
// RefreshKeys are masked: only a short prefix of each tracked refresh
// credential is exposed.
type SessionInfo struct {
	SubjectID      string
	ActiveSessions int
	RefreshKeys    []string
}

// UserRecord is the principal shape the engine reads from the relational
// store. The engine never writes back.
type UserRecord struct {
	ID           string
	Email        string
	DisplayName  string
	Role         string
	PasswordHash string
}

// UserProvider is the relational-store lookup contract consumed by login
// and the session-check diagnostics. Implementations return
// [ErrUserNotFound] for unknown principals.
type UserProvider interface {
	FindByEmail(ctx context.Context, email string) (*UserRecord, error)
	FindByID(ctx context.Context, id string) (*UserRecord, error)
}

// PasswordVerifier checks a plaintext password against a stored one-way
// hash. The hashing scheme itself is opaque to the engine;
// [password.Hasher] is the bundled implementation.
type PasswordVerifier interface {
	Verify(encodedHash, password string) (bool, error)
}

func (u *UserRecord) identity() Identity {
	return Identity{
		SubjectID:   u.ID,
		Email:       u.Email,
		DisplayName: u.DisplayName,
		Role:        u.Role,
	}
}
