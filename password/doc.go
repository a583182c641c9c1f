// Package password provides the bundled argon2id password hasher. The
// engine treats hashing as an opaque one-way function behind the
// PasswordVerifier interface; this package is the default implementation
// hosts can use when they do not bring their own.
package password
