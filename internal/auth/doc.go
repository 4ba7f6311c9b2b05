// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 VoWmud Contributors

// Package auth provides the credential primitives used by the login flow.
//
// # Hashing
//
// PasswordHasher produces PHC-encoded argon2id hashes. Verify compares in
// constant time and also accepts bcrypt hashes written by the legacy
// server, so imported accounts can still log in.
//
// # Validation
//
// ValidateAccountName and ValidatePassword are pure functions returning
// coded oops errors (AUTH_NAME_*, AUTH_PASSWORD_*). They do not consult
// storage; whether a name is already taken is the AccountStore's concern.
//
// # Storage
//
// AccountStore is implemented by the postgres, sqlite and memory
// subpackages. Account names are case-sensitive unique keys.
package auth
