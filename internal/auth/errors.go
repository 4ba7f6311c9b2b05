// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 VoWmud Contributors

package auth

import "errors"

// ErrNotFound is returned when a requested account does not exist.
var ErrNotFound = errors.New("not found")

// ErrDuplicateAccount is returned when inserting an account name that is
// already taken.
var ErrDuplicateAccount = errors.New("account name already exists")
