// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 VoWmud Contributors

package auth

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/samber/oops"
)

// Account name constraints, in runes.
const (
	MinAccountNameLength = 4
	MaxAccountNameLength = 20
)

// Password constraints, in runes.
const (
	MinPasswordLength = 10
	MaxPasswordLength = 30
)

// ansiSequence matches an SGR escape such as ESC[1;31m, either as the raw
// ESC byte or typed out as \033, \x1b or \e.
var ansiSequence = regexp.MustCompile(`(?:\x1b|\\033|\\x1[bB]|\\e)\[.*m`)

// ValidateAccountName checks a candidate account name.
// Rules, checked in order:
//   - MinAccountNameLength to MaxAccountNameLength runes (AUTH_NAME_LENGTH)
//   - must not start with a digit or contain whitespace (AUTH_NAME_CHARSET)
//   - must not contain an ANSI escape sequence (AUTH_NAME_ANSI)
func ValidateAccountName(name string) error {
	n := utf8.RuneCountInString(name)
	if n < MinAccountNameLength || n > MaxAccountNameLength {
		return oops.Code("AUTH_NAME_LENGTH").
			With("min", MinAccountNameLength).
			With("max", MaxAccountNameLength).
			Errorf("account name must be %d-%d characters", MinAccountNameLength, MaxAccountNameLength)
	}
	first, _ := utf8.DecodeRuneInString(name)
	if (first >= '0' && first <= '9') || strings.IndexFunc(name, unicode.IsSpace) >= 0 {
		return oops.Code("AUTH_NAME_CHARSET").
			Errorf("account name cannot start with a digit or contain whitespace")
	}
	if ansiSequence.MatchString(name) {
		return oops.Code("AUTH_NAME_ANSI").
			Errorf("account name cannot contain ANSI escape sequences")
	}
	return nil
}

// ValidatePassword checks a candidate password.
// Rules, checked in order:
//   - MinPasswordLength to MaxPasswordLength runes (AUTH_PASSWORD_LENGTH)
//   - must not contain whitespace (AUTH_PASSWORD_WHITESPACE)
func ValidatePassword(password string) error {
	n := utf8.RuneCountInString(password)
	if n < MinPasswordLength || n > MaxPasswordLength {
		return oops.Code("AUTH_PASSWORD_LENGTH").
			With("min", MinPasswordLength).
			With("max", MaxPasswordLength).
			Errorf("password must be %d-%d characters", MinPasswordLength, MaxPasswordLength)
	}
	if strings.IndexFunc(password, unicode.IsSpace) >= 0 {
		return oops.Code("AUTH_PASSWORD_WHITESPACE").
			Errorf("password cannot contain whitespace")
	}
	return nil
}
