// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 VoWmud Contributors

package authflow

import (
	"strings"
	"unicode"

	"github.com/oklog/ulid/v2"
)

// Transport is the player's byte stream.
//
// Read blocks until input arrives and returns at most max bytes. Any error,
// including io.EOF or a deadline, means the peer is gone. An empty read
// with a nil error is treated the same way.
type Transport interface {
	Read(max int) ([]byte, error)
	Write(p []byte) error
	Flush() error
	PeerAddress() string
}

// Identity is the long-lived identity of one connection. It outlives the
// authentication flow and is owned by the connection handler.
type Identity struct {
	ConnID      ulid.ULID
	Peer        string
	AccountName string // set once login succeeds
	Authorized  bool
}

// Draft holds credentials collected but not yet committed.
type Draft interface {
	draft()
}

// LoginDraft is the draft for the login path.
type LoginDraft struct {
	AccountName string
	Password    string
}

func (*LoginDraft) draft() {}

func (d *LoginDraft) empty() bool {
	return d.AccountName == "" && d.Password == ""
}

// RegistrationDraft is the draft for the registration path.
type RegistrationDraft struct {
	AccountName string
	RealName    string
	Password    string
}

func (*RegistrationDraft) draft() {}

// AuthSession is the mutable state of one connection's authentication.
type AuthSession struct {
	Transport     Transport
	Identity      *Identity
	Draft         Draft
	LoginAttempts int
}

// NewAuthSession creates a session with an empty login draft.
func NewAuthSession(t Transport, id *Identity) *AuthSession {
	return &AuthSession{
		Transport: t,
		Identity:  id,
		Draft:     &LoginDraft{},
	}
}

// trimInput strips the line terminator and any trailing whitespace.
func trimInput(b []byte) string {
	return strings.TrimRightFunc(string(b), unicode.IsSpace)
}
