// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 VoWmud Contributors

package authflow

import (
	"context"
	"errors"

	"github.com/vowmud/vowmud/internal/auth"
	"github.com/vowmud/vowmud/internal/fsm"
	"github.com/vowmud/vowmud/pkg/errutil"
)

type result = fsm.Result[State, *AuthSession]

// dummyPasswordHash is verified when the account does not exist so that
// an unknown name costs the same as a wrong password. It matches nothing.
const dummyPasswordHash = "$argon2id$v=19$m=65536,t=1,p=4$AAAAAAAAAAAAAAAAAAAAAA$AAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAA"

func (f *Flow) initial(ctx context.Context, s *AuthSession) result {
	f.logger.InfoContext(ctx, "authentication process initialized", f.attrs(s)...)
	return fsm.Next(StateShowBanner, s)
}

func (f *Flow) showBanner(ctx context.Context, s *AuthSession) result {
	return f.say(ctx, s, StateShowBanner, "banner", StatePromptLogin)
}

func (f *Flow) promptLogin(ctx context.Context, s *AuthSession) result {
	return f.say(ctx, s, StatePromptLogin, "login_prompt", StateReadLogin)
}

func (f *Flow) readLogin(ctx context.Context, s *AuthSession) result {
	input, ok := f.read(s)
	if !ok {
		return f.connectionLost(ctx, s, StateReadLogin)
	}

	if input == loginCommandCreate {
		s.Draft = &RegistrationDraft{}
		f.logger.InfoContext(ctx, "account creation initiated", f.attrs(s)...)
		return fsm.Next(StateRegInitial, s)
	}

	// A retry must not see the previous attempt's fields.
	d, isLogin := s.Draft.(*LoginDraft)
	if !isLogin || !d.empty() {
		d = &LoginDraft{}
		s.Draft = d
	}
	d.AccountName = input
	s.LoginAttempts++

	f.logger.InfoContext(ctx, "account login initiated",
		f.attrs(s, "account", input, "attempt", s.LoginAttempts)...,
	)
	return fsm.Next(StatePromptPassword, s)
}

func (f *Flow) promptPassword(ctx context.Context, s *AuthSession) result {
	return f.say(ctx, s, StatePromptPassword, "password_prompt", StateReadPassword)
}

func (f *Flow) readPassword(ctx context.Context, s *AuthSession) result {
	input, ok := f.read(s)
	if !ok {
		return f.connectionLost(ctx, s, StateReadPassword)
	}
	d, ok := f.loginDraft(ctx, s, StateReadPassword)
	if !ok {
		return fsm.Next(StateError, s)
	}
	d.Password = input
	return fsm.Next(StateValidate, s)
}

func (f *Flow) validate(ctx context.Context, s *AuthSession) result {
	d, ok := f.loginDraft(ctx, s, StateValidate)
	if !ok {
		return fsm.Next(StateError, s)
	}
	name := d.AccountName

	if f.registry.IsOnline(name) {
		f.logger.WarnContext(ctx, "validation error: account already logged in", f.attrs(s, "account", name)...)
		RecordLoginFailure(ReasonAlreadyOnline)
		return f.say(ctx, s, StateValidate, "already_online", StateError)
	}

	target := dummyPasswordHash
	account, err := f.store.FindByAccountName(ctx, name)
	switch {
	case err == nil:
		target = account.PasswordHash
	case errors.Is(err, auth.ErrNotFound):
		account = nil
	default:
		errutil.LogError(f.logger, "account lookup failed", err, f.attrs(s, "account", name)...)
		return f.say(ctx, s, StateValidate, "service_unavailable", StateError)
	}

	match, verifyErr := f.hasher.Verify(d.Password, target)
	d.Password = ""

	if account != nil && verifyErr != nil {
		errutil.LogError(f.logger, "stored password hash is unreadable", verifyErr, f.attrs(s, "account", name)...)
	}

	if account != nil && verifyErr == nil && match {
		return fsm.Next(StateAuthorizedPending, s)
	}

	reason := ReasonWrongPassword
	if account == nil {
		reason = ReasonUnknownAccount
		f.logger.WarnContext(ctx, "validation error: account does not exist", f.attrs(s, "account", name)...)
	} else {
		f.logger.WarnContext(ctx, "validation error: password does not match", f.attrs(s, "account", name)...)
	}
	RecordLoginFailure(reason)

	if s.LoginAttempts < MaxLoginAttempts {
		return f.say(ctx, s, StateValidate, "login_incorrect", StateShowBanner)
	}

	f.logger.WarnContext(ctx, "validation error: maximum retries reached",
		f.attrs(s, "account", name, "attempt", s.LoginAttempts)...,
	)
	RecordLoginFailure(ReasonMaxAttempts)
	return f.say(ctx, s, StateValidate, "max_attempts", StateError)
}

func (f *Flow) authorizedPending(ctx context.Context, s *AuthSession) result {
	d, ok := f.loginDraft(ctx, s, StateAuthorizedPending)
	if !ok {
		return fsm.Next(StateError, s)
	}
	name := d.AccountName

	if !f.registry.Claim(name, s.Identity.ConnID) {
		f.logger.WarnContext(ctx, "validation error: account already logged in", f.attrs(s, "account", name)...)
		RecordLoginFailure(ReasonAlreadyOnline)
		return f.say(ctx, s, StateAuthorizedPending, "already_online", StateError)
	}

	s.Identity.AccountName = name
	s.Identity.Authorized = true
	s.Draft = &LoginDraft{}

	f.logger.InfoContext(ctx, "account login authorized", f.attrs(s, "account", name)...)
	return fsm.Next(StateAuthorized, s)
}

// loginDraft returns the session's login draft. A missing one is a broken
// transition and is logged.
func (f *Flow) loginDraft(ctx context.Context, s *AuthSession, state State) (*LoginDraft, bool) {
	d, ok := s.Draft.(*LoginDraft)
	if !ok {
		f.logger.ErrorContext(ctx, "login state reached without a login draft", f.attrs(s, "state", string(state))...)
	}
	return d, ok
}
