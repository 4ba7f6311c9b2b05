// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 VoWmud Contributors

package authflow

import (
	"context"
	"errors"

	"github.com/samber/oops"

	"github.com/vowmud/vowmud/internal/auth"
	"github.com/vowmud/vowmud/internal/fsm"
	"github.com/vowmud/vowmud/pkg/errutil"
)

// validationMessages maps validator error codes to auth message ids.
var validationMessages = map[string]string{
	"AUTH_NAME_LENGTH":         "name_length",
	"AUTH_NAME_CHARSET":        "name_charset",
	"AUTH_NAME_ANSI":           "name_ansi",
	"AUTH_PASSWORD_LENGTH":     "password_length",
	"AUTH_PASSWORD_WHITESPACE": "password_whitespace",
}

func validationMessage(err error) string {
	if oopsErr, ok := oops.AsOops(err); ok {
		if code, ok := oopsErr.Code().(string); ok {
			if id, ok := validationMessages[code]; ok {
				return id
			}
		}
	}
	return "service_unavailable"
}

func (f *Flow) regInitial(ctx context.Context, s *AuthSession) result {
	if _, ok := s.Draft.(*RegistrationDraft); !ok {
		s.Draft = &RegistrationDraft{}
	}
	return fsm.Next(StatePromptAccountName, s)
}

func (f *Flow) promptAccountName(ctx context.Context, s *AuthSession) result {
	return f.say(ctx, s, StatePromptAccountName, "create_name_prompt", StateReadAccountName)
}

func (f *Flow) readAccountName(ctx context.Context, s *AuthSession) result {
	input, ok := f.read(s)
	if !ok {
		return f.connectionLost(ctx, s, StateReadAccountName)
	}
	d, ok := f.registrationDraft(ctx, s, StateReadAccountName)
	if !ok {
		return fsm.Next(StateError, s)
	}

	_, err := f.store.FindByAccountName(ctx, input)
	switch {
	case err == nil:
		f.logger.WarnContext(ctx, "validation error: account name already in use", f.attrs(s, "account", input)...)
		return f.say(ctx, s, StateReadAccountName, "name_taken", StatePromptAccountName)
	case !errors.Is(err, auth.ErrNotFound):
		errutil.LogError(f.logger, "account lookup failed", err, f.attrs(s, "account", input)...)
		return f.say(ctx, s, StateReadAccountName, "service_unavailable", StateError)
	}

	if err := auth.ValidateAccountName(input); err != nil {
		f.logger.WarnContext(ctx, "validation error: account name rejected",
			f.attrs(s, "account", input, "error", err.Error())...,
		)
		return f.say(ctx, s, StateReadAccountName, validationMessage(err), StatePromptAccountName)
	}

	d.AccountName = input
	return fsm.Next(StatePromptRealName, s)
}

func (f *Flow) promptRealName(ctx context.Context, s *AuthSession) result {
	return f.say(ctx, s, StatePromptRealName, "real_name_prompt", StateReadRealName)
}

func (f *Flow) readRealName(ctx context.Context, s *AuthSession) result {
	input, ok := f.read(s)
	if !ok {
		return f.connectionLost(ctx, s, StateReadRealName)
	}
	d, ok := f.registrationDraft(ctx, s, StateReadRealName)
	if !ok {
		return fsm.Next(StateError, s)
	}
	d.RealName = input
	return fsm.Next(StatePromptNewPassword, s)
}

func (f *Flow) promptNewPassword(ctx context.Context, s *AuthSession) result {
	return f.say(ctx, s, StatePromptNewPassword, "new_password_prompt", StateReadNewPassword)
}

func (f *Flow) readNewPassword(ctx context.Context, s *AuthSession) result {
	input, ok := f.read(s)
	if !ok {
		return f.connectionLost(ctx, s, StateReadNewPassword)
	}
	d, ok := f.registrationDraft(ctx, s, StateReadNewPassword)
	if !ok {
		return fsm.Next(StateError, s)
	}

	if err := auth.ValidatePassword(input); err != nil {
		f.logger.WarnContext(ctx, "validation error: password rejected",
			f.attrs(s, "account", d.AccountName, "error", err.Error())...,
		)
		return f.say(ctx, s, StateReadNewPassword, validationMessage(err), passwordRetryState)
	}

	d.Password = input
	return fsm.Next(StatePromptConfirmPassword, s)
}

func (f *Flow) promptConfirmPassword(ctx context.Context, s *AuthSession) result {
	return f.say(ctx, s, StatePromptConfirmPassword, "confirm_password_prompt", StateReadConfirmPassword)
}

func (f *Flow) readConfirmPassword(ctx context.Context, s *AuthSession) result {
	input, ok := f.read(s)
	if !ok {
		return f.connectionLost(ctx, s, StateReadConfirmPassword)
	}
	d, ok := f.registrationDraft(ctx, s, StateReadConfirmPassword)
	if !ok {
		return fsm.Next(StateError, s)
	}

	if input != d.Password {
		d.Password = ""
		f.logger.WarnContext(ctx, "validation error: passwords do not match", f.attrs(s, "account", d.AccountName)...)
		return f.say(ctx, s, StateReadConfirmPassword, "password_mismatch", passwordRetryState)
	}
	return fsm.Next(StateCreateAccount, s)
}

func (f *Flow) createAccount(ctx context.Context, s *AuthSession) result {
	d, ok := f.registrationDraft(ctx, s, StateCreateAccount)
	if !ok {
		return fsm.Next(StateError, s)
	}

	passwordHash, realNameHash, err := f.hashCredentials(d)
	if err != nil {
		errutil.LogError(f.logger, "hash new account credentials", err, f.attrs(s, "account", d.AccountName)...)
		return f.say(ctx, s, StateCreateAccount, "service_unavailable", StateError)
	}
	d.Password = ""

	_, err = f.store.Insert(ctx, d.AccountName, realNameHash, passwordHash)
	switch {
	case errors.Is(err, auth.ErrDuplicateAccount):
		f.logger.WarnContext(ctx, "validation error: account name already in use", f.attrs(s, "account", d.AccountName)...)
		d.AccountName = ""
		return f.say(ctx, s, StateCreateAccount, "name_taken", StatePromptAccountName)
	case err != nil:
		errutil.LogError(f.logger, "account insert failed", err, f.attrs(s, "account", d.AccountName)...)
		return f.say(ctx, s, StateCreateAccount, "service_unavailable", StateError)
	}

	RecordAccountCreated()
	f.logger.InfoContext(ctx, "account creation successful", f.attrs(s, "account", d.AccountName)...)
	return fsm.Next(StateInformSuccess, s)
}

// hashCredentials hashes the password and real name with one fresh salt.
func (f *Flow) hashCredentials(d *RegistrationDraft) (passwordHash, realNameHash string, err error) {
	salt, err := f.hasher.NewSalt()
	if err != nil {
		return "", "", oops.Code("AUTHFLOW_HASH_FAILED").Wrap(err)
	}
	passwordHash, err = f.hasher.HashWithSalt(d.Password, salt)
	if err != nil {
		return "", "", oops.Code("AUTHFLOW_HASH_FAILED").With("field", "password").Wrap(err)
	}
	realNameHash, err = f.hasher.HashWithSalt(d.RealName, salt)
	if err != nil {
		return "", "", oops.Code("AUTHFLOW_HASH_FAILED").With("field", "real_name").Wrap(err)
	}
	return passwordHash, realNameHash, nil
}

func (f *Flow) informSuccess(ctx context.Context, s *AuthSession) result {
	s.Draft = &LoginDraft{}
	return f.say(ctx, s, StateInformSuccess, "account_created", StateInitial)
}

// registrationDraft returns the session's registration draft. A missing one
// is a broken transition and is logged.
func (f *Flow) registrationDraft(ctx context.Context, s *AuthSession, state State) (*RegistrationDraft, bool) {
	d, ok := s.Draft.(*RegistrationDraft)
	if !ok {
		f.logger.ErrorContext(ctx, "registration state reached without a registration draft", f.attrs(s, "state", string(state))...)
	}
	return d, ok
}
