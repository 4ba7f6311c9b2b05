// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 VoWmud Contributors

package authflow

// State names a step in the authentication conversation.
type State string

// Login path.
const (
	StateInitial           State = "initial"
	StateShowBanner        State = "show_banner"
	StatePromptLogin       State = "prompt_login"
	StateReadLogin         State = "read_login"
	StatePromptPassword    State = "prompt_password"
	StateReadPassword      State = "read_password"
	StateValidate          State = "validate"
	StateAuthorizedPending State = "authorized_pending"
)

// Registration path.
const (
	StateRegInitial            State = "reg_initial"
	StatePromptAccountName     State = "prompt_account_name"
	StateReadAccountName       State = "read_account_name"
	StatePromptRealName        State = "prompt_real_name"
	StateReadRealName          State = "read_real_name"
	StatePromptNewPassword     State = "prompt_new_password"
	StateReadNewPassword       State = "read_new_password"
	StatePromptConfirmPassword State = "prompt_confirm_password"
	StateReadConfirmPassword   State = "read_confirm_password"
	StateCreateAccount         State = "create_account"
	StateInformSuccess         State = "inform_success"
)

// Terminal states.
const (
	StateAuthorized State = "authorized"
	StateError      State = "error"
)

// MaxLoginAttempts is the number of failed logins a connection may make.
// The failure of the last permitted attempt disconnects.
const MaxLoginAttempts = 5

// passwordRetryState is where a rejected new password or a failed
// confirmation sends the player. Returning to the real-name prompt discards
// the real name already entered; the established flow does this, so it is
// kept.
const passwordRetryState = StatePromptRealName

// loginCommandCreate at the login prompt switches to registration.
const loginCommandCreate = "c"
