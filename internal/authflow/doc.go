// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 VoWmud Contributors

// Package authflow implements the login and account registration
// conversation a player has with the server before entering the game.
//
// Each step of the conversation is a state handler in an fsm.Table. A
// handler sends at most one prompt or message, performs at most one
// blocking read, and names the next state. A connection's AuthSession is
// owned by the goroutine running the flow and is never shared.
//
// The login path ends in StateAuthorized or StateError. The registration
// path creates an account and loops back to StateInitial; it never
// authorizes the connection by itself.
package authflow
