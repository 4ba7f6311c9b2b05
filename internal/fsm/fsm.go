// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 VoWmud Contributors

// Package fsm provides a small sequential state machine driver.
//
// A Builder collects named handlers into an immutable Table. A Machine runs
// a Table against one session value, invoking handlers one at a time until a
// terminal state is reached. Tables carry no process-wide state, so any
// number of machines may be built and run independently.
package fsm

import (
	"context"

	"github.com/samber/oops"
)

// Result is the value every handler returns: the next state to enter and the
// session as the handler left it.
type Result[S comparable, T any] struct {
	Next    S
	Session T
}

// Next builds a Result.
func Next[S comparable, T any](state S, session T) Result[S, T] {
	return Result[S, T]{Next: state, Session: session}
}

// Handler runs the logic for one state.
type Handler[S comparable, T any] func(ctx context.Context, session T) Result[S, T]

// OnEnter runs once when a terminal state is reached.
type OnEnter[T any] func(ctx context.Context, session T)

type binding[S comparable, T any] struct {
	handler  Handler[S, T]
	onEnter  OnEnter[T]
	terminal bool
}

// Builder accumulates state bindings. It is not safe for concurrent use.
type Builder[S comparable, T any] struct {
	states   map[S]binding[S, T]
	start    S
	startSet bool
}

// NewBuilder creates an empty Builder.
func NewBuilder[S comparable, T any]() *Builder[S, T] {
	return &Builder[S, T]{states: make(map[S]binding[S, T])}
}

// Register binds a non-terminal state to its handler. Registering a name a
// second time replaces the earlier binding.
func (b *Builder[S, T]) Register(name S, h Handler[S, T]) *Builder[S, T] {
	b.states[name] = binding[S, T]{handler: h}
	return b
}

// Terminal binds a terminal state. onEnter may be nil. Registering a name a
// second time replaces the earlier binding.
func (b *Builder[S, T]) Terminal(name S, onEnter OnEnter[T]) *Builder[S, T] {
	b.states[name] = binding[S, T]{onEnter: onEnter, terminal: true}
	return b
}

// SetStart designates the state Run begins in.
func (b *Builder[S, T]) SetStart(name S) *Builder[S, T] {
	b.start = name
	b.startSet = true
	return b
}

// Build validates the bindings and returns an immutable Table.
func (b *Builder[S, T]) Build() (*Table[S, T], error) {
	if !b.startSet {
		return nil, oops.Code("FSM_NO_START").Errorf("start state not set")
	}
	if _, ok := b.states[b.start]; !ok {
		return nil, oops.Code("FSM_UNKNOWN_START").
			With("state", b.start).
			Errorf("start state %v is not registered", b.start)
	}
	for name, st := range b.states {
		if !st.terminal && st.handler == nil {
			return nil, oops.Code("FSM_NIL_HANDLER").
				With("state", name).
				Errorf("state %v has no handler", name)
		}
	}

	states := make(map[S]binding[S, T], len(b.states))
	for name, st := range b.states {
		states[name] = st
	}
	return &Table[S, T]{states: states, start: b.start}, nil
}

// Table is a validated, read-only transition table.
type Table[S comparable, T any] struct {
	states map[S]binding[S, T]
	start  S
}

// Start returns the start state.
func (t *Table[S, T]) Start() S {
	return t.start
}

// Has reports whether name is registered.
func (t *Table[S, T]) Has(name S) bool {
	_, ok := t.states[name]
	return ok
}

// IsTerminal reports whether name is a registered terminal state.
func (t *Table[S, T]) IsTerminal(name S) bool {
	st, ok := t.states[name]
	return ok && st.terminal
}

// Len returns the number of registered states.
func (t *Table[S, T]) Len() int {
	return len(t.states)
}

// Observer is notified of every transition a Machine takes.
type Observer[S comparable] func(from, to S)

// Machine drives a Table.
type Machine[S comparable, T any] struct {
	table    *Table[S, T]
	observer Observer[S]
}

// NewMachine creates a Machine for table.
func NewMachine[S comparable, T any](table *Table[S, T]) *Machine[S, T] {
	return &Machine[S, T]{table: table}
}

// WithObserver returns a copy of the machine that reports transitions to o.
func (m *Machine[S, T]) WithObserver(o Observer[S]) *Machine[S, T] {
	return &Machine[S, T]{table: m.table, observer: o}
}

// Run executes handlers from the start state until a terminal state is
// entered, and returns that state.
//
// A handler returning a state that is not in the table is a programming
// error: Run stops and returns an FSM_UNKNOWN_STATE error.
func (m *Machine[S, T]) Run(ctx context.Context, session T) (S, error) {
	current := m.table.start
	st := m.table.states[current]

	if st.terminal {
		if st.onEnter != nil {
			st.onEnter(ctx, session)
		}
		return current, nil
	}

	for {
		if err := ctx.Err(); err != nil {
			return current, oops.Code("FSM_CANCELLED").
				With("state", current).
				Wrap(err)
		}

		res := st.handler(ctx, session)
		session = res.Session

		next, ok := m.table.states[res.Next]
		if !ok {
			return current, oops.Code("FSM_UNKNOWN_STATE").
				With("from", current).
				With("state", res.Next).
				Errorf("handler for %v returned unregistered state %v", current, res.Next)
		}
		if m.observer != nil {
			m.observer(current, res.Next)
		}

		current = res.Next
		st = next
		if st.terminal {
			if st.onEnter != nil {
				st.onEnter(ctx, session)
			}
			return current, nil
		}
	}
}
