// Package profile drives the profile screen's data flow: resolve the cached
// employee identifier, fetch personal and work details and the profile
// picture, and report the outcome as an explicit state.
package profile

import (
	"errors"
	"fmt"
)

// State is a profile loader state.
type State int

const (
	Idle State = iota
	AwaitingIdentifier
	Loading
	Loaded
	Empty
	Error
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case AwaitingIdentifier:
		return "awaiting identifier"
	case Loading:
		return "loading"
	case Loaded:
		return "loaded"
	case Empty:
		return "empty"
	case Error:
		return "error"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// Terminal reports whether a load has finished in s.
func (s State) Terminal() bool {
	return s == Loaded || s == Empty || s == Error
}

// Event drives a transition.
type Event int

const (
	Start Event = iota
	IdentifierResolved
	IdentifierMissing
	PersonalLoaded
	PersonalEmpty
	FetchFailed
	Reload
	Cancel
)

func (e Event) String() string {
	switch e {
	case Start:
		return "start"
	case IdentifierResolved:
		return "identifier resolved"
	case IdentifierMissing:
		return "identifier missing"
	case PersonalLoaded:
		return "personal loaded"
	case PersonalEmpty:
		return "personal empty"
	case FetchFailed:
		return "fetch failed"
	case Reload:
		return "reload"
	case Cancel:
		return "cancel"
	}
	return fmt.Sprintf("event(%d)", int(e))
}

// ErrInvalidTransition is returned for an event the current state does not accept.
var ErrInvalidTransition = errors.New("invalid transition")

type transition struct {
	from State
	on   Event
}

var transitions = map[transition]State{
	{Idle, Start}: AwaitingIdentifier,

	{AwaitingIdentifier, IdentifierResolved}: Loading,
	{AwaitingIdentifier, IdentifierMissing}:  AwaitingIdentifier,

	{Loading, PersonalLoaded}: Loaded,
	{Loading, PersonalEmpty}:  Empty,
	{Loading, FetchFailed}:    Error,

	{Loaded, Reload}: Loading,
	{Empty, Reload}:  Loading,
	{Error, Reload}:  Loading,
}

// Next returns the state reached from s on e. Cancel is accepted from every
// state and returns to Idle.
func Next(s State, e Event) (State, error) {
	if e == Cancel {
		return Idle, nil
	}

	to, ok := transitions[transition{s, e}]
	if !ok {
		return s, fmt.Errorf("%w: %s on %s", ErrInvalidTransition, s, e)
	}
	return to, nil
}
