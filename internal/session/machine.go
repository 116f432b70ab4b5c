// Package session models verification of the stored token as a small state
// machine and decides what a page must do with the outcome.
package session

import (
	"context"
	"errors"
	"fmt"

	"budget/internal/core"
	"budget/internal/storage"
)

type State int

const (
	Unknown State = iota
	Checking
	Authenticated
	Unauthenticated
)

func (s State) String() string {
	switch s {
	case Checking:
		return "checking"
	case Authenticated:
		return "authenticated"
	case Unauthenticated:
		return "unauthenticated"
	default:
		return "unknown"
	}
}

var (
	ErrInvalidTransition = errors.New("invalid session transition")
	ErrTokenUnreadable   = errors.New("read stored token")
)

// Machine holds one page load's verification state.
type Machine struct {
	state State
	user  core.User
	cause error
}

func (m *Machine) State() State { return m.state }
func (m *Machine) User() core.User { return m.user }
func (m *Machine) Cause() error { return m.cause }

// Begin moves Unknown to Checking.
func (m *Machine) Begin() error {
	if m.state != Unknown {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, m.state, Checking)
	}
	m.state = Checking
	return nil
}

// Authenticate resolves Checking with a verified user.
func (m *Machine) Authenticate(u core.User) error {
	if m.state != Checking {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, m.state, Authenticated)
	}
	m.state, m.user, m.cause = Authenticated, u, nil
	return nil
}

// Reject resolves Checking as logged out. cause is nil when there was no
// token to check.
func (m *Machine) Reject(cause error) error {
	if m.state != Checking {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, m.state, Unauthenticated)
	}
	m.state, m.user, m.cause = Unauthenticated, core.User{}, cause
	return nil
}

// UserVerifier is the "who am I" call.
type UserVerifier interface {
	CurrentUser(ctx context.Context) (core.User, error)
}

// Outcome is the result of one verification.
type Outcome struct {
	State State
	User  core.User
	// HadToken is true when a token was found and sent for verification.
	HadToken bool
	Err      error
}

// Check runs Unknown -> Checking -> {Authenticated, Unauthenticated}.
// A failed read of the store counts as an absent token; Err then wraps
// ErrTokenUnreadable.
func Check(ctx context.Context, tokens storage.TokenStore, verifier UserVerifier) Outcome {
	var m Machine
	_ = m.Begin()

	token, ok, err := tokens.Get(ctx)
	if err != nil {
		err = fmt.Errorf("%w: %w", ErrTokenUnreadable, err)
		_ = m.Reject(err)
		return Outcome{State: m.State(), Err: err}
	}
	if !ok || token == "" {
		_ = m.Reject(nil)
		return Outcome{State: m.State()}
	}

	u, err := verifier.CurrentUser(ctx)
	if err == nil {
		err = u.Validate()
	}
	if err != nil {
		_ = m.Reject(err)
		return Outcome{State: m.State(), HadToken: true, Err: err}
	}

	_ = m.Authenticate(u)
	return Outcome{State: m.State(), User: m.User(), HadToken: true}
}
