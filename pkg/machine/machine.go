package machine

import (
	"errors"
	"fmt"
	"slices"
	"sync"
)

type State interface {
	~string
}

// Allowable maps where a from state is allowed to transition to
type Allowable[S State] struct {
	from S
	to   []S
}

// StateMachine tracks the current state and the transitions allowed out of it.
// It is safe for concurrent use.
type StateMachine[S State] struct {
	mu        sync.Mutex
	fromState S
	toStates  []Allowable[S]
}

var (
	ErrInvalidTransition = errors.New("invalid state transition")
)

// TransitionBuilder helps in creating a from-to relationship for state transitions
type TransitionBuilder[S State] struct {
	transition Allowable[S]
}

func New[S State](currentState S, transitions ...Allowable[S]) *StateMachine[S] {
	return &StateMachine[S]{fromState: currentState, toStates: transitions}
}

// From initializes a transition from a specific state
func From[S State](from S) *TransitionBuilder[S] {
	return &TransitionBuilder[S]{transition: Allowable[S]{from: from}}
}

// To sets the possible destination states and returns the configured transition
func (tb *TransitionBuilder[S]) To(to ...S) Allowable[S] {
	tb.transition.to = to
	return tb.transition
}

// Current returns the state the machine is in
func (m *StateMachine[S]) Current() S {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.fromState
}

// ToState determines if the machine can move from its current state to s
func (m *StateMachine[S]) ToState(s S) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.allowed(s)
}

// Transition moves the machine to s if the transition is allowed
func (m *StateMachine[S]) Transition(s S) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.allowed(s); err != nil {
		return fmt.Errorf("%w: %s -> %s", err, m.fromState, s)
	}

	m.fromState = s
	return nil
}

func (m *StateMachine[S]) allowed(s S) error {
	for _, transition := range m.toStates {
		// can't transition from one state to another state if we're not in the same from state
		if transition.from != m.fromState {
			continue
		}

		if slices.Contains(transition.to, s) {
			return nil
		}
	}

	return ErrInvalidTransition
}
