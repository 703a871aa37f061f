// Package fsm is a small finite-state-machine builder: states, guarded
// transitions, entry/exit actions. Adapted from a reactive/async version
// into a synchronous one — the only caller (pkg/securechannel's handshake)
// always fires events from inside a single worker's own relay goroutine,
// so there is nothing to make reactive and a goroutine-per-Fire would only
// add a layer of indirection around code that must already run to
// completion before the next mailbox message is handled.
package fsm

import (
	"context"
	"fmt"
	"sync"
)

// State identifies one state of the machine.
type State string

// Event identifies a trigger that may cause a transition.
type Event string

// Action runs during a transition — on exit, on the transition itself, or
// on entry to the new state. Returning an error aborts the Fire call; the
// machine's current state is left at whatever point the abort occurred.
type Action func(ctx context.Context, transition TransitionContext) error

// Guard decides whether a transition may proceed.
type Guard func(ctx context.Context, transition TransitionContext) bool

// TransitionType controls whether a transition runs exit/entry actions.
type TransitionType int

const (
	// TransitionExternal exits the source state and enters the target.
	TransitionExternal TransitionType = iota
	// TransitionInternal runs its action without changing state and
	// without running any entry/exit actions.
	TransitionInternal
)

// TransitionContext carries the event, endpoints, and caller-supplied data
// for one Fire call into every Guard/Action it invokes.
type TransitionContext struct {
	FSM   *StateMachine
	Event Event
	From  State
	To    State
	Data  any
}

// StateMachine is a synchronous, mutex-guarded finite state machine.
type StateMachine struct {
	id           string
	mu           sync.Mutex
	currentState State
	states       map[State]*StateConfig
	onTransition []func(TransitionContext)
}

// StateConfig holds the entry/exit actions and outgoing transitions
// configured for one state.
type StateConfig struct {
	state       State
	onEntry     []Action
	onExit      []Action
	transitions map[Event]*Transition
}

// Transition is one configured event -> next-state edge.
type Transition struct {
	trigger Event
	to      State
	guard   Guard
	actions []Action
	kind    TransitionType
}

// New creates a StateMachine starting in initialState.
func New(id string, initialState State) *StateMachine {
	return &StateMachine{
		id:           id,
		currentState: initialState,
		states:       make(map[State]*StateConfig),
	}
}

// CurrentState returns the machine's state as of the last completed Fire.
func (sm *StateMachine) CurrentState() State {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	return sm.currentState
}

// Configure returns a builder for state's entry/exit actions and outgoing
// transitions, creating its config on first use.
func (sm *StateMachine) Configure(state State) *StateConfigBuilder {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	config, ok := sm.states[state]
	if !ok {
		config = &StateConfig{
			state:       state,
			transitions: make(map[Event]*Transition),
		}
		sm.states[state] = config
	}
	return &StateConfigBuilder{config: config}
}

// Fire triggers event from the current state and runs its guard, exit
// actions (if external), transition actions, and entry actions (if
// external), in that order, updating the state in between exactly as the
// original spec describes. It returns the resulting state, or an error —
// and leaves the state unchanged — if no transition is configured, the
// guard rejects, or an exit or transition action fails. An entry action
// runs after the state has already moved to the target, so when one fails
// Fire returns the target state together with the error.
func (sm *StateMachine) Fire(ctx context.Context, event Event, data any) (State, error) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	currentState := sm.currentState
	stateConfig, ok := sm.states[currentState]
	if !ok {
		return currentState, fmt.Errorf("fsm: no configuration for state %s", currentState)
	}

	transition, ok := stateConfig.transitions[event]
	if !ok {
		return currentState, fmt.Errorf("fsm: no transition defined for event %s in state %s", event, currentState)
	}

	tCtx := TransitionContext{FSM: sm, Event: event, From: currentState, To: transition.to, Data: data}

	if transition.guard != nil && !transition.guard(ctx, tCtx) {
		return currentState, fmt.Errorf("fsm: guard rejected transition %s -> %s on event %s", currentState, transition.to, event)
	}

	if transition.kind == TransitionExternal {
		for _, action := range stateConfig.onExit {
			if err := action(ctx, tCtx); err != nil {
				return currentState, fmt.Errorf("fsm: exit action failed: %w", err)
			}
		}
	}

	for _, action := range transition.actions {
		if err := action(ctx, tCtx); err != nil {
			return currentState, fmt.Errorf("fsm: transition action failed: %w", err)
		}
	}

	sm.currentState = transition.to

	if transition.kind == TransitionExternal {
		if newStateConfig, ok := sm.states[transition.to]; ok {
			for _, action := range newStateConfig.onEntry {
				if err := action(ctx, tCtx); err != nil {
					return sm.currentState, fmt.Errorf("fsm: entry action failed: %w", err)
				}
			}
		}
	}

	for _, listener := range sm.onTransition {
		listener(tCtx)
	}

	return sm.currentState, nil
}

// OnTransition registers a listener invoked after every successful Fire.
func (sm *StateMachine) OnTransition(listener func(TransitionContext)) {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	sm.onTransition = append(sm.onTransition, listener)
}
