package fsm

import "context"

// StateConfigBuilder provides a fluent API for configuring one state.
type StateConfigBuilder struct {
	config *StateConfig
}

// Permit defines an unconditional transition from this state.
func (b *StateConfigBuilder) Permit(event Event, nextState State) *StateConfigBuilder {
	return b.PermitIf(event, nextState, nil)
}

// PermitIf defines a transition that only fires if guard returns true.
func (b *StateConfigBuilder) PermitIf(event Event, nextState State, guard Guard) *StateConfigBuilder {
	b.config.transitions[event] = &Transition{
		trigger: event,
		to:      nextState,
		guard:   guard,
		kind:    TransitionExternal,
	}
	return b
}

// PermitWithAction defines a transition that runs action before entering
// nextState.
func (b *StateConfigBuilder) PermitWithAction(event Event, nextState State, action Action) *StateConfigBuilder {
	b.config.transitions[event] = &Transition{
		trigger: event,
		to:      nextState,
		actions: []Action{action},
		kind:    TransitionExternal,
	}
	return b
}

// Ignore defines an event that is accepted but causes no state change and
// runs no entry/exit actions.
func (b *StateConfigBuilder) Ignore(event Event) *StateConfigBuilder {
	return b.InternalTransition(event, func(_ context.Context, _ TransitionContext) error {
		return nil
	})
}

// OnEntry adds an action run when entering this state via an external
// transition.
func (b *StateConfigBuilder) OnEntry(action Action) *StateConfigBuilder {
	b.config.onEntry = append(b.config.onEntry, action)
	return b
}

// OnExit adds an action run when leaving this state via an external
// transition.
func (b *StateConfigBuilder) OnExit(action Action) *StateConfigBuilder {
	b.config.onExit = append(b.config.onExit, action)
	return b
}

// InternalTransition defines a transition that runs action but stays in
// this state — no entry/exit actions run.
func (b *StateConfigBuilder) InternalTransition(event Event, action Action) *StateConfigBuilder {
	b.config.transitions[event] = &Transition{
		trigger: event,
		to:      b.config.state,
		actions: []Action{action},
		kind:    TransitionInternal,
	}
	return b
}
