package statemachine

import (
	"sync"
)

// StateFn represents a state function following Rob Pike's pattern: the
// state is the function, and each invocation returns the next state.
type StateFn[T any] func(*T) StateFn[T]

// StateMachine is a thread-safe state machine wrapper over StateFn. Rooms
// drive one of these through their WAITING/PLAYING/FINISHED lifecycle.
type StateMachine[T any] struct {
	entity  *T
	stateFn StateFn[T]
	mutex   sync.RWMutex
}

// NewStateMachine creates a new state machine for the given entity
func NewStateMachine[T any](entity *T, initialStateFn StateFn[T]) *StateMachine[T] {
	return &StateMachine[T]{
		entity:  entity,
		stateFn: initialStateFn,
	}
}

// Dispatch sets the given state function as current and executes it,
// following any state it returns until a state yields nil. The machine
// rests on the last executed state.
func (sm *StateMachine[T]) Dispatch(stateFn StateFn[T]) {
	for stateFn != nil {
		sm.mutex.Lock()
		sm.stateFn = stateFn
		sm.mutex.Unlock()

		stateFn = stateFn(sm.entity)
	}
}

// GetCurrentState returns the current state function (thread-safe)
func (sm *StateMachine[T]) GetCurrentState() StateFn[T] {
	sm.mutex.RLock()
	defer sm.mutex.RUnlock()
	return sm.stateFn
}

// SetState sets the state function without executing it
func (sm *StateMachine[T]) SetState(stateFn StateFn[T]) {
	sm.mutex.Lock()
	sm.stateFn = stateFn
	sm.mutex.Unlock()
}
