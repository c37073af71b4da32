package model

import (
	"fmt"
	"strings"
)

type State string

const (
	StateAvailable State = "AVAILABLE"
	StateInUse     State = "IN_USE"
	StateInactive  State = "INACTIVE"
)

func AllStates() []State {
	return []State{StateAvailable, StateInUse, StateInactive}
}

// ParseState matches s against the known state names exactly, case included.
func ParseState(s string) (State, error) {
	switch state := State(s); state {
	case StateAvailable, StateInUse, StateInactive:
		return state, nil
	default:
		return "", fmt.Errorf("%w: %q is not one of %s", ErrInvalidState, s, StateNames())
	}
}

func (s State) String() string {
	return string(s)
}

func (s State) IsValid() bool {
	_, err := ParseState(string(s))

	return err == nil
}

// StateNames lists the accepted names, comma separated.
func StateNames() string {
	names := make([]string, 0, len(AllStates()))
	for _, s := range AllStates() {
		names = append(names, s.String())
	}

	return strings.Join(names, ", ")
}
