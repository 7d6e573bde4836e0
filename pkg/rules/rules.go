package rules

import (
	"encoding/json"
	"fmt"
)

// State is the authoritative game state held by a room. The server core
// treats it as opaque apart from turn ownership, player count, and the
// name hook invoked once when a game starts.
type State interface {
	ActivePlayer() int
	PlayerCount() int
	SetPlayerName(seat int, name string)
}

// Action is one proposed state mutation, decoded only far enough to read
// its type tag. The raw JSON travels to the engine untouched.
type Action struct {
	Type string
	Raw  json.RawMessage
}

func (a *Action) UnmarshalJSON(data []byte) error {
	var tag struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &tag); err != nil {
		return err
	}
	if tag.Type == "" {
		return fmt.Errorf("action is missing a type")
	}
	a.Type = tag.Type
	a.Raw = append(a.Raw[:0], data...)
	return nil
}

func (a Action) MarshalJSON() ([]byte, error) {
	if len(a.Raw) == 0 {
		return json.Marshal(struct {
			Type string `json:"type"`
		}{Type: a.Type})
	}
	return a.Raw, nil
}

// Engine is the rules contract the action pipeline delegates to.
// Implementations must be pure: no I/O and no mutation of passed state.
type Engine interface {
	// NewGame creates the initial state for the given number of players.
	// It is invoked exactly once per room, at the ready transition.
	NewGame(playerCount int) (State, error)
	// Validate reports whether the action is legal against the state.
	Validate(state State, action Action) bool
	// Apply returns the state after the action. A rejected action
	// returns the input state unchanged together with a non-nil error;
	// an accepted action returns a newly allocated state.
	Apply(state State, action Action) (State, error)
}
