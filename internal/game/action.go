// internal/game/action.go
package game

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Action is a decoded player move.
type Action interface {
	ActionType() string
}

// validator is implemented by actions with field constraints beyond JSON shape.
type validator interface {
	Validate() error
}

// ActionRegistry decodes untyped payloads into concrete actions using the
// "actionType" discriminator.
type ActionRegistry[A Action] struct {
	target string
	ctors  map[string]func() A
}

// NewActionRegistry creates a registry whose decode errors name target.
func NewActionRegistry[A Action](target string) *ActionRegistry[A] {
	return &ActionRegistry[A]{
		target: target,
		ctors:  make(map[string]func() A),
	}
}

// Register maps actionType to a constructor returning a pointer to decode into.
func (r *ActionRegistry[A]) Register(actionType string, ctor func() A) {
	r.ctors[actionType] = ctor
}

// Types lists the registered discriminators.
func (r *ActionRegistry[A]) Types() []string {
	out := make([]string, 0, len(r.ctors))
	for t := range r.ctors {
		out = append(out, t)
	}
	return out
}

// Decode parses payload into the registered action for its discriminator.
func (r *ActionRegistry[A]) Decode(payload json.RawMessage) (A, error) {
	var zero A
	var head struct {
		ActionType string `json:"actionType"`
	}
	if err := json.Unmarshal(payload, &head); err != nil {
		return zero, r.inputError(payload, err)
	}
	ctor, ok := r.ctors[head.ActionType]
	if !ok {
		return zero, r.inputError(payload, fmt.Errorf("unknown actionType %q", head.ActionType))
	}

	action := ctor()
	dec := json.NewDecoder(bytes.NewReader(payload))
	dec.DisallowUnknownFields()
	if err := dec.Decode(action); err != nil {
		return zero, r.inputError(payload, err)
	}
	if v, ok := any(action).(validator); ok {
		if err := v.Validate(); err != nil {
			return zero, r.inputError(payload, err)
		}
	}
	return action, nil
}

func (r *ActionRegistry[A]) inputError(payload json.RawMessage, err error) error {
	return &InputError{Payload: payload, Target: r.target, Err: err}
}
