package session

import (
	"slices"
	"time"
)

// Flow tags a multi-step operation.
type Flow string

const (
	FlowCreateWorkItem Flow = "create_work_item"
	FlowLogActivity    Flow = "log_activity"
	FlowAttachFile     Flow = "attach_file"
)

// Step names the next piece of input a flow expects.
type Step string

// Value is one collected step value.
type Value struct {
	Step  Step   `json:"step"`
	Value string `json:"value"`
}

// State is one account's in-progress flow. A handle has at most one.
type State struct {
	ID        string    `json:"id"`
	Handle    string    `json:"handle"`
	Flow      Flow      `json:"flow"`
	Step      Step      `json:"step"`
	Values    []Value   `json:"values"`
	StartedAt time.Time `json:"started_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Get returns the value collected for step.
func (s *State) Get(step Step) (string, bool) {
	for _, v := range s.Values {
		if v.Step == step {
			return v.Value, true
		}
	}
	return "", false
}

// Set records a value for step, replacing an earlier one in place.
func (s *State) Set(step Step, value string) {
	for i := range s.Values {
		if s.Values[i].Step == step {
			s.Values[i].Value = value
			return
		}
	}
	s.Values = append(s.Values, Value{Step: step, Value: value})
}

// Clone returns a deep copy.
func (s *State) Clone() *State {
	if s == nil {
		return nil
	}
	c := *s
	c.Values = slices.Clone(s.Values)
	return &c
}
