package plugin

import "testing"

func TestStateString(t *testing.T) {
	tests := []struct {
		state State
		want  string
	}{
		{StateNotInitialized, "not_initialized"},
		{StateInitializing, "initializing"},
		{StateInitialized, "initialized"},
		{StateStarted, "started"},
		{StateStopped, "stopped"},
		{StateError, "error"},
		{StateDisabled, "disabled"},
		{State(99), "unknown"},
	}

	for _, tt := range tests {
		if got := tt.state.String(); got != tt.want {
			t.Errorf("State(%d).String() = %q, want %q", tt.state, got, tt.want)
		}
	}
}

func TestStateTransitions(t *testing.T) {
	if !StateNotInitialized.canInitialize() {
		t.Error("not_initialized should allow initialize")
	}
	for _, s := range []State{StateInitializing, StateInitialized, StateStarted, StateStopped, StateError, StateDisabled} {
		if s.canInitialize() {
			t.Errorf("%s should not allow initialize", s)
		}
	}

	for _, s := range []State{StateInitialized, StateStopped} {
		if !s.canStart() {
			t.Errorf("%s should allow start", s)
		}
	}
	for _, s := range []State{StateNotInitialized, StateStarted, StateError, StateDisabled} {
		if s.canStart() {
			t.Errorf("%s should not allow start", s)
		}
	}

	if !StateStarted.canStop() {
		t.Error("started should allow stop")
	}
	for _, s := range []State{StateNotInitialized, StateInitialized, StateStopped, StateError, StateDisabled} {
		if s.canStop() {
			t.Errorf("%s should not allow stop", s)
		}
	}

	if StateDisabled.canDisable() {
		t.Error("disabled should not allow disable")
	}
	if !StateError.canDisable() {
		t.Error("error should allow disable")
	}
}

func TestTypeSet(t *testing.T) {
	s := NewTypeSet(TypeTool, TypeAnalysis)
	if !s.Has(TypeTool) || !s.Has(TypeAnalysis) {
		t.Error("membership lost")
	}
	if s.Has(TypeRenderer) {
		t.Error("unexpected member")
	}

	u := s.Union(NewTypeSet(TypeRenderer))
	if !u.Has(TypeRenderer) || !u.Has(TypeTool) {
		t.Error("union incomplete")
	}
	if s.Has(TypeRenderer) {
		t.Error("union mutated the receiver")
	}

	list := u.List()
	for i := 1; i < len(list); i++ {
		if list[i-1] >= list[i] {
			t.Errorf("List() not sorted: %v", list)
		}
	}
}

func TestCapabilitySet(t *testing.T) {
	s := NewCapabilitySet(CapRead, CapTransaction)
	if !s.Has(CapRead) || !s.Has(CapTransaction) {
		t.Error("membership lost")
	}
	if s.Has(CapWrite) {
		t.Error("unexpected member")
	}
	u := s.Union(NewCapabilitySet(CapWrite))
	if !u.Has(CapWrite) || !u.Has(CapRead) {
		t.Error("union incomplete")
	}
}
