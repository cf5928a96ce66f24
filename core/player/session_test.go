package player

import (
	"testing"

	"MacanFM/model"
)

func TestCanTransition(t *testing.T) {
	cases := []struct {
		from, to State
		want     bool
	}{
		{StateIdle, StateLoading, true},
		{StateIdle, StatePlaying, false},
		{StateLoading, StatePlaying, true},
		{StateLoading, StatePaused, true},
		{StateLoading, StateLoading, true},
		{StatePlaying, StateEnded, true},
		{StatePlaying, StateLoading, true},
		{StatePaused, StatePlaying, true},
		{StatePaused, StateEnded, false},
		{StateEnded, StateLoading, true},
		{StateEnded, StatePaused, false},
		{StatePlaying, StatePlaying, true},
	}
	for _, tc := range cases {
		if got := canTransition(tc.from, tc.to); got != tc.want {
			t.Errorf("canTransition(%s, %s) = %v, want %v", tc.from, tc.to, got, tc.want)
		}
	}
}

func TestSetStateRefusesInvalid(t *testing.T) {
	s := NewSession(80, 200, -14)
	if s.State != StateIdle {
		t.Fatalf("new session state = %s, want idle", s.State)
	}
	if s.setState(StatePlaying) {
		t.Error("idle -> playing was allowed")
	}
	if s.State != StateIdle {
		t.Errorf("state changed to %s after refused transition", s.State)
	}
	if !s.setState(StateLoading) {
		t.Error("idle -> loading was refused")
	}
}

func TestConsumePendingOnce(t *testing.T) {
	s := NewSession(80, 200, -14)
	s.setPending(&pendingRestoration{kind: pendingSeek, seek: 42})

	first := s.consumePending(pendingSeek)
	if first == nil || first.seek != 42 {
		t.Fatalf("first consume = %+v, want seek 42", first)
	}
	if second := s.consumePending(pendingSeek); second != nil {
		t.Errorf("second consume = %+v, want nil", second)
	}
}

func TestRepeatModeCycle(t *testing.T) {
	m := model.RepeatOff
	if m = m.Next(); m != model.RepeatAll {
		t.Errorf("after none: %s, want all", m)
	}
	if m = m.Next(); m != model.RepeatOne {
		t.Errorf("after all: %s, want one", m)
	}
	if m = m.Next(); m != model.RepeatOff {
		t.Errorf("after one: %s, want none", m)
	}
}
