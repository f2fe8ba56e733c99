package main

import "testing"

func TestSessionEmail(t *testing.T) {
	tests := []struct {
		environ []string
		want    string
	}{
		{nil, ""},
		{[]string{"TERM=xterm", "FLAPPY_EMAIL= lea@x.fr "}, "lea@x.fr"},
		{[]string{"FLAPPY_EMAILX=no@x.fr"}, ""},
	}
	for _, tt := range tests {
		if got := sessionEmail(tt.environ); got != tt.want {
			t.Errorf("sessionEmail(%q) = %q, want %q", tt.environ, got, tt.want)
		}
	}
}

func TestSizeTracker(t *testing.T) {
	s := newSizeTracker(80, 24)
	s.update(120, 40)
	w, h, err := s.getSize()
	if err != nil || w != 120 || h != 40 {
		t.Fatalf("getSize = %d, %d, %v", w, h, err)
	}
}
