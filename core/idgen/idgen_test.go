package idgen

import "testing"

func TestReserveSeedsCounter(t *testing.T) {
	tests := []struct {
		name     string
		reserved []string
		want     []string
	}{
		{"empty", nil, []string{"1", "2", "3"}},
		{"numeric", []string{"3", "10", "7"}, []string{"11", "12"}},
		{"mixed", []string{"J5", "4", "", " 8 ", "-2"}, []string{"9", "10"}},
		{"non numeric only", []string{"abc"}, []string{"1"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := New()
			s.Reserve(tt.reserved...)
			for i, want := range tt.want {
				if got := s.Next(); got != want {
					t.Errorf("Next() #%d = %q, want %q", i, got, want)
				}
			}
		})
	}
}

func TestNextSkipsClaimed(t *testing.T) {
	s := New()
	s.Reserve("5")
	if !s.Claim("6") {
		t.Fatal("Claim(6) should succeed")
	}
	if s.Claim("6") {
		t.Error("second Claim(6) should fail")
	}
	if s.Claim("5") {
		t.Error("Claim of a reserved id should fail")
	}
	if s.Claim("  ") {
		t.Error("Claim of an empty id should fail")
	}
	if got := s.Next(); got != "7" {
		t.Errorf("Next() = %q, want 7", got)
	}
}

func TestObserveKeepsIdsClaimable(t *testing.T) {
	s := New()
	s.Observe("101", "J7", "12")
	if s.Used("101") {
		t.Error("observed id should not be marked used")
	}
	if !s.Claim("101") {
		t.Error("Claim(101) should succeed after Observe")
	}
	if got := s.Next(); got != "102" {
		t.Errorf("Next() = %q, want 102", got)
	}
}

func TestNextUnique(t *testing.T) {
	s := New()
	s.Reserve("2", "4")
	seen := map[string]bool{}
	for i := 0; i < 100; i++ {
		id := s.Next()
		if seen[id] {
			t.Fatalf("duplicate id %q", id)
		}
		seen[id] = true
		if !s.Used(id) {
			t.Errorf("issued id %q not marked used", id)
		}
	}
}

func TestIsNumeric(t *testing.T) {
	tests := map[string]bool{
		"1":   true,
		"042": true,
		" 7 ": true,
		"0":   false,
		"-3":  false,
		"J1":  false,
		"":    false,
	}
	for in, want := range tests {
		if got := IsNumeric(in); got != want {
			t.Errorf("IsNumeric(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestPeek(t *testing.T) {
	s := New()
	if s.Peek() != 1 {
		t.Errorf("Peek() = %d, want 1", s.Peek())
	}
	s.Reserve("41")
	if s.Peek() != 42 {
		t.Errorf("Peek() = %d, want 42", s.Peek())
	}
}
