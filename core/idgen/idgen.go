// Package idgen synthesizes numeric element identifiers that do not collide
// with identifiers already present in a document.
//
// A Synthesizer is scoped to one conversion call. It is not safe for
// concurrent use.
package idgen

import (
	"strconv"
	"strings"
)

// Synthesizer hands out unused positive integer ids.
type Synthesizer struct {
	next int
	used map[string]bool
}

// New creates a synthesizer whose counter starts at 1.
func New() *Synthesizer {
	return &Synthesizer{next: 1, used: make(map[string]bool)}
}

// Reserve marks ids as used and moves the counter past the largest numeric id.
// Non-numeric and non-positive ids are marked used but do not move the counter.
func (s *Synthesizer) Reserve(ids ...string) {
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		s.used[id] = true
		if n, ok := parsePositive(id); ok && n >= s.next {
			s.next = n + 1
		}
	}
}

// Observe moves the counter past the largest numeric id without marking any
// id used. Observed ids stay claimable.
func (s *Synthesizer) Observe(ids ...string) {
	for _, id := range ids {
		if n, ok := parsePositive(strings.TrimSpace(id)); ok && n >= s.next {
			s.next = n + 1
		}
	}
}

// Claim marks id as used. It returns false when id is empty or already taken,
// in which case the caller should fall back to Next.
func (s *Synthesizer) Claim(id string) bool {
	id = strings.TrimSpace(id)
	if id == "" || s.used[id] {
		return false
	}
	s.used[id] = true
	return true
}

// Next returns the smallest unused id not below the counter and marks it used.
func (s *Synthesizer) Next() string {
	for {
		id := strconv.Itoa(s.next)
		s.next++
		if !s.used[id] {
			s.used[id] = true
			return id
		}
	}
}

// Used reports whether id has been reserved, claimed or issued.
func (s *Synthesizer) Used(id string) bool {
	return s.used[strings.TrimSpace(id)]
}

// Peek returns the counter value Next would start from.
func (s *Synthesizer) Peek() int {
	return s.next
}

// IsNumeric reports whether id is a positive integer.
func IsNumeric(id string) bool {
	_, ok := parsePositive(strings.TrimSpace(id))
	return ok
}

func parsePositive(id string) (int, bool) {
	n, err := strconv.Atoi(id)
	if err != nil || n <= 0 {
		return 0, false
	}
	return n, true
}
