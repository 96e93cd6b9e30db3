// Copyright 2023 Gustavo C. Viegas. All rights reserved.

package node

import "math/bits"

// slots tracks which entries of a Graph's node
// storage are in use.
// The zero value has no slots.
type slots struct {
	words []uint64
	used  int
}

// cap returns the number of slots, in use or not.
func (s *slots) cap() int { return len(s.words) * 64 }

// len returns the number of slots in use.
func (s *slots) len() int { return s.used }

// alloc marks the lowest free slot as used and
// returns its index.
// Storage grows by about 1/32 of its size when
// every slot is taken.
func (s *slots) alloc() int {
	if s.used == s.cap() {
		s.words = append(s.words, make([]uint64, max(1, len(s.words)/32))...)
	}
	for i, w := range s.words {
		if w == ^uint64(0) {
			continue
		}
		b := bits.TrailingZeros64(^w)
		s.words[i] |= 1 << b
		s.used++
		return i*64 + b
	}
	panic("node: slots out of sync")
}

// free marks slot i as unused.
func (s *slots) free(i int) {
	w, b := i/64, uint64(1)<<(i%64)
	if s.words[w]&b != 0 {
		s.words[w] &^= b
		s.used--
	}
}

// live checks whether slot i is in use.
// i may be out of range.
func (s *slots) live(i int) bool {
	if i < 0 || i >= s.cap() {
		return false
	}
	return s.words[i/64]&(1<<(i%64)) != 0
}
