package models

import "sort"

// Placement maps blank slot indices to placed word ids for a fill_blank
// question. A word occupies at most one slot at a time; the token bank is
// derived state, recomputed from the word bank minus placed words.
type Placement map[int]int

// Place assigns wordID to slot. If the word already occupies another slot
// it is moved, not duplicated: the previous entry is removed first.
func (p Placement) Place(slot, wordID int) {
	for s, w := range p {
		if w == wordID {
			delete(p, s)
		}
	}
	p[slot] = wordID
}

// Return removes wordID from whatever slot holds it, putting it back in
// the bank. No-op when the word is not placed.
func (p Placement) Return(wordID int) {
	for s, w := range p {
		if w == wordID {
			delete(p, s)
		}
	}
}

// SlotOf reports the slot currently holding wordID.
func (p Placement) SlotOf(wordID int) (int, bool) {
	for s, w := range p {
		if w == wordID {
			return s, true
		}
	}
	return 0, false
}

// WordAt reports the word placed at the given slot.
func (p Placement) WordAt(slot int) (int, bool) {
	w, ok := p[slot]
	return w, ok
}

// Available returns the bank view: every word not currently placed,
// preserving the bank's order.
func (p Placement) Available(words []BlankWord) []BlankWord {
	placed := make(map[int]bool, len(p))
	for _, w := range p {
		placed[w] = true
	}
	available := make([]BlankWord, 0, len(words))
	for _, w := range words {
		if !placed[w.ID] {
			available = append(available, w)
		}
	}
	return available
}

// Slots returns the occupied slot indices in ascending order.
func (p Placement) Slots() []int {
	slots := make([]int, 0, len(p))
	for s := range p {
		slots = append(slots, s)
	}
	sort.Ints(slots)
	return slots
}

func (p Placement) Clone() Placement {
	c := make(Placement, len(p))
	for s, w := range p {
		c[s] = w
	}
	return c
}
