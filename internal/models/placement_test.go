package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPlacement_PlaceMovesWord(t *testing.T) {
	p := Placement{}

	p.Place(0, 7)
	assert.Equal(t, Placement{0: 7}, p)

	// Placing the same word on another slot moves it, the old slot empties.
	p.Place(2, 7)
	assert.Equal(t, Placement{2: 7}, p)

	slot, ok := p.SlotOf(7)
	assert.True(t, ok)
	assert.Equal(t, 2, slot)
}

func TestPlacement_PlaceReplacesSlotOccupant(t *testing.T) {
	p := Placement{0: 7}

	p.Place(0, 9)

	word, ok := p.WordAt(0)
	assert.True(t, ok)
	assert.Equal(t, 9, word)

	_, ok = p.SlotOf(7)
	assert.False(t, ok, "displaced word should be back in the bank")
}

func TestPlacement_Return(t *testing.T) {
	p := Placement{0: 7, 1: 9}

	p.Return(7)
	assert.Equal(t, Placement{1: 9}, p)

	// Returning an unplaced word is a no-op.
	p.Return(42)
	assert.Equal(t, Placement{1: 9}, p)
}

func TestPlacement_AvailableIsBankComplement(t *testing.T) {
	words := []BlankWord{
		{ID: 1, Text: "quick"},
		{ID: 2, Text: "lazy"},
		{ID: 3, Text: "brown"},
	}

	p := Placement{}
	assert.Equal(t, words, p.Available(words))

	p.Place(0, 2)
	available := p.Available(words)
	assert.Len(t, available, 2)
	assert.Equal(t, []BlankWord{{ID: 1, Text: "quick"}, {ID: 3, Text: "brown"}}, available)

	p.Place(1, 1)
	p.Place(2, 3)
	assert.Empty(t, p.Available(words))
}

func TestPlacement_Slots(t *testing.T) {
	p := Placement{3: 1, 0: 2, 1: 3}
	assert.Equal(t, []int{0, 1, 3}, p.Slots())
}

func TestPlacement_CloneIsIndependent(t *testing.T) {
	p := Placement{0: 7}
	c := p.Clone()

	c.Place(1, 9)
	assert.Len(t, p, 1)
	assert.Len(t, c, 2)
}
