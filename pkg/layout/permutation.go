package layout

import (
	"errors"
	"fmt"
)

// ErrPermutation is returned for an index list that is not a bijection.
var ErrPermutation = errors.New("not a permutation")

// Permutation maps cell index to photo index. The zero value is empty.
type Permutation struct {
	idx []int
}

// NewPermutation validates that idx holds each of 0..len(idx)-1 exactly once.
func NewPermutation(idx []int) (Permutation, error) {
	seen := make([]bool, len(idx))
	for i, v := range idx {
		if v < 0 || v >= len(idx) {
			return Permutation{}, fmt.Errorf("entry %d is %d, outside [0,%d): %w", i, v, len(idx), ErrPermutation)
		}
		if seen[v] {
			return Permutation{}, fmt.Errorf("entry %d repeats %d: %w", i, v, ErrPermutation)
		}
		seen[v] = true
	}
	return Permutation{idx: append([]int(nil), idx...)}, nil
}

// Identity returns the permutation 0..n-1.
func Identity(n int) Permutation {
	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	return Permutation{idx: idx}
}

// Len is the number of cells.
func (p Permutation) Len() int { return len(p.idx) }

// At returns the photo shown in cell i.
func (p Permutation) At(i int) int { return p.idx[i] }

// Indices returns a copy of the mapping.
func (p Permutation) Indices() []int {
	return append([]int(nil), p.idx...)
}

// Swap returns a permutation with the photos in cells i and j exchanged.
func (p Permutation) Swap(i, j int) (Permutation, error) {
	if i < 0 || j < 0 || i >= len(p.idx) || j >= len(p.idx) {
		return p, fmt.Errorf("swap %d,%d of %d cells: %w", i, j, len(p.idx), ErrPermutation)
	}
	out := p.Indices()
	out[i], out[j] = out[j], out[i]
	return Permutation{idx: out}, nil
}

// Inverse maps photo index to cell index.
func (p Permutation) Inverse() Permutation {
	out := make([]int, len(p.idx))
	for cell, photo := range p.idx {
		out[photo] = cell
	}
	return Permutation{idx: out}
}
