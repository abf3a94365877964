package merkle

import (
	"cmp"
	"encoding/json"
	"fmt"
	"math/big"
	"slices"

	"github.com/solshield/shieldcore/crypto/field"
)

// Snapshot is the persisted form of a tree: its depth and the non-empty
// leaves, encoded as {"leaves":[[index,"decimal"],...],"depth":N}.
type Snapshot struct {
	Leaves []Leaf `json:"leaves"`
	Depth  int    `json:"depth"`
}

// Leaf is a leaf value with its position.
type Leaf struct {
	Index uint64
	Value *big.Int
}

// MarshalJSON encodes the leaf as a two element array.
func (l Leaf) MarshalJSON() ([]byte, error) {
	return json.Marshal([]any{l.Index, l.Value.String()})
}

// UnmarshalJSON decodes a [index, "decimal"] pair.
func (l *Leaf) UnmarshalJSON(data []byte) error {
	var pair []json.RawMessage
	if err := json.Unmarshal(data, &pair); err != nil {
		return err
	}
	if len(pair) != 2 {
		return fmt.Errorf("invalid leaf entry, expected [index, value]")
	}
	if err := json.Unmarshal(pair[0], &l.Index); err != nil {
		return fmt.Errorf("invalid leaf index: %w", err)
	}
	var value string
	if err := json.Unmarshal(pair[1], &value); err != nil {
		return fmt.Errorf("invalid leaf value: %w", err)
	}
	v, err := field.FromDecimal(value)
	if err != nil {
		return err
	}
	l.Value = v
	return nil
}

// Export returns the snapshot of the tree with leaves in ascending index
// order.
func (t *Tree) Export() *Snapshot {
	t.mustBeInitialized()
	s := &Snapshot{
		Depth:  t.depth,
		Leaves: make([]Leaf, 0, len(t.leaves)),
	}
	for idx, v := range t.leaves {
		s.Leaves = append(s.Leaves, Leaf{Index: idx, Value: new(big.Int).Set(v)})
	}
	slices.SortFunc(s.Leaves, compareLeaves)
	return s
}

// Import resets the tree to the snapshot depth and replays its leaves in
// ascending index order. On error the tree is left reset to the snapshot
// depth with the leaves replayed so far.
func (t *Tree) Import(s *Snapshot) error {
	if s == nil {
		return fmt.Errorf("nil snapshot")
	}
	if s.Depth != t.depth {
		nt, err := New(s.Depth, WithZeroValue(t.zeroValue))
		if err != nil {
			return err
		}
		t.depth = nt.depth
	}
	t.Initialize()
	leaves := slices.Clone(s.Leaves)
	slices.SortFunc(leaves, compareLeaves)
	for _, l := range leaves {
		if err := t.InsertAt(l.Index, l.Value); err != nil {
			return fmt.Errorf("cannot replay leaf %d: %w", l.Index, err)
		}
	}
	return nil
}

// FromSnapshot builds an initialized tree from a snapshot.
func FromSnapshot(s *Snapshot, opts ...Option) (*Tree, error) {
	if s == nil {
		return nil, fmt.Errorf("nil snapshot")
	}
	t, err := New(s.Depth, opts...)
	if err != nil {
		return nil, err
	}
	if err := t.Import(s); err != nil {
		return nil, err
	}
	return t, nil
}

func compareLeaves(a, b Leaf) int {
	return cmp.Compare(a.Index, b.Index)
}
