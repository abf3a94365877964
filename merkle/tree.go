// Package merkle implements the incremental Merkle tree mirroring the pool's
// on-chain commitment tree. Nodes are Poseidon(left, right) over the BN254
// scalar field and only non-empty nodes are stored, keyed by level and
// index, so deep trees stay cheap.
//
// The tree has no internal locking: callers must serialize mutations.
package merkle

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/solshield/shieldcore/crypto/field"
	"github.com/solshield/shieldcore/crypto/hash/poseidon"
	"github.com/solshield/shieldcore/types"
)

var (
	// ErrTreeFull is returned when inserting into a tree holding 2^depth
	// leaves.
	ErrTreeFull = errors.New("merkle tree is full")
	// ErrIndexOutOfRange is returned for leaf positions beyond 2^depth.
	ErrIndexOutOfRange = errors.New("leaf index out of range")
	// ErrLeafNotFound is returned when proving a position with no leaf or
	// looking up a value the tree does not hold.
	ErrLeafNotFound = errors.New("leaf not found")
	// ErrInvalidLeaf is returned for leaves that are not field elements.
	ErrInvalidLeaf = errors.New("leaf is not a field element")
)

type nodeKey struct {
	level int
	index uint64
}

// Tree is a sparse incremental Merkle tree of fixed depth.
type Tree struct {
	depth       int
	zeroValue   *big.Int
	initialized bool

	zeroValues []*big.Int
	leaves     map[uint64]*big.Int
	nodes      map[nodeKey]*big.Int
	nextIndex  uint64
	root       *big.Int
}

// Option configures a Tree.
type Option func(*Tree)

// WithZeroValue sets the value of an empty leaf. It must match the value
// used by the on-chain tree. The default is 0.
func WithZeroValue(z *big.Int) Option {
	return func(t *Tree) {
		t.zeroValue = new(big.Int).Set(z)
	}
}

// New returns an uninitialized tree of the given depth. Initialize must be
// called before any other method.
func New(depth int, opts ...Option) (*Tree, error) {
	if depth < 1 || depth > types.MaxTreeDepth {
		return nil, fmt.Errorf("invalid tree depth %d, must be in [1, %d]", depth, types.MaxTreeDepth)
	}
	t := &Tree{
		depth:     depth,
		zeroValue: big.NewInt(0),
	}
	for _, opt := range opts {
		opt(t)
	}
	if !field.IsValid(t.zeroValue) {
		return nil, fmt.Errorf("zero value is not a field element")
	}
	return t, nil
}

// Initialize computes the zero values of every level and sets the root to
// the empty tree root. Calling it again resets the tree.
func (t *Tree) Initialize() {
	t.zeroValues = make([]*big.Int, t.depth+1)
	t.zeroValues[0] = new(big.Int).Set(t.zeroValue)
	for i := 1; i <= t.depth; i++ {
		t.zeroValues[i] = hash2(t.zeroValues[i-1], t.zeroValues[i-1])
	}
	t.leaves = make(map[uint64]*big.Int)
	t.nodes = make(map[nodeKey]*big.Int)
	t.nextIndex = 0
	t.root = t.zeroValues[t.depth]
	t.initialized = true
}

func (t *Tree) mustBeInitialized() {
	if !t.initialized {
		panic("merkle tree used before Initialize")
	}
}

// Depth returns the tree depth.
func (t *Tree) Depth() int {
	return t.depth
}

// Capacity returns the maximum number of leaves, 2^depth.
func (t *Tree) Capacity() uint64 {
	return uint64(1) << t.depth
}

// Size returns the number of leaves stored.
func (t *Tree) Size() int {
	t.mustBeInitialized()
	return len(t.leaves)
}

// NextIndex returns the position the next Insert will use.
func (t *Tree) NextIndex() uint64 {
	t.mustBeInitialized()
	return t.nextIndex
}

// Root returns a copy of the current root.
func (t *Tree) Root() *big.Int {
	t.mustBeInitialized()
	return new(big.Int).Set(t.root)
}

// ZeroValue returns the root of an empty subtree at the given level.
func (t *Tree) ZeroValue(level int) *big.Int {
	t.mustBeInitialized()
	return new(big.Int).Set(t.zeroValues[level])
}

// Leaf returns the leaf stored at index, if any.
func (t *Tree) Leaf(index uint64) (*big.Int, bool) {
	t.mustBeInitialized()
	l, ok := t.leaves[index]
	if !ok {
		return nil, false
	}
	return new(big.Int).Set(l), true
}

// IndexOf returns the lowest index holding leaf, or ErrLeafNotFound.
func (t *Tree) IndexOf(leaf *big.Int) (uint64, error) {
	t.mustBeInitialized()
	found, index := false, uint64(0)
	for i, l := range t.leaves {
		if l.Cmp(leaf) == 0 && (!found || i < index) {
			found, index = true, i
		}
	}
	if !found {
		return 0, ErrLeafNotFound
	}
	return index, nil
}

// Insert appends leaf at the next free position and returns its index.
func (t *Tree) Insert(leaf *big.Int) (uint64, error) {
	t.mustBeInitialized()
	if t.nextIndex >= t.Capacity() {
		return 0, ErrTreeFull
	}
	index := t.nextIndex
	if err := t.InsertAt(index, leaf); err != nil {
		return 0, err
	}
	return index, nil
}

// InsertAt places leaf at index, replacing any previous leaf there. It is
// used to replay insertions confirmed on chain.
func (t *Tree) InsertAt(index uint64, leaf *big.Int) error {
	t.mustBeInitialized()
	if index >= t.Capacity() {
		return ErrIndexOutOfRange
	}
	if !field.IsValid(leaf) {
		return ErrInvalidLeaf
	}
	current := new(big.Int).Set(leaf)
	t.leaves[index] = current
	t.nodes[nodeKey{0, index}] = current
	if index >= t.nextIndex {
		t.nextIndex = index + 1
	}

	idx := index
	for level := 0; level < t.depth; level++ {
		sibling := t.node(level, idx^1)
		if idx&1 == 0 {
			current = hash2(current, sibling)
		} else {
			current = hash2(sibling, current)
		}
		idx >>= 1
		t.nodes[nodeKey{level + 1, idx}] = current
	}
	t.root = current
	return nil
}

// node returns the stored node or the zero value of its level.
func (t *Tree) node(level int, index uint64) *big.Int {
	if n, ok := t.nodes[nodeKey{level, index}]; ok {
		return n
	}
	return t.zeroValues[level]
}

// hash2 compresses two tree nodes. Nodes are always field elements, so a
// hashing error means the tree state is corrupt.
func hash2(left, right *big.Int) *big.Int {
	h, err := poseidon.Hash2(left, right)
	if err != nil {
		panic(fmt.Sprintf("merkle: cannot hash nodes: %v", err))
	}
	return h
}
