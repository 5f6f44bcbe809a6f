package distributor

import (
	"bytes"
	"errors"
	"sort"

	ethcrypto "github.com/ethereum/go-ethereum/crypto"
	"github.com/holiman/uint256"
)

var errEmptyTree = errors.New("distributor: tree has no entries")

// Leaf hashes a claimant's cumulative entitlement:
// keccak256(identity || uint256 big-endian amount).
func Leaf(identity [20]byte, cumulative *uint256.Int) [32]byte {
	amount := new(uint256.Int)
	if cumulative != nil {
		amount = cumulative
	}
	word := amount.Bytes32()
	var out [32]byte
	copy(out[:], ethcrypto.Keccak256(identity[:], word[:]))
	return out
}

// hashPair combines two nodes in sorted order so proofs need no direction bits.
func hashPair(a, b [32]byte) [32]byte {
	if bytes.Compare(a[:], b[:]) > 0 {
		a, b = b, a
	}
	var out [32]byte
	copy(out[:], ethcrypto.Keccak256(a[:], b[:]))
	return out
}

// VerifyProof folds the sibling path into leaf and compares against root.
func VerifyProof(root, leaf [32]byte, proof [][32]byte) bool {
	computed := leaf
	for _, sibling := range proof {
		computed = hashPair(computed, sibling)
	}
	return computed == root
}

// Entry is one claimant's cumulative entitlement in an epoch.
type Entry struct {
	Identity   [20]byte
	Cumulative *uint256.Int
}

// Tree is a sorted-pair Merkle tree over epoch entries. Levels are built
// bottom-up; an unpaired node is promoted unchanged.
type Tree struct {
	levels [][][32]byte
	index  map[[32]byte]int
}

// BuildTree hashes entries into a tree. Leaves are sorted so the root does
// not depend on input order.
func BuildTree(entries []Entry) (*Tree, error) {
	if len(entries) == 0 {
		return nil, errEmptyTree
	}
	leaves := make([][32]byte, len(entries))
	for i, entry := range entries {
		leaves[i] = Leaf(entry.Identity, entry.Cumulative)
	}
	sort.Slice(leaves, func(i, j int) bool { return bytes.Compare(leaves[i][:], leaves[j][:]) < 0 })
	tree := &Tree{index: make(map[[32]byte]int, len(leaves))}
	for i, leaf := range leaves {
		tree.index[leaf] = i
	}
	level := leaves
	tree.levels = append(tree.levels, level)
	for len(level) > 1 {
		next := make([][32]byte, 0, (len(level)+1)/2)
		for i := 0; i < len(level); i += 2 {
			if i+1 == len(level) {
				next = append(next, level[i])
				continue
			}
			next = append(next, hashPair(level[i], level[i+1]))
		}
		tree.levels = append(tree.levels, next)
		level = next
	}
	return tree, nil
}

// Root returns the tree root.
func (t *Tree) Root() [32]byte {
	top := t.levels[len(t.levels)-1]
	return top[0]
}

// Proof returns the sibling path for an entry, or false when the entry is
// not part of the tree.
func (t *Tree) Proof(identity [20]byte, cumulative *uint256.Int) ([][32]byte, bool) {
	pos, ok := t.index[Leaf(identity, cumulative)]
	if !ok {
		return nil, false
	}
	proof := make([][32]byte, 0, len(t.levels))
	for _, level := range t.levels[:len(t.levels)-1] {
		sibling := pos ^ 1
		if sibling < len(level) {
			proof = append(proof, level[sibling])
		}
		pos /= 2
	}
	return proof, true
}
