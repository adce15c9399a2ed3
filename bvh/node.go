// Package bvh defines the 4-ary BVH node encodings and the node-reader
// protocol that the traversal core walks. Building the tree is an external
// concern by the traversal core's own contract (see package traversal); this
// package owns both the node layout and the one builder that knows how to
// produce it.
package bvh

import "github.com/go-bvhtrace/bvhtrace/types"

// RefKind tags a Ref with the node variant it points at.
type RefKind uint8

const (
	// Empty marks an absent child slot. Children are packed dense-left, so
	// the first Empty child in a node terminates iteration.
	Empty RefKind = iota
	// Sentinel is the stack-bottom marker; popping it terminates a walk.
	Sentinel
	// Internal points at a static Node.
	Internal
	// InternalMotion points at a MotionNode.
	InternalMotion
	// Leaf points at a contiguous run of primitives.
	Leaf
)

// Ref is a tagged handle to a BVH node, a leaf's primitive run, or one of the
// two sentinel values (Empty, Sentinel). Go has no portable pointer-tagging
// idiom, so unlike the bit-packed handles a lower-level implementation would
// use, Ref is a small plain struct; see DESIGN.md for why that is the
// idiomatic substitute here.
type Ref struct {
	Kind RefKind
	// Index is the node's slot in Tree.Nodes/Tree.MotionNodes for Internal
	// and InternalMotion refs, or the first primitive index for Leaf refs.
	Index uint32
	// Count is only meaningful for Leaf refs: the number of primitives
	// starting at Index.
	Count uint32
}

// EmptyRef is the canonical "absent child" handle.
var EmptyRef = Ref{Kind: Empty}

// SentinelRef is the canonical stack-bottom handle.
var SentinelRef = Ref{Kind: Sentinel}

func (r Ref) IsEmpty() bool          { return r.Kind == Empty }
func (r Ref) IsSentinel() bool       { return r.Kind == Sentinel }
func (r Ref) IsInternal() bool       { return r.Kind == Internal }
func (r Ref) IsInternalMotion() bool { return r.Kind == InternalMotion }
func (r Ref) IsLeaf() bool           { return r.Kind == Leaf }

// LeafRef builds a Ref describing a run of primitives.
func LeafRef(firstPrimIndex, count uint32) Ref {
	return Ref{Kind: Leaf, Index: firstPrimIndex, Count: count}
}

// Leaf returns the primitive run this ref describes. It panics if the ref is
// not a leaf; callers must check IsLeaf first, matching the "malformed node
// ref" fatal-assertion error kind.
func (r Ref) Leaf() (firstPrimIndex, count uint32) {
	if r.Kind != Leaf {
		panic("bvh: Leaf() called on a non-leaf ref")
	}
	return r.Index, r.Count
}

// Node is a static 4-ary internal node: up to four children plus six packed
// per-child AABB coordinates, row-major per coordinate so that one array
// holds all four children's value for that coordinate. The single-ray
// walker reads one child's box at a time through ChildBox; the packet
// walker pulls one child out through ChildBoxLanes and tests it against a
// whole ray packet.
type Node struct {
	LowerX, UpperX [4]float32
	LowerY, UpperY [4]float32
	LowerZ, UpperZ [4]float32
	Children       [4]Ref
}

// NumChildren returns the number of present (non-Empty) children. Children
// are packed dense-left, so this is the index of the first Empty slot.
func (n *Node) NumChildren() int {
	for i, c := range n.Children {
		if c.IsEmpty() {
			return i
		}
	}
	return 4
}

// ChildRef returns the i-th child handle.
func (n *Node) ChildRef(i int) Ref {
	return n.Children[i]
}

// ChildBox returns the i-th child's world-space bounds. time is ignored; it
// is accepted so Node satisfies the same NodeReader shape as MotionNode.
func (n *Node) ChildBox(i int, time float32) (lower, upper types.Vec3) {
	lower = types.Vec3{n.LowerX[i], n.LowerY[i], n.LowerZ[i]}
	upper = types.Vec3{n.UpperX[i], n.UpperY[i], n.UpperZ[i]}
	return lower, upper
}

// MotionNode is the motion-blur variant of Node: each of the six bound
// coordinates has a linear velocity term. At time t the effective bound is
// coord + t*dcoord.
type MotionNode struct {
	Node
	DeltaLowerX, DeltaUpperX [4]float32
	DeltaLowerY, DeltaUpperY [4]float32
	DeltaLowerZ, DeltaUpperZ [4]float32
}

// ChildBox returns the i-th child's bounds reconstructed at the given time.
func (n *MotionNode) ChildBox(i int, time float32) (lower, upper types.Vec3) {
	lower = types.Vec3{
		n.LowerX[i] + time*n.DeltaLowerX[i],
		n.LowerY[i] + time*n.DeltaLowerY[i],
		n.LowerZ[i] + time*n.DeltaLowerZ[i],
	}
	upper = types.Vec3{
		n.UpperX[i] + time*n.DeltaUpperX[i],
		n.UpperY[i] + time*n.DeltaUpperY[i],
		n.UpperZ[i] + time*n.DeltaUpperZ[i],
	}
	return lower, upper
}

// ChildBoxLanes returns child i's bounds as six per-lane arrays, one entry
// per ray in a packet. Static nodes broadcast the same scalar bound into
// every lane; motion nodes reconstruct a distinct bound per lane from that
// lane's own ray time. This is the packet walker's box-test input: one
// child's box tested against all four lanes of a RayPacket at once.
func (n *Node) ChildBoxLanes(i int, times [4]float32) (lowerX, upperX, lowerY, upperY, lowerZ, upperZ [4]float32) {
	lx, ux, ly, uy, lz, uz := n.LowerX[i], n.UpperX[i], n.LowerY[i], n.UpperY[i], n.LowerZ[i], n.UpperZ[i]
	for lane := 0; lane < 4; lane++ {
		lowerX[lane], upperX[lane] = lx, ux
		lowerY[lane], upperY[lane] = ly, uy
		lowerZ[lane], upperZ[lane] = lz, uz
	}
	return
}

// ChildBoxLanes is the motion-blur counterpart of Node.ChildBoxLanes: each
// lane's bound is evaluated at that lane's own ray time.
func (n *MotionNode) ChildBoxLanes(i int, times [4]float32) (lowerX, upperX, lowerY, upperY, lowerZ, upperZ [4]float32) {
	for lane := 0; lane < 4; lane++ {
		t := times[lane]
		lowerX[lane] = n.LowerX[i] + t*n.DeltaLowerX[i]
		upperX[lane] = n.UpperX[i] + t*n.DeltaUpperX[i]
		lowerY[lane] = n.LowerY[i] + t*n.DeltaLowerY[i]
		upperY[lane] = n.UpperY[i] + t*n.DeltaUpperY[i]
		lowerZ[lane] = n.LowerZ[i] + t*n.DeltaLowerZ[i]
		upperZ[lane] = n.UpperZ[i] + t*n.DeltaUpperZ[i]
	}
	return
}

// NodeReader is the single iteration protocol every caller sees over a
// node's up-to-four children, regardless of which internal-node variant
// backs it. It is the only place where static and motion-blur nodes are
// distinguished.
type NodeReader interface {
	NumChildren() int
	ChildRef(i int) Ref
	ChildBox(i int, time float32) (lower, upper types.Vec3)
	ChildBoxLanes(i int, times [4]float32) (lowerX, upperX, lowerY, upperY, lowerZ, upperZ [4]float32)
}

// Tree is a complete 4-ary BVH: a flat array of static nodes, a flat array
// of motion-blur nodes, and a root ref pointing into one of them (or Empty
// for an empty tree, or Leaf if the whole tree is a single leaf).
type Tree struct {
	Nodes       []Node
	MotionNodes []MotionNode
	Root        Ref
	// MaxDepth is the greatest depth (root at 0, leaves included) the
	// builder reached; callers size STACK_CAPACITY from it.
	MaxDepth int
}

// Reader returns the NodeReader for ref. It panics for Leaf/Empty/Sentinel
// refs, which have no children to iterate.
func (t *Tree) Reader(ref Ref) NodeReader {
	switch ref.Kind {
	case Internal:
		return &t.Nodes[ref.Index]
	case InternalMotion:
		return &t.MotionNodes[ref.Index]
	default:
		panic("bvh: Reader() called on a ref with no children")
	}
}
