// Package traversal implements the hybrid packet/single-ray BVH traversal
// core: the slab-test kernel, the two walkers, the mode arbiter that
// switches between them, the shared stack, and the closest-hit/any-hit
// driver entry points that tie them together.
package traversal

import (
	"math"

	"github.com/go-bvhtrace/bvhtrace/bvh"
	"github.com/go-bvhtrace/bvhtrace/lanes"
)

// NodeTypes is the NODE_TYPES_MASK of SPEC_FULL §6: a bitmask selecting
// which internal-node variants a Driver is willing to walk. Go has no
// compile-time `#ifdef` to elide the disabled arms, so this is checked once
// per internal node via a switch rather than compiled away (see DESIGN.md,
// "Open Question decisions").
type NodeTypes uint8

const (
	StaticNodes NodeTypes = 1 << 0
	MotionNodes NodeTypes = 1 << 4

	AllNodeTypes = StaticNodes | MotionNodes
)

// DefaultTSwitch matches SPEC_FULL §6's T_SWITCH default. DefaultStackMargin
// is the slack StackCapacityFor adds on top of the per-level stack bound.
const (
	DefaultTSwitch     = 3
	DefaultStackMargin = 4
)

// Driver is the per-call owner of one closest-hit or any-hit traversal: the
// static configuration (T_SWITCH, switch-during-down, node type mask, stack
// capacity) plus the primitive intersector collaborator. A Driver holds no
// mutable state of its own between calls; it borrows the BVH and the ray
// packet for the duration of one Intersect/Occluded call (SPEC_FULL §9,
// "Ownership").
type Driver struct {
	intersector PrimitiveIntersector

	tSwitch          int
	switchDuringDown bool
	nodeTypes        NodeTypes
	stackCapacity    int
}

// NewDriver builds a Driver over the given primitive intersector. stackCapacity
// should be sized from the tree's declared max depth (SPEC_FULL §4.6);
// StackCapacityFor computes a capacity that suffices for that depth.
func NewDriver(intersector PrimitiveIntersector, stackCapacity int) *Driver {
	return &Driver{
		intersector:      intersector,
		tSwitch:          DefaultTSwitch,
		switchDuringDown: true,
		nodeTypes:        AllNodeTypes,
		stackCapacity:    stackCapacity,
	}
}

// StackCapacityFor returns a STACK_CAPACITY sized from a tree's declared max
// depth, as SPEC_FULL §4.6 requires: opening a 4-ary node can leave up to
// three more entries on a stack than it removes, so the bound is three
// entries per level plus a small margin.
func StackCapacityFor(maxDepth int) int {
	return 3*maxDepth + DefaultStackMargin
}

// WithTSwitch overrides T_SWITCH (default 3); valid range is 0..4.
func (d *Driver) WithTSwitch(t int) *Driver {
	d.tSwitch = t
	return d
}

// WithSwitchDuringDown toggles the mid-traversal switch check.
func (d *Driver) WithSwitchDuringDown(enabled bool) *Driver {
	d.switchDuringDown = enabled
	return d
}

// WithNodeTypes restricts which internal-node variants this Driver accepts.
// Walking a node variant outside the mask is a malformed-ref error
// (SPEC_FULL §7) and panics.
func (d *Driver) WithNodeTypes(mask NodeTypes) *Driver {
	d.nodeTypes = mask
	return d
}

func (d *Driver) checkNodeType(tree *bvh.Tree, node bvh.Ref) {
	switch {
	case node.IsInternal():
		if d.nodeTypes&StaticNodes == 0 {
			panic("traversal: static internal node encountered outside NodeTypes mask")
		}
	case node.IsInternalMotion():
		if d.nodeTypes&MotionNodes == 0 {
			panic("traversal: motion-blur internal node encountered outside NodeTypes mask")
		}
	}
}

// Intersect is the closest-hit driver entry point (SPEC_FULL §4.7). Lanes
// outside valid are ignored; their ray data may be undefined. On return, the
// per-lane hit attributes (PrimID, GeomID, InstID, U, V, Ng, TFar) have been
// written in place by the primitive intersector for every lane that found a
// closer hit, and stats, if non-nil, has accumulated this call's counters.
func (d *Driver) Intersect(tree *bvh.Tree, p *RayPacket, stats *Stats) {
	p.precompute()
	original := p.originalTFar()

	if tree.Root.IsEmpty() {
		return
	}

	local := Stats{}
	defer func() {
		if stats != nil {
			stats.merge(local)
		}
	}()

	if tree.Root.IsLeaf() {
		firstPrimIndex, count := tree.Root.Leaf()
		local.LeafIntersections++
		d.intersector.Intersect(p.Valid, p, firstPrimIndex, count)
		return
	}

	stack := newPacketStack(d.stackCapacity)
	stack.push(tree.Root, p.TNear)

	for {
		curNode, curDist := stack.pop()
		local.noteDepth(stack.depth())
		if curNode.IsSentinel() {
			return
		}
		if d.activeLaneCount(p, curDist) == 0 {
			continue
		}

		if d.activeLaneCount(p, curDist) <= d.tSwitch {
			d.dispatchSingleRay(tree, p, curNode, curDist, false, &local)
			clampToOriginal(p, original)
			continue
		}

		leaf, leafDist, switched := d.packetWalk(tree, p, stack, curNode, curDist, &local)
		if switched {
			continue
		}
		if leaf.IsSentinel() {
			return
		}

		firstPrimIndex, count := leaf.Leaf()
		activeLeaf := activeMaskAt(p, leafDist)
		local.LeafIntersections++
		d.intersector.Intersect(activeLeaf, p, firstPrimIndex, count)
	}
}

// Occluded is the any-hit driver entry point (SPEC_FULL §4.7). It writes
// valid & terminated into each lane's Occluded hit-indicator field and
// returns early once every active lane has terminated.
func (d *Driver) Occluded(tree *bvh.Tree, p *RayPacket, stats *Stats) {
	p.precompute()

	if tree.Root.IsEmpty() {
		d.commitOccluded(p)
		return
	}

	local := Stats{}
	defer func() {
		if stats != nil {
			stats.merge(local)
		}
		d.commitOccluded(p)
	}()

	if tree.Root.IsLeaf() {
		firstPrimIndex, count := tree.Root.Leaf()
		local.LeafIntersections++
		d.foldOccluded(p, firstPrimIndex, count)
		return
	}

	stack := newPacketStack(d.stackCapacity)
	stack.push(tree.Root, p.TNear)

	for {
		if d.allActiveTerminated(p) {
			return
		}

		curNode, curDist := stack.pop()
		local.noteDepth(stack.depth())
		if curNode.IsSentinel() {
			return
		}
		if d.activeLaneCount(p, curDist) == 0 {
			continue
		}

		if d.activeLaneCount(p, curDist) <= d.tSwitch {
			d.dispatchSingleRay(tree, p, curNode, curDist, true, &local)
			continue
		}

		leaf, leafDist, switched := d.packetWalk(tree, p, stack, curNode, curDist, &local)
		if switched {
			continue
		}
		if leaf.IsSentinel() {
			return
		}

		firstPrimIndex, count := leaf.Leaf()
		local.LeafIntersections++
		d.foldOccluded(p, firstPrimIndex, count)
	}
}

// dispatchSingleRay runs the single-ray walker for every lane active at
// curDist (SPEC_FULL §4.5, "post-pop switch"). It re-reads each lane's
// activity from p directly rather than the caller's snapshot, per the "no
// stale activity cache" property.
func (d *Driver) dispatchSingleRay(tree *bvh.Tree, p *RayPacket, node bvh.Ref, dist [4]float32, anyHit bool, stats *Stats) {
	stats.SingleRaySwitches++
	for lane := 0; lane < 4; lane++ {
		if dist[lane] < p.TFar[lane] {
			d.singleRayWalk(tree, p, lane, node, dist[lane], anyHit, stats)
		}
	}
}

func (d *Driver) allActiveTerminated(p *RayPacket) bool {
	for lane := 0; lane < 4; lane++ {
		if p.Valid.Test(lane) && !p.Terminated.Test(lane) {
			return false
		}
	}
	return true
}

// foldOccluded intersects one leaf for any-hit and OR-folds the result into
// p.Terminated, then clamps terminated lanes' tfar to -Inf so they can no
// longer hit any box (SPEC_FULL §4.7 step 3).
func (d *Driver) foldOccluded(p *RayPacket, firstPrimIndex, count uint32) {
	active := lanes.Mask(0)
	for lane := 0; lane < 4; lane++ {
		if p.Valid.Test(lane) && !p.Terminated.Test(lane) {
			active = active.Set(lane)
		}
	}
	if !active.Any() {
		return
	}
	hit := d.intersector.Occluded(active, p, firstPrimIndex, count)
	for lane := 0; lane < 4; lane++ {
		if hit.Test(lane) {
			p.Terminated = p.Terminated.Set(lane)
			p.TFar[lane] = float32(math.Inf(-1))
		}
	}
}

func (d *Driver) commitOccluded(p *RayPacket) {
	for lane := 0; lane < 4; lane++ {
		p.Occluded[lane] = p.Valid.Test(lane) && p.Terminated.Test(lane)
	}
}

// activeMaskAt returns the lanes whose dist is below their current tfar, the
// packet-level analogue of a single lane's activity check, used to build the
// valid_mask the primitive intersector receives for a leaf.
func activeMaskAt(p *RayPacket, dist [4]float32) lanes.Mask {
	m := lanes.Mask(0)
	for lane := 0; lane < 4; lane++ {
		if p.Valid.Test(lane) && dist[lane] < p.TFar[lane] {
			m = m.Set(lane)
		}
	}
	return m
}

// clampToOriginal enforces the closest-hit monotonicity invariant after a
// single-ray detour: tfar never exceeds the value the packet entered the
// call with (SPEC_FULL §4.5).
func clampToOriginal(p *RayPacket, original [4]float32) {
	for lane := 0; lane < 4; lane++ {
		if p.TFar[lane] > original[lane] {
			p.TFar[lane] = original[lane]
		}
	}
}
