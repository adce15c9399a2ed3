package traversal

import (
	"math"

	"github.com/go-bvhtrace/bvhtrace/bvh"
	"github.com/go-bvhtrace/bvhtrace/lanes"
)

// singleRayWalk is the single-ray walker (SPEC_FULL §4.3). It is used by the
// mode arbiter once lane utilization drops to T_SWITCH or below: lane is
// walked independently of its packet siblings, starting from n with a fresh
// private stack.
//
// It re-reads the lane's own tfar on every iteration rather than caching an
// "active" flag captured at call time, preserving the "no stale activity
// cache" property called out in SPEC_FULL §9's Open Question.
func (d *Driver) singleRayWalk(tree *bvh.Tree, p *RayPacket, lane int, n bvh.Ref, startDist float32, anyHit bool, stats *Stats) {
	stack := newSingleRayStack(d.stackCapacity)
	stack.push(n, startDist)

	for {
		node, dist := stack.pop()
		stats.noteDepth(stack.depth())
		if node.IsSentinel() {
			return
		}
		if dist >= p.TFar[lane] {
			continue
		}

		for !node.IsLeaf() {
			if anyHit && p.Terminated.Test(lane) {
				return
			}

			d.checkNodeType(tree, node)
			reader := tree.Reader(node)
			numChildren := reader.NumChildren()

			type candidate struct {
				ref  bvh.Ref
				dist float32
			}
			var hits []candidate

			for i := 0; i < numChildren; i++ {
				lower, upper := reader.ChildBox(i, p.Time[lane])
				near, far, hit := boxTestScalar(
					p.OrgX[lane], p.OrgY[lane], p.OrgZ[lane],
					p.RDirX[lane], p.RDirY[lane], p.RDirZ[lane],
					p.TNear[lane], p.TFar[lane],
					lower, upper,
				)
				_ = far
				if hit {
					hits = append(hits, candidate{ref: reader.ChildRef(i), dist: near})
				}
			}

			if len(hits) == 0 {
				node = bvh.SentinelRef
				break
			}

			// Rank by near-distance, descend nearest first, push the
			// rest in descending order so the next pop is the
			// second-nearest (SPEC_FULL §4.3).
			for i := 1; i < len(hits); i++ {
				for j := i; j > 0 && hits[j].dist < hits[j-1].dist; j-- {
					hits[j], hits[j-1] = hits[j-1], hits[j]
				}
			}

			for i := len(hits) - 1; i >= 1; i-- {
				stack.push(hits[i].ref, hits[i].dist)
			}
			node = hits[0].ref
			dist = hits[0].dist
		}

		if node.IsLeaf() {
			firstPrimIndex, count := node.Leaf()
			laneMask := lanes.Mask(0).Set(lane)
			stats.LeafIntersections++
			if anyHit {
				hitMask := d.intersector.Occluded(laneMask, p, firstPrimIndex, count)
				if hitMask.Test(lane) {
					p.Terminated = p.Terminated.Set(lane)
					p.TFar[lane] = float32(math.Inf(-1))
				}
			} else {
				d.intersector.Intersect(laneMask, p, firstPrimIndex, count)
			}
		}
	}
}

// boxTestScalar is the single-lane slab test the single-ray walker runs
// against each candidate child (the scalar analogue of boxTestLanes).
func boxTestScalar(orgX, orgY, orgZ, rdirX, rdirY, rdirZ, tnear, tfar float32, lower, upper [3]float32) (near, far float32, hit bool) {
	tMinX := (lower[0] - orgX) * rdirX
	tMaxX := (upper[0] - orgX) * rdirX
	tMinY := (lower[1] - orgY) * rdirY
	tMaxY := (upper[1] - orgY) * rdirY
	tMinZ := (lower[2] - orgZ) * rdirZ
	tMaxZ := (upper[2] - orgZ) * rdirZ

	near = fmax32(tnear, fmin32(tMinX, tMaxX), fmin32(tMinY, tMaxY), fmin32(tMinZ, tMaxZ))
	far = fmin32(tfar, fmax32(tMinX, tMaxX), fmax32(tMinY, tMaxY), fmax32(tMinZ, tMaxZ))
	return near, far, near <= far
}

// packetWalk is the packet walker (SPEC_FULL §4.4). curNode/curDist is the
// entry the driver already popped off the shared stack; packetWalk descends
// from there until curNode is no longer an internal node, or the
// mid-traversal switch condition fires.
//
// Each time it opens an internal node it first does a second, speculative
// pop into curNode/curDist (step 1 of §4.4): that speculative value is the
// fallback incumbent every child of the just-opened node is ranked against.
// The just-opened node itself is never pushed back — its children are read
// once, from a local reader, and then it is discarded; whichever child (or
// the speculative pop) ends up nearest becomes the next curNode. If none of
// the node's children hit anything, curNode/curDist fall through to the
// speculative pop untouched, which is exactly "abandon this subtree and
// resume whatever was already underneath it."
//
// The three return values are: the node the caller should act on next (a
// leaf to intersect, or the sentinel once the whole traversal is over), its
// distance, and whether a mid-traversal switch was requested (in which case
// the caller's (curNode, curDist) has already been pushed back by this
// call, ready for the driver's next real pop).
func (d *Driver) packetWalk(tree *bvh.Tree, p *RayPacket, stack *packetStack, curNode bvh.Ref, curDist [4]float32, stats *Stats) (nextNode bvh.Ref, nextDist [4]float32, switchRequested bool) {
	for curNode.IsInternal() || curNode.IsInternalMotion() {
		d.checkNodeType(tree, curNode)
		reader := tree.Reader(curNode)
		numChildren := reader.NumChildren()

		curNode, curDist = stack.pop()

		for i := 0; i < numChildren; i++ {
			childRef := reader.ChildRef(i)
			lowerX, upperX, lowerY, upperY, lowerZ, upperZ := reader.ChildBoxLanes(i, p.Time)
			hit, tNear := boxTestLanes(p, lowerX, upperX, lowerY, upperY, lowerZ, upperZ)
			if !hit.Any() {
				continue
			}

			childDist := [4]float32{}
			for lane := 0; lane < 4; lane++ {
				if hit.Test(lane) {
					childDist[lane] = tNear[lane]
				} else {
					childDist[lane] = float32(math.Inf(1))
				}
			}

			// Child ordering rule (SPEC_FULL §4.4 step 3): if any lane
			// finds the new child strictly nearer than the incumbent,
			// the incumbent is pushed and the new child becomes
			// curNode. Ties resolve in favor of the incumbent.
			nearerSomewhere := false
			for lane := 0; lane < 4; lane++ {
				if childDist[lane] < curDist[lane] {
					nearerSomewhere = true
					break
				}
			}

			if nearerSomewhere {
				stack.push(curNode, curDist)
				curNode, curDist = childRef, childDist
			} else {
				stack.push(childRef, childDist)
			}
		}

		stats.noteDepth(stack.depth())

		if d.switchDuringDown && d.activeLaneCount(p, curDist) <= d.tSwitch {
			stack.push(curNode, curDist)
			return bvh.Ref{}, curDist, true
		}
	}

	return curNode, curDist, false
}

// activeLaneCount implements the arbiter's "active lanes" predicate: lanes
// whose curDist is strictly less than the lane's own current tfar
// (SPEC_FULL §4.5).
func (d *Driver) activeLaneCount(p *RayPacket, dist [4]float32) int {
	count := 0
	for lane := 0; lane < 4; lane++ {
		if dist[lane] < p.TFar[lane] {
			count++
		}
	}
	return count
}
