package traversal_test

import (
	"math"
	"testing"

	"github.com/go-bvhtrace/bvhtrace/bvh"
	"github.com/go-bvhtrace/bvhtrace/primitive"
	"github.com/go-bvhtrace/bvhtrace/traversal"
	"github.com/go-bvhtrace/bvhtrace/types"
)

// diagonalQuad is two triangles covering the z=5 plane's unit square,
// split along the quad's diagonal, so a 4-lane packet straddling the
// diagonal exercises both triangles of the leaf it lands in.
func diagonalQuad() []bvh.Triangle {
	return []bvh.Triangle{
		{V0: types.Vec3{-1, -1, 5}, V1: types.Vec3{1, -1, 5}, V2: types.Vec3{1, 1, 5}, PrimID: 0, GeomID: 0},
		{V0: types.Vec3{-1, -1, 5}, V1: types.Vec3{1, 1, 5}, V2: types.Vec3{-1, 1, 5}, PrimID: 1, GeomID: 0},
	}
}

func buildTree(tris []bvh.Triangle, minLeafItems int) (bvh.Tree, *primitive.TriangleIntersector) {
	ordered := make([]bvh.Triangle, 0, len(tris))
	workList := make([]bvh.BoundedVolume, len(tris))
	for i, tri := range tris {
		workList[i] = tri
	}

	leafCb := func(firstPrimIndex, count uint32, items []bvh.BoundedVolume) {
		for _, item := range items {
			ordered = append(ordered, item.(bvh.Triangle))
		}
	}

	tree := bvh.Build4(workList, minLeafItems, leafCb, bvh.SurfaceAreaHeuristic)
	return tree, &primitive.TriangleIntersector{Triangles: ordered}
}

func TestScenarioDiagonalQuadHitsBothTriangles(t *testing.T) {
	tree, intersector := buildTree(diagonalQuad(), 4)

	p := traversal.NewRayPacket()
	p.SetRay(0, types.Vec3{0.5, -0.5, 0}, types.Vec3{0, 0, 1}, 0, 100, 0)  // triangle 0 (y < x half).
	p.SetRay(1, types.Vec3{0.9, 0.5, 0}, types.Vec3{0, 0, 1}, 0, 100, 0)   // triangle 0.
	p.SetRay(2, types.Vec3{-0.5, 0.5, 0}, types.Vec3{0, 0, 1}, 0, 100, 0)  // triangle 1 (y > x half).
	p.SetRay(3, types.Vec3{-0.9, -0.5, 0}, types.Vec3{0, 0, 1}, 0, 100, 0) // triangle 1.

	d := traversal.NewDriver(intersector, traversal.StackCapacityFor(tree.MaxDepth))
	d.Intersect(&tree, p, nil)

	seen := map[int32]bool{}
	for lane := 0; lane < 4; lane++ {
		if p.PrimID[lane] == -1 {
			t.Fatalf("lane %d: expected a hit against the diagonal quad", lane)
		}
		if math.Abs(float64(p.TFar[lane]-5)) > 1e-3 {
			t.Fatalf("lane %d: expected tfar ~= 5, got %v", lane, p.TFar[lane])
		}
		seen[p.PrimID[lane]] = true
	}
	if len(seen) != 2 {
		t.Fatalf("expected the packet to exercise both triangles of the diagonal split, saw PrimIDs %v", seen)
	}
}

// divergentQuadrants scatters four triangles far enough apart along X that
// Build4 places each alone in its own leaf and a 4-lane packet aimed one ray
// per quadrant fully diverges by the time it reaches them.
func divergentQuadrants() []bvh.Triangle {
	var tris []bvh.Triangle
	for i, cx := range []float32{-6, -2, 2, 6} {
		tris = append(tris, bvh.Triangle{
			V0:     types.Vec3{cx - 1, -1, 5},
			V1:     types.Vec3{cx + 1, -1, 5},
			V2:     types.Vec3{cx, 1, 5},
			PrimID: int32(i),
			GeomID: 0,
		})
	}
	return tris
}

func divergentPacket() *traversal.RayPacket {
	p := traversal.NewRayPacket()
	for lane, cx := range []float32{-6, -2, 2, 6} {
		p.SetRay(lane, types.Vec3{cx, 0, -5}, types.Vec3{0, 0, 1}, 0, 100, 0)
	}
	return p
}

func TestScenarioModeSwitchAgreesAcrossTSwitch(t *testing.T) {
	tree, intersector := buildTree(divergentQuadrants(), 1)

	packetOnly := traversal.NewDriver(intersector, traversal.StackCapacityFor(tree.MaxDepth)).WithTSwitch(0)
	pPacketOnly := divergentPacket()
	statsPacketOnly := &traversal.Stats{}
	packetOnly.Intersect(&tree, pPacketOnly, statsPacketOnly)

	tree2, intersector2 := buildTree(divergentQuadrants(), 1)
	defaultSwitch := traversal.NewDriver(intersector2, traversal.StackCapacityFor(tree2.MaxDepth))
	pDefault := divergentPacket()
	statsDefault := &traversal.Stats{}
	defaultSwitch.Intersect(&tree2, pDefault, statsDefault)

	for lane := 0; lane < 4; lane++ {
		if pPacketOnly.PrimID[lane] != pDefault.PrimID[lane] {
			t.Fatalf("lane %d: T_SWITCH=0 found PrimID=%d, default T_SWITCH found PrimID=%d, want equal", lane, pPacketOnly.PrimID[lane], pDefault.PrimID[lane])
		}
		if math.Abs(float64(pPacketOnly.TFar[lane]-pDefault.TFar[lane])) > 1e-3 {
			t.Fatalf("lane %d: tfar disagreement between T_SWITCH settings: %v vs %v", lane, pPacketOnly.TFar[lane], pDefault.TFar[lane])
		}
	}
	if statsPacketOnly.SingleRaySwitches != 0 {
		t.Fatalf("expected T_SWITCH=0 to never drop into single-ray mode, got %d switches", statsPacketOnly.SingleRaySwitches)
	}
	if statsDefault.SingleRaySwitches == 0 {
		t.Fatalf("expected a fully divergent packet to trigger at least one single-ray switch under the default T_SWITCH")
	}
}

func TestScenarioAnyHitBlockedAndClearLanesReportCorrectly(t *testing.T) {
	tree, intersector := buildTree(divergentQuadrants(), 1)

	occludedPacket := traversal.NewRayPacket()
	for lane, cx := range []float32{-6, -2, 2, 100} {
		occludedPacket.SetRay(lane, types.Vec3{cx, 0, -5}, types.Vec3{0, 0, 1}, 0, 100, 0)
	}
	traversal.NewDriver(intersector, traversal.StackCapacityFor(tree.MaxDepth)).Occluded(&tree, occludedPacket, nil)

	for lane := 0; lane < 3; lane++ {
		if !occludedPacket.Occluded[lane] {
			t.Fatalf("lane %d: expected a blocked lane to report occluded", lane)
		}
	}
	if occludedPacket.Occluded[3] {
		t.Fatalf("lane 3: expected the lane with no triangle in its path to report clear")
	}
}

// motionBlurLeaf builds a one-node, one-leaf tree whose node bounds only
// enclose the ray's path at time=1: at time=0 the box sits far away on the Y
// axis. This is an adapted form of SPEC_FULL's "motion blur correctness"
// scenario (the box moves along Y, so ray time decides hit versus miss),
// built directly against bvh.MotionNode rather than through the
// (static-only) builder.
func motionBlurLeaf() (bvh.Tree, *primitive.TriangleIntersector) {
	tri := bvh.Triangle{
		V0:     types.Vec3{-1, -1, 5},
		V1:     types.Vec3{1, -1, 5},
		V2:     types.Vec3{0, 1, 5},
		PrimID: 0,
		GeomID: 0,
	}

	node := bvh.MotionNode{
		Node: bvh.Node{
			LowerX: [4]float32{-1, -1, -1, -1}, UpperX: [4]float32{1, 1, 1, 1},
			LowerY: [4]float32{5, 5, 5, 5}, UpperY: [4]float32{6, 6, 6, 6},
			LowerZ: [4]float32{4, 4, 4, 4}, UpperZ: [4]float32{6, 6, 6, 6},
			Children: [4]bvh.Ref{bvh.LeafRef(0, 1), bvh.EmptyRef, bvh.EmptyRef, bvh.EmptyRef},
		},
		DeltaLowerY: [4]float32{-6, -6, -6, -6},
		DeltaUpperY: [4]float32{-5, -5, -5, -5},
	}

	tree := bvh.Tree{
		MotionNodes: []bvh.MotionNode{node},
		Root:        bvh.Ref{Kind: bvh.InternalMotion, Index: 0},
		MaxDepth:    1,
	}
	return tree, &primitive.TriangleIntersector{Triangles: []bvh.Triangle{tri}}
}

func TestScenarioMotionBlurGatesOnRayTime(t *testing.T) {
	tree, intersector := motionBlurLeaf()

	p := traversal.NewRayPacket()
	p.SetRay(0, types.Vec3{0, 0, -5}, types.Vec3{0, 0, 1}, 0, 100, 0) // time 0: box is away on Y, must miss.
	p.SetRay(1, types.Vec3{0, 0, -5}, types.Vec3{0, 0, 1}, 0, 100, 1) // time 1: box covers the ray, must hit.

	d := traversal.NewDriver(intersector, traversal.StackCapacityFor(tree.MaxDepth))
	d.Intersect(&tree, p, nil)

	if p.PrimID[0] != -1 {
		t.Fatalf("lane 0 (time=0): expected no hit while the motion box is away from the ray, got PrimID=%d", p.PrimID[0])
	}
	if p.PrimID[1] != 0 {
		t.Fatalf("lane 1 (time=1): expected a hit once the motion box covers the ray, got PrimID=%d", p.PrimID[1])
	}
	if math.Abs(float64(p.TFar[1]-10)) > 1e-3 {
		t.Fatalf("lane 1: expected tfar ~= 10, got %v", p.TFar[1])
	}
}
