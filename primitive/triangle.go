// Package primitive implements the reference primitive-intersector
// collaborator the traversal core delegates leaf intersection to
// (SPEC_FULL §4.7, §4.8): a narrow Möller–Trumbore triangle test against a
// contiguous backing array of bvh.Triangle, addressed by a leaf's
// (firstPrimIndex, count).
package primitive

import (
	"github.com/go-bvhtrace/bvhtrace/bvh"
	"github.com/go-bvhtrace/bvhtrace/lanes"
	"github.com/go-bvhtrace/bvhtrace/traversal"
	"github.com/go-bvhtrace/bvhtrace/types"
)

const epsilon = float32(1e-7)

// TriangleIntersector implements traversal.PrimitiveIntersector over a flat
// backing array of triangles laid out by a bvh.Build4 run: a leaf's
// (firstPrimIndex, count) addresses a contiguous run in Triangles, exactly
// as the teacher's scene.BvhNode leaf encoding addresses scene.Primitive.
//
// It is total: every lane in valid is tested against every primitive in the
// run, closest-hit keeps the minimum tfar (commutative), and any-hit reports
// a hit without mutating tfar itself (idempotent), per §5's ordering
// guarantees.
type TriangleIntersector struct {
	Triangles []bvh.Triangle
}

// Intersect tests Triangles[firstPrimIndex:firstPrimIndex+count] against
// every lane marked in valid, updating the packet's tfar and hit attributes
// in place for any lane that finds a closer hit.
func (ti *TriangleIntersector) Intersect(valid lanes.Mask, p *traversal.RayPacket, firstPrimIndex, count uint32) {
	for primIdx := firstPrimIndex; primIdx < firstPrimIndex+count; primIdx++ {
		tri := &ti.Triangles[primIdx]
		for lane := 0; lane < 4; lane++ {
			if !valid.Test(lane) {
				continue
			}
			org := types.Vec3{p.OrgX[lane], p.OrgY[lane], p.OrgZ[lane]}
			dir := types.Vec3{p.DirX[lane], p.DirY[lane], p.DirZ[lane]}
			t, u, v, hit := intersectTriangle(org, dir, tri.V0, tri.V1, tri.V2)
			if !hit || t < p.TNear[lane] || t >= p.TFar[lane] {
				continue
			}
			p.TFar[lane] = t
			p.PrimID[lane] = tri.PrimID
			p.GeomID[lane] = tri.GeomID
			p.U[lane], p.V[lane] = u, v
			ng := tri.V1.Sub(tri.V0).Cross(tri.V2.Sub(tri.V0))
			p.NgX[lane], p.NgY[lane], p.NgZ[lane] = ng[0], ng[1], ng[2]
		}
	}
}

// Occluded tests the same primitive run for any-hit queries and returns the
// mask of lanes that found an intersection within [tnear, tfar]. It does
// not mutate tfar; the driver owns termination bookkeeping.
func (ti *TriangleIntersector) Occluded(valid lanes.Mask, p *traversal.RayPacket, firstPrimIndex, count uint32) lanes.Mask {
	var hitMask lanes.Mask
	for primIdx := firstPrimIndex; primIdx < firstPrimIndex+count; primIdx++ {
		tri := &ti.Triangles[primIdx]
		for lane := 0; lane < 4; lane++ {
			if !valid.Test(lane) || hitMask.Test(lane) {
				continue
			}
			org := types.Vec3{p.OrgX[lane], p.OrgY[lane], p.OrgZ[lane]}
			dir := types.Vec3{p.DirX[lane], p.DirY[lane], p.DirZ[lane]}
			t, _, _, hit := intersectTriangle(org, dir, tri.V0, tri.V1, tri.V2)
			if hit && t >= p.TNear[lane] && t < p.TFar[lane] {
				hitMask = hitMask.Set(lane)
			}
		}
	}
	return hitMask
}

// intersectTriangle is the Möller–Trumbore ray/triangle test.
func intersectTriangle(org, dir, v0, v1, v2 types.Vec3) (t, u, v float32, hit bool) {
	edge1 := v1.Sub(v0)
	edge2 := v2.Sub(v0)
	h := dir.Cross(edge2)
	a := edge1.Dot(h)
	if a > -epsilon && a < epsilon {
		return 0, 0, 0, false
	}

	f := 1.0 / a
	s := org.Sub(v0)
	u = f * s.Dot(h)
	if u < 0.0 || u > 1.0 {
		return 0, 0, 0, false
	}

	q := s.Cross(edge1)
	v = f * dir.Dot(q)
	if v < 0.0 || u+v > 1.0 {
		return 0, 0, 0, false
	}

	t = f * edge2.Dot(q)
	return t, u, v, true
}
