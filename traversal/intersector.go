package traversal

import "github.com/go-bvhtrace/bvhtrace/lanes"

// PrimitiveIntersector is the external collaborator the core delegates leaf
// intersection to (SPEC_FULL §4.7). It is total, and must only mutate lanes
// whose bit is set in valid. For closest-hit it must be commutative (it
// keeps the minimum tfar); for any-hit it must be idempotent. The core never
// inspects its contents.
type PrimitiveIntersector interface {
	// Intersect tests the primitive run [firstPrimIndex, firstPrimIndex+count)
	// against every lane marked in valid, updating p's tfar and hit
	// attributes in place for any lane that finds a closer hit.
	Intersect(valid lanes.Mask, p *RayPacket, firstPrimIndex, count uint32)

	// Occluded tests the same primitive run for any-hit queries and
	// returns the mask of lanes that found an intersection within
	// [tnear, tfar]. It must not mutate p's tfar itself; the driver owns
	// termination bookkeeping.
	Occluded(valid lanes.Mask, p *RayPacket, firstPrimIndex, count uint32) lanes.Mask
}
