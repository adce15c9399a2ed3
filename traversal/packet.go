package traversal

import (
	"math"

	"github.com/go-bvhtrace/bvhtrace/lanes"
	"github.com/go-bvhtrace/bvhtrace/types"
)

// RayPacket holds four rays in SoA form, their derived per-lane
// precomputations, and the hit state the primitive intersector writes back.
// A packet is created by the caller, owned by a Driver for the duration of
// one Intersect/Occluded call, then consumed; it carries no state across
// calls.
type RayPacket struct {
	OrgX, OrgY, OrgZ [4]float32
	DirX, DirY, DirZ [4]float32
	TNear, TFar      [4]float32
	Time             [4]float32

	// Derived precomputations, filled in by precompute.
	RDirX, RDirY, RDirZ       [4]float32
	OrgRDirX, OrgRDirY, OrgRDirZ [4]float32

	// Valid marks the lanes the caller actually populated; inactive lanes
	// must not be written to by the primitive intersector.
	Valid lanes.Mask
	// Terminated is only meaningful for an any-hit traversal: once set,
	// the lane's tfar has been clamped so it can no longer hit anything.
	Terminated lanes.Mask

	// Hit attributes, written in place by the primitive intersector.
	PrimID, GeomID, InstID [4]int32
	U, V                   [4]float32
	NgX, NgY, NgZ          [4]float32
	// Occluded is the any-hit entry point's per-lane hit indicator.
	Occluded [4]bool
}

// NewRayPacket returns a packet with every lane marked inactive and every
// primitive attribute reset to "no hit".
func NewRayPacket() *RayPacket {
	p := &RayPacket{}
	for i := 0; i < 4; i++ {
		p.PrimID[i] = -1
		p.GeomID[i] = -1
		p.InstID[i] = -1
	}
	return p
}

// SetRay populates lane i and marks it valid.
func (p *RayPacket) SetRay(lane int, org, dir types.Vec3, tnear, tfar, time float32) {
	p.OrgX[lane], p.OrgY[lane], p.OrgZ[lane] = org[0], org[1], org[2]
	p.DirX[lane], p.DirY[lane], p.DirZ[lane] = dir[0], dir[1], dir[2]
	p.TNear[lane], p.TFar[lane] = tnear, tfar
	p.Time[lane] = time
	p.Valid = p.Valid.Set(lane)
}

// precompute builds rdir = recip_safe(dir) and org*rdir for every lane, and
// forces inactive lanes to tnear=+Inf, tfar=-Inf so they cannot intersect
// any box and cannot update a hit. This is driver step 1 (SPEC_FULL §4.7).
func (p *RayPacket) precompute() {
	for i := 0; i < 4; i++ {
		if !p.Valid.Test(i) {
			p.TNear[i] = float32(math.Inf(1))
			p.TFar[i] = float32(math.Inf(-1))
			continue
		}
		rdir := (types.Vec3{p.DirX[i], p.DirY[i], p.DirZ[i]}).RecipSafe()
		p.RDirX[i], p.RDirY[i], p.RDirZ[i] = rdir[0], rdir[1], rdir[2]
		p.OrgRDirX[i] = p.OrgX[i] * rdir[0]
		p.OrgRDirY[i] = p.OrgY[i] * rdir[1]
		p.OrgRDirZ[i] = p.OrgZ[i] * rdir[2]
	}
}

// originalTFar snapshots tfar before a traversal begins so the closest-hit
// driver can clamp single-ray-walker results to it (SPEC_FULL §4.5).
func (p *RayPacket) originalTFar() [4]float32 {
	return p.TFar
}
