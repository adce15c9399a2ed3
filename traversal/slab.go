package traversal

import "github.com/go-bvhtrace/bvhtrace/lanes"

// boxTestLanes is the slab-test kernel (SPEC_FULL §4.1). lowerX..upperZ are
// one child's bounds, already broadcast or time-interpolated per lane by
// bvh.NodeReader.ChildBoxLanes, so this single implementation serves both
// static and motion-blur nodes: the node-reader abstraction is the only
// place those two variants are distinguished (SPEC_FULL §4.2).
//
// It returns the 4-lane hit mask and the per-lane t_near, following:
//
//	t_min_axis = (box_lower_axis - org_axis) * rdir_axis
//	t_max_axis = (box_upper_axis - org_axis) * rdir_axis
//	t_near     = max(tnear, min(t_min_x, t_max_x), min(t_min_y, t_max_y), min(t_min_z, t_max_z))
//	t_far      = min(tfar,  max(t_min_x, t_max_x), max(t_min_y, t_max_y), max(t_min_z, t_max_z))
//	hit_lane   = t_near <= t_far
//
// The two multiplications are reformulated using the packet's precomputed
// org*rdir term (org_axis*rdir_axis) via lanes.Float4.Add, an FMA-equivalent
// rearrangement with identical algebra to within one ULP (SPEC_FULL §4.1).
func boxTestLanes(p *RayPacket, lowerX, upperX, lowerY, upperY, lowerZ, upperZ [4]float32) (hit lanes.Mask, tNear [4]float32) {
	tMinX := fmaSub(mulLanes(lowerX, p.RDirX), p.OrgRDirX)
	tMaxX := fmaSub(mulLanes(upperX, p.RDirX), p.OrgRDirX)
	tMinY := fmaSub(mulLanes(lowerY, p.RDirY), p.OrgRDirY)
	tMaxY := fmaSub(mulLanes(upperY, p.RDirY), p.OrgRDirY)
	tMinZ := fmaSub(mulLanes(lowerZ, p.RDirZ), p.OrgRDirZ)
	tMaxZ := fmaSub(mulLanes(upperZ, p.RDirZ), p.OrgRDirZ)

	for lane := 0; lane < 4; lane++ {
		near := fmax32(p.TNear[lane],
			fmin32(tMinX[lane], tMaxX[lane]),
			fmin32(tMinY[lane], tMaxY[lane]),
			fmin32(tMinZ[lane], tMaxZ[lane]),
		)
		far := fmin32(p.TFar[lane],
			fmax32(tMinX[lane], tMaxX[lane]),
			fmax32(tMinY[lane], tMaxY[lane]),
			fmax32(tMinZ[lane], tMaxZ[lane]),
		)
		tNear[lane] = near
		if near <= far {
			hit = hit.Set(lane)
		}
	}
	return hit, tNear
}

// mulLanes computes the lane-wise product via go-highway's portable Vec
// multiply, same as fmaSub below.
func mulLanes(a, b [4]float32) [4]float32 {
	return lanes.LoadFloat4(a[0], a[1], a[2], a[3]).
		Mul(lanes.LoadFloat4(b[0], b[1], b[2], b[3])).
		Data()
}

// fmaSub computes boxTimesRDir - orgRDir lane-wise via go-highway's portable
// Vec add, by negating orgRDir first: this is the FMA-equivalent
// reformulation of (box-org)*rdir called out in SPEC_FULL §4.1.
func fmaSub(boxTimesRDir, orgRDir [4]float32) [4]float32 {
	neg := [4]float32{-orgRDir[0], -orgRDir[1], -orgRDir[2], -orgRDir[3]}
	return lanes.LoadFloat4(boxTimesRDir[0], boxTimesRDir[1], boxTimesRDir[2], boxTimesRDir[3]).
		Add(lanes.LoadFloat4(neg[0], neg[1], neg[2], neg[3])).
		Data()
}

func fmin32(a float32, rest ...float32) float32 {
	m := a
	for _, v := range rest {
		if v < m {
			m = v
		}
	}
	return m
}

func fmax32(a float32, rest ...float32) float32 {
	m := a
	for _, v := range rest {
		if v > m {
			m = v
		}
	}
	return m
}
