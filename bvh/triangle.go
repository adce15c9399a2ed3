package bvh

import "github.com/go-bvhtrace/bvhtrace/types"

// Triangle is a bounded volume over three vertices plus an opaque payload
// index the caller uses to look up material/shading data. It implements
// BoundedVolume so a slice of Triangle can be handed directly to Build4,
// mirroring the teacher's asset/compiler/bvh.BoundedVolume contract.
type Triangle struct {
	V0, V1, V2 types.Vec3
	// GeomID and PrimID are opaque payload indices copied verbatim into a
	// RayPacket's hit attributes by the reference primitive intersector;
	// the core never interprets them.
	GeomID, PrimID int32
}

// BBox returns the triangle's axis-aligned bounding box.
func (t Triangle) BBox() [2]types.Vec3 {
	lower := types.MinVec3(types.MinVec3(t.V0, t.V1), t.V2)
	upper := types.MaxVec3(types.MaxVec3(t.V0, t.V1), t.V2)
	return [2]types.Vec3{lower, upper}
}

// Center returns the triangle's centroid.
func (t Triangle) Center() types.Vec3 {
	return t.V0.Add(t.V1).Add(t.V2).Mul(1.0 / 3.0)
}
