// Package lanes provides the small 4-lane primitives the packet walker
// shares across the traversal core: an active/termination bitmask and a
// packed 4-float helper built on top of the portable-SIMD vector type from
// go-highway, used where the core combines two SoA lane arrays (see
// boxTestLanes in package traversal).
package lanes

import (
	"math/bits"

	"github.com/ajroetker/go-highway/hwy"
)

// Width is the number of rays carried by one packet.
const Width = 4

// Mask is a 4-bit active-lane mask: bit i set means lane i participates in
// the current operation. Embree-style packet tracers call this a
// "movemask"; Go has no hardware movemask instruction to wrap; this is a
// plain bitmask playing the same role.
type Mask uint8

// Full is the all-lanes-active mask.
const Full Mask = 0b1111

// None is the all-lanes-inactive mask.
const None Mask = 0

// Test reports whether lane i is set.
func (m Mask) Test(i int) bool {
	return m&(1<<uint(i)) != 0
}

// Set returns m with lane i set.
func (m Mask) Set(i int) Mask {
	return m | (1 << uint(i))
}

// Clear returns m with lane i cleared.
func (m Mask) Clear(i int) Mask {
	return m &^ (1 << uint(i))
}

// Count returns the number of active lanes (the packet walker's mode
// arbiter popcount).
func (m Mask) Count() int {
	return bits.OnesCount8(uint8(m))
}

// Any reports whether at least one lane is active.
func (m Mask) Any() bool {
	return m != None
}

// All reports whether every lane is active.
func (m Mask) All() bool {
	return m == Full
}

// Float4 is a packed 4-lane float32 vector backed by go-highway's portable
// Vec type, so arithmetic on whole lanes (e.g. the box*rdir - org*rdir terms
// of the slab test) can pick up whatever SIMD dispatch go-highway selects for
// the host, without the traversal core depending on architecture-specific
// types directly.
type Float4 struct {
	v hwy.Vec[float32]
}

// LoadFloat4 packs four scalars into a Float4.
func LoadFloat4(a, b, c, d float32) Float4 {
	return Float4{v: hwy.Load([]float32{a, b, c, d})}
}

// Data unpacks the four lanes back into a plain array.
func (f Float4) Data() [4]float32 {
	var out [4]float32
	f.v.Store(out[:])
	return out
}

// Add returns the lane-wise sum of f and o.
func (f Float4) Add(o Float4) Float4 {
	return Float4{v: hwy.Add(f.v, o.v)}
}

// Mul returns the lane-wise product of f and o.
func (f Float4) Mul(o Float4) Float4 {
	return Float4{v: hwy.Mul(f.v, o.v)}
}
