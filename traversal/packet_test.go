package traversal

import (
	"math"
	"testing"

	"github.com/go-bvhtrace/bvhtrace/types"
)

func TestNewRayPacketStartsWithNoHit(t *testing.T) {
	p := NewRayPacket()
	for lane := 0; lane < 4; lane++ {
		if p.PrimID[lane] != -1 || p.GeomID[lane] != -1 || p.InstID[lane] != -1 {
			t.Fatalf("lane %d: expected -1 hit attributes on a fresh packet", lane)
		}
		if p.Valid.Test(lane) {
			t.Fatalf("lane %d: expected a fresh packet to have no valid lanes", lane)
		}
	}
}

func TestSetRayMarksOnlyThatLaneValid(t *testing.T) {
	p := NewRayPacket()
	p.SetRay(2, types.Vec3{0, 0, 0}, types.Vec3{0, 0, 1}, 0, 100, 0)

	for lane := 0; lane < 4; lane++ {
		want := lane == 2
		if p.Valid.Test(lane) != want {
			t.Fatalf("lane %d: valid=%v, want %v", lane, p.Valid.Test(lane), want)
		}
	}
}

func TestPrecomputeForcesInactiveLanesUnreachable(t *testing.T) {
	p := NewRayPacket()
	p.SetRay(0, types.Vec3{0, 0, 0}, types.Vec3{0, 0, 1}, 0, 100, 0)
	// lanes 1-3 left invalid.
	p.precompute()

	for lane := 1; lane < 4; lane++ {
		if p.TNear[lane] != float32(math.Inf(1)) {
			t.Fatalf("lane %d: expected tnear = +Inf for an inactive lane, got %v", lane, p.TNear[lane])
		}
		if p.TFar[lane] != float32(math.Inf(-1)) {
			t.Fatalf("lane %d: expected tfar = -Inf for an inactive lane, got %v", lane, p.TFar[lane])
		}
	}
}

func TestPrecomputeRecipSafeAvoidsNaN(t *testing.T) {
	p := NewRayPacket()
	p.SetRay(0, types.Vec3{0, 0, -5}, types.Vec3{0, 0, 1}, 0, 100, 0)
	p.precompute()

	if math.IsNaN(float64(p.RDirX[0])) || math.IsInf(float64(p.RDirX[0]), 0) {
		t.Fatalf("expected a zero direction component to reciprocate to a large finite value, got %v", p.RDirX[0])
	}
	if math.Abs(float64(p.RDirX[0])) < 1e30 {
		t.Fatalf("expected recip_safe to map a zero direction component to a large finite value, got %v", p.RDirX[0])
	}
	if math.IsNaN(float64(p.OrgRDirX[0])) {
		t.Fatalf("expected org*rdir to stay finite for a zero direction component, got NaN")
	}
}

func TestOriginalTFarSnapshotsBeforeMutation(t *testing.T) {
	p := NewRayPacket()
	p.SetRay(0, types.Vec3{0, 0, 0}, types.Vec3{0, 0, 1}, 0, 100, 0)

	original := p.originalTFar()
	p.TFar[0] = 5

	if original[0] != 100 {
		t.Fatalf("expected the snapshot to keep the pre-mutation value 100, got %v", original[0])
	}
}
