package types

import (
	"math"
	"testing"
)

func TestRecipSafe(t *testing.T) {
	specs := []struct {
		in   Vec3
		want Vec3
	}{
		{Vec3{2, 0, -4}, Vec3{0.5, float32(largeFinite), -0.25}},
		{Vec3{0, 0, 0}, Vec3{float32(largeFinite), float32(largeFinite), float32(largeFinite)}},
	}

	for _, spec := range specs {
		got := spec.in.RecipSafe()
		for i := 0; i < 3; i++ {
			if math.IsNaN(float64(got[i])) || math.IsInf(float64(got[i]), 0) {
				t.Fatalf("RecipSafe(%v)[%d] = %v; want a finite value", spec.in, i, got[i])
			}
			if got[i] != spec.want[i] {
				t.Fatalf("RecipSafe(%v)[%d] = %v; want %v", spec.in, i, got[i], spec.want[i])
			}
		}
	}
}

func TestMinMaxVec3(t *testing.T) {
	a := Vec3{1, -2, 3}
	b := Vec3{-1, 5, 2}

	min := MinVec3(a, b)
	if min != (Vec3{-1, -2, 2}) {
		t.Fatalf("MinVec3(%v, %v) = %v; want {-1 -2 2}", a, b, min)
	}

	max := MaxVec3(a, b)
	if max != (Vec3{1, 5, 3}) {
		t.Fatalf("MaxVec3(%v, %v) = %v; want {1 5 3}", a, b, max)
	}
}
