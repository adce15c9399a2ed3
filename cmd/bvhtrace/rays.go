package main

import (
	"fmt"

	"github.com/go-bvhtrace/bvhtrace/traversal"
	"github.com/go-bvhtrace/bvhtrace/types"
)

// buildRayPacket assembles the named 4-lane ray preset. parallel and diverge
// both fire along +Z from z=-5; motion additionally splits lanes 0 and 1
// across time=0 and time=1 to exercise a motion-blur node.
func buildRayPacket(preset string) (*traversal.RayPacket, error) {
	p := traversal.NewRayPacket()
	switch preset {
	case "parallel":
		for lane, x := range []float32{-0.5, 0.5, -0.5, 0.5} {
			p.SetRay(lane, types.Vec3{x, 0, -5}, types.Vec3{0, 0, 1}, 0, 100, 0)
		}
	case "diverge":
		for lane, x := range []float32{-6, -2, 2, 6} {
			p.SetRay(lane, types.Vec3{x, 0, -5}, types.Vec3{0, 0, 1}, 0, 100, 0)
		}
	case "motion":
		p.SetRay(0, types.Vec3{0, 0, -5}, types.Vec3{0, 0, 1}, 0, 100, 0)
		p.SetRay(1, types.Vec3{0, 0, -5}, types.Vec3{0, 0, 1}, 0, 100, 1)
	default:
		return nil, fmt.Errorf("unknown ray preset %q (want one of: parallel, diverge, motion)", preset)
	}
	return p, nil
}
