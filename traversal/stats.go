package traversal

// Stats accumulates the per-call counters SPEC_FULL §6.1's CLI reports:
// how deep a traversal stack actually got relative to its static capacity
// (the greater of the shared packet stack and any single-ray walker's
// private stack),
// how often the arbiter dropped into single-ray mode, and how many leaf
// runs were tested. A zero Stats is valid and accumulates nothing.
type Stats struct {
	StackDepthHighWater int
	SingleRaySwitches   int
	LeafIntersections   int
}

func (s *Stats) noteDepth(d int) {
	if d > s.StackDepthHighWater {
		s.StackDepthHighWater = d
	}
}

func (s *Stats) merge(o Stats) {
	if o.StackDepthHighWater > s.StackDepthHighWater {
		s.StackDepthHighWater = o.StackDepthHighWater
	}
	s.SingleRaySwitches += o.SingleRaySwitches
	s.LeafIntersections += o.LeafIntersections
}
