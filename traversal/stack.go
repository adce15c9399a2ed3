package traversal

import (
	"fmt"
	"math"

	"github.com/go-bvhtrace/bvhtrace/bvh"
)

// packetStackEntry is one (node, near-distance) pair on the shared packet
// stack (SPEC_FULL §3, "Stack entry"). dist is per-lane: each ray in the
// packet has its own near-distance to the stacked node, which is exactly
// what the mode arbiter's "active lanes = lanes whose curDist < tfar" test
// needs (SPEC_FULL §4.5).
type packetStackEntry struct {
	node bvh.Ref
	dist [4]float32
}

// packetStack is the fixed-capacity LIFO the packet walker shares across one
// Intersect/Occluded call. Index 0 always holds the invalid sentinel;
// popping it terminates the walk. Overflow is a programming error
// (SPEC_FULL §4.6, §7).
type packetStack struct {
	entries []packetStackEntry
	size    int
}

func newPacketStack(capacity int) *packetStack {
	if capacity < 1 {
		capacity = 1
	}
	posInf := float32(math.Inf(1))
	s := &packetStack{entries: make([]packetStackEntry, capacity)}
	s.entries[0] = packetStackEntry{node: bvh.SentinelRef, dist: [4]float32{posInf, posInf, posInf, posInf}}
	s.size = 1
	return s
}

func (s *packetStack) push(node bvh.Ref, dist [4]float32) {
	if s.size >= len(s.entries) {
		panic(fmt.Sprintf("traversal: packet stack overflow at capacity %d", len(s.entries)))
	}
	s.entries[s.size] = packetStackEntry{node: node, dist: dist}
	s.size++
}

func (s *packetStack) pop() (bvh.Ref, [4]float32) {
	s.size--
	e := s.entries[s.size]
	return e.node, e.dist
}

func (s *packetStack) depth() int {
	return s.size
}

// singleRayStackEntry is the single-ray walker's private-per-lane analogue
// of packetStackEntry: one ray, so one scalar near-distance.
type singleRayStackEntry struct {
	node bvh.Ref
	dist float32
}

type singleRayStack struct {
	entries []singleRayStackEntry
	size    int
}

func newSingleRayStack(capacity int) *singleRayStack {
	if capacity < 1 {
		capacity = 1
	}
	s := &singleRayStack{entries: make([]singleRayStackEntry, capacity)}
	s.entries[0] = singleRayStackEntry{node: bvh.SentinelRef, dist: float32(math.Inf(1))}
	s.size = 1
	return s
}

func (s *singleRayStack) push(node bvh.Ref, dist float32) {
	if s.size >= len(s.entries) {
		panic(fmt.Sprintf("traversal: single-ray stack overflow at capacity %d", len(s.entries)))
	}
	s.entries[s.size] = singleRayStackEntry{node: node, dist: dist}
	s.size++
}

func (s *singleRayStack) pop() (bvh.Ref, float32) {
	s.size--
	e := s.entries[s.size]
	return e.node, e.dist
}

func (s *singleRayStack) depth() int {
	return s.size
}
