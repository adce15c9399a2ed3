package bvh

import (
	"testing"

	"github.com/go-bvhtrace/bvhtrace/types"
	"github.com/google/go-cmp/cmp"
)

func TestNodeNumChildrenDenseLeft(t *testing.T) {
	n := Node{}
	n.Children = [4]Ref{LeafRef(0, 1), LeafRef(1, 1), EmptyRef, EmptyRef}

	if got := n.NumChildren(); got != 2 {
		t.Fatalf("NumChildren() = %d; want 2", got)
	}
}

func TestNodeChildBoxIgnoresTime(t *testing.T) {
	n := Node{}
	n.LowerX[0], n.LowerY[0], n.LowerZ[0] = -1, -2, -3
	n.UpperX[0], n.UpperY[0], n.UpperZ[0] = 1, 2, 3

	lower, upper := n.ChildBox(0, 0.5)
	wantLower, wantUpper := types.Vec3{-1, -2, -3}, types.Vec3{1, 2, 3}
	if diff := cmp.Diff(wantLower, lower); diff != "" {
		t.Fatalf("ChildBox(0, 0.5) lower mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(wantUpper, upper); diff != "" {
		t.Fatalf("ChildBox(0, 0.5) upper mismatch (-want +got):\n%s", diff)
	}
}

func TestMotionNodeChildBoxInterpolates(t *testing.T) {
	mn := MotionNode{}
	mn.LowerX[0] = 0
	mn.UpperX[0] = 1
	mn.DeltaLowerX[0] = 10
	mn.DeltaUpperX[0] = 10

	lower, upper := mn.ChildBox(0, 0.0)
	if lower[0] != 0 || upper[0] != 1 {
		t.Fatalf("at t=0, got lower.x=%v upper.x=%v; want 0/1", lower[0], upper[0])
	}

	lower, upper = mn.ChildBox(0, 1.0)
	if lower[0] != 10 || upper[0] != 11 {
		t.Fatalf("at t=1, got lower.x=%v upper.x=%v; want 10/11", lower[0], upper[0])
	}
}

func TestMotionNodeChildBoxLanesPerLaneTime(t *testing.T) {
	mn := MotionNode{}
	mn.LowerX[0], mn.UpperX[0] = 0, 1
	mn.DeltaLowerX[0], mn.DeltaUpperX[0] = 10, 10

	lowerX, upperX, _, _, _, _ := mn.ChildBoxLanes(0, [4]float32{0, 1, 0.5, 0})
	want := [4]float32{0, 10, 5, 0}
	if lowerX != want {
		t.Fatalf("ChildBoxLanes lowerX = %v; want %v", lowerX, want)
	}
	wantUpper := [4]float32{1, 11, 6, 1}
	if upperX != wantUpper {
		t.Fatalf("ChildBoxLanes upperX = %v; want %v", upperX, wantUpper)
	}
}

func TestNodeChildBoxLanesBroadcasts(t *testing.T) {
	n := Node{}
	n.LowerX[0], n.UpperX[0] = -1, 1
	lowerX, upperX, _, _, _, _ := n.ChildBoxLanes(0, [4]float32{0, 1, 2, 3})
	if lowerX != [4]float32{-1, -1, -1, -1} || upperX != [4]float32{1, 1, 1, 1} {
		t.Fatalf("ChildBoxLanes should broadcast the static bound into every lane, got lowerX=%v upperX=%v", lowerX, upperX)
	}
}

func TestTreeReaderDistinguishesVariants(t *testing.T) {
	tree := &Tree{
		Nodes:       []Node{{}},
		MotionNodes: []MotionNode{{}},
	}

	if _, ok := tree.Reader(Ref{Kind: Internal, Index: 0}).(*Node); !ok {
		t.Fatalf("expected Reader to return *Node for an Internal ref")
	}
	if _, ok := tree.Reader(Ref{Kind: InternalMotion, Index: 0}).(*MotionNode); !ok {
		t.Fatalf("expected Reader to return *MotionNode for an InternalMotion ref")
	}
}

func TestReaderPanicsOnLeafRef(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatalf("expected Reader() to panic on a leaf ref")
		}
	}()
	tree := &Tree{}
	tree.Reader(LeafRef(0, 1))
}
