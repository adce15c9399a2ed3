package main

import (
	"fmt"

	"github.com/go-bvhtrace/bvhtrace/bvh"
	"github.com/go-bvhtrace/bvhtrace/primitive"
	"github.com/go-bvhtrace/bvhtrace/types"
)

// scene bundles a compiled tree with the primitive intersector that
// addresses it, ready to hand to a Driver.
type scene struct {
	tree        bvh.Tree
	intersector *primitive.TriangleIntersector
}

// buildScene compiles one of the named demo scenes, mirroring the shapes
// exercised by the traversal package's own scenario tests: a two-triangle
// quad, a column of well-separated leaves, a hand-built motion-blur node, an
// empty tree, and a pathologically deep left-leaning chain.
func buildScene(name string) (scene, error) {
	switch name {
	case "cube":
		return buildFromTriangles(quadTriangles(), 4), nil
	case "column":
		return buildFromTriangles(columnTriangles(), 1), nil
	case "motion":
		return motionScene(), nil
	case "empty":
		return scene{tree: bvh.Tree{Root: bvh.EmptyRef}, intersector: &primitive.TriangleIntersector{}}, nil
	case "pathological":
		return pathologicalScene(), nil
	default:
		return scene{}, fmt.Errorf("unknown scene %q (want one of: cube, column, motion, empty, pathological)", name)
	}
}

func buildFromTriangles(tris []bvh.Triangle, minLeafItems int) scene {
	ordered := make([]bvh.Triangle, 0, len(tris))
	workList := make([]bvh.BoundedVolume, len(tris))
	for i, tri := range tris {
		workList[i] = tri
	}
	leafCb := func(firstPrimIndex, count uint32, items []bvh.BoundedVolume) {
		for _, item := range items {
			ordered = append(ordered, item.(bvh.Triangle))
		}
	}
	tree := bvh.Build4(workList, minLeafItems, leafCb, bvh.SurfaceAreaHeuristic)
	return scene{tree: tree, intersector: &primitive.TriangleIntersector{Triangles: ordered}}
}

// quadTriangles is a unit square split along its diagonal, sitting on the
// z=5 plane: the "cube" scene (a single face, not a full hexahedron, is
// enough to exercise a leaf that carries more than one primitive).
func quadTriangles() []bvh.Triangle {
	return []bvh.Triangle{
		{V0: types.Vec3{-1, -1, 5}, V1: types.Vec3{1, -1, 5}, V2: types.Vec3{1, 1, 5}, PrimID: 0, GeomID: 0},
		{V0: types.Vec3{-1, -1, 5}, V1: types.Vec3{1, 1, 5}, V2: types.Vec3{-1, 1, 5}, PrimID: 1, GeomID: 0},
	}
}

// columnTriangles scatters four triangles along X far enough apart that
// Build4 packs each into its own leaf, forming a single 4-ary node: a
// "column" of isolated targets, one per ray lane.
func columnTriangles() []bvh.Triangle {
	var tris []bvh.Triangle
	for i, cx := range []float32{-6, -2, 2, 6} {
		tris = append(tris, bvh.Triangle{
			V0:     types.Vec3{cx - 1, -1, 5},
			V1:     types.Vec3{cx + 1, -1, 5},
			V2:     types.Vec3{cx, 1, 5},
			PrimID: int32(i),
			GeomID: 0,
		})
	}
	return tris
}

// motionScene hand-builds a one-node, one-leaf motion-blur tree: the node's
// bounds only cover a ray's path once time reaches 1, so lanes with time=0
// and time=1 disagree on whether the leaf is even visited.
func motionScene() scene {
	tri := bvh.Triangle{
		V0:     types.Vec3{-1, -1, 5},
		V1:     types.Vec3{1, -1, 5},
		V2:     types.Vec3{0, 1, 5},
		PrimID: 0,
		GeomID: 0,
	}
	node := bvh.MotionNode{
		Node: bvh.Node{
			LowerX: [4]float32{-1, -1, -1, -1}, UpperX: [4]float32{1, 1, 1, 1},
			LowerY: [4]float32{5, 5, 5, 5}, UpperY: [4]float32{6, 6, 6, 6},
			LowerZ: [4]float32{4, 4, 4, 4}, UpperZ: [4]float32{6, 6, 6, 6},
			Children: [4]bvh.Ref{bvh.LeafRef(0, 1), bvh.EmptyRef, bvh.EmptyRef, bvh.EmptyRef},
		},
		DeltaLowerY: [4]float32{-6, -6, -6, -6},
		DeltaUpperY: [4]float32{-5, -5, -5, -5},
	}
	tree := bvh.Tree{
		MotionNodes: []bvh.MotionNode{node},
		Root:        bvh.Ref{Kind: bvh.InternalMotion, Index: 0},
		MaxDepth:    1,
	}
	return scene{tree: tree, intersector: &primitive.TriangleIntersector{Triangles: []bvh.Triangle{tri}}}
}

// pathologicalChainDepth is deep enough to demonstrate the stack manager's
// capacity bound without producing an unwieldy --stats table.
const pathologicalChainDepth = 24

// pathologicalScene builds a left-leaning chain of single-child internal
// nodes all wrapping the same unit cube, so every level is opened. Each node
// has a single child, so no level leaves an entry behind on the shared stack
// and its high-water mark stays at the sentinel alone, however deep the chain.
func pathologicalScene() scene {
	box := [4]float32{-0.5, -0.5, -0.5, -0.5}
	boxHi := [4]float32{0.5, 0.5, 0.5, 0.5}

	tree := bvh.Tree{MaxDepth: pathologicalChainDepth}
	child := bvh.LeafRef(0, 1)
	for i := 0; i < pathologicalChainDepth; i++ {
		node := bvh.Node{
			LowerX: box, UpperX: boxHi,
			LowerY: box, UpperY: boxHi,
			LowerZ: box, UpperZ: boxHi,
			Children: [4]bvh.Ref{child, bvh.EmptyRef, bvh.EmptyRef, bvh.EmptyRef},
		}
		tree.Nodes = append(tree.Nodes, node)
		child = bvh.Ref{Kind: bvh.Internal, Index: uint32(len(tree.Nodes) - 1)}
	}
	tree.Root = child

	tri := bvh.Triangle{
		V0:     types.Vec3{-1, -1, 5},
		V1:     types.Vec3{1, -1, 5},
		V2:     types.Vec3{0, 1, 5},
		PrimID: 0,
		GeomID: 0,
	}
	return scene{tree: tree, intersector: &primitive.TriangleIntersector{Triangles: []bvh.Triangle{tri}}}
}
