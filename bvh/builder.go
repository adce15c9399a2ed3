package bvh

import (
	"math"
	"time"

	"github.com/go-bvhtrace/bvhtrace/log"
	"github.com/go-bvhtrace/bvhtrace/types"
)

type Axis uint8

const (
	XAxis Axis = iota
	YAxis
	ZAxis

	// The builder will not attempt to calculate split candidates if the
	// node bbox along an axis is less than this threshold.
	minSideLength float32 = 1e-3

	// If the split step (calculated as side length / (1024 / (depth+1))) is
	// less than this threshold the builder will not evaluate split
	// candidates.
	minSplitStep float32 = 1e-5
)

// SurfaceAreaHeuristic scores splits using the SAH formula (lower is better):
// leftCount * leftBBoxArea + rightCount * rightBBoxArea.
var SurfaceAreaHeuristic = surfaceAreaHeuristic{}

// BoundedVolume is implemented by anything the builder can partition into a
// BVH leaf: triangles, mesh instances, or any other bounded primitive.
type BoundedVolume interface {
	BBox() [2]types.Vec3
	Center() types.Vec3
}

// LeafCallback is invoked whenever the builder creates a new leaf, so the
// caller can lay out the leaf's primitives in whatever backing array the
// primitive intersector expects.
type LeafCallback func(firstPrimIndex, count uint32, itemList []BoundedVolume)

// ScoreStrategy scores candidate splits.
type ScoreStrategy interface {
	ScoreSplit(workList []BoundedVolume, axis Axis, splitPoint float32) (leftCount, rightCount int, score float32)
	ScorePartition(workList []BoundedVolume) (score float32)
}

type splitScore struct {
	axis       Axis
	splitPoint float32

	leftCount, rightCount int
	score                 float32
}

type stats struct {
	partitionedItems int
	totalItems       int
	nodes            int
	leafs            int
	maxDepth         int
}

type builder struct {
	logger log.Logger

	tree Tree

	leafCb        LeafCallback
	minLeafItems  int
	nextPrimIndex uint32

	scoreChan     chan splitScore
	scoreStrategy ScoreStrategy

	stats stats
}

// Build4 constructs a 4-ary BVH from workList using the surface-area
// heuristic (or any other ScoreStrategy). It runs the same binary SAH split
// the original binary builder uses, applied twice per node (once on the
// whole work list, once independently on each half) so that each internal
// node ends up with up to four children instead of two.
//
// leafCb is invoked once per leaf with the leaf's assigned primitive range;
// callers use it to lay out itemList in whatever contiguous array their
// primitive intersector expects, in the same order Build4 assigns indices.
func Build4(workList []BoundedVolume, minLeafItems int, leafCb LeafCallback, scoreStrategy ScoreStrategy) Tree {
	b := &builder{
		logger:        log.New("bvh"),
		leafCb:        leafCb,
		minLeafItems:  minLeafItems,
		scoreChan:     make(chan splitScore, 0),
		scoreStrategy: scoreStrategy,
		stats: stats{
			totalItems: len(workList),
		},
	}

	start := time.Now()
	b.tree.Root = b.partition(workList, 0)
	b.tree.MaxDepth = b.stats.maxDepth
	b.logger.Debugf(
		"bvh build time: %d ms, maxDepth: %d, nodes: %d, leafs: %d\n",
		time.Since(start).Nanoseconds()/1e6,
		b.stats.maxDepth, b.stats.nodes, b.stats.leafs,
	)
	return b.tree
}

// partition assigns workList to a Ref: a leaf if workList is small enough or
// no split improves the node's score, otherwise an internal node with up to
// four children.
func (b *builder) partition(workList []BoundedVolume, depth int) Ref {
	if depth > b.stats.maxDepth {
		b.stats.maxDepth = depth
	}

	if len(workList) == 0 {
		return EmptyRef
	}

	if len(workList) <= b.minLeafItems {
		return b.createLeaf(workList)
	}

	left, right, ok := b.trySplit(workList, depth)
	if !ok {
		return b.createLeaf(workList)
	}

	quadrants := make([][]BoundedVolume, 0, 4)
	for _, half := range [][]BoundedVolume{left, right} {
		if len(half) <= b.minLeafItems {
			quadrants = append(quadrants, half)
			continue
		}
		l2, r2, ok2 := b.trySplit(half, depth)
		if !ok2 {
			quadrants = append(quadrants, half)
			continue
		}
		quadrants = append(quadrants, l2, r2)
	}

	node := Node{}
	for i := range node.Children {
		node.Children[i] = EmptyRef
	}

	for i, q := range quadrants {
		bbox := boundsOf(q)
		node.LowerX[i], node.LowerY[i], node.LowerZ[i] = bbox[0][0], bbox[0][1], bbox[0][2]
		node.UpperX[i], node.UpperY[i], node.UpperZ[i] = bbox[1][0], bbox[1][1], bbox[1][2]
		node.Children[i] = b.partition(q, depth+1)
	}

	nodeIndex := len(b.tree.Nodes)
	b.tree.Nodes = append(b.tree.Nodes, node)
	b.stats.nodes++

	return Ref{Kind: Internal, Index: uint32(nodeIndex)}
}

// trySplit runs the SAH binary split used by the original builder: try every
// axis/step candidate in parallel, keep the best-scoring one, and report
// whether it improves on leaving workList unsplit.
func (b *builder) trySplit(workList []BoundedVolume, depth int) (left, right []BoundedVolume, ok bool) {
	bbox := boundsOf(workList)

	bestScore := b.scoreStrategy.ScorePartition(workList)
	var bestSplit *splitScore

	pendingScores := 0
	side := bbox[1].Sub(bbox[0])
	for axis := XAxis; axis <= ZAxis; axis++ {
		if side[axis] < minSideLength {
			continue
		}

		splitStep := side[axis] / (1024.0 / float32(depth+1))
		if splitStep < minSplitStep {
			continue
		}

		for splitPoint := bbox[0][axis]; splitPoint < bbox[1][axis]; splitPoint += splitStep {
			pendingScores++
			go func(axis Axis, splitPoint float32) {
				lCount, rCount, score := b.scoreStrategy.ScoreSplit(workList, axis, splitPoint)
				b.scoreChan <- splitScore{
					axis:       axis,
					splitPoint: splitPoint,
					leftCount:  lCount,
					rightCount: rCount,
					score:      score,
				}
			}(axis, splitPoint)
		}
	}

	for ; pendingScores > 0; pendingScores-- {
		candidate := <-b.scoreChan
		if candidate.score < bestScore {
			bestScoreCopy := candidate
			bestScore = candidate.score
			bestSplit = &bestScoreCopy
		}
	}

	if bestSplit == nil {
		return nil, nil, false
	}

	left = make([]BoundedVolume, 0, bestSplit.leftCount)
	right = make([]BoundedVolume, 0, bestSplit.rightCount)
	for _, item := range workList {
		if item.Center()[bestSplit.axis] < bestSplit.splitPoint {
			left = append(left, item)
		} else {
			right = append(right, item)
		}
	}

	return left, right, true
}

// createLeaf assigns workList a contiguous primitive range and invokes the
// leaf callback so the caller can lay those primitives out accordingly.
func (b *builder) createLeaf(workList []BoundedVolume) Ref {
	firstIndex := b.nextPrimIndex
	count := uint32(len(workList))
	b.nextPrimIndex += count

	b.leafCb(firstIndex, count, workList)

	b.stats.leafs++
	b.stats.partitionedItems += len(workList)

	return LeafRef(firstIndex, count)
}

func boundsOf(workList []BoundedVolume) [2]types.Vec3 {
	min := types.Vec3{math.MaxFloat32, math.MaxFloat32, math.MaxFloat32}
	max := types.Vec3{-math.MaxFloat32, -math.MaxFloat32, -math.MaxFloat32}
	for _, item := range workList {
		bbox := item.BBox()
		min = types.MinVec3(min, bbox[0])
		max = types.MaxVec3(max, bbox[1])
	}
	return [2]types.Vec3{min, max}
}

// surfaceAreaHeuristic scores a split using:
//
//	left count * left bbox area + right count * right bbox area
//
// It assigns the worst possible score (MaxFloat32) to splits that would
// leave one side empty.
type surfaceAreaHeuristic struct{}

func (h surfaceAreaHeuristic) ScoreSplit(workList []BoundedVolume, axis Axis, splitPoint float32) (leftCount, rightCount int, score float32) {
	lmin := types.Vec3{math.MaxFloat32, math.MaxFloat32, math.MaxFloat32}
	rmin := types.Vec3{math.MaxFloat32, math.MaxFloat32, math.MaxFloat32}
	lmax := types.Vec3{-math.MaxFloat32, -math.MaxFloat32, -math.MaxFloat32}
	rmax := types.Vec3{-math.MaxFloat32, -math.MaxFloat32, -math.MaxFloat32}

	for _, item := range workList {
		center := item.Center()
		bbox := item.BBox()
		if center[axis] < splitPoint {
			leftCount++
			lmin = types.MinVec3(lmin, bbox[0])
			lmax = types.MaxVec3(lmax, bbox[1])
		} else {
			rightCount++
			rmin = types.MinVec3(rmin, bbox[0])
			rmax = types.MaxVec3(rmax, bbox[1])
		}
	}

	if leftCount == 0 || rightCount == 0 {
		return leftCount, rightCount, math.MaxFloat32
	}

	lside := lmax.Sub(lmin)
	rside := rmax.Sub(rmin)
	score = (float32(leftCount) * (lside[0]*lside[1] + lside[1]*lside[2] + lside[0]*lside[2])) +
		(float32(rightCount) * (rside[0]*rside[1] + rside[1]*rside[2] + rside[0]*rside[2]))

	return leftCount, rightCount, score
}

func (h surfaceAreaHeuristic) ScorePartition(workList []BoundedVolume) (score float32) {
	if len(workList) == 0 {
		return math.MaxFloat32
	}

	bbox := boundsOf(workList)
	side := bbox[1].Sub(bbox[0])
	return float32(len(workList)) * (side[0]*side[1] + side[1]*side[2] + side[0]*side[2])
}
