package forecast

import (
	"math"
	"sort"
)

// treeParams bound the growth of a single regression tree.
type treeParams struct {
	maxDepth        int
	minSamplesSplit int
	minSamplesLeaf  int
}

// treeNode is either an internal split or a leaf carrying the mean target of
// the training samples that reached it.
type treeNode struct {
	feature   int
	threshold float64
	left      *treeNode
	right     *treeNode
	value     float64
	leaf      bool
}

// growTree builds a CART regression tree on the samples referenced by idx,
// choosing at every node the split with the best variance reduction.
func growTree(samples []sample, idx []int, depth int, p treeParams) *treeNode {
	if len(idx) < p.minSamplesSplit || depth >= p.maxDepth {
		return &treeNode{leaf: true, value: meanTarget(samples, idx)}
	}
	feat, thr, ok := bestSplit(samples, idx, p.minSamplesLeaf)
	if !ok {
		return &treeNode{leaf: true, value: meanTarget(samples, idx)}
	}
	var left, right []int
	for _, i := range idx {
		if samples[i].x[feat] <= thr {
			left = append(left, i)
		} else {
			right = append(right, i)
		}
	}
	return &treeNode{
		feature:   feat,
		threshold: thr,
		left:      growTree(samples, left, depth+1, p),
		right:     growTree(samples, right, depth+1, p),
	}
}

// predict walks the tree to a leaf.
func (n *treeNode) predict(x [numFeatures]float64) float64 {
	for !n.leaf {
		if x[n.feature] <= n.threshold {
			n = n.left
		} else {
			n = n.right
		}
	}
	return n.value
}

// bestSplit scans every feature for the threshold minimising the summed
// child sum-of-squares, using prefix sums over the samples sorted by feature
// value. Returns ok=false when no split satisfies the leaf minimum.
func bestSplit(samples []sample, idx []int, minLeaf int) (int, float64, bool) {
	bestScore := math.Inf(1)
	bestFeat, bestThr := -1, 0.0
	order := make([]int, len(idx))
	for f := 0; f < numFeatures; f++ {
		copy(order, idx)
		sort.Slice(order, func(a, b int) bool {
			return samples[order[a]].x[f] < samples[order[b]].x[f]
		})
		var sumL, sqL, sumR, sqR float64
		for _, i := range order {
			sumR += samples[i].y
			sqR += samples[i].y * samples[i].y
		}
		n := len(order)
		for k := 0; k < n-1; k++ {
			y := samples[order[k]].y
			sumL += y
			sqL += y * y
			sumR -= y
			sqR -= y * y
			if samples[order[k]].x[f] == samples[order[k+1]].x[f] {
				continue
			}
			nl, nr := k+1, n-k-1
			if nl < minLeaf || nr < minLeaf {
				continue
			}
			score := (sqL - sumL*sumL/float64(nl)) + (sqR - sumR*sumR/float64(nr))
			if score < bestScore {
				bestScore = score
				bestFeat = f
				bestThr = (samples[order[k]].x[f] + samples[order[k+1]].x[f]) / 2
			}
		}
	}
	return bestFeat, bestThr, bestFeat >= 0
}

func meanTarget(samples []sample, idx []int) float64 {
	if len(idx) == 0 {
		return 0
	}
	sum := 0.0
	for _, i := range idx {
		sum += samples[i].y
	}
	return sum / float64(len(idx))
}
