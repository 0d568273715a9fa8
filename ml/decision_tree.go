package ml

import (
	"errors"
	"sort"
)

const defaultTreeDepth = 3

// RegressionTree is a CART tree fitted on squared error. Nodes are stored
// flattened; child fields hold absolute indices into nodes.
type RegressionTree struct {
	MaxDepth        int
	MinSamplesSplit int
	MinSamplesLeaf  int

	nodes []TreeNode
}

// TreeNode is a split or, when IsLeaf, a leaf predicting Value.
type TreeNode struct {
	FeatureIdx int     `json:"feature_idx"`
	Threshold  float64 `json:"threshold"`
	LeftChild  int     `json:"left_child"`
	RightChild int     `json:"right_child"`
	Value      float64 `json:"value"`
	Samples    int     `json:"samples"`
	IsLeaf     bool    `json:"is_leaf"`
}

// NewRegressionTree returns a tree limited to maxDepth, or 3 when maxDepth <= 0.
func NewRegressionTree(maxDepth int) *RegressionTree {
	if maxDepth <= 0 {
		maxDepth = defaultTreeDepth
	}
	return &RegressionTree{
		MaxDepth:        maxDepth,
		MinSamplesSplit: 2,
		MinSamplesLeaf:  1,
	}
}

func (dt *RegressionTree) Fit(features [][]float64, targets []float64) error {
	if _, err := validateTrainingSet(features, targets); err != nil {
		return err
	}
	dt.fitSorted(features, targets, presort(features))
	return nil
}

// fitSorted grows the tree from per-feature orders computed by presort, so
// callers fitting many trees on the same rows sort only once.
func (dt *RegressionTree) fitSorted(features [][]float64, targets []float64, sorted [][]int) {
	if dt.MaxDepth <= 0 {
		dt.MaxDepth = defaultTreeDepth
	}
	if dt.MinSamplesSplit < 2 {
		dt.MinSamplesSplit = 2
	}
	if dt.MinSamplesLeaf < 1 {
		dt.MinSamplesLeaf = 1
	}

	members := make([]int, len(features))
	for i := range members {
		members[i] = i
	}
	dt.nodes = dt.nodes[:0]
	b := &treeBuilder{
		tree:     dt,
		features: features,
		targets:  targets,
		goesLeft: make([]bool, len(features)),
	}
	b.build(members, sorted, 0)
}

// Predict walks left when the feature is <= the threshold.
func (dt *RegressionTree) Predict(features []float64) (float64, error) {
	if len(dt.nodes) == 0 {
		return 0, ErrNotTrained
	}
	idx := 0
	for {
		node := dt.nodes[idx]
		if node.IsLeaf {
			return node.Value, nil
		}
		if node.FeatureIdx < 0 || node.FeatureIdx >= len(features) {
			return 0, errors.New("feature index out of range")
		}
		if features[node.FeatureIdx] <= node.Threshold {
			idx = node.LeftChild
		} else {
			idx = node.RightChild
		}
		if idx <= 0 || idx >= len(dt.nodes) {
			return 0, errors.New("invalid tree state")
		}
	}
}

// Nodes returns a copy of the fitted nodes, root first.
func (dt *RegressionTree) Nodes() []TreeNode {
	return append([]TreeNode(nil), dt.nodes...)
}

// presort orders the row indices by each feature. Ties keep row order.
func presort(features [][]float64) [][]int {
	width := len(features[0])
	sorted := make([][]int, width)
	for f := range sorted {
		order := make([]int, len(features))
		for i := range order {
			order[i] = i
		}
		sort.SliceStable(order, func(a, b int) bool {
			return features[order[a]][f] < features[order[b]][f]
		})
		sorted[f] = order
	}
	return sorted
}

type treeBuilder struct {
	tree     *RegressionTree
	features [][]float64
	targets  []float64

	// scratch row mask shared by every split
	goesLeft []bool
}

// build appends the subtree for members and returns the index of its root.
// members is in row order; sorted[f] holds the same rows ordered by feature f.
func (b *treeBuilder) build(members []int, sorted [][]int, depth int) int {
	dt := b.tree
	self := len(dt.nodes)
	dt.nodes = append(dt.nodes, TreeNode{
		FeatureIdx: -1,
		LeftChild:  -1,
		RightChild: -1,
		Value:      subsetMean(b.targets, members),
		Samples:    len(members),
		IsLeaf:     true,
	})

	if depth >= dt.MaxDepth || len(members) < dt.MinSamplesSplit || isConstant(b.targets, members) {
		return self
	}

	feature, threshold, ok := b.findBestSplit(members, sorted)
	if !ok {
		return self
	}

	left, right := partition(b.features, members, feature, threshold)
	if len(left) == 0 || len(right) == 0 {
		return self
	}
	for _, i := range members {
		b.goesLeft[i] = b.features[i][feature] <= threshold
	}
	leftSorted, rightSorted := b.splitSorted(sorted, len(left), len(right))

	leftIdx := b.build(left, leftSorted, depth+1)
	rightIdx := b.build(right, rightSorted, depth+1)

	node := &dt.nodes[self]
	node.FeatureIdx = feature
	node.Threshold = threshold
	node.LeftChild = leftIdx
	node.RightChild = rightIdx
	node.IsLeaf = false
	return self
}

// findBestSplit maximises sumL²/nL + sumR²/nR, which is equivalent to
// minimising the children's summed squared error.
func (b *treeBuilder) findBestSplit(members []int, sorted [][]int) (int, float64, bool) {
	n := len(members)
	minLeaf := b.tree.MinSamplesLeaf
	targets := b.targets

	total := 0.0
	for _, i := range members {
		total += targets[i]
	}
	baseline := total * total / float64(n)

	bestFeature := -1
	bestThreshold := 0.0
	bestScore := baseline

	for featureIdx, order := range sorted {
		leftSum := 0.0
		for k := 1; k < n; k++ {
			leftSum += targets[order[k-1]]
			if k < minLeaf || n-k < minLeaf {
				continue
			}
			prev := b.features[order[k-1]][featureIdx]
			next := b.features[order[k]][featureIdx]
			if prev == next {
				continue
			}
			rightSum := total - leftSum
			score := leftSum*leftSum/float64(k) + rightSum*rightSum/float64(n-k)
			if score > bestScore {
				bestScore = score
				bestFeature = featureIdx
				bestThreshold = prev + (next-prev)/2
				if bestThreshold == next {
					bestThreshold = prev
				}
			}
		}
	}
	if bestFeature == -1 {
		return -1, 0, false
	}
	return bestFeature, bestThreshold, true
}

// splitSorted divides every feature order by goesLeft, keeping each side in
// feature order.
func (b *treeBuilder) splitSorted(sorted [][]int, nLeft, nRight int) ([][]int, [][]int) {
	left := make([][]int, len(sorted))
	right := make([][]int, len(sorted))
	for f, order := range sorted {
		l := make([]int, 0, nLeft)
		r := make([]int, 0, nRight)
		for _, i := range order {
			if b.goesLeft[i] {
				l = append(l, i)
			} else {
				r = append(r, i)
			}
		}
		left[f] = l
		right[f] = r
	}
	return left, right
}

func partition(features [][]float64, indices []int, featureIdx int, threshold float64) ([]int, []int) {
	left := make([]int, 0, len(indices))
	right := make([]int, 0, len(indices))
	for _, i := range indices {
		if features[i][featureIdx] <= threshold {
			left = append(left, i)
		} else {
			right = append(right, i)
		}
	}
	return left, right
}

func subsetMean(targets []float64, indices []int) float64 {
	if len(indices) == 0 {
		return 0
	}
	sum := 0.0
	for _, i := range indices {
		sum += targets[i]
	}
	return sum / float64(len(indices))
}

func isConstant(targets []float64, indices []int) bool {
	if len(indices) == 0 {
		return true
	}
	first := targets[indices[0]]
	for _, i := range indices[1:] {
		if targets[i] != first {
			return false
		}
	}
	return true
}
