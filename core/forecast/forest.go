package forecast

import (
	"context"
	"math/rand"

	"gonum.org/v1/gonum/stat"
)

// forestParams configure the bagged ensemble.
type forestParams struct {
	trees int
	tree  treeParams
	seed  int64
}

// forest is a bagged ensemble of regression trees. The spread of the
// individual tree predictions feeds the confidence band of each forecast
// point.
type forest struct {
	trees []*treeNode
}

// trainForest fits the ensemble on bootstrap resamples. The context is
// checked between trees so a long run can be abandoned without touching the
// currently served model.
func trainForest(ctx context.Context, samples []sample, p forestParams) (*forest, error) {
	rng := rand.New(rand.NewSource(p.seed))
	f := &forest{trees: make([]*treeNode, 0, p.trees)}
	for t := 0; t < p.trees; t++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		idx := make([]int, len(samples))
		for i := range idx {
			idx[i] = rng.Intn(len(samples))
		}
		f.trees = append(f.trees, growTree(samples, idx, 0, p.tree))
	}
	return f, nil
}

// newPerm returns a deterministic permutation of [0,n) derived from the
// training seed, kept separate from the bootstrap stream.
func newPerm(n int, seed int64) []int {
	return rand.New(rand.NewSource(seed ^ 0x9e3779b9)).Perm(n)
}

// predict returns the ensemble mean and the dispersion across trees.
func (f *forest) predict(x [numFeatures]float64) (mean, std float64) {
	preds := make([]float64, len(f.trees))
	for i, t := range f.trees {
		preds[i] = t.predict(x)
	}
	if len(preds) == 1 {
		return preds[0], 0
	}
	return stat.MeanStdDev(preds, nil)
}
