package model

import (
	"fmt"
	"math/rand"
	"sort"

	"github.com/ademuri/spotify-insights/internal/config"
)

// Node is one split or leaf of a regression tree. Leaves have Left == -1.
type Node struct {
	Feature   int     `json:"feature"`
	Threshold float64 `json:"threshold"`
	Left      int     `json:"left"`
	Right     int     `json:"right"`
	Value     float64 `json:"value"`

	grad float64
	hess float64
}

type Tree struct {
	Nodes []Node `json:"nodes"`
}

func (t *Tree) predict(x []float64) float64 {
	i := 0
	for t.Nodes[i].Left >= 0 {
		n := &t.Nodes[i]
		if x[n.Feature] < n.Threshold {
			i = n.Left
		} else {
			i = n.Right
		}
	}
	return t.Nodes[i].Value
}

func (t *Tree) validate(numFeatures int) error {
	if len(t.Nodes) == 0 {
		return fmt.Errorf("empty tree")
	}
	for i, n := range t.Nodes {
		if n.Left < 0 {
			continue
		}
		if n.Feature < 0 || n.Feature >= numFeatures {
			return fmt.Errorf("node %d: feature %d out of range", i, n.Feature)
		}
		// Children always come after their parent, which rules out cycles.
		if n.Left <= i || n.Right <= i || n.Left >= len(t.Nodes) || n.Right >= len(t.Nodes) {
			return fmt.Errorf("node %d: bad child index", i)
		}
	}
	return nil
}

type split struct {
	gain      float64
	feature   int
	threshold float64
}

// grower builds trees over a fixed, presorted training matrix.
type grower struct {
	x      [][]float64
	order  [][]int
	params config.TrainParams
	rng    *rand.Rand
}

func newGrower(x [][]float64, params config.TrainParams) *grower {
	d := len(x[0])
	order := make([][]int, d)
	for f := 0; f < d; f++ {
		idx := make([]int, len(x))
		for i := range idx {
			idx[i] = i
		}
		sort.SliceStable(idx, func(a, b int) bool { return x[idx[a]][f] < x[idx[b]][f] })
		order[f] = idx
	}
	return &grower{
		x:      x,
		order:  order,
		params: params,
		rng:    rand.New(rand.NewSource(params.Seed)),
	}
}

func (g *grower) score(grad, hess float64) float64 {
	return grad * grad / (hess + g.params.Lambda)
}

func (g *grower) sampleColumns() []int {
	d := len(g.order)
	k := int(g.params.ColSample * float64(d))
	if k < 1 {
		k = 1
	}
	if k > d {
		k = d
	}
	cols := g.rng.Perm(d)[:k]
	sort.Ints(cols)
	return cols
}

// grow fits one tree to the gradients level by level. The hessian of squared
// error is 1 for every row.
func (g *grower) grow(grad []float64) Tree {
	n := len(g.x)
	pos := make([]int, n)
	root := Node{Left: -1, Right: -1}
	for i := range pos {
		if g.params.Subsample < 1 && g.rng.Float64() >= g.params.Subsample {
			pos[i] = -1
			continue
		}
		root.grad += grad[i]
		root.hess++
	}
	cols := g.sampleColumns()

	nodes := []Node{root}
	level := []int{0}
	for depth := 0; depth < g.params.MaxDepth && len(level) > 0; depth++ {
		best := g.findSplits(nodes, level, cols, pos, grad)

		var next []int
		splitAt := make(map[int]bool)
		for _, id := range level {
			s, ok := best[id]
			if !ok || s.gain <= 0 {
				continue
			}
			left := len(nodes)
			nodes = append(nodes, Node{Left: -1, Right: -1}, Node{Left: -1, Right: -1})
			nodes[id].Feature = s.feature
			nodes[id].Threshold = s.threshold
			nodes[id].Left = left
			nodes[id].Right = left + 1
			splitAt[id] = true
			next = append(next, left, left+1)
		}
		for i, id := range pos {
			if id < 0 || !splitAt[id] {
				continue
			}
			parent := &nodes[id]
			child := parent.Right
			if g.x[i][parent.Feature] < parent.Threshold {
				child = parent.Left
			}
			pos[i] = child
			nodes[child].grad += grad[i]
			nodes[child].hess++
		}
		level = next
	}

	for i := range nodes {
		if nodes[i].Left < 0 {
			w := -nodes[i].grad / (nodes[i].hess + g.params.Lambda)
			nodes[i].Value = w * g.params.LearningRate
		}
	}
	return Tree{Nodes: nodes}
}

// findSplits runs the exact greedy search for every node of a level at once:
// one pass per column over the presorted rows.
func (g *grower) findSplits(nodes []Node, level, cols, pos []int, grad []float64) map[int]split {
	active := make(map[int]bool, len(level))
	for _, id := range level {
		if nodes[id].hess >= 2*g.params.MinChildWeight {
			active[id] = true
		}
	}

	best := make(map[int]split)
	sumG := make([]float64, len(nodes))
	sumH := make([]float64, len(nodes))
	last := make([]float64, len(nodes))
	seen := make([]bool, len(nodes))

	for _, f := range cols {
		for id := range active {
			sumG[id], sumH[id], seen[id] = 0, 0, false
		}
		for _, i := range g.order[f] {
			id := pos[i]
			if id < 0 || !active[id] {
				continue
			}
			v := g.x[i][f]
			if seen[id] && v > last[id] {
				n := &nodes[id]
				hl, hr := sumH[id], n.hess-sumH[id]
				if hl >= g.params.MinChildWeight && hr >= g.params.MinChildWeight {
					gl := sumG[id]
					gain := g.score(gl, hl) + g.score(n.grad-gl, hr) - g.score(n.grad, n.hess)
					if cur, ok := best[id]; !ok || gain > cur.gain {
						thr := (last[id] + v) / 2
						if thr <= last[id] {
							thr = v
						}
						best[id] = split{gain: gain, feature: f, threshold: thr}
					}
				}
			}
			sumG[id] += grad[i]
			sumH[id]++
			last[id] = v
			seen[id] = true
		}
	}
	return best
}
