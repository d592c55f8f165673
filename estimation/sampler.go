package estimation

import (
	"math"
	"math/rand"
	"sort"

	"go.viam.com/geofit/utils"
)

// prosacTotalIterations is T_N of the reference PROSAC formulation, the
// number of iterations after which PROSAC degenerates to uniform RANSAC
// sampling.
const prosacTotalIterations = 200000

type sampler interface {
	// next returns the data indices of the subset drawn for one iteration.
	next() []int
}

type uniformSampler struct {
	n, m   int
	random *rand.Rand
}

func (s *uniformSampler) next() []int {
	return utils.SampleIndices(s.n, s.m, s.random)
}

// prosacSampler draws subsets from a growing prefix window of the data
// ordered by descending quality score. Early iterations use only the most
// reliable data; the window grows by one element on the schedule derived
// from the T_n growth function, and each newly admitted element is forced
// into the subset until its subwindow has been explored.
type prosacSampler struct {
	m      int
	n      int
	order  []int
	window int
	t      int
	tN     float64
	tPrime float64
	random *rand.Rand
}

func newProsacSampler(scores []float64, m int, random *rand.Rand) *prosacSampler {
	n := len(scores)
	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(i, j int) bool {
		return scores[order[i]] > scores[order[j]]
	})

	// T_m = T_N * prod_{i=0..m-1} (m-i)/(n-i)
	tN := float64(prosacTotalIterations)
	for i := 0; i < m; i++ {
		tN *= float64(m-i) / float64(n-i)
	}
	return &prosacSampler{
		m:      m,
		n:      n,
		order:  order,
		window: m,
		tN:     tN,
		tPrime: 1,
		random: random,
	}
}

func (s *prosacSampler) next() []int {
	s.t++
	if float64(s.t) > s.tPrime && s.window < s.n {
		tNext := s.tN * float64(s.window+1) / float64(s.window+1-s.m)
		s.tPrime += math.Ceil(tNext - s.tN)
		s.tN = tNext
		s.window++
	}

	var subset []int
	if float64(s.t) > s.tPrime {
		// The current window has been fully explored; draw uniformly from it.
		subset = utils.SampleIndices(s.window, s.m, s.random)
	} else {
		// Force the newest window element into the subset.
		subset = utils.SampleIndices(s.window-1, s.m-1, s.random)
		subset = append(subset, s.window-1)
	}
	indices := make([]int, len(subset))
	for i, idx := range subset {
		indices[i] = s.order[idx]
	}
	return indices
}

// prosacMinInliers is the non-randomness bound I_min(n): the smallest inlier
// count within a window of size n that is statistically implausible for a
// random degenerate configuration. beta is the probability of an incidental
// inlier; 2.706 is the 0.95 quantile of a chi-square with one degree of
// freedom, carried from the reference formulation.
func prosacMinInliers(m, n int, beta float64) int {
	mu := float64(n) * beta
	sigma := math.Sqrt(float64(n) * beta * (1 - beta))
	bound := m + int(math.Ceil(mu+sigma*math.Sqrt(2.706)))
	if bound > n {
		bound = n
	}
	return bound
}
