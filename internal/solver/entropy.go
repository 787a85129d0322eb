package solver

import "math"

// Answers lists every feedback a probe can receive against a Len-symbol
// number with distinct symbols. (3,1) cannot happen: three bulls leave one
// position, and its symbol can only be a bull or absent.
//
// The order puts the answers that usually cover most of the pool first, so
// ranking passes exceed the running minimum early.
var Answers = [...]Feedback{
	{0, 1}, {0, 2}, {1, 1}, {1, 0}, {0, 0}, {0, 3}, {1, 2},
	{2, 0}, {2, 1}, {3, 0}, {0, 4}, {1, 3}, {2, 2}, {4, 0},
}

// rankingPass scores probes against one pool. best is the smallest complete
// score seen so far in the pass; it only decreases.
type rankingPass struct {
	pool []Number
	best float64
}

func newRankingPass(pool []Number) *rankingPass {
	return &rankingPass{pool: pool, best: math.Inf(1)}
}

// score estimates the ambiguity probe leaves behind: for every answer class
// of size c it adds c·ln(c). Lower is better.
//
// Once the partial sum exceeds best the probe cannot win, and the partial
// sum is returned as is.
func (p *rankingPass) score(probe Number) float64 {
	var result float64
	for _, answer := range Answers {
		count := countAnswer(probe, answer, p.pool)
		if count == 0 {
			continue
		}
		c := float64(count)
		result += -math.Log(1/c) * c
		if result > p.best {
			return result
		}
	}
	p.best = result
	return result
}

func countAnswer(probe Number, answer Feedback, pool []Number) int {
	count := 0
	for _, n := range pool {
		if IsConsistent(n, probe, answer) {
			count++
		}
	}
	return count
}
