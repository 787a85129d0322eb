package solver

import "math/rand/v2"

// sampleSize is min(poolSize, 10^(round-1)), computed without overflow.
func sampleSize(round, poolSize int) int {
	size := 1
	for i := 1; i < round && size < poolSize; i++ {
		size *= 10
	}
	if size > poolSize {
		return poolSize
	}
	return size
}

// selectProbe picks the next question.
//
// pool already agrees with every turn but the newest one, so from the second
// round on only history's last turn is applied to it. Then a random sample
// of the pool is ranked and the first lowest-scoring entry wins.
func selectProbe(rng *rand.Rand, round int, h History, pool *[]Number) Number {
	if round > 1 && len(h) > 0 {
		*pool = filterPool(*pool, h[len(h)-1])
	}
	if len(*pool) == 0 {
		panic("solver: probe requested for an empty pool")
	}

	sample := append([]Number(nil), *pool...)
	rng.Shuffle(len(sample), func(i, j int) {
		sample[i], sample[j] = sample[j], sample[i]
	})
	sample = sample[:sampleSize(round, len(sample))]

	pass := newRankingPass(*pool)
	best, bestScore := sample[0], pass.score(sample[0])
	for _, n := range sample[1:] {
		if s := pass.score(n); s < bestScore {
			best, bestScore = n, s
		}
	}
	return best
}
