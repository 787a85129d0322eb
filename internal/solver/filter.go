package solver

// Turn is one question/answer exchange.
type Turn struct {
	Probe    Number   `json:"probe"`
	Feedback Feedback `json:"feedback"`
}

// History is the chronological log of turns. It only ever grows.
type History []Turn

func IsConsistent(candidate, probe Number, fb Feedback) bool {
	return Score(candidate, probe) == fb
}

// Admits reports whether candidate agrees with every turn of h.
func (h History) Admits(candidate Number) bool {
	for _, t := range h {
		if !IsConsistent(candidate, t.Probe, t.Feedback) {
			return false
		}
	}
	return true
}

// CountPossible returns how many entries of pool agree with all of h.
func CountPossible(h History, pool []Number) int {
	count := 0
	for _, n := range pool {
		if h.Admits(n) {
			count++
		}
	}
	return count
}

// FindUniquePossible returns the first number of u that agrees with h.
// ok is false when h is contradictory.
func FindUniquePossible(h History, u *Universe) (n Number, ok bool) {
	for _, n := range u.numbers {
		if h.Admits(n) {
			return n, true
		}
	}
	return Number{}, false
}

// filterPool drops, in place and keeping order, every entry of pool that
// disagrees with t.
func filterPool(pool []Number, t Turn) []Number {
	kept := pool[:0]
	for _, n := range pool {
		if IsConsistent(n, t.Probe, t.Feedback) {
			kept = append(kept, n)
		}
	}
	return kept
}
