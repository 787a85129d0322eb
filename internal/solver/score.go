package solver

import "fmt"

// Feedback is the answer to a probe.
type Feedback struct {
	Bulls int `json:"bulls"`
	Cows  int `json:"cows"`
}

// Score compares a and b position by position. Symbols need not be distinct,
// a symbol repeated in both numbers is counted once per matching pair.
// Score(a, b) == Score(b, a).
func Score(a, b Number) Feedback {
	var f Feedback
	for i := 0; i < Len; i++ {
		for j := 0; j < Len; j++ {
			if a[i] != b[j] {
				continue
			}
			if i == j {
				f.Bulls++
			} else {
				f.Cows++
			}
		}
	}
	return f
}

// Valid reports whether f could be an answer at all: non-negative counts
// summing to at most Len.
func (f Feedback) Valid() bool {
	return f.Bulls >= 0 && f.Cows >= 0 && f.Bulls+f.Cows <= Len
}

func (f Feedback) Solved() bool { return f.Bulls == Len }

func (f Feedback) String() string {
	return fmt.Sprintf("%dB%dC", f.Bulls, f.Cows)
}
