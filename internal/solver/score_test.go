package solver

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func num(t *testing.T, s string) Number {
	t.Helper()
	n, err := ParseNumber(s)
	require.NoError(t, err)
	return n
}

func TestScore_Cases(t *testing.T) {
	cases := []struct {
		secret, probe string
		want          Feedback
	}{
		{"1234", "1453", Feedback{1, 2}},
		{"1234", "1234", Feedback{4, 0}},
		{"1234", "4321", Feedback{0, 4}},
		{"1234", "5678", Feedback{0, 0}},
		{"0123", "0132", Feedback{2, 2}},
		{"0123", "0125", Feedback{3, 0}},
		{"9876", "6789", Feedback{0, 4}},
	}
	for _, tc := range cases {
		got := Score(num(t, tc.secret), num(t, tc.probe))
		assert.Equal(t, tc.want, got, "Score(%s, %s)", tc.secret, tc.probe)
	}
}

func TestScore_RepeatedSymbolsCountEveryPair(t *testing.T) {
	// every equal pair counts, repeats are not collapsed
	a := Number{'0', '0', '1', '1'}
	b := Number{'0', '1', '0', '1'}
	assert.Equal(t, Feedback{Bulls: 2, Cows: 6}, Score(a, b))

	c := Number{'1', '1', '2', '2'}
	d := Number{'2', '2', '1', '1'}
	assert.Equal(t, Feedback{Bulls: 0, Cows: 8}, Score(c, d))
}

func TestScore_SelfIsSolved(t *testing.T) {
	u := MustUniverse()
	for _, n := range u.Numbers() {
		if got := Score(n, n); got != (Feedback{Len, 0}) {
			t.Fatalf("Score(%s, %s)=%v want 4B0C", n, n, got)
		}
	}
}

func TestScore_Symmetric(t *testing.T) {
	nums := MustUniverse().Numbers()
	for i := 0; i < len(nums); i += 7 {
		for j := 0; j < len(nums); j += 11 {
			ab := Score(nums[i], nums[j])
			ba := Score(nums[j], nums[i])
			if ab != ba {
				t.Fatalf("Score(%s,%s)=%v but Score(%s,%s)=%v", nums[i], nums[j], ab, nums[j], nums[i], ba)
			}
		}
	}
}

func TestAnswers_MatchReachableFeedback(t *testing.T) {
	u := MustUniverse()

	// every pair of numbers is a relabelling of (0123, x), so one probe covers all
	probe := num(t, "0123")
	reachable := map[Feedback]bool{}
	for _, n := range u.Numbers() {
		reachable[Score(n, probe)] = true
	}

	listed := map[Feedback]bool{}
	for _, a := range Answers {
		require.False(t, listed[a], "answer %v listed twice", a)
		listed[a] = true
	}

	assert.Equal(t, reachable, listed)
	assert.Len(t, Answers, 14)
	assert.False(t, listed[Feedback{3, 1}])
}

func TestFeedback_Valid(t *testing.T) {
	cases := []struct {
		fb Feedback
		ok bool
	}{
		{Feedback{0, 0}, true},
		{Feedback{4, 0}, true},
		{Feedback{3, 1}, true},
		{Feedback{2, 2}, true},
		{Feedback{-1, 0}, false},
		{Feedback{0, -1}, false},
		{Feedback{3, 2}, false},
		{Feedback{5, 0}, false},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.ok, tc.fb.Valid(), "%v", tc.fb)
	}
	assert.Equal(t, "1B2C", Feedback{1, 2}.String())
}
