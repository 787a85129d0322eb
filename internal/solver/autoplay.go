package solver

import "fmt"

// MaxRounds bounds automated games; a healthy solver never gets close.
const MaxRounds = 32

// Play runs a whole game against secret, answering every probe with Score.
func Play(u *Universe, secret Number, opts ...GameOption) (*Game, error) {
	g := NewGame(u, opts...)
	for !g.IsFinished() {
		if g.Round() >= MaxRounds {
			return g, fmt.Errorf("secret %s not found after %d rounds", secret, g.Round())
		}
		probe, err := g.RequestProbe()
		if err != nil {
			return g, err
		}
		fb := Score(secret, probe)
		if err := g.SubmitFeedback(fb.Bulls, fb.Cows); err != nil {
			return g, err
		}
	}
	return g, nil
}
