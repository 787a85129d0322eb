package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strconv"

	"example.com/bc-solver/internal/solver"
	"github.com/fatih/color"
)

const banner = `This is a Bulls and Cows solver.

Think of a number of four different digits.
For every question answer two numbers: bulls and cows.
Example: if your secret number is 1234 and my question is 1453, answer '1 2'.
`

var (
	cQuestion = color.New(color.FgHiWhite, color.Bold)
	cOK       = color.New(color.FgGreen)
	cWarn     = color.New(color.FgHiYellow)
	cFail     = color.New(color.FgRed)
)

var intRe = regexp.MustCompile(`[0-9]+`)

var errNeedTwo = errors.New("answer with exactly two numbers: bulls and cows")

// parseAnswer pulls the integers out of a free-form line, e.g. "1 bull, 2 cows".
func parseAnswer(line string) (bulls, cows int, err error) {
	found := intRe.FindAllString(line, -1)
	if len(found) != 2 {
		return 0, 0, errNeedTwo
	}
	if bulls, err = strconv.Atoi(found[0]); err != nil {
		return 0, 0, errNeedTwo
	}
	if cows, err = strconv.Atoi(found[1]); err != nil {
		return 0, 0, errNeedTwo
	}
	return bulls, cows, nil
}

func play(in io.Reader, out io.Writer, u *solver.Universe, seed uint64) error {
	fmt.Fprint(out, banner, "\n")

	g := solver.NewGame(u, solver.WithSeed(seed))
	sc := bufio.NewScanner(in)

	for !g.IsFinished() {
		probe, err := g.RequestProbe()
		if err != nil {
			return err
		}
		cQuestion.Fprintf(out, "Question #%d: %s\n", g.Round(), probe)

		for {
			if !sc.Scan() {
				if err := sc.Err(); err != nil {
					return err
				}
				return io.ErrUnexpectedEOF
			}
			bulls, cows, err := parseAnswer(sc.Text())
			if err == nil {
				err = g.SubmitFeedback(bulls, cows)
			}
			if err == nil {
				break
			}
			cWarn.Fprintf(out, "%v, try again: ", err)
		}
	}

	if n, ok := g.SolvedValue(); ok {
		cOK.Fprintf(out, "Your number is %s. It took me %d steps to guess it.\n", n, g.StepCount())
		return nil
	}
	cFail.Fprintln(out, "It seems that you've made a mistake somewhere.")
	return nil
}
