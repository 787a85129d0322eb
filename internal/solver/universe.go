package solver

import (
	"errors"
	"fmt"
	"strings"
)

// Len is the number of symbols in every candidate.
const Len = 4

const defaultAlphabet = "0123456789"

var (
	ErrBadLength   = errors.New("number must have exactly 4 symbols")
	ErrBadSymbol   = errors.New("number contains a symbol outside the alphabet")
	ErrRepeated    = errors.New("number symbols must be pairwise distinct")
	ErrLeadingZero = errors.New("number must not start with zero")
)

// Number is one candidate: a secret or a probe, the roles are interchangeable.
type Number [Len]byte

func (n Number) String() string { return string(n[:]) }

func (n Number) MarshalText() ([]byte, error) {
	return []byte(n.String()), nil
}

// UnmarshalText accepts any Len distinct symbols; the alphabet is checked
// by the universe the number is used with.
func (n *Number) UnmarshalText(b []byte) error {
	if len(b) != Len {
		return ErrBadLength
	}
	var v Number
	copy(v[:], b)
	if !v.distinct() {
		return ErrRepeated
	}
	*n = v
	return nil
}

// distinct reports whether all symbols of n differ.
func (n Number) distinct() bool {
	for i := 0; i < Len; i++ {
		for j := i + 1; j < Len; j++ {
			if n[i] == n[j] {
				return false
			}
		}
	}
	return true
}

// ParseNumber validates s against the default decimal alphabet.
func ParseNumber(s string) (Number, error) {
	return parseNumber(s, defaultAlphabet)
}

func parseNumber(s, alphabet string) (Number, error) {
	var n Number
	if len(s) != Len {
		return n, ErrBadLength
	}
	for i := 0; i < Len; i++ {
		if strings.IndexByte(alphabet, s[i]) < 0 {
			return n, fmt.Errorf("%w: %q", ErrBadSymbol, s[i])
		}
		n[i] = s[i]
	}
	if !n.distinct() {
		return n, ErrRepeated
	}
	return n, nil
}

type Option func(*Universe)

// WithAlphabet sets the symbols candidates are drawn from. The order of the
// alphabet defines the enumeration order.
func WithAlphabet(alphabet string) Option {
	return func(u *Universe) { u.alphabet = alphabet }
}

// WithLeadingZero controls whether the first symbol of the alphabet may
// open a number. Off gives the classic 1000..9999 range.
func WithLeadingZero(allow bool) Option {
	return func(u *Universe) { u.leadingZero = allow }
}

// Universe is the complete, read-only set of valid candidates.
type Universe struct {
	alphabet    string
	leadingZero bool
	numbers     []Number
	index       map[Number]struct{}
}

func NewUniverse(opts ...Option) (*Universe, error) {
	u := &Universe{alphabet: defaultAlphabet, leadingZero: true}
	for _, o := range opts {
		o(u)
	}
	if len(u.alphabet) < Len {
		return nil, fmt.Errorf("alphabet %q is shorter than %d symbols", u.alphabet, Len)
	}
	for i := 0; i < len(u.alphabet); i++ {
		if strings.IndexByte(u.alphabet[i+1:], u.alphabet[i]) >= 0 {
			return nil, fmt.Errorf("alphabet %q repeats %q", u.alphabet, u.alphabet[i])
		}
	}

	u.enumerate()
	return u, nil
}

// MustUniverse is NewUniverse for static configurations.
func MustUniverse(opts ...Option) *Universe {
	u, err := NewUniverse(opts...)
	if err != nil {
		panic(err)
	}
	return u
}

func (u *Universe) enumerate() {
	a := u.alphabet
	u.index = make(map[Number]struct{})
	var n Number
	for _, s0 := range []byte(a) {
		if !u.leadingZero && s0 == a[0] {
			continue
		}
		for _, s1 := range []byte(a) {
			for _, s2 := range []byte(a) {
				for _, s3 := range []byte(a) {
					n = Number{s0, s1, s2, s3}
					if !n.distinct() {
						continue
					}
					u.numbers = append(u.numbers, n)
					u.index[n] = struct{}{}
				}
			}
		}
	}
}

func (u *Universe) Len() int { return len(u.numbers) }

// Numbers returns a copy of all candidates in enumeration order.
func (u *Universe) Numbers() []Number {
	return append([]Number(nil), u.numbers...)
}

func (u *Universe) Contains(n Number) bool {
	_, ok := u.index[n]
	return ok
}

func (u *Universe) Alphabet() string { return u.alphabet }

// Parse validates s against this universe's alphabet and leading-zero rule.
func (u *Universe) Parse(s string) (Number, error) {
	n, err := parseNumber(s, u.alphabet)
	if err != nil {
		return n, err
	}
	if !u.leadingZero && n[0] == u.alphabet[0] {
		return n, ErrLeadingZero
	}
	return n, nil
}
