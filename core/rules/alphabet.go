// Package rules implements the detection rules of the history scanner: the
// character alphabets secrets are drawn from, extraction of candidate runs
// from diff text, and Shannon entropy classification of those candidates.
package rules

// defaultMinRunLength is the run length a candidate must strictly exceed
// before it is considered at all.
const defaultMinRunLength = 20

// Alphabet is a named character set plus the thresholds used to extract and
// classify candidate secrets drawn from it.
type Alphabet struct {
	Name string
	// Chars lists every member character. Only ASCII characters are
	// supported.
	Chars string
	// Threshold is the entropy a candidate must strictly exceed to be
	// reported.
	Threshold float64
	// MinRunLength is the length a run must strictly exceed to become a
	// candidate.
	MinRunLength int

	set [256]bool
}

// Base64Alphabet matches base64-encoded material such as API keys and
// bearer tokens.
var Base64Alphabet = NewAlphabet(
	"base64",
	"ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789+/=",
	4.5,
	defaultMinRunLength,
)

// HexAlphabet matches hex-encoded material such as hashes and signing keys.
var HexAlphabet = NewAlphabet(
	"hex",
	"1234567890abcdefABCDEF",
	3.0,
	defaultMinRunLength,
)

// DefaultAlphabets returns the alphabets scanned by default, in the order
// their candidates are reported.
func DefaultAlphabets() []Alphabet {
	return []Alphabet{Base64Alphabet, HexAlphabet}
}

// NewAlphabet builds an Alphabet with a precomputed membership table.
func NewAlphabet(name, chars string, threshold float64, minRunLength int) Alphabet {
	a := Alphabet{
		Name:         name,
		Chars:        chars,
		Threshold:    threshold,
		MinRunLength: minRunLength,
	}
	for i := 0; i < len(chars); i++ {
		a.set[chars[i]] = true
	}
	return a
}

// Contains reports whether c is a member of the alphabet.
func (a Alphabet) Contains(c byte) bool {
	return a.set[c]
}

// Positive reports whether s is random enough to be reported as a secret
// under this alphabet's threshold.
func (a Alphabet) Positive(s string) bool {
	return a.Classify(s, Entropy)
}

// Classify is Positive with a caller-supplied scoring function.
func (a Alphabet) Classify(s string, score func(string) float64) bool {
	return score(s) > a.Threshold
}
