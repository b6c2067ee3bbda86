package rules

import (
	"iter"
	"strings"
)

// Candidate is a maximal run of characters from a single alphabet, taken
// from one whitespace-delimited token of diff text.
type Candidate struct {
	Value    string
	Alphabet Alphabet
}

// Len returns the length of the candidate run.
func (c Candidate) Len() int {
	return len(c.Value)
}

// Entropy returns the Shannon entropy of the candidate run.
func (c Candidate) Entropy() float64 {
	return Entropy(c.Value)
}

// Positive reports whether the candidate exceeds its alphabet's threshold.
func (c Candidate) Positive() bool {
	return c.Alphabet.Positive(c.Value)
}

// Candidates yields every candidate run in text. Lines are visited in order,
// each line is split on whitespace, and every token is scanned once per
// alphabet in the order given. A run is yielded only when its length is
// strictly greater than the alphabet's MinRunLength.
func Candidates(text string, alphabets ...Alphabet) iter.Seq[Candidate] {
	return func(yield func(Candidate) bool) {
		for line := range strings.SplitSeq(text, "\n") {
			for token := range strings.FieldsSeq(line) {
				for _, a := range alphabets {
					if !runsOf(token, a, yield) {
						return
					}
				}
			}
		}
	}
}

// ExtractRuns returns the candidate runs of a single alphabet in text.
func ExtractRuns(text string, alphabet Alphabet) []Candidate {
	var out []Candidate
	for c := range Candidates(text, alphabet) {
		out = append(out, c)
	}
	return out
}

// runsOf scans token left to right and yields each qualifying run of
// alphabet members. It returns false when yield asks to stop.
func runsOf(token string, a Alphabet, yield func(Candidate) bool) bool {
	start := -1
	for i := 0; i < len(token); i++ {
		if a.Contains(token[i]) {
			if start < 0 {
				start = i
			}
			continue
		}
		if start >= 0 && i-start > a.MinRunLength {
			if !yield(Candidate{Value: token[start:i], Alphabet: a}) {
				return false
			}
		}
		start = -1
	}
	if start >= 0 && len(token)-start > a.MinRunLength {
		return yield(Candidate{Value: token[start:], Alphabet: a})
	}
	return true
}
