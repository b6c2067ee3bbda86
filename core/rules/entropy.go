package rules

import "math"

// Entropy calculates the Shannon entropy of s in bits per character, over
// the distribution of characters within s itself. Higher values indicate a
// more random-looking string. The empty string has entropy 0.
func Entropy(s string) float64 {
	if len(s) == 0 {
		return 0.0
	}
	freq := make(map[rune]float64)
	var length float64
	for _, c := range s {
		freq[c]++
		length++
	}
	var entropy float64
	for _, count := range freq {
		p := count / length
		entropy -= p * math.Log2(p)
	}
	return entropy
}
