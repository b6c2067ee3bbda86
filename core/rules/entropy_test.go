package rules

import (
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

// ---------------------------------------------------------------------------
// Entropy tests
// ---------------------------------------------------------------------------

func TestEntropy(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  float64
	}{
		{name: "empty string", input: "", want: 0.0},
		{name: "all same characters", input: "aaaa", want: 0.0},
		{name: "two characters even split", input: "aabb", want: 1.0},
		{name: "four distinct characters", input: "abcd", want: 2.0},
		{name: "word", input: "password", want: 2.75},
		{name: "hex with repeats", input: "0123456789abcdef0123456789abcdef", want: 4.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, Entropy(tt.input), 1e-9)
		})
	}
}

func TestEntropy_DistinctCharactersIsLog2Length(t *testing.T) {
	const pool = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789+/"
	for _, n := range []int{1, 2, 7, 21, 32, 64} {
		s := pool[:n]
		assert.InDelta(t, math.Log2(float64(n)), Entropy(s), 1e-9, "n=%d", n)
	}
}

// ---------------------------------------------------------------------------
// Classification tests
// ---------------------------------------------------------------------------

func TestAlphabet_Thresholds(t *testing.T) {
	assert.Equal(t, 4.5, Base64Alphabet.Threshold)
	assert.Equal(t, 3.0, HexAlphabet.Threshold)
	assert.Equal(t, 20, Base64Alphabet.MinRunLength)
	assert.Equal(t, 20, HexAlphabet.MinRunLength)
}

func TestAlphabet_Positive(t *testing.T) {
	tests := []struct {
		name     string
		alphabet Alphabet
		input    string
		want     bool
	}{
		{"random base64", Base64Alphabet, "aK3jR8mZ2pL5nW9xQ4vB7yD1sF6hT0cE", true},
		{"repeated base64", Base64Alphabet, strings.Repeat("A", 21), false},
		{"21 distinct base64 stays under 4.5", Base64Alphabet, "abcdefghijklmnopqrstu", false},
		{"hex above 3.0", HexAlphabet, "0123456789abcdef0123456789abcdef", true},
		{"hex as base64 stays under 4.5", Base64Alphabet, "0123456789abcdef0123456789abcdef", false},
		{"low entropy hex", HexAlphabet, "aaaaaaaaaabbbbbbbbbbb", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.alphabet.Positive(tt.input))
		})
	}
}

func TestAlphabet_ThresholdIsStrict(t *testing.T) {
	// "abcd" has entropy exactly 2.0.
	a := NewAlphabet("test", "abcd", 2.0, 3)
	assert.False(t, a.Positive("abcd"))

	a = NewAlphabet("test", "abcd", 1.99, 3)
	assert.True(t, a.Positive("abcd"))
}

func TestAlphabet_ClassifyWithCustomScorer(t *testing.T) {
	always := func(string) float64 { return 100 }
	never := func(string) float64 { return 0 }

	assert.True(t, Base64Alphabet.Classify("aaaa", always))
	assert.False(t, Base64Alphabet.Classify("aK3jR8mZ2pL5nW9xQ4vB7yD1sF6hT0cE", never))
}

func TestAlphabet_Contains(t *testing.T) {
	for _, c := range []byte("AZaz09+/=") {
		assert.True(t, Base64Alphabet.Contains(c), "%q", c)
	}
	for _, c := range []byte("-_.\"' \t") {
		assert.False(t, Base64Alphabet.Contains(c), "%q", c)
	}
	assert.True(t, HexAlphabet.Contains('F'))
	assert.False(t, HexAlphabet.Contains('g'))
	assert.False(t, HexAlphabet.Contains('='))
}
