package discovery

import (
	"errors"
	"slices"
	"strings"

	"github.com/gobwas/glob"
)

// maxClassSize bounds the members a [...] class may expand to.
const maxClassSize = 1024

var (
	errEmptyClass = errors.New("character class matches nothing")
	errLargeClass = errors.New("character class too large")
)

// never is a glob that matches no input.
type never struct{}

func (never) Match(string) bool { return false }

// compileFnmatch compiles an fnmatch-style pattern. Only *, ? and [...] are
// special: braces and backslashes are literal, and a [ without a closing ]
// is literal too. Patterns the glob engine cannot express are matched
// literally.
func compileFnmatch(raw string) glob.Glob {
	expr, err := fnmatchToGlob(raw)
	if errors.Is(err, errEmptyClass) {
		return never{}
	}
	if err == nil {
		if g, err := glob.Compile(expr); err == nil {
			return g
		}
	}
	return glob.MustCompile(glob.QuoteMeta(raw))
}

// fnmatchToGlob rewrites an fnmatch pattern in gobwas/glob syntax.
func fnmatchToGlob(raw string) (string, error) {
	p := []rune(raw)
	var b strings.Builder
	for i := 0; i < len(p); i++ {
		switch c := p[i]; c {
		case '*', '?':
			b.WriteRune(c)
		case '[':
			end := classEnd(p, i+1)
			if end < 0 {
				b.WriteString(`\[`)
				continue
			}
			class, err := classToGlob(p[i+1 : end])
			if err != nil {
				return "", err
			}
			b.WriteString(class)
			i = end
		default:
			b.WriteString(glob.QuoteMeta(string(c)))
		}
	}
	return b.String(), nil
}

// classEnd returns the index of the ] that closes a class whose body starts
// at j, or -1. A leading ! and a ] directly after it belong to the body.
func classEnd(p []rune, j int) int {
	if j < len(p) && p[j] == '!' {
		j++
	}
	if j < len(p) && p[j] == ']' {
		j++
	}
	for ; j < len(p); j++ {
		if p[j] == ']' {
			return j
		}
	}
	return -1
}

type span struct{ lo, hi rune }

// classToGlob rewrites the body of an fnmatch class. Reversed ranges are
// dropped, and a - at either end of the body is a member.
func classToGlob(body []rune) (string, error) {
	negate := len(body) > 0 && body[0] == '!'
	if negate {
		body = body[1:]
	}

	var spans []span
	for k := 0; k < len(body); {
		if k+2 < len(body) && body[k+1] == '-' {
			if body[k] <= body[k+2] {
				spans = append(spans, span{body[k], body[k+2]})
			}
			k += 3
			continue
		}
		spans = append(spans, span{body[k], body[k]})
		k++
	}

	not := ""
	if negate {
		not = "!"
	}
	switch {
	case len(spans) == 0 && negate:
		return "?", nil
	case len(spans) == 0:
		return "", errEmptyClass
	case len(spans) == 1 && spans[0].lo != spans[0].hi:
		// Range bounds are read verbatim by the glob lexer.
		return "[" + not + string(spans[0].lo) + "-" + string(spans[0].hi) + "]", nil
	}

	var set []rune
	for _, s := range spans {
		if len(set)+int(s.hi-s.lo) >= maxClassSize {
			return "", errLargeClass
		}
		for r := s.lo; r <= s.hi; r++ {
			set = append(set, r)
		}
	}
	slices.Sort(set)
	set = slices.Compact(set)
	if len(set) == 1 && !negate {
		return glob.QuoteMeta(string(set[0])), nil
	}

	var b strings.Builder
	b.WriteString("[" + not)
	// A leading - keeps the first member from being read as a range bound.
	if i := slices.Index(set, '-'); i >= 0 {
		b.WriteRune('-')
		set = slices.Delete(set, i, i+1)
	}
	for _, r := range set {
		if r == ']' || r == '\\' || r == '!' {
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	b.WriteByte(']')
	return b.String(), nil
}
