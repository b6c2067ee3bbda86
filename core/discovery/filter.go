package discovery

import (
	"path"
	"strings"

	"github.com/gobwas/glob"
)

// pattern is a compiled ignore pattern.
type pattern struct {
	raw      string
	g        glob.Glob
	fullPath bool
}

// PathFilter excludes changed files whose path matches an ignore pattern.
// A pattern containing a path separator is matched against the full
// relative path; any other pattern is matched against the final path
// component only. Wildcards match across separators.
type PathFilter struct {
	patterns []pattern
}

// NewPathFilter compiles patterns in order, with fnmatch semantics: *, ? and
// [...] are the only special characters, and a pattern the glob engine
// cannot express is matched as a literal name.
func NewPathFilter(patterns []string) *PathFilter {
	f := &PathFilter{}
	for _, raw := range patterns {
		f.patterns = append(f.patterns, pattern{
			raw:      raw,
			g:        compileFnmatch(raw),
			fullPath: strings.ContainsAny(raw, `/\`),
		})
	}
	return f
}

// ShouldExamine reports whether p survives every ignore pattern. A nil
// filter examines everything.
func (f *PathFilter) ShouldExamine(p string) bool {
	return f.MatchedBy(p) == ""
}

// MatchedBy returns the first pattern that excludes p, or "" when none does.
func (f *PathFilter) MatchedBy(p string) string {
	if f == nil || p == "" {
		return ""
	}
	base := path.Base(p)
	for _, pat := range f.patterns {
		subject := base
		if pat.fullPath {
			subject = p
		}
		if pat.g.Match(subject) {
			return pat.raw
		}
	}
	return ""
}

// Len returns the number of compiled patterns.
func (f *PathFilter) Len() int {
	if f == nil {
		return 0
	}
	return len(f.patterns)
}
