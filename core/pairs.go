package core

import "github.com/nox-hq/histscan/core/git"

// CommitPair is two adjacent commits of a branch's history. The scanner
// diffs Older against Newer so additions in Newer show as additions.
type CommitPair struct {
	Older git.Commit
	Newer git.Commit
}

// newPair pairs two neighbouring history entries, given as (next, previous)
// in newest-first order. Commits with skewed clocks can arrive out of date
// order; the pair is kept chronological by committer time regardless.
func newPair(next, previous git.Commit) CommitPair {
	if next.When.After(previous.When) {
		next, previous = previous, next
	}
	return CommitPair{Older: next, Newer: previous}
}

// Key identifies the pair for deduplication.
func (p CommitPair) Key() string {
	return p.Older.ID + p.Newer.ID
}

// PairSet records the commit pairs already examined during one scan.
type PairSet struct {
	seen map[string]struct{}
}

// NewPairSet returns an empty PairSet.
func NewPairSet() *PairSet {
	return &PairSet{seen: make(map[string]struct{})}
}

// Seen reports whether key has been marked.
func (s *PairSet) Seen(key string) bool {
	_, ok := s.seen[key]
	return ok
}

// MarkSeen records key.
func (s *PairSet) MarkSeen(key string) {
	s.seen[key] = struct{}{}
}

// Len returns the number of keys marked.
func (s *PairSet) Len() int {
	return len(s.seen)
}
