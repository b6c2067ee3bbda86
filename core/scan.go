// Package core provides the history scan pipeline for histscan: walking every
// remote branch of a repository commit pair by commit pair, skipping pairs
// already examined, and reporting changed files whose diff contains a
// high-entropy string.
package core

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"slices"

	"github.com/dustin/go-humanize"

	"github.com/nox-hq/histscan/core/discovery"
	"github.com/nox-hq/histscan/core/findings"
	"github.com/nox-hq/histscan/core/git"
	"github.com/nox-hq/histscan/core/report"
	"github.com/nox-hq/histscan/core/rules"
)

// Repository is the version-control access the scanner needs.
// *git.Repository implements it.
type Repository interface {
	RemoteBranches() ([]string, error)
	CurrentBranch() (string, error)
	Checkout(branch string) error
	Commits() ([]git.Commit, error)
	Diff(ctx context.Context, older, newer string) ([]git.ChangedFile, error)
}

var _ Repository = (*git.Repository)(nil)

// Stats summarises a completed scan.
type Stats struct {
	Branches     int
	PairsScanned int
	PairsSkipped int // already examined on another branch
	FilesScanned int
	FilesIgnored int // excluded by an ignore pattern
	FilesBinary  int
	Findings     int
}

// Scanner walks repository history and reports findings. A Scanner holds no
// per-scan state and may be reused.
type Scanner struct {
	reporter  report.Reporter
	filter    *discovery.PathFilter
	alphabets []rules.Alphabet
	score     func(string) float64
	logger    *slog.Logger
	tempDir   string
	progress  io.Writer
}

// ScannerOption configures a Scanner.
type ScannerOption func(*Scanner)

// WithFilter sets the path filter applied to changed files.
func WithFilter(f *discovery.PathFilter) ScannerOption {
	return func(s *Scanner) { s.filter = f }
}

// WithAlphabets replaces the alphabets candidates are extracted with.
func WithAlphabets(alphabets ...rules.Alphabet) ScannerOption {
	return func(s *Scanner) { s.alphabets = alphabets }
}

// WithScorer replaces the entropy function candidates are classified with.
func WithScorer(score func(string) float64) ScannerOption {
	return func(s *Scanner) { s.score = score }
}

// WithLogger sets the logger for scan diagnostics.
func WithLogger(l *slog.Logger) ScannerOption {
	return func(s *Scanner) { s.logger = l }
}

// WithTempDir sets the parent directory of temporary clones. The default is
// os.TempDir().
func WithTempDir(dir string) ScannerOption {
	return func(s *Scanner) { s.tempDir = dir }
}

// WithProgress sets where clone progress is written.
func WithProgress(w io.Writer) ScannerOption {
	return func(s *Scanner) { s.progress = w }
}

// NewScanner creates a Scanner reporting to r.
// Defaults: no ignore patterns, rules.DefaultAlphabets(), rules.Entropy,
// slog.Default().
func NewScanner(r report.Reporter, opts ...ScannerOption) *Scanner {
	s := &Scanner{
		reporter:  r,
		alphabets: rules.DefaultAlphabets(),
		score:     rules.Entropy,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// RunScan clones target into a temporary directory, scans its full history
// and removes the clone again.
func RunScan(ctx context.Context, target string, r report.Reporter, opts ...ScannerOption) (Stats, error) {
	return NewScanner(r, opts...).ScanURL(ctx, target)
}

// ScanURL clones url into a temporary directory and scans it. The directory
// is removed on every return path.
func (s *Scanner) ScanURL(ctx context.Context, url string) (Stats, error) {
	dir, err := os.MkdirTemp(s.tempDir, "histscan-")
	if err != nil {
		return Stats{}, fmt.Errorf("creating clone directory: %w", err)
	}
	defer func() {
		if err := os.RemoveAll(dir); err != nil {
			s.logger.Warn("removing clone directory", "dir", dir, "error", err)
		}
	}()

	s.logger.Debug("cloning repository", "url", url, "dir", dir)
	repo, err := git.Clone(ctx, url, dir, s.progress)
	if err != nil {
		return Stats{}, fmt.Errorf("cloning %s: %w", url, err)
	}

	return s.Scan(ctx, repo)
}

// Scan walks every remote branch of repo. Each branch is checked out as a
// local branch first; when that fails the scan continues on whatever is
// checked out. A commit pair shared by several branches is examined once.
func (s *Scanner) Scan(ctx context.Context, repo Repository) (Stats, error) {
	var stats Stats

	branches, err := repo.RemoteBranches()
	if err != nil {
		return stats, fmt.Errorf("listing branches: %w", err)
	}
	branches = currentFirst(repo, branches)

	seen := NewPairSet()
	for _, branch := range branches {
		stats.Branches++
		if err := repo.Checkout(branch); err != nil {
			s.logger.Debug("checkout failed, scanning current HEAD", "branch", branch, "error", err)
		}

		commits, err := repo.Commits()
		if err != nil {
			return stats, fmt.Errorf("branch %s: %w", branch, err)
		}
		s.logger.Debug("scanning branch", "branch", branch, "commits", len(commits))

		for i := 1; i < len(commits); i++ {
			if err := ctx.Err(); err != nil {
				return stats, err
			}

			pair := newPair(commits[i], commits[i-1])
			if seen.Seen(pair.Key()) {
				stats.PairsSkipped++
				continue
			}
			seen.MarkSeen(pair.Key())
			stats.PairsScanned++

			if err := s.scanPair(ctx, repo, branch, pair, &stats); err != nil {
				return stats, fmt.Errorf("branch %s: %w", branch, err)
			}
		}
	}

	s.logger.Info("scan complete",
		"branches", stats.Branches,
		"pairs", humanize.Comma(int64(stats.PairsScanned)),
		"pairs_skipped", humanize.Comma(int64(stats.PairsSkipped)),
		"files", humanize.Comma(int64(stats.FilesScanned)),
		"findings", stats.Findings,
	)
	return stats, nil
}

// currentFirst moves the checked-out branch to the front so its own
// checkout collision does not leave another branch's HEAD in place.
func currentFirst(repo Repository, branches []string) []string {
	current, err := repo.CurrentBranch()
	if err != nil {
		return branches
	}
	i := slices.Index(branches, current)
	if i <= 0 {
		return branches
	}
	out := make([]string, 0, len(branches))
	out = append(out, current)
	out = append(out, branches[:i]...)
	return append(out, branches[i+1:]...)
}

func (s *Scanner) scanPair(ctx context.Context, repo Repository, branch string, pair CommitPair, stats *Stats) error {
	files, err := repo.Diff(ctx, pair.Older.ID, pair.Newer.ID)
	if err != nil {
		return err
	}

	for _, f := range files {
		if pattern := s.excludedBy(f); pattern != "" {
			s.logger.Debug("ignoring file", "path", f.Path(), "pattern", pattern)
			stats.FilesIgnored++
			continue
		}

		text, ok, err := diffText(f)
		if err != nil {
			return fmt.Errorf("commit %s: %w", pair.Newer.ID, err)
		}
		if !ok {
			stats.FilesBinary++
			continue
		}
		stats.FilesScanned++

		match, found := s.firstMatch(text)
		if !found {
			continue
		}

		finding := findings.Finding{
			Path:     f.Path(),
			Date:     pair.Newer.When,
			Branch:   branch,
			Message:  pair.Newer.Message,
			Diff:     text,
			String:   match.Value,
			CommitID: pair.Newer.ID,
		}
		if err := s.reporter.Report(finding); err != nil {
			return err
		}
		stats.Findings++
		s.logger.Debug("high entropy string",
			"path", finding.Path,
			"commit", finding.CommitID,
			"alphabet", match.Alphabet.Name,
		)
	}
	return nil
}

// excludedBy returns the ignore pattern matching either side of f, or "".
func (s *Scanner) excludedBy(f git.ChangedFile) string {
	for _, p := range []string{f.OldPath, f.NewPath} {
		if pattern := s.filter.MatchedBy(p); pattern != "" {
			return pattern
		}
	}
	return ""
}

// firstMatch returns the first candidate in text whose score exceeds its
// alphabet's threshold.
func (s *Scanner) firstMatch(text string) (rules.Candidate, bool) {
	for c := range rules.Candidates(text, s.alphabets...) {
		if c.Alphabet.Classify(c.Value, s.score) {
			return c, true
		}
	}
	return rules.Candidate{}, false
}
