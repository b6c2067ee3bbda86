package git

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	fdiff "github.com/go-git/go-git/v5/plumbing/format/diff"
	"github.com/go-git/go-git/v5/plumbing/object"
)

// BinaryMarker starts the patch text of a file git considers binary.
const BinaryMarker = "Binary files"

// Commit holds the metadata of a single commit that the scanner reports.
type Commit struct {
	ID      string
	When    time.Time // committer time
	Message string
}

// ChangedFile is one file's change between two commits. OldPath is empty
// for added files and NewPath is empty for deleted files.
type ChangedFile struct {
	OldPath string
	NewPath string
	// Patch is the unified diff text of the change, starting at the first
	// hunk header, or the binary marker line for binary files.
	Patch  []byte
	Binary bool
}

// Path returns the path of the file after the change, or before it when
// the file was deleted.
func (f ChangedFile) Path() string {
	if f.NewPath != "" {
		return f.NewPath
	}
	return f.OldPath
}

// Commits returns the history reachable from HEAD ordered by committer
// time, newest first, as git rev-list does. Commits from merged side
// branches are interleaved by date rather than following the first-parent
// line. A repository without commits yields an empty history.
func (r *Repository) Commits() ([]Commit, error) {
	head, err := r.repo.Head()
	if err != nil {
		if errors.Is(err, plumbing.ErrReferenceNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("git log: %w", err)
	}

	iter, err := r.repo.Log(&gogit.LogOptions{
		From:  head.Hash(),
		Order: gogit.LogOrderCommitterTime,
	})
	if err != nil {
		return nil, fmt.Errorf("git log: %w", err)
	}
	defer iter.Close()

	var commits []Commit
	err = iter.ForEach(func(c *object.Commit) error {
		commits = append(commits, Commit{
			ID:      c.Hash.String(),
			When:    c.Committer.When,
			Message: c.Message,
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("git log: %w", err)
	}
	return commits, nil
}

// Diff returns the per-file changes that turn commit older into commit
// newer.
func (r *Repository) Diff(ctx context.Context, older, newer string) ([]ChangedFile, error) {
	from, err := r.repo.CommitObject(plumbing.NewHash(older))
	if err != nil {
		return nil, fmt.Errorf("git diff: commit %s: %w", older, err)
	}
	to, err := r.repo.CommitObject(plumbing.NewHash(newer))
	if err != nil {
		return nil, fmt.Errorf("git diff: commit %s: %w", newer, err)
	}

	patch, err := from.PatchContext(ctx, to)
	if err != nil {
		return nil, fmt.Errorf("git diff %s..%s: %w", older, newer, err)
	}

	var files []ChangedFile
	for _, fp := range patch.FilePatches() {
		text, err := patchText(fp)
		if err != nil {
			return nil, fmt.Errorf("git diff %s..%s: %w", older, newer, err)
		}

		var cf ChangedFile
		fromFile, toFile := fp.Files()
		if fromFile != nil {
			cf.OldPath = fromFile.Path()
		}
		if toFile != nil {
			cf.NewPath = toFile.Path()
		}
		cf.Patch = text
		cf.Binary = fp.IsBinary()
		files = append(files, cf)
	}
	return files, nil
}

// singlePatch adapts one file patch to the diff.Patch interface so it can
// be encoded on its own.
type singlePatch struct {
	fp fdiff.FilePatch
}

func (p singlePatch) FilePatches() []fdiff.FilePatch { return []fdiff.FilePatch{p.fp} }
func (p singlePatch) Message() string               { return "" }

// patchText renders fp as unified diff text and drops the per-file header
// ("diff --git", mode, index, ---/+++ lines), keeping everything from the
// first hunk or binary marker on.
func patchText(fp fdiff.FilePatch) ([]byte, error) {
	var buf bytes.Buffer
	enc := fdiff.NewUnifiedEncoder(&buf, fdiff.DefaultContextLines)
	if err := enc.Encode(singlePatch{fp: fp}); err != nil {
		return nil, fmt.Errorf("encoding patch: %w", err)
	}
	return stripHeader(buf.Bytes()), nil
}

func stripHeader(b []byte) []byte {
	for len(b) > 0 {
		if bytes.HasPrefix(b, []byte("@@")) || bytes.HasPrefix(b, []byte(BinaryMarker)) {
			return b
		}
		i := bytes.IndexByte(b, '\n')
		if i < 0 {
			return nil
		}
		b = b[i+1:]
	}
	return nil
}
