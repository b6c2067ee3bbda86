// Package git provides the repository access the history scanner needs:
// cloning, remote branch enumeration, checkout, commit history and per-file
// patches between two commits. It is backed by go-git and needs no git
// binary for anything but local file:// clones.
package git

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"sort"
	"strings"

	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
)

// RemoteName is the remote whose branches are scanned.
const RemoteName = "origin"

// ErrBranchNotFound is returned by Checkout when no remote branch has the
// requested name.
var ErrBranchNotFound = errors.New("remote branch not found")

// Repository is a local copy of a git repository.
type Repository struct {
	repo *gogit.Repository
}

// FromRepository wraps an already opened go-git repository.
func FromRepository(r *gogit.Repository) *Repository {
	return &Repository{repo: r}
}

// Clone clones url into dir, writing transfer progress to progress when it
// is non-nil.
func Clone(ctx context.Context, url, dir string, progress io.Writer) (*Repository, error) {
	r, err := gogit.PlainCloneContext(ctx, dir, false, &gogit.CloneOptions{
		URL:      url,
		Progress: progress,
	})
	if err != nil {
		return nil, fmt.Errorf("git clone %s: %w", url, err)
	}
	return FromRepository(r), nil
}

// Open opens the repository containing dir.
func Open(dir string) (*Repository, error) {
	r, err := gogit.PlainOpenWithOptions(dir, &gogit.PlainOpenOptions{
		DetectDotGit: true,
	})
	if err != nil {
		return nil, fmt.Errorf("git open %s: %w", dir, err)
	}
	return FromRepository(r), nil
}

// IsGitRepo returns true if path is inside a git repository.
func IsGitRepo(path string) bool {
	_, err := Open(path)
	return err == nil
}

// RepoRoot returns the top-level working directory of the repository
// containing path.
func RepoRoot(path string) (string, error) {
	r, err := Open(path)
	if err != nil {
		return "", err
	}
	wt, err := r.repo.Worktree()
	if err != nil {
		return "", fmt.Errorf("git worktree: %w", err)
	}
	return filepath.Clean(wt.Filesystem.Root()), nil
}

// RemoteBranches returns the names of the branches tracked under the origin
// remote, sorted, without the remote prefix. The symbolic origin/HEAD is
// skipped.
func (r *Repository) RemoteBranches() ([]string, error) {
	refs, err := r.repo.References()
	if err != nil {
		return nil, fmt.Errorf("git references: %w", err)
	}
	defer refs.Close()

	prefix := plumbing.NewRemoteReferenceName(RemoteName, "").String()
	var names []string
	err = refs.ForEach(func(ref *plumbing.Reference) error {
		if ref.Type() != plumbing.HashReference || !ref.Name().IsRemote() {
			return nil
		}
		name, ok := strings.CutPrefix(ref.Name().String(), prefix)
		if !ok || name == "" || name == "HEAD" {
			return nil
		}
		names = append(names, name)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("git references: %w", err)
	}

	sort.Strings(names)
	return names, nil
}

// Checkout creates a local branch named branch at the tip of the matching
// remote branch and checks it out. It fails when a local branch of that
// name already exists, leaving the current checkout untouched.
func (r *Repository) Checkout(branch string) error {
	remote, err := r.repo.Reference(plumbing.NewRemoteReferenceName(RemoteName, branch), true)
	if err != nil {
		if errors.Is(err, plumbing.ErrReferenceNotFound) {
			return fmt.Errorf("git checkout %s: %w", branch, ErrBranchNotFound)
		}
		return fmt.Errorf("git checkout %s: %w", branch, err)
	}

	wt, err := r.repo.Worktree()
	if err != nil {
		return fmt.Errorf("git checkout %s: %w", branch, err)
	}

	err = wt.Checkout(&gogit.CheckoutOptions{
		Hash:   remote.Hash(),
		Branch: plumbing.NewBranchReferenceName(branch),
		Create: true,
	})
	if err != nil {
		return fmt.Errorf("git checkout %s: %w", branch, err)
	}
	return nil
}

// CurrentBranch returns the short name of the checked-out branch, or the
// commit hash when HEAD is detached.
func (r *Repository) CurrentBranch() (string, error) {
	head, err := r.repo.Head()
	if err != nil {
		return "", fmt.Errorf("git current branch: %w", err)
	}
	if head.Name().IsBranch() {
		return head.Name().Short(), nil
	}
	return head.Hash().String(), nil
}
