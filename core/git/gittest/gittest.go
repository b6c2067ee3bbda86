// Package gittest builds throwaway git repositories for tests, either in
// memory or on disk, with deterministic commit times.
package gittest

import (
	"testing"
	"time"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/memfs"
	"github.com/go-git/go-billy/v5/util"
	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/storage/memory"
	"github.com/stretchr/testify/require"
)

// Epoch is the committer time of the first commit made by a Repo. Every
// following commit is one minute later.
var Epoch = time.Date(2024, time.March, 1, 12, 0, 0, 0, time.UTC)

// Repo is a repository under construction.
type Repo struct {
	t    testing.TB
	Git  *gogit.Repository
	fs   billy.Filesystem
	wt   *gogit.Worktree
	next time.Time
}

// NewMemory returns an empty repository backed by memory storage and an
// in-memory worktree.
func NewMemory(t testing.TB) *Repo {
	t.Helper()
	r, err := gogit.Init(memory.NewStorage(), memfs.New())
	require.NoError(t, err)
	return newRepo(t, r)
}

// NewDisk returns an empty non-bare repository in a fresh temp directory,
// together with that directory.
func NewDisk(t testing.TB) (*Repo, string) {
	t.Helper()
	dir := t.TempDir()
	r, err := gogit.PlainInit(dir, false)
	require.NoError(t, err)
	return newRepo(t, r), dir
}

func newRepo(t testing.TB, r *gogit.Repository) *Repo {
	wt, err := r.Worktree()
	require.NoError(t, err)
	return &Repo{t: t, Git: r, fs: wt.Filesystem, wt: wt, next: Epoch}
}

// Write stages files with the given contents.
func (r *Repo) Write(files map[string]string) {
	r.t.Helper()
	for name, content := range files {
		require.NoError(r.t, util.WriteFile(r.fs, name, []byte(content), 0o644))
		_, err := r.wt.Add(name)
		require.NoError(r.t, err)
	}
}

// Remove stages the deletion of files.
func (r *Repo) Remove(names ...string) {
	r.t.Helper()
	for _, name := range names {
		_, err := r.wt.Remove(name)
		require.NoError(r.t, err)
	}
}

// Commit writes files and commits them with message.
func (r *Repo) Commit(message string, files map[string]string) plumbing.Hash {
	r.t.Helper()
	r.Write(files)
	return r.commitStaged(message)
}

// CommitRemoval deletes names and commits the deletion with message.
func (r *Repo) CommitRemoval(message string, names ...string) plumbing.Hash {
	r.t.Helper()
	r.Remove(names...)
	return r.commitStaged(message)
}

// Merge writes files and commits them as a merge of HEAD and other, with
// HEAD as the first parent. The merged tree is whatever is staged, so files
// brought in from other must be passed again.
func (r *Repo) Merge(message string, other plumbing.Hash, files map[string]string) plumbing.Hash {
	r.t.Helper()
	head, err := r.Git.Head()
	require.NoError(r.t, err)
	r.Write(files)
	return r.commitStaged(message, head.Hash(), other)
}

func (r *Repo) commitStaged(message string, parents ...plumbing.Hash) plumbing.Hash {
	r.t.Helper()
	when := r.next
	r.next = r.next.Add(time.Minute)
	sig := &object.Signature{Name: "Test", Email: "test@test.com", When: when}
	h, err := r.wt.Commit(message, &gogit.CommitOptions{
		Author:            sig,
		Committer:         sig,
		AllowEmptyCommits: true,
		Parents:           parents,
	})
	require.NoError(r.t, err)
	return h
}

// Branch creates branch at the current HEAD and checks it out.
func (r *Repo) Branch(name string) {
	r.t.Helper()
	require.NoError(r.t, r.wt.Checkout(&gogit.CheckoutOptions{
		Branch: plumbing.NewBranchReferenceName(name),
		Create: true,
	}))
}

// Switch checks out an existing local branch.
func (r *Repo) Switch(name string) {
	r.t.Helper()
	require.NoError(r.t, r.wt.Checkout(&gogit.CheckoutOptions{
		Branch: plumbing.NewBranchReferenceName(name),
	}))
}

// Publish points refs/remotes/origin/<name> at the tip of local branch
// name, as a clone would have done.
func (r *Repo) Publish(names ...string) {
	r.t.Helper()
	for _, name := range names {
		local, err := r.Git.Reference(plumbing.NewBranchReferenceName(name), true)
		require.NoError(r.t, err)
		ref := plumbing.NewHashReference(plumbing.NewRemoteReferenceName("origin", name), local.Hash())
		require.NoError(r.t, r.Git.Storer.SetReference(ref))
	}
}

// DeleteBranch removes a local branch ref, leaving its commits reachable
// through any published remote ref.
func (r *Repo) DeleteBranch(name string) {
	r.t.Helper()
	require.NoError(r.t, r.Git.Storer.RemoveReference(plumbing.NewBranchReferenceName(name)))
}
