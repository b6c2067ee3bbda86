package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"golang.org/x/sync/singleflight"

	"github.com/nox-hq/histscan/core/git"
)

// watch runs scan once and again whenever the branch pointers of the local
// repository at target move. Bursts of ref updates within debounce trigger a
// single rescan, and a trigger that arrives while a scan is running joins
// that scan. watch returns when ctx is cancelled, once any running scan has
// returned.
func watch(ctx context.Context, target string, debounce time.Duration, logger *slog.Logger, scan func(context.Context) error) error {
	root, err := git.RepoRoot(target)
	if err != nil {
		return fmt.Errorf("--watch needs a local repository: %w", err)
	}
	gitDir := filepath.Join(root, ".git")

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(gitDir); err != nil {
		return fmt.Errorf("watching %s: %w", gitDir, err)
	}
	if err := addDirsRecursive(watcher, filepath.Join(gitDir, "refs")); err != nil {
		return fmt.Errorf("watching refs: %w", err)
	}

	var group singleflight.Group
	rescan := func() {
		_, _, _ = group.Do("scan", func() (any, error) {
			if err := scan(ctx); err != nil && ctx.Err() == nil {
				logger.Error("scan failed", "error", err)
			}
			return nil, nil
		})
	}

	logger.Info("watching repository", "path", root, "debounce", debounce)
	rescan()

	var (
		mu      sync.Mutex
		timer   *time.Timer
		stopped bool
		pending sync.WaitGroup // armed timers and the rescans they run
	)

	resetTimer := func() {
		mu.Lock()
		defer mu.Unlock()
		if stopped {
			return
		}
		if timer != nil && timer.Stop() {
			pending.Done()
		}
		pending.Add(1)
		timer = time.AfterFunc(debounce, func() {
			defer pending.Done()
			logger.Info("refs changed, rescanning", "path", root)
			rescan()
		})
	}
	// A rescan already running finishes, temp clone cleanup included, before
	// watch returns.
	defer func() {
		mu.Lock()
		stopped = true
		if timer != nil && timer.Stop() {
			pending.Done()
		}
		mu.Unlock()
		pending.Wait()
	}()

	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
				continue
			}
			// New ref namespaces such as refs/heads/feature/ show up as directories.
			if event.Has(fsnotify.Create) {
				info, err := os.Stat(event.Name)
				if err == nil && info.IsDir() {
					_ = addDirsRecursive(watcher, event.Name)
				}
			}
			if isRefChange(gitDir, event.Name) {
				logger.Debug("ref event", "path", event.Name, "op", event.Op.String())
				resetTimer()
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn("watch error", "error", err)
		case <-ctx.Done():
			logger.Info("watch stopped")
			return nil
		}
	}
}

// isRefChange reports whether a filesystem event at name, inside gitDir,
// can move a branch pointer. Lock files written while git updates a ref
// are ignored; the rename that completes the update is not.
func isRefChange(gitDir, name string) bool {
	if strings.HasSuffix(name, ".lock") {
		return false
	}
	rel, err := filepath.Rel(gitDir, name)
	if err != nil {
		return false
	}
	rel = filepath.ToSlash(rel)
	switch {
	case rel == "HEAD", rel == "packed-refs":
		return true
	case strings.HasPrefix(rel, "refs/"):
		return true
	}
	return false
}

func addDirsRecursive(watcher *fsnotify.Watcher, root string) error {
	return filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return nil
		}
		if !info.IsDir() {
			return nil
		}
		return watcher.Add(path)
	})
}
