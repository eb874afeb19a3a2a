package site

import (
	"context"
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"
)

// Watch watches dir, the OS directory behind the Source, recursively.
// Every write, create, remove or rename resets the snapshot and sends the
// changed path (slash separated, relative to dir) on the returned channel.
// The channel is closed when ctx is done or the watcher fails.
func (s *Source) Watch(ctx context.Context, dir string) (<-chan string, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := addTree(watcher, dir); err != nil {
		watcher.Close()
		return nil, err
	}

	changed := make(chan string)
	go func() {
		defer close(changed)
		defer watcher.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
					continue
				}
				if event.Op&fsnotify.Create == fsnotify.Create {
					// New directories are not covered by the existing watches.
					_ = addTree(watcher, event.Name)
				}
				if _, err := s.Reset(); err != nil && s.logger != nil {
					s.logger.Warn("snapshot reset failed", "error", err)
				}
				select {
				case changed <- relative(dir, event.Name):
				case <-ctx.Done():
					return
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				if s.logger != nil {
					s.logger.Error("watch failed", "dir", dir, "error", err)
				}
			}
		}
	}()
	return changed, nil
}

// addTree watches root and every directory below it. A root that is a
// plain file is ignored.
func addTree(watcher *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(name string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		return watcher.Add(name)
	})
}

func relative(dir, name string) string {
	rel, err := filepath.Rel(dir, name)
	if err != nil {
		rel = name
	}
	return strings.ReplaceAll(filepath.ToSlash(rel), "\\", "/")
}
