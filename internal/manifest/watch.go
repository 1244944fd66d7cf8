package manifest

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Watch rebuilds the graph whenever a manifest under rootDir changes and
// hands the result to onReload. Rebuilds are debounced so editors that
// write in several events trigger one build. Failed builds are reported to
// onReload with a nil graph and the build error; the previous graph stays
// in effect. Watch blocks until ctx is done.
func Watch(ctx context.Context, rootDir string, onReload func(*Graph, error)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	if err := addDirs(watcher, rootDir); err != nil {
		return err
	}

	const debounce = 250 * time.Millisecond
	var timer *time.Timer
	var timerC <-chan time.Time

	rebuild := func() {
		disc, err := NewFileSystemDiscovery(rootDir)
		if err != nil {
			onReload(nil, err)
			return
		}
		graph, err := Build(ctx, disc)
		onReload(graph, err)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Op.Has(fsnotify.Create) {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					_ = addDirs(watcher, event.Name)
				}
			}
			if !strings.HasSuffix(event.Name, ManifestSuffix) {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(debounce)
				timerC = timer.C
			} else {
				timer.Reset(debounce)
			}
		case <-timerC:
			timer = nil
			timerC = nil
			rebuild()
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			onReload(nil, err)
		}
	}
}

func addDirs(watcher *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, entry os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if entry.IsDir() {
			return watcher.Add(path)
		}
		return nil
	})
}
