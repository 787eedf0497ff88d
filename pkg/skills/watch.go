package skills

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/jingkaihe/skillrunner/pkg/logger"
	"github.com/pkg/errors"
)

// DefaultDebounce is how long Watch waits for the tree to settle before
// rediscovering.
const DefaultDebounce = 500 * time.Millisecond

// ReloadFunc receives each rebuilt registry. err is set when rediscovery
// failed, in which case reg is nil.
type ReloadFunc func(reg *Registry, err error)

// Watch rediscovers the skills under root whenever a file below it changes
// and hands every new registry to onReload. Registries are immutable, so the
// caller swaps the whole value rather than patching the old one. Watch blocks
// until ctx is done. The root itself must exist.
func Watch(ctx context.Context, root string, debounce time.Duration, onReload ReloadFunc, opts ...Option) error {
	d, err := NewDiscovery(root, opts...)
	if err != nil {
		return err
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	log := logger.G(ctx).WithField("skills_dir", root)

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return errors.Wrap(err, "failed to create file watcher")
	}
	defer watcher.Close()

	if err := addTree(watcher, root); err != nil {
		return errors.Wrapf(err, "failed to watch %s", root)
	}
	log.Debug("watching skills directory")

	timer := time.NewTimer(debounce)
	if !timer.Stop() {
		<-timer.C
	}
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Op&fsnotify.Chmod == event.Op {
				continue
			}
			if event.Op&fsnotify.Create != 0 {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					if err := addTree(watcher, event.Name); err != nil {
						log.WithError(err).WithField("directory", event.Name).Warn("failed to watch new directory")
					}
				}
			}
			log.WithField("file", event.Name).WithField("operation", event.Op.String()).Debug("skill change detected")
			timer.Reset(debounce)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			log.WithError(err).Error("error watching skills")
		case <-timer.C:
			reg, err := d.Discover(ctx)
			if err != nil {
				onReload(nil, err)
				continue
			}
			log.WithField("count", reg.Len()).Info("skills reloaded")
			onReload(reg, nil)
		}
	}
}

func addTree(watcher *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, entry os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !entry.IsDir() {
			return nil
		}
		if path != root && entry.Name() == ".git" {
			return filepath.SkipDir
		}
		return watcher.Add(path)
	})
}
