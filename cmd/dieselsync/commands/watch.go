package commands

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog/log"
)

// schemaWatcher calls onChange after the schema file is written, created or
// replaced. Events arriving within the debounce window trigger one call.
type schemaWatcher struct {
	watcher  *fsnotify.Watcher
	path     string
	debounce time.Duration
	onChange func()
}

// newSchemaWatcher watches the directory containing path, so editors that
// save by renaming a temp file over the original are noticed.
func newSchemaWatcher(path string, debounce time.Duration, onChange func()) (*schemaWatcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolving schema path: %w", err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}
	if err := watcher.Add(filepath.Dir(abs)); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("failed to watch directory %s: %w", filepath.Dir(abs), err)
	}

	return &schemaWatcher{
		watcher:  watcher,
		path:     abs,
		debounce: debounce,
		onChange: onChange,
	}, nil
}

// Start blocks until ctx is done or the watcher fails.
func (sw *schemaWatcher) Start(ctx context.Context) error {
	var timer *time.Timer
	var fire <-chan time.Time
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-sw.watcher.Events:
			if !ok {
				return fmt.Errorf("watcher channel closed")
			}
			if !sw.shouldTrigger(event) {
				continue
			}
			log.Debug().Str("path", event.Name).Str("op", event.Op.String()).Msg("schema changed")
			if timer == nil {
				timer = time.NewTimer(sw.debounce)
			} else {
				timer.Reset(sw.debounce)
			}
			fire = timer.C

		case <-fire:
			fire = nil
			sw.onChange()

		case err, ok := <-sw.watcher.Errors:
			if !ok {
				return fmt.Errorf("watcher error channel closed")
			}
			if err != nil {
				log.Warn().Err(err).Msg("watcher error")
			}
		}
	}
}

func (sw *schemaWatcher) shouldTrigger(event fsnotify.Event) bool {
	if filepath.Clean(event.Name) != sw.path {
		return false
	}
	return event.Op.Has(fsnotify.Write) || event.Op.Has(fsnotify.Create) || event.Op.Has(fsnotify.Rename)
}

// Close stops the watcher.
func (sw *schemaWatcher) Close() error {
	return sw.watcher.Close()
}
