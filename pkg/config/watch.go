package config

import (
	"fmt"

	"github.com/fsnotify/fsnotify"
)

// Watch reloads the global configuration whenever the config file changes.
// onReload is invoked after each successful reload; reload errors keep the
// previous configuration and are reported through onError. Watch blocks
// until stop is closed.
func Watch(stop <-chan struct{}, onReload func(*GatehouseConfig), onError func(error)) error {
	path := Get().ConfigFilePath()

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer func() { _ = watcher.Close() }()

	if err := watcher.Add(path); err != nil {
		return fmt.Errorf("failed to watch file %s: %w", path, err)
	}

	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Op&fsnotify.Write == fsnotify.Write || event.Op&fsnotify.Create == fsnotify.Create {
				if err := Reload(); err != nil {
					if onError != nil {
						onError(err)
					}
					continue
				}
				if onReload != nil {
					onReload(Get())
				}
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			if onError != nil {
				onError(err)
			}
		case <-stop:
			return nil
		}
	}
}
