package reload

import (
	"context"
	"sync"
	"time"

	"github.com/go-logr/logr"
	"github.com/knadh/koanf/providers/file"
)

// DebounceDuration is how long a file must stay unchanged before cb runs.
// Editors often write a file in several steps.
var DebounceDuration = 100 * time.Millisecond

// Watch calls cb whenever the file at path changes until ctx is canceled.
// It returns once watching started. Errors of cb are logged.
func Watch(ctx context.Context, path string, cb func() error) error {
	if ctx.Err() != nil {
		return nil
	}
	log := logr.FromContextOrDiscard(ctx).WithValues("path", path)

	var (
		mu            sync.Mutex
		debounceTimer *time.Timer
	)
	provider := file.Provider(path)
	err := provider.Watch(func(_ any, err error) {
		if ctx.Err() != nil {
			return
		}
		if err != nil {
			log.Info("failed watching config", "error", err)
			return
		}

		mu.Lock()
		defer mu.Unlock()
		if debounceTimer != nil {
			debounceTimer.Stop()
		}
		debounceTimer = time.AfterFunc(DebounceDuration, func() {
			mu.Lock()
			defer mu.Unlock()
			if ctx.Err() != nil {
				return
			}

			log.Info("auto-reloading config")
			start := time.Now()
			if err := cb(); err != nil {
				log.Info("failed to reload config", "error", err)
				return
			}
			log.Info("reloaded config successfully", "duration", time.Since(start).Round(time.Millisecond).String())
		})
	})
	if err != nil {
		return err
	}
	go func() {
		<-ctx.Done()
		_ = provider.Unwatch()
	}()
	return nil
}
