// Package safego keeps background goroutines from taking the gateway
// down with them.
package safego

import (
	"go.uber.org/zap"
)

// Go runs fn on a new goroutine and converts a panic into an error log.
// The gateway's background work (template watcher, feed hub, Telegram
// polling) must survive a bad iteration; only the caller knows whether
// to restart, so nothing is retried here.
func Go(logger *zap.Logger, name string, fn func()) {
	go func() {
		defer func() {
			if r := recover(); r != nil {
				logger.Error("Background goroutine panicked",
					zap.String("goroutine", name),
					zap.Any("panic", r),
					zap.Stack("stack"),
				)
			}
		}()
		fn()
	}()
}
