package safe

import (
	"PPresence/logger"
)

// Go starts a goroutine that recovers from panic, so a misbehaving
// best-effort task (notification dispatch, fan-out relay) cannot crash
// the process.
func Go(f func()) {
	go func() {
		defer func() {
			if r := recover(); r != nil {
				logger.Errorf("[safe] panic recovered: %v", r)
			}
		}()
		f()
	}()
}
