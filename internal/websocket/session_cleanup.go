package websocket

import (
	"time"

	"go.uber.org/zap"
)

// IdleReaper disconnects clients that have gone silent. Browsers that lose
// power or network without a close frame would otherwise hold a live
// upstream connection open indefinitely.
type IdleReaper struct {
	hub      *Hub
	timeout  time.Duration
	logger   *zap.Logger
	stopChan chan struct{}
}

// NewIdleReaper creates an idle reaper for the hub. A non-positive timeout
// falls back to the default.
func NewIdleReaper(hub *Hub, timeout time.Duration, logger *zap.Logger) *IdleReaper {
	if timeout <= 0 {
		timeout = idleTimeout
	}
	return &IdleReaper{
		hub:      hub,
		timeout:  timeout,
		logger:   logger,
		stopChan: make(chan struct{}),
	}
}

// Start begins the background reap process
func (r *IdleReaper) Start() {
	go r.reapLoop()
	r.logger.Info("Idle reaper started", zap.Duration("timeout", r.timeout))
}

// Stop gracefully stops the reaper
func (r *IdleReaper) Stop() {
	close(r.stopChan)
	r.logger.Info("Idle reaper stopped")
}

// reapLoop runs the reap process periodically
func (r *IdleReaper) reapLoop() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-r.stopChan:
			return
		case <-ticker.C:
			if n := r.hub.CloseIdle(time.Now().Add(-r.timeout)); n > 0 {
				r.logger.Info("Reaped idle clients", zap.Int("count", n))
			}
		}
	}
}
