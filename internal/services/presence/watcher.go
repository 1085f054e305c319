package presence

import (
	"context"
	"sync"
	"time"

	"github.com/towerclash/battlesync/internal/model"
)

// offlineBeaconTimeout bounds the final offline write on Close. The
// write is detached from the caller and never awaited.
const offlineBeaconTimeout = 5 * time.Second

// Watcher keeps a single player's presence fresh for the lifetime of
// one connection. All heartbeat state lives here, scoped to the
// connection that created it.
type Watcher struct {
	service  *Service
	playerID model.PlayerID
	interval time.Duration

	mu         sync.Mutex
	foreground bool
	closed     bool

	stop chan struct{}
	done chan struct{}
}

func newWatcher(service *Service, playerID model.PlayerID, interval time.Duration) *Watcher {
	w := &Watcher{
		service:    service,
		playerID:   playerID,
		interval:   interval,
		foreground: true,
		stop:       make(chan struct{}),
		done:       make(chan struct{}),
	}

	w.service.UpdatePresence(context.Background(), w.playerID, true)
	go w.run()

	return w
}

// SetForeground flips the player's visibility state and writes it
// through immediately. Backgrounded players stop heartbeating until
// foregrounded again. The write happens under the watcher lock so a
// concurrent heartbeat cannot reorder past it.
func (w *Watcher) SetForeground(foreground bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return
	}
	w.foreground = foreground
	w.service.UpdatePresence(context.Background(), w.playerID, foreground)
}

// Close stops the heartbeat and fires a final offline write. The write
// runs detached with its own timeout so a slow store cannot stall
// connection teardown; its result is not awaited.
func (w *Watcher) Close() {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return
	}
	w.closed = true
	w.mu.Unlock()

	close(w.stop)
	<-w.done

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), offlineBeaconTimeout)
		defer cancel()
		w.service.GoOffline(ctx, w.playerID)
	}()
}

func (w *Watcher) run() {
	defer close(w.done)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			w.mu.Lock()
			if w.foreground && !w.closed {
				w.service.UpdatePresence(context.Background(), w.playerID, true)
			}
			w.mu.Unlock()
		case <-w.stop:
			return
		}
	}
}
