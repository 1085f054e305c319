package matchmaking

import (
	"sync"

	"github.com/towerclash/battlesync/internal/bus"
	"github.com/towerclash/battlesync/internal/model"
)

// watchBuffer is the capacity of a Watch's change channel. A consumer
// that falls behind misses intermediate changes; the next change
// prompts a re-fetch anyway.
const watchBuffer = 16

// Watch is a live view over one player's battle requests. Changes()
// surfaces every insert, update, and delete touching the player so the
// consumer can re-fetch; MatchFound() fires at most once, when any
// request involving the player transitions to accepted.
type Watch struct {
	sub        *bus.Subscription[model.BattleRequest]
	changes    chan bus.Event[model.BattleRequest]
	matchFound chan model.BattleRequest
	matchOnce  sync.Once
}

// Watch opens a live view scoped to requests sent by or addressed to
// the player. Close it when done.
func (s *Service) Watch(playerID model.PlayerID) *Watch {
	sub := s.changes.Subscribe(func(ev bus.Event[model.BattleRequest]) bool {
		return ev.New.FromID == playerID || ev.New.ToID == playerID
	})

	w := &Watch{
		sub:        sub,
		changes:    make(chan bus.Event[model.BattleRequest], watchBuffer),
		matchFound: make(chan model.BattleRequest, 1),
	}
	go w.run()
	return w
}

// Changes returns the change feed. Closed when the watch closes.
func (w *Watch) Changes() <-chan bus.Event[model.BattleRequest] {
	return w.changes
}

// MatchFound yields the accepted request, at most once per watch.
// It fires regardless of which side performed the transition. The
// channel is closed without a value when the watch closes before any
// match is found.
func (w *Watch) MatchFound() <-chan model.BattleRequest {
	return w.matchFound
}

// Close tears down the watch
func (w *Watch) Close() {
	w.sub.Close()
}

func (w *Watch) run() {
	defer close(w.changes)
	// Release anyone still blocked on MatchFound. The once guard keeps
	// a delivered match readable from the buffer.
	defer w.matchOnce.Do(func() { close(w.matchFound) })

	for ev := range w.sub.Events() {
		if ev.New.Status == model.RequestStatusAccepted && ev.Old.Status != model.RequestStatusAccepted {
			accepted := ev.New
			w.matchOnce.Do(func() {
				w.matchFound <- accepted
			})
		}

		select {
		case w.changes <- ev:
		default:
		}
	}
}
