package battle

import (
	"context"

	"github.com/towerclash/battlesync/internal/bus"
	"github.com/towerclash/battlesync/internal/model"
)

// SendPlacement appends a card placement to the battle's shared event
// log, tagged with the caller's role and the current clock. The append
// is a compare-and-swap on the document version with bounded retry, so
// simultaneous placements from both sides are both retained.
func (c *Controller) SendPlacement(ctx context.Context, session *Session, cardID string, cardIndex int, pos model.Position) (model.CardPlacementEvent, error) {
	event := model.CardPlacementEvent{
		CardID:    cardID,
		CardIndex: cardIndex,
		Position:  pos,
		Role:      session.Role(),
		Timestamp: c.clock.Now().UnixMilli(),
	}

	_, err := c.updateBattle(ctx, session.BattleID(), func(b *model.Battle) error {
		if b.Status == model.BattleStatusFinished {
			return model.ErrBattleFinished
		}
		b.GameState.Placements = append(b.GameState.Placements, event)
		return nil
	})
	if err != nil {
		return model.CardPlacementEvent{}, err
	}

	return event, nil
}

// Feed pumps battle change events into a session for the lifetime of a
// connection. Close it when the connection ends.
type Feed struct {
	sub  *bus.Subscription[model.Battle]
	done chan struct{}
}

// StartFeed subscribes the session to changes of its battle. Every
// change updates the session's status and snapshot and queues any new
// opponent placements past its watermark.
func (c *Controller) StartFeed(session *Session) *Feed {
	sub := c.changes.Subscribe(func(ev bus.Event[model.Battle]) bool {
		return ev.New.ID == session.BattleID()
	})

	f := &Feed{
		sub:  sub,
		done: make(chan struct{}),
	}

	go func() {
		defer close(f.done)
		for ev := range sub.Events() {
			battle := ev.New
			session.ingest(&battle)
		}
	}()

	return f
}

// Close detaches the feed from the battle change stream
func (f *Feed) Close() {
	f.sub.Close()
	<-f.done
}
