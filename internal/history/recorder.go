package history

import (
	"context"

	"github.com/zjrosen/procwatch/internal/log"
	"github.com/zjrosen/procwatch/internal/poller"
	"github.com/zjrosen/procwatch/internal/pubsub"
)

// Recorder writes observed poller snapshots to a Store.
type Recorder struct {
	store *Store
}

// NewRecorder creates a recorder backed by store.
func NewRecorder(store *Store) *Recorder {
	return &Recorder{store: store}
}

// Run records every ObservedEvent from events until the channel closes or
// ctx is done. Failed fetches are not recorded. Store errors are logged and
// do not stop recording.
func (r *Recorder) Run(ctx context.Context, events <-chan pubsub.Event[poller.Snapshot]) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			if ev.Type != pubsub.ObservedEvent || ev.Payload.Entry == nil {
				continue
			}
			snap := ev.Payload
			// The final snapshot can arrive just as ctx is cancelled.
			if _, err := r.store.Record(context.WithoutCancel(ctx), snap.ID, snap.Entry.Status, snap.ObservedAt); err != nil {
				log.ErrorErr(log.CatHistory, "Failed to record snapshot", err, "id", snap.ID, "seq", snap.Seq)
			}
		}
	}
}
