package orchestrator

import (
	"context"

	"github.com/richardthe3rd/cambridge-beer-festival-app-sub003/internal/tastinglog"
)

// enqueueSave queues the newest snapshot for a festival. The queue
// coalesces: a snapshot queued before the worker got to the previous
// one simply replaces it, so the backend only ever sees the latest
// state. The snapshot must be a clone the caller will not touch again.
func (o *Orchestrator) enqueueSave(festivalID string, snapshot tastinglog.Log) {
	o.saveMu.Lock()
	defer o.saveMu.Unlock()
	if o.savesClosed {
		return
	}
	o.pendingSave[festivalID] = snapshot
	select {
	case o.saveKick <- struct{}{}:
	default:
	}
}

// runSaves is the single save worker. It drains the queue on every
// kick and once more after the queue closes, so Close never loses an
// acknowledged mutation.
func (o *Orchestrator) runSaves() {
	for range o.saveKick {
		o.drainSaves()
	}
	o.drainSaves()
}

// drainSaves writes queued snapshots until the queue is empty. Writes
// happen outside saveMu; saveBusy marks the in-flight write so
// FlushSaves can wait for it.
func (o *Orchestrator) drainSaves() {
	for {
		o.saveMu.Lock()
		var festivalID string
		var snapshot tastinglog.Log
		found := false
		for fid, snap := range o.pendingSave {
			festivalID, snapshot, found = fid, snap, true
			break
		}
		if !found {
			o.saveCond.Broadcast()
			o.saveMu.Unlock()
			return
		}
		delete(o.pendingSave, festivalID)
		o.saveBusy = true
		o.saveMu.Unlock()

		// Saves are not cancellable: an acknowledged mutation must
		// reach the backend even during shutdown.
		err := o.store.Save(context.Background(), festivalID, snapshot)

		o.saveMu.Lock()
		o.saveBusy = false
		o.saveCond.Broadcast()
		o.saveMu.Unlock()

		if err != nil {
			o.logger.Error("cannot persist tasting log", "festival", festivalID, "error", err)
			o.publish(Event{Kind: EventSaveFailed, FestivalID: festivalID, Err: err})
		}
	}
}

// FlushSaves blocks until every queued snapshot has been written. The
// writes themselves stay on the worker, so flushing cannot reorder a
// flush write around an in-flight worker write.
func (o *Orchestrator) FlushSaves() {
	o.saveMu.Lock()
	for len(o.pendingSave) > 0 || o.saveBusy {
		o.saveCond.Wait()
	}
	o.saveMu.Unlock()
}
