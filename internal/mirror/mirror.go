// Package mirror keeps in-memory views of the catalog and orders collections,
// fed by store subscriptions. Each snapshot wholesale-replaces the view, so
// readers always see a consistent collection. When the feed drops, the last
// good view stays served while the mirror reconnects.
package mirror

import (
	"context"
	"log"
	"time"

	"github.com/Abdi-Suufi/sweetshop/internal/docstore"
)

// Notifier surfaces mirror failures to the shopper-facing notification relay.
type Notifier interface {
	Error(message string)
}

const retryInterval = 2 * time.Second

// run is the shared watch loop: subscribe, apply snapshots, and on any feed
// failure notify, keep serving the last good view, and resubscribe after a
// pause. fail marks the view as no longer loading so consumers do not wait on
// a feed that is down.
func run(ctx context.Context, watcher docstore.Watcher, collection string, notify Notifier, failureMessage string, apply func(docstore.Snapshot), fail func()) {
	for {
		sub, err := watcher.Watch(ctx, collection)
		if err != nil {
			log.Printf("[Mirror] Watch %s failed: %v", collection, err)
			fail()
			if notify != nil {
				notify.Error(failureMessage)
			}
			if !sleep(ctx, retryInterval) {
				return
			}
			continue
		}

		for snap := range sub.Snapshots() {
			apply(snap)
		}
		sub.Close()

		if ctx.Err() != nil {
			return
		}
		if err := sub.Err(); err != nil {
			log.Printf("[Mirror] Subscription on %s ended: %v", collection, err)
			fail()
			if notify != nil {
				notify.Error(failureMessage)
			}
		}
		if !sleep(ctx, retryInterval) {
			return
		}
	}
}

func sleep(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
