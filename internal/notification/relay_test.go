package notification

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPublishAndRecent(t *testing.T) {
	relay := NewRelay(time.Minute)
	defer relay.Close()

	relay.Success("Order placed successfully!")
	relay.Error("There was an issue placing your order.")

	recent := relay.Recent()
	require.Len(t, recent, 2)
	assert.Equal(t, KindSuccess, recent[0].Kind)
	assert.Equal(t, "Order placed successfully!", recent[0].Message)
	assert.Equal(t, KindError, recent[1].Kind)
	assert.NotEmpty(t, recent[0].ID)
}

func TestEntriesExpire(t *testing.T) {
	relay := NewRelay(20 * time.Millisecond)
	defer relay.Close()

	relay.Info("Signed in.")
	require.Len(t, relay.Recent(), 1)

	assert.Eventually(t, func() bool {
		return len(relay.Recent()) == 0
	}, time.Second, 5*time.Millisecond)
}

func TestDismissRemovesEarly(t *testing.T) {
	relay := NewRelay(time.Minute)
	defer relay.Close()

	n := relay.Publish(KindInfo, "Signed in.")
	relay.Dismiss(n.ID)
	assert.Empty(t, relay.Recent())

	// Unknown ids are ignored.
	relay.Dismiss("nope")
}

func TestSubscribeReceivesPushes(t *testing.T) {
	relay := NewRelay(time.Minute)
	defer relay.Close()

	ch, cancel := relay.Subscribe()
	defer cancel()

	relay.Success("Order placed successfully!")

	select {
	case n := <-ch:
		assert.Equal(t, KindSuccess, n.Kind)
	case <-time.After(time.Second):
		t.Fatal("no notification delivered")
	}

	cancel()
	relay.Info("after cancel")
	select {
	case n, ok := <-ch:
		if ok {
			t.Fatalf("unexpected delivery after cancel: %v", n)
		}
	default:
	}
}

func TestOnPublishHook(t *testing.T) {
	relay := NewRelay(time.Minute)
	defer relay.Close()

	var kinds []string
	relay.OnPublish = func(kind string) { kinds = append(kinds, kind) }

	relay.Info("a")
	relay.Error("b")
	assert.Equal(t, []string{KindInfo, KindError}, kinds)
}
