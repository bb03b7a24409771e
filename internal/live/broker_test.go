package live_test

import (
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chatroom/internal/live"
)

func TestBrokerDeliversInPublishOrder(t *testing.T) {
	b := live.NewBroker[int]()

	var got []int
	cancel := b.Subscribe(func(v int) { got = append(got, v) })
	defer cancel()

	b.Publish(1)
	b.Publish(2)
	b.Publish(3)

	assert.Equal(t, []int{1, 2, 3}, got)
}

func TestBrokerReplaysLastOnSubscribe(t *testing.T) {
	b := live.NewBroker[string]()
	b.Publish("snapshot")

	var got []string
	cancel := b.Subscribe(func(v string) { got = append(got, v) })
	defer cancel()

	assert.Equal(t, []string{"snapshot"}, got)
}

func TestBrokerNoReplayBeforeFirstPublish(t *testing.T) {
	b := live.NewBroker[string]()

	calls := 0
	cancel := b.Subscribe(func(string) { calls++ })
	defer cancel()

	assert.Zero(t, calls)
}

func TestBrokerCancelStopsDeliveryImmediately(t *testing.T) {
	b := live.NewBroker[int]()

	var got []int
	cancel := b.Subscribe(func(v int) { got = append(got, v) })

	b.Publish(1)
	cancel()
	b.Publish(2)

	assert.Equal(t, []int{1}, got)
}

func TestBrokerCancelIsIdempotent(t *testing.T) {
	b := live.NewBroker[int]()

	cancel := b.Subscribe(func(int) {})
	cancel()
	cancel()

	var got []int
	other := b.Subscribe(func(v int) { got = append(got, v) })
	defer other()

	b.Publish(7)
	assert.Equal(t, []int{7}, got)
}

func TestBrokerReplayNeverTrailsConcurrentPublish(t *testing.T) {
	// A publish racing the attach must queue behind the replay: once the
	// newer snapshot has been delivered, the older one may not follow it.
	for i := 0; i < 2000; i++ {
		b := live.NewBroker[int]()
		b.Publish(1)

		var mu sync.Mutex
		var got []int
		done := make(chan struct{})
		go func() {
			defer close(done)
			b.Publish(2)
		}()
		cancel := b.Subscribe(func(v int) {
			mu.Lock()
			got = append(got, v)
			mu.Unlock()
		})
		<-done
		cancel()

		for j := 1; j < len(got); j++ {
			if got[j] < got[j-1] {
				t.Fatalf("stale snapshot delivered after a fresh one: %v", got)
			}
		}
	}
}

func TestBrokerSubscribeCurrentDeliversToNewSubscriberOnly(t *testing.T) {
	b := live.NewBroker[int]()

	var existing []int
	cancelExisting := b.Subscribe(func(v int) { existing = append(existing, v) })
	defer cancelExisting()
	b.Publish(1)

	var got []int
	cancel, err := b.SubscribeCurrent(func(v int) { got = append(got, v) }, func() (int, error) {
		return 9, nil
	})
	require.NoError(t, err)
	defer cancel()

	assert.Equal(t, []int{9}, got)
	assert.Equal(t, []int{1}, existing, "attaching a watcher must not re-notify the others")

	b.Publish(2)
	assert.Equal(t, []int{9, 2}, got)
	assert.Equal(t, []int{1, 2}, existing)
}

func TestBrokerSubscribeCurrentLoadFailureDiscardsSubscriber(t *testing.T) {
	b := live.NewBroker[int]()

	calls := 0
	cancel, err := b.SubscribeCurrent(func(int) { calls++ }, func() (int, error) {
		return 0, errors.New("load failed")
	})
	require.Error(t, err)
	assert.Nil(t, cancel)

	b.Publish(1)
	assert.Zero(t, calls)
}

func TestBrokerFansOutToAllSubscribers(t *testing.T) {
	b := live.NewBroker[int]()

	var a, c []int
	cancelA := b.Subscribe(func(v int) { a = append(a, v) })
	defer cancelA()
	cancelC := b.Subscribe(func(v int) { c = append(c, v) })
	defer cancelC()

	b.Publish(42)

	assert.Equal(t, []int{42}, a)
	assert.Equal(t, []int{42}, c)
}
