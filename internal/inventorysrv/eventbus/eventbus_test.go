package eventbus

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPublishSubscribe(t *testing.T) {
	bus := New()
	events, unsubscribe := bus.Subscribe("event.*", 4)
	all, unsubscribeAll := bus.Subscribe("*", 4)
	defer unsubscribeAll()

	bus.Publish("event.index", 1, 0)
	bus.Publish("notification.bom_processed", 2, 0)

	select {
	case e := <-events:
		assert.Equal(t, "event.index", e.Topic)
		assert.Equal(t, 1, e.Data)
	case <-time.After(time.Second):
		t.Fatal("event not delivered")
	}
	assert.Len(t, events, 0, "notification must not reach event subscribers")
	assert.Len(t, all, 2)

	unsubscribe()
	_, open := <-events
	assert.False(t, open)
	bus.Publish("event.index", 3, 0)
	assert.Len(t, all, 3)
}

func TestPublishDropsForSlowSubscribers(t *testing.T) {
	var dropped []string
	bus := New(WithDropHandler(func(topic string) { dropped = append(dropped, topic) }))
	ch, unsubscribe := bus.Subscribe("event.index", 1)
	defer unsubscribe()

	bus.Publish("event.index", "first", 0)
	start := time.Now()
	bus.Publish("event.index", "second", 0)
	bus.Publish("event.index", "third", 10*time.Millisecond)
	assert.Less(t, time.Since(start), time.Second)

	require.Len(t, ch, 1)
	assert.Equal(t, "first", (<-ch).Data)
	assert.Equal(t, []string{"event.index", "event.index"}, dropped)
}

func TestShutdown(t *testing.T) {
	bus := New()
	ch, unsubscribe := bus.Subscribe("a.b", 1)
	bus.Shutdown()
	_, open := <-ch
	assert.False(t, open)
	unsubscribe()
	bus.Publish("a.b", nil, 0)
}

func TestMatchTopic(t *testing.T) {
	assert.True(t, matchTopic("*", "a.b"))
	assert.True(t, matchTopic("a.*", "a.b"))
	assert.True(t, matchTopic("a.b", "a.b"))
	assert.False(t, matchTopic("a.*", "a.b.c"))
	assert.False(t, matchTopic("a.c", "a.b"))
	assert.False(t, matchTopic("", "a"))
}
