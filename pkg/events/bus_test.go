package events

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type pingEvent struct {
	Event string `json:"event"`
	Seq   int    `json:"seq"`
}

func (e pingEvent) EventType() string { return e.Event }

func TestBusDeliversInOrder(t *testing.T) {
	bus := NewBus()
	defer bus.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var mu sync.Mutex
	var got []int
	var types []string
	require.NoError(t, bus.Subscribe(ctx, TopicOutbound, func(_ context.Context, eventType string, payload []byte) error {
		var ev pingEvent
		if err := json.Unmarshal(payload, &ev); err != nil {
			return err
		}
		mu.Lock()
		got = append(got, ev.Seq)
		types = append(types, eventType)
		mu.Unlock()
		return nil
	}))

	for i := 0; i < 50; i++ {
		require.NoError(t, bus.Publish(TopicOutbound, pingEvent{Event: "ping", Seq: i}))
	}

	assert.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(got) == 50
	}, time.Second, 5*time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	for i, seq := range got {
		assert.Equal(t, i, seq)
	}
	assert.Equal(t, "ping", types[0])
}

func TestBusPublishWithoutSubscribers(t *testing.T) {
	bus := NewBus()
	defer bus.Close()

	assert.NoError(t, bus.Publish(TopicOutbound, pingEvent{Event: "ping"}))
}
