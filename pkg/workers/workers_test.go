package workers

import (
	"context"
	"testing"
	"time"

	gametypes "github.com/cbodonnell/tabletop/pkg/game/types"
	"github.com/cbodonnell/tabletop/pkg/network"
	"github.com/cbodonnell/tabletop/pkg/queue"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func drainOne(t *testing.T, q queue.Queue) interface{} {
	t.Helper()
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		items, err := q.ReadAllMessages()
		require.NoError(t, err)
		if len(items) > 0 {
			return items[0]
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("timed out waiting for a queued event")
	return nil
}

func TestConnectionEventWorker(t *testing.T) {
	clientEventChan := make(chan network.ClientEvent, 2)
	serverEventQueue := queue.NewInMemoryQueue(8)
	worker := NewConnectionEventWorker(NewConnectionEventWorkerOptions{
		ClientEventChan:  clientEventChan,
		ServerEventQueue: serverEventQueue,
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go worker.Start(ctx)

	clientEventChan <- network.ClientEvent{ClientID: 7, Type: network.ClientEventTypeConnect}
	event := drainOne(t, serverEventQueue)
	connect, ok := event.(*gametypes.ConnectClientEvent)
	require.True(t, ok, "expected ConnectClientEvent, got %T", event)
	assert.Equal(t, uint32(7), connect.ClientID)

	clientEventChan <- network.ClientEvent{ClientID: 7, Type: network.ClientEventTypeDisconnect}
	event = drainOne(t, serverEventQueue)
	disconnect, ok := event.(*gametypes.DisconnectClientEvent)
	require.True(t, ok, "expected DisconnectClientEvent, got %T", event)
	assert.Equal(t, uint32(7), disconnect.ClientID)
}

func TestRoomSweeperWorker(t *testing.T) {
	serverEventQueue := queue.NewInMemoryQueue(8)
	worker := NewRoomSweeperWorker(NewRoomSweeperWorkerOptions{
		ServerEventQueue: serverEventQueue,
		Interval:         10 * time.Millisecond,
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go worker.Start(ctx)

	event := drainOne(t, serverEventQueue)
	sweep, ok := event.(*gametypes.SweepRoomsEvent)
	require.True(t, ok, "expected SweepRoomsEvent, got %T", event)
	assert.False(t, sweep.Now.IsZero())
}
