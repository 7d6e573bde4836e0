package workers

import (
	"context"
	"time"

	gametypes "github.com/cbodonnell/tabletop/pkg/game/types"
	"github.com/cbodonnell/tabletop/pkg/log"
	"github.com/cbodonnell/tabletop/pkg/queue"
)

type RoomSweeperWorker struct {
	serverEventQueue queue.Queue
	interval         time.Duration
}

type NewRoomSweeperWorkerOptions struct {
	ServerEventQueue queue.Queue
	Interval         time.Duration
}

// NewRoomSweeperWorker creates a new RoomSweeperWorker.
// The worker periodically asks the game loop to sweep rooms past their
// TTL. The sweep itself runs on the game loop so that room state is
// only ever touched from one goroutine.
func NewRoomSweeperWorker(opts NewRoomSweeperWorkerOptions) *RoomSweeperWorker {
	return &RoomSweeperWorker{
		serverEventQueue: opts.ServerEventQueue,
		interval:         opts.Interval,
	}
}

func (w *RoomSweeperWorker) Start(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case t := <-ticker.C:
			if err := w.serverEventQueue.Enqueue(&gametypes.SweepRoomsEvent{Now: t}); err != nil {
				log.Error("Failed to enqueue sweep rooms event: %v", err)
			}
		}
	}
}
