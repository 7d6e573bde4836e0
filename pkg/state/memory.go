package state

import (
	"context"
	"sync"

	"github.com/cbodonnell/tabletop/pkg/messages"
)

type InMemoryStateManager struct {
	lock  sync.RWMutex
	rooms []messages.RoomInfo
}

func NewInMemoryStateManager() *InMemoryStateManager {
	return &InMemoryStateManager{
		rooms: []messages.RoomInfo{},
	}
}

func (m *InMemoryStateManager) Get(_ context.Context) ([]messages.RoomInfo, error) {
	m.lock.RLock()
	defer m.lock.RUnlock()
	rooms := make([]messages.RoomInfo, len(m.rooms))
	copy(rooms, m.rooms)
	return rooms, nil
}

func (m *InMemoryStateManager) Set(_ context.Context, rooms []messages.RoomInfo) error {
	m.lock.Lock()
	defer m.lock.Unlock()
	m.rooms = rooms
	return nil
}
