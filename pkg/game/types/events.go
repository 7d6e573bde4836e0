package types

import "time"

type ConnectClientEvent struct {
	ClientID uint32
}

type DisconnectClientEvent struct {
	ClientID uint32
}

type SweepRoomsEvent struct {
	Now time.Time
}
