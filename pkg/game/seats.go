package game

// AssignSeat gives a joining client a seat. A client that already holds
// a seat keeps it. A session token bound to a seat reclaims exactly that
// seat, keeping its index; if the seat still shows a live occupant from
// an unclean disconnect, that occupant is superseded and its client ID
// returned so the caller can evict it. A client without a claim takes
// the lowest empty seat, or spectates when the game has started or the
// table is full.
func (r *Room) AssignSeat(clientID uint32, name, sessionID string) (seatIndex int, spectator bool, superseded uint32) {
	if i := r.SeatByClient(clientID); i >= 0 {
		return i, false, 0
	}

	if i := r.SeatBySession(sessionID); i >= 0 {
		seat := &r.Seats[i]
		if seat.Connected && seat.ClientID != 0 {
			superseded = seat.ClientID
		}
		seat.ClientID = clientID
		seat.Connected = true
		if name != "" {
			seat.Name = name
		}
		return i, false, superseded
	}

	if r.Started {
		return -1, true, 0
	}

	i := r.FirstEmptySeat()
	if i < 0 {
		return -1, true, 0
	}

	r.Seats[i] = Seat{
		Occupied:  true,
		Name:      name,
		SessionID: sessionID,
		ClientID:  clientID,
		Connected: true,
	}
	return i, false, 0
}

// MarkDisconnected flips the seat held by the given client to
// disconnected, keeping the seat occupied so its session can reclaim
// it. Returns the seat index, or -1 if the client held no seat.
func (r *Room) MarkDisconnected(clientID uint32) int {
	i := r.SeatByClient(clientID)
	if i < 0 {
		return -1
	}
	r.Seats[i].ClientID = 0
	r.Seats[i].Connected = false
	return i
}

// ReleaseSeat empties a seat entirely, dropping its session binding.
func (r *Room) ReleaseSeat(i int) {
	if i < 0 || i >= len(r.Seats) {
		return
	}
	r.Seats[i] = Seat{}
}

// CompactSeats shifts occupied seats down so that seating is contiguous
// and clears all ready flags. Only meaningful before the game starts;
// started games keep their seat indices stable.
func (r *Room) CompactSeats() {
	next := 0
	for i := range r.Seats {
		if !r.Seats[i].Occupied {
			continue
		}
		if i != next {
			r.Seats[next] = r.Seats[i]
			r.Seats[i] = Seat{}
		}
		next++
	}
	for i := range r.Seats {
		r.Seats[i].Ready = false
	}
}

// IsHost returns whether the given session token is the room's host.
func (r *Room) IsHost(sessionID string) bool {
	return sessionID != "" && sessionID == r.HostSession
}

// TransferHost rebinds the host token to the first seated player.
func (r *Room) TransferHost() {
	for i := range r.Seats {
		if r.Seats[i].Occupied {
			r.HostSession = r.Seats[i].SessionID
			return
		}
	}
	r.HostSession = ""
}

// HostName returns the display name of the seat holding the host token.
func (r *Room) HostName() string {
	for i := range r.Seats {
		if r.Seats[i].Occupied && r.Seats[i].SessionID == r.HostSession {
			return r.Seats[i].Name
		}
	}
	return ""
}
