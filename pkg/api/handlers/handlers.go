package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/cbodonnell/tabletop/pkg/log"
	"github.com/cbodonnell/tabletop/pkg/state"
)

// HandleListRooms serves the room directory published by the game loop.
func HandleListRooms(stateManager state.StateManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rooms, err := stateManager.Get(r.Context())
		if err != nil {
			log.Error("failed to get room directory: %v", err)
			http.Error(w, "Failed to list rooms", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(rooms); err != nil {
			log.Error("failed to encode rooms: %v", err)
			http.Error(w, "Failed to encode rooms", http.StatusInternalServerError)
			return
		}
	}
}
