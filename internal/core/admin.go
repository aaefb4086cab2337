package core

import (
	"encoding/json"
	"net/http"
)

// AdminSnapshot is the JSON view of a Service's observational state exposed
// via AdminHandler, grounded on the teacher's webui.go handler pattern.
type AdminSnapshot struct {
	Service         string `json:"service"`
	StoredMessages  int    `json:"stored_messages"`
	HandleCount     int    `json:"handle_count"`
	UnhandledDepth  int    `json:"unhandled_depth"`
}

// Snapshot returns the current administrative view of s: the combined
// in-flight and unhandled population size, the live handle count, and the
// unhandled store's depth.
func (s *Service) Snapshot() AdminSnapshot {
	s.handleMu.Lock()
	handleCount := len(s.handles)
	s.handleMu.Unlock()

	return AdminSnapshot{
		Service:        s.name,
		StoredMessages: s.StoredMessagesCount(),
		HandleCount:    handleCount,
		UnhandledDepth: s.unhandled.Len(),
	}
}

// AdminHandler serves s's Snapshot as JSON, for wiring into an operator's
// HTTP mux under e.g. "/api/services/{name}".
func (s *Service) AdminHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(s.Snapshot()); err != nil {
			s.logger.Error("failed to encode admin snapshot", err, nil)
			http.Error(w, "internal server error", http.StatusInternalServerError)
		}
	})
}

// RemoveStoredMessageHandler serves the remove_stored_message operation
// (spec §6) over HTTP, taking the UUID from the "uuid" query parameter.
func (s *Service) RemoveStoredMessageHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		uuid := r.URL.Query().Get("uuid")
		if uuid == "" {
			http.Error(w, "missing uuid parameter", http.StatusBadRequest)
			return
		}
		s.RemoveStoredMessage(uuid)
		w.WriteHeader(http.StatusNoContent)
	})
}
