package api

import "net/http"

func (s *Server) handleNotifications(w http.ResponseWriter, r *http.Request) {
	limit, ok := s.queryInt(w, r, "limit", 50, 200)
	if !ok {
		return
	}
	unread := r.URL.Query().Get("unread") == "true"
	list, err := s.Inbox.List(r.Context(), actor(r).ID, unread, limit)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"notifications": list})
}

func (s *Server) handleNotificationRead(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathID(w, r, "id")
	if !ok {
		return
	}
	if err := s.Inbox.MarkRead(r.Context(), actor(r).ID, id); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
