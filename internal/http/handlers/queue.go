package handlers

import (
	"net/http"

	"snapforge/internal/middleware"
)

// QueuePosition reports the caller's place in line alongside the session
// state.
func (a *App) QueuePosition(w http.ResponseWriter, r *http.Request) {
	id, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		a.error(w, http.StatusUnauthorized, "unauthorized", "identity required")
		return
	}
	a.json(w, http.StatusOK, a.Engine.Session(id).Status())
}

// LeaveQueue removes the caller from the line. Leaving while not queued is a
// no-op.
func (a *App) LeaveQueue(w http.ResponseWriter, r *http.Request) {
	id, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		a.error(w, http.StatusUnauthorized, "unauthorized", "identity required")
		return
	}
	sess := a.Engine.Session(id)
	sess.LeaveQueue()
	a.json(w, http.StatusOK, sess.Status())
}
