package api

import (
	"net/http"

	"github.com/jmcleod/agentgate/cookie"
)

// msgInvalidCredentials is shared by unknown users and wrong passwords.
const msgInvalidCredentials = "invalid username or password"

// Login handles POST /api/login.
func (a *API) Login(w http.ResponseWriter, r *http.Request) {
	req := decodeJSON[LoginRequest](r)

	user, ok := a.users.Authenticate(req.Username, req.Password)
	if !ok {
		a.events.logFailure(EventLoginFailure, r, "invalid credentials")
		writeError(w, http.StatusUnauthorized, msgInvalidCredentials)
		return
	}

	token, err := a.sessions.Create(user.Username, user.AllowedPages)
	if err != nil {
		a.logger.Error("creating session", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to create session")
		return
	}
	a.cookies.Write(w, token)

	a.events.logUser(EventLoginSuccess, r, user.Username)
	writeJSON(w, http.StatusOK, LoginResponse{
		Message:      "login successful",
		AllowedPages: nonNil(user.AllowedPages),
	})
}

// Logout handles POST /api/logout. It succeeds whether or not a session
// existed.
func (a *API) Logout(w http.ResponseWriter, r *http.Request) {
	var username string
	if token, ok := cookie.Extract(r); ok {
		if sess, ok := a.sessions.Get(token); ok {
			username = sess.Username
		}
		a.sessions.Delete(token)
	}
	a.cookies.Clear(w)
	a.events.logUser(EventLogout, r, username)
	writeJSON(w, http.StatusOK, MessageResponse{Message: "logged out"})
}

// SessionStatus handles GET /api/session.
func (a *API) SessionStatus(w http.ResponseWriter, r *http.Request) {
	sess, ok := a.currentSession(r)
	if !ok {
		writeJSON(w, http.StatusOK, SessionResponse{AllowedPages: []string{}})
		return
	}
	writeJSON(w, http.StatusOK, SessionResponse{
		Authenticated: true,
		Username:      &sess.Username,
		AllowedPages:  nonNil(sess.AllowedPages),
	})
}

func nonNil(pages []string) []string {
	if pages == nil {
		return []string{}
	}
	return pages
}
