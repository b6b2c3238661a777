package domain

// SessionState is the coarse lifecycle position of the session.
type SessionState string

const (
	SessionLoading         SessionState = "LOADING"
	SessionAuthenticated   SessionState = "AUTHENTICATED"
	SessionUnauthenticated SessionState = "UNAUTHENTICATED"
)

// Session is the single source of truth for the signed-in state. It is created
// once per process with Loading=true and is only ever mutated by the session
// store; everything else reads snapshots.
type Session struct {
	Identity      *Identity
	Authenticated bool
	Loading       bool
	Err           string
}

// State derives the lifecycle position. A loading session reports
// SessionLoading regardless of the previous authenticated flag.
func (s Session) State() SessionState {
	switch {
	case s.Loading:
		return SessionLoading
	case s.Authenticated:
		return SessionAuthenticated
	default:
		return SessionUnauthenticated
	}
}
