package access

import "github.com/spec-kit/portal-core/internal/domain"

// Outcome is the per-navigation result of the route guard.
type Outcome int

const (
	// Render shows the destination.
	Render Outcome = iota
	// ShowLoading renders a neutral waiting indicator while the session is
	// still resolving: not the destination, not a redirect.
	ShowLoading
	// RedirectLogin sends the caller to the login entry point.
	RedirectLogin
	// AccessDenied renders an in-place notice; the caller stays on the
	// attempted path.
	AccessDenied
)

func (o Outcome) String() string {
	switch o {
	case Render:
		return "render"
	case ShowLoading:
		return "loading"
	case RedirectLogin:
		return "redirect-login"
	case AccessDenied:
		return "access-denied"
	default:
		return "unknown"
	}
}

// GuardResult carries the outcome and, for AccessDenied, the reason.
type GuardResult struct {
	Outcome Outcome
	Reason  string
}

// SessionReader provides the current session snapshot.
type SessionReader interface {
	Snapshot() domain.Session
}

// RouteGuard gates navigation in two layers: is there a session at all, then
// is this specific destination permitted.
type RouteGuard struct {
	sessions SessionReader
}

// NewRouteGuard builds a guard over the given session source.
func NewRouteGuard(sessions SessionReader) *RouteGuard {
	return &RouteGuard{sessions: sessions}
}

// Check gates one navigation to the given entry.
func (g *RouteGuard) Check(entry domain.MenuEntry) GuardResult {
	snap := g.sessions.Snapshot()

	if snap.Loading {
		return GuardResult{Outcome: ShowLoading}
	}
	if !snap.Authenticated || snap.Identity == nil {
		return GuardResult{Outcome: RedirectLogin}
	}

	res := Resolve(snap.Identity, entry.Capability, entry.AdminOnly)
	switch res.Decision {
	case Allow:
		return GuardResult{Outcome: Render}
	case RedirectUnauthenticated:
		return GuardResult{Outcome: RedirectLogin}
	default:
		return GuardResult{Outcome: AccessDenied, Reason: res.Reason}
	}
}
