package access

import "github.com/spec-kit/portal-core/internal/domain"

// Decision is the outcome of a permission resolution.
type Decision int

const (
	// Allow renders the requested destination.
	Allow Decision = iota
	// Deny keeps the caller on the attempted path with an access notice.
	Deny
	// RedirectUnauthenticated sends the caller to the login entry point.
	RedirectUnauthenticated
)

// Deny reasons.
const (
	ReasonAdminRequired     = "admin access required"
	ReasonMissingCapability = "missing capability"
)

// Resolution pairs a decision with its reason, which is empty for Allow.
type Resolution struct {
	Decision Decision
	Reason   string
}

// Resolve decides whether an identity may reach a destination. First match
// wins:
//
//  1. no identity: redirect to login
//  2. admin role: allow, before the admin-only check, so admins are never
//     blocked by stale permission records
//  3. admin-only destination: deny
//  4. required capability not granted: deny (absent keys are not granted)
//  5. allow
//
// Pure; safe to call on every render. Pass an empty capability when the
// destination needs none.
func Resolve(identity *domain.Identity, capability domain.Capability, adminOnly bool) Resolution {
	if identity == nil {
		return Resolution{Decision: RedirectUnauthenticated}
	}
	if identity.Role.IsAdmin() {
		return Resolution{Decision: Allow}
	}
	if adminOnly {
		return Resolution{Decision: Deny, Reason: ReasonAdminRequired}
	}
	if capability != "" && !identity.Permissions.Granted(capability) {
		return Resolution{Decision: Deny, Reason: ReasonMissingCapability}
	}
	return Resolution{Decision: Allow}
}
