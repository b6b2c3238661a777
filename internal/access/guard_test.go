package access

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/spec-kit/portal-core/internal/domain"
)

// staticSession satisfies SessionReader with a fixed snapshot.
type staticSession struct {
	session domain.Session
}

func (s staticSession) Snapshot() domain.Session {
	return s.session
}

func TestRouteGuard_LoadingShowsWaitIndicator(t *testing.T) {
	guard := NewRouteGuard(staticSession{session: domain.Session{Loading: true}})

	result := guard.Check(domain.MenuEntry{Path: "/dashboard", Capability: domain.CapabilityDashboard})
	assert.Equal(t, ShowLoading, result.Outcome)
}

func TestRouteGuard_UnauthenticatedRedirectsToLogin(t *testing.T) {
	guard := NewRouteGuard(staticSession{session: domain.Session{}})

	result := guard.Check(domain.MenuEntry{Path: "/dashboard", Capability: domain.CapabilityDashboard})
	assert.Equal(t, RedirectLogin, result.Outcome)
}

func TestRouteGuard_AuthenticatedFlagWithoutIdentityRedirects(t *testing.T) {
	// transient inconsistency: authenticated flag set but identity missing
	guard := NewRouteGuard(staticSession{session: domain.Session{Authenticated: true}})

	result := guard.Check(domain.MenuEntry{Path: "/dashboard"})
	assert.Equal(t, RedirectLogin, result.Outcome)
}

func TestRouteGuard_DeniedStaysInPlace(t *testing.T) {
	guard := NewRouteGuard(staticSession{session: domain.Session{
		Authenticated: true,
		Identity:      employeeIdentity(domain.PermissionSet{domain.CapabilityLeads: true}),
	}})

	result := guard.Check(domain.MenuEntry{Path: "/analytics", Capability: domain.CapabilityAnalytics})
	assert.Equal(t, AccessDenied, result.Outcome)
	assert.Equal(t, ReasonMissingCapability, result.Reason)

	result = guard.Check(domain.MenuEntry{Path: "/admin", Capability: domain.CapabilityAdmin, AdminOnly: true})
	assert.Equal(t, AccessDenied, result.Outcome)
	assert.Equal(t, ReasonAdminRequired, result.Reason)
}

func TestRouteGuard_AllowedRenders(t *testing.T) {
	guard := NewRouteGuard(staticSession{session: domain.Session{
		Authenticated: true,
		Identity:      employeeIdentity(domain.PermissionSet{domain.CapabilityLeads: true}),
	}})

	result := guard.Check(domain.MenuEntry{Path: "/leads", Capability: domain.CapabilityLeads})
	assert.Equal(t, Render, result.Outcome)
	assert.Empty(t, result.Reason)
}
