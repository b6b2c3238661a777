package access

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/spec-kit/portal-core/internal/domain"
)

func adminIdentity() *domain.Identity {
	return &domain.Identity{
		ID:    "admin-1",
		Name:  "Ada",
		Email: "ada@example.com",
		Role:  domain.RoleAdmin,
		// deliberately empty: the role override must not depend on grants
		Permissions: domain.PermissionSet{},
	}
}

func employeeIdentity(perms domain.PermissionSet) *domain.Identity {
	return &domain.Identity{
		ID:          "emp-1",
		Name:        "Eve",
		Email:       "eve@example.com",
		Role:        domain.RoleEmployee,
		Permissions: perms,
	}
}

func TestResolve_NilIdentityRedirects(t *testing.T) {
	for _, adminOnly := range []bool{false, true} {
		res := Resolve(nil, domain.CapabilityLeads, adminOnly)
		assert.Equal(t, RedirectUnauthenticated, res.Decision)
	}
	res := Resolve(nil, "", false)
	assert.Equal(t, RedirectUnauthenticated, res.Decision)
}

func TestResolve_AdminOverridesEverything(t *testing.T) {
	identity := adminIdentity()

	for _, capability := range append(domain.Capabilities(), "") {
		for _, adminOnly := range []bool{false, true} {
			res := Resolve(identity, capability, adminOnly)
			assert.Equal(t, Allow, res.Decision,
				"capability %q adminOnly %v", capability, adminOnly)
		}
	}
}

func TestResolve_AdminOnlyDeniesNonAdmins(t *testing.T) {
	identity := employeeIdentity(domain.PermissionSet{domain.CapabilityAdmin: true})

	res := Resolve(identity, domain.CapabilityAdmin, true)
	assert.Equal(t, Deny, res.Decision)
	assert.Equal(t, ReasonAdminRequired, res.Reason)
}

func TestResolve_MissingCapabilityDenies(t *testing.T) {
	identity := employeeIdentity(domain.PermissionSet{domain.CapabilityLeads: true})

	tests := []struct {
		name       string
		capability domain.Capability
		want       Decision
	}{
		{name: "granted capability", capability: domain.CapabilityLeads, want: Allow},
		{name: "ungranted capability", capability: domain.CapabilityTasks, want: Deny},
		{name: "explicit false grant", capability: domain.CapabilitySettings, want: Deny},
		{name: "no capability required", capability: "", want: Allow},
	}

	identity.Permissions[domain.CapabilitySettings] = false

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := Resolve(identity, tt.capability, false)
			assert.Equal(t, tt.want, res.Decision)
			if tt.want == Deny {
				assert.Equal(t, ReasonMissingCapability, res.Reason)
			}
		})
	}
}

func TestResolve_NilPermissionMapDefaultsToDeny(t *testing.T) {
	identity := employeeIdentity(nil)

	res := Resolve(identity, domain.CapabilityDashboard, false)
	assert.Equal(t, Deny, res.Decision)
}
