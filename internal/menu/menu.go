package menu

import (
	"github.com/spec-kit/portal-core/internal/access"
	"github.com/spec-kit/portal-core/internal/domain"
)

// DefaultCatalog returns the portal's fixed navigation catalog. Order is part
// of the contract: entries render in this order and are never re-sorted.
func DefaultCatalog() []domain.MenuEntry {
	return []domain.MenuEntry{
		{Path: "/dashboard", Label: "Dashboard", Capability: domain.CapabilityDashboard},
		{Path: "/admin", Label: "Admin Panel", Capability: domain.CapabilityAdmin, AdminOnly: true},
		{Path: "/leads", Label: "Prospects", Capability: domain.CapabilityLeads},
		{Path: "/students", Label: "Employees", Capability: domain.CapabilityStudents},
		{Path: "/courses", Label: "Trainings", Capability: domain.CapabilityCourses},
		{Path: "/tasks", Label: "Tasks", Capability: domain.CapabilityTasks},
		{Path: "/analytics", Label: "Analytics", Capability: domain.CapabilityAnalytics},
		{Path: "/projects", Label: "Projects", Capability: domain.CapabilityProjects},
		{Path: "/settings", Label: "Settings", Capability: domain.CapabilitySettings},
	}
}

// Visible filters the catalog down to the entries the identity may see,
// preserving catalog order. Pure and deterministic: the result only changes
// when the identity's role or permission set changes.
func Visible(identity *domain.Identity, catalog []domain.MenuEntry) []domain.MenuEntry {
	visible := make([]domain.MenuEntry, 0, len(catalog))
	for _, entry := range catalog {
		if access.Resolve(identity, entry.Capability, entry.AdminOnly).Decision == access.Allow {
			visible = append(visible, entry)
		}
	}
	return visible
}
