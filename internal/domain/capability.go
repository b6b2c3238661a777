package domain

// Capability names a boolean permission gating one feature area of the portal.
type Capability string

const (
	CapabilityDashboard  Capability = "dashboard"
	CapabilityAdmin      Capability = "admin"
	CapabilityLeads      Capability = "leads"
	CapabilityStudents   Capability = "students"
	CapabilityCourses    Capability = "courses"
	CapabilityTasks      Capability = "tasks"
	CapabilityAnalytics  Capability = "analytics"
	CapabilityProjects   Capability = "projects"
	CapabilityAttendance Capability = "attendance"
	CapabilityLeaves     Capability = "leaves"
	CapabilitySettings   Capability = "settings"
)

// Capabilities returns every capability the portal recognizes, in a stable order.
func Capabilities() []Capability {
	return []Capability{
		CapabilityDashboard,
		CapabilityAdmin,
		CapabilityLeads,
		CapabilityStudents,
		CapabilityCourses,
		CapabilityTasks,
		CapabilityAnalytics,
		CapabilityProjects,
		CapabilityAttendance,
		CapabilityLeaves,
		CapabilitySettings,
	}
}

// PermissionSet maps capabilities to explicit grants. Keys absent from the map
// are not granted; there is no implicit default.
type PermissionSet map[Capability]bool

// Granted reports whether the capability is explicitly granted.
func (p PermissionSet) Granted(c Capability) bool {
	return p[c]
}
