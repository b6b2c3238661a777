package domain

// Role classifies the signed-in actor. The set is open ended: the gateway may
// return role strings beyond the known constants, and unknown roles carry no
// special treatment.
type Role string

const (
	RoleAdmin    Role = "admin"
	RoleManager  Role = "manager"
	RoleEmployee Role = "employee"
)

// IsAdmin reports whether the role bypasses all capability checks.
func (r Role) IsAdmin() bool {
	return r == RoleAdmin
}

// ProjectMembership records that the identity belongs to a project with a
// project-scoped role.
type ProjectMembership struct {
	ProjectID   string `json:"projectId"`
	ProjectName string `json:"projectName"`
	Role        Role   `json:"role"`
}

// ActiveProject is the workspace currently selected as context.
type ActiveProject struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Identity is the authenticated actor's profile as returned by the gateway.
// The gateway is authoritative for every field; the engine never fabricates a
// project membership or recomputes ActiveProject locally.
type Identity struct {
	ID            string              `json:"id"`
	Name          string              `json:"name"`
	Email         string              `json:"email"`
	Role          Role                `json:"role"`
	Permissions   PermissionSet       `json:"permissions"`
	Projects      []ProjectMembership `json:"projects"`
	ActiveProject *ActiveProject      `json:"activeProject,omitempty"`
	IsActive      bool                `json:"isActive"`
}

// OwnsProject reports whether projectID appears in the identity's memberships.
func (i *Identity) OwnsProject(projectID string) bool {
	if i == nil {
		return false
	}
	for _, m := range i.Projects {
		if m.ProjectID == projectID {
			return true
		}
	}
	return false
}

// Clone returns a deep copy so snapshots cannot alias the store's state.
func (i *Identity) Clone() *Identity {
	if i == nil {
		return nil
	}
	out := *i
	if i.Permissions != nil {
		out.Permissions = make(PermissionSet, len(i.Permissions))
		for k, v := range i.Permissions {
			out.Permissions[k] = v
		}
	}
	if i.Projects != nil {
		out.Projects = append([]ProjectMembership(nil), i.Projects...)
	}
	if i.ActiveProject != nil {
		ap := *i.ActiveProject
		out.ActiveProject = &ap
	}
	return &out
}
