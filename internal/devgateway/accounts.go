package devgateway

import (
	"errors"
	"sync"

	"github.com/google/uuid"

	"github.com/spec-kit/portal-core/internal/domain"
)

var (
	errEmailTaken     = errors.New("email already registered")
	errUnknownAccount = errors.New("account not found")
	errBadCredentials = errors.New("invalid email or password")
	errNotMember      = errors.New("account is not a member of this project")
)

type account struct {
	identity     domain.Identity
	passwordHash string
}

// accountStore keeps gateway accounts in memory. The first registered account
// is granted the admin role; later accounts become employees with the default
// capability grants. Every account joins the two seeded projects.
type accountStore struct {
	mu       sync.Mutex
	byID     map[string]*account
	byEmail  map[string]*account
	projects []domain.ProjectMembership
}

func newAccountStore() *accountStore {
	return &accountStore{
		byID:    make(map[string]*account),
		byEmail: make(map[string]*account),
		projects: []domain.ProjectMembership{
			{ProjectID: uuid.NewString(), ProjectName: "General"},
			{ProjectID: uuid.NewString(), ProjectName: "Operations"},
		},
	}
}

// defaultGrants is the employee capability set. Admins bypass the map, so
// their grants only matter if the role is ever downgraded.
func defaultGrants() domain.PermissionSet {
	return domain.PermissionSet{
		domain.CapabilityDashboard:  true,
		domain.CapabilityTasks:      true,
		domain.CapabilityAttendance: true,
		domain.CapabilityLeaves:     true,
		domain.CapabilitySettings:   true,
	}
}

func fullGrants() domain.PermissionSet {
	grants := make(domain.PermissionSet)
	for _, c := range domain.Capabilities() {
		grants[c] = true
	}
	return grants
}

func (s *accountStore) create(name, email, passwordHash string) (*domain.Identity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.byEmail[email]; exists {
		return nil, errEmailTaken
	}

	role := domain.RoleEmployee
	grants := defaultGrants()
	if len(s.byID) == 0 {
		role = domain.RoleAdmin
		grants = fullGrants()
	}

	memberships := make([]domain.ProjectMembership, len(s.projects))
	for i, p := range s.projects {
		memberships[i] = domain.ProjectMembership{
			ProjectID:   p.ProjectID,
			ProjectName: p.ProjectName,
			Role:        role,
		}
	}

	acct := &account{
		identity: domain.Identity{
			ID:          uuid.NewString(),
			Name:        name,
			Email:       email,
			Role:        role,
			Permissions: grants,
			Projects:    memberships,
			ActiveProject: &domain.ActiveProject{
				ID:   memberships[0].ProjectID,
				Name: memberships[0].ProjectName,
			},
			IsActive: true,
		},
		passwordHash: passwordHash,
	}

	s.byID[acct.identity.ID] = acct
	s.byEmail[email] = acct
	return acct.identity.Clone(), nil
}

// authenticate verifies credentials and returns the identity.
func (s *accountStore) authenticate(email, password string) (*domain.Identity, error) {
	s.mu.Lock()
	acct, ok := s.byEmail[email]
	s.mu.Unlock()
	if !ok {
		return nil, errBadCredentials
	}
	if err := comparePassword(acct.passwordHash, password); err != nil {
		return nil, errBadCredentials
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return acct.identity.Clone(), nil
}

func (s *accountStore) get(accountID string) (*domain.Identity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	acct, ok := s.byID[accountID]
	if !ok {
		return nil, errUnknownAccount
	}
	return acct.identity.Clone(), nil
}

// switchProject re-checks membership server side and recomputes the active
// project.
func (s *accountStore) switchProject(accountID, projectID string) (*domain.Identity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	acct, ok := s.byID[accountID]
	if !ok {
		return nil, errUnknownAccount
	}
	for _, m := range acct.identity.Projects {
		if m.ProjectID == projectID {
			acct.identity.ActiveProject = &domain.ActiveProject{
				ID:   m.ProjectID,
				Name: m.ProjectName,
			}
			return acct.identity.Clone(), nil
		}
	}
	return nil, errNotMember
}
