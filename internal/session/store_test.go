package session

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/portal-core/internal/config"
	"github.com/spec-kit/portal-core/internal/domain"
	"github.com/spec-kit/portal-core/internal/events"
	"github.com/spec-kit/portal-core/internal/gateway"
	"github.com/spec-kit/portal-core/internal/menu"
	"github.com/spec-kit/portal-core/internal/observability"
	"github.com/spec-kit/portal-core/pkg/util"
)

// fakeGateway counts calls and lets tests script responses, including
// blocking an in-flight identity fetch to provoke out-of-order resolution.
type fakeGateway struct {
	mu    sync.Mutex
	calls map[string]int

	identity       *domain.Identity
	switchIdentity *domain.Identity

	registerErr error
	loginErr    error
	fetchErr    error
	switchErr   error
	logoutErr   error

	fetchGate chan struct{}
}

func newFakeGateway(identity *domain.Identity) *fakeGateway {
	return &fakeGateway{calls: make(map[string]int), identity: identity}
}

func (f *fakeGateway) record(op string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[op]++
}

func (f *fakeGateway) count(op string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[op]
}

func (f *fakeGateway) Register(_ context.Context, _ gateway.RegisterInput) (*domain.Identity, error) {
	f.record("register")
	if f.registerErr != nil {
		return nil, f.registerErr
	}
	return f.identity.Clone(), nil
}

func (f *fakeGateway) Login(_ context.Context, _, _ string) (*domain.Identity, error) {
	f.record("login")
	if f.loginErr != nil {
		return nil, f.loginErr
	}
	return f.identity.Clone(), nil
}

func (f *fakeGateway) FetchIdentity(_ context.Context) (*domain.Identity, error) {
	f.record("fetch")
	if f.fetchGate != nil {
		<-f.fetchGate
	}
	if f.fetchErr != nil {
		return nil, f.fetchErr
	}
	return f.identity.Clone(), nil
}

func (f *fakeGateway) SwitchProject(_ context.Context, _ string) (*domain.Identity, error) {
	f.record("switch")
	if f.switchErr != nil {
		return nil, f.switchErr
	}
	return f.switchIdentity.Clone(), nil
}

func (f *fakeGateway) Logout(_ context.Context) error {
	f.record("logout")
	return f.logoutErr
}

func adminIdentity() *domain.Identity {
	return &domain.Identity{
		ID:          "admin-1",
		Name:        "Ada",
		Email:       "a@x.com",
		Role:        domain.RoleAdmin,
		Permissions: domain.PermissionSet{},
		IsActive:    true,
	}
}

func memberIdentity() *domain.Identity {
	return &domain.Identity{
		ID:    "emp-1",
		Name:  "Eve",
		Email: "eve@x.com",
		Role:  domain.RoleEmployee,
		Permissions: domain.PermissionSet{
			domain.CapabilityDashboard: true,
			domain.CapabilityLeads:     true,
		},
		Projects: []domain.ProjectMembership{
			{ProjectID: "proj-1", ProjectName: "General", Role: domain.RoleEmployee},
			{ProjectID: "proj-2", ProjectName: "Operations", Role: domain.RoleEmployee},
		},
		ActiveProject: &domain.ActiveProject{ID: "proj-1", Name: "General"},
		IsActive:      true,
	}
}

func newTestStore(gw gateway.AuthGateway) (*Store, *observability.Metrics, events.Dispatcher) {
	metrics := observability.NewMetrics()
	dispatcher := events.NewInMemoryDispatcher()
	store := NewStore(config.AuthConfig{PasswordMinLength: 6}, StoreDependencies{
		Gateway:    gw,
		Dispatcher: dispatcher,
		Metrics:    metrics,
	})
	return store, metrics, dispatcher
}

func TestStore_StartsLoading(t *testing.T) {
	store, _, _ := newTestStore(newFakeGateway(nil))

	snap := store.Snapshot()
	assert.True(t, snap.Loading)
	assert.False(t, snap.Authenticated)
	assert.Nil(t, snap.Identity)
	assert.Equal(t, domain.SessionLoading, snap.State())
}

func TestStore_BootstrapSuccess(t *testing.T) {
	store, _, _ := newTestStore(newFakeGateway(memberIdentity()))

	require.NoError(t, store.Bootstrap(context.Background()))

	snap := store.Snapshot()
	assert.True(t, snap.Authenticated)
	assert.False(t, snap.Loading)
	require.NotNil(t, snap.Identity)
	assert.Equal(t, "emp-1", snap.Identity.ID)
	assert.Empty(t, snap.Err)
}

func TestStore_BootstrapFailureIsSilent(t *testing.T) {
	fake := newFakeGateway(nil)
	fake.fetchErr = util.NewSessionExpired()
	store, _, _ := newTestStore(fake)

	err := store.Bootstrap(context.Background())
	require.Error(t, err)

	// unauthenticated, but no error surfaced: a missing cookie is the
	// expected first-load case
	snap := store.Snapshot()
	assert.False(t, snap.Authenticated)
	assert.False(t, snap.Loading)
	assert.Nil(t, snap.Identity)
	assert.Empty(t, snap.Err)
}

func TestStore_LoginSuccessAdminSeesAdminMenu(t *testing.T) {
	store, _, _ := newTestStore(newFakeGateway(adminIdentity()))

	require.NoError(t, store.Login(context.Background(), "a@x.com", "secret"))

	snap := store.Snapshot()
	require.True(t, snap.Authenticated)

	visible := menu.Visible(snap.Identity, menu.DefaultCatalog())
	paths := make([]string, 0, len(visible))
	for _, entry := range visible {
		paths = append(paths, entry.Path)
	}
	assert.Contains(t, paths, "/admin")
}

func TestStore_LoginFailureSurfacesServerMessage(t *testing.T) {
	fake := newFakeGateway(nil)
	fake.loginErr = util.NewInvalidCredentials("invalid email or password")
	store, _, _ := newTestStore(fake)

	err := store.Login(context.Background(), "a@x.com", "wrong")
	require.Error(t, err)

	snap := store.Snapshot()
	assert.False(t, snap.Authenticated)
	assert.Nil(t, snap.Identity)
	assert.False(t, snap.Loading)
	assert.Equal(t, "invalid email or password", snap.Err)
}

func TestStore_LoginTransportFailureUsesFallbackMessage(t *testing.T) {
	fake := newFakeGateway(nil)
	fake.loginErr = util.NewNetworkFailure(errors.New("connection refused"))
	store, _, _ := newTestStore(fake)

	require.Error(t, store.Login(context.Background(), "a@x.com", "secret"))
	assert.Equal(t, "Login failed", store.Snapshot().Err)
}

func TestStore_RegisterPasswordMismatchSkipsGateway(t *testing.T) {
	fake := newFakeGateway(nil)
	store, _, _ := newTestStore(fake)

	err := store.Register(context.Background(), RegisterInput{
		Name:            "Eve",
		Email:           "eve@x.com",
		Password:        "abc",
		ConfirmPassword: "xyz",
	})

	require.Error(t, err)
	assert.True(t, util.IsCode(err, util.CodeValidationFailed))
	assert.Equal(t, 0, fake.count("register"))
	assert.Equal(t, "Passwords do not match", store.Snapshot().Err)
}

func TestStore_RegisterShortPasswordSkipsGateway(t *testing.T) {
	fake := newFakeGateway(nil)
	store, _, _ := newTestStore(fake)

	err := store.Register(context.Background(), RegisterInput{
		Name:            "Eve",
		Email:           "eve@x.com",
		Password:        "abc",
		ConfirmPassword: "abc",
	})

	require.Error(t, err)
	assert.True(t, util.IsCode(err, util.CodeValidationFailed))
	assert.Equal(t, 0, fake.count("register"))
	assert.Equal(t, "Password must be at least 6 characters", store.Snapshot().Err)
}

func TestStore_RegisterSuccess(t *testing.T) {
	store, _, _ := newTestStore(newFakeGateway(memberIdentity()))

	require.NoError(t, store.Register(context.Background(), RegisterInput{
		Name:            "Eve",
		Email:           "eve@x.com",
		Password:        "secret1",
		ConfirmPassword: "secret1",
	}))

	snap := store.Snapshot()
	assert.True(t, snap.Authenticated)
	require.NotNil(t, snap.Identity)
	assert.Empty(t, snap.Err)
}

func TestStore_Logout_ClearsStateWhenGatewayFails(t *testing.T) {
	fake := newFakeGateway(memberIdentity())
	fake.logoutErr = errors.New("gateway down")
	store, _, _ := newTestStore(fake)

	require.NoError(t, store.Login(context.Background(), "eve@x.com", "secret1"))
	require.True(t, store.Snapshot().Authenticated)

	// availability over consistency: logout never fails locally
	require.NoError(t, store.Logout(context.Background()))

	snap := store.Snapshot()
	assert.False(t, snap.Authenticated)
	assert.Nil(t, snap.Identity)
	assert.Equal(t, 1, fake.count("logout"))
}

func TestStore_StaleBootstrapDiscardedAfterLogout(t *testing.T) {
	gate := make(chan struct{})
	fake := newFakeGateway(memberIdentity())
	fake.fetchGate = gate
	store, metrics, _ := newTestStore(fake)

	done := make(chan error, 1)
	go func() {
		done <- store.Bootstrap(context.Background())
	}()

	// wait for the fetch to be in flight before dispatching logout
	require.Eventually(t, func() bool {
		return fake.count("fetch") == 1
	}, time.Second, time.Millisecond)

	require.NoError(t, store.Logout(context.Background()))

	// the bootstrap now resolves with a valid identity, but a later
	// operation has already committed: the result must be dropped
	close(gate)
	require.NoError(t, <-done)

	snap := store.Snapshot()
	assert.False(t, snap.Authenticated)
	assert.Nil(t, snap.Identity)
	assert.Equal(t, int64(1), metrics.StaleDiscards())
}

func TestStore_StaleDiscardEmitsEvent(t *testing.T) {
	gate := make(chan struct{})
	fake := newFakeGateway(memberIdentity())
	fake.fetchGate = gate
	store, _, dispatcher := newTestStore(fake)

	var mu sync.Mutex
	var discarded []events.StaleResultDiscardedPayload
	dispatcher.Subscribe(events.EventStaleResultDiscarded, func(_ context.Context, e events.Event) error {
		mu.Lock()
		defer mu.Unlock()
		discarded = append(discarded, e.Payload.(events.StaleResultDiscardedPayload))
		return nil
	})

	done := make(chan error, 1)
	go func() {
		done <- store.Bootstrap(context.Background())
	}()
	require.Eventually(t, func() bool {
		return fake.count("fetch") == 1
	}, time.Second, time.Millisecond)

	require.NoError(t, store.Logout(context.Background()))
	close(gate)
	require.NoError(t, <-done)

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, discarded, 1)
	assert.Equal(t, OpBootstrap, discarded[0].Operation)
	assert.Less(t, discarded[0].Seq, discarded[0].Latest)
}

func TestStore_SwitchProjectInvalidSelection(t *testing.T) {
	fake := newFakeGateway(memberIdentity())
	store, _, _ := newTestStore(fake)
	require.NoError(t, store.Login(context.Background(), "eve@x.com", "secret1"))

	before := store.Snapshot()

	err := store.SwitchProject(context.Background(), "proj-owned-by-someone-else")
	require.Error(t, err)
	assert.True(t, util.IsCode(err, util.CodeInvalidProjectSelection))

	// no network call, identity untouched
	assert.Equal(t, 0, fake.count("switch"))
	after := store.Snapshot()
	assert.Equal(t, before.Identity, after.Identity)
	assert.True(t, after.Authenticated)
}

func TestStore_SwitchProjectReplacesIdentityWholesale(t *testing.T) {
	fake := newFakeGateway(memberIdentity())
	switched := memberIdentity()
	switched.ActiveProject = &domain.ActiveProject{ID: "proj-2", Name: "Operations"}
	switched.Permissions[domain.CapabilityTasks] = true
	fake.switchIdentity = switched
	store, _, _ := newTestStore(fake)
	require.NoError(t, store.Login(context.Background(), "eve@x.com", "secret1"))

	require.NoError(t, store.SwitchProject(context.Background(), "proj-2"))

	snap := store.Snapshot()
	assert.True(t, snap.Authenticated)
	require.NotNil(t, snap.Identity.ActiveProject)
	assert.Equal(t, "proj-2", snap.Identity.ActiveProject.ID)
	// the server's recomputed grants came along with the snapshot
	assert.True(t, snap.Identity.Permissions.Granted(domain.CapabilityTasks))
	assert.Equal(t, 1, fake.count("switch"))
}

func TestStore_SwitchProjectSignalsSelectorCollapse(t *testing.T) {
	fake := newFakeGateway(memberIdentity())
	switched := memberIdentity()
	switched.ActiveProject = &domain.ActiveProject{ID: "proj-2", Name: "Operations"}
	fake.switchIdentity = switched
	store, _, dispatcher := newTestStore(fake)
	require.NoError(t, store.Login(context.Background(), "eve@x.com", "secret1"))

	var mu sync.Mutex
	var payloads []events.ProjectSwitchedPayload
	dispatcher.Subscribe(events.EventProjectSwitched, func(_ context.Context, e events.Event) error {
		mu.Lock()
		defer mu.Unlock()
		payloads = append(payloads, e.Payload.(events.ProjectSwitchedPayload))
		return nil
	})

	require.NoError(t, store.SwitchProject(context.Background(), "proj-2"))

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, payloads, 1)
	assert.Equal(t, "proj-2", payloads[0].ProjectID)
	assert.Equal(t, "Operations", payloads[0].ProjectName)
	assert.True(t, payloads[0].CollapseSelector)
}

func TestStore_ClearError(t *testing.T) {
	fake := newFakeGateway(nil)
	fake.loginErr = util.NewInvalidCredentials("invalid email or password")
	store, _, _ := newTestStore(fake)

	require.Error(t, store.Login(context.Background(), "a@x.com", "wrong"))
	require.NotEmpty(t, store.Snapshot().Err)

	store.ClearError()

	snap := store.Snapshot()
	assert.Empty(t, snap.Err)
	assert.False(t, snap.Authenticated)
}

func TestStore_SnapshotDoesNotAliasStoreState(t *testing.T) {
	store, _, _ := newTestStore(newFakeGateway(memberIdentity()))
	require.NoError(t, store.Login(context.Background(), "eve@x.com", "secret1"))

	snap := store.Snapshot()
	snap.Identity.Permissions[domain.CapabilityAnalytics] = true
	snap.Identity.Projects[0].ProjectID = "tampered"

	fresh := store.Snapshot()
	assert.False(t, fresh.Identity.Permissions.Granted(domain.CapabilityAnalytics))
	assert.Equal(t, "proj-1", fresh.Identity.Projects[0].ProjectID)
}
