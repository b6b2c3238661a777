package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/portal-core/internal/config"
	"github.com/spec-kit/portal-core/internal/domain"
	"github.com/spec-kit/portal-core/internal/events"
	"github.com/spec-kit/portal-core/internal/gateway"
	"github.com/spec-kit/portal-core/internal/observability"
	"github.com/spec-kit/portal-core/pkg/util"
)

// Operation names used for logging and metrics.
const (
	OpBootstrap     = "bootstrap"
	OpLogin         = "login"
	OpRegister      = "register"
	OpLogout        = "logout"
	OpSwitchProject = "switch_project"
)

// Fallback messages shown when the gateway rejects a call without a usable
// message of its own.
const (
	fallbackLoginFailed    = "Login failed"
	fallbackRegisterFailed = "Registration failed"
)

// RegisterInput carries the registration form fields. ConfirmPassword is
// checked locally and never sent to the gateway.
type RegisterInput struct {
	Name            string
	Email           string
	Password        string
	ConfirmPassword string
}

// StoreDependencies bundles collaborators for store construction.
type StoreDependencies struct {
	Gateway    gateway.AuthGateway
	Dispatcher events.Dispatcher
	Logger     *zap.Logger
	Metrics    *observability.Metrics
}

// Store owns the session: the single source of truth for identity,
// authenticated flag, loading flag and last error. It is the session's only
// writer; every other component reads snapshots.
//
// Operations may be dispatched concurrently. Each one takes a sequence number
// at dispatch time; a result only commits when no operation with a higher
// sequence number has committed first, so state transitions land in dispatch
// order rather than completion order.
type Store struct {
	mu         sync.Mutex
	session    domain.Session
	seq        uint64
	applied    uint64
	loadingSeq uint64

	gw       gateway.AuthGateway
	switcher *ProjectSwitcher
	events   events.Dispatcher
	logger   *zap.Logger
	metrics  *observability.Metrics

	passwordMinLength int
}

// NewStore builds the session store. The session starts loading, the state a
// fresh process is in until Bootstrap resolves.
func NewStore(cfg config.AuthConfig, deps StoreDependencies) *Store {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	dispatcher := deps.Dispatcher
	if dispatcher == nil {
		dispatcher = events.NewInMemoryDispatcher()
	}
	minLength := cfg.PasswordMinLength
	if minLength <= 0 {
		minLength = 6
	}

	s := &Store{
		session:           domain.Session{Loading: true},
		gw:                deps.Gateway,
		events:            dispatcher,
		logger:            logger,
		metrics:           deps.Metrics,
		passwordMinLength: minLength,
	}
	s.switcher = NewProjectSwitcher(deps.Gateway, dispatcher, logger)
	return s
}

// Snapshot returns a copy of the current session. The identity is deep-copied
// so callers cannot alias store state.
func (s *Store) Snapshot() domain.Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap := s.session
	snap.Identity = s.session.Identity.Clone()
	return snap
}

// Identity returns a copy of the current identity, or nil.
func (s *Store) Identity() *domain.Identity {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.session.Identity.Clone()
}

// ClearError removes the last surfaced error without touching anything else.
func (s *Store) ClearError() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.session.Err = ""
}

// Bootstrap resolves the identity behind an existing credential cookie. A
// rejection is the expected first-load case, so failures clear the session
// silently: the error is returned for observability but never surfaced
// through the session.
func (s *Store) Bootstrap(ctx context.Context) error {
	seq := s.begin(OpBootstrap, false)

	identity, err := s.gw.FetchIdentity(ctx)
	if err != nil {
		s.metrics.RecordOperation(OpBootstrap, observability.OutcomeFailure)
		if s.commit(OpBootstrap, seq, true, func(sess *domain.Session) {
			sess.Identity = nil
			sess.Authenticated = false
		}) {
			s.logger.Debug("bootstrap found no session", zap.Error(err))
		}
		return err
	}

	s.metrics.RecordOperation(OpBootstrap, observability.OutcomeSuccess)
	if s.commit(OpBootstrap, seq, true, func(sess *domain.Session) {
		sess.Identity = identity
		sess.Authenticated = true
		sess.Err = ""
	}) {
		s.publishAuthenticated(ctx, identity)
	}
	return nil
}

// Login authenticates with the gateway. Failure leaves the session
// unauthenticated with a displayable error message.
func (s *Store) Login(ctx context.Context, email, password string) error {
	seq := s.begin(OpLogin, true)

	identity, err := s.gw.Login(ctx, email, password)
	if err != nil {
		s.metrics.RecordOperation(OpLogin, observability.OutcomeFailure)
		s.commitFailure(OpLogin, seq, displayMessage(err, fallbackLoginFailed))
		return err
	}

	s.metrics.RecordOperation(OpLogin, observability.OutcomeSuccess)
	if s.commit(OpLogin, seq, true, func(sess *domain.Session) {
		sess.Identity = identity
		sess.Authenticated = true
		sess.Err = ""
	}) {
		s.publishAuthenticated(ctx, identity)
	}
	return nil
}

// Register validates the form locally, then follows the login contract. A
// local validation failure sets the session error synchronously and makes no
// gateway call.
func (s *Store) Register(ctx context.Context, input RegisterInput) error {
	if input.Password != input.ConfirmPassword {
		return s.failValidation("Passwords do not match")
	}
	if len(input.Password) < s.passwordMinLength {
		return s.failValidation(fmt.Sprintf("Password must be at least %d characters", s.passwordMinLength))
	}

	seq := s.begin(OpRegister, true)

	identity, err := s.gw.Register(ctx, gateway.RegisterInput{
		Name:     input.Name,
		Email:    input.Email,
		Password: input.Password,
	})
	if err != nil {
		s.metrics.RecordOperation(OpRegister, observability.OutcomeFailure)
		s.commitFailure(OpRegister, seq, displayMessage(err, fallbackRegisterFailed))
		return err
	}

	s.metrics.RecordOperation(OpRegister, observability.OutcomeSuccess)
	if s.commit(OpRegister, seq, true, func(sess *domain.Session) {
		sess.Identity = identity
		sess.Authenticated = true
		sess.Err = ""
	}) {
		s.publishAuthenticated(ctx, identity)
	}
	return nil
}

// Logout ends the session. The gateway call is best effort: local state
// clears no matter what the server says, so a dead gateway can never pin a
// client in the authenticated state.
func (s *Store) Logout(ctx context.Context) error {
	seq := s.begin(OpLogout, false)

	if err := s.gw.Logout(ctx); err != nil {
		s.logger.Warn("logout request failed, clearing local session anyway", zap.Error(err))
		s.metrics.RecordOperation(OpLogout, observability.OutcomeFailure)
	} else {
		s.metrics.RecordOperation(OpLogout, observability.OutcomeSuccess)
	}

	if s.commit(OpLogout, seq, true, func(sess *domain.Session) {
		sess.Identity = nil
		sess.Authenticated = false
	}) {
		s.publish(ctx, events.EventSessionCleared, events.SessionClearedPayload{Reason: "logout"})
	}
	return nil
}

// SwitchProject changes the active workspace. Membership is validated against
// the current snapshot before any network effect; on success the gateway's
// identity replaces the current one wholesale. The authenticated flag and the
// loading flag are left alone.
func (s *Store) SwitchProject(ctx context.Context, projectID string) error {
	seq := s.next()

	identity, err := s.switcher.Switch(ctx, s.Identity(), projectID)
	if err != nil {
		s.metrics.RecordOperation(OpSwitchProject, observability.OutcomeFailure)
		return err
	}

	s.metrics.RecordOperation(OpSwitchProject, observability.OutcomeSuccess)
	s.commit(OpSwitchProject, seq, false, func(sess *domain.Session) {
		sess.Identity = identity
	})
	return nil
}

// begin assigns the operation's sequence number and marks the session loading.
func (s *Store) begin(op string, clearError bool) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	s.session.Loading = true
	s.loadingSeq = s.seq
	if clearError {
		s.session.Err = ""
	}
	s.logger.Debug("session operation dispatched", zap.String("operation", op), zap.Uint64("seq", s.seq))
	return s.seq
}

// next assigns a sequence number without touching the loading flag.
func (s *Store) next() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	return s.seq
}

// commit applies a state transition unless a later operation already
// committed, in which case the result is stale and dropped. Returns whether
// the transition was applied.
func (s *Store) commit(op string, seq uint64, settleLoading bool, apply func(*domain.Session)) bool {
	s.mu.Lock()
	if seq <= s.applied {
		latest := s.applied
		s.mu.Unlock()
		s.metrics.RecordStaleDiscard(op)
		s.logger.Debug("discarding stale result",
			zap.String("operation", op),
			zap.Uint64("seq", seq),
			zap.Uint64("latest", latest))
		s.publish(context.Background(), events.EventStaleResultDiscarded, events.StaleResultDiscardedPayload{
			Operation: op,
			Seq:       seq,
			Latest:    latest,
		})
		return false
	}
	s.applied = seq
	// only the newest loading-setting operation may clear the flag; an older
	// result must not hide that a later operation is still in flight
	if settleLoading && seq >= s.loadingSeq {
		s.session.Loading = false
	}
	apply(&s.session)
	s.mu.Unlock()
	return true
}

func (s *Store) commitFailure(op string, seq uint64, message string) {
	s.commit(op, seq, true, func(sess *domain.Session) {
		sess.Identity = nil
		sess.Authenticated = false
		sess.Err = message
	})
}

// failValidation records a local validation failure: no sequence number is
// consumed because no request is outstanding.
func (s *Store) failValidation(message string) error {
	s.mu.Lock()
	s.session.Err = message
	s.mu.Unlock()
	s.metrics.RecordOperation(OpRegister, observability.OutcomeFailure)
	return util.NewValidationError(message, nil)
}

func (s *Store) publishAuthenticated(ctx context.Context, identity *domain.Identity) {
	s.publish(ctx, events.EventSessionAuthenticated, events.SessionAuthenticatedPayload{
		IdentityID: identity.ID,
		Email:      identity.Email,
		Role:       identity.Role,
	})
}

func (s *Store) publish(ctx context.Context, eventType events.EventType, payload interface{}) {
	_ = s.events.Publish(ctx, events.Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		Timestamp: time.Now(),
		Payload:   payload,
	})
}

// displayMessage extracts a user-displayable message from a gateway error,
// falling back when the error carries nothing fit to show.
func displayMessage(err error, fallback string) string {
	var domainErr *util.DomainError
	if errors.As(err, &domainErr) && domainErr.Code == util.CodeInvalidCredentials && domainErr.Message != "" {
		return domainErr.Message
	}
	return fallback
}
