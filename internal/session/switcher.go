package session

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/portal-core/internal/domain"
	"github.com/spec-kit/portal-core/internal/events"
	"github.com/spec-kit/portal-core/internal/gateway"
	"github.com/spec-kit/portal-core/pkg/util"
)

// ProjectSwitcher orchestrates changing the active workspace. Membership is
// checked before the gateway is called, so a workspace the identity cannot
// join never costs a round trip.
type ProjectSwitcher struct {
	gw     gateway.AuthGateway
	events events.Dispatcher
	logger *zap.Logger
}

// NewProjectSwitcher builds the switcher.
func NewProjectSwitcher(gw gateway.AuthGateway, dispatcher events.Dispatcher, logger *zap.Logger) *ProjectSwitcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	if dispatcher == nil {
		dispatcher = events.NewInMemoryDispatcher()
	}
	return &ProjectSwitcher{gw: gw, events: dispatcher, logger: logger}
}

// Switch validates the target against the current identity, then asks the
// gateway to recompute the session. The returned identity is the gateway's
// answer wholesale, including whatever ActiveProject it decided on.
func (p *ProjectSwitcher) Switch(ctx context.Context, current *domain.Identity, projectID string) (*domain.Identity, error) {
	if current == nil {
		return nil, util.NewSessionExpired()
	}
	if !current.OwnsProject(projectID) {
		p.logger.Debug("rejected switch to non-member project",
			zap.String("project_id", projectID),
			zap.String("identity_id", current.ID))
		return nil, util.NewInvalidProjectSelection(projectID)
	}

	identity, err := p.gw.SwitchProject(ctx, projectID)
	if err != nil {
		return nil, err
	}

	payload := events.ProjectSwitchedPayload{
		ProjectID:        projectID,
		CollapseSelector: true,
	}
	if identity.ActiveProject != nil {
		payload.ProjectID = identity.ActiveProject.ID
		payload.ProjectName = identity.ActiveProject.Name
	}
	_ = p.events.Publish(ctx, events.Event{
		ID:        uuid.NewString(),
		Type:      events.EventProjectSwitched,
		Timestamp: time.Now(),
		Payload:   payload,
	})

	p.logger.Info("active project switched",
		zap.String("project_id", payload.ProjectID),
		zap.String("identity_id", identity.ID))
	return identity, nil
}
