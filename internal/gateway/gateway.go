package gateway

import (
	"context"

	"github.com/spec-kit/portal-core/internal/domain"
)

// RegisterInput carries the fields for a new account.
type RegisterInput struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AuthGateway is the remote identity service the session engine calls. Every
// method is one request/response cycle; implementations attach the caller's
// credential cookie themselves.
type AuthGateway interface {
	Register(ctx context.Context, input RegisterInput) (*domain.Identity, error)
	Login(ctx context.Context, email, password string) (*domain.Identity, error)
	FetchIdentity(ctx context.Context) (*domain.Identity, error)
	SwitchProject(ctx context.Context, projectID string) (*domain.Identity, error)
	Logout(ctx context.Context) error
}
