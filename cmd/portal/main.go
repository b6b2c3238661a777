// Command portal is a small demonstration client: it bootstraps a session
// against the configured gateway, signs in when credentials are provided via
// PORTAL_EMAIL / PORTAL_PASSWORD, and prints the navigation entries the
// signed-in identity may see.
package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"go.uber.org/zap"

	"github.com/spec-kit/portal-core/internal/access"
	"github.com/spec-kit/portal-core/internal/config"
	"github.com/spec-kit/portal-core/internal/gateway"
	"github.com/spec-kit/portal-core/internal/menu"
	"github.com/spec-kit/portal-core/internal/observability"
	"github.com/spec-kit/portal-core/internal/session"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	client := gateway.NewClient(cfg.Gateway.BaseURL, gateway.WithTimeout(cfg.Gateway.Timeout()))
	store := session.NewStore(cfg.Auth, session.StoreDependencies{
		Gateway: client,
		Logger:  logger,
	})

	ctx := context.Background()

	if err := store.Bootstrap(ctx); err != nil {
		logger.Debug("no existing session", zap.Error(err))
	}

	if email := os.Getenv("PORTAL_EMAIL"); email != "" && !store.Snapshot().Authenticated {
		if err := store.Login(ctx, email, os.Getenv("PORTAL_PASSWORD")); err != nil {
			logger.Fatal("login failed", zap.String("message", store.Snapshot().Err))
		}
	}

	snap := store.Snapshot()
	if !snap.Authenticated {
		fmt.Println("not signed in; set PORTAL_EMAIL and PORTAL_PASSWORD")
		return
	}

	guard := access.NewRouteGuard(store)
	fmt.Printf("signed in as %s (%s)\n", snap.Identity.Name, snap.Identity.Role)
	if ap := snap.Identity.ActiveProject; ap != nil {
		fmt.Printf("active project: %s\n", ap.Name)
	}
	fmt.Println("visible navigation:")
	for _, entry := range menu.Visible(snap.Identity, menu.DefaultCatalog()) {
		result := guard.Check(entry)
		fmt.Printf("  %-12s %s (guard: %v)\n", entry.Label, entry.Path, result.Outcome)
	}
}
