// Package devgateway is an in-memory reference implementation of the auth
// gateway contract, meant for local development and integration tests. It
// keeps no durable storage: restarting the process forgets every account.
package devgateway

import (
	"errors"
	"net/http"
	"runtime/debug"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/spec-kit/portal-core/internal/config"
)

// Server serves the five auth endpoints the session engine consumes.
type Server struct {
	app      *fiber.App
	accounts *accountStore
	tokens   *tokenManager
	logger   *zap.Logger
	cfg      config.AuthConfig
}

// New builds the dev gateway with its routes registered.
func New(cfg config.AuthConfig, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}

	s := &Server{
		app:      fiber.New(fiber.Config{DisableStartupMessage: true}),
		accounts: newAccountStore(),
		tokens:   newTokenManager(cfg.JWTSecret, cfg.TokenTTL()),
		logger:   logger,
		cfg:      cfg,
	}

	s.app.Use(s.errorHandlingMiddleware)
	s.app.Use(s.requestLogger)

	auth := s.app.Group("/auth")
	auth.Post("/register", s.register)
	auth.Post("/login", s.login)
	auth.Get("/me", s.me)
	auth.Put("/switch-project/:projectId", s.switchProject)
	auth.Post("/logout", s.logout)

	return s
}

// App exposes the fiber app, mainly for tests.
func (s *Server) App() *fiber.App {
	return s.app
}

// Listen blocks serving the gateway on addr.
func (s *Server) Listen(addr string) error {
	return s.app.Listen(addr)
}

// Shutdown stops the server gracefully.
func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}

type registerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// register handles POST /auth/register.
func (s *Server) register(c *fiber.Ctx) error {
	var req registerRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}
	if req.Name == "" || req.Email == "" || req.Password == "" {
		return fiber.NewError(http.StatusBadRequest, "name, email, password required")
	}

	hash, err := hashPassword(req.Password, s.cfg.BcryptCost)
	if err != nil {
		return err
	}

	identity, err := s.accounts.create(req.Name, req.Email, hash)
	if err != nil {
		if errors.Is(err, errEmailTaken) {
			return fiber.NewError(http.StatusConflict, err.Error())
		}
		return err
	}

	if err := s.setSessionCookie(c, identity.ID); err != nil {
		return err
	}
	s.logger.Info("account registered",
		zap.String("account_id", identity.ID),
		zap.String("role", string(identity.Role)))
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": identity})
}

// login handles POST /auth/login.
func (s *Server) login(c *fiber.Ctx) error {
	var req loginRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}
	if req.Email == "" || req.Password == "" {
		return fiber.NewError(http.StatusBadRequest, "email and password required")
	}

	identity, err := s.accounts.authenticate(req.Email, req.Password)
	if err != nil {
		return fiber.NewError(http.StatusUnauthorized, errBadCredentials.Error())
	}

	if err := s.setSessionCookie(c, identity.ID); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": identity})
}

// me handles GET /auth/me.
func (s *Server) me(c *fiber.Ctx) error {
	accountID, err := s.sessionAccount(c)
	if err != nil {
		return err
	}
	identity, err := s.accounts.get(accountID)
	if err != nil {
		return fiber.NewError(http.StatusUnauthorized, "unauthorized")
	}
	return c.JSON(fiber.Map{"data": identity})
}

// switchProject handles PUT /auth/switch-project/{projectId}.
func (s *Server) switchProject(c *fiber.Ctx) error {
	accountID, err := s.sessionAccount(c)
	if err != nil {
		return err
	}

	identity, err := s.accounts.switchProject(accountID, c.Params("projectId"))
	if err != nil {
		if errors.Is(err, errNotMember) {
			return fiber.NewError(http.StatusForbidden, err.Error())
		}
		return fiber.NewError(http.StatusUnauthorized, "unauthorized")
	}
	return c.JSON(fiber.Map{"data": identity})
}

// logout handles POST /auth/logout by expiring the session cookie.
func (s *Server) logout(c *fiber.Ctx) error {
	c.Cookie(&fiber.Cookie{
		Name:     s.cfg.CookieName,
		Value:    "",
		Expires:  time.Now().Add(-time.Hour),
		HTTPOnly: true,
	})
	return c.JSON(fiber.Map{"data": nil})
}

func (s *Server) setSessionCookie(c *fiber.Ctx, accountID string) error {
	token, expiresAt, err := s.tokens.generate(accountID)
	if err != nil {
		return err
	}
	c.Cookie(&fiber.Cookie{
		Name:     s.cfg.CookieName,
		Value:    token,
		Expires:  expiresAt,
		HTTPOnly: true,
	})
	return nil
}

// sessionAccount resolves the credential cookie to an account id.
func (s *Server) sessionAccount(c *fiber.Ctx) (string, error) {
	cookie := c.Cookies(s.cfg.CookieName)
	if cookie == "" {
		return "", fiber.NewError(http.StatusUnauthorized, "unauthorized")
	}
	accountID, err := s.tokens.parse(cookie)
	if err != nil {
		return "", fiber.NewError(http.StatusUnauthorized, "unauthorized")
	}
	return accountID, nil
}

// errorHandlingMiddleware renders failures as the {"error": message} envelope
// the engine expects, and keeps panics from killing the server.
func (s *Server) errorHandlingMiddleware(c *fiber.Ctx) (err error) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("panic recovered", zap.Any("panic", r), zap.ByteString("stack", debug.Stack()))
			err = fiber.NewError(http.StatusInternalServerError, "internal error")
		}
		if err != nil {
			status := http.StatusInternalServerError
			message := "internal error"
			var fiberErr *fiber.Error
			if errors.As(err, &fiberErr) {
				status = fiberErr.Code
				message = fiberErr.Message
			} else {
				s.logger.Error("request failed", zap.Error(err))
			}
			c.Status(status)
			_ = c.JSON(fiber.Map{"error": message})
			err = nil
		}
	}()
	return c.Next()
}

// requestLogger logs each request with its status and duration.
func (s *Server) requestLogger(c *fiber.Ctx) error {
	start := time.Now()
	err := c.Next()
	s.logger.Debug("request",
		zap.String("method", c.Method()),
		zap.String("path", c.Path()),
		zap.Int("status", c.Response().StatusCode()),
		zap.Duration("duration", time.Since(start)))
	return err
}
