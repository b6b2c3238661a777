package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"github.com/spec-kit/portal-core/internal/domain"
	"github.com/spec-kit/portal-core/pkg/util"
)

// envelope is the gateway's response wrapper: data on success, error on failure.
type envelope struct {
	Data  *domain.Identity `json:"data"`
	Error string           `json:"error"`
}

// Client talks to the auth gateway over HTTP. The session cookie issued at
// login is held in the HTTP client's jar and attached to every later call.
type Client struct {
	baseURL string
	http    *http.Client
}

// ClientOptions configures client construction.
type ClientOptions struct {
	HTTPClient *http.Client
	Timeout    time.Duration
}

// ClientOption mutates ClientOptions.
type ClientOption func(*ClientOptions)

// WithHTTPClient overrides the HTTP client used for gateway calls. The caller
// is then responsible for providing a cookie jar.
func WithHTTPClient(client *http.Client) ClientOption {
	return func(opts *ClientOptions) {
		opts.HTTPClient = client
	}
}

// WithTimeout sets the per-request timeout on the default HTTP client.
func WithTimeout(timeout time.Duration) ClientOption {
	return func(opts *ClientOptions) {
		opts.Timeout = timeout
	}
}

// NewClient creates a gateway client for the service at baseURL. When no HTTP
// client is supplied, one is created with a fresh cookie jar.
func NewClient(baseURL string, optFns ...ClientOption) *Client {
	opts := ClientOptions{}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.HTTPClient == nil {
		jar, _ := cookiejar.New(nil)
		opts.HTTPClient = &http.Client{Jar: jar, Timeout: opts.Timeout}
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    opts.HTTPClient,
	}
}

// Register handles POST /auth/register.
func (c *Client) Register(ctx context.Context, input RegisterInput) (*domain.Identity, error) {
	env, status, err := c.do(ctx, http.MethodPost, "/auth/register", input)
	if err != nil {
		return nil, util.NewNetworkFailure(err)
	}
	if status < 200 || status >= 300 {
		return nil, credentialFailure(env, status)
	}
	return env.Data, nil
}

// Login handles POST /auth/login.
func (c *Client) Login(ctx context.Context, email, password string) (*domain.Identity, error) {
	body := map[string]string{"email": email, "password": password}
	env, status, err := c.do(ctx, http.MethodPost, "/auth/login", body)
	if err != nil {
		return nil, util.NewNetworkFailure(err)
	}
	if status < 200 || status >= 300 {
		return nil, credentialFailure(env, status)
	}
	return env.Data, nil
}

// FetchIdentity handles GET /auth/me. An unauthorized response maps to a
// session-expired error; the store decides whether that is worth surfacing.
func (c *Client) FetchIdentity(ctx context.Context) (*domain.Identity, error) {
	env, status, err := c.do(ctx, http.MethodGet, "/auth/me", nil)
	if err != nil {
		return nil, util.NewNetworkFailure(err)
	}
	if status == http.StatusUnauthorized {
		return nil, util.NewSessionExpired()
	}
	if status < 200 || status >= 300 {
		return nil, serverFailure(env, status)
	}
	return env.Data, nil
}

// SwitchProject handles PUT /auth/switch-project/{projectId}. The gateway
// re-checks membership server side; a rejection maps to the same error the
// local precondition produces.
func (c *Client) SwitchProject(ctx context.Context, projectID string) (*domain.Identity, error) {
	path := "/auth/switch-project/" + url.PathEscape(projectID)
	env, status, err := c.do(ctx, http.MethodPut, path, nil)
	if err != nil {
		return nil, util.NewNetworkFailure(err)
	}
	if status == http.StatusUnauthorized {
		return nil, util.NewSessionExpired()
	}
	if status >= 400 && status < 500 {
		return nil, util.NewInvalidProjectSelection(projectID)
	}
	if status < 200 || status >= 300 {
		return nil, serverFailure(env, status)
	}
	return env.Data, nil
}

// Logout handles POST /auth/logout.
func (c *Client) Logout(ctx context.Context) error {
	env, status, err := c.do(ctx, http.MethodPost, "/auth/logout", nil)
	if err != nil {
		return util.NewNetworkFailure(err)
	}
	if status < 200 || status >= 300 {
		return serverFailure(env, status)
	}
	return nil
}

func (c *Client) do(ctx context.Context, method, path string, body any) (*envelope, int, error) {
	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, 0, err
		}
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, 0, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()

	env := &envelope{}
	if err := json.NewDecoder(resp.Body).Decode(env); err != nil {
		// failure responses are allowed an empty or non-JSON body
		if resp.StatusCode >= 200 && resp.StatusCode < 300 {
			return nil, 0, fmt.Errorf("decoding gateway response: %w", err)
		}
	}
	return env, resp.StatusCode, nil
}

func credentialFailure(env *envelope, status int) error {
	if env != nil && env.Error != "" {
		return util.NewInvalidCredentials(env.Error)
	}
	return util.NewNetworkFailure(fmt.Errorf("gateway returned status %d", status))
}

func serverFailure(env *envelope, status int) error {
	if env != nil && env.Error != "" {
		return util.NewNetworkFailure(fmt.Errorf("%s (status %d)", env.Error, status))
	}
	return util.NewNetworkFailure(fmt.Errorf("gateway returned status %d", status))
}
