package mobilelink

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"golang.org/x/oauth2"

	"github.com/nerrad567/genlink-bridge/internal/generator"
)

// API versions.
const (
	APIVersionV1 = "v1"
	APIVersionV2 = "v2"
)

const (
	// defaultRequestTimeout bounds each HTTP round trip, token grant included.
	defaultRequestTimeout = 15 * time.Second

	// maxBodyBytes caps the listing response size.
	maxBodyBytes = 4 << 20

	// listPathFormat is the apparatus listing path for an API version.
	listPathFormat = "/api/%s/apparatus/list"
)

// Config holds the vendor account and endpoint settings.
type Config struct {
	BaseURL  string
	TokenURL string
	ClientID string
	Username string
	Password string

	// APIVersion selects the listing endpoint and payload shape: "v1" or "v2".
	APIVersion string

	// RequestTimeout bounds each HTTP request. Zero uses a 15s default.
	RequestTimeout time.Duration

	// HTTPClient is the transport used for both token and API calls.
	// Nil uses a client with RequestTimeout.
	HTTPClient *http.Client
}

// Logger defines the logging interface used by the Client.
type Logger interface {
	Debug(msg string, args ...any)
	Warn(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Warn(string, ...any)  {}

// Client fetches apparatus status from the vendor cloud.
type Client struct {
	listURL string
	kind    generator.Kind
	logger  Logger

	newSession func() *http.Client
	sessionMu  sync.Mutex
	session    *http.Client
}

// NewClient validates cfg and prepares an authenticated HTTP client.
// No network traffic happens until the first FetchDevices call.
func NewClient(cfg Config) (*Client, error) {
	kind, err := kindForVersion(cfg.APIVersion)
	if err != nil {
		return nil, err
	}

	base, err := url.Parse(strings.TrimRight(cfg.BaseURL, "/"))
	if err != nil || base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("%w: base_url %q", ErrInvalidConfig, cfg.BaseURL)
	}
	if cfg.TokenURL == "" {
		return nil, fmt.Errorf("%w: token_url is required", ErrInvalidConfig)
	}
	if cfg.Username == "" || cfg.Password == "" {
		return nil, fmt.Errorf("%w: username and password are required", ErrInvalidConfig)
	}

	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = defaultRequestTimeout
	}
	base.Path += fmt.Sprintf(listPathFormat, strings.ToLower(cfg.APIVersion))

	transport := cfg.HTTPClient
	if transport == nil {
		transport = &http.Client{Timeout: timeout}
	}

	oauthCfg := &oauth2.Config{
		ClientID: cfg.ClientID,
		Endpoint: oauth2.Endpoint{
			TokenURL:  cfg.TokenURL,
			AuthStyle: oauth2.AuthStyleInParams,
		},
	}

	// The token source outlives any single request, so it carries its own
	// background context with the shared transport.
	tokenCtx := context.WithValue(context.Background(), oauth2.HTTPClient, transport)
	newSession := func() *http.Client {
		source := oauth2.ReuseTokenSource(nil, &passwordSource{
			ctx:      tokenCtx,
			cfg:      oauthCfg,
			username: cfg.Username,
			password: cfg.Password,
		})
		httpClient := oauth2.NewClient(tokenCtx, source)
		httpClient.Timeout = timeout
		return httpClient
	}

	return &Client{
		listURL:    base.String(),
		kind:       kind,
		logger:     noopLogger{},
		newSession: newSession,
		session:    newSession(),
	}, nil
}

// SetLogger sets the logger for the client.
func (c *Client) SetLogger(logger Logger) {
	c.logger = logger
}

// Kind returns the payload shape this client tags its results with.
func (c *Client) Kind() generator.Kind {
	return c.kind
}

// FetchDevices lists every apparatus on the account.
func (c *Client) FetchDevices(ctx context.Context) ([]generator.RawStatus, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.listURL, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: building request: %w", ErrFetchFailed, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.currentSession().Do(req)
	if err != nil {
		var retrieveErr *oauth2.RetrieveError
		if errors.As(err, &retrieveErr) {
			return nil, fmt.Errorf("%w: %w", ErrAuthFailed, err)
		}
		return nil, fmt.Errorf("%w: %w", ErrFetchFailed, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		drain(resp.Body)
		// A rejected token is never reused; the next fetch runs a fresh grant.
		c.resetSession()
		c.logger.Warn("vendor API rejected token", "status", resp.StatusCode)
		return nil, fmt.Errorf("%w: %s", ErrAuthFailed, resp.Status)
	case resp.StatusCode == http.StatusNoContent:
		return nil, nil
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		drain(resp.Body)
		return nil, fmt.Errorf("%w: %s", ErrUnexpectedStatus, resp.Status)
	}

	devices, skipped, err := decodeApparatusList(io.LimitReader(resp.Body, maxBodyBytes), c.kind)
	if err != nil {
		return nil, err
	}
	for _, skipErr := range skipped {
		c.logger.Warn("skipping undecodable apparatus", "error", skipErr)
	}

	c.logger.Debug("apparatus list fetched", "count", len(devices), "kind", string(c.kind))
	return devices, nil
}

func (c *Client) currentSession() *http.Client {
	c.sessionMu.Lock()
	defer c.sessionMu.Unlock()
	return c.session
}

func (c *Client) resetSession() {
	c.sessionMu.Lock()
	c.session = c.newSession()
	c.sessionMu.Unlock()
}

// passwordSource performs a resource-owner password grant on every call.
// It is wrapped in oauth2.ReuseTokenSource so the grant only runs on expiry.
type passwordSource struct {
	ctx      context.Context
	cfg      *oauth2.Config
	username string
	password string
}

func (s *passwordSource) Token() (*oauth2.Token, error) {
	return s.cfg.PasswordCredentialsToken(s.ctx, s.username, s.password)
}

func kindForVersion(version string) (generator.Kind, error) {
	switch strings.ToLower(version) {
	case APIVersionV1:
		return generator.KindFlags, nil
	case APIVersionV2:
		return generator.KindCode, nil
	default:
		return "", fmt.Errorf("%w: api_version %q (want v1 or v2)", ErrInvalidConfig, version)
	}
}

// drain discards a bounded amount of body so the connection can be reused.
func drain(r io.Reader) {
	_, _ = io.Copy(io.Discard, io.LimitReader(r, maxBodyBytes))
}
