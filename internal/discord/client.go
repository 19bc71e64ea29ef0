// Package discord is the server-to-server client for the Discord API: OAuth
// code exchange on behalf of users and bot-authenticated REST calls.
package discord

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	backend_errors "github.com/vonout/Backend/pkg/errors"

	"golang.org/x/oauth2"
)

const (
	DefaultBaseURL  = "https://discord.com/api/v10"
	httpCallTimeout = 10 * time.Second
	userAgent       = "DiscordBot (https://github.com/vonout/Backend, 1.0)"
)

// DefaultScopes are requested when ClientConfig.Scopes is empty.
var DefaultScopes = []string{"identify", "guilds"}

// ClientConfig carries the credentials read from the environment. None of the
// fields are validated; a missing value surfaces when the call that needs it
// is made.
type ClientConfig struct {
	ClientID     string
	ClientSecret string
	BotToken     string
	RedirectURL  string
	Scopes       []string
}

// Client is safe for concurrent use. It holds no per-request state.
type Client struct {
	cfg        ClientConfig
	oauth      *oauth2.Config
	baseURL    string
	httpClient *http.Client
}

type Option func(*Client)

// WithBaseURL points the client at another API root (tests, proxies).
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		c.baseURL = strings.TrimRight(baseURL, "/")
	}
}

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// New builds a client. It never fails: every call made is independent, so
// building two clients from the same config yields equivalent clients.
func New(cfg ClientConfig, opts ...Option) *Client {
	c := &Client{
		cfg:        cfg,
		baseURL:    DefaultBaseURL,
		httpClient: &http.Client{Timeout: httpCallTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}

	scopes := cfg.Scopes
	if len(scopes) == 0 {
		scopes = DefaultScopes
	}
	c.oauth = &oauth2.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		RedirectURL:  cfg.RedirectURL,
		Scopes:       scopes,
		Endpoint: oauth2.Endpoint{
			AuthURL:   c.baseURL + "/oauth2/authorize",
			TokenURL:  c.baseURL + "/oauth2/token",
			AuthStyle: oauth2.AuthStyleInParams,
		},
	}
	return c
}

// Configured reports whether OAuth credentials are present.
func (c *Client) Configured() bool {
	return c.cfg.ClientID != "" && c.cfg.ClientSecret != ""
}

// HasBotToken reports whether bot-authenticated calls can be made.
func (c *Client) HasBotToken() bool {
	return c.cfg.BotToken != ""
}

// AuthCodeURL returns the authorize URL the browser is redirected to.
func (c *Client) AuthCodeURL(state string) string {
	return c.oauth.AuthCodeURL(state, oauth2.SetAuthURLParam("prompt", "consent"))
}

// Exchange trades an authorization code for a user token.
func (c *Client) Exchange(ctx context.Context, code string) (*oauth2.Token, error) {
	if !c.Configured() {
		return nil, fmt.Errorf("discord oauth client: %w", backend_errors.ErrNotConfigured)
	}
	ctx = context.WithValue(ctx, oauth2.HTTPClient, c.httpClient)
	token, err := c.oauth.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("token exchange failed: %v: %w", err, backend_errors.ErrUpstream)
	}
	return token, nil
}

// Refresh trades a refresh token for a new user token.
func (c *Client) Refresh(ctx context.Context, refreshToken string) (*oauth2.Token, error) {
	if !c.Configured() {
		return nil, fmt.Errorf("discord oauth client: %w", backend_errors.ErrNotConfigured)
	}
	ctx = context.WithValue(ctx, oauth2.HTTPClient, c.httpClient)
	token, err := c.oauth.TokenSource(ctx, &oauth2.Token{RefreshToken: refreshToken}).Token()
	if err != nil {
		var retrieveErr *oauth2.RetrieveError
		if errors.As(err, &retrieveErr) && retrieveErr.Response != nil && retrieveErr.Response.StatusCode == http.StatusBadRequest {
			return nil, fmt.Errorf("token refresh rejected: %v: %w", err, backend_errors.ErrUnauthorized)
		}
		return nil, fmt.Errorf("token refresh failed: %v: %w", err, backend_errors.ErrUpstream)
	}
	return token, nil
}

// CurrentUser fetches the user the access token belongs to.
func (c *Client) CurrentUser(ctx context.Context, accessToken string) (*User, error) {
	var u User
	if err := c.get(ctx, "/users/@me", "Bearer "+accessToken, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

// CurrentUserGuilds lists the guilds the user is a member of.
func (c *Client) CurrentUserGuilds(ctx context.Context, accessToken string) ([]Guild, error) {
	var guilds []Guild
	if err := c.get(ctx, "/users/@me/guilds", "Bearer "+accessToken, &guilds); err != nil {
		return nil, err
	}
	return guilds, nil
}

// BotGuild looks a guild up with the bot token. The bot must be a member.
func (c *Client) BotGuild(ctx context.Context, guildID string) (*Guild, error) {
	if !c.HasBotToken() {
		return nil, fmt.Errorf("discord bot token: %w", backend_errors.ErrNotConfigured)
	}
	var g Guild
	if err := c.get(ctx, "/guilds/"+guildID+"?with_counts=true", "Bot "+c.cfg.BotToken, &g); err != nil {
		return nil, err
	}
	return &g, nil
}

func (c *Client) get(ctx context.Context, path, authorization string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", authorization)
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("discord request %s: %v: %w", path, err, backend_errors.ErrUpstream)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return statusError(path, resp)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode %s response: %v: %w", path, err, backend_errors.ErrUpstream)
	}
	return nil
}

func statusError(path string, resp *http.Response) error {
	var apiErr APIError
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	_ = json.Unmarshal(body, &apiErr)
	apiErr.Status = resp.StatusCode

	var kind error
	switch resp.StatusCode {
	case http.StatusUnauthorized:
		kind = backend_errors.ErrUnauthorized
	case http.StatusForbidden:
		kind = backend_errors.ErrForbidden
	case http.StatusNotFound:
		kind = backend_errors.ErrNotFound
	case http.StatusTooManyRequests:
		kind = backend_errors.ErrRateLimited
	default:
		kind = backend_errors.ErrUpstream
	}
	return fmt.Errorf("discord %s: %w: %w", path, &apiErr, kind)
}
