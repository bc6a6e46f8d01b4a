// Package supabase is a focused client for the Supabase auth REST API:
// password sign-in, sign-up with a profile row, and sign-out, plus
// session-change notifications for the per-identity stores.
package supabase

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"localvibe/internal/domain"
)

// SessionListener receives the new session after a successful sign-in or
// sign-up, and nil after sign-out.
type SessionListener func(session *domain.Session)

// AuthClient talks to a Supabase project's auth endpoints.
type AuthClient struct {
	baseURL    string
	anonKey    string
	httpClient *http.Client

	mu        sync.Mutex
	listeners []SessionListener
}

type Option func(*AuthClient)

func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *AuthClient) {
		c.httpClient = httpClient
	}
}

// NewAuthClient creates a client for the given project URL and anon key.
func NewAuthClient(baseURL, anonKey string, opts ...Option) (*AuthClient, error) {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		return nil, errors.New("supabase: base URL must not be empty")
	}
	if strings.TrimSpace(anonKey) == "" {
		return nil, errors.New("supabase: anon key must not be empty")
	}
	c := &AuthClient{
		baseURL:    baseURL,
		anonKey:    anonKey,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// OnSessionChange registers a listener notified on sign-in, sign-up, and
// sign-out. Stores use this to reload under the new identity.
func (c *AuthClient) OnSessionChange(fn SessionListener) {
	if fn == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.listeners = append(c.listeners, fn)
}

func (c *AuthClient) notify(session *domain.Session) {
	c.mu.Lock()
	listeners := append([]SessionListener(nil), c.listeners...)
	c.mu.Unlock()
	for _, fn := range listeners {
		fn(session)
	}
}

// tokenResponse is the minimal shape of the auth token and signup endpoints.
type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	User         struct {
		ID           string `json:"id"`
		Email        string `json:"email"`
		UserMetadata struct {
			FullName string `json:"full_name"`
		} `json:"user_metadata"`
	} `json:"user"`
}

// errorResponse covers the error payload variants the auth API returns.
type errorResponse struct {
	ErrorDescription string `json:"error_description"`
	Msg              string `json:"msg"`
	Message          string `json:"message"`
}

// SignIn exchanges email and password for a session and notifies listeners.
func (c *AuthClient) SignIn(ctx context.Context, email, password string) (domain.Session, error) {
	payload := map[string]string{"email": email, "password": password}
	var out tokenResponse
	if err := c.post(ctx, "/auth/v1/token?grant_type=password", "", payload, &out); err != nil {
		return domain.Session{}, fmt.Errorf("supabase: sign in: %w", err)
	}
	session := sessionFrom(out)
	c.notify(&session)
	return session, nil
}

// SignUp registers a new account, creates its profile row best-effort, and
// notifies listeners with the new session.
func (c *AuthClient) SignUp(ctx context.Context, email, password, fullName string) (domain.Session, error) {
	payload := map[string]any{
		"email":    email,
		"password": password,
		"data":     map[string]string{"full_name": fullName},
	}
	var out tokenResponse
	if err := c.post(ctx, "/auth/v1/signup", "", payload, &out); err != nil {
		return domain.Session{}, fmt.Errorf("supabase: sign up: %w", err)
	}
	session := sessionFrom(out)
	session.User.FullName = fullName

	// The profile row is presentation data; its failure must not fail the
	// registration that already succeeded.
	_ = c.insertProfile(ctx, session.AccessToken, session.User.ID, fullName)

	c.notify(&session)
	return session, nil
}

// SignOut revokes the session's token and notifies listeners.
func (c *AuthClient) SignOut(ctx context.Context, accessToken string) error {
	if err := c.post(ctx, "/auth/v1/logout", accessToken, struct{}{}, nil); err != nil {
		return fmt.Errorf("supabase: sign out: %w", err)
	}
	c.notify(nil)
	return nil
}

func (c *AuthClient) insertProfile(ctx context.Context, accessToken, userID, fullName string) error {
	payload := map[string]string{
		"id":        userID,
		"full_name": fullName,
	}
	return c.post(ctx, "/rest/v1/profiles", accessToken, payload, nil)
}

func (c *AuthClient) post(ctx context.Context, path, accessToken string, payload, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("apikey", c.anonKey)
	if accessToken != "" {
		req.Header.Set("Authorization", "Bearer "+accessToken)
	} else {
		req.Header.Set("Authorization", "Bearer "+c.anonKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("read response body: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return errors.New(readableError(raw, resp.StatusCode))
	}
	if out != nil && len(raw) > 0 {
		if err := json.Unmarshal(raw, out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}

// readableError extracts a human-readable message from an auth error
// payload for surfacing to the user.
func readableError(body []byte, status int) string {
	var payload errorResponse
	if err := json.Unmarshal(body, &payload); err == nil {
		for _, msg := range []string{payload.ErrorDescription, payload.Msg, payload.Message} {
			if strings.TrimSpace(msg) != "" {
				return msg
			}
		}
	}
	return fmt.Sprintf("authentication failed with status %d", status)
}

func sessionFrom(out tokenResponse) domain.Session {
	return domain.Session{
		AccessToken:  out.AccessToken,
		RefreshToken: out.RefreshToken,
		User: domain.User{
			ID:       out.User.ID,
			Email:    out.User.Email,
			FullName: out.User.UserMetadata.FullName,
		},
	}
}
