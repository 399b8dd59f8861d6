package identity

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/oauth2"
)

// RemoteProvider is a client for a GoTrue compatible auth service
// (Supabase Auth). Calls carry the project API key; user scoped calls also
// carry the caller's bearer token.
type RemoteProvider struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

// NewRemoteProvider creates a client for the auth service at baseURL
func NewRemoteProvider(baseURL, apiKey string, timeout time.Duration) *RemoteProvider {
	return &RemoteProvider{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		client: &http.Client{
			Timeout:   timeout,
			Transport: &apiKeyTransport{key: apiKey, base: http.DefaultTransport},
		},
	}
}

type apiKeyTransport struct {
	key  string
	base http.RoundTripper
}

func (t *apiKeyTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if t.key == "" {
		return t.base.RoundTrip(req)
	}
	clone := req.Clone(req.Context())
	clone.Header.Set("apikey", t.key)
	return t.base.RoundTrip(clone)
}

type remoteUser struct {
	ID           string         `json:"id"`
	Email        string         `json:"email"`
	UserMetadata map[string]any `json:"user_metadata"`
	CreatedAt    time.Time      `json:"created_at"`
}

func (u remoteUser) identity() *Identity {
	return &Identity{ID: u.ID, Email: u.Email, Metadata: u.UserMetadata, CreatedAt: u.CreatedAt}
}

type remoteError struct {
	Code             any    `json:"code"`
	ErrorCode        string `json:"error_code"`
	Msg              string `json:"msg"`
	Message          string `json:"message"`
	Err              string `json:"error"`
	ErrorDescription string `json:"error_description"`
}

func (e remoteError) message() string {
	for _, m := range []string{e.Msg, e.ErrorDescription, e.Message, e.Err} {
		if m != "" {
			return m
		}
	}
	return ""
}

// userClient returns an HTTP client that sends token as a bearer credential
func (p *RemoteProvider) userClient(ctx context.Context, token string) *http.Client {
	ctx = context.WithValue(ctx, oauth2.HTTPClient, p.client)
	return oauth2.NewClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token, TokenType: "Bearer"}))
}

// VerifyToken resolves an access token to the identity it was issued for
func (p *RemoteProvider) VerifyToken(ctx context.Context, token string) (*Identity, error) {
	if token == "" {
		return nil, ErrInvalidToken
	}

	var user remoteUser
	status, err := p.do(ctx, p.userClient(ctx, token), http.MethodGet, "/auth/v1/user", nil, &user)
	if err != nil {
		if status == http.StatusUnauthorized || status == http.StatusForbidden {
			return nil, ErrInvalidToken
		}
		return nil, err
	}
	if user.ID == "" {
		return nil, ErrInvalidToken
	}

	return user.identity(), nil
}

// SignUp creates an account; metadata is stored as user metadata
func (p *RemoteProvider) SignUp(ctx context.Context, params SignUpParams) (*Identity, error) {
	body := map[string]any{
		"email":    params.Email,
		"password": params.Password,
		"data":     params.Metadata,
	}

	// Depending on the project settings the response is either the user or
	// a session wrapping it.
	var payload struct {
		remoteUser
		User *remoteUser `json:"user"`
	}
	if _, err := p.do(ctx, p.client, http.MethodPost, "/auth/v1/signup", body, &payload); err != nil {
		return nil, err
	}

	if payload.User != nil && payload.User.ID != "" {
		return payload.User.identity(), nil
	}
	if payload.ID == "" {
		return nil, errors.New("auth service returned no user")
	}
	return payload.remoteUser.identity(), nil
}

// SignIn exchanges email and password for a session
func (p *RemoteProvider) SignIn(ctx context.Context, email, password string) (*Session, *Identity, error) {
	body := map[string]any{
		"email":    email,
		"password": password,
	}

	var payload struct {
		Session
		User remoteUser `json:"user"`
	}
	status, err := p.do(ctx, p.client, http.MethodPost, "/auth/v1/token?grant_type=password", body, &payload)
	if err != nil {
		if status == http.StatusBadRequest {
			var apiErr *Error
			if errors.As(err, &apiErr) && isInvalidGrant(apiErr.Message) {
				return nil, nil, ErrInvalidCredentials
			}
		}
		return nil, nil, err
	}

	session := payload.Session
	return &session, payload.User.identity(), nil
}

// UpdateUser changes the account the token belongs to
func (p *RemoteProvider) UpdateUser(ctx context.Context, token string, update UserUpdate) (*Identity, error) {
	body := map[string]any{}
	if update.Email != nil {
		body["email"] = *update.Email
	}
	if update.Password != nil {
		body["password"] = *update.Password
	}
	if len(update.Metadata) > 0 {
		body["data"] = update.Metadata
	}

	var user remoteUser
	status, err := p.do(ctx, p.userClient(ctx, token), http.MethodPut, "/auth/v1/user", body, &user)
	if err != nil {
		if status == http.StatusUnauthorized || status == http.StatusForbidden {
			return nil, ErrInvalidToken
		}
		return nil, err
	}

	return user.identity(), nil
}

// do sends one request and decodes a 2xx JSON body into out. Non-2xx
// responses become *Error, or ErrEmailTaken for a duplicate sign up.
func (p *RemoteProvider) do(ctx context.Context, client *http.Client, method, path string, body any, out any) (int, error) {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return 0, fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, p.baseURL+path, reader)
	if err != nil {
		return 0, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if req.Header.Get("Authorization") == "" && client == p.client && p.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+p.apiKey)
	}

	resp, err := client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("failed to reach auth service: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return resp.StatusCode, fmt.Errorf("failed to read auth response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var apiErr remoteError
		_ = json.Unmarshal(data, &apiErr)
		if apiErr.ErrorCode == "user_already_exists" || apiErr.ErrorCode == "email_exists" {
			return resp.StatusCode, ErrEmailTaken
		}
		msg := apiErr.message()
		if msg == "" {
			msg = http.StatusText(resp.StatusCode)
		}
		return resp.StatusCode, &Error{Status: resp.StatusCode, Message: msg}
	}

	if out != nil && len(data) > 0 {
		if err := json.Unmarshal(data, out); err != nil {
			return resp.StatusCode, fmt.Errorf("failed to decode auth response: %w", err)
		}
	}
	return resp.StatusCode, nil
}

func isInvalidGrant(message string) bool {
	return strings.Contains(strings.ToLower(message), "invalid login credentials")
}
