package identity

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/support-console/internal/domain"
	apperrors "github.com/spec-kit/support-console/pkg/util"
)

// User is the identity backend's view of an account.
type User struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// Client talks to a GoTrue-compatible identity backend.
type Client struct {
	baseURL    string
	anonKey    string
	httpClient *http.Client
	logger     *zap.Logger
	now        func() time.Time
}

// NewClient creates an identity client.
func NewClient(baseURL, anonKey string, httpClient *http.Client, logger *zap.Logger) *Client {
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		anonKey:    anonKey,
		httpClient: httpClient,
		logger:     logger,
		now:        time.Now,
	}
}

type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int64  `json:"expires_in"`
	ExpiresAt    int64  `json:"expires_at"`
	RefreshToken string `json:"refresh_token"`
	User         *User  `json:"user"`
	// Sign-up without a session returns the bare user.
	ID    string `json:"id"`
	Email string `json:"email"`
}

func (t tokenResponse) session(now time.Time) *domain.Session {
	if t.AccessToken == "" {
		return nil
	}
	s := &domain.Session{AccessToken: t.AccessToken, RefreshToken: t.RefreshToken}
	if t.User != nil {
		s.UserID = t.User.ID
		s.Email = t.User.Email
	}
	switch {
	case t.ExpiresAt > 0:
		s.ExpiresAt = time.Unix(t.ExpiresAt, 0).UTC()
	case t.ExpiresIn > 0:
		s.ExpiresAt = now.Add(time.Duration(t.ExpiresIn) * time.Second).UTC()
	}
	return s
}

type credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// SignIn exchanges email and password for a session.
func (c *Client) SignIn(ctx context.Context, email, password string) (*domain.Session, error) {
	var out tokenResponse
	if err := c.call(ctx, http.MethodPost, "/auth/v1/token?grant_type=password", "", credentials{email, password}, &out); err != nil {
		return nil, err
	}
	s := out.session(c.now())
	if s == nil {
		return nil, apperrors.NewTransportError(fmt.Errorf("sign-in response has no access token"))
	}
	return s, nil
}

// SignUp registers an account. A nil session with a nil error means email verification is pending.
func (c *Client) SignUp(ctx context.Context, email, password string) (*domain.Session, error) {
	var out tokenResponse
	if err := c.call(ctx, http.MethodPost, "/auth/v1/signup", "", credentials{email, password}, &out); err != nil {
		return nil, err
	}
	return out.session(c.now()), nil
}

// Refresh trades a refresh token for a new session.
func (c *Client) Refresh(ctx context.Context, refreshToken string) (*domain.Session, error) {
	var out tokenResponse
	body := map[string]string{"refresh_token": refreshToken}
	if err := c.call(ctx, http.MethodPost, "/auth/v1/token?grant_type=refresh_token", "", body, &out); err != nil {
		return nil, err
	}
	s := out.session(c.now())
	if s == nil {
		return nil, apperrors.NewTransportError(fmt.Errorf("refresh response has no access token"))
	}
	return s, nil
}

// User returns the account behind an access token.
func (c *Client) User(ctx context.Context, accessToken string) (*User, error) {
	var out User
	if err := c.call(ctx, http.MethodGet, "/auth/v1/user", accessToken, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// SignOut revokes the session behind an access token.
func (c *Client) SignOut(ctx context.Context, accessToken string) error {
	return c.call(ctx, http.MethodPost, "/auth/v1/logout", accessToken, nil, nil)
}

func (c *Client) call(ctx context.Context, method, path, accessToken string, in, out any) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return apperrors.NewInternalError(err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return apperrors.NewInternalError(err)
	}
	req.Header.Set("apikey", c.anonKey)
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	token := accessToken
	if token == "" {
		token = c.anonKey
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Warn("identity request failed", zap.String("path", req.URL.Path), zap.Error(err))
		return apperrors.NewTransportError(err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return apperrors.NewTransportError(fmt.Errorf("read response: %w", err))
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		text := errorText(data)
		switch resp.StatusCode {
		case http.StatusBadRequest, http.StatusUnauthorized, http.StatusForbidden, http.StatusUnprocessableEntity:
			return apperrors.NewUnauthorized(text)
		default:
			return apperrors.NewStatusError(resp.StatusCode, text)
		}
	}

	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return apperrors.NewTransportError(fmt.Errorf("decode response: %w", err))
	}
	return nil
}

func errorText(data []byte) string {
	var payload struct {
		ErrorDescription string `json:"error_description"`
		Msg              string `json:"msg"`
		Message          string `json:"message"`
		Error            string `json:"error"`
	}
	if err := json.Unmarshal(data, &payload); err == nil {
		for _, text := range []string{payload.ErrorDescription, payload.Msg, payload.Message, payload.Error} {
			if text != "" {
				return text
			}
		}
	}
	return "identity request failed"
}
