package session

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// HTTPAPI talks to the auth endpoints over HTTP.
type HTTPAPI struct {
	baseURL string
	client  *http.Client
}

func NewHTTPAPI(baseURL string) *HTTPAPI {
	return &HTTPAPI{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: 15 * time.Second},
	}
}

type loginPayload struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type authEnvelope struct {
	Token string    `json:"token"`
	User  *Identity `json:"user"`
}

type userEnvelope struct {
	User *Identity `json:"user"`
}

func (a *HTTPAPI) Login(ctx context.Context, email, password string) (*Credentials, error) {
	body, err := json.Marshal(loginPayload{Email: email, Password: password})
	if err != nil {
		return nil, err
	}

	var env authEnvelope
	if err := a.do(ctx, http.MethodPost, "/auth/login", "", bytes.NewReader(body), &env); err != nil {
		return nil, err
	}
	if env.Token == "" || env.User == nil {
		return nil, fmt.Errorf("session: malformed login response")
	}
	return &Credentials{Token: env.Token, Identity: *env.User}, nil
}

func (a *HTTPAPI) Refresh(ctx context.Context, credential string) (string, error) {
	var env authEnvelope
	if err := a.do(ctx, http.MethodPost, "/auth/refresh", credential, nil, &env); err != nil {
		return "", err
	}
	if env.Token == "" {
		return "", fmt.Errorf("session: malformed refresh response")
	}
	return env.Token, nil
}

func (a *HTTPAPI) CurrentUser(ctx context.Context, credential string) (*Identity, error) {
	var env userEnvelope
	if err := a.do(ctx, http.MethodGet, "/auth/me", credential, nil, &env); err != nil {
		return nil, err
	}
	if env.User == nil {
		return nil, fmt.Errorf("session: malformed identity response")
	}
	return env.User, nil
}

func (a *HTTPAPI) Logout(ctx context.Context, credential string) error {
	return a.do(ctx, http.MethodPost, "/auth/logout", credential, nil, nil)
}

func (a *HTTPAPI) do(ctx context.Context, method, path, credential string, body io.Reader, out any) error {
	req, err := http.NewRequestWithContext(ctx, method, a.baseURL+path, body)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if credential != "" {
		req.Header.Set("Authorization", "Bearer "+credential)
	}

	resp, err := a.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		return ErrUnauthorized
	case resp.StatusCode >= 400:
		return fmt.Errorf("session: %s %s returned %d", method, path, resp.StatusCode)
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
