package admin

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/angelmondragon/storefront/pkg/config"
	pkgerrors "github.com/angelmondragon/storefront/pkg/errors"
	"github.com/angelmondragon/storefront/pkg/logger"
)

const defaultTimeout = 10 * time.Second

// Profile is the admin account returned by the admin API.
type Profile struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
	Role  string `json:"role,omitempty"`
}

// UnmarshalJSON accepts numeric or string ids.
func (p *Profile) UnmarshalJSON(data []byte) error {
	type alias Profile
	var raw struct {
		alias
		ID json.RawMessage `json:"id"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*p = Profile(raw.alias)
	p.ID = strings.Trim(string(raw.ID), `"`)
	if p.ID == "null" {
		p.ID = ""
	}
	return nil
}

// Client talks to the external admin API.
type Client struct {
	baseURL string
	http    *http.Client
	logg    *logger.Logger
}

func NewClient(cfg config.AdminConfig, httpClient *http.Client, logg *logger.Logger) (*Client, error) {
	base := strings.TrimRight(strings.TrimSpace(cfg.APIBaseURL), "/")
	if base == "" {
		return nil, fmt.Errorf("admin api base url required")
	}
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = defaultTimeout
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	if logg == nil {
		logg = logger.Nop()
	}
	return &Client{baseURL: base, http: httpClient, logg: logg}, nil
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token string  `json:"token"`
	Admin Profile `json:"admin"`
}

type meResponse struct {
	Admin Profile `json:"admin"`
}

type apiError struct {
	Message string `json:"message"`
}

// Login exchanges email and password for a credential.
func (c *Client) Login(ctx context.Context, email, password string) (Credential, Profile, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return Credential{}, Profile{}, pkgerrors.New(pkgerrors.CodeValidation, "email and password are required")
	}

	var out loginResponse
	if err := c.do(ctx, http.MethodPost, "/auth/login", Credential{}, loginRequest{Email: email, Password: password}, &out); err != nil {
		return Credential{}, Profile{}, err
	}
	if strings.TrimSpace(out.Token) == "" {
		return Credential{}, Profile{}, pkgerrors.New(pkgerrors.CodeDependency, "admin api returned no token")
	}
	return NewCredential(out.Token), out.Admin, nil
}

// Me returns the profile behind cred.
func (c *Client) Me(ctx context.Context, cred Credential) (Profile, error) {
	if cred.Empty() {
		return Profile{}, pkgerrors.New(pkgerrors.CodeUnauthorized, "not signed in")
	}
	var out meResponse
	if err := c.do(ctx, http.MethodGet, "/auth/me", cred, nil, &out); err != nil {
		return Profile{}, err
	}
	return out.Admin, nil
}

func (c *Client) do(ctx context.Context, method, path string, cred Credential, body, dest any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encode admin request")
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "build admin request")
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	cred.Apply(req)

	resp, err := c.http.Do(req)
	if err != nil {
		c.logg.Error(ctx, "admin api request failed", err)
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "admin api unavailable")
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()

	if resp.StatusCode >= http.StatusBadRequest {
		return statusErr(resp)
	}
	if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode admin response")
	}
	return nil
}

func statusErr(resp *http.Response) error {
	var body apiError
	_ = json.NewDecoder(io.LimitReader(resp.Body, 64<<10)).Decode(&body)
	msg := strings.TrimSpace(body.Message)

	code := pkgerrors.CodeDependency
	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		code = pkgerrors.CodeUnauthorized
		if msg == "" {
			msg = "invalid credentials"
		}
	case resp.StatusCode == http.StatusNotFound:
		code = pkgerrors.CodeNotFound
	case resp.StatusCode < http.StatusInternalServerError && resp.StatusCode != http.StatusTooManyRequests:
		code = pkgerrors.CodeValidation
	}
	if msg == "" {
		msg = "admin api request failed"
	}
	return pkgerrors.New(code, msg).WithDetails(map[string]any{"status": resp.StatusCode})
}
