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

	"github.com/go-jose/go-jose/v4"
)

// HTTPProvider talks to a hosted identity provider exposing a GoTrue-style
// signup API, an admin delete endpoint, and a JWKS document.
type HTTPProvider struct {
	baseURL    string
	serviceKey string
	httpClient *http.Client
}

var _ Provider = (*HTTPProvider)(nil)

// NewHTTPProvider constructs the default HTTP-backed Provider. The timeout
// bounds every outbound call; zero falls back to 10s.
func NewHTTPProvider(baseURL, serviceKey string, timeout time.Duration) *HTTPProvider {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &HTTPProvider{
		baseURL:    strings.TrimSuffix(strings.TrimSpace(baseURL), "/"),
		serviceKey: serviceKey,
		httpClient: &http.Client{Timeout: timeout},
	}
}

type signupRequest struct {
	Email    string         `json:"email"`
	Password string         `json:"password"`
	Data     map[string]any `json:"data,omitempty"`
}

type signupResponse struct {
	ID          string `json:"id"`
	AccessToken string `json:"access_token"`
	ExpiresIn   int64  `json:"expires_in"`
	User        struct {
		ID string `json:"id"`
	} `json:"user"`
}

// Signup registers the identity at the provider. A response carrying an
// access token means the account is active immediately; otherwise the
// provider has sent a confirmation email and the account is pending.
func (p *HTTPProvider) Signup(ctx context.Context, params SignupParams) (Signup, error) {
	payload, err := json.Marshal(signupRequest{
		Email:    params.Email,
		Password: params.Password,
		Data: map[string]any{
			"name": params.Name,
			"role": string(params.Role),
		},
	})
	if err != nil {
		return Signup{}, fmt.Errorf("encode signup request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/signup", bytes.NewReader(payload))
	if err != nil {
		return Signup{}, fmt.Errorf("build signup request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return Signup{}, fmt.Errorf("%w: signup request: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return Signup{}, fmt.Errorf("%w: read signup response: %v", ErrUnavailable, err)
	}

	switch {
	case resp.StatusCode == http.StatusConflict, resp.StatusCode == http.StatusUnprocessableEntity:
		return Signup{}, fmt.Errorf("%w: status=%d", ErrConflict, resp.StatusCode)
	case resp.StatusCode >= 300:
		return Signup{}, fmt.Errorf("%w: signup failed: status=%d", ErrUnavailable, resp.StatusCode)
	}

	var parsed signupResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return Signup{}, fmt.Errorf("%w: decode signup response: %v", ErrUnavailable, err)
	}

	if parsed.AccessToken != "" {
		id := parsed.User.ID
		if id == "" {
			id = parsed.ID
		}
		if id == "" {
			return Signup{}, fmt.Errorf("%w: signup response missing user id", ErrUnavailable)
		}
		return Signup{
			ID:           id,
			Confirmation: ActiveSession{AccessToken: parsed.AccessToken, ExpiresIn: parsed.ExpiresIn},
		}, nil
	}

	if parsed.ID == "" {
		return Signup{}, fmt.Errorf("%w: signup response missing user id", ErrUnavailable)
	}
	return Signup{ID: parsed.ID, Confirmation: PendingConfirmation{}}, nil
}

// Delete removes an identity through the provider admin API.
func (p *HTTPProvider) Delete(ctx context.Context, id string) error {
	if strings.TrimSpace(id) == "" {
		return fmt.Errorf("identity: delete requires an id")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, p.baseURL+"/admin/users/"+id, nil)
	if err != nil {
		return fmt.Errorf("build delete request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+p.serviceKey)

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: delete request: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 1<<16))

	if resp.StatusCode >= 300 && resp.StatusCode != http.StatusNotFound {
		return fmt.Errorf("%w: delete failed: status=%d", ErrUnavailable, resp.StatusCode)
	}
	return nil
}

// Keyset fetches the provider JWKS used to verify session tokens.
func (p *HTTPProvider) Keyset(ctx context.Context) (jose.JSONWebKeySet, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+"/.well-known/jwks.json", nil)
	if err != nil {
		return jose.JSONWebKeySet{}, fmt.Errorf("build jwks request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return jose.JSONWebKeySet{}, fmt.Errorf("%w: jwks request: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return jose.JSONWebKeySet{}, fmt.Errorf("%w: read jwks: %v", ErrUnavailable, err)
	}
	if resp.StatusCode >= 300 {
		return jose.JSONWebKeySet{}, fmt.Errorf("%w: jwks failed: status=%d", ErrUnavailable, resp.StatusCode)
	}

	var keyset jose.JSONWebKeySet
	if err := json.Unmarshal(body, &keyset); err != nil {
		return jose.JSONWebKeySet{}, fmt.Errorf("%w: decode jwks: %v", ErrUnavailable, err)
	}
	return keyset, nil
}
