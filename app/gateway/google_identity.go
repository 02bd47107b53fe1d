package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"mailboard/app/domain"
	"mailboard/app/port"
)

// GoogleGateway talks to Google's OAuth2 endpoints. Implements
// port.IdentityProvider. Tokens are verified by asking the provider, never
// decoded locally.
type GoogleGateway struct {
	clientID     string
	clientSecret string
	baseURL      string
	httpClient   *http.Client
	logger       *slog.Logger
}

// NewGoogleGateway creates a new Google identity gateway with tuned HTTP
// transport. baseURL overrides the production endpoint in tests.
func NewGoogleGateway(clientID, clientSecret, baseURL string, logger *slog.Logger) *GoogleGateway {
	if baseURL == "" {
		baseURL = "https://oauth2.googleapis.com"
	}
	if logger == nil {
		logger = slog.Default()
	}

	transport := &http.Transport{
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 20,
		IdleConnTimeout:     90 * time.Second,
	}

	return &GoogleGateway{
		clientID:     clientID,
		clientSecret: clientSecret,
		baseURL:      strings.TrimRight(baseURL, "/"),
		logger:       logger.With("component", "google_gateway"),
		httpClient: &http.Client{
			Timeout:   10 * time.Second,
			Transport: transport,
		},
	}
}

// tokeninfoResponse is Google's assertion about an identity token.
type tokeninfoResponse struct {
	Sub           string `json:"sub"`
	Email         string `json:"email"`
	EmailVerified string `json:"email_verified"`
	Name          string `json:"name"`
	Audience      string `json:"aud"`
}

// VerifyExternalToken asks the provider to assert the validity of an
// identity token. A definitive provider "no" is an invalid credential; a
// transport failure is ErrProviderUnavailable so callers can retry.
func (g *GoogleGateway) VerifyExternalToken(ctx context.Context, idToken string) (*port.ExternalIdentity, error) {
	if idToken == "" {
		return nil, domain.ErrInvalidCredential
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	endpoint := fmt.Sprintf("%s/tokeninfo?id_token=%s", g.baseURL, url.QueryEscape(idToken))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrProviderUnavailable, err)
	}

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrProviderUnavailable, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
		// fall through to decode
	case resp.StatusCode >= 400 && resp.StatusCode < 500:
		return nil, domain.ErrInvalidCredential
	default:
		return nil, fmt.Errorf("%w: provider returned status %d", domain.ErrProviderUnavailable, resp.StatusCode)
	}

	var info tokeninfoResponse
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrProviderUnavailable, err)
	}

	if info.Sub == "" || info.Email == "" {
		return nil, domain.ErrInvalidCredential
	}
	if g.clientID != "" && info.Audience != g.clientID {
		g.logger.Warn("token audience mismatch", "aud", info.Audience)
		return nil, domain.ErrInvalidCredential
	}

	return &port.ExternalIdentity{
		SubjectID: info.Sub,
		Email:     info.Email,
		Name:      info.Name,
	}, nil
}

// RefreshAccessToken exchanges a refresh token for a new access token.
// Google frequently omits the refresh token from refresh responses; the
// caller keeps the stored one in that case.
func (g *GoogleGateway) RefreshAccessToken(ctx context.Context, refreshToken string) (*domain.ProviderTokenResponse, error) {
	if refreshToken == "" {
		return nil, domain.ErrRefreshFailed
	}

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	data := url.Values{
		"grant_type":    {"refresh_token"},
		"refresh_token": {refreshToken},
		"client_id":     {g.clientID},
		"client_secret": {g.clientSecret},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+"/token", strings.NewReader(data.Encode()))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrProviderUnavailable, err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrProviderUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		g.logger.Error("refresh token exchange failed",
			"status_code", resp.StatusCode,
			"response", string(body))
		if resp.StatusCode >= 400 && resp.StatusCode < 500 {
			return nil, fmt.Errorf("%w: provider rejected refresh token", domain.ErrRefreshFailed)
		}
		return nil, fmt.Errorf("%w: provider returned status %d", domain.ErrProviderUnavailable, resp.StatusCode)
	}

	var tokenResp domain.ProviderTokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&tokenResp); err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrProviderUnavailable, err)
	}
	if tokenResp.AccessToken == "" {
		return nil, fmt.Errorf("%w: empty access token in response", domain.ErrRefreshFailed)
	}

	return &tokenResp, nil
}
