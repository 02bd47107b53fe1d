package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"mailboard/app/domain"
)

// MessagePage is one page of inbox message references. Message bodies and
// formatting stay with the provider; the dashboard only browses references.
type MessagePage struct {
	Messages []MessageRef `json:"messages"`
	NextPage string       `json:"nextPageToken,omitempty"`
	Estimate int          `json:"resultSizeEstimate"`
}

// MessageRef identifies one message in the linked mailbox.
type MessageRef struct {
	ID       string `json:"id"`
	ThreadID string `json:"threadId"`
}

// GmailClient lists inbox contents of a linked mailbox using a bearer
// access token obtained from the token store.
type GmailClient struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewGmailClient creates a Gmail API client. baseURL overrides the
// production endpoint in tests.
func NewGmailClient(baseURL string, logger *slog.Logger) *GmailClient {
	if baseURL == "" {
		baseURL = "https://gmail.googleapis.com/gmail/v1"
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &GmailClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		logger:  logger.With("component", "gmail_client"),
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 20,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
}

// ListMessages fetches one page of message references, optionally filtered
// by a search query.
func (c *GmailClient) ListMessages(ctx context.Context, accessToken, query string, maxResults int, pageToken string) (*MessagePage, error) {
	if accessToken == "" {
		return nil, domain.ErrMissingCredential
	}
	if maxResults <= 0 || maxResults > 100 {
		maxResults = 25
	}

	params := url.Values{"maxResults": {strconv.Itoa(maxResults)}}
	if query != "" {
		params.Set("q", query)
	}
	if pageToken != "" {
		params.Set("pageToken", pageToken)
	}

	endpoint := fmt.Sprintf("%s/users/me/messages?%s", c.baseURL, params.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrProviderUnavailable, err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrProviderUnavailable, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, domain.ErrInvalidCredential
	default:
		return nil, fmt.Errorf("%w: mailbox API returned status %d", domain.ErrProviderUnavailable, resp.StatusCode)
	}

	var page MessagePage
	if err := json.NewDecoder(resp.Body).Decode(&page); err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrProviderUnavailable, err)
	}
	return &page, nil
}
