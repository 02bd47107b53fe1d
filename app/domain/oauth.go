package domain

import "time"

// RefreshSkew is the safety margin before actual expiry used to trigger
// proactive refresh of provider access tokens.
const RefreshSkew = 5 * time.Minute

// OAuthTokenRecord holds the per-account Gmail OAuth credentials. At most
// one record exists per subject ID.
type OAuthTokenRecord struct {
	SubjectID    string    `json:"subject_id"`
	AccessToken  string    `json:"-"`
	RefreshToken string    `json:"-"`
	ExpiresAt    time.Time `json:"expires_at"`
	Scope        string    `json:"scope"`
	Mailbox      string    `json:"mailbox"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// ProviderTokenResponse represents the provider's token endpoint response.
// The refresh token is frequently omitted on refresh grants.
type ProviderTokenResponse struct {
	AccessToken  string `json:"access_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int    `json:"expires_in"`
	RefreshToken string `json:"refresh_token,omitempty"`
	Scope        string `json:"scope"`
}

// NeedsRefresh reports whether the access token is inside the skew window.
func (r *OAuthTokenRecord) NeedsRefresh(now time.Time) bool {
	return now.Add(RefreshSkew).After(r.ExpiresAt)
}

// Refreshable reports whether a refresh is even possible. Records without a
// refresh token go stale and the caller must surface a provider error.
func (r *OAuthTokenRecord) Refreshable() bool {
	return r.RefreshToken != ""
}

// ApplyRefresh updates the record from a refresh response. The previously
// stored refresh token is retained when the response omits one.
func (r *OAuthTokenRecord) ApplyRefresh(resp ProviderTokenResponse, now time.Time) {
	r.AccessToken = resp.AccessToken
	r.ExpiresAt = now.Add(time.Duration(resp.ExpiresIn) * time.Second)
	if resp.Scope != "" {
		r.Scope = resp.Scope
	}
	if resp.RefreshToken != "" {
		r.RefreshToken = resp.RefreshToken
	}
	r.UpdatedAt = now
}
