// Package oauth implements the external identity providers used for social
// login and account linking.
package oauth

import (
	"context"
	"encoding/json"
	"io"
	"net/http"

	"github.com/pkg/errors"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"atrium/config"
	"atrium/internal/domain/entity"
	"atrium/internal/domain/service"
)

const googleUserInfoURL = "https://www.googleapis.com/oauth2/v2/userinfo"

type googleProvider struct {
	oauth *oauth2.Config
}

// NewGoogleProvider builds the Google provider. redirectURL is the absolute
// callback URL registered with the Google console.
func NewGoogleProvider(cfg config.OAuthProviderConfig, redirectURL string) service.OAuthProvider {
	return &googleProvider{
		oauth: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  redirectURL,
			Scopes:       []string{"openid", "email", "profile"},
			Endpoint:     google.Endpoint,
		},
	}
}

func (p *googleProvider) Name() entity.ProviderType {
	return entity.ProviderGoogle
}

func (p *googleProvider) AuthCodeURL(state string) string {
	return p.oauth.AuthCodeURL(state)
}

// Exchange trades the authorization code for tokens and resolves the
// profile behind them via the userinfo endpoint.
func (p *googleProvider) Exchange(ctx context.Context, code string) (*service.ExternalIdentity, error) {
	token, err := p.oauth.Exchange(ctx, code)
	if err != nil {
		return nil, errors.Wrap(err, "exchange authorization code")
	}

	var profile struct {
		ID            string `json:"id"`
		Email         string `json:"email"`
		Name          string `json:"name"`
		VerifiedEmail bool   `json:"verified_email"`
	}
	if err := fetchJSON(ctx, p.oauth.Client(ctx, token), googleUserInfoURL, &profile); err != nil {
		return nil, err
	}
	if profile.ID == "" {
		return nil, errors.New("userinfo response missing subject")
	}

	return &service.ExternalIdentity{
		Provider:      entity.ProviderGoogle,
		Subject:       profile.ID,
		Email:         profile.Email,
		Name:          profile.Name,
		EmailVerified: profile.VerifiedEmail,
	}, nil
}

func fetchJSON(ctx context.Context, client *http.Client, url string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return errors.Wrap(err, "create userinfo request")
	}

	resp, err := client.Do(req)
	if err != nil {
		return errors.Wrap(err, "fetch userinfo")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)

		return errors.Errorf("userinfo request failed with status %d: %s", resp.StatusCode, string(body))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return errors.Wrap(err, "decode userinfo response")
	}

	return nil
}
