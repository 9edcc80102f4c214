package oauth

import (
	"strings"

	"atrium/config"
	"atrium/internal/domain/entity"
	"atrium/internal/domain/service"
)

// NewProviders builds the provider registry from configuration. Providers
// without credentials are left out so routes for them return not-found
// instead of half-configured redirects.
func NewProviders(cfg *config.Config) map[entity.ProviderType]service.OAuthProvider {
	providers := make(map[entity.ProviderType]service.OAuthProvider)

	if cfg.OAuth.Google != nil && cfg.OAuth.Google.ClientID != "" {
		providers[entity.ProviderGoogle] = NewGoogleProvider(*cfg.OAuth.Google, callbackURL(cfg.HTTP.BaseURL, entity.ProviderGoogle))
	}
	if cfg.OAuth.Microsoft != nil && cfg.OAuth.Microsoft.ClientID != "" {
		providers[entity.ProviderMicrosoft] = NewMicrosoftProvider(*cfg.OAuth.Microsoft, cfg.OAuth.MicrosoftTenant, callbackURL(cfg.HTTP.BaseURL, entity.ProviderMicrosoft))
	}

	return providers
}

func callbackURL(baseURL string, provider entity.ProviderType) string {
	return strings.TrimSuffix(baseURL, "/") + "/api/v1/auth/oauth/" + string(provider) + "/callback"
}
