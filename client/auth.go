package client

import (
	"context"
	"net/http"

	"github.com/dghubble/oauth1"
	log "github.com/sirupsen/logrus"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
)

// newHTTPClient picks the signing scheme from the configured credentials.
// User context (OAuth 1.0a) wins over app-only auth.
func newHTTPClient(cfg *Config) (*http.Client, error) {
	ctx := context.Background()

	switch {
	case cfg.HTTPClient != nil:
		return cfg.HTTPClient, nil
	case cfg.ConsumerKey != "" && cfg.ConsumerSecret != "" &&
		cfg.AccessToken != "" && cfg.AccessTokenSecret != "":
		log.Debug("using oauth1 user context")
		conf := oauth1.NewConfig(cfg.ConsumerKey, cfg.ConsumerSecret)
		token := oauth1.NewToken(cfg.AccessToken, cfg.AccessTokenSecret)
		return conf.Client(ctx, token), nil
	case cfg.BearerToken != "":
		log.Debug("using app-only bearer token")
		ts := oauth2.StaticTokenSource(&oauth2.Token{
			AccessToken: cfg.BearerToken,
			TokenType:   "Bearer",
		})
		return oauth2.NewClient(ctx, ts), nil
	case cfg.ConsumerKey != "" && cfg.ConsumerSecret != "":
		log.Debug("using app-only client credentials")
		conf := &clientcredentials.Config{
			ClientID:     cfg.ConsumerKey,
			ClientSecret: cfg.ConsumerSecret,
			TokenURL:     cfg.TokenURI,
			AuthStyle:    oauth2.AuthStyleInHeader,
		}
		return conf.Client(ctx), nil
	default:
		return nil, ErrMissingCredentials
	}
}
