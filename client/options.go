package client

import (
	"net/http"
)

const (
	// DefaultURI is the default base URI of the Twitter v1.1 REST API
	DefaultURI = "https://api.twitter.com/1.1/"

	// DefaultTokenURI is the endpoint used to exchange consumer credentials
	// for an app-only bearer token
	DefaultTokenURI = "https://api.twitter.com/oauth2/token"

	// MaxLookupSize is the upstream cap on ids per `users/lookup` request
	MaxLookupSize = 100

	// MaxFollowerIDs is the largest page `followers/ids` will return
	MaxFollowerIDs = 5000
)

// Config holds the API endpoint and the static credentials used to sign
// requests. Credentials are never read from anywhere else.
type Config struct {
	URI      string
	TokenURI string

	ConsumerKey       string
	ConsumerSecret    string
	AccessToken       string
	AccessTokenSecret string
	BearerToken       string

	HTTPClient *http.Client
}

// NewConfig ...
func NewConfig() *Config {
	return &Config{
		URI:      DefaultURI,
		TokenURI: DefaultTokenURI,
	}
}

// Option is a function that takes a config struct and modifies it
type Option func(*Config) error

// WithURI sets the base URI used for the Twitter API endpoint
func WithURI(uri string) Option {
	return func(cfg *Config) error {
		cfg.URI = uri
		return nil
	}
}

// WithTokenURI sets the endpoint used for app-only token exchange
func WithTokenURI(uri string) Option {
	return func(cfg *Config) error {
		cfg.TokenURI = uri
		return nil
	}
}

// WithConsumer sets the application's consumer key and secret
func WithConsumer(key, secret string) Option {
	return func(cfg *Config) error {
		cfg.ConsumerKey = key
		cfg.ConsumerSecret = secret
		return nil
	}
}

// WithAccessToken sets the user context access token and secret
func WithAccessToken(token, secret string) Option {
	return func(cfg *Config) error {
		cfg.AccessToken = token
		cfg.AccessTokenSecret = secret
		return nil
	}
}

// WithBearerToken sets a pre-issued app-only bearer token
func WithBearerToken(token string) Option {
	return func(cfg *Config) error {
		cfg.BearerToken = token
		return nil
	}
}

// WithHTTPClient overrides the HTTP client, skipping request signing
func WithHTTPClient(httpClient *http.Client) Option {
	return func(cfg *Config) error {
		cfg.HTTPClient = httpClient
		return nil
	}
}
