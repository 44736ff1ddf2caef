// Package auth handles OAuth2 client credentials and the stored Gmail token.
// Client credentials are read from a Google Cloud Console credentials.json
// file on every call; the token lives in a Store and is only ever written by
// the interactive authorization flow.
package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
)

// DefaultTokenKey is the store key the token is saved under.
const DefaultTokenKey = "token.json"

var (
	// ErrInvalidCredentials is returned when the credentials file does not
	// describe an OAuth client.
	ErrInvalidCredentials = errors.New("invalid credentials file")

	// ErrNotAuthorized is returned when no token has been stored yet.
	ErrNotAuthorized = errors.New("not authorized")
)

// clientInfo holds the fields of a credentials.json client entry that must
// be present before the entry is handed to google.ConfigFromJSON.
type clientInfo struct {
	ClientID     string   `json:"client_id"`
	ClientSecret string   `json:"client_secret"`
	RedirectURIs []string `json:"redirect_uris"`
}

// ParseCredentials builds an oauth2.Config from credentials.json content.
// The "installed" client is preferred over "web"; google.ConfigFromJSON
// prefers "web", so the chosen entry is passed to it on its own.
func ParseCredentials(data []byte, scopes ...string) (*oauth2.Config, error) {
	var clients map[string]json.RawMessage
	if err := json.Unmarshal(data, &clients); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidCredentials, err)
	}

	raw := clients["installed"]
	if isNull(raw) {
		raw = clients["web"]
	}
	if isNull(raw) {
		return nil, fmt.Errorf("%w: neither \"installed\" nor \"web\" client found", ErrInvalidCredentials)
	}

	var info clientInfo
	if err := json.Unmarshal(raw, &info); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidCredentials, err)
	}
	switch {
	case info.ClientID == "":
		return nil, fmt.Errorf("%w: missing client_id", ErrInvalidCredentials)
	case info.ClientSecret == "":
		return nil, fmt.Errorf("%w: missing client_secret", ErrInvalidCredentials)
	case len(info.RedirectURIs) == 0 || info.RedirectURIs[0] == "":
		return nil, fmt.Errorf("%w: missing redirect_uris", ErrInvalidCredentials)
	}

	chosen, err := json.Marshal(map[string]json.RawMessage{"installed": raw})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidCredentials, err)
	}
	cfg, err := google.ConfigFromJSON(chosen, scopes...)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidCredentials, err)
	}

	// auth_uri and token_uri are optional in the file.
	if cfg.Endpoint.AuthURL == "" {
		cfg.Endpoint.AuthURL = google.Endpoint.AuthURL
	}
	if cfg.Endpoint.TokenURL == "" {
		cfg.Endpoint.TokenURL = google.Endpoint.TokenURL
	}
	return cfg, nil
}

func isNull(raw json.RawMessage) bool {
	return len(raw) == 0 || bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}

// Loader turns the credentials file and the stored token into an
// authorized Google API client option. It never writes to the store.
type Loader struct {
	// CredentialsFile is the path to credentials.json.
	CredentialsFile string
	// Store holds the token written by Authorize.
	Store Store
	// TokenKey is the store key of the token. Defaults to DefaultTokenKey.
	TokenKey string
	// Scopes requested for the API client.
	Scopes []string
}

func (l *Loader) tokenKey() string {
	if l.TokenKey == "" {
		return DefaultTokenKey
	}
	return l.TokenKey
}

// Config reads and parses the credentials file.
func (l *Loader) Config() (*oauth2.Config, error) {
	data, err := os.ReadFile(l.CredentialsFile)
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("credentials file not found at %s\n\nDownload it from https://console.cloud.google.com/apis/credentials and place it there, or use --credentials to specify a different path", l.CredentialsFile)
	}
	if err != nil {
		return nil, fmt.Errorf("reading credentials file: %w", err)
	}

	cfg, err := ParseCredentials(data, l.Scopes...)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", l.CredentialsFile, err)
	}
	return cfg, nil
}

// Token returns the stored token. A missing or unreadable token yields an
// error wrapping ErrNotAuthorized.
func (l *Loader) Token(ctx context.Context) (*oauth2.Token, error) {
	data, err := l.Store.Get(ctx, l.tokenKey())
	if err != nil {
		return nil, fmt.Errorf("%w: no token found in %s (%v); run 'gmail-manager login' first",
			ErrNotAuthorized, l.Store.Location(l.tokenKey()), err)
	}

	var token oauth2.Token
	if err := json.Unmarshal(data, &token); err != nil {
		return nil, fmt.Errorf("%w: token in %s is unreadable (%v); run 'gmail-manager login' again",
			ErrNotAuthorized, l.Store.Location(l.tokenKey()), err)
	}
	return &token, nil
}

// Authorized reports whether a token is present in the store.
func (l *Loader) Authorized(ctx context.Context) bool {
	_, err := l.Token(ctx)
	return err == nil
}

// TokenSource returns a token source that refreshes in memory only.
func (l *Loader) TokenSource(ctx context.Context) (oauth2.TokenSource, error) {
	cfg, err := l.Config()
	if err != nil {
		return nil, err
	}

	token, err := l.Token(ctx)
	if err != nil {
		return nil, err
	}
	return cfg.TokenSource(ctx, token), nil
}

// ClientOption returns a google API option.ClientOption bound to the stored
// token.
func (l *Loader) ClientOption(ctx context.Context) (option.ClientOption, error) {
	ts, err := l.TokenSource(ctx)
	if err != nil {
		return nil, err
	}
	return option.WithTokenSource(ts), nil
}
