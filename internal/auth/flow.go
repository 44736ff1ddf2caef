package auth

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/oauth2"
)

// Authorize runs the one-time authorization code flow. It prints the
// consent URL to out, reads a single line containing the authorization code
// from in, exchanges it and stores the token under key, replacing any
// previous token.
func Authorize(ctx context.Context, cfg *oauth2.Config, store Store, key string, in io.Reader, out io.Writer) (*oauth2.Token, error) {
	if key == "" {
		key = DefaultTokenKey
	}

	authURL := cfg.AuthCodeURL("state", oauth2.AccessTypeOffline)
	fmt.Fprintf(out, "1. Open this URL in your browser: %s\n", authURL)
	fmt.Fprint(out, "2. Enter the code from the redirect URL here: ")

	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("reading authorization code: %w", err)
	}
	code := strings.TrimSpace(line)
	if code == "" {
		return nil, errors.New("no authorization code entered")
	}

	token, err := cfg.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("exchanging auth code for token: %w", err)
	}

	data, err := json.Marshal(token)
	if err != nil {
		return nil, fmt.Errorf("marshaling token: %w", err)
	}
	if err := store.Put(ctx, key, data); err != nil {
		return nil, fmt.Errorf("storing token: %w", err)
	}

	fmt.Fprintf(out, "\nToken stored to %s\n", store.Location(key))
	return token, nil
}
