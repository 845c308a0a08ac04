package transport

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	docspb "google.golang.org/api/docs/v1"
)

var (
	// ErrNoCredentials is returned when the OAuth client secret file is
	// missing. The user has to download one from the Google Cloud console
	// before docsync can authenticate.
	ErrNoCredentials = errors.New("no credentials file")

	// ErrNotLoggedIn is returned when no cached token exists. The user has
	// to run `docsync login` first.
	ErrNotLoggedIn = errors.New("not logged in")
)

// Credentials holds the OAuth2 file locations docsync authenticates with.
type Credentials struct {
	// CredentialsFile is the OAuth client secret JSON downloaded from the
	// Google Cloud console (installed-app type).
	CredentialsFile string
	// TokenFile caches the user's token between invocations.
	TokenFile string
}

// oauthConfig reads the client secret file and builds the OAuth2 config
// scoped to the Docs API.
func (c Credentials) oauthConfig() (*oauth2.Config, error) {
	data, err := os.ReadFile(c.CredentialsFile)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrNoCredentials, c.CredentialsFile)
		}

		return nil, fmt.Errorf("read credentials: %w", err)
	}

	cfg, err := google.ConfigFromJSON(data, docspb.DocumentsScope)
	if err != nil {
		return nil, fmt.Errorf("parse credentials %s: %w", c.CredentialsFile, err)
	}

	return cfg, nil
}

// TokenSource returns an auto-refreshing token source backed by the cached
// token file. Refreshed tokens are not written back; the cached refresh
// token stays valid either way.
func (c Credentials) TokenSource(ctx context.Context) (oauth2.TokenSource, error) {
	cfg, err := c.oauthConfig()
	if err != nil {
		return nil, err
	}

	tok, err := c.readToken()
	if err != nil {
		return nil, err
	}

	return cfg.TokenSource(ctx, tok), nil
}

// AuthURL starts the installed-app flow: the returned URL is opened (or
// printed) for the user, who comes back with an authorization code for
// Exchange.
func (c Credentials) AuthURL() (string, error) {
	cfg, err := c.oauthConfig()
	if err != nil {
		return "", err
	}

	return cfg.AuthCodeURL("state-token", oauth2.AccessTypeOffline), nil
}

// Exchange trades the user's authorization code for a token and caches it
// in TokenFile.
func (c Credentials) Exchange(ctx context.Context, code string) error {
	cfg, err := c.oauthConfig()
	if err != nil {
		return err
	}

	tok, err := cfg.Exchange(ctx, code)
	if err != nil {
		return fmt.Errorf("token exchange: %w", err)
	}

	return c.writeToken(tok)
}

func (c Credentials) readToken() (*oauth2.Token, error) {
	data, err := os.ReadFile(c.TokenFile)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrNotLoggedIn, c.TokenFile)
		}

		return nil, fmt.Errorf("read token: %w", err)
	}

	var tok oauth2.Token

	if err := json.Unmarshal(data, &tok); err != nil {
		return nil, fmt.Errorf("parse token %s: %w", c.TokenFile, err)
	}

	return &tok, nil
}

func (c Credentials) writeToken(tok *oauth2.Token) error {
	data, err := json.Marshal(tok)
	if err != nil {
		return fmt.Errorf("marshal token: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(c.TokenFile), 0o700); err != nil {
		return fmt.Errorf("token dir: %w", err)
	}

	// 0600: the token grants full edit access to the user's documents.
	if err := os.WriteFile(c.TokenFile, data, 0o600); err != nil {
		return fmt.Errorf("write token: %w", err)
	}

	return nil
}
