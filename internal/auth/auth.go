package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"sync"

	"github.com/guttosm/fxpulse/internal/logger"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

// DriveScope grants full Drive access; the dataset may be created by another principal.
const DriveScope = "https://www.googleapis.com/auth/drive"

// ErrNoToken is returned when the OAuth flow needs a stored token that does not exist.
// Obtaining the first token is an operator task done outside this process.
var ErrNoToken = errors.New("no stored oauth token")

// CredentialProvider yields an authenticated HTTP client for the blob store.
type CredentialProvider interface {
	HTTPClient(ctx context.Context) (*http.Client, error)
}

// OAuthTokenProvider authenticates with an installed-app client secret and a
// token previously stored on disk. Expired tokens are refreshed and written back.
type OAuthTokenProvider struct {
	CredentialsFile string
	TokenFile       string
	Scopes          []string
}

// NewOAuthTokenProvider builds a provider for the given files using DriveScope.
func NewOAuthTokenProvider(credentialsFile, tokenFile string) *OAuthTokenProvider {
	return &OAuthTokenProvider{
		CredentialsFile: credentialsFile,
		TokenFile:       tokenFile,
		Scopes:          []string{DriveScope},
	}
}

// HTTPClient returns a client whose transport attaches (and refreshes) the stored token.
//
// Behavior:
//   - Missing token file yields ErrNoToken.
//   - A refreshed token is persisted to TokenFile; persistence failures are logged only.
func (p *OAuthTokenProvider) HTTPClient(ctx context.Context) (*http.Client, error) {
	secret, err := os.ReadFile(p.CredentialsFile)
	if err != nil {
		return nil, fmt.Errorf("read client credentials: %w", err)
	}
	cfg, err := google.ConfigFromJSON(secret, p.Scopes...)
	if err != nil {
		return nil, fmt.Errorf("parse client credentials: %w", err)
	}

	tok, err := loadToken(p.TokenFile)
	if err != nil {
		return nil, err
	}

	ts := &persistingTokenSource{
		src:  cfg.TokenSource(ctx, tok),
		path: p.TokenFile,
		last: tok.AccessToken,
	}
	return oauth2.NewClient(ctx, ts), nil
}

// ServiceAccountProvider authenticates with a service-account JSON key.
type ServiceAccountProvider struct {
	KeyFile string
	Scopes  []string
}

// NewServiceAccountProvider builds a provider for keyFile using DriveScope.
func NewServiceAccountProvider(keyFile string) *ServiceAccountProvider {
	return &ServiceAccountProvider{KeyFile: keyFile, Scopes: []string{DriveScope}}
}

// HTTPClient returns a client that signs JWT assertions with the service-account key.
func (p *ServiceAccountProvider) HTTPClient(ctx context.Context) (*http.Client, error) {
	key, err := os.ReadFile(p.KeyFile)
	if err != nil {
		return nil, fmt.Errorf("read service account key: %w", err)
	}
	cfg, err := google.JWTConfigFromJSON(key, p.Scopes...)
	if err != nil {
		return nil, fmt.Errorf("parse service account key: %w", err)
	}
	return cfg.Client(ctx), nil
}

func loadToken(path string) (*oauth2.Token, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%s: %w", path, ErrNoToken)
		}
		return nil, fmt.Errorf("read token: %w", err)
	}
	var tok oauth2.Token
	if err := json.Unmarshal(b, &tok); err != nil {
		return nil, fmt.Errorf("decode token: %w", err)
	}
	return &tok, nil
}

func saveToken(path string, tok *oauth2.Token) error {
	b, err := json.Marshal(tok)
	if err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), ".token-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())
	if err := tmp.Chmod(0o600); err != nil {
		_ = tmp.Close()
		return err
	}
	if _, err := tmp.Write(b); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

// persistingTokenSource writes every newly issued access token back to disk.
type persistingTokenSource struct {
	src  oauth2.TokenSource
	path string

	mu   sync.Mutex
	last string
}

func (s *persistingTokenSource) Token() (*oauth2.Token, error) {
	tok, err := s.src.Token()
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if tok.AccessToken != s.last {
		s.last = tok.AccessToken
		if err := saveToken(s.path, tok); err != nil {
			l := logger.With("auth")
			l.Warn().Err(err).Str("path", s.path).Msg("failed to persist refreshed token")
		}
	}
	return tok, nil
}
