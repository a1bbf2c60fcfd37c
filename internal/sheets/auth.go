package sheets

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const sheetsScope = "https://www.googleapis.com/auth/spreadsheets"

// Credentials is the subset of a Google service account key file the sink
// needs.
type Credentials struct {
	ClientEmail string `json:"client_email"`
	PrivateKey  string `json:"private_key"`
	TokenURI    string `json:"token_uri"`
}

// LoadCredentials reads a service account key file.
func LoadCredentials(path string) (Credentials, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Credentials{}, fmt.Errorf("read credentials: %w", err)
	}
	var creds Credentials
	if err := json.Unmarshal(data, &creds); err != nil {
		return Credentials{}, fmt.Errorf("parse credentials: %w", err)
	}
	if creds.ClientEmail == "" || creds.PrivateKey == "" {
		return Credentials{}, fmt.Errorf("credentials missing client_email or private_key")
	}
	if creds.TokenURI == "" {
		creds.TokenURI = "https://oauth2.googleapis.com/token"
	}
	return creds, nil
}

type tokenProvider interface {
	Token(ctx context.Context) (string, error)
}

// serviceAccountTokens exchanges a signed RS256 assertion for a short-lived
// bearer token and caches it until shortly before expiry.
type serviceAccountTokens struct {
	creds Credentials
	http  *http.Client

	mu     sync.Mutex
	token  string
	expiry time.Time
}

func newServiceAccountTokens(creds Credentials, client *http.Client) *serviceAccountTokens {
	return &serviceAccountTokens{creds: creds, http: client}
}

func (t *serviceAccountTokens) Token(ctx context.Context) (string, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.token != "" && time.Now().Before(t.expiry.Add(-time.Minute)) {
		return t.token, nil
	}

	key, err := jwt.ParseRSAPrivateKeyFromPEM([]byte(t.creds.PrivateKey))
	if err != nil {
		return "", fmt.Errorf("parse private key: %w", err)
	}

	now := time.Now()
	claims := jwt.MapClaims{
		"iss":   t.creds.ClientEmail,
		"scope": sheetsScope,
		"aud":   t.creds.TokenURI,
		"iat":   now.Unix(),
		"exp":   now.Add(time.Hour).Unix(),
	}
	assertion, err := jwt.NewWithClaims(jwt.SigningMethodRS256, claims).SignedString(key)
	if err != nil {
		return "", fmt.Errorf("sign assertion: %w", err)
	}

	form := url.Values{
		"grant_type": {"urn:ietf:params:oauth:grant-type:jwt-bearer"},
		"assertion":  {assertion},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.creds.TokenURI, strings.NewReader(form.Encode()))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := t.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("token request failed: %w", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode >= 300 {
		return "", fmt.Errorf("token exchange failed (%d): %s", resp.StatusCode, string(body))
	}

	var out struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int    `json:"expires_in"`
	}
	if err := json.Unmarshal(body, &out); err != nil {
		return "", fmt.Errorf("decode token response: %w", err)
	}
	if out.AccessToken == "" {
		return "", fmt.Errorf("token response missing access_token")
	}

	t.token = out.AccessToken
	t.expiry = now.Add(time.Duration(out.ExpiresIn) * time.Second)
	return t.token, nil
}
