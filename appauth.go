package main

import (
	"context"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// appTokenSource mints GitHub App installation tokens and caches them until
// shortly before expiry. It backs the default credential when no static
// GITHUB_TOKEN is configured but App credentials are.
type appTokenSource struct {
	appID          int64
	installationID int64
	privateKey     *rsa.PrivateKey
	baseURL        string
	httpClient     *http.Client

	mu      sync.Mutex
	token   string
	expires time.Time
}

func newAppTokenSource(cfg *AppConfig, baseURL string) (*appTokenSource, error) {
	keyData, err := os.ReadFile(cfg.PrivateKeyPath)
	if err != nil {
		return nil, fmt.Errorf("read app private key: %w", err)
	}
	key, err := parseRSAPrivateKey(keyData)
	if err != nil {
		return nil, err
	}
	if baseURL == "" {
		baseURL = defaultAPIBase
	}
	return &appTokenSource{
		appID:          cfg.AppID,
		installationID: cfg.InstallationID,
		privateKey:     key,
		baseURL:        baseURL,
		httpClient:     &http.Client{Timeout: 30 * time.Second},
	}, nil
}

func parseRSAPrivateKey(data []byte) (*rsa.PrivateKey, error) {
	block, _ := pem.Decode(data)
	if block == nil {
		return nil, fmt.Errorf("app private key is not PEM encoded")
	}
	if key, err := x509.ParsePKCS1PrivateKey(block.Bytes); err == nil {
		return key, nil
	}
	parsed, err := x509.ParsePKCS8PrivateKey(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("parse app private key: %w", err)
	}
	key, ok := parsed.(*rsa.PrivateKey)
	if !ok {
		return nil, fmt.Errorf("app private key is not RSA")
	}
	return key, nil
}

// appJWT signs a short-lived RS256 JWT identifying the App itself.
func (s *appTokenSource) appJWT() (string, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		IssuedAt:  jwt.NewNumericDate(now.Add(-30 * time.Second)),
		ExpiresAt: jwt.NewNumericDate(now.Add(10 * time.Minute)),
		Issuer:    strconv.FormatInt(s.appID, 10),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	signed, err := token.SignedString(s.privateKey)
	if err != nil {
		return "", fmt.Errorf("sign app jwt: %w", err)
	}
	return signed, nil
}

// Token returns a valid installation token, minting a fresh one when the
// cached token is within a minute of expiring.
func (s *appTokenSource) Token(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.token != "" && time.Until(s.expires) > time.Minute {
		return s.token, nil
	}

	signed, err := s.appJWT()
	if err != nil {
		return "", err
	}

	installationID := s.installationID
	if installationID == 0 {
		installationID, err = s.discoverInstallation(ctx, signed)
		if err != nil {
			return "", err
		}
		s.installationID = installationID
	}

	appClient := &githubClient{
		httpClient: s.httpClient,
		baseURL:    s.baseURL,
		token:      signed,
		userAgent:  defaultServerName + "/" + defaultVersion,
	}
	var result struct {
		Token     string    `json:"token"`
		ExpiresAt time.Time `json:"expires_at"`
	}
	path := fmt.Sprintf("/app/installations/%d/access_tokens", installationID)
	if err := appClient.do(ctx, "create installation token", http.MethodPost, path, nil, nil, http.StatusCreated, &result); err != nil {
		return "", err
	}
	s.token = result.Token
	s.expires = result.ExpiresAt
	return s.token, nil
}

// discoverInstallation picks the sole installation when none is configured.
func (s *appTokenSource) discoverInstallation(ctx context.Context, signed string) (int64, error) {
	appClient := &githubClient{
		httpClient: s.httpClient,
		baseURL:    s.baseURL,
		token:      signed,
		userAgent:  defaultServerName + "/" + defaultVersion,
	}
	var installations []struct {
		ID      int64 `json:"id"`
		Account User  `json:"account"`
	}
	if err := appClient.do(ctx, "list app installations", http.MethodGet, "/app/installations", nil, nil, http.StatusOK, &installations); err != nil {
		return 0, err
	}
	if len(installations) == 0 {
		return 0, fmt.Errorf("github app has no installations")
	}
	if len(installations) > 1 {
		return 0, fmt.Errorf("github app has %d installations, set GITHUB_APP_INSTALLATION_ID", len(installations))
	}
	return installations[0].ID, nil
}
