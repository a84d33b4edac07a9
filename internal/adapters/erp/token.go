package erp

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
	"golang.org/x/sync/singleflight"
)

// tokenFetch acquires a fresh credential and reports its expiry.
type tokenFetch func(ctx context.Context) (token string, expiry time.Time, err error)

// tokenCache holds one cached access token per connector instance.
// Acquisition is lazy (first call) and the token is reused until the skew
// margin before expiry, after which the next call re-authenticates
// transparently. Token acquisition is serialized: concurrent callers await
// the same in-flight authentication rather than issuing duplicates. A failed
// fetch is fatal for the call in progress but never poisons cached state.
type tokenCache struct {
	mu     sync.Mutex
	group  singleflight.Group
	fetch  tokenFetch
	skew   time.Duration
	token  string
	expiry time.Time
}

func newTokenCache(fetch tokenFetch, skew time.Duration) *tokenCache {
	if skew <= 0 {
		skew = 60 * time.Second
	}
	return &tokenCache{fetch: fetch, skew: skew}
}

// Token returns a valid cached token, refreshing it when within the skew
// margin of expiry. Callers never observe or mutate the token lifecycle.
func (c *tokenCache) Token(ctx context.Context) (string, error) {
	if tok, ok := c.cached(); ok {
		return tok, nil
	}

	v, err, _ := c.group.Do("token", func() (any, error) {
		// Re-check: a concurrent caller may have refreshed already.
		if tok, ok := c.cached(); ok {
			return tok, nil
		}
		tok, expiry, err := c.fetch(ctx)
		if err != nil {
			return nil, err
		}
		c.mu.Lock()
		c.token = tok
		c.expiry = expiry
		c.mu.Unlock()
		return tok, nil
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

// Invalidate discards the cached token so the next call re-authenticates.
func (c *tokenCache) Invalidate() {
	c.mu.Lock()
	c.token = ""
	c.expiry = time.Time{}
	c.mu.Unlock()
}

func (c *tokenCache) cached() (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.token != "" && time.Now().Before(c.expiry.Add(-c.skew)) {
		return c.token, true
	}
	return "", false
}

// oauthTokenFetch acquires tokens via the OAuth client-credentials grant.
func oauthTokenFetch(creds Credentials, client *http.Client) tokenFetch {
	conf := &clientcredentials.Config{
		ClientID:     creds.ClientID,
		ClientSecret: creds.ClientSecret,
		TokenURL:     creds.TokenURL,
	}
	return func(ctx context.Context) (string, time.Time, error) {
		if client != nil {
			ctx = context.WithValue(ctx, oauth2.HTTPClient, client)
		}
		tok, err := conf.Token(ctx)
		if err != nil {
			return "", time.Time{}, fmt.Errorf("client credentials token request failed: %w", err)
		}
		return tok.AccessToken, tok.Expiry, nil
	}
}

// certTokenFetch acquires tokens by presenting a signed JWT client assertion
// (RFC 7523 bearer grant), for systems configured with certificate
// credentials.
func certTokenFetch(creds Credentials, client *http.Client) tokenFetch {
	return func(ctx context.Context) (string, time.Time, error) {
		key, err := jwt.ParseRSAPrivateKeyFromPEM([]byte(creds.PrivateKeyPEM))
		if err != nil {
			return "", time.Time{}, fmt.Errorf("failed to parse signing key: %w", err)
		}

		now := time.Now()
		claims := jwt.MapClaims{
			"iss": creds.ClientID,
			"sub": creds.ClientID,
			"aud": creds.TokenURL,
			"iat": now.Unix(),
			"exp": now.Add(5 * time.Minute).Unix(),
		}
		assertionToken := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
		if creds.KeyID != "" {
			assertionToken.Header["kid"] = creds.KeyID
		}
		assertion, err := assertionToken.SignedString(key)
		if err != nil {
			return "", time.Time{}, fmt.Errorf("failed to sign client assertion: %w", err)
		}

		form := url.Values{
			"grant_type": {"urn:ietf:params:oauth:grant-type:jwt-bearer"},
			"assertion":  {assertion},
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, creds.TokenURL, strings.NewReader(form.Encode()))
		if err != nil {
			return "", time.Time{}, err
		}
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

		httpClient := client
		if httpClient == nil {
			httpClient = http.DefaultClient
		}
		resp, err := httpClient.Do(req)
		if err != nil {
			return "", time.Time{}, fmt.Errorf("assertion token request failed: %w", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			return "", time.Time{}, fmt.Errorf("assertion token request returned status %d", resp.StatusCode)
		}

		var body struct {
			AccessToken string `json:"access_token"`
			ExpiresIn   int64  `json:"expires_in"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
			return "", time.Time{}, fmt.Errorf("failed to decode token response: %w", err)
		}
		return body.AccessToken, now.Add(time.Duration(body.ExpiresIn) * time.Second), nil
	}
}
