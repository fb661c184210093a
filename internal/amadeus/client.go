// Package amadeus implements the travel-search provider boundary: the
// client-credentials token cache, the city location lookup, and the
// flight-offers search.
package amadeus

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/mahmoud1401-hub/cheapest-flight/internal/common/config"
	"github.com/mahmoud1401-hub/cheapest-flight/internal/common/errors"
	"github.com/mahmoud1401-hub/cheapest-flight/internal/common/httpclient"
	"github.com/mahmoud1401-hub/cheapest-flight/internal/common/logger"
	"github.com/mahmoud1401-hub/cheapest-flight/internal/common/metrics"
)

const tokenExpirySkew = 30 * time.Second

// Client talks to the Amadeus self-service APIs. The access token is
// fetched with a client-credentials grant and cached until expiry, so a
// request is never issued with an expired or absent token.
type Client struct {
	baseURL      string
	clientID     string
	clientSecret string
	httpClient   *httpclient.Client
	logger       logger.Logger

	mu          sync.Mutex
	accessToken string
	tokenExpiry time.Time
}

func NewClient(cfg config.AmadeusConfig, log logger.Logger) *Client {
	return &Client{
		baseURL:      strings.TrimSuffix(cfg.BaseURL, "/"),
		clientID:     cfg.ClientID,
		clientSecret: cfg.ClientSecret,
		httpClient:   httpclient.NewClient(config.GetDuration(cfg.Timeout)),
		logger:       log.WithFields(map[string]interface{}{"component": "amadeus"}),
	}
}

// getToken returns a valid bearer token, fetching a fresh one when the
// cached token is absent or about to expire.
func (c *Client) getToken(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.accessToken != "" && time.Now().Before(c.tokenExpiry) {
		return c.accessToken, nil
	}

	tokenURL := fmt.Sprintf("%s/v1/security/oauth2/token", c.baseURL)

	form := url.Values{}
	form.Set("grant_type", "client_credentials")
	form.Set("client_id", c.clientID)
	form.Set("client_secret", c.clientSecret)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, tokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", errors.NewAuthFailedError(err.Error())
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	metrics.ProviderRequestDuration.WithLabelValues("token").Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.ProviderRequests.WithLabelValues("token", "network_error").Inc()
		return "", errors.NewAuthFailedError(err.Error())
	}
	defer resp.Body.Close()

	metrics.ProviderRequests.WithLabelValues("token", fmt.Sprintf("%d", resp.StatusCode)).Inc()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return "", errors.NewAuthFailedError(fmt.Sprintf("status %d: %s", resp.StatusCode, string(body)))
	}

	var tokenResp tokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&tokenResp); err != nil {
		return "", errors.NewAuthFailedError(fmt.Sprintf("decode token response: %s", err.Error()))
	}

	if tokenResp.AccessToken == "" {
		return "", errors.NewAuthFailedError("token endpoint returned no access_token")
	}

	c.accessToken = tokenResp.AccessToken
	c.tokenExpiry = time.Now().Add(time.Duration(tokenResp.ExpiresIn)*time.Second - tokenExpirySkew)

	c.logger.Debug("access token refreshed", map[string]interface{}{
		"expiresIn": tokenResp.ExpiresIn,
	})

	return c.accessToken, nil
}

// get performs one authorized GET against the provider and returns the
// raw body. Non-2xx statuses are returned as errors with the body text.
func (c *Client) get(ctx context.Context, endpoint, path string, params url.Values) ([]byte, error) {
	token, err := c.getToken(ctx)
	if err != nil {
		return nil, err
	}

	reqURL := c.baseURL + path
	if len(params) > 0 {
		reqURL += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create %s request: %w", endpoint, err)
	}
	req.Header.Set("Authorization", "Bearer "+token)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	metrics.ProviderRequestDuration.WithLabelValues(endpoint).Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.ProviderRequests.WithLabelValues(endpoint, "network_error").Inc()
		return nil, fmt.Errorf("%s request: %w", endpoint, err)
	}
	defer resp.Body.Close()

	metrics.ProviderRequests.WithLabelValues(endpoint, fmt.Sprintf("%d", resp.StatusCode)).Inc()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read %s response: %w", endpoint, err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%s request failed with status %d: %s", endpoint, resp.StatusCode, string(body))
	}

	return body, nil
}
