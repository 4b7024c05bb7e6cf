package identity

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Client is the slice of the identity provider's admin API the deletion
// flow needs: whole-account deletes by stable uid.
type Client interface {
	DeleteAccount(ctx context.Context, uid uuid.UUID) error
}

// ErrAccountNotFound is returned when the provider has no account for
// the requested uid.
var ErrAccountNotFound = errors.New("identity account not found")

// RateLimitError is returned when the provider responds with HTTP 429.
type RateLimitError struct {
	Message        string
	ResetTimestamp time.Time // from X-RateLimit-Reset, if present
}

func (r *RateLimitError) Error() string {
	if !r.ResetTimestamp.IsZero() {
		return fmt.Sprintf("rate limit exceeded; retry after %s", r.ResetTimestamp.Format(time.RFC3339))
	}
	return fmt.Sprintf("rate limit exceeded: %s", r.Message)
}

// RESTClient manages communication with the identity provider's admin
// API. Each request carries a short-lived HS256 service token minted
// from the shared API secret.
type RESTClient struct {
	BaseURL      *url.URL
	APIKey       string
	signingKey   []byte
	HTTPClient   *http.Client
	MaxRetries   int           // how many times to retry on 429
	RetryInitial time.Duration // initial backoff
}

const serviceTokenTTL = 1 * time.Minute

// NewRESTClient initializes an admin client for the identity provider.
// maxRetries and retryInitial define how 429 rate-limits are handled.
func NewRESTClient(baseURL, apiKey, apiSecret string, maxRetries int, retryInitial time.Duration) (*RESTClient, error) {
	parsed, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid baseURL: %w", err)
	}
	if maxRetries < 0 {
		maxRetries = 0
	}
	if retryInitial <= 0 {
		retryInitial = 1 * time.Second
	}

	return &RESTClient{
		BaseURL:      parsed,
		APIKey:       apiKey,
		signingKey:   []byte(apiSecret),
		HTTPClient:   &http.Client{Timeout: 30 * time.Second},
		MaxRetries:   maxRetries,
		RetryInitial: retryInitial,
	}, nil
}

// DeleteAccount removes the provider-side account for uid.
func (c *RESTClient) DeleteAccount(ctx context.Context, uid uuid.UUID) error {
	endpoint := path.Join("accounts", uid.String())
	if err := c.doRequest(ctx, http.MethodDelete, endpoint, nil); err != nil {
		return fmt.Errorf("DeleteAccount error: %w", err)
	}
	return nil
}

// serviceToken mints the per-request bearer token.
func (c *RESTClient) serviceToken() (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"iss": c.APIKey,
		"iat": now.Unix(),
		"exp": now.Add(serviceTokenTTL).Unix(),
	})
	return token.SignedString(c.signingKey)
}

// doRequest is a helper to build, execute, parse an HTTP request with
// minimal backoff for 429.
func (c *RESTClient) doRequest(ctx context.Context, method, reqPath string, out any) error {
	var attempt int
	var backoff = c.RetryInitial

	for {
		err := c.doOnce(ctx, method, reqPath, out)
		if err == nil {
			return nil
		}

		var rlErr *RateLimitError
		if errors.As(err, &rlErr) {
			if attempt < c.MaxRetries {
				attempt++
				time.Sleep(backoff)
				backoff *= 2 // simple exponential
				continue
			}
			return err
		}
		// Other errors are not auto-retried.
		return err
	}
}

// doOnce performs a single HTTP request attempt (no retries).
func (c *RESTClient) doOnce(ctx context.Context, method, reqPath string, out any) error {
	u := *c.BaseURL
	u.Path = path.Join(c.BaseURL.Path, reqPath)

	req, err := http.NewRequestWithContext(ctx, method, u.String(), nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	bearer, err := c.serviceToken()
	if err != nil {
		return fmt.Errorf("failed to sign service token: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+bearer)

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to make request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return c.handleHTTPError(resp)
	}

	if out == nil {
		io.Copy(io.Discard, resp.Body)
		return nil
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

type apiErrorResponse struct {
	Error string `json:"error"`
}

// handleHTTPError maps 4xx/5xx provider responses onto client errors.
func (c *RESTClient) handleHTTPError(resp *http.Response) error {
	status := resp.StatusCode
	bodyBytes, _ := io.ReadAll(resp.Body)

	var apiErr apiErrorResponse
	if err := json.Unmarshal(bodyBytes, &apiErr); err != nil {
		apiErr.Error = strings.TrimSpace(string(bodyBytes))
	}

	switch status {
	case 401:
		return fmt.Errorf("unauthorized (401): %s", apiErr.Error)
	case 403:
		return fmt.Errorf("forbidden (403): %s", apiErr.Error)
	case 404:
		return fmt.Errorf("%w: %s", ErrAccountNotFound, apiErr.Error)
	case 429:
		resetStr := resp.Header.Get("X-RateLimit-Reset")
		var resetTime time.Time
		if resetStr != "" {
			if sec, err := strconv.ParseInt(resetStr, 10, 64); err == nil {
				resetTime = time.Unix(sec, 0)
			}
		}
		return &RateLimitError{Message: apiErr.Error, ResetTimestamp: resetTime}
	default:
		return fmt.Errorf("http error (%d): %s", status, apiErr.Error)
	}
}
