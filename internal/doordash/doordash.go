// Package doordash talks to the DoorDash Drive API for delivery
// creation and tracking. Requests are authenticated with a short-lived
// HS256 JWT signed from the developer's base64url-encoded secret.
package doordash

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/nomnoms/nomnoms/internal/log"
)

const (
	defaultBaseURL = "https://openapi.doordash.com/drive/v2"
	tokenTTL       = 5 * time.Minute
	requestTimeout = 30 * time.Second
)

var (
	// ErrMissingCredentials is returned on first use when any of the
	// developer id, key id or signing secret is unset. Credentials are
	// not checked at startup so the rest of the service works without
	// a Drive account.
	ErrMissingCredentials = errors.New("missing doordash credentials")

	// ErrNotFound is returned when the provider has no delivery for
	// the given external id.
	ErrNotFound = errors.New("delivery not found")
)

// APIError is a non-success response from the provider, preserved with
// its upstream status code and body text.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("doordash api error: status %d: %s", e.StatusCode, e.Body)
}

// Config holds client settings. BaseURL and HTTPClient are optional
// and default to the production endpoint with a 30s timeout.
type Config struct {
	DeveloperID   string
	KeyID         string
	SigningSecret string
	BaseURL       string
	HTTPClient    *http.Client
}

// Client is a minimal DoorDash Drive API client.
type Client struct {
	developerID   string
	keyID         string
	signingSecret string
	baseURL       string
	httpClient    *http.Client
	logger        log.Logger

	now func() time.Time
}

// NewClient builds a client. Credentials may be empty; calls fail with
// ErrMissingCredentials when they are actually needed.
func NewClient(cfg Config, logger log.Logger) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{Timeout: requestTimeout}
	}
	if logger == nil {
		logger = log.NewNop()
	}
	return &Client{
		developerID:   cfg.DeveloperID,
		keyID:         cfg.KeyID,
		signingSecret: cfg.SigningSecret,
		baseURL:       strings.TrimRight(cfg.BaseURL, "/"),
		httpClient:    cfg.HTTPClient,
		logger:        logger,
		now:           time.Now,
	}
}

// signToken mints the Drive API JWT. The signing secret is delivered
// base64url-encoded by DoorDash and must be decoded before signing.
func (c *Client) signToken() (string, error) {
	if c.developerID == "" || c.keyID == "" || c.signingSecret == "" {
		return "", ErrMissingCredentials
	}

	secret, err := base64.RawURLEncoding.DecodeString(strings.TrimRight(c.signingSecret, "="))
	if err != nil {
		return "", fmt.Errorf("decode signing secret: %w", err)
	}

	now := c.now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"aud": "doordash",
		"iss": c.developerID,
		"kid": c.keyID,
		"iat": now.Unix(),
		"exp": now.Add(tokenTTL).Unix(),
	})
	token.Header["dd-ver"] = "DD-JWT-V1"

	signed, err := token.SignedString(secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// CreateDelivery submits a new delivery to the Drive API.
func (c *Client) CreateDelivery(ctx context.Context, req *DeliveryRequest) (*Delivery, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("encode delivery request: %w", err)
	}

	var delivery Delivery
	if err := c.do(ctx, http.MethodPost, "/deliveries", bytes.NewReader(body), &delivery); err != nil {
		return nil, err
	}

	c.logger.Info("delivery created",
		"external_delivery_id", delivery.ExternalDeliveryID,
		"status", delivery.DeliveryStatus)
	return &delivery, nil
}

// TrackDelivery fetches the current status of a delivery by the
// external id it was created with.
func (c *Client) TrackDelivery(ctx context.Context, externalDeliveryID string) (*Delivery, error) {
	var delivery Delivery
	err := c.do(ctx, http.MethodGet, "/deliveries/"+externalDeliveryID, nil, &delivery)
	if err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound {
			return nil, fmt.Errorf("delivery %q: %w", externalDeliveryID, ErrNotFound)
		}
		return nil, err
	}
	return &delivery, nil
}

func (c *Client) do(ctx context.Context, method, path string, body io.Reader, out any) error {
	token, err := c.signToken()
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("doordash request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read doordash response: %w", err)
	}

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return &APIError{StatusCode: resp.StatusCode, Body: string(data)}
	}

	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode doordash response: %w", err)
	}
	return nil
}
