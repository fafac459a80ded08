package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"time"

	logger "github.com/haxx668/backendmonitoring/src/production/MQT.Logger"
	api_models "github.com/haxx668/backendmonitoring/src/production/MQT.Models/api"
	hardware_models "github.com/haxx668/backendmonitoring/src/production/MQT.Models/hardware"
)

// ErrCircuitOpen is returned without calling the API while the breaker is open
var ErrCircuitOpen = errors.New("circuit breaker is open")

// permanentError marks a response that retrying cannot fix (4xx)
type permanentError struct {
	err error
}

func (e *permanentError) Error() string { return e.err.Error() }
func (e *permanentError) Unwrap() error { return e.err }

// APIClient handles communication with the API Service
type APIClient struct {
	baseURL        string
	httpClient     *http.Client
	apiSecret      string
	circuitBreaker *CircuitBreaker
	maxRetries     int
	retryDelay     time.Duration
}

// NewAPIClient creates a new API client
func NewAPIClient(baseURL, apiSecret string) *APIClient {
	return &APIClient{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		apiSecret:      apiSecret,
		circuitBreaker: NewCircuitBreaker(5, 30*time.Second),
		maxRetries:     3,
		retryDelay:     1 * time.Second,
	}
}

// retryWithBackoff executes operation with exponential backoff. Permanent
// errors stop the loop and do not count against the breaker.
func (c *APIClient) retryWithBackoff(ctx context.Context, operation func() error) error {
	var lastErr error

	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if !c.circuitBreaker.Allow() {
			return ErrCircuitOpen
		}

		err := operation()
		if err == nil {
			c.circuitBreaker.OnSuccess()
			return nil
		}

		var perm *permanentError
		if errors.As(err, &perm) {
			c.circuitBreaker.OnSuccess()
			return perm.err
		}

		lastErr = err
		c.circuitBreaker.OnFailure()

		if attempt == c.maxRetries {
			break
		}

		delay := time.Duration(float64(c.retryDelay) * math.Pow(2, float64(attempt)))
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
	}

	return fmt.Errorf("operation failed after %d attempts: %w", c.maxRetries+1, lastErr)
}

// ValidateAlat checks if an alat is registered in the API Service
func (c *APIClient) ValidateAlat(ctx context.Context, idalat string) (bool, error) {
	var exists bool

	err := c.retryWithBackoff(ctx, func() error {
		var response api_models.ValidateAlatResponse
		if err := c.postJSON(ctx, "/internal/alat/validate", api_models.ValidateAlatRequest{IDAlat: idalat}, http.StatusOK, &response); err != nil {
			return err
		}
		if response.Error != "" {
			return fmt.Errorf("API error: %s", response.Error)
		}
		exists = response.Exists
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("failed to validate alat: %w", err)
	}

	return exists, nil
}

// CreateReading forwards one reading to the monitoring buffer
func (c *APIClient) CreateReading(ctx context.Context, reading hardware_models.ReadingWithTopic) error {
	// ReadingID lets the API drop a retry whose first attempt was committed
	req := api_models.CreateReadingRequest{
		ReadingID: reading.ReadingID,
		IDAlat:    reading.IDAlat,
		Topic:     reading.Topic,
		Payload:   reading.Payload,
	}
	if !reading.ReceivedAt.IsZero() {
		ts := reading.ReceivedAt.UTC()
		req.UpdatedAt = &ts
	}

	err := c.retryWithBackoff(ctx, func() error {
		var response api_models.CreateReadingResponse
		if err := c.postJSON(ctx, "/internal/monitoring", req, http.StatusCreated, &response); err != nil {
			return err
		}
		if !response.Success {
			return fmt.Errorf("API error: %s", response.Error)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to create reading: %w", err)
	}
	return nil
}

// postJSON sends body and decodes the response into out when the status is want
func (c *APIClient) postJSON(ctx context.Context, path string, body interface{}, want int, out interface{}) error {
	resp, err := c.makeRequest(ctx, http.MethodPost, path, body)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != want {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		err := fmt.Errorf("API returned status %d: %s", resp.StatusCode, bytes.TrimSpace(raw))
		if resp.StatusCode >= 400 && resp.StatusCode < 500 {
			return &permanentError{err: err}
		}
		return err
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// makeRequest makes an HTTP request to the API Service
func (c *APIClient) makeRequest(ctx context.Context, method, path string, body interface{}) (*http.Response, error) {
	var reqBody io.Reader
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
		reqBody = bytes.NewReader(jsonData)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+c.apiSecret)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "alat-ingestor")
	if id := logger.RequestIDFromContext(ctx); id != "" {
		req.Header.Set(logger.RequestIDHeader, id)
	}

	return c.httpClient.Do(req)
}

// Health checks if the API Service is live
func (c *APIClient) Health(ctx context.Context) error {
	resp, err := c.makeRequest(ctx, http.MethodGet, "/health/live", nil)
	if err != nil {
		return fmt.Errorf("failed to check API health: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("API health check failed with status %d", resp.StatusCode)
	}

	return nil
}

// GetCircuitBreakerStatus returns the current circuit breaker status for monitoring
func (c *APIClient) GetCircuitBreakerStatus() map[string]interface{} {
	return c.circuitBreaker.Status()
}
