package identity

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/sony/gobreaker/v2"

	"github.com/linernotes/linernotes/internal/domain"
	apperrors "github.com/linernotes/linernotes/pkg/errors"
	"github.com/linernotes/linernotes/pkg/httpclient"
)

const directoryServiceName = "identity-directory"

// HTTPDirectory looks profiles up in a remote identity service through the
// retrying client and a circuit breaker.
type HTTPDirectory struct {
	client  *httpclient.CircuitBreakerClient
	baseURL string
}

type batchRequest struct {
	IDs []string `json:"ids"`
}

type batchResponse struct {
	Data *struct {
		Profiles []domain.Profile `json:"profiles"`
	} `json:"data"`
}

// NewHTTPDirectory creates a remote directory client for baseURL.
func NewHTTPDirectory(baseURL string, timeout time.Duration, logger *slog.Logger) *HTTPDirectory {
	cfg := httpclient.DefaultConfig()
	cfg.Timeout = timeout
	cfg.MaxRetries = 2
	cfg.RetryWaitMin = 50 * time.Millisecond
	cfg.RetryWaitMax = 500 * time.Millisecond

	return NewHTTPDirectoryWithClient(
		baseURL,
		httpclient.NewCircuitBreakerClient(
			httpclient.New(cfg),
			httpclient.DefaultCircuitBreakerConfig(directoryServiceName),
			logger,
		),
	)
}

// NewHTTPDirectoryWithClient creates a remote directory using a prepared client.
func NewHTTPDirectoryWithClient(baseURL string, client *httpclient.CircuitBreakerClient) *HTTPDirectory {
	return &HTTPDirectory{
		client:  client,
		baseURL: strings.TrimRight(baseURL, "/"),
	}
}

// FindByIDs posts the ids to /v1/profiles:batch.
func (d *HTTPDirectory) FindByIDs(ctx context.Context, ids []string) (map[string]domain.Profile, error) {
	profiles := make(map[string]domain.Profile, len(ids))
	if len(ids) == 0 {
		return profiles, nil
	}

	body, err := json.Marshal(batchRequest{IDs: ids})
	if err != nil {
		return nil, fmt.Errorf("marshal profile batch: %w", err)
	}

	resp, err := d.client.Post(ctx, d.baseURL+"/v1/profiles:batch", "application/json", bytes.NewReader(body))
	if err != nil {
		if errors.Is(err, httpclient.ErrCircuitOpen) {
			return nil, apperrors.ServiceUnavailable("identity directory is unavailable")
		}
		return nil, fmt.Errorf("call identity directory: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, httpclient.ParseResponseError(resp, directoryServiceName)
	}
	defer func() { _ = resp.Body.Close() }()

	var out batchResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode profile batch: %w", err)
	}
	if out.Data == nil {
		return profiles, nil
	}

	for _, p := range out.Data.Profiles {
		if p.ID == "" {
			continue
		}
		profiles[p.ID] = p
	}

	return profiles, nil
}

// Healthy reports whether the circuit breaker currently admits requests.
func (d *HTTPDirectory) Healthy(context.Context) error {
	if d.client.State() == gobreaker.StateOpen {
		return fmt.Errorf("%s circuit breaker is open", directoryServiceName)
	}
	return nil
}
