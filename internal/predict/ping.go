package predict

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"cashlens/internal/common"
	"cashlens/internal/service"
)

// Ping checks that the classification service is reachable, retrying briefly
// on connection failures and 5xx responses.
func (c *Client) Ping(ctx context.Context) error {
	return common.WithRetry(ctx, func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
		if err != nil {
			return fmt.Errorf("failed to create request: %w", err)
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return fmt.Errorf("%w: %v", common.ErrConnection, err)
		}
		defer func() { _ = resp.Body.Close() }()
		_, _ = io.Copy(io.Discard, resp.Body)

		if resp.StatusCode != http.StatusOK {
			return &common.ServerError{Status: resp.StatusCode}
		}
		return nil
	}, service.RetryOptions{
		MaxAttempts:  3,
		InitialDelay: 200 * time.Millisecond,
		MaxDelay:     2 * time.Second,
	})
}
