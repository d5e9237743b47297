// internal/common/camunda/client.go
package camunda

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/zbc"

	"oyz-trade/internal/common/config"
	"oyz-trade/internal/common/logger"
)

// Client wraps the Zeebe gRPC client.
type Client struct {
	client zbc.Client
	config *ClientConfig
}

type ClientConfig struct {
	GatewayAddress         string
	UsePlaintextConnection bool
	ConnectionTimeout      time.Duration
	RequestTimeout         time.Duration
}

func ClientConfigFrom(cfg config.CamundaConfig) *ClientConfig {
	return &ClientConfig{
		GatewayAddress:         cfg.BrokerAddress,
		UsePlaintextConnection: cfg.Plaintext,
		ConnectionTimeout:      time.Duration(cfg.Timeout) * time.Millisecond,
		RequestTimeout:         time.Duration(cfg.RequestTimeout) * time.Millisecond,
	}
}

// NewClient connects and checks the broker topology before returning.
func NewClient(cfg *ClientConfig) (*Client, error) {
	if cfg.ConnectionTimeout <= 0 {
		cfg.ConnectionTimeout = 10 * time.Second
	}

	zeebeClient, err := zbc.NewClient(&zbc.ClientConfig{
		GatewayAddress:         cfg.GatewayAddress,
		UsePlaintextConnection: cfg.UsePlaintextConnection,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Zeebe client: %w", err)
	}

	c := &Client{client: zeebeClient, config: cfg}
	if err := c.HealthCheck(context.Background()); err != nil {
		zeebeClient.Close()
		return nil, fmt.Errorf("failed to connect to Zeebe broker at %s: %w", cfg.GatewayAddress, err)
	}
	return c, nil
}

func (c *Client) GetClient() zbc.Client {
	return c.client
}

func (c *Client) Close() error {
	return c.client.Close()
}

// HealthCheck asks the gateway for the cluster topology.
func (c *Client) HealthCheck(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, c.config.ConnectionTimeout)
	defer cancel()

	if _, err := c.client.NewTopologyCommand().Send(ctx); err != nil {
		return fmt.Errorf("zeebe health check failed: %w", err)
	}
	return nil
}

// RetryWithBackoff runs operation until it succeeds, doubling the delay
// after each failure. Non-transient errors stop early.
func RetryWithBackoff(ctx context.Context, operation func() error, maxRetries int, initialDelay time.Duration, log logger.Logger, operationName string) error {
	var err error
	delay := initialDelay

	for attempt := 1; attempt <= maxRetries; attempt++ {
		if err = operation(); err == nil {
			return nil
		}
		if attempt == maxRetries || !IsTransient(err) {
			break
		}

		log.Warn(operationName+" failed, retrying", map[string]interface{}{
			"error":       err,
			"attempt":     attempt,
			"maxRetries":  maxRetries,
			"nextRetryIn": delay.String(),
		})

		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return fmt.Errorf("%s cancelled after %d attempts: %w", operationName, attempt, ctx.Err())
		}
		delay *= 2
	}

	return fmt.Errorf("%s failed: %w", operationName, err)
}

var permanentPhrases = []string{
	"permission denied",
	"unauthorized",
	"authentication failed",
	"invalid configuration",
	"required",
	"is empty",
}

// IsTransient reports whether err looks like a failure worth retrying.
// Connection-level errors are transient; configuration and auth errors are
// not.
func IsTransient(err error) bool {
	msg := strings.ToLower(err.Error())
	for _, phrase := range permanentPhrases {
		if strings.Contains(msg, phrase) {
			return false
		}
	}
	return true
}
