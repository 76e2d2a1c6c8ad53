// internal/common/camunda/client.go
package camunda

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/zbc"
	"github.com/cenkalti/backoff/v4"

	"renovation-estimator/internal/common/errors"
	"renovation-estimator/internal/common/logger"
)

// Client wraps the Zeebe gRPC client with connection and command retries.
type Client struct {
	client zbc.Client
	config *ClientConfig
	log    logger.Logger
}

// ClientConfig holds configuration for the Camunda/Zeebe client.
type ClientConfig struct {
	GatewayAddress         string
	UsePlaintextConnection bool
	ConnectionTimeout      time.Duration
	RequestTimeout         time.Duration
	RetryConfig            *RetryConfig
}

// RetryConfig defines retry behavior for transient failures.
type RetryConfig struct {
	MaxRetries     int
	BaseDelay      time.Duration
	MaxDelay       time.Duration
	MaxElapsedTime time.Duration
}

var DefaultRetryConfig = &RetryConfig{
	MaxRetries:     3,
	BaseDelay:      1 * time.Second,
	MaxDelay:       10 * time.Second,
	MaxElapsedTime: 2 * time.Minute,
}

func (r *RetryConfig) policy(ctx context.Context) backoff.BackOff {
	exp := backoff.NewExponentialBackOff()
	exp.InitialInterval = r.BaseDelay
	exp.MaxInterval = r.MaxDelay
	exp.MaxElapsedTime = r.MaxElapsedTime
	return backoff.WithContext(backoff.WithMaxRetries(exp, uint64(r.MaxRetries)), ctx)
}

// NewClient connects with plaintext and default timeouts, for local setups.
func NewClient(address string, log logger.Logger) (*Client, error) {
	return NewClientWithConfig(&ClientConfig{
		GatewayAddress:         address,
		UsePlaintextConnection: true,
		ConnectionTimeout:      10 * time.Second,
		RequestTimeout:         30 * time.Second,
		RetryConfig:            DefaultRetryConfig,
	}, log)
}

// NewClientWithConfig creates the Zeebe client and waits for the gateway to
// answer a topology request, backing off between attempts.
func NewClientWithConfig(config *ClientConfig, log logger.Logger) (*Client, error) {
	if config.RetryConfig == nil {
		config.RetryConfig = DefaultRetryConfig
	}
	if log == nil {
		log = logger.NewNoOpLogger()
	}

	zeebeClient, err := zbc.NewClient(&zbc.ClientConfig{
		GatewayAddress:         config.GatewayAddress,
		UsePlaintextConnection: config.UsePlaintextConnection,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Zeebe client: %w", err)
	}

	c := &Client{client: zeebeClient, config: config, log: log}

	err = backoff.RetryNotify(
		func() error {
			return c.HealthCheck(context.Background())
		},
		config.RetryConfig.policy(context.Background()),
		func(err error, next time.Duration) {
			log.Warn("Zeebe gateway not reachable, retrying", map[string]interface{}{
				"address":       config.GatewayAddress,
				"error":         err.Error(),
				"nextAttemptIn": next.String(),
			})
		},
	)
	if err != nil {
		zeebeClient.Close()
		return nil, fmt.Errorf("failed to connect to Zeebe broker at %s: %w", config.GatewayAddress, err)
	}
	return c, nil
}

// GetClient returns the raw Zeebe client for job workers.
func (c *Client) GetClient() zbc.Client {
	return c.client
}

func (c *Client) Close() error {
	return c.client.Close()
}

// ExecuteWithRetry runs a broker command, retrying transient failures only.
// The final error is mapped to a StandardError.
func (c *Client) ExecuteWithRetry(
	ctx context.Context,
	commandFunc func(context.Context) (interface{}, error),
	operationName string,
) (interface{}, error) {
	return executeWithRetry(ctx, c.config.RetryConfig, commandFunc, operationName)
}

func executeWithRetry(
	ctx context.Context,
	retry *RetryConfig,
	commandFunc func(context.Context) (interface{}, error),
	operationName string,
) (interface{}, error) {
	var result interface{}
	attempts := 0

	err := backoff.Retry(func() error {
		attempts++
		r, err := commandFunc(ctx)
		if err != nil {
			if !isRetryableZeebeError(err) {
				return backoff.Permanent(err)
			}
			return err
		}
		result = r
		return nil
	}, retry.policy(ctx))

	if err != nil {
		return nil, mapZeebeError(err, operationName, attempts)
	}
	return result, nil
}

func isRetryableZeebeError(err error) bool {
	msg := strings.ToLower(err.Error())
	for _, phrase := range []string{
		"connection refused",
		"connection reset",
		"timeout",
		"deadline exceeded",
		"unavailable",
		"unreachable",
		"broken pipe",
	} {
		if strings.Contains(msg, phrase) {
			return true
		}
	}
	return false
}

func mapZeebeError(err error, operation string, attempts int) error {
	op := operation
	if attempts > 1 {
		op = fmt.Sprintf("%s (%d attempts)", operation, attempts)
	}

	lowerMsg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(lowerMsg, "timeout") || strings.Contains(lowerMsg, "deadline exceeded"):
		return errors.NewBrokerTimeoutError(op, err)
	case isRetryableZeebeError(err):
		return errors.NewBrokerUnavailableError(op, err)
	default:
		return errors.NewBrokerRejectedError(op, err)
	}
}

// HealthCheck performs a topology request against the gateway.
func (c *Client) HealthCheck(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, c.config.ConnectionTimeout)
	defer cancel()

	if _, err := c.client.NewTopologyCommand().Send(ctx); err != nil {
		return fmt.Errorf("zeebe health check failed: %w", err)
	}
	return nil
}
