// internal/errors/service.go
package errors

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"
)

// RetryConfig defines retry behavior for external call boundaries.
type RetryConfig struct {
	MaxRetries    int           `yaml:"max_retries" json:"max_retries"`
	BaseDelay     time.Duration `yaml:"base_delay" json:"base_delay"`
	BackoffFactor float64       `yaml:"backoff_factor" json:"backoff_factor"`
	MaxDelay      time.Duration `yaml:"max_delay" json:"max_delay"`
}

// DefaultRetryConfig returns the bounded-retry policy applied at the scraper,
// resolver and analyzer boundaries.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries:    3,
		BaseDelay:     2 * time.Second,
		BackoffFactor: 2.0,
		MaxDelay:      time.Minute,
	}
}

// Service provides bounded retry with backoff and per-operation circuit
// breakers for the pipeline's external call boundaries.
type Service struct {
	retryConfig     RetryConfig
	breakerConfig   CircuitBreakerConfig
	circuitBreakers map[string]*CircuitBreaker
	mu              sync.Mutex
}

// NewService creates an error recovery service with default policies.
func NewService() *Service {
	return NewServiceWithConfig(DefaultRetryConfig())
}

// NewServiceWithConfig creates an error recovery service with the given
// retry policy.
func NewServiceWithConfig(retry RetryConfig) *Service {
	if retry.MaxRetries < 0 {
		retry.MaxRetries = 0
	}
	if retry.BaseDelay <= 0 {
		retry.BaseDelay = 2 * time.Second
	}
	if retry.BackoffFactor < 1 {
		retry.BackoffFactor = 2.0
	}
	if retry.MaxDelay <= 0 {
		retry.MaxDelay = time.Minute
	}
	return &Service{
		retryConfig: retry,
		breakerConfig: CircuitBreakerConfig{
			MaxFailures:  5,
			ResetTimeout: 30 * time.Second,
		},
		circuitBreakers: make(map[string]*CircuitBreaker),
	}
}

// ExecuteWithRetry runs operation, retrying transient failures with
// exponential backoff up to the configured maximum. Non-transient errors are
// returned immediately: there is no point re-running a permanent failure.
func (s *Service) ExecuteWithRetry(ctx context.Context, operation func() error, operationName string) error {
	breaker := s.getOrCreateCircuitBreaker(operationName)
	if !breaker.CanExecute() {
		return NewTransient(operationName, fmt.Errorf("circuit breaker open"))
	}

	var lastErr error
	for attempt := 0; attempt <= s.retryConfig.MaxRetries; attempt++ {
		err := operation()
		if err == nil {
			breaker.RecordSuccess()
			return nil
		}

		lastErr = err
		breaker.RecordFailure()

		if !IsTransient(err) || attempt == s.retryConfig.MaxRetries {
			break
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(s.calculateDelay(attempt)):
		}
	}

	if IsTransient(lastErr) {
		return fmt.Errorf("operation %s failed after %d attempts: %w",
			operationName, s.retryConfig.MaxRetries+1, lastErr)
	}
	return lastErr
}

// calculateDelay computes the backoff delay for the given attempt, capped at
// the configured maximum.
func (s *Service) calculateDelay(attempt int) time.Duration {
	delay := float64(s.retryConfig.BaseDelay) * math.Pow(s.retryConfig.BackoffFactor, float64(attempt))
	if delay > float64(s.retryConfig.MaxDelay) {
		return s.retryConfig.MaxDelay
	}
	return time.Duration(delay)
}

// ConfigureCircuitBreaker sets breaker limits for a named operation.
func (s *Service) ConfigureCircuitBreaker(operationName string, config CircuitBreakerConfig) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.circuitBreakers[operationName] = newCircuitBreaker(operationName, config)
}

// getOrCreateCircuitBreaker gets or creates a circuit breaker for an operation.
func (s *Service) getOrCreateCircuitBreaker(operationName string) *CircuitBreaker {
	s.mu.Lock()
	defer s.mu.Unlock()

	if cb, exists := s.circuitBreakers[operationName]; exists {
		return cb
	}
	cb := newCircuitBreaker(operationName, s.breakerConfig)
	s.circuitBreakers[operationName] = cb
	return cb
}

// CircuitBreakerState represents the state of a circuit breaker.
type CircuitBreakerState int

const (
	CircuitClosed CircuitBreakerState = iota
	CircuitOpen
	CircuitHalfOpen
)

// CircuitBreakerConfig configures circuit breaker behavior.
type CircuitBreakerConfig struct {
	MaxFailures  int           `yaml:"max_failures" json:"max_failures"`
	ResetTimeout time.Duration `yaml:"reset_timeout" json:"reset_timeout"`
}

// CircuitBreaker trips an operation open after repeated vendor-side failures
// so a struggling endpoint is not hammered for every record in the batch.
type CircuitBreaker struct {
	name            string
	maxFailures     int
	resetTimeout    time.Duration
	state           CircuitBreakerState
	failures        int
	nextAttemptTime time.Time
	mu              sync.Mutex
}

func newCircuitBreaker(name string, config CircuitBreakerConfig) *CircuitBreaker {
	if config.MaxFailures <= 0 {
		config.MaxFailures = 5
	}
	if config.ResetTimeout <= 0 {
		config.ResetTimeout = 30 * time.Second
	}
	return &CircuitBreaker{
		name:         name,
		maxFailures:  config.MaxFailures,
		resetTimeout: config.ResetTimeout,
		state:        CircuitClosed,
	}
}

// CanExecute reports whether the protected operation may run now.
func (cb *CircuitBreaker) CanExecute() bool {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	switch cb.state {
	case CircuitClosed:
		return true
	case CircuitOpen:
		if time.Now().After(cb.nextAttemptTime) {
			cb.state = CircuitHalfOpen
			return true
		}
		return false
	case CircuitHalfOpen:
		return true
	}
	return false
}

// RecordSuccess closes the breaker and resets the failure count.
func (cb *CircuitBreaker) RecordSuccess() {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	cb.failures = 0
	cb.state = CircuitClosed
}

// RecordFailure counts a failure and opens the breaker at the limit.
func (cb *CircuitBreaker) RecordFailure() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.failures++
	if cb.state == CircuitHalfOpen || cb.failures >= cb.maxFailures {
		cb.state = CircuitOpen
		cb.nextAttemptTime = time.Now().Add(cb.resetTimeout)
	}
}

// GetState returns the current breaker state.
func (cb *CircuitBreaker) GetState() CircuitBreakerState {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.state
}
