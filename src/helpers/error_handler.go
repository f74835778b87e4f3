package helpers

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"mse-observer/src/logger"
)

// -----------------------------------------------------------------------------
// Custom Error Types
// -----------------------------------------------------------------------------

type ObserverError struct {
	Message string
	Cause   error
}

func (e *ObserverError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *ObserverError) Unwrap() error {
	return e.Cause
}

// ConfigurationError is returned for invalid settings.
type ConfigurationError struct{ ObserverError }

// NavigationError means the external site was unreachable, blocked or timed out.
type NavigationError struct {
	ObserverError
	URL string
}

// ParseError marks a single malformed row or cell.
type ParseError struct {
	ObserverError
	Input string
}

// ValidationRejection marks a record that failed a sanity bound.
type ValidationRejection struct {
	ObserverError
	Symbol string
	Field  string
	Value  float64
}

// StoreUnavailableError means the durable store could not be reached.
type StoreUnavailableError struct{ ObserverError }

// ChainExhaustedError is raised only when even the synthetic tier produced nothing.
type ChainExhaustedError struct{ ObserverError }

// ErrEmptyResult is returned by a tier that ran but produced no rows.
var ErrEmptyResult = errors.New("empty result")

// -----------------------------------------------------------------------------

func NewNavigationError(url string, cause error) *NavigationError {
	return &NavigationError{
		ObserverError: ObserverError{Message: fmt.Sprintf("navigation to %s failed", url), Cause: cause},
		URL:           url,
	}
}

func NewParseError(input string, reason string) *ParseError {
	return &ParseError{
		ObserverError: ObserverError{Message: fmt.Sprintf("cannot parse %q: %s", input, reason)},
		Input:         input,
	}
}

func NewValidationRejection(symbol, field string, value float64, reason string) *ValidationRejection {
	return &ValidationRejection{
		ObserverError: ObserverError{Message: fmt.Sprintf("%s rejected: %s=%v %s", symbol, field, value, reason)},
		Symbol:        symbol,
		Field:         field,
		Value:         value,
	}
}

func NewStoreUnavailable(op string, cause error) *StoreUnavailableError {
	return &StoreUnavailableError{ObserverError{Message: fmt.Sprintf("store unavailable during %s", op), Cause: cause}}
}

func NewConfigurationError(msg string) *ConfigurationError {
	return &ConfigurationError{ObserverError{Message: msg}}
}

// -----------------------------------------------------------------------------

// IsNavigationError reports whether err wraps a NavigationError.
func IsNavigationError(err error) bool {
	var target *NavigationError
	return errors.As(err, &target)
}

// IsValidationRejection reports whether err wraps a ValidationRejection.
func IsValidationRejection(err error) bool {
	var target *ValidationRejection
	return errors.As(err, &target)
}

// IsStoreUnavailable reports whether err wraps a StoreUnavailableError.
func IsStoreUnavailable(err error) bool {
	var target *StoreUnavailableError
	return errors.As(err, &target)
}

// -----------------------------------------------------------------------------
// Retry Logic
// -----------------------------------------------------------------------------

// RetryWithBackoff runs fn up to maxRetries times, sleeping baseDelay*2^attempt
// between attempts. Cancellation of ctx aborts the wait and returns ctx.Err()
// joined with the last failure.
func RetryWithBackoff[T any](ctx context.Context, log *logger.Logger, operation string, maxRetries int, baseDelay time.Duration, fn func(ctx context.Context) (T, error)) (T, error) {
	var zero T
	var lastErr error
	if maxRetries < 1 {
		maxRetries = 1
	}

	for attempt := 0; attempt < maxRetries; attempt++ {
		res, err := fn(ctx)
		if err == nil {
			return res, nil
		}

		lastErr = err
		if attempt == maxRetries-1 {
			break
		}

		delay := baseDelay * (1 << attempt)
		log.Warning("Attempt %d/%d failed for %s: %v. Retrying in %v", attempt+1, maxRetries, operation, err, delay)

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return zero, errors.Join(ctx.Err(), lastErr)
		case <-timer.C:
		}
	}

	return zero, lastErr
}

// -----------------------------------------------------------------------------
// Error Handler
// -----------------------------------------------------------------------------

// ErrorHandler counts consecutive failures of a recurring job.
type ErrorHandler struct {
	Logger                 *logger.Logger
	MaxErrorsBeforeBackoff int

	mu         sync.Mutex
	errorCount int
}

func NewErrorHandler(log *logger.Logger) *ErrorHandler {
	return &ErrorHandler{
		Logger:                 log,
		MaxErrorsBeforeBackoff: 5,
	}
}

// -----------------------------------------------------------------------------

func (e *ErrorHandler) ResetErrorCount() {
	e.mu.Lock()
	e.errorCount = 0
	e.mu.Unlock()
}

// -----------------------------------------------------------------------------

func (e *ErrorHandler) ErrorCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.errorCount
}

// -----------------------------------------------------------------------------

// Handle logs err and bumps the failure counter. A nil err decays the counter.
// It returns true once the counter has reached MaxErrorsBeforeBackoff.
func (e *ErrorHandler) Handle(err error, context string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err == nil {
		if e.errorCount > 0 {
			e.errorCount--
		}
		return false
	}

	e.errorCount++
	e.Logger.Error("Error in %s: %v", context, err)
	return e.errorCount >= e.MaxErrorsBeforeBackoff
}
