package ai

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/url"
	"syscall"
)

// Sentinel errors for the three provider failure classes the pipeline
// distinguishes. Callers branch with errors.Is.
var (
	// ErrConnection marks failures to reach the provider at all.
	ErrConnection = errors.New("ai: provider connection failed")
	// ErrTimeout marks requests that ran out of time.
	ErrTimeout = errors.New("ai: provider request timed out")
	// ErrMalformed marks provider output that could not be parsed even
	// after repair.
	ErrMalformed = errors.New("ai: provider returned malformed output")
)

// Classify wraps a raw transport error with the matching sentinel so that
// callers can branch with errors.Is. Errors that fit no class are returned
// unchanged. Context cancellation is passed through untouched so it keeps
// propagating as cancellation.
func Classify(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %w", ErrTimeout, err)
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		if netErr.Timeout() {
			return fmt.Errorf("%w: %w", ErrTimeout, err)
		}
		return fmt.Errorf("%w: %w", ErrConnection, err)
	}

	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return fmt.Errorf("%w: %w", ErrConnection, err)
	}
	if errors.Is(err, syscall.ECONNREFUSED) || errors.Is(err, syscall.ECONNRESET) {
		return fmt.Errorf("%w: %w", ErrConnection, err)
	}

	return err
}

// IsRecoverable reports whether err belongs to a failure class the pipeline
// handles locally (retry, skip the batch, or fall back) instead of aborting.
func IsRecoverable(err error) bool {
	return errors.Is(err, ErrConnection) ||
		errors.Is(err, ErrTimeout) ||
		errors.Is(err, ErrMalformed)
}
