package llm

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"

	"github.com/sashabaranov/go-openai"
)

// StatusError is a non-2xx reply from an upstream API
type StatusError struct {
	Code    int
	Message string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("API error (%d): %s", e.Code, e.Message)
}

// Retryable reports whether err is a transient network failure.
// HTTP status errors (auth, rate limit, server errors) are not retried.
func Retryable(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) {
		return false
	}

	var statusErr *StatusError
	var apiErr *openai.APIError
	var reqErr *openai.RequestError
	if errors.As(err, &statusErr) || errors.As(err, &apiErr) || errors.As(err, &reqErr) {
		return false
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	return errors.Is(err, context.DeadlineExceeded) ||
		errors.Is(err, io.ErrUnexpectedEOF) ||
		errors.Is(err, io.EOF)
}
