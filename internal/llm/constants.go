// In file: internal/llm/constants.go
package llm

import (
	"errors"
	"time"
)

// This file centralizes constants shared across the clients in the llm package.
const (
	// DefaultBaseURL is used when no base URL is configured.
	DefaultBaseURL = "https://api.openai.com/v1"

	// defaultMaxAttempts of 1 means a single request with no retry.
	defaultMaxAttempts = 1
	initialRetryDelay  = 2 * time.Second
)

// ErrNoChoices is returned when the endpoint answers without any candidate message.
var ErrNoChoices = errors.New("no choices returned from the model")
