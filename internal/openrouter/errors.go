package openrouter

import (
	"errors"
	"fmt"
)

var ErrNoAPIKey = errors.New("OpenRouter API key is not configured")

type UpstreamError struct {
	Status  int
	Message string
}

func (e *UpstreamError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("OpenRouter returned status %d", e.Status)
	}
	return fmt.Sprintf("OpenRouter returned status %d: %s", e.Status, e.Message)
}
