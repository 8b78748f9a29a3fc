package validation

import (
	"fmt"
	"strings"
)

const maxRequestMessageLength = 2000

// ValidateRequestMessage checks the free-text rationale attached to a device request.
func ValidateRequestMessage(message string) error {
	trimmed := strings.TrimSpace(message)
	if trimmed == "" {
		return fmt.Errorf("message is required")
	}
	if len(trimmed) > maxRequestMessageLength {
		return fmt.Errorf("message must not exceed %d characters", maxRequestMessageLength)
	}
	return nil
}

// ValidateDeviceName checks a device listing name.
func ValidateDeviceName(name string) error {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return fmt.Errorf("name is required")
	}
	if len(trimmed) > 120 {
		return fmt.Errorf("name must not exceed 120 characters")
	}
	return nil
}
