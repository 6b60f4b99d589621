package jira

import (
	"errors"
	"fmt"
	"time"
)

// ErrTransitionUnavailable is returned when no transition matches the wanted workflow state
var ErrTransitionUnavailable = errors.New("transition not available")

// ConfigurationError reports missing or unusable deployment configuration
type ConfigurationError struct {
	Message string
}

func (e *ConfigurationError) Error() string {
	return e.Message
}

// ValidationError reports a malformed inbound request
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// APIError is a non-2xx answer from Jira. Body holds the raw upstream payload.
type APIError struct {
	Status int
	Body   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("Jira API error (%d): %s", e.Status, e.Body)
}

// ParseError means Jira answered 2xx with a body that is not valid JSON
type ParseError struct {
	Body string
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("failed to parse Jira response: %v", e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// TimeoutError is returned when a call or the whole search exceeded its deadline
type TimeoutError struct {
	After time.Duration
	Err   error
}

func (e *TimeoutError) Error() string {
	if e.After > 0 {
		return fmt.Sprintf("Jira did not answer within %s: %v", e.After, e.Err)
	}
	return fmt.Sprintf("Jira did not answer in time: %v", e.Err)
}

func (e *TimeoutError) Unwrap() error {
	return e.Err
}

// PaginationExceededError is returned when upstream keeps handing out cursors past the page limit
type PaginationExceededError struct {
	MaxPages int
}

func (e *PaginationExceededError) Error() string {
	return fmt.Sprintf("search exceeded %d pages", e.MaxPages)
}
