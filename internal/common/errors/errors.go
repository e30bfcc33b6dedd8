// Package errors provides standardized error handling for catalog browsing.
package errors

import (
	"context"
	stderrors "errors"
	"fmt"
	"strings"
	"time"
)

// ==========================
// 1. Standard Error Types
// ==========================

// ErrorCode represents standardized internal error codes.
type ErrorCode string

const (
	ErrCodeNetwork       ErrorCode = "NETWORK_ERROR"
	ErrCodeDecode        ErrorCode = "DECODE_ERROR"
	ErrCodeStaleResponse ErrorCode = "STALE_RESPONSE"
	ErrCodeNotFound      ErrorCode = "NOT_FOUND"
	ErrCodeInvalidPage   ErrorCode = "INVALID_PAGE"
	ErrCodeInvalidFilter ErrorCode = "INVALID_FILTER"
	ErrCodeInvalidConfig ErrorCode = "INVALID_CONFIG"

	ErrCodeCacheFailed       ErrorCode = "CACHE_FAILED"
	ErrCodeSearchQueryFailed ErrorCode = "SEARCH_QUERY_FAILED"
	ErrCodeRegistryInvalid   ErrorCode = "REGISTRY_INVALID"
)

// StandardError represents a structured application error.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}

func (e *StandardError) Error() string {
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

// Is reports whether target carries the same code, so errors.Is works on codes.
func (e *StandardError) Is(target error) bool {
	t, ok := target.(*StandardError)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

// WithMetadata returns the error with the key set in its metadata.
func (e *StandardError) WithMetadata(key string, value interface{}) *StandardError {
	if e.Metadata == nil {
		e.Metadata = make(map[string]interface{})
	}
	e.Metadata[key] = value
	return e
}

// ==========================
// 2. Error Constructors
// ==========================

// NewNetworkError creates a retryable transport error.
func NewNetworkError(url string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeNetwork,
		Message:   "Failed to reach the catalog API",
		Details:   fmt.Sprintf("url: %s, error: %s", url, err.Error()),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewHTTPStatusError creates a network error for a non-2xx response.
func NewHTTPStatusError(url string, status int) *StandardError {
	return &StandardError{
		Code:      ErrCodeNetwork,
		Message:   fmt.Sprintf("Catalog API returned status %d", status),
		Details:   fmt.Sprintf("url: %s", url),
		Retryable: status >= 500,
		Metadata:  map[string]interface{}{"status": status},
		Timestamp: time.Now().UTC(),
	}
}

// NewDecodeError creates a non-retryable error for a malformed payload.
func NewDecodeError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeDecode,
		Message:   "Response payload could not be decoded",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewStaleResponseError marks a response that lost to a newer request.
func NewStaleResponseError(token uint64) *StandardError {
	return &StandardError{
		Code:      ErrCodeStaleResponse,
		Message:   "Response superseded by a newer request",
		Details:   fmt.Sprintf("token: %d", token),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewNotFoundError creates a non-retryable missing resource error.
func NewNotFoundError(resource, id string) *StandardError {
	return &StandardError{
		Code:      ErrCodeNotFound,
		Message:   fmt.Sprintf("%s not found", resource),
		Details:   fmt.Sprintf("id: %s", id),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewInvalidPageError rejects a page number below 1.
func NewInvalidPageError(page int) *StandardError {
	return &StandardError{
		Code:      ErrCodeInvalidPage,
		Message:   "Page must be at least 1",
		Details:   fmt.Sprintf("page: %d", page),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewInvalidFilterError rejects a filter key the listing does not support.
func NewInvalidFilterError(key string) *StandardError {
	return &StandardError{
		Code:      ErrCodeInvalidFilter,
		Message:   "Unsupported filter",
		Details:   fmt.Sprintf("key: %s", key),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewInvalidConfigError creates a configuration error.
func NewInvalidConfigError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeInvalidConfig,
		Message:   "Invalid configuration",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewCacheFailedError creates a retryable response cache error.
func NewCacheFailedError(operation string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeCacheFailed,
		Message:   "Response cache operation failed",
		Details:   fmt.Sprintf("operation: %s, error: %s", operation, err.Error()),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewSearchQueryFailedError creates a retryable search index error.
func NewSearchQueryFailedError(index string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeSearchQueryFailed,
		Message:   "Elasticsearch query error",
		Details:   fmt.Sprintf("index: %s, error: %s", index, err.Error()),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewRegistryInvalidError reports a malformed filter registry.
func NewRegistryInvalidError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeRegistryInvalid,
		Message:   "Filter registry is invalid",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// ==========================
// 3. Utility Functions
// ==========================

// Normalize ensures we always have a StandardError. Anything unrecognised,
// context cancellation included, is treated as a network failure.
func Normalize(err error) *StandardError {
	if err == nil {
		return nil
	}
	var stdErr *StandardError
	if stderrors.As(err, &stdErr) {
		return stdErr
	}
	retryable := !stderrors.Is(err, context.Canceled)
	return &StandardError{
		Code:      ErrCodeNetwork,
		Message:   "Unexpected error",
		Details:   err.Error(),
		Retryable: retryable,
		Timestamp: time.Now().UTC(),
	}
}

// CodeOf returns the code of err, or an empty code for nil.
func CodeOf(err error) ErrorCode {
	if err == nil {
		return ""
	}
	return Normalize(err).Code
}

// IsRetryableErrorCode checks if an error code is worth retrying.
func IsRetryableErrorCode(code ErrorCode) bool {
	switch code {
	case ErrCodeNetwork, ErrCodeCacheFailed, ErrCodeSearchQueryFailed:
		return true
	default:
		return false
	}
}

// GetErrorCategory returns the category of the error code.
func GetErrorCategory(code ErrorCode) string {
	codeStr := string(code)
	switch {
	case strings.Contains(codeStr, "NETWORK"):
		return "TRANSPORT"
	case strings.Contains(codeStr, "DECODE") || strings.Contains(codeStr, "STALE"):
		return "RESPONSE"
	case strings.Contains(codeStr, "CACHE"):
		return "CACHE"
	case strings.Contains(codeStr, "SEARCH"):
		return "SEARCH"
	case strings.Contains(codeStr, "INVALID") || strings.Contains(codeStr, "NOT_FOUND"):
		return "VALIDATION"
	default:
		return "OTHER"
	}
}
