package kv

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// --------------------------------------------------------------------------
// Helper Types
// --------------------------------------------------------------------------

type Implementation string

const (
	ImplMemory Implementation = "memory"
	ImplFile   Implementation = "file"
)

// Limits describes the quota envelope of a backend. The values mirror the
// limits of browser extension storage areas, which is the smallest backend
// the store has to survive on.
type Limits struct {
	// QuotaBytes is the total number of bytes the backend may hold,
	// counted as len(key) + len(value) over all items.
	QuotaBytes int
	// QuotaBytesPerItem is the maximum size of a single item,
	// counted as len(key) + len(value).
	QuotaBytesPerItem int
	// MaxWriteOperationsPerMinute caps Set and Remove calls in any
	// sliding 60 second window.
	MaxWriteOperationsPerMinute int
}

// DefaultLimits returns the limits of the most restrictive supported
// backend (extension sync storage).
func DefaultLimits() Limits {
	return Limits{
		QuotaBytes:                  102400,
		QuotaBytesPerItem:           8192,
		MaxWriteOperationsPerMinute: 120,
	}
}

// --------------------------------------------------------------------------
// Backend Interface
// --------------------------------------------------------------------------

// Backend is the narrow adapter over a byte- and rate-limited key-value
// host. All implementations must be safe for concurrent use.
//
// Write operations return a *Error (nil on success) whose code and message
// identify quota and write-rate violations; read operations return the
// requested data along with an error.
type Backend interface {
	// Get returns the values for the given keys. Keys that do not exist
	// are simply absent from the result map. A nil key slice requests a
	// full scan of every stored item.
	Get(ctx context.Context, keys []string) (map[string][]byte, error)

	// Set inserts or updates all given key-value pairs in one operation.
	// The whole batch counts as a single write operation against the
	// write-rate limit. If any item violates a quota, no item is stored.
	Set(ctx context.Context, items map[string][]byte) error

	// Remove deletes the given keys. Missing keys are ignored. The whole
	// batch counts as a single write operation.
	Remove(ctx context.Context, keys []string) error

	// BytesInUse returns the total number of bytes currently stored.
	BytesInUse(ctx context.Context) (int, error)

	// Limits returns the quota envelope this backend enforces.
	Limits() Limits

	// Close releases any resources held by the backend.
	Close() error
}

// --------------------------------------------------------------------------
// Custom Error Type
// --------------------------------------------------------------------------

// RetCode classifies backend failures.
type RetCode uint64

const (
	RetCSuccess           RetCode = iota // 0: Operation executed successfully.
	RetCQuotaBytes                       // 1: Total byte quota exceeded.
	RetCQuotaBytesPerItem                // 2: Per-item byte quota exceeded.
	RetCWriteRate                        // 3: Write-frequency limit exceeded.
	RetCInternalError                    // 4: Operation failed due to an internal error.
)

// Message substrings foreign backends are known to emit for the same
// failure classes. IsQuotaError and IsRateLimitError fall back to these
// when the error is not a *Error.
const (
	MsgQuotaBytes        = "QUOTA_BYTES"
	MsgQuotaBytesPerItem = "QUOTA_BYTES_PER_ITEM"
	MsgWriteRate         = "MAX_WRITE_OPERATIONS_PER_MINUTE"
)

// Error is a custom error type that wraps a return code (of type RetCode)
// and an error message.
type Error struct {
	Code RetCode // The return code
	Msg  string  // The error message.
}

// Error implements the error interface.
func (e *Error) Error() string {
	errorCode := ""
	switch e.Code {
	case RetCQuotaBytes:
		errorCode = MsgQuotaBytes
	case RetCQuotaBytesPerItem:
		errorCode = MsgQuotaBytesPerItem
	case RetCWriteRate:
		errorCode = MsgWriteRate
	case RetCInternalError:
		errorCode = "INTERNAL_ERROR"
	default:
		errorCode = "UNKNOWN"
	}

	return fmt.Sprintf("KVBackendError (code %s): %s", errorCode, e.Msg)
}

// NewError creates a new backend error with the given code and message.
func NewError(code RetCode, msg string) *Error {
	return &Error{
		Code: code,
		Msg:  msg,
	}
}

// --------------------------------------------------------------------------
// Error Classification
// --------------------------------------------------------------------------

// IsQuotaError reports whether err represents a per-item or total byte
// quota violation.
func IsQuotaError(err error) bool {
	if err == nil {
		return false
	}
	var kvErr *Error
	if errors.As(err, &kvErr) {
		return kvErr.Code == RetCQuotaBytes || kvErr.Code == RetCQuotaBytesPerItem
	}
	return strings.Contains(err.Error(), MsgQuotaBytes)
}

// IsRateLimitError reports whether err represents a write-frequency
// violation.
func IsRateLimitError(err error) bool {
	if err == nil {
		return false
	}
	var kvErr *Error
	if errors.As(err, &kvErr) {
		return kvErr.Code == RetCWriteRate
	}
	return strings.Contains(err.Error(), MsgWriteRate)
}

// IsThrottleError reports whether err should trigger the write queue's
// backoff path (any quota or write-rate violation).
func IsThrottleError(err error) bool {
	return IsQuotaError(err) || IsRateLimitError(err)
}

// ItemSize returns the number of bytes an item counts against the quotas.
func ItemSize(key string, value []byte) int {
	return len(key) + len(value)
}
