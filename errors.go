// errors.go: structured error handling for weakdict operations
//
// This file provides structured error types using the go-errors library,
// giving every failure a stable code and a small context map.
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0
package weakdict

import (
	goerrors "errors"
	"fmt"
	"strconv"

	"github.com/agilira/go-errors"
)

// Error codes for weakdict operations
const (
	// Argument errors
	ErrCodeNilKey      errors.ErrorCode = "WEAKDICT_NIL_KEY"
	ErrCodeNilFactory  errors.ErrorCode = "WEAKDICT_NIL_FACTORY"
	ErrCodeNilComparer errors.ErrorCode = "WEAKDICT_NIL_COMPARER"
	ErrCodeNilSequence errors.ErrorCode = "WEAKDICT_NIL_SEQUENCE"

	// Configuration errors
	ErrCodeInvalidConfig errors.ErrorCode = "WEAKDICT_INVALID_CONFIG"

	// Operation errors
	ErrCodeDuplicateKey errors.ErrorCode = "WEAKDICT_DUPLICATE_KEY"
	ErrCodeKeyNotFound  errors.ErrorCode = "WEAKDICT_KEY_NOT_FOUND"
	ErrCodeLoaderFailed errors.ErrorCode = "WEAKDICT_LOADER_FAILED"

	// Internal errors
	ErrCodeInternalError  errors.ErrorCode = "WEAKDICT_INTERNAL_ERROR"
	ErrCodePanicRecovered errors.ErrorCode = "WEAKDICT_PANIC_RECOVERED"
)

const (
	msgNilKey         = "key cannot be nil"
	msgNilFactory     = "value factory cannot be nil"
	msgNilComparer    = "comparer cannot be nil"
	msgNilSequence    = "initial sequence cannot be nil"
	msgInvalidConfig  = "invalid configuration"
	msgDuplicateKey   = "an entry with the same key already exists"
	msgKeyNotFound    = "key not found in dictionary"
	msgLoaderFailed   = "loader function failed"
	msgInternalError  = "internal dictionary error"
	msgPanicRecovered = "panic recovered in dictionary operation"
)

// =============================================================================
// ARGUMENT ERRORS
// =============================================================================

// NewErrNilKey creates an error for a nil key passed to operation.
func NewErrNilKey(operation string) error {
	return errors.NewWithField(ErrCodeNilKey, msgNilKey, "operation", operation)
}

// NewErrNilFactory creates an error for a nil value factory or loader.
func NewErrNilFactory(operation string) error {
	return errors.NewWithField(ErrCodeNilFactory, msgNilFactory, "operation", operation)
}

// NewErrNilComparer creates an error for a nil comparer.
func NewErrNilComparer(operation string) error {
	return errors.NewWithField(ErrCodeNilComparer, msgNilComparer, "operation", operation)
}

// NewErrNilSequence creates an error for a nil initial sequence.
func NewErrNilSequence(operation string) error {
	return errors.NewWithField(ErrCodeNilSequence, msgNilSequence, "operation", operation)
}

// NewErrInvalidConfig creates an error for a missing or invalid option.
func NewErrInvalidConfig(field string, reason string) error {
	return errors.NewWithContext(ErrCodeInvalidConfig, msgInvalidConfig, map[string]interface{}{
		"field":  field,
		"reason": reason,
	})
}

// =============================================================================
// OPERATION ERRORS
// =============================================================================

// NewErrDuplicateKey creates an error when an equal live key is already stored.
// hash is the comparer hash of the rejected key.
func NewErrDuplicateKey(operation string, hash uint64) error {
	return errors.NewWithContext(ErrCodeDuplicateKey, msgDuplicateKey, map[string]interface{}{
		"operation": operation,
		"key_hash":  hash,
	})
}

// NewErrKeyNotFound creates an error when indexed access misses.
func NewErrKeyNotFound(hash uint64) error {
	return errors.NewWithField(ErrCodeKeyNotFound, msgKeyNotFound, "key_hash", strconv.FormatUint(hash, 10))
}

// NewErrLoaderFailed wraps an error returned by a GetOrLoad loader.
func NewErrLoaderFailed(hash uint64, cause error) error {
	return errors.Wrap(cause, ErrCodeLoaderFailed, msgLoaderFailed).
		WithContext("key_hash", hash).
		AsRetryable()
}

// =============================================================================
// INTERNAL ERRORS
// =============================================================================

// NewErrInternal creates a generic internal error
func NewErrInternal(operation string, cause error) error {
	if cause != nil {
		return errors.Wrap(cause, ErrCodeInternalError, msgInternalError).
			WithContext("operation", operation).
			WithSeverity("warning")
	}
	return errors.NewWithField(ErrCodeInternalError, msgInternalError, "operation", operation).
		WithSeverity("warning")
}

// NewErrPanicRecovered creates an error when a panic is recovered
func NewErrPanicRecovered(operation string, panicValue interface{}) error {
	return errors.NewWithContext(ErrCodePanicRecovered, msgPanicRecovered, map[string]interface{}{
		"operation":   operation,
		"panic_value": fmt.Sprintf("%v", panicValue),
	}).WithSeverity("critical")
}

// =============================================================================
// ERROR CHECKING HELPERS
// =============================================================================

// IsNilKey checks if error is a nil key error
func IsNilKey(err error) bool {
	return errors.HasCode(err, ErrCodeNilKey)
}

// IsDuplicateKey checks if error is a duplicate key error
func IsDuplicateKey(err error) bool {
	return errors.HasCode(err, ErrCodeDuplicateKey)
}

// IsNotFound checks if error is a key not found error
func IsNotFound(err error) bool {
	return errors.HasCode(err, ErrCodeKeyNotFound)
}

// IsPanicRecovered checks if error wraps a recovered panic
func IsPanicRecovered(err error) bool {
	return errors.HasCode(err, ErrCodePanicRecovered)
}

// IsArgumentError reports whether err is one of the invalid-argument errors
// (nil key, factory, comparer or sequence).
func IsArgumentError(err error) bool {
	switch GetErrorCode(err) {
	case ErrCodeNilKey, ErrCodeNilFactory, ErrCodeNilComparer, ErrCodeNilSequence:
		return true
	}
	return false
}

// IsRetryable checks if the error can be retried
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	var retryable errors.Retryable
	if goerrors.As(err, &retryable) {
		return retryable.IsRetryable()
	}
	return false
}

// GetErrorCode extracts the error code from an error
func GetErrorCode(err error) errors.ErrorCode {
	if err == nil {
		return ""
	}
	var coder errors.ErrorCoder
	if goerrors.As(err, &coder) {
		return coder.ErrorCode()
	}
	return ""
}

// GetErrorContext extracts context from an error
func GetErrorContext(err error) map[string]interface{} {
	if err == nil {
		return nil
	}
	var dictErr *errors.Error
	if goerrors.As(err, &dictErr) {
		return dictErr.Context
	}
	return nil
}
