package common

import (
	"errors"
	"fmt"
)

// Kind classifies a failure for callers that need to react differently,
// e.g. the batch runner skipping a file versus aborting the job.
type Kind string

const (
	KindConfiguration    Kind = "configuration"
	KindExtraction       Kind = "extraction"
	KindDetection        Kind = "detection"
	KindEmptyInput       Kind = "empty_input"
	KindEmptyBatch       Kind = "empty_batch"
	KindAlreadyConverted Kind = "already_converted"
	KindOutput           Kind = "output"
	KindValidation       Kind = "validation"
)

// Message is a user-facing message in both supported languages.
type Message struct {
	EN string `json:"en"`
	JA string `json:"ja"`
}

// AppError represents application-specific errors
type AppError struct {
	Kind    Kind
	Message Message
	Details map[string]any
	Cause   error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message.EN, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message.EN)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// Common application errors
var (
	ErrNoExtractableRows = errors.New("no extractable rows")
	ErrVendorNotDetected = errors.New("vendor not detected")
	ErrEmptyBatch        = errors.New("no valid files in batch")
	ErrEmptyInput        = errors.New("input is empty")
	ErrAlreadyConverted  = errors.New("file is already in import format")
	ErrTotalsMismatch    = errors.New("invoice totals do not match line totals")
)

// Error constructors
func NewAppError(kind Kind, msg Message, cause error) *AppError {
	return &AppError{
		Kind:    kind,
		Message: msg,
		Cause:   cause,
	}
}

// WithDetail attaches a diagnostic value and returns e for chaining.
func (e *AppError) WithDetail(key string, value any) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

func WrapError(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// KindOf returns the classification of err, or "" when err carries none.
func KindOf(err error) Kind {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return ""
}

// NoExtractableRows is the fatal extraction error for a file that yielded
// nothing usable.
func NoExtractableRows(vendor string) *AppError {
	return NewAppError(KindExtraction, Message{
		EN: "No valid data rows were found. Please check the file format.",
		JA: "有効なデータ行が見つかりませんでした。ファイル形式を確認してください。",
	}, ErrNoExtractableRows).WithDetail("vendor", vendor)
}

// AlreadyConverted rejects files that are already import sheets.
func AlreadyConverted() *AppError {
	return NewAppError(KindAlreadyConverted, Message{
		EN: "This file has already been converted. Please upload the original vendor file.",
		JA: "このファイルは既に変換済みです。元の業者ファイルをアップロードしてください。",
	}, ErrAlreadyConverted)
}

// VendorNotDetected carries a sample of the observed headers for diagnosis.
func VendorNotDetected(filename string, headersSample []string) *AppError {
	return NewAppError(KindDetection, Message{
		EN: "Could not identify vendor",
		JA: "業者を識別できませんでした",
	}, ErrVendorNotDetected).
		WithDetail("filename", filename).
		WithDetail("headersSample", headersSample)
}

// EmptyInput is returned for a file without data rows.
func EmptyInput(filename string) *AppError {
	return NewAppError(KindEmptyInput, Message{
		EN: "File is empty or invalid",
		JA: "ファイルが空か無効です",
	}, ErrEmptyInput).WithDetail("filename", filename)
}

// EmptyBatch is returned when every file of a batch was skipped.
func EmptyBatch() *AppError {
	return NewAppError(KindEmptyBatch, Message{
		EN: "No valid files could be processed",
		JA: "有効なファイルが処理できませんでした",
	}, ErrEmptyBatch)
}

// GenerationFailed wraps a rendering failure.
func GenerationFailed(cause error) *AppError {
	return NewAppError(KindOutput, Message{
		EN: fmt.Sprintf("Generation failed: %v", cause),
		JA: fmt.Sprintf("生成失敗: %v", cause),
	}, cause)
}
