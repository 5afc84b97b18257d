package apperr

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/MimeLyc/yt-transcript-extractor/pkg/log"
)

type ErrorType int

const (
	ErrEmptyInput ErrorType = iota
	ErrInvalidURL
	ErrRetrieval
	ErrSummary
	ErrValidation
	ErrConfig
	ErrNotFound
	ErrConflict
	ErrUnknown
)

// Error is the typed error shared by the extraction pipeline.
type Error struct {
	Type    ErrorType
	Message string
	Context map[string]any
	Cause   error
}

func New(errorType ErrorType, message string) *Error {
	return &Error{
		Type:    errorType,
		Message: message,
		Context: make(map[string]any),
	}
}

func NewWithCause(errorType ErrorType, message string, cause error) *Error {
	return &Error{
		Type:    errorType,
		Message: message,
		Context: make(map[string]any),
		Cause:   cause,
	}
}

// Retrieval builds the error reported when a transcript could not be fetched for url.
func Retrieval(url string, cause error) *Error {
	return NewWithCause(ErrRetrieval, "failed to fetch transcript", cause).WithContext("url", url)
}

// Summary builds the error reported when a summary could not be fetched for url.
func Summary(url string, cause error) *Error {
	return NewWithCause(ErrSummary, "failed to summarize transcript", cause).WithContext("url", url)
}

func (e *Error) Error() string {
	var parts []string
	parts = append(parts, fmt.Sprintf("[%s] %s", e.Type.String(), e.Message))

	if len(e.Context) > 0 {
		keys := make([]string, 0, len(e.Context))
		for k := range e.Context {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		ctxParts := make([]string, 0, len(keys))
		for _, k := range keys {
			ctxParts = append(ctxParts, fmt.Sprintf("%s=%v", k, e.Context[k]))
		}
		parts = append(parts, fmt.Sprintf("context: %s", strings.Join(ctxParts, ", ")))
	}

	if e.Cause != nil {
		parts = append(parts, fmt.Sprintf("cause: %v", e.Cause))
	}

	return strings.Join(parts, " | ")
}

func (e *Error) Unwrap() error {
	return e.Cause
}

func (e *Error) WithContext(key string, value any) *Error {
	if e.Context == nil {
		e.Context = make(map[string]any)
	}
	e.Context[key] = value
	return e
}

// URL returns the source URL the error refers to, if any.
func (e *Error) URL() string {
	if v, ok := e.Context["url"].(string); ok {
		return v
	}
	return ""
}

func (t ErrorType) String() string {
	switch t {
	case ErrEmptyInput:
		return "EmptyInput"
	case ErrInvalidURL:
		return "InvalidUrl"
	case ErrRetrieval:
		return "Retrieval"
	case ErrSummary:
		return "Summary"
	case ErrValidation:
		return "Validation"
	case ErrConfig:
		return "Config"
	case ErrNotFound:
		return "NotFound"
	case ErrConflict:
		return "Conflict"
	default:
		return "Unknown"
	}
}

type ErrorHandler interface {
	Handle(err error) bool
	GetAdvice(err *Error) string
}

type DefaultErrorHandler struct{}

func NewDefaultErrorHandler() ErrorHandler {
	return &DefaultErrorHandler{}
}

// Handle logs err with advice. It reports false for errors of foreign types.
func (h *DefaultErrorHandler) Handle(err error) bool {
	var appErr *Error
	if !errors.As(err, &appErr) {
		log.Error("Unknown Error: %v", err)
		return false
	}

	log.Error("Error Detail: %v | advice: %s", err, h.GetAdvice(appErr))
	return true
}

// GetAdvice returns a user-facing hint for the error type.
func (h *DefaultErrorHandler) GetAdvice(err *Error) string {
	switch err.Type {
	case ErrEmptyInput:
		return "Please enter at least one YouTube URL"
	case ErrInvalidURL:
		return "All URLs must be valid YouTube URLs"
	case ErrRetrieval:
		return "The transcript service could not return a transcript for this URL; check that the video has captions and resubmit"
	case ErrSummary:
		return "The summary service is unavailable or rejected the URL; try again later"
	case ErrValidation:
		return "Please verify the request parameters"
	case ErrConfig:
		return "Please check that environment variables are set correctly"
	case ErrNotFound:
		return "The requested session or transcript does not exist; it may have expired"
	case ErrConflict:
		return "An extraction is already running for this session; wait for it to finish"
	default:
		return "Please review the error details and retry"
	}
}

func IsErrorType(err error, errorType ErrorType) bool {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Type == errorType
	}
	return false
}

// TypeOf returns the ErrorType carried by err, or ErrUnknown.
func TypeOf(err error) ErrorType {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Type
	}
	return ErrUnknown
}
