// Package errors provides custom error types for domain-specific errors.
package errors

import (
	"errors"
	"fmt"
)

// Standard sentinel errors
var (
	ErrInstrumentNotFound  = errors.New("instrument not found")
	ErrAlertNotFound       = errors.New("alert not found")
	ErrDuplicateInstrument = errors.New("instrument code already registered")
	ErrInvalidDirection    = errors.New("invalid alert direction")
	ErrConfigInvalid       = errors.New("invalid configuration")
	ErrDatabaseError       = errors.New("database error")
)

// ExtractionKind classifies quote extraction failures.
type ExtractionKind int

const (
	// ExtractNoMatch means no element matched the quote selector.
	ExtractNoMatch ExtractionKind = iota + 1
	// ExtractNumericFormat means the matched text is not a usable decimal.
	ExtractNumericFormat
)

func (k ExtractionKind) String() string {
	switch k {
	case ExtractNoMatch:
		return "no_match"
	case ExtractNumericFormat:
		return "numeric_format"
	default:
		return "unknown"
	}
}

// ExtractionError represents a failure to read a quote out of a document.
type ExtractionError struct {
	Kind     ExtractionKind
	Selector string
	Text     string
	Err      error
}

func (e *ExtractionError) Error() string {
	switch e.Kind {
	case ExtractNoMatch:
		if e.Err != nil {
			return fmt.Sprintf("extraction error [%s]: no element matches %q: %v", e.Kind, e.Selector, e.Err)
		}
		return fmt.Sprintf("extraction error [%s]: no element matches %q", e.Kind, e.Selector)
	default:
		if e.Err != nil {
			return fmt.Sprintf("extraction error [%s]: %q: %v", e.Kind, e.Text, e.Err)
		}
		return fmt.Sprintf("extraction error [%s]: %q", e.Kind, e.Text)
	}
}

func (e *ExtractionError) Unwrap() error {
	return e.Err
}

// NewExtractionError creates a new ExtractionError.
func NewExtractionError(kind ExtractionKind, selector, text string, err error) *ExtractionError {
	return &ExtractionError{
		Kind:     kind,
		Selector: selector,
		Text:     text,
		Err:      err,
	}
}

// FetchKind classifies page fetch failures.
type FetchKind int

const (
	// FetchMalformedURL means the stored URL is unusable.
	FetchMalformedURL FetchKind = iota + 1
	// FetchTransport means the connection, TLS handshake or body read failed.
	FetchTransport
	// FetchHTTPStatus means the upstream answered with a non-2xx status.
	FetchHTTPStatus
)

func (k FetchKind) String() string {
	switch k {
	case FetchMalformedURL:
		return "malformed_url"
	case FetchTransport:
		return "transport"
	case FetchHTTPStatus:
		return "http_status"
	default:
		return "unknown"
	}
}

// FetchError represents a failure to retrieve a quote page.
type FetchError struct {
	Kind       FetchKind
	URL        string
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	if e.Kind == FetchHTTPStatus {
		return fmt.Sprintf("fetch error [%s] %s: status %d", e.Kind, e.URL, e.StatusCode)
	}
	if e.Err != nil {
		return fmt.Sprintf("fetch error [%s] %s: %v", e.Kind, e.URL, e.Err)
	}
	return fmt.Sprintf("fetch error [%s] %s", e.Kind, e.URL)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// NewFetchError creates a new FetchError.
func NewFetchError(kind FetchKind, url string, err error) *FetchError {
	return &FetchError{
		Kind: kind,
		URL:  url,
		Err:  err,
	}
}

// NewHTTPStatusError creates a FetchError for a non-success status.
func NewHTTPStatusError(url string, statusCode int) *FetchError {
	return &FetchError{
		Kind:       FetchHTTPStatus,
		URL:        url,
		StatusCode: statusCode,
	}
}

// CrawlKind classifies crawl failures as seen by the caller.
type CrawlKind int

const (
	// CrawlNotFound means the instrument does not exist.
	CrawlNotFound CrawlKind = iota + 1
	// CrawlStore means an instrument or alert lookup failed.
	CrawlStore
	// CrawlUpstream means fetching or extracting the quote failed.
	CrawlUpstream
)

func (k CrawlKind) String() string {
	switch k {
	case CrawlNotFound:
		return "not_found"
	case CrawlStore:
		return "store"
	case CrawlUpstream:
		return "upstream"
	default:
		return "unknown"
	}
}

// CrawlError represents a failed crawl of one instrument.
type CrawlError struct {
	Kind         CrawlKind
	InstrumentID int64
	Err          error
}

func (e *CrawlError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("crawl error [%s] instrument %d: %v", e.Kind, e.InstrumentID, e.Err)
	}
	return fmt.Sprintf("crawl error [%s] instrument %d", e.Kind, e.InstrumentID)
}

func (e *CrawlError) Unwrap() error {
	return e.Err
}

// NewCrawlError creates a new CrawlError.
func NewCrawlError(kind CrawlKind, instrumentID int64, err error) *CrawlError {
	return &CrawlError{
		Kind:         kind,
		InstrumentID: instrumentID,
		Err:          err,
	}
}

// IsCrawlKind reports whether err carries a CrawlError of the given kind.
func IsCrawlKind(err error, kind CrawlKind) bool {
	var ce *CrawlError
	return errors.As(err, &ce) && ce.Kind == kind
}

// ValidationError represents a validation error.
type ValidationError struct {
	Field   string
	Value   interface{}
	Message string
	Err     error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error: %s (%v): %s", e.Field, e.Value, e.Message)
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// NewValidationError creates a new ValidationError.
func NewValidationError(field string, value interface{}, message string) *ValidationError {
	return &ValidationError{
		Field:   field,
		Value:   value,
		Message: message,
	}
}

// Wrap wraps an error with additional context.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// Wrapf wraps an error with formatted context.
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err)
}

// Is reports whether any error in err's chain matches target.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target.
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}
