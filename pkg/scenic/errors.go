package scenic

import (
	"errors"
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/opd-ai/go-scenic/internal/driver"
	"github.com/opd-ai/go-scenic/internal/store"
	"github.com/opd-ai/go-scenic/internal/wire"
)

// ErrorCategory classifies where an error came from.
type ErrorCategory int

const (
	// ErrorCategoryUnknown is the default category for uncategorized errors.
	ErrorCategoryUnknown ErrorCategory = iota
	// ErrorCategoryTransport is for the host pipe: EOF, short reads, failed writes.
	ErrorCategoryTransport
	// ErrorCategoryProtocol is for malformed or unexpected host messages.
	ErrorCategoryProtocol
	// ErrorCategoryAsset is for rejected images and fonts.
	ErrorCategoryAsset
	// ErrorCategoryBackend is for drawing and presenting failures.
	ErrorCategoryBackend
	// ErrorCategoryConfig is for configuration parsing and validation errors.
	ErrorCategoryConfig

	numCategories
)

// String returns a human-readable name for the error category.
func (c ErrorCategory) String() string {
	switch c {
	case ErrorCategoryTransport:
		return "transport"
	case ErrorCategoryProtocol:
		return "protocol"
	case ErrorCategoryAsset:
		return "asset"
	case ErrorCategoryBackend:
		return "backend"
	case ErrorCategoryConfig:
		return "config"
	default:
		return "unknown"
	}
}

// ErrorSeverity indicates how much of the driver an error affects.
type ErrorSeverity int

const (
	// SeverityWarning is for dropped commands and rejected assets.
	SeverityWarning ErrorSeverity = iota
	// SeverityError affects a frame or a subsystem; the driver keeps running.
	SeverityError
	// SeverityFatal ends the driver.
	SeverityFatal
)

// String returns a human-readable name for the severity level.
func (s ErrorSeverity) String() string {
	switch s {
	case SeverityWarning:
		return "warning"
	case SeverityError:
		return "error"
	case SeverityFatal:
		return "fatal"
	default:
		return "unknown"
	}
}

// CategorizedError wraps an error with additional metadata for tracking.
type CategorizedError struct {
	// Err is the underlying error.
	Err error
	// Category classifies the type of error.
	Category ErrorCategory
	// Severity indicates the urgency level.
	Severity ErrorSeverity
	// Timestamp is when the error occurred.
	Timestamp time.Time
	// Context provides additional key-value metadata.
	Context map[string]string
}

// Error implements the error interface.
func (e *CategorizedError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("[%s/%s] (no error)", e.Severity, e.Category)
	}
	return fmt.Sprintf("[%s/%s] %s", e.Severity, e.Category, e.Err.Error())
}

// Unwrap returns the underlying error for errors.Is/As support.
func (e *CategorizedError) Unwrap() error {
	return e.Err
}

// NewCategorizedError creates a new CategorizedError with the given parameters.
func NewCategorizedError(err error, category ErrorCategory, severity ErrorSeverity) *CategorizedError {
	return &CategorizedError{
		Err:       err,
		Category:  category,
		Severity:  severity,
		Timestamp: time.Now(),
		Context:   make(map[string]string),
	}
}

// WithContext adds a key-value pair to the error context and returns the error.
func (e *CategorizedError) WithContext(key, value string) *CategorizedError {
	if e.Context == nil {
		e.Context = make(map[string]string)
	}
	e.Context[key] = value
	return e
}

// Categorize classifies err by the sentinel errors it wraps. An error that
// already carries a category is returned unchanged. Nil stays nil.
func Categorize(err error) *CategorizedError {
	if err == nil {
		return nil
	}
	var ce *CategorizedError
	if errors.As(err, &ce) {
		return ce
	}
	switch {
	case errors.Is(err, driver.ErrCrash):
		return NewCategorizedError(err, ErrorCategoryProtocol, SeverityFatal)
	case errors.Is(err, driver.ErrTransport), errors.Is(err, io.EOF), errors.Is(err, io.ErrUnexpectedEOF),
		errors.Is(err, io.ErrClosedPipe), errors.Is(err, driver.ErrFrameTooLarge):
		return NewCategorizedError(err, ErrorCategoryTransport, SeverityFatal)
	case errors.Is(err, driver.ErrTruncated), errors.Is(err, wire.ErrShortBuffer):
		return NewCategorizedError(err, ErrorCategoryProtocol, SeverityWarning)
	case errors.Is(err, store.ErrSizeMismatch), errors.Is(err, store.ErrBlobSize),
		errors.Is(err, store.ErrUnknownFormat), errors.Is(err, store.ErrEmptyImage),
		errors.Is(err, store.ErrImageTooLarge),
		errors.Is(err, store.ErrBadFont):
		return NewCategorizedError(err, ErrorCategoryAsset, SeverityWarning)
	default:
		return NewCategorizedError(err, ErrorCategoryUnknown, SeverityError)
	}
}

// ErrorTracker keeps a bounded window of recent errors and lifetime counts
// per category. Thread-safe for concurrent use.
type ErrorTracker struct {
	mu            sync.RWMutex
	errors        []CategorizedError
	maxErrors     int
	retentionTime time.Duration

	categoryCounters [numCategories]atomic.Int64
}

// ErrorTrackerConfig configures an ErrorTracker.
type ErrorTrackerConfig struct {
	// MaxErrors is the maximum number of errors to retain (default: 1000).
	MaxErrors int
	// RetentionTime is how long to retain errors (default: 1 hour).
	RetentionTime time.Duration
}

// DefaultErrorTrackerConfig returns a configuration with sensible defaults.
func DefaultErrorTrackerConfig() ErrorTrackerConfig {
	return ErrorTrackerConfig{
		MaxErrors:     1000,
		RetentionTime: time.Hour,
	}
}

// NewErrorTracker creates a new ErrorTracker with the given configuration.
func NewErrorTracker(cfg ErrorTrackerConfig) *ErrorTracker {
	if cfg.MaxErrors <= 0 {
		cfg.MaxErrors = 1000
	}
	if cfg.RetentionTime <= 0 {
		cfg.RetentionTime = time.Hour
	}
	return &ErrorTracker{
		errors:        make([]CategorizedError, 0, min(cfg.MaxErrors, 64)),
		maxErrors:     cfg.MaxErrors,
		retentionTime: cfg.RetentionTime,
	}
}

// Record adds an error to the tracker.
func (t *ErrorTracker) Record(err *CategorizedError) {
	if err == nil {
		return
	}
	if err.Category >= 0 && err.Category < numCategories {
		t.categoryCounters[err.Category].Add(1)
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	t.errors = append(t.errors, *err)
	if len(t.errors) > t.maxErrors {
		t.errors = t.errors[len(t.errors)-t.maxErrors:]
	}
	t.pruneExpired()
}

// pruneExpired removes errors older than the retention time.
// Must be called with mu held.
func (t *ErrorTracker) pruneExpired() {
	cutoff := time.Now().Add(-t.retentionTime)
	start := 0
	for start < len(t.errors) && !t.errors[start].Timestamp.After(cutoff) {
		start++
	}
	if start > 0 {
		t.errors = t.errors[start:]
	}
}

// Count returns the lifetime number of errors recorded for category.
func (t *ErrorTracker) Count(category ErrorCategory) int64 {
	if category < 0 || category >= numCategories {
		return 0
	}
	return t.categoryCounters[category].Load()
}

// RecentErrors returns the most recent errors, up to the specified limit.
func (t *ErrorTracker) RecentErrors(limit int) []CategorizedError {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if limit <= 0 || len(t.errors) == 0 {
		return nil
	}
	start := max(len(t.errors)-limit, 0)
	result := make([]CategorizedError, len(t.errors)-start)
	copy(result, t.errors[start:])
	return result
}

// Stats returns a snapshot of error statistics.
func (t *ErrorTracker) Stats() ErrorStats {
	t.mu.RLock()
	defer t.mu.RUnlock()

	stats := ErrorStats{
		TotalErrors:      len(t.errors),
		ErrorsByCategory: make(map[ErrorCategory]int),
		ErrorsBySeverity: make(map[ErrorSeverity]int),
	}
	for _, err := range t.errors {
		stats.ErrorsByCategory[err.Category]++
		stats.ErrorsBySeverity[err.Severity]++
	}
	return stats
}

// Clear removes all retained errors. Lifetime counts are kept.
func (t *ErrorTracker) Clear() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.errors = t.errors[:0]
}

// ErrorStats provides a summary of error statistics.
type ErrorStats struct {
	// TotalErrors is the number of errors currently retained.
	TotalErrors int
	// ErrorsByCategory counts errors by category in the current retention window.
	ErrorsByCategory map[ErrorCategory]int
	// ErrorsBySeverity counts errors by severity in the current retention window.
	ErrorsBySeverity map[ErrorSeverity]int
}
