package shared

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

// ErrorCategory represents different types of errors that can occur
type ErrorCategory string

const (
	ErrorCategoryConfiguration ErrorCategory = "configuration"
	ErrorCategoryValidation    ErrorCategory = "validation"
	ErrorCategoryProcessing    ErrorCategory = "processing"
)

// ServiceError represents a standardized error with additional context
type ServiceError struct {
	Category    ErrorCategory `json:"category"`
	Code        string        `json:"code"`
	Message     string        `json:"message"`
	Details     interface{}   `json:"details,omitempty"`
	Timestamp   time.Time     `json:"timestamp"`
	ServiceName string        `json:"service_name"`
	Operation   string        `json:"operation"`
	Cause       error         `json:"-"` // Original error, not serialized
}

// Error implements the error interface
func (e *ServiceError) Error() string {
	return fmt.Sprintf("[%s:%s] %s", e.Category, e.Code, e.Message)
}

// Unwrap returns the underlying error
func (e *ServiceError) Unwrap() error {
	return e.Cause
}

// NewServiceError creates a new service error
func NewServiceError(category ErrorCategory, code, message, serviceName, operation string, cause error) *ServiceError {
	return &ServiceError{
		Category:    category,
		Code:        code,
		Message:     message,
		Timestamp:   time.Now(),
		ServiceName: serviceName,
		Operation:   operation,
		Cause:       cause,
	}
}

// WithDetails adds additional details to the error
func (e *ServiceError) WithDetails(details interface{}) *ServiceError {
	e.Details = details
	return e
}

// LogError logs the error with structured fields
func (e *ServiceError) LogError() {
	logrus.WithFields(logrus.Fields{
		"error_category":   e.Category,
		"error_code":       e.Code,
		"error_message":    e.Message,
		"service_name":     e.ServiceName,
		"operation":        e.Operation,
		"details":          e.Details,
		"underlying_error": e.Cause,
	}).Warn("Service error occurred")
}

// WrapError wraps an existing error with service error context
func WrapError(err error, category ErrorCategory, code, serviceName, operation string) *ServiceError {
	if err == nil {
		return nil
	}

	// If it's already a ServiceError, just update the context
	var serviceErr *ServiceError
	if errors.As(err, &serviceErr) {
		serviceErr.ServiceName = serviceName
		serviceErr.Operation = operation
		return serviceErr
	}

	return NewServiceError(category, code, err.Error(), serviceName, operation, err)
}

// IsValidationError reports whether err carries the validation category
func IsValidationError(err error) bool {
	var serviceErr *ServiceError
	return errors.As(err, &serviceErr) && serviceErr.Category == ErrorCategoryValidation
}

// FailedItem represents an item that failed processing
type FailedItem[T any] struct {
	OriginalData T         `json:"original_data"`
	Error        error     `json:"error"`
	FailureTime  time.Time `json:"failure_time"`
}

// BatchProcessingResult represents the result of batch processing with error isolation
type BatchProcessingResult[T, R any] struct {
	SuccessfulItems []R             `json:"successful_items"`
	FailedItems     []FailedItem[T] `json:"failed_items"`
	TotalProcessed  int             `json:"total_processed"`
	ProcessingTime  time.Duration   `json:"processing_time"`
	ErrorSummary    string          `json:"error_summary,omitempty"`
}

// ProcessBatchWithIsolation runs processor over every item in order. A failing or
// panicking item is recorded and skipped; the remaining items are still processed.
func ProcessBatchWithIsolation[T, R any](serviceName string, items []T, processor func(T) (R, error)) BatchProcessingResult[T, R] {
	startTime := time.Now()
	successfulItems := make([]R, 0, len(items))
	var failedItems []FailedItem[T]
	var sampleErrors []error

	for _, item := range items {
		result, err := runIsolated(serviceName, item, processor)
		if err != nil {
			failedItems = append(failedItems, FailedItem[T]{
				OriginalData: item,
				Error:        err,
				FailureTime:  time.Now(),
			})

			// Collect sample errors for summary (limit to prevent memory issues)
			if len(sampleErrors) < 10 {
				sampleErrors = append(sampleErrors, err)
			}
			continue
		}
		successfulItems = append(successfulItems, result)
	}

	errorSummary := ""
	if len(failedItems) > 0 {
		errorSummary = BuildBatchProcessingErrorSummary(len(successfulItems), len(failedItems), sampleErrors)
	}

	return BatchProcessingResult[T, R]{
		SuccessfulItems: successfulItems,
		FailedItems:     failedItems,
		TotalProcessed:  len(items),
		ProcessingTime:  time.Since(startTime),
		ErrorSummary:    errorSummary,
	}
}

func runIsolated[T, R any](serviceName string, item T, processor func(T) (R, error)) (result R, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = NewServiceError(
				ErrorCategoryProcessing,
				"ITEM_PANIC",
				fmt.Sprintf("recovered while processing %v: %v", item, r),
				serviceName,
				"process_item",
				nil,
			)
		}
	}()
	return processor(item)
}

// BuildBatchProcessingErrorSummary creates a comprehensive error summary for batch processing results
func BuildBatchProcessingErrorSummary(successCount, totalErrorCount int, sampleErrors []error) string {
	var summaryBuilder strings.Builder
	summaryBuilder.WriteString(fmt.Sprintf("batch processing completed with %d successes and %d failures", successCount, totalErrorCount))

	// Include sample errors for debugging (limited to prevent memory issues)
	sampleSize := len(sampleErrors)
	if sampleSize > 3 {
		sampleSize = 3
	}

	for i := 0; i < sampleSize; i++ {
		summaryBuilder.WriteString(fmt.Sprintf("; %s", sampleErrors[i].Error()))
	}

	if totalErrorCount > sampleSize {
		summaryBuilder.WriteString(fmt.Sprintf("; and %d additional errors", totalErrorCount-sampleSize))
	}

	return summaryBuilder.String()
}
