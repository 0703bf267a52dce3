package shared

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestServiceError(t *testing.T) {
	cause := errors.New("boom")
	err := NewServiceError(ErrorCategoryProcessing, "GEN_FAILED", "generation failed", "Snapshot_Service", "Generate", cause).
		WithDetails(map[string]int{"symbols": 3})

	assert.Equal(t, "[processing:GEN_FAILED] generation failed", err.Error())
	assert.ErrorIs(t, err, cause)
	assert.False(t, IsValidationError(err))
	assert.True(t, IsValidationError(fmt.Errorf("wrapped: %w",
		NewServiceError(ErrorCategoryValidation, "BAD", "bad", "svc", "op", nil))))
}

func TestWrapError(t *testing.T) {
	assert.Nil(t, WrapError(nil, ErrorCategoryProcessing, "X", "svc", "op"))

	plain := WrapError(errors.New("disk full"), ErrorCategoryProcessing, "WRITE_FAILED", "cli", "write")
	require.NotNil(t, plain)
	assert.Equal(t, "WRITE_FAILED", plain.Code)
	assert.Equal(t, "disk full", plain.Message)

	original := NewServiceError(ErrorCategoryValidation, "BAD", "bad", "svc", "op", nil)
	rewrapped := WrapError(fmt.Errorf("context: %w", original), ErrorCategoryProcessing, "OTHER", "cli", "run")
	assert.Same(t, original, rewrapped)
	assert.Equal(t, "cli", rewrapped.ServiceName)
	assert.Equal(t, ErrorCategoryValidation, rewrapped.Category)
}

func TestProcessBatchWithIsolation(t *testing.T) {
	items := []string{"a", "fail", "b", "panic", "c"}

	result := ProcessBatchWithIsolation("test", items, func(item string) (string, error) {
		switch item {
		case "fail":
			return "", errors.New("rejected")
		case "panic":
			panic("unexpected input")
		}
		return strings.ToUpper(item), nil
	})

	assert.Equal(t, []string{"A", "B", "C"}, result.SuccessfulItems)
	require.Len(t, result.FailedItems, 2)
	assert.Equal(t, "fail", result.FailedItems[0].OriginalData)
	assert.Equal(t, "panic", result.FailedItems[1].OriginalData)
	assert.Equal(t, 5, result.TotalProcessed)

	var serviceErr *ServiceError
	require.ErrorAs(t, result.FailedItems[1].Error, &serviceErr)
	assert.Equal(t, "ITEM_PANIC", serviceErr.Code)
	assert.Equal(t, ErrorCategoryProcessing, serviceErr.Category)
	assert.Contains(t, result.ErrorSummary, "3 successes and 2 failures")
}

func TestProcessBatchWithIsolationProperties(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("every item is either processed or reported, in order", prop.ForAll(
		func(items []int) bool {
			result := ProcessBatchWithIsolation("test", items, func(n int) (int, error) {
				if n%3 == 0 {
					return 0, errors.New("multiple of three")
				}
				return n * 2, nil
			})

			if len(result.SuccessfulItems)+len(result.FailedItems) != len(items) {
				return false
			}
			next := 0
			for _, n := range items {
				if n%3 == 0 {
					continue
				}
				if result.SuccessfulItems[next] != n*2 {
					return false
				}
				next++
			}
			return result.SuccessfulItems != nil
		},
		gen.SliceOf(gen.IntRange(-1000, 1000)),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}

func TestBuildBatchProcessingErrorSummary(t *testing.T) {
	sample := []error{errors.New("e1"), errors.New("e2"), errors.New("e3"), errors.New("e4")}

	summary := BuildBatchProcessingErrorSummary(1, 6, sample)
	assert.Equal(t, "batch processing completed with 1 successes and 6 failures; e1; e2; e3; and 3 additional errors", summary)
}
