package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrValidation marks malformed source records (missing title and the like).
	ErrValidation = errors.New("validation error")
	// ErrExternalAPI marks failures talking to an external catalog.
	ErrExternalAPI = errors.New("external api error")
	// ErrStore marks persistent store read or write failures.
	ErrStore = errors.New("store error")
	// ErrNotFound marks lookups for records that do not exist.
	ErrNotFound = errors.New("not found")
	// ErrConfiguration marks invalid or incomplete configuration.
	ErrConfiguration = errors.New("configuration error")
)

// Wrap builds an error message that includes component context while tagging
// it with the provided marker for later classification. The marker should be
// one of the exported sentinel errors above.
func Wrap(marker error, component, operation, message string, err error) error {
	detail := buildDetail(component, operation, message)
	if marker == nil {
		marker = ErrStore
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// IsRecordFailure reports whether err should be counted against a single
// record in a batch rather than aborting the whole run. Every error in the
// pipeline core falls in this category; the distinction exists for callers
// that add their own fatal conditions on top.
func IsRecordFailure(err error) bool {
	return errors.Is(err, ErrValidation) ||
		errors.Is(err, ErrExternalAPI) ||
		errors.Is(err, ErrStore) ||
		errors.Is(err, ErrNotFound)
}

func buildDetail(component, operation, message string) string {
	parts := make([]string, 0, 3)
	if component = strings.TrimSpace(component); component != "" {
		parts = append(parts, component)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}
