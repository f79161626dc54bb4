package catalog

import "fmt"

// CatalogError represents errors that can occur during catalog operations
type CatalogError struct {
	Op      string
	RunID   string
	Err     error
	Code    string
	Message string
}

func (e *CatalogError) Error() string {
	if e.RunID == "" {
		return fmt.Sprintf("catalog.%s: %s", e.Op, e.Message)
	}
	return fmt.Sprintf("catalog.%s %s: %s", e.Op, e.RunID, e.Message)
}

func (e *CatalogError) Unwrap() error {
	return e.Err
}

// Common error codes
const (
	ErrCodeNotFound = "NotFound"
	ErrCodeConflict = "Conflict"
	ErrCodeInternal = "Internal"
)

// NewCatalogError creates a new CatalogError
func NewCatalogError(op, runID string, err error, code, message string) *CatalogError {
	return &CatalogError{
		Op:      op,
		RunID:   runID,
		Err:     err,
		Code:    code,
		Message: message,
	}
}
