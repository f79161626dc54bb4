package pdf

import "fmt"

// ProcessorError represents errors that can occur during PDF processing
type ProcessorError struct {
	Op      string
	Path    string
	Page    int
	Err     error
	Code    string
	Message string
}

func (e *ProcessorError) Error() string {
	if e.Page > 0 {
		return fmt.Sprintf("pdf.%s %s page %d: %s", e.Op, e.Path, e.Page, e.Message)
	}
	return fmt.Sprintf("pdf.%s %s: %s", e.Op, e.Path, e.Message)
}

func (e *ProcessorError) Unwrap() error {
	return e.Err
}

// Common error codes
const (
	ErrCodeOpenFailed   = "OpenFailed"
	ErrCodeRenderFailed = "RenderFailed"
	ErrCodeImageWrite   = "ImageWrite"
	ErrCodeTableWrite   = "TableWrite"
	ErrCodeExhausted    = "Exhausted"
	ErrCodeClosed       = "Closed"
)

func newProcessorError(op, path string, page int, err error, code, message string) *ProcessorError {
	return &ProcessorError{
		Op:      op,
		Path:    path,
		Page:    page,
		Err:     err,
		Code:    code,
		Message: message,
	}
}
