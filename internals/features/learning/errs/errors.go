// file: internals/features/learning/errs/errors.go
package errs

import (
	"errors"

	"github.com/gofiber/fiber/v2"
)

// Error is a business-rule violation with a stable machine-readable code.
// Controllers map it 1:1 to the HTTP boundary; nothing here is retried.
type Error struct {
	Code    string
	Status  int
	Message string
}

func (e *Error) Error() string { return e.Message }

const (
	CodeNotFound             = "NOT_FOUND"
	CodeInvalidOperation     = "INVALID_OPERATION"
	CodeConflict             = "CONFLICT"
	CodeResourceReferenced   = "RESOURCE_REFERENCED"
	CodeExamNotInWindow      = "EXAM_NOT_IN_WINDOW"
	CodeExamAlreadySubmitted = "EXAM_ALREADY_SUBMITTED"
	CodePermissionDenied     = "PERMISSION_DENIED"
)

func NotFound(msg string) *Error {
	return &Error{Code: CodeNotFound, Status: fiber.StatusNotFound, Message: msg}
}

func InvalidOperation(msg string) *Error {
	return &Error{Code: CodeInvalidOperation, Status: fiber.StatusUnprocessableEntity, Message: msg}
}

func Conflict(msg string) *Error {
	return &Error{Code: CodeConflict, Status: fiber.StatusConflict, Message: msg}
}

func ResourceReferenced(msg string) *Error {
	return &Error{Code: CodeResourceReferenced, Status: fiber.StatusConflict, Message: msg}
}

func ExamNotInWindow(msg string) *Error {
	return &Error{Code: CodeExamNotInWindow, Status: fiber.StatusUnprocessableEntity, Message: msg}
}

func ExamAlreadySubmitted(msg string) *Error {
	return &Error{Code: CodeExamAlreadySubmitted, Status: fiber.StatusUnprocessableEntity, Message: msg}
}

func PermissionDenied(msg string) *Error {
	return &Error{Code: CodePermissionDenied, Status: fiber.StatusForbidden, Message: msg}
}

// As unwraps err into *Error when possible.
func As(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// Is reports whether err carries the given business code.
func Is(err error, code string) bool {
	if e, ok := As(err); ok {
		return e.Code == code
	}
	return false
}
