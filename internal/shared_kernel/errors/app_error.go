package apperrors

type Type string

const (
	TypeValidation        Type = "validation"
	TypeUnauthorized      Type = "unauthorized"
	TypeForbidden         Type = "forbidden"
	TypeNotFound          Type = "not_found"
	TypeConflict          Type = "conflict"
	TypePrecondition      Type = "precondition"
	TypeResourceExhausted Type = "resource_exhausted"
	TypeInternal          Type = "internal"
)

type AppError struct {
	Type    Type           `json:"type"`
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

func (e *AppError) Error() string {
	if e == nil {
		return ""
	}

	return e.Message
}

func newAppError(errType Type, code, message string, details map[string]any) *AppError {
	return &AppError{
		Type:    errType,
		Code:    code,
		Message: message,
		Details: details,
	}
}

func NewInternal(code, message string, details map[string]any) *AppError {
	return newAppError(TypeInternal, code, message, details)
}

func NewValidation(code, message string, details map[string]any) *AppError {
	return newAppError(TypeValidation, code, message, details)
}

func NewNotFound(code, message string, details map[string]any) *AppError {
	return newAppError(TypeNotFound, code, message, details)
}

func NewConflict(code, message string, details map[string]any) *AppError {
	return newAppError(TypeConflict, code, message, details)
}

// NewUnauthorized reports a request whose principal could not be established.
func NewUnauthorized(code, message string, details map[string]any) *AppError {
	return newAppError(TypeUnauthorized, code, message, details)
}

// NewForbidden reports an established principal that may not perform the operation.
func NewForbidden(code, message string, details map[string]any) *AppError {
	return newAppError(TypeForbidden, code, message, details)
}

func NewPrecondition(code, message string, details map[string]any) *AppError {
	return newAppError(TypePrecondition, code, message, details)
}

func NewResourceExhausted(code, message string, details map[string]any) *AppError {
	return newAppError(TypeResourceExhausted, code, message, details)
}
