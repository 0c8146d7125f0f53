package formkit

import (
	"fmt"
)

// ErrorType represents the category of error
type ErrorType string

const (
	ErrorTypeParse       ErrorType = "parse"
	ErrorTypeBind        ErrorType = "bind"
	ErrorTypeValue       ErrorType = "value"
	ErrorTypePersistence ErrorType = "persistence"
	ErrorTypeValidation  ErrorType = "validation"
	ErrorTypeNotFound    ErrorType = "not_found"
	ErrorTypeState       ErrorType = "state"
	ErrorTypeInternal    ErrorType = "internal"
)

// Error codes consolidated across the engine
const (
	// Form document errors
	ErrCodeFormParseFailed  = "FORM_PARSE_FAILED"
	ErrCodeFormSpecInvalid  = "FORM_SPEC_INVALID"
	ErrCodeFormSpecNotFound = "FORM_SPEC_NOT_FOUND"

	// Element binding errors
	ErrCodeElementBindFailed   = "ELEMENT_BIND_FAILED"
	ErrCodeRequiredAttrMissing = "REQUIRED_ATTR_MISSING"
	ErrCodeUnknownElementType  = "UNKNOWN_ELEMENT_TYPE"
	ErrCodeFieldNotInSchema    = "FIELD_NOT_IN_SCHEMA"
	ErrCodeChoiceListEmpty     = "CHOICE_LIST_EMPTY"
	ErrCodeLookupTableNotFound = "LOOKUP_TABLE_NOT_FOUND"
	ErrCodeLocationUnavailable = "LOCATION_UNAVAILABLE"
	ErrCodeGeometryUnavailable = "GEOMETRY_UNAVAILABLE"

	// Value errors
	ErrCodeValueInvalid     = "VALUE_INVALID"
	ErrCodeTypeMismatch     = "TYPE_MISMATCH"
	ErrCodeConversionFailed = "CONVERSION_FAILED"
	ErrCodeInvalidFormat    = "INVALID_FORMAT"

	// Persistence errors
	ErrCodeInsertFailed     = "INSERT_FAILED"
	ErrCodeUpdateFailed     = "UPDATE_FAILED"
	ErrCodeFeatureNotFound  = "FEATURE_NOT_FOUND"
	ErrCodeAttachmentFailed = "ATTACHMENT_FAILED"
	ErrCodeCursorFailed     = "CURSOR_FAILED"
	ErrCodePreferenceFailed = "PREFERENCE_FAILED"
	ErrCodeNewRowIDFailed   = "NEW_ROW_ID_FAILED"

	// Schema and session errors
	ErrCodeLayerNotFound  = "LAYER_NOT_FOUND"
	ErrCodeSchemaInvalid  = "SCHEMA_INVALID"
	ErrCodeSessionClosed  = "SESSION_CLOSED"
	ErrCodeInternalError  = "INTERNAL_ERROR"
	ErrCodeConfigRequired = "CONFIG_REQUIRED"
)

// FormError represents unified errors from the form engine
type FormError struct {
	Type    ErrorType      `json:"type"`
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Layer   string         `json:"layer,omitempty"`
	Field   string         `json:"field,omitempty"`
	Element string         `json:"element,omitempty"`
	Details map[string]any `json:"details,omitempty"`
	Cause   error          `json:"-"`
}

func (e *FormError) Error() string {
	switch {
	case e.Element != "" && e.Field != "":
		return fmt.Sprintf("[%s:%s] element '%s' field '%s': %s", e.Type, e.Code, e.Element, e.Field, e.Message)
	case e.Element != "":
		return fmt.Sprintf("[%s:%s] element '%s': %s", e.Type, e.Code, e.Element, e.Message)
	case e.Field != "":
		return fmt.Sprintf("[%s:%s] field '%s': %s", e.Type, e.Code, e.Field, e.Message)
	}
	return fmt.Sprintf("[%s:%s] %s", e.Type, e.Code, e.Message)
}

func (e *FormError) Unwrap() error {
	return e.Cause
}

// WithCause adds a cause to a FormError
func (e *FormError) WithCause(cause error) *FormError {
	e.Cause = cause
	return e
}

// WithField adds field context to a FormError
func (e *FormError) WithField(field string) *FormError {
	e.Field = field
	return e
}

// WithElement adds element-type context to a FormError
func (e *FormError) WithElement(elementType string) *FormError {
	e.Element = elementType
	return e
}

// WithLayer adds layer context to a FormError
func (e *FormError) WithLayer(layer string) *FormError {
	e.Layer = layer
	return e
}

// WithDetail adds a single detail to a FormError
func (e *FormError) WithDetail(key string, value any) *FormError {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

// ============================================================================
// FormError Constructors
// ============================================================================

// NewFormError creates a new FormError
func NewFormError(errorType ErrorType, code, message string) *FormError {
	return &FormError{
		Type:    errorType,
		Code:    code,
		Message: message,
		Details: make(map[string]any),
	}
}

// NewFormParseError creates an error for a malformed form document.
// Fatal to the whole form render.
func NewFormParseError(message string) *FormError {
	return NewFormError(ErrorTypeParse, ErrCodeFormParseFailed, message)
}

// NewElementBindError creates an error for a single element that failed to
// bind. Recovered locally by skipping that element.
func NewElementBindError(elementType, message string) *FormError {
	return NewFormError(ErrorTypeBind, ErrCodeElementBindFailed, message).WithElement(elementType)
}

// NewRequiredAttrError creates an error for a missing required attribute.
func NewRequiredAttrError(elementType, attr string) *FormError {
	return NewFormError(ErrorTypeBind, ErrCodeRequiredAttrMissing,
		fmt.Sprintf("required attribute '%s' missing", attr)).WithElement(elementType)
}

// NewValueError creates a soft validation error for an unusable control value.
func NewValueError(field, message string) *FormError {
	return NewFormError(ErrorTypeValue, ErrCodeValueInvalid, message).WithField(field)
}

// NewConversionError creates a typed-value conversion error.
func NewConversionError(field, message string) *FormError {
	return NewFormError(ErrorTypeValue, ErrCodeConversionFailed, message).WithField(field)
}

// NewPersistenceError creates an insert/update/attachment write error.
// Recovered by aborting the save and reverting the session to ready.
func NewPersistenceError(code, message string, cause error) *FormError {
	return NewFormError(ErrorTypePersistence, code, message).WithCause(cause)
}

// NewFeatureNotFoundError creates a feature lookup error.
func NewFeatureNotFoundError(layer, id string) *FormError {
	return NewFormError(ErrorTypeNotFound, ErrCodeFeatureNotFound,
		fmt.Sprintf("feature '%s' not found", id)).WithLayer(layer)
}

// NewLayerNotFoundError creates a layer lookup error.
func NewLayerNotFoundError(layer string) *FormError {
	return NewFormError(ErrorTypeNotFound, ErrCodeLayerNotFound,
		fmt.Sprintf("layer '%s' not found", layer)).WithLayer(layer)
}

// NewSessionStateError creates an error for an operation invalid in the
// session's current state.
func NewSessionStateError(message string) *FormError {
	return NewFormError(ErrorTypeState, ErrCodeSessionClosed, message)
}

// NewInternalError creates an internal error
func NewInternalError(message string, cause error) *FormError {
	return NewFormError(ErrorTypeInternal, ErrCodeInternalError, message).WithCause(cause)
}

// ============================================================================
// Error checking utilities
// ============================================================================

// IsFormParseError checks if an error aborts the whole form render
func IsFormParseError(err error) bool {
	if fe, ok := err.(*FormError); ok {
		return fe.Type == ErrorTypeParse
	}
	return false
}

// IsElementBindError checks if an error is recoverable by skipping one element
func IsElementBindError(err error) bool {
	if fe, ok := err.(*FormError); ok {
		return fe.Type == ErrorTypeBind
	}
	return false
}

// IsValueError checks if an error is a soft value-validation error
func IsValueError(err error) bool {
	if fe, ok := err.(*FormError); ok {
		return fe.Type == ErrorTypeValue
	}
	return false
}

// IsPersistenceError checks if an error is a retryable persistence error
func IsPersistenceError(err error) bool {
	if fe, ok := err.(*FormError); ok {
		return fe.Type == ErrorTypePersistence
	}
	return false
}

// IsNotFoundError checks if an error is a missing feature/layer error
func IsNotFoundError(err error) bool {
	if fe, ok := err.(*FormError); ok {
		return fe.Type == ErrorTypeNotFound
	}
	return false
}
