package errors

import "fmt"

// ErrCode represents an error code
type ErrCode string

const (
	ErrCodeInvalidQuarter    ErrCode = "INVALID_QUARTER"
	ErrCodeInvalidDateFormat ErrCode = "INVALID_DATE_FORMAT"
	ErrCodeInvalidRange      ErrCode = "INVALID_RANGE"
	ErrCodeMalformedRecord   ErrCode = "MALFORMED_RECORD"
	ErrCodeDataFetch         ErrCode = "DATA_FETCH_ERROR"
	ErrCodeNotFound          ErrCode = "NOT_FOUND"
	ErrCodeUnauthorized      ErrCode = "UNAUTHORIZED"
	ErrCodeRateLimited       ErrCode = "RATE_LIMITED"
	ErrCodeInternal          ErrCode = "INTERNAL_ERROR"
	ErrCodeBadRequest        ErrCode = "BAD_REQUEST"
)

// AppError represents an application error
type AppError struct {
	Code    ErrCode
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (%v)", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// NewInvalidQuarterError creates an error for a quarter outside 1..4
func NewInvalidQuarterError(quarter int) *AppError {
	return &AppError{
		Code:    ErrCodeInvalidQuarter,
		Message: fmt.Sprintf("quarter must be 1-4, got %d", quarter),
	}
}

// NewInvalidDateFormatError creates an error for a date not in YYYY-MM-DD form
func NewInvalidDateFormatError(value string, err error) *AppError {
	return &AppError{
		Code:    ErrCodeInvalidDateFormat,
		Message: fmt.Sprintf("date %q is not in YYYY-MM-DD format", value),
		Err:     err,
	}
}

// NewInvalidRangeError creates an error for a window whose start is after its end
func NewInvalidRangeError(start, end string) *AppError {
	return &AppError{
		Code:    ErrCodeInvalidRange,
		Message: fmt.Sprintf("start date %s is after end date %s", start, end),
	}
}

// NewMalformedRecordError creates a per-record validation error
func NewMalformedRecordError(sourceID, reason string) *AppError {
	return &AppError{
		Code:    ErrCodeMalformedRecord,
		Message: fmt.Sprintf("record %s: %s", sourceID, reason),
	}
}

// NewDataFetchError creates an error for a failed upstream fetch
func NewDataFetchError(source string, err error) *AppError {
	return &AppError{
		Code:    ErrCodeDataFetch,
		Message: fmt.Sprintf("failed to fetch data from %s", source),
		Err:     err,
	}
}

// NewNotFoundError creates a new not found error
func NewNotFoundError(resource string) *AppError {
	return &AppError{
		Code:    ErrCodeNotFound,
		Message: fmt.Sprintf("%s not found", resource),
	}
}

// NewUnauthorizedError creates a new unauthorized error
func NewUnauthorizedError(message string) *AppError {
	return &AppError{
		Code:    ErrCodeUnauthorized,
		Message: message,
	}
}

// NewRateLimitedError creates a new rate limited error
func NewRateLimitedError(message string) *AppError {
	return &AppError{
		Code:    ErrCodeRateLimited,
		Message: message,
	}
}

// NewInternalError creates a new internal error
func NewInternalError(message string, err error) *AppError {
	return &AppError{
		Code:    ErrCodeInternal,
		Message: message,
		Err:     err,
	}
}

// NewBadRequestError creates a new bad request error
func NewBadRequestError(message string) *AppError {
	return &AppError{
		Code:    ErrCodeBadRequest,
		Message: message,
	}
}

// IsCode checks whether err is an AppError carrying the given code
func IsCode(err error, code ErrCode) bool {
	if appErr, ok := err.(*AppError); ok {
		return appErr.Code == code
	}
	return false
}

// IsMalformedRecord checks if the error is a per-record validation error
func IsMalformedRecord(err error) bool {
	return IsCode(err, ErrCodeMalformedRecord)
}

// IsDataFetch checks if the error is an upstream fetch error
func IsDataFetch(err error) bool {
	return IsCode(err, ErrCodeDataFetch)
}

// IsNotFound checks if the error is a not found error
func IsNotFound(err error) bool {
	return IsCode(err, ErrCodeNotFound)
}

// IsRateLimited checks if the error is a rate limited error
func IsRateLimited(err error) bool {
	return IsCode(err, ErrCodeRateLimited)
}
