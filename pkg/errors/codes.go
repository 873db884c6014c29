package errors

import (
	"net/http"
	"strings"
)

// ErrorCode is a string representation of a specific error condition.
// Codes are namespaced by module prefix: "<MODULE>_<NNN>".
type ErrorCode string

func (c ErrorCode) String() string {
	return string(c)
}

// Common Error Codes
const (
	ErrCodeInternal           ErrorCode = "COMMON_001"
	ErrCodeBadRequest         ErrorCode = "COMMON_002"
	ErrCodeUnauthorized       ErrorCode = "COMMON_003"
	ErrCodeForbidden          ErrorCode = "COMMON_004"
	ErrCodeNotFound           ErrorCode = "COMMON_005"
	ErrCodeConflict           ErrorCode = "COMMON_006"
	ErrCodeTooManyRequests    ErrorCode = "COMMON_007"
	ErrCodeServiceUnavailable ErrorCode = "COMMON_008"
	ErrCodeTimeout            ErrorCode = "COMMON_009"
	ErrCodeValidation         ErrorCode = "COMMON_010"
	ErrCodeSerialization      ErrorCode = "COMMON_011"
	ErrCodeDatabaseError      ErrorCode = "COMMON_012"
	ErrCodeCacheError         ErrorCode = "COMMON_013"
	ErrCodeExternalService    ErrorCode = "COMMON_014"
	ErrCodeFeatureDisabled    ErrorCode = "COMMON_015"
	ErrCodeNotImplemented     ErrorCode = "COMMON_016"
	ErrCodeCacheMiss          ErrorCode = "COMMON_017"
	ErrCodeMessageQueue       ErrorCode = "COMMON_018"
)

// Aliases used across layers.
const (
	CodeUnknown        = ErrorCode("UNKNOWN")
	CodeOK             = ErrorCode("OK")
	CodeInternal       = ErrCodeInternal
	CodeInvalidParam   = ErrCodeBadRequest
	CodeNotFound       = ErrCodeNotFound
	CodeConflict       = ErrCodeConflict
	CodeRateLimit      = ErrCodeTooManyRequests
	CodeNotImplemented = ErrCodeNotImplemented
	CodeDatabaseError  = ErrCodeDatabaseError
	CodeCacheError     = ErrCodeCacheError
)

// Rating Module Error Codes. These are fatal to a premium calculation.
const (
	ErrCodeRateTableNotFound          ErrorCode = "RATE_001"
	ErrCodeInvalidCoverageSelection   ErrorCode = "RATE_002"
	ErrCodeDiscountLimitExceeded      ErrorCode = "RATE_003"
	ErrCodeInvalidRatingConfiguration ErrorCode = "RATE_004"
)

// Degradation codes. These never fail a calculation; they are attached to the
// result as warnings.
const (
	ErrCodeExternalSignalDegraded ErrorCode = "SIG_001"
	ErrCodeAIScoringUnavailable   ErrorCode = "AI_001"
	ErrCodeComplianceViolation    ErrorCode = "CMP_001"
	ErrCodeTerritoryUnknown       ErrorCode = "TER_001"
)

// ErrorCodeHTTPStatus maps ErrorCodes to HTTP status codes.
var ErrorCodeHTTPStatus = map[ErrorCode]int{
	ErrCodeInternal:           http.StatusInternalServerError,
	ErrCodeBadRequest:         http.StatusBadRequest,
	ErrCodeUnauthorized:       http.StatusUnauthorized,
	ErrCodeForbidden:          http.StatusForbidden,
	ErrCodeNotFound:           http.StatusNotFound,
	ErrCodeConflict:           http.StatusConflict,
	ErrCodeTooManyRequests:    http.StatusTooManyRequests,
	ErrCodeServiceUnavailable: http.StatusServiceUnavailable,
	ErrCodeTimeout:            http.StatusGatewayTimeout,
	ErrCodeValidation:         http.StatusUnprocessableEntity,
	ErrCodeSerialization:      http.StatusInternalServerError,
	ErrCodeDatabaseError:      http.StatusInternalServerError,
	ErrCodeCacheError:         http.StatusInternalServerError,
	ErrCodeExternalService:    http.StatusBadGateway,
	ErrCodeFeatureDisabled:    http.StatusForbidden,
	ErrCodeNotImplemented:     http.StatusNotImplemented,
	ErrCodeCacheMiss:          http.StatusNotFound,
	ErrCodeMessageQueue:       http.StatusInternalServerError,

	ErrCodeRateTableNotFound:          http.StatusNotFound,
	ErrCodeInvalidCoverageSelection:   http.StatusUnprocessableEntity,
	ErrCodeDiscountLimitExceeded:      http.StatusUnprocessableEntity,
	ErrCodeInvalidRatingConfiguration: http.StatusInternalServerError,

	ErrCodeExternalSignalDegraded: http.StatusOK,
	ErrCodeAIScoringUnavailable:   http.StatusOK,
	ErrCodeComplianceViolation:    http.StatusOK,
	ErrCodeTerritoryUnknown:       http.StatusOK,
}

// ErrorCodeMessage maps ErrorCodes to default messages.
var ErrorCodeMessage = map[ErrorCode]string{
	ErrCodeInternal:           "internal server error",
	ErrCodeBadRequest:         "bad request",
	ErrCodeUnauthorized:       "unauthorized",
	ErrCodeForbidden:          "forbidden",
	ErrCodeNotFound:           "resource not found",
	ErrCodeConflict:           "resource conflict",
	ErrCodeTooManyRequests:    "too many requests",
	ErrCodeServiceUnavailable: "service unavailable",
	ErrCodeTimeout:            "request timeout",
	ErrCodeValidation:         "validation failed",
	ErrCodeSerialization:      "serialization failed",
	ErrCodeDatabaseError:      "database error",
	ErrCodeCacheError:         "cache error",
	ErrCodeExternalService:    "external service error",
	ErrCodeFeatureDisabled:    "feature disabled",
	ErrCodeNotImplemented:     "not implemented",
	ErrCodeCacheMiss:          "cache miss",
	ErrCodeMessageQueue:       "message queue error",

	ErrCodeRateTableNotFound:          "no active rate table for scope",
	ErrCodeInvalidCoverageSelection:   "invalid coverage selection",
	ErrCodeDiscountLimitExceeded:      "discount limit exceeded",
	ErrCodeInvalidRatingConfiguration: "invalid rating configuration",

	ErrCodeExternalSignalDegraded: "external risk signal degraded",
	ErrCodeAIScoringUnavailable:   "AI risk scoring unavailable",
	ErrCodeComplianceViolation:    "compliance violation",
	ErrCodeTerritoryUnknown:       "territory unknown, statewide average applied",
}

// fatalRatingCodes are the codes that abort a premium calculation.
var fatalRatingCodes = map[ErrorCode]bool{
	ErrCodeRateTableNotFound:          true,
	ErrCodeInvalidCoverageSelection:   true,
	ErrCodeDiscountLimitExceeded:      true,
	ErrCodeInvalidRatingConfiguration: true,
}

// HTTPStatusForCode returns the HTTP status code for an ErrorCode.
func HTTPStatusForCode(code ErrorCode) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// DefaultMessageForCode returns the default message for an ErrorCode.
func DefaultMessageForCode(code ErrorCode) string {
	if msg, ok := ErrorCodeMessage[code]; ok {
		return msg
	}
	return "unknown error"
}

// IsClientError returns true if the ErrorCode corresponds to a 4xx HTTP status.
func IsClientError(code ErrorCode) bool {
	status := HTTPStatusForCode(code)
	return status >= 400 && status < 500
}

// IsServerError returns true if the ErrorCode corresponds to a 5xx HTTP status.
func IsServerError(code ErrorCode) bool {
	status := HTTPStatusForCode(code)
	return status >= 500 && status < 600
}

// IsFatalRatingCode reports whether code aborts a premium calculation.
func IsFatalRatingCode(code ErrorCode) bool {
	return fatalRatingCodes[code]
}

// ModuleForCode returns the module prefix of an ErrorCode.
func ModuleForCode(code ErrorCode) string {
	parts := strings.Split(string(code), "_")
	if len(parts) > 0 && parts[0] != "" {
		return parts[0]
	}
	return "UNKNOWN"
}

//Personal.AI order the ending
