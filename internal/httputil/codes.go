package httputil

import "github.com/redmonkez12/bookings-api/internal/apperror"

// Machine-readable error codes carried in ErrorResponse.Code.
const (
	CodeInvalidRequestBody = "INVALID_REQUEST_BODY"
	CodeValidation         = "VALIDATION_ERROR"
	CodeUnauthorized       = "UNAUTHORIZED"
	CodeMissingAuth        = "MISSING_AUTH"
	CodeInvalidSession     = "INVALID_SESSION"
	CodeDuplicateResource  = "DUPLICATE_RESOURCE"
	CodeNotFound           = "NOT_FOUND"
	CodeTooManyRequests    = "TOO_MANY_REQUESTS"
	CodeExternalService    = "EXTERNAL_SERVICE_ERROR"
	CodeInternalError      = "INTERNAL_ERROR"
)

// CodeForKind returns the default code for an error kind.
func CodeForKind(kind apperror.Kind) string {
	switch kind {
	case apperror.KindValidation:
		return CodeValidation
	case apperror.KindAuthentication:
		return CodeUnauthorized
	case apperror.KindDuplicate:
		return CodeDuplicateResource
	case apperror.KindNotFound:
		return CodeNotFound
	case apperror.KindExternal:
		return CodeExternalService
	default:
		return CodeInternalError
	}
}
