package errors

import (
	"fmt"
	"strings"
)

// Errors carry a code plus params; messages are short English text for logs
// and API clients.

// Generic codes.
const (
	CodeValidationFailed    = "VALIDATION_FAILED"
	CodeMissingFields       = "MISSING_MANDATORY_FIELDS"
	CodeInvalidID           = "INVALID_ID"
	CodeInvalidPartition    = "INVALID_PARTITION"
	CodeInvalidRequestField = "INVALID_REQUEST_FIELD"
	CodeReferenceNotFound   = "REFERENCE_NOT_FOUND"
	CodeDuplicate           = "DUPLICATE_ENTRY"
	CodeReferenceInUse      = "REFERENCE_IN_USE"
	CodePersistence         = "PERSISTENCE_FAILURE"
	CodeInternal            = "INTERNAL_ERROR"
)

// Entity codes.
const (
	CodeTeacherInUse         = "TEACHER_IN_USE"
	CodeStudentNotInGroup    = "STUDENT_NOT_IN_GROUP"
	CodeDuplicateAttendance  = "DUPLICATE_ATTENDANCE"
	CodeUsernameTaken        = "USERNAME_TAKEN"
	CodeLastAccount          = "LAST_ACCOUNT"
	CodeAttachmentTooLarge   = "ATTACHMENT_TOO_LARGE"
	CodeUnsupportedOwnerKind = "UNSUPPORTED_OWNER_KIND"
)

// Auth error codes.
const (
	CodeAuthFailed   = "AUTH_FAILED"
	CodeTokenExpired = "TOKEN_EXPIRED"
	CodeTokenInvalid = "TOKEN_INVALID"
)

// Field error codes.
const (
	FieldRequired    = "required"
	FieldInvalid     = "invalid"
	FieldRefNotFound = "ref_not_found"
)

// NotFoundCode returns the code for a missing entity, e.g. CUSTOMER_NOT_FOUND.
func NotFoundCode(entity string) string {
	return strings.ToUpper(entity) + "_NOT_FOUND"
}

// ErrEntityNotFound reports that entity id does not exist in the caller's
// partition. The message is the same whether or not the id exists elsewhere.
func ErrEntityNotFound(entity string, id, partition int64) *AppError {
	return NotFound(NotFoundCode(entity), strings.ToLower(entity)+" not found").
		WithParams(map[string]interface{}{"entity": entity, "id": id, "partition": partition})
}

// ErrMissingFields reports unset mandatory fields.
func ErrMissingFields(entity string, names []string) *AppError {
	fe := make([]FieldError, 0, len(names))
	for _, n := range names {
		fe = append(fe, FieldError{Field: n, Code: FieldRequired, Message: n + " is required"})
	}
	return Validation(CodeMissingFields,
		fmt.Sprintf("%s is missing mandatory fields: %s", strings.ToLower(entity), strings.Join(names, ", "))).
		WithParams(map[string]interface{}{"entity": entity}).
		WithFieldErrors(fe)
}

// ErrInvalidID reports a non-positive identifier.
func ErrInvalidID(entity string, id int64) *AppError {
	return Validation(CodeInvalidID, fmt.Sprintf("invalid %s id %d", strings.ToLower(entity), id)).
		WithParams(map[string]interface{}{"entity": entity, "id": id}).
		WithFieldErrors([]FieldError{{Field: "id", Code: FieldInvalid, Message: "id must be positive"}})
}

// ErrReferenceNotFound reports a foreign id that does not exist within the
// caller's partition.
func ErrReferenceNotFound(field, entity string, id int64) *AppError {
	return Validation(CodeReferenceNotFound, fmt.Sprintf("%s %d does not exist", strings.ToLower(entity), id)).
		WithParams(map[string]interface{}{"entity": entity, "id": id}).
		WithFieldErrors([]FieldError{{Field: field, Code: FieldRefNotFound, Message: field + " refers to a missing " + strings.ToLower(entity)}})
}

// ErrInvalidRequestField reports a malformed request field.
func ErrInvalidRequestField(field, message string) *AppError {
	return Validation(CodeInvalidRequestField, message).
		WithFieldErrors([]FieldError{{Field: field, Code: FieldInvalid, Message: message}})
}
