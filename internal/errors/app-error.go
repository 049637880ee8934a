package app_error

import (
	"encoding/json"
	"net/http"
)

// Kind is a machine-readable failure class, stable across API versions.
type Kind string

const (
	KindInvalidArgument  Kind = "invalid_argument"
	KindUnauthorized     Kind = "unauthorized"
	KindNotFound         Kind = "not_found"
	KindContentBlocked   Kind = "content_blocked"
	KindContentWarning   Kind = "content_warning"
	KindNotAMember       Kind = "not_a_member"
	KindRoomGone         Kind = "room_gone"
	KindTransientStorage Kind = "transient_storage"
	KindInternal         Kind = "internal"
)

type AppError struct {
	Code    int    `json:"-"`
	Kind    Kind   `json:"kind"`
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
}

func (e AppError) Error() string {
	return e.Message
}

// Retryable reports whether the caller may retry the same request.
func (e AppError) Retryable() bool {
	return e.Kind == KindTransientStorage
}

func (e AppError) JSON(w http.ResponseWriter) error {
	return json.NewEncoder(w).Encode(e)
}

func NewAppError(code int, kind Kind, msg, field string) *AppError {
	return &AppError{
		Code:    code,
		Kind:    kind,
		Message: msg,
		Field:   field,
	}
}

func InvalidArgument(msg, field string) *AppError {
	return NewAppError(http.StatusBadRequest, KindInvalidArgument, msg, field)
}

func Unauthorized(msg string) *AppError {
	return NewAppError(http.StatusUnauthorized, KindUnauthorized, msg, "auth")
}

func NotFound(msg string) *AppError {
	return NewAppError(http.StatusNotFound, KindNotFound, msg, "not-found")
}

// ContentBlocked carries the guard's rejection reason back to the sender.
func ContentBlocked(msg string) *AppError {
	return NewAppError(http.StatusUnprocessableEntity, KindContentBlocked, msg, "body")
}

// ContentWarning asks the sender to confirm before the message is accepted.
func ContentWarning(msg string) *AppError {
	return NewAppError(http.StatusUnprocessableEntity, KindContentWarning, msg, "body")
}

func NotAMember(msg string) *AppError {
	return NewAppError(http.StatusForbidden, KindNotAMember, msg, "membership")
}

// RoomGone marks the race where a room disappeared between the membership
// check and the insert. Non-retryable; the client must refresh its room list.
func RoomGone(msg string) *AppError {
	return NewAppError(http.StatusGone, KindRoomGone, msg, "room")
}

func TransientStorage(msg string) *AppError {
	return NewAppError(http.StatusServiceUnavailable, KindTransientStorage, msg, "db-error")
}

func Internal(msg, field string) *AppError {
	return NewAppError(http.StatusInternalServerError, KindInternal, msg, field)
}
