// Package apperr defines the error kinds surfaced to API clients and the
// fixed HTTP status/message pair each kind maps to.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind is a machine-readable error category.
type Kind string

const (
	Internal           Kind = "Internal"
	InvalidInput       Kind = "InvalidInput"
	InvalidToken       Kind = "InvalidToken"
	InvalidCredentials Kind = "InvalidCredentials"
	Forbidden          Kind = "Forbidden"
	DataNotFound       Kind = "DataNotFound"
	UsernameTaken      Kind = "UsernameTaken"

	// Reservation errors
	AlreadyJoined  Kind = "AlreadyJoined"
	NotJoined      Kind = "NotJoined"
	AlreadyFull    Kind = "AlreadyFull"
	AlreadyEnded   Kind = "AlreadyEnded"
	NotCompetitive Kind = "NotCompetitive"
	NotCasual      Kind = "NotCasual"
	InvalidScore   Kind = "InvalidScore"
	SlotTaken      Kind = "SlotTaken"

	// Social errors
	FriendExists Kind = "FriendExists"
	SelfRequest  Kind = "SelfRequest"
	InviteExists Kind = "InviteExists"
	NotPending   Kind = "NotPending"
)

type entry struct {
	status  int
	message string
}

var table = map[Kind]entry{
	Internal:           {http.StatusInternalServerError, "Internal server error."},
	InvalidInput:       {http.StatusBadRequest, "Invalid input."},
	InvalidToken:       {http.StatusUnauthorized, "Invalid token."},
	InvalidCredentials: {http.StatusUnauthorized, "Invalid username or password."},
	Forbidden:          {http.StatusForbidden, "Forbidden."},
	DataNotFound:       {http.StatusNotFound, "Data not found."},
	UsernameTaken:      {http.StatusConflict, "Username already exists."},
	AlreadyJoined:      {http.StatusConflict, "Already joined."},
	NotJoined:          {http.StatusConflict, "Not joined."},
	AlreadyFull:        {http.StatusConflict, "Reservation full."},
	AlreadyEnded:       {http.StatusConflict, "Reservation already ended."},
	NotCompetitive:     {http.StatusConflict, "Reservation is not competitive."},
	NotCasual:          {http.StatusConflict, "Competitive reservation must be scored."},
	InvalidScore:       {http.StatusBadRequest, "Invalid score."},
	SlotTaken:          {http.StatusConflict, "Schedule already reserved."},
	FriendExists:       {http.StatusConflict, "Friend request already exists."},
	SelfRequest:        {http.StatusBadRequest, "Cannot target yourself."},
	InviteExists:       {http.StatusConflict, "Invite already exists."},
	NotPending:         {http.StatusConflict, "Friend request is not pending."},
}

// Status returns the HTTP status code for the kind.
func (k Kind) Status() int {
	if e, ok := table[k]; ok {
		return e.status
	}
	return http.StatusInternalServerError
}

// Message returns the client-facing message for the kind.
func (k Kind) Message() string {
	if e, ok := table[k]; ok {
		return e.message
	}
	return table[Internal].message
}

// Error is an error tagged with a Kind. Cause is kept for logs and never
// rendered to clients.
type Error struct {
	Kind  Kind
	Cause error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Kind, e.Cause)
	}
	return string(e.Kind)
}

func (e *Error) Unwrap() error { return e.Cause }

// Is reports whether target is an *Error of the same kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

// New returns an error of the given kind.
func New(kind Kind) *Error {
	return &Error{Kind: kind}
}

// Wrap tags cause with kind.
func Wrap(kind Kind, cause error) *Error {
	return &Error{Kind: kind, Cause: cause}
}

// KindOf returns the kind of the first *Error in err's chain, or Internal.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return Internal
}

// IsKind reports whether err carries the given kind.
func IsKind(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}
