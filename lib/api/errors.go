package api

import "fmt"

// ErrorKind classifies a failed remote call so callers can react without
// parsing status codes.
type ErrorKind string

const (
	// KindNetwork means no response reached us at all.
	KindNetwork ErrorKind = "network"
	// KindClient covers 4xx responses other than 401.
	KindClient ErrorKind = "client"
	// KindUnauthorized is a 401. The client does not clear the session on
	// its own; the host application decides what to do with these.
	KindUnauthorized ErrorKind = "unauthorized"
	// KindServer covers 5xx responses.
	KindServer ErrorKind = "server"
)

// RemoteError is the typed failure for every remote call. Status is zero for
// network errors.
type RemoteError struct {
	Kind   ErrorKind
	Status int
	Detail string
	cause  error
}

func (e *RemoteError) Error() string {
	switch {
	case e.Kind == KindNetwork && e.cause != nil:
		return fmt.Sprintf("remote call failed: %v", e.cause)
	case e.Detail != "":
		return fmt.Sprintf("remote call failed: %d %s", e.Status, e.Detail)
	default:
		return fmt.Sprintf("remote call failed: status %d", e.Status)
	}
}

func (e *RemoteError) Unwrap() error { return e.cause }

// LoginDenied carries the field-specific messages a failed login returns, so
// the two input fields can be annotated independently.
type LoginDenied struct {
	Message       string `json:"error"`
	UsernameError string `json:"error_username"`
	PasswordError string `json:"error_password"`
}

func (e *LoginDenied) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return "login denied"
}
