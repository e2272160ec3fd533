// Package errors provides centralized error definitions for the application.
// Errors are organized by domain to avoid duplication and provide consistent naming.
//
// Naming conventions:
//   - Exported errors (Err*): Use for errors that callers need to check with errors.Is
//   - All sentinel errors should be defined as variables, not inline errors.New calls
//   - Use fmt.Errorf with %w to wrap sentinel errors with context
package errors

import "errors"

// Remote session errors.
var (
	// ErrNotReady indicates the WhatsApp Web session has not finished loading.
	ErrNotReady = errors.New("session not ready")

	// ErrBrowserGone indicates the browser connection was lost.
	ErrBrowserGone = errors.New("browser connection lost")

	// ErrChatUnavailable indicates a chat could not be opened on the remote.
	ErrChatUnavailable = errors.New("chat unavailable")
)

// Group selection errors.
var (
	// ErrGroupNotFound indicates the requested group is not in the discovered list.
	ErrGroupNotFound = errors.New("group not found")

	// ErrNoGroupsSelected indicates a run was requested without any groups.
	ErrNoGroupsSelected = errors.New("no groups selected")
)

// Message identifier errors.
var (
	// ErrMessageIDFormat indicates a composite message id did not have four parts.
	ErrMessageIDFormat = errors.New("invalid message id format")

	// ErrMessageIDNotString indicates the remote message id was not a string.
	ErrMessageIDNotString = errors.New("message id is not a string")
)

// Identifier resolution errors.
var (
	// ErrNoPhoneNumber indicates no candidate field held a phone-shaped value.
	ErrNoPhoneNumber = errors.New("no phone number found")

	// ErrNoLinkedID indicates no candidate field held a linked-id-shaped value.
	ErrNoLinkedID = errors.New("no linked id found")
)

// Is is a convenience wrapper around errors.Is.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As is a convenience wrapper around errors.As.
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}
