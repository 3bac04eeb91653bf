package types

import "encoding/json"

// Error Instead of utilizing HTTP status codes to describe failures (which often do not have a
// good analog), rich errors are returned using this object. Both the code and message fields can be
// individually used to correctly identify an error. Implementations MUST use unique values for both
// fields.
type Error struct {
	// Code is an SDK-specific error code. If desired, this code can be equivalent to an HTTP
	// status code.
	Code int32 `json:"code"`
	// Message is an SDK-specific error message. The message MUST NOT change for a given code. In
	// particular, this means that any contextual information should be included in the details
	// field.
	Message string `json:"message"`
	// Description allows the implementer to optionally provide additional information about an
	// error. Whereas the content of Error.Message should stay stable across releases, the content
	// of Error.Description may change across releases. For this reason, the content in this field
	// is not part of any type assertion (unlike Error.Message).
	Description *string `json:"description,omitempty"`
	// An error is retriable if the same request may succeed if submitted again.
	Retriable bool `json:"retriable"`
	// Often times it is useful to return context specific to the request that caused the error
	// (i.e. the impacted user id or the orphaned key handle) in addition to the standard error
	// message.
	Details map[string]any `json:"details,omitempty"`
}

func (e *Error) Error() string {
	bytes, _ := json.MarshalIndent(e, "", "  ")
	return string(bytes)
}

func (e *Error) Is(target error) bool {
	other, ok := target.(*Error)
	if !ok {
		return false
	}
	return other.Code == e.Code
}

var (
	// The controlling credential is missing or unusable. Raised before any network activity.
	ErrMissingCredential = &Error{
		Code:    10,
		Message: "Missing master credential",
	}
	// An operation was invoked before Init completed.
	ErrNotInitialized = &Error{
		Code:    11,
		Message: "Client not initialized",
	}
	// Signing was requested for a user id with no key binding.
	ErrUserNotFound = &Error{
		Code:    12,
		Message: "No key binding for user",
	}
	// The chain name is absent from the static chain table.
	ErrUnsupportedChain = &Error{
		Code:    13,
		Message: "Unsupported chain",
	}
	// A second key binding was attempted for a user id that already has one.
	ErrBindingExists = &Error{
		Code:    14,
		Message: "Key binding already exists",
	}
	// The network-environment selector does not name a known Lit network.
	ErrUnknownNetwork = &Error{
		Code:    15,
		Message: "Unknown network",
	}
	// A failure surfaced by the external network, propagated unchanged.
	ErrNetwork = &Error{
		Code:      20,
		Message:   "Network request failed",
		Retriable: true,
	}
)

// WrapErr adds details to the types.Error provided. We use a function
// to do this so that we don't accidentially overrwrite the standard
// errors.
func WrapErr(rErr *Error, err error) *Error {
	newErr := &Error{
		Code:      rErr.Code,
		Message:   rErr.Message,
		Retriable: rErr.Retriable,
	}
	if err != nil {
		newErr.Details = map[string]interface{}{
			"context": err.Error(),
		}
	}

	return newErr
}

// WrapErrDetails is WrapErr with extra request context merged into the details map.
func WrapErrDetails(rErr *Error, err error, details map[string]any) *Error {
	newErr := WrapErr(rErr, err)
	if newErr.Details == nil {
		newErr.Details = map[string]any{}
	}
	for k, v := range details {
		newErr.Details[k] = v
	}
	return newErr
}
