/*
Package errs provides custom error types and application-level error code constants.

These error codes identify request, chat and transport failures both inside the
client and in responses of the local view API.
*/
package errs

// 1xxx: General Request Handling Errors
const (
	// ErrInvalidParams indicates that request parameter validation failed.
	ErrInvalidParams = 1001

	// ErrUnsupportedMediaType indicates that the request header Content-Type is not supported.
	ErrUnsupportedMediaType = 1002

	// ErrInvalidJSONFormat indicates that the request body JSON format is incorrect.
	ErrInvalidJSONFormat = 1003

	// ErrExtraContentInBody indicates that the request body contained extra content after valid JSON data.
	ErrExtraContentInBody = 1004

	// ErrRateLimitExceeded indicates that the submission rate has exceeded the set limit.
	ErrRateLimitExceeded = 1007
)

// 2xxx: Chat Content Errors
const (
	// ErrMessageContentTooLong indicates that the message content exceeded the maximum length limit.
	ErrMessageContentTooLong = 2201
)

// 4xxx: Transport Errors
const (
	// ErrNotConnected indicates the chat connection is not open (never dialed or already closed).
	ErrNotConnected = 4001

	// ErrSendQueueFull indicates the outgoing frame queue is full and the frame was not sent.
	ErrSendQueueFull = 4002
)

// 5xxx: Internal System Errors
const (
	// ErrUnknown represents an unclassified internal error.
	ErrUnknown = 5000
)
