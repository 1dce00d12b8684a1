package errs

import "net/http"

// errorMap stores the CustomError template for every application error code.
var errorMap = map[int]CustomError{
	// 1xxx: General Request Handling Errors
	ErrInvalidParams:        {Code: ErrInvalidParams, Message: "Invalid request parameters.", Status: http.StatusBadRequest},
	ErrUnsupportedMediaType: {Code: ErrUnsupportedMediaType, Message: "Unsupported request format.", Status: http.StatusUnsupportedMediaType},
	ErrInvalidJSONFormat:    {Code: ErrInvalidJSONFormat, Message: "Unsupported request format.", Status: http.StatusBadRequest},
	ErrExtraContentInBody:   {Code: ErrExtraContentInBody, Message: "Request contains unexpected data.", Status: http.StatusBadRequest},
	ErrRateLimitExceeded:    {Code: ErrRateLimitExceeded, Message: "Too many messages. Please slow down.", Status: http.StatusTooManyRequests},

	// 2xxx: Chat Content Errors
	ErrMessageContentTooLong: {Code: ErrMessageContentTooLong, Message: "Message is longer than %d bytes.", Status: http.StatusRequestEntityTooLarge},

	// 4xxx: Transport Errors
	ErrNotConnected:  {Code: ErrNotConnected, Message: "Not connected to the chat server.", Status: http.StatusServiceUnavailable},
	ErrSendQueueFull: {Code: ErrSendQueueFull, Message: "Connection is busy. Please try again.", Status: http.StatusServiceUnavailable},

	// 5xxx: Internal System Errors
	ErrUnknown: {Code: ErrUnknown, Message: "Something went wrong. Please try again.", Status: http.StatusInternalServerError},
}
