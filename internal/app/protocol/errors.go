package protocol

import "fmt"

// Kind categorises a decode failure.
type Kind int

const (
	// KindEnvelope means the outer JSON or its shape is invalid.
	KindEnvelope Kind = iota + 1

	// KindPayload means the nested message payload is invalid.
	KindPayload

	// KindUnknownTag means the envelope is well formed but its messageType is not recognised.
	KindUnknownTag
)

// String returns the metric/log label for the kind.
func (k Kind) String() string {
	switch k {
	case KindEnvelope:
		return "envelope"
	case KindPayload:
		return "payload"
	case KindUnknownTag:
		return "unknown_tag"
	default:
		return fmt.Sprintf("unknown_kind_%d", int(k))
	}
}

// DecodeError reports why a frame could not be turned into an Operation.
type DecodeError struct {
	Kind    Kind
	Tag     MessageType
	Message string
	Wrapped error
}

// Sentinels usable with errors.Is.
var (
	ErrEnvelope   = &DecodeError{Kind: KindEnvelope}
	ErrPayload    = &DecodeError{Kind: KindPayload}
	ErrUnknownTag = &DecodeError{Kind: KindUnknownTag}
)

// Error implements the error interface.
func (e *DecodeError) Error() string {
	msg := fmt.Sprintf("decode %s: %s", e.Kind, e.Message)
	if e.Tag != "" {
		msg = fmt.Sprintf("%s (messageType %q)", msg, string(e.Tag))
	}
	if e.Wrapped != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Wrapped)
	}
	return msg
}

// Unwrap returns the underlying parse error, if any.
func (e *DecodeError) Unwrap() error {
	return e.Wrapped
}

// Is matches any DecodeError of the same Kind.
func (e *DecodeError) Is(target error) bool {
	t, ok := target.(*DecodeError)
	if !ok {
		return false
	}
	return e.Kind == t.Kind
}

func newDecodeError(kind Kind, tag MessageType, message string, wrapped error) *DecodeError {
	return &DecodeError{
		Kind:    kind,
		Tag:     tag,
		Message: message,
		Wrapped: wrapped,
	}
}
