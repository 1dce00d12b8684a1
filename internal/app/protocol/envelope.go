/*
Package protocol implements the chat room wire envelope and its codec.

Every frame exchanged with the chat server is a JSON envelope carrying a
lowercase type tag plus one of two optional payload shapes. This package maps
those envelopes to and from the typed Operation variants consumed by the room
state reconciler.
*/
package protocol

// MessageType is the envelope tag selecting which payload field is authoritative.
type MessageType string

const (
	// TypeUsers carries a full roster snapshot in dataArray.
	TypeUsers MessageType = "users"

	// TypeRegister announces the local user; data holds the plain username.
	TypeRegister MessageType = "register"

	// TypeMessage carries a chat message; data holds a nested JSON payload.
	TypeMessage MessageType = "message"
)

// Valid reports whether t is one of the known envelope tags.
func (t MessageType) Valid() bool {
	switch t {
	case TypeUsers, TypeRegister, TypeMessage:
		return true
	default:
		return false
	}
}

// Envelope is the outer wire structure.
// Field presence, not type, disambiguates the payload shape for a given tag.
type Envelope struct {
	MessageType MessageType `json:"messageType"`
	DataArray   *[]string   `json:"dataArray,omitempty"`
	Data        *string     `json:"data,omitempty"`
}

// messagePayload is the nested record stored in Envelope.Data for TypeMessage.
// Outgoing messages omit From; the server attributes the sender.
type messagePayload struct {
	From    *string `json:"from,omitempty"`
	Message *string `json:"message"`
}

// Operation is the decoded, type-safe form of one envelope.
// The variants are RosterSnapshot, Registration and ChatMessage.
type Operation interface {
	// Type returns the envelope tag the operation is carried under.
	Type() MessageType

	operation()
}

// RosterSnapshot replaces the whole online-user list.
type RosterSnapshot struct {
	Members []string
}

// Registration announces the local user to the room.
type Registration struct {
	Name string
}

// ChatMessage is a message to append to the log.
type ChatMessage struct {
	Sender string
	Body   string
}

func (RosterSnapshot) Type() MessageType { return TypeUsers }
func (Registration) Type() MessageType   { return TypeRegister }
func (ChatMessage) Type() MessageType    { return TypeMessage }

func (RosterSnapshot) operation() {}
func (Registration) operation()   {}
func (ChatMessage) operation()    {}
