package protocol

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Encode serializes an outgoing operation into envelope text.
//
// A ChatMessage is encoded in its outgoing shape: only the body travels, the
// sender is attributed by the server. Use EncodeBroadcast for the received shape.
func Encode(op Operation) ([]byte, error) {
	switch v := op.(type) {
	case Registration:
		name := v.Name
		return marshal(Envelope{MessageType: TypeRegister, Data: &name})

	case ChatMessage:
		body := v.Body
		return encodeMessage(messagePayload{Message: &body})

	case RosterSnapshot:
		members := v.Members
		if members == nil {
			members = []string{}
		}
		return marshal(Envelope{MessageType: TypeUsers, DataArray: &members})

	default:
		return nil, fmt.Errorf("encode: unsupported operation %T", op)
	}
}

// EncodeBroadcast serializes a ChatMessage the way the server relays it to
// room members, with the sender carried in the nested payload.
func EncodeBroadcast(msg ChatMessage) ([]byte, error) {
	sender, body := msg.Sender, msg.Body
	return encodeMessage(messagePayload{From: &sender, Message: &body})
}

// Decode parses one received frame into an Operation.
//
// It fails with a *DecodeError when the envelope is malformed (KindEnvelope),
// when the tag is not one of the known tags (KindUnknownTag), or when a
// message envelope carries an invalid nested payload (KindPayload).
func Decode(frame []byte) (Operation, error) {
	var env Envelope
	if err := json.Unmarshal(frame, &env); err != nil {
		return nil, newDecodeError(KindEnvelope, "", "invalid envelope JSON", err)
	}

	if env.MessageType == "" {
		return nil, newDecodeError(KindEnvelope, "", "missing messageType", nil)
	}

	if !env.MessageType.Valid() {
		return nil, newDecodeError(KindUnknownTag, env.MessageType, "unrecognised messageType", nil)
	}

	switch env.MessageType {
	case TypeUsers:
		members := []string{}
		if env.DataArray != nil {
			members = append(members, (*env.DataArray)...)
		}
		return RosterSnapshot{Members: members}, nil

	case TypeRegister:
		var name string
		if env.Data != nil {
			name = *env.Data
		}
		return Registration{Name: name}, nil

	default: // TypeMessage
		return decodeMessage(env.Data)
	}
}

func decodeMessage(data *string) (Operation, error) {
	if data == nil {
		return nil, newDecodeError(KindPayload, TypeMessage, "missing data", nil)
	}

	var payload messagePayload
	if err := json.Unmarshal([]byte(*data), &payload); err != nil {
		return nil, newDecodeError(KindPayload, TypeMessage, "invalid message payload JSON", err)
	}

	if payload.From == nil || payload.Message == nil {
		return nil, newDecodeError(KindPayload, TypeMessage, "payload requires from and message", nil)
	}

	return ChatMessage{Sender: *payload.From, Body: *payload.Message}, nil
}

func encodeMessage(payload messagePayload) ([]byte, error) {
	nested, err := marshal(payload)
	if err != nil {
		return nil, err
	}

	data := string(nested)
	return marshal(Envelope{MessageType: TypeMessage, Data: &data})
}

// marshal encodes v without HTML escaping so bodies keep <, > and & verbatim.
func marshal(v any) ([]byte, error) {
	var buf bytes.Buffer

	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)

	if err := enc.Encode(v); err != nil {
		return nil, fmt.Errorf("encode envelope: %w", err)
	}

	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}
