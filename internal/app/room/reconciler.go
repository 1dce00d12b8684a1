package room

import (
	"errors"
	"strings"

	"chatview/internal/app/protocol"
)

// Reconciler applies operations to a RoomState and resolves display lookups.
type Reconciler struct {
	// avatarBase is the avatar service prefix used for every derived avatar.
	avatarBase string

	// roster keeps members in the order of the latest snapshot.
	roster []Member

	// index maps a member name to its position in roster.
	index map[string]int

	// log is the append-only message history of this session.
	log []ChatEntry
}

// NewReconciler creates a Reconciler with an empty roster and log.
// An empty avatarBase selects DefaultAvatarBase.
func NewReconciler(avatarBase string) *Reconciler {
	if avatarBase == "" {
		avatarBase = DefaultAvatarBase
	}

	return &Reconciler{
		avatarBase: avatarBase,
		roster:     []Member{},
		index:      make(map[string]int),
		log:        []ChatEntry{},
	}
}

// ApplyIncoming mutates state according to op and reports whether the view changed.
//
// A roster snapshot always reports a change, even when identical to the
// current roster. Operations that are never applied on receipt (such as
// Registration) leave the state untouched and report false.
func (r *Reconciler) ApplyIncoming(op protocol.Operation) bool {
	switch v := op.(type) {
	case protocol.RosterSnapshot:
		r.replaceRoster(v.Members)
		return true

	case protocol.ChatMessage:
		r.log = append(r.log, ChatEntry{Sender: v.Sender, Body: v.Body})
		return true

	default:
		return false
	}
}

// HandleFrame decodes frame and applies it.
//
// Envelope and payload decode errors are returned without touching state so
// the caller can report and drop the frame. A well-formed envelope with an
// unrecognised tag is not an error here; it is a no-op.
func (r *Reconciler) HandleFrame(frame []byte) (bool, error) {
	op, err := protocol.Decode(frame)
	if err != nil {
		if errors.Is(err, protocol.ErrUnknownTag) {
			return false, nil
		}
		return false, err
	}

	return r.ApplyIncoming(op), nil
}

// replaceRoster discards every member and rebuilds the roster from names.
// A repeated name keeps its first position.
func (r *Reconciler) replaceRoster(names []string) {
	roster := make([]Member, 0, len(names))
	index := make(map[string]int, len(names))

	for _, name := range names {
		if _, dup := index[name]; dup {
			continue
		}
		index[name] = len(roster)
		roster = append(roster, Member{Name: name, Avatar: AvatarURL(r.avatarBase, name)})
	}

	r.roster = roster
	r.index = index
}

// ResolveAvatar returns the roster avatar for sender, or the fallback avatar
// when sender is not currently online.
func (r *Reconciler) ResolveAvatar(sender string) string {
	if i, ok := r.index[sender]; ok {
		return r.roster[i].Avatar
	}
	return FallbackAvatarURL(r.avatarBase)
}

// BuildRegistration constructs the announcement sent once at session start.
func (r *Reconciler) BuildRegistration(username string) protocol.Registration {
	return protocol.Registration{Name: username}
}

// BuildOutgoingMessage constructs a send operation for text.
// Blank input yields false and must not produce a frame.
func (r *Reconciler) BuildOutgoingMessage(text string) (protocol.ChatMessage, bool) {
	if strings.TrimSpace(text) == "" {
		return protocol.ChatMessage{}, false
	}
	return protocol.ChatMessage{Body: text}, true
}

// Roster returns a copy of the current members in snapshot order.
func (r *Reconciler) Roster() []Member {
	out := make([]Member, len(r.roster))
	copy(out, r.roster)
	return out
}

// Log returns a copy of the message log in arrival order.
func (r *Reconciler) Log() []ChatEntry {
	out := make([]ChatEntry, len(r.log))
	copy(out, r.log)
	return out
}

// Snapshot returns copies of both roster and log together with the avatar base.
func (r *Reconciler) Snapshot() Snapshot {
	return Snapshot{Roster: r.Roster(), Log: r.Log(), AvatarBase: r.avatarBase}
}
