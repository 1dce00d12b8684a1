package room

import (
	"errors"
	"reflect"
	"testing"

	"chatview/internal/app/protocol"
)

const testBase = "https://avatars.example/api"

func TestUsersFrameReplacesRoster(t *testing.T) {
	r := NewReconciler(testBase)

	changed, err := r.HandleFrame([]byte(`{"messageType":"users","dataArray":["alice","bob"]}`))
	if err != nil {
		t.Fatalf("handle: %v", err)
	}
	if !changed {
		t.Fatalf("roster frame must report a change")
	}

	want := []Member{
		{Name: "alice", Avatar: testBase + "/alice.svg"},
		{Name: "bob", Avatar: testBase + "/bob.svg"},
	}
	if got := r.Roster(); !reflect.DeepEqual(got, want) {
		t.Fatalf("roster = %+v, want %+v", got, want)
	}
}

func TestRosterReplacementDiscardsPreviousMembers(t *testing.T) {
	r := NewReconciler(testBase)
	r.ApplyIncoming(protocol.RosterSnapshot{Members: []string{"alice", "bob"}})
	r.ApplyIncoming(protocol.RosterSnapshot{Members: []string{"carol"}})

	roster := r.Roster()
	if len(roster) != 1 || roster[0].Name != "carol" {
		t.Fatalf("roster = %+v, want only carol", roster)
	}
	if got := r.ResolveAvatar("alice"); got != FallbackAvatarURL(testBase) {
		t.Fatalf("alice avatar = %q, want fallback", got)
	}
}

func TestRosterReplacementIsIdempotent(t *testing.T) {
	r := NewReconciler(testBase)
	op := protocol.RosterSnapshot{Members: []string{"a", "b"}}

	if !r.ApplyIncoming(op) {
		t.Fatalf("first application must report a change")
	}
	first := r.Roster()

	if !r.ApplyIncoming(op) {
		t.Fatalf("identical snapshot must still report a change")
	}
	if second := r.Roster(); !reflect.DeepEqual(first, second) {
		t.Fatalf("roster changed between identical snapshots: %+v vs %+v", first, second)
	}
}

func TestRosterDuplicateNamesKeepFirstPosition(t *testing.T) {
	r := NewReconciler(testBase)
	r.ApplyIncoming(protocol.RosterSnapshot{Members: []string{"b", "a", "b"}})

	roster := r.Roster()
	if len(roster) != 2 || roster[0].Name != "b" || roster[1].Name != "a" {
		t.Fatalf("roster = %+v", roster)
	}
}

func TestEmptyRosterSnapshot(t *testing.T) {
	r := NewReconciler(testBase)
	r.ApplyIncoming(protocol.RosterSnapshot{Members: []string{"alice"}})

	changed, err := r.HandleFrame([]byte(`{"messageType":"users"}`))
	if err != nil || !changed {
		t.Fatalf("changed=%v err=%v", changed, err)
	}
	if len(r.Roster()) != 0 {
		t.Fatalf("roster should be empty, got %+v", r.Roster())
	}
}

func TestMessageFrameAppendsAndResolvesAvatar(t *testing.T) {
	r := NewReconciler(testBase)
	r.ApplyIncoming(protocol.RosterSnapshot{Members: []string{"alice"}})

	changed, err := r.HandleFrame([]byte(`{"messageType":"message","data":"{\"from\":\"alice\",\"message\":\"hi\"}"}`))
	if err != nil {
		t.Fatalf("handle: %v", err)
	}
	if !changed {
		t.Fatalf("message frame must report a change")
	}

	log := r.Log()
	if len(log) != 1 || log[0] != (ChatEntry{Sender: "alice", Body: "hi"}) {
		t.Fatalf("log = %+v", log)
	}
	if got := r.ResolveAvatar(log[0].Sender); got != testBase+"/alice.svg" {
		t.Fatalf("avatar = %q", got)
	}
}

func TestUnknownSenderFallsBack(t *testing.T) {
	r := NewReconciler(testBase)
	r.ApplyIncoming(protocol.ChatMessage{Sender: "ghost", Body: "hi"})

	got := r.ResolveAvatar("ghost")
	if got != testBase+"/unknown.svg" {
		t.Fatalf("avatar = %q, want fallback", got)
	}
	if got == AvatarURL(testBase, "ghost") {
		t.Fatalf("fallback must not be derived from the sender")
	}
}

func TestLogPreservesArrivalOrder(t *testing.T) {
	r := NewReconciler(testBase)
	bodies := []string{"one", "two", "three"}
	for _, b := range bodies {
		r.ApplyIncoming(protocol.ChatMessage{Sender: "x", Body: b})
	}
	r.ApplyIncoming(protocol.RosterSnapshot{Members: []string{"y"}})

	log := r.Log()
	if len(log) != len(bodies) {
		t.Fatalf("log length = %d", len(log))
	}
	for i, b := range bodies {
		if log[i].Body != b {
			t.Fatalf("log[%d] = %q, want %q", i, log[i].Body, b)
		}
	}
}

func TestNonIncomingOperationsAreNoOps(t *testing.T) {
	r := NewReconciler(testBase)

	if r.ApplyIncoming(protocol.Registration{Name: "alice"}) {
		t.Fatalf("registration must not report a change")
	}
	if r.ApplyIncoming(nil) {
		t.Fatalf("nil operation must not report a change")
	}

	changed, err := r.HandleFrame([]byte(`{"messageType":"register","data":"alice"}`))
	if err != nil || changed {
		t.Fatalf("register frame: changed=%v err=%v", changed, err)
	}
}

func TestUnknownTagIsTolerated(t *testing.T) {
	r := NewReconciler(testBase)

	changed, err := r.HandleFrame([]byte(`{"messageType":"typing","data":"alice"}`))
	if err != nil {
		t.Fatalf("unknown tag must not be reported as an error: %v", err)
	}
	if changed {
		t.Fatalf("unknown tag must not report a change")
	}
}

func TestMalformedFrameLeavesStateAndNextFrameApplies(t *testing.T) {
	r := NewReconciler(testBase)
	r.ApplyIncoming(protocol.RosterSnapshot{Members: []string{"alice"}})
	before := r.Snapshot()

	changed, err := r.HandleFrame([]byte(`{"messageType":"users","dataArray":`))
	if !errors.Is(err, protocol.ErrEnvelope) {
		t.Fatalf("err = %v, want envelope error", err)
	}
	if changed {
		t.Fatalf("malformed frame must not report a change")
	}

	changed, err = r.HandleFrame([]byte(`{"messageType":"message","data":"not json"}`))
	if !errors.Is(err, protocol.ErrPayload) || changed {
		t.Fatalf("payload error: changed=%v err=%v", changed, err)
	}

	if after := r.Snapshot(); !reflect.DeepEqual(before, after) {
		t.Fatalf("state changed after malformed frames: %+v vs %+v", before, after)
	}

	changed, err = r.HandleFrame([]byte(`{"messageType":"message","data":"{\"from\":\"alice\",\"message\":\"still here\"}"}`))
	if err != nil || !changed {
		t.Fatalf("next frame: changed=%v err=%v", changed, err)
	}
	if log := r.Log(); len(log) != 1 || log[0].Body != "still here" {
		t.Fatalf("log = %+v", log)
	}
}

func TestBuildOutgoingMessage(t *testing.T) {
	r := NewReconciler(testBase)

	for _, text := range []string{"", "   ", "\t\n"} {
		if _, ok := r.BuildOutgoingMessage(text); ok {
			t.Fatalf("blank input %q must not produce an operation", text)
		}
	}

	msg, ok := r.BuildOutgoingMessage("  hello 👍")
	if !ok {
		t.Fatalf("expected an operation")
	}
	if msg.Body != "  hello 👍" || msg.Sender != "" {
		t.Fatalf("msg = %+v", msg)
	}
}

func TestBuildRegistration(t *testing.T) {
	r := NewReconciler(testBase)
	if got := r.BuildRegistration("alice"); got.Name != "alice" {
		t.Fatalf("registration = %+v", got)
	}
}

func TestCopiesAreIndependent(t *testing.T) {
	r := NewReconciler(testBase)
	r.ApplyIncoming(protocol.RosterSnapshot{Members: []string{"alice"}})
	r.ApplyIncoming(protocol.ChatMessage{Sender: "alice", Body: "hi"})

	snap := r.Snapshot()
	snap.Roster[0].Avatar = "mutated"
	snap.Log[0].Body = "mutated"

	if r.ResolveAvatar("alice") == "mutated" || r.Log()[0].Body == "mutated" {
		t.Fatalf("snapshot must not alias internal state")
	}
}

func TestDefaultAvatarBase(t *testing.T) {
	r := NewReconciler("")
	r.ApplyIncoming(protocol.RosterSnapshot{Members: []string{"alice"}})

	if got := r.ResolveAvatar("alice"); got != DefaultAvatarBase+"/alice.svg" {
		t.Fatalf("avatar = %q", got)
	}
	if got := r.ResolveAvatar("nobody"); got != DefaultAvatarBase+"/unknown.svg" {
		t.Fatalf("fallback = %q", got)
	}
}

func TestIsImage(t *testing.T) {
	cases := map[string]bool{
		"http://x/y/cat.gif": true,
		".gif":               true,
		"hello.gif.txt":      false,
		"cat.GIF":            false,
		"cat.gif ":           false,
		"":                   false,
	}

	for body, want := range cases {
		if got := (ChatEntry{Body: body}).IsImage(); got != want {
			t.Fatalf("IsImage(%q) = %v, want %v", body, got, want)
		}
	}
}

func TestAvatarURLTrimsTrailingSlash(t *testing.T) {
	if got := AvatarURL("https://a/b/", "n"); got != "https://a/b/n.svg" {
		t.Fatalf("AvatarURL = %q", got)
	}
}

func TestEmojiPalette(t *testing.T) {
	if len(Emojis) != 5 {
		t.Fatalf("palette size = %d", len(Emojis))
	}

	e, ok := EmojiAt(3)
	if !ok || e != "👍" {
		t.Fatalf("EmojiAt(3) = %q, %v", e, ok)
	}
	if _, ok := EmojiAt(5); ok {
		t.Fatalf("EmojiAt(5) should be out of range")
	}
	if got := AppendEmoji("hi ", e); got != "hi 👍" {
		t.Fatalf("AppendEmoji = %q", got)
	}
}

func TestSnapshotAvatarLookupMatchesReconciler(t *testing.T) {
	r := NewReconciler(testBase)
	r.ApplyIncoming(protocol.RosterSnapshot{Members: []string{"alice"}})
	snap := r.Snapshot()

	// A later roster must not leak into an earlier snapshot's lookups.
	r.ApplyIncoming(protocol.RosterSnapshot{Members: []string{"bob"}})

	lookup := snap.AvatarLookup()
	if got := lookup("alice"); got != testBase+"/alice.svg" {
		t.Fatalf("alice = %q", got)
	}
	if got := lookup("bob"); got != FallbackAvatarURL(testBase) {
		t.Fatalf("bob = %q, want fallback from the older roster", got)
	}
	if got, want := r.Snapshot().AvatarLookup()("bob"), r.ResolveAvatar("bob"); got != want {
		t.Fatalf("snapshot lookup %q differs from reconciler %q", got, want)
	}
}
