package main

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"chatview/internal/app/room"
)

type fakeRoom struct {
	submitted []string
	err       error
}

func (f *fakeRoom) Submit(text string) (bool, error) {
	if f.err != nil {
		return false, f.err
	}
	if strings.TrimSpace(text) == "" {
		return false, nil
	}
	f.submitted = append(f.submitted, text)
	return true, nil
}

func TestConsoleEmojiDraft(t *testing.T) {
	fr := &fakeRoom{}
	var out bytes.Buffer
	c := NewConsole(fr, &out)

	in := strings.NewReader(":3\n:0\n nice\n:9\n")
	if err := c.ReadLoop(context.Background(), in); err != nil {
		t.Fatalf("ReadLoop: %v", err)
	}

	want := []string{"👍😀 nice", ":9"}
	if len(fr.submitted) != len(want) {
		t.Fatalf("submitted = %q", fr.submitted)
	}
	for i := range want {
		if fr.submitted[i] != want[i] {
			t.Fatalf("submitted[%d] = %q, want %q", i, fr.submitted[i], want[i])
		}
	}
}

func TestConsoleReportsSendFailure(t *testing.T) {
	var out bytes.Buffer
	c := NewConsole(&fakeRoom{err: errors.New("queue full")}, &out)

	c.HandleLine("hello")
	if !strings.Contains(out.String(), "not sent: queue full") {
		t.Fatalf("out = %q", out.String())
	}
}

func TestConsoleRenderPrintsOnlyChanges(t *testing.T) {
	var out bytes.Buffer
	c := NewConsole(&fakeRoom{}, &out)

	snap := room.Snapshot{
		Roster:     []room.Member{{Name: "bob", Avatar: room.AvatarURL("https://a", "bob")}},
		Log:        []room.ChatEntry{{Sender: "bob", Body: "hi"}, {Sender: "eve", Body: "hey"}},
		AvatarBase: "https://a",
	}
	c.Render(snap)

	snap.Log = append(snap.Log, room.ChatEntry{Sender: "bob", Body: "cat.gif"})
	c.Render(snap)

	got := out.String()
	if strings.Count(got, "* online") != 1 {
		t.Fatalf("roster printed more than once: %q", got)
	}
	if strings.Count(got, "<bob> hi") != 1 || !strings.Contains(got, "<bob> [gif] cat.gif  (https://a/bob.svg)") {
		t.Fatalf("out = %q", got)
	}
	if !strings.Contains(got, "<eve> hey  (https://a/unknown.svg)") {
		t.Fatalf("out = %q", got)
	}
}
