package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"slices"
	"strconv"
	"strings"
	"sync"

	"chatview/internal/app/room"
)

// chatRoom is the part of a session the console drives.
type chatRoom interface {
	Submit(text string) (bool, error)
}

// Console is the terminal view. Input lines are submitted as messages; a
// line of the form ":N" appends emoji N to the draft instead.
type Console struct {
	room chatRoom
	out  io.Writer

	mu      sync.Mutex
	draft   string
	printed int
	names   []string
}

func NewConsole(r chatRoom, out io.Writer) *Console {
	return &Console{room: r, out: out}
}

// Render prints the roster when it changed and every log entry not yet shown.
func (c *Console) Render(snap room.Snapshot) {
	c.mu.Lock()
	defer c.mu.Unlock()

	names := make([]string, 0, len(snap.Roster))
	for _, m := range snap.Roster {
		names = append(names, m.Name)
	}
	if !slices.Equal(names, c.names) {
		c.names = names
		fmt.Fprintf(c.out, "* online (%d): %s\n", len(names), strings.Join(names, ", "))
	}

	avatarOf := snap.AvatarLookup()
	for _, e := range snap.Log[min(c.printed, len(snap.Log)):] {
		body := e.Body
		if e.IsImage() {
			body = "[gif] " + body
		}
		fmt.Fprintf(c.out, "<%s> %s  (%s)\n", e.Sender, body, avatarOf(e.Sender))
	}
	c.printed = len(snap.Log)
}

// HandleLine processes one line of input.
func (c *Console) HandleLine(line string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if i, ok := emojiIndex(line); ok {
		if e, ok := room.EmojiAt(i); ok {
			c.draft = room.AppendEmoji(c.draft, e)
			fmt.Fprintf(c.out, "draft: %s\n", c.draft)
			return
		}
	}

	text := c.draft + line
	c.draft = ""

	if _, err := c.room.Submit(text); err != nil {
		fmt.Fprintf(c.out, "! not sent: %v\n", err)
	}
}

// ReadLoop feeds lines from in to HandleLine until EOF or ctx is done.
func (c *Console) ReadLoop(ctx context.Context, in io.Reader) error {
	scanner := bufio.NewScanner(in)

	for scanner.Scan() {
		if ctx.Err() != nil {
			return nil
		}
		c.HandleLine(scanner.Text())
	}

	return scanner.Err()
}

// emojiIndex parses ":N".
func emojiIndex(line string) (int, bool) {
	rest, ok := strings.CutPrefix(strings.TrimSpace(line), ":")
	if !ok {
		return 0, false
	}
	i, err := strconv.Atoi(rest)
	if err != nil {
		return 0, false
	}
	return i, true
}
