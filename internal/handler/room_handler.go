/*
Package handler provides HTTP handler functions for reading the room and submitting messages.
*/
package handler

import (
	"errors"
	"net/http"

	"chatview/internal/app/room"
	"chatview/internal/pkg/errs"
	"chatview/internal/pkg/logx"
	"chatview/internal/pkg/req"
	"chatview/internal/pkg/resp"
)

// MaxContentBytes is the largest message body accepted for submission.
const MaxContentBytes = 5000

type MemberView struct {
	Name   string `json:"name"`
	Avatar string `json:"avatar"`
}

type MessageView struct {
	Sender string `json:"sender"`
	Body   string `json:"body"`
	// Avatar is the sender's roster avatar, or the fallback when offline.
	Avatar  string `json:"avatar"`
	IsImage bool   `json:"isImage"`
}

type RoomResponse struct {
	Username string        `json:"username"`
	Roster   []MemberView  `json:"roster"`
	Messages []MessageView `json:"messages"`
}

// HandleGetRoom returns the current roster and message log. Message avatars
// are resolved against the roster of the same snapshot.
func HandleGetRoom(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		snap := deps.Room.Snapshot()

		out := RoomResponse{
			Username: deps.Room.Username(),
			Roster:   make([]MemberView, 0, len(snap.Roster)),
			Messages: make([]MessageView, 0, len(snap.Log)),
		}

		for _, m := range snap.Roster {
			out.Roster = append(out.Roster, MemberView{Name: m.Name, Avatar: m.Avatar})
		}

		avatarOf := snap.AvatarLookup()
		for _, e := range snap.Log {
			out.Messages = append(out.Messages, MessageView{
				Sender:  e.Sender,
				Body:    e.Body,
				Avatar:  avatarOf(e.Sender),
				IsImage: e.IsImage(),
			})
		}

		resp.RespondSuccess(w, r, out)
	}
}

type SubmitMessageInput struct {
	Text string `json:"text"`
}

// HandleSubmitMessage sends the posted text to the chat server.
// Blank text is accepted and reported as not sent.
func HandleSubmitMessage(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var input SubmitMessageInput

		if customErr := req.BindJSON(w, r, &input); customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		if len(input.Text) > MaxContentBytes {
			resp.RespondError(w, r, errs.NewError(errs.ErrMessageContentTooLong, MaxContentBytes))
			return
		}

		sent, err := deps.Room.Submit(input.Text)
		if err != nil {
			var customErr *errs.CustomError
			if !errors.As(err, &customErr) {
				logx.Error(err, "Message submission failed")
				customErr = errs.NewError(errs.ErrUnknown)
			}
			resp.RespondError(w, r, customErr)
			return
		}

		resp.RespondSuccess(w, r, map[string]bool{"sent": sent})
	}
}

type EmojiView struct {
	Index int    `json:"index"`
	Emoji string `json:"emoji"`
}

// HandleListEmojis returns the fixed emoji palette.
func HandleListEmojis() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		out := make([]EmojiView, 0, len(room.Emojis))
		for i, e := range room.Emojis {
			out = append(out, EmojiView{Index: i, Emoji: e})
		}

		resp.RespondSuccess(w, r, map[string]any{"emojis": out})
	}
}
