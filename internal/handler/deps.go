package handler

import (
	"chatview/internal/app/room"
	"chatview/internal/configs"
	"chatview/internal/pkg/limiter"
)

// RoomView is the session surface the view API reads from and submits to.
type RoomView interface {
	Username() string
	Snapshot() room.Snapshot
	Submit(text string) (bool, error)
}

type AppDeps struct {
	Room          RoomView
	Config        *configs.AppConfig
	SubmitLimiter *limiter.KeyedLimiter
}
