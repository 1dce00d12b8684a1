/*
Package session runs one user's chat session.

A Session owns the room Reconciler. Its Run loop announces the user once, then
applies every frame from the bus strictly in order. Views read consistent
copies of the state through Snapshot and may register OnChange callbacks.
*/
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"chatview/internal/app/bus"
	"chatview/internal/app/protocol"
	"chatview/internal/app/room"
	"chatview/internal/pkg/logx"
	"chatview/internal/pkg/metrics"
	"chatview/internal/pkg/randx"
)

// ErrSubscriptionDropped is returned by Run when the bus closed the session's
// subscription while the bus itself kept running.
var ErrSubscriptionDropped = errors.New("session: frame subscription dropped")

// Sender queues an encoded frame for the chat server without blocking.
type Sender interface {
	TrySend(frame []byte) error
}

// Options configure New.
type Options struct {
	// Username is announced in the registration frame.
	Username string

	// AvatarBase is the avatar service prefix; empty selects the default.
	AvatarBase string

	// Sender delivers outgoing frames.
	Sender Sender

	// Bus supplies incoming frames.
	Bus *bus.Bus
}

// Session is the single-user view of one chat room.
type Session struct {
	username string
	sender   Sender
	bus      *bus.Bus

	// mu guards reconciler and listeners.
	mu         sync.RWMutex
	reconciler *room.Reconciler
	listeners  []func(room.Snapshot)

	logger zerolog.Logger
}

// New validates opts and builds a Session with an empty room.
func New(opts Options) (*Session, error) {
	if opts.Username == "" {
		return nil, errors.New("session: username is required")
	}
	if opts.Sender == nil || opts.Bus == nil {
		return nil, errors.New("session: sender and bus are required")
	}

	logger := logx.Component("session").With().
		Str("session_id", randx.SessionID()).
		Str("username", opts.Username).
		Logger()

	return &Session{
		username:   opts.Username,
		sender:     opts.Sender,
		bus:        opts.Bus,
		reconciler: room.NewReconciler(opts.AvatarBase),
		logger:     logger,
	}, nil
}

// Username returns the announced user name.
func (s *Session) Username() string {
	return s.username
}

// Run subscribes to the bus, sends the registration and then applies frames
// until ctx is done or the bus stops. It must be called once.
func (s *Session) Run(ctx context.Context) error {
	sub := s.bus.Subscribe()
	defer s.bus.Unsubscribe(sub)

	if err := s.register(); err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			s.logger.Info().Msg("Session stopped.")
			return nil

		case frame, ok := <-sub.Frames():
			if !ok {
				select {
				case <-s.bus.Done():
					s.logger.Info().Msg("Bus stopped, session ending.")
					return nil
				default:
					return ErrSubscriptionDropped
				}
			}
			s.handleFrame(frame)
		}
	}
}

// register announces the user. Called once, before any frame is processed.
func (s *Session) register() error {
	s.mu.RLock()
	op := s.reconciler.BuildRegistration(s.username)
	s.mu.RUnlock()

	if err := s.send(op); err != nil {
		return fmt.Errorf("send registration: %w", err)
	}

	s.logger.Info().Msg("Registration sent.")
	return nil
}

// handleFrame decodes and applies one frame. Malformed frames are counted,
// logged and dropped; unknown tags are ignored.
func (s *Session) handleFrame(frame []byte) {
	op, err := protocol.Decode(frame)
	if err != nil {
		var decodeErr *protocol.DecodeError
		if errors.As(err, &decodeErr) && decodeErr.Kind == protocol.KindUnknownTag {
			s.logger.Debug().Str("message_type", string(decodeErr.Tag)).Msg("Ignoring frame with unknown message type")
			return
		}

		kind := "envelope"
		if decodeErr != nil {
			kind = decodeErr.Kind.String()
		}
		metrics.DecodeErrors.WithLabelValues(kind).Inc()
		s.logger.Warn().Err(err).Int("frame_len", len(frame)).Msg("Dropping malformed frame")
		return
	}

	s.mu.Lock()
	changed := s.reconciler.ApplyIncoming(op)
	var snap room.Snapshot
	var listeners []func(room.Snapshot)
	if changed {
		snap = s.reconciler.Snapshot()
		listeners = append(listeners, s.listeners...)
	}
	s.mu.Unlock()

	if !changed {
		return
	}

	metrics.FramesApplied.WithLabelValues(string(op.Type())).Inc()
	if op.Type() == protocol.TypeUsers {
		metrics.RosterSize.Set(float64(len(snap.Roster)))
	}

	for _, fn := range listeners {
		fn(snap)
	}
}

// Submit sends text as a chat message. It reports false without error when
// text is blank. The message appears in the log only once the server relays it.
func (s *Session) Submit(text string) (bool, error) {
	s.mu.RLock()
	op, ok := s.reconciler.BuildOutgoingMessage(text)
	s.mu.RUnlock()

	if !ok {
		return false, nil
	}

	if err := s.send(op); err != nil {
		return false, err
	}
	return true, nil
}

func (s *Session) send(op protocol.Operation) error {
	frame, err := protocol.Encode(op)
	if err != nil {
		return err
	}

	if err := s.sender.TrySend(frame); err != nil {
		metrics.SendFailures.Inc()
		s.logger.Warn().Err(err).Str("message_type", string(op.Type())).Msg("Frame not sent")
		return err
	}

	metrics.FramesSent.WithLabelValues(string(op.Type())).Inc()
	return nil
}

// Snapshot returns a copy of the roster and log.
func (s *Session) Snapshot() room.Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.reconciler.Snapshot()
}

// ResolveAvatar returns the avatar to show next to a message from sender.
func (s *Session) ResolveAvatar(sender string) string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.reconciler.ResolveAvatar(sender)
}

// OnChange registers fn to be called from the Run goroutine with a fresh
// snapshot after every frame that changed the room.
func (s *Session) OnChange(fn func(room.Snapshot)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, fn)
}
