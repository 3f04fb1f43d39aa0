package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	stdhttp "net/http"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/rs/zerolog"

	"github.com/gigachat/gigachat-server/internal/core"
	"github.com/gigachat/gigachat-server/internal/proto"
)

// WSHandler upgrades HTTP connections and bridges them to a core.Session.
type WSHandler struct {
	registry        *core.Registry
	coord           *core.Coordinator
	maxMessageBytes int64
	msgRateLimit    int
	log             *zerolog.Logger
}

// NewWSHandler builds a new WebSocket handler. maxMessageBytes caps a
// single inbound frame; msgRateLimit caps inbound events per connection
// per minute (zero disables the cap).
func NewWSHandler(registry *core.Registry, coord *core.Coordinator, maxMessageBytes int64, msgRateLimit int, logger *zerolog.Logger) stdhttp.Handler {
	return &WSHandler{
		registry:        registry,
		coord:           coord,
		maxMessageBytes: maxMessageBytes,
		msgRateLimit:    msgRateLimit,
		log:             logger,
	}
}

func (h *WSHandler) ServeHTTP(w stdhttp.ResponseWriter, r *stdhttp.Request) {
	ctx := r.Context()

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		InsecureSkipVerify: true,
	})
	if err != nil {
		h.log.Error().Err(err).Msg("ws accept error")
		return
	}
	defer conn.Close(websocket.StatusInternalError, "internal error")

	if h.maxMessageBytes > 0 {
		conn.SetReadLimit(h.maxMessageBytes)
	}

	sess := core.NewSession()
	// Dropping the session removes it from every room it joined.
	defer h.registry.Drop(sess)

	h.log.Debug().Str("session_id", sess.ID).Msg("client connected")

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	limiter := newRateLimiter(h.msgRateLimit)
	limiter.startReset(ctx.Done())

	errCh := make(chan error, 2)
	go func() {
		errCh <- h.readLoop(ctx, conn, sess, limiter)
	}()
	go func() {
		errCh <- h.writeLoop(ctx, conn, sess)
	}()

	err = <-errCh
	cancel() // stop the other goroutine
	<-errCh

	h.log.Debug().Str("session_id", sess.ID).Msg("client disconnected")

	status := websocket.StatusNormalClosure
	reason := "closing"
	if err != nil && !errors.Is(err, context.Canceled) {
		if errors.Is(err, io.EOF) {
			err = nil
		}
		if s := websocket.CloseStatus(err); s != 0 {
			status = s
		}
		if status == websocket.StatusNormalClosure || status == websocket.StatusGoingAway {
			err = nil
		}
		if err != nil {
			if status == websocket.StatusNormalClosure {
				status = websocket.StatusInternalError
			}
			reason = err.Error()
			h.log.Warn().Err(err).Msg("ws connection closed with error")
		}
	}

	conn.Close(status, reason)
}

// readLoop processes inbound events strictly in arrival order, so one
// connection's sends are never reordered against each other. Distinct
// connections run their own loops concurrently.
func (h *WSHandler) readLoop(ctx context.Context, conn *websocket.Conn, sess *core.Session, limiter *rateLimiter) error {
	for {
		var inbound proto.Inbound
		if err := wsjson.Read(ctx, conn, &inbound); err != nil {
			return err
		}

		if !limiter.allow() {
			sess.Deliver(core.Event{Err: &core.Error{Code: core.ErrCodeBadRequest, Message: "rate limit exceeded"}})
			continue
		}

		switch inbound.Type {
		case proto.InboundTypeJoinRoom:
			var join proto.JoinRoomData
			if err := json.Unmarshal(inbound.Data, &join); err != nil || join.Room == "" {
				sess.Deliver(core.Event{Err: &core.Error{Code: core.ErrCodeBadRequest, Message: "room is required"}})
				continue
			}
			// Any string is accepted as a room id; membership is not
			// validated against group lists (clients are trusted to
			// join only their own rooms).
			h.registry.Join(sess, join.Room)
			h.log.Debug().Str("session_id", sess.ID).Str("room", join.Room).Msg("joined room")

		case proto.InboundTypeSendMessage:
			var send proto.SendMessageData
			if err := json.Unmarshal(inbound.Data, &send); err != nil {
				sess.Deliver(core.Event{Err: &core.Error{Code: core.ErrCodeBadRequest, Message: "malformed send_message payload"}})
				continue
			}
			// Failed sends are logged and dropped; the sender gets no
			// acknowledgment either way, only the broadcast echo.
			if _, err := h.coord.SendMessage(ctx, core.SendInput{
				SenderID:    send.Sender,
				Content:     send.Content,
				RecipientID: send.Recipient,
				GroupID:     send.GroupID,
			}); err != nil {
				h.log.Error().Err(err).Str("session_id", sess.ID).Int64("sender", send.Sender).Msg("send_message failed")
			}

		default:
			sess.Deliver(core.Event{Err: &core.Error{Code: core.ErrCodeBadRequest, Message: "unknown message type"}})
		}
	}
}

func (h *WSHandler) writeLoop(ctx context.Context, conn *websocket.Conn, sess *core.Session) error {
	for {
		select {
		case event := <-sess.Events:
			if err := wsjson.Write(ctx, conn, outboundFromEvent(event)); err != nil {
				h.log.Error().Err(err).Str("session_id", sess.ID).Msg("write ws event")
				return err
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}
