package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/gigachat/gigachat-server/internal/proto"
)

func main() {
	if err := run(); err != nil {
		log.Printf("ws_chat: %v", err)
		os.Exit(1)
	}
}

func run() error {
	addr := flag.String("addr", "ws://localhost:8080/ws", "WebSocket address")
	sender := flag.Int64("sender", 0, "sender user id")
	to := flag.Int64("to", 0, "recipient user id (direct chat)")
	group := flag.Int64("group", 0, "group id (group chat)")
	flag.Parse()

	if *sender == 0 {
		return errors.New("--sender is required")
	}
	if (*to == 0) == (*group == 0) {
		return errors.New("exactly one of --to or --group is required")
	}

	baseCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithCancel(baseCtx)
	defer cancel()

	conn, _, err := websocket.Dial(ctx, *addr, nil)
	if err != nil {
		return fmt.Errorf("dial: %w", err)
	}
	defer conn.Close(websocket.StatusNormalClosure, "bye")

	send := func(v interface{}) {
		if writeErr := wsjson.Write(ctx, conn, v); writeErr != nil {
			cancel()
			log.Printf("send: %v", writeErr)
		}
	}

	// Direct chats listen on your own user-id room; groups on the group-id room.
	room := strconv.FormatInt(*sender, 10)
	if *group != 0 {
		room = strconv.FormatInt(*group, 10)
	}
	joinPayload, err := json.Marshal(proto.JoinRoomData{Room: room})
	if err != nil {
		return fmt.Errorf("marshal join_room: %w", err)
	}
	send(proto.Inbound{Type: proto.InboundTypeJoinRoom, Data: joinPayload})

	fmt.Printf("Connected to %s as user %d, listening on room %s\n", *addr, *sender, room)
	fmt.Println("Type messages and press Enter to send. Ctrl+C to exit.")

	go func() {
		defer cancel()
		readLoop(ctx, conn)
	}()

	writeLoop(ctx, conn, *sender, *to, *group)

	stop()
	cancel()
	_ = conn.Close(websocket.StatusNormalClosure, "bye")
	return nil
}

func readLoop(ctx context.Context, conn *websocket.Conn) {
	for {
		var outbound proto.Outbound
		if err := wsjson.Read(ctx, conn, &outbound); err != nil {
			// Treat expected shutdowns quietly.
			if errors.Is(err, context.Canceled) {
				return
			}
			switch websocket.CloseStatus(err) {
			case websocket.StatusNormalClosure, websocket.StatusGoingAway:
				return
			}
			log.Printf("read error: %v", err)
			return
		}

		switch outbound.Type {
		case proto.OutboundTypeReceiveMessage:
			raw, err := json.Marshal(outbound.Data)
			if err != nil {
				log.Printf("marshal outbound data: %v", err)
				continue
			}
			var msg proto.ReceivedMessage
			if err := json.Unmarshal(raw, &msg); err != nil {
				log.Printf("unmarshal receive_message: %v", err)
				continue
			}
			fmt.Printf("%s: %s\n", msg.Sender.Username, msg.Content)
		case proto.OutboundTypeError:
			if outbound.Error != nil {
				fmt.Printf("server error [%s]: %s\n", outbound.Error.Code, outbound.Error.Msg)
			}
		default:
			fmt.Printf("type=%s data=%v\n", outbound.Type, outbound.Data)
		}
	}
}

func writeLoop(ctx context.Context, conn *websocket.Conn, sender, to, group int64) {
	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case line, ok := <-lines:
			if !ok {
				return
			}
			text := strings.TrimSpace(line)
			if text == "" {
				continue
			}

			data := proto.SendMessageData{Sender: sender, Content: text}
			if group != 0 {
				data.GroupID = &group
			} else {
				data.Recipient = &to
			}
			payload, err := json.Marshal(data)
			if err != nil {
				log.Printf("marshal send_message: %v", err)
				return
			}
			if err := wsjson.Write(ctx, conn, proto.Inbound{Type: proto.InboundTypeSendMessage, Data: payload}); err != nil {
				log.Printf("send error: %v", err)
				return
			}
		}
	}
}
