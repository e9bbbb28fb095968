// SPDX-FileCopyrightText: 2021 Softbear, Inc.
// SPDX-License-Identifier: AGPL-3.0-or-later

package server

import (
	"log"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 5 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 8) / 10

	// If more than this many messages are queued for sending, the
	// socket is congested and messages may be dropped
	socketCongestionThreshold = 8

	// Room state goes out every tick, so this is ~3 seconds of backlog.
	socketBufferSize = 32

	// MaxInboundBytes is the largest inbound message handled. Larger ones
	// are answered with ERR_PAYLOAD_TOO_LARGE.
	MaxInboundBytes = 2048

	// Frames beyond this close the connection outright.
	maxReadSize = 16 * 1024

	debugSocket = false
)

type (
	// SocketClient is a middleman between the websocket connection and the hub.
	SocketClient struct {
		ClientData
		conn    *websocket.Conn
		send    chan outbound
		once    sync.Once
		counter int // counts up every send
	}

	// closeFrame is queued by Kick and never marshaled.
	closeFrame struct {
		code   int
		reason string
	}
)

// NewSocketClient creates a SocketClient from a connection.
func NewSocketClient(conn *websocket.Conn, sessionID string) *SocketClient {
	return &SocketClient{
		ClientData: ClientData{SessionID: sessionID},
		conn:       conn,
		send:       make(chan outbound, socketBufferSize),
	}
}

func (client *SocketClient) Close() {
	close(client.send)
}

func (client *SocketClient) Data() *ClientData {
	return &client.ClientData
}

func (client *SocketClient) Destroy() {
	client.once.Do(func() {
		hub := client.Hub

		// Needs to go through when called on hub goroutine.
		select {
		case hub.unregister <- client:
		case <-hub.done:
		default:
			go func() {
				select {
				case hub.unregister <- client:
				case <-hub.done:
				}
			}()
		}

		_ = client.conn.Close()
	})
}

func (client *SocketClient) Init() {
	go client.writePump()
	go client.readPump()
}

func (client *SocketClient) Send(message outbound) {
	// How many messages there are in excess of a reasonable amount
	congestion := len(client.send) - socketCongestionThreshold

	// The closer the buffer is to being full, the more messages
	// we drop on the floor (to give the socket a chance to
	// catch up)
	client.counter++
	if congestion > 1 && client.counter%congestion != 0 {
		if _, ok := message.(RoomState); ok {
			// Superseded next tick anyway
			return
		}
	}

	select {
	case client.send <- message:
	default:
		if debugSocket {
			log.Println("SocketClient is not responsive", client.SessionID)
		}
		client.Destroy()
	}
}

func (client *SocketClient) Kick(code int, reason string) {
	select {
	case client.send <- closeFrame{code: code, reason: reason}:
	default:
		client.Destroy()
	}
}

func (client *SocketClient) readPump() {
	defer client.Destroy()
	client.conn.SetReadLimit(maxReadSize)
	_ = client.conn.SetReadDeadline(time.Now().Add(pongWait))
	client.conn.SetPongHandler(func(string) error {
		_ = client.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, buf, err := client.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Println("close error:", err)
			}
			break
		}

		var in inbound
		if len(buf) > MaxInboundBytes {
			in = PayloadTooLarge{size: len(buf)}
		} else {
			var message Message
			if err := json.Unmarshal(buf, &message); err != nil {
				in = InvalidInbound{err: err}
			} else {
				in = message.Data.(inbound)
			}
		}

		if !client.Hub.push(SignedInbound{Client: client, inbound: in}) {
			break
		}
	}
}

func (client *SocketClient) writePump() {
	pingTicker := time.NewTicker(pingPeriod)

	defer func() {
		if err := recover(); err != nil {
			if debugSocket {
				log.Println("send error:", err)
			}
		}
		pingTicker.Stop()
		client.Destroy()
	}()

	for {
		select {
		case out, ok := <-client.send:
			_ = client.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// The hub closed the channel.
				_ = client.conn.WriteMessage(websocket.CloseMessage, nil)
				return
			}

			if frame, ok := out.(closeFrame); ok {
				_ = client.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(frame.code, frame.reason))
				return
			}

			w, err := client.conn.NextWriter(websocket.TextMessage)
			if err != nil {
				panic(err)
			}

			// Wrap with Message to marshal type
			if err = json.NewEncoder(w).Encode(Message{Data: out}); err != nil {
				panic(err)
			}

			if err = w.Close(); err != nil {
				panic(err)
			}
		case <-pingTicker.C:
			_ = client.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := client.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
