package notify

import (
	"time"

	"github.com/gorilla/websocket"
)

const pingPeriod = 30 * time.Second

// ServeWebSocket pumps envelopes from ch to conn as JSON text frames until
// either side goes away. Inbound frames are discarded; the read loop only
// exists to notice the peer closing. It closes ch and conn before returning.
func ServeWebSocket(conn *websocket.Conn, ch *QueueChannel, writeTimeout time.Duration) error {
	if writeTimeout <= 0 {
		writeTimeout = 10 * time.Second
	}
	defer conn.Close()
	defer ch.Close()

	conn.SetReadDeadline(time.Now().Add(2 * pingPeriod))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(2 * pingPeriod))
	})
	go func() {
		defer ch.Close()
		for {
			if _, _, err := conn.NextReader(); err != nil {
				return
			}
		}
	}()

	ping := time.NewTicker(pingPeriod)
	defer ping.Stop()
	for {
		select {
		case <-ch.Done():
			conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(writeTimeout))
			return nil
		case env := <-ch.Events():
			conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := conn.WriteJSON(env); err != nil {
				return err
			}
		case <-ping.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeTimeout)); err != nil {
				return err
			}
		}
	}
}
