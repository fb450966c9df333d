package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"media-editor/internal/logging"

	"github.com/gorilla/websocket"
)

const (
	// streamEndMessage is the text message a client sends once all input has
	// been written. Remaining output is flushed before the socket closes.
	streamEndMessage = "end"

	streamWriteTimeout = 10 * time.Second

	// Control frame payloads are limited to 125 bytes, two of which hold the
	// close code.
	maxCloseReason = 123
)

// Stream upgrades to a WebSocket and pipes binary messages through a
// dedicated FFmpeg process, sending the encoded output back as binary
// messages. The token comes from the Authorization header or the token
// query parameter and is checked before the upgrade.
func (h *Handlers) Stream(w http.ResponseWriter, r *http.Request) {
	userID, status := h.authenticate(r, true)
	if status != 0 {
		w.WriteHeader(status)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// The upgrader has already written an error response.
		logging.Debug("WebSocket upgrade failed: %v", err)
		return
	}
	defer conn.Close()
	conn.SetReadLimit(h.receiver.MaxBytes())

	logging.Info("Stream opened by user %s from %s", userID, conn.RemoteAddr())

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	session := h.transcoder.NewSession(ctx, func(chunk []byte) error {
		if err := conn.SetWriteDeadline(time.Now().Add(streamWriteTimeout)); err != nil {
			return err
		}
		return conn.WriteMessage(websocket.BinaryMessage, chunk)
	})

	ended := false
	var inputErr error
	for !ended && inputErr == nil {
		msgType, data, err := conn.ReadMessage()
		if err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				logging.Debug("Stream read for user %s ended: %v", userID, err)
			}
			break
		}

		switch msgType {
		case websocket.BinaryMessage:
			if _, err := session.Write(data); err != nil {
				inputErr = err
			}
		case websocket.TextMessage:
			if strings.TrimSpace(string(data)) == streamEndMessage {
				ended = true
			}
		}
	}

	closeErr := session.Close()
	switch {
	case inputErr != nil:
		logging.Warn("Stream for user %s failed: %v", userID, inputErr)
		reason := inputErr.Error()
		if closeErr != nil {
			reason = closeErr.Error()
		}
		sendClose(conn, websocket.CloseInternalServerErr, reason)
	case closeErr != nil:
		logging.Warn("Stream encoder for user %s exited with error: %v", userID, closeErr)
		if ended {
			sendClose(conn, websocket.CloseInternalServerErr, closeErr.Error())
		}
	case ended:
		sendClose(conn, websocket.CloseNormalClosure, "")
	}

	logging.Info("Stream closed for user %s", userID)
}

func sendClose(conn *websocket.Conn, code int, reason string) {
	if len(reason) > maxCloseReason {
		reason = strings.ToValidUTF8(reason[:maxCloseReason], "")
	}
	msg := websocket.FormatCloseMessage(code, reason)
	err := conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(streamWriteTimeout))
	if err != nil && !errors.Is(err, websocket.ErrCloseSent) {
		logging.Debug("failed to send close frame: %v", err)
	}
}
