package controllers

import (
	"encoding/json"
	"io"
	"net"
	"net/http"
	"sync"

	"github.com/gobwas/ws"
	"github.com/gobwas/ws/wsutil"

	"calendar_server_go/models"
)

// streamConn - серверная сторона websocket. Кадр пишется несколькими
// Write, поэтому все записи (данные и ответы на ping/close) идут под mu.
type streamConn struct {
	conn net.Conn
	mu   sync.Mutex
}

func (c *streamConn) writeText(payload []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return wsutil.WriteServerMessage(c.conn, ws.OpText, payload)
}

// handleControl отвечает на управляющий кадр под тем же замком, что и данные.
func (c *streamConn) handleControl(h ws.Header, r io.Reader) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return wsutil.ControlFrameHandler(c.conn, ws.StateServerSide)(h, r)
}

// readUntilClosed читает кадры клиента до закрытия или ошибки. Данные
// клиента не нужны и отбрасываются.
func (c *streamConn) readUntilClosed() error {
	rd := wsutil.Reader{
		Source:         c.conn,
		State:          ws.StateServerSide,
		CheckUTF8:      true,
		OnIntermediate: c.handleControl,
	}
	for {
		h, err := rd.NextFrame()
		if err != nil {
			return err
		}
		if h.OpCode.IsControl() {
			if err := c.handleControl(h, &rd); err != nil {
				return err
			}
			continue
		}
		if err := rd.Discard(); err != nil {
			return err
		}
	}
}

// EventStreamHandler открывает websocket и присылает полный отсортированный
// список событий сразу и после каждого изменения. Подписка снимается,
// когда клиент закрывает соединение.
// Пример URL: GET /api/events/stream (ws)
func (a *API) EventStreamHandler(w http.ResponseWriter, r *http.Request) {
	conn, _, _, err := ws.UpgradeHTTP(r, w)
	if err != nil {
		a.log.Warn("Websocket upgrade failed", "remote", r.RemoteAddr, "error", err)
		return
	}
	log := a.log.With("remote", r.RemoteAddr)
	log.Debug("Event stream opened")

	sc := &streamConn{conn: conn}
	sub := a.Events.Subscribe(func(list []models.Event) {
		if list == nil {
			list = []models.Event{}
		}
		payload, err := json.Marshal(list)
		if err != nil {
			log.Error("Failed to encode event list", "error", err)
			return
		}
		if err := sc.writeText(payload); err != nil {
			log.Debug("Event stream write failed", "error", err)
			conn.Close()
		}
	})

	err = sc.readUntilClosed()
	sub.Cancel()
	conn.Close()
	log.Debug("Event stream closed", "reason", err)
}
